package renderers

import (
	"image"

	"github.com/maxsupermanhd/RegionMap/render"
)

// NewHeightmapRenderer draws surface height as grayscale.
func NewHeightmapRenderer() Variant {
	return Variant{
		Name:     "heightmap",
		Settings: unshaded,
		Image: func(o *render.Output) *image.RGBA {
			return o.HeightImage()
		},
	}
}
