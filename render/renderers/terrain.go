package renderers

import (
	"image"

	"github.com/maxsupermanhd/RegionMap/render"
)

// NewTerrainRenderer draws surface colors with relief shading.
func NewTerrainRenderer() Variant {
	return Variant{
		Name: "terrain",
		Settings: func(base *render.Settings) *render.Settings {
			return base
		},
		Image: func(o *render.Output) *image.RGBA {
			return o.Image()
		},
	}
}

// NewFlatRenderer draws surface colors as they are.
func NewFlatRenderer() Variant {
	return Variant{
		Name:     "flat",
		Settings: unshaded,
		Image: func(o *render.Output) *image.RGBA {
			return o.Image()
		},
	}
}
