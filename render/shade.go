package render

import (
	"image/color"
	"math"
)

// Shade brightens or darkens colors by terrain slope and altitude in place.
// Buffers are width wide rows. Fully zero pixels are left as is.
func Shade(colors []color.RGBA, heights []uint16, width int, p Shading) {
	if width <= 0 {
		return
	}
	depth := len(colors) / width
	h := func(x, z int) float64 {
		return float64(heights[x+z*width])
	}
	for z := 0; z < depth; z++ {
		for x := 0; x < width; x++ {
			i := x + z*width
			if colors[i] == (color.RGBA{}) {
				continue
			}
			var dx, dz float64
			switch {
			case width == 1:
			case x == 0:
				dx = h(x+1, z) - h(x, z)
			case x == width-1:
				dx = h(x, z) - h(x-1, z)
			default:
				dx = 2 * (h(x+1, z) - h(x-1, z))
			}
			switch {
			case depth == 1:
			case z == 0:
				dz = h(x, z+1) - h(x, z)
			case z == depth-1:
				dz = h(x, z) - h(x, z-1)
			default:
				dz = 2 * (h(x, z+1) - h(x, z-1))
			}
			slope := clampFloat(dx+dz, -10, 10)
			alt := clampFloat(p.AltitudeShadingFactor*(h(x, z)-p.ReferenceAltitude)/255, p.MinAltitudeShading, p.MaxAltitudeShading)
			delta := int(math.Round((slope + alt) * 8))
			if delta == 0 {
				continue
			}
			c := colors[i]
			colors[i] = color.RGBA{
				R: uint8(clampInt(int(c.R)+delta, 0, 255)),
				G: uint8(clampInt(int(c.G)+delta, 0, 255)),
				B: uint8(clampInt(int(c.B)+delta, 0, 255)),
				A: c.A,
			}
		}
	}
}

func clampFloat(v, min, max float64) float64 {
	return math.Max(min, math.Min(max, v))
}
