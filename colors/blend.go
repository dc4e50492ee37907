package colors

import "image/color"

func mul8(a, b uint8) uint8 {
	return uint8((uint32(a)*uint32(b) + 127) / 255)
}

// Multiply tints c by t componentwise on RGB, alpha of c is kept.
func Multiply(c, t color.RGBA) color.RGBA {
	return color.RGBA{
		R: mul8(c.R, t.R),
		G: mul8(c.G, t.G),
		B: mul8(c.B, t.B),
		A: c.A,
	}
}

// Over composites non-premultiplied src over dst.
func Over(dst, src color.RGBA) color.RGBA {
	sa := uint32(src.A)
	da := uint32(dst.A)
	oa := sa*255 + da*(255-sa)
	if oa == 0 {
		return color.RGBA{}
	}
	ch := func(s, d uint8) uint8 {
		return uint8((uint32(s)*sa*255 + uint32(d)*da*(255-sa) + oa/2) / oa)
	}
	return color.RGBA{
		R: ch(src.R, dst.R),
		G: ch(src.G, dst.G),
		B: ch(src.B, dst.B),
		A: uint8((oa + 127) / 255),
	}
}
