package render

import (
	"image/color"
	"testing"
)

func TestShadeFlatAtReference(t *testing.T) {
	const w = 8
	c := make([]color.RGBA, w*w)
	h := make([]uint16, w*w)
	for i := range c {
		c[i] = color.RGBA{100, 110, 120, 255}
		h[i] = 64
	}
	Shade(c, h, w, DefaultShading)
	for i := range c {
		if c[i] != (color.RGBA{100, 110, 120, 255}) {
			t.Fatalf("pixel %d changed to %v", i, c[i])
		}
	}
}

func TestShadeSkipsZeroPixels(t *testing.T) {
	c := []color.RGBA{{}, {50, 50, 50, 255}, {}}
	h := []uint16{0, 100, 200}
	Shade(c, h, 3, DefaultShading)
	if c[0] != (color.RGBA{}) || c[2] != (color.RGBA{}) {
		t.Fatalf("zero pixels modified: %v", c)
	}
}

func TestShadeSlope(t *testing.T) {
	gray := color.RGBA{100, 100, 100, 255}
	c := []color.RGBA{gray, gray, gray}
	h := []uint16{64, 65, 66}
	Shade(c, h, 3, DefaultShading)
	// edges use one sided difference, middle uses doubled central difference
	want := []uint8{108, 132, 108}
	for i := range c {
		if c[i].R != want[i] || c[i].G != want[i] || c[i].B != want[i] || c[i].A != 255 {
			t.Fatalf("pixel %d is %v, want %d", i, c[i], want[i])
		}
	}
}

func TestShadeClamps(t *testing.T) {
	c := []color.RGBA{{250, 5, 128, 255}, {250, 5, 128, 255}}
	h := []uint16{0, 255}
	Shade(c, h, 2, DefaultShading)
	// slope clamps to 10, channels clamp to 255
	// left: (10 - 64/255)*8 rounds to 78, right: (10 + 191/255)*8 rounds to 86
	if c[0] != (color.RGBA{255, 83, 206, 255}) {
		t.Fatalf("left pixel %v", c[0])
	}
	if c[1] != (color.RGBA{255, 91, 214, 255}) {
		t.Fatalf("right pixel %v", c[1])
	}
}

func TestShadeAltitude(t *testing.T) {
	c := []color.RGBA{{100, 100, 100, 255}}
	h := []uint16{255}
	p := DefaultShading
	p.AltitudeShadingFactor = 0.5
	Shade(c, h, 1, p)
	// 0.5*(255-64)/255 = 0.3745, *8 rounds to 3
	if c[0].R != 103 {
		t.Fatalf("pixel %v", c[0])
	}
}
