package renderers

import (
	"testing"

	"github.com/maxsupermanhd/RegionMap/render"
)

func TestVariants(t *testing.T) {
	v := ConstructRenderers()
	if len(Names(v)) != 3 {
		t.Fatalf("variants: %v", Names(v))
	}
	base := render.DefaultSettings(nil, nil)
	if v["terrain"].Settings(base).Shading.Disabled {
		t.Fatal("terrain is not shaded")
	}
	flat := v["flat"].Settings(base)
	if !flat.Shading.Disabled || base.Shading.Disabled {
		t.Fatal("flat settings must be a shading-free copy")
	}

	o := render.NewOutput(0, 0)
	o.Colors[5].A = 255
	o.Heights[5] = 77
	img := v["heightmap"].Image(o)
	if c := img.RGBAAt(5, 0); c.R != 77 || c.A != 255 {
		t.Fatalf("height pixel %v", c)
	}
	if c := img.RGBAAt(6, 0); c.A != 0 {
		t.Fatalf("empty pixel %v", c)
	}
}
