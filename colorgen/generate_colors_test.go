package main

import (
	"archive/zip"
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/maxsupermanhd/RegionMap/colors"
	"github.com/maxsupermanhd/RegionMap/primitives"
)

func solidPng(t *testing.T, c color.NRGBA) []byte {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for i := 0; i < 16; i++ {
		img.SetNRGBA(i%4, i/4, c)
	}
	b := new(bytes.Buffer)
	if err := png.Encode(b, img); err != nil {
		t.Fatal(err)
	}
	return b.Bytes()
}

func testJar(t *testing.T) *zip.Reader {
	files := map[string][]byte{
		"assets/minecraft/blockstates/stone.json":        []byte(`{"variants":{"":{"model":"minecraft:block/stone"}}}`),
		"assets/minecraft/blockstates/oak_leaves.json":   []byte(`{"variants":{"":[{"model":"minecraft:block/oak_leaves"}]}}`),
		"assets/minecraft/blockstates/broken.json":       []byte(`{"variants":{"":{"model":"minecraft:block/nope"}}}`),
		"assets/minecraft/models/block/cube_all.json":    []byte(`{"textures":{"particle":"#all","up":"#all"}}`),
		"assets/minecraft/models/block/stone.json":       []byte(`{"parent":"minecraft:block/cube_all","textures":{"all":"minecraft:block/stone"}}`),
		"assets/minecraft/models/block/oak_leaves.json":  []byte(`{"parent":"minecraft:block/cube_all","textures":{"all":"minecraft:block/oak_leaves"}}`),
		"assets/minecraft/textures/block/stone.png":      solidPng(t, color.NRGBA{R: 100, G: 100, B: 100, A: 255}),
		"assets/minecraft/textures/block/oak_leaves.png": solidPng(t, color.NRGBA{R: 40, G: 200, B: 40, A: 255}),
	}
	b := new(bytes.Buffer)
	zw := zip.NewWriter(b)
	for n, d := range files {
		w, err := zw.Create(n)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write(d); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	zr, err := zip.NewReader(bytes.NewReader(b.Bytes()), int64(b.Len()))
	if err != nil {
		t.Fatal(err)
	}
	return zr
}

func TestGenerate(t *testing.T) {
	m, err := generate(testJar(t))
	if err != nil {
		t.Fatal(err)
	}
	c, ok := m.Lookup(primitives.BlockState{Name: "minecraft:stone"})
	if !ok || c.Color != (color.RGBA{R: 100, G: 100, B: 100, A: 255}) || c.Tint != colors.TintNone {
		t.Fatalf("stone is %v %v", ok, c)
	}
	c, ok = m.Lookup(primitives.BlockState{Name: "minecraft:oak_leaves", Properties: map[string]string{"persistent": "true"}})
	if !ok || c.Color != (color.RGBA{R: 40, G: 200, B: 40, A: 255}) || c.Tint != colors.TintFoliage {
		t.Fatalf("oak leaves are %v %v", ok, c)
	}
	if _, ok := m.Lookup(primitives.BlockState{Name: "minecraft:broken"}); ok {
		t.Fatal("block without model got a color")
	}
}

func TestAverageColor(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 4))
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255})
	img.SetNRGBA(1, 1, color.NRGBA{B: 255, A: 255})
	// second frame is ignored
	img.SetNRGBA(0, 2, color.NRGBA{G: 255, A: 255})
	c := averageColor(img)
	if c.R != 0xFFFF/2 || c.G != 0 || c.B != 0xFFFF/2 || c.A != 0xFFFF/2 {
		t.Fatalf("got %v", c)
	}
}
