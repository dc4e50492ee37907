package filesystemChunkStorage

import (
	"context"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/maxsupermanhd/RegionMap/chunkStorage"
	"github.com/maxsupermanhd/RegionMap/colors"
	"github.com/maxsupermanhd/RegionMap/lib/bitpack"
	"github.com/maxsupermanhd/RegionMap/primitives"
	"github.com/maxsupermanhd/RegionMap/render"
	"github.com/maxsupermanhd/go-vmc/v762/save/region"
)

func TestExtractRegionPath(t *testing.T) {
	var x, z int
	if !ExtractRegionPath("r.-3.12.mca", &x, &z) || x != -3 || z != 12 {
		t.Fatalf("got %v %d %d", ExtractRegionPath("r.-3.12.mca", &x, &z), x, z)
	}
	for _, n := range []string{"r.1.mca", "r.1.2.mcr", "xr.1.2.mca", "r.a.2.mca", "r.1.2.mca.bak"} {
		if ExtractRegionPath(n, nil, nil) {
			t.Errorf("%q accepted", n)
		}
	}
	if RegionFileName(-1, 4) != "r.-1.4.mca" {
		t.Fatal(RegionFileName(-1, 4))
	}
}

func stoneChunk() *primitives.Chunk {
	values := make([]uint64, primitives.SectionVolume)
	for i := range values {
		values[i] = 1
	}
	c := &primitives.Chunk{DataVersion: 1976, Status: "full"}
	c.Sections[3] = &primitives.Section{
		Y:           3,
		Palette:     []primitives.BlockState{{Name: "minecraft:air"}, {Name: "minecraft:stone"}},
		BlockStates: bitpack.Pack(values, 4),
	}
	return c
}

func makeWorld(t *testing.T) string {
	root := t.TempDir()
	folder := filepath.Join(root, "survival", "region")
	if err := os.MkdirAll(folder, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(root, "notaworld", "stuff"), 0755); err != nil {
		t.Fatal(err)
	}
	reg, err := region.Create(filepath.Join(folder, RegionFileName(0, -1)))
	if err != nil {
		t.Fatal(err)
	}
	raw, err := chunkStorage.EncodeChunk(stoneChunk())
	if err != nil {
		t.Fatal(err)
	}
	if err := reg.WriteSector(3, 4, raw); err != nil {
		t.Fatal(err)
	}
	if err := reg.Close(); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(folder, "r.0.0.mca.tmp"), []byte("junk"), 0644); err != nil {
		t.Fatal(err)
	}
	return root
}

func TestFilesystemStorage(t *testing.T) {
	s, err := NewFilesystemChunkStorage(makeWorld(t))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	worlds, err := s.ListWorlds()
	if err != nil {
		t.Fatal(err)
	}
	if len(worlds) != 1 || worlds[0].Name != "survival" {
		t.Fatalf("worlds %+v", worlds)
	}
	if w, err := s.GetWorld("../survival"); w != nil || err != nil {
		t.Fatal("path escaping world name accepted")
	}
	dims, err := s.ListWorldDimensions("survival")
	if err != nil {
		t.Fatal(err)
	}
	if len(dims) != 1 || dims[0].Name != "overworld" {
		t.Fatalf("dims %+v", dims)
	}
	if _, err := s.ListWorldDimensions("nope"); err != chunkStorage.ErrNoWorld {
		t.Fatalf("got %v", err)
	}
	regions, err := s.ListRegions("survival", "overworld")
	if err != nil {
		t.Fatal(err)
	}
	if len(regions) != 1 || regions[0] != (chunkStorage.RegionPos{X: 0, Z: -1}) {
		t.Fatalf("regions %+v", regions)
	}
	count, err := s.GetDimensionChunksCount("survival", "overworld")
	if err != nil || count != 1 {
		t.Fatalf("count %d %v", count, err)
	}

	rc, err := s.OpenRegion(context.Background(), "survival", "overworld", 0, -1)
	if err != nil {
		t.Fatal(err)
	}
	c, err := rc.ReadChunk(3, 4)
	if err != nil || c == nil || c.Sections[3] == nil {
		t.Fatalf("chunk %v %v", c, err)
	}
	if c, err := rc.ReadChunk(0, 0); c != nil || err != nil {
		t.Fatalf("absent chunk %v %v", c, err)
	}
	rc.Close()

	if rc, err := s.OpenRegion(context.Background(), "survival", "overworld", 7, 7); rc != nil || err != nil {
		t.Fatalf("missing region %v %v", rc, err)
	}
	if _, err := s.OpenRegion(context.Background(), "survival", "the_moon", 0, 0); err != chunkStorage.ErrNoDim {
		t.Fatalf("got %v", err)
	}

	raw, err := s.GetChunkRaw("survival", "overworld", 3, -32+4)
	if err != nil || raw == nil {
		t.Fatalf("raw %v %v", raw, err)
	}
}

func TestRenderFromFilesystem(t *testing.T) {
	s, err := NewFilesystemChunkStorage(makeWorld(t))
	if err != nil {
		t.Fatal(err)
	}
	stone := color.RGBA{0x7d, 0x7d, 0x7d, 0xff}
	blocks := colors.NewBlockColorMap()
	blocks.Set(primitives.BlockState{Name: "minecraft:stone"}, colors.BlockColor{Color: stone})
	settings := render.DefaultSettings(blocks, colors.NewBiomeColorMap())
	settings.Shading.Disabled = true
	out, err := render.RenderRegion(context.Background(), chunkStorage.DimensionSource(s, "survival", "overworld"), 0, -1, settings)
	if err != nil {
		t.Fatal(err)
	}
	idx := 3*16 + 4*16*512
	if out.Colors[idx] != stone || out.Heights[idx] != 63 {
		t.Fatalf("pixel %v height %d", out.Colors[idx], out.Heights[idx])
	}
	if out.Stats.ChunksRendered != 1 {
		t.Fatalf("stats %+v", out.Stats)
	}
}
