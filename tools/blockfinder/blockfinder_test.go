package main

import (
	"strings"
	"testing"

	"github.com/maxsupermanhd/RegionMap/colors"
	"github.com/maxsupermanhd/RegionMap/primitives"
)

func TestFinderChunk(t *testing.T) {
	blocks := colors.NewBlockColorMap()
	blocks.Set(primitives.BlockState{Name: "minecraft:stone"}, colors.BlockColor{})
	c := &primitives.Chunk{X: 2, Z: -1}
	c.Sections[0] = &primitives.Section{Y: 0, Palette: []primitives.BlockState{
		{Name: "minecraft:stone"},
		{Name: "minecraft:nether_portal", Properties: map[string]string{"axis": "x"}},
	}}
	c.Sections[1] = &primitives.Section{Y: 1, Palette: []primitives.BlockState{
		{Name: "minecraft:nether_portal", Properties: map[string]string{"axis": "x"}},
	}}
	got := (&finder{match: "portal", blocks: blocks}).chunk(c)
	if len(got) != 2 {
		t.Fatalf("got %q", got)
	}
	if !strings.Contains(got[0], "palette match minecraft:nether_portal") || !strings.Contains(got[1], "missing color minecraft:nether_portal") {
		t.Fatalf("got %q", got)
	}
	if got := (&finder{match: "diamond"}).chunk(c); len(got) != 0 {
		t.Fatalf("got %q", got)
	}
}
