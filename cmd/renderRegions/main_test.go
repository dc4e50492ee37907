package main

import (
	"context"
	"testing"

	"github.com/maxsupermanhd/RegionMap/colors"
)

func TestFolderSourceMissingRegion(t *testing.T) {
	r, err := folderSource(t.TempDir()).OpenRegion(context.Background(), 3, -4)
	if err != nil {
		t.Fatal(err)
	}
	if r != nil {
		t.Fatalf("got %v for a missing region file", r)
	}
}

func TestSettingsFromFlags(t *testing.T) {
	*minY = 0
	*maxY = 64
	*noShading = true
	s := settingsFromFlags(colors.NewBlockColorMap(), colors.NewBiomeColorMap())
	if s.Bounds.MinY != 0 || s.Bounds.MaxY != 64 {
		t.Fatalf("got Y bounds %d..%d", s.Bounds.MinY, s.Bounds.MaxY)
	}
	if !s.Shading.Disabled {
		t.Fatal("shading enabled")
	}
}
