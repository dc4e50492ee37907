package main

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/maxsupermanhd/RegionMap/chunkStorage"
	"github.com/maxsupermanhd/RegionMap/primitives"
)

func TestTileParams(t *testing.T) {
	loc, err := tileParams(map[string]string{"world": "w", "dim": "overworld", "rx": "-3", "rz": "7"})
	if err != nil {
		t.Fatal(err)
	}
	want := primitives.ImageLocation{World: "w", Dimension: "overworld", Variant: "terrain", X: -3, Z: 7}
	if loc != want {
		t.Fatalf("got %v, want %v", loc, want)
	}
	loc, err = tileParams(map[string]string{"world": "w", "dim": "the_end", "variant": "heightmap", "rx": "0", "rz": "0"})
	if err != nil {
		t.Fatal(err)
	}
	if loc.Variant != "heightmap" {
		t.Fatalf("variant %q", loc.Variant)
	}
	if _, err := tileParams(map[string]string{"rx": "a", "rz": "0"}); err == nil {
		t.Fatal("expected error on bad rx")
	}
}

func TestParseTileSize(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want int
		ok   bool
	}{
		{"", 512, true},
		{"256", 256, true},
		{"1", 1, true},
		{"512", 512, true},
		{"0", 0, false},
		{"513", 0, false},
		{"-5", 0, false},
		{"big", 0, false},
	} {
		got, err := parseTileSize(tc.in)
		if tc.ok != (err == nil) {
			t.Fatalf("%q: unexpected error %v", tc.in, err)
		}
		if err != nil && !errors.Is(err, errBadTileSize) {
			t.Fatalf("%q: error %v is not errBadTileSize", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("%q: got %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestTileErrorStatus(t *testing.T) {
	for err, want := range map[error]int{
		fmt.Errorf("wrapped: %w", chunkStorage.ErrNoWorld): http.StatusNotFound,
		chunkStorage.ErrNoDim:                              http.StatusNotFound,
		fmt.Errorf("%w %q", errUnknownVariant, "x"):        http.StatusNotFound,
		errors.New("disk on fire"):                         http.StatusInternalServerError,
	} {
		if got := tileErrorStatus(err); got != want {
			t.Fatalf("%v: got %d, want %d", err, got, want)
		}
	}
}

func TestRegionEventLocation(t *testing.T) {
	folder := filepath.Join("worlds", "survival", "DIM-1", "region")
	folders := map[string]watchedDim{folder: {World: "survival", Dimension: "the_nether"}}
	loc, ok := regionEventLocation(folders, filepath.Join(folder, "r.-2.5.mca"))
	if !ok {
		t.Fatal("region file not recognized")
	}
	want := primitives.ImageLocation{World: "survival", Dimension: "the_nether", X: -2, Z: 5}
	if loc != want {
		t.Fatalf("got %v, want %v", loc, want)
	}
	if _, ok := regionEventLocation(folders, filepath.Join(folder, "r.0.0.mca.tmp")); ok {
		t.Fatal("temporary file recognized as region")
	}
	if _, ok := regionEventLocation(folders, filepath.Join("elsewhere", "r.0.0.mca")); ok {
		t.Fatal("file outside watched folders recognized")
	}
}

func TestEventRouter(t *testing.T) {
	router := newMapEventRouter()
	exit := make(chan struct{})
	done := make(chan struct{})
	go func() {
		router.Run(exit)
		close(done)
	}()
	a := router.Connect()
	b := router.Connect()
	for router.Clients() != 2 {
	}
	router.Broadcast(mapEvent{Action: "tileRendered", Data: 1})
	for _, c := range []chan mapEvent{a, b} {
		e := <-c
		if e.Action != "tileRendered" {
			t.Fatalf("got event %q", e.Action)
		}
	}
	router.Disconnect(a)
	if _, ok := <-a; ok {
		t.Fatal("disconnected client channel is open")
	}
	close(exit)
	<-done
	if _, ok := <-b; ok {
		t.Fatal("client channel open after router exit")
	}
}
