package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/maxsupermanhd/RegionMap/chunkStorage"
	imagecache "github.com/maxsupermanhd/RegionMap/imageCache"
	"github.com/maxsupermanhd/RegionMap/primitives"
	"github.com/maxsupermanhd/RegionMap/render/dispatchers"
	"github.com/nfnt/resize"
)

var (
	errUnknownVariant = errors.New("unknown tile variant")
	errBadTileSize    = errors.New("bad tile size")
)

type tileEvent struct {
	World     string `json:"world"`
	Dimension string `json:"dim"`
	Variant   string `json:"variant,omitempty"`
	X         int    `json:"x"`
	Z         int    `json:"z"`
	Chunks    int    `json:"chunks,omitempty"`
	Missing   int    `json:"missingStates,omitempty"`
	TookMs    int64  `json:"took,omitempty"`
}

func newTileEvent(loc primitives.ImageLocation) tileEvent {
	return tileEvent{
		World:     loc.World,
		Dimension: loc.Dimension,
		Variant:   loc.Variant,
		X:         loc.X,
		Z:         loc.Z,
	}
}

// renderTile renders a region through the dispatcher, it is the image cache loader.
func renderTile(ctx context.Context, loc primitives.ImageLocation) (*image.RGBA, error) {
	v, ok := variants[loc.Variant]
	if !ok {
		return nil, fmt.Errorf("%w %q", errUnknownVariant, loc.Variant)
	}
	s, err := findWorldStorage(loc.World)
	if err != nil {
		return nil, err
	}
	d, err := s.GetDimension(loc.World, loc.Dimension)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, chunkStorage.ErrNoDim
	}
	started := time.Now()
	out, err := renderer.Render(ctx, dispatchers.Job{
		Loc:      loc,
		Source:   chunkStorage.DimensionSource(s, loc.World, loc.Dimension),
		Settings: v.Settings(renderSettings),
	}, true)
	if err != nil {
		return nil, err
	}
	e := newTileEvent(loc)
	e.Chunks = out.Stats.ChunksRendered
	e.Missing = out.Stats.MissingStates
	e.TookMs = time.Since(started).Milliseconds()
	globalEventRouter.Broadcast(mapEvent{Action: "tileRendered", Data: e})
	return v.Image(out), nil
}

func tileParams(params map[string]string) (loc primitives.ImageLocation, err error) {
	loc.World = params["world"]
	loc.Dimension = params["dim"]
	loc.Variant = params["variant"]
	if loc.Variant == "" {
		loc.Variant = "terrain"
	}
	loc.X, err = strconv.Atoi(params["rx"])
	if err != nil {
		return loc, fmt.Errorf("bad rx: %w", err)
	}
	loc.Z, err = strconv.Atoi(params["rz"])
	if err != nil {
		return loc, fmt.Errorf("bad rz: %w", err)
	}
	return loc, nil
}

// parseTileSize parses the requested edge length, empty means native size.
func parseTileSize(s string) (int, error) {
	if s == "" {
		return primitives.RegionBlocksSide, nil
	}
	size, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", errBadTileSize, err.Error())
	}
	if size < 1 || size > primitives.RegionBlocksSide {
		return 0, fmt.Errorf("%w: %d not in 1..%d", errBadTileSize, size, primitives.RegionBlocksSide)
	}
	return size, nil
}

func tileErrorStatus(err error) int {
	switch {
	case errors.Is(err, chunkStorage.ErrNoWorld), errors.Is(err, chunkStorage.ErrNoDim), errors.Is(err, errUnknownVariant):
		return http.StatusNotFound
	case errors.Is(err, dispatchers.ErrClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func tileHandler(w http.ResponseWriter, r *http.Request) {
	loc, err := tileParams(mux.Vars(r))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	size, err := parseTileSize(r.URL.Query().Get("size"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if _, ok := variants[loc.Variant]; !ok {
		http.Error(w, errUnknownVariant.Error(), http.StatusNotFound)
		return
	}
	var img *image.RGBA
	modTime := time.Now()
	if r.URL.Query().Get("cached") == "false" {
		img, err = renderTile(r.Context(), loc)
		if err == nil {
			err = imageCache.Set(r.Context(), loc, img)
		}
	} else {
		var ci *imagecache.CachedImage
		ci, err = imageCache.Get(r.Context(), loc)
		if err == nil {
			img = ci.Img
			modTime = ci.ModTime
		}
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		log.Printf("Failed to get tile %s: %v", loc.String(), err)
		http.Error(w, err.Error(), tileErrorStatus(err))
		return
	}
	var ret image.Image = img
	if size != img.Rect.Dx() {
		ret = resize.Resize(uint(size), uint(size), img, resize.NearestNeighbor)
	}
	w.Header().Set("Last-Modified", modTime.UTC().Format(http.TimeFormat))
	w.Header().Set("Cache-Control", "no-cache")
	writeImagePng(w, ret)
}

func writeImagePng(w http.ResponseWriter, img image.Image) {
	buffer := new(bytes.Buffer)
	if err := png.Encode(buffer, img); err != nil {
		log.Printf("Unable to encode image: %s", err.Error())
		http.Error(w, "", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(buffer.Bytes())))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buffer.Bytes()); err != nil {
		log.Printf("Unable to write image: %s", err.Error())
	}
}
