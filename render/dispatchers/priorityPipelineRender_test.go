package dispatchers

import (
	"context"
	"errors"
	"image/color"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/maxsupermanhd/RegionMap/colors"
	"github.com/maxsupermanhd/RegionMap/lib/bitpack"
	"github.com/maxsupermanhd/RegionMap/primitives"
	"github.com/maxsupermanhd/RegionMap/render"
)

var red = color.RGBA{200, 0, 0, 255}

func testRenderer(t *testing.T) *PriorityPipelineRender {
	blocks := colors.NewBlockColorMap()
	blocks.Set(primitives.BlockState{Name: "minecraft:red_wool"}, colors.BlockColor{Color: red})
	s := render.DefaultSettings(blocks, colors.NewBiomeColorMap())
	s.Shading.Disabled = true
	r := NewPriorityRenderer(Options{
		QueueNormalLen:      4,
		QueuePriorityLen:    4,
		QueueFetchedLen:     2,
		RendererThreadCount: 3,
		FetcherThreadCount:  2,
	}, s, slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(r.Close)
	return r
}

// floorChunk has a single red voxel layer at y=10.
func floorChunk() *primitives.Chunk {
	values := make([]uint64, primitives.SectionVolume)
	for i := 10 << 8; i < 11<<8; i++ {
		values[i] = 1
	}
	c := &primitives.Chunk{DataVersion: 1976, Status: "full"}
	c.Sections[0] = &primitives.Section{
		Palette: []primitives.BlockState{
			{Name: "minecraft:air"},
			{Name: "minecraft:red_wool"},
		},
		BlockStates: bitpack.Pack(values, 4),
	}
	return c
}

type memRegion struct {
	c *primitives.Chunk
}

func (m memRegion) ReadChunk(lx, lz int) (*primitives.Chunk, error) {
	if lx == 0 && lz == 0 {
		return m.c, nil
	}
	return nil, nil
}

func (m memRegion) Close() error { return nil }

type countingSource struct {
	mu     sync.Mutex
	opened map[[2]int]int
	fail   bool
}

func (s *countingSource) OpenRegion(ctx context.Context, rx, rz int) (render.RegionChunks, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.opened == nil {
		s.opened = map[[2]int]int{}
	}
	s.opened[[2]int{rx, rz}]++
	if s.fail {
		return nil, errors.New("disk on fire")
	}
	if rx == 9 {
		return nil, nil
	}
	return memRegion{c: floorChunk()}, nil
}

func TestRenderMany(t *testing.T) {
	r := testRenderer(t)
	src := &countingSource{}
	rets := []<-chan Result{}
	for i := 0; i < 20; i++ {
		ret, err := r.Submit(context.Background(), Job{
			Loc:    primitives.ImageLocation{World: "w", Dimension: "overworld", Variant: "terrain", X: i, Z: -i},
			Source: src,
		}, i%3 == 0)
		if err != nil {
			t.Fatal(err)
		}
		rets = append(rets, ret)
	}
	for i, ret := range rets {
		res := <-ret
		if res.Err != nil {
			t.Fatal(res.Err)
		}
		if res.Loc.X != i || res.Output.RX != i || res.Output.RZ != -i {
			t.Fatalf("result %d is for %v", i, res.Loc)
		}
		if res.Output.Colors[0] != red || res.Output.Heights[0] != 10 {
			t.Fatalf("result %d pixel %v height %d", i, res.Output.Colors[0], res.Output.Heights[0])
		}
		if res.Output.Colors[16] != (color.RGBA{}) {
			t.Fatalf("result %d has data outside the only chunk", i)
		}
	}
	if len(src.opened) != 20 {
		t.Fatalf("opened %d regions", len(src.opened))
	}
}

func TestRenderMissingRegion(t *testing.T) {
	r := testRenderer(t)
	out, err := r.Render(context.Background(), Job{
		Loc:    primitives.ImageLocation{X: 9},
		Source: &countingSource{},
	}, true)
	if err != nil {
		t.Fatal(err)
	}
	if out.Stats.ChunksRendered != 0 || out.Colors[0] != (color.RGBA{}) {
		t.Fatal("missing region rendered something")
	}
}

func TestRenderSourceFailure(t *testing.T) {
	r := testRenderer(t)
	_, err := r.Render(context.Background(), Job{Source: &countingSource{fail: true}}, false)
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestRenderSettingsOverride(t *testing.T) {
	r := testRenderer(t)
	s := *r.settings
	s.Bounds.MaxY = 5
	out, err := r.Render(context.Background(), Job{Source: &countingSource{}, Settings: &s}, false)
	if err != nil {
		t.Fatal(err)
	}
	if out.Colors[0] != (color.RGBA{}) {
		t.Fatal("override bounds ignored")
	}
}

func TestRenderCancelled(t *testing.T) {
	r := testRenderer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.Render(ctx, Job{Source: &countingSource{}}, false)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v", err)
	}
}

func TestSubmitAfterClose(t *testing.T) {
	r := testRenderer(t)
	r.Close()
	if _, err := r.Submit(context.Background(), Job{Source: &countingSource{}}, false); !errors.Is(err, ErrClosed) {
		t.Fatalf("got %v", err)
	}
	if _, err := r.Submit(context.Background(), Job{}, false); err == nil {
		t.Fatal("job without source accepted")
	}
}
