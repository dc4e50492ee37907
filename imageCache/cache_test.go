package imagecache

import (
	"context"
	"errors"
	"image"
	"image/color"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/maxsupermanhd/RegionMap/primitives"
)

type countingLoader struct {
	calls atomic.Int64
	gate  chan struct{}
	fail  atomic.Bool
}

func (l *countingLoader) load(ctx context.Context, loc primitives.ImageLocation) (*image.RGBA, error) {
	l.calls.Add(1)
	if l.gate != nil {
		select {
		case <-l.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if l.fail.Load() {
		return nil, errors.New("render failed")
	}
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for i := 0; i < 4; i++ {
		img.SetRGBA(i, i, color.RGBA{uint8(loc.X), uint8(loc.Z), 7, 255})
	}
	return img, nil
}

func newTestCache(t *testing.T, opts Options, loader Loader) (*ImageCache, func()) {
	ctx, cancel := context.WithCancel(context.Background())
	c := NewImageCache(ctx, nil, opts, loader)
	return c, func() {
		cancel()
		c.WaitExit()
	}
}

func loc(x, z int) primitives.ImageLocation {
	return primitives.ImageLocation{World: "w", Dimension: "overworld", Variant: "terrain", X: x, Z: z}
}

func TestSingleFlight(t *testing.T) {
	l := &countingLoader{gate: make(chan struct{})}
	c, stop := newTestCache(t, Options{}, l.load)
	defer stop()

	const n = 8
	var wg sync.WaitGroup
	imgs := make([]*CachedImage, n)
	errs := make([]error, n)
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			imgs[i], errs[i] = c.Get(context.Background(), loc(1, 2))
		}(i)
	}
	for l.calls.Load() == 0 {
		runtime.Gosched()
	}
	close(l.gate)
	wg.Wait()
	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Fatalf("get %d: %v", i, errs[i])
		}
		if imgs[i].Img != imgs[0].Img {
			t.Fatalf("get %d returned a different image", i)
		}
	}
	if got := l.calls.Load(); got != 1 {
		t.Fatalf("loader called %d times, want 1", got)
	}
	if got := imgs[0].Img.RGBAAt(1, 1); got != (color.RGBA{1, 2, 7, 255}) {
		t.Fatalf("unexpected pixel %v", got)
	}
}

func TestFailedRenderNotCached(t *testing.T) {
	l := &countingLoader{}
	l.fail.Store(true)
	c, stop := newTestCache(t, Options{}, l.load)
	defer stop()

	if _, err := c.Get(context.Background(), loc(0, 0)); err == nil {
		t.Fatal("expected render error")
	}
	l.fail.Store(false)
	img, err := c.Get(context.Background(), loc(0, 0))
	if err != nil {
		t.Fatal(err)
	}
	if img.Img == nil {
		t.Fatal("nil image")
	}
	if got := l.calls.Load(); got != 2 {
		t.Fatalf("loader called %d times, want 2", got)
	}
}

func TestEviction(t *testing.T) {
	l := &countingLoader{}
	c, stop := newTestCache(t, Options{Capacity: 2}, l.load)
	defer stop()

	ctx := context.Background()
	for _, p := range [][2]int{{0, 0}, {1, 0}, {0, 0}, {2, 0}} {
		if _, err := c.Get(ctx, loc(p[0], p[1])); err != nil {
			t.Fatal(err)
		}
	}
	if got := l.calls.Load(); got != 3 {
		t.Fatalf("loader called %d times, want 3", got)
	}
	// {1,0} was least recently used
	if _, err := c.Get(ctx, loc(0, 0)); err != nil {
		t.Fatal(err)
	}
	if got := l.calls.Load(); got != 3 {
		t.Fatalf("recently used tile was evicted")
	}
	if _, err := c.Get(ctx, loc(1, 0)); err != nil {
		t.Fatal(err)
	}
	if got := l.calls.Load(); got != 4 {
		t.Fatalf("loader called %d times, want 4", got)
	}
	if got := c.GetStats()["cached images"].(int64); got != 2 {
		t.Fatalf("%d images cached, want 2", got)
	}
}

func TestDiskPersistence(t *testing.T) {
	root := t.TempDir()
	l := &countingLoader{}
	c, stop := newTestCache(t, Options{Root: root}, l.load)
	first, err := c.Get(context.Background(), loc(3, 4))
	if err != nil {
		t.Fatal(err)
	}
	if first.FromDisk {
		t.Fatal("first load can not come from disk")
	}
	stop()

	l2 := &countingLoader{}
	l2.fail.Store(true)
	c2, stop2 := newTestCache(t, Options{Root: root}, l2.load)
	defer stop2()
	img, err := c2.Get(context.Background(), loc(3, 4))
	if err != nil {
		t.Fatal(err)
	}
	if !img.FromDisk {
		t.Fatal("expected disk hit")
	}
	if l2.calls.Load() != 0 {
		t.Fatal("loader called on disk hit")
	}
	if got := img.Img.RGBAAt(2, 2); got != (color.RGBA{3, 4, 7, 255}) {
		t.Fatalf("unexpected pixel %v", got)
	}
}

func TestInvalidate(t *testing.T) {
	root := t.TempDir()
	l := &countingLoader{}
	c, stop := newTestCache(t, Options{Root: root, IOProcessors: 1}, l.load)
	defer stop()

	ctx := context.Background()
	if _, err := c.Get(ctx, loc(5, 5)); err != nil {
		t.Fatal(err)
	}
	all := loc(5, 5)
	all.Variant = ""
	if err := c.Invalidate(ctx, all); err != nil {
		t.Fatal(err)
	}
	img, err := c.Get(ctx, loc(5, 5))
	if err != nil {
		t.Fatal(err)
	}
	if img.FromDisk {
		t.Fatal("invalidated tile served from disk")
	}
	if got := l.calls.Load(); got != 2 {
		t.Fatalf("loader called %d times, want 2", got)
	}
}

func TestSet(t *testing.T) {
	l := &countingLoader{}
	l.fail.Store(true)
	c, stop := newTestCache(t, Options{}, l.load)
	defer stop()

	ctx := context.Background()
	want := image.NewRGBA(image.Rect(0, 0, 1, 1))
	if err := c.Set(ctx, loc(0, 0), want); err != nil {
		t.Fatal(err)
	}
	img, err := c.Get(ctx, loc(0, 0))
	if err != nil {
		t.Fatal(err)
	}
	if img.Img != want {
		t.Fatal("stored image not returned")
	}
}

func TestClosed(t *testing.T) {
	l := &countingLoader{}
	c, stop := newTestCache(t, Options{}, l.load)
	stop()
	if _, err := c.Get(context.Background(), loc(0, 0)); !errors.Is(err, ErrClosed) {
		t.Fatalf("got %v, want ErrClosed", err)
	}
}
