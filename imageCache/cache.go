package imagecache

import (
	"container/list"
	"context"
	"errors"
	"image"
	"io"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/maxsupermanhd/RegionMap/primitives"
	"github.com/maxsupermanhd/lac"
)

const (
	DefaultCapacity        = int(256)
	DefaultTaskQueueLen    = int(256)
	DefaultIOProcessors    = int(4)
	DefaultIOTasksQueueLen = int(256)
)

var ErrClosed = errors.New("image cache closed")

// Loader produces a tile when it is neither in memory nor on disk.
type Loader func(ctx context.Context, loc primitives.ImageLocation) (*image.RGBA, error)

// CachedImage is shared between callers, Img must not be modified.
type CachedImage struct {
	Img      *image.RGBA
	Loc      primitives.ImageLocation
	ModTime  time.Time
	FromDisk bool
}

type Options struct {
	Root         string
	Capacity     int
	TaskQueueLen int
	IOProcessors int
	IOQueueLen   int
}

func OptionsFromConfig(logger *log.Logger, cfg *lac.ConfSubtree) Options {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return Options{
		Root:         cfg.GetDSString("cachedImages", "root"),
		Capacity:     gtzero(logger, cfg, DefaultCapacity, "capacity"),
		TaskQueueLen: gtzero(logger, cfg, DefaultTaskQueueLen, "taskQueueLen"),
		IOProcessors: gtzero(logger, cfg, DefaultIOProcessors, "ioProcessors"),
		IOQueueLen:   gtzero(logger, cfg, DefaultIOTasksQueueLen, "ioQueueLen"),
	}
}

type result struct {
	img *CachedImage
	err error
}

type entry struct {
	loc     primitives.ImageLocation
	img     *CachedImage
	waiters []chan result
	elem    *list.Element
}

type cacheTask struct {
	loc        primitives.ImageLocation
	img        *image.RGBA
	invalidate bool
	ret        chan result
}

type renderReturn struct {
	e   *entry
	img *image.RGBA
	err error
}

// ImageCache keeps rendered tiles in memory and on disk. All state is owned
// by the processor goroutine, callers talk to it through channels.
type ImageCache struct {
	ctx      context.Context
	logger   *log.Logger
	loader   Loader
	root     string
	capacity int

	tasks     chan *cacheTask
	ioTasks   chan *cacheTaskIO
	ioReturn  chan *cacheTaskIO
	renderRet chan renderReturn
	exited    chan struct{}

	cache     map[primitives.ImageLocation]*entry
	lru       *list.List
	ioBacklog []*cacheTaskIO
	ioWG      sync.WaitGroup

	cacheStatLen      atomic.Int64
	cacheStatPending  atomic.Int64
	cacheStatHits     atomic.Int64
	cacheStatDiskHits atomic.Int64
	cacheStatRenders  atomic.Int64
	cacheStatFailed   atomic.Int64
}

func NewImageCache(ctx context.Context, logger *log.Logger, opts Options, loader Loader) *ImageCache {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if opts.Capacity <= 0 {
		opts.Capacity = DefaultCapacity
	}
	if opts.TaskQueueLen <= 0 {
		opts.TaskQueueLen = DefaultTaskQueueLen
	}
	if opts.IOProcessors <= 0 {
		opts.IOProcessors = DefaultIOProcessors
	}
	if opts.IOQueueLen <= 0 {
		opts.IOQueueLen = DefaultIOTasksQueueLen
	}
	c := &ImageCache{
		ctx:       ctx,
		logger:    logger,
		loader:    loader,
		root:      opts.Root,
		capacity:  opts.Capacity,
		tasks:     make(chan *cacheTask, opts.TaskQueueLen),
		ioTasks:   make(chan *cacheTaskIO, opts.IOQueueLen),
		ioReturn:  make(chan *cacheTaskIO, opts.IOQueueLen),
		renderRet: make(chan renderReturn),
		exited:    make(chan struct{}),
		cache:     map[primitives.ImageLocation]*entry{},
		lru:       list.New(),
	}
	c.ioWG.Add(opts.IOProcessors)
	for i := 0; i < opts.IOProcessors; i++ {
		go func() {
			c.processorIO(c.ioTasks, c.ioReturn)
			c.ioWG.Done()
		}()
	}
	go c.processor()
	return c
}

// WaitExit blocks until the processor stopped and pending writes are done.
func (c *ImageCache) WaitExit() {
	<-c.exited
}

func (c *ImageCache) processor() {
processorLoop:
	for {
		var ioOut chan<- *cacheTaskIO
		var ioNext *cacheTaskIO
		if len(c.ioBacklog) > 0 {
			ioOut = c.ioTasks
			ioNext = c.ioBacklog[0]
		}
		select {
		case <-c.ctx.Done():
			break processorLoop
		case task := <-c.tasks:
			c.processTask(task)
		case ret := <-c.ioReturn:
			c.processReturnIO(ret)
		case ret := <-c.renderRet:
			c.processReturnRender(ret)
		case ioOut <- ioNext:
			c.ioBacklog[0] = nil
			c.ioBacklog = c.ioBacklog[1:]
		}
	}

	for _, e := range c.cache {
		c.notify(e, result{err: ErrClosed})
	}
	for _, t := range c.ioBacklog {
		if t.op == ioSave {
			c.processIO(t)
		}
	}
	c.ioBacklog = nil
	close(c.ioTasks)
	ioDone := make(chan struct{})
	go func() {
		c.ioWG.Wait()
		close(ioDone)
	}()
	for {
		select {
		case <-c.ioReturn:
		case <-ioDone:
			close(c.exited)
			return
		}
	}
}

func (c *ImageCache) processTask(task *cacheTask) {
	switch {
	case task.invalidate:
		c.processInvalidate(task.loc)
	case task.img != nil:
		c.processImageSet(task.loc, task.img)
	default:
		c.processImageGet(task)
	}
}

func (c *ImageCache) processImageGet(task *cacheTask) {
	e, ok := c.cache[task.loc]
	if ok && e.img != nil {
		c.cacheStatHits.Add(1)
		c.lru.MoveToFront(e.elem)
		task.ret <- result{img: e.img}
		return
	}
	if ok {
		e.waiters = append(e.waiters, task.ret)
		return
	}
	e = &entry{
		loc:     task.loc,
		waiters: []chan result{task.ret},
	}
	c.cache[task.loc] = e
	c.cacheStatPending.Add(1)
	if c.root == "" {
		c.startRender(e)
		return
	}
	c.ioBacklog = append(c.ioBacklog, &cacheTaskIO{op: ioLoad, loc: task.loc, e: e})
}

func (c *ImageCache) processImageSet(loc primitives.ImageLocation, img *image.RGBA) {
	e, ok := c.cache[loc]
	if !ok {
		e = &entry{loc: loc}
		c.cache[loc] = e
		c.cacheStatPending.Add(1)
	}
	c.complete(e, &CachedImage{Img: img, Loc: loc, ModTime: time.Now()})
	c.scheduleSave(loc, img)
}

func (c *ImageCache) processInvalidate(loc primitives.ImageLocation) {
	for k, e := range c.cache {
		if !sameTile(k, loc) {
			continue
		}
		c.drop(e)
	}
	if c.root != "" {
		c.ioBacklog = append(c.ioBacklog, &cacheTaskIO{op: ioRemove, loc: loc})
	}
}

// drop forgets an entry, a render or load still in flight for it keeps
// serving its waiters but is not stored.
func (c *ImageCache) drop(e *entry) {
	delete(c.cache, e.loc)
	if e.elem != nil {
		c.lru.Remove(e.elem)
		e.elem = nil
		c.cacheStatLen.Add(-1)
	} else {
		c.cacheStatPending.Add(-1)
	}
}

func sameTile(k, loc primitives.ImageLocation) bool {
	if loc.Variant != "" && k.Variant != loc.Variant {
		return false
	}
	return k.World == loc.World && k.Dimension == loc.Dimension && k.X == loc.X && k.Z == loc.Z
}

func (c *ImageCache) current(e *entry) bool {
	return c.cache[e.loc] == e
}

func (c *ImageCache) processReturnIO(task *cacheTaskIO) {
	switch task.op {
	case ioSave, ioRemove:
		if task.err != nil {
			c.logger.Printf("Failed to %s cache of %s: %v", task.op, task.loc.String(), task.err)
		}
	case ioLoad:
		if task.err != nil {
			c.logger.Printf("Error reading image at %s: %v", task.loc.String(), task.err)
		}
		if task.img == nil {
			if len(task.e.waiters) == 0 && !c.current(task.e) {
				return
			}
			c.startRender(task.e)
			return
		}
		c.cacheStatDiskHits.Add(1)
		task.img.FromDisk = true
		c.complete(task.e, task.img)
	}
}

func (c *ImageCache) startRender(e *entry) {
	c.cacheStatRenders.Add(1)
	go func() {
		img, err := c.loader(c.ctx, e.loc)
		if err == nil && img == nil {
			err = errors.New("loader returned no image")
		}
		select {
		case c.renderRet <- renderReturn{e: e, img: img, err: err}:
		case <-c.exited:
		}
	}()
}

func (c *ImageCache) processReturnRender(ret renderReturn) {
	if ret.err != nil {
		c.cacheStatFailed.Add(1)
		c.logger.Printf("Failed to render %s: %v", ret.e.loc.String(), ret.err)
		if c.current(ret.e) {
			c.drop(ret.e)
		}
		c.notify(ret.e, result{err: ret.err})
		return
	}
	c.complete(ret.e, &CachedImage{Img: ret.img, Loc: ret.e.loc, ModTime: time.Now()})
	if c.current(ret.e) {
		c.scheduleSave(ret.e.loc, ret.img)
	}
}

func (c *ImageCache) complete(e *entry, img *CachedImage) {
	c.notify(e, result{img: img})
	if !c.current(e) {
		return
	}
	e.img = img
	if e.elem == nil {
		e.elem = c.lru.PushFront(e)
		c.cacheStatPending.Add(-1)
		c.cacheStatLen.Add(1)
	} else {
		c.lru.MoveToFront(e.elem)
	}
	for c.lru.Len() > c.capacity {
		c.drop(c.lru.Back().Value.(*entry))
	}
}

func (c *ImageCache) notify(e *entry, r result) {
	for _, w := range e.waiters {
		w <- r
	}
	e.waiters = nil
}

func (c *ImageCache) scheduleSave(loc primitives.ImageLocation, img *image.RGBA) {
	if c.root == "" {
		return
	}
	c.ioBacklog = append(c.ioBacklog, &cacheTaskIO{op: ioSave, loc: loc, img: &CachedImage{Img: img, Loc: loc}})
}

func (c *ImageCache) send(ctx context.Context, task *cacheTask) error {
	select {
	case c.tasks <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-c.ctx.Done():
		return ErrClosed
	case <-c.exited:
		return ErrClosed
	}
}

// Get returns the tile from memory, disk or the loader. Concurrent calls
// for the same location share one load.
func (c *ImageCache) Get(ctx context.Context, loc primitives.ImageLocation) (*CachedImage, error) {
	ret := make(chan result, 1)
	if err := c.send(ctx, &cacheTask{loc: loc, ret: ret}); err != nil {
		return nil, err
	}
	select {
	case r := <-ret:
		return r.img, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.exited:
		return nil, ErrClosed
	}
}

// Set stores a tile rendered elsewhere, replacing the cached one.
func (c *ImageCache) Set(ctx context.Context, loc primitives.ImageLocation, img *image.RGBA) error {
	return c.send(ctx, &cacheTask{loc: loc, img: img})
}

// Invalidate drops memory and disk copies of a tile, empty Variant matches
// every variant of the region.
func (c *ImageCache) Invalidate(ctx context.Context, loc primitives.ImageLocation) error {
	return c.send(ctx, &cacheTask{loc: loc, invalidate: true})
}

func (c *ImageCache) GetStats() map[string]any {
	return map[string]any{
		"root":                c.root,
		"capacity":            c.capacity,
		"io queue capacity":   cap(c.ioTasks),
		"io queue length":     len(c.ioTasks),
		"task queue capacity": cap(c.tasks),
		"task queue length":   len(c.tasks),
		"cached images":       c.cacheStatLen.Load(),
		"pending images":      c.cacheStatPending.Load(),
		"hits":                c.cacheStatHits.Load(),
		"disk hits":           c.cacheStatDiskHits.Load(),
		"renders":             c.cacheStatRenders.Load(),
		"failed renders":      c.cacheStatFailed.Load(),
	}
}

func gtzero(l *log.Logger, c *lac.ConfSubtree, d int, p ...string) int {
	v := c.GetDSInt(d, p...)
	if v > 0 {
		return v
	}
	l.Printf("Negative %v, defaulting to %d!", p, d)
	return d
}
