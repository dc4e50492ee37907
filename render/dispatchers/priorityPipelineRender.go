package dispatchers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/maxsupermanhd/RegionMap/primitives"
	"github.com/maxsupermanhd/RegionMap/render"
	"github.com/maxsupermanhd/lac"
	"github.com/shirou/gopsutil/cpu"
)

var ErrClosed = errors.New("renderer closed")

// Job is a single region render request.
type Job struct {
	Loc    primitives.ImageLocation
	Source render.ChunkSource
	// Settings override the renderer defaults when set.
	Settings *render.Settings
}

type Result struct {
	Loc    primitives.ImageLocation
	Output *render.Output
	Err    error
	Took   time.Duration
}

type renderTask struct {
	id       string
	ctx      context.Context
	job      Job
	settings *render.Settings
	fetched  *fetchedRegion
	started  time.Time
	ret      chan Result
}

type Options struct {
	QueueNormalLen      int
	QueuePriorityLen    int
	QueueFetchedLen     int
	RendererThreadCount int
	FetcherThreadCount  int
}

// OptionsFromConfig reads queue sizes and thread counts, render threads
// default to the number of logical CPUs.
func OptionsFromConfig(cfg *lac.ConfSubtree) Options {
	cpus, err := cpu.Counts(true)
	if err != nil || cpus < 1 {
		cpus = 4
	}
	return Options{
		QueueNormalLen:      cfg.GetDInt(64, "queueNormalLen"),
		QueuePriorityLen:    cfg.GetDInt(128, "queuePriorityLen"),
		QueueFetchedLen:     cfg.GetDInt(32, "queueFetchedLen"),
		RendererThreadCount: cfg.GetDInt(cpus, "rendererThreadCount"),
		FetcherThreadCount:  cfg.GetDInt(4, "fetcherThreadCount"),
	}
}

// PriorityPipelineRender renders regions on a pool of workers. Fetchers read
// chunks of a region, renderers composite them. Priority jobs are fetched
// before normal ones.
type PriorityPipelineRender struct {
	qnormal   chan *renderTask
	qpriority chan *renderTask
	qfetched  chan *renderTask
	settings  *render.Settings
	wg        sync.WaitGroup
	l         *slog.Logger
	closeChan chan struct{}
	closeFn   func()
	mu        sync.RWMutex
	closed    bool
}

func NewPriorityRenderer(opts Options, settings *render.Settings, l *slog.Logger) *PriorityPipelineRender {
	if l == nil {
		l = slog.Default()
	}
	closeChan := make(chan struct{})
	r := &PriorityPipelineRender{
		qnormal:   make(chan *renderTask, max(opts.QueueNormalLen, 0)),
		qpriority: make(chan *renderTask, max(opts.QueuePriorityLen, 0)),
		qfetched:  make(chan *renderTask, max(opts.QueueFetchedLen, 0)),
		settings:  settings,
		wg:        sync.WaitGroup{},
		l:         l,
		closeChan: closeChan,
		closeFn: sync.OnceFunc(func() {
			close(closeChan)
		}),
	}
	rendererThreadCount := max(opts.RendererThreadCount, 1)
	r.wg.Add(rendererThreadCount)
	for i := 0; i < rendererThreadCount; i++ {
		go func() {
			r.workerRender(closeChan)
			r.wg.Done()
		}()
	}
	fetcherThreadCount := max(opts.FetcherThreadCount, 1)
	r.wg.Add(fetcherThreadCount)
	for i := 0; i < fetcherThreadCount; i++ {
		go func() {
			r.workerFetch(closeChan)
			r.wg.Done()
		}()
	}
	return r
}

func (r *PriorityPipelineRender) workerRender(close <-chan struct{}) {
	for {
		select {
		case <-close:
			return
		case w := <-r.qfetched:
			r.render(w)
		}
	}
}

func (r *PriorityPipelineRender) workerFetch(close <-chan struct{}) {
	for {
		select {
		case <-close:
			return
		case w := <-r.qpriority:
			r.fetchAndPass(close, w)
			continue
		default:
		}
		select {
		case <-close:
			return
		case w := <-r.qpriority:
			r.fetchAndPass(close, w)
		case w := <-r.qnormal:
			r.fetchAndPass(close, w)
		}
	}
}

func (r *PriorityPipelineRender) fetchAndPass(close <-chan struct{}, w *renderTask) {
	if !r.fetch(w) {
		return
	}
	select {
	case <-close:
		w.finish(Result{Loc: w.job.Loc, Err: ErrClosed})
	case r.qfetched <- w:
	}
}

// fetch reads every chunk of the region inside bounds, reports false if
// the task was already finished with an error.
func (r *PriorityPipelineRender) fetch(w *renderTask) bool {
	if err := w.ctx.Err(); err != nil {
		w.finish(Result{Loc: w.job.Loc, Err: err})
		return false
	}
	f, err := fetchRegion(w.ctx, w.job.Source, w.job.Loc.X, w.job.Loc.Z, w.settings.Bounds)
	if err != nil {
		r.l.Error("region fetch failed", "job", w.id, "loc", w.job.Loc.String(), "err", err)
		w.finish(Result{Loc: w.job.Loc, Err: err})
		return false
	}
	w.fetched = f
	return true
}

func (r *PriorityPipelineRender) render(w *renderTask) {
	if w.fetched == nil {
		r.l.Error("render without data", "job", w.id, "loc", w.job.Loc.String())
		w.finish(Result{Loc: w.job.Loc, Err: errors.New("region was not fetched")})
		return
	}
	src := render.ChunkSourceFunc(func(ctx context.Context, rx, rz int) (render.RegionChunks, error) {
		if w.fetched.missing {
			return nil, nil
		}
		return w.fetched, nil
	})
	out, err := render.RenderRegion(w.ctx, src, w.job.Loc.X, w.job.Loc.Z, w.settings)
	took := time.Since(w.started)
	if err != nil {
		w.finish(Result{Loc: w.job.Loc, Err: err, Took: took})
		return
	}
	r.l.Debug("region rendered", "job", w.id, "loc", w.job.Loc.String(), "chunks", out.Stats.ChunksRendered, "took", took)
	if out.Stats.Degraded() {
		r.l.Warn("region rendered with substitutions", "job", w.id, "loc", w.job.Loc.String(),
			"outOfRange", out.Stats.OutOfRangeIndices,
			"missingStates", out.Stats.MissingStates,
			"missingKeys", len(out.Stats.MissingKeys),
			"unknownBiomes", out.Stats.UnknownBiomes,
			"malformedSections", out.Stats.MalformedSections)
	}
	w.finish(Result{Loc: w.job.Loc, Output: out, Took: took})
}

func (w *renderTask) finish(res Result) {
	w.fetched = nil
	w.ret <- res
}

// Submit queues a job and returns a channel that receives exactly one result.
// It blocks while the queue is full.
func (r *PriorityPipelineRender) Submit(ctx context.Context, job Job, priority bool) (<-chan Result, error) {
	if job.Source == nil {
		return nil, fmt.Errorf("job %s has no chunk source", job.Loc.String())
	}
	settings := job.Settings
	if settings == nil {
		settings = r.settings
	}
	w := &renderTask{
		id:       uuid.NewString(),
		ctx:      ctx,
		job:      job,
		settings: settings,
		started:  time.Now(),
		ret:      make(chan Result, 1),
	}
	q := r.qnormal
	if priority {
		q = r.qpriority
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return nil, ErrClosed
	}
	select {
	case q <- w:
		return w.ret, nil
	case <-r.closeChan:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Render submits a job and waits for its result.
func (r *PriorityPipelineRender) Render(ctx context.Context, job Job, priority bool) (*render.Output, error) {
	ret, err := r.Submit(ctx, job, priority)
	if err != nil {
		return nil, err
	}
	select {
	case res := <-ret:
		return res.Output, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// stops and waits, queued jobs receive ErrClosed
func (r *PriorityPipelineRender) Close() {
	r.closeFn()
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	r.wg.Wait()
	for _, q := range []chan *renderTask{r.qpriority, r.qnormal, r.qfetched} {
		for {
			select {
			case w := <-q:
				w.finish(Result{Loc: w.job.Loc, Err: ErrClosed})
				continue
			default:
			}
			break
		}
	}
}
