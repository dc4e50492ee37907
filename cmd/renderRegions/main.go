package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image/png"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hashicorp/go-multierror"
	"github.com/maxsupermanhd/RegionMap/chunkStorage/filesystemChunkStorage"
	"github.com/maxsupermanhd/RegionMap/colors"
	"github.com/maxsupermanhd/RegionMap/primitives"
	"github.com/maxsupermanhd/RegionMap/render"
	"github.com/maxsupermanhd/RegionMap/render/dispatchers"
	"github.com/maxsupermanhd/RegionMap/render/renderers"
	"github.com/natefinch/lumberjack"
	"github.com/shirou/gopsutil/cpu"
)

var (
	fspath      = flag.String("path", "./world/region", "Path to region folder")
	outpath     = flag.String("out", "./out", "Output folder for region images")
	variantName = flag.String("variant", "terrain", "Tile variant to render")
	blocksPath  = flag.String("blocks", "", "Block color table, embedded one if empty")
	biomesPath  = flag.String("biomes", "", "Biome color table, embedded one if empty")
	threads     = flag.Int("threads", 0, "Render threads, number of CPUs if zero")
	logPath     = flag.String("log", "", "Also write log to this file")
	minY        = flag.Int("miny", render.Unbounded.MinY, "Lowest rendered block")
	maxY        = flag.Int("maxy", render.Unbounded.MaxY, "Highest rendered block")
	noShading   = flag.Bool("noshading", false, "Disable relief shading")
	refAltitude = flag.Float64("refaltitude", render.DefaultShading.ReferenceAltitude, "Altitude with neutral shading")
	verbose     = flag.Bool("v", false, "Log every region")
)

func main() {
	flag.Parse()
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	var logWriter io.Writer = os.Stderr
	if *logPath != "" {
		logWriter = io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename: *logPath,
			MaxSize:  10,
			Compress: true,
		})
	}
	log.SetOutput(logWriter)
	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	l := slog.New(slog.NewTextHandler(logWriter, &slog.HandlerOptions{Level: level}))

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	var err error
	wg.Add(1)
	go func() {
		err = run(ctx, l)
		wg.Done()
		cancel()
	}()
	s := make(chan os.Signal, 1)
	signal.Notify(s, os.Interrupt, syscall.SIGTERM)
	select {
	case <-s:
		log.Println("got signal, shutting down")
		cancel()
	case <-ctx.Done():
	}
	log.Println("waiting for exit")
	wg.Wait()
	if err != nil {
		log.Println(err)
		os.Exit(1)
	}
	log.Println("bye")
}

func settingsFromFlags(blocks *colors.BlockColorMap, biomes *colors.BiomeColorMap) *render.Settings {
	s := render.DefaultSettings(blocks, biomes)
	s.Bounds.MinY = *minY
	s.Bounds.MaxY = *maxY
	s.Shading.Disabled = *noShading
	s.Shading.ReferenceAltitude = *refAltitude
	return s
}

// folderSource opens region files of a single folder.
func folderSource(folder string) render.ChunkSource {
	return render.ChunkSourceFunc(func(ctx context.Context, rx, rz int) (render.RegionChunks, error) {
		r, err := filesystemChunkStorage.OpenRegionFile(filepath.Join(folder, filesystemChunkStorage.RegionFileName(rx, rz)))
		if err != nil || r == nil {
			return nil, err
		}
		return r, nil
	})
}

func run(ctx context.Context, l *slog.Logger) error {
	v, ok := renderers.ConstructRenderers()[*variantName]
	if !ok {
		return fmt.Errorf("unknown variant %q", *variantName)
	}
	blocks, err := colors.LoadBlockColors(*blocksPath)
	if err != nil {
		return err
	}
	biomes, err := colors.LoadBiomeColors(*biomesPath)
	if err != nil {
		return err
	}
	settings := v.Settings(settingsFromFlags(blocks, biomes))
	regions, err := filesystemChunkStorage.ListRegionFiles(*fspath)
	if err != nil {
		return err
	}
	if len(regions) == 0 {
		return fmt.Errorf("no region files in %s", *fspath)
	}
	if err := os.MkdirAll(*outpath, 0764); err != nil {
		return err
	}

	opts := dispatchers.Options{
		QueueNormalLen:      len(regions),
		QueueFetchedLen:     4,
		RendererThreadCount: *threads,
		FetcherThreadCount:  2,
	}
	if opts.RendererThreadCount <= 0 {
		opts.RendererThreadCount, err = cpu.Counts(true)
		if err != nil || opts.RendererThreadCount < 1 {
			opts.RendererThreadCount = 4
		}
	}
	r := dispatchers.NewPriorityRenderer(opts, settings, l)
	defer r.Close()

	log.Printf("Rendering %d regions of %s with %d threads", len(regions), *fspath, opts.RendererThreadCount)
	started := time.Now()
	src := folderSource(*fspath)
	results := make([]<-chan dispatchers.Result, 0, len(regions))
	for _, p := range regions {
		ret, err := r.Submit(ctx, dispatchers.Job{
			Loc:    primitives.ImageLocation{Variant: v.Name, X: p.X, Z: p.Z},
			Source: src,
		}, false)
		if err != nil {
			return err
		}
		results = append(results, ret)
	}

	var errs *multierror.Error
	var total render.Stats
	var written uint64
	for i, ret := range results {
		var res dispatchers.Result
		select {
		case res = <-ret:
		case <-ctx.Done():
			return multierror.Append(errs, ctx.Err()).ErrorOrNil()
		}
		if res.Err != nil {
			if errors.Is(res.Err, context.Canceled) {
				return multierror.Append(errs, res.Err).ErrorOrNil()
			}
			errs = multierror.Append(errs, fmt.Errorf("region %d %d: %w", regions[i].X, regions[i].Z, res.Err))
			continue
		}
		total.Merge(res.Output.Stats)
		n, err := writeRegionImage(res, v)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		written += n
		log.Printf("Region %d %d (%d/%d): %d chunks in %s", regions[i].X, regions[i].Z, i+1, len(results), res.Output.Stats.ChunksRendered, res.Took)
	}
	log.Printf("Done in %s, %d chunks rendered, %d skipped, %s written", time.Since(started).Round(time.Millisecond), total.ChunksRendered, total.ChunksSkipped, humanize.Bytes(written))
	if total.Degraded() {
		log.Printf("Substitutions: %d unknown block states (%d distinct), %d out of range indices, %d unknown biomes, %d malformed sections",
			total.MissingStates, len(total.MissingKeys), total.OutOfRangeIndices, total.UnknownBiomes, total.MalformedSections)
	}
	return errs.ErrorOrNil()
}

func writeRegionImage(res dispatchers.Result, v renderers.Variant) (uint64, error) {
	p := filepath.Join(*outpath, fmt.Sprintf("r.%d.%d.png", res.Loc.X, res.Loc.Z))
	f, err := os.Create(p)
	if err != nil {
		return 0, err
	}
	if err := png.Encode(f, v.Image(res.Output)); err != nil {
		f.Close()
		return 0, fmt.Errorf("encoding %s: %w", p, err)
	}
	if err := f.Close(); err != nil {
		return 0, err
	}
	fi, err := os.Stat(p)
	if err != nil {
		return 0, err
	}
	return uint64(fi.Size()), nil
}
