package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
	"github.com/maxsupermanhd/RegionMap/chunkStorage"
	"github.com/maxsupermanhd/RegionMap/chunkStorage/filesystemChunkStorage"
	"github.com/maxsupermanhd/RegionMap/chunkStorage/postgresChunkStorage"
	"github.com/maxsupermanhd/RegionMap/primitives"
)

var (
	basedir = flag.String("path", "./world/region", "Path to region folder")
	wname   = flag.String("world", "", "World name to import into")
	dname   = flag.String("dim", "overworld", "Dimension name to import into")
	threads = flag.Int("threads", 8, "Import threads")
)

type chunkSink interface {
	AddChunkRaw(wname, dname string, cx, cz int, dat []byte) error
}

type importStats struct {
	chunks atomic.Int64
	bytes  atomic.Uint64
}

// importRegion copies every generated chunk of the region file as is.
func importRegion(ctx context.Context, sink chunkSink, folder string, pos chunkStorage.RegionPos, st *importStats) error {
	r, err := filesystemChunkStorage.OpenRegionFile(filepath.Join(folder, filesystemChunkStorage.RegionFileName(pos.X, pos.Z)))
	if err != nil || r == nil {
		return err
	}
	defer r.Close()
	var errs *multierror.Error
	for lz := 0; lz < primitives.RegionChunksSide; lz++ {
		for lx := 0; lx < primitives.RegionChunksSide; lx++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			d, err := r.ReadSector(lx, lz)
			if err != nil {
				errs = multierror.Append(errs, err)
				continue
			}
			if d == nil {
				continue
			}
			cx := pos.X*primitives.RegionChunksSide + lx
			cz := pos.Z*primitives.RegionChunksSide + lz
			if err := sink.AddChunkRaw(*wname, *dname, cx, cz, d); err != nil {
				errs = multierror.Append(errs, fmt.Errorf("chunk %d %d: %w", cx, cz, err))
				continue
			}
			st.chunks.Add(1)
			st.bytes.Add(uint64(len(d)))
		}
	}
	return errs.ErrorOrNil()
}

func main() {
	flag.Parse()
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Println("Error loading .env file: ", err)
	}
	conn := os.Getenv("DATABASE_URL")
	if conn == "" {
		log.Fatalln("DATABASE_URL is not set")
	}
	if *wname == "" {
		log.Fatalln("World name not set")
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		s := make(chan os.Signal, 1)
		signal.Notify(s, os.Interrupt, syscall.SIGTERM)
		<-s
		log.Println("got signal, stopping import")
		cancel()
	}()

	regions, err := filesystemChunkStorage.ListRegionFiles(*basedir)
	if err != nil {
		log.Fatal(err)
	}
	storage, err := postgresChunkStorage.NewPostgresChunkStorage(ctx, conn)
	if err != nil {
		log.Fatal(err)
	}
	defer storage.Close()
	if err := storage.AddDimension(ctx, *wname, *dname); err != nil {
		log.Fatal(err)
	}

	log.Printf("Importing %d regions with %d threads", len(regions), *threads)
	started := time.Now()
	st := &importStats{}
	jobs := make(chan chunkStorage.RegionPos, len(regions))
	for _, r := range regions {
		jobs <- r
	}
	close(jobs)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var errs *multierror.Error
	for i := 0; i < *threads; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for pos := range jobs {
				if err := importRegion(ctx, storage, *basedir, pos, st); err != nil {
					mu.Lock()
					errs = multierror.Append(errs, fmt.Errorf("region %d %d: %w", pos.X, pos.Z, err))
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()
	log.Printf("Imported %d chunks (%s) in %s", st.chunks.Load(), humanize.Bytes(st.bytes.Load()), time.Since(started).Round(time.Second))
	if err := errs.ErrorOrNil(); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}
