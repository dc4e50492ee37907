package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/maxsupermanhd/RegionMap/chunkStorage"
	"github.com/maxsupermanhd/RegionMap/chunkStorage/filesystemChunkStorage"
	"github.com/maxsupermanhd/RegionMap/colors"
	"github.com/maxsupermanhd/RegionMap/primitives"
)

var (
	fspath     = flag.String("path", "./world/region", "Path to region folder")
	match      = flag.String("match", "", "Report palette entries with names containing this")
	missing    = flag.Bool("missing", false, "Report block states absent from the color table")
	blocksPath = flag.String("blocks", "", "Block color table, embedded one if empty")
	outfname   = flag.String("out", "out.txt", "Filename for writing results to")
	threadsnum = flag.Int("threads", 3, "Thread count")
)

func must(err error) {
	if err != nil {
		log.Fatalln(err)
	}
}

type finder struct {
	match  string
	blocks *colors.BlockColorMap
}

// chunk reports matching palette entries of c, each state once per chunk.
func (f *finder) chunk(c *primitives.Chunk) []string {
	ret := []string{}
	seen := map[string]bool{}
	for _, s := range c.Sections {
		if s == nil {
			continue
		}
		for _, b := range s.Palette {
			k := colors.Key(b)
			if seen[k] {
				continue
			}
			seen[k] = true
			if f.match != "" && strings.Contains(b.Name, f.match) {
				ret = append(ret, fmt.Sprintf("CHUNK x%d z%d section %d palette match %s", c.X, c.Z, s.Y, k))
			}
			if f.blocks != nil {
				if _, ok := f.blocks.Lookup(b); !ok {
					ret = append(ret, fmt.Sprintf("CHUNK x%d z%d section %d missing color %s", c.X, c.Z, s.Y, k))
				}
			}
		}
	}
	return ret
}

func (f *finder) region(path string, results chan<- string) (int, error) {
	r, err := filesystemChunkStorage.OpenRegionFile(path)
	if err != nil || r == nil {
		return 0, err
	}
	defer r.Close()
	chunks := 0
	for lz := 0; lz < primitives.RegionChunksSide; lz++ {
		for lx := 0; lx < primitives.RegionChunksSide; lx++ {
			c, err := r.ReadChunk(lx, lz)
			if err != nil {
				log.Printf("%s chunk %d %d: %v", filepath.Base(path), lx, lz, err)
				continue
			}
			if c == nil {
				continue
			}
			chunks++
			for _, l := range f.chunk(c) {
				results <- l
			}
		}
	}
	return chunks, nil
}

func worker(wid int, f *finder, jobs <-chan chunkStorage.RegionPos, results chan<- string, processed chan<- int, wg *sync.WaitGroup) {
	log.Printf("Worker %d started", wid)
	defer wg.Done()
	chunkcount := 0
	for j := range jobs {
		n, err := f.region(filepath.Join(*fspath, filesystemChunkStorage.RegionFileName(j.X, j.Z)), results)
		if err != nil {
			log.Printf("Region %d %d: %v", j.X, j.Z, err)
		}
		chunkcount += n
		processed <- n
	}
	log.Printf("Worker %d exits, processed %d chunks", wid, chunkcount)
}

func filewriter(results <-chan string, done chan<- struct{}) {
	log.Printf("Filewriter thread started")
	file, err := os.Create(*outfname)
	must(err)
	defer file.Close()
	lines := []string{}
	for r := range results {
		lines = append(lines, r)
	}
	sort.Strings(lines)
	for _, l := range lines {
		_, err := file.WriteString(l + "\n")
		must(err)
	}
	log.Printf("File writer exits, wrote %d lines", len(lines))
	close(done)
}

func main() {
	flag.Parse()
	if *match == "" && !*missing {
		log.Fatalln("Nothing to look for, set -match or -missing")
	}
	f := &finder{match: *match}
	if *missing {
		var err error
		f.blocks, err = colors.LoadBlockColors(*blocksPath)
		must(err)
	}
	regions, err := filesystemChunkStorage.ListRegionFiles(*fspath)
	must(err)

	jobs := make(chan chunkStorage.RegionPos, len(regions))
	results := make(chan string, 64)
	processed := make(chan int, 64)
	written := make(chan struct{})
	wg := new(sync.WaitGroup)
	go filewriter(results, written)
	for w := 0; w < *threadsnum; w++ {
		wg.Add(1)
		go worker(w, f, jobs, results, processed, wg)
	}
	for _, r := range regions {
		jobs <- r
	}
	close(jobs)
	go func() {
		wg.Wait()
		close(processed)
	}()

	starttime := time.Now()
	prevtime := time.Now()
	chunks := 0
	done := 0
	for n := range processed {
		chunks += n
		done++
		if time.Since(prevtime) > time.Second {
			log.Printf("Processed %6d of %6d regions (%06.2f%%), %d chunks", done, len(regions), float32(done)/float32(len(regions))*100, chunks)
			prevtime = time.Now()
		}
	}
	close(results)
	<-written
	log.Printf("Processed %d chunks in %d regions in %s", chunks, len(regions), time.Since(starttime).Round(time.Second))
}
