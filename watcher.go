package main

import (
	"context"
	"log"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/maxsupermanhd/RegionMap/chunkStorage"
	"github.com/maxsupermanhd/RegionMap/chunkStorage/filesystemChunkStorage"
	"github.com/maxsupermanhd/RegionMap/primitives"
)

type watchedDim struct {
	World, Dimension string
}

// watchedFolders maps region folders of filesystem storages to their dimensions.
func watchedFolders(storages map[string]chunkStorage.Storage) map[string]watchedDim {
	ret := map[string]watchedDim{}
	for sn, s := range storages {
		fs, ok := s.Driver.(*filesystemChunkStorage.FilesystemChunkStorage)
		if !ok {
			continue
		}
		worlds, err := fs.ListWorlds()
		if err != nil {
			log.Printf("Failed to list worlds of storage %s: %v", sn, err)
			continue
		}
		for _, w := range worlds {
			dims, err := fs.ListWorldDimensions(w.Name)
			if err != nil {
				log.Printf("Failed to list dimensions of world %s: %v", w.Name, err)
				continue
			}
			for _, d := range dims {
				folder, err := fs.RegionFolder(w.Name, d.Name)
				if err != nil {
					continue
				}
				ret[filepath.Clean(folder)] = watchedDim{World: w.Name, Dimension: d.Name}
			}
		}
	}
	return ret
}

// regionEventLocation resolves a changed file to the tile it affects,
// empty Variant selects every variant.
func regionEventLocation(folders map[string]watchedDim, name string) (primitives.ImageLocation, bool) {
	d, ok := folders[filepath.Clean(filepath.Dir(name))]
	if !ok {
		return primitives.ImageLocation{}, false
	}
	var rx, rz int
	if !filesystemChunkStorage.ExtractRegionPath(filepath.Base(name), &rx, &rz) {
		return primitives.ImageLocation{}, false
	}
	return primitives.ImageLocation{World: d.World, Dimension: d.Dimension, X: rx, Z: rz}, true
}

func regionWatcher(exitchan <-chan struct{}) {
	if !cfg.GetDSBool(true, "watch_regions") {
		log.Println("Region watcher disabled")
		<-exitchan
		return
	}
	storagesLock.Lock()
	folders := watchedFolders(storages)
	storagesLock.Unlock()
	if len(folders) == 0 {
		log.Println("No region folders to watch")
		<-exitchan
		return
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Println("Failed to create region watcher: ", err)
		<-exitchan
		return
	}
	defer watcher.Close()
	for f := range folders {
		if err := watcher.Add(f); err != nil {
			log.Printf("Failed to watch %s: %v", f, err)
		}
	}
	log.Printf("Watching %d region folders", len(folders))
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				log.Println("Region watcher failed to read from events channel")
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			loc, ok := regionEventLocation(folders, event.Name)
			if !ok {
				continue
			}
			if err := imageCache.Invalidate(context.Background(), loc); err != nil {
				log.Printf("Failed to invalidate %s: %v", loc.String(), err)
				continue
			}
			globalEventRouter.Broadcast(mapEvent{Action: "tileInvalidated", Data: newTileEvent(loc)})
		case err, ok := <-watcher.Errors:
			if !ok {
				log.Println("Region watcher failed to read from error channel")
				return
			}
			log.Println("Region watcher error:", err)
		case <-exitchan:
			log.Println("Region watcher stopped")
			return
		}
	}
}
