/*
	RegionMap, region renderer for block game maps
	Copyright (C) 2022 Maxim Zhuchkov

	This program is free software: you can redistribute it and/or modify
	it under the terms of the GNU Affero General Public License as published
	by the Free Software Foundation, either version 3 of the License, or
	(at your option) any later version.

	This program is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
	GNU Affero General Public License for more details.

	You should have received a copy of the GNU Affero General Public License
	along with this program.  If not, see <https://www.gnu.org/licenses/>.

	Contact me via mail: q3.max.2011@yandex.ru or Discord: MaX#6717
*/

package main

import (
	"context"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/maxsupermanhd/RegionMap/chunkStorage"
	imagecache "github.com/maxsupermanhd/RegionMap/imageCache"
	"github.com/maxsupermanhd/RegionMap/render"
	"github.com/maxsupermanhd/RegionMap/render/dispatchers"
	"github.com/maxsupermanhd/RegionMap/render/renderers"
)

var (
	BuildTime  = "00000000.000000"
	CommitHash = "0000000"
	GoVersion  = "0.0"
	GitTag     = "0.0"
)

var (
	mainCtx, mainCtxCancel = context.WithCancel(context.Background())
	renderSettings         *render.Settings
	variants               map[string]renderers.Variant
	renderer               *dispatchers.PriorityPipelineRender
	imageCache             *imagecache.ImageCache
)

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	buildinfo, ok := debug.ReadBuildInfo()
	if ok {
		GoVersion = buildinfo.GoVersion
	}
	if err := loadEnv(); err != nil {
		log.Fatal("Error loading env file: " + err.Error())
	}
	if err := loadConfig(); err != nil {
		log.Fatal("Error loading config file: " + err.Error())
	}
	logWriter := io.MultiWriter(createLogger(), os.Stdout)
	log.SetOutput(logWriter)
	slog.SetDefault(slog.New(slog.NewTextHandler(logWriter, &slog.HandlerOptions{Level: logLevel()})))

	log.Println()
	log.Println("RegionMap is starting up...")
	log.Printf("Built %s, Ver %s (%s) %s\n", BuildTime, GitTag, CommitHash, GoVersion)
	log.Println()

	if err := initRender(); err != nil {
		log.Fatal("Error setting up renderer: " + err.Error())
	}

	if err := initStorages(); err != nil {
		log.Fatal("Error initializing storages: " + err.Error())
	}
	defer chunkStorage.CloseStorages(storages)

	renderer = dispatchers.NewPriorityRenderer(dispatchers.OptionsFromConfig(cfg.SubTree("renderer")), renderSettings, slog.Default())
	imageCache = imagecache.NewImageCache(mainCtx, log.Default(), imagecache.OptionsFromConfig(log.Default(), cfg.SubTree("imageCache")), renderTile)

	stopEvents := startBackgroundRoutine("event router", globalEventRouter.Run)
	stopWatcher := startBackgroundRoutine("region watcher", regionWatcher)
	stopWeb := startBackgroundRoutine("web server", runWeb)

	sigchan := make(chan os.Signal, 1)
	signal.Notify(sigchan, os.Interrupt, syscall.SIGTERM)
	select {
	case <-sigchan:
		log.Println("Got signal, shutting down")
	case <-mainCtx.Done():
		log.Println("Shutdown requested")
	}
	stopWeb()
	stopWatcher()
	mainCtxCancel()
	imageCache.WaitExit()
	renderer.Close()
	stopEvents()
	log.Println("Bye")
}

func logLevel() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(cfg.GetDSString("INFO", "log_level"))); err != nil {
		return slog.LevelInfo
	}
	return l
}

func initRender() error {
	blocks, biomes, err := renderers.LoadColorTables(cfg.SubTree("colors"))
	if err != nil {
		return err
	}
	log.Printf("Loaded %d block colors and %d biome colors", blocks.Len(), biomes.Len())
	renderSettings, err = render.LoadSettings(cfg.SubTree("render"), blocks, biomes)
	if err != nil {
		return err
	}
	variants = renderers.ConstructRenderers()
	log.Printf("Tile variants: %v", renderers.Names(variants))
	return nil
}
