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
	"net/http"
	"runtime"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gorilla/mux"
	"github.com/maxsupermanhd/RegionMap/chunkStorage"
	"github.com/maxsupermanhd/RegionMap/colors"
	"github.com/maxsupermanhd/RegionMap/render/renderers"
	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/host"
	"github.com/shirou/gopsutil/load"
	"github.com/shirou/gopsutil/mem"
)

func apiListWorlds(w http.ResponseWriter, r *http.Request) (int, string) {
	storagesLock.Lock()
	worlds := chunkStorage.ListWorlds(storages)
	storagesLock.Unlock()
	setContentTypeJson(w)
	return marshalOrFail(http.StatusOK, worlds)
}

func apiListDimensions(w http.ResponseWriter, r *http.Request) (int, string) {
	wname := mux.Vars(r)["world"]
	s, err := findWorldStorage(wname)
	if err != nil {
		return tileErrorStatus(err), err.Error()
	}
	dims, err := s.ListWorldDimensions(wname)
	if err != nil {
		return http.StatusInternalServerError, err.Error()
	}
	setContentTypeJson(w)
	return marshalOrFail(http.StatusOK, dims)
}

func apiListRegions(w http.ResponseWriter, r *http.Request) (int, string) {
	params := mux.Vars(r)
	wname, dname := params["world"], params["dim"]
	s, err := findWorldStorage(wname)
	if err != nil {
		return tileErrorStatus(err), err.Error()
	}
	regions, err := s.ListRegions(wname, dname)
	if err != nil {
		return tileErrorStatus(err), err.Error()
	}
	sort.Slice(regions, func(i, j int) bool {
		if regions[i].X != regions[j].X {
			return regions[i].X < regions[j].X
		}
		return regions[i].Z < regions[j].Z
	})
	setContentTypeJson(w)
	return marshalOrFail(http.StatusOK, regions)
}

func apiStoragesGET(w http.ResponseWriter, r *http.Request) (int, string) {
	type storageInfo struct {
		Name   string
		Type   string
		Online bool
	}
	storagesLock.Lock()
	ret := make([]storageInfo, 0, len(storages))
	for k, s := range storages {
		ret = append(ret, storageInfo{
			Name:   k,
			Type:   s.Type,
			Online: s.Driver != nil,
		})
	}
	storagesLock.Unlock()
	sort.Slice(ret, func(i, j int) bool { return ret[i].Name < ret[j].Name })
	setContentTypeJson(w)
	return marshalOrFail(http.StatusOK, ret)
}

func apiStorageReinit(w http.ResponseWriter, r *http.Request) (int, string) {
	sname := mux.Vars(r)["storage"]
	storagesLock.Lock()
	defer storagesLock.Unlock()
	s, ok := storages[sname]
	if !ok {
		return http.StatusNotFound, "Storage not found"
	}
	if s.Driver != nil {
		return http.StatusOK, "Already initialized"
	}
	d, err := initStorage(s.Type, s.Address)
	if err != nil {
		return http.StatusInternalServerError, err.Error()
	}
	ver, err := d.GetStatus()
	if err != nil {
		d.Close()
		return http.StatusInternalServerError, err.Error()
	}
	s.Driver = d
	storages[sname] = s
	return http.StatusOK, ver
}

func apiListRenderers(w http.ResponseWriter, r *http.Request) (int, string) {
	setContentTypeJson(w)
	return marshalOrFail(http.StatusOK, renderers.Names(variants))
}

type apiBlockColor struct {
	State string `json:"state"`
	Color string `json:"color"`
	Tint  string `json:"tint"`
}

type apiBiomeColor struct {
	ID      uint16 `json:"id"`
	Name    string `json:"name"`
	Grass   string `json:"grass"`
	Foliage string `json:"foliage"`
	Water   string `json:"water"`
}

func apiColors(w http.ResponseWriter, r *http.Request) (int, string) {
	entries := renderSettings.Blocks.Entries()
	blocks := make([]apiBlockColor, 0, len(entries))
	for _, e := range entries {
		blocks = append(blocks, apiBlockColor{
			State: e.State,
			Color: colors.HexColor(e.Color),
			Tint:  e.Tint.String(),
		})
	}
	ids := renderSettings.Biomes.IDs()
	biomes := make([]apiBiomeColor, 0, len(ids))
	for _, id := range ids {
		b, _ := renderSettings.Biomes.Lookup(id)
		biomes = append(biomes, apiBiomeColor{
			ID:      id,
			Name:    b.Name,
			Grass:   colors.HexColor(b.Grass),
			Foliage: colors.HexColor(b.Foliage),
			Water:   colors.HexColor(b.Water),
		})
	}
	setContentTypeJson(w)
	return marshalOrFail(http.StatusOK, map[string]any{
		"blocks": blocks,
		"biomes": biomes,
	})
}

func apiStatus(w http.ResponseWriter, r *http.Request) (int, string) {
	loadAvg, _ := load.Avg()
	virtmem, _ := mem.VirtualMemory()
	uptime, _ := host.Uptime()
	cpuUsage, _ := cpu.Percent(0, false)
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	type storageStatus struct {
		Online     bool
		ChunkCount uint64
		ChunkSize  string
	}
	var chunksCount, chunksSizeBytes uint64
	st := map[string]storageStatus{}
	storagesLock.Lock()
	for sn, s := range storages {
		if s.Driver == nil {
			st[sn] = storageStatus{}
			continue
		}
		c, _ := s.Driver.GetChunksCount()
		b, _ := s.Driver.GetChunksSize()
		chunksCount += c
		chunksSizeBytes += b
		st[sn] = storageStatus{Online: true, ChunkCount: c, ChunkSize: humanize.Bytes(b)}
	}
	storagesLock.Unlock()

	ret := map[string]any{
		"Version":     GitTag + " " + CommitHash + " built " + BuildTime + " " + GoVersion,
		"Uptime":      (time.Duration(uptime) * time.Second).String(),
		"LoadAvg":     loadAvg,
		"CPU":         cpuUsage,
		"HeapAlloc":   humanize.Bytes(ms.HeapAlloc),
		"Goroutines":  runtime.NumGoroutine(),
		"ChunksCount": chunksCount,
		"ChunksSize":  humanize.Bytes(chunksSizeBytes),
		"Storages":    st,
		"ImageCache":  imageCache.GetStats(),
		"WSClients":   globalEventRouter.Clients(),
	}
	if virtmem != nil {
		ret["Memory"] = map[string]any{
			"Total":       humanize.Bytes(virtmem.Total),
			"Used":        humanize.Bytes(virtmem.Used),
			"UsedPercent": virtmem.UsedPercent,
		}
	}
	setContentTypeJson(w)
	return marshalOrFail(http.StatusOK, ret)
}
