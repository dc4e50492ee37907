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

package chunkStorage

import (
	"context"
	"errors"
	"log"
	"sort"
	"time"

	"github.com/maxsupermanhd/RegionMap/primitives"
	"github.com/maxsupermanhd/RegionMap/render"
)

var (
	ErrNotImplemented = errors.New("not implemented")
	ErrNoWorld        = errors.New("world not found")
	ErrNoDim          = errors.New("dimension not found")
)

type SWorld struct {
	Name       string // unique
	Alias      string
	CreatedAt  time.Time
	ModifiedAt time.Time
}

type SDim struct {
	Name       string // unique per world
	World      string // name of the world
	CreatedAt  time.Time
	ModifiedAt time.Time
}

// RegionPos is a region that has at least one stored chunk.
type RegionPos struct {
	X, Z int
}

// RegionChunks reads chunks of one region, see render.RegionChunks.
type RegionChunks interface {
	ReadChunk(lx, lz int) (*primitives.Chunk, error)
	Close() error
}

// Everything returns empty slice/nil if specified
// object is not found, error only in case of abnormal things.
type ChunkStorage interface {
	GetStatus() (string, error)
	GetChunksCount() (uint64, error)
	GetChunksSize() (uint64, error)

	ListWorlds() ([]SWorld, error)
	GetWorld(wname string) (*SWorld, error)

	ListWorldDimensions(wname string) ([]SDim, error)
	GetDimension(wname, dname string) (*SDim, error)
	GetDimensionChunksCount(wname, dname string) (uint64, error)
	GetDimensionChunksSize(wname, dname string) (uint64, error)
	ListRegions(wname, dname string) ([]RegionPos, error)

	// OpenRegion returns nil RegionChunks if the region has no chunks.
	OpenRegion(ctx context.Context, wname, dname string, rx, rz int) (RegionChunks, error)
	// GetChunkRaw returns chunk data prefixed with compression type, nil if absent.
	GetChunkRaw(wname, dname string, cx, cz int) ([]byte, error)

	Close() error
}

type Storage struct {
	Name    string       `json:"name"`
	Type    string       `json:"type"`
	Address string       `json:"addr"`
	Driver  ChunkStorage `json:"-"`
}

func CloseStorages(s map[string]Storage) {
	for k, c := range s {
		if c.Driver != nil {
			err := c.Driver.Close()
			if err != nil {
				log.Printf("Error closing storage [%v] of type %v: %v", k, c.Type, err)
			}
			c.Driver = nil
			s[k] = c
		}
	}
}

// ListWorlds collects worlds of every initialized storage sorted by name.
func ListWorlds(storages map[string]Storage) []SWorld {
	worlds := []SWorld{}
	for k, s := range storages {
		if s.Driver != nil {
			w, err := s.Driver.ListWorlds()
			if err != nil {
				log.Printf("Failed to list worlds on storage %s: %s", k, err.Error())
			}
			worlds = append(worlds, w...)
		}
	}
	sort.Slice(worlds, func(i, j int) bool {
		return worlds[i].Name < worlds[j].Name
	})
	return worlds
}

// GetWorldStorage finds the storage holding world wname, nils if none does.
func GetWorldStorage(storages map[string]Storage, wname string) (*SWorld, ChunkStorage, error) {
	for _, s := range storages {
		if s.Driver != nil {
			w, err := s.Driver.GetWorld(wname)
			if err != nil {
				return nil, nil, err
			}
			if w != nil {
				return w, s.Driver, nil
			}
		}
	}
	return nil, nil, nil
}

// DimensionSource binds a storage dimension to the renderer.
func DimensionSource(s ChunkStorage, wname, dname string) render.ChunkSource {
	return render.ChunkSourceFunc(func(ctx context.Context, rx, rz int) (render.RegionChunks, error) {
		rc, err := s.OpenRegion(ctx, wname, dname, rx, rz)
		if err != nil || rc == nil {
			return nil, err
		}
		return rc, nil
	})
}
