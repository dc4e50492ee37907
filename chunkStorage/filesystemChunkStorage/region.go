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

package filesystemChunkStorage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/maxsupermanhd/RegionMap/chunkStorage"
	"github.com/maxsupermanhd/RegionMap/primitives"
	"github.com/maxsupermanhd/go-vmc/v762/save/region"
)

var (
	regionFnameRegexp = regexp.MustCompile(`^r\.(-?\d+)\.(-?\d+)\.mca$`)
)

// RegionFolder is the directory holding region files of a dimension.
func (s *FilesystemChunkStorage) RegionFolder(wname, dname string) (string, error) {
	switch dname {
	case "overworld":
		return filepath.Join(s.worldPath(wname), "region"), nil
	case "the_end":
		return filepath.Join(s.worldPath(wname), "DIM1", "region"), nil
	case "the_nether":
		return filepath.Join(s.worldPath(wname), "DIM-1", "region"), nil
	default:
		return "", chunkStorage.ErrNoDim
	}
}

func RegionFileName(rx, rz int) string {
	return fmt.Sprintf("r.%d.%d.mca", rx, rz)
}

func ExtractRegionPath(fname string, xx, zz *int) bool {
	r := regionFnameRegexp.FindAllStringSubmatch(fname, -1)
	if len(r) != 1 {
		return false
	}
	if len(r[0]) != 3 {
		return false
	}
	var err error
	var x, z int
	x, err = strconv.Atoi(r[0][1])
	if err != nil {
		return false
	}
	z, err = strconv.Atoi(r[0][2])
	if err != nil {
		return false
	}
	if xx != nil {
		*xx = x
	}
	if zz != nil {
		*zz = z
	}
	return true
}

// ListRegionFiles lists region positions of all region files in folder.
func ListRegionFiles(folder string) ([]chunkStorage.RegionPos, error) {
	ret := []chunkStorage.RegionPos{}
	e, err := os.ReadDir(folder)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ret, nil
		}
		return nil, err
	}
	for _, f := range e {
		var x, z int
		if f.Type().IsRegular() && ExtractRegionPath(f.Name(), &x, &z) {
			ret = append(ret, chunkStorage.RegionPos{X: x, Z: z})
		}
	}
	return ret, nil
}

func (s *FilesystemChunkStorage) ListRegions(wname, dname string) ([]chunkStorage.RegionPos, error) {
	folder, err := s.RegionFolder(wname, dname)
	if err != nil {
		return nil, err
	}
	return ListRegionFiles(folder)
}

// RegionFile wraps an open region file, go-vmc regions are not safe
// for concurrent use so every render opens its own.
type RegionFile struct {
	reg *region.Region
	mu  sync.Mutex
}

// OpenRegionFile opens region at path, nil without error when it does not exist.
func OpenRegionFile(p string) (*RegionFile, error) {
	reg, err := region.Open(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return &RegionFile{reg: reg}, nil
}

// ReadSector returns raw chunk data or nil if the chunk was not generated.
func (r *RegionFile) ReadSector(lx, lz int) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.reg.ExistSector(lx, lz) {
		return nil, nil
	}
	d, err := r.reg.ReadSector(lx, lz)
	if err != nil {
		return nil, fmt.Errorf("reading sector %d %d: %w", lx, lz, err)
	}
	if len(d) == 0 {
		return nil, nil
	}
	return d, nil
}

func (r *RegionFile) ReadChunk(lx, lz int) (*primitives.Chunk, error) {
	d, err := r.ReadSector(lx, lz)
	if err != nil || d == nil {
		return nil, err
	}
	c, err := chunkStorage.DecodeChunk(d)
	if err != nil {
		return nil, fmt.Errorf("chunk %d %d: %w", lx, lz, err)
	}
	return c, nil
}

// CountChunks counts generated chunks of the region.
func (r *RegionFile) CountChunks() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := 0
	for x := 0; x < primitives.RegionChunksSide; x++ {
		for z := 0; z < primitives.RegionChunksSide; z++ {
			if r.reg.ExistSector(x, z) {
				c++
			}
		}
	}
	return c
}

func (r *RegionFile) Close() error {
	return r.reg.Close()
}

func (s *FilesystemChunkStorage) regionPath(wname, dname string, rx, rz int) (string, error) {
	folder, err := s.RegionFolder(wname, dname)
	if err != nil {
		return "", err
	}
	return filepath.Join(folder, RegionFileName(rx, rz)), nil
}

func (s *FilesystemChunkStorage) OpenRegion(ctx context.Context, wname, dname string, rx, rz int) (chunkStorage.RegionChunks, error) {
	p, err := s.regionPath(wname, dname, rx, rz)
	if err != nil {
		return nil, err
	}
	r, err := OpenRegionFile(p)
	if err != nil || r == nil {
		return nil, err
	}
	return r, nil
}

func (s *FilesystemChunkStorage) GetChunkRaw(wname, dname string, cx, cz int) ([]byte, error) {
	rx, rz := region.At(cx, cz)
	p, err := s.regionPath(wname, dname, rx, rz)
	if err != nil {
		return nil, err
	}
	r, err := OpenRegionFile(p)
	if err != nil || r == nil {
		return nil, err
	}
	defer r.Close()
	lx, lz := region.In(cx, cz)
	return r.ReadSector(lx, lz)
}

func (s *FilesystemChunkStorage) GetDimensionChunksCount(wname, dname string) (uint64, error) {
	folder, err := s.RegionFolder(wname, dname)
	if err != nil {
		return 0, err
	}
	regions, err := ListRegionFiles(folder)
	if err != nil {
		return 0, err
	}
	var ret uint64
	var errs *multierror.Error
	for _, rp := range regions {
		r, err := OpenRegionFile(filepath.Join(folder, RegionFileName(rp.X, rp.Z)))
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		if r == nil {
			continue
		}
		ret += uint64(r.CountChunks())
		r.Close()
	}
	return ret, errs.ErrorOrNil()
}

func (s *FilesystemChunkStorage) GetDimensionChunksSize(wname, dname string) (uint64, error) {
	folder, err := s.RegionFolder(wname, dname)
	if err != nil {
		return 0, err
	}
	regions, err := ListRegionFiles(folder)
	if err != nil {
		return 0, err
	}
	var ret uint64
	for _, rp := range regions {
		fi, err := os.Stat(filepath.Join(folder, RegionFileName(rp.X, rp.Z)))
		if err == nil {
			ret += uint64(fi.Size())
		}
	}
	return ret, nil
}
