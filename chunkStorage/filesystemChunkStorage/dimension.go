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
	"os"
	"time"

	"github.com/maxsupermanhd/RegionMap/chunkStorage"
)

func dirExists(p string) bool {
	fi, err := os.Stat(p)
	if err == nil {
		return fi.IsDir()
	} else {
		return false
	}
}

func dirModtime(p string) time.Time {
	fi, err := os.Stat(p)
	if err == nil {
		return fi.ModTime()
	}
	return time.Time{}
}

// vanilla dimension names in the order they are listed
var dimensionNames = []string{"overworld", "the_nether", "the_end"}

func (s *FilesystemChunkStorage) ListWorldDimensions(wname string) ([]chunkStorage.SDim, error) {
	dims := []chunkStorage.SDim{}
	w, err := s.GetWorld(wname)
	if err != nil {
		return dims, err
	}
	if w == nil {
		return dims, chunkStorage.ErrNoWorld
	}
	for _, dname := range dimensionNames {
		folder, _ := s.RegionFolder(wname, dname)
		if !dirExists(folder) {
			continue
		}
		dims = append(dims, chunkStorage.SDim{
			Name:       dname,
			World:      wname,
			ModifiedAt: dirModtime(folder),
		})
	}
	return dims, nil
}

func (s *FilesystemChunkStorage) GetDimension(wname, dname string) (*chunkStorage.SDim, error) {
	w, err := s.GetWorld(wname)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, chunkStorage.ErrNoWorld
	}
	folder, err := s.RegionFolder(wname, dname)
	if err != nil {
		return nil, err
	}
	if !dirExists(folder) {
		return nil, nil
	}
	return &chunkStorage.SDim{
		Name:       dname,
		World:      wname,
		ModifiedAt: dirModtime(folder),
	}, nil
}
