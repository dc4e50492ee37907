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
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-multierror"
)

// FilesystemChunkStorage reads vanilla world saves. Root is either a
// directory of worlds or a single world directory.
type FilesystemChunkStorage struct {
	Root   string
	single bool
}

func NewFilesystemChunkStorage(root string) (*FilesystemChunkStorage, error) {
	fi, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("storage root [%s] is not a directory", root)
	}
	return &FilesystemChunkStorage{
		Root:   root,
		single: checkValidWorld(root),
	}, nil
}

func (s *FilesystemChunkStorage) Close() error {
	return nil
}

func (s *FilesystemChunkStorage) GetStatus() (ver string, err error) {
	return "filesystem " + s.Root, nil
}

func (s *FilesystemChunkStorage) GetChunksCount() (chunksCount uint64, err error) {
	err = s.forEachDimension(func(wname, dname string) error {
		c, err := s.GetDimensionChunksCount(wname, dname)
		chunksCount += c
		return err
	})
	return
}

func (s *FilesystemChunkStorage) GetChunksSize() (chunksSize uint64, err error) {
	err = s.forEachDimension(func(wname, dname string) error {
		c, err := s.GetDimensionChunksSize(wname, dname)
		chunksSize += c
		return err
	})
	return
}

func (s *FilesystemChunkStorage) forEachDimension(f func(wname, dname string) error) error {
	var ret *multierror.Error
	worlds, err := s.ListWorlds()
	if err != nil {
		return err
	}
	for _, w := range worlds {
		dims, err := s.ListWorldDimensions(w.Name)
		if err != nil {
			ret = multierror.Append(ret, err)
			continue
		}
		for _, d := range dims {
			if err := f(w.Name, d.Name); err != nil {
				ret = multierror.Append(ret, err)
			}
		}
	}
	return ret.ErrorOrNil()
}

func (s *FilesystemChunkStorage) worldPath(wname string) string {
	if s.single && wname == filepath.Base(s.Root) {
		return s.Root
	}
	return filepath.Join(s.Root, wname)
}
