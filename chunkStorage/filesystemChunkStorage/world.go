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
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/maxsupermanhd/RegionMap/chunkStorage"
)

func (s *FilesystemChunkStorage) worldStruct(wname string) chunkStorage.SWorld {
	p := s.worldPath(wname)
	w := chunkStorage.SWorld{
		Name:       wname,
		ModifiedAt: dirModtime(p),
	}
	if fi, err := os.Stat(levelDatPath(p)); err == nil {
		w.ModifiedAt = fi.ModTime()
		alias, err := readLevelName(levelDatPath(p))
		if err != nil {
			log.Printf("Failed to read level name of world [%s]: %v", wname, err)
		} else {
			w.Alias = alias
		}
	}
	return w
}

func (s *FilesystemChunkStorage) ListWorlds() ([]chunkStorage.SWorld, error) {
	worlds := []chunkStorage.SWorld{}
	if s.single {
		return append(worlds, s.worldStruct(filepath.Base(s.Root))), nil
	}
	e, err := os.ReadDir(s.Root)
	if err != nil {
		return nil, err
	}
	for _, f := range e {
		if f.IsDir() && checkValidWorld(filepath.Join(s.Root, f.Name())) {
			worlds = append(worlds, s.worldStruct(f.Name()))
		}
	}
	sort.Slice(worlds, func(i, j int) bool {
		return worlds[i].Name < worlds[j].Name
	})
	return worlds, nil
}

func (s *FilesystemChunkStorage) GetWorld(wname string) (*chunkStorage.SWorld, error) {
	if wname == "" || wname != filepath.Base(wname) {
		return nil, nil
	}
	if !checkValidWorld(s.worldPath(wname)) {
		return nil, nil
	}
	if s.single && wname != filepath.Base(s.Root) {
		return nil, nil
	}
	w := s.worldStruct(wname)
	return &w, nil
}
