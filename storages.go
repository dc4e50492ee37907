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
	"errors"
	"log"
	"sync"

	"github.com/maxsupermanhd/RegionMap/chunkStorage"
	"github.com/maxsupermanhd/RegionMap/chunkStorage/filesystemChunkStorage"
	"github.com/maxsupermanhd/RegionMap/chunkStorage/postgresChunkStorage"
	"github.com/maxsupermanhd/lac"
)

var (
	errStorageTypeNotImplemented = errors.New("storage type not implemented")
	storages                     map[string]chunkStorage.Storage
	storagesLock                 sync.Mutex
)

func initStorages() error {
	log.Println("Initializing storages...")
	err := cfg.GetToStruct(&storages, "storages")
	if err != nil && !errors.Is(err, lac.ErrNoKey) {
		return err
	}
	if len(storages) == 0 {
		log.Println("No storages to initialize")
		storages = map[string]chunkStorage.Storage{}
		return nil
	}
	for k, v := range storages {
		v.Name = k
		storages[k] = v
		d, err := initStorage(v.Type, v.Address)
		if err != nil {
			log.Printf("Failed to initialize storage %s: %s", k, err.Error())
			continue
		}
		ver, err := d.GetStatus()
		if err != nil {
			log.Printf("Error getting storage %s status: %s", k, err.Error())
			d.Close()
			continue
		}
		v.Driver = d
		storages[k] = v
		log.Printf("Storage %s initialized: %s", k, ver)
	}
	return nil
}

func initStorage(storageStype, address string) (driver chunkStorage.ChunkStorage, err error) {
	switch storageStype {
	case "postgres":
		driver, err = postgresChunkStorage.NewPostgresChunkStorage(context.Background(), address)
		if err != nil {
			return nil, err
		}
		return driver, nil
	case "filesystem":
		driver, err = filesystemChunkStorage.NewFilesystemChunkStorage(address)
		if err != nil {
			return nil, err
		}
		return driver, nil
	default:
		return nil, errStorageTypeNotImplemented
	}
}

// findWorldStorage locks storages and looks up the one holding the world.
func findWorldStorage(wname string) (chunkStorage.ChunkStorage, error) {
	storagesLock.Lock()
	defer storagesLock.Unlock()
	w, s, err := chunkStorage.GetWorldStorage(storages, wname)
	if err != nil {
		return nil, err
	}
	if w == nil || s == nil {
		return nil, chunkStorage.ErrNoWorld
	}
	return s, nil
}
