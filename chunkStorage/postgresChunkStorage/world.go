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

package postgresChunkStorage

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/maxsupermanhd/RegionMap/chunkStorage"
)

func (s *PostgresChunkStorage) ListWorlds() ([]chunkStorage.SWorld, error) {
	worlds := []chunkStorage.SWorld{}
	rows, derr := s.dbpool.Query(context.Background(),
		`SELECT name, coalesce(alias, ''), created_at FROM worlds ORDER BY name`)
	if derr != nil {
		if errors.Is(derr, pgx.ErrNoRows) {
			return worlds, nil
		}
		return worlds, derr
	}
	defer rows.Close()
	for rows.Next() {
		w := chunkStorage.SWorld{}
		if err := rows.Scan(&w.Name, &w.Alias, &w.CreatedAt); err != nil {
			return worlds, err
		}
		w.ModifiedAt = w.CreatedAt
		worlds = append(worlds, w)
	}
	return worlds, rows.Err()
}

func (s *PostgresChunkStorage) GetWorld(wname string) (*chunkStorage.SWorld, error) {
	world := chunkStorage.SWorld{}
	derr := s.dbpool.QueryRow(context.Background(),
		`SELECT name, coalesce(alias, ''), created_at FROM worlds WHERE name = $1 LIMIT 1`, wname).Scan(&world.Name, &world.Alias, &world.CreatedAt)
	if errors.Is(derr, pgx.ErrNoRows) {
		return nil, nil
	} else if derr == nil {
		world.ModifiedAt = world.CreatedAt
		return &world, nil
	} else {
		return nil, derr
	}
}
