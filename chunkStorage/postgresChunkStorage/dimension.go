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

func (s *PostgresChunkStorage) ListWorldDimensions(wname string) ([]chunkStorage.SDim, error) {
	dims := []chunkStorage.SDim{}
	rows, derr := s.dbpool.Query(context.Background(), "SELECT name, world, created_at FROM dimensions WHERE world = $1 ORDER BY name", wname)
	if derr != nil {
		if errors.Is(derr, pgx.ErrNoRows) {
			return dims, nil
		}
		return dims, derr
	}
	defer rows.Close()
	for rows.Next() {
		dim := chunkStorage.SDim{}
		err := rows.Scan(&dim.Name, &dim.World, &dim.CreatedAt)
		if err != nil {
			return dims, err
		}
		dim.ModifiedAt = dim.CreatedAt
		dims = append(dims, dim)
	}
	return dims, rows.Err()
}

func (s *PostgresChunkStorage) GetDimension(wname, dname string) (*chunkStorage.SDim, error) {
	dim := chunkStorage.SDim{}
	derr := s.dbpool.QueryRow(context.Background(), "SELECT name, world, created_at FROM dimensions WHERE name = $1 AND world = $2", dname, wname).Scan(&dim.Name, &dim.World, &dim.CreatedAt)
	if derr != nil {
		if errors.Is(derr, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, derr
	}
	dim.ModifiedAt = dim.CreatedAt
	return &dim, derr
}

func (s *PostgresChunkStorage) getDimID(ctx context.Context, wname, dname string) (int, error) {
	var dimID int
	derr := s.dbpool.QueryRow(ctx,
		`SELECT id FROM dimensions WHERE world = $1 and name = $2`, wname, dname).Scan(&dimID)
	if errors.Is(derr, pgx.ErrNoRows) {
		return 0, chunkStorage.ErrNoDim
	}
	return dimID, derr
}

func (s *PostgresChunkStorage) GetDimensionChunksCount(wname, dname string) (count uint64, derr error) {
	dimID, derr := s.getDimID(context.Background(), wname, dname)
	if derr != nil {
		return 0, derr
	}
	derr = s.dbpool.QueryRow(context.Background(),
		`SELECT COUNT(DISTINCT (x, z)) FROM chunks WHERE dim = $1`, dimID).Scan(&count)
	return count, derr
}

func (s *PostgresChunkStorage) GetDimensionChunksSize(wname, dname string) (size uint64, derr error) {
	dimID, derr := s.getDimID(context.Background(), wname, dname)
	if derr != nil {
		return 0, derr
	}
	derr = s.dbpool.QueryRow(context.Background(),
		`SELECT COALESCE(SUM(pg_column_size(data)), 0) FROM chunks WHERE dim = $1`, dimID).Scan(&size)
	return size, derr
}

// AddDimension creates world and dimension records unless they exist.
func (s *PostgresChunkStorage) AddDimension(ctx context.Context, wname, dname string) error {
	tx, err := s.dbpool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)
	_, err = tx.Exec(ctx,
		`INSERT INTO worlds (name, alias, created_at) SELECT $1, $1, now()
		WHERE NOT EXISTS (SELECT 1 FROM worlds WHERE name = $1)`, wname)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO dimensions (world, name, created_at) SELECT $1, $2, now()
		WHERE NOT EXISTS (SELECT 1 FROM dimensions WHERE world = $1 AND name = $2)`, wname, dname)
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}
