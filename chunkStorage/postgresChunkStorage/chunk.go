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
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/maxsupermanhd/RegionMap/chunkStorage"
	"github.com/maxsupermanhd/RegionMap/primitives"
)

// regionChunks holds decoded chunks of one region fetched with a single query.
type regionChunks struct {
	chunks map[[2]int]*primitives.Chunk
}

func (r *regionChunks) ReadChunk(lx, lz int) (*primitives.Chunk, error) {
	return r.chunks[[2]int{lx, lz}], nil
}

func (r *regionChunks) Close() error {
	return nil
}

func (s *PostgresChunkStorage) OpenRegion(ctx context.Context, wname, dname string, rx, rz int) (chunkStorage.RegionChunks, error) {
	dimID, err := s.getDimID(ctx, wname, dname)
	if err != nil {
		return nil, err
	}
	cx0, cz0 := rx*primitives.RegionChunksSide, rz*primitives.RegionChunksSide
	rows, err := s.dbpool.Query(ctx, `
		select distinct on (x, z) x, z, data
		from chunks
		where dim = $1 AND x >= $2 AND z >= $3 AND x < $4 AND z < $5
		order by x, z, created_at desc`,
		dimID, cx0, cz0, cx0+primitives.RegionChunksSide, cz0+primitives.RegionChunksSide)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	defer rows.Close()
	ret := &regionChunks{chunks: map[[2]int]*primitives.Chunk{}}
	for rows.Next() {
		var x, z int32
		var d []byte
		if err := rows.Scan(&x, &z, &d); err != nil {
			return nil, err
		}
		c, err := chunkStorage.DecodeChunk(d)
		if err != nil {
			return nil, fmt.Errorf("chunk %d %d: %w", x, z, err)
		}
		ret.chunks[[2]int{int(x) - cx0, int(z) - cz0}] = c
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ret.chunks) == 0 {
		return nil, nil
	}
	return ret, nil
}

func (s *PostgresChunkStorage) GetChunkRaw(wname, dname string, cx, cz int) ([]byte, error) {
	var d []byte
	derr := s.dbpool.QueryRow(context.Background(), `
		select data
		from chunks
		where x = $1 AND z = $2 AND
			dim = (select dimensions.id
			 from dimensions
			 where dimensions.world = $3 and dimensions.name = $4)
		order by created_at desc
		limit 1;`, cx, cz, wname, dname).Scan(&d)
	if derr != nil {
		if errors.Is(derr, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, derr
	}
	return d, nil
}

func (s *PostgresChunkStorage) ListRegions(wname, dname string) ([]chunkStorage.RegionPos, error) {
	ret := []chunkStorage.RegionPos{}
	dimID, err := s.getDimID(context.Background(), wname, dname)
	if err != nil {
		return ret, err
	}
	rows, err := s.dbpool.Query(context.Background(),
		`select distinct x >> 5, z >> 5 from chunks where dim = $1`, dimID)
	if err != nil {
		return ret, err
	}
	defer rows.Close()
	for rows.Next() {
		var x, z int32
		if err := rows.Scan(&x, &z); err != nil {
			return ret, err
		}
		ret = append(ret, chunkStorage.RegionPos{X: int(x), Z: int(z)})
	}
	return ret, rows.Err()
}

func (s *PostgresChunkStorage) GetChunksCount() (chunksCount uint64, derr error) {
	derr = s.dbpool.QueryRow(context.Background(),
		`SELECT COUNT(id) from chunks;`).Scan(&chunksCount)
	return chunksCount, derr
}

func (s *PostgresChunkStorage) GetChunksSize() (chunksSize uint64, derr error) {
	derr = s.dbpool.QueryRow(context.Background(),
		`SELECT pg_total_relation_size('chunks');`).Scan(&chunksSize)
	return chunksSize, derr
}

// AddChunkRaw stores a new version of a chunk, data must be prefixed with
// compression type.
func (s *PostgresChunkStorage) AddChunkRaw(wname, dname string, cx, cz int, dat []byte) error {
	dimID, err := s.getDimID(context.Background(), wname, dname)
	if err != nil {
		return err
	}
	_, err = s.dbpool.Exec(context.Background(),
		`insert into chunks (x, z, data, dim, created_at) values ($1, $2, $3, $4, now())`,
		cx, cz, dat, dimID)
	return err
}
