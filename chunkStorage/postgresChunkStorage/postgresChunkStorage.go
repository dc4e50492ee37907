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

	"github.com/jackc/pgx/v4/pgxpool"
)

// PostgresChunkStorage reads chunks from tables
//
//	worlds (name text primary key, alias text, created_at timestamp)
//	dimensions (id serial, world text references worlds(name), name text, created_at timestamp)
//	chunks (id serial, dim int references dimensions(id), x int, z int, data bytea, created_at timestamp)
//
// chunk data is stored like in region sectors, prefixed with compression type.
// Several versions of the same chunk may be stored, the newest one is used.
type PostgresChunkStorage struct {
	dbpool *pgxpool.Pool
}

func NewPostgresChunkStorage(ctx context.Context, connection string) (*PostgresChunkStorage, error) {
	p, err := pgxpool.Connect(ctx, connection)
	if err != nil {
		return nil, err
	}
	return &PostgresChunkStorage{dbpool: p}, nil
}

func (s *PostgresChunkStorage) Close() error {
	s.dbpool.Close()
	return nil
}

func (s *PostgresChunkStorage) GetStatus() (ver string, derr error) {
	derr = s.dbpool.QueryRow(context.Background(), `SELECT version();`).Scan(&ver)
	return
}
