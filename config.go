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
	"errors"
	"os"

	"github.com/joho/godotenv"
	"github.com/maxsupermanhd/lac"
)

var cfg *lac.Conf

func configPath() string {
	path := os.Getenv("REGIONMAP_CONFIG")
	if path == "" {
		path = "config.json"
	}
	return path
}

func loadEnv() error {
	err := godotenv.Load()
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func loadConfig() error {
	var err error
	cfg, err = lac.FromFileJSON(configPath())
	return err
}
