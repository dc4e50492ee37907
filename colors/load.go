package colors

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/maxsupermanhd/RegionMap/primitives"
	"gopkg.in/yaml.v3"
)

var (
	ErrBadStateKey = errors.New("bad block state key")
	ErrBadTint     = errors.New("bad tint class")
)

//go:embed default_blocks.tsv
var defaultBlocks []byte

//go:embed default_biomes.yaml
var defaultBiomes []byte

// ParseStateKey reads namespace:name[k=v,...] or name[*].
func ParseStateKey(s string) (state primitives.BlockState, wildcard bool, err error) {
	s = strings.TrimSpace(s)
	open := strings.IndexByte(s, '[')
	if open < 0 {
		if s == "" {
			return state, false, ErrBadStateKey
		}
		state.Name = NormalizeName(s)
		return state, false, nil
	}
	if !strings.HasSuffix(s, "]") || open == 0 {
		return state, false, fmt.Errorf("%w: %q", ErrBadStateKey, s)
	}
	state.Name = NormalizeName(s[:open])
	props := s[open+1 : len(s)-1]
	if props == "*" {
		return state, true, nil
	}
	if props == "" {
		return state, false, nil
	}
	state.Properties = map[string]string{}
	for _, kv := range strings.Split(props, ",") {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return state, false, fmt.Errorf("%w: property %q of %q", ErrBadStateKey, kv, s)
		}
		state.Properties[k] = v
	}
	return state, false, nil
}

// ParseTint reads a comma separated list of tint classes, "-" or empty is none.
func ParseTint(s string) (Tint, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return TintNone, nil
	}
	var t Tint
	for _, c := range strings.Split(s, ",") {
		switch strings.TrimSpace(c) {
		case "grass":
			t |= TintGrass
		case "foliage":
			t |= TintFoliage
		case "water":
			t |= TintWater
		default:
			return t, fmt.Errorf("%w: %q", ErrBadTint, c)
		}
	}
	return t, nil
}

// ReadBlockColors parses a tab separated block table: state, color, tints.
// Lines starting with # are comments.
func ReadBlockColors(r io.Reader) (*BlockColorMap, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	m := NewBlockColorMap()
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line, _ := cr.FieldPos(0)
		if len(rec) < 2 {
			return nil, fmt.Errorf("line %d: expected at least 2 fields, got %d", line, len(rec))
		}
		state, wildcard, err := ParseStateKey(rec[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		c, err := ParseHexColor(strings.TrimSpace(rec[1]))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		var t Tint
		if len(rec) > 2 {
			t, err = ParseTint(rec[2])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
		}
		if wildcard {
			m.SetWildcard(state.Name, BlockColor{Color: c, Tint: t})
		} else {
			m.Set(state, BlockColor{Color: c, Tint: t})
		}
	}
	return m, nil
}

// WriteBlockColors writes the table in the format ReadBlockColors reads.
func WriteBlockColors(w io.Writer, m *BlockColorMap) error {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	for _, e := range m.Entries() {
		if err := cw.Write([]string{e.State, HexColor(e.Color), e.Tint.String()}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

type biomeRecord struct {
	ID      uint16 `yaml:"id"`
	Name    string `yaml:"name"`
	Grass   string `yaml:"grass"`
	Foliage string `yaml:"foliage"`
	Water   string `yaml:"water"`
}

// ReadBiomeColors parses a YAML list of biomes with hex tint colors.
func ReadBiomeColors(r io.Reader) (*BiomeColorMap, error) {
	var recs []biomeRecord
	if err := yaml.NewDecoder(r).Decode(&recs); err != nil && err != io.EOF {
		return nil, err
	}
	m := NewBiomeColorMap()
	for _, rec := range recs {
		var b BiomeColors
		var err error
		b.Name = rec.Name
		if b.Grass, err = ParseHexColor(rec.Grass); err != nil {
			return nil, fmt.Errorf("biome %d grass: %w", rec.ID, err)
		}
		if b.Foliage, err = ParseHexColor(rec.Foliage); err != nil {
			return nil, fmt.Errorf("biome %d foliage: %w", rec.ID, err)
		}
		if b.Water, err = ParseHexColor(rec.Water); err != nil {
			return nil, fmt.Errorf("biome %d water: %w", rec.ID, err)
		}
		m.Set(rec.ID, b)
	}
	return m, nil
}

// LoadBlockColors reads block table from path or embedded defaults if path is empty.
func LoadBlockColors(path string) (*BlockColorMap, error) {
	if path == "" {
		return ReadBlockColors(bytes.NewReader(defaultBlocks))
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadBlockColors(f)
}

// LoadBiomeColors reads biome table from path or embedded defaults if path is empty.
func LoadBiomeColors(path string) (*BiomeColorMap, error) {
	if path == "" {
		return ReadBiomeColors(bytes.NewReader(defaultBiomes))
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadBiomeColors(f)
}
