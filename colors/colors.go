// Package colors holds block and biome color tables used by the renderer.
package colors

import (
	"image/color"
	"sort"
	"strings"

	"github.com/maxsupermanhd/RegionMap/primitives"
)

// Missing is returned for block states and biomes absent from the tables.
var Missing = color.RGBA{R: 0xFF, G: 0x00, B: 0xFF, A: 0xFF}

var transparent = color.RGBA{}

// Tint is a set of biome tint classes a block state belongs to.
type Tint uint8

const (
	TintGrass Tint = 1 << iota
	TintFoliage
	TintWater
	TintNone Tint = 0
)

// Primary picks the single tint applied to a block, grass beats foliage
// and foliage beats water.
func (t Tint) Primary() Tint {
	switch {
	case t&TintGrass != 0:
		return TintGrass
	case t&TintFoliage != 0:
		return TintFoliage
	case t&TintWater != 0:
		return TintWater
	}
	return TintNone
}

func (t Tint) String() string {
	if t == TintNone {
		return "-"
	}
	r := []string{}
	if t&TintGrass != 0 {
		r = append(r, "grass")
	}
	if t&TintFoliage != 0 {
		r = append(r, "foliage")
	}
	if t&TintWater != 0 {
		r = append(r, "water")
	}
	return strings.Join(r, ",")
}

// BlockColor is the base color of a block state and its tint classes.
type BlockColor struct {
	Color color.RGBA
	Tint  Tint
}

// BlockColorMap maps block states to colors. Exact keys are looked up first,
// then per-name wildcard entries that match any property set.
type BlockColorMap struct {
	exact    map[string]BlockColor
	wildcard map[string]BlockColor
}

var airBlocks = []string{"minecraft:air", "minecraft:cave_air", "minecraft:void_air"}

// NewBlockColorMap returns a table that knows only air variants, which are
// fully transparent.
func NewBlockColorMap() *BlockColorMap {
	m := &BlockColorMap{
		exact:    map[string]BlockColor{},
		wildcard: map[string]BlockColor{},
	}
	for _, n := range airBlocks {
		m.wildcard[n] = BlockColor{Color: transparent}
	}
	return m
}

// Set registers color for state.
func (m *BlockColorMap) Set(s primitives.BlockState, c BlockColor) {
	m.exact[Key(s)] = c
}

// SetWildcard registers color for every property set of block name.
func (m *BlockColorMap) SetWildcard(name string, c BlockColor) {
	m.wildcard[NormalizeName(name)] = c
}

// Lookup returns color of the state, ok is false when neither exact nor
// wildcard entry exists, in which case Missing is returned.
func (m *BlockColorMap) Lookup(s primitives.BlockState) (BlockColor, bool) {
	if c, ok := m.exact[Key(s)]; ok {
		return c, true
	}
	if c, ok := m.wildcard[NormalizeName(s.Name)]; ok {
		return c, true
	}
	return BlockColor{Color: Missing}, false
}

// Len is the number of registered entries of both kinds.
func (m *BlockColorMap) Len() int {
	return len(m.exact) + len(m.wildcard)
}

// Entry is one table row as stored in table files.
type Entry struct {
	State string
	BlockColor
}

// Entries lists the table sorted by state key. Wildcards are suffixed with [*].
func (m *BlockColorMap) Entries() []Entry {
	ret := make([]Entry, 0, m.Len())
	for k, v := range m.exact {
		ret = append(ret, Entry{State: k, BlockColor: v})
	}
	for k, v := range m.wildcard {
		ret = append(ret, Entry{State: k + "[*]", BlockColor: v})
	}
	sort.Slice(ret, func(i, j int) bool {
		return ret[i].State < ret[j].State
	})
	return ret
}

// NormalizeName adds the minecraft namespace to names that have none.
func NormalizeName(n string) string {
	if strings.IndexByte(n, ':') < 0 {
		return "minecraft:" + n
	}
	return n
}

// Key is the canonical string form of a block state, namespace:name[k=v,...]
// with properties sorted by key.
func Key(s primitives.BlockState) string {
	n := NormalizeName(s.Name)
	if len(s.Properties) == 0 {
		return n
	}
	keys := make([]string, 0, len(s.Properties))
	for k := range s.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString(n)
	b.WriteByte('[')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(s.Properties[k])
	}
	b.WriteByte(']')
	return b.String()
}
