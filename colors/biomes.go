package colors

import (
	"image/color"
	"sort"
)

// BiomeColors are the three tint colors of a biome.
type BiomeColors struct {
	Name    string
	Grass   color.RGBA
	Foliage color.RGBA
	Water   color.RGBA
}

// Of returns the tint color for class t, t must be a single class.
func (b BiomeColors) Of(t Tint) color.RGBA {
	switch t {
	case TintGrass:
		return b.Grass
	case TintFoliage:
		return b.Foliage
	case TintWater:
		return b.Water
	}
	return color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
}

var missingBiome = BiomeColors{Name: "missing", Grass: Missing, Foliage: Missing, Water: Missing}

// BiomeColorMap maps numeric biome ids to tint colors.
type BiomeColorMap struct {
	m map[uint16]BiomeColors
}

func NewBiomeColorMap() *BiomeColorMap {
	return &BiomeColorMap{m: map[uint16]BiomeColors{}}
}

func (m *BiomeColorMap) Set(id uint16, c BiomeColors) {
	m.m[id] = c
}

// Lookup returns colors of biome id or sentinel colors when it is unknown.
func (m *BiomeColorMap) Lookup(id uint16) (BiomeColors, bool) {
	c, ok := m.m[id]
	if !ok {
		return missingBiome, false
	}
	return c, true
}

func (m *BiomeColorMap) Len() int {
	return len(m.m)
}

// IDs lists known biome ids in ascending order.
func (m *BiomeColorMap) IDs() []uint16 {
	ret := make([]uint16, 0, len(m.m))
	for k := range m.m {
		ret = append(ret, k)
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i] < ret[j] })
	return ret
}
