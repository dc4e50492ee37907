package render

import (
	"image/color"

	"github.com/maxsupermanhd/RegionMap/colors"
	"github.com/maxsupermanhd/RegionMap/lib/bitpack"
	"github.com/maxsupermanhd/RegionMap/primitives"
)

// SectionColors are resolved voxel colors in x | z<<4 | y<<8 order.
type SectionColors [primitives.SectionVolume]color.RGBA

// RasterizeSection resolves every voxel of sec to a color. Absent sections
// give nil. biomes is the chunk biome array indexed by x | z<<4.
func RasterizeSection(sec *primitives.Section, biomes *[primitives.ChunkColumns]uint16, s *Settings, st *Stats) *SectionColors {
	if sec == nil || len(sec.Palette) == 0 {
		return nil
	}
	n := len(sec.Palette)
	bits := bitpack.PaletteBits(n)
	if len(sec.BlockStates) < bitpack.WordsFor(primitives.SectionVolume, bits) {
		st.MalformedSections++
		return nil
	}
	resolved := make([]colors.BlockColor, n)
	known := make([]bool, n)
	for i, bs := range sec.Palette {
		resolved[i], known[i] = s.Blocks.Lookup(bs)
		if !known[i] {
			st.missingKey(colors.Key(bs))
		}
	}
	var tints [primitives.ChunkColumns]*colors.BiomeColors
	ret := new(SectionColors)
	for i := 0; i < primitives.SectionVolume; i++ {
		idx := bitpack.Extract(sec.BlockStates, i, bits)
		if idx >= uint64(n) {
			ret[i] = colors.Missing
			st.OutOfRangeIndices++
			continue
		}
		bc := resolved[idx]
		if !known[idx] {
			st.MissingStates++
		}
		c := bc.Color
		if t := bc.Tint.Primary(); t != colors.TintNone {
			col := i & 0xFF
			if tints[col] == nil {
				b, ok := s.Biomes.Lookup(biomes[col])
				if !ok {
					st.UnknownBiomes++
				}
				tints[col] = &b
			}
			c = colors.Multiply(c, tints[col].Of(t))
		}
		ret[i] = c
	}
	return ret
}
