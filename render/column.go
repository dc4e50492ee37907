package render

import (
	"image/color"

	"github.com/maxsupermanhd/RegionMap/colors"
	"github.com/maxsupermanhd/RegionMap/primitives"
)

var opaqueBlack = color.RGBA{A: 0xFF}

// Column is the surface of one x z column of a chunk.
type Column struct {
	Color  color.RGBA
	Height uint16
	Hit    bool
}

// ChunkColumns are chunk columns in x | z<<4 order.
type ChunkColumns [primitives.ChunkColumns]Column

// Renderable reports whether chunk format and generation state allow rendering.
func Renderable(c *primitives.Chunk) bool {
	return c.DataVersion >= MinDataVersion && c.DataVersion <= MaxDataVersion && FullStatuses[c.Status]
}

// CompositeChunk finds the topmost visible voxel of every column.
// x0 z0 are world coordinates of the chunk corner and only matter for bounds.
// Returns nil when the chunk is skipped or Y bounds leave no voxels to scan.
func CompositeChunk(c *primitives.Chunk, x0, z0 int, s *Settings, st *Stats) *ChunkColumns {
	if c == nil {
		return nil
	}
	if !Renderable(c) {
		st.ChunksSkipped++
		return nil
	}
	yMin, yMax := clampInt(s.Bounds.MinY, 0, 255), clampInt(s.Bounds.MaxY, 0, 255)
	if s.Bounds.MinY > 255 || s.Bounds.MaxY < 0 || yMin > yMax {
		return nil
	}
	ret := new(ChunkColumns)
	var (
		memo   [primitives.ChunkSections]*SectionColors
		loaded [primitives.ChunkSections]bool
	)
	for z := 0; z < 16; z++ {
	columns:
		for x := 0; x < 16; x++ {
			if !s.Bounds.ContainsColumn(x0+x, z0+z) {
				continue
			}
			col := x | z<<4
			for si := yMax >> 4; si >= yMin>>4; si-- {
				if !loaded[si] {
					memo[si] = RasterizeSection(c.Sections[si], &c.Biomes, s, st)
					loaded[si] = true
				}
				sc := memo[si]
				if sc == nil {
					continue
				}
				top, bottom := 15, 0
				if si == yMax>>4 {
					top = yMax & 15
				}
				if si == yMin>>4 {
					bottom = yMin & 15
				}
				for y := top; y >= bottom; y-- {
					v := sc[col|y<<8]
					if v.A == 0 {
						continue
					}
					ret[col] = Column{
						Color:  colors.Over(opaqueBlack, v),
						Height: uint16(si*16 + y),
						Hit:    true,
					}
					continue columns
				}
			}
		}
	}
	return ret
}

func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
