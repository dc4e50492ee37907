package render

import (
	"errors"
	"math"

	"github.com/maxsupermanhd/RegionMap/colors"
	"github.com/maxsupermanhd/lac"
)

const (
	// MinDataVersion is the oldest chunk format with paletted sections (1.13).
	MinDataVersion = 1519
	// MaxDataVersion is the newest chunk format whose block state indices
	// may straddle words (before 20w17a).
	MaxDataVersion = 2528
)

// FullStatuses are generation statuses of chunks that are safe to render.
var FullStatuses = map[string]bool{
	"full":          true,
	"fullchunk":     true,
	"postprocessed": true,
}

// Bounds are inclusive world coordinate filters.
type Bounds struct {
	MinX int `json:"minX"`
	MaxX int `json:"maxX"`
	MinY int `json:"minY"`
	MaxY int `json:"maxY"`
	MinZ int `json:"minZ"`
	MaxZ int `json:"maxZ"`
}

// Unbounded lets everything through.
var Unbounded = Bounds{
	MinX: math.MinInt32, MaxX: math.MaxInt32,
	MinY: math.MinInt32, MaxY: math.MaxInt32,
	MinZ: math.MinInt32, MaxZ: math.MaxInt32,
}

func (b Bounds) ContainsColumn(x, z int) bool {
	return x >= b.MinX && x <= b.MaxX && z >= b.MinZ && z <= b.MaxZ
}

// IntersectsArea reports whether any column of the square area starting
// at x z with side size is inside bounds.
func (b Bounds) IntersectsArea(x, z, size int) bool {
	return x+size-1 >= b.MinX && x <= b.MaxX && z+size-1 >= b.MinZ && z <= b.MaxZ
}

// Shading controls the relief pass.
type Shading struct {
	Disabled              bool    `json:"disabled"`
	ReferenceAltitude     float64 `json:"referenceAltitude"`
	AltitudeShadingFactor float64 `json:"altitudeShadingFactor"`
	MinAltitudeShading    float64 `json:"minAltitudeShading"`
	MaxAltitudeShading    float64 `json:"maxAltitudeShading"`
}

var DefaultShading = Shading{
	ReferenceAltitude:     64,
	AltitudeShadingFactor: 1,
	MinAltitudeShading:    -1,
	MaxAltitudeShading:    1,
}

// Settings are shared read-only by every render using them.
type Settings struct {
	Bounds  Bounds
	Shading Shading
	Blocks  *colors.BlockColorMap
	Biomes  *colors.BiomeColorMap
}

func DefaultSettings(blocks *colors.BlockColorMap, biomes *colors.BiomeColorMap) *Settings {
	return &Settings{
		Bounds:  Unbounded,
		Shading: DefaultShading,
		Blocks:  blocks,
		Biomes:  biomes,
	}
}

// LoadSettings reads bounds and shading from config, keys that are not
// present keep default values.
func LoadSettings(cfg *lac.ConfSubtree, blocks *colors.BlockColorMap, biomes *colors.BiomeColorMap) (*Settings, error) {
	s := DefaultSettings(blocks, biomes)
	if err := cfg.GetToStruct(&s.Bounds, "bounds"); err != nil && !errors.Is(err, lac.ErrNoKey) {
		return nil, err
	}
	if err := cfg.GetToStruct(&s.Shading, "shading"); err != nil && !errors.Is(err, lac.ErrNoKey) {
		return nil, err
	}
	return s, nil
}
