// Package renderers defines tile variants and loads color tables they share.
package renderers

import (
	"fmt"
	"image"
	"sort"

	"github.com/maxsupermanhd/RegionMap/colors"
	"github.com/maxsupermanhd/RegionMap/render"
	"github.com/maxsupermanhd/lac"
)

// Variant turns a region render into a tile image.
type Variant struct {
	Name string
	// Settings derives variant settings from the configured ones.
	Settings func(base *render.Settings) *render.Settings
	Image    func(o *render.Output) *image.RGBA
}

func ConstructRenderers() map[string]Variant {
	ret := map[string]Variant{}
	for _, v := range []Variant{
		NewTerrainRenderer(),
		NewFlatRenderer(),
		NewHeightmapRenderer(),
	} {
		ret[v.Name] = v
	}
	return ret
}

// Names lists variant names sorted.
func Names(v map[string]Variant) []string {
	ret := make([]string, 0, len(v))
	for k := range v {
		ret = append(ret, k)
	}
	sort.Strings(ret)
	return ret
}

// LoadColorTables reads block and biome tables from paths configured under
// "blocks" and "biomes", embedded tables are used when a path is not set.
func LoadColorTables(cfg *lac.ConfSubtree) (*colors.BlockColorMap, *colors.BiomeColorMap, error) {
	blocks, err := colors.LoadBlockColors(cfg.GetDSString("", "blocks"))
	if err != nil {
		return nil, nil, fmt.Errorf("loading block colors: %w", err)
	}
	biomes, err := colors.LoadBiomeColors(cfg.GetDSString("", "biomes"))
	if err != nil {
		return nil, nil, fmt.Errorf("loading biome colors: %w", err)
	}
	return blocks, biomes, nil
}

func unshaded(base *render.Settings) *render.Settings {
	s := *base
	s.Shading.Disabled = true
	return &s
}
