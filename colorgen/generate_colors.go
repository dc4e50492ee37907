package main

import (
	"archive/zip"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"log"
	"os"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/maxsupermanhd/RegionMap/colors"
)

var (
	JARpath = flag.String("jar", "~/.minecraft/versions/1.20.2.jar", "path to jar")
	outPath = flag.String("out", "blocks.tsv", "path to write block color table to")
	verbose = flag.Bool("v", false, "dump unresolved models")
)

var blockstateRegex = regexp.MustCompile("^assets/minecraft/blockstates/([a-z0-9_]+).json$")

// blocks that are tinted by biome colors, jar models only mark tinted faces
var tinted = map[string]colors.Tint{
	"grass_block":     colors.TintGrass,
	"grass":           colors.TintGrass,
	"short_grass":     colors.TintGrass,
	"tall_grass":      colors.TintGrass,
	"fern":            colors.TintGrass,
	"large_fern":      colors.TintGrass,
	"sugar_cane":      colors.TintGrass,
	"potted_fern":     colors.TintGrass,
	"oak_leaves":      colors.TintFoliage,
	"jungle_leaves":   colors.TintFoliage,
	"acacia_leaves":   colors.TintFoliage,
	"dark_oak_leaves": colors.TintFoliage,
	"mangrove_leaves": colors.TintFoliage,
	"vine":            colors.TintFoliage,
	"water":           colors.TintWater,
	"bubble_column":   colors.TintWater,
	"water_cauldron":  colors.TintWater,
	"seagrass":        colors.TintWater,
	"tall_seagrass":   colors.TintWater,
	"kelp":            colors.TintWater,
	"kelp_plant":      colors.TintWater,
}

// liquids have no block models
var fixedTextures = map[string]string{
	"water": "block/water_still",
	"lava":  "block/lava_still",
}

type modelRef struct {
	Model string `json:"model"`
}

type blockstateFile struct {
	Variants  map[string]json.RawMessage `json:"variants"`
	Multipart []struct {
		Apply json.RawMessage `json:"apply"`
	} `json:"multipart"`
}

type modelFile struct {
	Parent   string            `json:"parent"`
	Textures map[string]string `json:"textures"`
}

func must(e error) {
	if e != nil {
		log.Fatal(e)
	}
}

// parseModelRefs reads a single model reference or a weighted list of them.
func parseModelRefs(raw json.RawMessage) ([]string, error) {
	var one modelRef
	if err := json.Unmarshal(raw, &one); err == nil && one.Model != "" {
		return []string{one.Model}, nil
	}
	var many []modelRef
	if err := json.Unmarshal(raw, &many); err != nil {
		return nil, err
	}
	ret := []string{}
	for _, m := range many {
		if m.Model != "" {
			ret = append(ret, m.Model)
		}
	}
	return ret, nil
}

// parseBlockstate lists models used by any state of the block.
func parseBlockstate(data []byte) ([]string, error) {
	var bs blockstateFile
	if err := json.Unmarshal(data, &bs); err != nil {
		return nil, err
	}
	ret := []string{}
	keys := make([]string, 0, len(bs.Variants))
	for k := range bs.Variants {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		m, err := parseModelRefs(bs.Variants[k])
		if err != nil {
			return nil, fmt.Errorf("variant %q: %w", k, err)
		}
		ret = append(ret, m...)
	}
	for i, p := range bs.Multipart {
		m, err := parseModelRefs(p.Apply)
		if err != nil {
			return nil, fmt.Errorf("multipart %d: %w", i, err)
		}
		ret = append(ret, m...)
	}
	return ret, nil
}

func trimNamespace(s string) string {
	return strings.TrimPrefix(s, "minecraft:")
}

type jar struct {
	files    map[string]*zip.File
	textures map[string]*color.RGBA64
}

func (j *jar) readJSON(name string, v any) error {
	f, ok := j.files[name]
	if !ok {
		return fmt.Errorf("%s: %w", name, os.ErrNotExist)
	}
	r, err := f.Open()
	if err != nil {
		return err
	}
	defer r.Close()
	return json.NewDecoder(r).Decode(v)
}

// modelTextures follows the parent chain and returns resolved texture paths.
func (j *jar) modelTextures(model string) ([]string, error) {
	vars := map[string]string{}
	for depth := 0; model != "" && depth < 16; depth++ {
		var m modelFile
		if err := j.readJSON("assets/minecraft/models/"+trimNamespace(model)+".json", &m); err != nil {
			return nil, err
		}
		for k, v := range m.Textures {
			if _, ok := vars[k]; !ok {
				vars[k] = v
			}
		}
		model = m.Parent
	}
	ret := []string{}
	for k, v := range vars {
		for i := 0; strings.HasPrefix(v, "#") && i < 16; i++ {
			v = vars[v[1:]]
		}
		if v == "" || strings.HasPrefix(v, "#") || k == "particle" {
			continue
		}
		ret = append(ret, trimNamespace(v))
	}
	sort.Strings(ret)
	return ret, nil
}

func (j *jar) textureColor(tex string) (*color.RGBA64, error) {
	if c, ok := j.textures[tex]; ok {
		return c, nil
	}
	f, ok := j.files["assets/minecraft/textures/"+tex+".png"]
	if !ok {
		return nil, fmt.Errorf("texture %s: %w", tex, os.ErrNotExist)
	}
	r, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer r.Close()
	c, err := findColor(r)
	if err != nil {
		return nil, fmt.Errorf("texture %s: %w", tex, err)
	}
	j.textures[tex] = c
	return c, nil
}

// blockColor averages all textures of all models of the block.
func (j *jar) blockColor(name string, models []string) (color.RGBA, error) {
	textures := []string{}
	if t, ok := fixedTextures[name]; ok {
		textures = append(textures, t)
	}
	for _, m := range models {
		t, err := j.modelTextures(m)
		if err != nil {
			return color.RGBA{}, err
		}
		textures = append(textures, t...)
	}
	var r, g, b, a, n uint64
	for _, t := range textures {
		c, err := j.textureColor(t)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return color.RGBA{}, err
		}
		r += uint64(c.R)
		g += uint64(c.G)
		b += uint64(c.B)
		a += uint64(c.A)
		n++
	}
	if n == 0 {
		return color.RGBA{}, fmt.Errorf("no textures for %s", name)
	}
	return color.RGBA{R: uint8(r / n >> 8), G: uint8(g / n >> 8), B: uint8(b / n >> 8), A: uint8(a / n >> 8)}, nil
}

// generate builds a table with a wildcard entry for every block of the jar.
func generate(zr *zip.Reader) (*colors.BlockColorMap, error) {
	j := &jar{files: map[string]*zip.File{}, textures: map[string]*color.RGBA64{}}
	for _, f := range zr.File {
		j.files[f.Name] = f
	}
	names := []string{}
	for fname := range j.files {
		if m := blockstateRegex.FindStringSubmatch(fname); m != nil {
			names = append(names, m[1])
		}
	}
	sort.Strings(names)
	m := colors.NewBlockColorMap()
	failed := 0
	for _, name := range names {
		var raw json.RawMessage
		if err := j.readJSON("assets/minecraft/blockstates/"+name+".json", &raw); err != nil {
			return nil, err
		}
		models, err := parseBlockstate(raw)
		if err != nil {
			return nil, fmt.Errorf("blockstate %s: %w", name, err)
		}
		c, err := j.blockColor(name, models)
		if err != nil {
			log.Printf("Skipping %s: %v", name, err)
			if *verbose {
				log.Print(spew.Sdump(models))
			}
			failed++
			continue
		}
		m.SetWildcard("minecraft:"+name, colors.BlockColor{Color: c, Tint: tinted[name]})
	}
	log.Printf("Colors matched %d/%d", len(names)-failed, len(names))
	return m, nil
}

// findColor averages the texture weighting pixels by alpha.
func findColor(f io.Reader) (*color.RGBA64, error) {
	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode error: %w", err)
	}
	return averageColor(img), nil
}

func averageColor(img image.Image) *color.RGBA64 {
	bounds := img.Bounds()
	// animated textures stack frames vertically
	if bounds.Dy() > bounds.Dx() {
		bounds.Max.Y = bounds.Min.Y + bounds.Dx()
	}
	var rr, gg, bb, aa, count float64
	for i := bounds.Min.X; i < bounds.Max.X; i++ {
		for j := bounds.Min.Y; j < bounds.Max.Y; j++ {
			c := color.NRGBA64Model.Convert(img.At(i, j)).(color.NRGBA64)
			rr += float64(c.R) * float64(c.A)
			gg += float64(c.G) * float64(c.A)
			bb += float64(c.B) * float64(c.A)
			aa += float64(c.A)
			count++
		}
	}
	if aa == 0 {
		return &color.RGBA64{}
	}
	return &color.RGBA64{
		R: uint16(rr / aa),
		G: uint16(gg / aa),
		B: uint16(bb / aa),
		A: uint16(aa / count),
	}
}

func expandHome(p string) string {
	if !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return path.Join(home, p[2:])
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lshortfile)
	spew.Config.Indent = "   "

	log.Printf("Opening jar [%s]", *JARpath)
	r, err := zip.OpenReader(expandHome(*JARpath))
	must(err)
	defer r.Close()
	m, err := generate(&r.Reader)
	must(err)
	f, err := os.Create(*outPath)
	must(err)
	defer f.Close()
	must(colors.WriteBlockColors(f, m))
	log.Printf("Wrote %d entries to %s", m.Len(), *outPath)
}
