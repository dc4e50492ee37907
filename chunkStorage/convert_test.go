package chunkStorage

import (
	"bytes"
	"errors"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/maxsupermanhd/RegionMap/lib/bitpack"
	"github.com/maxsupermanhd/RegionMap/primitives"
	"github.com/maxsupermanhd/go-vmc/v762/nbt"
)

func gzipSector(t *testing.T, v any) []byte {
	dat, err := nbt.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	buf.WriteByte(CompressionGzip)
	gw := gzip.NewWriter(&buf)
	if _, err := gw.Write(dat); err != nil {
		t.Fatal(err)
	}
	if err := gw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestDecodeChunkEncoded(t *testing.T) {
	values := make([]uint64, primitives.SectionVolume)
	values[4095] = 1
	c := &primitives.Chunk{X: -3, Z: 40, DataVersion: 1976, Status: "full"}
	for i := range c.Biomes {
		c.Biomes[i] = uint16(i % 7)
	}
	c.Sections[6] = &primitives.Section{
		Y: 6,
		Palette: []primitives.BlockState{
			{Name: "minecraft:air"},
			{Name: "minecraft:oak_log", Properties: map[string]string{"axis": "x"}},
		},
		BlockStates: bitpack.Pack(values, 4),
	}
	raw, err := EncodeChunk(c)
	if err != nil {
		t.Fatal(err)
	}
	if raw[0] != CompressionZlib {
		t.Fatalf("compression byte %d", raw[0])
	}
	d, err := DecodeChunk(raw)
	if err != nil {
		t.Fatal(err)
	}
	if d.X != -3 || d.Z != 40 || d.DataVersion != 1976 || d.Status != "full" {
		t.Fatalf("header %+v", d)
	}
	if d.Biomes != c.Biomes {
		t.Fatal("biomes differ")
	}
	for i, s := range d.Sections {
		if (s == nil) != (i != 6) {
			t.Fatalf("section %d presence wrong", i)
		}
	}
	s := d.Sections[6]
	if s.Y != 6 || len(s.Palette) != 2 || s.Palette[1].Properties["axis"] != "x" {
		t.Fatalf("section %+v", s)
	}
	if bitpack.Extract(s.BlockStates, 4095, 4) != 1 || bitpack.Extract(s.BlockStates, 0, 4) != 0 {
		t.Fatal("block states differ")
	}
}

func TestDecodeChunkWithoutSections(t *testing.T) {
	type level struct {
		Status string  `nbt:"Status"`
		XPos   int32   `nbt:"xPos"`
		Biomes []int32 `nbt:"Biomes"`
	}
	raw := gzipSector(t, struct {
		DataVersion int32 `nbt:"DataVersion"`
		Level       level `nbt:"Level"`
	}{
		DataVersion: 1631,
		Level:       level{Status: "postprocessed", XPos: 7, Biomes: []int32{1, 2, 3}},
	})
	c, err := DecodeChunk(raw)
	if err != nil {
		t.Fatal(err)
	}
	if c.X != 7 || c.Status != "postprocessed" {
		t.Fatalf("header %+v", c)
	}
	for _, s := range c.Sections {
		if s != nil {
			t.Fatal("section appeared from nowhere")
		}
	}
	if c.Biomes[0] != primitives.UnknownBiome || c.Biomes[255] != primitives.UnknownBiome {
		t.Fatal("short biome array must be treated as unknown")
	}
}

func TestDecodeChunkBiomeCells(t *testing.T) {
	type level struct {
		Status string  `nbt:"Status"`
		Biomes []int32 `nbt:"Biomes"`
	}
	biomes := make([]int32, 1024)
	for i := range biomes {
		biomes[i] = 99
	}
	layer := BiomeSampleY >> 2
	for cz := 0; cz < 4; cz++ {
		for cx := 0; cx < 4; cx++ {
			biomes[layer<<4|cz<<2|cx] = int32(10 + cz*4 + cx)
		}
	}
	raw := gzipSector(t, struct {
		DataVersion int32 `nbt:"DataVersion"`
		Level       level `nbt:"Level"`
	}{
		DataVersion: 2230,
		Level:       level{Status: "full", Biomes: biomes},
	})
	c, err := DecodeChunk(raw)
	if err != nil {
		t.Fatal(err)
	}
	for z := 0; z < 16; z++ {
		for x := 0; x < 16; x++ {
			if want := uint16(10 + (z>>2)*4 + x>>2); c.Biomes[x|z<<4] != want {
				t.Fatalf("column %d %d biome %d, want %d", x, z, c.Biomes[x|z<<4], want)
			}
		}
	}
}

func TestDecodeChunkSkipsOddSections(t *testing.T) {
	type section struct {
		Y           int8           `nbt:"Y"`
		Palette     []paletteEntry `nbt:"Palette"`
		BlockStates []int64        `nbt:"BlockStates"`
	}
	type level struct {
		Status   string    `nbt:"Status"`
		Sections []section `nbt:"Sections"`
	}
	states := make([]int64, 256)
	pal := []paletteEntry{{Name: "minecraft:stone", Properties: map[string]string{}}}
	raw := gzipSector(t, struct {
		DataVersion int32 `nbt:"DataVersion"`
		Level       level `nbt:"Level"`
	}{
		DataVersion: 1976,
		Level: level{Status: "full", Sections: []section{
			{Y: -1, Palette: pal, BlockStates: states},
			{Y: 0, Palette: pal, BlockStates: states},
			{Y: 16, Palette: pal, BlockStates: states},
		}},
	})
	c, err := DecodeChunk(raw)
	if err != nil {
		t.Fatal(err)
	}
	if c.Sections[0] == nil {
		t.Fatal("section 0 dropped")
	}
	for i := 1; i < len(c.Sections); i++ {
		if c.Sections[i] != nil {
			t.Fatalf("section %d kept", i)
		}
	}
}

func TestDecompressErrors(t *testing.T) {
	if _, err := Decompress(nil); !errors.Is(err, ErrEmptyChunk) {
		t.Fatalf("got %v", err)
	}
	if _, err := Decompress([]byte{9, 1, 2}); !errors.Is(err, ErrUnknownCompression) {
		t.Fatalf("got %v", err)
	}
	if _, err := Decompress([]byte{CompressionZlib, 1, 2, 3}); err == nil {
		t.Fatal("garbage zlib accepted")
	}
	d, err := Decompress([]byte{CompressionNone, 1, 2})
	if err != nil || !bytes.Equal(d, []byte{1, 2}) {
		t.Fatalf("got %v %v", d, err)
	}
}
