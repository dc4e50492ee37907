package chunkStorage

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/maxsupermanhd/RegionMap/primitives"
	"github.com/maxsupermanhd/go-vmc/v762/nbt"
)

var (
	ErrUnknownCompression = errors.New("unknown compression")
	ErrEmptyChunk         = errors.New("empty chunk data")
)

const (
	// BiomeSampleY is the height whose biome cells color a column in
	// chunks with 3D biomes.
	BiomeSampleY = 64
	biomeCells   = 1024
)

const (
	CompressionGzip = 1
	CompressionZlib = 2
	CompressionNone = 3
)

// chunkTree is the part of 1.13 to 1.15 chunk tag tree the renderer needs.
type chunkTree struct {
	DataVersion int32     `nbt:"DataVersion"`
	Level       levelTree `nbt:"Level"`
}

type levelTree struct {
	XPos     int32         `nbt:"xPos"`
	ZPos     int32         `nbt:"zPos"`
	Status   string        `nbt:"Status"`
	Biomes   []int32       `nbt:"Biomes"`
	Sections []sectionTree `nbt:"Sections"`
}

type sectionTree struct {
	Y           int8           `nbt:"Y"`
	Palette     []paletteEntry `nbt:"Palette"`
	BlockStates []int64        `nbt:"BlockStates"`
}

type paletteEntry struct {
	Name       string            `nbt:"Name"`
	Properties map[string]string `nbt:"Properties"`
}

// Decompress strips the compression type byte of region sector payload.
func Decompress(d []byte) ([]byte, error) {
	if len(d) < 2 {
		return nil, ErrEmptyChunk
	}
	var r io.Reader = bytes.NewReader(d[1:])
	switch d[0] {
	default:
		return nil, fmt.Errorf("%w %d", ErrUnknownCompression, d[0])
	case CompressionGzip:
		gr, err := gzip.NewReader(r)
		if err != nil {
			return nil, err
		}
		defer gr.Close()
		return io.ReadAll(gr)
	case CompressionZlib:
		zr, err := zlib.NewReader(r)
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		return io.ReadAll(zr)
	case CompressionNone:
		return d[1:], nil
	}
}

// DecodeChunk decompresses and decodes stored chunk data.
func DecodeChunk(d []byte) (*primitives.Chunk, error) {
	dat, err := Decompress(d)
	if err != nil {
		return nil, err
	}
	return DecodeChunkNBT(dat)
}

// DecodeChunkNBT decodes an uncompressed chunk tag tree. Sections outside
// 0..15 and sections without palette or states are left absent.
func DecodeChunkNBT(dat []byte) (*primitives.Chunk, error) {
	var t chunkTree
	if err := nbt.Unmarshal(dat, &t); err != nil {
		return nil, fmt.Errorf("decoding chunk nbt: %w", err)
	}
	c := &primitives.Chunk{
		X:           int(t.Level.XPos),
		Z:           int(t.Level.ZPos),
		DataVersion: int(t.DataVersion),
		Status:      t.Level.Status,
	}
	switch len(t.Level.Biomes) {
	case primitives.ChunkColumns:
		for i, b := range t.Level.Biomes {
			c.Biomes[i] = biomeID(b)
		}
	case biomeCells:
		// 1.15 stores 4x4x4 cells, columns take the layer at BiomeSampleY
		layer := (BiomeSampleY >> 2) << 4
		for i := range c.Biomes {
			x, z := i&15, i>>4
			c.Biomes[i] = biomeID(t.Level.Biomes[layer|(z>>2)<<2|x>>2])
		}
	default:
		for i := range c.Biomes {
			c.Biomes[i] = primitives.UnknownBiome
		}
	}
	for _, s := range t.Level.Sections {
		if s.Y < 0 || int(s.Y) >= primitives.ChunkSections {
			continue
		}
		if len(s.Palette) == 0 || len(s.BlockStates) == 0 {
			continue
		}
		sec := &primitives.Section{
			Y:           int(s.Y),
			Palette:     make([]primitives.BlockState, len(s.Palette)),
			BlockStates: make([]uint64, len(s.BlockStates)),
		}
		for i, p := range s.Palette {
			sec.Palette[i] = primitives.BlockState{Name: p.Name, Properties: p.Properties}
		}
		for i, v := range s.BlockStates {
			sec.BlockStates[i] = uint64(v)
		}
		c.Sections[s.Y] = sec
	}
	return c, nil
}

func biomeID(b int32) uint16 {
	if b < 0 || b >= primitives.UnknownBiome {
		return primitives.UnknownBiome
	}
	return uint16(b)
}

// EncodeChunk is the inverse of DecodeChunk, compressing with zlib.
func EncodeChunk(c *primitives.Chunk) ([]byte, error) {
	t := chunkTree{
		DataVersion: int32(c.DataVersion),
		Level: levelTree{
			XPos:     int32(c.X),
			ZPos:     int32(c.Z),
			Status:   c.Status,
			Biomes:   make([]int32, primitives.ChunkColumns),
			Sections: []sectionTree{},
		},
	}
	for i, b := range c.Biomes {
		t.Level.Biomes[i] = int32(b)
	}
	for _, s := range c.Sections {
		if s == nil {
			continue
		}
		st := sectionTree{
			Y:           int8(s.Y),
			Palette:     make([]paletteEntry, len(s.Palette)),
			BlockStates: make([]int64, len(s.BlockStates)),
		}
		for i, p := range s.Palette {
			props := p.Properties
			if props == nil {
				props = map[string]string{}
			}
			st.Palette[i] = paletteEntry{Name: p.Name, Properties: props}
		}
		for i, v := range s.BlockStates {
			st.BlockStates[i] = int64(v)
		}
		t.Level.Sections = append(t.Level.Sections, st)
	}
	dat, err := nbt.Marshal(t)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.WriteByte(CompressionZlib)
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(dat); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
