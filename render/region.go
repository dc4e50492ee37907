package render

import (
	"context"
	"fmt"
	"image"
	"image/color"

	"github.com/maxsupermanhd/RegionMap/primitives"
)

// RegionChunks gives access to chunks of one opened region.
type RegionChunks interface {
	// ReadChunk returns chunk at region relative coordinates or nil
	// if it was never generated.
	ReadChunk(lx, lz int) (*primitives.Chunk, error)
	Close() error
}

// ChunkSource opens regions of a single dimension. OpenRegion returns nil
// RegionChunks without error when the region does not exist.
type ChunkSource interface {
	OpenRegion(ctx context.Context, rx, rz int) (RegionChunks, error)
}

// ChunkSourceFunc adapts a function to ChunkSource.
type ChunkSourceFunc func(ctx context.Context, rx, rz int) (RegionChunks, error)

func (f ChunkSourceFunc) OpenRegion(ctx context.Context, rx, rz int) (RegionChunks, error) {
	return f(ctx, rx, rz)
}

// Output holds buffers of a single region render, indexed by
// x + z*RegionBlocksSide with x z relative to the region corner.
type Output struct {
	RX, RZ  int
	Colors  []color.RGBA
	Heights []uint16
	Stats   Stats
}

func NewOutput(rx, rz int) *Output {
	return &Output{
		RX:      rx,
		RZ:      rz,
		Colors:  make([]color.RGBA, primitives.RegionArea),
		Heights: make([]uint16, primitives.RegionArea),
	}
}

// Image copies colors into a new 512x512 image.
func (o *Output) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, primitives.RegionBlocksSide, primitives.RegionBlocksSide))
	for i, c := range o.Colors {
		img.Pix[i*4+0] = c.R
		img.Pix[i*4+1] = c.G
		img.Pix[i*4+2] = c.B
		img.Pix[i*4+3] = c.A
	}
	return img
}

// HeightImage renders heights as grayscale, untouched columns stay transparent.
func (o *Output) HeightImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, primitives.RegionBlocksSide, primitives.RegionBlocksSide))
	for i, h := range o.Heights {
		if o.Colors[i] == (color.RGBA{}) {
			continue
		}
		v := uint8(clampInt(int(h), 0, 255))
		img.Pix[i*4+0] = v
		img.Pix[i*4+1] = v
		img.Pix[i*4+2] = v
		img.Pix[i*4+3] = 0xFF
	}
	return img
}

// RenderRegion composites all chunks of region rx rz and shades the result.
// Chunks outside settings bounds are not read. Only failures of src are
// returned, malformed voxel data is counted in Output.Stats instead.
func RenderRegion(ctx context.Context, src ChunkSource, rx, rz int, s *Settings) (*Output, error) {
	out := NewOutput(rx, rz)
	bx, bz := rx*primitives.RegionBlocksSide, rz*primitives.RegionBlocksSide
	if !s.Bounds.IntersectsArea(bx, bz, primitives.RegionBlocksSide) {
		return out, nil
	}
	rc, err := src.OpenRegion(ctx, rx, rz)
	if err != nil {
		return nil, fmt.Errorf("opening region %d %d: %w", rx, rz, err)
	}
	if rc == nil {
		return out, nil
	}
	defer rc.Close()
	for lz := 0; lz < primitives.RegionChunksSide; lz++ {
		for lx := 0; lx < primitives.RegionChunksSide; lx++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			x0, z0 := bx+lx*16, bz+lz*16
			if !s.Bounds.IntersectsArea(x0, z0, 16) {
				continue
			}
			c, err := rc.ReadChunk(lx, lz)
			if err != nil {
				return nil, fmt.Errorf("reading chunk %d %d of region %d %d: %w", lx, lz, rx, rz, err)
			}
			cols := CompositeChunk(c, x0, z0, s, &out.Stats)
			if cols == nil {
				continue
			}
			out.Stats.ChunksRendered++
			for i, col := range cols {
				if !col.Hit {
					continue
				}
				idx := (lx*16 + (i & 15)) + (lz*16+(i>>4))*primitives.RegionBlocksSide
				out.Colors[idx] = col.Color
				out.Heights[idx] = col.Height
			}
		}
	}
	if !s.Shading.Disabled {
		Shade(out.Colors, out.Heights, primitives.RegionBlocksSide, s.Shading)
	}
	return out, nil
}
