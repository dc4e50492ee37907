package dispatchers

import (
	"context"
	"fmt"

	"github.com/maxsupermanhd/RegionMap/primitives"
	"github.com/maxsupermanhd/RegionMap/render"
)

// fetchedRegion keeps decoded chunks of a region in memory so rendering
// does no I/O.
type fetchedRegion struct {
	missing bool
	chunks  [primitives.RegionChunksSide * primitives.RegionChunksSide]*primitives.Chunk
}

func (f *fetchedRegion) ReadChunk(lx, lz int) (*primitives.Chunk, error) {
	return f.chunks[lx+lz*primitives.RegionChunksSide], nil
}

func (f *fetchedRegion) Close() error {
	return nil
}

func fetchRegion(ctx context.Context, src render.ChunkSource, rx, rz int, b render.Bounds) (*fetchedRegion, error) {
	ret := &fetchedRegion{}
	if !b.IntersectsArea(rx*primitives.RegionBlocksSide, rz*primitives.RegionBlocksSide, primitives.RegionBlocksSide) {
		ret.missing = true
		return ret, nil
	}
	rc, err := src.OpenRegion(ctx, rx, rz)
	if err != nil {
		return nil, fmt.Errorf("opening region %d %d: %w", rx, rz, err)
	}
	if rc == nil {
		ret.missing = true
		return ret, nil
	}
	defer rc.Close()
	for lz := 0; lz < primitives.RegionChunksSide; lz++ {
		for lx := 0; lx < primitives.RegionChunksSide; lx++ {
			x0 := rx*primitives.RegionBlocksSide + lx*16
			z0 := rz*primitives.RegionBlocksSide + lz*16
			if !b.IntersectsArea(x0, z0, 16) {
				continue
			}
			c, err := rc.ReadChunk(lx, lz)
			if err != nil {
				return nil, fmt.Errorf("reading chunk %d %d of region %d %d: %w", lx, lz, rx, rz, err)
			}
			ret.chunks[lx+lz*primitives.RegionChunksSide] = c
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
	return ret, nil
}
