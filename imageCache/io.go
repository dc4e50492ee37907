package imagecache

import (
	"errors"
	"image"
	"image/draw"
	"image/png"
	"os"
	"path"
	"path/filepath"
	"strconv"

	"github.com/maxsupermanhd/RegionMap/primitives"
)

type ioOp int

const (
	ioLoad ioOp = iota
	ioSave
	ioRemove
)

func (o ioOp) String() string {
	switch o {
	case ioLoad:
		return "load"
	case ioSave:
		return "save"
	case ioRemove:
		return "remove"
	}
	return "unknown"
}

type cacheTaskIO struct {
	op  ioOp
	loc primitives.ImageLocation
	e   *entry
	img *CachedImage
	err error
}

func (c *ImageCache) processorIO(in <-chan *cacheTaskIO, out chan<- *cacheTaskIO) {
	for task := range in {
		c.processIO(task)
		out <- task
	}
}

func (c *ImageCache) processIO(task *cacheTaskIO) {
	switch task.op {
	case ioLoad:
		task.img, task.err = c.cacheLoad(task.loc)
	case ioSave:
		task.err = c.cacheSave(task.img.Img, task.loc)
	case ioRemove:
		task.err = c.cacheRemove(task.loc)
	}
}

func (c *ImageCache) cacheGetFilename(world, dim, variant string, x, z int) string {
	return path.Join(c.root, world, dim, variant, strconv.FormatInt(int64(x), 10)+"x"+strconv.FormatInt(int64(z), 10)+".png")
}

func (c *ImageCache) cacheGetFilenameLoc(loc primitives.ImageLocation) string {
	return c.cacheGetFilename(loc.World, loc.Dimension, loc.Variant, loc.X, loc.Z)
}

func (c *ImageCache) cacheSave(img *image.RGBA, loc primitives.ImageLocation) error {
	storePath := c.cacheGetFilenameLoc(loc)
	err := os.MkdirAll(path.Dir(storePath), 0764)
	if err != nil {
		return err
	}
	tmpPath := storePath + ".tmp"
	file, err := os.Create(tmpPath)
	if err != nil {
		return err
	}
	err = png.Encode(file, img)
	if err != nil {
		file.Close()
		os.Remove(tmpPath)
		return err
	}
	err = file.Close()
	if err != nil {
		return err
	}
	return os.Rename(tmpPath, storePath)
}

func (c *ImageCache) cacheRemove(loc primitives.ImageLocation) error {
	paths := []string{c.cacheGetFilenameLoc(loc)}
	if loc.Variant == "" {
		var err error
		paths, err = filepath.Glob(c.cacheGetFilename(loc.World, loc.Dimension, "*", loc.X, loc.Z))
		if err != nil {
			return err
		}
	}
	for _, p := range paths {
		err := os.Remove(p)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return nil
}

// cacheLoad returns nil image without error when the tile is not on disk.
func (c *ImageCache) cacheLoad(loc primitives.ImageLocation) (*CachedImage, error) {
	fp := c.cacheGetFilenameLoc(loc)
	f, err := os.Open(fp)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	ii, err := png.Decode(f)
	if err != nil {
		os.Remove(fp)
		return nil, err
	}
	if iirgba, ok := ii.(*image.RGBA); ok && iirgba.Rect.Min == (image.Point{}) {
		return &CachedImage{
			Img:     iirgba,
			Loc:     loc,
			ModTime: info.ModTime(),
		}, nil
	}
	b := ii.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), ii, b.Min, draw.Src)
	return &CachedImage{
		Img:     dst,
		Loc:     loc,
		ModTime: info.ModTime(),
	}, nil
}
