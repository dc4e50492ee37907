package primitives

import "fmt"

// ImageLocation addresses one rendered region tile.
type ImageLocation struct {
	World, Dimension, Variant string
	X, Z                      int
}

func (i ImageLocation) String() string {
	return fmt.Sprintf("{%s:%s:%s at %dx %dz}", i.World, i.Dimension, i.Variant, i.X, i.Z)
}
