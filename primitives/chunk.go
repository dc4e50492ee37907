package primitives

const (
	ChunkSections    = 16
	SectionVolume    = 16 * 16 * 16
	ChunkColumns     = 16 * 16
	RegionChunksSide = 32
	RegionBlocksSide = RegionChunksSide * 16
	RegionArea       = RegionBlocksSide * RegionBlocksSide
	UnknownBiome     = 0xFFFF
)

// BlockState is a block identifier with its property assignments.
// Two states are the same block state only when both the name and the full
// property set are equal.
type BlockState struct {
	Name       string
	Properties map[string]string
}

// Section is a 16x16x16 cube of voxels. BlockStates holds 4096 palette
// indices packed into 64-bit words, voxel order x | z<<4 | y<<8.
type Section struct {
	Y           int
	Palette     []BlockState
	BlockStates []uint64
}

// Chunk is a 16x256x16 column of up to 16 sections.
// Biomes is indexed by x | z<<4.
type Chunk struct {
	X, Z        int
	DataVersion int
	Status      string
	Biomes      [ChunkColumns]uint16
	Sections    [ChunkSections]*Section
}

// ChunkRegion returns region coordinates of the chunk at cx cz.
func ChunkRegion(cx, cz int) (int, int) {
	return cx >> 5, cz >> 5
}
