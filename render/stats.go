package render

// Stats count local degradations encountered during a render.
// None of them fail the render.
type Stats struct {
	ChunksRendered    int
	ChunksSkipped     int
	MalformedSections int
	OutOfRangeIndices int
	MissingStates     int
	UnknownBiomes     int
	// MissingKeys counts palette entries per block state key absent from the color table.
	MissingKeys map[string]int
}

func (s *Stats) missingKey(k string) {
	if s.MissingKeys == nil {
		s.MissingKeys = map[string]int{}
	}
	s.MissingKeys[k]++
}

// Merge adds o into s.
func (s *Stats) Merge(o Stats) {
	s.ChunksRendered += o.ChunksRendered
	s.ChunksSkipped += o.ChunksSkipped
	s.MalformedSections += o.MalformedSections
	s.OutOfRangeIndices += o.OutOfRangeIndices
	s.MissingStates += o.MissingStates
	s.UnknownBiomes += o.UnknownBiomes
	for k, v := range o.MissingKeys {
		if s.MissingKeys == nil {
			s.MissingKeys = map[string]int{}
		}
		s.MissingKeys[k] += v
	}
}

// Degraded reports whether any voxel was rendered with a sentinel.
func (s *Stats) Degraded() bool {
	return s.OutOfRangeIndices > 0 || s.MissingStates > 0 || s.UnknownBiomes > 0 || s.MalformedSections > 0
}
