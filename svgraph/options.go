package svgraph

// SetOptions controls how a SVLocusSet cleans accumulated evidence.
type SetOptions struct {
	// MinMergeEdgeObservations is the minimum observation count an edge
	// must reach to survive Clean/CleanRegion. A node left with no
	// surviving edge is itself removed.
	MinMergeEdgeObservations uint32
}

// DefaultSetOptions matches Manta's default noise-edge threshold.
var DefaultSetOptions = SetOptions{
	MinMergeEdgeObservations: 3,
}
