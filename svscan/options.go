package svscan

// Options controls how reads are filtered and how far a breakend estimate
// is allowed to extend past a read's alignment.
type Options struct {
	// MinMapq is the minimum mapping quality a read needs to be scanned.
	MinMapq uint8
	// BreakendEdgeTrimProb is the tail probability trimmed from each side
	// of the fragment-size distribution when estimating CachedReadGroupStats.
	BreakendEdgeTrimProb float64
	// MinCandidateSpanningCount is the minimum edge observation count an
	// enumerated candidate junction needs to be considered spanning
	// evidence rather than noise.
	MinCandidateSpanningCount int
}

// DefaultOptions matches Manta's default scanner configuration.
var DefaultOptions = Options{
	MinMapq:                   15,
	BreakendEdgeTrimProb:      0.05,
	MinCandidateSpanningCount: 3,
}
