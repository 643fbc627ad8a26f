package svscan

import (
	"sort"

	"github.com/gralba/svgraph/svgraph"
)

// InsertSizeDistribution is an empirical estimator of fragment size, fed by
// observed properly-paired read insert sizes and queried by quantile to
// build CachedReadGroupStats. It keeps every observation, which is fine for
// the single-shard, bounded-sample use this package is built for.
type InsertSizeDistribution struct {
	sizes  []int
	sorted bool
}

// Add records one observed fragment size.
func (d *InsertSizeDistribution) Add(fragSize int) {
	d.sizes = append(d.sizes, fragSize)
	d.sorted = false
}

// Len returns the number of observations recorded.
func (d *InsertSizeDistribution) Len() int { return len(d.sizes) }

// Quantile returns the value below which fraction p of observations fall,
// via linear interpolation between the two nearest ranks. p is clamped to
// [0,1]. Quantile of an empty distribution returns 0.
func (d *InsertSizeDistribution) Quantile(p float64) int {
	if len(d.sizes) == 0 {
		return 0
	}
	if !d.sorted {
		sort.Ints(d.sizes)
		d.sorted = true
	}
	if p <= 0 {
		return d.sizes[0]
	}
	if p >= 1 {
		return d.sizes[len(d.sizes)-1]
	}

	rank := p * float64(len(d.sizes)-1)
	lo := int(rank)
	hi := lo + 1
	if hi >= len(d.sizes) {
		return d.sizes[lo]
	}
	frac := rank - float64(lo)
	return d.sizes[lo] + int(frac*float64(d.sizes[hi]-d.sizes[lo]))
}

// CachedReadGroupStats is the pair of fragment-size quantiles a scanner
// needs per read group, cached once per InsertSizeDistribution rather than
// recomputed per read, matching SVLocusScanner's _stats cache.
type CachedReadGroupStats struct {
	Min, Max svgraph.Pos
}

// NewCachedReadGroupStats trims opt.BreakendEdgeTrimProb off each tail of
// dist to produce the Min/Max a scanner uses to size breakend estimates.
func NewCachedReadGroupStats(dist *InsertSizeDistribution, opt Options) CachedReadGroupStats {
	return CachedReadGroupStats{
		Min: svgraph.Pos(dist.Quantile(opt.BreakendEdgeTrimProb)),
		Max: svgraph.Pos(dist.Quantile(1 - opt.BreakendEdgeTrimProb)),
	}
}
