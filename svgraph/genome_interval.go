package svgraph

import (
	"fmt"

	"github.com/grailbio/base/log"
)

// Pos is a 0-based genome coordinate. It is signed so that breakend search
// windows computed near the start of a chromosome (interval start minus a
// fragment-size estimate) can be represented without clamping before any
// clipping against chromosome bounds happens upstream.
type Pos int32

// GenomeInterval is a half-open region [Start,End) on chromosome Tid.
type GenomeInterval struct {
	Tid        int32
	Start, End Pos
}

// NewGenomeInterval returns the interval [start,end) on tid.
//
// REQUIRES: start <= end
func NewGenomeInterval(tid int32, start, end Pos) GenomeInterval {
	if start > end {
		log.Fatalf("svgraph: invalid interval [%d,%d) on tid %d", start, end, tid)
	}
	return GenomeInterval{Tid: tid, Start: start, End: end}
}

// Overlaps reports whether g and o share any base. Intervals on different
// chromosomes never overlap. A zero-length interval never overlaps
// anything, including itself.
func (g GenomeInterval) Overlaps(o GenomeInterval) bool {
	if g.Tid != o.Tid {
		return false
	}
	return g.Start < o.End && o.Start < g.End
}

// Less orders intervals by (Tid, Start, End), matching the order loci are
// discovered in coordinate-sorted input.
func (g GenomeInterval) Less(o GenomeInterval) bool {
	if g.Tid != o.Tid {
		return g.Tid < o.Tid
	}
	if g.Start != o.Start {
		return g.Start < o.Start
	}
	return g.End < o.End
}

// Union returns the smallest interval enclosing both g and o.
//
// REQUIRES: g.Overlaps(o)
func (g GenomeInterval) Union(o GenomeInterval) GenomeInterval {
	if !g.Overlaps(o) {
		log.Fatalf("svgraph: cannot union non-overlapping intervals %v and %v", g, o)
	}
	start := g.Start
	if o.Start < start {
		start = o.Start
	}
	end := g.End
	if o.End > end {
		end = o.End
	}
	return GenomeInterval{Tid: g.Tid, Start: start, End: end}
}

func (g GenomeInterval) String() string {
	return fmt.Sprintf("%d:[%d,%d)", g.Tid, g.Start, g.End)
}

// EvidenceRange is the span of read-support positions backing a node,
// tracked separately from Interval because the node's reported interval may
// be intentionally narrower than the full extent of the evidence that
// produced it (see SVLocusNode).
type EvidenceRange struct {
	Start, End Pos
}

// Union returns the smallest evidence range enclosing both r and o.
func (r EvidenceRange) Union(o EvidenceRange) EvidenceRange {
	start := r.Start
	if o.Start < start {
		start = o.Start
	}
	end := r.End
	if o.End > end {
		end = o.End
	}
	return EvidenceRange{Start: start, End: end}
}

func (r EvidenceRange) String() string {
	return fmt.Sprintf("[%d,%d)", r.Start, r.End)
}
