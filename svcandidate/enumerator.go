package svcandidate

import "github.com/gralba/svgraph/svgraph"

// CandidateEnumerator walks a finalized svgraph.SVLocusSet and groups its
// edges into Candidates, one per node with at least one surviving outgoing
// edge. A node with exactly one outgoing edge yields a simple,
// single-junction candidate; a node with several (a hub where multiple
// high-count neighbours converge, e.g. the shared end of two adjacent SVs)
// yields a complex, multi-junction candidate, mirroring how
// SVCandidateProcessor groups edges sharing a locus graph node before
// handing them to assembly.
type CandidateEnumerator struct {
	minEdgeCount uint32
}

// NewCandidateEnumerator returns a CandidateEnumerator that only considers
// edges with at least minEdgeCount observations.
func NewCandidateEnumerator(minEdgeCount uint32) *CandidateEnumerator {
	return &CandidateEnumerator{minEdgeCount: minEdgeCount}
}

// Enumerate walks every locus of set and returns one Candidate per node
// that has at least one outgoing edge meeting the threshold.
//
// REQUIRES: set is finalized
func (e *CandidateEnumerator) Enumerate(set *svgraph.SVLocusSet) []Candidate {
	var out []Candidate
	for li := 0; li < set.Size(); li++ {
		locus := set.GetLocus(svgraph.LocusIndex(li))
		if locus.Empty() {
			continue
		}
		for ni := 0; ni < locus.Size(); ni++ {
			if c, ok := e.candidateForNode(locus, svgraph.NodeIndex(ni)); ok {
				out = append(out, c)
			}
		}
	}
	return out
}

func (e *CandidateEnumerator) candidateForNode(locus *svgraph.SVLocus, ni svgraph.NodeIndex) (Candidate, bool) {
	node := locus.GetNode(ni)
	var c Candidate
	for target, count := range node.OutEdges {
		if count < e.minEdgeCount {
			continue
		}
		targetNode := locus.GetNode(target)
		c.Junctions = append(c.Junctions, Junction{
			Source: svgraph.BreakendLocation{Interval: node.Interval},
			Target: svgraph.BreakendLocation{Interval: targetNode.Interval},
			Count:  count,
		})
	}
	if len(c.Junctions) == 0 {
		return Candidate{}, false
	}
	return c, true
}

// CandidatesNear re-queries set for every node whose interval overlaps
// region and returns the candidates rooted at those nodes, exactly the
// pattern SVCandidateProcessor uses to re-examine a breakend's
// neighbourhood after assembly has refined it: assembly itself remains out
// of scope here, but this is the seam a caller doing that work re-enters
// through, rather than re-running a full Enumerate over the whole set.
func (e *CandidateEnumerator) CandidatesNear(set *svgraph.SVLocusSet, region svgraph.GenomeInterval) []Candidate {
	var out []Candidate
	seen := map[svgraph.LocusNode]bool{}
	for _, ln := range set.Index().FindOverlapping(region) {
		if seen[ln] {
			continue
		}
		seen[ln] = true
		locus := set.GetLocus(ln.Locus)
		if locus.Empty() {
			continue
		}
		if c, ok := e.candidateForNode(locus, ln.Node); ok {
			out = append(out, c)
		}
	}
	return out
}
