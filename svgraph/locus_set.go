package svgraph

import (
	"sort"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
)

// LocusIndex identifies a locus within a SVLocusSet. Like NodeIndex, it is
// stable only between public operations.
type LocusIndex uint32

// setState tracks the small state machine a SVLocusSet moves through:
// Merge is legal any time before Finalize, and becomes a contract
// violation afterward.
type setState int

const (
	stateAccumulating setState = iota
	stateFinalized
)

// SVLocusSet is the evidence graph: a collection of SVLocus values, each
// with pairwise disjoint node intervals, that absorbs newly scanned loci
// via Merge and periodically drops low-count edges and nodes via Clean.
// Two different loci may overlap when a Merge was not confirmed (see
// Merge).
//
// The zero value is not usable; construct with NewSVLocusSet.
type SVLocusSet struct {
	opts  SetOptions
	loci  []SVLocus
	index *IntervalIndex
	// nonEmptyCount is the number of loci slots with at least one node.
	// Emptied slots are left in place (not compacted) until Finalize, so
	// that LocusIndex values already handed out remain valid.
	nonEmptyCount int
	state         setState
}

// NewSVLocusSet returns an empty set configured with opts.
func NewSVLocusSet(opts SetOptions) *SVLocusSet {
	return &SVLocusSet{opts: opts, index: NewIntervalIndex()}
}

// Options returns the options the set was constructed with.
func (s *SVLocusSet) Options() SetOptions { return s.opts }

// Size returns the total number of locus slots, including any emptied by
// Clean but not yet compacted away.
func (s *SVLocusSet) Size() int { return len(s.loci) }

// NonEmptySize returns the number of loci that still have at least one
// node.
func (s *SVLocusSet) NonEmptySize() int { return s.nonEmptyCount }

// GetLocus returns the locus at i. It may be empty.
func (s *SVLocusSet) GetLocus(i LocusIndex) *SVLocus { return &s.loci[i] }

// Index returns the set's interval index, for collaborators (such as
// svcandidate's breakend re-query) that need to resolve a genome region to
// the nodes currently indexed there without walking every locus.
func (s *SVLocusSet) Index() *IntervalIndex { return s.index }

// IsFinalized reports whether Finalize has been called.
func (s *SVLocusSet) IsFinalized() bool { return s.state == stateFinalized }

// Merge absorbs input into the set. Every existing locus that shares a
// node interval with any node of input is a candidate fuse partner, but
// the fuse only actually happens if it is "confirmed": some edge of
// input, combined with whatever count already exists between the
// matching anchor nodes, would reach opts.MinMergeEdgeObservations. A
// confirmed merge fuses every candidate locus together with input into
// one locus, after which any newly-overlapping pair of nodes within that
// locus (including pairs introduced only by the union of intervals during
// the fuse) is itself collapsed, to a fixed point.
//
// An unconfirmed touch is not a fuse at all: input is appended as its own
// new locus, left geometrically overlapping the loci it touched. This is
// legal because interval disjointness (I3) is a per-locus invariant, not
// a set-wide one -- a low-confidence edge is not yet allowed to dictate
// how the set's loci are partitioned.
//
// input is consumed: the caller must not use it after Merge returns.
//
// REQUIRES: the set has not been finalized
func (s *SVLocusSet) Merge(input SVLocus) {
	if s.state == stateFinalized {
		log.Fatalf("svgraph: Merge called on a finalized SVLocusSet")
	}
	s.state = stateAccumulating
	if input.Empty() {
		return
	}

	touched := map[LocusIndex]bool{}
	for i := range input.nodes {
		for _, ln := range s.index.FindOverlapping(input.nodes[i].Interval) {
			touched[ln.Locus] = true
		}
	}

	if len(touched) == 0 {
		s.appendLocus(&input)
		return
	}

	if !s.isConfirmedMerge(&input, touched) {
		s.appendLocus(&input)
		return
	}

	absorber := smallestLocusIndex(touched)
	for donor := range touched {
		if donor != absorber {
			s.absorbLocus(absorber, donor)
		}
	}
	s.absorbNodes(absorber, input.nodes, nil)
	s.closeAbsorber(absorber)
}

// isConfirmedMerge reports whether fusing input with the loci in touched
// would bring any edge's combined observation count (the count already
// standing between the existing nodes input's endpoints overlap, plus
// input's own count for that edge) to opts.MinMergeEdgeObservations.
// Every edge of input is checked, including self-edges; a single
// qualifying edge is enough to confirm the whole fuse.
func (s *SVLocusSet) isConfirmedMerge(input *SVLocus, touched map[LocusIndex]bool) bool {
	threshold := s.opts.MinMergeEdgeObservations

	anchors := make([]map[LocusNode]bool, len(input.nodes))
	for i := range input.nodes {
		set := map[LocusNode]bool{}
		for _, ln := range s.index.FindOverlapping(input.nodes[i].Interval) {
			if touched[ln.Locus] {
				set[ln] = true
			}
		}
		anchors[i] = set
	}

	type edgePair struct{ a, b NodeIndex }
	seen := map[edgePair]bool{}
	for i := range input.nodes {
		for t := range input.nodes[i].OutEdges {
			a, b := NodeIndex(i), t
			if a > b {
				a, b = b, a
			}
			pair := edgePair{a, b}
			if seen[pair] {
				continue
			}
			seen[pair] = true

			var inputCount uint32
			if a == b {
				inputCount = input.nodes[a].OutEdges[a]
			} else {
				inputCount = input.nodes[a].OutEdges[b] + input.nodes[b].OutEdges[a]
			}
			if s.existingCombinedCount(anchors[a], anchors[b], a == b)+inputCount >= threshold {
				return true
			}
		}
	}
	return false
}

// existingCombinedCount sums, over every already-indexed node overlapping
// input's a-endpoint and b-endpoint, the observation count already
// standing on the edge between them (both directions, for a node pair
// within the same locus -- edges never cross loci). Where both endpoints
// overlap the same existing node, that node's self-edge count is what
// stands between them. isSelf indicates a and b are the same input node,
// in which case anchorsB is ignored and each anchor's own self-edge count
// is summed instead.
func (s *SVLocusSet) existingCombinedCount(anchorsA, anchorsB map[LocusNode]bool, isSelf bool) uint32 {
	var total uint32
	if isSelf {
		for ln := range anchorsA {
			node := &s.loci[ln.Locus].nodes[ln.Node]
			total += node.OutEdges[ln.Node]
		}
		return total
	}
	seenPair := map[[2]LocusNode]bool{}
	for p := range anchorsA {
		for q := range anchorsB {
			if p.Locus != q.Locus {
				continue
			}
			key := [2]LocusNode{p, q}
			if seenPair[key] {
				continue
			}
			seenPair[key] = true
			pn := &s.loci[p.Locus].nodes[p.Node]
			if p == q {
				total += pn.OutEdges[p.Node]
				continue
			}
			qn := &s.loci[q.Locus].nodes[q.Node]
			total += pn.OutEdges[q.Node] + qn.OutEdges[p.Node]
		}
	}
	return total
}

func smallestLocusIndex(set map[LocusIndex]bool) LocusIndex {
	first := true
	var min LocusIndex
	for li := range set {
		if first || li < min {
			min = li
			first = false
		}
	}
	return min
}

// appendLocus adds input as a brand new locus and indexes its nodes as-is.
func (s *SVLocusSet) appendLocus(input *SVLocus) LocusIndex {
	idx := LocusIndex(len(s.loci))
	s.loci = append(s.loci, SVLocus{nodes: input.nodes})
	s.nonEmptyCount++
	for i := range s.loci[idx].nodes {
		s.index.Insert(s.loci[idx].nodes[i].Interval, idx, NodeIndex(i))
	}
	return idx
}

// absorbLocus moves every node of the locus at donor onto absorber,
// remapping donor-local edges into the absorber's node-index space, and
// leaves donor empty.
func (s *SVLocusSet) absorbLocus(absorber, donor LocusIndex) {
	if absorber == donor {
		return
	}
	donorLocus := &s.loci[donor]
	s.absorbNodes(absorber, donorLocus.nodes, func(i int) {
		s.index.Remove(donor, NodeIndex(i))
	})
	donorLocus.nodes = nil
	s.nonEmptyCount--
}

// absorbNodes appends copies of src onto absorber's node list, remapping
// their internal edges into the absorber's index space, and indexes each
// one. If onRemoveSrc is non-nil it is called once per source node, by its
// position in src, before that node is re-homed (to let the caller drop
// any existing index entry for it).
func (s *SVLocusSet) absorbNodes(absorber LocusIndex, src []SVLocusNode, onRemoveSrc func(i int)) {
	abs := &s.loci[absorber]
	base := NodeIndex(len(abs.nodes))
	for i, node := range src {
		if onRemoveSrc != nil {
			onRemoveSrc(i)
		}
		newEdges := make(map[NodeIndex]uint32, len(node.OutEdges))
		for t, c := range node.OutEdges {
			newEdges[base+t] += c
		}
		node.OutEdges = newEdges
		newIdx := NodeIndex(len(abs.nodes))
		abs.nodes = append(abs.nodes, node)
		s.index.Insert(node.Interval, absorber, newIdx)
	}
}

// closeAbsorber repeatedly scans absorber's nodes for any overlapping
// pair and folds it into one, until no overlapping pair remains. This is
// what enforces the interval-disjointness invariant after a fuse may have
// introduced new overlaps, including overlaps among nodes that were never
// direct siblings of the triggering merge (the MANTA-257 class of bug).
func (s *SVLocusSet) closeAbsorber(absorber LocusIndex) {
	for {
		abs := &s.loci[absorber]
		merged := false
		for i := 0; i < len(abs.nodes) && !merged; i++ {
			for j := i + 1; j < len(abs.nodes); j++ {
				if abs.nodes[i].Interval.Overlaps(abs.nodes[j].Interval) {
					s.mergeAbsorberNodes(absorber, NodeIndex(i), NodeIndex(j), nil)
					merged = true
					break
				}
			}
		}
		if !merged {
			return
		}
	}
}

// mergeAbsorberNodes folds the node at remove into the node at keep,
// within locus absorber, keeping the interval index consistent throughout
// (including when the fold itself relocates a third node, or keep, to a
// different slot). It returns keep's index after the fold, which may
// differ from the index passed in.
func (s *SVLocusSet) mergeAbsorberNodes(absorber LocusIndex, keep, remove NodeIndex, onMove NodeMoveFunc) NodeIndex {
	abs := &s.loci[absorber]
	s.index.Remove(absorber, remove)

	survivor := keep
	relocated := false
	abs.mergeNodes(keep, remove, func(old, new NodeIndex) {
		s.index.Remove(absorber, old)
		s.index.Insert(abs.nodes[new].Interval, absorber, new)
		if old == survivor {
			survivor = new
			relocated = true
		}
		if onMove != nil {
			onMove(old, new)
		}
	})
	if !relocated {
		s.index.Remove(absorber, survivor)
		s.index.Insert(abs.nodes[survivor].Interval, absorber, survivor)
	}
	return survivor
}

// Clean drops every edge across the whole set whose combined (both
// directional counts summed) observation count is below
// opts.MinMergeEdgeObservations, then drops every node left with no edge,
// then drops every locus left with no node. It is a single pass: a node
// that becomes isolated only because of an edge removed during this same
// call is caught, but a node that would become isolated only as a
// consequence of that removal needs a second Clean call to be collected.
func (s *SVLocusSet) Clean() {
	for li := range s.loci {
		s.cleanLocus(LocusIndex(li), nil)
	}
}

// CleanRegion behaves like Clean, but restricts edge removal to edges with
// at least one endpoint overlapping region, and node removal to nodes
// overlapping region.
func (s *SVLocusSet) CleanRegion(region GenomeInterval) {
	for li := range s.loci {
		s.cleanLocus(LocusIndex(li), &region)
	}
}

func (s *SVLocusSet) cleanLocus(li LocusIndex, region *GenomeInterval) {
	locus := &s.loci[li]
	if locus.Empty() {
		return
	}
	threshold := s.opts.MinMergeEdgeObservations

	// An edge's survival is decided once per (unordered) node pair, on the
	// combined observation count of both directional counts together (a
	// self-edge has just the one). Deciding per directional entry instead
	// would let an edge with a well-supported forward count get deleted
	// merely because its reverse direction, often an unused 0-count slot
	// a scanner never populates, is below threshold on its own -- which
	// would also violate I2's symmetric-existence requirement once one
	// side was dropped and the other kept.
	type edgePair struct{ a, b NodeIndex }
	visited := map[edgePair]bool{}
	var doomed []edgePair
	for i := range locus.nodes {
		for t := range locus.nodes[i].OutEdges {
			a, b := NodeIndex(i), t
			if a > b {
				a, b = b, a
			}
			pair := edgePair{a, b}
			if visited[pair] {
				continue
			}
			visited[pair] = true

			var combined uint32
			if a == b {
				combined = locus.nodes[a].OutEdges[a]
			} else {
				combined = locus.nodes[a].OutEdges[b] + locus.nodes[b].OutEdges[a]
			}
			if combined >= threshold {
				continue
			}
			if region != nil && !edgeTouchesRegion(locus, a, b, *region) {
				continue
			}
			doomed = append(doomed, pair)
		}
	}
	for _, pair := range doomed {
		delete(locus.nodes[pair.a].OutEdges, pair.b)
		if pair.a != pair.b {
			delete(locus.nodes[pair.b].OutEdges, pair.a)
		}
	}

	keep := make([]bool, len(locus.nodes))
	anyDropped := false
	for i := range locus.nodes {
		node := &locus.nodes[i]
		drop := len(node.OutEdges) == 0 && (region == nil || node.Interval.Overlaps(*region))
		keep[i] = !drop
		if drop {
			anyDropped = true
		}
	}
	if anyDropped {
		s.rebuildLocus(li, keep)
	}

	if locus.Empty() {
		s.nonEmptyCount--
	}
}

// rebuildLocus drops every node i with !keep[i] from locus li, remapping
// surviving edges and re-synchronizing the interval index.
func (s *SVLocusSet) rebuildLocus(li LocusIndex, keep []bool) {
	locus := &s.loci[li]
	remap := make([]NodeIndex, len(locus.nodes))
	newNodes := make([]SVLocusNode, 0, len(locus.nodes))
	for i := range locus.nodes {
		if !keep[i] {
			continue
		}
		remap[i] = NodeIndex(len(newNodes))
		newNodes = append(newNodes, locus.nodes[i])
	}
	for i := range newNodes {
		newEdges := make(map[NodeIndex]uint32, len(newNodes[i].OutEdges))
		for t, c := range newNodes[i].OutEdges {
			newEdges[remap[t]] = c
		}
		newNodes[i].OutEdges = newEdges
	}

	for i := range locus.nodes {
		s.index.Remove(li, NodeIndex(i))
	}
	locus.nodes = newNodes
	for i := range locus.nodes {
		s.index.Insert(locus.nodes[i].Interval, li, NodeIndex(i))
	}
}

func edgeTouchesRegion(locus *SVLocus, a, t NodeIndex, region GenomeInterval) bool {
	if locus.nodes[a].Interval.Overlaps(region) {
		return true
	}
	return locus.nodes[t].Interval.Overlaps(region)
}

// Finalize performs a last Clean pass and marks the set closed to further
// merges. Finalize must be called exactly once.
//
// REQUIRES: the set has not already been finalized
func (s *SVLocusSet) Finalize() {
	if s.state == stateFinalized {
		log.Fatalf("svgraph: Finalize called on an already-finalized SVLocusSet")
	}
	s.Clean()
	s.state = stateFinalized
}

// CheckState verifies the set's structural invariants. If checkLoci is
// true, every edge target is checked to reference a node that exists
// within the same locus. If checkInvariants is true, edge symmetry
// (I2), per-locus interval disjointness (I3), and interval-index
// consistency (I1) are additionally checked. It returns the first
// violation found, or nil.
func (s *SVLocusSet) CheckState(checkInvariants, checkLoci bool) error {
	if checkLoci {
		for li := range s.loci {
			locus := &s.loci[li]
			for i := range locus.nodes {
				for t := range locus.nodes[i].OutEdges {
					if int(t) >= len(locus.nodes) {
						return errors.E("svgraph: locus", li, "node", i, "has an edge to out-of-range node", t)
					}
				}
			}
		}
	}

	if !checkInvariants {
		return nil
	}

	for li := range s.loci {
		locus := &s.loci[li]
		for i := 0; i < len(locus.nodes); i++ {
			for j := i + 1; j < len(locus.nodes); j++ {
				if locus.nodes[i].Interval.Overlaps(locus.nodes[j].Interval) {
					return errors.E("svgraph: locus", li, "nodes", i, "and", j, "have overlapping intervals")
				}
			}
		}
		for i := range locus.nodes {
			for t, c := range locus.nodes[i].OutEdges {
				if c == 0 {
					continue
				}
				if int(t) >= len(locus.nodes) {
					continue // already reported above when checkLoci is on
				}
				if _, ok := locus.nodes[t].OutEdges[NodeIndex(i)]; !ok {
					return errors.E("svgraph: locus", li, "edge", i, "->", t, "has no reciprocal edge")
				}
			}
		}
	}

	seen := map[uintptr]bool{}
	var idxErr error
	s.index.ForEach(func(li LocusIndex, ni NodeIndex, iv GenomeInterval) {
		if idxErr != nil {
			return
		}
		if int(li) >= len(s.loci) || int(ni) >= len(s.loci[li].nodes) {
			idxErr = errors.E("svgraph: index entry refers to a nonexistent node")
			return
		}
		if s.loci[li].nodes[ni].Interval != iv {
			idxErr = errors.E("svgraph: index entry interval mismatch for locus", li, "node", ni)
			return
		}
		seen[packRef(li, ni)] = true
	})
	if idxErr != nil {
		return idxErr
	}
	for li := range s.loci {
		for ni := range s.loci[li].nodes {
			if !seen[packRef(LocusIndex(li), NodeIndex(ni))] {
				return errors.E("svgraph: locus", li, "node", ni, "is missing from the interval index")
			}
		}
	}
	return nil
}

// sortedNonEmptyLoci returns the indices of every non-empty locus, in
// ascending order. Intended for tests and diagnostics, not the hot path.
func (s *SVLocusSet) sortedNonEmptyLoci() []LocusIndex {
	var out []LocusIndex
	for i := range s.loci {
		if !s.loci[i].Empty() {
			out = append(out, LocusIndex(i))
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a] < out[b] })
	return out
}
