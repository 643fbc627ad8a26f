package svgraph

import (
	"github.com/biogo/store/interval"
	"github.com/grailbio/base/log"
)

// LocusNode is a reference to a node within a SVLocusSet: the locus it
// belongs to, and its index within that locus's node slice.
type LocusNode struct {
	Locus LocusIndex
	Node  NodeIndex
}

// locusNodeRef is the payload type inserted into the per-chromosome
// interval.IntTree, implementing interval.IntInterface. Its identity
// (ID()) packs the (LocusIndex,NodeIndex) pair into the uintptr the tree
// requires, which assumes uintptr is at least 64 bits wide — true on every
// platform this package is built for.
type locusNodeRef struct {
	iv       GenomeInterval
	locusIdx LocusIndex
	nodeIdx  NodeIndex
}

func packRef(locusIdx LocusIndex, nodeIdx NodeIndex) uintptr {
	return uintptr(locusIdx)<<32 | uintptr(nodeIdx)
}

func (r locusNodeRef) ID() uintptr { return packRef(r.locusIdx, r.nodeIdx) }

func (r locusNodeRef) Range() interval.IntRange {
	return interval.IntRange{Start: int(r.iv.Start), End: int(r.iv.End)}
}

func (r locusNodeRef) Overlap(b interval.IntRange) bool {
	return int(r.iv.End) > b.Start && int(r.iv.Start) < b.End
}

// IntervalIndex is a spatial index from GenomeInterval to every
// (LocusIndex,NodeIndex) pair whose node's interval overlaps a query
// region. It keeps one interval.IntTree per chromosome, the same way
// kortschak-ins's ins command indexes one subject per read alignment.
type IntervalIndex struct {
	trees map[int32]*interval.IntTree
	// refs records the exact entry handed to a tree for each indexed node,
	// since interval.IntTree.Delete requires the identical entry back, not
	// merely an equal one.
	refs map[uintptr]locusNodeRef
}

// NewIntervalIndex returns an empty index.
func NewIntervalIndex() *IntervalIndex {
	return &IntervalIndex{
		trees: make(map[int32]*interval.IntTree),
		refs:  make(map[uintptr]locusNodeRef),
	}
}

// Insert adds an entry for (locusIdx,nodeIdx) covering iv.
//
// REQUIRES: no entry already exists for (locusIdx,nodeIdx)
func (idx *IntervalIndex) Insert(iv GenomeInterval, locusIdx LocusIndex, nodeIdx NodeIndex) {
	ref := locusNodeRef{iv: iv, locusIdx: locusIdx, nodeIdx: nodeIdx}
	id := ref.ID()
	if _, ok := idx.refs[id]; ok {
		log.Fatalf("svgraph: interval index already has an entry for locus %d node %d", locusIdx, nodeIdx)
	}
	t, ok := idx.trees[iv.Tid]
	if !ok {
		t = &interval.IntTree{}
		idx.trees[iv.Tid] = t
	}
	if err := t.Insert(ref, true); err != nil {
		log.Fatalf("svgraph: interval index insert: %v", err)
	}
	t.AdjustRanges()
	idx.refs[id] = ref
}

// Remove deletes the entry for (locusIdx,nodeIdx).
//
// REQUIRES: an entry exists for (locusIdx,nodeIdx)
func (idx *IntervalIndex) Remove(locusIdx LocusIndex, nodeIdx NodeIndex) {
	id := packRef(locusIdx, nodeIdx)
	ref, ok := idx.refs[id]
	if !ok {
		log.Fatalf("svgraph: interval index remove: no entry for locus %d node %d", locusIdx, nodeIdx)
	}
	t := idx.trees[ref.iv.Tid]
	if err := t.Delete(ref, true); err != nil {
		log.Fatalf("svgraph: interval index remove: %v", err)
	}
	t.AdjustRanges()
	delete(idx.refs, id)
}

// FindOverlapping returns every indexed (LocusIndex,NodeIndex) pair whose
// interval intersects iv.
func (idx *IntervalIndex) FindOverlapping(iv GenomeInterval) []LocusNode {
	t, ok := idx.trees[iv.Tid]
	if !ok {
		return nil
	}
	q := locusNodeRef{iv: iv}
	hits := t.Get(q)
	if len(hits) == 0 {
		return nil
	}
	out := make([]LocusNode, 0, len(hits))
	for _, e := range hits {
		r := e.(locusNodeRef)
		out = append(out, LocusNode{Locus: r.locusIdx, Node: r.nodeIdx})
	}
	return out
}

// ForEach calls fn once for every indexed entry, in no particular order.
func (idx *IntervalIndex) ForEach(fn func(LocusIndex, NodeIndex, GenomeInterval)) {
	for _, r := range idx.refs {
		fn(r.locusIdx, r.nodeIdx, r.iv)
	}
}

// Size returns the number of indexed nodes.
func (idx *IntervalIndex) Size() int { return len(idx.refs) }
