package svgraph

import "github.com/grailbio/base/log"

// NodeMoveFunc is called whenever removing a node from a locus causes a
// different node to change index (the swap-with-last-element shuffle a
// removal uses). Callers that track nodes by (locus,node) identity outside
// the locus itself, such as SVLocusSet's interval index, use this to stay
// in sync.
type NodeMoveFunc func(old, new NodeIndex)

// SVLocus is a small directed graph representing one observed SV signal: a
// local breakend linked to a remote breakend, or (once merged into a
// SVLocusSet) the union of every such signal whose regions overlap.
type SVLocus struct {
	nodes []SVLocusNode
}

// Size returns the number of nodes in the locus.
func (l *SVLocus) Size() int { return len(l.nodes) }

// Empty returns true if the locus has no nodes.
func (l *SVLocus) Empty() bool { return len(l.nodes) == 0 }

// GetNode returns the node at index i.
//
// REQUIRES: i < l.Size()
func (l *SVLocus) GetNode(i NodeIndex) *SVLocusNode {
	if int(i) >= len(l.nodes) {
		log.Fatalf("svgraph: node index %d out of range (size %d)", i, len(l.nodes))
	}
	return &l.nodes[i]
}

// AddNode appends a new, edgeless node covering interval iv and returns its
// index.
func (l *SVLocus) AddNode(iv GenomeInterval) NodeIndex {
	l.nodes = append(l.nodes, newSVLocusNode(iv))
	return NodeIndex(len(l.nodes) - 1)
}

// SetNodeEvidence replaces the evidence range of node n.
func (l *SVLocus) SetNodeEvidence(n NodeIndex, r EvidenceRange) {
	l.GetNode(n).EvidenceRange = r
}

// LinkNodes records an observation between a and b: a gains an outgoing
// edge to b incremented by countAB, and b gains one to a incremented by
// countBA. a==b creates or increments a self-edge by countAB+countBA.
func (l *SVLocus) LinkNodes(a, b NodeIndex, countAB, countBA uint32) {
	na := l.GetNode(a)
	if a == b {
		na.OutEdges[a] += countAB + countBA
		return
	}
	nb := l.GetNode(b)
	na.OutEdges[b] += countAB
	nb.OutEdges[a] += countBA
}

// Clear removes all nodes from the locus.
func (l *SVLocus) Clear() { l.nodes = nil }

// MergeSelfOverlap repeatedly collapses any two nodes of this locus whose
// intervals overlap into one, until no overlapping pair remains. It has no
// effect on a locus whose nodes are already pairwise disjoint.
func (l *SVLocus) MergeSelfOverlap() {
	l.mergeSelfOverlap(nil)
}

func (l *SVLocus) mergeSelfOverlap(onMove NodeMoveFunc) {
	for {
		merged := false
		for i := 0; i < len(l.nodes) && !merged; i++ {
			for j := i + 1; j < len(l.nodes); j++ {
				if l.nodes[i].Interval.Overlaps(l.nodes[j].Interval) {
					l.mergeNodes(NodeIndex(i), NodeIndex(j), onMove)
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

// mergeNodes folds node remove into node keep: their intervals and
// evidence ranges are unioned, any edge between them (in either direction)
// becomes part of keep's self-edge, and every third node's edge to remove
// is redirected onto keep. remove is then deleted from the locus via
// removeNode, which may relocate a different node into its slot; onMove,
// if non-nil, is told about that relocation.
//
// REQUIRES: keep != remove
func (l *SVLocus) mergeNodes(keep, remove NodeIndex, onMove NodeMoveFunc) {
	if keep == remove {
		log.Fatalf("svgraph: cannot merge node %d into itself", keep)
	}
	nk := l.GetNode(keep)
	nr := l.GetNode(remove)

	selfCount := nk.OutEdges[keep] + nr.OutEdges[remove] + nk.OutEdges[remove] + nr.OutEdges[keep]

	merged := make(map[NodeIndex]uint32, len(nk.OutEdges)+len(nr.OutEdges))
	for t, c := range nk.OutEdges {
		if t == keep || t == remove {
			continue
		}
		merged[t] += c
	}
	for t, c := range nr.OutEdges {
		if t == keep || t == remove {
			continue
		}
		merged[t] += c
	}
	if selfCount > 0 {
		merged[keep] = selfCount
	}

	nk.Interval = nk.Interval.Union(nr.Interval)
	nk.EvidenceRange = nk.EvidenceRange.Union(nr.EvidenceRange)
	nk.OutEdges = merged

	// Redirect every third node's edge to remove onto keep.
	for i := range l.nodes {
		idx := NodeIndex(i)
		if idx == keep || idx == remove {
			continue
		}
		other := &l.nodes[i]
		if c, ok := other.OutEdges[remove]; ok {
			other.OutEdges[keep] += c
			delete(other.OutEdges, remove)
		}
	}

	l.removeNode(remove, onMove)
}

// removeNode deletes the node at idx by swapping the locus's last node into
// its slot (if idx isn't already last) and truncating. Any edge anywhere
// in the locus that referred to the relocated node's old index is remapped
// to idx. onMove, if non-nil, is called once with (oldIndex, idx) when a
// relocation happens.
func (l *SVLocus) removeNode(idx NodeIndex, onMove NodeMoveFunc) {
	last := NodeIndex(len(l.nodes) - 1)
	if idx != last {
		l.nodes[idx] = l.nodes[last]
		for i := range l.nodes[:last] {
			edges := l.nodes[i].OutEdges
			if c, ok := edges[last]; ok {
				edges[idx] += c
				delete(edges, last)
			}
		}
		if onMove != nil {
			onMove(last, idx)
		}
	}
	l.nodes = l.nodes[:last]
}
