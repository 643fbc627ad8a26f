package svgraph

// NodeIndex identifies a node within a single SVLocus. It is stable only
// between public SVLocusSet operations: a merge or clean may renumber
// nodes as loci are fused or compacted.
type NodeIndex uint32

// SVLocusNode is a region of the genome observed as one endpoint of a
// candidate SV signal, together with the edges it has accumulated to other
// nodes seen linked to it (most often exactly one, the node's other
// breakend). A self-edge (an entry keyed by the node's own index) records
// observations that could not be resolved to two distinct breakend
// regions, such as a small indel signal local to one region.
type SVLocusNode struct {
	Interval GenomeInterval
	// EvidenceRange is the union of the source-read alignment ranges that
	// produced this node, which can be wider than Interval once a node has
	// absorbed several overlapping observations.
	EvidenceRange EvidenceRange
	OutEdges      map[NodeIndex]uint32
}

func newSVLocusNode(iv GenomeInterval) SVLocusNode {
	return SVLocusNode{
		Interval:      iv,
		EvidenceRange: EvidenceRange{iv.Start, iv.End},
		OutEdges:      make(map[NodeIndex]uint32),
	}
}

// OutCount is the sum of observation counts over every outgoing edge,
// including a self-edge if present.
func (n *SVLocusNode) OutCount() uint32 {
	var total uint32
	for _, c := range n.OutEdges {
		total += c
	}
	return total
}

// Size is the number of distinct nodes this node has an edge to (a
// self-edge counts as one).
func (n *SVLocusNode) Size() int { return len(n.OutEdges) }
