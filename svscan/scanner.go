package svscan

import (
	"github.com/grailbio/hts/sam"

	"github.com/gralba/svgraph/svgraph"
)

var saTag = sam.Tag{'S', 'A'}

// Scanner turns sam.Record pairs into svgraph.SVLocus evidence, following
// SVLocusScanner's read-filtering and breakend-estimation rules.
type Scanner struct {
	opt Options
}

// NewScanner returns a Scanner configured with opt.
func NewScanner(opt Options) *Scanner { return &Scanner{opt: opt} }

// IsReadFiltered reports whether r should be skipped entirely: QC-failed,
// a PCR/optical duplicate, a secondary alignment, part of a normal
// (concordant) pair, or below the minimum mapping quality.
func (s *Scanner) IsReadFiltered(r *sam.Record) bool {
	if r.Flags&sam.QCFail != 0 {
		return true
	}
	if r.Flags&sam.Duplicate != 0 {
		return true
	}
	if r.Flags&sam.Secondary != 0 {
		return true
	}
	if r.Flags&sam.ProperPair != 0 {
		return true
	}
	if r.MapQ < s.opt.MinMapq {
		return true
	}
	return false
}

// IsChimeric reports whether r carries evidence of an SV breakend: its
// mate aligns to a different reference, or the alignment carries an SA
// (split-read) aux tag.
func (s *Scanner) IsChimeric(r *sam.Record) bool {
	if r.Flags&sam.Unmapped != 0 {
		return false
	}
	if r.Flags&sam.MateUnmapped == 0 && r.Ref != nil && r.MateRef != nil {
		if r.Ref.ID() != r.MateRef.ID() {
			return true
		}
	}
	return r.AuxFields.Get(saTag) != nil
}

// GetChimericSVLocus builds the two-node locus (local breakend linked to
// remote breakend) for read, if it is chimeric. mate may be nil, in which
// case the remote read's size is estimated from the local read's own
// alignment, per SVLocusScanner's missing-mate handling. ok is false, and
// the returned locus empty, if read is not chimeric.
func (s *Scanner) GetChimericSVLocus(read, mate *sam.Record, stats CachedReadGroupStats) (svgraph.SVLocus, bool) {
	if !s.IsChimeric(read) {
		return svgraph.SVLocus{}, false
	}

	local, remote, evidence := s.GetBreakendPair(read, mate, stats)

	var locus svgraph.SVLocus
	localNode := locus.AddNode(local.Interval)
	locus.SetNodeEvidence(localNode, evidence)
	remoteNode := locus.AddNode(remote.Interval)
	locus.LinkNodes(localNode, remoteNode, 1, 0)
	return locus, true
}

// GetBreakendPair estimates the local and remote breakend locations for
// read, and the evidence range (the read's own reference span) backing
// the local estimate. mate may be nil; see GetChimericSVLocus.
func (s *Scanner) GetBreakendPair(read, mate *sam.Record, stats CachedReadGroupStats) (local, remote svgraph.BreakendLocation, evidence svgraph.EvidenceRange) {
	readSize, localRefLen := cigarReadAndRefLength(read.Cigar)

	var thisNoninsert int
	if read.Flags&sam.Reverse == 0 {
		thisNoninsert = readSize - cigarTrailClip(read.Cigar)
	} else {
		thisNoninsert = readSize - cigarLeadClip(read.Cigar)
	}

	// If the mate is not available, estimate its size to be the same as
	// the local read's, assuming no clipping on the mate.
	remoteNoninsert := readSize
	remoteRefLen := localRefLen
	if mate != nil {
		remoteReadSize, remoteRefLength := cigarReadAndRefLength(mate.Cigar)
		remoteRefLen = remoteRefLength
		if mate.Flags&sam.Reverse == 0 {
			remoteNoninsert = remoteReadSize - cigarTrailClip(mate.Cigar)
		} else {
			remoteNoninsert = remoteReadSize - cigarLeadClip(mate.Cigar)
		}
	}

	totalNoninsert := svgraph.Pos(thisNoninsert + remoteNoninsert)
	tail := stats.Max - totalNoninsert
	if tail < 0 {
		tail = 0
	}

	localStart := svgraph.Pos(read.Pos)
	localEnd := localStart + svgraph.Pos(localRefLen)
	local = breakendFrom(refID(read.Ref), localStart, localEnd, read.Flags&sam.Reverse == 0, tail)
	evidence = svgraph.EvidenceRange{Start: localStart, End: localEnd}

	remoteStart := svgraph.Pos(read.MatePos)
	remoteEnd := remoteStart + svgraph.Pos(remoteRefLen)
	remote = breakendFrom(refID(read.MateRef), remoteStart, remoteEnd, read.Flags&sam.MateReverse == 0, tail)
	return local, remote, evidence
}

func refID(ref *sam.Reference) int32 {
	if ref == nil {
		return -1
	}
	return int32(ref.ID())
}

// breakendFrom builds the breakend estimate that extends from the end of
// an alignment spanning [alignStart,alignEnd) out toward the fragment's
// probable far end, tail past the alignment.
func breakendFrom(tid int32, alignStart, alignEnd svgraph.Pos, fwdStrand bool, tail svgraph.Pos) svgraph.BreakendLocation {
	if fwdStrand {
		return svgraph.BreakendLocation{
			Interval: svgraph.NewGenomeInterval(tid, alignEnd, alignEnd+tail),
			State:    svgraph.RightOpen,
		}
	}
	start := alignStart - tail
	return svgraph.BreakendLocation{
		Interval: svgraph.NewGenomeInterval(tid, start, alignStart),
		State:    svgraph.LeftOpen,
	}
}

// cigarReadAndRefLength returns the total read-consuming length and the
// total reference-consuming length of c.
func cigarReadAndRefLength(c sam.Cigar) (readLen, refLen int) {
	for _, op := range c {
		n := op.Len()
		switch op.Type() {
		case sam.CigarMatch, sam.CigarEqual, sam.CigarMismatch:
			readLen += n
			refLen += n
		case sam.CigarInsertion, sam.CigarSoftClipped:
			readLen += n
		case sam.CigarDeletion, sam.CigarSkipped:
			refLen += n
		case sam.CigarHardClipped, sam.CigarPadded:
			// consumes neither
		}
	}
	return readLen, refLen
}

// cigarLeadClip returns the length of a soft or hard clip at the start of
// c, or 0 if the alignment isn't clipped there.
func cigarLeadClip(c sam.Cigar) int {
	if len(c) == 0 {
		return 0
	}
	t := c[0].Type()
	if t == sam.CigarSoftClipped || t == sam.CigarHardClipped {
		return c[0].Len()
	}
	return 0
}

// cigarTrailClip returns the length of a soft or hard clip at the end of
// c, or 0 if the alignment isn't clipped there.
func cigarTrailClip(c sam.Cigar) int {
	if len(c) == 0 {
		return 0
	}
	t := c[len(c)-1].Type()
	if t == sam.CigarSoftClipped || t == sam.CigarHardClipped {
		return c[len(c)-1].Len()
	}
	return 0
}
