package svcandidate

import "github.com/gralba/svgraph/svgraph"

// Junction is one observed edge of a candidate: an estimated source
// breakend linked to a target breakend by Count accumulated observations.
type Junction struct {
	Source, Target svgraph.BreakendLocation
	Count          uint32
}

// Candidate is a group of junctions sharing a locus: one junction for a
// simple (single-edge) node, several for a complex, multi-junction node.
type Candidate struct {
	Junctions []Junction
}

// IsSpanningCandidate reports whether c has enough supporting observations
// on every junction to be treated as spanning evidence rather than noise.
func IsSpanningCandidate(c Candidate, minSpanningCount int) bool {
	if len(c.Junctions) == 0 {
		return false
	}
	for _, j := range c.Junctions {
		if int(j.Count) < minSpanningCount {
			return false
		}
	}
	return true
}

// IsImpreciseNonSpanning reports whether c has exactly one junction that
// falls short of minSpanningCount: a candidate with only local, imprecise
// support, as opposed to a clear multi-read spanning signal.
func IsImpreciseNonSpanning(c Candidate, minSpanningCount int) bool {
	return len(c.Junctions) == 1 && int(c.Junctions[0].Count) < minSpanningCount
}

// variantSize returns the distance a junction's source and target
// breakends span, or 0 if they are on different chromosomes.
func variantSize(j Junction) int {
	if j.Source.Interval.Tid != j.Target.Interval.Tid {
		return 0
	}
	d := int(j.Target.Interval.Start) - int(j.Source.Interval.Start)
	if d < 0 {
		return -d
	}
	return d
}

// PassesMinVariantSize reports whether every junction of c spans at least
// minSize bases (same-chromosome junctions only; cross-chromosome
// junctions always pass, matching a translocation having no size).
func PassesMinVariantSize(c Candidate, minSize int) bool {
	for _, j := range c.Junctions {
		if j.Source.Interval.Tid == j.Target.Interval.Tid && variantSize(j) < minSize {
			return false
		}
	}
	return true
}

// PassesScoredVariantSize reports whether c passes PassesMinVariantSize
// and additionally meets minSpanningCount on every junction, the
// combined gate applied once a candidate has been scored.
func PassesScoredVariantSize(c Candidate, minSize, minSpanningCount int) bool {
	return PassesMinVariantSize(c, minSize) && IsSpanningCandidate(c, minSpanningCount)
}

// PassesAltScore reports whether score meets minAltScore. A pure function
// over the externally-computed score, kept here as the documented contract
// point a scorer (out of scope) plugs into.
func PassesAltScore(score, minAltScore float64) bool {
	return score >= minAltScore
}

// PassesSomaticScore reports whether score meets minSomaticScore, the
// somatic-calling analog of PassesAltScore.
func PassesSomaticScore(score, minSomaticScore float64) bool {
	return score >= minSomaticScore
}
