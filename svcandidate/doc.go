// Package svcandidate turns a finalized svgraph.SVLocusSet into candidate
// SV junctions for downstream assembly and scoring. It is a thin
// enumeration and filtering layer: it does not assemble, align, or score
// anything itself.
package svcandidate
