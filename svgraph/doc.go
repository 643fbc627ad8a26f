// Package svgraph implements the SV locus graph: an in-memory,
// incrementally-built evidence graph that accumulates paired-read signals
// for structural variants as they are scanned out of aligned sequencing
// data.
//
// A locus is a small directed graph of breakend regions (SVLocusNode)
// linked by observation counts. A SVLocusSet holds many loci, transitively
// merging loci that come to share overlapping regions once an overlapping
// edge has gathered enough observations to confirm the merge, and periodically
// drops edges and nodes that never accumulated enough supporting
// observations to be worth keeping. The design and merge semantics are
// ported from Illumina's Manta SV caller.
package svgraph
