// Package svscan turns aligned paired-read evidence into svgraph.SVLocus
// values: one scan per chimeric read produces a local/remote breakend
// pair, estimated from the read's own alignment and an empirical insert
// size distribution. Ported from Manta's SVLocusScanner.
package svscan
