// Command bio-sv-merge is a minimal demonstration driver for the SV
// evidence graph: it loads a svgraph.SVLocusSet previously written by
// svgraph.WriteSet, applies a final clean and finalize pass, and prints
// the candidate junctions svcandidate.Enumerate finds above a configurable
// threshold. It intentionally does not parse BAM input itself; that wiring
// (scanner over an aligned read stream) is out of this module's scope per
// spec.md §1, and is exercised instead by svscan's own tests.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/grailbio/base/log"

	"github.com/gralba/svgraph/svcandidate"
	"github.com/gralba/svgraph/svgraph"
)

func main() {
	inPath := flag.String("in", "", "path to a SVLocusSet file written by svgraph.WriteSet")
	minEdgeCount := flag.Uint("min-merge-edge-observations", uint(svgraph.DefaultSetOptions.MinMergeEdgeObservations),
		"directional edge counts below this are not printed as candidate junctions")
	flag.Parse()

	if *inPath == "" {
		fmt.Fprintln(os.Stderr, "usage: bio-sv-merge -in <svlocusset-file>")
		os.Exit(2)
	}

	if err := run(*inPath, uint32(*minEdgeCount)); err != nil {
		log.Fatalf("bio-sv-merge: %v", err)
	}
}

func run(inPath string, minEdgeCount uint32) error {
	ctx := context.Background()
	set, err := svgraph.ReadSet(ctx, inPath)
	if err != nil {
		return err
	}

	if !set.IsFinalized() {
		set.Finalize()
	}
	if err := set.CheckState(true, true); err != nil {
		return err
	}

	enumerator := svcandidate.NewCandidateEnumerator(minEdgeCount)
	candidates := enumerator.Enumerate(set)

	log.Info.Printf("bio-sv-merge: %d loci, %d candidates", set.NonEmptySize(), len(candidates))
	for _, c := range candidates {
		for _, j := range c.Junctions {
			fmt.Printf("%v\t%v\t%d\n", j.Source.Interval, j.Target.Interval, j.Count)
		}
	}
	return nil
}
