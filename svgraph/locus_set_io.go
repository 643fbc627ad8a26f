package svgraph

// This file defines WriteSet and ReadSet, which dump a SVLocusSet to and
// from a recordio file: one record per non-empty locus, gob-encoded, with
// the set's options and finalized state carried in the recordio trailer.
// Modeled on grailbio's bio-fusion recordio writer/reader pair.

import (
	"bytes"
	"context"
	"encoding/gob"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/recordio"
	"github.com/grailbio/base/recordio/recordiozstd"
)

const (
	setFileVersionHeader = "svgraph-version"
	setFileVersion       = "SVLOCUSSET_V1"
)

// setFileTrailer carries everything needed to reconstruct a SVLocusSet
// that isn't implicit in the per-locus records.
type setFileTrailer struct {
	Opts      SetOptions
	Finalized bool
}

// WriteSet serializes set to path in a form ReadSet can round-trip. Empty
// locus slots are skipped; on read the set's loci are renumbered densely,
// which is permitted since LocusIndex is only guaranteed stable between
// public operations.
func WriteSet(ctx context.Context, path string, set *SVLocusSet) error {
	recordiozstd.Init()
	out, err := file.Create(ctx, path)
	if err != nil {
		return errors.E(err, "svgraph: create", path)
	}
	w := recordio.NewWriter(out.Writer(ctx), recordio.WriterOpts{
		Transformers: []string{recordiozstd.Name},
	})
	w.AddHeader(setFileVersionHeader, setFileVersion)
	w.AddHeader(recordio.KeyTrailer, true)

	for i := range set.loci {
		if set.loci[i].Empty() {
			continue
		}
		b := bytes.NewBuffer(nil)
		if err := gob.NewEncoder(b).Encode(set.loci[i].nodes); err != nil {
			return errors.E(err, "svgraph: encode locus", i)
		}
		w.Append(b.Bytes())
	}

	tb := bytes.NewBuffer(nil)
	if err := gob.NewEncoder(tb).Encode(setFileTrailer{
		Opts:      set.opts,
		Finalized: set.state == stateFinalized,
	}); err != nil {
		return errors.E(err, "svgraph: encode trailer")
	}
	w.SetTrailer(tb.Bytes())
	if err := w.Finish(); err != nil {
		return errors.E(err, "svgraph: finish", path)
	}
	return out.Close(ctx)
}

// ReadSet deserializes a SVLocusSet previously written by WriteSet. The
// interval index is rebuilt from scratch; loci and nodes are renumbered
// densely starting at zero.
func ReadSet(ctx context.Context, path string) (*SVLocusSet, error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, errors.E(err, "svgraph: open", path)
	}
	defer func() {
		if cerr := in.Close(ctx); cerr != nil {
			log.Error.Printf("svgraph: close %s: %v", path, cerr)
		}
	}()

	recordiozstd.Init()
	r := recordio.NewScanner(in.Reader(ctx), recordio.ScannerOpts{})
	versionFound := false
	for _, kv := range r.Header() {
		if kv.Key == setFileVersionHeader {
			if kv.Value.(string) != setFileVersion {
				return nil, errors.E("svgraph: version mismatch in", path)
			}
			versionFound = true
			break
		}
	}
	if !versionFound {
		return nil, errors.E("svgraph:", path, "is not a svgraph set file")
	}

	var trailer setFileTrailer
	if err := gob.NewDecoder(bytes.NewReader(r.Trailer())).Decode(&trailer); err != nil {
		return nil, errors.E(err, "svgraph: decode trailer")
	}

	set := NewSVLocusSet(trailer.Opts)
	for r.Scan() {
		var nodes []SVLocusNode
		if err := gob.NewDecoder(bytes.NewReader(r.Get().([]byte))).Decode(&nodes); err != nil {
			return nil, errors.E(err, "svgraph: decode locus")
		}
		idx := LocusIndex(len(set.loci))
		set.loci = append(set.loci, SVLocus{nodes: nodes})
		set.nonEmptyCount++
		for i := range nodes {
			set.index.Insert(nodes[i].Interval, idx, NodeIndex(i))
		}
	}
	if err := r.Err(); err != nil {
		return nil, errors.E(err, "svgraph: scan", path)
	}
	if trailer.Finalized {
		set.state = stateFinalized
	}
	return set, nil
}
