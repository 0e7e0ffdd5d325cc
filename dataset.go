// Copyright (C) The LINCS Processing Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package lincs

import (
	"bufio"
	"encoding/gob"
	"io"
	"io/ioutil"
	"os"
	"strings"

	"github.com/klauspost/pgzip"
)

// Dataset is an ordered, in-memory collection of samples. Genes holds
// the expression row ids in vector order when they are known (set by
// import, carried through filters and persistence).
type Dataset struct {
	Schema  Schema
	Genes   []string
	Samples []Sample
}

func (ds *Dataset) Len() int { return len(ds.Samples) }

// VectorLen returns the expression vector length of the first sample,
// or 0 for an empty dataset.
func (ds *Dataset) VectorLen() int {
	if len(ds.Samples) == 0 {
		return 0
	}
	return len(ds.Samples[0].Expr)
}

// checkField verifies that f can be read from every sample of ds.
func (ds *Dataset) checkField(f Field) error {
	if !f.in(ds.Schema) {
		return &SelectorError{Field: f, Schema: ds.Schema}
	}
	return nil
}

// subset returns a new dataset with the same schema and gene ids,
// sharing sample storage with ds (samples are immutable).
func (ds *Dataset) subset(samples []Sample) *Dataset {
	return &Dataset{Schema: ds.Schema, Genes: ds.Genes, Samples: samples}
}

// DatasetEntry is the unit of gob encoding. A dataset file is a
// stream of entries; Schema and Genes are taken from the first entry
// and samples are concatenated across all of them.
type DatasetEntry struct {
	Schema  Schema
	Genes   []string
	Samples []Sample
}

const gobChunkSize = 4096

// ReadDataset decodes a gob stream of DatasetEntry values.
func ReadDataset(rdr io.Reader) (*Dataset, error) {
	dec := gob.NewDecoder(bufio.NewReaderSize(rdr, 1<<22))
	ds := &Dataset{}
	first := true
	for {
		var ent DatasetEntry
		err := dec.Decode(&ent)
		if err == io.EOF {
			return ds, nil
		} else if err != nil {
			return nil, err
		}
		if first {
			ds.Schema = ent.Schema
			ds.Genes = ent.Genes
			first = false
		}
		ds.Samples = append(ds.Samples, ent.Samples...)
	}
}

// WriteDataset encodes ds as a stream of DatasetEntry chunks. Schema
// and gene ids are only written on the first entry.
func WriteDataset(w io.Writer, ds *Dataset) error {
	enc := gob.NewEncoder(w)
	samples := ds.Samples
	ent := DatasetEntry{Schema: ds.Schema, Genes: ds.Genes}
	for {
		n := len(samples)
		if n > gobChunkSize {
			n = gobChunkSize
		}
		ent.Samples = samples[:n]
		if err := enc.Encode(ent); err != nil {
			return err
		}
		samples = samples[n:]
		if len(samples) == 0 {
			return nil
		}
		ent = DatasetEntry{}
	}
}

// zopen returns a reader for the given file, transparently
// decompressing the input if fnm ends with ".gz". fnm "-" means
// stdin.
func zopen(fnm string, stdin io.Reader) (io.ReadCloser, error) {
	var f io.ReadCloser
	if fnm == "-" {
		f = ioutil.NopCloser(stdin)
	} else {
		var err error
		f, err = os.Open(fnm)
		if err != nil {
			return nil, err
		}
	}
	if !strings.HasSuffix(fnm, ".gz") {
		return f, nil
	}
	rdr, err := pgzip.NewReader(bufio.NewReaderSize(f, 1<<22))
	if err != nil {
		f.Close()
		return nil, err
	}
	return gzipr{rdr, f}, nil
}

// gzipr wraps a ReadCloser and a Closer, presenting a single Close()
// method that closes both wrapped objects.
type gzipr struct {
	io.ReadCloser
	io.Closer
}

func (gr gzipr) Close() error {
	e1 := gr.ReadCloser.Close()
	e2 := gr.Closer.Close()
	if e1 != nil {
		return e1
	}
	return e2
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

// readDatasetFile loads a dataset from fnm ("-" = stdin, ".gz"
// handled transparently).
func readDatasetFile(fnm string, stdin io.Reader) (*Dataset, error) {
	rdr, err := zopen(fnm, stdin)
	if err != nil {
		return nil, err
	}
	ds, err := ReadDataset(rdr)
	if err != nil {
		rdr.Close()
		return nil, err
	}
	return ds, rdr.Close()
}

// writeDatasetFile stores a dataset to fnm ("-" = stdout, ".gz"
// compressed with pgzip).
func writeDatasetFile(fnm string, stdout io.Writer, ds *Dataset) error {
	var outfile io.WriteCloser
	if fnm == "-" {
		outfile = nopCloser{stdout}
	} else {
		var err error
		outfile, err = os.OpenFile(fnm, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0666)
		if err != nil {
			return err
		}
		defer outfile.Close()
	}
	bufw := bufio.NewWriter(outfile)
	var w io.Writer = bufw
	var gzw *pgzip.Writer
	if strings.HasSuffix(fnm, ".gz") {
		gzw = pgzip.NewWriter(bufw)
		w = gzw
	}
	if err := WriteDataset(w, ds); err != nil {
		return err
	}
	if gzw != nil {
		if err := gzw.Close(); err != nil {
			return err
		}
	}
	if err := bufw.Flush(); err != nil {
		return err
	}
	return outfile.Close()
}
