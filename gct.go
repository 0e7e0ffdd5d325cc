// Copyright (C) The LINCS Processing Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package lincs

import (
	"bufio"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"net/http"
	_ "net/http/pprof"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/pgzip"
	log "github.com/sirupsen/logrus"
)

// GCT holds a (possibly row/column restricted) expression matrix read
// from a GCT 1.2 text file. Profiles is column major: Profiles[k][g]
// is the value of gene Genes[g] in column Columns[k].
type GCT struct {
	Genes    []string
	Columns  []string
	Profiles [][]float64
}

// ReadGCT parses a GCT 1.2 stream, keeping only the rows and columns
// accepted by the two predicates (nil means keep everything). Rows
// and columns keep their file order.
func ReadGCT(rdr io.Reader, keepRow, keepCol func(string) bool) (*GCT, error) {
	tsv := csv.NewReader(bufio.NewReaderSize(rdr, 1<<22))
	tsv.Comma = '\t'
	tsv.FieldsPerRecord = -1
	tsv.LazyQuotes = true

	version, err := tsv.Read()
	if err != nil {
		return nil, fmt.Errorf("reading gct version line: %w", err)
	}
	if len(version) == 0 || version[0] != "#1.2" {
		return nil, fmt.Errorf("unsupported gct version %q", strings.Join(version, "\t"))
	}
	dims, err := tsv.Read()
	if err != nil {
		return nil, fmt.Errorf("reading gct dimensions: %w", err)
	}
	if len(dims) < 2 {
		return nil, fmt.Errorf("malformed gct dimension line %q", strings.Join(dims, "\t"))
	}
	nrows, err := strconv.Atoi(dims[0])
	if err != nil {
		return nil, fmt.Errorf("malformed gct row count %q", dims[0])
	}
	header, err := tsv.Read()
	if err != nil {
		return nil, fmt.Errorf("reading gct header: %w", err)
	}
	if len(header) < 2 || header[0] != "Name" {
		return nil, fmt.Errorf("malformed gct header %q", strings.Join(header, "\t"))
	}

	out := &GCT{}
	var colidx []int // file column -> output column, -1 if dropped
	for _, id := range header[2:] {
		if keepCol != nil && !keepCol(id) {
			colidx = append(colidx, -1)
			continue
		}
		colidx = append(colidx, len(out.Columns))
		out.Columns = append(out.Columns, id)
	}
	out.Profiles = make([][]float64, len(out.Columns))

	for row := 0; ; row++ {
		rec, err := tsv.Read()
		if err == io.EOF {
			if row != nrows {
				log.Warnf("gct declared %d rows, found %d", nrows, row)
			}
			return out, nil
		} else if err != nil {
			return nil, fmt.Errorf("gct data row %d: %w", row, err)
		}
		if len(rec) != len(header) {
			return nil, fmt.Errorf("gct data row %d has %d fields, want %d", row, len(rec), len(header))
		}
		if keepRow != nil && !keepRow(rec[0]) {
			continue
		}
		out.Genes = append(out.Genes, rec[0])
		for i, v := range rec[2:] {
			k := colidx[i]
			if k < 0 {
				continue
			}
			x, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fmt.Errorf("gct data row %d column %s: %w", row, header[2+i], err)
			}
			out.Profiles[k] = append(out.Profiles[k], x)
		}
	}
}

// WriteGCT writes ds as a GCT 1.2 matrix, genes as rows and samples
// as columns. Column ids are positional; use the metadata sidecar to
// recover per-sample fields.
func WriteGCT(w io.Writer, ds *Dataset) error {
	dims := ds.VectorLen()
	for i := range ds.Samples {
		if got := len(ds.Samples[i].Expr); got != dims {
			return &ShapeError{Want: dims, Got: got, Row: i}
		}
	}
	bufw := bufio.NewWriterSize(w, 1<<20)
	fmt.Fprintln(bufw, "#1.2")
	fmt.Fprintf(bufw, "%d\t%d\n", dims, len(ds.Samples))
	fmt.Fprint(bufw, "Name\tDescription")
	for i := range ds.Samples {
		fmt.Fprintf(bufw, "\tsample_%06d", i)
	}
	fmt.Fprintln(bufw)
	for g := 0; g < dims; g++ {
		name := fmt.Sprintf("g%d", g)
		if len(ds.Genes) == dims {
			name = ds.Genes[g]
		}
		fmt.Fprintf(bufw, "%s\t%s", name, name)
		for i := range ds.Samples {
			fmt.Fprintf(bufw, "\t%s", strconv.FormatFloat(ds.Samples[i].Expr[g], 'g', -1, 64))
		}
		fmt.Fprintln(bufw)
	}
	return bufw.Flush()
}

type exportGCT struct{}

func (cmd *exportGCT) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var err error
	defer func() {
		if err != nil {
			fmt.Fprintf(stderr, "%s\n", err)
		}
	}()
	flags := flag.NewFlagSet("", flag.ContinueOnError)
	flags.SetOutput(stderr)
	pprof := flags.String("pprof", "", "serve Go profile data at http://`[addr]:port`")
	inputFilename := flags.String("i", "-", "input `file` (dataset)")
	outputFilename := flags.String("o", "-", "output gct `file` (.gz to compress)")
	metaFilename := flags.String("output-metadata", "", "also write per-sample metadata tsv `file`")
	err = flags.Parse(args)
	if err == flag.ErrHelp {
		err = nil
		return 0
	} else if err != nil {
		return 2
	}

	if *pprof != "" {
		go func() {
			log.Println(http.ListenAndServe(*pprof, nil))
		}()
	}

	log.Print("reading")
	ds, err := readDatasetFile(*inputFilename, stdin)
	if err != nil {
		return 1
	}
	log.Printf("reading done, %d samples x %d genes", ds.Len(), ds.VectorLen())

	var outfile io.WriteCloser
	if *outputFilename == "-" {
		outfile = nopCloser{stdout}
	} else {
		outfile, err = os.OpenFile(*outputFilename, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0666)
		if err != nil {
			return 1
		}
		defer outfile.Close()
	}
	var w io.Writer = outfile
	var gzw *pgzip.Writer
	if strings.HasSuffix(*outputFilename, ".gz") {
		gzw = pgzip.NewWriter(outfile)
		w = gzw
	}
	err = WriteGCT(w, ds)
	if err != nil {
		return 1
	}
	if gzw != nil {
		err = gzw.Close()
		if err != nil {
			return 1
		}
	}
	err = outfile.Close()
	if err != nil {
		return 1
	}

	if *metaFilename != "" {
		err = writeSampleMetadataTSV(*metaFilename, ds)
		if err != nil {
			return 1
		}
	}
	return 0
}

// writeSampleMetadataTSV writes one row per sample with every
// metadata field, including the extended-schema annotations when the
// dataset has them.
func writeSampleMetadataTSV(fnm string, ds *Dataset) error {
	f, err := os.OpenFile(fnm, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0666)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	w.Comma = '\t'
	header := []string{"sample", "cell_line", "compound", "pert_type", "dose", "dose_unit", "time", "time_unit"}
	if ds.Schema == SchemaExtended {
		header = append(header, "touchstone", "clinical_phase", "moa", "target")
	}
	if err := w.Write(header); err != nil {
		return err
	}
	for i := range ds.Samples {
		s := &ds.Samples[i]
		rec := []string{
			fmt.Sprintf("sample_%06d", i),
			s.CellLine,
			s.Compound,
			s.PertType,
			strconv.FormatFloat(s.Dose, 'g', -1, 64),
			s.DoseUnit,
			strconv.FormatFloat(s.Time, 'g', -1, 64),
			s.TimeUnit,
		}
		if ds.Schema == SchemaExtended {
			rec = append(rec, strconv.FormatBool(s.Touchstone), s.ClinicalPhase, s.MOA, s.Target)
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}
