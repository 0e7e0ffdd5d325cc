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

	"github.com/kshedden/gonpy"
	log "github.com/sirupsen/logrus"
)

// exportNumpy writes the expression block of a dataset as a numpy
// matrix (one row per sample, one column per gene) plus a metadata
// csv whose rows line up with the matrix rows.
type exportNumpy struct{}

func (cmd *exportNumpy) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
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
	outputDir := flags.String("output-dir", ".", "output `directory` for matrix.npy and metadata.csv")
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
	log.Printf("reading done, %d samples", ds.Len())

	out, rows, cols, err := samples2array(ds)
	if err != nil {
		return 1
	}

	output, err := os.OpenFile(*outputDir+"/matrix.npy", os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0666)
	if err != nil {
		return 1
	}
	defer output.Close()
	bufw := bufio.NewWriter(output)
	npw, err := gonpy.NewWriter(nopCloser{bufw})
	if err != nil {
		return 1
	}
	npw.Shape = []int{rows, cols}
	err = npw.WriteFloat64(out)
	if err != nil {
		return 1
	}
	err = bufw.Flush()
	if err != nil {
		return 1
	}
	err = output.Close()
	if err != nil {
		return 1
	}
	log.Printf("wrote %d x %d matrix", rows, cols)

	err = writeMetadataCSV(*outputDir+"/metadata.csv", ds)
	if err != nil {
		return 1
	}
	return 0
}

// samples2array flattens the expression vectors into a row-major
// float64 array, checking that every sample has the same vector
// length first.
func samples2array(ds *Dataset) (data []float64, rows, cols int, err error) {
	rows = len(ds.Samples)
	cols = ds.VectorLen()
	for i := range ds.Samples {
		if got := len(ds.Samples[i].Expr); got != cols {
			return nil, 0, 0, &ShapeError{Want: cols, Got: got, Row: i}
		}
	}
	data = make([]float64, rows*cols)
	for row := range ds.Samples {
		copy(data[row*cols:(row+1)*cols], ds.Samples[row].Expr)
	}
	return
}

// writeMetadataCSV writes the four trailing metadata columns of the
// flat table, one row per sample, in matrix row order.
func writeMetadataCSV(fnm string, ds *Dataset) error {
	f, err := os.OpenFile(fnm, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0666)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.Write([]string{"cell_line", "compound", "dose", "time"}); err != nil {
		return err
	}
	for i := range ds.Samples {
		s := &ds.Samples[i]
		err := w.Write([]string{
			s.CellLine,
			s.Compound,
			strconv.FormatFloat(s.Dose, 'g', -1, 64),
			strconv.FormatFloat(s.Time, 'g', -1, 64),
		})
		if err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}
