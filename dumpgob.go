// Copyright (C) The LINCS Processing Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package lincs

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"net/http"
	_ "net/http/pprof"
	"os"

	log "github.com/sirupsen/logrus"
)

// dumpGob prints a plain-text rendering of a dataset gob for
// debugging.
type dumpGob struct{}

func (cmd *dumpGob) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
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
	outputFilename := flags.String("o", "-", "output `file`")
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

	ds, err := readDatasetFile(*inputFilename, stdin)
	if err != nil {
		return 1
	}

	var output io.WriteCloser
	if *outputFilename == "-" {
		output = nopCloser{stdout}
	} else {
		output, err = os.OpenFile(*outputFilename, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0666)
		if err != nil {
			return 1
		}
		defer output.Close()
	}
	bufw := bufio.NewWriterSize(output, 1<<23)

	fmt.Fprintf(bufw, "schema %s, genes %d\n", ds.Schema, len(ds.Genes))
	for i := range ds.Samples {
		s := &ds.Samples[i]
		fmt.Fprintf(bufw, "sample %d: cell %q, compound %q, dose %g %s, time %g %s, len(expr) %d",
			i, s.CellLine, s.Compound, s.Dose, s.DoseUnit, s.Time, s.TimeUnit, len(s.Expr))
		if ds.Schema == SchemaExtended {
			fmt.Fprintf(bufw, ", touchstone %v, phase %q, moa %q, target %q",
				s.Touchstone, s.ClinicalPhase, s.MOA, s.Target)
		}
		fmt.Fprintln(bufw)
	}
	fmt.Fprintf(bufw, "total: %d samples\n", ds.Len())
	err = bufw.Flush()
	if err != nil {
		return 1
	}
	err = output.Close()
	if err != nil {
		return 1
	}
	return 0
}
