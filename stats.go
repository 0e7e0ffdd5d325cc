// Copyright (C) The LINCS Processing Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package lincs

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	_ "net/http/pprof"
	"os"

	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"
)

// statscmd summarizes a dataset (and optionally the perturbation and
// drug annotation files) as a json document.
type statscmd struct {
	topN         int
	pertInfoFile string
	drugInfoFile string
}

func (cmd *statscmd) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
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
	flags.IntVar(&cmd.topN, "top", 3, "report the `N` most frequent values per field")
	flags.StringVar(&cmd.pertInfoFile, "pert-info", "", "also summarize this perturbation annotation `file`")
	flags.StringVar(&cmd.drugInfoFile, "drug-info", "", "also summarize this drug annotation `file`")
	err = flags.Parse(args)
	if err == flag.ErrHelp {
		err = nil
		return 0
	} else if err != nil {
		return 2
	} else if cmd.topN < 0 {
		err = &ArgumentError{Reason: fmt.Sprintf("negative rank count %d", cmd.topN)}
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
	bufw := bufio.NewWriter(output)
	err = cmd.doStats(ds, bufw)
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
	return 0
}

func (cmd *statscmd) doStats(ds *Dataset, output io.Writer) error {
	if cmd.topN < 0 {
		return &ArgumentError{Reason: fmt.Sprintf("negative rank count %d", cmd.topN)}
	}
	var ret struct {
		Samples               int
		Schema                string
		VectorLen             int
		UniqueCellLines       int
		UniqueCompounds       int
		UniqueDoses           int
		UniqueTimes           int
		MostFrequentCellLines Ranking
		MostFrequentCompounds Ranking
		MostFrequentDoses     Ranking
		ExpressionMean        float64
		ExpressionStdDev      float64
		Perturbations         map[string]int `json:",omitempty"`
		TouchstonePerts       int            `json:",omitempty"`
		DuplicatePertNames    []string       `json:",omitempty"`
		Drugs                 int            `json:",omitempty"`
		UniqueMOA             int            `json:",omitempty"`
		ClinicalPhases        map[string]int `json:",omitempty"`
	}
	ret.Samples = ds.Len()
	ret.Schema = ds.Schema.String()
	ret.VectorLen = ds.VectorLen()

	for _, fs := range []struct {
		field  Field
		unique *int
		top    *Ranking
	}{
		{FieldCellLine, &ret.UniqueCellLines, &ret.MostFrequentCellLines},
		{FieldCompound, &ret.UniqueCompounds, &ret.MostFrequentCompounds},
		{FieldDose, &ret.UniqueDoses, &ret.MostFrequentDoses},
		{FieldTime, &ret.UniqueTimes, nil},
	} {
		ranking, err := ds.Rank(fs.field)
		if err != nil {
			return err
		}
		*fs.unique = len(ranking)
		if fs.top != nil {
			n := cmd.topN
			if n > len(ranking) {
				n = len(ranking)
			}
			*fs.top = ranking[:n]
		}
	}

	var expr []float64
	for i := range ds.Samples {
		expr = append(expr, ds.Samples[i].Expr...)
	}
	if len(expr) > 0 {
		ret.ExpressionMean, ret.ExpressionStdDev = stat.MeanStdDev(expr, nil)
	}

	if cmd.pertInfoFile != "" {
		rdr, err := zopen(cmd.pertInfoFile, nil)
		if err != nil {
			return err
		}
		perts, err := ReadPertInfo(rdr)
		rdr.Close()
		if err != nil {
			return err
		}
		ret.Perturbations = map[string]int{}
		for _, p := range perts {
			ret.Perturbations[p.PertType]++
			if p.IsTouchstone {
				ret.TouchstonePerts++
			}
		}
		ret.DuplicatePertNames = DuplicateNames(perts)
	}

	if cmd.drugInfoFile != "" {
		rdr, err := zopen(cmd.drugInfoFile, nil)
		if err != nil {
			return err
		}
		drugs, err := ReadDrugInfo(rdr)
		rdr.Close()
		if err != nil {
			return err
		}
		ret.Drugs = len(drugs)
		moa := map[string]bool{}
		ret.ClinicalPhases = map[string]int{}
		for _, d := range drugs {
			moa[d.MOA] = true
			ret.ClinicalPhases[d.ClinicalPhase]++
		}
		ret.UniqueMOA = len(moa)
	}

	return json.NewEncoder(output).Encode(ret)
}
