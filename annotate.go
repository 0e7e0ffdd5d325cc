// Copyright (C) The LINCS Processing Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package lincs

import (
	"flag"
	"fmt"
	"io"
	"net/http"
	_ "net/http/pprof"

	log "github.com/sirupsen/logrus"
)

// annotatecmd upgrades a basic-schema dataset to the extended schema
// by joining pert_info (touchstone status, pert_id to pert_iname) and
// the drug repurposing hub annotations (clinical phase, moa, target,
// both keyed by pert_iname).
type annotatecmd struct {
	pertInfoFile string
	drugInfoFile string
}

func (cmd *annotatecmd) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
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
	flags.StringVar(&cmd.pertInfoFile, "pert-info", "", "perturbation annotation `file`")
	flags.StringVar(&cmd.drugInfoFile, "drug-info", "", "drug repurposing hub annotation `file`")
	err = flags.Parse(args)
	if err == flag.ErrHelp {
		err = nil
		return 0
	} else if err != nil {
		return 2
	} else if cmd.pertInfoFile == "" {
		fmt.Fprintln(stderr, "cannot annotate without -pert-info argument")
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

	rdr, err := zopen(cmd.pertInfoFile, nil)
	if err != nil {
		return 1
	}
	perts, err := ReadPertInfo(rdr)
	rdr.Close()
	if err != nil {
		return 1
	}
	touchstone := TouchstoneByID(perts, "")
	names := NameByID(perts)

	var drugs map[string]*DrugInfo
	if cmd.drugInfoFile != "" {
		rdr, err = zopen(cmd.drugInfoFile, nil)
		if err != nil {
			return 1
		}
		var rows []*DrugInfo
		rows, err = ReadDrugInfo(rdr)
		rdr.Close()
		if err != nil {
			return 1
		}
		drugs = DrugsByName(rows)
		log.Printf("%d drug annotations", len(drugs))
	}

	out, err := Annotate(ds, touchstone, names, drugs)
	if err != nil {
		return 1
	}

	log.Print("writing")
	err = writeDatasetFile(*outputFilename, stdout, out)
	if err != nil {
		return 1
	}
	log.Print("writing done")
	return 0
}

// Annotate returns an extended-schema copy of ds with touchstone
// status and, where drug annotations exist for the sample's compound,
// clinical phase, mechanism of action, and targets. Samples without a
// drug annotation keep empty tag fields.
func Annotate(ds *Dataset, touchstone map[string]bool, names map[string]string, drugs map[string]*DrugInfo) (*Dataset, error) {
	if ds.Schema == SchemaExtended {
		return nil, &ArgumentError{Reason: "dataset already has the extended schema"}
	}
	out := &Dataset{Schema: SchemaExtended, Genes: ds.Genes}
	annotated := 0
	for i := range ds.Samples {
		s := ds.Samples[i]
		s.Touchstone = touchstone[s.Compound]
		if drug, ok := drugs[names[s.Compound]]; ok {
			s.ClinicalPhase = drug.ClinicalPhase
			s.MOA = drug.MOA
			s.Target = drug.Target
			annotated++
		}
		out.Samples = append(out.Samples, s)
	}
	if drugs != nil {
		log.Printf("%d of %d samples have drug annotations", annotated, len(ds.Samples))
	}
	return out, nil
}
