// Copyright (C) The LINCS Processing Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package lincs

import (
	"encoding/binary"
	"flag"
	"fmt"
	"io"
	"math"
	"net/http"
	_ "net/http/pprof"

	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/blake2b"
)

// importer builds a sample dataset from a GCT expression matrix plus
// the instance (level 3) or signature (level 5) metadata file. By
// default only the 978 landmark genes named in -gene-info are kept.
type importer struct {
	matrixFile   string
	instInfoFile string
	sigInfoFile  string
	geneInfoFile string
	outputFile   string
	pertType     string
	allGenes     bool
}

func (cmd *importer) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var err error
	defer func() {
		if err != nil {
			fmt.Fprintf(stderr, "%s\n", err)
		}
	}()
	flags := flag.NewFlagSet("", flag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.StringVar(&cmd.matrixFile, "matrix", "", "gct expression matrix `file` (.gz ok)")
	flags.StringVar(&cmd.instInfoFile, "inst-info", "", "level 3 instance metadata `file`")
	flags.StringVar(&cmd.sigInfoFile, "sig-info", "", "level 5 signature metadata `file`")
	flags.StringVar(&cmd.geneInfoFile, "gene-info", "", "gene annotation `file` (landmark selection)")
	flags.StringVar(&cmd.outputFile, "o", "-", "output `file`")
	flags.StringVar(&cmd.pertType, "pert-type", "trt_cp", "perturbation `type` to keep")
	flags.BoolVar(&cmd.allGenes, "all-genes", false, "keep the full transcriptome instead of landmark genes only")
	pprof := flags.String("pprof", "", "serve Go profile data at http://`[addr]:port`")
	loglevel := flags.String("loglevel", "info", "logging threshold (trace, debug, info, warn, error, fatal, or panic)")
	err = flags.Parse(args)
	if err == flag.ErrHelp {
		err = nil
		return 0
	} else if err != nil {
		return 2
	} else if cmd.matrixFile == "" {
		fmt.Fprintln(stderr, "cannot import without -matrix argument")
		return 2
	} else if (cmd.instInfoFile == "") == (cmd.sigInfoFile == "") {
		fmt.Fprintln(stderr, "need exactly one of -inst-info and -sig-info")
		return 2
	} else if cmd.geneInfoFile == "" && !cmd.allGenes {
		fmt.Fprintln(stderr, "need -gene-info (or -all-genes)")
		return 2
	}

	if *pprof != "" {
		go func() {
			log.Println(http.ListenAndServe(*pprof, nil))
		}()
	}

	lvl, err := log.ParseLevel(*loglevel)
	if err != nil {
		return 2
	}
	log.SetLevel(lvl)

	ds, err := cmd.buildDataset(stdin)
	if err != nil {
		return 1
	}
	log.Printf("writing %d samples", ds.Len())
	err = writeDatasetFile(cmd.outputFile, stdout, ds)
	if err != nil {
		return 1
	}
	log.Print("writing done")
	return 0
}

func (cmd *importer) buildDataset(stdin io.Reader) (*Dataset, error) {
	var landmark map[string]bool
	if cmd.geneInfoFile != "" {
		rdr, err := zopen(cmd.geneInfoFile, stdin)
		if err != nil {
			return nil, err
		}
		genes, err := ReadGeneInfo(rdr)
		rdr.Close()
		if err != nil {
			return nil, err
		}
		landmark = LandmarkGenes(genes)
		log.Printf("%d genes in annotation, %d landmark", len(genes), len(landmark))
	}

	meta, order, err := cmd.loadMetadata(stdin)
	if err != nil {
		return nil, err
	}
	log.Printf("%d usable %s profiles in metadata", len(order), cmd.pertType)

	var keepRow func(string) bool
	if !cmd.allGenes {
		keepRow = func(id string) bool { return landmark[id] }
	}
	keepCol := func(id string) bool { _, ok := meta[id]; return ok }

	log.Print("parsing expression matrix")
	rdr, err := zopen(cmd.matrixFile, stdin)
	if err != nil {
		return nil, err
	}
	gct, err := ReadGCT(rdr, keepRow, keepCol)
	if err != nil {
		rdr.Close()
		return nil, err
	}
	if err := rdr.Close(); err != nil {
		return nil, err
	}
	log.Printf("matrix parsed, %d genes x %d profiles", len(gct.Genes), len(gct.Columns))

	ds := &Dataset{Schema: SchemaBasic, Genes: gct.Genes}
	seen := map[[blake2b.Size256]byte]int{}
	dups := 0
	for k, id := range gct.Columns {
		s := meta[id]
		s.Expr = gct.Profiles[k]
		ds.Samples = append(ds.Samples, s)
		h := exprHash(s.Expr)
		if seen[h] > 0 {
			dups++
		}
		seen[h]++
	}
	if dups > 0 {
		log.Warnf("%d samples share an expression profile with an earlier sample", dups)
	}
	return ds, nil
}

// loadMetadata reads whichever of inst_info/sig_info was given and
// returns the usable profiles as half-built samples keyed by
// instance/signature id, plus the ids in file order.
func (cmd *importer) loadMetadata(stdin io.Reader) (map[string]Sample, []string, error) {
	meta := map[string]Sample{}
	var order []string
	if cmd.instInfoFile != "" {
		rdr, err := zopen(cmd.instInfoFile, stdin)
		if err != nil {
			return nil, nil, err
		}
		rows, err := ReadInstInfo(rdr)
		rdr.Close()
		if err != nil {
			return nil, nil, err
		}
		log.Printf("%d instances in metadata", len(rows))
		for _, row := range rows {
			if row.PertType != cmd.pertType {
				continue
			}
			// Level 3 dose units are inconsistent; keep the
			// dominant unit so doses stay comparable.
			if cmd.pertType == "trt_cp" && row.PertDoseUnit != "um" {
				continue
			}
			meta[row.InstID] = Sample{
				CellLine: row.CellID,
				Compound: row.PertID,
				PertType: row.PertType,
				Dose:     row.PertDose,
				DoseUnit: row.PertDoseUnit,
				Time:     row.PertTime,
				TimeUnit: row.PertTimeUnit,
			}
			order = append(order, row.InstID)
		}
		return meta, order, nil
	}
	rdr, err := zopen(cmd.sigInfoFile, stdin)
	if err != nil {
		return nil, nil, err
	}
	rows, err := ReadSigInfo(rdr)
	rdr.Close()
	if err != nil {
		return nil, nil, err
	}
	log.Printf("%d signatures in metadata", len(rows))
	for _, row := range rows {
		if row.PertType != cmd.pertType {
			continue
		}
		dose, doseUnit, err := row.SplitDose()
		if err != nil {
			return nil, nil, fmt.Errorf("signature %s: %w", row.SigID, err)
		}
		if doseUnit == missing {
			continue
		}
		time, timeUnit, err := row.SplitTime()
		if err != nil {
			return nil, nil, fmt.Errorf("signature %s: %w", row.SigID, err)
		}
		meta[row.SigID] = Sample{
			CellLine: row.CellID,
			Compound: row.PertID,
			PertType: row.PertType,
			Dose:     dose,
			DoseUnit: doseUnit,
			Time:     time,
			TimeUnit: timeUnit,
		}
		order = append(order, row.SigID)
	}
	return meta, order, nil
}

// exprHash fingerprints an expression vector for duplicate-profile
// detection.
func exprHash(expr []float64) [blake2b.Size256]byte {
	buf := make([]byte, len(expr)*8)
	for i, v := range expr {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	return blake2b.Sum256(buf)
}
