// Copyright (C) The LINCS Processing Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

// Loaders for the LINCS annotation files: gene_info.txt,
// inst_info.txt (level 3), sig_info.txt (level 5), pert_info.txt, and
// the drug repurposing hub annotations (repurposing_drugs_*.txt).
// All of them are tab-separated; the drug file additionally starts
// with "!" comment lines and is Latin-1 encoded.

package lincs

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"
	"golang.org/x/text/encoding/charmap"
)

// GeneInfo is one row of gene_info.txt. IsLM is "1" for the 978
// landmark genes that are directly measured.
type GeneInfo struct {
	GeneID string `csv:"gene_id"`
	Symbol string `csv:"gene_symbol"`
	IsLM   string `csv:"is_lm"`
}

// InstInfo is one row of inst_info.txt (level 3 instance metadata).
// Dose and time are already split into value and unit columns.
type InstInfo struct {
	InstID       string  `csv:"inst_id"`
	CellID       string  `csv:"cell_id"`
	PertID       string  `csv:"pert_id"`
	PertIName    string  `csv:"pert_iname"`
	PertType     string  `csv:"pert_type"`
	PertDose     float64 `csv:"pert_dose"`
	PertDoseUnit string  `csv:"pert_dose_unit"`
	PertTime     float64 `csv:"pert_time"`
	PertTimeUnit string  `csv:"pert_time_unit"`
}

// SigInfo is one row of sig_info.txt (level 5 signature metadata).
// Unlike inst_info, dose and time come as single "3.33 um" style
// columns; see SplitDose/SplitTime.
type SigInfo struct {
	SigID     string `csv:"sig_id"`
	CellID    string `csv:"cell_id"`
	PertID    string `csv:"pert_id"`
	PertIName string `csv:"pert_iname"`
	PertType  string `csv:"pert_type"`
	PertIDose string `csv:"pert_idose"`
	PertITime string `csv:"pert_itime"`
}

// PertInfo is one row of pert_info.txt.
type PertInfo struct {
	PertID       string `csv:"pert_id"`
	PertIName    string `csv:"pert_iname"`
	PertType     string `csv:"pert_type"`
	IsTouchstone bool   `csv:"is_touchstone"`
}

// DrugInfo is one row of the drug repurposing hub annotation file.
// MOA and Target hold "|"-joined tag lists.
type DrugInfo struct {
	PertIName     string `csv:"pert_iname"`
	ClinicalPhase string `csv:"clinical_phase"`
	MOA           string `csv:"moa"`
	Target        string `csv:"target"`
	DiseaseArea   string `csv:"disease_area"`
	Indication    string `csv:"indication"`
}

// missing is the sentinel the LINCS files use for absent values.
const missing = "-666"

func tsvReader(in io.Reader) gocsv.CSVReader {
	r := csv.NewReader(in)
	r.Comma = '\t'
	r.LazyQuotes = true
	return r
}

// splitValueUnit splits a "3.33 um" style column into its numeric
// value and unit. The "-666" sentinel becomes (-666, "-666"),
// matching the convention of the split columns in inst_info.
func splitValueUnit(s string) (float64, string, error) {
	if s == missing {
		return -666, missing, nil
	}
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return 0, "", fmt.Errorf("malformed value/unit pair %q", s)
	}
	v, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, "", fmt.Errorf("malformed value/unit pair %q: %w", s, err)
	}
	return v, fields[1], nil
}

// SplitDose returns the numeric dose and dose unit of si.
func (si *SigInfo) SplitDose() (float64, string, error) { return splitValueUnit(si.PertIDose) }

// SplitTime returns the numeric time and time unit of si.
func (si *SigInfo) SplitTime() (float64, string, error) { return splitValueUnit(si.PertITime) }

// ReadGeneInfo parses a gene_info.txt stream.
func ReadGeneInfo(rdr io.Reader) ([]*GeneInfo, error) {
	gocsv.SetCSVReader(tsvReader)
	var rows []*GeneInfo
	if err := gocsv.Unmarshal(rdr, &rows); err != nil {
		return nil, fmt.Errorf("parsing gene info: %w", err)
	}
	return rows, nil
}

// LandmarkGenes returns the set of landmark gene ids.
func LandmarkGenes(genes []*GeneInfo) map[string]bool {
	lm := map[string]bool{}
	for _, g := range genes {
		if g.IsLM == "1" {
			lm[g.GeneID] = true
		}
	}
	return lm
}

// ReadInstInfo parses an inst_info.txt stream.
func ReadInstInfo(rdr io.Reader) ([]*InstInfo, error) {
	gocsv.SetCSVReader(tsvReader)
	var rows []*InstInfo
	if err := gocsv.Unmarshal(rdr, &rows); err != nil {
		return nil, fmt.Errorf("parsing inst info: %w", err)
	}
	return rows, nil
}

// ReadSigInfo parses a sig_info.txt stream.
func ReadSigInfo(rdr io.Reader) ([]*SigInfo, error) {
	gocsv.SetCSVReader(tsvReader)
	var rows []*SigInfo
	if err := gocsv.Unmarshal(rdr, &rows); err != nil {
		return nil, fmt.Errorf("parsing sig info: %w", err)
	}
	return rows, nil
}

// ReadPertInfo parses a pert_info.txt stream.
func ReadPertInfo(rdr io.Reader) ([]*PertInfo, error) {
	gocsv.SetCSVReader(tsvReader)
	var rows []*PertInfo
	if err := gocsv.Unmarshal(rdr, &rows); err != nil {
		return nil, fmt.Errorf("parsing pert info: %w", err)
	}
	return rows, nil
}

// ReadDrugInfo parses a drug repurposing hub annotation stream. The
// file is Latin-1 encoded and starts with a block of "!" comment
// lines before the header.
func ReadDrugInfo(rdr io.Reader) ([]*DrugInfo, error) {
	buf := bufio.NewReader(charmap.ISO8859_1.NewDecoder().Reader(rdr))
	for {
		peek, err := buf.Peek(1)
		if err != nil {
			return nil, fmt.Errorf("parsing drug info: %w", err)
		}
		if peek[0] != '!' {
			break
		}
		if _, err := buf.ReadString('\n'); err != nil {
			return nil, fmt.Errorf("parsing drug info: %w", err)
		}
	}
	gocsv.SetCSVReader(tsvReader)
	var rows []*DrugInfo
	if err := gocsv.Unmarshal(buf, &rows); err != nil {
		return nil, fmt.Errorf("parsing drug info: %w", err)
	}
	return rows, nil
}

// TouchstoneByID maps pert_id to touchstone status for perturbations
// of the given type ("" = all types).
func TouchstoneByID(perts []*PertInfo, pertType string) map[string]bool {
	out := map[string]bool{}
	for _, p := range perts {
		if pertType != "" && p.PertType != pertType {
			continue
		}
		out[p.PertID] = p.IsTouchstone
	}
	return out
}

// TouchstoneByName is TouchstoneByID keyed by pert_iname.
func TouchstoneByName(perts []*PertInfo, pertType string) map[string]bool {
	out := map[string]bool{}
	for _, p := range perts {
		if pertType != "" && p.PertType != pertType {
			continue
		}
		out[p.PertIName] = p.IsTouchstone
	}
	return out
}

// NameByID maps pert_id to pert_iname.
func NameByID(perts []*PertInfo) map[string]string {
	out := map[string]string{}
	for _, p := range perts {
		out[p.PertID] = p.PertIName
	}
	return out
}

// DuplicateNames returns the pert_inames that map to more than one
// pert_id. See clue.io/connectopedia/some_perts_have_over_one_brdid.
func DuplicateNames(perts []*PertInfo) []string {
	count := map[string]int{}
	var order []string
	for _, p := range perts {
		if count[p.PertIName] == 0 {
			order = append(order, p.PertIName)
		}
		count[p.PertIName]++
	}
	var dup []string
	for _, name := range order {
		if count[name] > 1 {
			dup = append(dup, name)
		}
	}
	return dup
}

// DrugsByName indexes drug annotations by pert_iname.
func DrugsByName(drugs []*DrugInfo) map[string]*DrugInfo {
	out := map[string]*DrugInfo{}
	for _, d := range drugs {
		out[d.PertIName] = d
	}
	return out
}
