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
	"sort"

	log "github.com/sirupsen/logrus"
)

// ValueCount is one entry of a frequency ranking.
type ValueCount struct {
	Value interface{}
	Count int
}

// Ranking lists the distinct values of a field by descending
// occurrence count. Values with equal counts keep their
// first-encountered order.
type Ranking []ValueCount

func (r Ranking) String() string {
	s := ""
	for i, vc := range r {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("%v:%d", vc.Value, vc.Count)
	}
	return s
}

// values returns the ranked values at positions [start,end) as a
// query set for Match.
func (r Ranking) values(start, end int) []interface{} {
	vals := make([]interface{}, 0, end-start)
	for _, vc := range r[start:end] {
		vals = append(vals, vc.Value)
	}
	return vals
}

// Rank computes the frequency ranking of field f over ds.
func (ds *Dataset) Rank(f Field) (Ranking, error) {
	if err := ds.checkField(f); err != nil {
		return nil, err
	}
	counts := map[interface{}]int{}
	var order []interface{}
	for i := range ds.Samples {
		v := ds.Samples[i].value(f)
		if counts[v] == 0 {
			order = append(order, v)
		}
		counts[v]++
	}
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	ranking := make(Ranking, len(order))
	for i, v := range order {
		ranking[i] = ValueCount{Value: v, Count: counts[v]}
	}
	return ranking, nil
}

// MostFrequent returns the samples whose field f takes one of its n
// most frequent values, plus the full ranking. n must be strictly
// less than the number of distinct values present; asking for all of
// them (or more) is a RangeError, because at that point the
// "selection" would be the whole dataset.
func (ds *Dataset) MostFrequent(f Field, n int) (*Dataset, Ranking, error) {
	if n < 0 {
		return nil, nil, &ArgumentError{Reason: fmt.Sprintf("negative rank count %d", n)}
	}
	ranking, err := ds.Rank(f)
	if err != nil {
		return nil, nil, err
	}
	if n >= len(ranking) {
		return nil, nil, &RangeError{Requested: n, Distinct: len(ranking)}
	}
	out, err := ds.Match(f, ranking.values(0, n))
	if err != nil {
		return nil, nil, err
	}
	return out, ranking, nil
}

// RankRange returns the samples whose field f takes a value ranked in
// [start,end) by descending frequency, plus the full ranking.
// Requires 0 <= start <= end and end < the number of distinct values.
func (ds *Dataset) RankRange(f Field, start, end int) (*Dataset, Ranking, error) {
	if start < 0 {
		return nil, nil, &ArgumentError{Reason: fmt.Sprintf("negative rank position %d", start)}
	}
	if start > end {
		return nil, nil, &ArgumentError{Reason: fmt.Sprintf("rank start %d after end %d", start, end)}
	}
	ranking, err := ds.Rank(f)
	if err != nil {
		return nil, nil, err
	}
	if end >= len(ranking) {
		return nil, nil, &RangeError{Requested: end, Distinct: len(ranking)}
	}
	out, err := ds.Match(f, ranking.values(start, end))
	if err != nil {
		return nil, nil, err
	}
	return out, ranking, nil
}

type frequentcmd struct{}

func (cmd *frequentcmd) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
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
	fieldName := flags.String("field", "cell_line", "`field` to rank by frequency (name or 0-7 code)")
	topN := flags.Int("n", -1, "keep samples with one of the `N` most frequent values")
	start := flags.Int("start", 0, "first rank position to keep (with -end)")
	end := flags.Int("end", -1, "one past the last rank position to keep (with -start)")
	err = flags.Parse(args)
	if err == flag.ErrHelp {
		err = nil
		return 0
	} else if err != nil {
		return 2
	}
	if (*topN < 0) == (*end < 0) {
		err = &ArgumentError{Reason: "need exactly one of -n and -start/-end"}
		return 2
	}

	if *pprof != "" {
		go func() {
			log.Println(http.ListenAndServe(*pprof, nil))
		}()
	}

	field, err := ParseField(*fieldName)
	if err != nil {
		return 2
	}

	log.Print("reading")
	ds, err := readDatasetFile(*inputFilename, stdin)
	if err != nil {
		return 1
	}
	log.Printf("reading done, %d samples", ds.Len())

	var out *Dataset
	var ranking Ranking
	if *topN >= 0 {
		out, ranking, err = ds.MostFrequent(field, *topN)
	} else {
		out, ranking, err = ds.RankRange(field, *start, *end)
	}
	if err != nil {
		return 1
	}
	log.Printf("%d distinct %s values: %s", len(ranking), field, ranking)
	log.Printf("%d samples selected", out.Len())

	err = writeDatasetFile(*outputFilename, stdout, out)
	if err != nil {
		return 1
	}
	return 0
}
