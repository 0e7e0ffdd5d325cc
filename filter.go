// Copyright (C) The LINCS Processing Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package lincs

import (
	"flag"
	"fmt"
	"io"
	"math"
	"net/http"
	_ "net/http/pprof"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Match returns the samples whose field f is a member of values, in
// their original order. An empty query set is legal and selects
// nothing. Values must have the field's natural type (string, float64
// for dose/time, bool for touchstone); no coercion is attempted.
func (ds *Dataset) Match(f Field, values []interface{}) (*Dataset, error) {
	if err := ds.checkField(f); err != nil {
		return nil, err
	}
	query := make(map[interface{}]bool, len(values))
	for _, v := range values {
		query[v] = true
	}
	var keep []Sample
	for i := range ds.Samples {
		if query[ds.Samples[i].value(f)] {
			keep = append(keep, ds.Samples[i])
		}
	}
	return ds.subset(keep), nil
}

// MatchTags returns the samples whose tag field f ("|"-joined list)
// shares at least one tag with the query set. Each matching sample
// appears exactly once. Only clinical_phase, moa, and target support
// tag matching.
func (ds *Dataset) MatchTags(f Field, tags []string) (*Dataset, error) {
	if !f.Tagged() {
		return nil, &ArgumentError{Reason: fmt.Sprintf("field %s is not a tag field", f)}
	}
	if err := ds.checkField(f); err != nil {
		return nil, err
	}
	query := make(map[string]bool, len(tags))
	for _, t := range tags {
		query[t] = true
	}
	var keep []Sample
	for i := range ds.Samples {
		for _, tag := range ds.Samples[i].tags(f) {
			if query[tag] {
				keep = append(keep, ds.Samples[i])
				break
			}
		}
	}
	return ds.subset(keep), nil
}

// DoseBetween returns the samples whose dose lies strictly between
// min and max. Both bounds are exclusive: a sample at exactly min or
// max is dropped.
func (ds *Dataset) DoseBetween(min, max float64) (*Dataset, error) {
	if !(min < max) {
		return nil, &ArgumentError{Reason: fmt.Sprintf("dose bounds inverted: min %v, max %v", min, max)}
	}
	var keep []Sample
	for i := range ds.Samples {
		if d := ds.Samples[i].Dose; d > min && d < max {
			keep = append(keep, ds.Samples[i])
		}
	}
	return ds.subset(keep), nil
}

type filtercmd struct{}

func (cmd *filtercmd) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
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
	cells := flags.String("cells", "", "keep samples of these cell lines (comma-separated)")
	compounds := flags.String("compounds", "", "keep samples of these compounds (comma-separated)")
	doses := flags.String("doses", "", "keep samples at these exact doses (comma-separated)")
	times := flags.String("times", "", "keep samples at these exact times (comma-separated)")
	doseMin := flags.Float64("dose-min", math.NaN(), "keep samples with dose strictly greater than `min`")
	doseMax := flags.Float64("dose-max", math.NaN(), "keep samples with dose strictly less than `max`")
	touchstone := flags.String("touchstone", "", "keep touchstone (`true`) or non-touchstone (`false`) samples")
	phases := flags.String("phases", "", "keep samples whose compound is in one of these clinical phases (comma-separated)")
	moa := flags.String("moa", "", "keep samples whose compound has one of these mechanisms of action (comma-separated)")
	targets := flags.String("targets", "", "keep samples whose compound hits one of these targets (comma-separated)")
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

	if *cells != "" {
		ds, err = ds.Match(FieldCellLine, stringValues(*cells))
		if err != nil {
			return 1
		}
		log.Printf("%d samples after cell line filter", ds.Len())
	}
	if *compounds != "" {
		ds, err = ds.Match(FieldCompound, stringValues(*compounds))
		if err != nil {
			return 1
		}
		log.Printf("%d samples after compound filter", ds.Len())
	}
	if *doses != "" {
		var vals []interface{}
		vals, err = floatValues(*doses)
		if err != nil {
			return 2
		}
		ds, err = ds.Match(FieldDose, vals)
		if err != nil {
			return 1
		}
		log.Printf("%d samples after dose filter", ds.Len())
	}
	if *times != "" {
		var vals []interface{}
		vals, err = floatValues(*times)
		if err != nil {
			return 2
		}
		ds, err = ds.Match(FieldTime, vals)
		if err != nil {
			return 1
		}
		log.Printf("%d samples after time filter", ds.Len())
	}
	if !math.IsNaN(*doseMin) || !math.IsNaN(*doseMax) {
		if math.IsNaN(*doseMin) || math.IsNaN(*doseMax) {
			err = &ArgumentError{Reason: "-dose-min and -dose-max must be given together"}
			return 2
		}
		ds, err = ds.DoseBetween(*doseMin, *doseMax)
		if err != nil {
			return 1
		}
		log.Printf("%d samples after dose range filter", ds.Len())
	}
	if *touchstone != "" {
		var ts bool
		ts, err = strconv.ParseBool(*touchstone)
		if err != nil {
			return 2
		}
		ds, err = ds.Match(FieldTouchstone, []interface{}{ts})
		if err != nil {
			return 1
		}
		log.Printf("%d samples after touchstone filter", ds.Len())
	}
	for _, tf := range []struct {
		field Field
		arg   string
	}{
		{FieldClinicalPhase, *phases},
		{FieldMOA, *moa},
		{FieldTarget, *targets},
	} {
		if tf.arg == "" {
			continue
		}
		ds, err = ds.MatchTags(tf.field, strings.Split(tf.arg, ","))
		if err != nil {
			return 1
		}
		log.Printf("%d samples after %s filter", ds.Len(), tf.field)
	}

	log.Print("writing")
	err = writeDatasetFile(*outputFilename, stdout, ds)
	if err != nil {
		return 1
	}
	log.Print("writing done")
	return 0
}

func stringValues(arg string) []interface{} {
	var vals []interface{}
	for _, s := range strings.Split(arg, ",") {
		vals = append(vals, s)
	}
	return vals
}

func floatValues(arg string) ([]interface{}, error) {
	var vals []interface{}
	for _, s := range strings.Split(arg, ",") {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, err
		}
		vals = append(vals, v)
	}
	return vals, nil
}
