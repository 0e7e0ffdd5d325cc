// Copyright (C) The LINCS Processing Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package lincs

import (
	"fmt"
	"strconv"
	"strings"
)

// Sample is one perturbational gene expression profile: the
// experimental metadata for a single instance/signature plus its
// expression vector (978 landmark genes, or the full transcriptome).
//
// CellLine through TimeUnit are populated by import (SchemaBasic).
// Touchstone, ClinicalPhase, MOA, and Target are populated by annotate
// (SchemaExtended). MOA and Target hold zero or more tags joined by
// "|", e.g. "EGFR inhibitor|HER2 inhibitor".
//
// Samples are never modified after they are built; filters select
// subsets without touching the underlying records.
type Sample struct {
	CellLine      string
	Compound      string
	PertType      string
	Dose          float64
	DoseUnit      string
	Time          float64
	TimeUnit      string
	Touchstone    bool
	ClinicalPhase string
	MOA           string
	Target        string
	Expr          []float64
}

// Schema says which metadata fields of a dataset's samples are
// populated. SchemaExtended is a strict superset of SchemaBasic.
type Schema int

const (
	SchemaBasic Schema = iota
	SchemaExtended
)

func (s Schema) String() string {
	switch s {
	case SchemaBasic:
		return "basic"
	case SchemaExtended:
		return "extended"
	default:
		return fmt.Sprintf("schema(%d)", int(s))
	}
}

// Field selects one metadata field of a Sample. The integer values
// are stable and match the indicator codes accepted on the command
// line: 0=cell_line 1=compound 2=dose 3=time 4=touchstone
// 5=clinical_phase 6=moa 7=target.
type Field int

const (
	FieldCellLine Field = iota
	FieldCompound
	FieldDose
	FieldTime
	FieldTouchstone
	FieldClinicalPhase
	FieldMOA
	FieldTarget
)

var fieldNames = map[Field]string{
	FieldCellLine:      "cell_line",
	FieldCompound:      "compound",
	FieldDose:          "dose",
	FieldTime:          "time",
	FieldTouchstone:    "touchstone",
	FieldClinicalPhase: "clinical_phase",
	FieldMOA:           "moa",
	FieldTarget:        "target",
}

func (f Field) String() string {
	if name, ok := fieldNames[f]; ok {
		return name
	}
	return fmt.Sprintf("field(%d)", int(f))
}

// ParseField accepts a field name ("cell_line", "moa", ...) or its
// integer code.
func ParseField(s string) (Field, error) {
	for f, name := range fieldNames {
		if s == name {
			return f, nil
		}
	}
	if n, err := strconv.Atoi(s); err == nil {
		f := Field(n)
		if _, ok := fieldNames[f]; ok {
			return f, nil
		}
	}
	return 0, &SelectorError{Name: s}
}

// Tagged reports whether f holds a "|"-joined tag list rather than a
// scalar. Touchstone is a scalar even though it only exists in the
// extended schema.
func (f Field) Tagged() bool {
	return f == FieldClinicalPhase || f == FieldMOA || f == FieldTarget
}

// in reports whether f is part of schema s.
func (f Field) in(s Schema) bool {
	if _, ok := fieldNames[f]; !ok {
		return false
	}
	return s == SchemaExtended || f <= FieldTime
}

// value returns the scalar value of field f. Dose and time are
// float64, touchstone is bool, everything else is string (for the tag
// fields, the raw "|"-joined form).
func (s *Sample) value(f Field) interface{} {
	switch f {
	case FieldCellLine:
		return s.CellLine
	case FieldCompound:
		return s.Compound
	case FieldDose:
		return s.Dose
	case FieldTime:
		return s.Time
	case FieldTouchstone:
		return s.Touchstone
	case FieldClinicalPhase:
		return s.ClinicalPhase
	case FieldMOA:
		return s.MOA
	case FieldTarget:
		return s.Target
	default:
		panic("unknown field " + f.String())
	}
}

// tags splits the value of a tag field. An empty field has no tags.
func (s *Sample) tags(f Field) []string {
	v, _ := s.value(f).(string)
	if v == "" {
		return nil
	}
	return strings.Split(v, "|")
}
