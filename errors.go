// Copyright (C) The LINCS Processing Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package lincs

import "fmt"

// ArgumentError indicates a malformed filter argument, e.g. inverted
// dose bounds or a negative rank position. It is always returned
// before any sample has been scanned.
type ArgumentError struct {
	Reason string
}

func (e *ArgumentError) Error() string {
	return "invalid argument: " + e.Reason
}

// SelectorError indicates a field selector that is unknown, or not
// part of the dataset's schema (e.g. selecting moa on a basic-schema
// dataset), or not usable with the requested operation.
type SelectorError struct {
	Field  Field
	Schema Schema
	Name   string // set instead of Field when parsing failed
}

func (e *SelectorError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("invalid field selector %q", e.Name)
	}
	return fmt.Sprintf("field %s is not part of the %s schema", e.Field, e.Schema)
}

// RangeError indicates a frequency-ranked selection that asked for
// more ranked values than the dataset has distinct values.
type RangeError struct {
	Requested int
	Distinct  int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("rank position %d out of range: %d distinct values", e.Requested, e.Distinct)
}

// ShapeError indicates samples with inconsistent expression vector
// lengths, detected before any output row is produced.
type ShapeError struct {
	Want int
	Got  int
	Row  int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("expression vector length mismatch: sample %d has %d values, want %d", e.Row, e.Got, e.Want)
}
