// Copyright (C) The LINCS Processing Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package lincs

import "fmt"

// Table is a dataset flattened to one row per sample: every
// expression dimension in vector order, then cell_line, compound,
// dose, and time.
type Table struct {
	Columns []string
	Rows    [][]interface{}
}

// Flatten converts ds to a Table. Expression columns are named after
// the dataset's gene ids when those are known. All samples must have
// the same vector length; the check runs before any row is built.
func (ds *Dataset) Flatten() (*Table, error) {
	dims := ds.VectorLen()
	for i := range ds.Samples {
		if got := len(ds.Samples[i].Expr); got != dims {
			return nil, &ShapeError{Want: dims, Got: got, Row: i}
		}
	}
	cols := make([]string, 0, dims+4)
	for i := 0; i < dims; i++ {
		if len(ds.Genes) == dims {
			cols = append(cols, ds.Genes[i])
		} else {
			cols = append(cols, fmt.Sprintf("g%d", i))
		}
	}
	cols = append(cols, "cell_line", "compound", "dose", "time")
	tbl := &Table{Columns: cols}
	for i := range ds.Samples {
		s := &ds.Samples[i]
		row := make([]interface{}, 0, dims+4)
		for _, v := range s.Expr {
			row = append(row, v)
		}
		row = append(row, s.CellLine, s.Compound, s.Dose, s.Time)
		tbl.Rows = append(tbl.Rows, row)
	}
	return tbl, nil
}
