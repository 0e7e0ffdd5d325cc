// Copyright (C) The LINCS Processing Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package lincs

import (
	"bytes"
	"os"

	"gopkg.in/check.v1"
)

type gctSuite struct{}

var _ = check.Suite(&gctSuite{})

func (s *gctSuite) TestReadGCT(c *check.C) {
	f, err := os.Open("testdata/matrix.gct")
	c.Assert(err, check.IsNil)
	defer f.Close()
	gct, err := ReadGCT(f, nil, nil)
	c.Assert(err, check.IsNil)
	c.Check(gct.Genes, check.DeepEquals, []string{"100", "200", "300", "400"})
	c.Check(gct.Columns, check.DeepEquals, []string{"i1", "i2", "i3", "i4", "i5", "i6"})
	c.Check(gct.Profiles[0], check.DeepEquals, []float64{0.1, 1.1, 2.1, 9})
	c.Check(gct.Profiles[5], check.DeepEquals, []float64{0.6, 1.6, 2.6, 9})
}

func (s *gctSuite) TestReadGCTRestricted(c *check.C) {
	f, err := os.Open("testdata/matrix.gct")
	c.Assert(err, check.IsNil)
	defer f.Close()
	landmark := map[string]bool{"100": true, "300": true}
	cols := map[string]bool{"i2": true, "i4": true}
	gct, err := ReadGCT(f, func(id string) bool { return landmark[id] }, func(id string) bool { return cols[id] })
	c.Assert(err, check.IsNil)
	c.Check(gct.Genes, check.DeepEquals, []string{"100", "300"})
	c.Check(gct.Columns, check.DeepEquals, []string{"i2", "i4"})
	c.Check(gct.Profiles[0], check.DeepEquals, []float64{0.2, 2.2})
	c.Check(gct.Profiles[1], check.DeepEquals, []float64{0.4, 2.4})
}

func (s *gctSuite) TestReadGCTBadVersion(c *check.C) {
	_, err := ReadGCT(bytes.NewBufferString("#1.3\n1\t1\nName\tDescription\ts1\ng\tg\t1\n"), nil, nil)
	c.Check(err, check.ErrorMatches, `unsupported gct version.*`)
}

func (s *gctSuite) TestWriteReadRoundTrip(c *check.C) {
	ds := basicDataset()
	ds.Genes = []string{"100", "200"}
	var buf bytes.Buffer
	err := WriteGCT(&buf, ds)
	c.Assert(err, check.IsNil)
	gct, err := ReadGCT(&buf, nil, nil)
	c.Assert(err, check.IsNil)
	c.Check(gct.Genes, check.DeepEquals, ds.Genes)
	c.Assert(gct.Columns, check.HasLen, ds.Len())
	for i := range ds.Samples {
		c.Check(gct.Profiles[i], check.DeepEquals, ds.Samples[i].Expr)
	}
}

func (s *gctSuite) TestWriteGCTShapeMismatch(c *check.C) {
	ds := basicDataset()
	ds.Samples[2].Expr = []float64{1}
	var buf bytes.Buffer
	err := WriteGCT(&buf, ds)
	c.Check(err, check.FitsTypeOf, &ShapeError{})
}
