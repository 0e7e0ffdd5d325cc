// Copyright (C) The LINCS Processing Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package lincs

import (
	"bytes"

	"gopkg.in/check.v1"
)

type datasetSuite struct{}

var _ = check.Suite(&datasetSuite{})

func (s *datasetSuite) TestGobRoundTrip(c *check.C) {
	ds := extendedDataset()
	ds.Genes = []string{"100", "200"}
	var buf bytes.Buffer
	err := WriteDataset(&buf, ds)
	c.Assert(err, check.IsNil)
	got, err := ReadDataset(&buf)
	c.Assert(err, check.IsNil)
	c.Check(got.Schema, check.Equals, SchemaExtended)
	c.Check(got.Genes, check.DeepEquals, ds.Genes)
	c.Check(got.Samples, check.DeepEquals, ds.Samples)
}

func (s *datasetSuite) TestGobChunking(c *check.C) {
	ds := &Dataset{Schema: SchemaBasic}
	for i := 0; i < gobChunkSize+10; i++ {
		ds.Samples = append(ds.Samples, Sample{CellLine: "MCF7", Expr: []float64{float64(i)}})
	}
	var buf bytes.Buffer
	err := WriteDataset(&buf, ds)
	c.Assert(err, check.IsNil)
	got, err := ReadDataset(&buf)
	c.Assert(err, check.IsNil)
	c.Check(got.Samples, check.HasLen, gobChunkSize+10)
	c.Check(got.Samples[gobChunkSize].Expr[0], check.Equals, float64(gobChunkSize))
}

func (s *datasetSuite) TestDatasetFileGzip(c *check.C) {
	tmpdir := c.MkDir()
	ds := basicDataset()
	for _, fnm := range []string{tmpdir + "/ds.gob", tmpdir + "/ds.gob.gz"} {
		err := writeDatasetFile(fnm, nil, ds)
		c.Assert(err, check.IsNil)
		got, err := readDatasetFile(fnm, nil)
		c.Assert(err, check.IsNil)
		c.Check(got.Samples, check.DeepEquals, ds.Samples, check.Commentf("%s", fnm))
	}
}

func (s *datasetSuite) TestVectorLen(c *check.C) {
	c.Check((&Dataset{}).VectorLen(), check.Equals, 0)
	c.Check(basicDataset().VectorLen(), check.Equals, 2)
}
