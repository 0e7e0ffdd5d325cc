// Copyright (C) The LINCS Processing Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package lincs

import (
	"bytes"
	"encoding/json"

	"gopkg.in/check.v1"
)

type statsSuite struct{}

var _ = check.Suite(&statsSuite{})

func (s *statsSuite) TestDoStats(c *check.C) {
	var buf bytes.Buffer
	err := (&statscmd{topN: 2}).doStats(basicDataset(), &buf)
	c.Assert(err, check.IsNil)
	var ret struct {
		Samples               int
		UniqueCellLines       int
		UniqueDoses           int
		MostFrequentCellLines []struct {
			Value interface{}
			Count int
		}
	}
	err = json.Unmarshal(buf.Bytes(), &ret)
	c.Assert(err, check.IsNil)
	c.Check(ret.Samples, check.Equals, 6)
	c.Check(ret.UniqueCellLines, check.Equals, 3)
	c.Check(ret.UniqueDoses, check.Equals, 5)
	c.Assert(ret.MostFrequentCellLines, check.HasLen, 2)
	c.Check(ret.MostFrequentCellLines[0].Value, check.Equals, "MCF7")
	c.Check(ret.MostFrequentCellLines[0].Count, check.Equals, 3)
}

func (s *statsSuite) TestDoStatsTopExceedsDistinct(c *check.C) {
	var buf bytes.Buffer
	err := (&statscmd{topN: 100}).doStats(basicDataset(), &buf)
	c.Assert(err, check.IsNil)
	var ret struct {
		MostFrequentCellLines Ranking
	}
	err = json.Unmarshal(buf.Bytes(), &ret)
	c.Assert(err, check.IsNil)
	c.Check(ret.MostFrequentCellLines, check.HasLen, 3)
}

func (s *statsSuite) TestDoStatsNegativeTop(c *check.C) {
	var buf bytes.Buffer
	err := (&statscmd{topN: -1}).doStats(basicDataset(), &buf)
	c.Assert(err, check.FitsTypeOf, &ArgumentError{})
	c.Check(buf.Len(), check.Equals, 0)
}

func (s *statsSuite) TestNegativeTopFlag(c *check.C) {
	tmpdir := c.MkDir()
	err := writeDatasetFile(tmpdir+"/dataset.gob", nil, basicDataset())
	c.Assert(err, check.IsNil)
	var stdout, stderr bytes.Buffer
	exited := (&statscmd{}).RunCommand("stats", []string{
		"-i", tmpdir + "/dataset.gob",
		"-top", "-1",
	}, &bytes.Buffer{}, &stdout, &stderr)
	c.Check(exited, check.Equals, 2)
	c.Check(stderr.String(), check.Matches, `(?ms).*invalid argument: negative rank count -1\n`)
	c.Check(stdout.String(), check.Equals, "")
}
