// Copyright (C) The LINCS Processing Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package lincs

import (
	"bytes"
	"encoding/json"
	"io/ioutil"
	"os"

	"gopkg.in/check.v1"
)

type pipelineSuite struct{}

var _ = check.Suite(&pipelineSuite{})

// Import the testdata level 3 matrix, filter, annotate, select the
// most frequent cell lines, and summarize, checking each stage's
// output against the fixture contents.
func (s *pipelineSuite) TestImportFilterStats(c *check.C) {
	tmpdir := c.MkDir()

	exited := (&importer{}).RunCommand("import", []string{
		"-matrix", "testdata/matrix.gct",
		"-inst-info", "testdata/inst_info.txt",
		"-gene-info", "testdata/gene_info.txt",
		"-o", tmpdir + "/dataset.gob.gz",
	}, &bytes.Buffer{}, os.Stderr, os.Stderr)
	c.Assert(exited, check.Equals, 0)

	ds, err := readDatasetFile(tmpdir+"/dataset.gob.gz", nil)
	c.Assert(err, check.IsNil)
	c.Check(ds.Schema, check.Equals, SchemaBasic)
	c.Check(ds.Genes, check.DeepEquals, []string{"100", "200", "300"})
	c.Assert(ds.Samples, check.HasLen, 4)
	c.Check(ds.Samples[0].CellLine, check.Equals, "MCF7")
	c.Check(ds.Samples[0].Compound, check.Equals, "BRD-A")
	c.Check(ds.Samples[0].Dose, check.Equals, 1.0)
	c.Check(ds.Samples[0].Expr, check.DeepEquals, []float64{0.1, 1.1, 2.1})
	c.Check(ds.Samples[3].CellLine, check.Equals, "PC3")

	exited = (&filtercmd{}).RunCommand("filter", []string{
		"-i", tmpdir + "/dataset.gob.gz",
		"-o", tmpdir + "/filtered.gob",
		"-cells", "MCF7,HL60",
		"-dose-min", "0.5", "-dose-max", "20",
	}, &bytes.Buffer{}, os.Stderr, os.Stderr)
	c.Assert(exited, check.Equals, 0)

	ds, err = readDatasetFile(tmpdir+"/filtered.gob", nil)
	c.Assert(err, check.IsNil)
	c.Check(cellLines(ds), check.DeepEquals, []string{"MCF7", "MCF7", "HL60"})

	exited = (&annotatecmd{}).RunCommand("annotate", []string{
		"-i", tmpdir + "/filtered.gob",
		"-o", tmpdir + "/annotated.gob",
		"-pert-info", "testdata/pert_info.txt",
		"-drug-info", "testdata/drug_info.txt",
	}, &bytes.Buffer{}, os.Stderr, os.Stderr)
	c.Assert(exited, check.Equals, 0)

	ds, err = readDatasetFile(tmpdir+"/annotated.gob", nil)
	c.Assert(err, check.IsNil)
	c.Check(ds.Schema, check.Equals, SchemaExtended)
	c.Check(ds.Samples[0].Touchstone, check.Equals, true)
	c.Check(ds.Samples[0].MOA, check.Equals, "CDK inhibitor")
	c.Check(ds.Samples[0].Target, check.Equals, "CDK4|CDK6")
	c.Check(ds.Samples[2].ClinicalPhase, check.Equals, "Launched")

	exited = (&frequentcmd{}).RunCommand("frequent", []string{
		"-i", tmpdir + "/annotated.gob",
		"-o", tmpdir + "/frequent.gob",
		"-field", "cell_line",
		"-n", "1",
	}, &bytes.Buffer{}, os.Stderr, os.Stderr)
	c.Assert(exited, check.Equals, 0)

	ds, err = readDatasetFile(tmpdir+"/frequent.gob", nil)
	c.Assert(err, check.IsNil)
	c.Check(cellLines(ds), check.DeepEquals, []string{"MCF7", "MCF7"})

	var stats bytes.Buffer
	exited = (&statscmd{}).RunCommand("stats", []string{
		"-i", tmpdir + "/annotated.gob",
	}, &bytes.Buffer{}, &stats, os.Stderr)
	c.Assert(exited, check.Equals, 0)
	var ret struct {
		Samples         int
		Schema          string
		VectorLen       int
		UniqueCellLines int
	}
	err = json.Unmarshal(stats.Bytes(), &ret)
	c.Assert(err, check.IsNil)
	c.Check(ret.Samples, check.Equals, 3)
	c.Check(ret.Schema, check.Equals, "extended")
	c.Check(ret.VectorLen, check.Equals, 3)
	c.Check(ret.UniqueCellLines, check.Equals, 2)
}

func (s *pipelineSuite) TestImportSigInfo(c *check.C) {
	tmpdir := c.MkDir()

	exited := (&importer{}).RunCommand("import", []string{
		"-matrix", "testdata/sig_matrix.gct",
		"-sig-info", "testdata/sig_info.txt",
		"-gene-info", "testdata/gene_info.txt",
		"-o", tmpdir + "/dataset.gob",
	}, &bytes.Buffer{}, os.Stderr, os.Stderr)
	c.Assert(exited, check.Equals, 0)

	ds, err := readDatasetFile(tmpdir+"/dataset.gob", nil)
	c.Assert(err, check.IsNil)
	c.Assert(ds.Samples, check.HasLen, 1)
	c.Check(ds.Samples[0].CellLine, check.Equals, "MCF7")
	c.Check(ds.Samples[0].Dose, check.Equals, 3.33)
	c.Check(ds.Samples[0].DoseUnit, check.Equals, "um")
	c.Check(ds.Samples[0].Time, check.Equals, 24.0)
	c.Check(ds.Samples[0].Expr, check.DeepEquals, []float64{0.5, 1.5, 2.5})
}

func (s *pipelineSuite) TestImportMatrixFromStdin(c *check.C) {
	tmpdir := c.MkDir()

	matrix, err := os.Open("testdata/sig_matrix.gct")
	c.Assert(err, check.IsNil)
	defer matrix.Close()
	exited := (&importer{}).RunCommand("import", []string{
		"-matrix", "-",
		"-sig-info", "testdata/sig_info.txt",
		"-gene-info", "testdata/gene_info.txt",
		"-o", tmpdir + "/dataset.gob",
	}, matrix, os.Stderr, os.Stderr)
	c.Assert(exited, check.Equals, 0)

	ds, err := readDatasetFile(tmpdir+"/dataset.gob", nil)
	c.Assert(err, check.IsNil)
	c.Assert(ds.Samples, check.HasLen, 1)
	c.Check(ds.Samples[0].Expr, check.DeepEquals, []float64{0.5, 1.5, 2.5})
}

func (s *pipelineSuite) TestFilterBadValueArguments(c *check.C) {
	tmpdir := c.MkDir()
	err := writeDatasetFile(tmpdir+"/dataset.gob", nil, basicDataset())
	c.Assert(err, check.IsNil)

	for _, args := range [][]string{
		{"-i", tmpdir + "/dataset.gob", "-doses", "1,forty"},
		{"-i", tmpdir + "/dataset.gob", "-times", "six"},
		{"-i", tmpdir + "/dataset.gob", "-dose-min", "0.5"},
	} {
		exited := (&filtercmd{}).RunCommand("filter", args, &bytes.Buffer{}, &bytes.Buffer{}, &bytes.Buffer{})
		c.Check(exited, check.Equals, 2, check.Commentf("args %v", args))
	}
}

func (s *pipelineSuite) TestImportFlagValidation(c *check.C) {
	var stderr bytes.Buffer
	exited := (&importer{}).RunCommand("import", []string{
		"-matrix", "testdata/matrix.gct",
		"-inst-info", "testdata/inst_info.txt",
		"-sig-info", "testdata/sig_info.txt",
	}, &bytes.Buffer{}, &bytes.Buffer{}, &stderr)
	c.Check(exited, check.Equals, 2)
}

func (s *pipelineSuite) TestExportGCT(c *check.C) {
	tmpdir := c.MkDir()

	ds := basicDataset()
	ds.Genes = []string{"100", "200"}
	err := writeDatasetFile(tmpdir+"/dataset.gob", nil, ds)
	c.Assert(err, check.IsNil)

	exited := (&exportGCT{}).RunCommand("export-gct", []string{
		"-i", tmpdir + "/dataset.gob",
		"-o", tmpdir + "/out.gct",
		"-output-metadata", tmpdir + "/meta.tsv",
	}, &bytes.Buffer{}, os.Stderr, os.Stderr)
	c.Assert(exited, check.Equals, 0)

	f, err := os.Open(tmpdir + "/out.gct")
	c.Assert(err, check.IsNil)
	defer f.Close()
	gct, err := ReadGCT(f, nil, nil)
	c.Assert(err, check.IsNil)
	c.Check(gct.Genes, check.DeepEquals, ds.Genes)
	c.Assert(gct.Columns, check.HasLen, ds.Len())
	c.Check(gct.Profiles[0], check.DeepEquals, ds.Samples[0].Expr)

	meta, err := ioutil.ReadFile(tmpdir + "/meta.tsv")
	c.Assert(err, check.IsNil)
	c.Check(string(meta), check.Matches, `(?ms)sample\tcell_line\tcompound\tpert_type\tdose\tdose_unit\ttime\ttime_unit\nsample_000000\tMCF7\tX\ttrt_cp\t1\tum\t6\th\n.*`)
}

func (s *pipelineSuite) TestDumpGob(c *check.C) {
	tmpdir := c.MkDir()

	ds := basicDataset()
	ds.Genes = []string{"100", "200"}
	err := writeDatasetFile(tmpdir+"/dataset.gob", nil, ds)
	c.Assert(err, check.IsNil)

	var out bytes.Buffer
	exited := (&dumpGob{}).RunCommand("dumpgob", []string{
		"-i", tmpdir + "/dataset.gob",
	}, &bytes.Buffer{}, &out, os.Stderr)
	c.Assert(exited, check.Equals, 0)
	c.Check(out.String(), check.Matches, `(?ms)schema basic, genes 2\n.*total: 6 samples\n`)
}
