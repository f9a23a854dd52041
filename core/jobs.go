package core

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/huangsam/finbench/internal/catalog"
	"github.com/huangsam/finbench/internal/contract"
	"github.com/huangsam/finbench/internal/parquet"
	"github.com/huangsam/finbench/schema"
)

// JobsFile is the default name of the job list below the output root.
const JobsFile = "jobs.txt"

// JobLine is one entry of the batch job list.
type JobLine struct {
	Dataset string
	Model   string
	Command string
}

// EnumerateJobs returns the Cartesian product of datasets and models, datasets
// outer and models inner, both in name order. When invoke is empty each model
// runs through its registry script, falling back to the finbench binary.
func EnumerateJobs(datasets []string, models []schema.ModelDescriptor, invoke string) []JobLine {
	ds := append([]string(nil), datasets...)
	sort.Strings(ds)
	ms := append([]schema.ModelDescriptor(nil), models...)
	sort.Slice(ms, func(i, j int) bool { return ms[i].Name < ms[j].Name })

	lines := make([]JobLine, 0, len(ds)*len(ms))
	for _, d := range ds {
		for _, m := range ms {
			prog := invoke
			if prog == "" {
				prog = m.Script
			}
			if prog == "" {
				prog = contract.DefaultInvoke
			}
			lines = append(lines, JobLine{
				Dataset: d,
				Model:   m.Name,
				Command: fmt.Sprintf("%s --dataset %s --model %s", prog, d, m.Name),
			})
		}
	}
	return lines
}

// JobsFromCatalog enumerates every catalog dataset against every registered model.
func JobsFromCatalog(cat *catalog.Catalog, reg *catalog.Registry, invoke string) []JobLine {
	return EnumerateJobs(cat.Names(), reg.All(), invoke)
}

// WriteJobs writes one command per line to path, replacing it atomically.
func WriteJobs(path string, lines []JobLine) error {
	return parquet.WriteAtomic(path, func(w io.Writer) error {
		var b strings.Builder
		for _, l := range lines {
			b.WriteString(l.Command)
			b.WriteByte('\n')
		}
		_, err := io.WriteString(w, b.String())
		return err
	})
}

// DefaultJobsPath returns <out>/jobs.txt.
func DefaultJobsPath(outDir string) string {
	return filepath.Join(outDir, JobsFile)
}
