// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package lint

import (
	"fmt"
	"io"
	"strings"

	"github.com/deploy2zenodo/yaml2script/internal/extract"
)

// Result holds the outcome of linting the jobs of a document.
type Result struct {
	Checked    int
	Failed     int
	FailedJobs []string
}

// Total returns the number of jobs processed.
func (r Result) Total() int {
	return r.Checked + r.Failed
}

// HasFailures reports whether any job failed extraction or linting.
func (r Result) HasFailures() bool {
	return r.Failed > 0
}

// CheckJob extracts the script of job and lints it with c. Findings and a
// status line go to w.
func CheckJob(ex *extract.Extractor, doc *extract.Document, c Checker, job string, w io.Writer) error {
	script, err := ex.Extract(doc, job)
	if err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", job, err)
		return err
	}
	if err := c.Check(strings.NewReader(script), w); err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", job, err)
		return err
	}
	fmt.Fprintf(w, "checked: %s\n", job)
	return nil
}

// CheckJobs lints every job listed by doc.Jobs, printing per-job status to
// w and returning a summary.
func CheckJobs(ex *extract.Extractor, doc *extract.Document, c Checker, w io.Writer) Result {
	var result Result
	for _, job := range doc.Jobs() {
		if err := CheckJob(ex, doc, c, job, w); err != nil {
			result.Failed++
			result.FailedJobs = append(result.FailedJobs, job)
			continue
		}
		result.Checked++
	}
	fmt.Fprintf(w, "\nSummary: %d checked, %d failed (total: %d)\n",
		result.Checked, result.Failed, result.Total())
	return result
}
