package publish

import (
	"fmt"
	"io"
	"time"

	"git.home.luguber.info/inful/sitepub/internal/copier"
	"git.home.luguber.info/inful/sitepub/internal/metrics"
	"git.home.luguber.info/inful/sitepub/internal/rewrite"
)

// Report describes one publish or rewrite run.
type Report struct {
	RunID    string
	Mode     rewrite.Mode
	Source   string // empty for rewrite-only runs
	Output   string
	Revision string // HEAD of the source work tree, if any
	Copy     *copier.Result
	Rewrite  *rewrite.Result
	Duration time.Duration
}

// Failed returns the number of per-item failures across both phases.
func (r *Report) Failed() int {
	n := 0
	if r.Copy != nil {
		n += len(r.Copy.Failures)
	}
	if r.Rewrite != nil {
		n += len(r.Rewrite.Failures)
	}
	return n
}

// Outcome classifies a finished run for metrics.
func (r *Report) Outcome() metrics.OutcomeLabel {
	if r.Failed() > 0 {
		return metrics.OutcomeWarning
	}
	return metrics.OutcomeSuccess
}

// Summary writes a human-readable summary of the run to w.
func (r *Report) Summary(w io.Writer) {
	if r.Source != "" {
		fmt.Fprintf(w, "Published %s -> %s (%s)\n", r.Source, r.Output, r.Mode)
	} else {
		fmt.Fprintf(w, "Rewrote %s (%s)\n", r.Output, r.Mode)
	}
	if r.Revision != "" {
		fmt.Fprintf(w, "  revision:  %s\n", shortRevision(r.Revision))
	}
	if c := r.Copy; c != nil {
		fmt.Fprintf(w, "  copied:    %d files, %d directories, %d bytes (%d skipped)\n", c.Copied, c.Dirs, c.Bytes, c.Skipped)
	}
	if rw := r.Rewrite; rw != nil {
		if rw.Scanned == 0 {
			fmt.Fprintln(w, "  rewritten: no HTML files found")
		} else {
			fmt.Fprintf(w, "  rewritten: %d of %d HTML files (%d unchanged)\n", rw.Updated, rw.Scanned, rw.Unchanged)
		}
		for _, f := range rw.UpdatedFiles {
			fmt.Fprintf(w, "    updated %s\n", f)
		}
	}
	if n := r.Failed(); n > 0 {
		fmt.Fprintf(w, "  failures:  %d\n", n)
		if r.Copy != nil {
			for _, f := range r.Copy.Failures {
				fmt.Fprintf(w, "    copy %s\n", f.Error())
			}
		}
		if r.Rewrite != nil {
			for _, f := range r.Rewrite.Failures {
				fmt.Fprintf(w, "    rewrite %s\n", f.Error())
			}
		}
	}
	fmt.Fprintf(w, "  duration:  %s\n", r.Duration.Round(time.Millisecond))
}
