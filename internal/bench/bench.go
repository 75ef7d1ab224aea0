// Package bench times a single strategy run and reports the result in
// the harness's uniform textual format.
package bench

import (
	"fmt"
	"io"
	"time"
)

// Result is the outcome of one successful trial. It is written once to
// the report sink and never mutated.
type Result struct {
	Label   string
	Rows    int
	Elapsed time.Duration
}

// Measure invokes fn and records wall-clock time from immediately
// before the call to immediately after it returns. Store provisioning
// and teardown must happen outside fn. If fn fails no Result is
// produced and the error propagates unmeasured.
func Measure(label string, rows int, fn func() error) (*Result, error) {
	start := time.Now()
	if err := fn(); err != nil {
		return nil, err
	}
	elapsed := time.Since(start)

	return &Result{Label: label, Rows: rows, Elapsed: elapsed}, nil
}

// Report writes one trial's two-line result block.
func Report(w io.Writer, r *Result) {
	fmt.Fprintf(w, "%s:\n          Total time for %d records %.3f secs\n",
		r.Label, r.Rows, r.Elapsed.Seconds())
}
