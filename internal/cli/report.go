package cli

import (
	"fmt"
	"io"

	"github.com/kailas-cloud/speechagg/internal/domain/run"
)

// printReport writes the per-dimension summary and every failed key, so failures can be retried by hand.
func printReport(w io.Writer, rep *run.Report) {
	for _, d := range rep.Dimensions {
		fmt.Fprintln(w, d.String())
		for _, f := range d.Failures {
			fmt.Fprintf(w, "  failed %s %q: %s\n", d.Dimension, f.Value, f.Reason)
		}
	}
	succeeded, failed, abandoned := rep.Totals()
	fmt.Fprintf(w, "total: %d succeeded, %d failed, %d abandoned\n", succeeded, failed, abandoned)
}
