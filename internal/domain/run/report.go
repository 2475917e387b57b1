package run

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/kailas-cloud/speechagg/internal/domain/aggregation"
)

// KeyFailure records a failed key with enough context to retry it by hand.
type KeyFailure struct {
	Value  string
	Reason string
}

// DimensionReport summarises one dimension's run.
type DimensionReport struct {
	Dimension  aggregation.Dimension
	Enumerated int
	Succeeded  int
	Failed     int
	Abandoned  int
	Failures   []KeyFailure
	Completed  []string
	Pruned     []string
	Aborted    error
	Duration   time.Duration
}

// NewDimensionReport starts a report for d.
func NewDimensionReport(d aggregation.Dimension) *DimensionReport {
	return &DimensionReport{Dimension: d}
}

// Record folds one outcome into the report.
func (r *DimensionReport) Record(o Outcome) {
	if o.OK() {
		r.Succeeded++
		r.Completed = append(r.Completed, o.Key().Value)
		return
	}
	r.Failed++
	reason := "unknown"
	if o.Err() != nil {
		reason = o.Err().Error()
	}
	r.Failures = append(r.Failures, KeyFailure{Value: o.Key().Value, Reason: reason})
}

// Finish sorts key lists and derives the abandoned count from what was enumerated.
func (r *DimensionReport) Finish(d time.Duration) {
	r.Duration = d
	slices.Sort(r.Completed)
	slices.Sort(r.Pruned)
	slices.SortFunc(r.Failures, func(a, b KeyFailure) int { return strings.Compare(a.Value, b.Value) })
	if left := r.Enumerated - r.Succeeded - r.Failed; left > 0 {
		r.Abandoned = left
	}
}

// OK reports a dimension that ran to completion without failed keys.
func (r *DimensionReport) OK() bool {
	return r.Aborted == nil && r.Failed == 0 && r.Abandoned == 0
}

func (r *DimensionReport) String() string {
	s := fmt.Sprintf("%s: %d keys, %d succeeded, %d failed, %d abandoned in %s",
		r.Dimension, r.Enumerated, r.Succeeded, r.Failed, r.Abandoned, r.Duration.Round(time.Millisecond))
	if len(r.Pruned) > 0 {
		s += fmt.Sprintf(", %d stale pruned", len(r.Pruned))
	}
	if r.Aborted != nil {
		s += " (aborted: " + r.Aborted.Error() + ")"
	}
	return s
}

// Report is the outcome of a whole run across dimensions.
type Report struct {
	Dimensions []*DimensionReport
}

// OK reports whether every dimension completed without failures.
func (r *Report) OK() bool {
	for _, d := range r.Dimensions {
		if !d.OK() {
			return false
		}
	}
	return true
}

// Totals sums succeeded, failed and abandoned keys across dimensions.
func (r *Report) Totals() (succeeded, failed, abandoned int) {
	for _, d := range r.Dimensions {
		succeeded += d.Succeeded
		failed += d.Failed
		abandoned += d.Abandoned
	}
	return succeeded, failed, abandoned
}
