package run

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kailas-cloud/speechagg/internal/domain/aggregation"
)

func TestSuccess(t *testing.T) {
	key := aggregation.NewKey(aggregation.DimensionSessions, "1")
	res := aggregation.NewResult(key, aggregation.EmptyFacets(), 0, 0)
	o := Success(key, &res, 1, time.Second)

	if !o.OK() || o.Status() != StatusOK {
		t.Errorf("Status() = %q", o.Status())
	}
	if o.Key() != key || o.Result() != &res || o.Err() != nil {
		t.Errorf("unexpected outcome: %+v", o)
	}
	if o.Attempts() != 1 || o.Duration() != time.Second {
		t.Errorf("Attempts()=%d Duration()=%s", o.Attempts(), o.Duration())
	}
}

func TestFailure(t *testing.T) {
	err := errors.New("boom")
	o := Failure(aggregation.NewKey(aggregation.DimensionSpeakers, "Anna"), err, 3, 0)

	if o.OK() || o.Status() != StatusFailed {
		t.Errorf("Status() = %q", o.Status())
	}
	if !errors.Is(o.Err(), err) || o.Result() != nil {
		t.Errorf("unexpected outcome: %+v", o)
	}
}

func TestDimensionReport(t *testing.T) {
	r := NewDimensionReport(aggregation.DimensionSessions)
	r.Enumerated = 4

	r.Record(Success(aggregation.NewKey(aggregation.DimensionSessions, "2"), nil, 1, 0))
	r.Record(Success(aggregation.NewKey(aggregation.DimensionSessions, "1"), nil, 1, 0))
	r.Record(Failure(aggregation.NewKey(aggregation.DimensionSessions, "3"), errors.New("timeout"), 3, 0))
	r.Finish(1500 * time.Millisecond)

	if r.Succeeded != 2 || r.Failed != 1 || r.Abandoned != 1 {
		t.Fatalf("counts = %d/%d/%d", r.Succeeded, r.Failed, r.Abandoned)
	}
	if r.Completed[0] != "1" || r.Completed[1] != "2" {
		t.Errorf("Completed = %v, want sorted", r.Completed)
	}
	if r.Failures[0].Value != "3" || r.Failures[0].Reason != "timeout" {
		t.Errorf("Failures = %+v", r.Failures)
	}
	if r.OK() {
		t.Error("report with failures must not be OK")
	}
	if s := r.String(); !strings.Contains(s, "2 succeeded, 1 failed, 1 abandoned") {
		t.Errorf("String() = %q", s)
	}
}

func TestReport_Totals(t *testing.T) {
	ok := &DimensionReport{Dimension: aggregation.DimensionAll, Enumerated: 1, Succeeded: 1}
	aborted := &DimensionReport{Dimension: aggregation.DimensionTopics, Aborted: errors.New("scan failed")}

	r := Report{Dimensions: []*DimensionReport{ok}}
	if !r.OK() {
		t.Error("expected OK report")
	}

	r.Dimensions = append(r.Dimensions, aborted)
	if r.OK() {
		t.Error("aborted dimension must fail the report")
	}
	s, f, a := r.Totals()
	if s != 1 || f != 0 || a != 0 {
		t.Errorf("Totals() = %d, %d, %d", s, f, a)
	}
	if !strings.Contains(aborted.String(), "aborted: scan failed") {
		t.Errorf("String() = %q", aborted.String())
	}
}
