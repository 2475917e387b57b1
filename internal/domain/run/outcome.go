// Package run holds per-key outcomes and the reports built from them.
package run

import (
	"time"

	"github.com/kailas-cloud/speechagg/internal/domain/aggregation"
)

// Status is the outcome of processing one aggregation key.
type Status string

// Key status values.
const (
	StatusOK     Status = "ok"
	StatusFailed Status = "failed"
)

// Outcome is the result of one key task: Success carries the persisted summary,
// Failure carries the reason.
type Outcome struct {
	key      aggregation.Key
	status   Status
	result   *aggregation.Result
	err      error
	attempts int
	duration time.Duration
}

// Success creates a successful outcome.
func Success(key aggregation.Key, res *aggregation.Result, attempts int, d time.Duration) Outcome {
	return Outcome{key: key, status: StatusOK, result: res, attempts: attempts, duration: d}
}

// Failure creates a failed outcome.
func Failure(key aggregation.Key, err error, attempts int, d time.Duration) Outcome {
	return Outcome{key: key, status: StatusFailed, err: err, attempts: attempts, duration: d}
}

// Key returns the aggregation key.
func (o Outcome) Key() aggregation.Key { return o.key }

// Status returns the outcome status.
func (o Outcome) Status() Status { return o.status }

// Result returns the persisted summary of a successful outcome.
func (o Outcome) Result() *aggregation.Result { return o.result }

// Err returns the failure reason, if any.
func (o Outcome) Err() error { return o.err }

// Attempts returns how many persistence attempts were made.
func (o Outcome) Attempts() int { return o.attempts }

// Duration returns the wall time spent on the key.
func (o Outcome) Duration() time.Duration { return o.duration }

// OK reports success.
func (o Outcome) OK() bool { return o.status == StatusOK }
