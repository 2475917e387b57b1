package events

import (
	"github.com/kailas-cloud/speechagg/internal/domain/run"
)

// EventType identifies a finished dimension run.
const EventType = "aggregation.completed"

// Failure is one failed key in a completion event.
type Failure struct {
	Value  string `json:"value"`
	Reason string `json:"reason"`
}

// Completed is the payload announcing that a dimension's summaries were refreshed.
type Completed struct {
	EventType  string    `json:"eventType"`
	Dimension  string    `json:"dimension"`
	Enumerated int       `json:"enumerated"`
	Succeeded  int       `json:"succeeded"`
	Failed     int       `json:"failed"`
	Abandoned  int       `json:"abandoned"`
	Failures   []Failure `json:"failures,omitempty"`
	Pruned     []string  `json:"pruned,omitempty"`
	Aborted    string    `json:"aborted,omitempty"`
	DurationMs int64     `json:"durationMs"`
	Timestamp  int64     `json:"timestamp"` // unix millis
}

// NewCompleted builds the event for a finished dimension report.
func NewCompleted(rep *run.DimensionReport, timestamp int64) Completed {
	ev := Completed{
		EventType:  EventType,
		Dimension:  string(rep.Dimension),
		Enumerated: rep.Enumerated,
		Succeeded:  rep.Succeeded,
		Failed:     rep.Failed,
		Abandoned:  rep.Abandoned,
		Pruned:     rep.Pruned,
		DurationMs: rep.Duration.Milliseconds(),
		Timestamp:  timestamp,
	}
	for _, f := range rep.Failures {
		ev.Failures = append(ev.Failures, Failure{Value: f.Value, Reason: f.Reason})
	}
	if rep.Aborted != nil {
		ev.Aborted = rep.Aborted.Error()
	}
	return ev
}
