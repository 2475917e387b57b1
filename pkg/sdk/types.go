package speechagg

import (
	"github.com/kailas-cloud/speechagg/internal/domain"
	"github.com/kailas-cloud/speechagg/internal/domain/aggregation"
	"github.com/kailas-cloud/speechagg/internal/domain/run"
)

// Dimension is a grouping axis of the summaries.
type Dimension = aggregation.Dimension

// Grouping dimensions.
const (
	All      = aggregation.DimensionAll
	Sessions = aggregation.DimensionSessions
	Speakers = aggregation.DimensionSpeakers
	Topics   = aggregation.DimensionTopics
)

// AllValue is the value of the single summary of the All dimension.
const AllValue = aggregation.AllValue

// Summary is one stored faceted summary.
type Summary = aggregation.Result

// Facets holds the five facet lists of a summary.
type Facets = aggregation.Facets

// Report lists per-dimension outcomes of a run.
type Report = run.Report

// DimensionReport is the outcome of one dimension within a run.
type DimensionReport = run.DimensionReport

// ErrNotFound is returned by Summary when no summary is stored for the key.
var ErrNotFound = domain.ErrResultNotFound

// ParseDimension accepts a dimension name in singular or plural form.
func ParseDimension(s string) (Dimension, error) { return aggregation.ParseDimension(s) }
