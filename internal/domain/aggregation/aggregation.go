// Package aggregation defines grouping dimensions and the persisted summary shape.
package aggregation

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/speechagg/internal/domain"
)

// Dimension is a grouping axis. Its value is the persisted "type" field.
type Dimension string

// Supported dimensions.
const (
	DimensionAll      Dimension = "all"
	DimensionSessions Dimension = "sessions"
	DimensionSpeakers Dimension = "speakers"
	DimensionTopics   Dimension = "topics"
)

// AllValue is the value of the single key of the "all" dimension.
const AllValue = "all speeches"

// Dimensions lists every dimension in run order.
func Dimensions() []Dimension {
	return []Dimension{DimensionAll, DimensionSessions, DimensionSpeakers, DimensionTopics}
}

// ParseDimension accepts a dimension name in singular or plural form, case-insensitively.
func ParseDimension(s string) (Dimension, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "all":
		return DimensionAll, nil
	case "sessions", "session":
		return DimensionSessions, nil
	case "speakers", "speaker":
		return DimensionSpeakers, nil
	case "topics", "topic":
		return DimensionTopics, nil
	default:
		return "", fmt.Errorf("%w: %q", domain.ErrUnknownDimension, s)
	}
}

func (d Dimension) String() string { return string(d) }

// Key identifies one summary record.
type Key struct {
	Dimension Dimension
	Value     string
}

// NewKey creates a key.
func NewKey(d Dimension, value string) Key { return Key{Dimension: d, Value: value} }

func (k Key) String() string { return string(k.Dimension) + ":" + k.Value }
