// Package score parses topic relevance scores and resolves the dominant topic of a speech.
package score

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind tells a parsed number apart from an excluded value.
type Kind uint8

// Score kinds.
const (
	KindExcluded Kind = iota
	KindNumber
)

// Score is the outcome of parsing a raw score: a finite number or an exclusion with a reason.
type Score struct {
	kind   Kind
	value  float64
	reason string
}

// Number creates a numeric score.
func Number(v float64) Score { return Score{kind: KindNumber, value: v} }

// Excluded creates an excluded score.
func Excluded(reason string) Score { return Score{kind: KindExcluded, reason: reason} }

// Kind returns the score kind.
func (s Score) Kind() Kind { return s.kind }

// Value returns the number and true, or 0 and false for an excluded score.
func (s Score) Value() (float64, bool) { return s.value, s.kind == KindNumber }

// IsExcluded reports whether the score contributes nothing.
func (s Score) IsExcluded() bool { return s.kind != KindNumber }

// Reason explains why a score was excluded.
func (s Score) Reason() string { return s.reason }

// Parse accepts a number or a decimal string. Anything else, including NaN and
// infinities, is excluded. Parse never fails.
func Parse(raw any) Score {
	switch v := raw.(type) {
	case nil:
		return Excluded("missing score")
	case float64:
		return finite(v)
	case float32:
		return finite(float64(v))
	case int:
		return Number(float64(v))
	case int64:
		return Number(float64(v))
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return Excluded(fmt.Sprintf("malformed number %q", v.String()))
		}
		return finite(f)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return Excluded(fmt.Sprintf("non-numeric string %q", v))
		}
		return finite(f)
	default:
		return Excluded(fmt.Sprintf("unsupported type %T", raw))
	}
}

func finite(f float64) Score {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Excluded("non-finite number")
	}
	return Number(f)
}
