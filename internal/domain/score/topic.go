package score

import "github.com/kailas-cloud/speechagg/internal/domain/speech"

// ExcludedFunc observes every score that could not be parsed.
type ExcludedFunc func(label string, raw any, s Score)

// LabelStat summarises the parsed scores of one label.
type LabelStat struct {
	Label string
	Sum   float64
	Count int
}

// Mean returns the arithmetic mean of the parsed scores.
func (l LabelStat) Mean() float64 {
	if l.Count == 0 {
		return 0
	}
	return l.Sum / float64(l.Count)
}

// Accumulator groups parsed scores by label, remembering first-seen label order.
// The zero value is ready to use.
type Accumulator struct {
	order []string
	stats map[string]*LabelStat
}

// Add parses raw and, when numeric, folds it into the label's statistics.
// It returns the parsed score so callers can report exclusions.
func (a *Accumulator) Add(label string, raw any) Score {
	s := Parse(raw)
	v, ok := s.Value()
	if !ok {
		return s
	}
	if a.stats == nil {
		a.stats = make(map[string]*LabelStat)
	}
	st, seen := a.stats[label]
	if !seen {
		st = &LabelStat{Label: label}
		a.stats[label] = st
		a.order = append(a.order, label)
	}
	st.Sum += v
	st.Count++
	return s
}

// AddTopics folds every topic annotation into the accumulator.
func (a *Accumulator) AddTopics(topics []speech.Topic, onExcluded ExcludedFunc) {
	for _, t := range topics {
		if s := a.Add(t.Label, t.RawScore); s.IsExcluded() && onExcluded != nil {
			onExcluded(t.Label, t.RawScore, s)
		}
	}
}

// Stats returns per-label statistics in first-seen order. Labels without a parsed score are absent.
func (a *Accumulator) Stats() []LabelStat {
	out := make([]LabelStat, 0, len(a.order))
	for _, label := range a.order {
		out = append(out, *a.stats[label])
	}
	return out
}

// Len returns the number of labels with at least one parsed score.
func (a *Accumulator) Len() int { return len(a.order) }

// DominantFloor is the mean a label must strictly exceed to be dominant.
const DominantFloor = 0.0

// Dominant returns the label with the strictly greatest mean score.
// Equal maxima resolve to the label seen first; a best mean at or below
// DominantFloor yields no topic.
func Dominant(topics []speech.Topic, onExcluded ExcludedFunc) (string, bool) {
	if len(topics) == 0 {
		return "", false
	}

	var acc Accumulator
	acc.AddTopics(topics, onExcluded)

	best, bestMean, found := "", DominantFloor, false
	for _, st := range acc.Stats() {
		if m := st.Mean(); m > bestMean {
			best, bestMean, found = st.Label, m, true
		}
	}
	return best, found
}

// DominantTopic resolves the dominant topic of a speech.
func DominantTopic(s *speech.Speech, onExcluded ExcludedFunc) (string, bool) {
	return Dominant(s.TopicAnnotations(), onExcluded)
}
