package topicindex

import "slices"

// Index maps each dominant topic label to the speeches it dominates.
// It is built once per topic run and owned by the caller.
type Index struct {
	members map[string]map[string]struct{}
	total   int
}

func newIndex() *Index {
	return &Index{members: make(map[string]map[string]struct{})}
}

func (x *Index) add(label, speechID string) {
	set, ok := x.members[label]
	if !ok {
		set = make(map[string]struct{})
		x.members[label] = set
	}
	if _, dup := set[speechID]; dup {
		return
	}
	set[speechID] = struct{}{}
	x.total++
}

// Labels returns every label with at least one speech, sorted.
func (x *Index) Labels() []string {
	out := make([]string, 0, len(x.members))
	for label, set := range x.members {
		if len(set) > 0 {
			out = append(out, label)
		}
	}
	slices.Sort(out)
	return out
}

// IDs returns the sorted speech IDs dominated by label.
func (x *Index) IDs(label string) []string {
	set := x.members[label]
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// Len returns the number of labels.
func (x *Index) Len() int { return len(x.members) }

// Speeches returns how many speeches have a dominant topic.
func (x *Index) Speeches() int { return x.total }
