package speech

import (
	"fmt"
	"slices"
	"strings"
)

// FilterKind selects which speeches a Filter admits.
type FilterKind uint8

// Filter kinds.
const (
	FilterAll FilterKind = iota
	FilterSession
	FilterSpeaker
	FilterIDs
)

func (k FilterKind) String() string {
	switch k {
	case FilterAll:
		return "all"
	case FilterSession:
		return "session"
	case FilterSpeaker:
		return "speaker"
	case FilterIDs:
		return "ids"
	default:
		return fmt.Sprintf("FilterKind(%d)", k)
	}
}

// Filter is a membership predicate over speeches.
type Filter struct {
	kind  FilterKind
	value string
	ids   []string
}

// All admits every speech.
func All() Filter { return Filter{kind: FilterAll} }

// BySession admits speeches whose protocol index equals index after trimming.
func BySession(index string) Filter {
	return Filter{kind: FilterSession, value: strings.TrimSpace(index)}
}

// BySpeaker admits speeches given by the named speaker.
func BySpeaker(name string) Filter { return Filter{kind: FilterSpeaker, value: name} }

// ByIDs admits speeches whose ID is in ids. The slice is copied and sorted.
func ByIDs(ids []string) Filter {
	cp := slices.Clone(ids)
	slices.Sort(cp)
	return Filter{kind: FilterIDs, ids: slices.Compact(cp)}
}

// Kind returns the filter kind.
func (f Filter) Kind() FilterKind { return f.kind }

// Value returns the session index or speaker name.
func (f Filter) Value() string { return f.value }

// IDs returns the sorted, de-duplicated ID set of an ID filter.
func (f Filter) IDs() []string { return f.ids }

// Matches reports whether s passes the filter.
func (f Filter) Matches(s *Speech) bool {
	switch f.kind {
	case FilterAll:
		return true
	case FilterSession:
		return strings.TrimSpace(s.Protocol.Index) == f.value
	case FilterSpeaker:
		return s.Speaker == f.value
	case FilterIDs:
		_, ok := slices.BinarySearch(f.ids, s.ID)
		return ok
	default:
		return false
	}
}

func (f Filter) String() string {
	switch f.kind {
	case FilterIDs:
		return fmt.Sprintf("ids(%d)", len(f.ids))
	case FilterAll:
		return "all"
	default:
		return fmt.Sprintf("%s=%q", f.kind, f.value)
	}
}
