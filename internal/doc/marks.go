package doc

import "strings"

// MarkKind identifies an inline formatting attribute.
type MarkKind uint8

const (
	// MarkStrong is bold text.
	MarkStrong MarkKind = 1 << iota
	// MarkEm is emphasized (italic) text.
	MarkEm
	// MarkCode is inline code.
	MarkCode
)

// allMarks lists mark kinds in canonical order.
var allMarks = []MarkKind{MarkStrong, MarkEm, MarkCode}

// String returns the schema name of the mark.
func (m MarkKind) String() string {
	switch m {
	case MarkStrong:
		return "strong"
	case MarkEm:
		return "em"
	case MarkCode:
		return "code"
	default:
		return "unknown"
	}
}

// ParseMarkKind parses a mark name. Common aliases are accepted.
func ParseMarkKind(s string) (MarkKind, bool) {
	switch strings.ToLower(s) {
	case "strong", "bold", "b":
		return MarkStrong, true
	case "em", "emphasis", "italic", "i":
		return MarkEm, true
	case "code":
		return MarkCode, true
	default:
		return 0, false
	}
}

// MarkSet is a set of marks. The zero value is the empty set.
type MarkSet uint8

// NewMarkSet builds a set from the given kinds.
func NewMarkSet(kinds ...MarkKind) MarkSet {
	var s MarkSet
	for _, k := range kinds {
		s = s.With(k)
	}
	return s
}

// Has reports whether the set contains m.
func (s MarkSet) Has(m MarkKind) bool {
	return s&MarkSet(m) != 0
}

// With returns the set with m added.
func (s MarkSet) With(m MarkKind) MarkSet {
	return s | MarkSet(m)
}

// Without returns the set with m removed.
func (s MarkSet) Without(m MarkKind) MarkSet {
	return s &^ MarkSet(m)
}

// IsEmpty reports whether the set has no marks.
func (s MarkSet) IsEmpty() bool {
	return s == 0
}

// Kinds returns the marks in canonical order.
func (s MarkSet) Kinds() []MarkKind {
	var out []MarkKind
	for _, m := range allMarks {
		if s.Has(m) {
			out = append(out, m)
		}
	}
	return out
}

// String returns a comma separated list of mark names.
func (s MarkSet) String() string {
	kinds := s.Kinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = k.String()
	}
	return strings.Join(names, ",")
}
