package doc

import "fmt"

// Selection represents a range of selected text.
// Anchor is where the selection started; Head is where the caret is.
// When Anchor == Head the selection is a caret with no extent.
// Selection is an immutable value type.
type Selection struct {
	Anchor int
	Head   int
}

// NewSelection creates a selection from anchor to head.
func NewSelection(anchor, head int) Selection {
	return Selection{Anchor: anchor, Head: head}
}

// Caret creates an empty selection at pos.
func Caret(pos int) Selection {
	return Selection{Anchor: pos, Head: pos}
}

// Empty reports whether the selection has no extent.
func (s Selection) Empty() bool {
	return s.Anchor == s.Head
}

// From returns the lower bound of the selection.
func (s Selection) From() int {
	if s.Anchor <= s.Head {
		return s.Anchor
	}
	return s.Head
}

// To returns the upper bound of the selection.
func (s Selection) To() int {
	if s.Anchor >= s.Head {
		return s.Anchor
	}
	return s.Head
}

// Range returns the selection as an ordered range.
func (s Selection) Range() Range {
	return Range{From: s.From(), To: s.To()}
}

// Clamp limits both ends to [0, max].
func (s Selection) Clamp(max int) Selection {
	return Selection{Anchor: clamp(s.Anchor, 0, max), Head: clamp(s.Head, 0, max)}
}

// Map moves both ends through fn.
func (s Selection) Map(fn func(int) int) Selection {
	return Selection{Anchor: fn(s.Anchor), Head: fn(s.Head)}
}

// String returns a readable representation.
func (s Selection) String() string {
	if s.Empty() {
		return fmt.Sprintf("caret(%d)", s.Head)
	}
	return fmt.Sprintf("selection(%d->%d)", s.Anchor, s.Head)
}

// ResolvedSelection is a selection together with the resolved positions
// of its bounds. FromPos carries the anchor node path: the chain of
// blocks from the root down to the textblock containing From.
type ResolvedSelection struct {
	Selection
	FromPos *ResolvedPos
	ToPos   *ResolvedPos
}

// ResolveSelection resolves sel against root. Out of range bounds are clamped.
func ResolveSelection(root *Node, sel Selection) (ResolvedSelection, error) {
	sel = sel.Clamp(root.Size())
	from, err := Resolve(root, sel.From())
	if err != nil {
		return ResolvedSelection{}, err
	}
	to, err := Resolve(root, sel.To())
	if err != nil {
		return ResolvedSelection{}, err
	}
	return ResolvedSelection{Selection: sel, FromPos: from, ToPos: to}, nil
}

// AnchorPath returns the block ancestors of From, root first.
func (rs ResolvedSelection) AnchorPath() []*Node {
	return rs.FromPos.Ancestors()
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
