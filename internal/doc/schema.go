package doc

import (
	"fmt"
	"strings"
)

// NodeKind identifies the type of a block node.
type NodeKind uint8

const (
	// KindDoc is the document root.
	KindDoc NodeKind = iota
	// KindParagraph is a plain textblock.
	KindParagraph
	// KindHeading is a textblock with a level attribute.
	KindHeading
	// KindBlockquote wraps other blocks.
	KindBlockquote
	// KindBulletList holds unordered list items.
	KindBulletList
	// KindOrderedList holds numbered list items.
	KindOrderedList
	// KindListItem holds a paragraph followed by optional blocks.
	KindListItem
)

// String returns the schema name of the node kind.
func (k NodeKind) String() string {
	switch k {
	case KindDoc:
		return "doc"
	case KindParagraph:
		return "paragraph"
	case KindHeading:
		return "heading"
	case KindBlockquote:
		return "blockquote"
	case KindBulletList:
		return "bullet_list"
	case KindOrderedList:
		return "ordered_list"
	case KindListItem:
		return "list_item"
	default:
		return "unknown"
	}
}

// ParseNodeKind parses a node kind name.
func ParseNodeKind(s string) (NodeKind, bool) {
	switch strings.ToLower(s) {
	case "doc":
		return KindDoc, true
	case "paragraph", "p":
		return KindParagraph, true
	case "heading", "h":
		return KindHeading, true
	case "blockquote", "quote":
		return KindBlockquote, true
	case "bullet_list", "bulletlist", "bullet":
		return KindBulletList, true
	case "ordered_list", "orderedlist", "ordered":
		return KindOrderedList, true
	case "list_item", "listitem":
		return KindListItem, true
	default:
		return 0, false
	}
}

// IsTextblock reports whether nodes of this kind hold inline text.
func (k NodeKind) IsTextblock() bool {
	return k == KindParagraph || k == KindHeading
}

// IsList reports whether the kind is a list container.
func (k NodeKind) IsList() bool {
	return k == KindBulletList || k == KindOrderedList
}

// isBlock reports whether the kind belongs to the "block" group.
func (k NodeKind) isBlock() bool {
	switch k {
	case KindParagraph, KindHeading, KindBlockquote, KindBulletList, KindOrderedList:
		return true
	}
	return false
}

// Attrs holds node parameters. Unused fields stay zero.
type Attrs struct {
	// Level is the heading level (1-6).
	Level int
	// Order is the first number of an ordered list.
	Order int
}

// String formats non-zero attributes.
func (a Attrs) String() string {
	var parts []string
	if a.Level != 0 {
		parts = append(parts, fmt.Sprintf("level=%d", a.Level))
	}
	if a.Order != 0 {
		parts = append(parts, fmt.Sprintf("order=%d", a.Order))
	}
	return strings.Join(parts, ",")
}

// MaxHeadingLevel is the deepest heading level the schema accepts.
const MaxHeadingLevel = 6

type markSpec struct {
	inclusive bool
}

// Schema describes the node and mark kinds a document may contain.
type Schema struct {
	nodes map[NodeKind]bool
	marks map[MarkKind]markSpec
}

// SchemaOption configures a Schema.
type SchemaOption func(*Schema)

// WithLists registers bullet lists, ordered lists and list items.
func WithLists() SchemaOption {
	return func(s *Schema) {
		s.nodes[KindBulletList] = true
		s.nodes[KindOrderedList] = true
		s.nodes[KindListItem] = true
	}
}

// WithoutNodeKind removes a node kind from the schema. The root and
// paragraph kinds cannot be removed.
func WithoutNodeKind(k NodeKind) SchemaOption {
	return func(s *Schema) {
		if k == KindDoc || k == KindParagraph {
			return
		}
		delete(s.nodes, k)
	}
}

// WithoutMark removes a mark kind from the schema.
func WithoutMark(m MarkKind) SchemaOption {
	return func(s *Schema) {
		delete(s.marks, m)
	}
}

// NewSchema creates the basic schema (doc, paragraph, heading, blockquote
// and the strong, em and code marks) adjusted by opts.
func NewSchema(opts ...SchemaOption) *Schema {
	s := &Schema{
		nodes: map[NodeKind]bool{
			KindDoc:        true,
			KindParagraph:  true,
			KindHeading:    true,
			KindBlockquote: true,
		},
		marks: map[MarkKind]markSpec{
			MarkStrong: {inclusive: true},
			MarkEm:     {inclusive: true},
			MarkCode:   {inclusive: false},
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DefaultSchema returns the basic schema with list support.
func DefaultSchema() *Schema {
	return NewSchema(WithLists())
}

// HasNodeKind reports whether k is registered.
func (s *Schema) HasNodeKind(k NodeKind) bool {
	return s.nodes[k]
}

// HasMark reports whether m is registered.
func (s *Schema) HasMark(m MarkKind) bool {
	_, ok := s.marks[m]
	return ok
}

// Inclusive reports whether typing at the end of a run of m extends it.
func (s *Schema) Inclusive(m MarkKind) bool {
	spec, ok := s.marks[m]
	return ok && spec.inclusive
}

// NormalizeAttrs fills defaults for kind and reports whether the result
// is valid. Attributes a kind does not use are cleared.
func (s *Schema) NormalizeAttrs(kind NodeKind, a Attrs) (Attrs, bool) {
	switch kind {
	case KindHeading:
		if a.Level == 0 {
			a.Level = 1
		}
		return Attrs{Level: a.Level}, a.Level >= 1 && a.Level <= MaxHeadingLevel
	case KindOrderedList:
		if a.Order == 0 {
			a.Order = 1
		}
		return Attrs{Order: a.Order}, a.Order >= 1
	default:
		return Attrs{}, true
	}
}

// validChildren reports whether children may appear, in order, inside a
// node of kind parent.
func (s *Schema) validChildren(parent NodeKind, children []*Node) bool {
	if parent.IsTextblock() || len(children) == 0 {
		return false
	}
	for i, c := range children {
		if c == nil || !s.nodes[c.kind] {
			return false
		}
		switch parent {
		case KindDoc, KindBlockquote:
			if !c.kind.isBlock() {
				return false
			}
		case KindBulletList, KindOrderedList:
			if c.kind != KindListItem {
				return false
			}
		case KindListItem:
			if i == 0 && c.kind != KindParagraph {
				return false
			}
			if !c.kind.isBlock() {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// Check validates a whole tree against the schema.
func (s *Schema) Check(n *Node) error {
	if n == nil {
		return fmt.Errorf("%w: nil node", ErrInvalidStructure)
	}
	if !s.nodes[n.kind] {
		return fmt.Errorf("%w: %s", ErrUnknownKind, n.kind)
	}
	if _, ok := s.NormalizeAttrs(n.kind, n.attrs); !ok {
		return fmt.Errorf("%w: bad attributes %s on %s", ErrInvalidStructure, n.attrs, n.kind)
	}
	if n.kind.IsTextblock() {
		for _, sp := range n.spans {
			for _, m := range sp.Marks.Kinds() {
				if !s.HasMark(m) {
					return fmt.Errorf("%w: mark %s", ErrUnknownKind, m)
				}
			}
		}
		return nil
	}
	if !s.validChildren(n.kind, n.children) {
		return fmt.Errorf("%w: invalid content for %s", ErrInvalidStructure, n.kind)
	}
	for _, c := range n.children {
		if err := s.Check(c); err != nil {
			return err
		}
	}
	return nil
}
