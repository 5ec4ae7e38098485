package doc

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Span is a run of text sharing one set of marks.
type Span struct {
	Text  string
	Marks MarkSet
}

// Text creates a span carrying the given marks.
func Text(s string, marks ...MarkKind) Span {
	return Span{Text: s, Marks: NewMarkSet(marks...)}
}

// Node is an immutable block node. Textblocks hold spans, every other
// kind holds child nodes.
type Node struct {
	kind     NodeKind
	attrs    Attrs
	children []*Node
	spans    []Span
}

// NewTextblock creates a paragraph or heading holding spans.
func NewTextblock(kind NodeKind, attrs Attrs, spans ...Span) *Node {
	return &Node{kind: kind, attrs: attrs, spans: normalizeSpans(spans)}
}

// NewContainer creates a node holding child blocks.
func NewContainer(kind NodeKind, attrs Attrs, children ...*Node) *Node {
	return &Node{kind: kind, attrs: attrs, children: append([]*Node(nil), children...)}
}

// Doc creates a document root.
func Doc(children ...*Node) *Node {
	return NewContainer(KindDoc, Attrs{}, children...)
}

// Paragraph creates a paragraph.
func Paragraph(spans ...Span) *Node {
	return NewTextblock(KindParagraph, Attrs{}, spans...)
}

// Heading creates a heading of the given level.
func Heading(level int, spans ...Span) *Node {
	return NewTextblock(KindHeading, Attrs{Level: level}, spans...)
}

// Blockquote creates a blockquote.
func Blockquote(children ...*Node) *Node {
	return NewContainer(KindBlockquote, Attrs{}, children...)
}

// BulletList creates a bullet list.
func BulletList(items ...*Node) *Node {
	return NewContainer(KindBulletList, Attrs{}, items...)
}

// OrderedList creates an ordered list starting at 1.
func OrderedList(items ...*Node) *Node {
	return NewContainer(KindOrderedList, Attrs{Order: 1}, items...)
}

// ListItem creates a list item.
func ListItem(children ...*Node) *Node {
	return NewContainer(KindListItem, Attrs{}, children...)
}

// Kind returns the node kind.
func (n *Node) Kind() NodeKind { return n.kind }

// Attrs returns the node attributes.
func (n *Node) Attrs() Attrs { return n.attrs }

// IsTextblock reports whether the node holds inline text.
func (n *Node) IsTextblock() bool { return n.kind.IsTextblock() }

// ChildCount returns the number of child blocks.
func (n *Node) ChildCount() int { return len(n.children) }

// Child returns the i-th child block.
func (n *Node) Child(i int) *Node { return n.children[i] }

// Children returns a copy of the child slice.
func (n *Node) Children() []*Node { return append([]*Node(nil), n.children...) }

// Spans returns a copy of the text runs of a textblock.
func (n *Node) Spans() []Span { return append([]Span(nil), n.spans...) }

// HasMarkup reports whether the node has the given kind and, after
// defaults are applied, the same attributes.
func (n *Node) HasMarkup(s *Schema, kind NodeKind, attrs Attrs) bool {
	if n.kind != kind {
		return false
	}
	want, ok := s.NormalizeAttrs(kind, attrs)
	if !ok {
		return false
	}
	have, _ := s.NormalizeAttrs(n.kind, n.attrs)
	return have == want
}

// TextContent returns the text of a textblock, or the textblocks of a
// container joined by newlines.
func (n *Node) TextContent() string {
	if n.IsTextblock() {
		var b strings.Builder
		for _, sp := range n.spans {
			b.WriteString(sp.Text)
		}
		return b.String()
	}
	parts := make([]string, len(n.children))
	for i, c := range n.children {
		parts[i] = c.TextContent()
	}
	return strings.Join(parts, "\n")
}

// Size returns the number of positions the node occupies.
func (n *Node) Size() int {
	if n.IsTextblock() {
		size := 0
		for _, sp := range n.spans {
			size += utf8.RuneCountInString(sp.Text)
		}
		return size
	}
	if len(n.children) == 0 {
		return 0
	}
	size := len(n.children) - 1
	for _, c := range n.children {
		size += c.Size()
	}
	return size
}

// Equal reports whether two trees have identical structure and content.
func (n *Node) Equal(o *Node) bool {
	if n == o {
		return true
	}
	if n == nil || o == nil {
		return false
	}
	if n.kind != o.kind || n.attrs != o.attrs {
		return false
	}
	if n.IsTextblock() {
		a, b := normalizeSpans(n.spans), normalizeSpans(o.spans)
		if len(a) != len(b) {
			return false
		}
		for i := range a {
			if a[i] != b[i] {
				return false
			}
		}
		return true
	}
	if len(n.children) != len(o.children) {
		return false
	}
	for i := range n.children {
		if !n.children[i].Equal(o.children[i]) {
			return false
		}
	}
	return true
}

// String renders the tree as a compact expression, for example
// doc(heading[level=1]("Title"), paragraph("a", "b"{strong})).
func (n *Node) String() string {
	var b strings.Builder
	n.writeTo(&b)
	return b.String()
}

func (n *Node) writeTo(b *strings.Builder) {
	b.WriteString(n.kind.String())
	if a := n.attrs.String(); a != "" {
		b.WriteString("[" + a + "]")
	}
	b.WriteByte('(')
	if n.IsTextblock() {
		for i, sp := range n.spans {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(strconv.Quote(sp.Text))
			if !sp.Marks.IsEmpty() {
				b.WriteString("{" + sp.Marks.String() + "}")
			}
		}
	} else {
		for i, c := range n.children {
			if i > 0 {
				b.WriteString(", ")
			}
			c.writeTo(b)
		}
	}
	b.WriteByte(')')
}

// withChildren returns a copy of n holding children.
func (n *Node) withChildren(children []*Node) *Node {
	return &Node{kind: n.kind, attrs: n.attrs, children: children}
}

// withSpans returns a copy of the textblock n holding spans.
func (n *Node) withSpans(spans []Span) *Node {
	return &Node{kind: n.kind, attrs: n.attrs, spans: normalizeSpans(spans)}
}

// NodeAt returns the node reached by following child indices from n.
func (n *Node) NodeAt(path []int) (*Node, error) {
	cur := n
	for _, i := range path {
		if cur.IsTextblock() || i < 0 || i >= len(cur.children) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPath, path)
		}
		cur = cur.children[i]
	}
	return cur, nil
}

// replaceAt returns a copy of root where the node at path is replaced by
// repl. Nodes off the path are shared with root.
func replaceAt(root *Node, path []int, repl *Node) (*Node, error) {
	if len(path) == 0 {
		return repl, nil
	}
	i := path[0]
	if root.IsTextblock() || i < 0 || i >= len(root.children) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPath, path)
	}
	child, err := replaceAt(root.children[i], path[1:], repl)
	if err != nil {
		return nil, err
	}
	children := append([]*Node(nil), root.children...)
	children[i] = child
	return root.withChildren(children), nil
}

// normalizeSpans drops empty spans and merges neighbours with equal marks.
func normalizeSpans(spans []Span) []Span {
	out := make([]Span, 0, len(spans))
	for _, sp := range spans {
		if sp.Text == "" {
			continue
		}
		if last := len(out) - 1; last >= 0 && out[last].Marks == sp.Marks {
			out[last].Text += sp.Text
			continue
		}
		out = append(out, sp)
	}
	return out
}

// inline is the per-rune form of a textblock's content.
type inline struct {
	text  []rune
	marks []MarkSet
}

func flatten(spans []Span) inline {
	var in inline
	for _, sp := range spans {
		for _, r := range sp.Text {
			in.text = append(in.text, r)
			in.marks = append(in.marks, sp.Marks)
		}
	}
	return in
}

func (in inline) spans() []Span {
	var out []Span
	for i, r := range in.text {
		if last := len(out) - 1; last >= 0 && out[last].Marks == in.marks[i] {
			out[last].Text += string(r)
			continue
		}
		out = append(out, Span{Text: string(r), Marks: in.marks[i]})
	}
	return out
}
