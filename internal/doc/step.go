package doc

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Step is a single atomic edit of a document tree.
type Step interface {
	// Apply returns the tree produced by the step. root is not modified.
	Apply(s *Schema, root *Node) (*Node, error)

	// Map returns where a position before the step ends up after it.
	Map(pos int) int

	// String describes the step for logs and transaction descriptions.
	String() string
}

// AddMarkStep adds a mark to every character in [From, To).
type AddMarkStep struct {
	From int
	To   int
	Mark MarkKind
}

// Apply implements Step.
func (st AddMarkStep) Apply(s *Schema, root *Node) (*Node, error) {
	return applyMarkRange(s, root, st.From, st.To, st.Mark, func(ms MarkSet) MarkSet { return ms.With(st.Mark) })
}

// Map implements Step.
func (st AddMarkStep) Map(pos int) int { return pos }

func (st AddMarkStep) String() string {
	return fmt.Sprintf("addMark(%s, %d-%d)", st.Mark, st.From, st.To)
}

// RemoveMarkStep removes a mark from every character in [From, To).
type RemoveMarkStep struct {
	From int
	To   int
	Mark MarkKind
}

// Apply implements Step.
func (st RemoveMarkStep) Apply(s *Schema, root *Node) (*Node, error) {
	return applyMarkRange(s, root, st.From, st.To, st.Mark, func(ms MarkSet) MarkSet { return ms.Without(st.Mark) })
}

// Map implements Step.
func (st RemoveMarkStep) Map(pos int) int { return pos }

func (st RemoveMarkStep) String() string {
	return fmt.Sprintf("removeMark(%s, %d-%d)", st.Mark, st.From, st.To)
}

func applyMarkRange(s *Schema, root *Node, from, to int, m MarkKind, fn func(MarkSet) MarkSet) (*Node, error) {
	if !s.HasMark(m) {
		return nil, fmt.Errorf("%w: mark %s", ErrUnknownKind, m)
	}
	if from < 0 || to > root.Size() || from > to {
		return nil, fmt.Errorf("%w: %d-%d", ErrPositionOutOfRange, from, to)
	}
	out := root
	for _, b := range textblocksBetween(root, from, to) {
		lo := max(from, b.start) - b.start
		hi := min(to, b.end) - b.start
		if lo >= hi {
			continue
		}
		block := b.nodes[len(b.nodes)-1]
		in := flatten(block.spans)
		for i := lo; i < hi; i++ {
			in.marks[i] = fn(in.marks[i])
		}
		var err error
		out, err = replaceAt(out, b.path, block.withSpans(in.spans()))
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// SetBlockTypeStep changes the kind and attributes of the textblock at Path.
type SetBlockTypeStep struct {
	Path  []int
	Kind  NodeKind
	Attrs Attrs
}

// Apply implements Step.
func (st SetBlockTypeStep) Apply(s *Schema, root *Node) (*Node, error) {
	if !s.HasNodeKind(st.Kind) || !st.Kind.IsTextblock() {
		return nil, fmt.Errorf("%w: %s is not a textblock kind", ErrUnknownKind, st.Kind)
	}
	attrs, ok := s.NormalizeAttrs(st.Kind, st.Attrs)
	if !ok {
		return nil, fmt.Errorf("%w: bad attributes %s for %s", ErrInvalidStructure, st.Attrs, st.Kind)
	}
	if len(st.Path) == 0 {
		return nil, fmt.Errorf("%w: root is not a textblock", ErrInvalidPath)
	}
	parentPath, idx := st.Path[:len(st.Path)-1], st.Path[len(st.Path)-1]
	parent, err := root.NodeAt(parentPath)
	if err != nil {
		return nil, err
	}
	if idx < 0 || idx >= len(parent.children) || !parent.children[idx].IsTextblock() {
		return nil, fmt.Errorf("%w: %v is not a textblock", ErrInvalidPath, st.Path)
	}
	block := parent.children[idx]
	children := append([]*Node(nil), parent.children...)
	children[idx] = &Node{kind: st.Kind, attrs: attrs, spans: block.spans}
	if !s.validChildren(parent.kind, children) {
		return nil, fmt.Errorf("%w: %s not allowed here in %s", ErrInvalidStructure, st.Kind, parent.kind)
	}
	return replaceAt(root, parentPath, parent.withChildren(children))
}

// Map implements Step.
func (st SetBlockTypeStep) Map(pos int) int { return pos }

func (st SetBlockTypeStep) String() string {
	if a := st.Attrs.String(); a != "" {
		return fmt.Sprintf("setBlockType(%v, %s[%s])", st.Path, st.Kind, a)
	}
	return fmt.Sprintf("setBlockType(%v, %s)", st.Path, st.Kind)
}

// WrapStep wraps the children [Start, End) of the node at Parent in a new
// node of Kind. With ItemPerBlock each wrapped child is first put in its
// own list item, which is how list wrapping works.
type WrapStep struct {
	Parent       []int
	Start        int
	End          int
	Kind         NodeKind
	Attrs        Attrs
	ItemPerBlock bool
}

// Apply implements Step.
func (st WrapStep) Apply(s *Schema, root *Node) (*Node, error) {
	if !s.HasNodeKind(st.Kind) || st.Kind.IsTextblock() || st.Kind == KindDoc {
		return nil, fmt.Errorf("%w: cannot wrap in %s", ErrUnknownKind, st.Kind)
	}
	attrs, ok := s.NormalizeAttrs(st.Kind, st.Attrs)
	if !ok {
		return nil, fmt.Errorf("%w: bad attributes %s for %s", ErrInvalidStructure, st.Attrs, st.Kind)
	}
	parent, err := root.NodeAt(st.Parent)
	if err != nil {
		return nil, err
	}
	if parent.IsTextblock() || st.Start < 0 || st.End > len(parent.children) || st.Start >= st.End {
		return nil, fmt.Errorf("%w: wrap range %d-%d", ErrInvalidPath, st.Start, st.End)
	}
	content := append([]*Node(nil), parent.children[st.Start:st.End]...)
	if st.ItemPerBlock {
		if !s.HasNodeKind(KindListItem) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownKind, KindListItem)
		}
		for i, c := range content {
			item := []*Node{c}
			if !s.validChildren(KindListItem, item) {
				return nil, fmt.Errorf("%w: %s cannot start a list item", ErrInvalidStructure, c.kind)
			}
			content[i] = NewContainer(KindListItem, Attrs{}, item...)
		}
	}
	if !s.validChildren(st.Kind, content) {
		return nil, fmt.Errorf("%w: invalid content for %s", ErrInvalidStructure, st.Kind)
	}
	wrapper := &Node{kind: st.Kind, attrs: attrs, children: content}
	children := make([]*Node, 0, len(parent.children)-(st.End-st.Start)+1)
	children = append(children, parent.children[:st.Start]...)
	children = append(children, wrapper)
	children = append(children, parent.children[st.End:]...)
	if !s.validChildren(parent.kind, children) {
		return nil, fmt.Errorf("%w: %s not allowed in %s", ErrInvalidStructure, st.Kind, parent.kind)
	}
	return replaceAt(root, st.Parent, parent.withChildren(children))
}

// Map implements Step.
func (st WrapStep) Map(pos int) int { return pos }

func (st WrapStep) String() string {
	return fmt.Sprintf("wrap(%v[%d:%d], %s)", st.Parent, st.Start, st.End, st.Kind)
}

// LiftStep removes the wrapper node at Path, splicing its children into
// the wrapper's parent.
type LiftStep struct {
	Path []int
}

// Apply implements Step.
func (st LiftStep) Apply(s *Schema, root *Node) (*Node, error) {
	if len(st.Path) == 0 {
		return nil, fmt.Errorf("%w: cannot lift the root", ErrInvalidPath)
	}
	parentPath, idx := st.Path[:len(st.Path)-1], st.Path[len(st.Path)-1]
	parent, err := root.NodeAt(parentPath)
	if err != nil {
		return nil, err
	}
	if parent.IsTextblock() || idx < 0 || idx >= len(parent.children) || parent.children[idx].IsTextblock() {
		return nil, fmt.Errorf("%w: %v is not a wrapper", ErrInvalidPath, st.Path)
	}
	wrapper := parent.children[idx]
	children := make([]*Node, 0, len(parent.children)+len(wrapper.children)-1)
	children = append(children, parent.children[:idx]...)
	children = append(children, wrapper.children...)
	children = append(children, parent.children[idx+1:]...)
	if !s.validChildren(parent.kind, children) {
		return nil, fmt.Errorf("%w: cannot lift %s content into %s", ErrInvalidStructure, wrapper.kind, parent.kind)
	}
	return replaceAt(root, parentPath, parent.withChildren(children))
}

// Map implements Step.
func (st LiftStep) Map(pos int) int { return pos }

func (st LiftStep) String() string {
	return fmt.Sprintf("lift(%v)", st.Path)
}

// LiftListItemsStep moves the items [Start, End) of the list at List up
// one level. Items of a nested list become items of the outer list; items
// of a top-level list are unwrapped into the list's parent. The list is
// split around the lifted items.
type LiftListItemsStep struct {
	List  []int
	Start int
	End   int
}

// Apply implements Step.
func (st LiftListItemsStep) Apply(s *Schema, root *Node) (*Node, error) {
	if len(st.List) == 0 {
		return nil, fmt.Errorf("%w: root is not a list", ErrInvalidPath)
	}
	list, err := root.NodeAt(st.List)
	if err != nil {
		return nil, err
	}
	if !list.kind.IsList() || st.Start < 0 || st.End > len(list.children) || st.Start >= st.End {
		return nil, fmt.Errorf("%w: list items %d-%d at %v", ErrInvalidPath, st.Start, st.End, st.List)
	}
	var before, after *Node
	if st.Start > 0 {
		before = list.withChildren(append([]*Node(nil), list.children[:st.Start]...))
	}
	if st.End < len(list.children) {
		after = list.withChildren(append([]*Node(nil), list.children[st.End:]...))
	}
	lifted := list.children[st.Start:st.End]

	parentPath, idx := st.List[:len(st.List)-1], st.List[len(st.List)-1]
	parent, err := root.NodeAt(parentPath)
	if err != nil {
		return nil, err
	}
	if parent.kind == KindListItem && len(parentPath) > 0 {
		return liftToOuterList(s, root, parentPath, parent, idx, before, after, lifted)
	}

	children := make([]*Node, 0, len(parent.children)+len(lifted)+2)
	children = append(children, parent.children[:idx]...)
	if before != nil {
		children = append(children, before)
	}
	for _, item := range lifted {
		children = append(children, item.children...)
	}
	if after != nil {
		children = append(children, after)
	}
	children = append(children, parent.children[idx+1:]...)
	if !s.validChildren(parent.kind, children) {
		return nil, fmt.Errorf("%w: cannot lift list items into %s", ErrInvalidStructure, parent.kind)
	}
	return replaceAt(root, parentPath, parent.withChildren(children))
}

func liftToOuterList(s *Schema, root *Node, itemPath []int, item *Node, listIdx int, before, after *Node, lifted []*Node) (*Node, error) {
	outerPath, itemIdx := itemPath[:len(itemPath)-1], itemPath[len(itemPath)-1]
	outer, err := root.NodeAt(outerPath)
	if err != nil {
		return nil, err
	}

	itemChildren := make([]*Node, 0, len(item.children))
	itemChildren = append(itemChildren, item.children[:listIdx]...)
	if before != nil {
		itemChildren = append(itemChildren, before)
	}
	itemChildren = append(itemChildren, item.children[listIdx+1:]...)
	if !s.validChildren(KindListItem, itemChildren) {
		return nil, fmt.Errorf("%w: lifting would empty the outer item", ErrInvalidStructure)
	}

	moved := append([]*Node(nil), lifted...)
	if after != nil {
		last := moved[len(moved)-1]
		moved[len(moved)-1] = last.withChildren(append(append([]*Node(nil), last.children...), after))
	}

	children := make([]*Node, 0, len(outer.children)+len(moved))
	children = append(children, outer.children[:itemIdx]...)
	children = append(children, item.withChildren(itemChildren))
	children = append(children, moved...)
	children = append(children, outer.children[itemIdx+1:]...)
	if !s.validChildren(outer.kind, children) {
		return nil, fmt.Errorf("%w: cannot lift list items into %s", ErrInvalidStructure, outer.kind)
	}
	return replaceAt(root, outerPath, outer.withChildren(children))
}

// Map implements Step.
func (st LiftListItemsStep) Map(pos int) int { return pos }

func (st LiftListItemsStep) String() string {
	return fmt.Sprintf("liftListItems(%v[%d:%d])", st.List, st.Start, st.End)
}

// InsertTextStep inserts Text carrying Marks at Pos. Line breaks are
// folded into single spaces because textblocks hold one line of text.
type InsertTextStep struct {
	Pos   int
	Text  string
	Marks MarkSet
}

var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

func foldLineBreaks(s string) string {
	return lineBreaks.Replace(s)
}

// Apply implements Step.
func (st InsertTextStep) Apply(s *Schema, root *Node) (*Node, error) {
	for _, m := range st.Marks.Kinds() {
		if !s.HasMark(m) {
			return nil, fmt.Errorf("%w: mark %s", ErrUnknownKind, m)
		}
	}
	rp, err := Resolve(root, st.Pos)
	if err != nil {
		return nil, err
	}
	text := []rune(foldLineBreaks(st.Text))
	if len(text) == 0 {
		return root, nil
	}
	in := flatten(rp.Parent().spans)
	off := rp.ParentOffset()
	marks := make([]MarkSet, len(text))
	for i := range marks {
		marks[i] = st.Marks
	}
	out := inline{
		text:  append(append(append([]rune(nil), in.text[:off]...), text...), in.text[off:]...),
		marks: append(append(append([]MarkSet(nil), in.marks[:off]...), marks...), in.marks[off:]...),
	}
	return replaceAt(root, rp.path, rp.Parent().withSpans(out.spans()))
}

// Map implements Step. Positions at or after the insertion point move
// past the inserted text.
func (st InsertTextStep) Map(pos int) int {
	if pos >= st.Pos {
		return pos + utf8.RuneCountInString(foldLineBreaks(st.Text))
	}
	return pos
}

func (st InsertTextStep) String() string {
	return fmt.Sprintf("insertText(%d, %q)", st.Pos, st.Text)
}

// SetListKindStep gives the items [Start, End) of the list at List a new
// list kind. The list is split around them; the items keep their content.
type SetListKindStep struct {
	List  []int
	Start int
	End   int
	Kind  NodeKind
	Attrs Attrs
}

// Apply implements Step.
func (st SetListKindStep) Apply(s *Schema, root *Node) (*Node, error) {
	if !st.Kind.IsList() || !s.HasNodeKind(st.Kind) {
		return nil, fmt.Errorf("%w: %s is not a list kind", ErrUnknownKind, st.Kind)
	}
	attrs, ok := s.NormalizeAttrs(st.Kind, st.Attrs)
	if !ok {
		return nil, fmt.Errorf("%w: bad attributes %s for %s", ErrInvalidStructure, st.Attrs, st.Kind)
	}
	if len(st.List) == 0 {
		return nil, fmt.Errorf("%w: root is not a list", ErrInvalidPath)
	}
	list, err := root.NodeAt(st.List)
	if err != nil {
		return nil, err
	}
	if !list.kind.IsList() || st.Start < 0 || st.End > len(list.children) || st.Start >= st.End {
		return nil, fmt.Errorf("%w: list items %d-%d at %v", ErrInvalidPath, st.Start, st.End, st.List)
	}
	parentPath, idx := st.List[:len(st.List)-1], st.List[len(st.List)-1]
	parent, err := root.NodeAt(parentPath)
	if err != nil {
		return nil, err
	}

	children := make([]*Node, 0, len(parent.children)+2)
	children = append(children, parent.children[:idx]...)
	if st.Start > 0 {
		children = append(children, list.withChildren(append([]*Node(nil), list.children[:st.Start]...)))
	}
	children = append(children, &Node{kind: st.Kind, attrs: attrs, children: append([]*Node(nil), list.children[st.Start:st.End]...)})
	if st.End < len(list.children) {
		children = append(children, list.withChildren(append([]*Node(nil), list.children[st.End:]...)))
	}
	children = append(children, parent.children[idx+1:]...)
	if !s.validChildren(parent.kind, children) {
		return nil, fmt.Errorf("%w: cannot split list in %s", ErrInvalidStructure, parent.kind)
	}
	return replaceAt(root, parentPath, parent.withChildren(children))
}

// Map implements Step.
func (st SetListKindStep) Map(pos int) int { return pos }

func (st SetListKindStep) String() string {
	return fmt.Sprintf("setListKind(%v[%d:%d], %s)", st.List, st.Start, st.End, st.Kind)
}
