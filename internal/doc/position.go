package doc

import "fmt"

// Range is an ordered pair of positions.
type Range struct {
	From int
	To   int
}

// IsEmpty reports whether the range is zero-width.
func (r Range) IsEmpty() bool { return r.From == r.To }

// blockRef locates a textblock and the linear positions it covers.
type blockRef struct {
	path  []int
	nodes []*Node
	start int
	end   int
}

// textblocks lists every textblock of root in document order.
func textblocks(root *Node) []blockRef {
	var out []blockRef
	pos := 0
	var walk func(n *Node, path []int, nodes []*Node)
	walk = func(n *Node, path []int, nodes []*Node) {
		nodes = append(nodes[:len(nodes):len(nodes)], n)
		if n.IsTextblock() {
			size := n.Size()
			out = append(out, blockRef{
				path:  append([]int(nil), path...),
				nodes: nodes,
				start: pos,
				end:   pos + size,
			})
			pos += size + 1
			return
		}
		for i, c := range n.children {
			walk(c, append(path[:len(path):len(path)], i), nodes)
		}
	}
	walk(root, nil, nil)
	return out
}

// textblocksBetween returns the textblocks touching [from, to].
func textblocksBetween(root *Node, from, to int) []blockRef {
	var out []blockRef
	for _, b := range textblocks(root) {
		if b.start <= to && b.end >= from {
			out = append(out, b)
		}
	}
	return out
}

// ResolvedPos is a position together with the chain of nodes containing it.
type ResolvedPos struct {
	pos   int
	nodes []*Node
	path  []int
	start int
	end   int
}

// Resolve locates pos in root.
func Resolve(root *Node, pos int) (*ResolvedPos, error) {
	if pos < 0 || pos > root.Size() {
		return nil, fmt.Errorf("%w: %d", ErrPositionOutOfRange, pos)
	}
	for _, b := range textblocks(root) {
		if pos >= b.start && pos <= b.end {
			return &ResolvedPos{pos: pos, nodes: b.nodes, path: b.path, start: b.start, end: b.end}, nil
		}
	}
	return nil, fmt.Errorf("%w: %d", ErrPositionOutOfRange, pos)
}

// Pos returns the resolved position.
func (r *ResolvedPos) Pos() int { return r.pos }

// Depth returns the depth of the enclosing textblock; the root is depth 0.
func (r *ResolvedPos) Depth() int { return len(r.nodes) - 1 }

// Node returns the ancestor at depth.
func (r *ResolvedPos) Node(depth int) *Node { return r.nodes[depth] }

// Parent returns the enclosing textblock.
func (r *ResolvedPos) Parent() *Node { return r.nodes[len(r.nodes)-1] }

// Index returns the index, inside the ancestor at depth, of the ancestor
// at depth+1.
func (r *ResolvedPos) Index(depth int) int { return r.path[depth] }

// Path returns the child indices leading from the root to the textblock.
func (r *ResolvedPos) Path() []int { return append([]int(nil), r.path...) }

// Ancestors returns the nodes from the root down to the textblock.
func (r *ResolvedPos) Ancestors() []*Node { return append([]*Node(nil), r.nodes...) }

// Start returns the first position inside the textblock.
func (r *ResolvedPos) Start() int { return r.start }

// End returns the last position inside the textblock.
func (r *ResolvedPos) End() int { return r.end }

// ParentOffset returns the offset of the position within its textblock.
func (r *ResolvedPos) ParentOffset() int { return r.pos - r.start }

// Marks returns the marks text typed at this position would receive:
// the marks of the character before it, or of the character after it at
// the start of a block. Non-inclusive marks are dropped at the edge of
// their run.
func (r *ResolvedPos) Marks(s *Schema) MarkSet {
	in := flatten(r.Parent().spans)
	n := len(in.text)
	if n == 0 {
		return 0
	}
	off := r.ParentOffset()
	if off > 0 && off < n && in.marks[off-1] == in.marks[off] {
		return in.marks[off]
	}
	var main, other MarkSet
	hasOther := false
	if off > 0 {
		main = in.marks[off-1]
		if off < n {
			other, hasOther = in.marks[off], true
		}
	} else {
		main = in.marks[off]
	}
	marks := main
	for _, m := range main.Kinds() {
		if !s.Inclusive(m) && (!hasOther || !other.Has(m)) {
			marks = marks.Without(m)
		}
	}
	return marks
}

// StartAt returns the first position inside the ancestor at depth.
func (r *ResolvedPos) StartAt(depth int) int {
	return r.start - offsetWithin(r.nodes[depth], r.path[depth:])
}

// EndAt returns the last position inside the ancestor at depth.
func (r *ResolvedPos) EndAt(depth int) int {
	return r.StartAt(depth) + r.nodes[depth].Size()
}

// offsetWithin returns the position of the textblock reached by path,
// relative to the start of n.
func offsetWithin(n *Node, path []int) int {
	off := 0
	for _, i := range path {
		for _, c := range n.children[:i] {
			off += c.Size() + 1
		}
		n = n.children[i]
	}
	return off
}

// Block is a textblock located in a document.
type Block struct {
	Path  []int
	Node  *Node
	Start int
	End   int
}

// BlocksBetween returns the textblocks touching [from, to] in document
// order.
func BlocksBetween(root *Node, from, to int) []Block {
	refs := textblocksBetween(root, from, to)
	out := make([]Block, len(refs))
	for i, b := range refs {
		out[i] = Block{Path: b.path, Node: b.nodes[len(b.nodes)-1], Start: b.start, End: b.end}
	}
	return out
}
