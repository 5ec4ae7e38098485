// Package format turns formatting intents into document transactions and
// reports which formatting is active under a selection.
//
// Commands never fail. A command that cannot apply to the current
// document, or whose target kind is not registered in the schema, returns
// ok == false and no transaction.
package format

import (
	"github.com/dshills/quill/internal/doc"
)

// Document is the part of the document model the controller reads.
type Document interface {
	Schema() *doc.Schema
	HasNodeKind(k doc.NodeKind) bool
	Begin() *doc.Transaction
}

// Controller maps formatting intents onto a Document. It holds no
// document state of its own.
type Controller struct {
	doc Document
}

// New creates a controller for d.
func New(d Document) *Controller {
	return &Controller{doc: d}
}

// begin starts a transaction and resolves sel against its document.
func (c *Controller) begin(sel doc.Selection) (*doc.Transaction, doc.ResolvedSelection, bool) {
	tx := c.doc.Begin()
	rs, err := doc.ResolveSelection(tx.Doc(), sel)
	if err != nil {
		return nil, doc.ResolvedSelection{}, false
	}
	return tx, rs, true
}

// caretMarks returns the marks text typed at a caret would receive:
// the pending stored marks when the caret is the model's selection,
// otherwise the marks at the caret.
func caretMarks(s *doc.Schema, tx *doc.Transaction, rs doc.ResolvedSelection) doc.MarkSet {
	if stored, ok := tx.StoredMarks(); ok && tx.Selection() == rs.Selection {
		return stored
	}
	return rs.FromPos.Marks(s)
}

// IsMarkActive reports whether m is active for sel. On a caret this
// consults the stored marks, or the marks at the caret. On a range every
// character must carry m; a range without characters reports false.
func (c *Controller) IsMarkActive(m doc.MarkKind, sel doc.Selection) bool {
	s := c.doc.Schema()
	if !s.HasMark(m) {
		return false
	}
	tx, rs, ok := c.begin(sel)
	if !ok {
		return false
	}
	if rs.Empty() {
		return caretMarks(s, tx, rs).Has(m)
	}
	chars, marked := doc.MarkCoverage(tx.Doc(), rs.From(), rs.To(), m)
	return chars > 0 && marked == chars
}

// ToggleMark removes m from the range when it is active and adds it
// otherwise. On a caret the returned transaction has no steps and only
// toggles m in the stored marks for the next typed text.
func (c *Controller) ToggleMark(m doc.MarkKind, sel doc.Selection) (*doc.Transaction, bool) {
	s := c.doc.Schema()
	if !s.HasMark(m) {
		return nil, false
	}
	tx, rs, ok := c.begin(sel)
	if !ok {
		return nil, false
	}
	if rs.Empty() {
		marks := caretMarks(s, tx, rs)
		if marks.Has(m) {
			marks = marks.Without(m)
		} else {
			marks = marks.With(m)
		}
		tx.SetSelection(rs.Selection)
		tx.SetStoredMarks(marks)
		return tx, true
	}

	from, to := rs.From(), rs.To()
	chars, marked := doc.MarkCoverage(tx.Doc(), from, to, m)
	if chars == 0 {
		return nil, false
	}
	var err error
	if marked == chars {
		err = tx.RemoveMark(from, to, m)
	} else {
		err = tx.AddMark(from, to, m)
	}
	if err != nil {
		return nil, false
	}
	tx.SetSelection(rs.Selection)
	return tx, true
}

// IsBlockActive reports whether the block enclosing the start of sel has
// the given kind and attributes, with the selection ending inside it.
// For textblock kinds the enclosing block is the textblock itself; for
// wrapper kinds it is the nearest ancestor of that kind.
func (c *Controller) IsBlockActive(kind doc.NodeKind, attrs doc.Attrs, sel doc.Selection) bool {
	s := c.doc.Schema()
	if !s.HasNodeKind(kind) {
		return false
	}
	_, rs, ok := c.begin(sel)
	if !ok {
		return false
	}
	depth := rs.FromPos.Depth()
	if !kind.IsTextblock() {
		depth = nearestAncestor(rs, func(n *doc.Node) bool { return n.Kind() == kind })
		if depth < 0 {
			return false
		}
	}
	return rs.To() <= rs.FromPos.EndAt(depth) && rs.FromPos.Node(depth).HasMarkup(s, kind, attrs)
}

// SetBlockType turns every textblock touched by sel into kind. Blocks
// that already match, or where the schema does not allow kind, are left
// alone. When nothing changes no transaction is returned.
func (c *Controller) SetBlockType(kind doc.NodeKind, attrs doc.Attrs, sel doc.Selection) (*doc.Transaction, bool) {
	s := c.doc.Schema()
	if !kind.IsTextblock() || !c.doc.HasNodeKind(kind) {
		return nil, false
	}
	if _, valid := s.NormalizeAttrs(kind, attrs); !valid {
		return nil, false
	}
	tx, rs, ok := c.begin(sel)
	if !ok {
		return nil, false
	}
	for _, b := range doc.BlocksBetween(tx.Doc(), rs.From(), rs.To()) {
		if b.Node.HasMarkup(s, kind, attrs) {
			continue
		}
		// A rejected step leaves the transaction untouched.
		_ = tx.Step(doc.SetBlockTypeStep{Path: b.Path, Kind: kind, Attrs: attrs})
	}
	if !tx.DocChanged() {
		return nil, false
	}
	return tx, true
}

// ToggleBlockWrap lifts the selection out of the nearest enclosing node
// of kind, or wraps it in a new one when there is none. Only the nearest
// match is removed, so nested wrappers of the same kind unwrap one level
// per call. List kinds are handled by ToggleListWrap.
func (c *Controller) ToggleBlockWrap(kind doc.NodeKind, sel doc.Selection) (*doc.Transaction, bool) {
	if kind.IsList() {
		return c.ToggleListWrap(kind, sel)
	}
	if kind.IsTextblock() || kind == doc.KindDoc || kind == doc.KindListItem || !c.doc.HasNodeKind(kind) {
		return nil, false
	}
	tx, rs, ok := c.begin(sel)
	if !ok {
		return nil, false
	}
	if d := nearestAncestor(rs, func(n *doc.Node) bool { return n.Kind() == kind }); d > 0 {
		if err := tx.Step(doc.LiftStep{Path: rs.FromPos.Path()[:d]}); err != nil {
			return nil, false
		}
		return tx, true
	}
	if !wrap(tx, rs, kind, false) {
		return nil, false
	}
	return tx, true
}

// ToggleListWrap toggles list formatting. Inside a list of kind the
// selected items are lifted out one level. Inside a list of the other
// kind the selected items switch kind instead of nesting a new list.
// Outside any list each selected block becomes an item of a new list.
func (c *Controller) ToggleListWrap(kind doc.NodeKind, sel doc.Selection) (*doc.Transaction, bool) {
	if !kind.IsList() || !c.doc.HasNodeKind(kind) || !c.doc.HasNodeKind(doc.KindListItem) {
		return nil, false
	}
	tx, rs, ok := c.begin(sel)
	if !ok {
		return nil, false
	}
	if d := nearestAncestor(rs, func(n *doc.Node) bool { return n.Kind().IsList() }); d > 0 {
		list := rs.FromPos.Node(d)
		listPath := rs.FromPos.Path()[:d]
		start, end := rs.FromPos.Index(d), list.ChildCount()
		if toPath := rs.ToPos.Path(); hasPrefix(toPath, listPath) {
			end = toPath[d] + 1
		}
		var st doc.Step = doc.LiftListItemsStep{List: listPath, Start: start, End: end}
		if list.Kind() != kind {
			st = doc.SetListKindStep{List: listPath, Start: start, End: end, Kind: kind}
		}
		if err := tx.Step(st); err != nil {
			return nil, false
		}
		return tx, true
	}
	if !wrap(tx, rs, kind, true) {
		return nil, false
	}
	return tx, true
}

// wrap wraps the blocks spanned by rs in kind, at the deepest level
// where the schema accepts the result.
func wrap(tx *doc.Transaction, rs doc.ResolvedSelection, kind doc.NodeKind, itemPerBlock bool) bool {
	fromPath, toPath := rs.FromPos.Path(), rs.ToPos.Path()
	shared := 0
	for shared < len(fromPath) && shared < len(toPath) && fromPath[shared] == toPath[shared] {
		shared++
	}
	for d := min(shared, len(fromPath)-1); d >= 0; d-- {
		st := doc.WrapStep{
			Parent:       fromPath[:d],
			Start:        fromPath[d],
			End:          toPath[d] + 1,
			Kind:         kind,
			ItemPerBlock: itemPerBlock,
		}
		if tx.Step(st) == nil {
			return true
		}
	}
	return false
}

// nearestAncestor returns the depth of the deepest wrapper ancestor of
// the selection start for which fn holds, or -1.
func nearestAncestor(rs doc.ResolvedSelection, fn func(*doc.Node) bool) int {
	path := rs.AnchorPath()
	for d := len(path) - 2; d > 0; d-- {
		if fn(path[d]) {
			return d
		}
	}
	return -1
}

func hasPrefix(path, prefix []int) bool {
	if len(path) < len(prefix) {
		return false
	}
	for i := range prefix {
		if path[i] != prefix[i] {
			return false
		}
	}
	return true
}
