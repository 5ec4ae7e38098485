package doc

import (
	"fmt"
	"strings"
)

// Version identifies a document state. Versions increase monotonically.
type Version uint64

// Transaction groups steps built against one document version. Steps are
// applied as they are added, so later steps see the result of earlier ones.
// A transaction takes effect only when passed to Model.Apply.
type Transaction struct {
	schema *Schema

	// BaseVersion is the version the transaction was built against.
	BaseVersion Version

	// Version is assigned by Model.Apply when the transaction changes the
	// document. It stays zero for stored-mark-only transactions.
	Version Version

	before *Node
	doc    *Node
	steps  []Step
	sel    Selection

	storedMarks MarkSet
	storedSet   bool

	meta map[string]any
}

func newTransaction(s *Schema, base Version, root *Node, sel Selection, stored MarkSet, hasStored bool) *Transaction {
	return &Transaction{
		schema:      s,
		BaseVersion: base,
		before:      root,
		doc:         root,
		sel:         sel,
		storedMarks: stored,
		storedSet:   hasStored,
	}
}

// Step applies st to the transaction's document. On error the transaction
// is left unchanged.
func (tx *Transaction) Step(st Step) error {
	next, err := st.Apply(tx.schema, tx.doc)
	if err != nil {
		return fmt.Errorf("%s: %w", st, err)
	}
	tx.doc = next
	tx.steps = append(tx.steps, st)
	tx.sel = tx.sel.Map(st.Map).Clamp(next.Size())
	tx.storedSet = false
	tx.storedMarks = 0
	return nil
}

// AddMark adds m to [from, to).
func (tx *Transaction) AddMark(from, to int, m MarkKind) error {
	return tx.Step(AddMarkStep{From: from, To: to, Mark: m})
}

// RemoveMark removes m from [from, to).
func (tx *Transaction) RemoveMark(from, to int, m MarkKind) error {
	return tx.Step(RemoveMarkStep{From: from, To: to, Mark: m})
}

// InsertText inserts text at pos. The text receives the pending stored
// marks if any, otherwise the marks at pos.
func (tx *Transaction) InsertText(pos int, text string) error {
	marks := tx.storedMarks
	if !tx.storedSet {
		rp, err := Resolve(tx.doc, pos)
		if err != nil {
			return err
		}
		marks = rp.Marks(tx.schema)
	}
	return tx.Step(InsertTextStep{Pos: pos, Text: text, Marks: marks})
}

// SetStoredMarks sets the marks applied to the next typed text.
func (tx *Transaction) SetStoredMarks(ms MarkSet) {
	tx.storedMarks = ms
	tx.storedSet = true
}

// StoredMarks returns the pending stored marks, if set.
func (tx *Transaction) StoredMarks() (MarkSet, bool) {
	return tx.storedMarks, tx.storedSet
}

// SetSelection replaces the selection carried by the transaction.
func (tx *Transaction) SetSelection(sel Selection) {
	tx.sel = sel.Clamp(tx.doc.Size())
}

// Selection returns the selection after the transaction.
func (tx *Transaction) Selection() Selection { return tx.sel }

// Doc returns the document after the transaction.
func (tx *Transaction) Doc() *Node { return tx.doc }

// Before returns the document the transaction was built against.
func (tx *Transaction) Before() *Node { return tx.before }

// Steps returns the steps of the transaction.
func (tx *Transaction) Steps() []Step { return append([]Step(nil), tx.steps...) }

// DocChanged reports whether the transaction has any steps.
func (tx *Transaction) DocChanged() bool { return len(tx.steps) > 0 }

// SetMeta attaches metadata, such as the origin of the edit.
func (tx *Transaction) SetMeta(key string, value any) {
	if tx.meta == nil {
		tx.meta = make(map[string]any)
	}
	tx.meta[key] = value
}

// Meta returns metadata previously attached with SetMeta.
func (tx *Transaction) Meta(key string) any {
	return tx.meta[key]
}

// String describes the transaction: base version, steps and new version.
func (tx *Transaction) String() string {
	parts := make([]string, len(tx.steps))
	for i, st := range tx.steps {
		parts[i] = st.String()
	}
	return fmt.Sprintf("tx(v%d -> v%d: %s)", tx.BaseVersion, tx.Version, strings.Join(parts, "; "))
}
