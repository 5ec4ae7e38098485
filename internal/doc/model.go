package doc

import (
	"fmt"
	"sync"
)

// ChangeKind classifies a model change.
type ChangeKind int

const (
	// ChangeTransaction indicates a transaction was applied.
	ChangeTransaction ChangeKind = iota
	// ChangeSelection indicates only the selection moved.
	ChangeSelection
	// ChangeUndo indicates an undo restored an earlier state.
	ChangeUndo
	// ChangeRedo indicates a redo restored a later state.
	ChangeRedo
)

// String returns the change kind name.
func (k ChangeKind) String() string {
	switch k {
	case ChangeTransaction:
		return "transaction"
	case ChangeSelection:
		return "selection"
	case ChangeUndo:
		return "undo"
	case ChangeRedo:
		return "redo"
	default:
		return "unknown"
	}
}

// Change describes a model update delivered to observers.
type Change struct {
	Kind       ChangeKind
	Version    Version
	DocChanged bool
	Selection  Selection

	// Transaction is set for ChangeTransaction.
	Transaction *Transaction
}

// Observer is called after the model changes.
type Observer func(Change)

// Model is the single source of truth for a document. It holds the
// current version and selection and only changes through Apply, Undo,
// Redo and SetSelection. Every method is safe for concurrent use;
// observers run after the lock is released.
type Model struct {
	mu sync.RWMutex

	schema  *Schema
	doc     *Node
	version Version
	sel     Selection

	storedMarks MarkSet
	storedSet   bool

	history *history

	observers map[uint64]Observer
	nextID    uint64
}

// ModelOption configures a Model.
type ModelOption func(*Model)

// WithSelection sets the initial selection.
func WithSelection(sel Selection) ModelOption {
	return func(m *Model) {
		m.sel = sel
	}
}

// WithHistoryLimit sets the maximum number of undo entries.
func WithHistoryLimit(n int) ModelOption {
	return func(m *Model) {
		m.history = newHistory(n)
	}
}

// NewModel creates a model holding root at version 1. A nil root creates
// a document with one empty paragraph.
func NewModel(s *Schema, root *Node, opts ...ModelOption) (*Model, error) {
	if s == nil {
		s = DefaultSchema()
	}
	if root == nil {
		root = Doc(Paragraph())
	}
	if root.kind != KindDoc {
		return nil, fmt.Errorf("%w: root must be %s, got %s", ErrInvalidStructure, KindDoc, root.kind)
	}
	if err := s.Check(root); err != nil {
		return nil, err
	}
	m := &Model{
		schema:    s,
		doc:       root,
		version:   1,
		history:   newHistory(0),
		observers: make(map[uint64]Observer),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.sel = m.sel.Clamp(root.Size())
	return m, nil
}

// Schema returns the document schema.
func (m *Model) Schema() *Schema { return m.schema }

// HasNodeKind reports whether the schema registers k.
func (m *Model) HasNodeKind(k NodeKind) bool { return m.schema.HasNodeKind(k) }

// CurrentVersion returns the current version.
func (m *Model) CurrentVersion() Version {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.version
}

// Doc returns the current document.
func (m *Model) Doc() *Node {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.doc
}

// PlainText returns the document text with textblocks joined by newlines.
func (m *Model) PlainText() string {
	return m.Doc().TextContent()
}

// Selection returns the current selection.
func (m *Model) Selection() Selection {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sel
}

// StoredMarks returns the marks pending for the next typed text, if any.
func (m *Model) StoredMarks() (MarkSet, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.storedMarks, m.storedSet
}

// SetSelection moves the selection, clamped to the document. Pending
// stored marks are dropped.
func (m *Model) SetSelection(sel Selection) {
	m.mu.Lock()
	m.sel = sel.Clamp(m.doc.Size())
	m.storedSet = false
	m.storedMarks = 0
	ch := Change{Kind: ChangeSelection, Version: m.version, Selection: m.sel}
	observers := m.observerList()
	m.mu.Unlock()

	notify(observers, ch)
}

// ResolveSelection resolves the current selection against the current
// document.
func (m *Model) ResolveSelection() ResolvedSelection {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rs, err := ResolveSelection(m.doc, m.sel)
	if err != nil {
		// The selection is clamped on every update, so it always resolves.
		panic(err)
	}
	return rs
}

// State returns the document, version and selection read atomically.
func (m *Model) State() (*Node, Version, Selection) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.doc, m.version, m.sel
}

// Begin starts a transaction against the current version.
func (m *Model) Begin() *Transaction {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return newTransaction(m.schema, m.version, m.doc, m.sel, m.storedMarks, m.storedSet)
}

// Apply commits tx and returns the resulting version. A transaction
// built against an older version fails with ErrStaleTransaction. A
// transaction without steps updates selection and stored marks but keeps
// the version.
func (m *Model) Apply(tx *Transaction) (Version, error) {
	m.mu.Lock()
	if tx.BaseVersion != m.version {
		v := m.version
		m.mu.Unlock()
		return 0, fmt.Errorf("%w: built on v%d, current v%d", ErrStaleTransaction, tx.BaseVersion, v)
	}
	if tx.DocChanged() {
		m.history.push(historyEntry{doc: m.doc, sel: m.sel})
		m.version++
		m.doc = tx.doc
		tx.Version = m.version
	}
	m.sel = tx.sel.Clamp(m.doc.Size())
	m.storedMarks, m.storedSet = tx.storedMarks, tx.storedSet
	ch := Change{
		Kind:        ChangeTransaction,
		Version:     m.version,
		DocChanged:  tx.DocChanged(),
		Selection:   m.sel,
		Transaction: tx,
	}
	observers := m.observerList()
	m.mu.Unlock()

	notify(observers, ch)
	return ch.Version, nil
}

// CanUndo reports whether Undo would succeed.
func (m *Model) CanUndo() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.history.canUndo()
}

// CanRedo reports whether Redo would succeed.
func (m *Model) CanRedo() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.history.canRedo()
}

// Undo restores the state before the last applied transaction as a new
// version. Versions never go backwards.
func (m *Model) Undo() (Version, error) {
	return m.restore(ChangeUndo)
}

// Redo re-applies the last undone state as a new version.
func (m *Model) Redo() (Version, error) {
	return m.restore(ChangeRedo)
}

func (m *Model) restore(kind ChangeKind) (Version, error) {
	m.mu.Lock()
	current := historyEntry{doc: m.doc, sel: m.sel}
	var (
		e  historyEntry
		ok bool
	)
	if kind == ChangeUndo {
		e, ok = m.history.undo(current)
	} else {
		e, ok = m.history.redo(current)
	}
	if !ok {
		m.mu.Unlock()
		if kind == ChangeUndo {
			return 0, ErrNothingToUndo
		}
		return 0, ErrNothingToRedo
	}
	m.version++
	m.doc = e.doc
	m.sel = e.sel.Clamp(e.doc.Size())
	m.storedSet = false
	m.storedMarks = 0
	ch := Change{Kind: kind, Version: m.version, DocChanged: true, Selection: m.sel}
	observers := m.observerList()
	m.mu.Unlock()

	notify(observers, ch)
	return ch.Version, nil
}

// Subscribe registers an observer. The returned function removes it.
func (m *Model) Subscribe(fn Observer) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.observers[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.observers, id)
	}
}

// observerList must be called with the lock held. Observers are returned
// in registration order.
func (m *Model) observerList() []Observer {
	out := make([]Observer, 0, len(m.observers))
	for id := uint64(0); id < m.nextID; id++ {
		if fn, ok := m.observers[id]; ok {
			out = append(out, fn)
		}
	}
	return out
}

func notify(observers []Observer, ch Change) {
	for _, fn := range observers {
		fn(ch)
	}
}
