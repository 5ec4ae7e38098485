package doc

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func newTestModel(t *testing.T, root *Node, opts ...ModelOption) *Model {
	t.Helper()
	m, err := NewModel(DefaultSchema(), root, opts...)
	if err != nil {
		t.Fatalf("NewModel: %v", err)
	}
	return m
}

func TestNewModel(t *testing.T) {
	m := newTestModel(t, nil)
	if got := m.CurrentVersion(); got != 1 {
		t.Errorf("CurrentVersion = %d, want 1", got)
	}
	if got := m.Doc().String(); got != "doc(paragraph())" {
		t.Errorf("Doc = %s", got)
	}

	_, err := NewModel(DefaultSchema(), Doc())
	if !errors.Is(err, ErrInvalidStructure) {
		t.Errorf("empty doc: error = %v, want ErrInvalidStructure", err)
	}
	_, err = NewModel(DefaultSchema(), Paragraph())
	if !errors.Is(err, ErrInvalidStructure) {
		t.Errorf("paragraph root: error = %v, want ErrInvalidStructure", err)
	}
	_, err = NewModel(NewSchema(), Doc(BulletList(ListItem(Paragraph()))))
	if !errors.Is(err, ErrInvalidStructure) {
		t.Errorf("list without list schema: error = %v, want ErrInvalidStructure", err)
	}

	m = newTestModel(t, FromPlainText("abc"), WithSelection(NewSelection(1, 99)))
	if got := m.Selection(); got != NewSelection(1, 3) {
		t.Errorf("initial selection = %v, want clamped 1-3", got)
	}
}

func TestModelApply(t *testing.T) {
	m := newTestModel(t, FromPlainText("Hello\nworld"))

	tx := m.Begin()
	stale := m.Begin()
	if err := tx.AddMark(0, 5, MarkStrong); err != nil {
		t.Fatal(err)
	}
	v, err := m.Apply(tx)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if v != 2 || tx.Version != 2 {
		t.Errorf("version = %d (tx %d), want 2", v, tx.Version)
	}
	if got := m.PlainText(); got != "Hello\nworld" {
		t.Errorf("PlainText = %q", got)
	}

	if err := stale.AddMark(6, 11, MarkEm); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Apply(stale); !errors.Is(err, ErrStaleTransaction) {
		t.Errorf("stale Apply error = %v, want ErrStaleTransaction", err)
	}
	if got := m.Doc().Child(1).String(); got != `paragraph("world")` {
		t.Errorf("stale transaction leaked into document: %s", got)
	}
}

func TestModelStoredMarks(t *testing.T) {
	m := newTestModel(t, FromPlainText("ab"), WithSelection(Caret(1)))

	tx := m.Begin()
	tx.SetStoredMarks(NewMarkSet(MarkStrong))
	v, err := m.Apply(tx)
	if err != nil {
		t.Fatal(err)
	}
	if v != 1 {
		t.Errorf("stored-mark transaction bumped version to %d", v)
	}
	if ms, ok := m.StoredMarks(); !ok || !ms.Has(MarkStrong) {
		t.Errorf("StoredMarks = %v, %v", ms, ok)
	}

	tx = m.Begin()
	if err := tx.InsertText(1, "X"); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Apply(tx); err != nil {
		t.Fatal(err)
	}
	want := `doc(paragraph("a", "X"{strong}, "b"))`
	if diff := cmp.Diff(want, m.Doc().String()); diff != "" {
		t.Errorf("doc mismatch (-want +got):\n%s", diff)
	}
	if _, ok := m.StoredMarks(); ok {
		t.Error("stored marks should be consumed by the edit")
	}
	if got := m.Selection(); got != Caret(2) {
		t.Errorf("selection = %v, want caret mapped past insertion", got)
	}
}

func TestModelSetSelectionClearsStoredMarks(t *testing.T) {
	m := newTestModel(t, FromPlainText("abc"))
	tx := m.Begin()
	tx.SetStoredMarks(NewMarkSet(MarkEm))
	if _, err := m.Apply(tx); err != nil {
		t.Fatal(err)
	}
	m.SetSelection(NewSelection(-3, 10))
	if got := m.Selection(); got != NewSelection(0, 3) {
		t.Errorf("selection = %v", got)
	}
	if _, ok := m.StoredMarks(); ok {
		t.Error("stored marks survived a selection change")
	}
}

func TestModelUndoRedo(t *testing.T) {
	orig := FromPlainText("abc")
	m := newTestModel(t, orig)

	if _, err := m.Undo(); !errors.Is(err, ErrNothingToUndo) {
		t.Errorf("Undo on fresh model: %v", err)
	}

	tx := m.Begin()
	if err := tx.AddMark(0, 3, MarkEm); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Apply(tx); err != nil {
		t.Fatal(err)
	}
	marked := m.Doc()

	v, err := m.Undo()
	if err != nil {
		t.Fatal(err)
	}
	if v != 3 {
		t.Errorf("undo version = %d, want 3", v)
	}
	if !m.Doc().Equal(orig) {
		t.Errorf("after undo doc = %s", m.Doc())
	}
	if !m.CanRedo() || m.CanUndo() {
		t.Errorf("CanUndo=%v CanRedo=%v", m.CanUndo(), m.CanRedo())
	}

	v, err = m.Redo()
	if err != nil {
		t.Fatal(err)
	}
	if v != 4 || !m.Doc().Equal(marked) {
		t.Errorf("after redo v%d doc = %s", v, m.Doc())
	}
	if _, err := m.Redo(); !errors.Is(err, ErrNothingToRedo) {
		t.Errorf("second Redo: %v", err)
	}
}

func TestModelHistoryLimit(t *testing.T) {
	m := newTestModel(t, FromPlainText("abc"), WithHistoryLimit(1))
	for _, mk := range []MarkKind{MarkStrong, MarkEm} {
		tx := m.Begin()
		if err := tx.AddMark(0, 1, mk); err != nil {
			t.Fatal(err)
		}
		if _, err := m.Apply(tx); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := m.Undo(); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Undo(); !errors.Is(err, ErrNothingToUndo) {
		t.Errorf("history limit not enforced: %v", err)
	}
}

func TestModelObservers(t *testing.T) {
	m := newTestModel(t, FromPlainText("abc"))

	var got []ChangeKind
	var order []string
	unsubscribe := m.Subscribe(func(ch Change) {
		got = append(got, ch.Kind)
		order = append(order, "first")
	})
	m.Subscribe(func(Change) { order = append(order, "second") })

	m.SetSelection(Caret(1))
	tx := m.Begin()
	if err := tx.AddMark(0, 1, MarkCode); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Apply(tx); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Undo(); err != nil {
		t.Fatal(err)
	}
	unsubscribe()
	if _, err := m.Redo(); err != nil {
		t.Fatal(err)
	}

	want := []ChangeKind{ChangeSelection, ChangeTransaction, ChangeUndo}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("changes mismatch (-want +got):\n%s", diff)
	}
	wantOrder := []string{"first", "second", "first", "second", "first", "second", "second"}
	if diff := cmp.Diff(wantOrder, order); diff != "" {
		t.Errorf("observer order mismatch (-want +got):\n%s", diff)
	}
}

func TestTransactionString(t *testing.T) {
	m := newTestModel(t, FromPlainText("abc"))
	tx := m.Begin()
	if err := tx.AddMark(0, 2, MarkStrong); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Apply(tx); err != nil {
		t.Fatal(err)
	}
	if got, want := tx.String(), "tx(v1 -> v2: addMark(strong, 0-2))"; got != want {
		t.Errorf("String = %q, want %q", got, want)
	}
}
