package doc

// historyEntry records a document state to restore.
type historyEntry struct {
	doc *Node
	sel Selection
}

// history holds undo and redo stacks of whole document states. Documents
// are immutable, so entries share structure with the live tree.
type history struct {
	undoStack  []historyEntry
	redoStack  []historyEntry
	maxEntries int
}

func newHistory(maxEntries int) *history {
	if maxEntries <= 0 {
		maxEntries = 100
	}
	return &history{maxEntries: maxEntries}
}

// push records the state before an edit and clears the redo stack.
func (h *history) push(e historyEntry) {
	h.undoStack = append(h.undoStack, e)
	h.redoStack = nil
	if len(h.undoStack) > h.maxEntries {
		excess := len(h.undoStack) - h.maxEntries
		h.undoStack = h.undoStack[excess:]
	}
}

func (h *history) canUndo() bool { return len(h.undoStack) > 0 }
func (h *history) canRedo() bool { return len(h.redoStack) > 0 }

// undo pops the last state and records current for redo.
func (h *history) undo(current historyEntry) (historyEntry, bool) {
	if len(h.undoStack) == 0 {
		return historyEntry{}, false
	}
	e := h.undoStack[len(h.undoStack)-1]
	h.undoStack = h.undoStack[:len(h.undoStack)-1]
	h.redoStack = append(h.redoStack, current)
	return e, true
}

// redo pops the last undone state and records current for undo.
func (h *history) redo(current historyEntry) (historyEntry, bool) {
	if len(h.redoStack) == 0 {
		return historyEntry{}, false
	}
	e := h.redoStack[len(h.redoStack)-1]
	h.redoStack = h.redoStack[:len(h.redoStack)-1]
	h.undoStack = append(h.undoStack, current)
	return e, true
}
