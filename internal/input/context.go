package input

import (
	"github.com/dshills/quill/internal/input/keymap"
)

// Context tracks the editor state that decides which bindings apply.
type Context struct {
	// EditorFocused is set while the editing surface has keyboard focus.
	EditorFocused bool

	// ModalActive is set while a modal text-entry surface, such as the
	// instructions dialog, intercepts keys.
	ModalActive bool

	// Generating is set while a continuation request is in flight.
	Generating bool

	// HasSelection indicates whether the selection is a non-empty range.
	HasSelection bool
}

// NewContext creates a context with the editor focused.
func NewContext() *Context {
	return &Context{EditorFocused: true}
}

// Clone returns a copy of the context.
func (c *Context) Clone() *Context {
	clone := *c
	return &clone
}

// LookupContext converts c into keymap conditions.
func (c *Context) LookupContext() *keymap.LookupContext {
	ctx := keymap.NewLookupContext()
	ctx.Conditions[keymap.CondEditorFocus] = c.EditorFocused
	ctx.Conditions[keymap.CondModalActive] = c.ModalActive
	ctx.Conditions[keymap.CondGenerating] = c.Generating
	ctx.Conditions[keymap.CondHasSelection] = c.HasSelection
	return ctx
}

// EditorStateProvider provides editor state for context updates.
type EditorStateProvider interface {
	// Focused reports whether the editing surface has focus.
	Focused() bool

	// ModalActive reports whether a modal intercepts keys.
	ModalActive() bool

	// Generating reports whether a continuation is in flight.
	Generating() bool

	// HasSelection reports whether the selection is a range.
	HasSelection() bool
}

// UpdateFromEditor updates the context from an editor state provider.
func (c *Context) UpdateFromEditor(editor EditorStateProvider) {
	if editor == nil {
		return
	}
	c.EditorFocused = editor.Focused()
	c.ModalActive = editor.ModalActive()
	c.Generating = editor.Generating()
	c.HasSelection = editor.HasSelection()
}
