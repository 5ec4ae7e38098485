package keymap

import (
	"github.com/dshills/quill/internal/input/key"
)

// ActionNone marks a binding that swallows its key without an action.
const ActionNone = "none"

// Binding represents a single key-to-action mapping.
type Binding struct {
	// Keys is the chord that triggers this binding.
	// Formats: "Mod-b", "Shift-Enter", "<C-z>", "Ctrl+Shift+Z"
	Keys string

	// Action is the command to execute.
	// Examples: "format.toggleMark.em", "history.undo", "ai.continue"
	Action string

	// Args are fixed arguments for the action.
	Args map[string]any

	// When is a condition expression that must be true for this binding.
	// Examples: "editorTextFocus", "!modalActive"
	When string

	// Description provides documentation for the binding.
	Description string

	// Priority breaks ties between bindings of the same keymap.
	Priority int

	// Category groups bindings for display purposes.
	Category string
}

// NewBinding creates a new binding with the given keys and action.
func NewBinding(keys, action string) Binding {
	return Binding{
		Keys:   keys,
		Action: action,
	}
}

// WithArgs sets arguments for this binding.
func (b Binding) WithArgs(args map[string]any) Binding {
	b.Args = args
	return b
}

// WithWhen sets the condition for this binding.
func (b Binding) WithWhen(when string) Binding {
	b.When = when
	return b
}

// WithDescription sets the description for this binding.
func (b Binding) WithDescription(desc string) Binding {
	b.Description = desc
	return b
}

// WithCategory sets the category for this binding.
func (b Binding) WithCategory(category string) Binding {
	b.Category = category
	return b
}

// Disabled reports whether the binding swallows its key.
func (b Binding) Disabled() bool {
	return b.Action == ActionNone
}

// ParsedBinding is a binding with its chord parsed.
type ParsedBinding struct {
	Binding
	Event key.Event
}

// Match reports whether ev triggers the binding.
func (pb *ParsedBinding) Match(ev key.Event) bool {
	if pb == nil {
		return false
	}
	return pb.Event.Equals(ev)
}

// BindingMatch is a matched binding with the keymap that holds it.
type BindingMatch struct {
	*ParsedBinding
	Keymap *Keymap
}
