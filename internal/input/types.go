package input

import (
	"fmt"
	"strconv"
)

// ActionSource indicates the origin of an action.
type ActionSource uint8

const (
	// SourceKeyboard indicates the action originated from a key binding.
	SourceKeyboard ActionSource = iota
	// SourceToolbar indicates the action originated from a toolbar button.
	SourceToolbar
	// SourceCLI indicates the action was named on the command line.
	SourceCLI
	// SourceAPI indicates the action originated from an API call.
	SourceAPI
)

// String returns a string representation of the action source.
func (s ActionSource) String() string {
	switch s {
	case SourceKeyboard:
		return "keyboard"
	case SourceToolbar:
		return "toolbar"
	case SourceCLI:
		return "cli"
	case SourceAPI:
		return "api"
	default:
		return "unknown"
	}
}

// ActionArgs holds arguments for an action.
type ActionArgs struct {
	// Extra holds additional key-value pairs for extensibility.
	Extra map[string]any
}

// Get retrieves a value from Extra.
func (a ActionArgs) Get(key string) (any, bool) {
	if a.Extra == nil {
		return nil, false
	}
	v, ok := a.Extra[key]
	return v, ok
}

// GetString retrieves a string value from Extra.
func (a ActionArgs) GetString(key string) string {
	if v, ok := a.Get(key); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// GetInt retrieves an int value from Extra. Numeric strings are
// accepted since command-line arguments arrive as text.
func (a ActionArgs) GetInt(key string) int {
	if v, ok := a.Get(key); ok {
		switch n := v.(type) {
		case int:
			return n
		case int64:
			return int(n)
		case float64:
			return int(n)
		case string:
			if i, err := strconv.Atoi(n); err == nil {
				return i
			}
		}
	}
	return 0
}

// GetBool retrieves a bool value from Extra.
func (a ActionArgs) GetBool(key string) bool {
	if v, ok := a.Get(key); ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return false
}

// Action represents a command to be executed by the dispatcher.
type Action struct {
	// Name is the command identifier (e.g., "format.toggleMark.em", "ai.continue").
	Name string

	// Args contains command-specific arguments.
	Args ActionArgs

	// Source indicates where this action originated.
	Source ActionSource
}

// NewAction creates an action with the given name and source.
func NewAction(name string, source ActionSource) Action {
	return Action{Name: name, Source: source}
}

// WithArg returns a copy of the action with an extra argument set.
func (a Action) WithArg(key string, value any) Action {
	extra := make(map[string]any, len(a.Args.Extra)+1)
	for k, v := range a.Args.Extra {
		extra[k] = v
	}
	extra[key] = value
	a.Args.Extra = extra
	return a
}

// String formats the action for logs.
func (a Action) String() string {
	if len(a.Args.Extra) == 0 {
		return fmt.Sprintf("%s (%s)", a.Name, a.Source)
	}
	return fmt.Sprintf("%s %v (%s)", a.Name, a.Args.Extra, a.Source)
}
