package input

import (
	"sync"

	"github.com/dshills/quill/internal/input/key"
	"github.com/dshills/quill/internal/input/keymap"
)

// Logger is the logging interface used by the handler.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

// Handler is the main entry point for input processing. It resolves key
// events against the keymap registry under the current context.
type Handler struct {
	mu sync.RWMutex

	registry *keymap.Registry
	context  *Context
	hooks    *HookManager
	logger   Logger
	closed   bool
}

// Option configures a Handler.
type Option func(*Handler)

// WithRegistry uses r instead of a registry holding the defaults.
func WithRegistry(r *keymap.Registry) Option {
	return func(h *Handler) {
		h.registry = r
	}
}

// WithLogger sets the handler logger.
func WithLogger(l Logger) Option {
	return func(h *Handler) {
		h.logger = l
	}
}

// NewHandler creates a new input handler.
func NewHandler(opts ...Option) *Handler {
	h := &Handler{
		context: NewContext(),
		hooks:   NewHookManager(),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.registry == nil {
		h.registry = keymap.NewRegistry()
		if err := keymap.LoadDefaults(h.registry); err != nil && h.logger != nil {
			h.logger.Warn("loading default keymap: %v", err)
		}
	}
	return h
}

// HandleKeyEvent resolves a key event. It returns the bound action and
// true, or false when the key is unbound, disabled, gated by the
// current context, or consumed by a hook.
func (h *Handler) HandleKeyEvent(event key.Event) (Action, bool) {
	h.mu.RLock()
	if h.closed {
		h.mu.RUnlock()
		return Action{}, false
	}
	ctx := h.context.Clone()
	h.mu.RUnlock()

	event = event.Normalize()
	if h.hooks.RunPreKeyEvent(&event, ctx) {
		return Action{}, false
	}

	binding := h.registry.Lookup(event, ctx.LookupContext())
	if binding == nil || binding.Disabled() {
		h.hooks.RunPostKeyEvent(&event, nil, ctx)
		return Action{}, false
	}

	action := buildAction(binding)
	h.hooks.RunPostKeyEvent(&event, &action, ctx)

	if h.hooks.RunPreAction(&action, ctx) {
		return Action{}, false
	}
	return action, true
}

// buildAction creates an action from a binding.
func buildAction(binding *keymap.Binding) Action {
	action := NewAction(binding.Action, SourceKeyboard)
	if binding.Args != nil {
		action.Args.Extra = make(map[string]any, len(binding.Args))
		for k, v := range binding.Args {
			action.Args.Extra[k] = v
		}
	}
	return action
}

// ApplyKeymap replaces the user bindings with overrides.
func (h *Handler) ApplyKeymap(overrides map[string]string) error {
	return keymap.ApplyOverrides(h.registry, overrides)
}

// Registry returns the keymap registry.
func (h *Handler) Registry() *keymap.Registry {
	return h.registry
}

// Hooks returns the hook manager.
func (h *Handler) Hooks() *HookManager {
	return h.hooks
}

// Context returns a copy of the current context.
func (h *Handler) Context() *Context {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.context.Clone()
}

// SetFocused records whether the editing surface has focus.
func (h *Handler) SetFocused(focused bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.context.EditorFocused = focused
}

// SetModalActive records whether a modal intercepts keys.
func (h *Handler) SetModalActive(active bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.context.ModalActive = active
}

// SetGenerating records whether a continuation is in flight.
func (h *Handler) SetGenerating(generating bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.context.Generating = generating
}

// UpdateContext updates the context from an editor state provider.
func (h *Handler) UpdateContext(editor EditorStateProvider) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.context.UpdateFromEditor(editor)
}

// Close stops the handler. Later key events resolve to nothing.
func (h *Handler) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
}

// IsClosed returns true if the handler has been closed.
func (h *Handler) IsClosed() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.closed
}
