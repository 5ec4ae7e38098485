package hook

import (
	"sync"
	"time"

	"github.com/dshills/quill/internal/dispatcher/execctx"
	"github.com/dshills/quill/internal/dispatcher/handler"
	"github.com/dshills/quill/internal/input"
)

// Standard hook priorities.
const (
	PriorityAudit      = 1000 // Runs first (pre) / last (post)
	PriorityValidation = 800  // Validate before processing
	PriorityFocus      = 100  // Return focus after the result is final
)

// Logger is the interface for logging hooks.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

// AuditHook logs all dispatched actions.
type AuditHook struct {
	logger Logger
}

// NewAuditHook creates an audit hook with the given logger.
func NewAuditHook(logger Logger) *AuditHook {
	return &AuditHook{logger: logger}
}

// Name implements Hook.
func (h *AuditHook) Name() string { return "audit" }

// Priority implements Hook.
func (h *AuditHook) Priority() int { return PriorityAudit }

// PreDispatch logs the action being dispatched.
func (h *AuditHook) PreDispatch(action *input.Action, _ *execctx.ExecutionContext) bool {
	if h.logger != nil {
		h.logger.Debug("dispatch start: %s", action)
	}
	return true
}

// PostDispatch logs the dispatch result.
func (h *AuditHook) PostDispatch(action *input.Action, _ *execctx.ExecutionContext, result *handler.Result) {
	if h.logger == nil {
		return
	}
	if result.Status == handler.StatusError {
		h.logger.Warn("dispatch failed: %s: %v", action.Name, result.Error)
		return
	}
	h.logger.Debug("dispatch complete: %s -> %s", action.Name, result.Status)
}

// FocusHook returns keyboard focus to the editing surface when a result
// asks for it.
type FocusHook struct{}

// NewFocusHook creates a focus hook.
func NewFocusHook() *FocusHook {
	return &FocusHook{}
}

// Name implements Hook.
func (h *FocusHook) Name() string { return "focus" }

// Priority implements Hook.
func (h *FocusHook) Priority() int { return PriorityFocus }

// PostDispatch requests focus.
func (h *FocusHook) PostDispatch(_ *input.Action, ctx *execctx.ExecutionContext, result *handler.Result) {
	if result.Focus && ctx.Focus != nil {
		ctx.Focus.Focus()
	}
}

// ModalGuardHook cancels keyboard actions while a modal intercepts input.
type ModalGuardHook struct{}

// NewModalGuardHook creates a modal guard hook.
func NewModalGuardHook() *ModalGuardHook {
	return &ModalGuardHook{}
}

// Name implements Hook.
func (h *ModalGuardHook) Name() string { return "modal-guard" }

// Priority implements Hook.
func (h *ModalGuardHook) Priority() int { return PriorityValidation }

// PreDispatch rejects keyboard actions under a modal.
func (h *ModalGuardHook) PreDispatch(action *input.Action, ctx *execctx.ExecutionContext) bool {
	return action.Source != input.SourceKeyboard || !ctx.ModalActive()
}

// TimingHook reports how long each dispatch took.
type TimingHook struct {
	mu       sync.Mutex
	started  map[*execctx.ExecutionContext]time.Time
	callback func(action string, duration time.Duration)
}

// NewTimingHook creates a timing hook.
func NewTimingHook(callback func(action string, duration time.Duration)) *TimingHook {
	return &TimingHook{
		started:  make(map[*execctx.ExecutionContext]time.Time),
		callback: callback,
	}
}

// Name implements Hook.
func (h *TimingHook) Name() string { return "timing" }

// Priority implements Hook.
func (h *TimingHook) Priority() int { return PriorityAudit }

// PreDispatch records the start time.
func (h *TimingHook) PreDispatch(_ *input.Action, ctx *execctx.ExecutionContext) bool {
	h.mu.Lock()
	h.started[ctx] = time.Now()
	h.mu.Unlock()
	return true
}

// PostDispatch reports the elapsed time.
func (h *TimingHook) PostDispatch(action *input.Action, ctx *execctx.ExecutionContext, _ *handler.Result) {
	h.mu.Lock()
	start, ok := h.started[ctx]
	delete(h.started, ctx)
	h.mu.Unlock()

	if ok && h.callback != nil {
		h.callback(action.Name, time.Since(start))
	}
}

// ActionFilterHook cancels actions a filter rejects.
type ActionFilterHook struct {
	name     string
	priority int
	filter   func(*input.Action, *execctx.ExecutionContext) (bool, string)
	onReject func(action, reason string)
}

// NewActionFilterHook creates a filter hook. filter returns whether the
// action may proceed and, if not, why.
func NewActionFilterHook(name string, priority int, filter func(*input.Action, *execctx.ExecutionContext) (bool, string)) *ActionFilterHook {
	return &ActionFilterHook{name: name, priority: priority, filter: filter}
}

// OnReject sets a callback for rejected actions.
func (h *ActionFilterHook) OnReject(fn func(action, reason string)) *ActionFilterHook {
	h.onReject = fn
	return h
}

// Name implements Hook.
func (h *ActionFilterHook) Name() string { return h.name }

// Priority implements Hook.
func (h *ActionFilterHook) Priority() int { return h.priority }

// PreDispatch applies the filter.
func (h *ActionFilterHook) PreDispatch(action *input.Action, ctx *execctx.ExecutionContext) bool {
	if h.filter == nil {
		return true
	}
	ok, reason := h.filter(action, ctx)
	if !ok && h.onReject != nil {
		h.onReject(action.Name, reason)
	}
	return ok
}
