package input

import (
	"sort"
	"sync"

	"github.com/dshills/quill/internal/input/key"
)

// Hook allows interception of input handling.
type Hook interface {
	// PreKeyEvent is called before a key event is resolved.
	// Return true to consume the event (stop further processing).
	PreKeyEvent(event *key.Event, ctx *Context) bool

	// PostKeyEvent is called after a key event. action is nil when the
	// key resolved to nothing.
	PostKeyEvent(event *key.Event, action *Action, ctx *Context)

	// PreAction is called before an action is returned to the caller.
	// Return true to consume the action.
	PreAction(action *Action, ctx *Context) bool
}

// HookPriority defines the execution order for hooks.
// Lower values execute first.
type HookPriority int

const (
	// HookPriorityHigh runs early in the hook chain.
	HookPriorityHigh HookPriority = -100
	// HookPriorityNormal is the default priority.
	HookPriorityNormal HookPriority = 0
	// HookPriorityLow runs late in the hook chain.
	HookPriorityLow HookPriority = 100
)

// HookID uniquely identifies a registered hook.
type HookID uint64

// HookRegistration holds metadata about a registered hook.
type HookRegistration struct {
	ID       HookID
	Name     string
	Priority HookPriority
	Hook     Hook
}

// HookManager runs hooks in priority order. Hooks run outside the lock,
// so a hook may register or remove hooks.
type HookManager struct {
	mu      sync.RWMutex
	hooks   []HookRegistration
	nextID  HookID
	enabled bool
}

// NewHookManager creates a new hook manager.
func NewHookManager() *HookManager {
	return &HookManager{enabled: true}
}

// Register adds a hook. name may be empty.
func (m *HookManager) Register(name string, hook Hook, priority HookPriority) HookID {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	m.hooks = append(m.hooks, HookRegistration{
		ID:       m.nextID,
		Name:     name,
		Priority: priority,
		Hook:     hook,
	})
	sort.SliceStable(m.hooks, func(i, j int) bool {
		return m.hooks[i].Priority < m.hooks[j].Priority
	})
	return m.nextID
}

// Unregister removes a hook by ID.
func (m *HookManager) Unregister(id HookID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.hooks {
		if m.hooks[i].ID == id {
			m.hooks = append(m.hooks[:i], m.hooks[i+1:]...)
			return true
		}
	}
	return false
}

// UnregisterByName removes every hook registered under name.
func (m *HookManager) UnregisterByName(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.hooks[:0]
	removed := false
	for _, reg := range m.hooks {
		if reg.Name == name {
			removed = true
			continue
		}
		kept = append(kept, reg)
	}
	m.hooks = kept
	return removed
}

// SetEnabled enables or disables all hooks.
func (m *HookManager) SetEnabled(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enabled = enabled
}

// Count returns the number of registered hooks.
func (m *HookManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.hooks)
}

// List returns all hook registrations in run order.
func (m *HookManager) List() []HookRegistration {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]HookRegistration, len(m.hooks))
	copy(result, m.hooks)
	return result
}

// snapshot copies the hooks for iteration outside the lock.
func (m *HookManager) snapshot() []Hook {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.enabled || len(m.hooks) == 0 {
		return nil
	}
	hooks := make([]Hook, len(m.hooks))
	for i := range m.hooks {
		hooks[i] = m.hooks[i].Hook
	}
	return hooks
}

// RunPreKeyEvent runs all PreKeyEvent hooks in priority order.
// Returns true if any hook consumed the event.
func (m *HookManager) RunPreKeyEvent(event *key.Event, ctx *Context) bool {
	for _, hook := range m.snapshot() {
		if hook.PreKeyEvent(event, ctx) {
			return true
		}
	}
	return false
}

// RunPostKeyEvent runs all PostKeyEvent hooks in priority order.
func (m *HookManager) RunPostKeyEvent(event *key.Event, action *Action, ctx *Context) {
	for _, hook := range m.snapshot() {
		hook.PostKeyEvent(event, action, ctx)
	}
}

// RunPreAction runs all PreAction hooks in priority order.
// Returns true if any hook consumed the action.
func (m *HookManager) RunPreAction(action *Action, ctx *Context) bool {
	for _, hook := range m.snapshot() {
		if hook.PreAction(action, ctx) {
			return true
		}
	}
	return false
}

// BaseHook provides a default implementation of the Hook interface.
// Embed this in custom hooks to only implement the methods you need.
type BaseHook struct{}

// PreKeyEvent is a no-op that does not consume events.
func (BaseHook) PreKeyEvent(*key.Event, *Context) bool {
	return false
}

// PostKeyEvent is a no-op.
func (BaseHook) PostKeyEvent(*key.Event, *Action, *Context) {}

// PreAction is a no-op that does not consume actions.
func (BaseHook) PreAction(*Action, *Context) bool {
	return false
}

// FuncHook wraps functions into a Hook interface implementation.
type FuncHook struct {
	PreKeyEventFunc  func(*key.Event, *Context) bool
	PostKeyEventFunc func(*key.Event, *Action, *Context)
	PreActionFunc    func(*Action, *Context) bool
}

// PreKeyEvent calls the PreKeyEventFunc if set.
func (h FuncHook) PreKeyEvent(event *key.Event, ctx *Context) bool {
	if h.PreKeyEventFunc != nil {
		return h.PreKeyEventFunc(event, ctx)
	}
	return false
}

// PostKeyEvent calls the PostKeyEventFunc if set.
func (h FuncHook) PostKeyEvent(event *key.Event, action *Action, ctx *Context) {
	if h.PostKeyEventFunc != nil {
		h.PostKeyEventFunc(event, action, ctx)
	}
}

// PreAction calls the PreActionFunc if set.
func (h FuncHook) PreAction(action *Action, ctx *Context) bool {
	if h.PreActionFunc != nil {
		return h.PreActionFunc(action, ctx)
	}
	return false
}

// LoggingHook logs key events and the actions they resolve to.
type LoggingHook struct {
	BaseHook
	Logger Logger
}

// PreKeyEvent logs the key event.
func (h LoggingHook) PreKeyEvent(event *key.Event, ctx *Context) bool {
	if h.Logger != nil {
		h.Logger.Debug("key %s (focused=%v modal=%v generating=%v)",
			event, ctx.EditorFocused, ctx.ModalActive, ctx.Generating)
	}
	return false
}

// PostKeyEvent logs the resulting action.
func (h LoggingHook) PostKeyEvent(event *key.Event, action *Action, ctx *Context) {
	if h.Logger != nil && action != nil {
		h.Logger.Debug("key %s -> %s", event, action.Name)
	}
}
