package hook

import (
	"slices"
	"sort"
	"sync"

	"github.com/dshills/quill/internal/dispatcher/execctx"
	"github.com/dshills/quill/internal/dispatcher/handler"
	"github.com/dshills/quill/internal/input"
)

// Manager manages dispatch hooks with priority-based ordering. A hook
// registered under an existing name replaces it.
type Manager struct {
	mu        sync.RWMutex
	preHooks  []PreDispatchHook
	postHooks []PostDispatchHook
}

// NewManager creates a new hook manager.
func NewManager() *Manager {
	return &Manager{}
}

// RegisterPre adds a pre-dispatch hook. Higher priority runs first.
func (m *Manager) RegisterPre(h PreDispatchHook) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.preHooks = replaceOrAppend(m.preHooks, h)
	sort.SliceStable(m.preHooks, func(i, j int) bool {
		return m.preHooks[i].Priority() > m.preHooks[j].Priority()
	})
}

// RegisterPost adds a post-dispatch hook. Higher priority runs last so
// it sees the final result.
func (m *Manager) RegisterPost(h PostDispatchHook) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.postHooks = replaceOrAppend(m.postHooks, h)
	sort.SliceStable(m.postHooks, func(i, j int) bool {
		return m.postHooks[i].Priority() < m.postHooks[j].Priority()
	})
}

func replaceOrAppend[H Hook](hooks []H, h H) []H {
	for i, existing := range hooks {
		if existing.Name() == h.Name() {
			hooks[i] = h
			return hooks
		}
	}
	return append(hooks, h)
}

// Register adds a hook under every interface it implements.
func (m *Manager) Register(h Hook) {
	if pre, ok := h.(PreDispatchHook); ok {
		m.RegisterPre(pre)
	}
	if post, ok := h.(PostDispatchHook); ok {
		m.RegisterPost(post)
	}
}

// Unregister removes a hook by name from both lists.
func (m *Manager) Unregister(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	before := len(m.preHooks) + len(m.postHooks)
	m.preHooks = slices.DeleteFunc(m.preHooks, func(h PreDispatchHook) bool { return h.Name() == name })
	m.postHooks = slices.DeleteFunc(m.postHooks, func(h PostDispatchHook) bool { return h.Name() == name })
	return len(m.preHooks)+len(m.postHooks) < before
}

// RunPreDispatch runs all pre-dispatch hooks in priority order.
// Returns false if any hook cancels the action.
func (m *Manager) RunPreDispatch(action *input.Action, ctx *execctx.ExecutionContext) bool {
	m.mu.RLock()
	hooks := slices.Clone(m.preHooks)
	m.mu.RUnlock()

	for _, h := range hooks {
		if !h.PreDispatch(action, ctx) {
			return false
		}
	}
	return true
}

// RunPostDispatch runs all post-dispatch hooks from lowest to highest priority.
func (m *Manager) RunPostDispatch(action *input.Action, ctx *execctx.ExecutionContext, result *handler.Result) {
	m.mu.RLock()
	hooks := slices.Clone(m.postHooks)
	m.mu.RUnlock()

	for _, h := range hooks {
		h.PostDispatch(action, ctx, result)
	}
}

// PreHookNames returns the names of all pre-dispatch hooks in order.
func (m *Manager) PreHookNames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, len(m.preHooks))
	for i, h := range m.preHooks {
		names[i] = h.Name()
	}
	return names
}

// PostHookNames returns the names of all post-dispatch hooks in order.
func (m *Manager) PostHookNames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, len(m.postHooks))
	for i, h := range m.postHooks {
		names[i] = h.Name()
	}
	return names
}

// Clear removes all hooks.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.preHooks = nil
	m.postHooks = nil
}
