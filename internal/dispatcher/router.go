package dispatcher

import (
	"sort"
	"strings"
	"sync"

	"github.com/dshills/quill/internal/dispatcher/handler"
)

// Router routes actions to namespace handlers by the segment before the
// first dot, so "format.toggleMark.em" goes to the "format" handler.
type Router struct {
	mu         sync.RWMutex
	namespaces map[string]handler.NamespaceHandler
	fallback   handler.Handler
}

// NewRouter creates an empty router.
func NewRouter() *Router {
	return &Router{
		namespaces: make(map[string]handler.NamespaceHandler),
	}
}

// RegisterNamespace registers a handler for every action in a namespace.
func (r *Router) RegisterNamespace(namespace string, h handler.NamespaceHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.namespaces[namespace] = h
}

// UnregisterNamespace removes a namespace handler.
func (r *Router) UnregisterNamespace(namespace string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.namespaces, namespace)
}

// SetFallback sets the handler used when no namespace matches.
func (r *Router) SetFallback(h handler.Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallback = h
}

// Route returns the handler for an action, or nil.
func (r *Router) Route(actionName string) handler.Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if ns, ok := Namespace(actionName); ok {
		if h, ok := r.namespaces[ns]; ok && h.CanHandle(actionName) {
			return handler.NewNamespaceAdapter(h)
		}
	}
	return r.fallback
}

// Namespaces returns the registered namespace names, sorted.
func (r *Router) Namespaces() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.namespaces))
	for name := range r.namespaces {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CanRoute reports whether Route would find a handler.
func (r *Router) CanRoute(actionName string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if ns, ok := Namespace(actionName); ok {
		if h, ok := r.namespaces[ns]; ok && h.CanHandle(actionName) {
			return true
		}
	}
	return r.fallback != nil
}

// Namespace returns the part of an action name before the first dot.
func Namespace(actionName string) (string, bool) {
	ns, _, ok := strings.Cut(actionName, ".")
	return ns, ok && ns != ""
}
