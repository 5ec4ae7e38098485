// Package notify delivers configuration change notifications to
// subscribed observers.
package notify

import (
	"sort"
	"strings"
	"sync"
)

// ChangeType is the kind of configuration change.
type ChangeType int

const (
	// ChangeSet means a value was set or updated.
	ChangeSet ChangeType = iota
	// ChangeReload means a source was reloaded as a whole.
	ChangeReload
)

// String returns the change type name.
func (c ChangeType) String() string {
	switch c {
	case ChangeSet:
		return "set"
	case ChangeReload:
		return "reload"
	default:
		return "unknown"
	}
}

// Change describes one configuration change.
type Change struct {
	// Path is the dot-separated setting path. Empty for reloads.
	Path string
	Type ChangeType

	OldValue any
	NewValue any

	// Source names what caused the change, such as a file path.
	Source string
}

// Observer receives changes.
type Observer func(change Change)

// Subscription is an active observer registration.
type Subscription struct {
	id       uint64
	notifier *Notifier
}

// Unsubscribe removes the observer. It is safe to call more than once.
func (s *Subscription) Unsubscribe() {
	if s != nil && s.notifier != nil {
		s.notifier.unsubscribe(s.id)
	}
}

type entry struct {
	path     string
	observer Observer
}

// Notifier fans changes out to observers in subscription order.
type Notifier struct {
	mu        sync.RWMutex
	observers map[uint64]entry
	nextID    uint64
	closed    bool
}

// New creates a notifier.
func New() *Notifier {
	return &Notifier{observers: make(map[uint64]entry)}
}

// Subscribe registers an observer for every change.
func (n *Notifier) Subscribe(observer Observer) *Subscription {
	return n.SubscribePath("", observer)
}

// SubscribePath registers an observer for changes at path or below it.
// Subscribing to "ai" receives changes to "ai.model". Reloads reach
// every observer.
func (n *Notifier) SubscribePath(path string, observer Observer) *Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()
	id := n.nextID
	n.nextID++
	n.observers[id] = entry{path: path, observer: observer}
	return &Subscription{id: id, notifier: n}
}

// Notify delivers change synchronously. Observers run without the lock
// held, so they may subscribe or unsubscribe.
func (n *Notifier) Notify(change Change) {
	n.mu.RLock()
	if n.closed {
		n.mu.RUnlock()
		return
	}
	ids := make([]uint64, 0, len(n.observers))
	for id, e := range n.observers {
		if matches(e.path, change) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	observers := make([]Observer, len(ids))
	for i, id := range ids {
		observers[i] = n.observers[id].observer
	}
	n.mu.RUnlock()

	for _, obs := range observers {
		obs(change)
	}
}

// NotifySet reports a changed value.
func (n *Notifier) NotifySet(path string, oldValue, newValue any, source string) {
	n.Notify(Change{Path: path, Type: ChangeSet, OldValue: oldValue, NewValue: newValue, Source: source})
}

// NotifyReload reports that source was reloaded.
func (n *Notifier) NotifyReload(source string) {
	n.Notify(Change{Type: ChangeReload, Source: source})
}

// Close drops all observers and ignores later notifications.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.closed = true
	n.observers = make(map[uint64]entry)
}

func (n *Notifier) unsubscribe(id uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.observers, id)
}

func matches(path string, change Change) bool {
	if path == "" || change.Type == ChangeReload {
		return true
	}
	return change.Path == path || strings.HasPrefix(change.Path, path+".")
}
