package layer

import (
	"fmt"
	"sort"
	"sync"
)

// Manager keeps layers sorted by priority and caches their merge.
type Manager struct {
	mu     sync.Mutex
	layers []*Layer
	merged map[string]any
	dirty  bool
}

// NewManager creates an empty manager.
func NewManager() *Manager {
	return &Manager{dirty: true}
}

// Put adds l, replacing any layer with the same name.
func (m *Manager) Put(l *Layer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeLocked(l.Name)
	m.layers = append(m.layers, l)
	sort.SliceStable(m.layers, func(i, j int) bool {
		return m.layers[i].Priority < m.layers[j].Priority
	})
	m.dirty = true
}

// Remove deletes the named layer and reports whether it existed.
func (m *Manager) Remove(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.removeLocked(name)
}

func (m *Manager) removeLocked(name string) bool {
	for i, l := range m.layers {
		if l.Name == name {
			m.layers = append(m.layers[:i], m.layers[i+1:]...)
			m.dirty = true
			return true
		}
	}
	return false
}

// Layer returns a copy of the named layer.
func (m *Manager) Layer(name string) (*Layer, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.layers {
		if l.Name == name {
			return l.Clone(), true
		}
	}
	return nil, false
}

// Names returns the layer names from lowest to highest priority.
func (m *Manager) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, len(m.layers))
	for i, l := range m.layers {
		names[i] = l.Name
	}
	return names
}

// Set stores value at path in the named layer.
func (m *Manager) Set(name, path string, value any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.layers {
		if l.Name == name {
			SetByPath(l.Data, path, value)
			m.dirty = true
			return nil
		}
	}
	return fmt.Errorf("layer not found: %s", name)
}

// Get returns the effective value at path.
func (m *Manager) Get(path string) (any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return GetByPath(m.mergedLocked(), path)
}

// Merge returns a copy of all layers merged in priority order.
func (m *Manager) Merge() map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneMap(m.mergedLocked())
}

func (m *Manager) mergedLocked() map[string]any {
	if m.dirty || m.merged == nil {
		merged := make(map[string]any)
		for _, l := range m.layers {
			merged = DeepMerge(merged, l.Data)
		}
		m.merged = merged
		m.dirty = false
	}
	return m.merged
}
