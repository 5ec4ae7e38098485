package dispatcher

import (
	"sort"
	"sync"
	"time"

	"github.com/dshills/quill/internal/dispatcher/handler"
)

// Metrics collects dispatch statistics.
type Metrics struct {
	mu sync.RWMutex

	actions  map[string]*ActionMetrics
	statuses map[handler.ResultStatus]uint64

	totalDispatches uint64
	totalErrors     uint64
	totalPanics     uint64
	totalDuration   time.Duration
}

// ActionMetrics holds statistics for one action name.
type ActionMetrics struct {
	Name          string
	DispatchCount uint64
	NoOpCount     uint64
	ErrorCount    uint64
	TotalDuration time.Duration
	MinDuration   time.Duration
	MaxDuration   time.Duration
	LastStatus    handler.ResultStatus
	LastDispatch  time.Time
}

// NewMetrics creates an empty metrics collector.
func NewMetrics() *Metrics {
	return &Metrics{
		actions:  make(map[string]*ActionMetrics),
		statuses: make(map[handler.ResultStatus]uint64),
	}
}

// RecordDispatch records one completed dispatch.
func (m *Metrics) RecordDispatch(actionName string, duration time.Duration, status handler.ResultStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalDispatches++
	m.totalDuration += duration
	m.statuses[status]++
	if status == handler.StatusError {
		m.totalErrors++
	}

	am := m.actions[actionName]
	if am == nil {
		am = &ActionMetrics{Name: actionName, MinDuration: duration, MaxDuration: duration}
		m.actions[actionName] = am
	}
	am.DispatchCount++
	am.TotalDuration += duration
	am.LastStatus = status
	am.LastDispatch = time.Now()
	am.MinDuration = min(am.MinDuration, duration)
	am.MaxDuration = max(am.MaxDuration, duration)

	switch status {
	case handler.StatusError:
		am.ErrorCount++
	case handler.StatusNoOp:
		am.NoOpCount++
	}
}

// RecordPanic records a recovered handler panic.
func (m *Metrics) RecordPanic(actionName string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.totalPanics++
}

// ActionStats returns a copy of the statistics for one action, or nil.
func (m *Metrics) ActionStats(actionName string) *ActionMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	am := m.actions[actionName]
	if am == nil {
		return nil
	}
	c := *am
	return &c
}

// StatusCount returns how many dispatches finished with status.
func (m *Metrics) StatusCount(status handler.ResultStatus) uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.statuses[status]
}

// TopActions returns the n most dispatched actions.
func (m *Metrics) TopActions(n int) []*ActionMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	actions := make([]*ActionMetrics, 0, len(m.actions))
	for _, am := range m.actions {
		c := *am
		actions = append(actions, &c)
	}
	sort.Slice(actions, func(i, j int) bool {
		if actions[i].DispatchCount != actions[j].DispatchCount {
			return actions[i].DispatchCount > actions[j].DispatchCount
		}
		return actions[i].Name < actions[j].Name
	})
	return actions[:min(n, len(actions))]
}

// Reset clears all statistics.
func (m *Metrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.actions = make(map[string]*ActionMetrics)
	m.statuses = make(map[handler.ResultStatus]uint64)
	m.totalDispatches = 0
	m.totalErrors = 0
	m.totalPanics = 0
	m.totalDuration = 0
}

// MetricsSnapshot is a point-in-time view of the collector.
type MetricsSnapshot struct {
	TotalDispatches uint64
	TotalErrors     uint64
	TotalPanics     uint64
	TotalDuration   time.Duration
	AverageDuration time.Duration
	ActionCount     int
	ByStatus        map[string]uint64
	Timestamp       time.Time
}

// Snapshot returns the current totals.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := MetricsSnapshot{
		TotalDispatches: m.totalDispatches,
		TotalErrors:     m.totalErrors,
		TotalPanics:     m.totalPanics,
		TotalDuration:   m.totalDuration,
		ActionCount:     len(m.actions),
		ByStatus:        make(map[string]uint64, len(m.statuses)),
		Timestamp:       time.Now(),
	}
	for status, n := range m.statuses {
		s.ByStatus[status.String()] = n
	}
	if m.totalDispatches > 0 {
		s.AverageDuration = m.totalDuration / time.Duration(m.totalDispatches)
	}
	return s
}

// AverageDuration returns the mean duration of the action.
func (am *ActionMetrics) AverageDuration() time.Duration {
	if am.DispatchCount == 0 {
		return 0
	}
	return am.TotalDuration / time.Duration(am.DispatchCount)
}
