package app

import (
	"sync/atomic"
	"time"
)

// Metrics tracks session activity: event loop tasks and continuation
// requests.
type Metrics struct {
	// Event loop
	taskCount   atomic.Uint64
	taskTotalNs atomic.Int64
	taskPanics  atomic.Uint64

	// Continuation requests
	generations      atomic.Uint64
	successes        atomic.Uint64
	failures         atomic.Uint64
	insertFailures   atomic.Uint64
	generateTotalNs  atomic.Int64
	generateMinNs    atomic.Int64
	generateMaxNs    atomic.Int64
	lastGenerateNs   atomic.Int64
	generatedRunes   atomic.Uint64
	keyEvents        atomic.Uint64
	keyEventsUnbound atomic.Uint64

	startTime time.Time
}

// NewMetrics creates a new metrics tracker.
func NewMetrics() *Metrics {
	m := &Metrics{startTime: time.Now()}
	m.generateMinNs.Store(1<<63 - 1)
	return m
}

// RecordTask records one event loop task.
func (m *Metrics) RecordTask(duration time.Duration) {
	m.taskCount.Add(1)
	m.taskTotalNs.Add(duration.Nanoseconds())
}

// RecordTaskPanic records a task that panicked.
func (m *Metrics) RecordTaskPanic() {
	m.taskPanics.Add(1)
}

// RecordKey records a key event and whether it resolved to an action.
func (m *Metrics) RecordKey(bound bool) {
	m.keyEvents.Add(1)
	if !bound {
		m.keyEventsUnbound.Add(1)
	}
}

// RecordGenerateStart records a continuation request entering generating.
func (m *Metrics) RecordGenerateStart() {
	m.generations.Add(1)
}

// RecordGenerateEnd records a settled continuation request.
func (m *Metrics) RecordGenerateEnd(duration time.Duration, ok bool, runes int) {
	ns := duration.Nanoseconds()
	m.generateTotalNs.Add(ns)
	m.lastGenerateNs.Store(ns)
	if ok {
		m.successes.Add(1)
		m.generatedRunes.Add(uint64(runes))
	} else {
		m.failures.Add(1)
	}

	for {
		old := m.generateMinNs.Load()
		if ns >= old || m.generateMinNs.CompareAndSwap(old, ns) {
			break
		}
	}
	for {
		old := m.generateMaxNs.Load()
		if ns <= old || m.generateMaxNs.CompareAndSwap(old, ns) {
			break
		}
	}
}

// RecordInsertFailure records generated text that could not be inserted.
func (m *Metrics) RecordInsertFailure() {
	m.insertFailures.Add(1)
}

// MetricsSnapshot is a point-in-time copy of Metrics.
type MetricsSnapshot struct {
	Uptime time.Duration

	TaskCount  uint64
	TaskAvg    time.Duration
	TaskPanics uint64

	KeyEvents        uint64
	KeyEventsUnbound uint64

	Generations    uint64
	Successes      uint64
	Failures       uint64
	InsertFailures uint64
	GeneratedRunes uint64
	GenerateAvg    time.Duration
	GenerateMin    time.Duration
	GenerateMax    time.Duration
	GenerateLast   time.Duration
}

// Snapshot returns the current values.
func (m *Metrics) Snapshot() MetricsSnapshot {
	s := MetricsSnapshot{
		Uptime:           time.Since(m.startTime),
		TaskCount:        m.taskCount.Load(),
		TaskPanics:       m.taskPanics.Load(),
		KeyEvents:        m.keyEvents.Load(),
		KeyEventsUnbound: m.keyEventsUnbound.Load(),
		Generations:      m.generations.Load(),
		Successes:        m.successes.Load(),
		Failures:         m.failures.Load(),
		InsertFailures:   m.insertFailures.Load(),
		GeneratedRunes:   m.generatedRunes.Load(),
		GenerateMax:      time.Duration(m.generateMaxNs.Load()),
		GenerateLast:     time.Duration(m.lastGenerateNs.Load()),
	}
	if s.TaskCount > 0 {
		s.TaskAvg = time.Duration(m.taskTotalNs.Load() / int64(s.TaskCount))
	}
	if settled := s.Successes + s.Failures; settled > 0 {
		s.GenerateAvg = time.Duration(m.generateTotalNs.Load() / int64(settled))
		s.GenerateMin = time.Duration(m.generateMinNs.Load())
	}
	return s
}

// SuccessRate returns the share of settled requests that succeeded, in
// percent.
func (s MetricsSnapshot) SuccessRate() float64 {
	settled := s.Successes + s.Failures
	if settled == 0 {
		return 0
	}
	return float64(s.Successes) / float64(settled) * 100
}
