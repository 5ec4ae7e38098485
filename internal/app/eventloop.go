package app

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// defaultTaskBuffer is the event loop queue length.
const defaultTaskBuffer = 64

// EventLoop runs tasks one at a time on a single goroutine. Everything
// that touches the document or the continuation machine goes through it,
// so observers never race with dispatches or provider results.
type EventLoop struct {
	tasks   chan func()
	done    chan struct{}
	stop    sync.Once
	running atomic.Bool

	logger  *Logger
	metrics *Metrics
}

// NewEventLoop creates a stopped event loop.
func NewEventLoop(logger *Logger, metrics *Metrics) *EventLoop {
	if logger == nil {
		logger = Nop()
	}
	if metrics == nil {
		metrics = NewMetrics()
	}
	return &EventLoop{
		tasks:   make(chan func(), defaultTaskBuffer),
		done:    make(chan struct{}),
		logger:  logger,
		metrics: metrics,
	}
}

// Post queues fn. It reports false when the loop has been stopped.
func (l *EventLoop) Post(fn func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.tasks <- fn:
		return true
	case <-l.done:
		return false
	}
}

// Sync runs fn on the loop and waits for it to finish. A task queued
// before Run starts waits for it. Sync must not be called from a task.
func (l *EventLoop) Sync(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if !l.Post(func() {
		defer close(finished)
		fn()
	}) {
		return ErrNotRunning
	}
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return ErrNotRunning
	}
}

// Run processes tasks until ctx is cancelled or Stop is called.
func (l *EventLoop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer l.running.Store(false)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.done:
			return nil
		case fn := <-l.tasks:
			l.runTask(fn)
		}
	}
}

func (l *EventLoop) runTask(fn func()) {
	start := time.Now()
	defer func() {
		l.metrics.RecordTask(time.Since(start))
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			l.metrics.RecordTaskPanic()
			l.logger.Error("event loop: %v", &RecoveredPanicError{Value: r, Stack: string(buf[:n])})
		}
	}()
	fn()
}

// Running reports whether Run is active.
func (l *EventLoop) Running() bool {
	return l.running.Load()
}

// Stop ends Run. Queued tasks are dropped.
func (l *EventLoop) Stop() {
	l.stop.Do(func() { close(l.done) })
}

// Done is closed when the loop is stopped.
func (l *EventLoop) Done() <-chan struct{} {
	return l.done
}
