package continuation

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/dshills/quill/internal/provider"
)

// Logger is the logging interface used by the orchestrator.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

// Observer is called after every transition with the snapshots before
// and after it.
type Observer func(prev, next Snapshot)

// Executor runs fn on the goroutine that owns the machine, typically an
// application event loop.
type Executor func(fn func())

// Orchestrator runs the continuation machine. Events are processed one at
// a time to completion: an event sent by an observer is queued and handled
// after every observer has seen the current transition.
type Orchestrator struct {
	mu sync.Mutex

	snap     Snapshot
	provider provider.Provider
	closed   bool

	queue    []Event
	draining bool

	observers map[uint64]Observer
	nextID    uint64

	exec   Executor
	logger Logger
	newID  func() string

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithExecutor delivers provider results through exec. By default they
// are handled on the provider goroutine.
func WithExecutor(exec Executor) Option {
	return func(o *Orchestrator) {
		if exec != nil {
			o.exec = exec
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l Logger) Option {
	return func(o *Orchestrator) {
		o.logger = l
	}
}

// WithRequestIDs replaces the request id generator.
func WithRequestIDs(fn func() string) Option {
	return func(o *Orchestrator) {
		if fn != nil {
			o.newID = fn
		}
	}
}

// New creates an idle orchestrator using p.
func New(p provider.Provider, opts ...Option) *Orchestrator {
	ctx, cancel := context.WithCancel(context.Background())
	o := &Orchestrator{
		provider:  p,
		observers: make(map[uint64]Observer),
		exec:      func(fn func()) { fn() },
		newID:     uuid.NewString,
		ctx:       ctx,
		cancel:    cancel,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// SetProvider replaces the provider used by later requests.
func (o *Orchestrator) SetProvider(p provider.Provider) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.provider = p
}

// Snapshot returns the current snapshot.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snap
}

// State returns the current state.
func (o *Orchestrator) State() State {
	return o.Snapshot().State
}

// Subscribe registers an observer. The returned function removes it.
func (o *Orchestrator) Subscribe(fn Observer) func() {
	o.mu.Lock()
	defer o.mu.Unlock()
	id := o.nextID
	o.nextID++
	o.observers[id] = fn
	return func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		delete(o.observers, id)
	}
}

// Send delivers ev. Unless another goroutine is already processing
// events, ev and anything queued by observers is handled before Send
// returns.
func (o *Orchestrator) Send(ev Event) {
	if g, ok := ev.(Generate); ok && g.RequestID == "" {
		g.RequestID = o.newID()
		ev = g
	}

	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.queue = append(o.queue, ev)
	if o.draining {
		o.mu.Unlock()
		return
	}
	o.draining = true
	for len(o.queue) > 0 && !o.closed {
		ev := o.queue[0]
		o.queue = o.queue[1:]

		prev := o.snap
		next := Reduce(prev, ev)
		if next == prev {
			if o.logger != nil {
				o.logger.Debug("continuation: %s ignored in %s", ev.eventName(), prev.State)
			}
			continue
		}
		o.snap = next
		observers := o.observerList()
		p := o.provider
		o.mu.Unlock()

		if o.logger != nil {
			o.logger.Debug("continuation: %s -> %s on %s (request %s)", prev.State, next.State, ev.eventName(), next.Context.RequestID)
		}
		for _, fn := range observers {
			fn(prev, next)
		}
		if next.Token != prev.Token {
			o.start(p, next.Token, ev.(Generate))
		}

		o.mu.Lock()
	}
	o.draining = false
	o.queue = nil
	o.mu.Unlock()
}

// start calls the provider in the background and feeds its result back
// as a settled event.
func (o *Orchestrator) start(p provider.Provider, token uint64, g Generate) {
	req := provider.Request{ID: g.RequestID, ExistingText: g.ExistingText, Options: g.Options}
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		text, err := o.call(p, req)
		o.exec(func() {
			o.Send(settled{token: token, text: text, err: err})
		})
	}()
}

func (o *Orchestrator) call(p provider.Provider, req provider.Request) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", errProviderPanic, r)
		}
	}()
	if p == nil {
		return "", fmt.Errorf("no provider configured")
	}
	return p.Generate(o.ctx, req)
}

// Wait blocks until every provider call started so far has returned.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

// Close stops the orchestrator and leaves it idle. In-flight provider
// calls are cancelled; their results and every later event are dropped.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.closed = true
	o.queue = nil
	o.snap = Snapshot{State: StateIdle, Token: o.snap.Token + 1}
	o.mu.Unlock()
	o.cancel()
}

// observerList must be called with the lock held.
func (o *Orchestrator) observerList() []Observer {
	out := make([]Observer, 0, len(o.observers))
	for id := uint64(0); id < o.nextID; id++ {
		if fn, ok := o.observers[id]; ok {
			out = append(out, fn)
		}
	}
	return out
}
