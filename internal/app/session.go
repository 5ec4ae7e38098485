package app

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/dshills/quill/internal/config"
	"github.com/dshills/quill/internal/config/notify"
	"github.com/dshills/quill/internal/continuation"
	"github.com/dshills/quill/internal/dispatcher"
	"github.com/dshills/quill/internal/dispatcher/handler"
	aihandler "github.com/dshills/quill/internal/dispatcher/handlers/ai"
	formathandler "github.com/dshills/quill/internal/dispatcher/handlers/format"
	historyhandler "github.com/dshills/quill/internal/dispatcher/handlers/history"
	"github.com/dshills/quill/internal/dispatcher/hook"
	"github.com/dshills/quill/internal/doc"
	"github.com/dshills/quill/internal/format"
	"github.com/dshills/quill/internal/input"
	"github.com/dshills/quill/internal/input/key"
	"github.com/dshills/quill/internal/provider"
)

// Options configures a Session.
type Options struct {
	// Config supplies AI, logging and editor settings. It should already
	// be loaded. Nil means built-in defaults.
	Config *config.Config

	// Logger defaults to Nop.
	Logger *Logger

	// Provider replaces the provider built from the ai section. A fixed
	// provider is kept across configuration changes.
	Provider provider.Provider

	// Document is the initial content. Nil means one empty paragraph.
	Document  *doc.Node
	Selection doc.Selection

	// HTTPClient is passed to HTTP based providers.
	HTTPClient *http.Client
}

// Session is one open document with everything needed to edit it: the
// model, the formatting controller, the continuation orchestrator and its
// inserter, the keymap and the dispatcher. All mutations run on the
// session's event loop.
type Session struct {
	cfg     *config.Config
	logger  *Logger
	metrics *Metrics
	loop    *EventLoop

	model      *doc.Model
	formatter  *format.Controller
	orch       *continuation.Orchestrator
	input      *input.Handler
	dispatcher *dispatcher.Dispatcher
	focus      *focusTarget

	httpClient    *http.Client
	providerFixed bool

	mu         sync.Mutex
	observers  map[uint64]func(string)
	nextObs    uint64
	genStart   time.Time
	cleanup    []func()
	configSubs []*notify.Subscription
	started    bool
	closed     bool
	wg         sync.WaitGroup
}

// NewSession builds a session. Call Start before dispatching.
func NewSession(opts Options) (*Session, error) {
	s := &Session{
		cfg:           opts.Config,
		logger:        opts.Logger,
		metrics:       NewMetrics(),
		httpClient:    opts.HTTPClient,
		providerFixed: opts.Provider != nil,
		observers:     make(map[uint64]func(string)),
	}
	if s.cfg == nil {
		s.cfg = config.New()
	}
	if s.logger == nil {
		s.logger = Nop()
	}
	s.loop = NewEventLoop(s.logger.WithComponent("loop"), s.metrics)

	root := opts.Document
	if root == nil {
		root = doc.Doc(doc.Paragraph())
	}
	model, err := doc.NewModel(doc.DefaultSchema(), root,
		doc.WithSelection(opts.Selection),
		doc.WithHistoryLimit(s.cfg.Editor().HistoryLimit))
	if err != nil {
		return nil, &InitError{Component: "document", Err: err}
	}
	s.model = model
	s.formatter = format.New(model)

	p := opts.Provider
	if p == nil {
		if p, err = s.buildProvider(); err != nil {
			return nil, &InitError{Component: "provider", Err: err}
		}
	}
	s.orch = continuation.New(p,
		continuation.WithExecutor(func(fn func()) { s.loop.Post(fn) }),
		continuation.WithLogger(s.logger.WithComponent("continuation")))

	inserter := continuation.NewInserter(model, s.orch, s.logger.WithComponent("inserter"))
	inserter.OnError = func(error) { s.metrics.RecordInsertFailure() }
	s.cleanup = append(s.cleanup,
		inserter.Attach(),
		s.orch.Subscribe(s.observeContinuation),
		model.Subscribe(s.observeModel))

	inputLogger := s.logger.WithComponent("input")
	s.input = input.NewHandler(input.WithLogger(inputLogger))
	s.input.Hooks().Register("log", input.LoggingHook{Logger: inputLogger}, input.HookPriorityLow)
	if err := s.input.ApplyKeymap(s.cfg.Editor().Keymap); err != nil {
		s.logger.Warn("keymap overrides ignored: %v", err)
	}
	s.focus = &focusTarget{input: s.input}

	s.dispatcher = dispatcher.NewWithDefaults()
	s.dispatcher.SetDocument(model)
	s.dispatcher.SetFormatter(s.formatter)
	s.dispatcher.SetContinuation(s.orch)
	s.dispatcher.SetFocus(s.focus)
	s.dispatcher.SetAIOptions(s.aiOptions)
	s.dispatcher.RegisterNamespace(formathandler.NewHandler())
	s.dispatcher.RegisterNamespace(historyhandler.NewHandler())
	s.dispatcher.RegisterNamespace(aihandler.NewHandler())

	hooks := s.dispatcher.HookManager()
	hooks.Register(hook.NewAuditHook(s.logger.WithComponent("dispatch")))
	hooks.Register(hook.NewModalGuardHook())
	hooks.Register(hook.NewFocusHook())

	s.watchConfig()
	return s, nil
}

func (s *Session) buildProvider() (provider.Provider, error) {
	ai := s.cfg.AI()
	p, err := provider.New(provider.Settings{
		Name:       ai.Provider,
		APIKey:     ai.APIKey,
		BaseURL:    ai.BaseURL,
		ScriptPath: ai.ScriptPath,
		MockDelay:  ai.MockDelay,
		HTTPClient: s.httpClient,
	})
	if err != nil {
		return nil, err
	}
	return provider.WithLogging(p, s.logger.WithComponent("provider")), nil
}

// aiOptions snapshots the generation options for the next request.
func (s *Session) aiOptions() provider.Options {
	ai := s.cfg.AI()
	return provider.Options{
		Model:               ai.Model,
		Temperature:         ai.Temperature,
		MaxTokens:           ai.MaxTokens,
		Instructions:        ai.Instructions,
		InstructionsEnabled: ai.InstructionsEnabled,
	}
}

func (s *Session) watchConfig() {
	s.configSubs = append(s.configSubs,
		s.cfg.SubscribePath("ai", func(ch notify.Change) {
			if ch.Type != notify.ChangeSet || s.providerFixed {
				return
			}
			switch ch.Path {
			case "ai.model", "ai.temperature", "ai.maxTokens", "ai.instructions", "ai.instructionsEnabled":
				// Read per request.
				return
			}
			s.loop.Post(s.rebuildProvider)
		}),
		s.cfg.SubscribePath("editor.keymap", func(ch notify.Change) {
			if ch.Type != notify.ChangeSet {
				return
			}
			if err := s.input.ApplyKeymap(s.cfg.Editor().Keymap); err != nil {
				s.logger.Warn("keymap overrides ignored: %v", err)
			}
		}),
		s.cfg.SubscribePath("logging.level", func(ch notify.Change) {
			if ch.Type == notify.ChangeSet {
				s.logger.SetLevel(ParseLogLevel(s.cfg.Logging().Level))
			}
		}),
	)
}

func (s *Session) rebuildProvider() {
	p, err := s.buildProvider()
	if err != nil {
		s.logger.Warn("provider unchanged: %v", NewComponentError("provider", "rebuild", err))
		return
	}
	s.orch.SetProvider(p)
	s.logger.Info("provider switched to %s", s.cfg.AI().Provider)
}

func (s *Session) observeContinuation(prev, next continuation.Snapshot) {
	s.input.SetGenerating(next.State == continuation.StateGenerating)

	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case next.State == continuation.StateGenerating && prev.State != continuation.StateGenerating:
		s.genStart = time.Now()
		s.metrics.RecordGenerateStart()
	case prev.State == continuation.StateGenerating && next.State.Terminal():
		ok := next.State == continuation.StateSuccess
		s.metrics.RecordGenerateEnd(time.Since(s.genStart), ok, utf8.RuneCountInString(next.Context.GeneratedText))
		if !ok {
			s.logger.Warn("continue writing failed: %s", next.Context.ErrorMessage)
		}
	}
}

func (s *Session) observeModel(ch doc.Change) {
	if !ch.DocChanged {
		return
	}
	text := s.model.PlainText()
	s.mu.Lock()
	observers := make([]func(string), 0, len(s.observers))
	for _, fn := range s.observers {
		observers = append(observers, fn)
	}
	s.mu.Unlock()
	for _, fn := range observers {
		fn(text)
	}
}

// OnContentChange registers fn to receive the plain text of the document
// after every change to its content. The returned function removes it.
func (s *Session) OnContentChange(fn func(text string)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextObs
	s.nextObs++
	s.observers[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.observers, id)
	}
}

// Start runs the event loop in the background until ctx is cancelled or
// the session is closed.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if s.started {
		return ErrAlreadyRunning
	}
	s.started = true
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Warn("event loop stopped: %v", err)
		}
	}()
	return nil
}

// Dispatch runs action on the event loop and returns its result.
func (s *Session) Dispatch(ctx context.Context, action input.Action) (handler.Result, error) {
	var result handler.Result
	err := s.loop.Sync(ctx, func() {
		result = s.dispatcher.DispatchWithContext(action, s.input.Context())
	})
	return result, err
}

// HandleKey resolves ev against the keymap and dispatches the bound
// action. It reports false when the key is not bound in the current
// context.
func (s *Session) HandleKey(ctx context.Context, ev key.Event) (handler.Result, bool, error) {
	var (
		result handler.Result
		bound  bool
	)
	err := s.loop.Sync(ctx, func() {
		var action input.Action
		action, bound = s.input.HandleKeyEvent(ev)
		s.metrics.RecordKey(bound)
		if bound {
			result = s.dispatcher.DispatchWithContext(action, s.input.Context())
		}
	})
	return result, bound, err
}

// SetSelection moves the selection on the event loop.
func (s *Session) SetSelection(ctx context.Context, sel doc.Selection) error {
	return s.loop.Sync(ctx, func() { s.model.SetSelection(sel) })
}

// SetModalActive records whether a modal intercepts keyboard input.
func (s *Session) SetModalActive(active bool) {
	s.input.SetModalActive(active)
}

// SetFocused records whether the editing surface has focus.
func (s *Session) SetFocused(focused bool) {
	s.input.SetFocused(focused)
}

// WaitContinuation blocks until no request is in flight or waiting to be
// inserted, and returns the resulting snapshot. A failed request leaves
// the machine in the failure state.
func (s *Session) WaitContinuation(ctx context.Context) (continuation.Snapshot, error) {
	changed := make(chan struct{}, 1)
	unsubscribe := s.orch.Subscribe(func(_, _ continuation.Snapshot) {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	snap := s.orch.Snapshot()
	for snap.State == continuation.StateGenerating || snap.State == continuation.StateSuccess {
		select {
		case <-changed:
			snap = s.orch.Snapshot()
		case <-ctx.Done():
			return snap, ctx.Err()
		case <-s.loop.Done():
			return snap, ErrClosed
		}
	}
	return snap, nil
}

// Close stops the event loop, cancels any request in flight and detaches
// every observer.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	cleanup := s.cleanup
	subs := s.configSubs
	s.mu.Unlock()

	s.loop.Stop()
	s.wg.Wait()
	s.orch.Close()
	s.orch.Wait()
	for _, sub := range subs {
		sub.Unsubscribe()
	}
	for _, fn := range cleanup {
		fn()
	}
	s.input.Close()
}

// Model returns the document model.
func (s *Session) Model() *doc.Model { return s.model }

// Formatter returns the formatting controller.
func (s *Session) Formatter() *format.Controller { return s.formatter }

// Continuation returns the current continuation snapshot.
func (s *Session) Continuation() continuation.Snapshot { return s.orch.Snapshot() }

// Dispatcher returns the action dispatcher.
func (s *Session) Dispatcher() *dispatcher.Dispatcher { return s.dispatcher }

// Input returns the input handler.
func (s *Session) Input() *input.Handler { return s.input }

// Metrics returns the session metrics.
func (s *Session) Metrics() *Metrics { return s.metrics }

// FocusCount returns how many times an action handed focus back to the
// editor.
func (s *Session) FocusCount() int64 { return s.focus.count.Load() }

// focusTarget receives focus requests from the dispatcher.
type focusTarget struct {
	input *input.Handler
	count atomic.Int64
}

func (f *focusTarget) Focus() {
	f.input.SetFocused(true)
	f.count.Add(1)
}
