package dispatcher

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/dshills/quill/internal/dispatcher/execctx"
	"github.com/dshills/quill/internal/dispatcher/handler"
	"github.com/dshills/quill/internal/dispatcher/hook"
	"github.com/dshills/quill/internal/input"
	"github.com/dshills/quill/internal/provider"
)

// Dispatcher routes actions to handlers and coordinates execution.
type Dispatcher struct {
	mu sync.RWMutex

	registry *Registry
	router   *Router
	hooks    *hook.Manager
	metrics  *Metrics
	config   Config

	document     execctx.DocumentInterface
	formatter    execctx.FormatterInterface
	continuation execctx.ContinuationInterface
	focus        execctx.FocusInterface
	aiOptions    func() provider.Options
}

// New creates a dispatcher with the given configuration.
func New(config Config) *Dispatcher {
	d := &Dispatcher{
		registry: NewRegistry(),
		router:   NewRouter(),
		hooks:    hook.NewManager(),
		config:   config,
	}
	if config.EnableMetrics {
		d.metrics = NewMetrics()
	}
	return d
}

// NewWithDefaults creates a dispatcher with DefaultConfig.
func NewWithDefaults() *Dispatcher {
	return New(DefaultConfig())
}

// SetDocument sets the document model.
func (d *Dispatcher) SetDocument(doc execctx.DocumentInterface) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.document = doc
}

// SetFormatter sets the formatting controller.
func (d *Dispatcher) SetFormatter(f execctx.FormatterInterface) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.formatter = f
}

// SetContinuation sets the continuation orchestrator.
func (d *Dispatcher) SetContinuation(c execctx.ContinuationInterface) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.continuation = c
}

// SetFocus sets the focus target used after actions that request it.
func (d *Dispatcher) SetFocus(f execctx.FocusInterface) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.focus = f
}

// SetAIOptions sets the source of generation options. It is called once
// per dispatch so configuration changes apply to the next request.
func (d *Dispatcher) SetAIOptions(fn func() provider.Options) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.aiOptions = fn
}

// Dispatch executes an action synchronously.
func (d *Dispatcher) Dispatch(action input.Action) handler.Result {
	return d.dispatch(action, nil)
}

// DispatchWithContext executes an action with an explicit input context.
func (d *Dispatcher) DispatchWithContext(action input.Action, inputCtx *input.Context) handler.Result {
	return d.dispatch(action, inputCtx)
}

func (d *Dispatcher) dispatch(action input.Action, inputCtx *input.Context) handler.Result {
	start := time.Now()
	ctx := d.buildContext(inputCtx)

	if action.Name == "" {
		return handler.Error(ErrInvalidAction)
	}

	if !d.hooks.RunPreDispatch(&action, ctx) {
		return handler.CancelledWithMessage("cancelled by hook")
	}

	h := d.router.Route(action.Name)
	if h == nil {
		h = d.registry.Get(action.Name)
	}

	var result handler.Result
	switch {
	case h == nil:
		result = handler.Error(fmt.Errorf("%w: %s", ErrNoHandler, action.Name))
	case d.config.RecoverFromPanic:
		result = d.executeWithRecovery(h, action, ctx)
	default:
		result = h.Handle(action, ctx)
	}

	d.hooks.RunPostDispatch(&action, ctx, &result)

	if d.metrics != nil {
		d.metrics.RecordDispatch(action.Name, time.Since(start), result.Status)
	}
	return result
}

func (d *Dispatcher) executeWithRecovery(h handler.Handler, action input.Action, ctx *execctx.ExecutionContext) (result handler.Result) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		err := fmt.Errorf("%w: %s: %v", ErrPanic, action.Name, r)
		if d.config.StackInPanicError {
			stack := make([]byte, 4096)
			n := runtime.Stack(stack, false)
			err = fmt.Errorf("%w\n%s", err, stack[:n])
		}
		result = handler.Error(err)
		if d.metrics != nil {
			d.metrics.RecordPanic(action.Name)
		}
	}()
	return h.Handle(action, ctx)
}

func (d *Dispatcher) buildContext(inputCtx *input.Context) *execctx.ExecutionContext {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx := execctx.NewWithInputContext(inputCtx)
	ctx.Document = d.document
	ctx.Formatter = d.formatter
	ctx.Continuation = d.continuation
	ctx.Focus = d.focus
	if d.aiOptions != nil {
		ctx.AIOptions = d.aiOptions()
	}
	return ctx
}

// RegisterHandler registers a handler for an exact action name.
func (d *Dispatcher) RegisterHandler(actionName string, h handler.Handler) {
	d.registry.Register(actionName, h)
}

// RegisterHandlerFunc registers a function for an exact action name.
func (d *Dispatcher) RegisterHandlerFunc(actionName string, fn handler.Func) {
	d.registry.Register(actionName, handler.NewHandlerFunc(fn))
}

// RegisterNamespace registers a namespace handler under its namespace.
func (d *Dispatcher) RegisterNamespace(h handler.NamespaceHandler) {
	d.router.RegisterNamespace(h.Namespace(), h)
}

// UnregisterHandler removes the handlers for an action name.
func (d *Dispatcher) UnregisterHandler(actionName string) {
	d.registry.Unregister(actionName)
}

// CanDispatch reports whether some handler accepts the action name.
func (d *Dispatcher) CanDispatch(actionName string) bool {
	return d.router.CanRoute(actionName) || d.registry.Has(actionName)
}

// HookManager returns the hook manager.
func (d *Dispatcher) HookManager() *hook.Manager {
	return d.hooks
}

// Registry returns the handler registry.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Router returns the action router.
func (d *Dispatcher) Router() *Router {
	return d.router
}

// Metrics returns the metrics collector, or nil when disabled.
func (d *Dispatcher) Metrics() *Metrics {
	return d.metrics
}

// Config returns the dispatcher configuration.
func (d *Dispatcher) Config() Config {
	return d.config
}
