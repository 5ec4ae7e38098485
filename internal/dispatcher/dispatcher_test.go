package dispatcher_test

import (
	"errors"
	"testing"

	"github.com/dshills/quill/internal/dispatcher"
	"github.com/dshills/quill/internal/dispatcher/execctx"
	"github.com/dshills/quill/internal/dispatcher/handler"
	"github.com/dshills/quill/internal/dispatcher/hook"
	"github.com/dshills/quill/internal/input"
	"github.com/dshills/quill/internal/provider"
)

func TestNewWithDefaults(t *testing.T) {
	d := dispatcher.NewWithDefaults()

	if d.Registry() == nil || d.Router() == nil || d.HookManager() == nil {
		t.Fatal("expected registry, router and hook manager")
	}
	if d.Metrics() == nil {
		t.Error("expected metrics enabled by default")
	}
}

func TestNewWithoutMetrics(t *testing.T) {
	d := dispatcher.New(dispatcher.Config{})
	if d.Metrics() != nil {
		t.Error("expected nil metrics when disabled")
	}
	if r := d.Dispatch(input.Action{Name: "x.y"}); r.Status != handler.StatusError {
		t.Errorf("status = %v, want error", r.Status)
	}
}

func TestDispatchNoHandler(t *testing.T) {
	d := dispatcher.NewWithDefaults()

	result := d.Dispatch(input.Action{Name: "unknown.action"})

	if result.Status != handler.StatusError {
		t.Fatalf("expected StatusError, got %v", result.Status)
	}
	if !errors.Is(result.Error, dispatcher.ErrNoHandler) {
		t.Errorf("error = %v, want ErrNoHandler", result.Error)
	}
}

func TestDispatchEmptyName(t *testing.T) {
	d := dispatcher.NewWithDefaults()
	result := d.Dispatch(input.Action{})
	if !errors.Is(result.Error, dispatcher.ErrInvalidAction) {
		t.Errorf("error = %v, want ErrInvalidAction", result.Error)
	}
}

func TestRegisterHandlerFunc(t *testing.T) {
	d := dispatcher.NewWithDefaults()

	called := false
	d.RegisterHandlerFunc("test.action", func(action input.Action, ctx *execctx.ExecutionContext) handler.Result {
		called = true
		return handler.Success()
	})

	result := d.Dispatch(input.Action{Name: "test.action"})

	if !called {
		t.Error("expected handler to be called")
	}
	if result.Status != handler.StatusOK {
		t.Errorf("expected StatusOK, got %v", result.Status)
	}
	if !d.CanDispatch("test.action") || d.CanDispatch("test.other") {
		t.Error("CanDispatch disagrees with registrations")
	}
}

func TestNamespaceWinsOverRegistry(t *testing.T) {
	d := dispatcher.NewWithDefaults()

	ns := handler.NewBaseNamespaceHandler("format")
	ns.RegisterPrefix("format.toggleMark.", func(action input.Action, ctx *execctx.ExecutionContext) handler.Result {
		return handler.Success().WithMessage("namespace")
	})
	d.RegisterNamespace(ns)
	d.RegisterHandlerFunc("format.toggleMark.em", func(input.Action, *execctx.ExecutionContext) handler.Result {
		return handler.Success().WithMessage("registry")
	})
	d.RegisterHandlerFunc("format.other", func(input.Action, *execctx.ExecutionContext) handler.Result {
		return handler.Success().WithMessage("registry")
	})

	if got := d.Dispatch(input.Action{Name: "format.toggleMark.em"}).Message; got != "namespace" {
		t.Errorf("toggleMark routed to %q", got)
	}
	// The namespace handler declines, so the registry is consulted.
	if got := d.Dispatch(input.Action{Name: "format.other"}).Message; got != "registry" {
		t.Errorf("format.other routed to %q", got)
	}
}

func TestPreHookCancels(t *testing.T) {
	d := dispatcher.NewWithDefaults()
	called := false
	d.RegisterHandlerFunc("a.b", func(input.Action, *execctx.ExecutionContext) handler.Result {
		called = true
		return handler.Success()
	})
	d.HookManager().Register(hook.NewPreDispatchFunc("deny", 0, func(*input.Action, *execctx.ExecutionContext) bool {
		return false
	}))

	result := d.Dispatch(input.Action{Name: "a.b"})
	if result.Status != handler.StatusCancelled {
		t.Errorf("status = %v, want cancelled", result.Status)
	}
	if called {
		t.Error("handler ran despite cancellation")
	}
	if got := d.Metrics().Snapshot().TotalDispatches; got != 0 {
		t.Errorf("cancelled dispatch recorded: %d", got)
	}
}

func TestPanicRecovery(t *testing.T) {
	d := dispatcher.NewWithDefaults()
	d.RegisterHandlerFunc("boom.now", func(input.Action, *execctx.ExecutionContext) handler.Result {
		panic("kaboom")
	})

	result := d.Dispatch(input.Action{Name: "boom.now"})
	if !errors.Is(result.Error, dispatcher.ErrPanic) {
		t.Fatalf("error = %v, want ErrPanic", result.Error)
	}
	if got := d.Metrics().Snapshot().TotalPanics; got != 1 {
		t.Errorf("TotalPanics = %d, want 1", got)
	}
}

func TestContextCarriesSubsystems(t *testing.T) {
	d := dispatcher.NewWithDefaults()
	d.SetAIOptions(func() provider.Options { return provider.Options{Model: "m1", MaxTokens: 42} })

	var seen *execctx.ExecutionContext
	d.RegisterHandlerFunc("probe.ctx", func(_ input.Action, ctx *execctx.ExecutionContext) handler.Result {
		seen = ctx
		return handler.Success()
	})

	inputCtx := &input.Context{EditorFocused: true, ModalActive: true}
	d.DispatchWithContext(input.Action{Name: "probe.ctx"}, inputCtx)

	if seen == nil {
		t.Fatal("handler not called")
	}
	if seen.AIOptions.Model != "m1" || seen.AIOptions.MaxTokens != 42 {
		t.Errorf("AIOptions = %+v", seen.AIOptions)
	}
	if !seen.ModalActive() {
		t.Error("expected modal state from input context")
	}
}

func TestMetricsByStatus(t *testing.T) {
	d := dispatcher.NewWithDefaults()
	d.RegisterHandlerFunc("n.ok", func(input.Action, *execctx.ExecutionContext) handler.Result { return handler.Success() })
	d.RegisterHandlerFunc("n.noop", func(input.Action, *execctx.ExecutionContext) handler.Result { return handler.NoOp() })

	d.Dispatch(input.Action{Name: "n.ok"})
	d.Dispatch(input.Action{Name: "n.noop"})
	d.Dispatch(input.Action{Name: "n.noop"})
	d.Dispatch(input.Action{Name: "n.missing"})

	m := d.Metrics()
	if got := m.StatusCount(handler.StatusNoOp); got != 2 {
		t.Errorf("no-op count = %d, want 2", got)
	}
	snap := m.Snapshot()
	if snap.TotalDispatches != 4 || snap.TotalErrors != 1 {
		t.Errorf("snapshot = %+v", snap)
	}
	if snap.ByStatus["ok"] != 1 {
		t.Errorf("ByStatus = %v", snap.ByStatus)
	}
	top := m.TopActions(1)
	if len(top) != 1 || top[0].Name != "n.noop" || top[0].NoOpCount != 2 {
		t.Errorf("TopActions = %+v", top)
	}
}

type focusCounter struct{ n int }

func (f *focusCounter) Focus() { f.n++ }

func TestFocusHook(t *testing.T) {
	d := dispatcher.NewWithDefaults()
	focus := &focusCounter{}
	d.SetFocus(focus)
	d.HookManager().Register(hook.NewFocusHook())

	d.RegisterHandlerFunc("f.yes", func(input.Action, *execctx.ExecutionContext) handler.Result {
		return handler.Success().WithFocus()
	})
	d.RegisterHandlerFunc("f.no", func(input.Action, *execctx.ExecutionContext) handler.Result {
		return handler.NoOp()
	})

	d.Dispatch(input.Action{Name: "f.yes"})
	d.Dispatch(input.Action{Name: "f.no"})

	if focus.n != 1 {
		t.Errorf("Focus called %d times, want 1", focus.n)
	}
}
