package dispatcher

import (
	"testing"

	"github.com/dshills/quill/internal/dispatcher/execctx"
	"github.com/dshills/quill/internal/dispatcher/handler"
	"github.com/dshills/quill/internal/input"
	"github.com/google/go-cmp/cmp"
)

func ok(input.Action, *execctx.ExecutionContext) handler.Result { return handler.Success() }

func TestNamespace(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"format.toggleMark.em", "format", true},
		{"ai.continue", "ai", true},
		{"plain", "plain", false},
		{".leading", "", false},
	}
	for _, tt := range tests {
		got, gotOK := Namespace(tt.in)
		if gotOK != tt.wantOK || (gotOK && got != tt.want) {
			t.Errorf("Namespace(%q) = %q, %v", tt.in, got, gotOK)
		}
	}
}

func TestRouterFallback(t *testing.T) {
	r := NewRouter()
	if r.CanRoute("x.y") {
		t.Error("empty router should not route")
	}
	r.SetFallback(handler.NewHandlerFunc(ok))
	if r.Route("x.y") == nil || !r.CanRoute("anything") {
		t.Error("fallback not used")
	}

	r.RegisterNamespace("history", handler.NewBaseNamespaceHandler("history"))
	r.RegisterNamespace("ai", handler.NewBaseNamespaceHandler("ai"))
	if diff := cmp.Diff([]string{"ai", "history"}, r.Namespaces()); diff != "" {
		t.Errorf("Namespaces mismatch (-want +got):\n%s", diff)
	}
	r.UnregisterNamespace("ai")
	if diff := cmp.Diff([]string{"history"}, r.Namespaces()); diff != "" {
		t.Errorf("Namespaces mismatch (-want +got):\n%s", diff)
	}
}

func TestRegistryPriority(t *testing.T) {
	r := NewRegistry()
	low := handler.NewHandlerFuncWithPriority(func(input.Action, *execctx.ExecutionContext) handler.Result {
		return handler.Success().WithMessage("low")
	}, 1)
	high := handler.NewHandlerFuncWithPriority(func(input.Action, *execctx.ExecutionContext) handler.Result {
		return handler.Success().WithMessage("high")
	}, 10)

	r.Register("a.b", low)
	r.Register("a.b", high)
	if got := r.Get("a.b").Handle(input.Action{}, nil).Message; got != "high" {
		t.Errorf("Get returned %q handler", got)
	}

	r.UnregisterHandler("a.b", high)
	if got := r.Get("a.b").Handle(input.Action{}, nil).Message; got != "low" {
		t.Errorf("after unregister got %q handler", got)
	}
	r.UnregisterHandler("a.b", low)
	if r.Has("a.b") {
		t.Error("expected no handlers left")
	}

	r.Register("z.z", low)
	r.Register("c.c", low)
	if diff := cmp.Diff([]string{"c.c", "z.z"}, r.List()); diff != "" {
		t.Errorf("List mismatch (-want +got):\n%s", diff)
	}
	r.Unregister("z.z")
	if r.Get("z.z") != nil {
		t.Error("expected z.z removed")
	}
}
