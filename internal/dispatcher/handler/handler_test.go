package handler

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dshills/quill/internal/dispatcher/execctx"
	"github.com/dshills/quill/internal/input"
)

func TestResultConstructors(t *testing.T) {
	errBoom := errors.New("boom")
	tests := []struct {
		name   string
		result Result
		status ResultStatus
		focus  bool
	}{
		{"success", Success(), StatusOK, false},
		{"applied", Applied(7), StatusOK, true},
		{"noop", NoOpWithMessage("nothing"), StatusNoOp, false},
		{"error", Error(errBoom), StatusError, false},
		{"async", Async(), StatusAsync, false},
		{"cancelled", Cancelled(), StatusCancelled, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.result.Status != tt.status {
				t.Errorf("status = %v, want %v", tt.result.Status, tt.status)
			}
			if tt.result.Focus != tt.focus {
				t.Errorf("focus = %v, want %v", tt.result.Focus, tt.focus)
			}
		})
	}
	if Applied(7).Version != 7 {
		t.Error("Applied lost the version")
	}
	if !errors.Is(Error(errBoom).Error, errBoom) {
		t.Error("Error lost the cause")
	}
}

func TestResultWithDataCopies(t *testing.T) {
	base := Success().WithData("a", 1)
	derived := base.WithData("b", "two")

	if _, ok := base.GetData("b"); ok {
		t.Error("WithData mutated the original result")
	}
	if got := derived.GetDataString("b"); got != "two" {
		t.Errorf("GetDataString = %q", got)
	}
	if got := derived.GetDataString("a"); got != "" {
		t.Errorf("non-string data should read as empty, got %q", got)
	}
}

func TestBaseNamespaceHandler(t *testing.T) {
	h := NewBaseNamespaceHandler("format")
	h.Register("format.state", func(input.Action, *execctx.ExecutionContext) Result {
		return Success().WithMessage("exact")
	})
	h.RegisterPrefix("format.", func(a input.Action, _ *execctx.ExecutionContext) Result {
		return Success().WithMessage("prefix " + a.Name)
	})

	tests := []struct {
		name string
		want string
	}{
		{"format.state", "exact"},
		{"format.toggleMark.em", "prefix format.toggleMark.em"},
	}
	for _, tt := range tests {
		if got := h.HandleAction(input.Action{Name: tt.name}, nil).Message; got != tt.want {
			t.Errorf("HandleAction(%s) = %q, want %q", tt.name, got, tt.want)
		}
	}

	if h.CanHandle("format.") {
		t.Error("bare prefix should not match")
	}
	if r := h.HandleAction(input.Action{Name: "other"}, nil); r.Status != StatusError {
		t.Errorf("unknown action status = %v", r.Status)
	}
	if diff := cmp.Diff([]string{"format.state"}, h.Actions()); diff != "" {
		t.Errorf("Actions mismatch (-want +got):\n%s", diff)
	}
}

func TestNamespaceAdapter(t *testing.T) {
	ns := NewBaseNamespaceHandler("ai")
	ns.Register("ai.continue", func(input.Action, *execctx.ExecutionContext) Result { return Async() })

	h := NewNamespaceAdapter(ns)
	if !h.CanHandle("ai.continue") || h.CanHandle("ai.reset") {
		t.Error("adapter should defer CanHandle")
	}
	if r := h.Handle(input.Action{Name: "ai.continue"}, nil); r.Status != StatusAsync {
		t.Errorf("status = %v", r.Status)
	}
}

func TestHandlerFuncNil(t *testing.T) {
	if r := NewHandlerFunc(nil).Handle(input.Action{}, nil); r.Status != StatusError {
		t.Errorf("nil func status = %v", r.Status)
	}
}
