package ai_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dshills/quill/internal/continuation"
	"github.com/dshills/quill/internal/dispatcher/execctx"
	"github.com/dshills/quill/internal/dispatcher/handler"
	"github.com/dshills/quill/internal/dispatcher/handlers/ai"
	"github.com/dshills/quill/internal/doc"
	"github.com/dshills/quill/internal/input"
	"github.com/dshills/quill/internal/provider"
)

// fakeOrchestrator runs the real state machine without a provider.
type fakeOrchestrator struct {
	snap   continuation.Snapshot
	events []continuation.Event
}

func (f *fakeOrchestrator) Send(ev continuation.Event) {
	if g, ok := ev.(continuation.Generate); ok && g.RequestID == "" {
		g.RequestID = "req-1"
		ev = g
	}
	f.events = append(f.events, ev)
	f.snap = continuation.Reduce(f.snap, ev)
}

func (f *fakeOrchestrator) Snapshot() continuation.Snapshot { return f.snap }

func newContext(t *testing.T, text string) (*execctx.ExecutionContext, *fakeOrchestrator) {
	t.Helper()
	m, err := doc.NewModel(doc.DefaultSchema(), doc.FromPlainText(text))
	if err != nil {
		t.Fatalf("NewModel: %v", err)
	}
	orch := &fakeOrchestrator{}
	ctx := execctx.New().WithDocument(m).WithContinuation(orch)
	ctx.AIOptions = provider.Options{Model: "test-model", Temperature: 0.7, MaxTokens: 100}
	return ctx, orch
}

func TestContinueUsesDocumentText(t *testing.T) {
	ctx, orch := newContext(t, "Once upon\na time")

	r := ai.NewHandler().HandleAction(input.NewAction(input.ActionContinue, input.SourceKeyboard), ctx)

	if r.Status != handler.StatusAsync {
		t.Fatalf("status = %v (%v), want async", r.Status, r.Error)
	}
	want := []continuation.Event{continuation.Generate{
		ExistingText: "Once upon\na time",
		Options:      ctx.AIOptions,
		RequestID:    "req-1",
	}}
	if diff := cmp.Diff(want, orch.events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
	if got := r.GetDataString(ai.DataState); got != "generating" {
		t.Errorf("state = %q", got)
	}
	if got := r.GetDataString(ai.DataRequestID); got != "req-1" {
		t.Errorf("request id = %q", got)
	}
}

func TestContinueIgnoresActionArgs(t *testing.T) {
	ctx, orch := newContext(t, "Whole\ndocument")
	action := input.NewAction(input.ActionContinue, input.SourceAPI).WithArg("text", "explicit")

	ai.NewHandler().HandleAction(action, ctx)

	if len(orch.events) != 1 || orch.events[0].(continuation.Generate).ExistingText != "Whole\ndocument" {
		t.Errorf("events = %+v", orch.events)
	}
}

func TestContinueWhileGenerating(t *testing.T) {
	ctx, orch := newContext(t, "text")
	h := ai.NewHandler()
	h.HandleAction(input.Action{Name: input.ActionContinue}, ctx)

	r := h.HandleAction(input.Action{Name: input.ActionContinue}, ctx)
	if r.Status != handler.StatusNoOp {
		t.Errorf("status = %v, want no-op", r.Status)
	}
	if len(orch.events) != 1 {
		t.Errorf("sent %d events, want 1", len(orch.events))
	}
}

func TestReset(t *testing.T) {
	tests := []struct {
		name   string
		state  continuation.State
		status handler.ResultStatus
		sent   int
	}{
		{"idle", continuation.StateIdle, handler.StatusNoOp, 0},
		{"generating", continuation.StateGenerating, handler.StatusNoOp, 0},
		{"success", continuation.StateSuccess, handler.StatusOK, 1},
		{"failure", continuation.StateFailure, handler.StatusOK, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, orch := newContext(t, "")
			orch.snap = continuation.Snapshot{State: tt.state, Token: 3}

			r := ai.NewHandler().HandleAction(input.Action{Name: input.ActionReset}, ctx)

			if r.Status != tt.status {
				t.Errorf("status = %v, want %v", r.Status, tt.status)
			}
			if len(orch.events) != tt.sent {
				t.Errorf("sent %d events, want %d", len(orch.events), tt.sent)
			}
			if tt.sent == 1 && orch.snap.State != continuation.StateIdle {
				t.Errorf("state after reset = %v", orch.snap.State)
			}
		})
	}
}

func TestMissingContinuation(t *testing.T) {
	m, err := doc.NewModel(doc.DefaultSchema(), doc.FromPlainText(""))
	if err != nil {
		t.Fatalf("NewModel: %v", err)
	}
	r := ai.NewHandler().HandleAction(input.Action{Name: input.ActionContinue}, execctx.New().WithDocument(m))
	if r.Status != handler.StatusError {
		t.Errorf("status = %v, want error", r.Status)
	}
}
