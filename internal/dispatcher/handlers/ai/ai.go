// Package ai provides the continue-writing handlers.
package ai

import (
	"github.com/dshills/quill/internal/continuation"
	"github.com/dshills/quill/internal/dispatcher/execctx"
	"github.com/dshills/quill/internal/dispatcher/handler"
	"github.com/dshills/quill/internal/input"
)

// Data keys set on results.
const (
	DataState     = "state"
	DataRequestID = "request_id"
)

// Handler implements the "ai" namespace.
type Handler struct{}

// NewHandler creates a new ai handler.
func NewHandler() *Handler {
	return &Handler{}
}

// Namespace returns the ai namespace.
func (h *Handler) Namespace() string {
	return "ai"
}

// CanHandle returns true if this handler can process the action.
func (h *Handler) CanHandle(actionName string) bool {
	return actionName == input.ActionContinue || actionName == input.ActionReset
}

// HandleAction processes a continuation action.
func (h *Handler) HandleAction(action input.Action, ctx *execctx.ExecutionContext) handler.Result {
	if err := ctx.ValidateForContinuation(); err != nil {
		return handler.Error(err)
	}

	switch action.Name {
	case input.ActionContinue:
		return h.continueWriting(ctx)
	case input.ActionReset:
		return h.reset(ctx)
	default:
		return handler.Errorf("unknown ai action: %s", action.Name)
	}
}

// continueWriting starts a request for the full plain text of the
// document. A request already in flight makes this a no-op.
func (h *Handler) continueWriting(ctx *execctx.ExecutionContext) handler.Result {
	snap := ctx.Continuation.Snapshot()
	if snap.State == continuation.StateGenerating {
		return handler.NoOpWithMessage("generation in progress").
			WithData(DataRequestID, snap.Context.RequestID)
	}

	text := ctx.Document.PlainText()
	if ctx.DryRun {
		return handler.Success().WithMessage("would continue")
	}

	ctx.Continuation.Send(continuation.Generate{ExistingText: text, Options: ctx.AIOptions})

	snap = ctx.Continuation.Snapshot()
	return handler.AsyncWithMessage("generating").
		WithData(DataState, snap.State.String()).
		WithData(DataRequestID, snap.Context.RequestID)
}

func (h *Handler) reset(ctx *execctx.ExecutionContext) handler.Result {
	snap := ctx.Continuation.Snapshot()
	if !snap.State.Terminal() {
		return handler.NoOpWithMessage("nothing to reset")
	}
	if ctx.DryRun {
		return handler.Success()
	}
	ctx.Continuation.Send(continuation.Reset{})
	return handler.Success().WithFocus()
}
