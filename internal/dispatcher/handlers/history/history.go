// Package history provides the undo and redo handlers.
package history

import (
	"errors"

	"github.com/dshills/quill/internal/dispatcher/execctx"
	"github.com/dshills/quill/internal/dispatcher/handler"
	"github.com/dshills/quill/internal/doc"
	"github.com/dshills/quill/internal/input"
)

// Handler implements the "history" namespace.
type Handler struct{}

// NewHandler creates a new history handler.
func NewHandler() *Handler {
	return &Handler{}
}

// Namespace returns the history namespace.
func (h *Handler) Namespace() string {
	return "history"
}

// CanHandle returns true if this handler can process the action.
func (h *Handler) CanHandle(actionName string) bool {
	return actionName == input.ActionUndo || actionName == input.ActionRedo
}

// HandleAction processes an undo or redo.
func (h *Handler) HandleAction(action input.Action, ctx *execctx.ExecutionContext) handler.Result {
	if err := ctx.Validate(); err != nil {
		return handler.Error(err)
	}

	switch action.Name {
	case input.ActionUndo:
		if ctx.DryRun {
			return dryRun(ctx.Document.CanUndo())
		}
		return result(ctx.Document.Undo())
	case input.ActionRedo:
		if ctx.DryRun {
			return dryRun(ctx.Document.CanRedo())
		}
		return result(ctx.Document.Redo())
	default:
		return handler.Errorf("unknown history action: %s", action.Name)
	}
}

func result(v doc.Version, err error) handler.Result {
	switch {
	case errors.Is(err, doc.ErrNothingToUndo):
		return handler.NoOpWithMessage("nothing to undo")
	case errors.Is(err, doc.ErrNothingToRedo):
		return handler.NoOpWithMessage("nothing to redo")
	case err != nil:
		return handler.Error(err)
	}
	return handler.Applied(v)
}

func dryRun(possible bool) handler.Result {
	if !possible {
		return handler.NoOp()
	}
	return handler.Success()
}
