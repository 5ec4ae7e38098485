// Package format provides handlers for the formatting commands.
package format

import (
	"strconv"
	"strings"

	"github.com/dshills/quill/internal/dispatcher/execctx"
	"github.com/dshills/quill/internal/dispatcher/handler"
	"github.com/dshills/quill/internal/doc"
	"github.com/dshills/quill/internal/input"
)

// ActionState reports which marks and block types are active at the
// current selection without changing the document.
const ActionState = "format.state"

// Data keys set by ActionState. Each value is a bool.
const (
	StateStrong        = "strong"
	StateEm            = "em"
	StateCode          = "code"
	StateParagraph     = "paragraph"
	StateBlockquote    = "blockquote"
	StateBulletList    = "bullet_list"
	StateOrderedList   = "ordered_list"
	StateHeadingPrefix = "h"
)

// Handler implements the "format" namespace.
type Handler struct{}

// NewHandler creates a new format handler.
func NewHandler() *Handler {
	return &Handler{}
}

// Namespace returns the format namespace.
func (h *Handler) Namespace() string {
	return "format"
}

// CanHandle returns true if this handler can process the action.
func (h *Handler) CanHandle(actionName string) bool {
	if actionName == ActionState {
		return true
	}
	for _, prefix := range []string{
		input.PrefixToggleMark, input.PrefixSetBlockType,
		input.PrefixToggleBlockWrap, input.PrefixToggleListWrap,
	} {
		if target, ok := strings.CutPrefix(actionName, prefix); ok && target != "" {
			return true
		}
	}
	return false
}

// HandleAction processes a formatting action.
func (h *Handler) HandleAction(action input.Action, ctx *execctx.ExecutionContext) handler.Result {
	if err := ctx.ValidateForFormat(); err != nil {
		return handler.Error(err)
	}
	sel := ctx.Selection()

	if action.Name == ActionState {
		return h.state(ctx, sel)
	}

	if target, ok := strings.CutPrefix(action.Name, input.PrefixToggleMark); ok {
		m, ok := doc.ParseMarkKind(target)
		if !ok {
			return handler.Errorf("unknown mark: %s", target)
		}
		tx, ok := ctx.Formatter.ToggleMark(m, sel)
		return h.apply(ctx, tx, ok)
	}

	if target, ok := strings.CutPrefix(action.Name, input.PrefixSetBlockType); ok {
		kind, ok := doc.ParseNodeKind(target)
		if !ok || !kind.IsTextblock() {
			return handler.Errorf("not a textblock type: %s", target)
		}
		var attrs doc.Attrs
		if kind == doc.KindHeading {
			attrs.Level = 1
			if _, set := action.Args.Get(input.ArgLevel); set {
				attrs.Level = action.Args.GetInt(input.ArgLevel)
			}
			if attrs.Level < 1 || attrs.Level > doc.MaxHeadingLevel {
				return handler.Errorf("heading level %d out of range 1-%d", attrs.Level, doc.MaxHeadingLevel)
			}
		}
		tx, ok := ctx.Formatter.SetBlockType(kind, attrs, sel)
		return h.apply(ctx, tx, ok)
	}

	if target, ok := strings.CutPrefix(action.Name, input.PrefixToggleBlockWrap); ok {
		kind, ok := doc.ParseNodeKind(target)
		if !ok || kind != doc.KindBlockquote {
			return handler.Errorf("not a wrapping type: %s", target)
		}
		tx, ok := ctx.Formatter.ToggleBlockWrap(kind, sel)
		return h.apply(ctx, tx, ok)
	}

	if target, ok := strings.CutPrefix(action.Name, input.PrefixToggleListWrap); ok {
		kind, ok := doc.ParseNodeKind(target)
		if !ok || !kind.IsList() {
			return handler.Errorf("not a list type: %s", target)
		}
		tx, ok := ctx.Formatter.ToggleListWrap(kind, sel)
		return h.apply(ctx, tx, ok)
	}

	return handler.Errorf("unknown format action: %s", action.Name)
}

// apply commits a command's transaction. A command that produced no
// transaction leaves the document untouched.
func (h *Handler) apply(ctx *execctx.ExecutionContext, tx *doc.Transaction, ok bool) handler.Result {
	if !ok {
		return handler.NoOpWithMessage("command not applicable")
	}
	if ctx.DryRun {
		return handler.Success().WithMessage("would apply: " + tx.String())
	}
	v, err := ctx.Document.Apply(tx)
	if err != nil {
		return handler.Error(err)
	}
	return handler.Applied(v)
}

func (h *Handler) state(ctx *execctx.ExecutionContext, sel doc.Selection) handler.Result {
	f := ctx.Formatter
	r := handler.Success().
		WithData(StateStrong, f.IsMarkActive(doc.MarkStrong, sel)).
		WithData(StateEm, f.IsMarkActive(doc.MarkEm, sel)).
		WithData(StateCode, f.IsMarkActive(doc.MarkCode, sel)).
		WithData(StateParagraph, f.IsBlockActive(doc.KindParagraph, doc.Attrs{}, sel)).
		WithData(StateBlockquote, f.IsBlockActive(doc.KindBlockquote, doc.Attrs{}, sel)).
		WithData(StateBulletList, f.IsBlockActive(doc.KindBulletList, doc.Attrs{}, sel)).
		WithData(StateOrderedList, f.IsBlockActive(doc.KindOrderedList, doc.Attrs{}, sel))
	for level := 1; level <= doc.MaxHeadingLevel; level++ {
		active := f.IsBlockActive(doc.KindHeading, doc.Attrs{Level: level}, sel)
		r = r.WithData(StateHeadingPrefix+strconv.Itoa(level), active)
	}
	return r
}
