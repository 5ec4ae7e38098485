// Package execctx provides the execution context for action handlers.
package execctx

import (
	"github.com/dshills/quill/internal/continuation"
	"github.com/dshills/quill/internal/doc"
	"github.com/dshills/quill/internal/input"
	"github.com/dshills/quill/internal/provider"
)

// DocumentInterface abstracts the document model for handlers.
type DocumentInterface interface {
	// Transactions
	Begin() *doc.Transaction
	Apply(tx *doc.Transaction) (doc.Version, error)

	// Read operations
	Selection() doc.Selection
	PlainText() string
	CurrentVersion() doc.Version

	// History
	Undo() (doc.Version, error)
	Redo() (doc.Version, error)
	CanUndo() bool
	CanRedo() bool
}

// FormatterInterface abstracts the formatting controller for handlers.
type FormatterInterface interface {
	IsMarkActive(m doc.MarkKind, sel doc.Selection) bool
	ToggleMark(m doc.MarkKind, sel doc.Selection) (*doc.Transaction, bool)
	IsBlockActive(kind doc.NodeKind, attrs doc.Attrs, sel doc.Selection) bool
	SetBlockType(kind doc.NodeKind, attrs doc.Attrs, sel doc.Selection) (*doc.Transaction, bool)
	ToggleBlockWrap(kind doc.NodeKind, sel doc.Selection) (*doc.Transaction, bool)
	ToggleListWrap(kind doc.NodeKind, sel doc.Selection) (*doc.Transaction, bool)
}

// ContinuationInterface abstracts the continuation orchestrator for handlers.
type ContinuationInterface interface {
	Send(ev continuation.Event)
	Snapshot() continuation.Snapshot
}

// FocusInterface returns keyboard focus to the editing surface.
type FocusInterface interface {
	Focus()
}

// ExecutionContext provides context for action execution.
// It contains references to all editor subsystems needed by handlers.
type ExecutionContext struct {
	// Document is the document model.
	Document DocumentInterface

	// Formatter turns formatting intents into transactions.
	Formatter FormatterInterface

	// Continuation drives continue-writing requests.
	Continuation ContinuationInterface

	// Focus returns focus to the editor after an action.
	Focus FocusInterface

	// AIOptions holds the generation options current at dispatch time.
	AIOptions provider.Options

	// Input provides the input context (focus, modal state).
	Input *input.Context

	// DryRun reports what an action would do without applying it.
	DryRun bool

	// Data holds handler-specific context data.
	Data map[string]any
}

// New creates a new execution context.
func New() *ExecutionContext {
	return &ExecutionContext{
		Data: make(map[string]any),
	}
}

// NewWithInputContext creates a new execution context from an input context.
func NewWithInputContext(inputCtx *input.Context) *ExecutionContext {
	ctx := New()
	ctx.Input = inputCtx
	return ctx
}

// WithDocument returns the context with the document set.
func (ctx *ExecutionContext) WithDocument(d DocumentInterface) *ExecutionContext {
	ctx.Document = d
	return ctx
}

// WithFormatter returns the context with the formatter set.
func (ctx *ExecutionContext) WithFormatter(f FormatterInterface) *ExecutionContext {
	ctx.Formatter = f
	return ctx
}

// WithContinuation returns the context with the orchestrator set.
func (ctx *ExecutionContext) WithContinuation(c ContinuationInterface) *ExecutionContext {
	ctx.Continuation = c
	return ctx
}

// WithDryRun returns the context with dry run mode enabled.
func (ctx *ExecutionContext) WithDryRun(dryRun bool) *ExecutionContext {
	ctx.DryRun = dryRun
	return ctx
}

// Selection returns the document selection.
func (ctx *ExecutionContext) Selection() doc.Selection {
	if ctx.Document == nil {
		return doc.Selection{}
	}
	return ctx.Document.Selection()
}

// ModalActive reports whether a modal intercepts input.
func (ctx *ExecutionContext) ModalActive() bool {
	return ctx.Input != nil && ctx.Input.ModalActive
}

// SetData sets a context data value.
func (ctx *ExecutionContext) SetData(key string, value any) {
	if ctx.Data == nil {
		ctx.Data = make(map[string]any)
	}
	ctx.Data[key] = value
}

// GetData retrieves a context data value.
func (ctx *ExecutionContext) GetData(key string) (any, bool) {
	if ctx.Data == nil {
		return nil, false
	}
	v, ok := ctx.Data[key]
	return v, ok
}

// Validate checks that the context has all required components.
func (ctx *ExecutionContext) Validate() error {
	if ctx.Document == nil {
		return ErrMissingDocument
	}
	return nil
}

// ValidateForFormat checks that the context can run formatting commands.
func (ctx *ExecutionContext) ValidateForFormat() error {
	if err := ctx.Validate(); err != nil {
		return err
	}
	if ctx.Formatter == nil {
		return ErrMissingFormatter
	}
	return nil
}

// ValidateForContinuation checks that the context can drive continuation.
func (ctx *ExecutionContext) ValidateForContinuation() error {
	if err := ctx.Validate(); err != nil {
		return err
	}
	if ctx.Continuation == nil {
		return ErrMissingContinuation
	}
	return nil
}
