package execctx

import "errors"

// Context validation errors.
var (
	// ErrMissingDocument indicates the document is required but not set.
	ErrMissingDocument = errors.New("execution context: document is required")

	// ErrMissingFormatter indicates the formatter is required but not set.
	ErrMissingFormatter = errors.New("execution context: formatter is required")

	// ErrMissingContinuation indicates the orchestrator is required but not set.
	ErrMissingContinuation = errors.New("execution context: continuation is required")
)
