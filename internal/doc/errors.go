package doc

import "errors"

// Errors returned by document operations.
var (
	// ErrPositionOutOfRange indicates a position outside the document.
	ErrPositionOutOfRange = errors.New("position out of range")

	// ErrInvalidPath indicates a node path that does not exist in the tree.
	ErrInvalidPath = errors.New("invalid node path")

	// ErrInvalidStructure indicates an edit would violate the schema.
	ErrInvalidStructure = errors.New("invalid document structure")

	// ErrUnknownKind indicates a node or mark kind not registered in the schema.
	ErrUnknownKind = errors.New("kind not registered in schema")

	// ErrStaleTransaction indicates a transaction built against an old version.
	ErrStaleTransaction = errors.New("transaction base version is not current")

	// ErrNothingToUndo indicates the undo stack is empty.
	ErrNothingToUndo = errors.New("nothing to undo")

	// ErrNothingToRedo indicates the redo stack is empty.
	ErrNothingToRedo = errors.New("nothing to redo")
)
