// Package doc provides the structured document model for Quill.
//
// A document is an immutable tree of typed block nodes. Textblocks
// (paragraphs and headings) hold runs of marked text; container blocks
// (blockquotes, lists, list items) hold other blocks. Every edit is
// expressed as a Step, grouped into a Transaction and applied to a Model,
// which produces a new version and never mutates an existing tree.
//
// # Positions
//
// Positions are rune offsets into the linearised text of the document.
// Textblocks appear in document order, separated by a single position:
//
//	paragraph("Title") paragraph("Body")
//	 0 1 2 3 4 5         6 7 8 9 10
//
// Position 5 is the end of "Title" and position 6 the start of "Body".
// Structural edits (wrapping, lifting, changing block types) never move
// positions; only text insertion shifts the positions after it.
//
// # Schema
//
// The Schema decides which node kinds exist and where they may appear.
// Steps validate their output against the schema and fail with
// ErrInvalidStructure rather than producing a malformed tree.
package doc
