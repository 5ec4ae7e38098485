package continuation

import (
	"errors"
	"fmt"

	"github.com/dshills/quill/internal/doc"
)

// MetaOrigin is the transaction metadata key naming the source of an edit.
const MetaOrigin = "origin"

// OriginContinuation marks transactions that insert generated text.
const OriginContinuation = "continuation"

// maxApplyAttempts bounds retries when the document changes between
// building and applying the insertion.
const maxApplyAttempts = 3

// Document is the part of the document model the inserter needs.
type Document interface {
	Begin() *doc.Transaction
	Apply(tx *doc.Transaction) (doc.Version, error)
}

// InsertionPoint returns where generated text goes for sel and the text
// to insert. A caret receives the text after a separating space; a range
// receives it verbatim after its far end, leaving the range in place.
func InsertionPoint(sel doc.Selection, generated string) (int, string) {
	if sel.Empty() {
		return sel.Head, " " + generated
	}
	return sel.To(), generated
}

// Inserter writes successful continuations into a document and resets
// the orchestrator afterwards, so the same text is never inserted twice.
type Inserter struct {
	doc    Document
	orch   *Orchestrator
	logger Logger

	// OnError is called when the insertion could not be applied.
	OnError func(error)
}

// NewInserter creates an inserter for d. Call Attach to start listening.
func NewInserter(d Document, o *Orchestrator, logger Logger) *Inserter {
	return &Inserter{doc: d, orch: o, logger: logger}
}

// Attach subscribes the inserter to the orchestrator. The returned
// function detaches it.
func (in *Inserter) Attach() func() {
	return in.orch.Subscribe(in.observe)
}

func (in *Inserter) observe(prev, next Snapshot) {
	if next.State != StateSuccess || prev.State == StateSuccess {
		return
	}
	if err := in.Insert(next.Context.GeneratedText); err != nil {
		if in.logger != nil {
			in.logger.Warn("continuation: insert request %s: %v", next.Context.RequestID, err)
		}
		if in.OnError != nil {
			in.OnError(err)
		}
	}
	in.orch.Send(Reset{})
}

// Insert places text at the current selection of the document.
func (in *Inserter) Insert(text string) error {
	var err error
	for range maxApplyAttempts {
		tx := in.doc.Begin()
		pos, ins := InsertionPoint(tx.Selection(), text)
		if err = tx.InsertText(pos, ins); err != nil {
			return fmt.Errorf("insert at %d: %w", pos, err)
		}
		tx.SetMeta(MetaOrigin, OriginContinuation)
		if _, err = in.doc.Apply(tx); err == nil {
			return nil
		}
		if !errors.Is(err, doc.ErrStaleTransaction) {
			return err
		}
	}
	return err
}
