// Package continuation coordinates "continue writing" requests: at most
// one request to a completion provider is in flight, and its result is
// inserted into the document when it succeeds.
//
// The state machine is a pure reducer (Reduce) over a Snapshot. Every
// GENERATE that starts a request gets a new token; a provider result only
// settles the machine when it carries the current token, so results of
// abandoned requests are dropped.
package continuation

import (
	"errors"
	"strings"

	"github.com/dshills/quill/internal/provider"
)

// State is a state of the continuation machine.
type State int

const (
	// StateIdle is the initial state.
	StateIdle State = iota
	// StateGenerating means a provider request is in flight.
	StateGenerating
	// StateSuccess holds generated text waiting to be inserted.
	StateSuccess
	// StateFailure holds the error message of the last request.
	StateFailure
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateGenerating:
		return "generating"
	case StateSuccess:
		return "success"
	case StateFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state ends a request.
func (s State) Terminal() bool {
	return s == StateSuccess || s == StateFailure
}

// FallbackErrorMessage is used when a provider error has no message.
const FallbackErrorMessage = "Failed to generate text"

// Context is the data carried by the machine.
type Context struct {
	RequestID     string
	ExistingText  string
	GeneratedText string
	ErrorMessage  string
}

// Snapshot is the complete machine state.
type Snapshot struct {
	State   State
	Context Context

	// Token identifies the most recently started request.
	Token uint64
}

// Event is an input to the machine.
type Event interface {
	eventName() string
}

// Generate requests a continuation of ExistingText. It is ignored while
// a request is in flight.
type Generate struct {
	ExistingText string
	Options      provider.Options

	// RequestID is assigned by the orchestrator when empty.
	RequestID string
}

func (Generate) eventName() string { return "GENERATE" }

// Reset clears a finished request and returns to idle.
type Reset struct{}

func (Reset) eventName() string { return "RESET" }

// settled delivers the outcome of the request identified by token.
type settled struct {
	token uint64
	text  string
	err   error
}

func (settled) eventName() string { return "SETTLED" }

// Reduce returns the snapshot following ev. It never mutates s.
func Reduce(s Snapshot, ev Event) Snapshot {
	switch e := ev.(type) {
	case Generate:
		if s.State == StateGenerating {
			return s
		}
		return Snapshot{
			State:   StateGenerating,
			Context: Context{RequestID: e.RequestID, ExistingText: e.ExistingText},
			Token:   s.Token + 1,
		}

	case Reset:
		if !s.State.Terminal() {
			return s
		}
		return Snapshot{State: StateIdle, Token: s.Token}

	case settled:
		if s.State != StateGenerating || e.token != s.Token {
			return s
		}
		next := Snapshot{
			Token:   s.Token,
			Context: Context{RequestID: s.Context.RequestID, ExistingText: s.Context.ExistingText},
		}
		if e.err == nil && isBlank(e.text) {
			e.err = provider.ErrEmptyCompletion
		}
		if e.err != nil {
			next.State = StateFailure
			next.Context.ErrorMessage = errorMessage(e.err)
			return next
		}
		next.State = StateSuccess
		next.Context.GeneratedText = e.text
		return next
	}
	return s
}

func errorMessage(err error) string {
	if msg := err.Error(); msg != "" {
		return msg
	}
	return FallbackErrorMessage
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// errProviderPanic is reported when a provider panics.
var errProviderPanic = errors.New("provider panicked")
