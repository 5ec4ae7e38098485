// Package provider implements completion providers: services that take
// the text of a document and return a continuation of it.
//
// Every provider trims its output and reports an empty or blank
// completion as ErrEmptyCompletion. Missing credentials are reported when
// Generate is called, not when the provider is built, so a misconfigured
// provider fails like any other generation.
package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Provider generates continuation text.
type Provider interface {
	// Name identifies the provider in logs and errors.
	Name() string

	// Generate returns text continuing req.ExistingText. It blocks until
	// the provider settles or ctx is done.
	Generate(ctx context.Context, req Request) (string, error)
}

// Options are the generation settings passed through from configuration.
type Options struct {
	Model               string
	Temperature         float64
	MaxTokens           int
	Instructions        string
	InstructionsEnabled bool
}

// Request is a single generation request.
type Request struct {
	// ID identifies the request in logs and, where supported, in request
	// headers.
	ID string

	ExistingText string
	Options      Options
}

var (
	// ErrEmptyCompletion is returned when a provider produced no text.
	ErrEmptyCompletion = errors.New("no content returned")

	// ErrMissingCredential matches MissingCredentialError.
	ErrMissingCredential = errors.New("missing credential")

	// ErrUnknownProvider is returned by New for an unregistered name.
	ErrUnknownProvider = errors.New("unknown provider")
)

// MissingCredentialError reports a credential that is not configured.
type MissingCredentialError struct {
	// Env is the environment variable that would supply the credential.
	Env string
}

func (e *MissingCredentialError) Error() string {
	return "Missing " + e.Env
}

// Is reports whether target is ErrMissingCredential.
func (e *MissingCredentialError) Is(target error) bool {
	return target == ErrMissingCredential
}

// Error wraps a failure reported by a provider.
type Error struct {
	Provider string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error { return e.Err }

// wrapErr wraps err in an *Error unless it already explains itself.
func wrapErr(name string, err error) error {
	if err == nil {
		return nil
	}
	var mc *MissingCredentialError
	var pe *Error
	if errors.As(err, &mc) || errors.As(err, &pe) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &Error{Provider: name, Err: err}
}

// completion trims text and rejects it when nothing is left.
func completion(name, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", &Error{Provider: name, Err: ErrEmptyCompletion}
	}
	return text, nil
}

// Func adapts a function to the Provider interface.
type Func func(ctx context.Context, req Request) (string, error)

// Name implements Provider.
func (f Func) Name() string { return "func" }

// Generate implements Provider.
func (f Func) Generate(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}
