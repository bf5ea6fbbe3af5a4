package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrSessionNotFound signals an unknown or ended chat session.
	ErrSessionNotFound = errors.New("session not found")
	// ErrNoDocument signals that no PDF has been processed for the session.
	ErrNoDocument = errors.New("no document processed")
	// ErrInvalidDocument signals an upload that is not a readable PDF.
	ErrInvalidDocument = errors.New("invalid document")
	// ErrEmptyPrompt signals a blank chat question.
	ErrEmptyPrompt = errors.New("empty prompt")
	// ErrQuestionOutOfRange signals a preset question index outside the list.
	ErrQuestionOutOfRange = errors.New("question index out of range")
	// ErrInvalidConfig signals a retrieval or fine-tune configuration that cannot be used.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrBusy signals that the session is already processing a document.
	ErrBusy = errors.New("session busy")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")

	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrLLMProviderError signals a completion provider failure.
	ErrLLMProviderError = errors.New("llm provider error")
	// ErrPlatformError signals a model-management call failure (adapter, fine-tune).
	ErrPlatformError = errors.New("platform error")
)

// ErrorKind classifies a failure by where it originated.
type ErrorKind string

// Error kinds.
const (
	KindRemote  ErrorKind = "remote"   // hosted model service or vector store
	KindLocalIO ErrorKind = "local_io" // files on this machine
	KindInput   ErrorKind = "input"    // user-supplied data
	KindConfig  ErrorKind = "config"   // settings that cannot work
)

// Error carries the kind and operation of a failed step along with its cause.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError wraps err; nil stays nil.
func NewError(kind ErrorKind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the kind of the outermost *Error in the chain, or "" if none.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// OpOf returns the operation of the outermost *Error in the chain, or "" if none.
func OpOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Op
	}
	return ""
}
