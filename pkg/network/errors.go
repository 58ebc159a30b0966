package network

import "errors"

// Kind classifies a Fetcher error so the orchestrator can decide whether a
// tick should retry, skip, or (at startup) abort.
type Kind string

const (
	// KindTransient covers connection errors, timeouts, and 5xx responses.
	// Fetcher retries these with backoff.
	KindTransient Kind = "transient"

	// KindParse covers malformed JSON or a snapshot missing required root
	// fields. Never retried.
	KindParse Kind = "parse"
)

// FetchError wraps an underlying error with a Kind for classification.
type FetchError struct {
	Kind Kind
	Err  error
}

func (e *FetchError) Error() string {
	return string(e.Kind) + ": " + e.Err.Error()
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Transient wraps err as a retryable transient error.
func Transient(err error) error {
	return &FetchError{Kind: KindTransient, Err: err}
}

// Parse wraps err as a non-retryable parse/schema error.
func Parse(err error) error {
	return &FetchError{Kind: KindParse, Err: err}
}

// IsTransient reports whether err (or any error it wraps) is classified as
// transient. Unclassified errors are treated as transient, matching a bare
// network.Dial-style error that never got wrapped.
func IsTransient(err error) bool {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind == KindTransient
	}
	return true
}

// IsParse reports whether err is classified as a parse/schema error.
func IsParse(err error) bool {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind == KindParse
	}
	return false
}
