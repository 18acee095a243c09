package invoke

import "fmt"

// Classification tells the execution engine whether an invocation error is
// worth retrying on a different backend.
type Classification string

const (
	// Transient marks capacity or availability failures: rate limits,
	// quota exhaustion, timeouts, provider-side overload.
	Transient Classification = "transient"

	// Fatal marks correctness or configuration failures that no other
	// backend should be asked to absorb.
	Fatal Classification = "fatal"
)

// Error wraps a provider error with status metadata and a classification.
type Error struct {
	Provider       string
	Status         int
	Classification Classification
	Err            error
}

func (e *Error) Error() string {
	if e == nil {
		return "invoke error"
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s invoke error (status=%d)", e.Provider, e.Status)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// UnknownProviderError indicates a backend whose provider has no invoker.
type UnknownProviderError struct {
	Provider  string
	BackendID string
}

func (e *UnknownProviderError) Error() string {
	return fmt.Sprintf("no invoker for provider %q (backend %s)", e.Provider, e.BackendID)
}
