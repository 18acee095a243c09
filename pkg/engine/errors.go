package engine

import "fmt"

// ExhaustedError is returned when every ranked candidate failed with a
// transient classification. The record carries the full attempt history.
type ExhaustedError struct {
	Record *Record
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("all %d candidates exhausted for task %s", len(e.Record.Attempts), e.Record.ID)
}

// FatalError is returned when an attempt failed with a non-transient error.
// No further candidates are tried; fallback is reserved for capacity
// problems, not correctness problems.
type FatalError struct {
	Record *Record
	Err    error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("task %s failed on backend %s: %v",
		e.Record.ID, e.Record.Attempts[len(e.Record.Attempts)-1].BackendID, e.Err)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// CancelledError is returned when the caller cancelled an in-flight task.
type CancelledError struct {
	Record *Record
	Err    error
}

func (e *CancelledError) Error() string {
	return fmt.Sprintf("task %s cancelled: %v", e.Record.ID, e.Err)
}

func (e *CancelledError) Unwrap() error {
	return e.Err
}
