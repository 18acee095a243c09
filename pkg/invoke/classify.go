package invoke

import (
	"context"
	"errors"
	"net"
	"strings"
)

// transientPatterns is the documented substring heuristic for collaborators
// that return unstructured errors. A structured *Error classification always
// takes precedence over this list.
var transientPatterns = []string{
	"rate limit",
	"429",
	"too many requests",
	"quota exceeded",
}

// Classify decides whether an invocation error justifies falling back to
// another backend. Order matters: caller cancellation is never retried,
// attempt timeouts are, structured classifications win over status codes,
// and message matching is the last resort.
func Classify(err error) Classification {
	if err == nil {
		return Fatal
	}
	if errors.Is(err, context.Canceled) {
		return Fatal
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Transient
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return Transient
	}

	var invErr *Error
	if errors.As(err, &invErr) {
		if invErr.Classification != "" {
			return invErr.Classification
		}
		if transientStatus(invErr.Status) {
			return Transient
		}
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range transientPatterns {
		if strings.Contains(msg, pattern) {
			return Transient
		}
	}
	return Fatal
}

// IsTransient reports whether an error is safe to retry on another backend.
func IsTransient(err error) bool {
	return err != nil && Classify(err) == Transient
}

func transientStatus(status int) bool {
	return status == 429 || (status >= 500 && status <= 599)
}

// classifyStatus builds a classification from an HTTP status code.
func classifyStatus(status int) Classification {
	if transientStatus(status) {
		return Transient
	}
	return Fatal
}
