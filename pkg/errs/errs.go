// Package errs defines the error taxonomy used across kwality's core:
// RuntimeUnavailable, WorkspaceError, ExecutionError, PhaseTimeout,
// GlobalTimeout, PolicyViolation, and ConfigError. Each wraps an
// underlying cause and supports errors.Is/errors.As through Unwrap,
// following the tagged-error-kind pattern used elsewhere in the retrieval
// pack rather than bare string errors.
package errs

import "fmt"

// Kind names one entry in the error taxonomy.
type Kind string

const (
	KindRuntimeUnavailable Kind = "RuntimeUnavailable"
	KindWorkspaceError     Kind = "WorkspaceError"
	KindExecutionError     Kind = "ExecutionError"
	KindPhaseTimeout       Kind = "PhaseTimeout"
	KindGlobalTimeout      Kind = "GlobalTimeout"
	KindPolicyViolation    Kind = "PolicyViolation"
	KindConfigError        Kind = "ConfigError"
)

// Error is a taxonomy-tagged error.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target is an *Error with the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func newErr(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

func RuntimeUnavailable(message string, cause error) *Error { return newErr(KindRuntimeUnavailable, message, cause) }
func WorkspaceError(message string, cause error) *Error     { return newErr(KindWorkspaceError, message, cause) }
func ExecutionError(message string, cause error) *Error     { return newErr(KindExecutionError, message, cause) }
func PhaseTimeout(message string, cause error) *Error       { return newErr(KindPhaseTimeout, message, cause) }
func GlobalTimeout(message string, cause error) *Error      { return newErr(KindGlobalTimeout, message, cause) }
func PolicyViolation(message string, cause error) *Error    { return newErr(KindPolicyViolation, message, cause) }
func ConfigError(message string, cause error) *Error        { return newErr(KindConfigError, message, cause) }

// KindOf extracts the taxonomy Kind from err, if it (or something it wraps)
// is an *Error. The second return is false otherwise.
func KindOf(err error) (Kind, bool) {
	var e *Error
	for err != nil {
		if k, ok := err.(*Error); ok {
			e = k
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	if e == nil {
		return "", false
	}
	return e.Kind, true
}

// Retryable reports whether kind is in the configured retry allow-list.
func Retryable(kind Kind, allowList []Kind) bool {
	for _, k := range allowList {
		if k == kind {
			return true
		}
	}
	return false
}
