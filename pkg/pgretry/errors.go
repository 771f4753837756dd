package pgretry

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common failure scenarios.
// These enable callers to distinguish error types using errors.Is().
var (
	// ErrInvalidConfig indicates the middleware configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrInvalidTries indicates the tries option is not a positive integer.
	ErrInvalidTries = errors.New("tries must be a positive integer")

	// ErrUnknownKind indicates a retryable name could not be resolved to an error kind.
	ErrUnknownKind = errors.New("unknown error kind")

	// ErrDuplicateKind indicates an error kind name was registered twice.
	ErrDuplicateKind = errors.New("duplicate error kind")

	// ErrResponseNotStarted indicates a handler produced a body without declaring a status.
	ErrResponseNotStarted = errors.New("response not started")

	// ErrConnectionFailed indicates database connection failed.
	ErrConnectionFailed = errors.New("connection failed")
)

// ConflictKindName is the identifier of the built-in conflict kind.
const ConflictKindName = "pgretry.ConflictError"

// Conflict is the default retryable kind.
var Conflict = NamedKind(ConflictKindName)

// ConflictError reports a write conflict detected by the storage layer.
// Handlers raising it must be safe to replay from scratch.
type ConflictError struct {
	Resource string
	Err      error
}

func (e *ConflictError) Error() string {
	msg := "write conflict"
	if e.Resource != "" {
		msg += " on " + e.Resource
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConflictError) Unwrap() error { return e.Err }

// Kind implements KindedError.
func (e *ConflictError) Kind() string { return ConflictKindName }

// ConfigurationError is returned while building middleware from configuration.
// It always wraps ErrInvalidConfig.
type ConfigurationError struct {
	Option string
	Value  string
	Err    error
}

func (e *ConfigurationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid %s: %v", e.Option, e.Err)
	}
	return fmt.Sprintf("invalid %s %q: %v", e.Option, e.Value, e.Err)
}

func (e *ConfigurationError) Unwrap() []error {
	return []error{ErrInvalidConfig, e.Err}
}

// ExitCodeForError returns the appropriate exit code for an error.
// Returns ExitSuccess (0) for nil errors, semantic codes for known errors,
// and ExitGeneralError (1) for unclassified errors.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	switch {
	case errors.Is(err, ErrInvalidConfig):
		return ExitConfigError
	case errors.Is(err, ErrConnectionFailed):
		return ExitConnectionError
	}

	// cobra reports usage problems as plain errors
	errStr := err.Error()
	for _, prefix := range []string{"unknown flag", "unknown shorthand flag", "unknown command", "accepts ", "required flag", "invalid argument"} {
		if strings.HasPrefix(errStr, prefix) {
			return ExitUsageError
		}
	}

	return ExitGeneralError
}
