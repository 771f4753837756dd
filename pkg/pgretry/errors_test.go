package pgretry_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/vvka-141/pgretry/pkg/pgretry"
)

func TestExitCodeForError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil error", nil, pgretry.ExitSuccess},
		{"unknown flag", errors.New("unknown flag --foo"), pgretry.ExitUsageError},
		{"unknown shorthand flag", errors.New("unknown shorthand flag: 'x'"), pgretry.ExitUsageError},
		{"accepts args", errors.New("accepts 1 arg(s), received 0"), pgretry.ExitUsageError},
		{"invalid argument", errors.New("invalid argument \"abc\" for \"--tries\""), pgretry.ExitUsageError},
		{"general error", errors.New("something went wrong"), pgretry.ExitGeneralError},
		{"connection failed", fmt.Errorf("open store: %w", pgretry.ErrConnectionFailed), pgretry.ExitConnectionError},
		{"configuration error", &pgretry.ConfigurationError{Option: "tries", Value: "0", Err: pgretry.ErrInvalidTries}, pgretry.ExitConfigError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := pgretry.ExitCodeForError(tt.err); got != tt.want {
				t.Errorf("ExitCodeForError(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestConfigurationError_Unwrap(t *testing.T) {
	err := &pgretry.ConfigurationError{Option: "retryable", Value: "no.such.Kind", Err: pgretry.ErrUnknownKind}

	if !errors.Is(err, pgretry.ErrInvalidConfig) {
		t.Error("expected ConfigurationError to match ErrInvalidConfig")
	}
	if !errors.Is(err, pgretry.ErrUnknownKind) {
		t.Error("expected ConfigurationError to match its cause")
	}
	want := `invalid retryable "no.such.Kind": unknown error kind`
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestConflictError_Message(t *testing.T) {
	cause := errors.New("version 3 != 4")
	err := &pgretry.ConflictError{Resource: "counter/a", Err: cause}

	if got, want := err.Error(), "write conflict on counter/a: version 3 != 4"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, cause) {
		t.Error("expected ConflictError to unwrap to its cause")
	}
	if got := (&pgretry.ConflictError{}).Error(); got != "write conflict" {
		t.Errorf("bare Error() = %q", got)
	}
}

func TestOutcome_String(t *testing.T) {
	cases := map[pgretry.Outcome]string{
		pgretry.OutcomeSuccess:   "success",
		pgretry.OutcomeExhausted: "exhausted",
		pgretry.OutcomeFatal:     "fatal",
		pgretry.OutcomeCancelled: "cancelled",
		pgretry.Outcome(42):      "unknown",
	}
	for o, want := range cases {
		if o.String() != want {
			t.Errorf("Outcome(%d).String() = %q, want %q", int(o), o.String(), want)
		}
	}
}
