package pgretry

// Exit codes for semantic error classification.
// These follow Unix/GNU conventions:
//   - 0: Success
//   - 1: General error
//   - 2: CLI usage error (misuse of command line)
//   - 3+: Application-specific errors
const (
	ExitSuccess         = 0  // Server exited cleanly
	ExitGeneralError    = 1  // Unknown or unclassified error
	ExitUsageError      = 2  // CLI usage error (missing args, invalid flags)
	ExitPanic           = 3  // Internal panic (unexpected crash)
	ExitConfigError     = 10 // Invalid configuration
	ExitConnectionError = 11 // Failed to connect to database
)

const (
	// DefaultTries is the default total number of attempts per request.
	DefaultTries = 3

	// OptionTries is the configuration key for the attempt budget.
	OptionTries = "tries"

	// OptionRetryable is the configuration key for the whitespace-separated
	// list of retryable kind names.
	OptionRetryable = "retryable"

	// FilterName is the entry point the retry middleware is registered under.
	FilterName = "retry"

	// RequestIDHeader carries the per-request correlation id.
	RequestIDHeader = "X-Request-Id"
)
