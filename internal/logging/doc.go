// Package logging provides concrete implementations of the pgretry.Logger interface.
//
// Available implementations:
//   - ConsoleLogger: Renders messages through log/slog with a tint handler
//   - NullLogger: Discards all messages (useful for testing)
//
// All logger implementations are safe for concurrent use by multiple goroutines.
package logging
