package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/vvka-141/pgretry/pkg/pgretry"
	"golang.org/x/term"
)

// ConsoleLogger writes leveled log records to a terminal or stream.
// Safe for concurrent use by multiple goroutines.
type ConsoleLogger struct {
	log *slog.Logger
}

// NewConsoleLogger creates a ConsoleLogger writing to stderr.
// If verbose is false, Verbose() calls are no-ops.
func NewConsoleLogger(verbose bool) *ConsoleLogger {
	return NewConsoleLoggerTo(os.Stderr, verbose)
}

// NewConsoleLoggerTo creates a ConsoleLogger writing to w.
// Colour is used only when w is a terminal.
func NewConsoleLoggerTo(w io.Writer, verbose bool) *ConsoleLogger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
		NoColor:    !isTerminal(w),
	})
	return &ConsoleLogger{log: slog.New(handler)}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// With returns a logger that adds the given key/value attributes to every record.
func (l *ConsoleLogger) With(args ...any) *ConsoleLogger {
	return &ConsoleLogger{log: l.log.With(args...)}
}

// Slog exposes the underlying structured logger.
func (l *ConsoleLogger) Slog() *slog.Logger {
	return l.log
}

// Verbose logs detailed diagnostic information if verbose mode is enabled.
func (l *ConsoleLogger) Verbose(format string, args ...interface{}) {
	l.log.Debug(render(format, args))
}

// Info logs informational messages about normal operations.
func (l *ConsoleLogger) Info(format string, args ...interface{}) {
	l.log.Info(render(format, args))
}

// Error logs error messages.
func (l *ConsoleLogger) Error(format string, args ...interface{}) {
	l.log.Error(render(format, args))
}

func render(format string, args []interface{}) string {
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}

var (
	_ pgretry.Logger = (*ConsoleLogger)(nil)
	_ pgretry.Logger = (*NullLogger)(nil)
)
