package logging

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncBuffer guards a bytes.Buffer for the concurrency test.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestConsoleLogger_Verbose_WhenEnabled(t *testing.T) {
	var buf bytes.Buffer
	logger := NewConsoleLoggerTo(&buf, true)

	logger.Verbose("test message: %s", "value")

	output := buf.String()
	assert.Contains(t, output, "DBG")
	assert.Contains(t, output, "test message: value")
}

func TestConsoleLogger_Verbose_WhenDisabled(t *testing.T) {
	var buf bytes.Buffer
	logger := NewConsoleLoggerTo(&buf, false)

	logger.Verbose("test message: %s", "value")

	assert.Empty(t, buf.String())
}

func TestConsoleLogger_InfoAndError(t *testing.T) {
	var buf bytes.Buffer
	logger := NewConsoleLoggerTo(&buf, false)

	logger.Info("info message: %s", "value")
	logger.Error("error message")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "INF")
	assert.Contains(t, lines[0], "info message: value")
	assert.Contains(t, lines[1], "ERR")
	assert.Contains(t, lines[1], "error message")
}

func TestConsoleLogger_NoColorForBuffers(t *testing.T) {
	var buf bytes.Buffer
	NewConsoleLoggerTo(&buf, false).Info("plain")

	assert.NotContains(t, buf.String(), "\x1b[")
}

func TestConsoleLogger_With(t *testing.T) {
	var buf bytes.Buffer
	logger := NewConsoleLoggerTo(&buf, false).With("request_id", "abc-123")

	logger.Info("served")

	assert.Contains(t, buf.String(), "request_id=abc-123")
}

func TestConsoleLogger_PercentWithoutArgs(t *testing.T) {
	var buf bytes.Buffer
	NewConsoleLoggerTo(&buf, false).Info("100% done")

	assert.Contains(t, buf.String(), "100% done")
}

func TestConsoleLogger_ConcurrentSafety(t *testing.T) {
	buf := &syncBuffer{}
	logger := NewConsoleLoggerTo(buf, true)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			logger.Info("message %d", id)
			logger.Verbose("verbose %d", id)
			logger.Error("error %d", id)
		}(i)
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 30)
}

// BenchmarkConsoleLogger_VerboseDisabled measures performance when verbose is disabled
func BenchmarkConsoleLogger_VerboseDisabled(b *testing.B) {
	var buf bytes.Buffer
	logger := NewConsoleLoggerTo(&buf, false)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Verbose("benchmark message %d", i)
	}
}

// Example demonstrates NullLogger usage
func ExampleNullLogger() {
	logger := NewNullLogger()
	logger.Info("This message is discarded")
	logger.Verbose("This too")
	logger.Error("And this")
	fmt.Println("Done")
	// Output:
	// Done
}
