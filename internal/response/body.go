// Package response provides Body producers and a StartResponse recorder.
package response

import (
	"bytes"
	"iter"
	"net/http"
	"sync"

	"github.com/vvka-141/pgretry/pkg/pgretry"
)

type staticBody struct {
	chunks [][]byte
}

// Chunks returns a restartable body yielding the given chunks.
func Chunks(chunks ...[]byte) pgretry.Body {
	return &staticBody{chunks: chunks}
}

// Strings returns a restartable body yielding each string as one chunk.
func Strings(chunks ...string) pgretry.Body {
	b := &staticBody{chunks: make([][]byte, len(chunks))}
	for i, c := range chunks {
		b.chunks[i] = []byte(c)
	}
	return b
}

func (b *staticBody) Chunks() iter.Seq[[]byte] {
	return yieldAll(b.chunks)
}

func yieldAll(chunks [][]byte) iter.Seq[[]byte] {
	return func(yield func([]byte) bool) {
		for _, c := range chunks {
			if !yield(c) {
				return
			}
		}
	}
}

// State tells whether a DeferredBody has declared its response yet.
type State int

const (
	StatePending State = iota
	StateStarted
)

// DeferredBody signals response initiation on first consumption rather than
// when the handler returns. Later iterations replay the chunks without
// signalling again.
type DeferredBody struct {
	mu     sync.Mutex
	state  State
	start  pgretry.StartResponse
	status int
	header http.Header
	chunks [][]byte
}

// Deferred returns a body that calls start(status, header) when first iterated.
func Deferred(start pgretry.StartResponse, status int, header http.Header, chunks ...[]byte) *DeferredBody {
	return &DeferredBody{
		start:  start,
		status: status,
		header: header,
		chunks: chunks,
	}
}

// State reports whether start has been called.
func (b *DeferredBody) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *DeferredBody) Chunks() iter.Seq[[]byte] {
	return func(yield func([]byte) bool) {
		b.begin()
		yieldAll(b.chunks)(yield)
	}
}

func (b *DeferredBody) begin() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StatePending {
		b.start(b.status, b.header)
		b.state = StateStarted
	}
}

// ReadAll drains body into a single byte slice.
func ReadAll(body pgretry.Body) []byte {
	var buf bytes.Buffer
	for chunk := range body.Chunks() {
		buf.Write(chunk)
	}
	return buf.Bytes()
}
