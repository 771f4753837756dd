package response

import (
	"net/http"
	"sync"
)

// Recorder captures response initiation signals. Each signal overwrites the
// previous one, so identical signals from retried attempts collapse into one.
type Recorder struct {
	mu      sync.Mutex
	status  int
	header  http.Header
	signals int
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Start is a pgretry.StartResponse.
func (r *Recorder) Start(status int, header http.Header) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = status
	r.header = header.Clone()
	r.signals++
}

// Started reports whether any signal was received.
func (r *Recorder) Started() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.signals > 0
}

// Status returns the most recently declared status.
func (r *Recorder) Status() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Header returns a copy of the most recently declared header.
func (r *Recorder) Header() http.Header {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.header.Clone()
}

// Signals returns how many times Start was called.
func (r *Recorder) Signals() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.signals
}
