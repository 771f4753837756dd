// Package server exposes a pgretry.Handler over net/http.
package server

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/vvka-141/pgretry/internal/logging"
	"github.com/vvka-141/pgretry/internal/response"
	"github.com/vvka-141/pgretry/pkg/pgretry"
)

// Adapter serves a pgretry.Handler as an http.Handler.
//
// The status and header declared by the handler are written once, right before
// the first body chunk, so every attempt of a retried request can declare its
// response without the client ever seeing more than one. One recorder spans
// all attempts: a successful attempt that declares nothing commits whatever an
// earlier attempt of the same request declared. Replayed attempts are expected
// to declare the same response.
type Adapter struct {
	Handler pgretry.Handler

	// Classify reports whether a returned error is a conflict the client may
	// resubmit. Those map to 409.
	Classify func(error) bool

	// Unavailable reports whether a returned error is a transient failure
	// other than a conflict. Those map to 503. Everything else is a 500.
	Unavailable func(error) bool

	// Logger receives request diagnostics. A *logging.ConsoleLogger is scoped
	// with the request id.
	Logger pgretry.Logger
}

// NewAdapter creates an Adapter with a discarding logger.
func NewAdapter(handler pgretry.Handler, classify func(error) bool) *Adapter {
	return &Adapter{Handler: handler, Classify: classify, Logger: logging.NewNullLogger()}
}

func (a *Adapter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := r.Header.Get(pgretry.RequestIDHeader)
	if id == "" {
		id = uuid.NewString()
	}
	w.Header().Set(pgretry.RequestIDHeader, id)
	log := a.requestLogger(id)

	rec := response.NewRecorder()
	body, err := a.Handler.Serve(r, rec.Start)
	if err != nil {
		status := a.errorStatus(err)
		log.Error("%s %s failed with %d: %v", r.Method, r.URL.Path, status, err)
		http.Error(w, http.StatusText(status), status)
		return
	}

	c := &committer{w: w, rec: rec}
	if body != nil {
		for chunk := range body.Chunks() {
			if !c.commit() {
				log.Error("%s %s: %v", r.Method, r.URL.Path, pgretry.ErrResponseNotStarted)
				return
			}
			if _, err := w.Write(chunk); err != nil {
				log.Verbose("write aborted: %v", err)
				return
			}
		}
	}
	if !c.commit() {
		log.Error("%s %s: %v", r.Method, r.URL.Path, pgretry.ErrResponseNotStarted)
		return
	}
	log.Verbose("%s %s -> %d", r.Method, r.URL.Path, rec.Status())
}

func (a *Adapter) errorStatus(err error) int {
	switch {
	case a.Classify != nil && a.Classify(err):
		return http.StatusConflict
	case a.Unavailable != nil && a.Unavailable(err):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (a *Adapter) requestLogger(id string) pgretry.Logger {
	switch l := a.Logger.(type) {
	case nil:
		return logging.NewNullLogger()
	case *logging.ConsoleLogger:
		return l.With("request_id", id)
	default:
		return l
	}
}

// committer writes the recorded status line at most once.
type committer struct {
	w       http.ResponseWriter
	rec     *response.Recorder
	written bool
}

// commit reports false if the handler never declared a response, after
// answering 500 in its place.
func (c *committer) commit() bool {
	if c.written {
		return true
	}
	c.written = true
	if !c.rec.Started() {
		http.Error(c.w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return false
	}
	header := c.w.Header()
	for k, v := range c.rec.Header() {
		header[k] = v
	}
	c.w.WriteHeader(c.rec.Status())
	return true
}
