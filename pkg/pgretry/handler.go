package pgretry

import (
	"iter"
	"net/http"
)

// StartResponse declares the response status and headers.
// A handler calls it at most once per attempt. Calling it again with
// identical arguments overwrites the previous declaration.
type StartResponse func(status int, header http.Header)

// Body produces a response payload chunk by chunk.
// Implementations must be restartable: each call to Chunks yields the
// full payload from the beginning.
type Body interface {
	Chunks() iter.Seq[[]byte]
}

// Handler serves one request. It may signal response initiation through
// start, eagerly or lazily from within the returned Body.
type Handler interface {
	Serve(req *http.Request, start StartResponse) (Body, error)
}

// HandlerFunc adapts an ordinary function to the Handler interface.
type HandlerFunc func(req *http.Request, start StartResponse) (Body, error)

// Serve calls f(req, start).
func (f HandlerFunc) Serve(req *http.Request, start StartResponse) (Body, error) {
	return f(req, start)
}
