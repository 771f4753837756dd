// Package app serves counters over the pgretry.Handler contract.
//
//	POST /counters/{name}  increment, eager response initiation
//	GET  /counters/{name}  read, response initiated when the body is consumed
package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/vvka-141/pgretry/internal/logging"
	"github.com/vvka-141/pgretry/internal/response"
	"github.com/vvka-141/pgretry/internal/store"
	"github.com/vvka-141/pgretry/pkg/pgretry"
)

const routePrefix = "/counters/"

// Handler is the counter application. Conflicts from the store are returned
// unchanged so the retry middleware can replay the request.
type Handler struct {
	store  store.Store
	logger pgretry.Logger
}

// New creates a counter handler. A nil logger discards output.
func New(s store.Store, logger pgretry.Logger) *Handler {
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	return &Handler{store: s, logger: logger}
}

func jsonHeader() http.Header {
	return http.Header{"Content-Type": []string{"application/json"}}
}

func (h *Handler) Serve(req *http.Request, start pgretry.StartResponse) (pgretry.Body, error) {
	name, ok := counterName(req.URL.Path)
	if !ok {
		return textResponse(start, http.StatusNotFound, "not found"), nil
	}

	switch req.Method {
	case http.MethodPost:
		return h.increment(req, start, name)
	case http.MethodGet:
		return h.get(req, start, name)
	default:
		start(http.StatusMethodNotAllowed, http.Header{
			"Allow":        []string{"GET, POST"},
			"Content-Type": []string{"text/plain; charset=utf-8"},
		})
		return response.Strings("method not allowed\n"), nil
	}
}

func (h *Handler) increment(req *http.Request, start pgretry.StartResponse, name string) (pgretry.Body, error) {
	// Declared before the write; a retried attempt re-declares the same values.
	start(http.StatusOK, jsonHeader())

	c, err := h.store.Increment(req.Context(), name)
	if err != nil {
		return nil, err
	}
	h.logger.Verbose("counter %s incremented to %d", name, c.Value)
	return encode(c)
}

func (h *Handler) get(req *http.Request, start pgretry.StartResponse, name string) (pgretry.Body, error) {
	c, err := h.store.Get(req.Context(), name)
	if errors.Is(err, store.ErrNotFound) {
		return textResponse(start, http.StatusNotFound, "counter not found"), nil
	}
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to encode counter: %w", err)
	}
	return response.Deferred(start, http.StatusOK, jsonHeader(), payload, []byte("\n")), nil
}

func encode(c store.Counter) (pgretry.Body, error) {
	payload, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to encode counter: %w", err)
	}
	return response.Chunks(payload, []byte("\n")), nil
}

func textResponse(start pgretry.StartResponse, status int, msg string) pgretry.Body {
	start(status, http.Header{"Content-Type": []string{"text/plain; charset=utf-8"}})
	return response.Strings(msg + "\n")
}

func counterName(path string) (string, bool) {
	name, ok := strings.CutPrefix(path, routePrefix)
	if !ok || name == "" || strings.Contains(name, "/") {
		return "", false
	}
	return name, true
}

var _ pgretry.Handler = (*Handler)(nil)
