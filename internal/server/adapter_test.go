package server

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vvka-141/pgretry/internal/app"
	"github.com/vvka-141/pgretry/internal/logging"
	"github.com/vvka-141/pgretry/internal/response"
	"github.com/vvka-141/pgretry/internal/retry"
	"github.com/vvka-141/pgretry/internal/store"
	"github.com/vvka-141/pgretry/pkg/pgretry"
)

// headerCounter counts WriteHeader calls that reach the client.
type headerCounter struct {
	*httptest.ResponseRecorder
	writes int
}

func (h *headerCounter) WriteHeader(status int) {
	h.writes++
	h.ResponseRecorder.WriteHeader(status)
}

func (h *headerCounter) Write(b []byte) (int, error) {
	if h.writes == 0 {
		h.writes++
	}
	return h.ResponseRecorder.Write(b)
}

func newHeaderCounter() *headerCounter {
	return &headerCounter{ResponseRecorder: httptest.NewRecorder()}
}

var textHeader = http.Header{"Content-Type": []string{"text/plain"}}

// flaky signals on every attempt and fails the first `conflicts` of them.
func flaky(conflicts int) pgretry.HandlerFunc {
	calls := 0
	return func(_ *http.Request, start pgretry.StartResponse) (pgretry.Body, error) {
		start(http.StatusOK, textHeader)
		calls++
		if calls <= conflicts {
			return nil, &pgretry.ConflictError{Resource: "flaky"}
		}
		return response.Strings("hel", "lo"), nil
	}
}

func TestAdapter_RepeatedSignalsProduceOneInitiation(t *testing.T) {
	exec := retry.NewExecutor(flaky(2), 3, []pgretry.ErrorKind{pgretry.Conflict})
	a := NewAdapter(exec, exec.IsRetryable)
	w := newHeaderCounter()

	a.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, 1, w.writes)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/plain", w.Header().Get("Content-Type"))
	assert.Equal(t, "hello", w.Body.String())
}

func TestAdapter_ExhaustedConflictIs409(t *testing.T) {
	exec := retry.NewExecutor(flaky(5), 3, []pgretry.ErrorKind{pgretry.Conflict})
	a := NewAdapter(exec, exec.IsRetryable)
	w := httptest.NewRecorder()

	a.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", nil))

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAdapter_OtherErrorsAre500(t *testing.T) {
	h := pgretry.HandlerFunc(func(*http.Request, pgretry.StartResponse) (pgretry.Body, error) {
		return nil, errors.New("boom")
	})
	exec := retry.NewExecutor(h, 3, []pgretry.ErrorKind{pgretry.Conflict})
	w := httptest.NewRecorder()

	NewAdapter(exec, exec.IsRetryable).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestAdapter_NilClassifier(t *testing.T) {
	w := httptest.NewRecorder()

	NewAdapter(flaky(1), nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestAdapter_DeferredBodyStartsOnConsumption(t *testing.T) {
	h := pgretry.HandlerFunc(func(_ *http.Request, start pgretry.StartResponse) (pgretry.Body, error) {
		return response.Deferred(start, http.StatusAccepted, textHeader, []byte("later")), nil
	})
	w := newHeaderCounter()

	NewAdapter(h, nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, 1, w.writes)
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "later", w.Body.String())
}

func TestAdapter_EmptyBodyStillCommits(t *testing.T) {
	h := pgretry.HandlerFunc(func(_ *http.Request, start pgretry.StartResponse) (pgretry.Body, error) {
		start(http.StatusNoContent, nil)
		return response.Chunks(), nil
	})
	w := httptest.NewRecorder()

	NewAdapter(h, nil).ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestAdapter_NeverStartedIs500(t *testing.T) {
	h := pgretry.HandlerFunc(func(*http.Request, pgretry.StartResponse) (pgretry.Body, error) {
		return response.Strings("orphan"), nil
	})
	w := httptest.NewRecorder()

	NewAdapter(h, nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "orphan")
}

func TestAdapter_RequestID(t *testing.T) {
	h := pgretry.HandlerFunc(func(_ *http.Request, start pgretry.StartResponse) (pgretry.Body, error) {
		start(http.StatusOK, textHeader)
		return response.Strings("ok"), nil
	})
	a := NewAdapter(h, nil)

	t.Run("generated", func(t *testing.T) {
		w := httptest.NewRecorder()
		a.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Len(t, w.Header().Get(pgretry.RequestIDHeader), 36)
	})

	t.Run("preserved", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(pgretry.RequestIDHeader, "abc-123")
		w := httptest.NewRecorder()
		a.ServeHTTP(w, req)
		assert.Equal(t, "abc-123", w.Header().Get(pgretry.RequestIDHeader))
	})
}

func TestAdapter_CounterConflictsAbsorbed(t *testing.T) {
	m := store.NewMemory()
	interference := 2
	m.BeforeCommit = func(name string) {
		if interference > 0 {
			interference--
			m.Bump(name)
		}
	}
	exec := retry.NewExecutor(app.New(m, nil), 3, []pgretry.ErrorKind{pgretry.Conflict})
	w := newHeaderCounter()

	NewAdapter(exec, exec.IsRetryable).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/counters/hits", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, w.writes)
	assert.True(t, strings.Contains(w.Body.String(), `"value":3`), w.Body.String())
}

func TestAdapter_TransientNonConflictIs503(t *testing.T) {
	h := pgretry.HandlerFunc(func(*http.Request, pgretry.StartResponse) (pgretry.Body, error) {
		return nil, context.DeadlineExceeded
	})
	deadline := pgretry.SentinelKind("context.DeadlineExceeded", context.DeadlineExceeded)
	exec := retry.NewExecutor(h, 2, []pgretry.ErrorKind{pgretry.Conflict, deadline})
	a := &Adapter{Handler: exec, Classify: pgretry.Conflict.Matches, Unavailable: exec.IsRetryable}
	w := httptest.NewRecorder()

	a.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestAdapter_ConflictWinsOverUnavailable(t *testing.T) {
	exec := retry.NewExecutor(flaky(5), 2, []pgretry.ErrorKind{pgretry.Conflict})
	a := &Adapter{Handler: exec, Classify: pgretry.Conflict.Matches, Unavailable: exec.IsRetryable}
	w := httptest.NewRecorder()

	a.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", nil))

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAdapter_EarlierAttemptDeclarationIsCommitted(t *testing.T) {
	calls := 0
	h := pgretry.HandlerFunc(func(_ *http.Request, start pgretry.StartResponse) (pgretry.Body, error) {
		calls++
		if calls == 1 {
			start(http.StatusCreated, textHeader)
			return nil, &pgretry.ConflictError{}
		}
		return response.Strings("late"), nil
	})
	exec := retry.NewExecutor(h, 2, []pgretry.ErrorKind{pgretry.Conflict})
	w := httptest.NewRecorder()

	NewAdapter(exec, exec.IsRetryable).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", nil))

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "late", w.Body.String())
}

func TestAdapter_LogsCarryRequestID(t *testing.T) {
	var buf bytes.Buffer
	h := pgretry.HandlerFunc(func(*http.Request, pgretry.StartResponse) (pgretry.Body, error) {
		return nil, errors.New("boom")
	})
	a := &Adapter{Handler: h, Logger: logging.NewConsoleLoggerTo(&buf, false)}
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(pgretry.RequestIDHeader, "req-42")

	a.ServeHTTP(httptest.NewRecorder(), req)

	assert.Contains(t, buf.String(), "request_id=req-42")
	assert.Contains(t, buf.String(), "boom")
}
