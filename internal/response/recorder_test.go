package response

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecorder_Empty(t *testing.T) {
	rec := NewRecorder()

	assert.False(t, rec.Started())
	assert.Equal(t, 0, rec.Status())
	assert.Equal(t, 0, rec.Signals())
	assert.Nil(t, rec.Header())
}

func TestRecorder_IdenticalSignalsCollapse(t *testing.T) {
	rec := NewRecorder()
	header := http.Header{"Content-Type": []string{"text/plain"}}

	for i := 0; i < 4; i++ {
		rec.Start(http.StatusOK, header)
	}

	assert.Equal(t, 4, rec.Signals())
	assert.Equal(t, http.StatusOK, rec.Status())
	assert.Equal(t, header, rec.Header())
}

func TestRecorder_LastSignalWins(t *testing.T) {
	rec := NewRecorder()

	rec.Start(http.StatusAccepted, http.Header{"X-Attempt": []string{"1"}})
	rec.Start(http.StatusOK, http.Header{"X-Attempt": []string{"2"}})

	assert.Equal(t, http.StatusOK, rec.Status())
	assert.Equal(t, "2", rec.Header().Get("X-Attempt"))
}

func TestRecorder_HeaderIsCopied(t *testing.T) {
	rec := NewRecorder()
	header := http.Header{"X-Value": []string{"a"}}

	rec.Start(http.StatusOK, header)
	header.Set("X-Value", "b")

	assert.Equal(t, "a", rec.Header().Get("X-Value"))
}
