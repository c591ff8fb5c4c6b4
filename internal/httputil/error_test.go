package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/AdamBeresnev/chesseirb/internal/swiss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("tournament x: %w", swiss.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("not staff: %w", swiss.ErrForbidden), http.StatusForbidden},
		{fmt.Errorf("cannot start: %w", swiss.ErrInvalidState), http.StatusConflict},
		{swiss.ErrInvalidResult, http.StatusBadRequest},
		{swiss.ErrInvalidInput, http.StatusBadRequest},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.err))
		})
	}
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, fmt.Errorf("round 3 still pending: %w", swiss.ErrInvalidState))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "round 3 still pending: invalid tournament state", body["error"])

	rec = httptest.NewRecorder()
	WriteError(rec, errors.New("connection refused to 10.0.0.3"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "10.0.0.3")
}

func TestError(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, "Only staff can do that", swiss.ErrForbidden)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "Only staff can do that")
}
