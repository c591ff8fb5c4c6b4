package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/AdamBeresnev/chesseirb/internal/swiss"
)

func InternalServerError(w http.ResponseWriter, msg string, err error) {
	slog.Error(msg, "error", err)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

func BadRequest(w http.ResponseWriter, msg string, err error) {
	if err != nil {
		slog.Warn("bad request", "message", msg, "error", err)
	} else {
		slog.Warn("bad request", "message", msg)
	}
	http.Error(w, msg, http.StatusBadRequest)
}

func NotFound(w http.ResponseWriter, msg string, err error) {
	if err != nil {
		slog.Warn("not found", "message", msg, "error", err)
	} else {
		slog.Warn("not found", "message", msg)
	}
	http.Error(w, msg, http.StatusNotFound)
}

func Forbidden(w http.ResponseWriter, msg string, err error) {
	slog.Warn("forbidden", "message", msg, "error", err)
	http.Error(w, msg, http.StatusForbidden)
}

func Conflict(w http.ResponseWriter, msg string, err error) {
	slog.Warn("conflict", "message", msg, "error", err)
	http.Error(w, msg, http.StatusConflict)
}

// StatusFor maps the engine's sentinel errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, swiss.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, swiss.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, swiss.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, swiss.ErrInvalidResult), errors.Is(err, swiss.ErrInvalidInput):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// Error writes a plain text error for err, using msg as the public message
// of client errors.
func Error(w http.ResponseWriter, msg string, err error) {
	switch StatusFor(err) {
	case http.StatusNotFound:
		NotFound(w, msg, err)
	case http.StatusForbidden:
		Forbidden(w, msg, err)
	case http.StatusConflict:
		Conflict(w, msg, err)
	case http.StatusBadRequest:
		BadRequest(w, msg, err)
	default:
		InternalServerError(w, msg, err)
	}
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

type errorBody struct {
	Error string `json:"error"`
}

// WriteError is the JSON counterpart of Error. Internal errors are logged
// and never echoed.
func WriteError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "error", err)
		WriteJSON(w, status, errorBody{Error: http.StatusText(status)})
		return
	}
	WriteJSON(w, status, errorBody{Error: err.Error()})
}
