package httputil

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/kitmedia/esports-platform-fc2025-sub000/internal/apperr"
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

func Conflict(w http.ResponseWriter, msg string, err error) {
	slog.Warn("conflict", "message", msg, "error", err)
	http.Error(w, msg, http.StatusConflict)
}

// Error maps an engine error onto its HTTP status via the apperr taxonomy.
func Error(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperr.ErrInvalidArgument):
		BadRequest(w, err.Error(), err)
	case errors.Is(err, apperr.ErrNotFound):
		NotFound(w, err.Error(), err)
	case errors.Is(err, apperr.ErrInvalidState), errors.Is(err, apperr.ErrConflict):
		Conflict(w, err.Error(), err)
	case errors.Is(err, apperr.ErrNotImplemented):
		slog.Warn("not implemented", "error", err)
		http.Error(w, err.Error(), http.StatusNotImplemented)
	default:
		InternalServerError(w, "unexpected error", err)
	}
}
