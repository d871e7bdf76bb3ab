package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"dailyregister/internal/backup"
	"dailyregister/internal/core"
	"dailyregister/internal/storage"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Response encoding failed", "error", err)
	}
}

// writeError maps domain errors onto status codes: validation failures
// are 422, missing things are 404, anything else is a 500 with the
// detail kept in the log rather than the response.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case isValidationError(err):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, backup.ErrBackupNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	default:
		slog.ErrorContext(r.Context(), "Request failed", "error", err, "method", r.Method, "path", r.URL.Path)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
}

func isValidationError(err error) bool {
	for _, v := range []error{
		core.ErrUnknownItemCode,
		core.ErrInvalidQuantity,
		core.ErrInvalidMaterial,
		core.ErrNegativePayment,
		core.ErrEmptyTransaction,
		core.ErrLedgerCommitted,
		core.ErrInvalidCatalogEntry,
	} {
		if errors.Is(err, v) {
			return true
		}
	}
	return false
}

func methodNotAllowed(w http.ResponseWriter, allowed string) {
	w.Header().Set("Allow", allowed)
	writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
}
