// Package handlers implements the HTTP API endpoints.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	apierrors "github.com/rosterd/rosterd/internal/errors"
	"github.com/rosterd/rosterd/internal/storage"
)

// Handler holds the dependencies shared by all endpoints.
type Handler struct {
	db        *storage.Database
	jwtSecret []byte
}

// New creates a handler backed by the given database.
func New(db *storage.Database, jwtSecret []byte) *Handler {
	return &Handler{db: db, jwtSecret: jwtSecret}
}

// OkResponse acknowledges a mutation with no other payload.
type OkResponse struct {
	OK bool `json:"ok"`
}

// respondJSON writes v as a JSON response.
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "err", err)
	}
}

// respondError maps an error to the JSON error envelope. Used by the
// multipart endpoints that cannot go through the generic wrapper.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	statusCode := http.StatusInternalServerError
	errorCode := apierrors.ErrInternal

	var ewsErr apierrors.ErrorWithStatus
	if errors.As(err, &ewsErr) {
		statusCode = ewsErr.StatusCode()
		errorCode = ewsErr.Code()
	}

	slog.ErrorContext(r.Context(), "Handler error", "err", err, "statusCode", statusCode, "code", errorCode)
	respondJSON(w, statusCode, map[string]any{
		"error": map[string]any{
			"code":    errorCode,
			"message": err.Error(),
		},
	})
}
