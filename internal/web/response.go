package web

import (
	"encoding/json"
	"log/slog"
	"net/http"

	domainerrors "github.com/justestif/go-mood-music/internal/errors"
)

// errorBody is the JSON shape of every failed request.
type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// writeJSON writes data as JSON with the given status.
func writeJSON(w http.ResponseWriter, status int, data any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode JSON response", "error", err)
	}
}

// writeError maps err to its status and user-facing message.
// Errors without a code are reported as internal.
func writeError(w http.ResponseWriter, r *http.Request, err error, logger *slog.Logger) {
	var appErr *domainerrors.Error
	if !domainerrors.As(err, &appErr) {
		appErr = domainerrors.Internal("unexpected error").WithCause(err)
	}

	status := appErr.HTTPStatus()
	attrs := []any{
		"code", appErr.Code,
		"status", status,
		"path", r.URL.Path,
		"error", err,
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", attrs...)
	} else {
		logger.Warn("request rejected", attrs...)
	}

	writeJSON(w, status, errorBody{
		Error: appErr.PublicMessage(),
		Code:  string(appErr.Code),
	}, logger)
}
