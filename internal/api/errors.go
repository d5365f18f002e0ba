package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/mhutchins/coachwork/internal/apperror"
)

// maxBodySize is the maximum allowed request body size (1 MB).
const maxBodySize = 1 << 20

// errorEnvelope is the standard error response shape.
type errorEnvelope struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeError writes a JSON error response with the given status code.
func writeError(w http.ResponseWriter, statusCode int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(errorEnvelope{
		Error: errorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// writeServiceError maps a classified business error onto the wire, or
// falls back to a 500 carrying fallback for anything unclassified. The
// underlying cause of a 500 is logged, never exposed.
func writeServiceError(w http.ResponseWriter, err error, fallback string) {
	kind, ok := apperror.KindOf(err)
	if !ok {
		slog.Error("internal error", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", fallback)
		return
	}

	switch kind {
	case apperror.KindNotFound:
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case apperror.KindAuthorization:
		writeError(w, http.StatusForbidden, "forbidden", err.Error())
	case apperror.KindConflict:
		writeError(w, http.StatusConflict, "conflict", err.Error())
	case apperror.KindValidation:
		writeError(w, http.StatusUnprocessableEntity, "validation_error", err.Error())
	default:
		slog.Error("internal error", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", fallback)
	}
}

// writeJSON writes a JSON response with the given status code and data.
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// readJSON decodes the request body into v, enforcing a size limit.
func readJSON(r *http.Request, v interface{}) error {
	lr := io.LimitReader(r.Body, maxBodySize)
	return json.NewDecoder(lr).Decode(v)
}
