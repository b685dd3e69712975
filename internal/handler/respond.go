package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dukerupert/chores/internal/apperr"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeError maps service errors to status codes. Unclassified errors are
// logged and reported without detail.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var status int
	switch {
	case errors.Is(err, apperr.ErrInvalidRequest):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, apperr.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperr.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, apperr.ErrNotInHousehold):
		status = http.StatusForbidden
	case errors.Is(err, apperr.ErrUnauthorized):
		status = http.StatusUnauthorized
	default:
		logger.Error("request failed", "error", err)
		writeMessage(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeMessage(w, status, apperr.Message(err))
}

// decodeJSON decodes the request body into dst, rejecting unknown fields,
// and writes a 400 describing the problem when decoding fails.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err == nil {
		return true
	}

	var syntaxError *json.SyntaxError
	var unmarshalTypeError *json.UnmarshalTypeError
	var maxBytesError *http.MaxBytesError
	var msg string
	switch {
	case errors.As(err, &syntaxError):
		msg = fmt.Sprintf("request body contains badly-formed JSON (at position %d)", syntaxError.Offset)
	case errors.Is(err, io.ErrUnexpectedEOF):
		msg = "request body contains badly-formed JSON"
	case errors.As(err, &unmarshalTypeError):
		msg = fmt.Sprintf("request body contains an invalid value for the %q field", unmarshalTypeError.Field)
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		msg = "request body contains unknown field " + strings.TrimPrefix(err.Error(), "json: unknown field ")
	case errors.Is(err, io.EOF):
		msg = "request body must not be empty"
	case errors.As(err, &maxBytesError):
		msg = "request body is too large"
	default:
		msg = "invalid request body"
	}
	writeMessage(w, http.StatusBadRequest, msg)
	return false
}

func parseUUIDParam(r *http.Request, name string) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, name))
}
