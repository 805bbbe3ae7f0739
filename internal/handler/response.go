package handler

// RESPONSE HELPERS:
// Every handler ends in writeJSON (success) or writeError (failure), so the
// wire format lives in one file.
//
// CONSISTENT ERROR FORMAT:
// Every error response has exactly one field:
//   {"error": "Could not locate sighting: 12"}
//
// The message is the AppError's message, written for the end user, so it is
// sent as-is. Store failures are forwarded verbatim too; there is no generic
// "internal error" replacement.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sakif/bird-tracker/internal/apperror"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse is the body of a successful delete.
type MessageResponse struct {
	Message string `json:"message"`
}

// CreatedResponse is the body of a successful create.
type CreatedResponse struct {
	ID int64 `json:"id"`
}

// writeJSON sends data as JSON with the given status code. Headers must be
// set before WriteHeader; anything set after is silently dropped.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// headers are already sent; all we can do is log
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// statusFor maps an error to its HTTP status.
//
//	ErrValidation -> 422
//	ErrConflict   -> 422 (a taken username is reported like bad input)
//	ErrNotFound   -> 404
//	ErrForbidden  -> 403
//	anything else -> 500
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperror.ErrValidation), errors.Is(err, apperror.ErrConflict):
		return http.StatusUnprocessableEntity
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperror.ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// writeError is the single place a domain error becomes an HTTP response.
func writeError(w http.ResponseWriter, err error) {
	msg := err.Error()

	// A wrapped AppError carries the user-facing text; the wrapping context
	// is for logs only.
	var appErr *apperror.AppError
	if errors.As(err, &appErr) && statusFor(err) != http.StatusInternalServerError {
		msg = appErr.Message
	}

	writeJSON(w, statusFor(err), ErrorResponse{Error: msg})
}

// parseID reads a path id. Only plain base-10 digits naming a positive
// integer are accepted: "0", "-3", "+3", "12abc" and "nan" are all rejected
// before anything touches the store.
func parseID(raw string) (int64, error) {
	bad := apperror.ValidationFailed("id", "Incorrect ID: "+raw+", Required data type: <Number>")
	if raw == "" {
		return 0, bad
	}
	for i := 0; i < len(raw); i++ {
		if raw[i] < '0' || raw[i] > '9' {
			return 0, bad
		}
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, bad
	}
	return id, nil
}

// pathParam returns a decoded path value. chi routes on the escaped path
// when the request has one (an encoded "/" forces that), and then hands back
// escaped values.
func pathParam(r *http.Request, name string) string {
	v := r.PathValue(name)
	if r.URL.RawPath == "" {
		return v
	}
	if u, err := url.PathUnescape(v); err == nil {
		return u
	}
	return v
}
