package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"taxtally/deductions/internal/logging"
	"taxtally/deductions/internal/openbanking"
	"taxtally/deductions/internal/parsererror"
	"taxtally/deductions/internal/store"
)

// maxJSONBytes caps JSON request bodies.
const maxJSONBytes = 5 << 20

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Hint    string `json:"hint,omitempty"`
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps err to a status and writes the error envelope. Server-side
// failures are logged and reported without internal detail.
func WriteError(w http.ResponseWriter, logger logging.Logger, err error) {
	status := statusFor(err)
	body := errorResponse{Success: false, Error: err.Error()}

	var noTx *parsererror.NoTransactionsError
	if errors.As(err, &noTx) {
		body.Hint = noTx.Hint
	}
	if status >= http.StatusInternalServerError {
		logger.WithError(err).Error("Request failed", logging.F(logging.FieldStatus, status))
		if status == http.StatusInternalServerError {
			body.Error = "internal server error"
		}
	}
	WriteJSON(w, status, body)
}

func statusFor(err error) int {
	var apiErr *openbanking.APIError
	var maxBytes *http.MaxBytesError
	switch {
	case errors.Is(err, openbanking.ErrNotConfigured):
		return http.StatusServiceUnavailable
	case errors.As(err, &apiErr):
		return http.StatusBadGateway
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	default:
		return parsererror.StatusCode(err)
	}
}

// decodeJSON reads a JSON body into v. Malformed input is a validation
// error.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return &parsererror.ValidationError{
				Field:  "body",
				Reason: fmt.Sprintf("request body exceeds %d bytes", maxBytes.Limit),
				Status: http.StatusRequestEntityTooLarge,
			}
		}
		return &parsererror.ValidationError{Field: "body", Reason: fmt.Sprintf("invalid JSON: %v", err)}
	}
	return nil
}
