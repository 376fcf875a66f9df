// Package http holds the chi-facing plumbing shared by the association API:
// error-returning handlers, JSON responses and the serve loop.
package http

import (
	"encoding/json"
	"errors"
	"net/http"

	apperrors "github.com/chainsafe/agent-associations/pkg/app/errors"
)

const unexpectedErrorMessage = "Unexpected Service Error"

// HandlerFunc is an http handler that reports failures as errors.
type HandlerFunc func(http.ResponseWriter, *http.Request) error

// ErrorResponse is the body written for every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

// HandleError adapts h to http.HandlerFunc, rendering any returned error
// with WriteError.
//
//	r.Post("/approve", apphttp.HandleError(h.approve))
func HandleError(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h(w, r); err != nil {
			WriteError(w, err)
		}
	}
}

// WriteError renders err as an ErrorResponse. Only ServiceError messages
// reach the client; anything else becomes a generic 500.
func WriteError(w http.ResponseWriter, err error) {
	resp := ErrorResponse{Error: unexpectedErrorMessage, Code: http.StatusInternalServerError}

	var svcErr *apperrors.ServiceError
	if errors.As(err, &svcErr) {
		resp = ErrorResponse{Error: svcErr.Message, Code: svcErr.StatusCode()}
	}

	_ = WriteJSON(w, resp.Code, resp)
}

// WriteJSON writes data as a JSON body with the given status.
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}
