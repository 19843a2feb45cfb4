// Package api holds the JSON response helpers shared by handlers and
// middleware, and the single mapping from service errors to HTTP status.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ksk-project/employee-service/internal/service"
	"github.com/sirupsen/logrus"
)

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "encoding response", http.StatusInternalServerError)
	}
}

// Error writes a plain error message.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorResponse{Error: message})
}

func BadRequest(w http.ResponseWriter, message string) {
	Error(w, http.StatusBadRequest, message)
}

// Decode reads a JSON body into dst, rejecting unknown fields.
func Decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// Status maps err onto an HTTP status code.
func Status(err error) int {
	var verr *service.ValidationError

	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrInactiveUser):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrPolicyUndeletable):
		return http.StatusMethodNotAllowed
	case errors.Is(err, service.ErrDuplicate),
		errors.Is(err, service.ErrConflict),
		errors.Is(err, service.ErrInUse),
		errors.Is(err, service.ErrPolicyExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// HandleError writes the response for err. Internal errors are logged and
// replaced by a generic message.
func HandleError(w http.ResponseWriter, r *http.Request, log logrus.FieldLogger, err error) {
	status := Status(err)
	entry := log.WithError(err).WithFields(logrus.Fields{
		"method": r.Method,
		"path":   r.URL.Path,
		"status": status,
	})

	switch status {
	case http.StatusInternalServerError:
		entry.Error("Request failed")
		Error(w, status, "internal server error")
		return
	case http.StatusForbidden:
		entry.Warn("Permission denied")
	}

	var verr *service.ValidationError
	if errors.As(err, &verr) {
		JSON(w, status, ErrorResponse{Error: "validation failed", Fields: verr.Fields})
		return
	}

	Error(w, status, message(err))
}

// message strips the wrapping down to the most useful text for clients.
func message(err error) string {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		return service.ErrInvalidCredentials.Error()
	case errors.Is(err, service.ErrInactiveUser):
		return service.ErrInactiveUser.Error()
	case errors.Is(err, service.ErrForbidden):
		return service.ErrForbidden.Error()
	case errors.Is(err, service.ErrNotFound):
		return service.ErrNotFound.Error()
	default:
		return err.Error()
	}
}
