package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ksk-project/employee-service/internal/db/repository"
)

var (
	ErrForbidden          = errors.New("permission denied")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInactiveUser       = errors.New("user account is inactive")
	ErrDuplicate          = errors.New("an employee with the same name already exists in this region")

	// Storage errors callers match on
	ErrNotFound          = repository.ErrNotFound
	ErrConflict          = repository.ErrConflict
	ErrInUse             = repository.ErrInUse
	ErrPolicyExists      = repository.ErrPolicyExists
	ErrPolicyUndeletable = repository.ErrPolicyUndeletable
)

// ValidationError carries one message per offending request field.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError returns an error for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add records msg for field unless the field already has a message.
func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = map[string]string{}
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = msg
	}
}

// Err returns e, or nil when no field was rejected.
func (e *ValidationError) Err() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}
