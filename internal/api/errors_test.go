package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ksk-project/employee-service/internal/service"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{err: service.NewValidationError("code", "bad"), want: http.StatusBadRequest},
		{err: fmt.Errorf("wrapped: %w", service.NewValidationError("code", "bad")), want: http.StatusBadRequest},
		{err: service.ErrInvalidCredentials, want: http.StatusUnauthorized},
		{err: service.ErrInactiveUser, want: http.StatusUnauthorized},
		{err: service.ErrForbidden, want: http.StatusForbidden},
		{err: fmt.Errorf("get employee: %w", service.ErrNotFound), want: http.StatusNotFound},
		{err: service.ErrPolicyUndeletable, want: http.StatusMethodNotAllowed},
		{err: fmt.Errorf("x: %w", service.ErrDuplicate), want: http.StatusConflict},
		{err: service.ErrConflict, want: http.StatusConflict},
		{err: service.ErrInUse, want: http.StatusConflict},
		{err: service.ErrPolicyExists, want: http.StatusConflict},
		{err: errors.New("connection reset"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, Status(tt.err))
		})
	}
}

func TestHandleError(t *testing.T) {
	log, hook := test.NewNullLogger()

	t.Run("internal errors are hidden", func(t *testing.T) {
		hook.Reset()
		rec := httptest.NewRecorder()
		HandleError(rec, httptest.NewRequest("GET", "/api/employees", nil), log, errors.New("pq: password authentication failed"))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "pq:")
		require.Len(t, hook.AllEntries(), 1)
		assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
	})

	t.Run("validation fields", func(t *testing.T) {
		rec := httptest.NewRecorder()
		HandleError(rec, httptest.NewRequest("POST", "/api/regions", nil), log, service.NewValidationError("code", "must be exactly two digits"))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var body ErrorResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Equal(t, "validation failed", body.Error)
		assert.Equal(t, map[string]string{"code": "must be exactly two digits"}, body.Fields)
	})

	t.Run("not found message is normalised", func(t *testing.T) {
		rec := httptest.NewRecorder()
		HandleError(rec, httptest.NewRequest("GET", "/api/regions/x", nil), log, fmt.Errorf("get region: %w", service.ErrNotFound))

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.JSONEq(t, `{"error":"not found"}`, rec.Body.String())
	})

	t.Run("forbidden is logged as a warning", func(t *testing.T) {
		hook.Reset()
		rec := httptest.NewRecorder()
		HandleError(rec, httptest.NewRequest("DELETE", "/api/employees/1", nil), log, service.ErrForbidden)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		require.Len(t, hook.AllEntries(), 1)
		assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	})
}

func TestDecode_RejectsUnknownFields(t *testing.T) {
	var dst struct {
		Code string `json:"code"`
	}

	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"code":"77","extra":true}`))
	assert.Error(t, Decode(r, &dst))

	r = httptest.NewRequest("POST", "/", strings.NewReader(`{"code":"77"}`))
	require.NoError(t, Decode(r, &dst))
	assert.Equal(t, "77", dst.Code)
}
