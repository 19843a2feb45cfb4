package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/ksk-project/employee-service/internal/access"
	"github.com/ksk-project/employee-service/internal/audit"
	"github.com/ksk-project/employee-service/internal/models"
	"github.com/ksk-project/employee-service/internal/service"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tokenAuth map[string]*models.User

func (a tokenAuth) Authenticate(ctx context.Context, token string) (*models.User, error) {
	if token == "inactive" {
		return nil, service.ErrInactiveUser
	}
	if u, ok := a[token]; ok {
		return u, nil
	}
	return nil, fmt.Errorf("%w: token is malformed", service.ErrInvalidCredentials)
}

var (
	adminUser   = &models.User{ID: uuid.New(), Username: "admin", Role: models.RoleAdministrator, IsActive: true}
	managerUser = &models.User{ID: uuid.New(), Username: "manager", Role: models.RoleManager, IsActive: true}
	viewerUser  = &models.User{ID: uuid.New(), Username: "viewer", Role: models.RoleViewer, IsActive: true}
)

var tokens = tokenAuth{"a": adminUser, "m": managerUser, "v": viewerUser}

func echoUser(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(UserFrom(r.Context()).Username))
}

func TestAuth(t *testing.T) {
	log, _ := test.NewNullLogger()
	h := Auth(tokens, log)(http.HandlerFunc(echoUser))

	tests := []struct {
		name     string
		header   string
		query    string
		upgrade  bool
		wantCode int
		wantBody string
	}{
		{name: "no token", wantCode: http.StatusUnauthorized},
		{name: "bearer", header: "Bearer m", wantCode: http.StatusOK, wantBody: "manager"},
		{name: "lowercase scheme", header: "bearer v", wantCode: http.StatusOK, wantBody: "viewer"},
		{name: "basic scheme", header: "Basic a", wantCode: http.StatusUnauthorized},
		{name: "unknown token", header: "Bearer nope", wantCode: http.StatusUnauthorized},
		{name: "inactive", header: "Bearer inactive", wantCode: http.StatusUnauthorized},
		{name: "query token on websocket", query: "a", upgrade: true, wantCode: http.StatusOK, wantBody: "admin"},
		{name: "query token on plain request", query: "a", wantCode: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := "/api/auth/me"
			if tt.query != "" {
				target += "?token=" + tt.query
			}
			r := httptest.NewRequest("GET", target, nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			if tt.upgrade {
				r.Header.Set("Upgrade", "websocket")
			}

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, r)

			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, rec.Body.String())
			}
		})
	}
}

func TestRequireMethodOperation(t *testing.T) {
	h := RequireMethodOperation(http.HandlerFunc(echoUser))

	tests := []struct {
		user   *models.User
		method string
		want   int
	}{
		{user: viewerUser, method: http.MethodGet, want: http.StatusOK},
		{user: viewerUser, method: http.MethodPost, want: http.StatusForbidden},
		{user: managerUser, method: http.MethodPut, want: http.StatusOK},
		{user: managerUser, method: http.MethodDelete, want: http.StatusForbidden},
		{user: adminUser, method: http.MethodDelete, want: http.StatusOK},
		{user: adminUser, method: "PURGE", want: http.StatusOK},
		{user: managerUser, method: "PURGE", want: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.user.Username+" "+tt.method, func(t *testing.T) {
			r := httptest.NewRequest(tt.method, "/api/employees", nil)
			r = r.WithContext(WithUser(r.Context(), tt.user))

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, r)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestRequireOperationAndAdministration(t *testing.T) {
	export := RequireOperation(access.OperationExport)(http.HandlerFunc(echoUser))
	admin := RequireAdministration(http.HandlerFunc(echoUser))

	serve := func(h http.Handler, u *models.User) int {
		r := httptest.NewRequest("GET", "/", nil)
		if u != nil {
			r = r.WithContext(WithUser(r.Context(), u))
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, serve(export, managerUser))
	assert.Equal(t, http.StatusForbidden, serve(export, viewerUser))
	assert.Equal(t, http.StatusForbidden, serve(export, nil))

	assert.Equal(t, http.StatusOK, serve(admin, adminUser))
	assert.Equal(t, http.StatusForbidden, serve(admin, managerUser))
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(0.001, 2)
	h := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	hit := func(remote string) *httptest.ResponseRecorder {
		r := httptest.NewRequest("POST", "/api/auth/login", nil)
		r.RemoteAddr = remote
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		return rec
	}

	assert.Equal(t, http.StatusNoContent, hit("10.0.0.1:1000").Code)
	assert.Equal(t, http.StatusNoContent, hit("10.0.0.1:1001").Code)

	limited := hit("10.0.0.1:1002")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Equal(t, "1", limited.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusNoContent, hit("10.0.0.2:1000").Code, "limits are per client")
}

func TestRateLimiter_ForwardedFor(t *testing.T) {
	proxies, err := audit.ParseProxies([]string{"10.0.0.0/8"})
	require.NoError(t, err)

	rl := NewRateLimiter(0.001, 1)
	h := RequestMeta(proxies)(rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})))

	hit := func(remote, xff string) int {
		r := httptest.NewRequest("POST", "/api/auth/login", nil)
		r.RemoteAddr = remote
		if xff != "" {
			r.Header.Set("X-Forwarded-For", xff)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		return rec.Code
	}

	t.Run("rotating header from direct client", func(t *testing.T) {
		assert.Equal(t, http.StatusNoContent, hit("203.0.113.5:1000", "198.51.100.1"))
		assert.Equal(t, http.StatusTooManyRequests, hit("203.0.113.5:1001", "198.51.100.2"))
		assert.Equal(t, http.StatusTooManyRequests, hit("203.0.113.5:1002", "198.51.100.3"))
	})

	t.Run("clients behind trusted proxy", func(t *testing.T) {
		assert.Equal(t, http.StatusNoContent, hit("10.0.0.1:1000", "192.0.2.1"))
		assert.Equal(t, http.StatusNoContent, hit("10.0.0.1:1001", "192.0.2.2"))
		assert.Equal(t, http.StatusTooManyRequests, hit("10.0.0.1:1002", "192.0.2.1"))
	})

	t.Run("spoofed hop before trusted proxy", func(t *testing.T) {
		assert.Equal(t, http.StatusNoContent, hit("10.0.0.1:1000", "1.1.1.1, 192.0.2.9"))
		assert.Equal(t, http.StatusTooManyRequests, hit("10.0.0.1:1001", "2.2.2.2, 192.0.2.9"))
	})

	t.Run("unparseable header keeps peer bucket", func(t *testing.T) {
		assert.Equal(t, http.StatusNoContent, hit("10.0.0.77:1000", "unknown"))
		assert.Equal(t, http.StatusNoContent, hit("10.0.0.78:1000", "unknown"), "distinct peers must not share a bucket")
	})
}

func TestRequestMeta(t *testing.T) {
	proxies, err := audit.ParseProxies([]string{"192.0.2.0/24"})
	require.NoError(t, err)

	var got audit.Meta
	h := RequestMeta(proxies)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = audit.MetaFrom(r.Context())
	}))

	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "192.0.2.10:5555"
	r.Header.Set("User-Agent", "test-agent")
	h.ServeHTTP(httptest.NewRecorder(), r)

	assert.Equal(t, "192.0.2.10", got.IP)
	assert.Equal(t, "test-agent", got.UserAgent)

	r.Header.Set("X-Forwarded-For", "198.51.100.20")
	h.ServeHTTP(httptest.NewRecorder(), r)
	assert.Equal(t, "198.51.100.20", got.IP)

	RequestMeta(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = audit.MetaFrom(r.Context())
	})).ServeHTTP(httptest.NewRecorder(), r)
	assert.Equal(t, "192.0.2.10", got.IP, "forwarded header ignored without trusted proxies")
}

func TestLogger(t *testing.T) {
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)

	h := Logger(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/boom" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/fine", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/boom", nil))

	entries := hook.AllEntries()
	require.Len(t, entries, 2)
	assert.Equal(t, "Request handled", entries[0].Message)
	assert.Equal(t, http.StatusOK, entries[0].Data["status"])
	assert.Equal(t, 2, entries[0].Data["bytes"])
	assert.Equal(t, "Request failed", entries[1].Message)
	assert.Equal(t, http.StatusInternalServerError, entries[1].Data["status"])
}
