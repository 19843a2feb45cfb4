package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/ksk-project/employee-service/internal/middleware"
	"github.com/ksk-project/employee-service/internal/models"
	"github.com/ksk-project/employee-service/internal/service"
	"github.com/ksk-project/employee-service/internal/websockets"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type userStore struct {
	service.UserStore
	users []models.User
}

func (s *userStore) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	for _, u := range s.users {
		if u.ID == id {
			return &u, nil
		}
	}
	return nil, service.ErrNotFound
}

func (s *userStore) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	for _, u := range s.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, service.ErrNotFound
}

type regionStore struct{ service.RegionStore }

func (regionStore) List(ctx context.Context, search string) ([]models.Region, error) {
	return []models.Region{{ID: uuid.New(), Code: "77", Name: "Moscow"}}, nil
}

type employeeStore struct{ service.EmployeeStore }

func (employeeStore) Search(ctx context.Context, filter models.EmployeeFilter) ([]models.Employee, error) {
	return []models.Employee{}, nil
}

type policyStore struct{ service.PasswordPolicyStore }

func (policyStore) Delete(ctx context.Context) error { return service.ErrPolicyUndeletable }

type noopAudit struct{}

func (noopAudit) Record(context.Context, *models.User, string, string) {}
func (noopAudit) LoggedIn(context.Context, *models.User)               {}
func (noopAudit) LoggedOut(context.Context, *models.User)              {}
func (noopAudit) LoginFailed(context.Context, string)                  {}

type health struct{ err error }

func (h health) HealthCheck(context.Context) error { return h.err }

const testPassword = "router-test-password"

type testEnv struct {
	handler http.Handler
	hub     *websockets.Hub
}

func newTestEnv(t *testing.T, opts Options) *testEnv {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)

	users := &userStore{}
	for _, role := range []models.Role{models.RoleAdministrator, models.RoleManager, models.RoleViewer} {
		users.users = append(users.users, models.User{
			ID:           uuid.New(),
			Username:     string(role),
			PasswordHash: string(hash),
			Role:         role,
			IsActive:     true,
		})
	}

	log, _ := test.NewNullLogger()
	auth := service.NewAuthService(log, users, noopAudit{}, service.JWTConfig{Secret: "router-secret", TTL: time.Hour})

	svc := Services{
		Auth:           auth,
		Users:          service.NewUserService(log, users, auth, noopAudit{}),
		Employees:      service.NewEmployeeService(log, employeeStore{}, regionStore{}, policyStore{}, nil, noopAudit{}),
		Regions:        service.NewRegionService(regionStore{}, noopAudit{}),
		PasswordPolicy: service.NewPasswordPolicyService(policyStore{}, nil, noopAudit{}),
		Audit:          service.NewAuditService(nil, nil),
	}

	return &testEnv{handler: New(log, svc, opts), hub: opts.Hub}
}

func (e *testEnv) do(t *testing.T, method, target, token, body string) *httptest.ResponseRecorder {
	t.Helper()

	r := httptest.NewRequest(method, target, strings.NewReader(body))
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	if body != "" {
		r.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, r)
	return rec
}

func (e *testEnv) login(t *testing.T, username string) string {
	t.Helper()

	rec := e.do(t, http.MethodPost, "/api/auth/login", "", `{"username":"`+username+`","password":"`+testPassword+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.NotEmpty(t, resp.Token)
	assert.Equal(t, username, resp.User.Username)
	return resp.Token
}

func TestHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t, Options{Health: health{}})
	rec := env.do(t, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "employees_http_requests_total")

	down := newTestEnv(t, Options{Health: health{err: errors.New("connection refused")}})
	rec = down.do(t, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestLoginAndMe(t *testing.T) {
	env := newTestEnv(t, Options{})

	token := env.login(t, "manager")

	rec := env.do(t, http.MethodGet, "/api/auth/me", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"username":"manager"`)
	assert.NotContains(t, rec.Body.String(), "password")

	rec = env.do(t, http.MethodPost, "/api/auth/logout", token, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/auth/login", "", `{"username":"manager","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"invalid credentials"}`, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/api/auth/login", "", `{"username":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/auth/login", "", `{"username":"a","password":"b","otp":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginRateLimited(t *testing.T) {
	env := newTestEnv(t, Options{LoginLimiter: middleware.NewRateLimiter(0.001, 1)})

	body := `{"username":"viewer","password":"wrong"}`
	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodPost, "/api/auth/login", "", body).Code)
	assert.Equal(t, http.StatusTooManyRequests, env.do(t, http.MethodPost, "/api/auth/login", "", body).Code)
}

func TestPermissions(t *testing.T) {
	env := newTestEnv(t, Options{})
	adminToken := env.login(t, "admin")
	managerToken := env.login(t, "manager")
	viewerToken := env.login(t, "viewer")

	tests := []struct {
		name   string
		method string
		target string
		token  string
		body   string
		want   int
	}{
		{name: "anonymous", method: http.MethodGet, target: "/api/employees", want: http.StatusUnauthorized},
		{name: "viewer lists employees", method: http.MethodGet, target: "/api/employees", token: viewerToken, want: http.StatusOK},
		{name: "viewer cannot create", method: http.MethodPost, target: "/api/employees", token: viewerToken, body: `{}`, want: http.StatusForbidden},
		{name: "viewer cannot export", method: http.MethodGet, target: "/api/employees/export", token: viewerToken, want: http.StatusForbidden},
		{name: "manager cannot delete", method: http.MethodDelete, target: "/api/employees/" + uuid.NewString(), token: managerToken, want: http.StatusForbidden},
		{name: "manager cannot bulk delete", method: http.MethodPost, target: "/api/employees/bulk-delete", token: managerToken, body: `{"ids":[]}`, want: http.StatusForbidden},
		{name: "viewer cannot change status", method: http.MethodPut, target: "/api/employees/" + uuid.NewString() + "/status", token: viewerToken, body: `{"status":"blocked"}`, want: http.StatusForbidden},
		{name: "viewer reads regions", method: http.MethodGet, target: "/api/regions?q=mos", token: viewerToken, want: http.StatusOK},
		{name: "manager cannot list users", method: http.MethodGet, target: "/api/users", token: managerToken, want: http.StatusForbidden},
		{name: "manager cannot read audit", method: http.MethodGet, target: "/api/audit/actions", token: managerToken, want: http.StatusForbidden},
		{name: "manager cannot edit policy", method: http.MethodPut, target: "/api/password-policy", token: managerToken, body: `{}`, want: http.StatusForbidden},
		{name: "policy is never deleted", method: http.MethodDelete, target: "/api/password-policy", token: adminToken, want: http.StatusMethodNotAllowed},
		{name: "bad filter", method: http.MethodGet, target: "/api/employees?status=fired&limit=-1", token: viewerToken, want: http.StatusBadRequest},
		{name: "bad id", method: http.MethodGet, target: "/api/regions/not-a-uuid", token: viewerToken, want: http.StatusBadRequest},
		{name: "admin bulk delete with nothing selected", method: http.MethodPost, target: "/api/employees/bulk-delete", token: adminToken, body: `{"ids":[]}`, want: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, tt.method, tt.target, tt.token, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		})
	}
}

func TestPolicyDeleteAdvertisesAllowedMethods(t *testing.T) {
	env := newTestEnv(t, Options{})
	rec := env.do(t, http.MethodDelete, "/api/password-policy", env.login(t, "admin"), "")

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "GET, POST, PUT", rec.Header().Get("Allow"))
}

func TestNotFound(t *testing.T) {
	env := newTestEnv(t, Options{})
	rec := env.do(t, http.MethodGet, "/api/nowhere", env.login(t, "admin"), "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"not found"}`, rec.Body.String())
}

func TestAuditFeedWebsocket(t *testing.T) {
	log, _ := test.NewNullLogger()
	hub := websockets.NewHub(log)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	env := newTestEnv(t, Options{Hub: hub})
	srv := httptest.NewServer(env.handler)
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws/audit?token="

	_, resp, err := websocket.DefaultDialer.Dial(wsURL+env.login(t, "manager"), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL+env.login(t, "admin"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	hub.PublishAction(models.ActionLog{Action: "region.create", Subject: "16 Tatarstan"})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg websockets.Message
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, websockets.TypeAuditAction, msg.Type)
	assert.Contains(t, string(msg.Data), "region.create")
}
