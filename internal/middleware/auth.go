package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/ksk-project/employee-service/internal/access"
	"github.com/ksk-project/employee-service/internal/api"
	"github.com/ksk-project/employee-service/internal/models"
	"github.com/sirupsen/logrus"
)

// contextKey is a type for context keys
type contextKey string

const userKey contextKey = "user"

// Authenticator resolves a bearer token into a user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// Auth rejects requests without a valid bearer token and stores the
// authenticated user in the request context. Websocket handshakes may
// pass the token as the "token" query parameter instead, since browsers
// cannot set headers on them.
func Auth(authn Authenticator, log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				api.Error(w, http.StatusUnauthorized, "authentication required")
				return
			}

			user, err := authn.Authenticate(r.Context(), token)
			if err != nil {
				api.HandleError(w, r, log, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
			return "", false
		}
		return token, true
	}

	if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
		if token := r.URL.Query().Get("token"); token != "" {
			return token, true
		}
	}

	return "", false
}

// RequireOperation allows the request only when the current user may
// perform op.
func RequireOperation(op access.Operation) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !access.Allow(UserFrom(r.Context()), op) {
				api.Error(w, http.StatusForbidden, "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireMethodOperation derives the operation from the HTTP method.
func RequireMethodOperation(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !access.Allow(UserFrom(r.Context()), access.OperationForMethod(r.Method)) {
			api.Error(w, http.StatusForbidden, "insufficient permissions")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdministration allows administrators only.
func RequireAdministration(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !access.AllowAdministration(UserFrom(r.Context())) {
			api.Error(w, http.StatusForbidden, "insufficient permissions")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithUser stores the authenticated user in ctx.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFrom returns the authenticated user, or nil.
func UserFrom(ctx context.Context) *models.User {
	user, _ := ctx.Value(userKey).(*models.User)
	return user
}
