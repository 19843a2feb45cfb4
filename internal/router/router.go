// internal/router/router.go
package router

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/ksk-project/employee-service/internal/access"
	"github.com/ksk-project/employee-service/internal/api"
	"github.com/ksk-project/employee-service/internal/api/handler"
	"github.com/ksk-project/employee-service/internal/audit"
	"github.com/ksk-project/employee-service/internal/middleware"
	"github.com/ksk-project/employee-service/internal/service"
	"github.com/ksk-project/employee-service/internal/websockets"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// HealthChecker reports whether the backing store is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Services groups the business services the routes dispatch to.
type Services struct {
	Auth           *service.AuthService
	Users          *service.UserService
	Employees      *service.EmployeeService
	Regions        *service.RegionService
	PasswordPolicy *service.PasswordPolicyService
	Audit          *service.AuditService
}

// Options configures the transport concerns around the routes.
type Options struct {
	CORSOrigins  []string
	Proxies      *audit.Proxies
	LoginLimiter *middleware.RateLimiter
	Health       HealthChecker
	Hub          *websockets.Hub
}

// Router handles HTTP routing
type Router struct {
	mux  *chi.Mux
	log  logrus.FieldLogger
	svc  Services
	opts Options
}

// New creates a new router
func New(log logrus.FieldLogger, svc Services, opts Options) *Router {
	r := &Router{
		mux:  chi.NewRouter(),
		log:  log,
		svc:  svc,
		opts: opts,
	}

	r.setupRoutes()

	return r
}

// ServeHTTP implements the http.Handler interface
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

func (r *Router) setupRoutes() {
	auth := handler.NewAuthHandler(r.svc.Auth, r.log)
	employees := handler.NewEmployeeHandler(r.svc.Employees, r.log)
	regions := handler.NewRegionHandler(r.svc.Regions, r.log)
	policy := handler.NewPasswordPolicyHandler(r.svc.PasswordPolicy, r.log)
	auditLog := handler.NewAuditHandler(r.svc.Audit, r.log)
	users := handler.NewUserHandler(r.svc.Users, r.log)

	m := r.mux
	m.Use(chimw.Recoverer)
	m.Use(chimw.RequestID)
	m.Use(middleware.RequestMeta(r.opts.Proxies))
	m.Use(middleware.Logger(r.log))
	m.Use(middleware.Metrics)
	m.Use(corsMiddleware(r.opts.CORSOrigins))

	m.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		api.Error(w, http.StatusNotFound, "not found")
	})
	m.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		api.Error(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	// Public routes
	m.Get("/healthz", r.handleHealth)
	m.Handle("/metrics", promhttp.Handler())

	m.Route("/api", func(ar chi.Router) {
		ar.Group(func(pub chi.Router) {
			if r.opts.LoginLimiter != nil {
				pub.Use(r.opts.LoginLimiter.Middleware)
			}
			pub.Post("/auth/login", auth.Login)
		})

		// Protected routes
		ar.Group(func(pr chi.Router) {
			pr.Use(middleware.Auth(r.svc.Auth, r.log))

			pr.Route("/auth", func(sr chi.Router) {
				sr.Post("/logout", auth.Logout)
				sr.Get("/me", auth.Me)
				sr.Put("/password", auth.ChangePassword)
			})

			pr.Route("/employees", func(sr chi.Router) {
				sr.With(middleware.RequireOperation(access.OperationExport)).Get("/export", employees.Export)
				sr.With(middleware.RequireOperation(access.OperationDelete)).Post("/bulk-delete", employees.BulkDelete)

				sr.Group(func(cr chi.Router) {
					cr.Use(middleware.RequireMethodOperation)
					cr.Get("/", employees.List)
					cr.Post("/", employees.Create)
					cr.Get("/{id}", employees.Get)
					cr.Put("/{id}", employees.Update)
					cr.Delete("/{id}", employees.Delete)
				})

				sr.With(middleware.RequireOperation(access.OperationUpdate)).Put("/{id}/status", employees.SetStatus)
			})

			pr.Route("/regions", func(sr chi.Router) {
				sr.Use(middleware.RequireMethodOperation)
				sr.Get("/", regions.List)
				sr.Post("/", regions.Create)
				sr.Get("/{id}", regions.Get)
				sr.Put("/{id}", regions.Update)
				sr.Delete("/{id}", regions.Delete)
			})

			pr.Route("/password-policy", func(sr chi.Router) {
				sr.With(middleware.RequireOperation(access.OperationRead)).Get("/", policy.Get)

				sr.Group(func(admin chi.Router) {
					admin.Use(middleware.RequireAdministration)
					admin.Post("/", policy.Create)
					admin.Put("/", policy.Update)
					admin.Delete("/", policy.Delete)
				})
			})
			pr.With(middleware.RequireOperation(access.OperationRead)).Get("/password/generate", policy.Generate)

			// Administration
			pr.Group(func(admin chi.Router) {
				admin.Use(middleware.RequireAdministration)

				admin.Get("/audit/actions", auditLog.ListActions)
				admin.Get("/audit/logins", auditLog.ListLogins)

				admin.Route("/users", func(sr chi.Router) {
					sr.Get("/", users.List)
					sr.Post("/", users.Create)
					sr.Get("/{id}", users.Get)
					sr.Put("/{id}", users.Update)
					sr.Delete("/{id}", users.Deactivate)
				})

				if r.opts.Hub != nil {
					upgrader := websockets.NewUpgrader(r.opts.CORSOrigins)
					admin.Method(http.MethodGet, "/ws/audit", handler.NewWebSocketHandler(r.opts.Hub, upgrader, r.log))
				}
			})
		})
	})
}

type healthResponse struct {
	Status string `json:"status"`
}

func (r *Router) handleHealth(w http.ResponseWriter, req *http.Request) {
	if r.opts.Health != nil {
		ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
		defer cancel()

		if err := r.opts.Health.HealthCheck(ctx); err != nil {
			r.log.WithError(err).Warn("Health check failed")
			api.JSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable"})
			return
		}
	}

	api.JSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

func corsMiddleware(origins []string) func(http.Handler) http.Handler {
	opts := cors.Options{
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		ExposedHeaders:   []string{"Content-Disposition", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}

	if len(origins) == 1 && origins[0] == "*" {
		opts.AllowOriginFunc = func(*http.Request, string) bool { return true }
	} else {
		opts.AllowedOrigins = origins
	}

	return cors.Handler(opts)
}
