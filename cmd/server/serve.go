package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/ksk-project/employee-service/internal/audit"
	"github.com/ksk-project/employee-service/internal/config"
	"github.com/ksk-project/employee-service/internal/credentials"
	"github.com/ksk-project/employee-service/internal/db"
	"github.com/ksk-project/employee-service/internal/db/repository"
	"github.com/ksk-project/employee-service/internal/middleware"
	"github.com/ksk-project/employee-service/internal/router"
	"github.com/ksk-project/employee-service/internal/service"
	"github.com/ksk-project/employee-service/internal/websockets"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var skipMigrations bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "do not apply pending migrations on startup")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	proxies, err := audit.ParseProxies(cfg.Server.TrustedProxies)
	if err != nil {
		return fmt.Errorf("server.trusted_proxies: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := db.NewPostgres(ctx, log, cfg.Database)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer database.Close()

	if !skipMigrations {
		if err := db.Migrate(log, cfg.Database); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
	}

	repos := repository.NewRepositories(database)
	hub := websockets.NewHub(log)
	recorder := audit.NewRecorder(log, repos.ActionLog, repos.LoginHistory, hub)
	limiter := middleware.NewRateLimiter(cfg.Server.LoginRate, cfg.Server.LoginBurst)

	handler := router.New(log, newServices(cfg, repos, recorder), router.Options{
		CORSOrigins:  cfg.Server.CORSOrigins,
		Proxies:      proxies,
		LoginLimiter: limiter,
		Health:       database,
		Hub:          hub,
	})

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})

	g.Go(func() error {
		limiter.Run(gctx)
		return nil
	})

	g.Go(func() error {
		log.WithField("address", cfg.Server.Address).Info("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	err = g.Wait()

	// in-flight requests are done; let their audit writes land
	recorder.Close()

	if err != nil {
		return err
	}

	log.Info("Server exited properly")
	return nil
}

func newServices(cfg *config.Config, repos *repository.Repositories, recorder *audit.Recorder) router.Services {
	passwords := credentials.NewGenerator(nil)

	auth := service.NewAuthService(log, repos.User, recorder, service.JWTConfig{
		Secret: cfg.JWT.Secret,
		TTL:    cfg.JWT.TokenTTL(),
	})

	return router.Services{
		Auth:           auth,
		Users:          service.NewUserService(log, repos.User, auth, recorder),
		Employees:      service.NewEmployeeService(log, repos.Employee, repos.Region, repos.PasswordPolicy, passwords, recorder),
		Regions:        service.NewRegionService(repos.Region, recorder),
		PasswordPolicy: service.NewPasswordPolicyService(repos.PasswordPolicy, passwords, recorder),
		Audit:          service.NewAuditService(repos.ActionLog, repos.LoginHistory),
	}
}
