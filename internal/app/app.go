package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vadim/neo-studio/internal/config"
	httpcontroller "github.com/vadim/neo-studio/internal/controller/http"
	"github.com/vadim/neo-studio/internal/database"
	notificationdao "github.com/vadim/neo-studio/internal/domain/notification/dao"
	notificationservice "github.com/vadim/neo-studio/internal/domain/notification/service"
	plateformepolicy "github.com/vadim/neo-studio/internal/domain/plateforme/policy"
	plateformeservice "github.com/vadim/neo-studio/internal/domain/plateforme/service"
	"github.com/vadim/neo-studio/internal/domain/publication/policy"
	"github.com/vadim/neo-studio/internal/domain/publication/scheduler"
	"github.com/vadim/neo-studio/internal/domain/publication/selector"
	"github.com/vadim/neo-studio/internal/domain/publication/service"
	"github.com/vadim/neo-studio/internal/domain/resource"
	"github.com/vadim/neo-studio/internal/httpx/upstream/backend"
	"github.com/vadim/neo-studio/internal/metrics"
	"github.com/vadim/neo-studio/internal/querycache"
)

// App is the main application container
type App struct {
	cfg        config.Config
	httpServer *http.Server
	router     *chi.Mux
	logger     *slog.Logger

	// Infrastructure
	pg             *pgxpool.Pool
	backend        *backend.Client
	metrics        *metrics.Metrics
	metricsHandler http.Handler

	// Domain policies (interfaces for HTTP handlers)
	publicationPolicy *policy.Policy
	plateformePolicy  *plateformepolicy.Policy
	resources         *resource.Set
	notifications     *notificationservice.Service

	// Background refetch of the publication list
	scheduler *scheduler.Scheduler
}

// NewApp creates and initializes the application
func NewApp(ctx context.Context, cfg config.Config) (*App, error) {
	// Initialize logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.Log.SlogLevel(),
	}))
	slog.SetDefault(logger)

	// every caller acts as the one backend account: never expose that
	// unauthenticated beyond this machine
	if cfg.Server.APIToken == "" && !cfg.Server.Loopback() {
		return nil, fmt.Errorf("SERVER_API_TOKEN is required to listen on %q", cfg.Server.Host)
	}

	app := &App{
		cfg:    cfg,
		router: chi.NewRouter(),
		logger: logger,
	}

	// Initialize infrastructure
	if err := app.initInfrastructure(ctx); err != nil {
		return nil, fmt.Errorf("initializing infrastructure: %w", err)
	}

	// Initialize domain layers
	if err := app.initDomains(ctx); err != nil {
		return nil, fmt.Errorf("initializing domains: %w", err)
	}

	// Register routes
	if err := app.registerRoutes(); err != nil {
		return nil, fmt.Errorf("registering routes: %w", err)
	}

	// Initialize HTTP server
	app.httpServer = &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      app.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Initialize scheduler
	if cfg.Refresher.Enabled {
		app.scheduler = scheduler.New(app.publicationPolicy, cfg.Refresher.Interval, logger)
	}

	return app, nil
}

// initInfrastructure initializes infrastructure components (metrics, DB,
// backend client)
func (a *App) initInfrastructure(ctx context.Context) error {
	m, handler, err := metrics.Setup("neo-studio")
	if err != nil {
		return fmt.Errorf("setting up metrics: %w", err)
	}
	a.metrics = m
	a.metricsHandler = handler

	if a.cfg.Database.PostgresDSN != "" {
		pool, err := database.NewPostgresPool(ctx, a.cfg.Database.PostgresDSN, database.PoolConfig{
			MaxConns: a.cfg.Database.MaxConns,
			MinConns: a.cfg.Database.MinConns,
		})
		if err != nil {
			return fmt.Errorf("connecting to postgres: %w", err)
		}
		a.pg = pool
	}

	session := backend.NewSession(a.cfg.Backend.AccessToken, a.cfg.Backend.RefreshToken)
	a.backend = backend.New(
		backend.WithBaseURL(a.cfg.Backend.BaseURL),
		backend.WithTimeout(a.cfg.Backend.Timeout),
		backend.WithSession(session),
		backend.WithLogger(a.logger),
		backend.WithMetrics(a.metrics),
	)

	// Service account login when no token was provided
	if session.AccessToken() == "" && a.cfg.Backend.Email != "" {
		if _, err := a.backend.Login(ctx, a.cfg.Backend.Email, a.cfg.Backend.Password); err != nil {
			a.logger.Warn("initial backend login failed", "error", err)
		} else {
			a.logger.Info("logged in to backend", "email", a.cfg.Backend.Email)
		}
	}

	return nil
}

// initDomains initializes domain layers (DAO, Service, Policy)
func (a *App) initDomains(ctx context.Context) error {
	var notificationRepo notificationservice.Repository
	if a.pg != nil {
		notificationRepo = notificationdao.NewNotificationPostgres(a.pg)
	} else {
		notificationRepo = notificationdao.NewMemory(a.cfg.Notifications.BufferSize)
	}
	a.notifications = notificationservice.New(notificationRepo, a.logger)

	a.publicationPolicy = policy.New(service.New(a.backend), a.notifications, policy.Options{
		StaleTime: a.cfg.Cache.StaleTime,
		View: selector.Options{
			UpcomingWindow: a.cfg.Dashboard.UpcomingWindow,
			UpcomingLimit:  a.cfg.Dashboard.UpcomingLimit,
		},
		Logger:   a.logger,
		Observer: a.metrics,
	})

	a.plateformePolicy = plateformepolicy.New(
		plateformeservice.New(a.backend),
		a.notifications,
		a.cfg.Cache.StaleTime,
		a.logger,
		querycache.WithObserver(a.metrics),
	)

	a.resources = resource.NewSet(a.backend, resource.Options{
		StaleTime: a.cfg.Cache.StaleTime,
		Notifier:  a.notifications,
		Logger:    a.logger,
		Observer:  a.metrics,
	})

	return nil
}

// registerRoutes registers all HTTP routes
func (a *App) registerRoutes() error {
	r := a.router
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(a.metrics.Middleware)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   a.cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "If-Unmodified-Since", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/healthz", a.healthHandler)
	r.Get("/readyz", a.readyHandler)
	r.Handle("/metrics", a.metricsHandler)

	// Swagger UI documentation
	swaggerHandler, err := httpcontroller.NewSwaggerHandler("Neo Studio API", OpenAPISpec)
	if err != nil {
		return err
	}
	swaggerHandler.RegisterRoutes(r)

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		if a.cfg.Server.APIToken != "" {
			r.Use(httpcontroller.RequireToken(a.cfg.Server.APIToken))
		} else {
			a.logger.Warn("API token not set, /api/v1 is open to local callers", "host", a.cfg.Server.Host)
		}

		httpcontroller.NewAuthHandler(a.backend).RegisterRoutes(r)
		httpcontroller.NewPublicationHandler(a.publicationPolicy).RegisterRoutes(r)
		httpcontroller.NewPlateformeHandler(a.plateformePolicy, a.cfg.Dashboard.Platforms).RegisterRoutes(r)
		httpcontroller.NewNotificationHandler(a.notifications).RegisterRoutes(r)
		httpcontroller.NewDashboardHandler(httpcontroller.DashboardSources{
			Publications:  a.publicationPolicy,
			Plateformes:   a.plateformePolicy,
			Notifications: a.notifications,
			Platforms:     a.cfg.Dashboard.Platforms,
		}).RegisterRoutes(r)
		httpcontroller.RegisterResources(r, a.resources)
	})

	return nil
}

// healthHandler handles health check requests
func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// readyHandler handles readiness check requests
func (a *App) readyHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if a.pg != nil {
		if err := a.pg.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"database unavailable"}`))
			return
		}
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}

// Run starts the application and blocks until shutdown signal
func (a *App) Run(ctx context.Context) error {
	// Start scheduler if enabled
	if a.scheduler != nil {
		a.scheduler.Start(ctx)
	}

	// Channel to receive errors from server
	errCh := make(chan error, 1)

	// Start HTTP server in goroutine
	go func() {
		a.logger.Info("starting HTTP server", "addr", a.cfg.Server.Address())
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		a.logger.Info("received shutdown signal", "signal", sig.String())
	case <-ctx.Done():
		a.logger.Info("context cancelled")
	}

	// Graceful shutdown
	return a.Shutdown(context.Background())
}

// Shutdown gracefully shuts down the application
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down...")

	// Stop scheduler
	if a.scheduler != nil {
		a.scheduler.Stop()
	}

	// Shutdown HTTP server with timeout
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down HTTP server: %w", err)
	}

	if a.pg != nil {
		a.pg.Close()
	}

	a.logger.Info("shutdown complete")
	return nil
}
