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

	"github.com/vadim/tosembanda/internal/auth"
	"github.com/vadim/tosembanda/internal/config"
	httpcontroller "github.com/vadim/tosembanda/internal/controller/http"
	"github.com/vadim/tosembanda/internal/database"
	chatdao "github.com/vadim/tosembanda/internal/domain/chat/dao"
	chatpolicy "github.com/vadim/tosembanda/internal/domain/chat/policy"
	chatservice "github.com/vadim/tosembanda/internal/domain/chat/service"
	notifdao "github.com/vadim/tosembanda/internal/domain/notification/dao"
	notifpolicy "github.com/vadim/tosembanda/internal/domain/notification/policy"
	notifscheduler "github.com/vadim/tosembanda/internal/domain/notification/scheduler"
	notifservice "github.com/vadim/tosembanda/internal/domain/notification/service"
	"github.com/vadim/tosembanda/internal/realtime"
	"github.com/vadim/tosembanda/internal/storage"
)

// eventBus is the realtime platform plus a liveness check
type eventBus interface {
	realtime.Bus
	Ping() error
}

// App is the main application container
type App struct {
	cfg        config.Config
	httpServer *http.Server
	router     *chi.Mux
	logger     *slog.Logger

	// Infrastructure
	pool    *pgxpool.Pool
	bus     eventBus
	avatars *storage.S3Storage

	// Domain policies (interfaces for HTTP handlers)
	chatPolicy         *chatpolicy.Policy
	notificationPolicy *notifpolicy.Policy

	// Scheduler for notification retention
	scheduler *notifscheduler.Scheduler
}

// NewApp creates and initializes the application
func NewApp(ctx context.Context, cfg config.Config) (*App, error) {
	// Initialize logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(cfg.Log.LevelName()),
	}))

	// Initialize router with middleware
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	app := &App{
		cfg:    cfg,
		router: r,
		logger: logger,
	}

	// Initialize infrastructure
	if err := app.initInfrastructure(ctx); err != nil {
		app.closeInfrastructure()
		return nil, fmt.Errorf("initializing infrastructure: %w", err)
	}

	// Initialize domain layers
	app.initDomains()

	// Register routes
	app.registerRoutes()

	// Initialize HTTP server
	app.httpServer = &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      app.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return app, nil
}

// initInfrastructure connects to PostgreSQL, the realtime platform and object storage
func (a *App) initInfrastructure(ctx context.Context) error {
	pool, err := database.NewPostgresPool(ctx, a.cfg.Database.PostgresDSN, database.PoolConfig{
		MaxConns:     int32(a.cfg.Database.MaxOpenConns),
		MinConns:     int32(a.cfg.Database.MaxIdleConns),
		ConnLifetime: a.cfg.Database.ConnLifetime,
	})
	if err != nil {
		return fmt.Errorf("connecting to postgres: %w", err)
	}
	a.pool = pool

	if a.cfg.Database.Migrate {
		if err := database.Migrate(ctx, pool, a.logger); err != nil {
			return fmt.Errorf("migrating database: %w", err)
		}
	}

	if a.cfg.NATS.URL == "" {
		a.logger.Warn("NATS_URL not set, using in-process realtime bus")
		a.bus = realtime.NewMemoryBus()
	} else {
		bus, err := realtime.NewNATSBus(ctx, realtime.NATSConfig{
			URL:           a.cfg.NATS.URL,
			SubjectPrefix: a.cfg.NATS.SubjectPrefix,
			StreamName:    a.cfg.NATS.StreamName,
			StreamMaxAge:  a.cfg.NATS.StreamMaxAge,
			Name:          "tosembanda-api",
		}, a.logger)
		if err != nil {
			return fmt.Errorf("connecting to nats: %w", err)
		}
		a.bus = bus
	}

	if a.cfg.S3.Enabled {
		avatars, err := storage.NewS3Storage(storage.S3Config{
			Endpoint:        a.cfg.S3.Endpoint,
			AccessKeyID:     a.cfg.S3.AccessKeyID,
			SecretAccessKey: a.cfg.S3.SecretAccessKey,
			Bucket:          a.cfg.S3.Bucket,
			Region:          a.cfg.S3.Region,
			PublicURL:       a.cfg.S3.PublicURL,
			PresignTTL:      a.cfg.S3.PresignTTL,
		})
		if err != nil {
			return fmt.Errorf("creating s3 storage: %w", err)
		}
		a.avatars = avatars
	}

	return nil
}

// initDomains initializes domain layers (DAO, Service, Policy)
func (a *App) initDomains() {
	directory := chatdao.NewDirectoryPostgres(a.pool)

	chatOpts := []chatservice.Option{chatservice.WithMaxMessageLength(a.cfg.Chat.MaxMessageLength)}
	if a.avatars != nil {
		chatOpts = append(chatOpts, chatservice.WithAvatarResolver(a.avatars))
	}

	chatSvc := chatservice.New(
		chatdao.NewConversationPostgres(a.pool),
		chatdao.NewMessagePostgres(a.pool),
		chatdao.NewSummaryPostgres(a.pool),
		directory,
		a.bus,
		a.logger,
		chatOpts...,
	)
	a.chatPolicy = chatpolicy.New(chatSvc, a.cfg.Chat.RequestTimeout)

	notifSvc := notifservice.New(
		notifdao.NewNotificationPostgres(a.pool),
		directory,
		a.bus,
		a.cfg.Scheduler.Retention,
		a.logger,
	)
	a.notificationPolicy = notifpolicy.New(notifSvc, a.cfg.Chat.RequestTimeout)

	if a.cfg.Scheduler.Enabled {
		a.scheduler = notifscheduler.New(notifSvc, a.cfg.Scheduler.Interval, a.logger)
	}
}

// registerRoutes registers all HTTP routes
func (a *App) registerRoutes() {
	// Health check
	a.router.Get("/healthz", a.healthHandler)
	a.router.Get("/readyz", a.readyHandler)

	// API documentation
	httpcontroller.NewDocsHandler("Tô Sem Banda Chat API", OpenAPISpec).RegisterRoutes(a.router)

	authMiddleware := auth.Middleware(auth.NewVerifier(a.cfg.Auth.JWTSecret, a.cfg.Auth.JWTIssuer), a.logger)

	// API v1
	a.router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))
		r.Use(authMiddleware)

		httpcontroller.NewAccountHandler().RegisterRoutes(r)
		httpcontroller.NewChatHandler(a.chatPolicy, a.logger).RegisterRoutes(r)
		httpcontroller.NewNotificationHandler(a.notificationPolicy, a.logger).RegisterRoutes(r)
	})

	// WebSocket bridge lives outside the request timeout
	a.router.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		httpcontroller.NewRealtimeHandler(a.chatPolicy, a.bus, a.cfg.CORS.AllowedOrigins, a.logger).RegisterRoutes(r)
	})
}

// healthHandler handles health check requests
func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// readyHandler checks PostgreSQL and the realtime bus
func (a *App) readyHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	w.Header().Set("Content-Type", "application/json")

	if err := a.pool.Ping(ctx); err != nil {
		a.logger.Warn("readiness check failed", "component", "postgres", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"status":"unavailable","component":"postgres"}`))
		return
	}
	if err := a.bus.Ping(); err != nil {
		a.logger.Warn("readiness check failed", "component", "nats", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"status":"unavailable","component":"nats"}`))
		return
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

	if a.avatars != nil {
		if err := a.avatars.Ping(ctx); err != nil {
			a.logger.Warn("avatar bucket not reachable", "error", err)
		}
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

	a.closeInfrastructure()

	a.logger.Info("shutdown complete")
	return nil
}

func (a *App) closeInfrastructure() {
	if a.bus != nil {
		a.bus.Close()
	}
	if a.pool != nil {
		a.pool.Close()
	}
}

func parseLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
