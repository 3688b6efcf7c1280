package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"accountapi/internal/api"
	"accountapi/internal/auth"
	"accountapi/internal/book"
	"accountapi/internal/config"
	"accountapi/internal/db"
	"accountapi/internal/maintenance"
	"accountapi/internal/observability"
)

type Options struct {
	LoadDotEnv    bool
	RunMigrations bool
}

type Runtime struct {
	Config  config.Config
	Logger  *observability.Logger
	Handler http.Handler
	Close   func() error
}

func Build(options Options) (*Runtime, error) {
	cfg, err := config.Load(config.Options{LoadDotEnv: options.LoadDotEnv})
	if err != nil {
		return nil, err
	}

	logger := observability.NewLogger()

	if err := observability.InitSentry(cfg.SentryDSN, cfg.AppEnv, cfg.SessionHeader); err != nil {
		logger.Error("init_sentry_failed", map[string]any{"error": err.Error()})
	}

	database, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	database.SetMaxOpenConns(cfg.DBMaxOpenConns)
	database.SetMaxIdleConns(cfg.DBMaxIdleConns)
	database.SetConnMaxLifetime(cfg.DBConnMaxLifetime)
	database.SetConnMaxIdleTime(cfg.DBConnMaxIdleTime)

	if err := database.Ping(); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if options.RunMigrations || cfg.RunMigrationsOnStart {
		if err := db.RunMigrations(context.Background(), database); err != nil {
			_ = database.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	return &Runtime{
		Config:  cfg,
		Logger:  logger,
		Handler: NewHandler(cfg, database, logger),
		Close: func() error {
			observability.FlushSentry()
			return database.Close()
		},
	}, nil
}

// NewHandler wires the HTTP surface on top of an open database.
func NewHandler(cfg config.Config, database *sql.DB, logger *observability.Logger) http.Handler {
	authRepo := auth.NewRepository(database)
	authService := auth.NewService(authRepo, cfg)
	authHandler := auth.NewHandler(authService, logger)

	bookRepo := book.NewRepository(database)
	bookHandler := book.NewHandler(bookRepo, authHandler, logger)

	cleanupHandler := maintenance.NewCleanupHandler(authRepo, logger, cfg.CronSecret)

	root := &rootHandler{
		api:     api.NewHandler(cfg.APIPrefix, authHandler, bookHandler),
		health:  healthHandler(database),
		cleanup: http.HandlerFunc(cleanupHandler.Handle),
	}

	return observability.RecoverMiddleware(logger, observability.RequestLoggingMiddleware(logger, root))
}

// rootHandler routes on the raw request path. Anything that is not an
// operational endpoint goes to the API router, which owns the JSON 404, so
// paths are never cleaned or redirected.
type rootHandler struct {
	api     http.Handler
	health  http.Handler
	cleanup http.Handler
}

func (h *rootHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/health":
		if r.Method == http.MethodGet {
			h.health.ServeHTTP(w, r)
			return
		}
	case "/internal/maintenance/cleanup":
		h.cleanup.ServeHTTP(w, r)
		return
	}

	h.api.ServeHTTP(w, r)
}

func healthHandler(database *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		body := map[string]any{"status": "ok", "time": time.Now().UTC().Format(time.RFC3339)}
		if err := database.PingContext(ctx); err != nil {
			status = http.StatusServiceUnavailable
			body = map[string]any{"status": "degraded", "time": time.Now().UTC().Format(time.RFC3339)}
		}

		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}
}
