package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/iqac-kare/feedback-dashboard/internal/backend"
	"github.com/iqac-kare/feedback-dashboard/internal/cache"
	"github.com/iqac-kare/feedback-dashboard/internal/config"
	"github.com/iqac-kare/feedback-dashboard/internal/events"
	"github.com/iqac-kare/feedback-dashboard/internal/handlers"
	"github.com/iqac-kare/feedback-dashboard/internal/handoff"
	"github.com/iqac-kare/feedback-dashboard/internal/repositories"
	"github.com/iqac-kare/feedback-dashboard/internal/repositories/postgres"
	"github.com/iqac-kare/feedback-dashboard/internal/services"
	"github.com/iqac-kare/feedback-dashboard/internal/utils"
	"github.com/iqac-kare/feedback-dashboard/internal/validator"
	"github.com/iqac-kare/feedback-dashboard/pkg"
	"github.com/iqac-kare/feedback-dashboard/web"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := utils.NewLogger(cfg.Environment)
	if err := run(cfg, logger); err != nil {
		logger.LogError(err, "Dashboard stopped with error")
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger utils.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slogger := logger.Slog()

	client, err := backend.NewClient(cfg.BackendURL, cfg.BackendTimeout, slogger.With("component", "backend"))
	if err != nil {
		return err
	}

	handoffStore, closeHandoff, err := newHandoffStore(ctx, cfg, slogger)
	if err != nil {
		return err
	}
	defer closeHandoff()

	activityRepo, err := newActivityRepository(cfg, logger)
	if err != nil {
		return err
	}

	publisher, err := cfg.Events.CreateEventPublisher(slogger)
	if err != nil {
		logger.LogError(err, "Failed to create event publisher, using mock publisher")
		publisher = events.NewMockEventPublisher(slogger)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.LogError(err, "Failed to close event publisher")
		}
	}()

	serviceManager := services.NewServiceManager(services.ServiceDeps{
		API:             client,
		Handoff:         handoffStore,
		ActivityRepo:    activityRepo,
		EventPublisher:  publisher,
		Validator:       validator.New(),
		Logger:          slogger,
		BulkConcurrency: cfg.BulkConcurrency,
	})

	tmpl, err := web.Templates()
	if err != nil {
		return err
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(handlers.SessionMiddleware(cfg.IsProduction()))
	router.Use(utils.ContextLogger(logger))
	router.Use(utils.LoggerMiddleware(logger))
	router.SetHTMLTemplate(tmpl)

	handlers.NewHandlerManager(serviceManager, logger).SetupRoutes(router)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("Dashboard listening",
			"port", cfg.Port,
			"backend", cfg.BackendURL,
			"handoff_store", cfg.HandoffStore)
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.LogError(err, "Could not stop server gracefully")
		return server.Close()
	}
	logger.Info("Dashboard stopped")
	return nil
}

// newHandoffStore builds the per-session handoff store on the configured cache
func newHandoffStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (handoff.Store, func(), error) {
	if cfg.HandoffStore != "redis" {
		return handoff.NewStore(cache.NewMemoryCache(), cfg.HandoffTTL), func() {}, nil
	}

	redisClient, err := pkg.NewRedisClient(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if err := redisClient.Close(); err != nil {
			logger.Error("Failed to close redis client", "error", err)
		}
	}
	return handoff.NewStore(cache.NewRedisCache(redisClient, logger.With("component", "handoff")), cfg.HandoffTTL), closeFn, nil
}

// newActivityRepository persists the activity log when a database is configured
func newActivityRepository(cfg *config.Config, logger utils.Logger) (repositories.ActivityRepository, error) {
	if cfg.DatabaseURL == "" {
		logger.Warn("DATABASE_URL not set, activity log is not persisted")
		return repositories.NewNoopActivityRepository(), nil
	}

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		return nil, err
	}
	return postgres.NewActivityPostgreSQL(db), nil
}
