package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"todoapi/internal/adapter/http/routes"
	"todoapi/internal/adapter/telemetry"
	"todoapi/pkg/config"
	"todoapi/pkg/logger"

	"go.uber.org/zap"
)

const shutdownTimeout = 15 * time.Second

// StartServer runs the API until ctx is cancelled, then drains in-flight
// requests and closes the store and cache connections.
func StartServer(ctx context.Context, cfg config.Config, log *logger.Logger) error {
	tel, err := telemetry.NewContainer(ctx, telemetry.Config{
		ServiceName:    cfg.App.Name,
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Env,
		MetricsPort:    cfg.Telemetry.MetricsPort,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
	}, log.Zap())

	if err != nil {
		return err
	}

	tel.Start(ctx)

	container, err := NewContainer(ctx, cfg, tel.AppMetrics, log)
	if err != nil {
		_ = tel.Shutdown(context.Background())
		return err
	}

	if err := container.TodoRepo.EnsureIndexes(ctx); err != nil {
		log.Error("Failed to ensure indexes", zap.Error(err))
	}

	router := routes.SetupRouter(routes.HandlersConfig{
		TodoHandler:   container.TodoHandler,
		HealthHandler: container.HealthHandler,
	}, tel.AppMetrics, log, cfg)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTP.Port,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	serveErr := make(chan error, 1)

	go func() {
		log.Info("Server starting",
			zap.String("port", cfg.HTTP.Port),
			zap.String("environment", cfg.App.Env),
			zap.String("store", cfg.App.Store),
			zap.String("cache", cfg.App.Cache),
			zap.Bool("rate_limit_enabled", cfg.RateLimit.Enabled),
		)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}

		close(serveErr)
	}()

	select {
	case err = <-serveErr:
		log.Error("Server failed to start", zap.Error(err))
	case <-ctx.Done():
		log.Info("Shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return errors.Join(
		err,
		srv.Shutdown(shutdownCtx),
		container.Close(shutdownCtx),
		tel.Shutdown(shutdownCtx),
	)
}
