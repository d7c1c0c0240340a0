package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/jobscout/jobscout/config"
)

// ServiceOrchestrationConfig contains dependencies for running services.
type ServiceOrchestrationConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	Logger   *slog.Logger
}

// RunServicesWithShutdown starts every enabled service and blocks until a
// termination signal arrives or a background service fails. Shutdown is
// graceful: the HTTP server drains in-flight requests and the background
// loops observe context cancellation.
func RunServicesWithShutdown(ctx context.Context, cfg *ServiceOrchestrationConfig) error {
	if cfg == nil {
		return errors.New("service orchestration config is required")
	}
	if cfg.Config == nil {
		return errors.New("service orchestration config missing AppConfig")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	enabled, err := cfg.Config.GetEnabledServices()
	if err != nil {
		return fmt.Errorf("determine enabled services: %w", err)
	}

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(runCtx)

	if enabled[config.ServiceModeHTTP] {
		server := StartHTTPServer(&HTTPServerConfig{
			Config:   cfg.Config,
			Services: cfg.Services,
			Logger:   logger,
		})
		g.Go(func() error {
			<-gCtx.Done()
			return ShutdownHTTPServer(ShutdownConfig{
				Context: context.WithoutCancel(gCtx),
				Server:  server,
				Timeout: cfg.Config.HTTP.ShutdownTimeout,
				Logger:  logger,
			})
		})
	}

	if enabled[config.ServiceModeEnricher] {
		g.Go(func() error {
			logger.InfoContext(gCtx, "starting enricher service")
			if err := cfg.Services.Enrich.Run(gCtx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("enricher: %w", err)
			}
			return nil
		})
	}

	if enabled[config.ServiceModeSweeper] {
		g.Go(func() error {
			if err := cfg.Services.Sweeper.Run(gCtx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("sweeper: %w", err)
			}
			return nil
		})
	}

	if enabled[config.ServiceModeScheduler] {
		g.Go(func() error {
			logger.InfoContext(gCtx, "starting scheduler service")
			if err := cfg.Services.Scheduler.Run(gCtx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("scheduler: %w", err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	logger.InfoContext(ctx, "all services stopped")
	return nil
}
