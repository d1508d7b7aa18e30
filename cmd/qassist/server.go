package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/totalquality/qassist/internal/metrics"
	"github.com/totalquality/qassist/internal/relay"
	"github.com/totalquality/qassist/internal/server"
	"github.com/totalquality/qassist/internal/watcher"
	"github.com/totalquality/qassist/pkg/utils"
)

func runServer(args []string) error {
	fs := newFlagSet("server", os.Stderr)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
		zap.String("provider", cfg.Provider.BaseURL),
		zap.String("model", cfg.Provider.Model),
	)
	if os.Getenv(cfg.Provider.APIKeyEnv) == "" {
		logger.Warn("provider credential not set; /api/chat will return 500", zap.String("env", cfg.Provider.APIKeyEnv))
	}

	metrics.Init()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	comps, err := initializeComponents(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer comps.Close()

	if cfg.Knowledge.Watch {
		watchOpts := []watcher.WatcherOption{}
		if debugMode {
			watchOpts = append(watchOpts, watcher.WithLogger(logger))
		}
		watchSvc := watcher.ForKnowledge(comps.Knowledge, watchOpts...)
		switch err := watchSvc.Start(ctx); {
		case errors.Is(err, watcher.ErrNoFiles):
			logger.Info("knowledge watch enabled but only embedded knowledge is in use")
		case err != nil:
			return fmt.Errorf("failed to start watcher: %w", err)
		default:
			defer watchSvc.Stop()
			logger.Info("watching knowledge files", zap.Strings("files", watchSvc.Files()))
		}
	}

	relayOpts := []relay.Option{relay.WithLogger(logger)}
	if cfg.Server.RelayRatePerMinute > 0 {
		relayOpts = append(relayOpts, relay.WithRateLimit(cfg.Server.RelayRatePerMinute))
	}
	chatRelay := relay.NewHandler(relay.ConfigFrom(cfg.Provider), relayOpts...)

	srv := server.NewServer(comps.Engine, comps.Knowledge, comps.Prompts, chatRelay, &cfg.Server, logger)
	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Stop(shutdownCtx)
}
