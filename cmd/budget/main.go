package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"budget/internal/backend"
	"budget/internal/cli"
	apphttp "budget/internal/http"
	"budget/internal/log"
	"budget/internal/services"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), os.Stdout)

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	deps, err := backend.NewFactory(logger).Create(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, "export_backend", cfg.ExportBackend)
		os.Exit(1)
	}
	defer func() {
		if err := deps.Cleanup(); err != nil {
			logger.Warn("Backend cleanup failed", log.FieldError, err)
		}
	}()

	ledger := services.NewLedgerService(deps.Publisher, deps.Exporter)

	if cfg.LedgerCSVPath != "" {
		if _, statErr := os.Stat(cfg.LedgerCSVPath); statErr == nil {
			n, err := ledger.LoadFile(ctx, cfg.LedgerCSVPath)
			if err != nil {
				logger.Error("Failed to load ledger file", log.FieldError, err, "path", cfg.LedgerCSVPath)
				os.Exit(1)
			}
			logger.Info("Loaded ledger", "path", cfg.LedgerCSVPath, "count", n)
		} else {
			logger.Info("No ledger file yet, starting empty", "path", cfg.LedgerCSVPath)
		}
	}

	var autosave *services.AutosaveProcessor
	if cfg.AutosaveInterval > 0 {
		autosave = services.NewAutosaveProcessor(ledger, services.AutosaveConfig{
			Path:     cfg.LedgerCSVPath,
			Interval: cfg.AutosaveInterval,
		})
		if err := autosave.Start(ctx); err != nil {
			logger.Error("Failed to start autosave", log.FieldError, err)
			os.Exit(1)
		}
	}

	srv := apphttp.NewServer(apphttp.Config{
		Addr:               ":" + cfg.Port,
		LedgerCSVPath:      cfg.LedgerCSVPath,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		TrustedProxies:     cfg.TrustedProxies,
		ChartCacheSize:     cfg.ChartCacheSize,
		ChartCacheTTL:      cfg.ChartCacheTTL,
		Logger:             logger,
		Ready:              deps.Ready,
	}, ledger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting budget server",
			"port", cfg.Port,
			"export_backend", cfg.ExportBackend,
			"events_enabled", deps.Publisher != nil,
			"autosave", cfg.AutosaveInterval)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		if autosave != nil {
			if err := autosave.Stop(shutdownCtx); err != nil {
				logger.Error("Final autosave failed", log.FieldError, err)
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
