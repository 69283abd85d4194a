package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"khetbook/internal/auth"
	"khetbook/internal/backend"
	"khetbook/internal/cli"
	"khetbook/internal/config"
	apphttp "khetbook/internal/http"
	"khetbook/internal/location"
	"khetbook/internal/log"
	"khetbook/internal/services"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("KHETBOOK_LOG_LEVEL"), nil)
	cfg := cli.LoadAndValidateConfig(logger, (*config.Config).Validate)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	be, err := backend.NewFactory(logger).Create(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, "backend", backendCfg.Type)
		os.Exit(1)
	}

	hierarchy := location.MustLoad("en")
	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Auth:               auth.NewService(be.Store, auth.LogSender{Logger: logger}, cfg.JWTSecret, cfg.OTPTTL, logger),
		Ledger:             services.NewLedgerService(be.Store, be.Store, be.Publisher, logger),
		Crops:              services.NewCropService(be.Store, logger),
		Profiles:           services.NewProfileService(be.Store, hierarchy, logger),
		Logger:             logger,
		CORSOrigins:        cfg.CORSOrigins,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		if err := be.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", log.FieldError, err)
		}
	})

	logger.Info("Starting khetbook server", "port", cfg.Port, "backend", backendCfg.Type, "events", be.Publisher != nil)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
