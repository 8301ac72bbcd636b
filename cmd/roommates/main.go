package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"roommates/internal/backend"
	"roommates/internal/cache"
	"roommates/internal/cli"
	"roommates/internal/config"
	"roommates/internal/core"
	apphttp "roommates/internal/http"
	"roommates/internal/log"
	"roommates/internal/metrics"
	"roommates/internal/randomuser"
	"roommates/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Server exited with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

func run(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		return fmt.Errorf("create backend: %w", err)
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", log.FieldError, err)
		}
	}()

	c, err := cache.Load(ctx, res.Store)
	if err != nil {
		return err
	}
	metrics.SetState(len(c.Roommates()), core.Total(c.Expenses()))

	identities := randomuser.New(cfg.RandomUserURL, cfg.RandomUserTimeout)
	ready := map[string]apphttp.Pinger{"store": c}
	if res.Queue != nil {
		ready["queue"] = res.Queue
	}

	srv := apphttp.NewServer(apphttp.Config{
		Addr:               ":" + cfg.Port,
		StaticDir:          cfg.StaticDir,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Logger:             logger.WithComponent(log.ComponentHTTP),
		ReadyChecks:        ready,
	},
		services.NewExpenseService(c, res.Notifier),
		services.NewRoommateService(c, identities),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting roommates server",
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			"mail_enabled", cfg.MailEnabled(),
			"queue_enabled", cfg.QueueEnabled())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen on :%s: %w", cfg.Port, err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	})
	return g.Wait()
}
