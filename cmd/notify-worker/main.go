package main

import (
	"context"
	"errors"
	"os"

	"golang.org/x/sync/errgroup"

	"roommates/internal/amqp"
	"roommates/internal/backend"
	"roommates/internal/cli"
	"roommates/internal/log"
	"roommates/internal/notify"
	"roommates/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentWorker)
	logger.Info("Starting notify-worker", log.FieldOperation, log.OpStartup)

	cfg := cli.LoadAndValidateConfig(logger)
	if !cfg.QueueEnabled() {
		logger.Error("AMQP_URL is required for notify-worker")
		os.Exit(1)
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid configuration", log.FieldError, err)
		os.Exit(1)
	}
	if !backendCfg.MailEnabled {
		logger.Warn("SMTP credentials missing, every notification will be reported as failed")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	mailer := backend.NewMailNotifier(backendCfg, notify.NewEmailLog(cfg.EmailLogPath))
	notifyWorker := worker.NewNotifyWorker(mailer)

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return amqpClient.ConsumeExpenseCreated(gctx, notifyWorker.HandleExpenseCreated)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete", log.FieldOperation, log.OpShutdown)
}
