package main

import (
	"context"
	"errors"
	"os"

	"golang.org/x/sync/errgroup"
	"zodiac/internal/amqp"
	"zodiac/internal/cli"
	"zodiac/internal/log"
	"zodiac/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	if !cfg.PublishingEnabled() {
		logger.Error("AMQP_URL is required for zodiac-worker")
		os.Exit(1)
	}

	logger.Info("Starting zodiac-worker", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	tally := worker.NewTallyWorker(logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return amqpClient.ConsumeSignResolved(gctx, tally.HandleSignResolved)
	})
	g.Go(func() error {
		return tally.Run(gctx, worker.DefaultReportInterval)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}
