package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"
	"zodiac/internal/amqp"
	"zodiac/internal/cli"
	apphttp "zodiac/internal/http"
	"zodiac/internal/log"
	"zodiac/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	table, err := cli.LoadSignTable(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to load sign table", log.FieldError, err, log.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}

	// Events are optional; the server runs without a broker.
	var publisher services.Publisher
	if cfg.PublishingEnabled() {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, sign events disabled", log.FieldError, err)
		} else {
			publisher = amqp.NewAsyncPublisher(amqpClient, amqp.DefaultPublishBuffer)
			logger.Info("Publishing sign events", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}
	lookup := services.NewLookupService(table, publisher, logger)
	defer lookup.Close()

	srv := apphttp.NewServer(":"+cfg.Port, lookup, apphttp.Options{
		Logger:             logger,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		TrustedProxies:     cfg.TrustedProxies,
	})
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting zodiac server", "port", cfg.Port, log.FieldBackend, cfg.DataBackend, log.FieldSignCount, table.Len())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
