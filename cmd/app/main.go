package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"lodge/config"
	"lodge/di"
	"lodge/helper"
	"lodge/shared/logger"

	"github.com/rs/zerolog/log"
)

const shutdownTimeout = 10 * time.Second

// @title lodge API
// @version 1.0
// @description Hotel and venue booking administration.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg := config.Get()

	logger.InitLogger()

	logger.SetLogLevel(cfg)

	if cfg.DB.Postgres.AutoMigrate {
		if err := helper.Up(cfg); err != nil {
			log.Fatal().Err(err).Msg("Failed to run database migrations")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := di.InitializeApp()

	workers := sync.WaitGroup{}

	if cfg.Monitor.Enable {
		workers.Add(1)

		go func() {
			defer workers.Done()

			app.Monitor.Start(ctx)
		}()
	}

	if len(cfg.Kafka.Brokers) > 0 {
		workers.Add(1)

		go func() {
			defer workers.Done()

			app.Notification.Consume(ctx)
		}()
	}

	if err := app.HTTP.Serve(ctx); err != nil {
		log.Error().Err(err).Msg("HTTP server exited with error")
	}

	stop()
	workers.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := app.Otel.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Failed to flush traces")
	}

	if err := app.DB.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close database connections")
	}

	log.Info().Msg("Shut down cleanly.")
}
