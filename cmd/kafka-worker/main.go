// The kafka-worker consumes persisted fraud-alert events and keeps the
// rolling analytics counters current.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/safepay/fraud-engine/configs"
	"github.com/safepay/fraud-engine/internal/analytics"
	"github.com/safepay/fraud-engine/internal/models"
	"github.com/safepay/fraud-engine/internal/queue"
	"github.com/safepay/fraud-engine/internal/repositories"
)

func main() {
	_ = godotenv.Load()

	cfg := configs.Load()
	setupLogging(cfg.Server.Environment)

	log.Info().
		Strs("brokers", cfg.Kafka.Brokers).
		Str("topic", cfg.Kafka.AlertTopic).
		Str("group", cfg.Kafka.ConsumerGroup).
		Msg("Starting SafePay alert worker")

	db, err := repositories.NewDatabase(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	cacheClient, err := queue.NewCacheClient(cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis Cache")
	}
	defer cacheClient.Close()

	alertRepo := repositories.NewAlertRepository(db)
	analyticsService := analytics.NewService(alertRepo, cacheClient)

	handler := func(ctx context.Context, event *models.AlertEvent) error {
		analyticsService.RecordConsumedAlert(ctx, event.Severity)
		log.Info().
			Str("alert_id", event.AlertID).
			Str("card_id", event.CardID).
			Str("severity", event.Severity).
			Int("fraud_score", event.FraudScore).
			Msg("Alert event consumed")
		return nil
	}

	consumer, err := queue.NewAlertConsumer(cfg.Kafka, handler)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Kafka consumer")
	}
	defer consumer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- consumer.Run(ctx)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("Consumer stopped with error")
		}
	}

	log.Info().Msg("Alert worker exited")
}

func setupLogging(env string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	if env == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
