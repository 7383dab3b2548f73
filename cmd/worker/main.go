// The worker drives synthetic traffic through the evaluation pipeline and
// drains the evaluation stream.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/safepay/fraud-engine/configs"
	"github.com/safepay/fraud-engine/internal/country"
	"github.com/safepay/fraud-engine/internal/decision"
	"github.com/safepay/fraud-engine/internal/generator"
	"github.com/safepay/fraud-engine/internal/pattern"
	"github.com/safepay/fraud-engine/internal/pipeline"
	"github.com/safepay/fraud-engine/internal/queue"
	"github.com/safepay/fraud-engine/internal/repositories"
	"github.com/safepay/fraud-engine/internal/validation"
	"github.com/safepay/fraud-engine/internal/vpn"
)

func main() {
	_ = godotenv.Load()

	cfg := configs.Load()
	setupLogging(cfg.Server.Environment)

	log.Info().
		Str("environment", cfg.Server.Environment).
		Int("concurrency", cfg.Worker.Concurrency).
		Dur("traffic_rate", cfg.Worker.TrafficRate).
		Msg("Starting SafePay traffic worker")

	blacklist, err := vpn.Load(cfg.Engine.VPNBlacklistPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load VPN blacklist")
	}

	db, err := repositories.NewDatabase(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	streamClient, err := queue.NewRedisStreamClient(cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis Stream")
	}
	defer streamClient.Close()

	cacheClient, err := queue.NewCacheClient(cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis Cache")
	}
	defer cacheClient.Close()

	cardRepo := repositories.NewCardRepository(db)
	deviceRepo := repositories.NewDeviceRepository(db)
	txRepo := repositories.NewTransactionRepository(db)
	alertRepo := repositories.NewAlertRepository(db)
	patternRepo := repositories.NewPatternRepository(db)

	resolver := country.NewCachedResolver(country.NewHTTPResolver(cfg.Resolver.BaseURL, cfg.Resolver.Timeout))
	patternSvc := pattern.NewService(txRepo, patternRepo, cacheClient)
	validator := validation.NewValidator(txRepo, cardRepo, deviceRepo, resolver, blacklist)
	decisionSvc := decision.NewService(patternSvc)
	gen := generator.New(cardRepo, deviceRepo, txRepo, blacklist)
	pipelineSvc := pipeline.NewService(db, cardRepo, deviceRepo, txRepo, alertRepo, patternRepo,
		gen, validator, decisionSvc, streamClient, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup

	// Traffic loop: one synthetic evaluation per tick
	wg.Add(1)
	go func() {
		defer wg.Done()
		runTraffic(ctx, pipelineSvc, cfg.Worker.TrafficRate)
	}()

	// Stream drain: acknowledge evaluation events
	for i := 0; i < cfg.Worker.Concurrency; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			drainStream(ctx, streamClient, fmt.Sprintf("worker-%d", id), cfg.Worker.PollInterval)
		}(i)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info().Msg("Shutting down worker...")
	cancel()
	wg.Wait()
	log.Info().Msg("Worker exited")
}

func runTraffic(ctx context.Context, svc *pipeline.Service, rate time.Duration) {
	ticker := time.NewTicker(rate)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			resp, err := svc.Process(ctx, pipeline.Request{})
			if err != nil {
				if errors.Is(err, generator.ErrNoCardsAvailable) {
					log.Warn().Msg("No cards available, waiting for seed")
					continue
				}
				log.Error().Err(err).Msg("Synthetic evaluation failed")
				continue
			}
			log.Info().
				Str("transaction_id", resp.Transaction.ID).
				Str("decision", resp.Transaction.Decision).
				Int("score", resp.Validation.Score).
				Msg("Synthetic transaction evaluated")
		}
	}
}

func drainStream(ctx context.Context, stream *queue.RedisStreamClient, consumer string, poll time.Duration) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		messages, err := stream.Consume(ctx, consumer, 10, poll)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Error().Err(err).Str("consumer", consumer).Msg("Failed to consume evaluation events")
			time.Sleep(time.Second)
			continue
		}

		for _, msg := range messages {
			log.Debug().
				Str("transaction_id", msg.Event.TransactionID).
				Str("decision", msg.Event.Decision).
				Int("score", msg.Event.Score).
				Msg("Evaluation event consumed")
			if err := stream.Ack(ctx, msg.ID); err != nil {
				log.Warn().Err(err).Str("message_id", msg.ID).Msg("Failed to ack message")
			}
		}
	}
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
