package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/safepay/fraud-engine/configs"
	"github.com/safepay/fraud-engine/internal/analytics"
	"github.com/safepay/fraud-engine/internal/api"
	"github.com/safepay/fraud-engine/internal/auth"
	"github.com/safepay/fraud-engine/internal/country"
	"github.com/safepay/fraud-engine/internal/decision"
	"github.com/safepay/fraud-engine/internal/generator"
	"github.com/safepay/fraud-engine/internal/lifecycle"
	"github.com/safepay/fraud-engine/internal/pattern"
	"github.com/safepay/fraud-engine/internal/pipeline"
	"github.com/safepay/fraud-engine/internal/queue"
	"github.com/safepay/fraud-engine/internal/repositories"
	"github.com/safepay/fraud-engine/internal/services"
	"github.com/safepay/fraud-engine/internal/validation"
	"github.com/safepay/fraud-engine/internal/vpn"
)

func main() {
	// Load .env file if exists
	_ = godotenv.Load()

	cfg := configs.Load()
	setupLogging(cfg.Server.Environment)

	log.Info().
		Str("environment", cfg.Server.Environment).
		Str("port", cfg.Server.Port).
		Msg("Starting SafePay fraud engine API server")

	// The VPN list is a startup resource: missing or unparsable is fatal
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

	alertProducer, err := queue.NewAlertProducer(cfg.Kafka)
	if err != nil {
		log.Warn().Err(err).Msg("Kafka unavailable, alert events disabled")
		alertProducer = nil
	} else {
		defer alertProducer.Close()
	}

	// Repositories
	userRepo := repositories.NewUserRepository(db)
	cardRepo := repositories.NewCardRepository(db)
	deviceRepo := repositories.NewDeviceRepository(db)
	txRepo := repositories.NewTransactionRepository(db)
	alertRepo := repositories.NewAlertRepository(db)
	patternRepo := repositories.NewPatternRepository(db)

	// Core services
	resolver := country.NewCachedResolver(country.NewHTTPResolver(cfg.Resolver.BaseURL, cfg.Resolver.Timeout))
	patternSvc := pattern.NewService(txRepo, patternRepo, cacheClient)
	validator := validation.NewValidator(txRepo, cardRepo, deviceRepo, resolver, blacklist)
	decisionSvc := decision.NewService(patternSvc)
	gen := generator.New(cardRepo, deviceRepo, txRepo, blacklist)
	pipelineSvc := pipeline.NewService(db, cardRepo, deviceRepo, txRepo, alertRepo, patternRepo,
		gen, validator, decisionSvc, streamClient, alertProducer)

	jwtManager := auth.NewJWTManager(cfg.JWT.Secret, cfg.JWT.Expiration)
	authService := services.NewAuthService(userRepo, jwtManager)
	cardService := services.NewCardService(cardRepo, cfg.Engine.MaxCards)
	deviceService := services.NewDeviceService(deviceRepo, cardRepo, cfg.Engine.MaxDevicesPerCard)
	analyticsService := analytics.NewService(alertRepo, cacheClient)
	seeder := lifecycle.NewSeeder(cardRepo, deviceRepo)
	lifecycleService := lifecycle.NewService(txRepo, alertRepo, patternRepo, cardRepo, deviceRepo, seeder)

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestIDMiddleware())
	router.Use(loggingMiddleware())
	router.Use(corsMiddleware())

	rateLimiter := NewRateLimiter(100, time.Minute)
	router.Use(rateLimitMiddleware(rateLimiter))

	api.SetupRoutes(router, api.Deps{
		JWT:       jwtManager,
		Auth:      authService,
		Pipeline:  pipelineSvc,
		Cards:     cardService,
		Devices:   deviceService,
		Alerts:    alertRepo,
		Analytics: analyticsService,
		Lifecycle: lifecycleService,
		DB:        db,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
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
