// Package pipeline orchestrates one full evaluation: generate (or accept) a
// transaction, validate it, decide, and persist everything atomically.
package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	"github.com/safepay/fraud-engine/internal/decision"
	"github.com/safepay/fraud-engine/internal/generator"
	"github.com/safepay/fraud-engine/internal/models"
	"github.com/safepay/fraud-engine/internal/queue"
	"github.com/safepay/fraud-engine/internal/repositories"
	"github.com/safepay/fraud-engine/internal/validation"
)

// ErrManualPayloadMissing reports a manual evaluation without its payload.
var ErrManualPayloadMissing = errors.New("manual payload is required")

// Request selects the evaluation mode.
type Request struct {
	IsManual     bool
	SuccessForce bool
	Manual       *generator.ManualPayload
}

// Response is the outward view of one evaluation.
type Response struct {
	Transaction TransactionView   `json:"transaction"`
	Card        CardSnapshot      `json:"card"`
	Device      DeviceSnapshot    `json:"device"`
	Validation  ValidationSummary `json:"validation"`
	Severity    string            `json:"severity"`
	IPAddress   string            `json:"ip_address"`
}

// TransactionView is the persisted transaction as exposed to callers.
type TransactionView struct {
	ID               string    `json:"id"`
	Amount           string    `json:"amount"`
	MerchantCategory string    `json:"merchant_category"`
	Latitude         string    `json:"latitude"`
	Longitude        string    `json:"longitude"`
	TransactionAt    time.Time `json:"transaction_at"`
	Decision         string    `json:"decision"`
	Fraud            bool      `json:"fraud"`
}

// CardSnapshot exposes the card with its PAN masked (last 4 digits only).
type CardSnapshot struct {
	ID             string `json:"id"`
	Brand          string `json:"brand"`
	MaskedNumber   string `json:"masked_number"`
	HolderName     string `json:"holder_name"`
	Status         string `json:"status"`
	RemainingLimit string `json:"remaining_limit"`
}

// DeviceSnapshot exposes the device used by the transaction.
type DeviceSnapshot struct {
	ID          string `json:"id"`
	Fingerprint string `json:"fingerprint"`
	DeviceType  string `json:"device_type"`
	OS          string `json:"os"`
	Browser     string `json:"browser"`
}

// ValidationSummary reports the consolidated rule outcome. Alerts are a set;
// their order carries no meaning.
type ValidationSummary struct {
	Score  int      `json:"score"`
	Alerts []string `json:"alerts"`
}

// Service is the top-level evaluation orchestrator.
type Service struct {
	db         *repositories.Database
	cardRepo   *repositories.CardRepository
	deviceRepo *repositories.DeviceRepository
	txRepo     *repositories.TransactionRepository
	alertRepo  *repositories.AlertRepository
	patterns   *repositories.PatternRepository

	generator *generator.Generator
	validator *validation.Validator
	decisions *decision.Service

	stream   *queue.RedisStreamClient
	producer *queue.AlertProducer
}

// NewService wires the pipeline. stream and producer may be nil.
func NewService(
	db *repositories.Database,
	cardRepo *repositories.CardRepository,
	deviceRepo *repositories.DeviceRepository,
	txRepo *repositories.TransactionRepository,
	alertRepo *repositories.AlertRepository,
	patternRepo *repositories.PatternRepository,
	gen *generator.Generator,
	validator *validation.Validator,
	decisions *decision.Service,
	stream *queue.RedisStreamClient,
	producer *queue.AlertProducer,
) *Service {
	return &Service{
		db:         db,
		cardRepo:   cardRepo,
		deviceRepo: deviceRepo,
		txRepo:     txRepo,
		alertRepo:  alertRepo,
		patterns:   patternRepo,
		generator:  gen,
		validator:  validator,
		decisions:  decisions,
		stream:     stream,
		producer:   producer,
	}
}

// Process runs one evaluation end to end. All writes happen inside a single
// database transaction: either the transaction row, the pattern refresh and
// the alert all commit, or none do.
func (s *Service) Process(ctx context.Context, req Request) (*Response, error) {
	tx, err := s.buildTransaction(ctx, req)
	if err != nil {
		return nil, err
	}

	var outcome *decision.Outcome
	err = s.db.WithTransaction(ctx, func(dbTx pgx.Tx) error {
		stores := decision.Stores{
			Cards:        s.cardRepo.WithTx(dbTx),
			Transactions: s.txRepo.WithTx(dbTx),
			Alerts:       s.alertRepo.WithTx(dbTx),
			Patterns:     s.patterns.WithTx(dbTx),
		}

		if err := stores.Transactions.Create(ctx, tx); err != nil {
			return err
		}

		loader := validation.NewContextLoader(stores.Transactions, stores.Cards, s.deviceRepo.WithTx(dbTx))
		snap, err := loader.Load(ctx, tx)
		if err != nil {
			return err
		}

		result := s.validator.ValidateWithSnapshot(ctx, tx, snap)

		outcome, err = s.decisions.Apply(ctx, stores, tx, req.SuccessForce, result)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, tx, outcome)
	return s.buildResponse(ctx, tx, outcome)
}

func (s *Service) buildTransaction(ctx context.Context, req Request) (*models.Transaction, error) {
	if req.IsManual {
		if req.Manual == nil {
			return nil, ErrManualPayloadMissing
		}
		return s.generator.Manual(ctx, *req.Manual, req.SuccessForce)
	}
	return s.generator.Normal(ctx, req.SuccessForce)
}

// publishEvents emits the post-commit notifications. Failures are logged,
// never surfaced: the evaluation is already durable.
func (s *Service) publishEvents(ctx context.Context, tx *models.Transaction, outcome *decision.Outcome) {
	if s.stream != nil {
		event := &models.EvaluationEvent{
			TransactionID: tx.ID.String(),
			CardID:        tx.CardID.String(),
			Score:         outcome.Score,
			Decision:      outcome.Decision,
			AlertCount:    len(outcome.Alerts),
			Timestamp:     time.Now(),
		}
		if _, err := s.stream.Publish(ctx, event); err != nil {
			log.Warn().Err(err).Msg("Failed to publish evaluation event")
		}
	}

	if s.producer != nil && outcome.Alert != nil {
		tags := make([]string, len(outcome.Alert.AlertTypes))
		for i, t := range outcome.Alert.AlertTypes {
			tags[i] = string(t)
		}
		event := &models.AlertEvent{
			AlertID:       outcome.Alert.ID.String(),
			TransactionID: tx.ID.String(),
			CardID:        tx.CardID.String(),
			AlertTypes:    tags,
			FraudScore:    outcome.Alert.FraudScore,
			Severity:      outcome.Alert.Severity,
			Decision:      outcome.Decision,
			Timestamp:     time.Now(),
		}
		if err := s.producer.Publish(ctx, event); err != nil {
			log.Warn().Err(err).Msg("Failed to publish alert event")
		}
	}
}

func (s *Service) buildResponse(ctx context.Context, tx *models.Transaction, outcome *decision.Outcome) (*Response, error) {
	card, err := s.cardRepo.GetByID(ctx, tx.CardID)
	if err != nil {
		return nil, err
	}
	device, err := s.deviceRepo.GetByID(ctx, tx.DeviceID)
	if err != nil {
		return nil, err
	}

	tags := make([]string, len(outcome.Alerts))
	for i, t := range outcome.Alerts {
		tags[i] = string(t)
	}

	return &Response{
		Transaction: TransactionView{
			ID:               tx.ID.String(),
			Amount:           tx.Amount.StringFixed(2),
			MerchantCategory: tx.MerchantCategory,
			Latitude:         tx.Latitude,
			Longitude:        tx.Longitude,
			TransactionAt:    tx.TransactionAt,
			Decision:         outcome.Decision,
			Fraud:            outcome.Fraud,
		},
		Card: CardSnapshot{
			ID:             card.ID.String(),
			Brand:          card.Brand,
			MaskedNumber:   MaskPAN(card.Number),
			HolderName:     card.HolderName,
			Status:         card.Status,
			RemainingLimit: card.RemainingLimit.StringFixed(2),
		},
		Device: DeviceSnapshot{
			ID:          device.ID.String(),
			Fingerprint: device.Fingerprint,
			DeviceType:  device.DeviceType,
			OS:          device.OS,
			Browser:     device.Browser,
		},
		Validation: ValidationSummary{
			Score:  outcome.Score,
			Alerts: tags,
		},
		Severity:  outcome.Severity,
		IPAddress: tx.IPAddress,
	}, nil
}
