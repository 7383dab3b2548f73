// Package lifecycle wipes and reseeds the engine's aggregates.
package lifecycle

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/safepay/fraud-engine/internal/repositories"
)

// Service clears all aggregates and reseeds a fresh population.
type Service struct {
	txRepo      *repositories.TransactionRepository
	alertRepo   *repositories.AlertRepository
	patternRepo *repositories.PatternRepository
	cardRepo    *repositories.CardRepository
	deviceRepo  *repositories.DeviceRepository
	seeder      *Seeder
}

// NewService creates the reset service.
func NewService(
	txRepo *repositories.TransactionRepository,
	alertRepo *repositories.AlertRepository,
	patternRepo *repositories.PatternRepository,
	cardRepo *repositories.CardRepository,
	deviceRepo *repositories.DeviceRepository,
	seeder *Seeder,
) *Service {
	return &Service{
		txRepo:      txRepo,
		alertRepo:   alertRepo,
		patternRepo: patternRepo,
		cardRepo:    cardRepo,
		deviceRepo:  deviceRepo,
		seeder:      seeder,
	}
}

// Reset wipes every aggregate and reseeds. The alert and pattern deletes run
// in parallel; the transaction, card and device deletes run one after
// another, not in parallel. Creates run sequentially because device linking
// needs both populations in place.
func (s *Service) Reset(ctx context.Context, cards, devicesPerCard int) error {
	if err := s.wipe(ctx); err != nil {
		return err
	}

	if err := s.seeder.Seed(ctx, cards, devicesPerCard); err != nil {
		return fmt.Errorf("failed to reseed: %w", err)
	}

	log.Info().Int("cards", cards).Int("devices_per_card", devicesPerCard).Msg("Reset completed")
	return nil
}

func (s *Service) wipe(ctx context.Context) error {
	// fraud_alerts and card_patterns have no dependency on each other, so
	// those two deletes run in parallel. transactions must wait for the
	// alert delete: fraud_alerts.transaction_id is a foreign key, and a
	// racing DELETE FROM transactions would trip it.
	deletes := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"fraud_alerts", s.alertRepo.DeleteAll},
		{"card_patterns", s.patternRepo.DeleteAll},
	}

	var wg sync.WaitGroup
	errCh := make(chan error, len(deletes))
	for _, d := range deletes {
		wg.Add(1)
		go func(name string, fn func(context.Context) error) {
			defer wg.Done()
			if err := fn(ctx); err != nil {
				errCh <- fmt.Errorf("failed to wipe %s: %w", name, err)
			}
		}(d.name, d.fn)
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		return err
	}

	if err := s.txRepo.DeleteAll(ctx); err != nil {
		return fmt.Errorf("failed to wipe transactions: %w", err)
	}

	// Cards and devices share the join table; wipe them after the children.
	if err := s.cardRepo.DeleteAll(ctx); err != nil {
		return fmt.Errorf("failed to wipe cards: %w", err)
	}
	if err := s.deviceRepo.DeleteAll(ctx); err != nil {
		return fmt.Errorf("failed to wipe devices: %w", err)
	}
	return nil
}
