package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/safepay/fraud-engine/internal/models"
	"github.com/safepay/fraud-engine/internal/repositories"
)

var (
	ErrCardQuantityMax  = errors.New("maximum number of cards reached")
	ErrInvalidStatus    = errors.New("invalid card status")
	ErrInvalidBatchSize = errors.New("batch size must be between 1 and the card cap")
)

// CardService manages the card population. The creation cap is enforced
// under a single writer lock so concurrent batches cannot overshoot it.
type CardService struct {
	cardRepo *repositories.CardRepository
	maxCards int

	mu sync.Mutex
}

// NewCardService creates a card service
func NewCardService(cardRepo *repositories.CardRepository, maxCards int) *CardService {
	return &CardService{cardRepo: cardRepo, maxCards: maxCards}
}

// CreateCardRequest carries the attributes of one new card
type CreateCardRequest struct {
	Brand          string          `json:"brand" binding:"required"`
	Number         string          `json:"number" binding:"required,min=12"`
	HolderName     string          `json:"holder_name" binding:"required"`
	ExpirationDate time.Time       `json:"expiration_date" binding:"required"`
	CreditLimit    decimal.Decimal `json:"credit_limit" binding:"required"`
}

// CreateBatch creates up to the cap's worth of cards in one call
func (s *CardService) CreateBatch(ctx context.Context, reqs []CreateCardRequest) ([]*models.Card, error) {
	if len(reqs) == 0 || len(reqs) > s.maxCards {
		return nil, ErrInvalidBatchSize
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	count, err := s.cardRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	if count+len(reqs) > s.maxCards {
		return nil, ErrCardQuantityMax
	}

	cards := make([]*models.Card, 0, len(reqs))
	for _, req := range reqs {
		card := &models.Card{
			Brand:          req.Brand,
			Number:         req.Number,
			MaskedNumber:   maskNumber(req.Number),
			HolderName:     req.HolderName,
			ExpirationDate: req.ExpirationDate,
			CreditLimit:    req.CreditLimit.Round(2),
			RemainingLimit: req.CreditLimit.Round(2),
			Status:         models.CardStatusActive,
		}
		if err := s.cardRepo.Create(ctx, card); err != nil {
			return nil, fmt.Errorf("failed to create card: %w", err)
		}
		cards = append(cards, card)
	}
	return cards, nil
}

// Get retrieves a card
func (s *CardService) Get(ctx context.Context, id uuid.UUID) (*models.Card, error) {
	return s.cardRepo.GetByID(ctx, id)
}

// List returns cards with pagination
func (s *CardService) List(ctx context.Context, limit, offset int) ([]*models.Card, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.cardRepo.List(ctx, limit, offset)
}

// ChangeStatus moves a card between ACTIVE, BLOCKED and LOST
func (s *CardService) ChangeStatus(ctx context.Context, id uuid.UUID, status string) (*models.Card, error) {
	switch status {
	case models.CardStatusActive, models.CardStatusBlocked, models.CardStatusLost:
	default:
		return nil, ErrInvalidStatus
	}

	card, err := s.cardRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	card.Status = status
	if err := s.cardRepo.Update(ctx, card); err != nil {
		return nil, err
	}
	return card, nil
}

// Delete removes a card
func (s *CardService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.cardRepo.Delete(ctx, id)
}

func maskNumber(raw string) string {
	if len(raw) < 4 {
		return "****"
	}
	return "**** **** **** " + raw[len(raw)-4:]
}
