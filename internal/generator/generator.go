// Package generator synthesizes realistic candidate transactions from the
// active card pool, using each card's recent history as a behavioral prior.
package generator

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/safepay/fraud-engine/internal/geo"
	"github.com/safepay/fraud-engine/internal/models"
	"github.com/safepay/fraud-engine/internal/repositories"
	"github.com/safepay/fraud-engine/internal/vpn"
)

var (
	ErrNoCardsAvailable  = errors.New("no active cards with devices available")
	ErrCardBlockedOrLost = errors.New("card is blocked or lost")
	ErrDeviceNotLinked   = errors.New("device is not linked to the card")
)

const historyWindow = 20

// ManualPayload carries the caller-supplied fields of a manual transaction.
type ManualPayload struct {
	CardID           uuid.UUID       `json:"card_id" binding:"required"`
	DeviceID         uuid.UUID       `json:"device_id" binding:"required"`
	Amount           decimal.Decimal `json:"amount" binding:"required"`
	MerchantCategory string          `json:"merchant_category" binding:"required"`
	IPAddress        string          `json:"ip_address" binding:"required"`
	Latitude         string          `json:"latitude" binding:"required"`
	Longitude        string          `json:"longitude" binding:"required"`
}

// Generator builds transactions in normal (synthetic) or manual mode.
type Generator struct {
	cardRepo   *repositories.CardRepository
	deviceRepo *repositories.DeviceRepository
	txRepo     *repositories.TransactionRepository
	blacklist  *vpn.Blacklist
	region     geo.Region

	mu  sync.Mutex
	rng *rand.Rand
}

// New creates a generator seeded from the clock.
func New(
	cardRepo *repositories.CardRepository,
	deviceRepo *repositories.DeviceRepository,
	txRepo *repositories.TransactionRepository,
	blacklist *vpn.Blacklist,
) *Generator {
	return NewSeeded(cardRepo, deviceRepo, txRepo, blacklist, time.Now().UnixNano())
}

// NewSeeded creates a deterministic generator (test seam).
func NewSeeded(
	cardRepo *repositories.CardRepository,
	deviceRepo *repositories.DeviceRepository,
	txRepo *repositories.TransactionRepository,
	blacklist *vpn.Blacklist,
	seed int64,
) *Generator {
	return &Generator{
		cardRepo:   cardRepo,
		deviceRepo: deviceRepo,
		txRepo:     txRepo,
		blacklist:  blacklist,
		region:     geo.RegionWorld,
		rng:        rand.New(rand.NewSource(seed)),
	}
}

// Normal synthesizes one transaction for a random active card.
func (g *Generator) Normal(ctx context.Context, successForce bool) (*models.Transaction, error) {
	pool, err := g.cardRepo.ListActiveWithDevices(ctx)
	if err != nil {
		return nil, err
	}
	if len(pool) == 0 {
		return nil, ErrNoCardsAvailable
	}

	card := pool[g.intn(len(pool))]
	devices, err := g.cardRepo.Devices(ctx, card.ID)
	if err != nil {
		return nil, err
	}
	if len(devices) == 0 {
		return nil, ErrNoCardsAvailable
	}
	device := devices[g.intn(len(devices))]

	history, err := g.txRepo.LastNByCard(ctx, card.ID, historyWindow)
	if err != nil {
		return nil, err
	}

	lat, lon := g.location(history)
	now := time.Now()

	return &models.Transaction{
		ID:                uuid.New(),
		CardID:            card.ID,
		DeviceID:          device.ID,
		DeviceFingerprint: device.Fingerprint,
		Amount:            g.amount(history),
		MerchantCategory:  g.merchantCategory(history),
		IPAddress:         g.ipAddress(),
		Latitude:          lat,
		Longitude:         lon,
		TransactionAt:     now,
		CreatedAt:         now,
		Decision:          initialDecision(successForce),
	}, nil
}

// Manual builds a transaction from a caller-supplied payload, enforcing that
// the card is active and the device belongs to the card's device set.
func (g *Generator) Manual(ctx context.Context, payload ManualPayload, successForce bool) (*models.Transaction, error) {
	card, err := g.cardRepo.GetByID(ctx, payload.CardID)
	if err != nil {
		return nil, err
	}
	if card.Status != models.CardStatusActive {
		return nil, ErrCardBlockedOrLost
	}

	device, err := g.deviceRepo.GetByID(ctx, payload.DeviceID)
	if err != nil {
		return nil, err
	}

	linked, err := g.cardRepo.IsDeviceLinked(ctx, card.ID, device.ID)
	if err != nil {
		return nil, err
	}
	if !linked {
		return nil, ErrDeviceNotLinked
	}

	now := time.Now()
	return &models.Transaction{
		ID:                uuid.New(),
		CardID:            card.ID,
		DeviceID:          device.ID,
		DeviceFingerprint: device.Fingerprint,
		Amount:            payload.Amount.Round(2),
		MerchantCategory:  payload.MerchantCategory,
		IPAddress:         payload.IPAddress,
		Latitude:          payload.Latitude,
		Longitude:         payload.Longitude,
		TransactionAt:     now,
		CreatedAt:         now,
		Decision:          initialDecision(successForce),
	}, nil
}

func initialDecision(successForce bool) string {
	if successForce {
		return models.DecisionApproved
	}
	return models.DecisionReview
}

func (g *Generator) intn(n int) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rng.Intn(n)
}

func (g *Generator) float64() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rng.Float64()
}

// locked runs fn with exclusive access to the shared rand source.
func (g *Generator) locked(fn func(rng *rand.Rand)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	fn(g.rng)
}
