package pattern

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/safepay/fraud-engine/internal/models"
	"github.com/safepay/fraud-engine/internal/repositories"
)

const remoteTTL = 30 * time.Minute

// RemoteCache is the slice of the shared cache client the service uses as
// its second level. A nil RemoteCache disables the level.
type RemoteCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// Service rebuilds and caches card patterns. Reads go memory → Redis →
// storage; rebuilds invalidate before writing through. Cache failures only
// degrade to the next level, they never fail the caller.
type Service struct {
	txRepo      *repositories.TransactionRepository
	patternRepo *repositories.PatternRepository
	remote      RemoteCache

	mu    sync.RWMutex
	local map[uuid.UUID]*models.CardPattern
}

// NewService creates the pattern service. remote may be nil.
func NewService(txRepo *repositories.TransactionRepository, patternRepo *repositories.PatternRepository, remote RemoteCache) *Service {
	return &Service{
		txRepo:      txRepo,
		patternRepo: patternRepo,
		remote:      remote,
		local:       make(map[uuid.UUID]*models.CardPattern),
	}
}

// Rebuild recomputes a card's profile from its full history and persists it.
// The cache entry is invalidated before the write so a concurrent reader can
// never observe the stale profile after the rebuild completes.
func (s *Service) Rebuild(ctx context.Context, cardID uuid.UUID) (*models.CardPattern, error) {
	return s.RebuildIn(ctx, s.txRepo, s.patternRepo, cardID)
}

// RebuildIn is Rebuild running against caller-supplied repositories, used by
// the decision service to keep the refresh inside its unit of work while
// sharing this service's caches.
func (s *Service) RebuildIn(ctx context.Context, txRepo *repositories.TransactionRepository, patternRepo *repositories.PatternRepository, cardID uuid.UUID) (*models.CardPattern, error) {
	txs, err := txRepo.AllByCard(ctx, cardID)
	if err != nil {
		return nil, err
	}

	p := Build(cardID, txs)

	s.invalidate(ctx, cardID)
	if err := patternRepo.Upsert(ctx, p); err != nil {
		return nil, err
	}
	s.prime(ctx, cardID, p)
	return p, nil
}

// Get returns the card's profile, preferring the caches.
func (s *Service) Get(ctx context.Context, cardID uuid.UUID) (*models.CardPattern, error) {
	s.mu.RLock()
	if p, ok := s.local[cardID]; ok {
		s.mu.RUnlock()
		return p, nil
	}
	s.mu.RUnlock()

	if s.remote != nil {
		var p models.CardPattern
		if err := s.remote.Get(ctx, cacheKey(cardID), &p); err == nil && p.CardID == cardID {
			s.prime(ctx, cardID, &p)
			return &p, nil
		}
	}

	p, err := s.patternRepo.GetByCard(ctx, cardID)
	if err != nil {
		return nil, err
	}
	s.prime(ctx, cardID, p)
	return p, nil
}

func (s *Service) invalidate(ctx context.Context, cardID uuid.UUID) {
	s.mu.Lock()
	delete(s.local, cardID)
	s.mu.Unlock()

	if s.remote != nil {
		if err := s.remote.Delete(ctx, cacheKey(cardID)); err != nil {
			log.Warn().Err(err).Str("card_id", cardID.String()).Msg("Failed to invalidate remote pattern cache")
		}
	}
}

func (s *Service) prime(ctx context.Context, cardID uuid.UUID, p *models.CardPattern) {
	s.mu.Lock()
	s.local[cardID] = p
	s.mu.Unlock()

	if s.remote != nil {
		if err := s.remote.Set(ctx, cacheKey(cardID), p, remoteTTL); err != nil {
			log.Warn().Err(err).Str("card_id", cardID.String()).Msg("Failed to write pattern to remote cache")
		}
	}
}

func cacheKey(cardID uuid.UUID) string {
	return "pattern:" + cardID.String()
}
