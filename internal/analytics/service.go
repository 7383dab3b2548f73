// Package analytics aggregates alert and decision statistics for the admin
// surface.
package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/safepay/fraud-engine/internal/queue"
	"github.com/safepay/fraud-engine/internal/repositories"
)

const summaryCacheTTL = 5 * time.Minute

// AlertSummary aggregates the persisted alert population.
type AlertSummary struct {
	Total         int            `json:"total"`
	BySeverity    map[string]int `json:"by_severity"`
	TopAlertTypes map[string]int `json:"top_alert_types"`
	GeneratedAt   time.Time      `json:"generated_at"`
}

// Service provides analytics over the alert store, cached in Redis.
type Service struct {
	alertRepo *repositories.AlertRepository
	cache     *queue.CacheClient
}

// NewService creates an analytics service. cache may be nil.
func NewService(alertRepo *repositories.AlertRepository, cache *queue.CacheClient) *Service {
	return &Service{alertRepo: alertRepo, cache: cache}
}

// AlertSummary returns the current alert statistics.
func (s *Service) AlertSummary(ctx context.Context) (*AlertSummary, error) {
	const cacheKey = "analytics:alert_summary"

	if s.cache != nil {
		var cached AlertSummary
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	bySeverity, err := s.alertRepo.CountBySeverity(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count alerts by severity: %w", err)
	}

	topTypes, err := s.alertRepo.TopAlertTypes(ctx, 10)
	if err != nil {
		return nil, fmt.Errorf("failed to rank alert types: %w", err)
	}

	total := 0
	for _, c := range bySeverity {
		total += c
	}

	summary := &AlertSummary{
		Total:         total,
		BySeverity:    bySeverity,
		TopAlertTypes: topTypes,
		GeneratedAt:   time.Now(),
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, summary, summaryCacheTTL); err != nil {
			log.Warn().Err(err).Msg("Failed to cache alert summary")
		}
	}
	return summary, nil
}

// RecordConsumedAlert bumps the rolling counters maintained by the Kafka
// alert worker.
func (s *Service) RecordConsumedAlert(ctx context.Context, severity string) {
	if s.cache == nil {
		return
	}
	key := fmt.Sprintf("analytics:consumed:%s:%s", time.Now().Format("2006-01-02"), severity)
	if _, err := s.cache.Increment(ctx, key); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to bump alert counter")
	}
}
