package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/safepay/fraud-engine/internal/models"
)

var ErrPatternNotFound = errors.New("card pattern not found")

// PatternRepository handles card behavioral pattern persistence
type PatternRepository struct {
	q Querier
}

// NewPatternRepository creates a new pattern repository
func NewPatternRepository(db *Database) *PatternRepository {
	return &PatternRepository{q: db.Pool}
}

// WithTx returns a copy of the repository bound to an open transaction
func (r *PatternRepository) WithTx(tx pgx.Tx) *PatternRepository {
	return &PatternRepository{q: tx}
}

// Upsert writes the pattern, replacing any existing row for the card.
func (r *PatternRepository) Upsert(ctx context.Context, p *models.CardPattern) error {
	query := `
		INSERT INTO card_patterns (
			id, card_id, avg_amount, median_amount, max_amount, q1_amount, q3_amount,
			iqr_amount, std_dev_amount, p95_amount, ticket_buckets, common_categories,
			category_entropy, preferred_hours, preferred_weekdays, weekend_ratio,
			daily_frequency, max_tx_per_hour, temporal_consistency, transaction_count, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
		ON CONFLICT (card_id) DO UPDATE SET
			avg_amount = EXCLUDED.avg_amount,
			median_amount = EXCLUDED.median_amount,
			max_amount = EXCLUDED.max_amount,
			q1_amount = EXCLUDED.q1_amount,
			q3_amount = EXCLUDED.q3_amount,
			iqr_amount = EXCLUDED.iqr_amount,
			std_dev_amount = EXCLUDED.std_dev_amount,
			p95_amount = EXCLUDED.p95_amount,
			ticket_buckets = EXCLUDED.ticket_buckets,
			common_categories = EXCLUDED.common_categories,
			category_entropy = EXCLUDED.category_entropy,
			preferred_hours = EXCLUDED.preferred_hours,
			preferred_weekdays = EXCLUDED.preferred_weekdays,
			weekend_ratio = EXCLUDED.weekend_ratio,
			daily_frequency = EXCLUDED.daily_frequency,
			max_tx_per_hour = EXCLUDED.max_tx_per_hour,
			temporal_consistency = EXCLUDED.temporal_consistency,
			transaction_count = EXCLUDED.transaction_count,
			updated_at = EXCLUDED.updated_at
	`

	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.UpdatedAt = time.Now()

	buckets, err := json.Marshal(p.TicketBuckets)
	if err != nil {
		return err
	}

	_, err = r.q.Exec(ctx, query,
		p.ID, p.CardID, p.AvgAmount, p.MedianAmount, p.MaxAmount, p.Q1Amount, p.Q3Amount,
		p.IQRAmount, p.StdDevAmount, p.P95Amount, buckets, p.CommonCategories,
		p.CategoryEntropy, p.PreferredHours, p.PreferredWeekdays, p.WeekendRatio,
		p.DailyFrequency, p.MaxTxPerHour, p.TemporalConsistency, p.TransactionCount, p.UpdatedAt,
	)
	return err
}

// GetByCard retrieves the pattern for a card
func (r *PatternRepository) GetByCard(ctx context.Context, cardID uuid.UUID) (*models.CardPattern, error) {
	query := `
		SELECT id, card_id, avg_amount, median_amount, max_amount, q1_amount, q3_amount,
			iqr_amount, std_dev_amount, p95_amount, ticket_buckets, common_categories,
			category_entropy, preferred_hours, preferred_weekdays, weekend_ratio,
			daily_frequency, max_tx_per_hour, temporal_consistency, transaction_count, updated_at
		FROM card_patterns WHERE card_id = $1
	`

	p := &models.CardPattern{}
	var buckets []byte
	err := r.q.QueryRow(ctx, query, cardID).Scan(
		&p.ID, &p.CardID, &p.AvgAmount, &p.MedianAmount, &p.MaxAmount, &p.Q1Amount, &p.Q3Amount,
		&p.IQRAmount, &p.StdDevAmount, &p.P95Amount, &buckets, &p.CommonCategories,
		&p.CategoryEntropy, &p.PreferredHours, &p.PreferredWeekdays, &p.WeekendRatio,
		&p.DailyFrequency, &p.MaxTxPerHour, &p.TemporalConsistency, &p.TransactionCount, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatternNotFound
		}
		return nil, err
	}
	if len(buckets) > 0 {
		if err := json.Unmarshal(buckets, &p.TicketBuckets); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// DeleteAll wipes every pattern (reset tooling)
func (r *PatternRepository) DeleteAll(ctx context.Context) error {
	_, err := r.q.Exec(ctx, `DELETE FROM card_patterns`)
	return err
}
