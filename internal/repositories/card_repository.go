package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/safepay/fraud-engine/internal/models"
)

var (
	ErrCardNotFound    = errors.New("card not found")
	ErrDeviceNotLinked = errors.New("device not linked to card")
)

// CardRepository handles card database operations
type CardRepository struct {
	q Querier
}

// NewCardRepository creates a new card repository
func NewCardRepository(db *Database) *CardRepository {
	return &CardRepository{q: db.Pool}
}

// WithTx returns a copy of the repository bound to an open transaction
func (r *CardRepository) WithTx(tx pgx.Tx) *CardRepository {
	return &CardRepository{q: tx}
}

const cardColumns = `id, brand, number, masked_number, holder_name, expiration_date,
	credit_limit, remaining_limit, status, risk_score, created_at, last_transaction_at`

// Create inserts a new card
func (r *CardRepository) Create(ctx context.Context, card *models.Card) error {
	query := `
		INSERT INTO cards (` + cardColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	if card.ID == uuid.Nil {
		card.ID = uuid.New()
	}
	if card.CreatedAt.IsZero() {
		card.CreatedAt = time.Now()
	}

	_, err := r.q.Exec(ctx, query,
		card.ID, card.Brand, card.Number, card.MaskedNumber, card.HolderName,
		card.ExpirationDate, card.CreditLimit, card.RemainingLimit, card.Status,
		card.RiskScore, card.CreatedAt, card.LastTransactionAt,
	)
	return err
}

// GetByID retrieves a card by ID
func (r *CardRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE id = $1`

	card := &models.Card{}
	err := r.q.QueryRow(ctx, query, id).Scan(
		&card.ID, &card.Brand, &card.Number, &card.MaskedNumber, &card.HolderName,
		&card.ExpirationDate, &card.CreditLimit, &card.RemainingLimit, &card.Status,
		&card.RiskScore, &card.CreatedAt, &card.LastTransactionAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCardNotFound
		}
		return nil, err
	}
	return card, nil
}

// Update persists the mutable card fields
func (r *CardRepository) Update(ctx context.Context, card *models.Card) error {
	query := `
		UPDATE cards
		SET remaining_limit = $2, status = $3, risk_score = $4, last_transaction_at = $5
		WHERE id = $1
	`
	tag, err := r.q.Exec(ctx, query,
		card.ID, card.RemainingLimit, card.Status, card.RiskScore, card.LastTransactionAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrCardNotFound
	}
	return nil
}

// Delete removes a card and its device links
func (r *CardRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM card_devices WHERE card_id = $1`, id); err != nil {
		return err
	}
	tag, err := r.q.Exec(ctx, `DELETE FROM cards WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrCardNotFound
	}
	return nil
}

// List returns cards ordered by creation time
func (r *CardRepository) List(ctx context.Context, limit, offset int) ([]*models.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	rows, err := r.q.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanCards(rows)
}

// ListActiveWithDevices returns active cards having at least one linked device,
// the candidate pool for the transaction generator.
func (r *CardRepository) ListActiveWithDevices(ctx context.Context) ([]*models.Card, error) {
	query := `
		SELECT DISTINCT c.id, c.brand, c.number, c.masked_number, c.holder_name,
			c.expiration_date, c.credit_limit, c.remaining_limit, c.status,
			c.risk_score, c.created_at, c.last_transaction_at
		FROM cards c
		JOIN card_devices cd ON cd.card_id = c.id
		WHERE c.status = $1
	`

	rows, err := r.q.Query(ctx, query, models.CardStatusActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanCards(rows)
}

// Count returns the total number of cards
func (r *CardRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM cards`).Scan(&count)
	return count, err
}

// LinkDevice associates a device with a card
func (r *CardRepository) LinkDevice(ctx context.Context, cardID, deviceID uuid.UUID) error {
	query := `
		INSERT INTO card_devices (card_id, device_id, linked_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (card_id, device_id) DO NOTHING
	`
	_, err := r.q.Exec(ctx, query, cardID, deviceID, time.Now())
	return err
}

// UnlinkDevice removes a card-device association
func (r *CardRepository) UnlinkDevice(ctx context.Context, cardID, deviceID uuid.UUID) error {
	tag, err := r.q.Exec(ctx,
		`DELETE FROM card_devices WHERE card_id = $1 AND device_id = $2`, cardID, deviceID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrDeviceNotLinked
	}
	return nil
}

// IsDeviceLinked reports whether the device belongs to the card's device set
func (r *CardRepository) IsDeviceLinked(ctx context.Context, cardID, deviceID uuid.UUID) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM card_devices WHERE card_id = $1 AND device_id = $2)`,
		cardID, deviceID).Scan(&exists)
	return exists, err
}

// Devices returns the card's device set
func (r *CardRepository) Devices(ctx context.Context, cardID uuid.UUID) ([]*models.Device, error) {
	query := `
		SELECT d.id, d.fingerprint, d.device_type, d.os, d.browser, d.first_seen_at, d.last_seen_at
		FROM devices d
		JOIN card_devices cd ON cd.device_id = d.id
		WHERE cd.card_id = $1
		ORDER BY d.first_seen_at
	`

	rows, err := r.q.Query(ctx, query, cardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var devices []*models.Device
	for rows.Next() {
		d := &models.Device{}
		if err := rows.Scan(&d.ID, &d.Fingerprint, &d.DeviceType, &d.OS, &d.Browser,
			&d.FirstSeenAt, &d.LastSeenAt); err != nil {
			return nil, err
		}
		devices = append(devices, d)
	}
	return devices, rows.Err()
}

// DeleteAll wipes every card and link (reset tooling)
func (r *CardRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM card_devices`); err != nil {
		return err
	}
	_, err := r.q.Exec(ctx, `DELETE FROM cards`)
	return err
}

func scanCards(rows pgx.Rows) ([]*models.Card, error) {
	var cards []*models.Card
	for rows.Next() {
		card := &models.Card{}
		if err := rows.Scan(
			&card.ID, &card.Brand, &card.Number, &card.MaskedNumber, &card.HolderName,
			&card.ExpirationDate, &card.CreditLimit, &card.RemainingLimit, &card.Status,
			&card.RiskScore, &card.CreatedAt, &card.LastTransactionAt,
		); err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}
	return cards, rows.Err()
}
