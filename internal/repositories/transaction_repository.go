package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/safepay/fraud-engine/internal/models"
)

var ErrTransactionNotFound = errors.New("transaction not found")

// TransactionRepository handles transaction database operations
type TransactionRepository struct {
	q Querier
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *Database) *TransactionRepository {
	return &TransactionRepository{q: db.Pool}
}

// WithTx returns a copy of the repository bound to an open transaction
func (r *TransactionRepository) WithTx(tx pgx.Tx) *TransactionRepository {
	return &TransactionRepository{q: tx}
}

const txColumns = `id, card_id, device_id, device_fingerprint, amount, merchant_category,
	ip_address, latitude, longitude, country, state, city, transaction_at, created_at,
	reimbursed, fraud, decision`

// Create inserts a new transaction
func (r *TransactionRepository) Create(ctx context.Context, tx *models.Transaction) error {
	query := `
		INSERT INTO transactions (` + txColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	if tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now()
	}

	_, err := r.q.Exec(ctx, query,
		tx.ID, tx.CardID, tx.DeviceID, tx.DeviceFingerprint, tx.Amount,
		tx.MerchantCategory, tx.IPAddress, tx.Latitude, tx.Longitude,
		tx.Country, tx.State, tx.City, tx.TransactionAt, tx.CreatedAt,
		tx.Reimbursed, tx.Fraud, tx.Decision,
	)
	return err
}

// UpdateDecision persists the terminal decision and fraud flag
func (r *TransactionRepository) UpdateDecision(ctx context.Context, id uuid.UUID, decision string, fraud bool) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE transactions SET decision = $2, fraud = $3 WHERE id = $1`, id, decision, fraud)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTransactionNotFound
	}
	return nil
}

// UpdateReimbursed flips the reimbursement flag, the only field mutable after
// a terminal decision.
func (r *TransactionRepository) UpdateReimbursed(ctx context.Context, id uuid.UUID, reimbursed bool) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE transactions SET reimbursed = $2 WHERE id = $1`, id, reimbursed)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTransactionNotFound
	}
	return nil
}

// GetByID retrieves a transaction by ID
func (r *TransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	query := `SELECT ` + txColumns + ` FROM transactions WHERE id = $1`

	tx := &models.Transaction{}
	err := r.q.QueryRow(ctx, query, id).Scan(
		&tx.ID, &tx.CardID, &tx.DeviceID, &tx.DeviceFingerprint, &tx.Amount,
		&tx.MerchantCategory, &tx.IPAddress, &tx.Latitude, &tx.Longitude,
		&tx.Country, &tx.State, &tx.City, &tx.TransactionAt, &tx.CreatedAt,
		&tx.Reimbursed, &tx.Fraud, &tx.Decision,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return tx, nil
}

// LastNByCard returns the most recent n transactions of a card ordered by
// created_at descending.
func (r *TransactionRepository) LastNByCard(ctx context.Context, cardID uuid.UUID, n int) ([]*models.Transaction, error) {
	query := `
		SELECT ` + txColumns + `
		FROM transactions
		WHERE card_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, cardID, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// ByCardAfter returns a card's transactions created after t, newest first.
func (r *TransactionRepository) ByCardAfter(ctx context.Context, cardID uuid.UUID, t time.Time) ([]*models.Transaction, error) {
	query := `
		SELECT ` + txColumns + `
		FROM transactions
		WHERE card_id = $1 AND created_at > $2
		ORDER BY created_at DESC
	`

	rows, err := r.q.Query(ctx, query, cardID, t)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// AllByCard returns every transaction of a card, oldest first (pattern builder).
func (r *TransactionRepository) AllByCard(ctx context.Context, cardID uuid.UUID) ([]*models.Transaction, error) {
	query := `
		SELECT ` + txColumns + `
		FROM transactions
		WHERE card_id = $1
		ORDER BY created_at
	`

	rows, err := r.q.Query(ctx, query, cardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// DeleteAll wipes every transaction (reset tooling)
func (r *TransactionRepository) DeleteAll(ctx context.Context) error {
	_, err := r.q.Exec(ctx, `DELETE FROM transactions`)
	return err
}

func scanTransactions(rows pgx.Rows) ([]*models.Transaction, error) {
	var out []*models.Transaction
	for rows.Next() {
		tx := &models.Transaction{}
		if err := rows.Scan(
			&tx.ID, &tx.CardID, &tx.DeviceID, &tx.DeviceFingerprint, &tx.Amount,
			&tx.MerchantCategory, &tx.IPAddress, &tx.Latitude, &tx.Longitude,
			&tx.Country, &tx.State, &tx.City, &tx.TransactionAt, &tx.CreatedAt,
			&tx.Reimbursed, &tx.Fraud, &tx.Decision,
		); err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}
