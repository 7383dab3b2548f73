package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/safepay/fraud-engine/internal/models"
)

var ErrAlertNotFound = errors.New("fraud alert not found")

// AlertRepository handles fraud alert database operations
type AlertRepository struct {
	q Querier
}

// NewAlertRepository creates a new alert repository
func NewAlertRepository(db *Database) *AlertRepository {
	return &AlertRepository{q: db.Pool}
}

// WithTx returns a copy of the repository bound to an open transaction
func (r *AlertRepository) WithTx(tx pgx.Tx) *AlertRepository {
	return &AlertRepository{q: tx}
}

const alertColumns = `id, transaction_id, card_id, alert_types, fraud_score, severity,
	probability, description, status, created_at`

// Create inserts a new fraud alert
func (r *AlertRepository) Create(ctx context.Context, alert *models.FraudAlert) error {
	query := `
		INSERT INTO fraud_alerts (` + alertColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	if alert.ID == uuid.Nil {
		alert.ID = uuid.New()
	}
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now()
	}

	types := make([]string, len(alert.AlertTypes))
	for i, t := range alert.AlertTypes {
		types[i] = string(t)
	}

	_, err := r.q.Exec(ctx, query,
		alert.ID, alert.TransactionID, alert.CardID, types, alert.FraudScore,
		alert.Severity, alert.Probability, alert.Description, alert.Status, alert.CreatedAt,
	)
	return err
}

// GetByID retrieves an alert by ID
func (r *AlertRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.FraudAlert, error) {
	query := `SELECT ` + alertColumns + ` FROM fraud_alerts WHERE id = $1`

	alert, err := scanAlert(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAlertNotFound
		}
		return nil, err
	}
	return alert, nil
}

// List returns alerts newest first
func (r *AlertRepository) List(ctx context.Context, limit, offset int) ([]*models.FraudAlert, error) {
	query := `SELECT ` + alertColumns + ` FROM fraud_alerts ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	rows, err := r.q.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []*models.FraudAlert
	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, alert)
	}
	return alerts, rows.Err()
}

// UpdateStatus moves an alert through its review lifecycle
func (r *AlertRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := r.q.Exec(ctx, `UPDATE fraud_alerts SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAlertNotFound
	}
	return nil
}

// CountBySeverity returns alert counts grouped by severity
func (r *AlertRepository) CountBySeverity(ctx context.Context) (map[string]int, error) {
	rows, err := r.q.Query(ctx, `SELECT severity, COUNT(*) FROM fraud_alerts GROUP BY severity`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var severity string
		var count int
		if err := rows.Scan(&severity, &count); err != nil {
			return nil, err
		}
		out[severity] = count
	}
	return out, rows.Err()
}

// TopAlertTypes returns the most frequently triggered alert tags
func (r *AlertRepository) TopAlertTypes(ctx context.Context, limit int) (map[string]int, error) {
	query := `
		SELECT t.tag, COUNT(*) AS n
		FROM fraud_alerts, UNNEST(alert_types) AS t(tag)
		GROUP BY t.tag
		ORDER BY n DESC
		LIMIT $1
	`

	rows, err := r.q.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var tag string
		var count int
		if err := rows.Scan(&tag, &count); err != nil {
			return nil, err
		}
		out[tag] = count
	}
	return out, rows.Err()
}

// DeleteAll wipes every alert (reset tooling)
func (r *AlertRepository) DeleteAll(ctx context.Context) error {
	_, err := r.q.Exec(ctx, `DELETE FROM fraud_alerts`)
	return err
}

func scanAlert(row pgx.Row) (*models.FraudAlert, error) {
	alert := &models.FraudAlert{}
	var types []string
	if err := row.Scan(
		&alert.ID, &alert.TransactionID, &alert.CardID, &types, &alert.FraudScore,
		&alert.Severity, &alert.Probability, &alert.Description, &alert.Status, &alert.CreatedAt,
	); err != nil {
		return nil, err
	}
	alert.AlertTypes = make([]models.AlertType, len(types))
	for i, t := range types {
		alert.AlertTypes[i] = models.AlertType(t)
	}
	return alert, nil
}
