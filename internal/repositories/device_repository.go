package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/safepay/fraud-engine/internal/models"
)

var ErrDeviceNotFound = errors.New("device not found")

// DeviceRepository handles device database operations
type DeviceRepository struct {
	q Querier
}

// NewDeviceRepository creates a new device repository
func NewDeviceRepository(db *Database) *DeviceRepository {
	return &DeviceRepository{q: db.Pool}
}

// WithTx returns a copy of the repository bound to an open transaction
func (r *DeviceRepository) WithTx(tx pgx.Tx) *DeviceRepository {
	return &DeviceRepository{q: tx}
}

// Create inserts a new device
func (r *DeviceRepository) Create(ctx context.Context, device *models.Device) error {
	query := `
		INSERT INTO devices (id, fingerprint, device_type, os, browser, first_seen_at, last_seen_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	if device.ID == uuid.Nil {
		device.ID = uuid.New()
	}
	now := time.Now()
	if device.FirstSeenAt.IsZero() {
		device.FirstSeenAt = now
	}
	if device.LastSeenAt.IsZero() {
		device.LastSeenAt = now
	}

	_, err := r.q.Exec(ctx, query,
		device.ID, device.Fingerprint, device.DeviceType, device.OS, device.Browser,
		device.FirstSeenAt, device.LastSeenAt,
	)
	return err
}

// GetByID retrieves a device by ID
func (r *DeviceRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Device, error) {
	query := `
		SELECT id, fingerprint, device_type, os, browser, first_seen_at, last_seen_at
		FROM devices WHERE id = $1
	`

	d := &models.Device{}
	err := r.q.QueryRow(ctx, query, id).Scan(
		&d.ID, &d.Fingerprint, &d.DeviceType, &d.OS, &d.Browser, &d.FirstSeenAt, &d.LastSeenAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDeviceNotFound
		}
		return nil, err
	}
	return d, nil
}

// TouchLastSeen updates the device's last-seen timestamp
func (r *DeviceRepository) TouchLastSeen(ctx context.Context, id uuid.UUID, seenAt time.Time) error {
	_, err := r.q.Exec(ctx, `UPDATE devices SET last_seen_at = $2 WHERE id = $1`, id, seenAt)
	return err
}

// Delete removes a device and its card links
func (r *DeviceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM card_devices WHERE device_id = $1`, id); err != nil {
		return err
	}
	tag, err := r.q.Exec(ctx, `DELETE FROM devices WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrDeviceNotFound
	}
	return nil
}

// CountCards returns the size of the device's card set
func (r *DeviceRepository) CountCards(ctx context.Context, deviceID uuid.UUID) (int, error) {
	var count int
	err := r.q.QueryRow(ctx,
		`SELECT COUNT(*) FROM card_devices WHERE device_id = $1`, deviceID).Scan(&count)
	return count, err
}

// CountByCard returns how many devices are linked to a card
func (r *DeviceRepository) CountByCard(ctx context.Context, cardID uuid.UUID) (int, error) {
	var count int
	err := r.q.QueryRow(ctx,
		`SELECT COUNT(*) FROM card_devices WHERE card_id = $1`, cardID).Scan(&count)
	return count, err
}

// DeleteAll wipes every device and link (reset tooling)
func (r *DeviceRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM card_devices`); err != nil {
		return err
	}
	_, err := r.q.Exec(ctx, `DELETE FROM devices`)
	return err
}
