package services

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/safepay/fraud-engine/internal/models"
	"github.com/safepay/fraud-engine/internal/repositories"
)

var ErrDeviceMaxSupported = errors.New("maximum number of devices for this card reached")

// DeviceService manages devices and their card links. The per-card device
// cap is enforced under a single writer lock.
type DeviceService struct {
	deviceRepo *repositories.DeviceRepository
	cardRepo   *repositories.CardRepository
	maxPerCard int

	mu sync.Mutex
}

// NewDeviceService creates a device service
func NewDeviceService(deviceRepo *repositories.DeviceRepository, cardRepo *repositories.CardRepository, maxPerCard int) *DeviceService {
	return &DeviceService{deviceRepo: deviceRepo, cardRepo: cardRepo, maxPerCard: maxPerCard}
}

// CreateDeviceRequest carries the attributes of one new device
type CreateDeviceRequest struct {
	CardID      uuid.UUID `json:"card_id" binding:"required"`
	Fingerprint string    `json:"fingerprint" binding:"required"`
	DeviceType  string    `json:"device_type" binding:"required,oneof=MOBILE DESKTOP POS_TERMINAL"`
	OS          string    `json:"os"`
	Browser     string    `json:"browser"`
}

// Create registers a device and links it to the card
func (s *DeviceService) Create(ctx context.Context, req CreateDeviceRequest) (*models.Device, error) {
	if _, err := s.cardRepo.GetByID(ctx, req.CardID); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	count, err := s.deviceRepo.CountByCard(ctx, req.CardID)
	if err != nil {
		return nil, err
	}
	if count >= s.maxPerCard {
		return nil, ErrDeviceMaxSupported
	}

	device := &models.Device{
		Fingerprint: req.Fingerprint,
		DeviceType:  req.DeviceType,
		OS:          req.OS,
		Browser:     req.Browser,
	}
	if err := s.deviceRepo.Create(ctx, device); err != nil {
		return nil, err
	}
	if err := s.cardRepo.LinkDevice(ctx, req.CardID, device.ID); err != nil {
		return nil, err
	}
	return device, nil
}

// Get retrieves a device
func (s *DeviceService) Get(ctx context.Context, id uuid.UUID) (*models.Device, error) {
	return s.deviceRepo.GetByID(ctx, id)
}

// Link associates an existing device with a card, honoring the cap
func (s *DeviceService) Link(ctx context.Context, cardID, deviceID uuid.UUID) error {
	if _, err := s.cardRepo.GetByID(ctx, cardID); err != nil {
		return err
	}
	if _, err := s.deviceRepo.GetByID(ctx, deviceID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	count, err := s.deviceRepo.CountByCard(ctx, cardID)
	if err != nil {
		return err
	}
	if count >= s.maxPerCard {
		return ErrDeviceMaxSupported
	}
	return s.cardRepo.LinkDevice(ctx, cardID, deviceID)
}

// Unlink removes a card-device association; the device itself survives
func (s *DeviceService) Unlink(ctx context.Context, cardID, deviceID uuid.UUID) error {
	return s.cardRepo.UnlinkDevice(ctx, cardID, deviceID)
}

// Delete removes a device entirely
func (s *DeviceService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.deviceRepo.Delete(ctx, id)
}

// ListByCard returns a card's device set
func (s *DeviceService) ListByCard(ctx context.Context, cardID uuid.UUID) ([]*models.Device, error) {
	return s.cardRepo.Devices(ctx, cardID)
}
