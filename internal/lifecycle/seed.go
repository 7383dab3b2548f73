package lifecycle

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"github.com/safepay/fraud-engine/internal/models"
	"github.com/safepay/fraud-engine/internal/repositories"
)

var (
	brands      = []string{"VISA", "MASTERCARD", "ELO", "AMEX", "HIPERCARD"}
	deviceTypes = []string{models.DeviceTypeMobile, models.DeviceTypeDesktop, models.DeviceTypePOSTerminal}
	osNames     = []string{"Android 14", "iOS 17", "Windows 11", "macOS 14", "Linux"}
	browsers    = []string{"Chrome", "Safari", "Firefox", "Edge", "Embedded"}

	firstNames = []string{"Ana", "Bruno", "Carla", "Diego", "Elena", "Felipe", "Gabriela",
		"Henrique", "Isabela", "Joao", "Karen", "Lucas", "Mariana", "Nicolas", "Olivia", "Paulo"}
	lastNames = []string{"Silva", "Santos", "Oliveira", "Souza", "Costa", "Pereira",
		"Almeida", "Nascimento", "Lima", "Araujo", "Fernandes", "Carvalho"}
)

// Seeder creates the synthetic card and device population.
type Seeder struct {
	cardRepo   *repositories.CardRepository
	deviceRepo *repositories.DeviceRepository
	rng        *rand.Rand
}

// NewSeeder creates a seeder.
func NewSeeder(cardRepo *repositories.CardRepository, deviceRepo *repositories.DeviceRepository) *Seeder {
	return &Seeder{
		cardRepo:   cardRepo,
		deviceRepo: deviceRepo,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Seed creates cards, then devices, then links them. Creation is sequential:
// linking depends on both populations being present.
func (s *Seeder) Seed(ctx context.Context, cards, devicesPerCard int) error {
	for i := 0; i < cards; i++ {
		card := s.randomCard()
		if err := s.cardRepo.Create(ctx, card); err != nil {
			return fmt.Errorf("failed to create card %d: %w", i, err)
		}

		for j := 0; j < devicesPerCard; j++ {
			device := s.randomDevice()
			if err := s.deviceRepo.Create(ctx, device); err != nil {
				return fmt.Errorf("failed to create device %d for card %d: %w", j, i, err)
			}
			if err := s.cardRepo.LinkDevice(ctx, card.ID, device.ID); err != nil {
				return fmt.Errorf("failed to link device: %w", err)
			}
		}
	}
	return nil
}

func (s *Seeder) randomCard() *models.Card {
	pan := s.randomPAN()
	limit := decimal.NewFromInt(int64(1000 + s.rng.Intn(19001))).Round(2)

	return &models.Card{
		Brand:          brands[s.rng.Intn(len(brands))],
		Number:         pan,
		MaskedNumber:   "**** **** **** " + pan[len(pan)-4:],
		HolderName:     s.randomHolder(),
		ExpirationDate: time.Now().AddDate(1+s.rng.Intn(5), s.rng.Intn(12), 0),
		CreditLimit:    limit,
		RemainingLimit: limit,
		Status:         models.CardStatusActive,
	}
}

func (s *Seeder) randomDevice() *models.Device {
	return &models.Device{
		Fingerprint: fmt.Sprintf("fp-%016x", s.rng.Uint64()),
		DeviceType:  deviceTypes[s.rng.Intn(len(deviceTypes))],
		OS:          osNames[s.rng.Intn(len(osNames))],
		Browser:     browsers[s.rng.Intn(len(browsers))],
	}
}

func (s *Seeder) randomPAN() string {
	digits := make([]byte, 16)
	digits[0] = '4' + byte(s.rng.Intn(2))
	for i := 1; i < 16; i++ {
		digits[i] = '0' + byte(s.rng.Intn(10))
	}
	return string(digits)
}

func (s *Seeder) randomHolder() string {
	return firstNames[s.rng.Intn(len(firstNames))] + " " + lastNames[s.rng.Intn(len(lastNames))]
}
