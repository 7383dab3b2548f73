package decision_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safepay/fraud-engine/internal/decision"
	"github.com/safepay/fraud-engine/internal/geo"
	"github.com/safepay/fraud-engine/internal/models"
	"github.com/safepay/fraud-engine/internal/validation"
	"github.com/safepay/fraud-engine/internal/vpn"
)

type unresolvedResolver struct{}

func (unresolvedResolver) ResolveCountry(context.Context, string, string) string { return "" }

func testBlacklist(t *testing.T) *vpn.Blacklist {
	t.Helper()
	cidr, err := geo.ParseCIDR("2001:67c:2e8::/48")
	require.NoError(t, err)
	return vpn.FromCIDRs([]geo.CIDR{cidr})
}

func newValidator(t *testing.T) *validation.Validator {
	t.Helper()
	return validation.NewValidator(nil, nil, nil, unresolvedResolver{}, testBlacklist(t))
}

func card(limit, remaining string) *models.Card {
	return &models.Card{
		ID:             uuid.New(),
		Status:         models.CardStatusActive,
		CreditLimit:    decimal.RequireFromString(limit),
		RemainingLimit: decimal.RequireFromString(remaining),
		ExpirationDate: time.Now().AddDate(3, 0, 0),
	}
}

type txSpec struct {
	amount   string
	at       time.Time
	lat, lon string
	decision string
	deviceID uuid.UUID
}

func buildTx(c *models.Card, spec txSpec) *models.Transaction {
	if spec.deviceID == uuid.Nil {
		spec.deviceID = uuid.New()
	}
	if spec.lat == "" {
		spec.lat, spec.lon = "-23.550520", "-46.633308"
	}
	if spec.decision == "" {
		spec.decision = models.DecisionReview
	}
	return &models.Transaction{
		ID:                uuid.New(),
		CardID:            c.ID,
		DeviceID:          spec.deviceID,
		DeviceFingerprint: "fp-1",
		Amount:            decimal.RequireFromString(spec.amount),
		MerchantCategory:  models.CategoryGrocery,
		IPAddress:         "2001:db8::10",
		Latitude:          spec.lat,
		Longitude:         spec.lon,
		TransactionAt:     spec.at,
		CreatedAt:         spec.at,
		Decision:          spec.decision,
	}
}

// snapshot derives the windows the context loader would produce, with the
// current transaction as element 0.
func snapshot(c *models.Card, deviceCards int, current *models.Transaction, history ...*models.Transaction) *validation.Snapshot {
	last20 := append([]*models.Transaction{current}, history...)
	if len(last20) > 20 {
		last20 = last20[:20]
	}
	last10 := last20
	if len(last10) > 10 {
		last10 = last10[:10]
	}
	ref := current.CreatedAt
	filter := func(cutoff time.Time) []*models.Transaction {
		var out []*models.Transaction
		for _, t := range last20 {
			if !t.CreatedAt.Before(cutoff) {
				out = append(out, t)
			}
		}
		return out
	}
	return &validation.Snapshot{
		Card:            c,
		DeviceCardCount: deviceCards,
		Last20:          last20,
		Last10:          last10,
		Last24Hours:     filter(ref.Add(-24 * time.Hour)),
		Last10Minutes:   filter(ref.Add(-10 * time.Minute)),
		Last5Minutes:    filter(ref.Add(-5 * time.Minute)),
		Reference:       ref,
	}
}

// Card testing: three tiny probes inside a minute, then a fourth.
func TestScenario_CardTesting(t *testing.T) {
	v := newValidator(t)
	c := card("5000.00", "5000.00")
	device := uuid.New()
	t0 := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	history := []*models.Transaction{
		buildTx(c, txSpec{amount: "0.50", at: t0.Add(60 * time.Second), deviceID: device}),
		buildTx(c, txSpec{amount: "1.50", at: t0.Add(30 * time.Second), deviceID: device}),
		buildTx(c, txSpec{amount: "1.00", at: t0, deviceID: device}),
	}
	current := buildTx(c, txSpec{amount: "2.00", at: t0.Add(90 * time.Second), deviceID: device})

	result := v.ValidateWithSnapshot(context.Background(), current, snapshot(c, 1, current, history...))
	assert.True(t, result.HasAlert(models.AlertCardTesting))

	d, fraud := decision.Decide(result, false)
	// CARD_TESTING (50) plus VELOCITY_ABUSE (35) lands in the blocked tier;
	// card testing alone would be review
	assert.True(t, result.Score >= 50)
	if result.Score >= 60 {
		assert.Equal(t, models.DecisionBlocked, d)
		assert.True(t, fraud)
	} else {
		assert.Equal(t, models.DecisionReview, d)
	}
}

// Impossible travel: São Paulo then New York ten minutes later.
func TestScenario_ImpossibleTravel(t *testing.T) {
	v := newValidator(t)
	c := card("5000.00", "5000.00")
	device := uuid.New()
	t0 := time.Date(2026, 6, 1, 15, 0, 0, 0, time.UTC)

	prev := buildTx(c, txSpec{amount: "50.00", at: t0, lat: "-23.550520", lon: "-46.633308", deviceID: device})
	current := buildTx(c, txSpec{amount: "60.00", at: t0.Add(10 * time.Minute), lat: "40.712776", lon: "-74.005974", deviceID: device})

	result := v.ValidateWithSnapshot(context.Background(), current, snapshot(c, 1, current, prev))

	assert.True(t, result.HasAlert(models.AlertImpossibleTravel))
	assert.True(t, result.HasAlert(models.AlertLocationAnomaly))
	assert.GreaterOrEqual(t, result.Score, 60)

	d, fraud := decision.Decide(result, false)
	assert.Equal(t, models.DecisionBlocked, d)
	assert.True(t, fraud)
}

// High amount as a lone signal stays approved.
func TestScenario_HighAmountAlone(t *testing.T) {
	v := newValidator(t)
	c := card("50000.00", "50000.00")
	device := uuid.New()
	t0 := time.Date(2026, 6, 10, 14, 0, 0, 0, time.UTC)

	var history []*models.Transaction
	for i := 0; i < 10; i++ {
		history = append(history, buildTx(c, txSpec{
			amount:   "100.00",
			at:       t0.AddDate(0, 0, -(i + 1)),
			deviceID: device,
			decision: models.DecisionApproved,
		}))
	}
	current := buildTx(c, txSpec{amount: "180.00", at: t0, deviceID: device})

	result := v.ValidateWithSnapshot(context.Background(), current, snapshot(c, 1, current, history...))

	assert.True(t, result.HasAlert(models.AlertHighAmount))
	assert.Equal(t, 20, result.Score)

	d, fraud := decision.Decide(result, false)
	assert.Equal(t, models.DecisionApproved, d)
	assert.False(t, fraud)
}

// VPN exit plus a brand-new device sums to exactly the review threshold zone.
func TestScenario_VPNAndNewDevice(t *testing.T) {
	v := newValidator(t)
	c := card("50000.00", "50000.00")
	knownDevice := uuid.New()
	t0 := time.Date(2026, 6, 10, 14, 0, 0, 0, time.UTC)

	var history []*models.Transaction
	for i := 0; i < 15; i++ {
		history = append(history, buildTx(c, txSpec{
			amount:   "100.00",
			at:       t0.AddDate(0, 0, -(i + 1)),
			deviceID: knownDevice,
			decision: models.DecisionApproved,
		}))
	}

	current := buildTx(c, txSpec{amount: "100.00", at: t0, deviceID: uuid.New()})
	current.IPAddress = "2001:67c:2e8::beef"

	result := v.ValidateWithSnapshot(context.Background(), current, snapshot(c, 1, current, history...))

	assert.True(t, result.HasAlert(models.AlertTorOrProxyDetected))
	assert.True(t, result.HasAlert(models.AlertNewDeviceDetected))
	assert.Equal(t, 50, result.Score)

	d, _ := decision.Decide(result, false)
	assert.Equal(t, models.DecisionReview, d)
}

// Credit-limit override: tiny score, decisive alert.
func TestScenario_CreditLimitOverride(t *testing.T) {
	v := newValidator(t)
	c := card("1000.00", "20.00")
	device := uuid.New()
	t0 := time.Date(2026, 6, 10, 14, 0, 0, 0, time.UTC)

	current := buildTx(c, txSpec{amount: "25.00", at: t0, deviceID: device})
	result := v.ValidateWithSnapshot(context.Background(), current, snapshot(c, 1, current))

	assert.True(t, result.HasAlert(models.AlertCreditLimitReached))

	d, _ := decision.Decide(result, false)
	assert.Equal(t, models.DecisionBlocked, d)
}

// Force approve: high score approved, unless the credit limit says otherwise.
func TestScenario_ForceApprove(t *testing.T) {
	result := validation.Result{
		Score: 95,
		Alerts: []models.AlertType{
			models.AlertCardTesting, models.AlertVelocityAbuse, models.AlertTimeOfDayAnomaly,
		},
	}
	d, fraud := decision.Decide(result, true)
	assert.Equal(t, models.DecisionApproved, d)
	assert.True(t, fraud)

	result.Alerts = append(result.Alerts, models.AlertCreditLimitReached)
	d, _ = decision.Decide(result, true)
	assert.Equal(t, models.DecisionBlocked, d)
}
