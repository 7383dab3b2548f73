package validation

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safepay/fraud-engine/internal/country"
	"github.com/safepay/fraud-engine/internal/geo"
	"github.com/safepay/fraud-engine/internal/models"
	"github.com/safepay/fraud-engine/internal/vpn"
)

var baseTime = time.Date(2026, 3, 14, 14, 0, 0, 0, time.UTC)

type txOpt func(*models.Transaction)

func withAmount(s string) txOpt {
	return func(t *models.Transaction) { t.Amount = decimal.RequireFromString(s) }
}

func withCreatedAt(at time.Time) txOpt {
	return func(t *models.Transaction) { t.CreatedAt = at }
}

func withDecision(d string) txOpt {
	return func(t *models.Transaction) { t.Decision = d }
}

func withDevice(id uuid.UUID, fingerprint string) txOpt {
	return func(t *models.Transaction) {
		t.DeviceID = id
		t.DeviceFingerprint = fingerprint
	}
}

func withCoords(lat, lon string) txOpt {
	return func(t *models.Transaction) {
		t.Latitude = lat
		t.Longitude = lon
	}
}

func newTx(opts ...txOpt) *models.Transaction {
	tx := &models.Transaction{
		ID:                uuid.New(),
		CardID:            uuid.New(),
		DeviceID:          uuid.New(),
		DeviceFingerprint: "fp-default",
		Amount:            decimal.RequireFromString("100.00"),
		MerchantCategory:  models.CategoryGrocery,
		IPAddress:         "2001:db8::1",
		Latitude:          "-23.550520",
		Longitude:         "-46.633308",
		TransactionAt:     baseTime,
		CreatedAt:         baseTime,
		Decision:          models.DecisionReview,
	}
	for _, opt := range opts {
		opt(tx)
	}
	return tx
}

// snapshotFor derives the windows exactly as the context loader does: the
// current transaction is element 0 of Last20.
func snapshotFor(card *models.Card, deviceCards int, current *models.Transaction, history ...*models.Transaction) *Snapshot {
	last20 := append([]*models.Transaction{current}, history...)
	if len(last20) > historyWindow {
		last20 = last20[:historyWindow]
	}
	ref := current.CreatedAt
	return &Snapshot{
		Card:            card,
		DeviceCardCount: deviceCards,
		Last20:          last20,
		Last10:          head(last20, 10),
		Last24Hours:     since(last20, ref.Add(-24*time.Hour)),
		Last10Minutes:   since(last20, ref.Add(-10*time.Minute)),
		Last5Minutes:    since(last20, ref.Add(-5*time.Minute)),
		Reference:       ref,
	}
}

func testCard() *models.Card {
	return &models.Card{
		ID:             uuid.New(),
		Status:         models.CardStatusActive,
		CreditLimit:    decimal.RequireFromString("10000.00"),
		RemainingLimit: decimal.RequireFromString("10000.00"),
		ExpirationDate: baseTime.AddDate(3, 0, 0),
	}
}

// dailyHistory generates n prior transactions spaced one day apart, oldest last.
func dailyHistory(n int, amount string, current *models.Transaction) []*models.Transaction {
	out := make([]*models.Transaction, n)
	for i := 0; i < n; i++ {
		out[i] = newTx(
			withAmount(amount),
			withCreatedAt(current.CreatedAt.Add(-time.Duration(i+1)*24*time.Hour)),
			withDevice(current.DeviceID, current.DeviceFingerprint),
			withDecision(models.DecisionApproved),
		)
	}
	return out
}

func assertScoreMatchesAlerts(t *testing.T, p Partial) {
	t.Helper()
	if p.Score == 0 {
		assert.Empty(t, p.Alerts)
		return
	}
	require.NotEmpty(t, p.Alerts)
	total := 0
	for _, a := range p.Alerts {
		total += a.Score()
	}
	assert.Equal(t, total, p.Score)
}

func TestVelocityAbuseRule(t *testing.T) {
	cur := newTx()
	recent := []*models.Transaction{
		newTx(withCreatedAt(cur.CreatedAt.Add(-time.Minute))),
		newTx(withCreatedAt(cur.CreatedAt.Add(-2 * time.Minute))),
	}

	p := velocityAbuseRule{}.Evaluate(context.Background(), cur, snapshotFor(testCard(), 1, cur, recent...))
	assert.Equal(t, []models.AlertType{models.AlertVelocityAbuse}, p.Alerts)
	assert.Equal(t, 35, p.Score)
	assertScoreMatchesAlerts(t, p)

	// Only two inside the window: no trigger
	p = velocityAbuseRule{}.Evaluate(context.Background(), cur, snapshotFor(testCard(), 1, cur, recent[0]))
	assert.Empty(t, p.Alerts)
	assert.Zero(t, p.Score)
}

func TestBurstActivityRule(t *testing.T) {
	cur := newTx()

	// Baseline below 5 is inapplicable even with a dense burst
	sparse := []*models.Transaction{
		newTx(withCreatedAt(cur.CreatedAt.Add(-time.Minute))),
		newTx(withCreatedAt(cur.CreatedAt.Add(-2 * time.Minute))),
	}
	p := burstActivityRule{}.Evaluate(context.Background(), cur, snapshotFor(testCard(), 1, cur, sparse...))
	assert.Empty(t, p.Alerts)

	// Baseline 6 over 24h, burst of 3 in 5min: 3 > 6/24*3 = 0.75
	history := []*models.Transaction{
		newTx(withCreatedAt(cur.CreatedAt.Add(-time.Minute))),
		newTx(withCreatedAt(cur.CreatedAt.Add(-2 * time.Minute))),
		newTx(withCreatedAt(cur.CreatedAt.Add(-10 * time.Hour))),
		newTx(withCreatedAt(cur.CreatedAt.Add(-15 * time.Hour))),
		newTx(withCreatedAt(cur.CreatedAt.Add(-20 * time.Hour))),
	}
	p = burstActivityRule{}.Evaluate(context.Background(), cur, snapshotFor(testCard(), 1, cur, history...))
	assert.Equal(t, []models.AlertType{models.AlertBurstActivity}, p.Alerts)
	assertScoreMatchesAlerts(t, p)
}

func TestCardTestingRule(t *testing.T) {
	cur := newTx(withAmount("2.00"))

	// Three very low amounts inside ten minutes
	probes := []*models.Transaction{
		newTx(withAmount("1.00"), withCreatedAt(cur.CreatedAt.Add(-90*time.Second))),
		newTx(withAmount("1.50"), withCreatedAt(cur.CreatedAt.Add(-60*time.Second))),
	}
	p := cardTestingRule{}.Evaluate(context.Background(), cur, snapshotFor(testCard(), 1, cur, probes...))
	assert.Equal(t, []models.AlertType{models.AlertCardTesting}, p.Alerts)
	assert.Equal(t, 50, p.Score)

	// Five low (≤5) amounts also trigger
	cur5 := newTx(withAmount("4.00"))
	lows := []*models.Transaction{
		newTx(withAmount("3.00"), withCreatedAt(cur5.CreatedAt.Add(-1*time.Minute))),
		newTx(withAmount("4.50"), withCreatedAt(cur5.CreatedAt.Add(-2*time.Minute))),
		newTx(withAmount("5.00"), withCreatedAt(cur5.CreatedAt.Add(-3*time.Minute))),
		newTx(withAmount("3.75"), withCreatedAt(cur5.CreatedAt.Add(-4*time.Minute))),
	}
	p = cardTestingRule{}.Evaluate(context.Background(), cur5, snapshotFor(testCard(), 1, cur5, lows...))
	assert.Equal(t, []models.AlertType{models.AlertCardTesting}, p.Alerts)

	// Normal amounts stay silent
	normal := newTx(withAmount("80.00"))
	p = cardTestingRule{}.Evaluate(context.Background(), normal, snapshotFor(testCard(), 1, normal))
	assert.Empty(t, p.Alerts)
}

func TestMicroTransactionRule(t *testing.T) {
	cur := newTx(withAmount("1.00"))

	// 4 elements: below minimum history
	few := []*models.Transaction{
		newTx(withAmount("1.00")), newTx(withAmount("0.50")), newTx(withAmount("1.99")),
	}
	p := microTransactionRule{}.Evaluate(context.Background(), cur, snapshotFor(testCard(), 1, cur, few...))
	assert.Empty(t, p.Alerts)

	// 4 of 6 micro = 0.66 ≥ 0.6
	mixed := []*models.Transaction{
		newTx(withAmount("0.50")), newTx(withAmount("1.20")), newTx(withAmount("2.00")),
		newTx(withAmount("90.00")), newTx(withAmount("85.00")),
	}
	p = microTransactionRule{}.Evaluate(context.Background(), cur, snapshotFor(testCard(), 1, cur, mixed...))
	assert.Equal(t, []models.AlertType{models.AlertMicroTransactionPattern}, p.Alerts)
	assertScoreMatchesAlerts(t, p)
}

func TestDeclineThenApproveRule(t *testing.T) {
	blockedHistory := []*models.Transaction{
		newTx(withDecision(models.DecisionBlocked), withCreatedAt(baseTime.Add(-time.Minute))),
		newTx(withDecision(models.DecisionBlocked), withCreatedAt(baseTime.Add(-2*time.Minute))),
		newTx(withDecision(models.DecisionBlocked), withCreatedAt(baseTime.Add(-3*time.Minute))),
	}

	// Current not approved: inapplicable
	cur := newTx(withDecision(models.DecisionReview))
	p := declineThenApproveRule{}.Evaluate(context.Background(), cur, snapshotFor(testCard(), 1, cur, blockedHistory...))
	assert.Empty(t, p.Alerts)

	// Approved after three declines: trigger
	cur = newTx(withDecision(models.DecisionApproved))
	p = declineThenApproveRule{}.Evaluate(context.Background(), cur, snapshotFor(testCard(), 1, cur, blockedHistory...))
	assert.Equal(t, []models.AlertType{models.AlertDeclineThenApprovePattern}, p.Alerts)

	// Only two declines among the three preceding: no trigger
	two := []*models.Transaction{
		blockedHistory[0],
		newTx(withDecision(models.DecisionApproved), withCreatedAt(baseTime.Add(-2*time.Minute))),
		blockedHistory[2],
	}
	p = declineThenApproveRule{}.Evaluate(context.Background(), cur, snapshotFor(testCard(), 1, cur, two...))
	assert.Empty(t, p.Alerts)
}

func TestHighAmountRule(t *testing.T) {
	// Scenario: 10 prior transactions averaging 100, current 180
	cur := newTx(withAmount("180.00"))
	history := dailyHistory(10, "100.00", cur)
	snap := snapshotFor(testCard(), 1, cur, history...)

	p := highAmountRule{}.Evaluate(context.Background(), cur, snap)
	assert.Equal(t, []models.AlertType{models.AlertHighAmount}, p.Alerts)
	assert.Equal(t, 20, p.Score)

	// Size-4 history never triggers a ≥5 rule
	small := snapshotFor(testCard(), 1, cur, dailyHistory(3, "10.00", cur)...)
	p = highAmountRule{}.Evaluate(context.Background(), cur, small)
	assert.Empty(t, p.Alerts)
}

func TestLimitExceededRule(t *testing.T) {
	card := testCard()
	card.CreditLimit = decimal.RequireFromString("1000.00")

	cur := newTx(withAmount("200.00"))
	history := dailyHistory(9, "100.00", cur) // used = 900 + 200 = 1100 > 1000 - ...
	snap := snapshotFor(card, 1, cur, history...)

	p := limitExceededRule{}.Evaluate(context.Background(), cur, snap)
	assert.Equal(t, []models.AlertType{models.AlertLimitExceeded}, p.Alerts)

	card2 := testCard()
	cur2 := newTx(withAmount("50.00"))
	p = limitExceededRule{}.Evaluate(context.Background(), cur2, snapshotFor(card2, 1, cur2))
	assert.Empty(t, p.Alerts)
}

func TestCardLimitRule(t *testing.T) {
	card := testCard()
	card.RemainingLimit = decimal.RequireFromString("20.00")

	cur := newTx(withAmount("25.00"))
	p := cardLimitRule{}.Evaluate(context.Background(), cur, snapshotFor(card, 1, cur))
	assert.Contains(t, p.Alerts, models.AlertCreditLimitReached)
	assertScoreMatchesAlerts(t, p)

	// Expiration within 30 days adds the second alert
	card.ExpirationDate = cur.CreatedAt.Add(10 * 24 * time.Hour)
	p = cardLimitRule{}.Evaluate(context.Background(), cur, snapshotFor(card, 1, cur))
	assert.Contains(t, p.Alerts, models.AlertCreditLimitReached)
	assert.Contains(t, p.Alerts, models.AlertExpirationDateApproaching)
	assertScoreMatchesAlerts(t, p)
}

type staticResolver struct{ code string }

func (r staticResolver) ResolveCountry(context.Context, string, string) string { return r.code }

func TestHighRiskCountryRule(t *testing.T) {
	cur := newTx()

	p := highRiskCountryRule{resolver: staticResolver{code: "RU"}}.
		Evaluate(context.Background(), cur, snapshotFor(testCard(), 1, cur))
	assert.Equal(t, []models.AlertType{models.AlertHighRiskCountry}, p.Alerts)

	p = highRiskCountryRule{resolver: staticResolver{code: "BR"}}.
		Evaluate(context.Background(), cur, snapshotFor(testCard(), 1, cur))
	assert.Empty(t, p.Alerts)

	// Unresolved lookups leave the rule inapplicable
	p = highRiskCountryRule{resolver: staticResolver{code: country.Unresolved}}.
		Evaluate(context.Background(), cur, snapshotFor(testCard(), 1, cur))
	assert.Empty(t, p.Alerts)
}

func TestLocationAnomalyRule(t *testing.T) {
	// São Paulo then New York
	cur := newTx(withCoords("40.712776", "-74.005974"))
	prev := newTx(
		withCoords("-23.550520", "-46.633308"),
		withCreatedAt(cur.CreatedAt.Add(-10*time.Minute)),
	)

	p := locationAnomalyRule{}.Evaluate(context.Background(), cur, snapshotFor(testCard(), 1, cur, prev))
	assert.Equal(t, []models.AlertType{models.AlertLocationAnomaly}, p.Alerts)

	// Nearby previous point stays silent
	near := newTx(
		withCoords("40.730000", "-73.990000"),
		withCreatedAt(cur.CreatedAt.Add(-10*time.Minute)),
	)
	p = locationAnomalyRule{}.Evaluate(context.Background(), cur, snapshotFor(testCard(), 1, cur, near))
	assert.Empty(t, p.Alerts)

	// Malformed coordinates leave the rule inapplicable
	bad := newTx(withCoords("garbage", "0"), withCreatedAt(cur.CreatedAt.Add(-10*time.Minute)))
	p = locationAnomalyRule{}.Evaluate(context.Background(), cur, snapshotFor(testCard(), 1, cur, bad))
	assert.Empty(t, p.Alerts)
}

func TestImpossibleTravelRule(t *testing.T) {
	// Spec scenario: São Paulo → New York in 10 minutes
	cur := newTx(withCoords("40.712776", "-74.005974"), withAmount("60.00"))
	prev := newTx(
		withCoords("-23.550520", "-46.633308"),
		withAmount("50.00"),
		withCreatedAt(cur.CreatedAt.Add(-10*time.Minute)),
	)

	p := impossibleTravelRule{}.Evaluate(context.Background(), cur, snapshotFor(testCard(), 1, cur, prev))
	assert.Equal(t, []models.AlertType{models.AlertImpossibleTravel}, p.Alerts)

	// Same jump over two hours is just a flight
	slow := newTx(
		withCoords("-23.550520", "-46.633308"),
		withCreatedAt(cur.CreatedAt.Add(-2*time.Hour)),
	)
	p = impossibleTravelRule{}.Evaluate(context.Background(), cur, snapshotFor(testCard(), 1, cur, slow))
	assert.Empty(t, p.Alerts)

	// Non-positive Δt is skipped
	future := newTx(
		withCoords("-23.550520", "-46.633308"),
		withCreatedAt(cur.CreatedAt),
	)
	snap := snapshotFor(testCard(), 1, cur)
	snap.Last20 = append(snap.Last20, future)
	p = impossibleTravelRule{}.Evaluate(context.Background(), cur, snap)
	assert.Empty(t, p.Alerts)
}

func TestNewDeviceRule(t *testing.T) {
	deviceA := uuid.New()
	deviceB := uuid.New()

	// No other history: inapplicable
	cur := newTx(withDevice(deviceB, "fp-b"))
	p := newDeviceRule{}.Evaluate(context.Background(), cur, snapshotFor(testCard(), 1, cur))
	assert.Empty(t, p.Alerts)

	// History only on device A, current on device B: new device
	prior := newTx(withDevice(deviceA, "fp-a"), withCreatedAt(cur.CreatedAt.Add(-time.Hour)))
	p = newDeviceRule{}.Evaluate(context.Background(), cur, snapshotFor(testCard(), 1, cur, prior))
	assert.Equal(t, []models.AlertType{models.AlertNewDeviceDetected}, p.Alerts)
	assert.Equal(t, 15, p.Score)

	// Device already seen: silent
	same := newTx(withDevice(deviceB, "fp-b"), withCreatedAt(cur.CreatedAt.Add(-time.Hour)))
	p = newDeviceRule{}.Evaluate(context.Background(), cur, snapshotFor(testCard(), 1, cur, same))
	assert.Empty(t, p.Alerts)
}

func TestFingerprintChangeRule(t *testing.T) {
	device := uuid.New()
	cur := newTx(withDevice(device, "fp-new"))

	// Known device with a different prior fingerprint
	prior := newTx(withDevice(device, "fp-old"), withCreatedAt(cur.CreatedAt.Add(-time.Hour)))
	p := fingerprintChangeRule{}.Evaluate(context.Background(), cur, snapshotFor(testCard(), 1, cur, prior))
	assert.Equal(t, []models.AlertType{models.AlertDeviceFingerprintChange}, p.Alerts)

	// Matching fingerprint: silent
	matching := newTx(withDevice(device, "fp-new"), withCreatedAt(cur.CreatedAt.Add(-time.Hour)))
	p = fingerprintChangeRule{}.Evaluate(context.Background(), cur, snapshotFor(testCard(), 1, cur, matching))
	assert.Empty(t, p.Alerts)

	// New device: fingerprint rule defers to the new-device rule
	other := newTx(withDevice(uuid.New(), "fp-x"), withCreatedAt(cur.CreatedAt.Add(-time.Hour)))
	p = fingerprintChangeRule{}.Evaluate(context.Background(), cur, snapshotFor(testCard(), 1, cur, other))
	assert.Empty(t, p.Alerts)
}

func TestTorProxyRule(t *testing.T) {
	cidr, err := geo.ParseCIDR("2001:67c:2e8::/48")
	require.NoError(t, err)
	blacklist := vpn.FromCIDRs([]geo.CIDR{cidr})

	cur := newTx()
	cur.IPAddress = "2001:67c:2e8::1"
	p := torProxyRule{blacklist: blacklist}.Evaluate(context.Background(), cur, snapshotFor(testCard(), 1, cur))
	assert.Equal(t, []models.AlertType{models.AlertTorOrProxyDetected}, p.Alerts)
	assert.Equal(t, 35, p.Score)

	clean := newTx()
	clean.IPAddress = "2001:db8::1"
	p = torProxyRule{blacklist: blacklist}.Evaluate(context.Background(), clean, snapshotFor(testCard(), 1, clean))
	assert.Empty(t, p.Alerts)
}

func TestMultipleCardsRule(t *testing.T) {
	cur := newTx()

	p := multipleCardsRule{}.Evaluate(context.Background(), cur, snapshotFor(testCard(), 4, cur))
	assert.Equal(t, []models.AlertType{models.AlertMultipleCardsSameDevice}, p.Alerts)

	p = multipleCardsRule{}.Evaluate(context.Background(), cur, snapshotFor(testCard(), 3, cur))
	assert.Empty(t, p.Alerts)
}

func TestMultipleFailedRule(t *testing.T) {
	cur := newTx()
	blocked := []*models.Transaction{
		newTx(withDecision(models.DecisionBlocked), withCreatedAt(cur.CreatedAt.Add(-time.Minute))),
		newTx(withDecision(models.DecisionBlocked), withCreatedAt(cur.CreatedAt.Add(-2*time.Minute))),
		newTx(withDecision(models.DecisionBlocked), withCreatedAt(cur.CreatedAt.Add(-3*time.Minute))),
	}

	p := multipleFailedRule{}.Evaluate(context.Background(), cur, snapshotFor(testCard(), 1, cur, blocked...))
	assert.Equal(t, []models.AlertType{models.AlertMultipleFailedAttempts}, p.Alerts)

	// Blocked transactions outside the 5-minute window do not count
	stale := []*models.Transaction{
		newTx(withDecision(models.DecisionBlocked), withCreatedAt(cur.CreatedAt.Add(-time.Hour))),
		newTx(withDecision(models.DecisionBlocked), withCreatedAt(cur.CreatedAt.Add(-2*time.Hour))),
		newTx(withDecision(models.DecisionBlocked), withCreatedAt(cur.CreatedAt.Add(-3*time.Hour))),
	}
	p = multipleFailedRule{}.Evaluate(context.Background(), cur, snapshotFor(testCard(), 1, cur, stale...))
	assert.Empty(t, p.Alerts)
}

func TestSuccessAfterFailureRule(t *testing.T) {
	cur := newTx(withDecision(models.DecisionApproved))
	blocked := []*models.Transaction{
		newTx(withDecision(models.DecisionBlocked), withCreatedAt(cur.CreatedAt.Add(-time.Minute))),
		newTx(withDecision(models.DecisionBlocked), withCreatedAt(cur.CreatedAt.Add(-2*time.Minute))),
	}

	p := successAfterFailureRule{}.Evaluate(context.Background(), cur, snapshotFor(testCard(), 1, cur, blocked...))
	assert.Equal(t, []models.AlertType{models.AlertSuspiciousSuccessAfterFailure}, p.Alerts)

	// Not approved: inapplicable
	review := newTx(withDecision(models.DecisionReview))
	p = successAfterFailureRule{}.Evaluate(context.Background(), review, snapshotFor(testCard(), 1, review, blocked...))
	assert.Empty(t, p.Alerts)

	// Declines beyond the first five history slots are ignored
	farHistory := make([]*models.Transaction, 0, 6)
	for i := 0; i < 4; i++ {
		farHistory = append(farHistory,
			newTx(withDecision(models.DecisionApproved), withCreatedAt(cur.CreatedAt.Add(-time.Duration(i+1)*time.Minute))))
	}
	farHistory = append(farHistory,
		newTx(withDecision(models.DecisionBlocked), withCreatedAt(cur.CreatedAt.Add(-10*time.Minute))),
		newTx(withDecision(models.DecisionBlocked), withCreatedAt(cur.CreatedAt.Add(-11*time.Minute))))
	p = successAfterFailureRule{}.Evaluate(context.Background(), cur, snapshotFor(testCard(), 1, cur, farHistory...))
	assert.Empty(t, p.Alerts)
}

func TestTimeOfDayRule(t *testing.T) {
	// History all at 14:00; current at 03:00 → |3 - ~14| > 4
	cur := newTx(withCreatedAt(time.Date(2026, 3, 14, 3, 0, 0, 0, time.UTC)))
	history := make([]*models.Transaction, 10)
	for i := range history {
		history[i] = newTx(withCreatedAt(time.Date(2026, 3, 4+i, 14, 0, 0, 0, time.UTC)))
	}

	p := timeOfDayRule{}.Evaluate(context.Background(), cur, snapshotFor(testCard(), 1, cur, history...))
	assert.Equal(t, []models.AlertType{models.AlertTimeOfDayAnomaly}, p.Alerts)
	assert.Equal(t, 10, p.Score)

	// Current at the usual hour: silent
	usual := newTx(withCreatedAt(time.Date(2026, 3, 14, 14, 0, 0, 0, time.UTC)))
	p = timeOfDayRule{}.Evaluate(context.Background(), usual, snapshotFor(testCard(), 1, usual, history...))
	assert.Empty(t, p.Alerts)

	// Short history: inapplicable
	p = timeOfDayRule{}.Evaluate(context.Background(), cur, snapshotFor(testCard(), 1, cur, history[:5]...))
	assert.Empty(t, p.Alerts)
}

func TestAnomalyModelRule(t *testing.T) {
	// Prior amounts alternate 90/110 around mean 100; σ = 10
	cur := newTx(withAmount("200.00"))
	history := make([]*models.Transaction, 10)
	for i := range history {
		amount := "90.00"
		if i%2 == 0 {
			amount = "110.00"
		}
		history[i] = newTx(withAmount(amount), withCreatedAt(cur.CreatedAt.Add(-time.Duration(i+1)*time.Hour)))
	}

	p := anomalyModelRule{}.Evaluate(context.Background(), cur, snapshotFor(testCard(), 1, cur, history...))
	assert.Equal(t, []models.AlertType{models.AlertAnomalyModelTriggered}, p.Alerts)
	assert.Equal(t, 30, p.Score)

	// Within 2.5σ: silent
	tame := newTx(withAmount("120.00"))
	p = anomalyModelRule{}.Evaluate(context.Background(), tame, snapshotFor(testCard(), 1, tame, history...))
	assert.Empty(t, p.Alerts)

	// Constant history has σ = 0: inapplicable
	flat := dailyHistory(10, "100.00", cur)
	p = anomalyModelRule{}.Evaluate(context.Background(), cur, snapshotFor(testCard(), 1, cur, flat...))
	assert.Empty(t, p.Alerts)

	// Fewer than 10 prior elements: inapplicable
	p = anomalyModelRule{}.Evaluate(context.Background(), cur, snapshotFor(testCard(), 1, cur, history[:9]...))
	assert.Empty(t, p.Alerts)
}

func TestEveryRule_ScoreZeroIffNoAlerts(t *testing.T) {
	cur := newTx()
	snap := snapshotFor(testCard(), 1, cur, dailyHistory(15, "100.00", cur)...)

	v := NewValidator(nil, nil, nil, staticResolver{code: "BR"}, vpn.FromCIDRs(nil))
	for _, rule := range v.Rules() {
		assertScoreMatchesAlerts(t, rule.Evaluate(context.Background(), cur, snap))
	}
}

func TestSnapshotWindows(t *testing.T) {
	cur := newTx()
	history := []*models.Transaction{
		newTx(withCreatedAt(cur.CreatedAt.Add(-2 * time.Minute))),
		newTx(withCreatedAt(cur.CreatedAt.Add(-7 * time.Minute))),
		newTx(withCreatedAt(cur.CreatedAt.Add(-3 * time.Hour))),
		newTx(withCreatedAt(cur.CreatedAt.Add(-30 * time.Hour))),
	}
	snap := snapshotFor(testCard(), 1, cur, history...)

	assert.Len(t, snap.Last20, 5)
	assert.Len(t, snap.Last10, 5)
	assert.Len(t, snap.Last24Hours, 4) // current + 2min + 7min + 3h
	assert.Len(t, snap.Last10Minutes, 3)
	assert.Len(t, snap.Last5Minutes, 2)
}

func TestSnapshotWindows_ManyEntries(t *testing.T) {
	cur := newTx()
	history := make([]*models.Transaction, 25)
	for i := range history {
		history[i] = newTx(withCreatedAt(cur.CreatedAt.Add(-time.Duration(i+1) * time.Minute)))
	}
	snap := snapshotFor(testCard(), 1, cur, history...)

	assert.Len(t, snap.Last20, 20)
	assert.Len(t, snap.Last10, 10)
	assert.Equal(t, cur, snap.Last20[0])
}

func ExamplePartial() {
	p := triggered(models.AlertHighAmount)
	fmt.Println(p.Score, len(p.Alerts))
	// Output: 20 1
}
