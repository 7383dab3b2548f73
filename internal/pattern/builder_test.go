package pattern

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safepay/fraud-engine/internal/models"
)

func tx(amount string, at time.Time, category string) *models.Transaction {
	return &models.Transaction{
		ID:               uuid.New(),
		Amount:           decimal.RequireFromString(amount),
		MerchantCategory: category,
		TransactionAt:    at,
		CreatedAt:        at,
	}
}

func TestBuild_EmptyHistory(t *testing.T) {
	cardID := uuid.New()
	p := Build(cardID, nil)

	require.NotNil(t, p)
	assert.Equal(t, cardID, p.CardID)
	assert.Zero(t, p.TransactionCount)
	assert.Zero(t, p.AvgAmount)
	assert.Empty(t, p.CommonCategories)
}

func TestBuild_SingleTransaction(t *testing.T) {
	at := time.Date(2026, 5, 2, 10, 0, 0, 0, time.UTC) // a Saturday
	p := Build(uuid.New(), []*models.Transaction{tx("50.00", at, models.CategoryGrocery)})

	// Clamped indexing keeps every quantile at the only element
	assert.Equal(t, 50.0, p.AvgAmount)
	assert.Equal(t, 50.0, p.MedianAmount)
	assert.Equal(t, 50.0, p.Q1Amount)
	assert.Equal(t, 50.0, p.Q3Amount)
	assert.Equal(t, 50.0, p.MaxAmount)
	assert.Equal(t, 50.0, p.P95Amount)
	assert.Zero(t, p.StdDevAmount)
	assert.Equal(t, 1.0, p.WeekendRatio)
	assert.Equal(t, []int{10}, p.PreferredHours)
}

func TestBuild_QuantileOrdering(t *testing.T) {
	base := time.Date(2026, 4, 6, 9, 0, 0, 0, time.UTC)
	var txs []*models.Transaction
	amounts := []string{"5.00", "12.50", "30.00", "47.25", "60.00", "85.10", "120.00", "240.00", "19.99", "74.50"}
	for i, a := range amounts {
		txs = append(txs, tx(a, base.Add(time.Duration(i)*time.Hour), models.CategoryRetail))
	}

	p := Build(uuid.New(), txs)

	assert.LessOrEqual(t, p.Q1Amount, p.MedianAmount)
	assert.LessOrEqual(t, p.MedianAmount, p.Q3Amount)
	assert.LessOrEqual(t, p.Q3Amount, p.MaxAmount)
	assert.GreaterOrEqual(t, p.StdDevAmount, 0.0)
	assert.GreaterOrEqual(t, p.AvgAmount, 0.0)
	assert.Equal(t, p.Q3Amount-p.Q1Amount, p.IQRAmount)
	assert.LessOrEqual(t, p.P95Amount, p.MaxAmount)

	total := 0
	for _, c := range p.TicketBuckets {
		total += c
	}
	assert.Equal(t, len(txs), total, "every amount lands in exactly one bucket")
}

func TestBuild_TopCategories(t *testing.T) {
	base := time.Date(2026, 4, 6, 12, 0, 0, 0, time.UTC)
	var txs []*models.Transaction
	add := func(category string, n int) {
		for i := 0; i < n; i++ {
			txs = append(txs, tx("10.00", base.Add(time.Duration(len(txs))*time.Minute), category))
		}
	}
	add(models.CategoryGrocery, 6)
	add(models.CategoryRestaurant, 5)
	add(models.CategoryGasStation, 4)
	add(models.CategoryPharmacy, 3)
	add(models.CategoryRetail, 2)
	add(models.CategoryTravel, 1)

	p := Build(uuid.New(), txs)

	require.Len(t, p.CommonCategories, 5)
	assert.Equal(t, models.CategoryGrocery, p.CommonCategories[0])
	assert.NotContains(t, p.CommonCategories, models.CategoryTravel)
	assert.Greater(t, p.CategoryEntropy, 0.0)
}

func TestBuild_EntropyZeroForSingleCategory(t *testing.T) {
	base := time.Date(2026, 4, 6, 12, 0, 0, 0, time.UTC)
	var txs []*models.Transaction
	for i := 0; i < 8; i++ {
		txs = append(txs, tx("10.00", base.Add(time.Duration(i)*time.Hour), models.CategoryGrocery))
	}

	p := Build(uuid.New(), txs)
	assert.Zero(t, p.CategoryEntropy)
	assert.Equal(t, []string{models.CategoryGrocery}, p.CommonCategories)
}

func TestBuild_TemporalStats(t *testing.T) {
	// 3 transactions at 09:00 across weekdays, 2 at 22:00 on a weekend day
	txs := []*models.Transaction{
		tx("10.00", time.Date(2026, 4, 6, 9, 0, 0, 0, time.UTC), models.CategoryGrocery),  // Monday
		tx("10.00", time.Date(2026, 4, 7, 9, 10, 0, 0, time.UTC), models.CategoryGrocery), // Tuesday
		tx("10.00", time.Date(2026, 4, 8, 9, 20, 0, 0, time.UTC), models.CategoryGrocery), // Wednesday
		tx("10.00", time.Date(2026, 4, 11, 22, 0, 0, 0, time.UTC), models.CategoryGrocery), // Saturday
		tx("10.00", time.Date(2026, 4, 11, 22, 30, 0, 0, time.UTC), models.CategoryGrocery),
	}

	p := Build(uuid.New(), txs)

	require.NotEmpty(t, p.PreferredHours)
	assert.Equal(t, 9, p.PreferredHours[0])
	assert.Contains(t, p.PreferredHours, 22)
	assert.Contains(t, p.PreferredWeekdays, "Saturday")
	assert.InDelta(t, 0.4, p.WeekendRatio, 1e-9)
	assert.Equal(t, 2, p.MaxTxPerHour)
	// 4 distinct days, 5 transactions
	assert.InDelta(t, 1.25, p.DailyFrequency, 1e-9)
	assert.Greater(t, p.TemporalConsistency, 0.0)
}

func TestClampIndex(t *testing.T) {
	assert.Equal(t, 0, clampIndex(-1, 5))
	assert.Equal(t, 4, clampIndex(9, 5))
	assert.Equal(t, 2, clampIndex(2, 5))
	assert.Equal(t, 0, clampIndex(0, 1))
}
