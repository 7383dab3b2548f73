package alerts_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safepay/fraud-engine/internal/alerts"
	"github.com/safepay/fraud-engine/internal/models"
)

func TestSeverityThresholds(t *testing.T) {
	tests := []struct {
		score int
		want  string
	}{
		{0, models.SeverityLow},
		{49, models.SeverityLow},
		{50, models.SeverityMedium},
		{69, models.SeverityMedium},
		{70, models.SeverityHigh},
		{99, models.SeverityHigh},
		{100, models.SeverityCritical},
		{180, models.SeverityCritical},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, alerts.Severity(tt.score), "score %d", tt.score)
	}
}

func TestSeverity_MonotoneInScore(t *testing.T) {
	rank := map[string]int{
		models.SeverityLow:      0,
		models.SeverityMedium:   1,
		models.SeverityHigh:     2,
		models.SeverityCritical: 3,
	}
	prev := -1
	for score := 0; score <= 150; score++ {
		cur := rank[alerts.Severity(score)]
		assert.GreaterOrEqual(t, cur, prev, "severity must not decrease at score %d", score)
		prev = cur
	}
}

func TestNew(t *testing.T) {
	tx := &models.Transaction{ID: uuid.New(), CardID: uuid.New()}
	tags := []models.AlertType{models.AlertCardTesting, models.AlertVelocityAbuse}

	alert := alerts.New(tx, tags, 85)

	require.NotNil(t, alert)
	assert.Equal(t, tx.ID, alert.TransactionID)
	assert.Equal(t, tx.CardID, alert.CardID)
	assert.Equal(t, tags, alert.AlertTypes)
	assert.Equal(t, 85, alert.FraudScore)
	assert.Equal(t, models.SeverityHigh, alert.Severity)
	assert.Equal(t, 85, alert.Probability)
	assert.Equal(t, models.AlertStatusPending, alert.Status)
	assert.WithinDuration(t, time.Now(), alert.CreatedAt, time.Minute)
}

func TestNew_ProbabilityCappedAt100(t *testing.T) {
	tx := &models.Transaction{ID: uuid.New(), CardID: uuid.New()}
	alert := alerts.New(tx, nil, 145)
	assert.Equal(t, 100, alert.Probability)
	assert.Equal(t, 145, alert.FraudScore)
}

func TestNew_DescriptionTiers(t *testing.T) {
	tx := &models.Transaction{ID: uuid.New(), CardID: uuid.New()}

	byScore := func(score int) string { return alerts.New(tx, nil, score).Description }

	assert.Equal(t, byScore(80), byScore(120), "both in the critical tier")
	assert.NotEqual(t, byScore(79), byScore(80))
	assert.NotEqual(t, byScore(49), byScore(50))
	assert.NotEqual(t, byScore(29), byScore(30))
	assert.Equal(t, byScore(0), byScore(29))
}
