package decision

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/safepay/fraud-engine/internal/models"
	"github.com/safepay/fraud-engine/internal/validation"
)

func TestDecide_TierBoundaries(t *testing.T) {
	tests := []struct {
		score    int
		decision string
		fraud    bool
	}{
		{0, models.DecisionApproved, false},
		{24, models.DecisionApproved, false},
		{25, models.DecisionReview, false},
		{59, models.DecisionReview, false},
		{60, models.DecisionBlocked, true},
		{120, models.DecisionBlocked, true},
	}
	for _, tt := range tests {
		decision, fraud := Decide(validation.Result{Score: tt.score}, false)
		assert.Equal(t, tt.decision, decision, "score %d", tt.score)
		assert.Equal(t, tt.fraud, fraud, "score %d", tt.score)
	}
}

func TestDecide_SuccessForceApproves(t *testing.T) {
	decision, fraud := Decide(validation.Result{Score: 80}, true)
	assert.Equal(t, models.DecisionApproved, decision)
	// The fraud flag still reflects the tier mapping
	assert.True(t, fraud)

	decision, fraud = Decide(validation.Result{Score: 95}, true)
	assert.Equal(t, models.DecisionApproved, decision)
	assert.True(t, fraud)
}

func TestDecide_CreditLimitOverridesEverything(t *testing.T) {
	result := validation.Result{
		Score:  10,
		Alerts: []models.AlertType{models.AlertCreditLimitReached},
	}

	// Low score alone would approve; the decisive alert blocks
	decision, fraud := Decide(result, false)
	assert.Equal(t, models.DecisionBlocked, decision)
	assert.False(t, fraud)

	// Even successForce loses to the credit-limit block
	decision, _ = Decide(result, true)
	assert.Equal(t, models.DecisionBlocked, decision)
}

func TestDecide_ForceWithoutCreditLimitWins(t *testing.T) {
	result := validation.Result{
		Score:  80,
		Alerts: []models.AlertType{models.AlertVelocityAbuse, models.AlertCardTesting},
	}
	decision, _ := Decide(result, true)
	assert.Equal(t, models.DecisionApproved, decision)
}

func TestDecide_Idempotent(t *testing.T) {
	result := validation.Result{
		Score:  55,
		Alerts: []models.AlertType{models.AlertHighAmount, models.AlertVelocityAbuse},
	}
	d1, f1 := Decide(result, false)
	d2, f2 := Decide(result, false)
	assert.Equal(t, d1, d2)
	assert.Equal(t, f1, f2)
}
