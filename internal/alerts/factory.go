// Package alerts composes persisted fraud alerts from evaluation results.
package alerts

import (
	"time"

	"github.com/safepay/fraud-engine/internal/models"
)

// Severity thresholds over the fraud score.
const (
	criticalThreshold = 100
	highThreshold     = 70
	mediumThreshold   = 50
)

// Fixed human-readable descriptions, chosen by score tier.
const (
	descCritical = "Critical fraud risk: multiple strong signals triggered, block recommended"
	descHighRisk = "High fraud risk: manual review required before settlement"
	descAtypical = "Atypical behavior detected for this card"
	descNormal   = "Low risk: transaction within the card's normal behavior"
)

// New builds the alert record for a transaction. Pure function: no storage,
// no clock beyond the creation timestamp.
func New(tx *models.Transaction, tags []models.AlertType, score int) *models.FraudAlert {
	return &models.FraudAlert{
		TransactionID: tx.ID,
		CardID:        tx.CardID,
		AlertTypes:    tags,
		FraudScore:    score,
		Severity:      Severity(score),
		Probability:   probability(score),
		Description:   description(score),
		Status:        models.AlertStatusPending,
		CreatedAt:     time.Now(),
	}
}

// Severity classifies a fraud score.
func Severity(score int) string {
	switch {
	case score >= criticalThreshold:
		return models.SeverityCritical
	case score >= highThreshold:
		return models.SeverityHigh
	case score >= mediumThreshold:
		return models.SeverityMedium
	default:
		return models.SeverityLow
	}
}

func probability(score int) int {
	if score > 100 {
		return 100
	}
	if score < 0 {
		return 0
	}
	return score
}

func description(score int) string {
	switch {
	case score >= 80:
		return descCritical
	case score >= 50:
		return descHighRisk
	case score >= 30:
		return descAtypical
	default:
		return descNormal
	}
}
