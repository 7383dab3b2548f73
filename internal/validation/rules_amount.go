package validation

import (
	"context"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/safepay/fraud-engine/internal/models"
)

// highAmountRule flags an amount more than 1.5x the card's recent mean.
type highAmountRule struct{}

func (highAmountRule) Name() string { return "high_amount" }

func (highAmountRule) Evaluate(_ context.Context, tx *models.Transaction, snap *Snapshot) Partial {
	if len(snap.Last20) < 5 {
		return Partial{}
	}
	mean := meanAmount(snap.Last20)
	if tx.Amount.InexactFloat64() > mean*1.5 {
		return triggered(models.AlertHighAmount)
	}
	return Partial{}
}

// limitExceededRule flags an amount that would not fit in what the recent
// history leaves of the credit limit.
type limitExceededRule struct{}

func (limitExceededRule) Name() string { return "limit_exceeded" }

func (limitExceededRule) Evaluate(_ context.Context, tx *models.Transaction, snap *Snapshot) Partial {
	if snap.Card == nil {
		return Partial{}
	}
	used := sumAmounts(snap.Last20)
	if tx.Amount.Cmp(snap.Card.CreditLimit.Sub(used)) > 0 {
		return triggered(models.AlertLimitExceeded)
	}
	return Partial{}
}

// cardLimitRule covers the two card-level checks: remaining credit and
// approaching expiration. It is the one rule that may add two alerts.
// CREDIT_LIMIT_REACHED is decisive: the decision service forces BLOCKED when
// it is present.
type cardLimitRule struct{}

func (cardLimitRule) Name() string { return "card_limit" }

func (cardLimitRule) Evaluate(_ context.Context, tx *models.Transaction, snap *Snapshot) Partial {
	if snap.Card == nil {
		return Partial{}
	}

	var out Partial
	if tx.Amount.Cmp(snap.Card.RemainingLimit) > 0 {
		out.Score += models.AlertCreditLimitReached.Score()
		out.Alerts = append(out.Alerts, models.AlertCreditLimitReached)
	}
	if !snap.Card.ExpirationDate.IsZero() &&
		time.Until(snap.Card.ExpirationDate) <= 30*24*time.Hour {
		out.Score += models.AlertExpirationDateApproaching.Score()
		out.Alerts = append(out.Alerts, models.AlertExpirationDateApproaching)
	}
	return out
}

// anomalyModelRule is the statistical stand-in for an external anomaly model:
// a z-score test over the prior history's amounts.
type anomalyModelRule struct{}

func (anomalyModelRule) Name() string { return "anomaly_model" }

func (anomalyModelRule) Evaluate(_ context.Context, tx *models.Transaction, snap *Snapshot) Partial {
	prior := make([]*models.Transaction, 0, len(snap.Last20))
	for _, t := range snap.Last20 {
		if t.ID != tx.ID {
			prior = append(prior, t)
		}
	}
	if len(prior) < 10 {
		return Partial{}
	}

	mean := meanAmount(prior)
	variance := 0.0
	for _, t := range prior {
		d := t.Amount.InexactFloat64() - mean
		variance += d * d
	}
	variance /= float64(len(prior))
	stdDev := math.Sqrt(variance)
	if stdDev <= 0 {
		return Partial{}
	}

	deviation := tx.Amount.Sub(decimal.NewFromFloat(mean)).Abs().InexactFloat64()
	if deviation > 2.5*stdDev {
		return triggered(models.AlertAnomalyModelTriggered)
	}
	return Partial{}
}
