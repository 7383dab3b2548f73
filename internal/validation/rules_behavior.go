package validation

import (
	"context"
	"math"

	"github.com/safepay/fraud-engine/internal/models"
)

// multipleFailedRule flags three or more declines inside five minutes.
type multipleFailedRule struct{}

func (multipleFailedRule) Name() string { return "multiple_failed_attempts" }

func (multipleFailedRule) Evaluate(_ context.Context, _ *models.Transaction, snap *Snapshot) Partial {
	if countBlocked(snap.Last5Minutes) >= 3 {
		return triggered(models.AlertMultipleFailedAttempts)
	}
	return Partial{}
}

// successAfterFailureRule flags an approval right after repeated declines.
type successAfterFailureRule struct{}

func (successAfterFailureRule) Name() string { return "suspicious_success_after_failure" }

func (successAfterFailureRule) Evaluate(_ context.Context, tx *models.Transaction, snap *Snapshot) Partial {
	if tx.Decision != models.DecisionApproved {
		return Partial{}
	}
	last5 := snap.Last20
	if len(last5) > 5 {
		last5 = last5[:5]
	}
	blocked := 0
	for _, t := range last5 {
		if t.ID == tx.ID {
			continue
		}
		if t.Decision == models.DecisionBlocked {
			blocked++
		}
	}
	if blocked >= 2 {
		return triggered(models.AlertSuspiciousSuccessAfterFailure)
	}
	return Partial{}
}

// timeOfDayRule flags an hour far from the card's historical mean hour.
type timeOfDayRule struct{}

func (timeOfDayRule) Name() string { return "time_of_day_anomaly" }

func (timeOfDayRule) Evaluate(_ context.Context, tx *models.Transaction, snap *Snapshot) Partial {
	if len(snap.Last20) < 10 {
		return Partial{}
	}
	sum := 0
	for _, t := range snap.Last20 {
		sum += t.CreatedAt.Hour()
	}
	mean := float64(sum) / float64(len(snap.Last20))
	if math.Abs(float64(tx.CreatedAt.Hour())-mean) > 4 {
		return triggered(models.AlertTimeOfDayAnomaly)
	}
	return Partial{}
}
