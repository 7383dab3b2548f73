package validation

import (
	"context"

	"github.com/safepay/fraud-engine/internal/models"
)

// velocityAbuseRule flags three or more transactions inside five minutes.
type velocityAbuseRule struct{}

func (velocityAbuseRule) Name() string { return "velocity_abuse" }

func (velocityAbuseRule) Evaluate(_ context.Context, _ *models.Transaction, snap *Snapshot) Partial {
	if len(snap.Last5Minutes) >= 3 {
		return triggered(models.AlertVelocityAbuse)
	}
	return Partial{}
}

// burstActivityRule compares the five-minute count against the card's own
// 24-hour baseline: a burst is more than three times the expected per-hour
// share of the daily volume.
type burstActivityRule struct{}

func (burstActivityRule) Name() string { return "burst_activity" }

func (burstActivityRule) Evaluate(_ context.Context, _ *models.Transaction, snap *Snapshot) Partial {
	baseline := len(snap.Last24Hours)
	if baseline < 5 {
		return Partial{}
	}
	if float64(len(snap.Last5Minutes)) > float64(baseline)/24.0*3.0 {
		return triggered(models.AlertBurstActivity)
	}
	return Partial{}
}
