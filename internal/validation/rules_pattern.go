package validation

import (
	"context"

	"github.com/safepay/fraud-engine/internal/models"
)

// cardTestingRule catches the probe phase of stolen-card testing: a run of
// very low amounts inside ten minutes.
type cardTestingRule struct{}

func (cardTestingRule) Name() string { return "card_testing" }

func (cardTestingRule) Evaluate(_ context.Context, _ *models.Transaction, snap *Snapshot) Partial {
	veryLow, low := 0, 0
	for _, t := range snap.Last10Minutes {
		if amountLTE(t, 2) {
			veryLow++
		}
		if amountLTE(t, 5) {
			low++
		}
	}
	if veryLow >= 3 || low >= 5 {
		return triggered(models.AlertCardTesting)
	}
	return Partial{}
}

// microTransactionRule flags a history dominated by amounts of 2 or less.
type microTransactionRule struct{}

func (microTransactionRule) Name() string { return "micro_transaction_pattern" }

func (microTransactionRule) Evaluate(_ context.Context, _ *models.Transaction, snap *Snapshot) Partial {
	if len(snap.Last20) < 5 {
		return Partial{}
	}
	micro := 0
	for _, t := range snap.Last20 {
		if amountLTE(t, 2) {
			micro++
		}
	}
	if float64(micro)/float64(len(snap.Last20)) >= 0.6 {
		return triggered(models.AlertMicroTransactionPattern)
	}
	return Partial{}
}

// declineThenApproveRule flags an approval that immediately follows a run of
// declines, the classic retry-until-it-sticks pattern.
type declineThenApproveRule struct{}

func (declineThenApproveRule) Name() string { return "decline_then_approve" }

func (declineThenApproveRule) Evaluate(_ context.Context, tx *models.Transaction, snap *Snapshot) Partial {
	if tx.Decision != models.DecisionApproved {
		return Partial{}
	}
	if len(snap.Last10) < 4 {
		return Partial{}
	}
	// Element 0 is the current transaction; look at up to 3 before it.
	preceding := snap.Last10[1:]
	if len(preceding) > 3 {
		preceding = preceding[:3]
	}
	if countBlocked(preceding) >= 3 {
		return triggered(models.AlertDeclineThenApprovePattern)
	}
	return Partial{}
}
