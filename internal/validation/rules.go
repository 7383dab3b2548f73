package validation

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/safepay/fraud-engine/internal/models"
)

// Partial is one rule's contribution to an evaluation. An empty Partial means
// the rule did not trigger (or was inapplicable).
type Partial struct {
	Score  int
	Alerts []models.AlertType
}

// Rule inspects one transaction against the shared snapshot. Rules never
// return errors: on missing or malformed inputs they return an empty Partial.
// Only the country-resolution rule performs I/O, bounded by the resolver's
// own timeout.
type Rule interface {
	Name() string
	Evaluate(ctx context.Context, tx *models.Transaction, snap *Snapshot) Partial
}

func triggered(t models.AlertType) Partial {
	return Partial{Score: t.Score(), Alerts: []models.AlertType{t}}
}

func amountLTE(tx *models.Transaction, threshold int64) bool {
	return tx.Amount.Cmp(decimal.NewFromInt(threshold)) <= 0
}

// meanAmount returns the arithmetic mean over the transactions' amounts.
func meanAmount(txs []*models.Transaction) float64 {
	if len(txs) == 0 {
		return 0
	}
	sum := decimal.Zero
	for _, t := range txs {
		sum = sum.Add(t.Amount)
	}
	return sum.InexactFloat64() / float64(len(txs))
}

func sumAmounts(txs []*models.Transaction) decimal.Decimal {
	sum := decimal.Zero
	for _, t := range txs {
		sum = sum.Add(t.Amount)
	}
	return sum
}

func countBlocked(txs []*models.Transaction) int {
	n := 0
	for _, t := range txs {
		if t.Decision == models.DecisionBlocked {
			n++
		}
	}
	return n
}
