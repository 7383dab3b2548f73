package generator

import (
	"math/rand"

	"github.com/shopspring/decimal"

	"github.com/safepay/fraud-engine/internal/models"
)

const (
	baseAmount         = 100.0
	outlierProbability = 0.1
)

// amount derives the next amount from the card's recent history: most of the
// time a small jitter around the historical average, occasionally a 3-5x
// outlier. Empty history starts from the base value.
func (g *Generator) amount(history []*models.Transaction) decimal.Decimal {
	avg := baseAmount
	if len(history) > 0 {
		sum := decimal.Zero
		for _, t := range history {
			sum = sum.Add(t.Amount)
		}
		avg = sum.InexactFloat64() / float64(len(history))
	}

	var value float64
	g.locked(func(rng *rand.Rand) {
		if rng.Float64() < outlierProbability {
			multiplier := 3 + float64(rng.Intn(3))
			value = avg * multiplier
		} else {
			value = avg * (0.9 + rng.Float64()*0.2)
		}
	})

	return decimal.NewFromFloat(value).Round(2)
}
