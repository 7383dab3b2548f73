package generator

import (
	"math/rand"

	"github.com/rs/zerolog/log"

	"github.com/safepay/fraud-engine/internal/models"
)

const (
	highRiskProbability = 0.1
	historyBonus        = 3
)

// merchantCategory picks the next category: occasionally a high-risk one,
// otherwise a weighted draw favoring the card's recent habits. Every category
// starts at weight 1 so unseen ones stay reachable.
func (g *Generator) merchantCategory(history []*models.Transaction) string {
	var category string
	g.locked(func(rng *rand.Rand) {
		if rng.Float64() < highRiskProbability {
			category = models.HighRiskCategories[rng.Intn(len(models.HighRiskCategories))]
			return
		}

		weights := make(map[string]int, len(models.MerchantCategories))
		total := 0
		for _, c := range models.MerchantCategories {
			weights[c] = 1
			total++
		}
		for _, t := range history {
			if _, ok := weights[t.MerchantCategory]; ok {
				weights[t.MerchantCategory] += historyBonus
				total += historyBonus
			}
		}

		pick := rng.Intn(total)
		for _, c := range models.MerchantCategories {
			pick -= weights[c]
			if pick < 0 {
				category = c
				return
			}
		}
	})

	if category == "" {
		// Unreachable while the weight table covers every category
		log.Error().Msg("Merchant category selection fell through")
		return models.CategoryUnknown
	}
	return category
}
