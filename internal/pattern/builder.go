// Package pattern builds and caches card behavioral profiles.
package pattern

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/safepay/fraud-engine/internal/models"
)

const (
	topCategories = 5
	topHours      = 3
	topWeekdays   = 3
)

// Build derives the full behavioral profile from a card's transactions. An
// empty history yields an empty pattern. Pure function.
func Build(cardID uuid.UUID, txs []*models.Transaction) *models.CardPattern {
	p := &models.CardPattern{
		CardID:           cardID,
		TransactionCount: len(txs),
		UpdatedAt:        time.Now(),
	}
	if len(txs) == 0 {
		return p
	}

	buildAmountStats(p, txs)
	buildCategoryStats(p, txs)
	buildTemporalStats(p, txs)
	return p
}

func buildAmountStats(p *models.CardPattern, txs []*models.Transaction) {
	amounts := make([]float64, 0, len(txs))
	for _, t := range txs {
		amounts = append(amounts, t.Amount.InexactFloat64())
	}
	sort.Float64s(amounts)
	n := len(amounts)

	sum := 0.0
	for _, a := range amounts {
		sum += a
	}
	mean := sum / float64(n)

	variance := 0.0
	for _, a := range amounts {
		variance += (a - mean) * (a - mean)
	}
	variance /= float64(n)

	p.AvgAmount = mean
	p.MaxAmount = amounts[n-1]
	p.MedianAmount = amounts[clampIndex(n/2, n)]
	p.Q1Amount = amounts[clampIndex(n/4, n)]
	p.Q3Amount = amounts[clampIndex(3*n/4, n)]
	p.IQRAmount = p.Q3Amount - p.Q1Amount
	p.StdDevAmount = math.Sqrt(variance)
	p.P95Amount = amounts[clampIndex(int(math.Ceil(0.95*float64(n)))-1, n)]

	buckets := map[string]int{}
	for _, a := range amounts {
		switch {
		case a < p.Q1Amount:
			buckets[models.TicketMicro]++
		case a < p.MedianAmount:
			buckets[models.TicketSmall]++
		case a < p.Q3Amount:
			buckets[models.TicketMedium]++
		default:
			buckets[models.TicketLarge]++
		}
	}
	p.TicketBuckets = buckets
}

func buildCategoryStats(p *models.CardPattern, txs []*models.Transaction) {
	counts := map[string]int{}
	for _, t := range txs {
		if t.MerchantCategory != "" {
			counts[t.MerchantCategory]++
		}
	}
	p.CommonCategories = topKeys(counts, topCategories)

	total := 0
	for _, c := range counts {
		total += c
	}
	entropy := 0.0
	for _, c := range counts {
		ratio := float64(c) / float64(total)
		entropy -= ratio * math.Log2(ratio)
	}
	p.CategoryEntropy = entropy
}

func buildTemporalStats(p *models.CardPattern, txs []*models.Transaction) {
	hourCounts := map[int]int{}
	weekdayCounts := map[string]int{}
	dailyCounts := map[string]int{}
	hourBuckets := map[string]int{}

	var hours []float64
	weekend := 0
	timed := 0

	for _, t := range txs {
		at := t.CreatedAt
		if at.IsZero() {
			continue
		}
		timed++

		hour := at.Hour()
		hours = append(hours, float64(hour))
		hourCounts[hour]++
		weekdayCounts[at.Weekday().String()]++
		if wd := at.Weekday(); wd == time.Saturday || wd == time.Sunday {
			weekend++
		}

		day := at.Format("2006-01-02")
		dailyCounts[day]++
		hourBuckets[fmt.Sprintf("%s#%02d", day, hour)]++
	}
	if timed == 0 {
		return
	}

	p.PreferredHours = topHoursOf(hourCounts, topHours)
	p.PreferredWeekdays = topKeys(weekdayCounts, topWeekdays)
	p.WeekendRatio = float64(weekend) / float64(timed)

	daySum := 0
	for _, c := range dailyCounts {
		daySum += c
	}
	p.DailyFrequency = float64(daySum) / float64(len(dailyCounts))

	for _, c := range hourBuckets {
		if c > p.MaxTxPerHour {
			p.MaxTxPerHour = c
		}
	}

	hourMean := 0.0
	for _, h := range hours {
		hourMean += h
	}
	hourMean /= float64(len(hours))
	hourVar := 0.0
	for _, h := range hours {
		hourVar += (h - hourMean) * (h - hourMean)
	}
	p.TemporalConsistency = math.Sqrt(hourVar / float64(len(hours)))
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i > n-1 {
		return n - 1
	}
	return i
}

// topHoursOf returns the k most frequent hours, ties broken by earlier hour.
func topHoursOf(counts map[int]int, k int) []int {
	hours := make([]int, 0, len(counts))
	for h := range counts {
		hours = append(hours, h)
	}
	sort.Slice(hours, func(i, j int) bool {
		if counts[hours[i]] != counts[hours[j]] {
			return counts[hours[i]] > counts[hours[j]]
		}
		return hours[i] < hours[j]
	})
	if len(hours) > k {
		hours = hours[:k]
	}
	return hours
}

// topKeys returns the k highest-count keys, ties broken lexicographically so
// the profile is stable across rebuilds.
func topKeys(counts map[string]int, k int) []string {
	keys := make([]string, 0, len(counts))
	for key := range counts {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if len(keys) > k {
		keys = keys[:k]
	}
	return keys
}
