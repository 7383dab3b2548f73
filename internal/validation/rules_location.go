package validation

import (
	"context"

	"github.com/safepay/fraud-engine/internal/country"
	"github.com/safepay/fraud-engine/internal/geo"
	"github.com/safepay/fraud-engine/internal/models"
)

var highRiskCountries = map[string]bool{
	"RU": true, "NG": true, "IR": true, "KP": true, "UA": true,
}

// highRiskCountryRule resolves the transaction coordinate to a country and
// checks it against the sanctioned set. Unresolved lookups leave the rule
// inapplicable.
type highRiskCountryRule struct {
	resolver country.Resolver
}

func (highRiskCountryRule) Name() string { return "high_risk_country" }

func (r highRiskCountryRule) Evaluate(ctx context.Context, tx *models.Transaction, _ *Snapshot) Partial {
	if r.resolver == nil || tx.Latitude == "" || tx.Longitude == "" {
		return Partial{}
	}
	code := r.resolver.ResolveCountry(ctx, tx.Latitude, tx.Longitude)
	if code == country.Unresolved {
		return Partial{}
	}
	if highRiskCountries[code] {
		return triggered(models.AlertHighRiskCountry)
	}
	return Partial{}
}

// previousTransaction returns the latest history element strictly older than
// the current transaction, or nil.
func previousTransaction(tx *models.Transaction, snap *Snapshot) *models.Transaction {
	var prev *models.Transaction
	for _, t := range snap.Last20 {
		if !t.CreatedAt.Before(tx.CreatedAt) {
			continue
		}
		if prev == nil || t.CreatedAt.After(prev.CreatedAt) {
			prev = t
		}
	}
	return prev
}

// locationAnomalyRule flags a jump of more than 300 km from the previous
// transaction's coordinate.
type locationAnomalyRule struct{}

func (locationAnomalyRule) Name() string { return "location_anomaly" }

func (locationAnomalyRule) Evaluate(_ context.Context, tx *models.Transaction, snap *Snapshot) Partial {
	if len(snap.Last20) < 2 {
		return Partial{}
	}
	prev := previousTransaction(tx, snap)
	if prev == nil {
		return Partial{}
	}

	cur, err := geo.ParsePoint(tx.Latitude, tx.Longitude)
	if err != nil {
		return Partial{}
	}
	old, err := geo.ParsePoint(prev.Latitude, prev.Longitude)
	if err != nil {
		return Partial{}
	}

	if geo.Haversine(old.Lat, old.Lon, cur.Lat, cur.Lon) > 300 {
		return triggered(models.AlertLocationAnomaly)
	}
	return Partial{}
}

// impossibleTravelRule flags a move of more than 1000 km in under an hour.
type impossibleTravelRule struct{}

func (impossibleTravelRule) Name() string { return "impossible_travel" }

func (impossibleTravelRule) Evaluate(_ context.Context, tx *models.Transaction, snap *Snapshot) Partial {
	prev := previousTransaction(tx, snap)
	if prev == nil {
		return Partial{}
	}

	deltaSeconds := tx.CreatedAt.Sub(prev.CreatedAt).Seconds()
	if deltaSeconds <= 0 {
		return Partial{}
	}

	cur, err := geo.ParsePoint(tx.Latitude, tx.Longitude)
	if err != nil {
		return Partial{}
	}
	old, err := geo.ParsePoint(prev.Latitude, prev.Longitude)
	if err != nil {
		return Partial{}
	}

	hours := deltaSeconds / 3600
	if geo.Haversine(old.Lat, old.Lon, cur.Lat, cur.Lon) > 1000 && hours < 1 {
		return triggered(models.AlertImpossibleTravel)
	}
	return Partial{}
}
