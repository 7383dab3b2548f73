package generator

import (
	"math/rand"

	"github.com/safepay/fraud-engine/internal/geo"
	"github.com/safepay/fraud-engine/internal/models"
)

const (
	nearbyProbability = 0.95
	nearbyRadiusKm    = 5.0
	cityRadiusShare   = 0.5
)

// location derives the next coordinate pair. A card with no located history
// starts in a random city; an established card usually stays within a few
// kilometers of its last known point, with a small chance of a sudden jump
// to another city (trip or fraud).
func (g *Generator) location(history []*models.Transaction) (lat, lon string) {
	last := lastLocatedPoint(history)

	var p geo.Point
	g.locked(func(rng *rand.Rand) {
		switch {
		case last == nil:
			city := geo.RandomCity(rng, g.region)
			p = geo.RandomPointInRadius(rng, city.Center(), city.UrbanRadiusKm*cityRadiusShare)
		case rng.Float64() < nearbyProbability:
			p = geo.RandomPointInRadius(rng, *last, nearbyRadiusKm)
		default:
			city := geo.RandomCity(rng, g.region)
			p = geo.RandomPointInRadius(rng, city.Center(), city.UrbanRadiusKm*cityRadiusShare)
		}
	})

	return geo.FormatCoordinate(p.Lat), geo.FormatCoordinate(p.Lon)
}

// lastLocatedPoint returns the most recent parseable coordinate in the
// history (newest first), or nil when none exists.
func lastLocatedPoint(history []*models.Transaction) *geo.Point {
	for _, t := range history {
		if t.Latitude == "" || t.Longitude == "" {
			continue
		}
		p, err := geo.ParsePoint(t.Latitude, t.Longitude)
		if err != nil {
			continue
		}
		return &p
	}
	return nil
}
