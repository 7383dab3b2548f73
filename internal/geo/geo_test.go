package geo_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safepay/fraud-engine/internal/geo"
)

func TestHaversine_ZeroOnIdenticalPoints(t *testing.T) {
	d := geo.Haversine(-23.550520, -46.633308, -23.550520, -46.633308)
	assert.InDelta(t, 0, d, 1e-9)
}

func TestHaversine_Symmetric(t *testing.T) {
	d1 := geo.Haversine(-23.550520, -46.633308, 40.712776, -74.005974)
	d2 := geo.Haversine(40.712776, -74.005974, -23.550520, -46.633308)
	assert.InDelta(t, d1, d2, 1e-9)
}

func TestHaversine_SaoPauloToNewYork(t *testing.T) {
	d := geo.Haversine(-23.550520, -46.633308, 40.712776, -74.005974)
	// Known great-circle distance, ~7 670 km
	assert.InDelta(t, 7670, d, 60)
}

func TestHaversine_TriangleInequality(t *testing.T) {
	triples := [][3][2]float64{
		{{-23.550520, -46.633308}, {40.712776, -74.005974}, {51.507351, -0.127758}},
		{{48.856613, 2.352222}, {52.520008, 13.404954}, {41.902782, 12.496366}},
		{{35.689487, 139.691711}, {37.566536, 126.977966}, {31.230391, 121.473701}},
	}
	for _, tr := range triples {
		ab := geo.Haversine(tr[0][0], tr[0][1], tr[1][0], tr[1][1])
		ac := geo.Haversine(tr[0][0], tr[0][1], tr[2][0], tr[2][1])
		cb := geo.Haversine(tr[2][0], tr[2][1], tr[1][0], tr[1][1])
		assert.LessOrEqual(t, ab, ac+cb+1e-6)
	}
}

func TestParsePoint(t *testing.T) {
	p, err := geo.ParsePoint("-23.550520", "-46.633308")
	require.NoError(t, err)
	assert.InDelta(t, -23.550520, p.Lat, 1e-9)
	assert.InDelta(t, -46.633308, p.Lon, 1e-9)

	_, err = geo.ParsePoint("not-a-number", "0")
	assert.ErrorIs(t, err, geo.ErrMalformedCoordinate)

	_, err = geo.ParsePoint("0", "")
	assert.ErrorIs(t, err, geo.ErrMalformedCoordinate)
}

func TestFormatCoordinate_SixDecimals(t *testing.T) {
	assert.Equal(t, "-23.550520", geo.FormatCoordinate(-23.55052))
	assert.Equal(t, "0.000000", geo.FormatCoordinate(0))
}

func TestRandomPointInRadius_StaysInsideDisk(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	center := geo.Point{Lat: -23.550520, Lon: -46.633308}

	for i := 0; i < 1000; i++ {
		p := geo.RandomPointInRadius(rng, center, 50)
		d := geo.Haversine(center.Lat, center.Lon, p.Lat, p.Lon)
		// The lat/lon box approximation distorts slightly near the edge
		assert.LessOrEqual(t, d, 50*1.05)
	}
}

func TestRandomPointInRadius_ClampsAndWraps(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	nearPole := geo.Point{Lat: 89.9, Lon: 179.9}
	for i := 0; i < 200; i++ {
		p := geo.RandomPointInRadius(rng, nearPole, 100)
		assert.LessOrEqual(t, p.Lat, 90.0)
		assert.GreaterOrEqual(t, p.Lat, -90.0)
		assert.Less(t, p.Lon, 180.0)
		assert.GreaterOrEqual(t, p.Lon, -180.0)
	}
}

func TestCities_RegionRanges(t *testing.T) {
	all := geo.Cities(geo.RegionWorld)
	require.GreaterOrEqual(t, len(all), 150)

	for _, c := range geo.Cities(geo.RegionBR) {
		assert.Equal(t, "BR", c.Country)
	}
	for _, c := range geo.Cities(geo.RegionUS) {
		assert.Equal(t, "US", c.Country)
	}
	assert.Len(t, geo.Cities(geo.RegionBR), 30)
	assert.Len(t, geo.Cities(geo.RegionUS), 30)
	assert.Len(t, geo.Cities(geo.RegionEU), 40)

	for _, c := range all {
		assert.NotEmpty(t, c.Name)
		assert.Greater(t, c.UrbanRadiusKm, 0.0)
		assert.False(t, math.IsNaN(c.Lat))
	}
}

func TestRandomCity_Deterministic(t *testing.T) {
	a := geo.RandomCity(rand.New(rand.NewSource(1)), geo.RegionEU)
	b := geo.RandomCity(rand.New(rand.NewSource(1)), geo.RegionEU)
	assert.Equal(t, a, b)
}
