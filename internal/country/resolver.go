// Package country resolves coordinates to ISO-3166 alpha-2 country codes.
//
// The resolver is a collaborator boundary: any failure (timeout, bad payload,
// non-2xx) degrades to an unresolved result and never propagates to the
// caller. Rules that depend on it simply skip themselves.
package country

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Unresolved is the zero result returned when the lookup fails or the
// provider has no country for the coordinate.
const Unresolved = ""

// Resolver maps a coordinate to an upper-case ISO-3166 alpha-2 country code.
// Implementations return Unresolved instead of an error.
type Resolver interface {
	ResolveCountry(ctx context.Context, lat, lon string) string
}

// HTTPResolver queries a reverse-geocoding endpoint shaped like Nominatim:
// the response carries an optional address.country_code field, lowercased.
type HTTPResolver struct {
	baseURL string
	client  *http.Client
}

// NewHTTPResolver builds a resolver against baseURL with a bounded timeout.
func NewHTTPResolver(baseURL string, timeout time.Duration) *HTTPResolver {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &HTTPResolver{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type reverseGeocodeResponse struct {
	Address struct {
		CountryCode string `json:"country_code"`
		State       string `json:"state"`
		City        string `json:"city"`
	} `json:"address"`
}

// ResolveCountry performs the remote lookup. All failures return Unresolved.
func (r *HTTPResolver) ResolveCountry(ctx context.Context, lat, lon string) string {
	endpoint := fmt.Sprintf("%s/reverse?format=json&lat=%s&lon=%s",
		r.baseURL, url.QueryEscape(lat), url.QueryEscape(lon))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to build reverse-geocode request")
		return Unresolved
	}

	resp, err := r.client.Do(req)
	if err != nil {
		log.Warn().Err(err).Str("lat", lat).Str("lon", lon).Msg("Reverse geocoding failed")
		return Unresolved
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Warn().Int("status", resp.StatusCode).Msg("Reverse geocoding returned non-OK status")
		return Unresolved
	}

	var payload reverseGeocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		log.Warn().Err(err).Msg("Failed to decode reverse-geocode response")
		return Unresolved
	}

	code := strings.ToUpper(strings.TrimSpace(payload.Address.CountryCode))
	if len(code) != 2 {
		return Unresolved
	}
	return code
}
