// Package vpn holds the process-wide VPN/proxy IPv6 prefix list. The list is
// loaded once at startup and read-only thereafter; a missing or unparsable
// file is fatal.
package vpn

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/safepay/fraud-engine/internal/geo"
)

// Blacklist is an immutable set of IPv6 prefixes known to front VPN or proxy
// exit nodes.
type Blacklist struct {
	description string
	cidrs       []geo.CIDR
}

type blacklistFile struct {
	Description string   `json:"description"`
	List        []string `json:"list"`
}

// Load reads and parses the blacklist resource.
func Load(path string) (*Blacklist, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read VPN blacklist %s: %w", path, err)
	}

	var file blacklistFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("failed to parse VPN blacklist %s: %w", path, err)
	}

	cidrs := make([]geo.CIDR, 0, len(file.List))
	for _, prefix := range file.List {
		cidr, err := geo.ParseCIDR(prefix)
		if err != nil {
			return nil, fmt.Errorf("VPN blacklist entry %q: %w", prefix, err)
		}
		cidrs = append(cidrs, cidr)
	}

	log.Info().Int("prefix_count", len(cidrs)).Str("path", path).Msg("VPN blacklist loaded")
	return &Blacklist{description: file.Description, cidrs: cidrs}, nil
}

// FromCIDRs builds a blacklist from already-parsed prefixes (test seam).
func FromCIDRs(cidrs []geo.CIDR) *Blacklist {
	return &Blacklist{cidrs: cidrs}
}

// Contains reports whether ip falls inside any blacklisted prefix.
func (b *Blacklist) Contains(ip string) bool {
	for _, cidr := range b.cidrs {
		if cidr.Contains(ip) {
			return true
		}
	}
	return false
}

// Random picks a uniformly random prefix from the list.
func (b *Blacklist) Random(rng *rand.Rand) geo.CIDR {
	return b.cidrs[rng.Intn(len(b.cidrs))]
}

// Len returns the number of prefixes.
func (b *Blacklist) Len() int {
	return len(b.cidrs)
}

// Description returns the list's descriptive header.
func (b *Blacklist) Description() string {
	return b.description
}
