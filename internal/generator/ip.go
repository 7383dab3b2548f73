package generator

import (
	"math/rand"

	"github.com/safepay/fraud-engine/internal/geo"
)

const vpnProbability = 0.05

// ipAddress emits an IPv6 address, occasionally drawn from inside a
// blacklisted VPN prefix to exercise the proxy-detection rule.
func (g *Generator) ipAddress() string {
	var addr string
	g.locked(func(rng *rand.Rand) {
		if g.blacklist != nil && g.blacklist.Len() > 0 && rng.Float64() < vpnProbability {
			addr = g.blacklist.Random(rng).Expand(rng)
			return
		}
		addr = geo.RandomIPv6(rng)
	})
	return addr
}
