package validation

import (
	"context"

	"github.com/safepay/fraud-engine/internal/models"
	"github.com/safepay/fraud-engine/internal/vpn"
)

// isNewDevice reports whether no prior history element references the
// transaction's device. It requires at least one element other than the
// current transaction, otherwise the question is unanswerable.
func isNewDevice(tx *models.Transaction, snap *Snapshot) (newDevice, applicable bool) {
	seenOther := false
	for _, t := range snap.Last20 {
		if t.ID == tx.ID {
			continue
		}
		seenOther = true
		if t.DeviceID == tx.DeviceID {
			return false, true
		}
	}
	return true, seenOther
}

// newDeviceRule flags the first appearance of a device on a card with history.
type newDeviceRule struct{}

func (newDeviceRule) Name() string { return "new_device" }

func (newDeviceRule) Evaluate(_ context.Context, tx *models.Transaction, snap *Snapshot) Partial {
	newDevice, applicable := isNewDevice(tx, snap)
	if applicable && newDevice {
		return triggered(models.AlertNewDeviceDetected)
	}
	return Partial{}
}

// fingerprintChangeRule flags a known device whose fingerprint no longer
// matches its most recent prior sighting.
type fingerprintChangeRule struct{}

func (fingerprintChangeRule) Name() string { return "device_fingerprint_change" }

func (fingerprintChangeRule) Evaluate(_ context.Context, tx *models.Transaction, snap *Snapshot) Partial {
	newDevice, applicable := isNewDevice(tx, snap)
	if !applicable || newDevice {
		return Partial{}
	}

	// Last20 is newest first; the first match is the most recent sighting.
	for _, t := range snap.Last20 {
		if t.ID == tx.ID || t.DeviceID != tx.DeviceID || t.DeviceFingerprint == "" {
			continue
		}
		if t.DeviceFingerprint != tx.DeviceFingerprint {
			return triggered(models.AlertDeviceFingerprintChange)
		}
		return Partial{}
	}
	return Partial{}
}

// torProxyRule checks the transaction IP against the startup-loaded VPN
// prefix list.
type torProxyRule struct {
	blacklist *vpn.Blacklist
}

func (torProxyRule) Name() string { return "tor_or_proxy" }

func (r torProxyRule) Evaluate(_ context.Context, tx *models.Transaction, _ *Snapshot) Partial {
	if r.blacklist == nil || tx.IPAddress == "" {
		return Partial{}
	}
	if r.blacklist.Contains(tx.IPAddress) {
		return triggered(models.AlertTorOrProxyDetected)
	}
	return Partial{}
}

// multipleCardsRule flags devices shared across four or more cards.
type multipleCardsRule struct{}

func (multipleCardsRule) Name() string { return "multiple_cards_same_device" }

func (multipleCardsRule) Evaluate(_ context.Context, _ *models.Transaction, snap *Snapshot) Partial {
	if snap.DeviceCardCount >= 4 {
		return triggered(models.AlertMultipleCardsSameDevice)
	}
	return Partial{}
}
