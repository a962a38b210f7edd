package auth

import "chat-relay/domain"

// DefaultChangeThreshold is the number of changed critical fields that makes
// a verification attempt suspicious.
const DefaultChangeThreshold = 2

// Assessment is the outcome of comparing a stored environment with a presented one.
type Assessment struct {
	Changed    []string
	Suspicious bool
}

// Scorer decides whether a device environment changed too much to be trusted.
// Stronger device-trust logic plugs in here without touching session or group code.
type Scorer interface {
	Assess(stored, presented domain.DeviceInfo) Assessment
}

// ChangeHeuristic flags a device when Threshold or more of platform,
// screen resolution and language differ. Typical of a VPN or a copied identifier.
type ChangeHeuristic struct {
	Threshold int
}

func NewChangeHeuristic() ChangeHeuristic {
	return ChangeHeuristic{Threshold: DefaultChangeThreshold}
}

func (h ChangeHeuristic) Assess(stored, presented domain.DeviceInfo) Assessment {
	var changed []string
	if stored.Platform != presented.Platform {
		changed = append(changed, "platform")
	}
	if stored.ScreenResolution != presented.ScreenResolution {
		changed = append(changed, "screenResolution")
	}
	if stored.Language != presented.Language {
		changed = append(changed, "language")
	}
	return Assessment{Changed: changed, Suspicious: len(changed) >= h.Threshold}
}
