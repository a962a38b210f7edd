package auth

import (
	"chat-relay/domain"
	"testing"

	"github.com/stretchr/testify/require"
)

var laptop = domain.DeviceInfo{
	Platform:         "MacIntel",
	ScreenResolution: "2560x1440",
	Language:         "en-US",
	Timezone:         "Europe/Paris",
	UserAgent:        "Mozilla/5.0",
}

func TestFingerprint_Deterministic(t *testing.T) {
	req := require.New(t)

	first, err := Fingerprint(laptop)
	req.NoError(err)
	second, err := Fingerprint(laptop)
	req.NoError(err)

	req.Equal(first, second)
	req.Len(first, 64)
}

func TestFingerprint_ChangesWithEnvironment(t *testing.T) {
	req := require.New(t)
	other := laptop
	other.Timezone = "America/New_York"

	first, err := Fingerprint(laptop)
	req.NoError(err)
	second, err := Fingerprint(other)
	req.NoError(err)

	req.NotEqual(first, second)
}

func TestChangeHeuristic_Assess(t *testing.T) {
	heuristic := NewChangeHeuristic()

	tests := []struct {
		name       string
		presented  func(info domain.DeviceInfo) domain.DeviceInfo
		changed    []string
		suspicious bool
	}{
		{"Same environment", func(i domain.DeviceInfo) domain.DeviceInfo { return i }, nil, false},
		{"Timezone only is not critical", func(i domain.DeviceInfo) domain.DeviceInfo {
			i.Timezone = "Asia/Tokyo"
			return i
		}, nil, false},
		{"One critical change", func(i domain.DeviceInfo) domain.DeviceInfo {
			i.Language = "fr-FR"
			return i
		}, []string{"language"}, false},
		{"Platform and language", func(i domain.DeviceInfo) domain.DeviceInfo {
			i.Platform = "Win32"
			i.Language = "fr-FR"
			return i
		}, []string{"platform", "language"}, true},
		{"Every critical field", func(i domain.DeviceInfo) domain.DeviceInfo {
			i.Platform = "Linux x86_64"
			i.ScreenResolution = "1920x1080"
			i.Language = "de-DE"
			return i
		}, []string{"platform", "screenResolution", "language"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			assessment := heuristic.Assess(laptop, tt.presented(laptop))
			req.Equal(tt.changed, assessment.Changed)
			req.Equal(tt.suspicious, assessment.Suspicious)
		})
	}
}
