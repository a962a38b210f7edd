// Package domain contains core concepts of the relay.
// This file defines Device records and the environment snapshot they carry.
package domain

import "time"

// DeviceInfo is the client-reported environment snapshot used for fingerprinting.
type DeviceInfo struct {
	Platform         string `json:"platform" cbor:"platform"`
	ScreenResolution string `json:"screenResolution" cbor:"screen_resolution"`
	Language         string `json:"language" cbor:"language"`
	Timezone         string `json:"timezone,omitempty" cbor:"timezone,omitempty"`
	UserAgent        string `json:"userAgent,omitempty" cbor:"user_agent,omitempty"`
}

// Device is the persistent identity of a client device.
// Fingerprint is empty until the first verification adopts one.
type Device struct {
	ID           string
	Username     string
	Fingerprint  string
	Info         DeviceInfo
	RegisteredAt time.Time
	LastSeen     time.Time
}
