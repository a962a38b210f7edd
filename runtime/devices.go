package runtime

import (
	"chat-relay/auth"
	"chat-relay/domain"
	"chat-relay/errors"
	"fmt"
	"time"

	"github.com/samber/lo"
)

// DeviceDirectory is the registry of device identities and trust fingerprints.
// It is owned by the hub goroutine and never locked.
type DeviceDirectory struct {
	devices map[string]*domain.Device
	scorer  auth.Scorer
}

func NewDeviceDirectory(scorer auth.Scorer) *DeviceDirectory {
	return &DeviceDirectory{devices: make(map[string]*domain.Device), scorer: scorer}
}

// Register stores a new device with a fingerprint derived from its environment.
// An existing record is never modified.
func (d *DeviceDirectory) Register(deviceID, username string, info domain.DeviceInfo, now time.Time) (domain.Device, error) {
	if _, ok := d.devices[deviceID]; ok {
		return domain.Device{}, errors.ErrDuplicateDevice
	}
	fingerprint, err := auth.Fingerprint(info)
	if err != nil {
		return domain.Device{}, fmt.Errorf("%w: %v", errors.ErrValidation, err)
	}
	device := &domain.Device{
		ID:           deviceID,
		Username:     username,
		Fingerprint:  fingerprint,
		Info:         info,
		RegisteredAt: now,
		LastSeen:     now,
	}
	d.devices[deviceID] = device
	return *device, nil
}

// Login succeeds only when the device exists with exactly this username.
func (d *DeviceDirectory) Login(deviceID, username string, now time.Time) (domain.Device, error) {
	device, ok := d.devices[deviceID]
	if !ok || device.Username != username {
		return domain.Device{}, errors.ErrInvalidCredentials
	}
	device.LastSeen = now
	return *device, nil
}

// Verify applies trust-on-first-use, then the scorer, then an exact fingerprint match.
// The returned bool reports whether the record changed and must be persisted.
func (d *DeviceDirectory) Verify(deviceID, fingerprint string, info domain.DeviceInfo) (bool, error) {
	device, ok := d.devices[deviceID]
	if !ok {
		return false, errors.ErrUnknownDevice
	}
	if device.Fingerprint == "" {
		device.Fingerprint = fingerprint
		device.Info = info
		return true, nil
	}
	if assessment := d.scorer.Assess(device.Info, info); assessment.Suspicious {
		return false, fmt.Errorf("%w: %v changed", errors.ErrSuspiciousDevice, assessment.Changed)
	}
	if device.Fingerprint != fingerprint {
		return false, errors.ErrFingerprintMismatch
	}
	return false, nil
}

func (d *DeviceDirectory) Get(deviceID string) (domain.Device, bool) {
	device, ok := d.devices[deviceID]
	if !ok {
		return domain.Device{}, false
	}
	return *device, true
}

// Restore loads a persisted record, used at start-up only.
func (d *DeviceDirectory) Restore(device domain.Device) {
	d.devices[device.ID] = &device
}

// Snapshot copies every record for background persistence.
func (d *DeviceDirectory) Snapshot() []domain.Device {
	return lo.MapToSlice(d.devices, func(_ string, device *domain.Device) domain.Device {
		return *device
	})
}

func (d *DeviceDirectory) Len() int {
	return len(d.devices)
}
