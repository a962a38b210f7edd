//go:generate go run go.uber.org/mock/mockgen -source=device.go -destination=../mocks/mock_device_repository.go -package=mocks
package repositories

import (
	"chat-relay/domain"
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const devicePrefix = "device:"

type IDeviceRepository interface {
	SaveDevices(ctx context.Context, devices ...domain.Device) error
	GetDevices(ctx context.Context) ([]domain.Device, error)
}

type DeviceRepository struct {
	db *badger.DB
}

func NewDeviceRepository(db *badger.DB) DeviceRepository {
	return DeviceRepository{db: db}
}

type DiskDevice struct {
	ID           string            `cbor:"id"`
	Username     string            `cbor:"username"`
	Fingerprint  string            `cbor:"fingerprint,omitempty"`
	Info         domain.DeviceInfo `cbor:"device_info"`
	RegisteredAt int64             `cbor:"registered_at"`
	LastSeen     int64             `cbor:"last_seen"`
}

// SaveDevices upserts every device under "device:{id}" in a single transaction.
func (r DeviceRepository) SaveDevices(ctx context.Context, devices ...domain.Device) error {
	return update(ctx, r.db, func(txn *badger.Txn) error {
		for _, device := range devices {
			if err := ctx.Err(); err != nil {
				return err
			}
			bytes, err := marshal(fromDevice(device))
			if err != nil {
				return fmt.Errorf("marshal device %s: %w", device.ID, err)
			}
			if err = txn.Set([]byte(devicePrefix+device.ID), bytes); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r DeviceRepository) GetDevices(ctx context.Context) ([]domain.Device, error) {
	var devices []domain.Device
	err := view(ctx, r.db, func(txn *badger.Txn) error {
		return scanPrefix(ctx, txn, []byte(devicePrefix), func(_, value []byte) error {
			var disk DiskDevice
			if err := unmarshal(value, &disk); err != nil {
				return err
			}
			devices = append(devices, toDevice(disk))
			return nil
		})
	})
	return devices, err
}

func fromDevice(d domain.Device) DiskDevice {
	return DiskDevice{
		ID:           d.ID,
		Username:     d.Username,
		Fingerprint:  d.Fingerprint,
		Info:         d.Info,
		RegisteredAt: d.RegisteredAt.UnixMilli(),
		LastSeen:     d.LastSeen.UnixMilli(),
	}
}

func toDevice(d DiskDevice) domain.Device {
	return domain.Device{
		ID:           d.ID,
		Username:     d.Username,
		Fingerprint:  d.Fingerprint,
		Info:         d.Info,
		RegisteredAt: time.UnixMilli(d.RegisteredAt).UTC(),
		LastSeen:     time.UnixMilli(d.LastSeen).UTC(),
	}
}
