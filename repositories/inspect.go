package repositories

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// Record is a human readable view of one stored key.
type Record struct {
	Key    string
	Kind   string
	Owner  string
	At     time.Time
	Detail string
}

// Describe decodes a raw key/value pair written by this package.
// Unknown prefixes and undecodable values are reported, never rejected.
func Describe(key string, value []byte) Record {
	switch {
	case strings.HasPrefix(key, devicePrefix):
		var disk DiskDevice
		if err := unmarshal(value, &disk); err != nil {
			return broken(key, "DEVICE", err)
		}
		return Record{
			Key:    key,
			Kind:   "DEVICE",
			Owner:  disk.Username,
			At:     time.UnixMilli(disk.LastSeen).UTC(),
			Detail: fmt.Sprintf("%s %s %s", disk.Info.Platform, disk.Info.ScreenResolution, disk.Info.Language),
		}
	case strings.HasPrefix(key, groupPrefix):
		var disk DiskGroup
		if err := unmarshal(value, &disk); err != nil {
			return broken(key, "GROUP", err)
		}
		return Record{
			Key:    key,
			Kind:   "GROUP",
			Owner:  disk.Name,
			At:     time.UnixMilli(disk.CreatedAt).UTC(),
			Detail: fmt.Sprintf("%d member(s)", len(disk.Members)),
		}
	case strings.HasPrefix(key, "msg:"):
		var disk DiskMessage
		if err := unmarshal(value, &disk); err != nil {
			return broken(key, "MESSAGE", err)
		}
		kind := "MESSAGE"
		if disk.System {
			kind = "SYSTEM"
		}
		return Record{
			Key:    readableMessageKey(key),
			Kind:   kind,
			Owner:  disk.Username,
			At:     time.UnixMilli(disk.Timestamp).UTC(),
			Detail: disk.Text,
		}
	default:
		return Record{Key: key, Kind: "UNKNOWN", Detail: fmt.Sprintf("%d byte(s)", len(value))}
	}
}

// readableMessageKey swaps the hex encoded group back to its name.
func readableMessageKey(key string) string {
	parts := strings.SplitN(key, ":", 3)
	if len(parts) != 3 {
		return key
	}
	name, err := hex.DecodeString(parts[1])
	if err != nil {
		return key
	}
	return fmt.Sprintf("msg:%s:%s", name, parts[2])
}

func broken(key, kind string, err error) Record {
	return Record{Key: key, Kind: kind, Detail: "Error: unmarshal failed: " + err.Error()}
}
