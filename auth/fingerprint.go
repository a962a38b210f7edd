package auth

import (
	"chat-relay/domain"
	"encoding/hex"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/zeebo/blake3"
)

// canonical encodes with Core Deterministic Encoding (RFC 8949 §4.2):
// same logical device info, same bytes.
var canonical cbor.EncMode

func init() {
	var err error
	canonical, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("auth: CBOR encoder initialization failed: " + err.Error())
	}
}

// Fingerprint derives the hex BLAKE3 digest of the canonicalized device info.
// It identifies an environment, it does not authenticate one.
func Fingerprint(info domain.DeviceInfo) (string, error) {
	data, err := canonical.Marshal(info)
	if err != nil {
		return "", fmt.Errorf("canonicalize device info: %w", err)
	}
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
