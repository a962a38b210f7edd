// Package protocol translates wire envelopes into commands and events into wire payloads.
// Nothing reaches the hub without going through Decode first.
package protocol

import (
	"bytes"
	"chat-relay/domain"
	"chat-relay/domain/command"
	"chat-relay/errors"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
)

const (
	MaxNameLength = 64
	MaxTextLength = 4096
)

var validate = validator.New()

// Envelope is the inbound frame: {"type": <kind>, "payload": {...}}.
type Envelope struct {
	Type    string          `json:"type" validate:"required"`
	Payload json.RawMessage `json:"payload"`
}

type RegisterPayload struct {
	DeviceID   string            `json:"deviceId" validate:"required,max=128"`
	Username   string            `json:"username" validate:"required,max=64"`
	DeviceInfo domain.DeviceInfo `json:"deviceInfo"`
}

type LoginPayload struct {
	DeviceID string `json:"deviceId" validate:"required,max=128"`
	Username string `json:"username" validate:"required,max=64"`
}

type VerifyDevicePayload struct {
	DeviceID    string            `json:"deviceId" validate:"required,max=128"`
	Fingerprint string            `json:"fingerprint" validate:"required,max=256"`
	DeviceInfo  domain.DeviceInfo `json:"deviceInfo"`
}

type GroupPayload struct {
	Name string `json:"name" validate:"required,max=64"`
}

type SendMessagePayload struct {
	GroupName string `json:"groupName" validate:"required,max=64"`
	Text      string `json:"text" validate:"required,max=4096"`
	// Message is the legacy name of Text.
	Message  string `json:"message" validate:"max=4096"`
	Username string `json:"username" validate:"max=64"`
}

// Decode validates an inbound envelope and turns it into a command.
// Every failure wraps ErrValidation.
func Decode(data []byte) (command.Command, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, invalid(err)
	}
	if err := validate.Struct(env); err != nil {
		return nil, invalid(err)
	}

	switch command.Kind(env.Type) {
	case command.KindRegister:
		var p RegisterPayload
		if err := decodePayload(env.Payload, &p); err != nil {
			return nil, err
		}
		return command.Register{DeviceID: p.DeviceID, Username: p.Username, DeviceInfo: p.DeviceInfo}, nil
	case command.KindLogin:
		var p LoginPayload
		if err := decodePayload(env.Payload, &p); err != nil {
			return nil, err
		}
		return command.Login{DeviceID: p.DeviceID, Username: p.Username}, nil
	case command.KindVerifyDevice:
		var p VerifyDevicePayload
		if err := decodePayload(env.Payload, &p); err != nil {
			return nil, err
		}
		return command.VerifyDevice{DeviceID: p.DeviceID, Fingerprint: p.Fingerprint, DeviceInfo: p.DeviceInfo}, nil
	case command.KindCreateGroup:
		name, err := decodeName(env.Payload)
		if err != nil {
			return nil, err
		}
		return command.CreateGroup{Name: name}, nil
	case command.KindJoinGroup:
		name, err := decodeName(env.Payload)
		if err != nil {
			return nil, err
		}
		return command.JoinGroup{Name: name}, nil
	case command.KindLeaveGroup:
		name, err := decodeName(env.Payload)
		if err != nil {
			return nil, err
		}
		return command.LeaveGroup{Name: name}, nil
	case command.KindSendMessage:
		var p SendMessagePayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return nil, invalid(err)
		}
		if p.Text == "" {
			p.Text = p.Message
		}
		if err := validate.Struct(p); err != nil {
			return nil, invalid(err)
		}
		return command.SendMessage{GroupName: p.GroupName, Text: p.Text, Username: p.Username}, nil
	default:
		return nil, fmt.Errorf("%w: unknown type %q", errors.ErrValidation, env.Type)
	}
}

func decodePayload(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return fmt.Errorf("%w: missing payload", errors.ErrValidation)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return invalid(err)
	}
	if err := validate.Struct(v); err != nil {
		return invalid(err)
	}
	return nil
}

// decodeName accepts both {"name": "general"} and the bare string "general".
func decodeName(raw json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var name string
		if err := json.Unmarshal(trimmed, &name); err != nil {
			return "", invalid(err)
		}
		p := GroupPayload{Name: name}
		if err := validate.Struct(p); err != nil {
			return "", invalid(err)
		}
		return p.Name, nil
	}
	var p GroupPayload
	if err := decodePayload(raw, &p); err != nil {
		return "", err
	}
	return p.Name, nil
}

func invalid(err error) error {
	return fmt.Errorf("%w: %v", errors.ErrValidation, err)
}
