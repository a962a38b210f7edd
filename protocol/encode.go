package protocol

import (
	"chat-relay/domain"
	"chat-relay/domain/event"
	"encoding/json"
	"fmt"

	"github.com/samber/lo"
)

type SessionPayload struct {
	SessionID string `json:"sessionId"`
}

type LoginResponsePayload struct {
	Success  bool   `json:"success"`
	DeviceID string `json:"deviceId,omitempty"`
	Username string `json:"username,omitempty"`
	Message  string `json:"message,omitempty"`
}

type DeviceVerificationPayload struct {
	Success bool `json:"success"`
}

type MessagePayload struct {
	Group     string `json:"group,omitempty"`
	Text      string `json:"text"`
	Username  string `json:"username"`
	Timestamp int64  `json:"timestamp"`
	System    bool   `json:"system"`
}

type ExistingMessagesPayload struct {
	Group   string           `json:"group"`
	Entries []MessagePayload `json:"entries"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// Encode renders an event as its wire name and JSON body.
// The group list is a bare array of names.
func Encode(e event.Event) (string, []byte, error) {
	var body any
	switch ev := e.(type) {
	case event.SessionOpened:
		body = SessionPayload{SessionID: ev.SessionID}
	case event.LoginResponse:
		body = LoginResponsePayload(ev)
	case event.DeviceVerification:
		body = DeviceVerificationPayload(ev)
	case event.GroupList:
		body = lo.Ternary(ev.Names == nil, []string{}, ev.Names)
	case event.ExistingMessages:
		body = ExistingMessagesPayload{
			Group: ev.Group,
			Entries: lo.Map(ev.Entries, func(m domain.Message, _ int) MessagePayload {
				return toMessagePayload("", m)
			}),
		}
	case event.ReceiveMessage:
		body = toMessagePayload(ev.Group, ev.Message)
	case event.Error:
		body = ErrorPayload(ev)
	default:
		return "", nil, fmt.Errorf("unsupported event %T", e)
	}
	data, err := json.Marshal(body)
	if err != nil {
		return "", nil, err
	}
	return string(e.Kind()), data, nil
}

func toMessagePayload(group string, m domain.Message) MessagePayload {
	return MessagePayload{
		Group:     group,
		Text:      m.Text,
		Username:  m.Username,
		Timestamp: m.Timestamp.UnixMilli(),
		System:    m.System,
	}
}
