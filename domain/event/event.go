package event

import "chat-relay/domain"

type Kind string

const (
	KindSession            Kind = "session"
	KindLoginResponse      Kind = "login_response"
	KindDeviceVerification Kind = "device_verification"
	KindGroupList          Kind = "group_list"
	KindExistingMessages   Kind = "existing_messages"
	KindReceiveMessage     Kind = "receive_message"
	KindError              Kind = "error"
)

// Event is anything the hub delivers to a session sink.
type Event interface {
	Kind() Kind
}

// SessionOpened is the first event of every stream and carries the session handle.
type SessionOpened struct {
	SessionID string
}

type LoginResponse struct {
	Success  bool
	DeviceID string
	Username string
	Message  string
}

type DeviceVerification struct {
	Success bool
}

type GroupList struct {
	Names []string
}

type ExistingMessages struct {
	Group   string
	Entries []domain.Message
}

type ReceiveMessage struct {
	Group   string
	Message domain.Message
}

// Error reports a single-request failure to the originating session only.
type Error struct {
	Message string
}

func (SessionOpened) Kind() Kind      { return KindSession }
func (LoginResponse) Kind() Kind      { return KindLoginResponse }
func (DeviceVerification) Kind() Kind { return KindDeviceVerification }
func (GroupList) Kind() Kind          { return KindGroupList }
func (ExistingMessages) Kind() Kind   { return KindExistingMessages }
func (ReceiveMessage) Kind() Kind     { return KindReceiveMessage }
func (Error) Kind() Kind              { return KindError }
