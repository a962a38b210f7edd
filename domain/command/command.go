// Package command defines the closed set of requests the hub accepts.
// Inbound payloads are decoded into one of these types by package protocol;
// nothing outside this package can add a new variant.
package command

import "chat-relay/domain"

type Kind string

const (
	KindConnect      Kind = "connect"
	KindDisconnect   Kind = "disconnect"
	KindRegister     Kind = "register"
	KindLogin        Kind = "login"
	KindVerifyDevice Kind = "verify_device"
	KindCreateGroup  Kind = "create_group"
	KindJoinGroup    Kind = "join_group"
	KindLeaveGroup   Kind = "leave_group"
	KindSendMessage  Kind = "send_message"
	KindSweep        Kind = "sweep"
	KindSnapshot     Kind = "snapshot"
)

type Command interface {
	Kind() Kind
	sealed()
}

type Connect struct{}

type Disconnect struct{}

type Register struct {
	DeviceID   string
	Username   string
	DeviceInfo domain.DeviceInfo
}

type Login struct {
	DeviceID string
	Username string
}

type VerifyDevice struct {
	DeviceID    string
	Fingerprint string
	DeviceInfo  domain.DeviceInfo
}

type CreateGroup struct {
	Name string
}

type JoinGroup struct {
	Name string
}

type LeaveGroup struct {
	Name string
}

type SendMessage struct {
	GroupName string
	Text      string
	Username  string
}

// Sweep prunes every log past the retention window, then snapshots.
type Sweep struct{}

// Snapshot persists devices, groups and logs as a whole.
type Snapshot struct{}

func (Connect) Kind() Kind      { return KindConnect }
func (Disconnect) Kind() Kind   { return KindDisconnect }
func (Register) Kind() Kind     { return KindRegister }
func (Login) Kind() Kind        { return KindLogin }
func (VerifyDevice) Kind() Kind { return KindVerifyDevice }
func (CreateGroup) Kind() Kind  { return KindCreateGroup }
func (JoinGroup) Kind() Kind    { return KindJoinGroup }
func (LeaveGroup) Kind() Kind   { return KindLeaveGroup }
func (SendMessage) Kind() Kind  { return KindSendMessage }
func (Sweep) Kind() Kind        { return KindSweep }
func (Snapshot) Kind() Kind     { return KindSnapshot }

func (Connect) sealed()      {}
func (Disconnect) sealed()   {}
func (Register) sealed()     {}
func (Login) sealed()        {}
func (VerifyDevice) sealed() {}
func (CreateGroup) sealed()  {}
func (JoinGroup) sealed()    {}
func (LeaveGroup) sealed()   {}
func (SendMessage) sealed()  {}
func (Sweep) sealed()        {}
func (Snapshot) sealed()     {}
