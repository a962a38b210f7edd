// Package domain contains core concepts of the relay.
// This file defines Message entries of a group log.
// Messages are immutable once appended.
package domain

import (
	"bytes"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const SystemSender = "System"

// Message is one entry of a group's retained log.
type Message struct {
	ID        uuid.UUID
	Text      string
	Username  string
	Timestamp time.Time
	System    bool
}

// newID returns a time-ordered UUID. IDs created by one process sort in
// creation order, which breaks ties between messages sharing a timestamp.
func newID() uuid.UUID {
	return uuid.Must(uuid.NewV7())
}

func NewMessage(text, username string, at time.Time) Message {
	return Message{ID: newID(), Text: text, Username: username, Timestamp: at}
}

func NewSystemMessage(text string, at time.Time) Message {
	return Message{ID: newID(), Text: text, Username: SystemSender, Timestamp: at, System: true}
}

// Compare orders messages by timestamp, then by ID.
func Compare(a, b Message) int {
	if c := a.Timestamp.Compare(b.Timestamp); c != 0 {
		return c
	}
	return bytes.Compare(a.ID[:], b.ID[:])
}

func JoinedNotice(username string, at time.Time) Message {
	return NewSystemMessage(fmt.Sprintf("%s joined the group", username), at)
}

func LeftNotice(username string, at time.Time) Message {
	return NewSystemMessage(fmt.Sprintf("%s left the group", username), at)
}

func DisconnectedNotice(username string, at time.Time) Message {
	return NewSystemMessage(fmt.Sprintf("%s disconnected", username), at)
}
