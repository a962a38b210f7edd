package domain

import "time"

// Group is a named broadcast channel. Members holds session IDs.
type Group struct {
	Name      string
	Members   Set
	CreatedAt time.Time
}

func NewGroup(name string, createdAt time.Time) *Group {
	return &Group{Name: name, Members: make(Set), CreatedAt: createdAt}
}
