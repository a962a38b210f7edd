package domain

import "time"

type Set map[string]struct{}

func (s Set) Add(key string) bool {
	if _, ok := s[key]; ok {
		return false
	}
	s[key] = struct{}{}
	return true
}

func (s Set) Remove(key string) bool {
	if _, ok := s[key]; !ok {
		return false
	}
	delete(s, key)
	return true
}

func (s Set) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// Session is a connection-scoped identity. It is never persisted.
type Session struct {
	ID       string
	DeviceID string
	Username string
	LastSeen time.Time
	Groups   Set
}

// Authenticated reports whether register or login bound a device to the session.
func (s *Session) Authenticated() bool {
	return s.DeviceID != ""
}

// DisplayName is the name used in system notices.
func (s *Session) DisplayName() string {
	if !s.Authenticated() || s.Username == "" {
		return "anonymous"
	}
	return s.Username
}
