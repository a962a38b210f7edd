package runtime

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"time"

	"golang.org/x/time/rate"
)

type entry struct {
	session *domain.Session
	sink    contract.EventSink
	limiter *rate.Limiter
}

// Registry maps each live connection to its session and delivery sink.
// It is owned by the hub goroutine: every call happens on the serialized path.
type Registry struct {
	sessions map[string]*entry
	newLimit func() *rate.Limiter
}

// NewRegistry builds a registry. A zero sendRate disables per-session rate limiting.
func NewRegistry(sendRate float64, sendBurst int) *Registry {
	r := &Registry{sessions: make(map[string]*entry)}
	if sendRate > 0 {
		burst := max(sendBurst, 1)
		r.newLimit = func() *rate.Limiter { return rate.NewLimiter(rate.Limit(sendRate), burst) }
	}
	return r
}

// Open allocates an anonymous session for a new connection.
// It reports false if the handle is already in use.
func (r *Registry) Open(sessionID string, sink contract.EventSink, now time.Time) bool {
	if _, ok := r.sessions[sessionID]; ok {
		return false
	}
	e := &entry{
		session: &domain.Session{ID: sessionID, LastSeen: now, Groups: make(domain.Set)},
		sink:    sink,
	}
	if r.newLimit != nil {
		e.limiter = r.newLimit()
	}
	r.sessions[sessionID] = e
	return true
}

// Close removes the session and returns it so that memberships can be cascaded.
func (r *Registry) Close(sessionID string) (*domain.Session, bool) {
	e, ok := r.sessions[sessionID]
	if !ok {
		return nil, false
	}
	delete(r.sessions, sessionID)
	return e.session, true
}

func (r *Registry) Get(sessionID string) (*domain.Session, bool) {
	e, ok := r.sessions[sessionID]
	if !ok {
		return nil, false
	}
	return e.session, true
}

// Bind attaches a device identity to the session after register or login.
func (r *Registry) Bind(sessionID, deviceID, username string, now time.Time) {
	if e, ok := r.sessions[sessionID]; ok {
		e.session.DeviceID = deviceID
		e.session.Username = username
		e.session.LastSeen = now
	}
}

// CountForDevice counts the sessions bound to deviceID, excluding one session.
func (r *Registry) CountForDevice(deviceID, except string) int {
	count := 0
	for id, e := range r.sessions {
		if id != except && e.session.DeviceID == deviceID {
			count++
		}
	}
	return count
}

// Allow consumes one send token of the session limiter.
func (r *Registry) Allow(sessionID string, now time.Time) bool {
	e, ok := r.sessions[sessionID]
	if !ok || e.limiter == nil {
		return true
	}
	return e.limiter.AllowN(now, 1)
}

func (r *Registry) Sink(sessionID string) (contract.EventSink, bool) {
	e, ok := r.sessions[sessionID]
	if !ok {
		return nil, false
	}
	return e.sink, true
}

// SinksFor resolves session IDs into sinks, skipping sessions that are gone.
func (r *Registry) SinksFor(sessionIDs domain.Set) map[string]contract.EventSink {
	res := make(map[string]contract.EventSink, len(sessionIDs))
	for id := range sessionIDs {
		if e, ok := r.sessions[id]; ok {
			res[id] = e.sink
		}
	}
	return res
}

func (r *Registry) AllSinks() map[string]contract.EventSink {
	res := make(map[string]contract.EventSink, len(r.sessions))
	for id, e := range r.sessions {
		res[id] = e.sink
	}
	return res
}

func (r *Registry) Len() int {
	return len(r.sessions)
}
