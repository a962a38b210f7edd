package observability

import (
	"runtime"
	"sync/atomic"
)

// RelayStats is a point-in-time view of the relay counters.
type RelayStats struct {
	Sessions            int64  `json:"sessions"`
	Groups              int64  `json:"groups"`
	MessagesRelayed     uint64 `json:"messages_relayed"`
	DeliveriesDropped   uint64 `json:"deliveries_dropped"`
	MessagesPruned      uint64 `json:"messages_pruned"`
	PersistenceFailures uint64 `json:"persistence_failures"`
	UnauthorizedDropped uint64 `json:"unauthorized_dropped"`
	AllocMemMb          uint64 `json:"alloc_mem_mb"`
	NumGC               uint32 `json:"num_gc"`
}

// MonitoringManager holds counters written by the hub and the persister
// and read by the telemetry worker from another goroutine.
type MonitoringManager struct {
	sessions            atomic.Int64
	groups              atomic.Int64
	messagesRelayed     atomic.Uint64
	deliveriesDropped   atomic.Uint64
	messagesPruned      atomic.Uint64
	persistenceFailures atomic.Uint64
	unauthorizedDropped atomic.Uint64
}

func NewMonitoringManager() *MonitoringManager {
	return &MonitoringManager{}
}

func (mm *MonitoringManager) SetSessions(n int)        { mm.sessions.Store(int64(n)) }
func (mm *MonitoringManager) SetGroups(n int)          { mm.groups.Store(int64(n)) }
func (mm *MonitoringManager) IncrMessagesRelayed()     { mm.messagesRelayed.Add(1) }
func (mm *MonitoringManager) IncrDeliveriesDropped()   { mm.deliveriesDropped.Add(1) }
func (mm *MonitoringManager) AddMessagesPruned(n int)  { mm.messagesPruned.Add(uint64(n)) }
func (mm *MonitoringManager) IncrPersistenceFailures() { mm.persistenceFailures.Add(1) }
func (mm *MonitoringManager) IncrUnauthorizedDropped() { mm.unauthorizedDropped.Add(1) }

func (mm *MonitoringManager) GetLatest() RelayStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return RelayStats{
		Sessions:            mm.sessions.Load(),
		Groups:              mm.groups.Load(),
		MessagesRelayed:     mm.messagesRelayed.Load(),
		DeliveriesDropped:   mm.deliveriesDropped.Load(),
		MessagesPruned:      mm.messagesPruned.Load(),
		PersistenceFailures: mm.persistenceFailures.Load(),
		UnauthorizedDropped: mm.unauthorizedDropped.Load(),
		AllocMemMb:          m.Alloc / 1024 / 1024,
		NumGC:               m.NumGC,
	}
}
