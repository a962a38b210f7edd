package runtime

import (
	"chat-relay/auth"
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/command"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"chat-relay/observability"
	"chat-relay/repositories"
	"context"
	errs "errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const (
	devicesKey = "devices"
	groupsKey  = "groups"
	logKey     = "log:"

	msgDuplicateDevice    = "Device already registered. Please login."
	msgInvalidCredentials = "Invalid credentials. Please try again."
	msgSessionLimit       = "Too many sessions for this device."
	msgGroupExists        = "Group already exists"
	msgRateLimited        = "Too many messages, slow down."
)

// Censor rewrites message text before it is stored.
type Censor interface {
	Censor(text string) (string, []string)
}

type HubConfig struct {
	Retention            time.Duration
	BufferSize           int
	MaxSessionsPerDevice int
	SendRatePerSecond    float64
	SendBurst            int
	Scorer               auth.Scorer
	Censor               Censor
	Clock                func() time.Time
}

type envelope struct {
	sessionID string
	cmd       command.Command
	sink      contract.EventSink
}

// Hub is the single writer of the relay state.
// Only the goroutine executing Run touches directories, sessions and logs;
// everything else talks to it through Dispatch and Open.
type Hub struct {
	log         *slog.Logger
	monitoring  *observability.MonitoringManager
	persister   *Persister
	deviceRepo  repositories.IDeviceRepository
	groupRepo   repositories.IGroupRepository
	messageRepo repositories.IMessageRepository

	devices  *DeviceDirectory
	groups   *GroupDirectory
	store    *MessageStore
	registry *Registry

	censor      Censor
	maxSessions int
	clock       func() time.Time
	commands    chan envelope

	// closing holds disconnects that found the command queue full.
	// Run applies them before the next queued command.
	mu      sync.Mutex
	closing []string
	wake    chan struct{}
	// closed remembers sessions whose disconnect overtook their opening.
	closed domain.Set
}

func NewHub(
	log *slog.Logger,
	monitoring *observability.MonitoringManager,
	persister *Persister,
	deviceRepo repositories.IDeviceRepository,
	groupRepo repositories.IGroupRepository,
	messageRepo repositories.IMessageRepository,
	cfg HubConfig,
) *Hub {
	scorer := cfg.Scorer
	if scorer == nil {
		scorer = auth.NewChangeHeuristic()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Hub{
		log:         log,
		monitoring:  monitoring,
		persister:   persister,
		deviceRepo:  deviceRepo,
		groupRepo:   groupRepo,
		messageRepo: messageRepo,
		devices:     NewDeviceDirectory(scorer),
		groups:      NewGroupDirectory(),
		store:       NewMessageStore(cfg.Retention),
		registry:    NewRegistry(cfg.SendRatePerSecond, cfg.SendBurst),
		censor:      cfg.Censor,
		maxSessions: cfg.MaxSessionsPerDevice,
		clock:       clock,
		commands:    make(chan envelope, cfg.BufferSize),
		wake:        make(chan struct{}, 1),
		closed:      make(domain.Set),
	}
}

// now is millisecond precise, the resolution messages are persisted with.
func (h *Hub) now() time.Time {
	return h.clock().UTC().Truncate(time.Millisecond)
}

// Restore loads devices, groups and retained logs. It must run before Run.
func (h *Hub) Restore(ctx context.Context) error {
	now := h.now()
	devices, err := h.deviceRepo.GetDevices(ctx)
	if err != nil {
		return fmt.Errorf("%w: load devices: %v", errors.ErrPersistence, err)
	}
	for _, device := range devices {
		h.devices.Restore(device)
	}
	groups, err := h.groupRepo.GetGroups(ctx)
	if err != nil {
		return fmt.Errorf("%w: load groups: %v", errors.ErrPersistence, err)
	}
	for _, group := range groups {
		h.groups.Restore(group)
		messages, err := h.messageRepo.GetMessages(ctx, group.Name, h.store.Cutoff(now))
		if err != nil {
			return fmt.Errorf("%w: load messages of %s: %v", errors.ErrPersistence, group.Name, err)
		}
		h.store.Restore(group.Name, messages, now)
	}
	h.monitoring.SetGroups(h.groups.Len())
	h.log.Info("State restored", "devices", h.devices.Len(), "groups", h.groups.Len())
	return nil
}

// Open queues a new connection with the sink its events are delivered to.
func (h *Hub) Open(ctx context.Context, sessionID string, sink contract.EventSink) error {
	return h.enqueue(ctx, envelope{sessionID: sessionID, cmd: command.Connect{}, sink: sink})
}

// Dispatch queues a command for the session. Commands of one session keep their order.
func (h *Hub) Dispatch(ctx context.Context, sessionID string, cmd command.Command) error {
	return h.enqueue(ctx, envelope{sessionID: sessionID, cmd: cmd})
}

// Close queues the end of a session. It never blocks and never fails: when the
// command queue is full the disconnect is applied ahead of it, so a session
// cannot outlive its connection.
func (h *Hub) Close(sessionID string) {
	select {
	case h.commands <- envelope{sessionID: sessionID, cmd: command.Disconnect{}}:
		return
	default:
	}
	h.mu.Lock()
	h.closing = append(h.closing, sessionID)
	h.mu.Unlock()
	select {
	case h.wake <- struct{}{}:
	default:
	}
}

func (h *Hub) enqueue(ctx context.Context, env envelope) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case h.commands <- env:
		return nil
	}
}

func (h *Hub) QueueLen() int { return len(h.commands) }
func (h *Hub) QueueCap() int { return cap(h.commands) }

func (h *Hub) Run(ctx context.Context) error {
	for {
		h.closePending(ctx)
		select {
		case <-ctx.Done():
			h.log.Debug("Stopping hub")
			return ctx.Err()
		case <-h.wake:
		case env := <-h.commands:
			if env.sink != nil {
				h.Attach(ctx, env.sessionID, env.sink)
				continue
			}
			h.Handle(ctx, env.sessionID, env.cmd)
		}
	}
}

// Flush applies pending disconnects and persists the whole state once more.
// Call it after Run has returned.
func (h *Hub) Flush() {
	h.closePending(context.Background())
	h.snapshot()
}

func (h *Hub) closePending(ctx context.Context) {
	h.mu.Lock()
	pending := h.closing
	h.closing = nil
	h.mu.Unlock()
	for _, sessionID := range pending {
		if !h.disconnect(ctx, sessionID) {
			h.closed.Add(sessionID)
		}
	}
}

// Attach opens an anonymous session bound to sink and announces its handle.
func (h *Hub) Attach(ctx context.Context, sessionID string, sink contract.EventSink) {
	if h.closed.Remove(sessionID) {
		h.log.Debug("Session closed before it opened", "session", sessionID)
		return
	}
	if !h.registry.Open(sessionID, sink, h.now()) {
		h.log.Debug("Session already open", "session", sessionID)
		return
	}
	h.monitoring.SetSessions(h.registry.Len())
	h.deliver(ctx, sessionID, sink, event.SessionOpened{SessionID: sessionID})
}

// Handle applies one command on the serialized path.
func (h *Hub) Handle(ctx context.Context, sessionID string, cmd command.Command) {
	switch cmd.(type) {
	case command.Sweep:
		h.sweep()
		return
	case command.Snapshot:
		h.snapshot()
		return
	}

	session, ok := h.registry.Get(sessionID)
	if !ok {
		h.log.Debug("Command from unknown session ignored", "session", sessionID, "kind", cmd.Kind())
		return
	}
	session.LastSeen = h.now()

	switch c := cmd.(type) {
	case command.Disconnect:
		h.disconnect(ctx, sessionID)
	case command.Register:
		h.register(ctx, session, c)
	case command.Login:
		h.login(ctx, session, c)
	case command.VerifyDevice:
		h.verify(ctx, session, c)
	case command.CreateGroup:
		h.createGroup(ctx, session, c)
	case command.JoinGroup:
		h.joinGroup(ctx, session, c)
	case command.LeaveGroup:
		h.leaveGroup(ctx, session, c)
	case command.SendMessage:
		h.sendMessage(ctx, session, c)
	default:
		h.log.Debug("Unhandled command", "session", sessionID, "kind", cmd.Kind())
	}
}

func (h *Hub) disconnect(ctx context.Context, sessionID string) bool {
	session, ok := h.registry.Close(sessionID)
	if !ok {
		return false
	}
	h.monitoring.SetSessions(h.registry.Len())
	now := h.now()
	for name := range session.Groups {
		if !h.groups.Leave(name, sessionID) {
			continue
		}
		h.appendAndBroadcast(ctx, name, domain.DisconnectedNotice(session.DisplayName(), now), now)
	}
	h.log.Debug("Session closed", "session", sessionID, "username", session.Username)
	return true
}

func (h *Hub) register(ctx context.Context, session *domain.Session, c command.Register) {
	now := h.now()
	device, err := h.devices.Register(c.DeviceID, c.Username, c.DeviceInfo, now)
	if err != nil {
		h.log.Debug("Registration refused", "device", c.DeviceID, "error", err)
		message := msgDuplicateDevice
		if !errs.Is(err, errors.ErrDuplicateResource) {
			message = err.Error()
		}
		h.send(ctx, session.ID, event.LoginResponse{Success: false, Message: message})
		return
	}
	h.registry.Bind(session.ID, device.ID, device.Username, now)
	h.persister.Submit(devicesKey, func(ctx context.Context) error {
		return h.deviceRepo.SaveDevices(ctx, device)
	})
	h.welcome(ctx, session.ID, device)
}

func (h *Hub) login(ctx context.Context, session *domain.Session, c command.Login) {
	now := h.now()
	device, err := h.devices.Login(c.DeviceID, c.Username, now)
	if err != nil {
		h.log.Debug("Login refused", "device", c.DeviceID, "error", err)
		h.send(ctx, session.ID, event.LoginResponse{Success: false, Message: msgInvalidCredentials})
		return
	}
	if h.maxSessions > 0 && h.registry.CountForDevice(device.ID, session.ID) >= h.maxSessions {
		h.log.Debug("Login refused", "device", c.DeviceID, "error", errors.ErrSessionLimit)
		h.send(ctx, session.ID, event.LoginResponse{Success: false, Message: msgSessionLimit})
		return
	}
	h.registry.Bind(session.ID, device.ID, device.Username, now)
	h.welcome(ctx, session.ID, device)
}

func (h *Hub) welcome(ctx context.Context, sessionID string, device domain.Device) {
	h.send(ctx, sessionID, event.LoginResponse{Success: true, DeviceID: device.ID, Username: device.Username})
	h.send(ctx, sessionID, event.GroupList{Names: h.groups.Names()})
}

func (h *Hub) verify(ctx context.Context, session *domain.Session, c command.VerifyDevice) {
	changed, err := h.devices.Verify(c.DeviceID, c.Fingerprint, c.DeviceInfo)
	switch {
	case errs.Is(err, errors.ErrSuspiciousDevice):
		h.log.Warn("Suspicious device change", "device", c.DeviceID, "session", session.ID, "error", err)
	case err != nil:
		h.log.Debug("Device verification failed", "device", c.DeviceID, "error", err)
	}
	if changed {
		if device, ok := h.devices.Get(c.DeviceID); ok {
			h.persister.Submit(devicesKey, func(ctx context.Context) error {
				return h.deviceRepo.SaveDevices(ctx, device)
			})
		}
	}
	h.send(ctx, session.ID, event.DeviceVerification{Success: err == nil})
}

func (h *Hub) createGroup(ctx context.Context, session *domain.Session, c command.CreateGroup) {
	group, err := h.groups.Create(c.Name, h.now())
	if err != nil {
		h.log.Debug("Group creation refused", "group", c.Name, "error", err)
		h.send(ctx, session.ID, event.Error{Message: msgGroupExists})
		return
	}
	h.store.Create(group.Name)
	h.monitoring.SetGroups(h.groups.Len())
	saved := domain.Group{Name: group.Name, Members: make(domain.Set), CreatedAt: group.CreatedAt}
	h.persister.Submit(groupsKey, func(ctx context.Context) error {
		return h.groupRepo.SaveGroups(ctx, saved)
	})
	names := h.groups.Names()
	for id, sink := range h.registry.AllSinks() {
		h.deliver(ctx, id, sink, event.GroupList{Names: names})
	}
	h.log.Info("Group created", "group", group.Name)
}

func (h *Hub) joinGroup(ctx context.Context, session *domain.Session, c command.JoinGroup) {
	if !h.groups.Join(c.Name, session.ID) {
		reason := "already a member"
		if _, ok := h.groups.Get(c.Name); !ok {
			reason = errors.ErrUnknownGroup.Error()
		}
		h.log.Debug("Join ignored", "group", c.Name, "session", session.ID, "reason", reason)
		return
	}
	session.Groups.Add(c.Name)
	now := h.now()
	h.send(ctx, session.ID, event.ExistingMessages{Group: c.Name, Entries: h.store.Window(c.Name, now)})
	h.appendAndBroadcast(ctx, c.Name, domain.JoinedNotice(session.DisplayName(), now), now)
}

func (h *Hub) leaveGroup(ctx context.Context, session *domain.Session, c command.LeaveGroup) {
	if !h.groups.Leave(c.Name, session.ID) {
		h.log.Debug("Leave ignored", "group", c.Name, "session", session.ID)
		return
	}
	session.Groups.Remove(c.Name)
	now := h.now()
	h.appendAndBroadcast(ctx, c.Name, domain.LeftNotice(session.DisplayName(), now), now)
}

func (h *Hub) sendMessage(ctx context.Context, session *domain.Session, c command.SendMessage) {
	if !h.groups.IsMember(c.GroupName, session.ID) {
		h.monitoring.IncrUnauthorizedDropped()
		h.log.Debug("Message dropped", "group", c.GroupName, "session", session.ID, "error", errors.ErrNotMember)
		return
	}
	now := h.now()
	if !h.registry.Allow(session.ID, now) {
		h.log.Debug("Message dropped", "group", c.GroupName, "session", session.ID, "error", errors.ErrRateLimited)
		h.send(ctx, session.ID, event.Error{Message: msgRateLimited})
		return
	}
	username := c.Username
	if username == "" {
		username = session.DisplayName()
	}
	text := c.Text
	if h.censor != nil {
		var found []string
		if text, found = h.censor.Censor(text); len(found) > 0 {
			h.log.Debug("Message censored", "group", c.GroupName, "session", session.ID, "words", found)
		}
	}
	h.appendAndBroadcast(ctx, c.GroupName, domain.NewMessage(text, username, now), now)
	h.monitoring.IncrMessagesRelayed()
}

// appendAndBroadcast stores the message, schedules its write and fans it out to current members.
func (h *Hub) appendAndBroadcast(ctx context.Context, group string, message domain.Message, now time.Time) {
	h.store.Append(group, message, now)
	cutoff := h.store.Cutoff(now)
	h.persister.Submit(logKey+group, func(ctx context.Context) error {
		return h.messageRepo.AppendMessage(ctx, group, message, cutoff)
	})
	h.broadcast(ctx, group, event.ReceiveMessage{Group: group, Message: message})
}

func (h *Hub) broadcast(ctx context.Context, group string, e event.Event) {
	g, ok := h.groups.Get(group)
	if !ok {
		return
	}
	for id, sink := range h.registry.SinksFor(g.Members) {
		h.deliver(ctx, id, sink, e)
	}
}

func (h *Hub) send(ctx context.Context, sessionID string, e event.Event) {
	if sink, ok := h.registry.Sink(sessionID); ok {
		h.deliver(ctx, sessionID, sink, e)
	}
}

func (h *Hub) deliver(ctx context.Context, sessionID string, sink contract.EventSink, e event.Event) {
	if err := sink.Consume(ctx, e); err != nil {
		h.monitoring.IncrDeliveriesDropped()
		h.log.Warn("Event not delivered", "session", sessionID, "kind", e.Kind(), "error", err)
	}
}

func (h *Hub) sweep() {
	pruned := h.store.Sweep(h.now())
	h.monitoring.AddMessagesPruned(pruned)
	h.log.Debug("Retention sweep done", "pruned", pruned)
	h.snapshot()
}

// snapshot copies the state on the serialized path and writes the copies in the background.
// A pending snapshot not yet started is replaced by this one.
func (h *Hub) snapshot() {
	devices := h.devices.Snapshot()
	groups := h.groups.Snapshot()
	logs := h.store.Snapshot()
	h.persister.SubmitLatest(devicesKey, func(ctx context.Context) error {
		return h.deviceRepo.SaveDevices(ctx, devices...)
	})
	h.persister.SubmitLatest(groupsKey, func(ctx context.Context) error {
		return h.groupRepo.SaveGroups(ctx, groups...)
	})
	for group, messages := range logs {
		h.persister.SubmitLatest(logKey+group, func(ctx context.Context) error {
			return h.messageRepo.ReplaceLog(ctx, group, messages)
		})
	}
	h.log.Debug("Snapshot scheduled", "devices", len(devices), "groups", len(groups))
}
