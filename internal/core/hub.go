package core

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/vovakirdan/chatrelay/internal/metrics"
)

// Hub is the room registry and broadcaster. It is the only owner of room
// membership; all synchronization is internal.
type Hub struct {
	log         *zerolog.Logger
	metrics     *metrics.Metrics
	sendTimeout time.Duration
	fanoutLimit int
	now         func() time.Time

	mu      sync.Mutex
	rooms   map[string]*Room
	members map[Conn]*Membership
	seq     uint64
}

// Option configures a Hub.
type Option func(*Hub)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zerolog.Logger) Option {
	return func(h *Hub) {
		if logger != nil {
			h.log = logger
		}
	}
}

// WithMetrics records occupancy and fan-out counters into m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Hub) { h.metrics = m }
}

// WithSendTimeout bounds every individual send. Zero means no bound.
func WithSendTimeout(d time.Duration) Option {
	return func(h *Hub) { h.sendTimeout = d }
}

// WithFanoutConcurrency caps concurrent sends per broadcast. Zero or less means unlimited.
func WithFanoutConcurrency(n int) Option {
	return func(h *Hub) { h.fanoutLimit = n }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(h *Hub) { h.now = now }
}

// NewHub creates an empty hub.
func NewHub(opts ...Option) *Hub {
	nop := zerolog.Nop()
	h := &Hub{
		log:     &nop,
		now:     time.Now,
		rooms:   make(map[string]*Room),
		members: make(map[Conn]*Membership),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.fanoutLimit <= 0 {
		h.fanoutLimit = -1
	}
	return h
}

// Join registers conn in room under username and announces it to the room:
// a system notice "<username> joined" followed by the member list. Both
// broadcasts include conn itself. An empty username becomes DefaultUsername.
func (h *Hub) Join(ctx context.Context, conn Conn, room, username string) error {
	if conn == nil {
		return ErrInvalidConn
	}
	if room == "" {
		return ErrInvalidRoom
	}
	if username == "" {
		username = DefaultUsername
	}

	h.mu.Lock()
	if _, ok := h.members[conn]; ok {
		h.mu.Unlock()
		return ErrAlreadyJoined
	}
	r := h.rooms[room]
	if r == nil {
		r = NewRoom(room)
		h.rooms[room] = r
	}
	h.seq++
	r.Add(conn, h.seq)
	h.members[conn] = &Membership{Room: room, Username: username}
	h.observeLocked()
	h.mu.Unlock()

	h.log.Debug().Str("room", room).Str("user", username).Msg("member joined")

	h.BroadcastSystem(ctx, room, username+" joined")
	h.BroadcastUsers(ctx, room)
	return nil
}

// Leave removes conn from its room and returns the membership it held. The
// room is deleted when its last member leaves. Leave never broadcasts; the
// caller decides whether to announce the departure.
func (h *Hub) Leave(conn Conn) (Membership, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.leaveLocked(conn)
}

func (h *Hub) leaveLocked(conn Conn) (Membership, bool) {
	m, ok := h.members[conn]
	if !ok {
		return Membership{}, false
	}
	delete(h.members, conn)
	if r := h.rooms[m.Room]; r != nil {
		r.Remove(conn)
		if r.Empty() {
			delete(h.rooms, m.Room)
		}
	}
	h.observeLocked()
	return *m, true
}

// BroadcastMessage sends a chat message to every member of room.
func (h *Hub) BroadcastMessage(ctx context.Context, room, username, content string) {
	h.fanout(ctx, &Event{
		Kind:      EventMessage,
		Room:      room,
		Username:  username,
		Content:   content,
		Timestamp: h.now().UTC(),
	})
}

// BroadcastSystem sends a system notice to every member of room.
func (h *Hub) BroadcastSystem(ctx context.Context, room, content string) {
	h.fanout(ctx, &Event{
		Kind:      EventSystem,
		Room:      room,
		Content:   content,
		Timestamp: h.now().UTC(),
	})
}

// BroadcastUsers sends the current member list of room to every member.
func (h *Hub) BroadcastUsers(ctx context.Context, room string) {
	h.fanout(ctx, &Event{
		Kind:      EventUsers,
		Room:      room,
		Timestamp: h.now().UTC(),
	})
}

// Rooms returns the sorted names of all existing rooms.
func (h *Hub) Rooms() []string {
	h.mu.Lock()
	names := make([]string, 0, len(h.rooms))
	for name := range h.rooms {
		names = append(names, name)
	}
	h.mu.Unlock()

	sort.Strings(names)
	return names
}

// CreateRoom registers an empty room. It stays listed until a member joins
// and the last member leaves again.
func (h *Hub) CreateRoom(name string) error {
	if name == "" {
		return ErrInvalidRoom
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.rooms[name]; exists {
		return ErrRoomExists
	}
	h.rooms[name] = NewRoom(name)
	h.observeLocked()
	return nil
}

// Users returns the usernames of the members of room in join order.
// An absent room yields an empty list.
func (h *Hub) Users(room string) []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	r := h.rooms[room]
	if r == nil {
		return []string{}
	}
	return h.usernamesLocked(r.Conns())
}

// Stats is a point-in-time view of hub occupancy.
type Stats struct {
	Rooms   int `json:"rooms"`
	Members int `json:"members"`
}

// Stats returns current room and member counts.
func (h *Hub) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return Stats{Rooms: len(h.rooms), Members: len(h.members)}
}

// Shutdown drops every room and closes every member connection without
// broadcasting departures. It reports ctx's error if ctx ended before or
// during the close pass.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	conns := make([]Conn, 0, len(h.members))
	for c := range h.members {
		conns = append(conns, c)
	}
	h.rooms = make(map[string]*Room)
	h.members = make(map[Conn]*Membership)
	h.observeLocked()
	h.mu.Unlock()

	// Every connection is closed even past the deadline: nothing else holds
	// them once the maps are cleared.
	for _, c := range conns {
		_ = c.Close()
	}
	h.log.Info().Int("connections", len(conns)).Msg("hub shut down")
	return ctx.Err()
}

// fanout delivers ev to the members of ev.Room as of now. Members whose send
// fails are closed and removed once the pass is over, and the room is told
// they left.
func (h *Hub) fanout(ctx context.Context, ev *Event) {
	r, conns, names := h.lockSnapshot(ev.Room)
	if r == nil {
		return
	}
	if ev.Kind == EventUsers {
		ev.Users = names
	}
	dead := h.deliver(ctx, conns, ev)
	r.fanout.Unlock()

	h.evict(ctx, dead)
}

// lockSnapshot acquires the room's fan-out lock and captures its members.
// It returns a nil room when none exists. The room may be deleted or replaced
// while we wait for its lock, hence the retry.
func (h *Hub) lockSnapshot(name string) (*Room, []Conn, []string) {
	for {
		h.mu.Lock()
		r := h.rooms[name]
		h.mu.Unlock()
		if r == nil {
			return nil, nil, nil
		}

		r.fanout.Lock()
		h.mu.Lock()
		if h.rooms[name] == r {
			conns := r.Conns()
			names := h.usernamesLocked(conns)
			h.mu.Unlock()
			return r, conns, names
		}
		h.mu.Unlock()
		r.fanout.Unlock()
	}
}

func (h *Hub) deliver(ctx context.Context, conns []Conn, ev *Event) []Conn {
	if len(conns) == 0 {
		return nil
	}

	// Sends outlive the caller: a client that disconnects mid-broadcast must
	// not turn every other member's send into a failure.
	base := context.WithoutCancel(ctx)
	errs := make([]error, len(conns))

	var g errgroup.Group
	g.SetLimit(h.fanoutLimit)
	for i, c := range conns {
		g.Go(func() error {
			sendCtx := base
			if h.sendTimeout > 0 {
				var cancel context.CancelFunc
				sendCtx, cancel = context.WithTimeout(base, h.sendTimeout)
				defer cancel()
			}
			errs[i] = c.Send(sendCtx, ev)
			return nil
		})
	}
	_ = g.Wait()

	h.metrics.Broadcast(ev.Kind.String(), len(conns))

	var dead []Conn
	for i, err := range errs {
		if err == nil {
			continue
		}
		h.metrics.SendFailed()
		h.log.Debug().Err(err).Str("room", ev.Room).Stringer("event", ev.Kind).Msg("send failed")
		dead = append(dead, conns[i])
	}
	return dead
}

func (h *Hub) evict(ctx context.Context, dead []Conn) {
	for _, c := range dead {
		_ = c.Close()

		m, ok := h.Leave(c)
		if !ok {
			// Already gone: it left on its own while we were sending.
			continue
		}
		h.metrics.ForcedRemoval()
		h.log.Debug().Str("room", m.Room).Str("user", m.Username).Msg("member evicted")

		h.BroadcastSystem(ctx, m.Room, m.Username+" left")
		h.BroadcastUsers(ctx, m.Room)
	}
}

func (h *Hub) usernamesLocked(conns []Conn) []string {
	names := make([]string, 0, len(conns))
	for _, c := range conns {
		if m := h.members[c]; m != nil {
			names = append(names, m.Username)
		}
	}
	return names
}

func (h *Hub) observeLocked() {
	h.metrics.SetOccupancy(len(h.rooms), len(h.members))
}
