package core

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/mlevan/tandem/internal/domain"
)

// Connection is the registry's view of one live client link.
type Connection struct {
	ID       SessionID
	Username string
	Room     domain.RoomID
	Role     domain.Role
	Signal   SignalConnection
}

// Registry tracks every live connection and its identity. It is the only
// holder of Connection state; all mutation goes through its methods.
type Registry struct {
	mu    sync.RWMutex
	conns map[SessionID]*Connection
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[SessionID]*Connection)}
}

// Register creates a blank entry for sid and returns the new live count.
func (r *Registry) Register(sid SessionID, sig SignalConnection) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[sid] = &Connection{ID: sid, Signal: sig}
	log.Info().Str("module", "core.registry").Str("sid", string(sid)).Int("count", len(r.conns)).Msg("connection registered")
	return len(r.conns)
}

// Unregister removes the entry and returns the remaining live count.
func (r *Registry) Unregister(sid SessionID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, sid)
	log.Info().Str("module", "core.registry").Str("sid", string(sid)).Int("count", len(r.conns)).Msg("connection unregistered")
	return len(r.conns)
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// SetUsername binds a display name to sid. Unicity is checked only among
// currently live connections, so a name frees up the moment its holder
// disconnects.
func (r *Registry) SetUsername(sid SessionID, name string) error {
	if name == "" {
		return domain.ErrMissingName
	}
	name = domain.CapName(name)
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, c := range r.conns {
		if id != sid && c.Username == name {
			return domain.ErrNameTaken
		}
	}
	if c, ok := r.conns[sid]; ok {
		c.Username = name
	}
	return nil
}

// NameInUse reports whether any live connection currently holds name.
func (r *Registry) NameInUse(name string) bool {
	name = domain.CapName(name)
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.conns {
		if c.Username == name {
			return true
		}
	}
	return false
}

// Get returns a copy of the entry for sid.
func (r *Registry) Get(sid SessionID) (Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c, ok := r.conns[sid]; ok {
		return *c, true
	}
	return Connection{}, false
}

// SignalOf is the liveness check used immediately before any forward.
func (r *Registry) SignalOf(sid SessionID) (SignalConnection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c, ok := r.conns[sid]; ok && c.Signal != nil {
		return c.Signal, true
	}
	return nil, false
}

// BindRoom records which room and role sid occupies.
func (r *Registry) BindRoom(sid SessionID, room domain.RoomID, role domain.Role) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.conns[sid]; ok {
		c.Room = room
		c.Role = role
		log.Info().Str("module", "core.registry").Str("sid", string(sid)).Str("room", string(room)).Str("role", role.String()).Msg("bound room")
	}
}

// ClearRoom resets the room/role fields. Safe to call after the entry is
// already gone (the disconnect path removes it first).
func (r *Registry) ClearRoom(sid SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.conns[sid]; ok {
		c.Room = ""
		c.Role = domain.RoleNone
	}
}

// RoomOf returns the room and role sid currently occupies, if any.
func (r *Registry) RoomOf(sid SessionID) (domain.RoomID, domain.Role, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conns[sid]
	if !ok || c.Room == "" {
		return "", domain.RoleNone, false
	}
	return c.Room, c.Role, true
}

// Signals returns the outbound endpoints of every live connection, for
// lobby-wide broadcasts.
func (r *Registry) Signals() []SignalConnection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]SignalConnection, 0, len(r.conns))
	for _, c := range r.conns {
		if c.Signal != nil {
			out = append(out, c.Signal)
		}
	}
	return out
}
