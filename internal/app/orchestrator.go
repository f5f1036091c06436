// Package app coordinates the connection registry and the room directory.
// It owns the join/ready/leave protocol; adapters own the wire.
package app

import (
	"github.com/rs/zerolog/log"

	"github.com/mlevan/tandem/internal/core"
	"github.com/mlevan/tandem/internal/domain"
)

type Orchestrator struct {
	Registry *core.Registry
	Rooms    *core.Directory
}

func NewOrchestrator() *Orchestrator {
	return &Orchestrator{
		Registry: core.NewRegistry(),
		Rooms:    core.NewDirectory(),
	}
}

// Connect registers a fresh link and returns the live connection count.
func (o *Orchestrator) Connect(sid core.SessionID, sig core.SignalConnection) int {
	return o.Registry.Register(sid, sig)
}

// Join runs the full occupy protocol. The role string comes straight off
// the wire and is validated here; every failure maps to exactly one of the
// domain sentinel errors.
func (o *Orchestrator) Join(sid core.SessionID, room domain.RoomID, roleStr, name string) (core.Snapshot, error) {
	role, err := domain.ParseRole(roleStr)
	if err != nil {
		return core.Snapshot{}, err
	}
	// The empty string is the registry's not-in-room marker and can never
	// double as a real room id.
	if room == "" {
		return core.Snapshot{}, domain.ErrMissingRoom
	}
	if name == "" {
		return core.Snapshot{}, domain.ErrMissingName
	}
	if _, _, inRoom := o.Registry.RoomOf(sid); inRoom {
		return core.Snapshot{}, domain.ErrAlreadyInRoom
	}
	snap, err := o.Rooms.Occupy(room, role, sid, domain.CapName(name))
	if err != nil {
		return core.Snapshot{}, err
	}
	// The name is committed only once the slot is won; a rejected join
	// must not reserve a display name.
	if err := o.Registry.SetUsername(sid, name); err != nil {
		o.Rooms.Vacate(room, sid)
		return core.Snapshot{}, err
	}
	o.Registry.BindRoom(sid, room, role)
	log.Info().Str("module", "app").Str("sid", string(sid)).Str("room", string(room)).Str("role", role.String()).Str("name", name).Msg("joined room")
	return snap, nil
}

// Ready marks sid's slot ready. A non-nil StartResult means this call
// completed the pairing and the room just flipped to started.
func (o *Orchestrator) Ready(sid core.SessionID, room domain.RoomID, roleStr string) (core.Snapshot, *core.StartResult, error) {
	role, err := domain.ParseRole(roleStr)
	if err != nil {
		return core.Snapshot{}, nil, err
	}
	return o.Rooms.SetReady(room, role, sid)
}

// LeaveResult is what the departure procedure found and changed.
type LeaveResult struct {
	Room domain.RoomID
	core.VacateResult
}

// Leave is the shared half of explicit leave and abrupt disconnect.
// Leaving while not in a room is a successful no-op, which also makes the
// procedure idempotent: the first invocation clears the room pointer the
// guard reads.
func (o *Orchestrator) Leave(sid core.SessionID) LeaveResult {
	room, _, ok := o.Registry.RoomOf(sid)
	if !ok {
		return LeaveResult{}
	}
	res := o.Rooms.Vacate(room, sid)
	o.Registry.ClearRoom(sid)
	log.Info().Str("module", "app").Str("sid", string(sid)).Str("room", string(room)).Msg("left room")
	return LeaveResult{Room: room, VacateResult: res}
}

// Disconnect runs the departure procedure and then removes the connection
// entirely, returning the remaining live count.
func (o *Orchestrator) Disconnect(sid core.SessionID) (LeaveResult, int) {
	res := o.Leave(sid)
	count := o.Registry.Unregister(sid)
	return res, count
}

// PartnerSignal resolves the live outbound endpoint of sid's partner.
// Liveness is checked here, at forward time, never cached.
func (o *Orchestrator) PartnerSignal(sid core.SessionID) (core.SignalConnection, bool) {
	room, _, ok := o.Registry.RoomOf(sid)
	if !ok {
		return nil, false
	}
	pid, ok := o.Rooms.PartnerOf(room, sid)
	if !ok {
		return nil, false
	}
	return o.Registry.SignalOf(pid)
}

// CommandTarget resolves the occupant of the role opposite sender in room,
// provided the sender actually holds the sending role there.
func (o *Orchestrator) CommandTarget(sid core.SessionID, room domain.RoomID, sender domain.Role) (core.SignalConnection, bool) {
	occ, ok := o.Rooms.Occupant(room, sender)
	if !ok || occ != sid {
		return nil, false
	}
	pid, ok := o.Rooms.Occupant(room, sender.Other())
	if !ok {
		return nil, false
	}
	return o.Registry.SignalOf(pid)
}

// RoomSignals returns live endpoints of a room's occupants, for the
// room-scoped half of the broadcast-twice pattern.
func (o *Orchestrator) RoomSignals(room domain.RoomID) []core.SignalConnection {
	sids := o.Rooms.Occupants(room)
	out := make([]core.SignalConnection, 0, len(sids))
	for _, sid := range sids {
		if sig, ok := o.Registry.SignalOf(sid); ok {
			out = append(out, sig)
		}
	}
	return out
}

// AllSignals returns every live endpoint, for the lobby-wide half.
func (o *Orchestrator) AllSignals() []core.SignalConnection {
	return o.Registry.Signals()
}
