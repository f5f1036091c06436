package core

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/mlevan/tandem/internal/domain"
)

// slot is one side of a room. A zero sid means the slot is free.
type slot struct {
	sid   SessionID
	name  string
	ready bool
}

func (s *slot) occupied() bool { return s.sid != "" }

func (s *slot) clear() { *s = slot{} }

type roomState struct {
	master  slot
	player  slot
	started bool
}

func (r *roomState) slotFor(role domain.Role) *slot {
	if role == domain.RoleMaster {
		return &r.master
	}
	return &r.player
}

func (r *roomState) snapshot(id domain.RoomID) Snapshot {
	snap := Snapshot{Room: id}
	if r.master.occupied() {
		name := r.master.name
		snap.Master = &name
		snap.MasterReady = r.master.ready
	}
	if r.player.occupied() {
		name := r.player.name
		snap.Player = &name
		snap.PlayerReady = r.player.ready
	}
	snap.ReadyToStart = r.master.occupied() && r.player.occupied() &&
		r.master.ready && r.player.ready
	return snap
}

// Directory owns all room state. A single mutex serializes every mutation,
// so two simultaneous joins for the same open slot cannot both win.
type Directory struct {
	mu    sync.Mutex
	rooms map[domain.RoomID]*roomState
}

func NewDirectory() *Directory {
	return &Directory{rooms: make(map[domain.RoomID]*roomState)}
}

// Occupy fills the slot for role, creating the room lazily on first join.
// The slot's ready flag starts false. Existing occupancy is never touched
// on failure.
func (d *Directory) Occupy(id domain.RoomID, role domain.Role, sid SessionID, name string) (Snapshot, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	room, ok := d.rooms[id]
	if !ok {
		room = &roomState{}
		d.rooms[id] = room
		log.Info().Str("module", "core.directory").Str("room", string(id)).Msg("room created")
	}
	s := room.slotFor(role)
	if s.occupied() {
		return Snapshot{}, domain.ErrRoleTaken
	}
	*s = slot{sid: sid, name: name}
	log.Info().Str("module", "core.directory").Str("room", string(id)).Str("role", role.String()).Str("sid", string(sid)).Msg("slot occupied")
	return room.snapshot(id), nil
}

// StartResult carries the two occupants when SetReady flips a room to
// started. The flip happens at most once per pairing, inside the same
// critical section that sets the second ready flag.
type StartResult struct {
	Master SessionID
	Player SessionID
}

// SetReady marks the occupant of role ready. The boolean result is true
// exactly once: on the call that completes both-present-and-both-ready.
func (d *Directory) SetReady(id domain.RoomID, role domain.Role, sid SessionID) (Snapshot, *StartResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	room, ok := d.rooms[id]
	if !ok {
		return Snapshot{}, nil, domain.ErrNotInRoom
	}
	s := room.slotFor(role)
	if !s.occupied() || s.sid != sid {
		return Snapshot{}, nil, domain.ErrNotInRoom
	}
	s.ready = true
	snap := room.snapshot(id)
	if snap.ReadyToStart && !room.started {
		room.started = true
		log.Info().Str("module", "core.directory").Str("room", string(id)).Msg("room started")
		return snap, &StartResult{Master: room.master.sid, Player: room.player.sid}, nil
	}
	return snap, nil, nil
}

// VacateResult describes what a departure changed and who is left behind.
type VacateResult struct {
	Found      bool
	Role       domain.Role
	Name       string
	Partner    SessionID
	HasPartner bool
	Empty      bool
	Snapshot   Snapshot
}

// Vacate clears whichever slot holds sid. Only the vacated slot's ready
// flag resets; the survivor stays ready while waiting for a replacement.
// The started flag always clears, and a room with both slots free is
// deleted before the call returns.
func (d *Directory) Vacate(id domain.RoomID, sid SessionID) VacateResult {
	d.mu.Lock()
	defer d.mu.Unlock()
	room, ok := d.rooms[id]
	if !ok {
		return VacateResult{Snapshot: Snapshot{Room: id}}
	}

	res := VacateResult{}
	switch sid {
	case room.master.sid:
		res = VacateResult{Found: true, Role: domain.RoleMaster, Name: room.master.name}
		room.master.clear()
		if room.player.occupied() {
			res.Partner, res.HasPartner = room.player.sid, true
		}
	case room.player.sid:
		res = VacateResult{Found: true, Role: domain.RolePlayer, Name: room.player.name}
		room.player.clear()
		if room.master.occupied() {
			res.Partner, res.HasPartner = room.master.sid, true
		}
	default:
		// sid is in neither slot; invariants say this cannot happen, but a
		// stale leave must degrade to a no-op, not corrupt the room.
		res.Snapshot = room.snapshot(id)
		return res
	}

	room.started = false
	if !room.master.occupied() && !room.player.occupied() {
		delete(d.rooms, id)
		res.Empty = true
		res.Snapshot = Snapshot{Room: id}
		log.Info().Str("module", "core.directory").Str("room", string(id)).Msg("room deleted")
		return res
	}
	res.Snapshot = room.snapshot(id)
	log.Info().Str("module", "core.directory").Str("room", string(id)).Str("role", res.Role.String()).Msg("slot vacated")
	return res
}

// PartnerOf returns whichever occupant of id is not sid. The fallback for
// a sender in neither slot is an explicit miss rather than a panic.
func (d *Directory) PartnerOf(id domain.RoomID, sid SessionID) (SessionID, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	room, ok := d.rooms[id]
	if !ok {
		return "", false
	}
	switch sid {
	case room.master.sid:
		return room.player.sid, room.player.occupied()
	case room.player.sid:
		return room.master.sid, room.master.occupied()
	default:
		return "", false
	}
}

// Occupant returns the connection holding role in room id, if any.
func (d *Directory) Occupant(id domain.RoomID, role domain.Role) (SessionID, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	room, ok := d.rooms[id]
	if !ok {
		return "", false
	}
	s := room.slotFor(role)
	return s.sid, s.occupied()
}

// Occupants lists the room's current occupants for room-scoped broadcasts.
func (d *Directory) Occupants(id domain.RoomID) []SessionID {
	d.mu.Lock()
	defer d.mu.Unlock()
	room, ok := d.rooms[id]
	if !ok {
		return nil
	}
	out := make([]SessionID, 0, 2)
	if room.master.occupied() {
		out = append(out, room.master.sid)
	}
	if room.player.occupied() {
		out = append(out, room.player.sid)
	}
	return out
}

// Snapshot returns the room's current summary, or false if the room does
// not exist (deleted rooms leave no trace).
func (d *Directory) Snapshot(id domain.RoomID) (Snapshot, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	room, ok := d.rooms[id]
	if !ok {
		return Snapshot{Room: id}, false
	}
	return room.snapshot(id), true
}
