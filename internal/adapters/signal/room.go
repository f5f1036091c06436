package signal

import (
	"encoding/json"
	"fmt"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/mlevan/tandem/internal/app"
	"github.com/mlevan/tandem/internal/core"
	"github.com/mlevan/tandem/internal/domain"
)

type statusEvent struct {
	Type string `json:"type"`
	core.Snapshot
}

type connectionCountEvent struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

type navigateEvent struct {
	Type string        `json:"type"`
	Path string        `json:"path"`
	Room domain.RoomID `json:"room,omitempty"`
	Role domain.Role   `json:"role,omitempty"`
}

type startSessionEvent struct {
	Type       string             `json:"type"`
	Room       domain.RoomID      `json:"room"`
	Role       domain.Role        `json:"role"`
	ICEServers []webrtc.ICEServer `json:"iceServers"`
}

func (ctl *SignalWSController) handleJoin(sid core.SessionID, token string, data []byte) {
	var p struct {
		Type string `json:"type"`
		Room string `json:"room"`
		Role string `json:"role"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "signal").Msg("bad join payload")
		ctl.replyError(sid, "malformed join request")
		return
	}
	if !ctl.joins.Allow(token) {
		ctl.replyError(sid, "too many join attempts, slow down")
		return
	}

	snap, err := ctl.Orch.Join(sid, domain.RoomID(p.Room), p.Role, p.Name)
	if err != nil {
		ctl.replyError(sid, err.Error())
		return
	}
	ctl.broadcastRoomThenAll(snap)
}

func (ctl *SignalWSController) handleReady(sid core.SessionID, data []byte) {
	var p struct {
		Type string `json:"type"`
		Room string `json:"room"`
		Role string `json:"role"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "signal").Msg("bad ready payload")
		ctl.replyError(sid, "malformed ready request")
		return
	}

	room := domain.RoomID(p.Room)
	snap, start, err := ctl.Orch.Ready(sid, room, p.Role)
	if err != nil {
		ctl.replyError(sid, err.Error())
		return
	}
	ctl.broadcastRoomThenAll(snap)

	if start == nil {
		return
	}
	// Both sides confirmed: move each to its role view and kick off the
	// media handshake in the same handler invocation as the state flip.
	playerSig, playerOK := ctl.Orch.Registry.SignalOf(start.Player)
	masterSig, masterOK := ctl.Orch.Registry.SignalOf(start.Master)
	if playerOK {
		ctl.sendJSON(playerSig, navigateEvent{Type: "navigate", Path: "/player", Room: room, Role: domain.RolePlayer})
	}
	if masterOK {
		ctl.sendJSON(masterSig, navigateEvent{Type: "navigate", Path: "/master", Room: room, Role: domain.RoleMaster})
	}
	if playerOK {
		ctl.sendJSON(playerSig, startSessionEvent{Type: "startSession", Room: room, Role: domain.RolePlayer, ICEServers: ctl.Cfg.ICEServers})
	}
	if masterOK {
		ctl.sendJSON(masterSig, startSessionEvent{Type: "startSession", Room: room, Role: domain.RoleMaster, ICEServers: ctl.Cfg.ICEServers})
	}
	log.Info().Str("module", "signal").Str("room", p.Room).Msg("session started")
}

func (ctl *SignalWSController) handleLeave(sid core.SessionID) {
	res := ctl.Orch.Leave(sid)
	ctl.reply(sid, struct {
		Type string `json:"type"`
	}{Type: "left"})
	ctl.notifyDeparture(res)
}

// notifyDeparture is shared by explicit leave and abrupt disconnect: tell
// the surviving partner who left and send them back to the lobby, then
// broadcast the room's post-departure snapshot (an empty one if the room
// was deleted).
func (ctl *SignalWSController) notifyDeparture(res app.LeaveResult) {
	if res.Room == "" {
		return
	}
	if res.HasPartner {
		if sig, ok := ctl.Orch.Registry.SignalOf(res.Partner); ok {
			ctl.sendJSON(sig, struct {
				Type    string `json:"type"`
				Message string `json:"message"`
			}{Type: "partnerDisconnected", Message: fmt.Sprintf("Your %s (%s) left the room!", res.Role, res.Name)})
			ctl.sendJSON(sig, navigateEvent{Type: "navigate", Path: "/lobby"})
		}
	}
	ctl.broadcastRoomThenAll(res.Snapshot)
}

func (ctl *SignalWSController) onDisconnect(sid core.SessionID) {
	res, count := ctl.Orch.Disconnect(sid)
	ctl.notifyDeparture(res)
	ctl.broadcastAll(connectionCountEvent{Type: "connectionCount", Count: count})
}
