package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/mlevan/tandem/internal/core"
	"github.com/mlevan/tandem/internal/domain"
)

// handleRelaySignal forwards an opaque signaling frame (session description
// or ICE candidate, the relay does not care which) to the sender's partner.
// Delivery is best-effort: no partner, dead partner, or a full send buffer
// all mean the frame is dropped silently. The browsers' handshake protocol
// owns retries and failure.
func (ctl *SignalWSController) handleRelaySignal(sid core.SessionID, data core.Frame) {
	sig, ok := ctl.Orch.PartnerSignal(sid)
	if !ok {
		log.Debug().Str("module", "signal").Str("sid", string(sid)).Msg("signal with no partner, dropped")
		return
	}
	_ = sig.TrySend(data)
}

// handleCommand forwards a control frame to the occupant of the opposite
// fixed role. The frame goes out byte-for-byte; only the room field is read
// to route it, and only a sender actually holding the channel's role in
// that room is relayed.
func (ctl *SignalWSController) handleCommand(sid core.SessionID, sender domain.Role, data core.Frame) {
	var p struct {
		Room string `json:"room"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "signal").Msg("bad command payload")
		return
	}
	sig, ok := ctl.Orch.CommandTarget(sid, domain.RoomID(p.Room), sender)
	if !ok {
		return
	}
	_ = sig.TrySend(data)
}
