package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/mlevan/tandem/internal/core"
	"github.com/mlevan/tandem/internal/domain"
)

// handleCheckUsername answers the lobby's name-availability probe. The
// probe is advisory: the join path re-checks under the registry lock, so a
// "yes" here can still lose the race.
func (ctl *SignalWSController) handleCheckUsername(sid core.SessionID, data []byte) {
	var p struct {
		Type string `json:"type"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "signal").Msg("bad checkUsername payload")
		return
	}

	available := p.Name != ""
	if available && ctl.Orch.Registry.NameInUse(p.Name) {
		// The connection's own name stays available to itself.
		c, ok := ctl.Orch.Registry.Get(sid)
		available = ok && c.Username == domain.CapName(p.Name)
	}

	ctl.reply(sid, struct {
		Type      string `json:"type"`
		Name      string `json:"name"`
		Available bool   `json:"available"`
	}{Type: "usernameStatus", Name: p.Name, Available: available})
}

func (ctl *SignalWSController) handleWhoAmI(sid core.SessionID) {
	c, _ := ctl.Orch.Registry.Get(sid)
	ctl.reply(sid, struct {
		Type     string        `json:"type"`
		Username string        `json:"username,omitempty"`
		Room     domain.RoomID `json:"room,omitempty"`
		Role     domain.Role   `json:"role,omitempty"`
	}{Type: "whoami", Username: c.Username, Room: c.Room, Role: c.Role})
}
