package signal

import "github.com/mlevan/tandem/internal/core"

func (ctl *SignalWSController) handlePing(sid core.SessionID) {
	ctl.reply(sid, struct {
		Type string `json:"type"`
	}{Type: "pong"})
}
