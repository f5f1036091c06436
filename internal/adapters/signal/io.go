package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/mlevan/tandem/internal/core"
	"github.com/mlevan/tandem/internal/domain"
)

const writeWait = 5 * time.Second

func (ctl *SignalWSController) writePump(ctx context.Context, c *WsSignalConn) {
	ticker := time.NewTicker(ctl.Cfg.PingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-c.send:
			if !ok {
				log.Warn().Str("module", "signal").Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (ctl *SignalWSController) readPump(ctx context.Context, cancel context.CancelFunc, sid core.SessionID, c *WsSignalConn) {
	pongWait := ctl.Cfg.PingPeriod * 10 / 9
	c.conn.SetReadLimit(ctl.Cfg.ReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	defer func() {
		log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("readPump closing")
		ctl.onDisconnect(sid)
		cancel()
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("readPump read error")
				}
				return
			}
			ctl.handleSignal(sid, c, data)
		}
	}
}

func (ctl *SignalWSController) handleSignal(sid core.SessionID, c *WsSignalConn, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Warn().Err(err).Str("module", "signal").Msg("bad json")
		return
	}

	switch env.Type {
	case "join":
		ctl.handleJoin(sid, c.token, data)
	case "ready":
		ctl.handleReady(sid, data)
	case "leaveRoom":
		ctl.handleLeave(sid)
	case "signal":
		ctl.handleRelaySignal(sid, data)
	case "masterCommand":
		ctl.handleCommand(sid, domain.RoleMaster, data)
	case "playerCommand", "telemetryUpdate":
		ctl.handleCommand(sid, domain.RolePlayer, data)
	case "checkUsername":
		ctl.handleCheckUsername(sid, data)
	case "whoami":
		ctl.handleWhoAmI(sid)
	case "ping":
		ctl.handlePing(sid)
	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown signal")
	}
}

func marshalEvent(v any) (core.Frame, error) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("event marshal")
		return nil, err
	}
	return b, nil
}

func (ctl *SignalWSController) sendJSON(c core.SignalConnection, v any) {
	b, err := marshalEvent(v)
	if err != nil {
		return
	}
	_ = c.TrySend(b)
}

// reply sends an event to the requesting connection only.
func (ctl *SignalWSController) reply(sid core.SessionID, v any) {
	if sig, ok := ctl.Orch.Registry.SignalOf(sid); ok {
		ctl.sendJSON(sig, v)
	}
}

// replyError reports a validation failure to the requester only. These are
// user input, never faults: no broadcast, no error log, no disconnect.
func (ctl *SignalWSController) replyError(sid core.SessionID, msg string) {
	ctl.reply(sid, struct {
		Type  string `json:"type"`
		Error string `json:"error"`
	}{Type: "roomError", Error: msg})
}
