package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/mlevan/tandem/internal/app"
	"github.com/mlevan/tandem/internal/config"
	"github.com/mlevan/tandem/internal/core"
)

var ErrBackpressure = errors.New("backpressure")

type SignalWSController struct {
	Orch *app.Orchestrator
	Cfg  *config.Config

	joins *RateLimiter
}

func NewSignalWSController(orch *app.Orchestrator, cfg *config.Config) *SignalWSController {
	return &SignalWSController{
		Orch:  orch,
		Cfg:   cfg,
		joins: NewRateLimiter(20, 10*time.Second),
	}
}

type WsSignalConn struct {
	conn  *websocket.Conn
	send  chan core.Frame
	token string

	mu     sync.RWMutex
	closed bool
}

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *WsSignalConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  64 * 1024,
	WriteBufferSize: 64 * 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HandleSignal upgrades the request and runs the connection until it dies.
// Every websocket gets a fresh session id; the client token from the signed
// session cookie only identifies the browser across reconnects in logs and
// in the join rate limiter.
func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	token := c.GetString("client_token")
	sid := core.SessionID(uuid.NewString())
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("client", token).Msg("new WS connection")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Msg("ws upgrade")
		return
	}

	conn := &WsSignalConn{
		conn:  ws,
		send:  make(chan core.Frame, 32),
		token: token,
	}

	count := ctl.Orch.Connect(sid, conn)
	ctl.broadcastAll(connectionCountEvent{Type: "connectionCount", Count: count})

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, cancel, sid, conn)
}

// broadcastRoomThenAll performs the two ordered notifies every state change
// requires: the room's occupants first, then the whole lobby. Both run on
// the caller's goroutine, so a single client observes them in this order.
func (ctl *SignalWSController) broadcastRoomThenAll(snap core.Snapshot) {
	b, err := marshalEvent(statusEvent{Type: "roomStatusUpdate", Snapshot: snap})
	if err != nil {
		return
	}
	for _, sig := range ctl.Orch.RoomSignals(snap.Room) {
		_ = sig.TrySend(b)
	}
	for _, sig := range ctl.Orch.AllSignals() {
		_ = sig.TrySend(b)
	}
}

func (ctl *SignalWSController) broadcastAll(v any) {
	b, err := marshalEvent(v)
	if err != nil {
		return
	}
	for _, sig := range ctl.Orch.AllSignals() {
		_ = sig.TrySend(b)
	}
}
