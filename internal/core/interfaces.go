package core

import "github.com/mlevan/tandem/internal/domain"

// Frame is a raw JSON message exactly as it travels on the wire.
type Frame []byte

type SessionID string

// SignalConnection abstracts the outbound half of a client link.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

// Snapshot is the serializable room summary used for every status
// broadcast, room-scoped and lobby-wide alike.
type Snapshot struct {
	Room         domain.RoomID `json:"room"`
	Player       *string       `json:"player"`
	Master       *string       `json:"master"`
	PlayerReady  bool          `json:"playerReady"`
	MasterReady  bool          `json:"masterReady"`
	ReadyToStart bool          `json:"readyToStart"`
}
