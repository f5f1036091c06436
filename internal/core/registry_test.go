package core

import (
	"errors"
	"testing"

	"github.com/mlevan/tandem/internal/domain"
)

type nopSignal struct{}

func (nopSignal) TrySend(Frame) error { return nil }
func (nopSignal) Close()              {}

func TestRegisterUnregisterCount(t *testing.T) {
	r := NewRegistry()
	if n := r.Register("a", nopSignal{}); n != 1 {
		t.Fatalf("count after first register = %d, want 1", n)
	}
	if n := r.Register("b", nopSignal{}); n != 2 {
		t.Fatalf("count after second register = %d, want 2", n)
	}
	if n := r.Unregister("a"); n != 1 {
		t.Fatalf("count after unregister = %d, want 1", n)
	}
	if _, ok := r.Get("a"); ok {
		t.Fatal("unregistered connection still present")
	}
}

func TestSetUsernameUnicity(t *testing.T) {
	r := NewRegistry()
	r.Register("a", nopSignal{})
	r.Register("b", nopSignal{})

	if err := r.SetUsername("a", "Ann"); err != nil {
		t.Fatalf("first SetUsername: %v", err)
	}
	if err := r.SetUsername("b", "Ann"); !errors.Is(err, domain.ErrNameTaken) {
		t.Fatalf("duplicate name error = %v, want ErrNameTaken", err)
	}
	// Rebinding your own name is not a conflict.
	if err := r.SetUsername("a", "Ann"); err != nil {
		t.Fatalf("rebinding own name: %v", err)
	}
	// Names free up the moment the holder disconnects.
	r.Unregister("a")
	if err := r.SetUsername("b", "Ann"); err != nil {
		t.Fatalf("name not freed on unregister: %v", err)
	}
}

func TestSetUsernameMissing(t *testing.T) {
	r := NewRegistry()
	r.Register("a", nopSignal{})
	if err := r.SetUsername("a", ""); !errors.Is(err, domain.ErrMissingName) {
		t.Fatalf("empty name error = %v, want ErrMissingName", err)
	}
}

func TestBindAndClearRoom(t *testing.T) {
	r := NewRegistry()
	r.Register("a", nopSignal{})

	if _, _, ok := r.RoomOf("a"); ok {
		t.Fatal("fresh connection reports a room")
	}
	r.BindRoom("a", "7", domain.RoleMaster)
	room, role, ok := r.RoomOf("a")
	if !ok || room != "7" || role != domain.RoleMaster {
		t.Fatalf("RoomOf = (%q, %v, %v), want (7, master, true)", room, role, ok)
	}
	r.ClearRoom("a")
	if _, _, ok := r.RoomOf("a"); ok {
		t.Fatal("cleared connection still reports a room")
	}
	// Clearing an already-removed connection must not panic.
	r.Unregister("a")
	r.ClearRoom("a")
}

func TestSignalOfLiveness(t *testing.T) {
	r := NewRegistry()
	r.Register("a", nopSignal{})
	if _, ok := r.SignalOf("a"); !ok {
		t.Fatal("live connection has no signal")
	}
	r.Unregister("a")
	if _, ok := r.SignalOf("a"); ok {
		t.Fatal("dead connection still has a signal")
	}
}
