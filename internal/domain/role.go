// Package domain contains entities without logic, just meta-data
// and the validation errors the protocol reports back to clients.
package domain

// Role is the fixed in-room identity of a connection. The wire only ever
// carries the two canonical values; anything else must be rejected at the
// boundary with ErrInvalidRole instead of leaking through as a third state.
type Role uint8

const (
	RoleNone Role = iota
	RoleMaster
	RolePlayer
)

func ParseRole(s string) (Role, error) {
	switch s {
	case "master":
		return RoleMaster, nil
	case "player":
		return RolePlayer, nil
	default:
		return RoleNone, ErrInvalidRole
	}
}

func (r Role) String() string {
	switch r {
	case RoleMaster:
		return "master"
	case RolePlayer:
		return "player"
	default:
		return ""
	}
}

// Other returns the partner role. RoleNone maps to itself.
func (r Role) Other() Role {
	switch r {
	case RoleMaster:
		return RolePlayer
	case RolePlayer:
		return RoleMaster
	default:
		return RoleNone
	}
}

func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(b []byte) error {
	parsed, err := ParseRole(string(b))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
