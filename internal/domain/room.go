package domain

import "unicode/utf8"

// RoomID is the externally supplied room identifier. Clients send whatever
// they typed into the lobby form; small integers arrive as strings.
type RoomID string

const MaxUsernameLen = 36

// CapName trims oversized display names instead of rejecting them. The cut
// lands on a rune boundary so a truncated name stays valid UTF-8.
func CapName(name string) string {
	if len(name) <= MaxUsernameLen {
		return name
	}
	cut := MaxUsernameLen
	for cut > 0 && !utf8.RuneStart(name[cut]) {
		cut--
	}
	return name[:cut]
}
