package domain

import "errors"

// Validation failures reported to the requesting connection as a roomError
// event. None of these are faults: they are never logged at error level,
// never broadcast, and never terminate the connection.
var (
	ErrRoleTaken     = errors.New("that role is already taken in this room")
	ErrInvalidRole   = errors.New("invalid role")
	ErrMissingName   = errors.New("a display name is required to join a room")
	ErrMissingRoom   = errors.New("a room id is required to join")
	ErrAlreadyInRoom = errors.New("you have already joined another room")
	ErrNotInRoom     = errors.New("you do not occupy that role in this room")
	ErrNameTaken     = errors.New("that name is already in use")
)
