package model

import "strings"

// Room is a bookable coworking room.  Rooms are immutable once created.
//
// Fields:
//
//	ID       – generated key in the form S#### (e.g. S0001).
//	Name     – display name, trimmed, unique ignoring case.
//	Capacity – number of people the room holds, always > 0.
type Room struct {
	ID       string `json:"id"`       // rooms.id
	Name     string `json:"name"`     // rooms.name
	Capacity int    `json:"capacity"` // rooms.capacity
}

// RoomNameKey is the case-insensitive identity of a room name.
func RoomNameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
