package domain

import "time"

const (
	DefaultRoom RoomName = "general"
	// HistoryLimit is the number of public messages a room retains.
	HistoryLimit = 100
)

type RoomName string

// ParseRoomName returns raw as a room name, or def when raw is empty. Any
// other string names a room.
func ParseRoomName(raw string, def RoomName) RoomName {
	if raw == "" {
		return def
	}
	return RoomName(raw)
}

type Room struct {
	Name      RoomName
	CreatedAt time.Time
}
