package app

import (
	"github.com/dkeye/Chat/internal/core"
	"github.com/dkeye/Chat/internal/domain"
)

// Query is the read-only view over the room registry. Unknown rooms yield
// empty results; it never creates a room.
type Query struct {
	Rooms core.RoomFactory
}

func (q Query) ListMessages(name domain.RoomName) []domain.Message {
	room, ok := q.Rooms.Get(name)
	if !ok {
		return []domain.Message{}
	}
	return room.MessagesSnapshot()
}

func (q Query) ListUsers(name domain.RoomName) []domain.Participant {
	room, ok := q.Rooms.Get(name)
	if !ok {
		return []domain.Participant{}
	}
	return room.MembersSnapshot()
}

func (q Query) ListRooms() []domain.RoomName {
	return q.Rooms.ListNames()
}

func (q Query) RoomInfo() []core.RoomInfo {
	return q.Rooms.List()
}
