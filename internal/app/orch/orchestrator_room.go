package orch

import (
	"github.com/dkeye/Chat/internal/core"
	"github.com/dkeye/Chat/internal/domain"
	"github.com/rs/zerolog/log"
)

// Join moves the session into roomName under the given display name. When the
// session sits in another room it leaves that room first. An empty roomName
// means the default room.
func (o *Orchestrator) Join(sid core.SessionID, username string, roomName domain.RoomName) error {
	release, ok := o.Registry.Acquire(sid)
	if !ok {
		return nil
	}
	defer release()

	if roomName == "" {
		roomName = o.defaultRoom()
	}
	if err := o.Registry.UpdateUsername(sid, username); err != nil {
		return err
	}
	session, ok := o.Registry.GetSession(sid)
	if !ok {
		return nil
	}

	if from, _, ok := o.Registry.RoomOf(sid); ok && from != roomName {
		o.leave(sid, from)
		o.Registry.RemoveRoom(sid)
		log.Info().Str("module", "orch").Str("sid", string(sid)).Str("from_room", string(from)).Msg("left room")
	}

	// A room may be evicted between lookup and Exec; retry on a fresh one.
	for {
		room := o.Rooms.GetOrCreate(roomName)
		var res core.PublishResult
		joined := room.Exec(func(tx core.RoomTx) {
			tx.AddMember(sid, session)
			self, _ := tx.Member(sid)
			members := tx.Members()
			tx.Send(sid, core.Event{Name: core.EventRoomJoined, Data: core.RoomJoined{
				Room:     roomName,
				Messages: tx.Messages(),
				Users:    members,
			}})
			tx.Broadcast(core.Event{Name: core.EventUserList, Data: members}, sid)
			tx.Broadcast(core.Event{Name: core.EventUserJoined, Data: self}, sid)
			res = tx.Result()
		})
		if !joined {
			continue
		}
		o.Registry.UpdateRoom(sid, roomName)
		log.Info().Str("module", "orch").Str("sid", string(sid)).Str("client_token", session.Meta().ClientToken).
			Str("username", username).Str("room", string(roomName)).Msg("joined room")
		o.handleDropped(room, res)
		return nil
	}
}

// Disconnect removes every trace of the session. It is safe to call more than
// once and concurrently with any other operation of the same session.
func (o *Orchestrator) Disconnect(sid core.SessionID) {
	release, ok := o.Registry.Acquire(sid)
	if !ok {
		return
	}
	defer release()

	var token string
	if sess, ok := o.Registry.GetSession(sid); ok {
		token = sess.Meta().ClientToken
	}
	if roomName, _, ok := o.Registry.RoomOf(sid); ok {
		o.leave(sid, roomName)
	}
	o.Registry.Unbind(sid)
	log.Info().Str("module", "orch").Str("sid", string(sid)).Str("client_token", token).Msg("disconnected")
}

// leave drops sid from the room and tells the remaining members. The caller
// holds the session.
func (o *Orchestrator) leave(sid core.SessionID, roomName domain.RoomName) {
	room, ok := o.Rooms.Get(roomName)
	if !ok {
		return
	}
	var res core.PublishResult
	room.Exec(func(tx core.RoomTx) {
		self, ok := tx.RemoveMember(sid)
		if !ok {
			return
		}
		tx.Broadcast(core.Event{Name: core.EventUserLeft, Data: self})
		tx.Broadcast(core.Event{Name: core.EventUserList, Data: tx.Members()})
		tx.Broadcast(core.Event{Name: core.EventTypingUsers, Data: tx.Typing()})
		res = tx.Result()
	})
	o.handleDropped(room, res)
}
