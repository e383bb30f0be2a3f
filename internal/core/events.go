package core

import (
	"encoding/json"
	"fmt"

	"github.com/dkeye/Chat/internal/domain"
)

// Wire event names. They are shared with browser clients and must not change.
const (
	EventUserJoin       = "user_join"
	EventSendMessage    = "send_message"
	EventTyping         = "typing"
	EventPrivateMessage = "private_message"
	EventReactMessage   = "react_message"

	EventRoomJoined     = "room_joined"
	EventUserList       = "user_list"
	EventUserJoined     = "user_joined"
	EventUserLeft       = "user_left"
	EventReceiveMessage = "receive_message"
	EventTypingUsers    = "typing_users"
	EventMessageUpdated = "message_updated"
	EventError          = "error"
)

// Event is one outbound notification.
type Event struct {
	Name string `json:"event"`
	Data any    `json:"data"`
}

func (e Event) Encode() (Frame, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", e.Name, err)
	}
	return b, nil
}

// RoomJoined is the snapshot handed to a connection entering a room.
type RoomJoined struct {
	Room     domain.RoomName      `json:"room"`
	Messages []domain.Message     `json:"messages"`
	Users    []domain.Participant `json:"users"`
}

type ErrorPayload struct {
	Event string `json:"event,omitempty"`
	Error string `json:"error"`
}
