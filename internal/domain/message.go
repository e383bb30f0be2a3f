package domain

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"
)

// TimestampLayout matches the ISO-8601 form browsers produce with toISOString.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

type MessageID int64

// Reactions maps a reaction symbol to the display names that used it, in the
// order they reacted.
type Reactions map[string][]string

// Message is a chat line. Extra holds client supplied fields that are carried
// through untouched; it can never shadow the fields below.
type Message struct {
	ID        MessageID
	Sender    string
	SenderID  UserID
	Body      string
	Timestamp time.Time
	IsPrivate bool
	IsSystem  bool
	Reactions Reactions
	Extra     map[string]json.RawMessage
}

var reservedKeys = []string{
	"id", "sender", "senderId", "message", "timestamp", "isPrivate", "system", "reactions",
}

// StripReserved returns a copy of extra without keys owned by the server.
func StripReserved(extra map[string]json.RawMessage) map[string]json.RawMessage {
	if len(extra) == 0 {
		return nil
	}
	out := make(map[string]json.RawMessage, len(extra))
	for k, v := range extra {
		if slices.Contains(reservedKeys, k) {
			continue
		}
		out[k] = v
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// React records username under symbol. It reports false when the pair was
// already present.
func (m *Message) React(symbol, username string) bool {
	if m.Reactions == nil {
		m.Reactions = make(Reactions)
	}
	if slices.Contains(m.Reactions[symbol], username) {
		return false
	}
	m.Reactions[symbol] = append(m.Reactions[symbol], username)
	return true
}

// Clone deep-copies the mutable parts so the copy can leave a room's lock.
func (m Message) Clone() Message {
	if m.Reactions != nil {
		r := make(Reactions, len(m.Reactions))
		for k, v := range m.Reactions {
			r[k] = slices.Clone(v)
		}
		m.Reactions = r
	}
	if m.Extra != nil {
		e := make(map[string]json.RawMessage, len(m.Extra))
		for k, v := range m.Extra {
			e[k] = v
		}
		m.Extra = e
	}
	return m
}

func (m Message) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(m.Extra)+len(reservedKeys))
	for k, v := range m.Extra {
		out[k] = v
	}
	reactions := m.Reactions
	if reactions == nil {
		reactions = Reactions{}
	}
	out["id"] = m.ID
	out["sender"] = m.Sender
	out["senderId"] = m.SenderID
	out["message"] = m.Body
	out["timestamp"] = m.Timestamp.UTC().Format(TimestampLayout)
	out["isPrivate"] = m.IsPrivate
	out["system"] = m.IsSystem
	out["reactions"] = reactions
	return json.Marshal(out)
}

func (m *Message) UnmarshalJSON(data []byte) error {
	var wire struct {
		ID        MessageID `json:"id"`
		Sender    string    `json:"sender"`
		SenderID  UserID    `json:"senderId"`
		Body      string    `json:"message"`
		Timestamp string    `json:"timestamp"`
		IsPrivate bool      `json:"isPrivate"`
		IsSystem  bool      `json:"system"`
		Reactions Reactions `json:"reactions"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var ts time.Time
	if wire.Timestamp != "" {
		t, err := time.Parse(time.RFC3339Nano, wire.Timestamp)
		if err != nil {
			return fmt.Errorf("message timestamp: %w", err)
		}
		ts = t
	}
	*m = Message{
		ID:        wire.ID,
		Sender:    wire.Sender,
		SenderID:  wire.SenderID,
		Body:      wire.Body,
		Timestamp: ts,
		IsPrivate: wire.IsPrivate,
		IsSystem:  wire.IsSystem,
		Reactions: wire.Reactions,
		Extra:     StripReserved(raw),
	}
	return nil
}
