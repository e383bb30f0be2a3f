package orch

import (
	"encoding/json"

	"github.com/dkeye/Chat/internal/core"
	"github.com/dkeye/Chat/internal/domain"
	"github.com/rs/zerolog/log"
)

// SendMessage appends a public message to the session's room and broadcasts
// it to every member, sender included.
func (o *Orchestrator) SendMessage(sid core.SessionID, body string, extra map[string]json.RawMessage) {
	o.execAsMember(sid, func(tx core.RoomTx, self domain.Participant) {
		msg := tx.Append(domain.Message{
			Sender:   self.Username,
			SenderID: self.ID,
			Body:     body,
			Extra:    domain.StripReserved(extra),
		})
		tx.Broadcast(core.Event{Name: core.EventReceiveMessage, Data: msg})
	})
}

// PrivateMessage delivers body to the target connection and echoes it to the
// sender. It is never stored. An unknown target is silently dropped.
func (o *Orchestrator) PrivateMessage(sid core.SessionID, to core.SessionID, body string) {
	var msg domain.Message
	ok := o.execAsMember(sid, func(_ core.RoomTx, self domain.Participant) {
		msg = domain.Message{
			ID:        o.nextPrivateID(),
			Sender:    self.Username,
			SenderID:  self.ID,
			Body:      body,
			Timestamp: o.now().UTC(),
			IsPrivate: true,
		}
	})
	if !ok {
		return
	}

	frame, err := core.Event{Name: core.EventPrivateMessage, Data: msg}.Encode()
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Msg("private message encode")
		return
	}
	var res core.PublishResult
	deliver := func(target core.SessionID) {
		sess, ok := o.Registry.GetSession(target)
		if !ok {
			log.Debug().Str("module", "orch").Str("to", string(target)).Msg("private message target gone")
			return
		}
		if err := sess.Signal().TrySend(frame); err != nil {
			res.Dropped = append(res.Dropped, target)
			return
		}
		res.SendTo++
	}
	if to != sid {
		deliver(to)
	}
	deliver(sid)
	o.handleDropped(nil, res)
}

// React merges username into the reaction set of a message in the current
// room. Re-reacting with the same symbol changes nothing but still broadcasts.
func (o *Orchestrator) React(sid core.SessionID, id domain.MessageID, symbol string) {
	o.execAsMember(sid, func(tx core.RoomTx, self domain.Participant) {
		msg, ok := tx.React(id, symbol, self.Username)
		if !ok {
			log.Debug().Str("module", "orch").Str("sid", string(sid)).Int64("message_id", int64(id)).Msg("reaction to unknown message")
			return
		}
		tx.Broadcast(core.Event{Name: core.EventMessageUpdated, Data: msg})
	})
}

// SetTyping updates the typing set and always broadcasts the whole set.
func (o *Orchestrator) SetTyping(sid core.SessionID, typing bool) {
	o.execAsMember(sid, func(tx core.RoomTx, self domain.Participant) {
		tx.SetTyping(sid, self.Username, typing)
		tx.Broadcast(core.Event{Name: core.EventTypingUsers, Data: tx.Typing()})
	})
}
