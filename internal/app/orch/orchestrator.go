// Package orch dispatches inbound chat events: it validates them against the
// session and room state, mutates the room and decides who hears about it.
package orch

import (
	"sync/atomic"
	"time"

	"github.com/dkeye/Chat/internal/app"
	"github.com/dkeye/Chat/internal/core"
	"github.com/dkeye/Chat/internal/domain"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

type Orchestrator struct {
	Registry    *app.Registry
	Rooms       core.RoomFactory
	Policy      app.Policy
	DefaultRoom domain.RoomName
	// Now defaults to time.Now.
	Now func() time.Time

	lastPrivateID atomic.Int64
}

func (o *Orchestrator) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

func (o *Orchestrator) defaultRoom() domain.RoomName {
	if o.DefaultRoom == "" {
		return domain.DefaultRoom
	}
	return o.DefaultRoom
}

// execAsMember runs fn in the session's current room, but only while the
// session is still a registered participant there. Anything else is a silent
// no-op.
func (o *Orchestrator) execAsMember(sid core.SessionID, fn func(tx core.RoomTx, self domain.Participant)) bool {
	release, ok := o.Registry.Acquire(sid)
	if !ok {
		log.Debug().Str("module", "orch").Str("sid", string(sid)).Msg("unknown session, event dropped")
		return false
	}
	defer release()

	roomName, _, ok := o.Registry.RoomOf(sid)
	if !ok {
		log.Debug().Str("module", "orch").Str("sid", string(sid)).Msg("session not in a room, event dropped")
		return false
	}
	room, ok := o.Rooms.Get(roomName)
	if !ok {
		return false
	}

	var (
		member bool
		res    core.PublishResult
	)
	room.Exec(func(tx core.RoomTx) {
		self, ok := tx.Member(sid)
		if !ok {
			return
		}
		member = true
		fn(tx, self)
		res = tx.Result()
	})
	o.handleDropped(room, res)
	return member
}

// handleDropped applies the backpressure policy to recipients whose buffer
// was full. It must be called outside of any room lock.
func (o *Orchestrator) handleDropped(room core.RoomService, res core.PublishResult) {
	if o.Policy == nil || len(res.Dropped) == 0 {
		return
	}
	for _, sid := range lo.Uniq(res.Dropped) {
		switch o.Policy.OnBackPressure(room, sid) {
		case app.KickMember:
			log.Warn().Str("module", "orch").Str("sid", string(sid)).Msg("slow member kicked")
			o.Registry.Cancel(sid)
		case app.DropFrame, app.NoAction:
		}
	}
}

// nextPrivateID hands out ids for private messages, which never enter a room
// log. Ids are time derived and strictly increasing process wide.
func (o *Orchestrator) nextPrivateID() domain.MessageID {
	for {
		last := o.lastPrivateID.Load()
		id := o.now().UnixMilli()
		if id <= last {
			id = last + 1
		}
		if o.lastPrivateID.CompareAndSwap(last, id) {
			return domain.MessageID(id)
		}
	}
}
