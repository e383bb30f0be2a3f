package core

import (
	"sync"
	"time"

	"github.com/dkeye/Chat/internal/domain"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

type memberEntry struct {
	participant domain.Participant
	session     MemberSession
}

// roomImpl is a threadsafe in-memory room.
// It never closes adapter-owned resources.
type roomImpl struct {
	room  *domain.Room
	limit int
	now   func() time.Time

	mu         sync.RWMutex
	closed     bool
	lastActive time.Time
	lastID     domain.MessageID

	order   []SessionID
	members map[SessionID]memberEntry

	messages []domain.Message

	typingOrder []SessionID
	typing      map[SessionID]string
}

// NewRoomService builds an empty room retaining at most historyLimit public
// messages. A nil now defaults to time.Now.
func NewRoomService(room *domain.Room, historyLimit int, now func() time.Time) RoomService {
	if historyLimit <= 0 {
		historyLimit = domain.HistoryLimit
	}
	if now == nil {
		now = time.Now
	}
	if room.CreatedAt.IsZero() {
		room.CreatedAt = now()
	}
	return &roomImpl{
		room:       room,
		limit:      historyLimit,
		now:        now,
		lastActive: room.CreatedAt,
		members:    make(map[SessionID]memberEntry),
		typing:     make(map[SessionID]string),
	}
}

func (r *roomImpl) Room() *domain.Room { return r.room }

func (r *roomImpl) MemberCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}

func (r *roomImpl) LastActive() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastActive
}

func (r *roomImpl) MembersSnapshot() []domain.Participant {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.participants()
}

func (r *roomImpl) MessagesSnapshot() []domain.Message {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cloneMessages()
}

func (r *roomImpl) Exec(fn func(tx RoomTx)) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return false
	}
	r.lastActive = r.now()
	fn(&roomTx{r: r})
	return true
}

func (r *roomImpl) CloseIfIdle(cutoff time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return true
	}
	if len(r.members) > 0 || r.lastActive.After(cutoff) {
		return false
	}
	r.closed = true
	log.Info().Str("module", "core.room").Str("room", string(r.room.Name)).Msg("room closed")
	return true
}

func (r *roomImpl) participants() []domain.Participant {
	return lo.Map(r.order, func(sid SessionID, _ int) domain.Participant {
		return r.members[sid].participant
	})
}

func (r *roomImpl) typingNames() []string {
	return lo.Map(r.typingOrder, func(sid SessionID, _ int) string {
		return r.typing[sid]
	})
}

func (r *roomImpl) cloneMessages() []domain.Message {
	return lo.Map(r.messages, func(m domain.Message, _ int) domain.Message {
		return m.Clone()
	})
}

// roomTx is only valid while the room lock is held by Exec.
type roomTx struct {
	r   *roomImpl
	res PublishResult
}

func (t *roomTx) Name() domain.RoomName { return t.r.room.Name }

func (t *roomTx) AddMember(sid SessionID, ms MemberSession) {
	r := t.r
	if _, ok := r.members[sid]; !ok {
		r.order = append(r.order, sid)
	}
	p := ms.Meta().Participant()
	r.members[sid] = memberEntry{participant: p, session: ms}
	// A rename keeps the typing position under the new name.
	if _, typing := r.typing[sid]; typing {
		r.typing[sid] = p.Username
	}
	log.Info().Str("module", "core.room").Str("room", string(r.room.Name)).Str("sid", string(sid)).Msg("member added")
}

func (t *roomTx) RemoveMember(sid SessionID) (domain.Participant, bool) {
	r := t.r
	t.SetTyping(sid, "", false)
	e, ok := r.members[sid]
	if !ok {
		return domain.Participant{}, false
	}
	delete(r.members, sid)
	r.order = lo.Without(r.order, sid)
	log.Info().Str("module", "core.room").Str("room", string(r.room.Name)).Str("sid", string(sid)).Msg("member removed")
	return e.participant, true
}

func (t *roomTx) Member(sid SessionID) (domain.Participant, bool) {
	e, ok := t.r.members[sid]
	return e.participant, ok
}

func (t *roomTx) Members() []domain.Participant { return t.r.participants() }

func (t *roomTx) Messages() []domain.Message { return t.r.cloneMessages() }

// Append stores msg with a fresh id and evicts the oldest entry once the log
// exceeds its limit.
func (t *roomTx) Append(msg domain.Message) domain.Message {
	r := t.r
	now := r.now()
	id := domain.MessageID(now.UnixMilli())
	if id <= r.lastID {
		id = r.lastID + 1
	}
	r.lastID = id
	msg.ID = id
	if msg.Timestamp.IsZero() {
		msg.Timestamp = now.UTC()
	}
	msg = msg.Clone()
	r.messages = append(r.messages, msg)
	if len(r.messages) > r.limit {
		r.messages[0] = domain.Message{}
		r.messages = r.messages[1:]
	}
	return msg.Clone()
}

func (t *roomTx) React(id domain.MessageID, symbol, username string) (domain.Message, bool) {
	r := t.r
	for i := range r.messages {
		if r.messages[i].ID != id {
			continue
		}
		r.messages[i].React(symbol, username)
		return r.messages[i].Clone(), true
	}
	return domain.Message{}, false
}

func (t *roomTx) SetTyping(sid SessionID, username string, typing bool) {
	r := t.r
	_, exists := r.typing[sid]
	switch {
	case typing:
		if !exists {
			r.typingOrder = append(r.typingOrder, sid)
		}
		r.typing[sid] = username
	case exists:
		delete(r.typing, sid)
		r.typingOrder = lo.Without(r.typingOrder, sid)
	}
}

func (t *roomTx) Typing() []string { return t.r.typingNames() }

func (t *roomTx) Broadcast(ev Event, except ...SessionID) PublishResult {
	r := t.r
	res := PublishResult{}
	frame, err := ev.Encode()
	if err != nil {
		log.Error().Err(err).Str("module", "core.room").Str("room", string(r.room.Name)).Msg("broadcast encode")
		return res
	}
	for _, sid := range r.order {
		if lo.Contains(except, sid) {
			continue
		}
		if err := r.members[sid].session.Signal().TrySend(frame); err != nil {
			res.Dropped = append(res.Dropped, sid)
			continue
		}
		res.SendTo++
	}
	log.Debug().Str("module", "core.room").Str("room", string(r.room.Name)).Str("event", ev.Name).Int("sent_to", res.SendTo).Int("dropped", len(res.Dropped)).Msg("broadcast result")
	t.res.merge(res)
	return res
}

func (t *roomTx) Send(sid SessionID, ev Event) PublishResult {
	r := t.r
	res := PublishResult{}
	e, ok := r.members[sid]
	if !ok {
		return res
	}
	frame, err := ev.Encode()
	if err != nil {
		log.Error().Err(err).Str("module", "core.room").Str("sid", string(sid)).Msg("send encode")
		return res
	}
	if err := e.session.Signal().TrySend(frame); err != nil {
		res.Dropped = append(res.Dropped, sid)
	} else {
		res.SendTo++
	}
	t.res.merge(res)
	return res
}

func (t *roomTx) Result() PublishResult { return t.res }
