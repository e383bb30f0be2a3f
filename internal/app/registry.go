package app

import (
	"context"
	"sync"

	"github.com/dkeye/Chat/internal/core"
	"github.com/dkeye/Chat/internal/domain"
	"github.com/rs/zerolog/log"
)

type sessionEntry struct {
	// mu serializes dispatcher steps of one session. Lock order is session
	// then room.
	mu       sync.Mutex
	RoomName domain.RoomName
	Session  core.MemberSession
	Cancel   context.CancelFunc
}

// Registry tracks live connections and the room each one is in.
type Registry struct {
	mu       sync.RWMutex
	sessions map[core.SessionID]*sessionEntry
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[core.SessionID]*sessionEntry),
	}
}

func (r *Registry) BindSignal(sid core.SessionID, sess core.MemberSession, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sid] = &sessionEntry{Session: sess, Cancel: cancel}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("bound signal")
}

// Acquire locks the session for one dispatcher step. ok is false when the
// session is not (or no longer) bound.
func (r *Registry) Acquire(sid core.SessionID) (release func(), ok bool) {
	r.mu.RLock()
	e, ok := r.sessions[sid]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	e.mu.Lock()
	r.mu.RLock()
	cur, ok := r.sessions[sid]
	r.mu.RUnlock()
	if !ok || cur != e {
		e.mu.Unlock()
		return nil, false
	}
	return e.mu.Unlock, true
}

func (r *Registry) GetSession(sid core.SessionID) (core.MemberSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.sessions[sid]; ok {
		return e.Session, true
	}
	return nil, false
}

func (r *Registry) UpdateUsername(sid core.SessionID, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sid]
	if !ok {
		return nil
	}
	if err := e.Session.Meta().User.SetUsername(name); err != nil {
		return err
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("username", name).Msg("updated username")
	return nil
}

func (r *Registry) Unbind(sid core.SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sid)
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("unbind session")
}

func (r *Registry) RoomOf(sid core.SessionID) (domain.RoomName, core.MemberSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.sessions[sid]
	if !ok || entry.RoomName == "" {
		return "", nil, false
	}
	return entry.RoomName, entry.Session, true
}

func (r *Registry) UpdateRoom(sid core.SessionID, newRoom domain.RoomName) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.sessions[sid]
	if !ok {
		return false
	}
	entry.RoomName = newRoom
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("room", string(newRoom)).Msg("updated room")
	return true
}

func (r *Registry) RemoveRoom(sid core.SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry, ok := r.sessions[sid]; ok {
		entry.RoomName = ""
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("removed room association")
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Cancel tears down the connection behind sid. The transport reports the
// disconnect afterwards.
func (r *Registry) Cancel(sid core.SessionID) bool {
	r.mu.RLock()
	e, ok := r.sessions[sid]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("canceled session")
	return true
}
