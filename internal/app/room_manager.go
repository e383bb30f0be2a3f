package app

import (
	"sync"
	"time"

	"github.com/dkeye/Chat/internal/core"
	"github.com/dkeye/Chat/internal/domain"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

type RoomManagerImpl struct {
	mu    sync.RWMutex
	rooms map[domain.RoomName]core.RoomService
	order []domain.RoomName

	pinned       domain.RoomName
	historyLimit int
	now          func() time.Time
}

// NewRoomManager creates the registry with the default room already present.
// The default room is never evicted.
func NewRoomManager(defaultRoom domain.RoomName, historyLimit int, now func() time.Time) *RoomManagerImpl {
	if now == nil {
		now = time.Now
	}
	f := &RoomManagerImpl{
		rooms:        make(map[domain.RoomName]core.RoomService),
		pinned:       defaultRoom,
		historyLimit: historyLimit,
		now:          now,
	}
	if defaultRoom != "" {
		f.GetOrCreate(defaultRoom)
	}
	return f
}

func (f *RoomManagerImpl) GetOrCreate(name domain.RoomName) core.RoomService {
	f.mu.RLock()
	room, ok := f.rooms[name]
	f.mu.RUnlock()
	if ok {
		return room
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if room, ok = f.rooms[name]; ok {
		return room
	}
	room = core.NewRoomService(&domain.Room{Name: name}, f.historyLimit, f.now)
	f.rooms[name] = room
	f.order = append(f.order, name)
	log.Info().Str("module", "app.rooms").Str("room", string(name)).Msg("room created")
	return room
}

func (f *RoomManagerImpl) Get(name domain.RoomName) (core.RoomService, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	room, ok := f.rooms[name]
	return room, ok
}

func (f *RoomManagerImpl) ListNames() []domain.RoomName {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]domain.RoomName{}, f.order...)
}

func (f *RoomManagerImpl) List() []core.RoomInfo {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return lo.Map(f.order, func(name domain.RoomName, _ int) core.RoomInfo {
		room := f.rooms[name]
		return core.RoomInfo{Name: name, MemberCount: room.MemberCount(), LastActive: room.LastActive()}
	})
}

func (f *RoomManagerImpl) EvictIdle(ttl time.Duration) []domain.RoomName {
	if ttl <= 0 {
		return nil
	}
	cutoff := f.now().Add(-ttl)

	f.mu.Lock()
	defer f.mu.Unlock()
	var evicted []domain.RoomName
	for _, name := range f.order {
		if name == f.pinned {
			continue
		}
		if f.rooms[name].CloseIfIdle(cutoff) {
			delete(f.rooms, name)
			evicted = append(evicted, name)
		}
	}
	if len(evicted) > 0 {
		f.order = lo.Without(f.order, evicted...)
		log.Info().Str("module", "app.rooms").Strs("rooms", lo.Map(evicted, func(n domain.RoomName, _ int) string { return string(n) })).Msg("idle rooms evicted")
	}
	return evicted
}
