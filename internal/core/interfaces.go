package core

import (
	"time"

	"github.com/dkeye/Chat/internal/domain"
)

// Frame is a raw encoded event ready for the wire.
type Frame []byte

// SessionID identifies one live connection.
type SessionID string

// SignalConnection abstracts for a system messaging transport
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	// TrySend must never block.
	TrySend(Frame) error
	Close()
}

// MemberSession binds domain.Member and its transport endpoint.
// This is what a room stores and fans out to.
type MemberSession interface {
	Meta() *domain.Member
	Signal() SignalConnection
}

// PublishResult reports delivery stats/backpressure to orchestrator.
type PublishResult struct {
	SendTo  int
	Dropped []SessionID
}

func (p *PublishResult) merge(o PublishResult) {
	p.SendTo += o.SendTo
	p.Dropped = append(p.Dropped, o.Dropped...)
}

// RoomService is the core-facing API of a room.
// It owns the membership set but never touches transport resources.
type RoomService interface {
	Room() *domain.Room
	MemberCount() int
	LastActive() time.Time

	MembersSnapshot() []domain.Participant
	MessagesSnapshot() []domain.Message

	// Exec runs fn under the room lock. Mutations and fan-out done through tx
	// are linearized with every other Exec on the same room. It returns false
	// without calling fn when the room has been closed.
	Exec(fn func(tx RoomTx)) bool
	// CloseIfIdle closes an empty room whose last activity is before cutoff.
	CloseIfIdle(cutoff time.Time) bool
}

// RoomTx is the view of a room handed to Exec callbacks. It must not escape
// the callback.
type RoomTx interface {
	Name() domain.RoomName

	AddMember(sid SessionID, ms MemberSession)
	RemoveMember(sid SessionID) (domain.Participant, bool)
	Member(sid SessionID) (domain.Participant, bool)
	Members() []domain.Participant

	Messages() []domain.Message
	Append(msg domain.Message) domain.Message
	React(id domain.MessageID, symbol, username string) (domain.Message, bool)

	SetTyping(sid SessionID, username string, typing bool)
	Typing() []string

	// Broadcast delivers ev to every member except the given sids.
	Broadcast(ev Event, except ...SessionID) PublishResult
	Send(sid SessionID, ev Event) PublishResult
	// Result accumulates every delivery made through this tx.
	Result() PublishResult
}

type RoomInfo struct {
	Name        domain.RoomName `json:"name"`
	MemberCount int             `json:"client_count"`
	LastActive  time.Time       `json:"last_active"`
}

// RoomFactory is the room registry: rooms are created lazily by name.
type RoomFactory interface {
	GetOrCreate(name domain.RoomName) RoomService
	Get(name domain.RoomName) (RoomService, bool)
	ListNames() []domain.RoomName
	List() []RoomInfo
	// EvictIdle drops empty rooms idle for longer than ttl and returns their names.
	EvictIdle(ttl time.Duration) []domain.RoomName
}
