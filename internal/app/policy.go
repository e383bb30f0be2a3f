package app

import (
	"fmt"

	"github.com/dkeye/Chat/internal/core"
)

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	KickMember
	DropFrame
)

// Policy decides what happens to a member whose outbound buffer is full.
type Policy interface {
	OnBackPressure(room core.RoomService, sid core.SessionID) BackpressureAction
}

// SimplePolicy kicks slow members so they reconnect with a fresh snapshot.
type SimplePolicy struct{}

func (SimplePolicy) OnBackPressure(core.RoomService, core.SessionID) BackpressureAction {
	return KickMember
}

// DropPolicy keeps slow members connected and loses the event for them.
type DropPolicy struct{}

func (DropPolicy) OnBackPressure(core.RoomService, core.SessionID) BackpressureAction {
	return DropFrame
}

func PolicyByName(name string) (Policy, error) {
	switch name {
	case "", "kick":
		return SimplePolicy{}, nil
	case "drop":
		return DropPolicy{}, nil
	default:
		return nil, fmt.Errorf("unknown backpressure policy %q", name)
	}
}
