package app

import (
	"context"
	"testing"

	"github.com/dkeye/Chat/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_RoomAssociation(t *testing.T) {
	r := NewRegistry()
	r.BindSignal("s1", newSession(t, "s1", "Alice"), nil)

	_, _, ok := r.RoomOf("s1")
	assert.False(t, ok, "fresh sessions are in no room")

	require.True(t, r.UpdateRoom("s1", "general"))
	name, sess, ok := r.RoomOf("s1")
	require.True(t, ok)
	assert.Equal(t, domain.RoomName("general"), name)
	assert.Equal(t, "Alice", sess.Meta().User.Username)

	r.RemoveRoom("s1")
	_, _, ok = r.RoomOf("s1")
	assert.False(t, ok)

	assert.False(t, r.UpdateRoom("ghost", "general"))
}

func TestRegistry_UpdateUsername(t *testing.T) {
	r := NewRegistry()
	r.BindSignal("s1", newSession(t, "s1", "Alice"), nil)

	require.NoError(t, r.UpdateUsername("s1", "Alicia"))
	sess, ok := r.GetSession("s1")
	require.True(t, ok)
	assert.Equal(t, "Alicia", sess.Meta().User.Username)

	assert.ErrorIs(t, r.UpdateUsername("s1", ""), domain.ErrUsernameEmpty)
	assert.Equal(t, "Alicia", sess.Meta().User.Username)
}

func TestRegistry_AcquireAfterUnbindFails(t *testing.T) {
	r := NewRegistry()
	r.BindSignal("s1", newSession(t, "s1", "Alice"), nil)

	release, ok := r.Acquire("s1")
	require.True(t, ok)
	release()

	r.Unbind("s1")
	_, ok = r.Acquire("s1")
	assert.False(t, ok)
	assert.Zero(t, r.Count())
}

func TestRegistry_AcquireSerializes(t *testing.T) {
	r := NewRegistry()
	r.BindSignal("s1", newSession(t, "s1", "Alice"), nil)

	release, ok := r.Acquire("s1")
	require.True(t, ok)

	acquired := make(chan struct{})
	go func() {
		rel, ok := r.Acquire("s1")
		if ok {
			rel()
		}
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("second Acquire must wait for release")
	default:
	}
	release()
	<-acquired
}

func TestRegistry_Cancel(t *testing.T) {
	r := NewRegistry()
	ctx, cancel := context.WithCancel(context.Background())
	r.BindSignal("s1", newSession(t, "s1", "Alice"), cancel)

	assert.True(t, r.Cancel("s1"))
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
	assert.False(t, r.Cancel("ghost"))
	assert.Equal(t, 1, r.Count())
}
