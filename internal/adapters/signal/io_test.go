package signal

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/dkeye/Chat/internal/app"
	"github.com/dkeye/Chat/internal/app/orch"
	"github.com/dkeye/Chat/internal/core"
	"github.com/dkeye/Chat/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type wireFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func newTestController(t *testing.T, limit int) *SignalWSController {
	t.Helper()
	o := &orch.Orchestrator{
		Registry: app.NewRegistry(),
		Rooms:    app.NewRoomManager(domain.DefaultRoom, 0, nil),
		Policy:   app.DropPolicy{},
	}
	return NewSignalWSController(o, NewSessionRateLimiter(limit, time.Minute), NewOriginPolicy(nil), Options{SendBuffer: 16})
}

// bind registers a connection without a socket; only the send buffer is used.
func bind(t *testing.T, ctl *SignalWSController, sid core.SessionID) *WsSignalConn {
	t.Helper()
	conn := &WsSignalConn{send: make(chan core.Frame, 16)}
	u, err := domain.NewUser(domain.UserID(sid), guestName)
	require.NoError(t, err)
	ctl.Orch.Registry.BindSignal(sid, core.NewMemberSession(domain.NewMember(u), conn), nil)
	return conn
}

func next(t *testing.T, c *WsSignalConn) wireFrame {
	t.Helper()
	select {
	case f := <-c.send:
		var fr wireFrame
		require.NoError(t, json.Unmarshal(f, &fr))
		return fr
	default:
		t.Fatal("no frame queued")
		return wireFrame{}
	}
}

func errorOf(t *testing.T, fr wireFrame) core.ErrorPayload {
	t.Helper()
	require.Equal(t, core.EventError, fr.Event)
	var p core.ErrorPayload
	require.NoError(t, json.Unmarshal(fr.Data, &p))
	return p
}

func TestHandleSignal_Errors(t *testing.T) {
	ctl := newTestController(t, 0)
	conn := bind(t, ctl, "a")

	tests := []struct {
		name  string
		frame string
		want  core.ErrorPayload
	}{
		{"not json", `{`, core.ErrorPayload{Error: errBadJSON}},
		{"unknown event", `{"event":"dance","data":{}}`, core.ErrorPayload{Event: "dance", Error: errUnknownEvent}},
		{"join without payload", `{"event":"user_join"}`, core.ErrorPayload{Event: core.EventUserJoin, Error: errBadPayload}},
		{"join empty name", `{"event":"user_join","data":{"username":""}}`, core.ErrorPayload{Event: core.EventUserJoin, Error: errBadPayload}},
		{"empty message", `{"event":"send_message","data":{"message":""}}`, core.ErrorPayload{Event: core.EventSendMessage, Error: errBadPayload}},
		{"private without target", `{"event":"private_message","data":{"message":"hi"}}`, core.ErrorPayload{Event: core.EventPrivateMessage, Error: errBadPayload}},
		{"react without id", `{"event":"react_message","data":{"reaction":"👍"}}`, core.ErrorPayload{Event: core.EventReactMessage, Error: errBadPayload}},
		{"typing not bool", `{"event":"typing","data":"yes"}`, core.ErrorPayload{Event: core.EventTyping, Error: errBadPayload}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctl.handleSignal("a", conn, []byte(tt.frame))
			assert.Equal(t, tt.want, errorOf(t, next(t, conn)))
		})
	}
}

func TestHandleSignal_JoinAndChat(t *testing.T) {
	ctl := newTestController(t, 0)
	alice := bind(t, ctl, "a")

	ctl.handleSignal("a", alice, []byte(`{"event":"user_join","data":{"username":"Alice","room":"random"}}`))
	fr := next(t, alice)
	require.Equal(t, core.EventRoomJoined, fr.Event)
	var joined core.RoomJoined
	require.NoError(t, json.Unmarshal(fr.Data, &joined))
	assert.Equal(t, domain.RoomName("random"), joined.Room)

	ctl.handleSignal("a", alice, []byte(`{"event":"send_message","data":{"message":"hi","color":"red"}}`))
	fr = next(t, alice)
	require.Equal(t, core.EventReceiveMessage, fr.Event)
	var msg domain.Message
	require.NoError(t, json.Unmarshal(fr.Data, &msg))
	assert.Equal(t, "hi", msg.Body)
	assert.Equal(t, json.RawMessage(`"red"`), msg.Extra["color"])

	ctl.handleSignal("a", alice, []byte(`{"event":"typing","data":true}`))
	fr = next(t, alice)
	assert.Equal(t, core.EventTypingUsers, fr.Event)
	assert.JSONEq(t, `["Alice"]`, string(fr.Data))
}

func TestHandleSignal_JoinAcceptsAnyNames(t *testing.T) {
	ctl := newTestController(t, 0)
	tests := []struct {
		name     string
		username string
		room     string
	}{
		{"long ascii name", strings.Repeat("a", 37), ""},
		{"emoji name", strings.Repeat("😀", 10), ""},
		{"long room", "Alice", strings.Repeat("r", 40)},
		{"padded name", "  Bob  ", "lobby"},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sid := core.SessionID(fmt.Sprintf("s%d", i))
			conn := bind(t, ctl, sid)
			payload, err := json.Marshal(map[string]any{
				"event": core.EventUserJoin,
				"data":  map[string]string{"username": tt.username, "room": tt.room},
			})
			require.NoError(t, err)

			ctl.handleSignal(sid, conn, payload)
			fr := next(t, conn)
			require.Equal(t, core.EventRoomJoined, fr.Event)
			var joined core.RoomJoined
			require.NoError(t, json.Unmarshal(fr.Data, &joined))
			want := domain.ParseRoomName(tt.room, domain.DefaultRoom)
			assert.Equal(t, want, joined.Room)
			assert.Contains(t, joined.Users, domain.Participant{Username: tt.username, ID: domain.UserID(sid)})
		})
	}
}

func TestHandleSignal_RateLimited(t *testing.T) {
	ctl := newTestController(t, 1)
	alice := bind(t, ctl, "a")
	ctl.handleSignal("a", alice, []byte(`{"event":"user_join","data":{"username":"Alice"}}`))
	next(t, alice)

	ctl.handleSignal("a", alice, []byte(`{"event":"send_message","data":{"message":"one"}}`))
	assert.Equal(t, core.EventReceiveMessage, next(t, alice).Event)

	ctl.handleSignal("a", alice, []byte(`{"event":"send_message","data":{"message":"two"}}`))
	assert.Equal(t, core.ErrorPayload{Event: core.EventSendMessage, Error: errRateLimited}, errorOf(t, next(t, alice)))

	ctl.handleSignal("a", alice, []byte(`{"event":"typing","data":true}`))
	assert.Equal(t, core.EventTypingUsers, next(t, alice).Event, "typing is not rate limited")
}

func TestWsSignalConn_TrySend(t *testing.T) {
	c := &WsSignalConn{send: make(chan core.Frame, 1)}
	require.NoError(t, c.TrySend(core.Frame("a")))
	assert.ErrorIs(t, c.TrySend(core.Frame("b")), ErrBackpressure)

	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	assert.ErrorIs(t, c.TrySend(core.Frame("c")), ErrConnClosed)
}
