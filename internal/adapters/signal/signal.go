// Package signal is the websocket transport of the chat: one connection per
// session, JSON event frames in both directions.
package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/dkeye/Chat/internal/app/orch"
	"github.com/dkeye/Chat/internal/config"
	"github.com/dkeye/Chat/internal/core"
	"github.com/dkeye/Chat/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"
)

var (
	ErrBackpressure = errors.New("backpressure")
	ErrConnClosed   = errors.New("connection closed")
)

const (
	guestName    = "guest"
	writeTimeout = 5 * time.Second
)

type Options struct {
	ReadLimit  int64
	PingPeriod time.Duration
	SendBuffer int
}

func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		ReadLimit:  cfg.ReadLimit,
		PingPeriod: cfg.PingPeriod,
		SendBuffer: cfg.SendBuffer,
	}
}

type SignalWSController struct {
	Orch    *orch.Orchestrator
	Limiter *SessionRateLimiter
	Origins *OriginPolicy

	opts     Options
	validate *validator.Validate
	upgrader websocket.Upgrader
}

func NewSignalWSController(o *orch.Orchestrator, limiter *SessionRateLimiter, origins *OriginPolicy, opts Options) *SignalWSController {
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = 64
	}
	if opts.PingPeriod <= 0 {
		opts.PingPeriod = 54 * time.Second
	}
	ctl := &SignalWSController{
		Orch:     o,
		Limiter:  limiter,
		Origins:  origins,
		opts:     opts,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
	ctl.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return ctl.Origins.Allowed(r.Header.Get("Origin")) },
	}
	return ctl
}

// WsSignalConn implements core.SignalConnection over a websocket.
type WsSignalConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrConnClosed
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *WsSignalConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

// HandleSignal upgrades the request and serves the connection until either
// side goes away. The session is disconnected before it returns.
func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	sid := core.SessionID(uuid.NewString())
	token := c.GetString("client_token")

	ws, err := ctl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("client_token", token).Msg("new WS connection")

	conn := &WsSignalConn{
		conn: ws,
		send: make(chan core.Frame, ctl.opts.SendBuffer),
	}

	user, err := domain.NewUser(domain.UserID(sid), guestName)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("guest user")
		conn.Close()
		return
	}
	meta := domain.NewMember(user)
	meta.ClientToken = token
	sess := core.NewMemberSession(meta, conn)

	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	ctl.Orch.Registry.BindSignal(sid, sess, cancel)

	var wg conc.WaitGroup
	wg.Go(func() { ctl.writePump(connCtx, sid, conn) })
	wg.Go(func() { ctl.readPump(connCtx, cancel, sid, conn) })
	if r := wg.WaitAndRecover(); r != nil {
		log.Error().Str("module", "signal").Str("sid", string(sid)).Str("panic", r.String()).Msg("connection pump panicked")
	}

	ctl.Orch.Disconnect(sid)
	ctl.Limiter.Forget(sid)
	conn.Close()
	log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("WS connection closed")
}
