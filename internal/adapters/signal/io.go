package signal

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/dkeye/Chat/internal/core"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) writePump(ctx context.Context, sid core.SessionID, c *WsSignalConn) {
	ticker := time.NewTicker(ctl.opts.PingPeriod)
	defer func() {
		ticker.Stop()
		// Unblocks the read pump.
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("writePump ctx done")
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeTimeout))
			return
		case data, ok := <-c.send:
			if !ok {
				log.Debug().Str("module", "signal").Str("sid", string(sid)).Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("writePump write error")
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("writePump ping")
				return
			}
		}
	}
}

func (ctl *SignalWSController) readPump(ctx context.Context, cancel context.CancelFunc, sid core.SessionID, c *WsSignalConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("readPump closing")
		cancel()
	}()

	pongWait := ctl.opts.PingPeriod * 10 / 9
	c.conn.SetReadLimit(ctl.opts.ReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("readPump ctx done")
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) &&
					!errors.Is(err, websocket.ErrReadLimit) {
					log.Error().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("readPump read error")
				}
				return
			}
			ctl.handleSignal(sid, c, data)
		}
	}
}

type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func (ctl *SignalWSController) handleSignal(sid core.SessionID, c *WsSignalConn, data []byte) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad json")
		ctl.sendError(c, "", errBadJSON)
		return
	}

	switch env.Event {
	case core.EventUserJoin:
		ctl.handleJoin(sid, c, env.Data)
	case core.EventSendMessage:
		ctl.handleSendMessage(sid, c, env.Data)
	case core.EventTyping:
		ctl.handleTyping(sid, c, env.Data)
	case core.EventPrivateMessage:
		ctl.handlePrivateMessage(sid, c, env.Data)
	case core.EventReactMessage:
		ctl.handleReact(sid, c, env.Data)
	default:
		log.Warn().Str("module", "signal").Str("event", env.Event).Msg("unknown signal")
		ctl.sendError(c, env.Event, errUnknownEvent)
	}
}

func (ctl *SignalWSController) sendJSON(c core.SignalConnection, v core.Event) {
	b, err := v.Encode()
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(b)
}
