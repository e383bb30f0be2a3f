package signal

import (
	"encoding/json"

	"github.com/dkeye/Chat/internal/core"
	"github.com/dkeye/Chat/internal/domain"
	"github.com/rs/zerolog/log"
)

type sendPayload struct {
	Message string `json:"message" validate:"required"`
}

type privatePayload struct {
	To      string `json:"to" validate:"required"`
	Message string `json:"message" validate:"required"`
}

type reactPayload struct {
	MessageID domain.MessageID `json:"messageId" validate:"required"`
	Reaction  string           `json:"reaction" validate:"required"`
}

// allow applies the per-connection rate limit to events that produce chat
// traffic for other members.
func (ctl *SignalWSController) allow(sid core.SessionID, conn *WsSignalConn, event string) bool {
	if ctl.Limiter.Allow(sid) {
		return true
	}
	log.Warn().Str("module", "signal").Str("sid", string(sid)).Str("event", event).Msg("rate limited")
	ctl.sendError(conn, event, errRateLimited)
	return false
}

func (ctl *SignalWSController) handleSendMessage(sid core.SessionID, conn *WsSignalConn, data json.RawMessage) {
	var p sendPayload
	if err := ctl.decode(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("bad send_message payload")
		ctl.sendError(conn, core.EventSendMessage, errBadPayload)
		return
	}
	// Every other field of the payload travels with the message.
	var extra map[string]json.RawMessage
	if err := json.Unmarshal(data, &extra); err != nil {
		ctl.sendError(conn, core.EventSendMessage, errBadPayload)
		return
	}
	if !ctl.allow(sid, conn, core.EventSendMessage) {
		return
	}
	ctl.Orch.SendMessage(sid, p.Message, extra)
}

func (ctl *SignalWSController) handlePrivateMessage(sid core.SessionID, conn *WsSignalConn, data json.RawMessage) {
	var p privatePayload
	if err := ctl.decode(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("bad private_message payload")
		ctl.sendError(conn, core.EventPrivateMessage, errBadPayload)
		return
	}
	if !ctl.allow(sid, conn, core.EventPrivateMessage) {
		return
	}
	ctl.Orch.PrivateMessage(sid, core.SessionID(p.To), p.Message)
}

func (ctl *SignalWSController) handleReact(sid core.SessionID, conn *WsSignalConn, data json.RawMessage) {
	var p reactPayload
	if err := ctl.decode(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("bad react_message payload")
		ctl.sendError(conn, core.EventReactMessage, errBadPayload)
		return
	}
	if !ctl.allow(sid, conn, core.EventReactMessage) {
		return
	}
	ctl.Orch.React(sid, p.MessageID, p.Reaction)
}

func (ctl *SignalWSController) handleTyping(sid core.SessionID, conn *WsSignalConn, data json.RawMessage) {
	var typing bool
	if err := json.Unmarshal(data, &typing); err != nil {
		log.Error().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("bad typing payload")
		ctl.sendError(conn, core.EventTyping, errBadPayload)
		return
	}
	ctl.Orch.SetTyping(sid, typing)
}
