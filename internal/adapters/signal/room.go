package signal

import (
	"encoding/json"

	"github.com/dkeye/Chat/internal/core"
	"github.com/dkeye/Chat/internal/domain"
	"github.com/rs/zerolog/log"
)

type joinPayload struct {
	Username string `json:"username" validate:"required"`
	Room     string `json:"room,omitempty"`
}

func (ctl *SignalWSController) handleJoin(
	sid core.SessionID,
	conn *WsSignalConn,
	data json.RawMessage,
) {
	var p joinPayload
	if err := ctl.decode(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("bad join payload")
		ctl.sendError(conn, core.EventUserJoin, errBadPayload)
		return
	}
	room := domain.ParseRoomName(p.Room, ctl.Orch.DefaultRoom)

	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("room", string(room)).Msg("join")
	if err := ctl.Orch.Join(sid, p.Username, room); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("join rejected")
		ctl.sendError(conn, core.EventUserJoin, errInvalidName)
	}
}
