package signal

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dkeye/Chat/internal/core"
)

// Error codes sent back to the offending connection only. The connection
// stays open.
const (
	errBadJSON      = "bad_json"
	errBadPayload   = "bad_payload"
	errInvalidName  = "invalid_name"
	errRateLimited  = "rate_limited"
	errUnknownEvent = "unknown_event"
)

var errMissingPayload = errors.New("missing payload")

func (ctl *SignalWSController) sendError(c core.SignalConnection, event, code string) {
	ctl.sendJSON(c, core.Event{
		Name: core.EventError,
		Data: core.ErrorPayload{Event: event, Error: code},
	})
}

// decode unmarshals data into v and runs struct validation on it.
func (ctl *SignalWSController) decode(data json.RawMessage, v any) error {
	if len(data) == 0 || string(data) == "null" {
		return errMissingPayload
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if err := ctl.validate.Struct(v); err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	return nil
}
