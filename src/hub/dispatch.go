package hub

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/campus-connect/relay/src/relay"
	"github.com/campus-connect/relay/src/types"
)

type handlerFunc func(c *Client, env types.Envelope) error

var (
	errMissingData    = errors.New("missing data")
	errInvalidPayload = errors.New("invalid payload")
)

func (h *Hub) builtinHandlers() map[string]handlerFunc {
	return map[string]handlerFunc{
		types.EventJoinRoom:    h.handleJoin,
		types.EventLeaveRoom:   h.handleLeave,
		types.EventSendMessage: h.handleSend,
		types.EventGetHistory:  h.handleHistory,
	}
}

// handleMessage runs on the event loop. Failures are reported to the sender
// only and never escape the loop.
func (h *Hub) handleMessage(c *Client, env types.Envelope) {
	if !h.registered(c.ID) {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			h.logger.Error().
				Str("client_id", c.ID).
				Str("event", env.Event).
				Interface("panic", rec).
				Msg("handler panic")
			h.reject(c, "internal", errors.New("internal error"))
		}
	}()

	handler, ok := h.handlers[env.Event]
	if !ok {
		h.reject(c, "unsupported", fmt.Errorf("unsupported event %q", env.Event))
		return
	}
	if err := handler(c, env); err != nil {
		h.reject(c, reasonFor(err), err)
	}
}

func (h *Hub) handleJoin(c *Client, env types.Envelope) error {
	var p types.RoomPayload
	if err := decode(env, &p); err != nil {
		return err
	}
	if p.RoomID == "" {
		return relay.ErrRoomRequired
	}

	previous, switched := h.registry.Join(c.ID, p.RoomID)
	h.metrics.Joined()
	h.logger.Debug().
		Str("client_id", c.ID).
		Str("room", p.RoomID).
		Str("previous", previous).
		Bool("switched", switched).
		Msg("room joined")

	return h.sendTo(c, types.EventRoomJoined, types.RoomPayload{RoomID: p.RoomID})
}

func (h *Hub) handleLeave(c *Client, env types.Envelope) error {
	var p types.RoomPayload
	if err := decode(env, &p); err != nil {
		return err
	}
	if p.RoomID == "" {
		return relay.ErrRoomRequired
	}
	if !h.registry.Leave(c.ID, p.RoomID) {
		return nil
	}
	h.logger.Debug().Str("client_id", c.ID).Str("room", p.RoomID).Msg("room left")
	return h.sendTo(c, types.EventRoomLeft, types.RoomPayload{RoomID: p.RoomID})
}

func (h *Hub) handleSend(c *Client, env types.Envelope) error {
	var p types.SendPayload
	if err := decode(env, &p); err != nil {
		return err
	}
	_, err := h.relay.Relay(c.ID, p)
	return err
}

func (h *Hub) handleHistory(c *Client, env types.Envelope) error {
	var p types.RoomPayload
	if err := decode(env, &p); err != nil {
		return err
	}
	if p.RoomID == "" {
		return relay.ErrRoomRequired
	}
	return h.sendTo(c, types.EventRoomHistory, types.HistoryPayload{
		RoomID:   p.RoomID,
		Messages: h.relay.History(p.RoomID),
	})
}

// reject sends message-error to c alone.
func (h *Hub) reject(c *Client, reason string, err error) {
	h.metrics.MessageRejected(reason)
	h.logger.Debug().Err(err).Str("client_id", c.ID).Str("reason", reason).Msg("request rejected")

	env, encErr := types.NewEnvelope(types.EventMessageError, types.ErrorPayload{Error: err.Error()})
	if encErr != nil {
		h.logger.Error().Err(encErr).Msg("encode error event")
		return
	}
	if dErr := h.Deliver(c.ID, env); dErr != nil {
		h.metrics.DeliveryDropped()
		h.logger.Warn().Err(dErr).Str("client_id", c.ID).Msg("error event dropped")
	}
}

func (h *Hub) sendTo(c *Client, event string, data any) error {
	env, err := types.NewEnvelope(event, data)
	if err != nil {
		return fmt.Errorf("encode %s: %w", event, err)
	}
	if err := h.Deliver(c.ID, env); err != nil {
		h.metrics.DeliveryDropped()
		h.logger.Warn().Err(err).Str("client_id", c.ID).Str("event", event).Msg("reply dropped")
	}
	return nil
}

func (h *Hub) registered(id string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[id]
	return ok
}

func decode(env types.Envelope, v any) error {
	if len(env.Data) == 0 {
		return fmt.Errorf("%s: %w", env.Event, errMissingData)
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		return fmt.Errorf("%s: %w", env.Event, errInvalidPayload)
	}
	return nil
}

func reasonFor(err error) string {
	if errors.Is(err, errMissingData) || errors.Is(err, errInvalidPayload) {
		return "invalid_payload"
	}
	return relay.Reason(err)
}
