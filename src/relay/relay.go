package relay

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/campus-connect/relay/src/history"
	"github.com/campus-connect/relay/src/metrics"
	"github.com/campus-connect/relay/src/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	ErrRoomRequired = errors.New("roomId is required")
	ErrNotJoined    = errors.New("join a room before sending messages")
	ErrWrongRoom    = errors.New("not a member of this room")
)

// SystemUser is the sender of announced messages.
var SystemUser = types.User{ID: "system", Name: "System"}

// Membership resolves room membership at broadcast time.
type Membership interface {
	RoomOf(connID string) (string, bool)
	MembersOf(roomID string) []string
	Touch(roomID string)
}

// Deliverer hands an envelope to one connection without blocking.
type Deliverer interface {
	Deliver(connID string, env types.Envelope) error
}

// Mirror receives a copy of every stored message. Implementations must not block.
type Mirror interface {
	Mirror(msg types.ChatMessage)
}

// Relay stamps inbound messages, stores them in the room history and fans
// them out to the room's current members.
type Relay struct {
	members Membership
	store   *history.Store
	out     Deliverer
	mirror  Mirror
	metrics *metrics.Metrics
	logger  zerolog.Logger

	now   func() time.Time
	newID func(time.Time) string
}

// New creates a relay over the given membership, history store and deliverer.
func New(members Membership, store *history.Store, out Deliverer, logger zerolog.Logger) *Relay {
	return &Relay{
		members: members,
		store:   store,
		out:     out,
		logger:  logger.With().Str("component", "relay").Logger(),
		now:     func() time.Time { return time.Now().UTC() },
		newID:   messageID,
	}
}

// SetMirror attaches a mirror that observes every stored message.
func (r *Relay) SetMirror(m Mirror) { r.mirror = m }

// SetMetrics attaches Prometheus collectors.
func (r *Relay) SetMetrics(m *metrics.Metrics) { r.metrics = m }

// Relay validates that senderID is currently in p.RoomID, then stamps,
// stores and broadcasts the message to every member including the sender.
// A returned error is meant for the sender only; nothing was stored.
func (r *Relay) Relay(senderID string, p types.SendPayload) (types.ChatMessage, error) {
	if p.RoomID == "" {
		return types.ChatMessage{}, ErrRoomRequired
	}
	current, ok := r.members.RoomOf(senderID)
	if !ok {
		return types.ChatMessage{}, ErrNotJoined
	}
	if current != p.RoomID {
		return types.ChatMessage{}, fmt.Errorf("%w %q (current room %q)", ErrWrongRoom, p.RoomID, current)
	}

	msg := r.stamp(p.RoomID, p.User, p.Text, p.ClientTimestamp)
	evicted, err := r.publish(msg)
	if err != nil {
		return types.ChatMessage{}, err
	}
	r.metrics.MessageRelayed(evicted)
	return msg, nil
}

// Announce posts a server-originated message into roomID, creating the room
// if needed.
func (r *Relay) Announce(roomID, text string) (types.ChatMessage, error) {
	if roomID == "" {
		return types.ChatMessage{}, ErrRoomRequired
	}
	r.members.Touch(roomID)

	msg := r.stamp(roomID, SystemUser, text, nil)
	evicted, err := r.publish(msg)
	if err != nil {
		return types.ChatMessage{}, err
	}
	r.metrics.MessageAnnounced(evicted)
	return msg, nil
}

// History returns roomID's retained messages, oldest first.
func (r *Relay) History(roomID string) []types.ChatMessage {
	return r.store.Messages(roomID)
}

func (r *Relay) stamp(roomID string, user types.User, text string, clientTS *time.Time) types.ChatMessage {
	ts := r.now()
	return types.ChatMessage{
		ID:              r.newID(ts),
		RoomID:          roomID,
		User:            user,
		Text:            text,
		ClientTimestamp: clientTS,
		ServerTimestamp: ts,
	}
}

// publish encodes msg once, appends it to history and delivers it to the
// room's members as they are right now.
func (r *Relay) publish(msg types.ChatMessage) (bool, error) {
	env, err := types.NewEnvelope(types.EventReceiveMessage, msg)
	if err != nil {
		r.logger.Error().Err(err).Str("room", msg.RoomID).Msg("encode message")
		return false, fmt.Errorf("message could not be encoded: %w", err)
	}

	evicted := r.store.Append(msg)

	members := r.members.MembersOf(msg.RoomID)
	for _, id := range members {
		if err := r.out.Deliver(id, env); err != nil {
			r.metrics.DeliveryDropped()
			r.logger.Warn().Err(err).
				Str("room", msg.RoomID).
				Str("client_id", id).
				Str("message_id", msg.ID).
				Msg("delivery dropped")
		}
	}

	if r.mirror != nil {
		r.mirror.Mirror(msg)
	}

	r.logger.Debug().
		Str("room", msg.RoomID).
		Str("message_id", msg.ID).
		Int("members", len(members)).
		Bool("evicted", evicted).
		Msg("message relayed")
	return evicted, nil
}

// Reason maps a relay error to a short metric label.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrRoomRequired):
		return "room_required"
	case errors.Is(err, ErrNotJoined):
		return "not_joined"
	case errors.Is(err, ErrWrongRoom):
		return "wrong_room"
	default:
		return "internal"
	}
}

// messageID joins the server timestamp with a random UUID so ids sort
// roughly by time and never collide within one millisecond.
func messageID(ts time.Time) string {
	return strconv.FormatInt(ts.UnixMilli(), 10) + "-" + uuid.NewString()
}
