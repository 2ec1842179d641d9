package relay

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/campus-connect/relay/src/history"
	"github.com/campus-connect/relay/src/metrics"
	"github.com/campus-connect/relay/src/registry"
	"github.com/campus-connect/relay/src/types"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingDeliverer collects envelopes per connection and can fail some.
type recordingDeliverer struct {
	mu        sync.Mutex
	delivered map[string][]types.Envelope
	failing   map[string]bool
}

func newRecordingDeliverer() *recordingDeliverer {
	return &recordingDeliverer{
		delivered: make(map[string][]types.Envelope),
		failing:   make(map[string]bool),
	}
}

func (d *recordingDeliverer) Deliver(connID string, env types.Envelope) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failing[connID] {
		return errors.New("send buffer full")
	}
	d.delivered[connID] = append(d.delivered[connID], env)
	return nil
}

func (d *recordingDeliverer) messages(t *testing.T, connID string) []types.ChatMessage {
	t.Helper()
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []types.ChatMessage
	for _, env := range d.delivered[connID] {
		require.Equal(t, types.EventReceiveMessage, env.Event)
		var m types.ChatMessage
		require.NoError(t, json.Unmarshal(env.Data, &m))
		out = append(out, m)
	}
	return out
}

type recordingMirror struct{ got []types.ChatMessage }

func (m *recordingMirror) Mirror(msg types.ChatMessage) { m.got = append(m.got, msg) }

func newTestRelay(t *testing.T) (*Relay, *registry.Registry, *recordingDeliverer) {
	t.Helper()
	reg := registry.New()
	out := newRecordingDeliverer()
	r := New(reg, history.NewStore(history.DefaultCapacity), out, zerolog.Nop())
	return r, reg, out
}

func send(room, text string) types.SendPayload {
	return types.SendPayload{RoomID: room, User: types.User{ID: "u", Name: "User"}, Text: text}
}

func TestRelayFansOutToAllMembersIncludingSender(t *testing.T) {
	r, reg, out := newTestRelay(t)
	reg.Join("A", "room-1")
	reg.Join("B", "room-1")
	reg.Join("C", "elsewhere")

	fixed := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return fixed }

	msg, err := r.Relay("A", send("room-1", "hi"))
	require.NoError(t, err)
	assert.Equal(t, fixed, msg.ServerTimestamp)
	assert.True(t, strings.HasPrefix(msg.ID, fmt.Sprintf("%d-", fixed.UnixMilli())))

	for _, id := range []string{"A", "B"} {
		got := out.messages(t, id)
		require.Len(t, got, 1, id)
		assert.Equal(t, "hi", got[0].Text)
		assert.Equal(t, msg.ID, got[0].ID)
		assert.True(t, got[0].ServerTimestamp.Equal(fixed))
	}
	assert.Empty(t, out.messages(t, "C"))
	assert.Len(t, r.History("room-1"), 1)
}

func TestRelayRejections(t *testing.T) {
	r, reg, out := newTestRelay(t)
	reg.Join("A", "room-3")
	reg.Join("A", "room-4")

	_, err := r.Relay("A", send("", "x"))
	assert.ErrorIs(t, err, ErrRoomRequired)

	_, err = r.Relay("stranger", send("room-4", "x"))
	assert.ErrorIs(t, err, ErrNotJoined)

	_, err = r.Relay("A", send("room-3", "x"))
	assert.ErrorIs(t, err, ErrWrongRoom)
	assert.Contains(t, err.Error(), "room-3")

	assert.Empty(t, r.History("room-3"))
	assert.Empty(t, r.History("room-4"))
	assert.Empty(t, out.messages(t, "A"))
}

func TestRelayRetainsLastHundred(t *testing.T) {
	r, reg, _ := newTestRelay(t)
	senders := []string{"a", "b", "c"}
	for _, s := range senders {
		reg.Join(s, "room-2")
	}

	for i := 0; i < 105; i++ {
		_, err := r.Relay(senders[i%len(senders)], send("room-2", fmt.Sprintf("msg-%d", i)))
		require.NoError(t, err)
	}

	h := r.History("room-2")
	require.Len(t, h, 100)
	assert.Equal(t, "msg-5", h[0].Text)
	assert.Equal(t, "msg-104", h[99].Text)
}

func TestRelayUsesFreshMembership(t *testing.T) {
	r, reg, out := newTestRelay(t)
	reg.Join("A", "r")
	reg.Join("B", "r")
	_, err := r.Relay("A", send("r", "one"))
	require.NoError(t, err)

	reg.Disconnect("B")
	reg.Join("C", "r")
	_, err = r.Relay("A", send("r", "two"))
	require.NoError(t, err)

	assert.Len(t, out.messages(t, "A"), 2)
	assert.Len(t, out.messages(t, "B"), 1, "disconnected member gets nothing more")
	assert.Len(t, out.messages(t, "C"), 1)
}

func TestRelayIsolatesFailingMember(t *testing.T) {
	r, reg, out := newTestRelay(t)
	m := metrics.New()
	r.SetMetrics(m)
	reg.Join("A", "r")
	reg.Join("B", "r")
	reg.Join("C", "r")
	out.failing["B"] = true

	_, err := r.Relay("A", send("r", "hello"))
	require.NoError(t, err, "a dead member is not the sender's problem")

	assert.Len(t, out.messages(t, "A"), 1)
	assert.Len(t, out.messages(t, "C"), 1)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Dropped))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Relayed))
}

func TestRelayUniqueIDsWithinSameInstant(t *testing.T) {
	r, reg, _ := newTestRelay(t)
	fixed := time.Now().UTC()
	r.now = func() time.Time { return fixed }
	reg.Join("A", "r")

	seen := make(map[string]bool)
	for i := 0; i < 500; i++ {
		msg, err := r.Relay("A", send("r", "x"))
		require.NoError(t, err)
		require.False(t, seen[msg.ID], "duplicate id %s", msg.ID)
		seen[msg.ID] = true
	}
}

func TestRelayKeepsClientTimestampAdvisory(t *testing.T) {
	r, reg, _ := newTestRelay(t)
	reg.Join("A", "r")
	claimed := time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC)
	p := send("r", "x")
	p.ClientTimestamp = &claimed

	msg, err := r.Relay("A", p)
	require.NoError(t, err)
	require.NotNil(t, msg.ClientTimestamp)
	assert.Equal(t, claimed, *msg.ClientTimestamp)
	assert.True(t, msg.ServerTimestamp.After(claimed))
}

func TestAnnounce(t *testing.T) {
	r, reg, out := newTestRelay(t)
	mirror := &recordingMirror{}
	r.SetMirror(mirror)
	reg.Join("A", "project:7")

	msg, err := r.Announce("project:7", "deadline moved")
	require.NoError(t, err)
	assert.Equal(t, SystemUser, msg.User)
	assert.Len(t, out.messages(t, "A"), 1)
	assert.Len(t, mirror.got, 1)

	_, err = r.Announce("", "x")
	assert.ErrorIs(t, err, ErrRoomRequired)

	_, err = r.Announce("empty-room", "first")
	require.NoError(t, err)
	_, ok := reg.Rooms()["empty-room"]
	assert.True(t, ok, "announcing creates the room")
	assert.Len(t, r.History("empty-room"), 1)
}

func TestReason(t *testing.T) {
	assert.Equal(t, "room_required", Reason(ErrRoomRequired))
	assert.Equal(t, "not_joined", Reason(ErrNotJoined))
	assert.Equal(t, "wrong_room", Reason(fmt.Errorf("%w x", ErrWrongRoom)))
	assert.Equal(t, "internal", Reason(errors.New("boom")))
}
