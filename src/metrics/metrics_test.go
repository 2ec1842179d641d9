package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Connected()
		m.Disconnected()
		m.Joined()
		m.MessageRelayed(true)
		m.MessageAnnounced(true)
		m.MessageRejected("x")
		m.DeliveryDropped()
		m.MirrorDropped()
	})
}

func TestCounters(t *testing.T) {
	m := New()
	m.Connected()
	m.Connected()
	m.Disconnected()
	m.MessageRelayed(false)
	m.MessageRelayed(true)
	m.MessageAnnounced(true)
	m.MessageRejected("not_joined")
	m.MessageRejected("not_joined")

	assert.Equal(t, float64(1), testutil.ToFloat64(m.Connections))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.Relayed))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Announced))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.Evicted))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.Rejected.WithLabelValues("not_joined")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.Joined()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "campus_relay_room_joins_total 1")
}
