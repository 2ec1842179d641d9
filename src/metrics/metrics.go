package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "campus_relay"

// Metrics holds the relay's Prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	Connections prometheus.Gauge
	Joins       prometheus.Counter
	Relayed     prometheus.Counter
	Announced   prometheus.Counter
	Rejected    *prometheus.CounterVec
	Evicted     prometheus.Counter
	Dropped     prometheus.Counter
	MirrorLost  prometheus.Counter
}

// New creates the collectors on a private registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		Connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "connections",
			Help: "Live WebSocket connections.",
		}),
		Joins: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "room_joins_total",
			Help: "Accepted join-room requests.",
		}),
		Relayed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "messages_relayed_total",
			Help: "Messages stamped, stored and broadcast.",
		}),
		Announced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "messages_announced_total",
			Help: "Server-originated messages posted into rooms.",
		}),
		Rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "messages_rejected_total",
			Help: "Inbound frames answered with message-error.",
		}, []string{"reason"}),
		Evicted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "history_evictions_total",
			Help: "Messages evicted from room history buffers.",
		}),
		Dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "deliveries_dropped_total",
			Help: "Per-member deliveries dropped because the member queue was full or gone.",
		}),
		MirrorLost: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "mirror_dropped_total",
			Help: "Messages not handed to the Redis mirror.",
		}),
	}
	reg.MustRegister(
		m.Connections, m.Joins, m.Relayed, m.Announced, m.Rejected,
		m.Evicted, m.Dropped, m.MirrorLost,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Connected() {
	if m != nil {
		m.Connections.Inc()
	}
}

func (m *Metrics) Disconnected() {
	if m != nil {
		m.Connections.Dec()
	}
}

func (m *Metrics) Joined() {
	if m != nil {
		m.Joins.Inc()
	}
}

func (m *Metrics) MessageRelayed(evicted bool) {
	if m == nil {
		return
	}
	m.Relayed.Inc()
	if evicted {
		m.Evicted.Inc()
	}
}

func (m *Metrics) MessageAnnounced(evicted bool) {
	if m == nil {
		return
	}
	m.Announced.Inc()
	if evicted {
		m.Evicted.Inc()
	}
}

func (m *Metrics) MessageRejected(reason string) {
	if m != nil {
		m.Rejected.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) DeliveryDropped() {
	if m != nil {
		m.Dropped.Inc()
	}
}

func (m *Metrics) MirrorDropped() {
	if m != nil {
		m.MirrorLost.Inc()
	}
}
