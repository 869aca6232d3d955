// Package metrics exposes relay counters in the Prometheus format.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "chatrelay"

// Metrics owns a private registry so several instances can coexist in tests.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	rooms          prometheus.Gauge
	members        prometheus.Gauge
	sessions       prometheus.Gauge
	events         *prometheus.CounterVec
	deliveries     prometheus.Counter
	sendFailures   prometheus.Counter
	forcedRemovals prometheus.Counter
	inboundDropped *prometheus.CounterVec
}

// New registers all relay collectors plus the Go runtime collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		rooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rooms",
			Help:      "Number of rooms currently registered.",
		}),
		members: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "members",
			Help:      "Number of connections that are members of a room.",
		}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ws_sessions",
			Help:      "Number of open WebSocket sessions.",
		}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_broadcast_total",
			Help:      "Broadcasts fanned out, by event kind.",
		}, []string{"kind"}),
		deliveries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deliveries_total",
			Help:      "Individual event sends attempted.",
		}),
		sendFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "send_failures_total",
			Help:      "Event sends that failed.",
		}),
		forcedRemovals: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "forced_removals_total",
			Help:      "Members evicted after a failed send.",
		}),
		inboundDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inbound_dropped_total",
			Help:      "Inbound frames that were not broadcast, by reason.",
		}, []string{"reason"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.rooms,
		m.members,
		m.sessions,
		m.events,
		m.deliveries,
		m.sendFailures,
		m.forcedRemovals,
		m.inboundDropped,
	)
	return m
}

// Handler serves the registry at /metrics.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// SetOccupancy records the current room and member counts.
func (m *Metrics) SetOccupancy(rooms, members int) {
	if m == nil {
		return
	}
	m.rooms.Set(float64(rooms))
	m.members.Set(float64(members))
}

// Broadcast records one fan-out pass of kind to recipients connections.
func (m *Metrics) Broadcast(kind string, recipients int) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(kind).Inc()
	m.deliveries.Add(float64(recipients))
}

// SendFailed counts a failed delivery.
func (m *Metrics) SendFailed() {
	if m == nil {
		return
	}
	m.sendFailures.Inc()
}

// ForcedRemoval counts a member evicted after a failed send.
func (m *Metrics) ForcedRemoval() {
	if m == nil {
		return
	}
	m.forcedRemovals.Inc()
}

// SessionOpened and SessionClosed track live WebSocket sessions.
func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.sessions.Inc()
}

func (m *Metrics) SessionClosed() {
	if m == nil {
		return
	}
	m.sessions.Dec()
}

// InboundDropped counts a client frame that produced no broadcast.
func (m *Metrics) InboundDropped(reason string) {
	if m == nil {
		return
	}
	m.inboundDropped.WithLabelValues(reason).Inc()
}
