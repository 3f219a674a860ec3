package websocket

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds Prometheus metrics for the gateway.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	sessionsActive     prometheus.Gauge
	sessionsCreated    prometheus.Counter
	connectionsClosed  *prometheus.CounterVec
	framesReceived     *prometheus.CounterVec
	framesSent         *prometheus.CounterVec
	outboundDrops      prometheus.Counter
	sessionsExpired    prometheus.Counter
	commandsDispatched *prometheus.CounterVec
	commandsUnrouted   prometheus.Counter
	decodeFailures     prometheus.Counter
	rateLimited        prometheus.Counter
}

// NewMetrics creates and registers gateway metrics; nil registerer = nil metrics
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		return nil
	}

	opts := func(name, help string) prometheus.CounterOpts {
		return prometheus.CounterOpts{
			Namespace: "wsgateway",
			Subsystem: "session",
			Name:      name,
			Help:      help,
		}
	}

	m := &Metrics{
		sessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "wsgateway",
			Subsystem: "session",
			Name:      "active",
			Help:      "Number of sessions currently in the registry",
		}),
		sessionsCreated:    prometheus.NewCounter(opts("created_total", "Total sessions created")),
		connectionsClosed:  prometheus.NewCounterVec(opts("connections_closed_total", "Connections terminated, by the loop event that ended them"), []string{"reason"}),
		framesReceived:     prometheus.NewCounterVec(opts("frames_received_total", "Inbound frames by kind"), []string{"kind"}),
		framesSent:         prometheus.NewCounterVec(opts("frames_sent_total", "Frames written to the transport by kind"), []string{"kind"}),
		outboundDrops:      prometheus.NewCounter(opts("outbound_dropped_total", "Frames shed because a session queue was full")),
		sessionsExpired:    prometheus.NewCounter(opts("expired_total", "Sessions asked to close by the sweeper")),
		commandsDispatched: prometheus.NewCounterVec(opts("commands_dispatched_total", "Commands routed to a handler"), []string{"handler"}),
		commandsUnrouted:   prometheus.NewCounter(opts("commands_unrouted_total", "Commands no handler matched")),
		decodeFailures:     prometheus.NewCounter(opts("decode_failures_total", "Text frames that were not a valid command")),
		rateLimited:        prometheus.NewCounter(opts("rate_limited_total", "Commands rejected by the per-session rate limit")),
	}

	registerer.MustRegister(
		m.sessionsActive,
		m.sessionsCreated,
		m.connectionsClosed,
		m.framesReceived,
		m.framesSent,
		m.outboundDrops,
		m.sessionsExpired,
		m.commandsDispatched,
		m.commandsUnrouted,
		m.decodeFailures,
		m.rateLimited,
	)
	return m
}

func (m *Metrics) sessionCreated(active int) {
	if m == nil {
		return
	}
	m.sessionsCreated.Inc()
	m.sessionsActive.Set(float64(active))
}

func (m *Metrics) sessionRemoved(active int) {
	if m == nil {
		return
	}
	m.sessionsActive.Set(float64(active))
}

func (m *Metrics) connectionClosed(reason string) {
	if m == nil {
		return
	}
	m.connectionsClosed.WithLabelValues(reason).Inc()
}

func (m *Metrics) frameReceived(kind FrameKind) {
	if m == nil {
		return
	}
	m.framesReceived.WithLabelValues(kind.String()).Inc()
}

func (m *Metrics) frameSent(kind FrameKind) {
	if m == nil {
		return
	}
	m.framesSent.WithLabelValues(kind.String()).Inc()
}

func (m *Metrics) outboundDropped() {
	if m == nil {
		return
	}
	m.outboundDrops.Inc()
}

func (m *Metrics) sessionExpired() {
	if m == nil {
		return
	}
	m.sessionsExpired.Inc()
}

func (m *Metrics) commandDispatched(handler string) {
	if m == nil {
		return
	}
	m.commandsDispatched.WithLabelValues(handler).Inc()
}

func (m *Metrics) commandUnrouted() {
	if m == nil {
		return
	}
	m.commandsUnrouted.Inc()
}

func (m *Metrics) decodeFailed() {
	if m == nil {
		return
	}
	m.decodeFailures.Inc()
}

func (m *Metrics) rateLimitHit() {
	if m == nil {
		return
	}
	m.rateLimited.Inc()
}
