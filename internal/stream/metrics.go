package stream

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kwestergaard/killhouse/internal/sim"
)

// Metrics exports simulation counters to Prometheus. It implements
// sim.EventSink so event categories are tallied as they are logged.
type Metrics struct {
	Events      *prometheus.CounterVec
	Ticks       prometheus.Counter
	Clients     prometheus.Gauge
	GuardsAlive prometheus.Gauge
	PlayerHP    prometheus.Gauge
}

// NewMetrics builds and registers the metric set on the default
// registerer.
func NewMetrics() *Metrics {
	m := &Metrics{
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "killhouse",
			Name:      "sim_events_total",
			Help:      "Simulation log events by category.",
		}, []string{"category"}),
		Ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "killhouse",
			Name:      "sim_ticks_total",
			Help:      "Simulation ticks advanced.",
		}),
		Clients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "killhouse",
			Name:      "stream_clients",
			Help:      "Connected websocket clients.",
		}),
		GuardsAlive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "killhouse",
			Name:      "guards_alive",
			Help:      "Guards not in the dead state.",
		}),
		PlayerHP: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "killhouse",
			Name:      "player_health",
			Help:      "Player hit points.",
		}),
	}
	prometheus.MustRegister(m.Events, m.Ticks, m.Clients, m.GuardsAlive, m.PlayerHP)
	return m
}

// HandleSimEvent counts one log entry. Implements sim.EventSink.
func (m *Metrics) HandleSimEvent(e sim.SimLogEntry) {
	m.Events.WithLabelValues(e.Category).Inc()
}

// ObserveTick refreshes the per-tick gauges after a simulation step.
func (m *Metrics) ObserveTick(s *sim.Simulation, clients int) {
	m.Ticks.Inc()
	m.Clients.Set(float64(clients))

	alive := 0
	for _, g := range s.Agents() {
		if g.State() != sim.StateDead {
			alive++
		}
	}
	m.GuardsAlive.Set(float64(alive))

	if p := s.Player(); p != nil {
		m.PlayerHP.Set(float64(p.Health()))
	}
}
