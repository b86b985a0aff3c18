package stream

import (
	"math"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kwestergaard/killhouse/internal/sim"
)

func TestMetricsCountsEventsByCategory(t *testing.T) {
	registry := prometheus.NewRegistry()
	prometheus.DefaultRegisterer = registry

	m := NewMetrics()
	m.HandleSimEvent(sim.SimLogEntry{Category: "vision"})
	m.HandleSimEvent(sim.SimLogEntry{Category: "vision"})
	m.HandleSimEvent(sim.SimLogEntry{Category: "state"})

	families, err := registry.Gather()
	require.NoError(t, err)

	var eventsFound bool
	for _, mf := range families {
		if *mf.Name != "killhouse_sim_events_total" {
			continue
		}
		eventsFound = true
		require.Len(t, mf.Metric, 2)
		counts := map[string]float64{}
		for _, metric := range mf.Metric {
			counts[*metric.Label[0].Value] = *metric.Counter.Value
		}
		assert.Equal(t, float64(2), counts["vision"])
		assert.Equal(t, float64(1), counts["state"])
	}
	assert.True(t, eventsFound, "events metric not found")
}

func TestMetricsObserveTick(t *testing.T) {
	registry := prometheus.NewRegistry()
	prometheus.DefaultRegisterer = registry

	m := NewMetrics()
	ts := sim.NewTestSim(
		sim.WithPlayer(10, 10),
		sim.WithGuard(sim.DefaultGuardConfig(), 10, 14, -math.Pi/2),
		sim.WithGuard(sim.DefaultGuardConfig(), 30, 30, 0),
	)
	ts.RunTicks(2)
	m.ObserveTick(ts.Sim, 3)
	m.ObserveTick(ts.Sim, 3)

	families, err := registry.Gather()
	require.NoError(t, err)

	values := map[string]float64{}
	for _, mf := range families {
		switch *mf.Name {
		case "killhouse_sim_ticks_total":
			values["ticks"] = *mf.Metric[0].Counter.Value
		case "killhouse_stream_clients":
			values["clients"] = *mf.Metric[0].Gauge.Value
		case "killhouse_guards_alive":
			values["alive"] = *mf.Metric[0].Gauge.Value
		case "killhouse_player_health":
			values["hp"] = *mf.Metric[0].Gauge.Value
		}
	}

	assert.Equal(t, float64(2), values["ticks"])
	assert.Equal(t, float64(3), values["clients"])
	assert.Equal(t, float64(2), values["alive"])
	assert.Equal(t, float64(100), values["hp"])
}
