// pkg/telemetry/metrics.go

// Package telemetry exposes simulation metrics in Prometheus format.
// Gauges follow the rocket's state snapshots; counters follow the
// simulation's event bus.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/opd-ai/go-orbiter/pkg/engine"
	"github.com/opd-ai/go-orbiter/pkg/event"
)

// SimulationMetrics holds the Prometheus collectors for one simulation.
type SimulationMetrics struct {
	rocketAltitude   prometheus.Gauge
	rocketSpeed      prometheus.Gauge
	rocketFuel       prometheus.Gauge
	orbitPeriod      prometheus.Gauge
	stepsTotal       prometheus.Counter
	launchesTotal    prometheus.Counter
	resetsTotal      prometheus.Counter
	depletionsTotal  prometheus.Counter
	crashesTotal     *prometheus.CounterVec
	orbitsTotal      *prometheus.CounterVec
	connectedClients prometheus.Gauge
}

// NewSimulationMetrics creates the collectors and registers them with
// the default Prometheus registry. Call it once per process.
func NewSimulationMetrics() *SimulationMetrics {
	m := &SimulationMetrics{
		rocketAltitude: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "orbiter_rocket_altitude_units",
			Help: "Rocket altitude above the closest body's surface, in world units",
		}),
		rocketSpeed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "orbiter_rocket_speed_units",
			Help: "Rocket speed in world units per second",
		}),
		rocketFuel: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "orbiter_rocket_fuel_percent",
			Help: "Remaining fuel as a percentage of tank capacity",
		}),
		orbitPeriod: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "orbiter_rocket_orbit_period_seconds",
			Help: "Estimated orbital period, zero when not in orbit",
		}),
		stepsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orbiter_sim_steps_total",
			Help: "Total fixed simulation steps executed",
		}),
		launchesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orbiter_sim_launches_total",
			Help: "Total rocket launches",
		}),
		resetsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orbiter_sim_resets_total",
			Help: "Total simulation resets",
		}),
		depletionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orbiter_sim_fuel_depletions_total",
			Help: "Total times the rocket ran out of fuel",
		}),
		crashesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orbiter_sim_crashes_total",
				Help: "Total rocket crashes",
			},
			[]string{"body"},
		),
		orbitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orbiter_sim_orbits_achieved_total",
				Help: "Total stable orbit entries",
			},
			[]string{"body"},
		),
		connectedClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "orbiter_server_connected_clients",
			Help: "Currently connected simulation clients",
		}),
	}

	// Register metrics
	prometheus.MustRegister(m.rocketAltitude)
	prometheus.MustRegister(m.rocketSpeed)
	prometheus.MustRegister(m.rocketFuel)
	prometheus.MustRegister(m.orbitPeriod)
	prometheus.MustRegister(m.stepsTotal)
	prometheus.MustRegister(m.launchesTotal)
	prometheus.MustRegister(m.resetsTotal)
	prometheus.MustRegister(m.depletionsTotal)
	prometheus.MustRegister(m.crashesTotal)
	prometheus.MustRegister(m.orbitsTotal)
	prometheus.MustRegister(m.connectedClients)

	return m
}

// ObserveState updates the gauges from a simulation snapshot.
func (m *SimulationMetrics) ObserveState(state *engine.SimulationState) {
	m.rocketAltitude.Set(state.Rocket.Altitude)
	m.rocketSpeed.Set(state.Rocket.Speed)
	m.rocketFuel.Set(state.Rocket.FuelPercent)
	m.orbitPeriod.Set(state.Rocket.OrbitPeriod)
}

// AddSteps records fixed steps executed by the host loop.
func (m *SimulationMetrics) AddSteps(n int) {
	if n > 0 {
		m.stepsTotal.Add(float64(n))
	}
}

// SetConnectedClients records the current client count.
func (m *SimulationMetrics) SetConnectedClients(n int) {
	m.connectedClients.Set(float64(n))
}

// WireEventBus subscribes the counters to simulation events. Handlers
// run inside the simulation's locked sections, so they only increment
// counters and return.
func (m *SimulationMetrics) WireEventBus(bus *event.Bus) {
	bus.Subscribe(event.RocketLaunched, func(event.Event) {
		m.launchesTotal.Inc()
	})
	bus.Subscribe(event.SimulationReset, func(event.Event) {
		m.resetsTotal.Inc()
	})
	bus.Subscribe(event.FuelDepleted, func(event.Event) {
		m.depletionsTotal.Inc()
	})
	bus.Subscribe(event.RocketCrashed, func(e event.Event) {
		if crash, ok := e.(*event.CrashEvent); ok {
			m.crashesTotal.WithLabelValues(crash.BodyName).Inc()
		}
	})
	bus.Subscribe(event.OrbitAchieved, func(e event.Event) {
		if orbit, ok := e.(*event.OrbitEvent); ok {
			m.orbitsTotal.WithLabelValues(orbit.BodyName).Inc()
		}
	})
}

// Handler returns the HTTP handler serving the /metrics endpoint.
func (m *SimulationMetrics) Handler() http.Handler {
	return promhttp.Handler()
}
