// pkg/telemetry/metrics_test.go
package telemetry

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/opd-ai/go-orbiter/pkg/engine"
	"github.com/opd-ai/go-orbiter/pkg/event"
)

// metrics is shared across tests: collectors register with the default
// Prometheus registry, which forbids duplicates.
var metrics = NewSimulationMetrics()

func TestObserveState(t *testing.T) {
	state := &engine.SimulationState{
		Rocket: engine.RocketState{
			Altitude:    4.2,
			Speed:       0.38,
			FuelPercent: 75.5,
			OrbitPeriod: 97.3,
		},
	}

	metrics.ObserveState(state)

	if got := testutil.ToFloat64(metrics.rocketAltitude); got != 4.2 {
		t.Errorf("altitude gauge = %v, want 4.2", got)
	}
	if got := testutil.ToFloat64(metrics.rocketSpeed); got != 0.38 {
		t.Errorf("speed gauge = %v, want 0.38", got)
	}
	if got := testutil.ToFloat64(metrics.rocketFuel); got != 75.5 {
		t.Errorf("fuel gauge = %v, want 75.5", got)
	}
	if got := testutil.ToFloat64(metrics.orbitPeriod); got != 97.3 {
		t.Errorf("orbit period gauge = %v, want 97.3", got)
	}
}

func TestAddSteps(t *testing.T) {
	before := testutil.ToFloat64(metrics.stepsTotal)

	metrics.AddSteps(3)
	metrics.AddSteps(0)
	metrics.AddSteps(-1)

	if got := testutil.ToFloat64(metrics.stepsTotal); got != before+3 {
		t.Errorf("steps counter = %v, want %v", got, before+3)
	}
}

func TestWireEventBus(t *testing.T) {
	bus := event.NewEventBus()
	metrics.WireEventBus(bus)

	launchesBefore := testutil.ToFloat64(metrics.launchesTotal)
	depletionsBefore := testutil.ToFloat64(metrics.depletionsTotal)
	resetsBefore := testutil.ToFloat64(metrics.resetsTotal)

	bus.Publish(event.NewRocketEvent(event.RocketLaunched, nil, 1))
	bus.Publish(event.NewFuelEvent(event.FuelDepleted, nil, 1, 0))
	bus.Publish(event.NewCrashEvent(nil, 1, "Gaia", 0.51))
	bus.Publish(event.NewOrbitEvent(nil, 1, "Selene", 42.0, 1.5))
	bus.Publish(&event.BaseEvent{EventType: event.SimulationReset})

	if got := testutil.ToFloat64(metrics.launchesTotal); got != launchesBefore+1 {
		t.Errorf("launches counter = %v, want %v", got, launchesBefore+1)
	}
	if got := testutil.ToFloat64(metrics.depletionsTotal); got != depletionsBefore+1 {
		t.Errorf("depletions counter = %v, want %v", got, depletionsBefore+1)
	}
	if got := testutil.ToFloat64(metrics.resetsTotal); got != resetsBefore+1 {
		t.Errorf("resets counter = %v, want %v", got, resetsBefore+1)
	}
	if got := testutil.ToFloat64(metrics.crashesTotal.WithLabelValues("Gaia")); got < 1 {
		t.Errorf("crash counter for Gaia = %v, want at least 1", got)
	}
	if got := testutil.ToFloat64(metrics.orbitsTotal.WithLabelValues("Selene")); got < 1 {
		t.Errorf("orbit counter for Selene = %v, want at least 1", got)
	}
}

func TestHandler(t *testing.T) {
	if metrics.Handler() == nil {
		t.Fatal("Handler() returned nil")
	}
}
