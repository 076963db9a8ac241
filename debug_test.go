package main

import (
	"fmt"
	"testing"

	"github.com/opd-ai/go-orbiter/pkg/config"
	"github.com/opd-ai/go-orbiter/pkg/engine"
	"github.com/opd-ai/go-orbiter/pkg/logging"
)

// Debug test to watch the first seconds of a vertical launch
func TestDebugLiftoff(t *testing.T) {
	sim, err := engine.NewSimulation(config.DefaultConfig(), logging.NewNopLogger())
	if err != nil {
		t.Fatalf("failed to create simulation: %v", err)
	}

	sim.SetThrustMagnitude(1.0)

	for i := 0; i < 300; i++ {
		sim.Step()
		if i%60 == 0 {
			state := sim.GetState()
			fmt.Printf("t=%.1fs alt=%.3f speed=%.3f fuel=%.1f started=%v\n",
				state.ElapsedTime, state.Rocket.Altitude, state.Rocket.Speed,
				state.Rocket.Fuel, state.Rocket.HasStarted)
		}
	}

	state := sim.GetState()
	if !state.Rocket.HasStarted {
		t.Error("rocket never lifted off under full thrust")
	}
	if state.Rocket.Altitude <= 0.1 {
		t.Errorf("altitude after 5s of burn = %v, want climb", state.Rocket.Altitude)
	}
	if state.Rocket.Fuel >= 100 {
		t.Errorf("fuel = %v after burn, want consumption", state.Rocket.Fuel)
	}
}
