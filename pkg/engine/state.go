// pkg/engine/state.go
package engine

import (
	"fmt"
	"math"

	"github.com/opd-ai/go-orbiter/pkg/entity"
	"github.com/opd-ai/go-orbiter/pkg/physics"
)

// SimulationState is a deep snapshot of the simulation, safe to hold
// after the lock is released. Renderers and the network layer consume
// it; nothing in it aliases live simulation state.
type SimulationState struct {
	Tick            uint64      `json:"tick"`
	ElapsedTime     float64     `json:"elapsedTime"`
	SpeedMultiplier float64     `json:"speedMultiplier"`
	Rocket          RocketState `json:"rocket"`
	Bodies          []BodyState `json:"bodies"`
}

// RocketState is a snapshot of the rocket, including the derived
// queries the HUD renders: altitude and closest body, fuel percentage,
// and the formatted orbit period.
type RocketState struct {
	Position        physics.Vector2D `json:"position"`
	Velocity        physics.Vector2D `json:"velocity"`
	Speed           float64          `json:"speed"`
	ThrustDirection physics.Vector2D `json:"thrustDirection"`
	ThrustMagnitude float64          `json:"thrustMagnitude"`
	Fuel            float64          `json:"fuel"`
	FuelPercent     float64          `json:"fuelPercent"`
	HasStarted      bool             `json:"hasStarted"`
	HasCrashed      bool             `json:"hasCrashed"`
	OutOfFuel       bool             `json:"outOfFuel"`
	IsInOrbit       bool             `json:"isInOrbit"`
	OrbitPeriod     float64          `json:"orbitPeriod"`
	OrbitPeriodText string           `json:"orbitPeriodText"`
	Altitude        float64          `json:"altitude"`
	ClosestBody     string           `json:"closestBody"`
}

// BodyState is a snapshot of a celestial body.
type BodyState struct {
	ID            entity.ID        `json:"id"`
	Name          string           `json:"name"`
	Position      physics.Vector2D `json:"position"`
	Radius        float64          `json:"radius"`
	Mass          float64          `json:"mass"`
	HasAtmosphere bool             `json:"hasAtmosphere"`
	IsOrbiting    bool             `json:"isOrbiting"`
}

// GetState returns a snapshot of the current simulation state.
func (s *Simulation) GetState() *SimulationState {
	s.EntityLock.RLock()
	defer s.EntityLock.RUnlock()

	return &SimulationState{
		Tick:            s.CurrentTick,
		ElapsedTime:     s.elapsedTime,
		SpeedMultiplier: s.speedMultiplier,
		Rocket:          s.rocketState(),
		Bodies:          s.bodyStates(),
	}
}

// rocketState builds the rocket snapshot with its derived queries.
// Note: must be called with EntityLock held.
func (s *Simulation) rocketState() RocketState {
	rocket := s.Rocket

	altitude := 0.0
	closestName := ""
	if closest := ClosestBody(rocket.Position, s.Bodies); closest != nil {
		altitude = closest.AltitudeOf(rocket.Position)
		closestName = closest.Name
	}

	return RocketState{
		Position:        rocket.Position,
		Velocity:        rocket.Velocity,
		Speed:           rocket.Speed(),
		ThrustDirection: rocket.ThrustDirection,
		ThrustMagnitude: rocket.EffectiveThrust(),
		Fuel:            rocket.Fuel,
		FuelPercent:     rocket.FuelPercent(),
		HasStarted:      rocket.HasStarted,
		HasCrashed:      rocket.HasCrashed,
		OutOfFuel:       rocket.OutOfFuel,
		IsInOrbit:       rocket.IsInOrbit,
		OrbitPeriod:     rocket.OrbitPeriod,
		OrbitPeriodText: FormatOrbitPeriod(rocket.OrbitPeriod),
		Altitude:        altitude,
		ClosestBody:     closestName,
	}
}

// bodyStates builds the celestial-body snapshots.
// Note: must be called with EntityLock held.
func (s *Simulation) bodyStates() []BodyState {
	states := make([]BodyState, 0, len(s.Bodies))
	for _, body := range s.Bodies {
		states = append(states, BodyState{
			ID:            body.ID,
			Name:          body.Name,
			Position:      body.Position,
			Radius:        body.Radius,
			Mass:          body.Mass,
			HasAtmosphere: body.HasAtmosphere,
			IsOrbiting:    body.IsOrbiting(),
		})
	}
	return states
}

// FormatOrbitPeriod renders a period in seconds as an MM:SS string.
// Non-positive and non-finite periods render as 00:00.
func FormatOrbitPeriod(seconds float64) string {
	if seconds <= 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return "00:00"
	}

	total := int(seconds)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
