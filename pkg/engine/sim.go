// pkg/engine/sim.go
package engine

import (
	"context"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/opd-ai/go-orbiter/pkg/config"
	"github.com/opd-ai/go-orbiter/pkg/entity"
	"github.com/opd-ai/go-orbiter/pkg/event"
	"github.com/opd-ai/go-orbiter/pkg/logging"
	"github.com/opd-ai/go-orbiter/pkg/physics"
)

const (
	// MaxFrameTime caps the real elapsed time Advance accepts per call,
	// so a stalled host cannot trigger a spiral of death.
	MaxFrameTime = 0.25

	// MinSpeedMultiplier and MaxSpeedMultiplier bound the simulated
	// time scale.
	MinSpeedMultiplier = 0.1
	MaxSpeedMultiplier = 100.0
)

// Simulation owns the rocket and the celestial-body set and advances
// them on a fixed timestep. All mutation happens under EntityLock; the
// step pipeline is: orbit the bodies, meter fuel, accumulate forces,
// integrate, settle collisions, classify the trajectory.
type Simulation struct {
	Config     *config.SimConfig
	Rocket     *entity.Rocket
	Bodies     []*entity.CelestialBody
	EntityLock sync.RWMutex
	EventBus   *event.Bus

	FixedTimestep float64
	CurrentTick   uint64

	forces     *ForceModel
	fuel       FuelSystem
	collisions *CollisionResolver
	classifier *OrbitClassifier

	speedMultiplier float64
	accumulator     float64
	elapsedTime     float64

	lastAdvance atomic.Int64 // unix nanos of the most recent Advance/Step

	logger *logging.Logger
}

// NewSimulation builds a simulation from the configuration. Bodies are
// created in configuration order, which is also the gravity, collision,
// and tie-breaking order; orbit targets are resolved by name. A nil
// logger falls back to the default logger.
func NewSimulation(cfg *config.SimConfig, logger *logging.Logger) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, logging.WrapError(err, "invalid simulation config")
	}
	if logger == nil {
		logger = logging.NewLogger()
	}

	bodies, err := buildBodies(cfg)
	if err != nil {
		return nil, err
	}

	sim := &Simulation{
		Config:          cfg,
		Rocket:          buildRocket(cfg),
		Bodies:          bodies,
		EventBus:        event.NewEventBus(),
		FixedTimestep:   cfg.FixedTimestep,
		forces:          NewForceModel(cfg.Gravity, cfg.DragCoefficient),
		collisions:      NewCollisionResolver(cfg.CrashSpeedThreshold, cfg.CollisionCooldown),
		classifier:      NewOrbitClassifier(cfg.Gravity),
		speedMultiplier: clampSpeedMultiplier(cfg.SpeedMultiplier),
		logger:          logger,
	}
	sim.lastAdvance.Store(time.Now().UnixNano())

	return sim, nil
}

// buildBodies constructs the celestial bodies in configuration order
// and wires up parent orbits by name.
func buildBodies(cfg *config.SimConfig) ([]*entity.CelestialBody, error) {
	bodies := make([]*entity.CelestialBody, 0, len(cfg.Bodies))
	byName := make(map[string]*entity.CelestialBody, len(cfg.Bodies))

	for i, bodyCfg := range cfg.Bodies {
		body := entity.NewCelestialBody(
			entity.ID(i+2), // rocket takes ID 1
			bodyCfg.Name,
			physics.Vector2D{X: bodyCfg.X, Y: bodyCfg.Y},
			bodyCfg.Radius,
			bodyCfg.Mass,
		)
		body.HasAtmosphere = bodyCfg.HasAtmosphere
		if bodyCfg.MinOrbitAltitude > 0 {
			body.MinOrbitAltitude = bodyCfg.MinOrbitAltitude
		}
		bodies = append(bodies, body)
		byName[bodyCfg.Name] = body
	}

	for i, bodyCfg := range cfg.Bodies {
		if bodyCfg.Orbit == nil {
			continue
		}
		target, ok := byName[bodyCfg.Orbit.Target]
		if !ok {
			return nil, fmt.Errorf("body %q orbits unknown target %q", bodyCfg.Name, bodyCfg.Orbit.Target)
		}
		bodies[i].SetOrbit(
			target,
			bodyCfg.Orbit.Radius,
			bodyCfg.Orbit.AngularSpeed,
			bodyCfg.Orbit.InitialAngle,
			bodyCfg.Orbit.Clockwise,
		)
	}

	return bodies, nil
}

// buildRocket constructs the rocket at its configured spawn state.
func buildRocket(cfg *config.SimConfig) *entity.Rocket {
	stats := entity.RocketStats{
		Mass:                cfg.Rocket.Mass,
		MaxFuel:             cfg.Rocket.MaxFuel,
		FuelConsumptionRate: cfg.Rocket.FuelConsumptionRate,
		ThrustPower:         cfg.Rocket.ThrustPower,
	}
	return entity.NewRocket(
		1,
		stats,
		physics.Vector2D{X: cfg.Rocket.X, Y: cfg.Rocket.Y},
		physics.FromAngle(cfg.Rocket.ThrustAngle, 1),
	)
}

// Step advances the simulation by exactly one fixed timestep.
func (s *Simulation) Step() {
	s.EntityLock.Lock()
	defer s.EntityLock.Unlock()

	s.stepLocked()
	s.lastAdvance.Store(time.Now().UnixNano())
}

// Advance drains real elapsed time into fixed steps: the elapsed time
// is capped at MaxFrameTime, scaled by the speed multiplier, and
// consumed in FixedTimestep increments, with the remainder carried in
// the accumulator. It returns the number of steps taken.
func (s *Simulation) Advance(elapsed float64) int {
	s.EntityLock.Lock()
	defer s.EntityLock.Unlock()

	s.lastAdvance.Store(time.Now().UnixNano())

	if math.IsNaN(elapsed) || elapsed <= 0 {
		return 0
	}
	if elapsed > MaxFrameTime {
		elapsed = MaxFrameTime
	}

	s.accumulator += elapsed * s.speedMultiplier

	steps := 0
	for s.accumulator >= s.FixedTimestep {
		s.stepLocked()
		s.accumulator -= s.FixedTimestep
		steps++
	}
	return steps
}

// stepLocked runs one fixed step of the pipeline.
// Note: must be called with EntityLock held.
func (s *Simulation) stepLocked() {
	dt := s.FixedTimestep

	s.advanceBodies(dt)

	if s.Rocket.HasCrashed {
		// Crash freezes the rocket; only the bodies keep moving.
		s.finishTick(dt)
		return
	}

	thrust := s.Rocket.EffectiveThrust()
	s.latchLiftoff(thrust)

	if s.fuel.Consume(s.Rocket, thrust, dt) {
		s.EventBus.Publish(event.NewFuelEvent(
			event.FuelDepleted, s, uint64(s.Rocket.ID), s.Rocket.Fuel,
		))
	}

	if s.Rocket.HasStarted {
		s.integrate(thrust, dt)
	}

	contact := s.collisions.Resolve(s.Rocket, s.Bodies, dt)
	if contact != nil && contact.Crashed {
		s.handleCrash(contact)
		s.finishTick(dt)
		return
	}

	if s.Rocket.HasStarted {
		s.classifyOrbit()
	}

	s.finishTick(dt)
}

// advanceBodies moves every orbiting body along its track. Bodies keep
// moving regardless of rocket state.
func (s *Simulation) advanceBodies(dt float64) {
	for _, body := range s.Bodies {
		body.AdvanceOrbit(dt)
	}
}

// latchLiftoff marks the first powered tick, permanently. The liftoff
// impulse breaks static surface contact so the first powered frame does
// not immediately re-collide.
func (s *Simulation) latchLiftoff(thrust float64) {
	if s.Rocket.HasStarted || thrust <= 0 {
		return
	}

	s.Rocket.HasStarted = true
	s.Rocket.Velocity = s.Rocket.Velocity.Add(s.Rocket.ThrustDirection.Scale(LiftoffImpulse))

	s.EventBus.Publish(event.NewRocketEvent(
		event.RocketLaunched, s, uint64(s.Rocket.ID),
	))
}

// integrate accumulates forces and advances the rocket one step with
// semi-implicit Euler, then recovers from any non-finite state.
func (s *Simulation) integrate(thrust, dt float64) {
	force := s.forces.ComputeNetForce(s.Rocket, s.Bodies, thrust)

	state := physics.MotionState{
		Position: s.Rocket.Position,
		Velocity: s.Rocket.Velocity,
		Mass:     s.Rocket.Stats.Mass,
	}
	physics.IntegrateSemiImplicit(&state, force, dt)

	s.Rocket.MoveTo(state.Position)
	s.Rocket.Velocity = state.Velocity

	if !s.Rocket.Position.IsFinite() || !s.Rocket.Velocity.IsFinite() {
		s.logger.Warn(context.Background(),
			"non-finite rocket state after integration, zeroing velocity",
			"tick", s.CurrentTick,
		)
		s.Rocket.Velocity = physics.Vector2D{}
	}
}

// handleCrash finalizes a terminal impact.
// Note: must be called with EntityLock held.
func (s *Simulation) handleCrash(contact *ContactResult) {
	s.Rocket.IsInOrbit = false
	s.Rocket.OrbitPeriod = 0
	s.classifier.Reset()

	s.EventBus.Publish(event.NewCrashEvent(
		s, uint64(s.Rocket.ID), contact.Body.Name, contact.ImpactSpeed,
	))
}

// classifyOrbit runs the orbit classifier and publishes the one-shot
// orbit-achieved notification on entry.
func (s *Simulation) classifyOrbit() {
	body, entered := s.classifier.Classify(s.Rocket, s.Bodies)
	if !entered {
		return
	}

	s.EventBus.Publish(event.NewOrbitEvent(
		s,
		uint64(s.Rocket.ID),
		body.Name,
		s.Rocket.OrbitPeriod,
		body.AltitudeOf(s.Rocket.Position),
	))
}

// finishTick advances the tick and elapsed-time counters.
func (s *Simulation) finishTick(dt float64) {
	s.CurrentTick++
	s.elapsedTime += dt
}

// Reset returns the scene to its configured starting state: rocket
// re-parked with full fuel and cleared flags, bodies back at their
// initial orbit angles, counters zeroed. It is atomic with respect to
// Step and Advance, never interleaving mid-tick.
func (s *Simulation) Reset() {
	s.EntityLock.Lock()
	defer s.EntityLock.Unlock()

	s.Rocket.Reset()
	for _, body := range s.Bodies {
		body.ResetOrbit()
	}
	s.classifier.Reset()

	s.accumulator = 0
	s.CurrentTick = 0
	s.elapsedTime = 0
	s.speedMultiplier = clampSpeedMultiplier(s.Config.SpeedMultiplier)

	s.EventBus.Publish(&event.BaseEvent{
		EventType: event.SimulationReset,
		Source:    s,
	})
}

// Refuel adds fuel to the tank, clamped to capacity, and lifts the
// out-of-fuel latch when the resulting level is positive. A player
// recovery action, never automatic.
func (s *Simulation) Refuel(amount float64) {
	s.EntityLock.Lock()
	defer s.EntityLock.Unlock()

	s.fuel.Refill(s.Rocket, amount)

	s.EventBus.Publish(event.NewFuelEvent(
		event.RocketRefueled, s, uint64(s.Rocket.ID), s.Rocket.Fuel,
	))
}

// RecoverFromCrash clears the crash flag, zeroes velocity, and refills
// the tank. The rocket resumes from where it crashed. Recovering a
// rocket that has not crashed does nothing.
func (s *Simulation) RecoverFromCrash() {
	s.EntityLock.Lock()
	defer s.EntityLock.Unlock()

	if !s.Rocket.HasCrashed {
		return
	}

	s.Rocket.HasCrashed = false
	s.Rocket.Velocity = physics.Vector2D{}
	s.fuel.Refill(s.Rocket, s.Rocket.Stats.MaxFuel)

	s.EventBus.Publish(event.NewRocketEvent(
		event.RocketRecovered, s, uint64(s.Rocket.ID),
	))
}

// RotateThrustDirection rotates the rocket's thrust vector by the given
// angle in radians. Allowed at any time, including pre-launch and while
// crashed.
func (s *Simulation) RotateThrustDirection(angle float64) {
	s.EntityLock.Lock()
	defer s.EntityLock.Unlock()

	s.Rocket.RotateThrustDirection(angle)
}

// SetThrustMagnitude commands thrust from a normalized [0, 1] value.
// Out-of-range and non-finite input is clamped, never rejected.
func (s *Simulation) SetThrustMagnitude(normalized float64) {
	s.EntityLock.Lock()
	defer s.EntityLock.Unlock()

	s.Rocket.SetThrustMagnitude(normalized)
}

// SetSpeedMultiplier adjusts how fast simulated time runs relative to
// real time, clamped to [MinSpeedMultiplier, MaxSpeedMultiplier].
func (s *Simulation) SetSpeedMultiplier(multiplier float64) {
	s.EntityLock.Lock()
	defer s.EntityLock.Unlock()

	if math.IsNaN(multiplier) {
		return
	}
	s.speedMultiplier = clampSpeedMultiplier(multiplier)
}

// SpeedMultiplier returns the current simulated time scale.
func (s *Simulation) SpeedMultiplier() float64 {
	s.EntityLock.RLock()
	defer s.EntityLock.RUnlock()

	return s.speedMultiplier
}

// LastUpdate returns the wall-clock time of the most recent Advance or
// Step call. Health checks use it as a liveness heartbeat.
func (s *Simulation) LastUpdate() time.Time {
	return time.Unix(0, s.lastAdvance.Load())
}

func clampSpeedMultiplier(multiplier float64) float64 {
	if multiplier < MinSpeedMultiplier {
		return MinSpeedMultiplier
	}
	if multiplier > MaxSpeedMultiplier {
		return MaxSpeedMultiplier
	}
	return multiplier
}
