// pkg/entity/rocket.go
package entity

import (
	"math"

	"github.com/opd-ai/go-orbiter/pkg/physics"
)

// rocketColliderRadius is the rocket's effective radius for surface
// contact tests. It doubles as the clearance the rocket is pushed out
// to after a gentle touchdown.
const rocketColliderRadius = 0.1

// RocketStats contains the tunable parameters for a rocket
type RocketStats struct {
	Mass                float64
	MaxFuel             float64
	FuelConsumptionRate float64
	ThrustPower         float64
}

// DefaultRocketStats returns the stock arcade tuning
func DefaultRocketStats() RocketStats {
	return RocketStats{
		Mass:                1.0,
		MaxFuel:             100.0,
		FuelConsumptionRate: 7.0,
		ThrustPower:         1.0,
	}
}

// Rocket is the mutable simulation subject. It is mutated only by the
// simulation step and by the explicit recovery operations; everything
// else reads snapshots.
type Rocket struct {
	BaseEntity
	Stats    RocketStats
	Velocity physics.Vector2D

	// ThrustDirection is a unit vector that persists across ticks and
	// rotates under player input. ThrustMagnitude is the currently
	// commanded force along it, already scaled by ThrustPower.
	ThrustDirection physics.Vector2D
	ThrustMagnitude float64

	Fuel float64

	// HasStarted flips on the first nonzero-thrust tick and never
	// clears. HasCrashed is terminal until RecoverFromCrash. OutOfFuel
	// holds until a refill brings fuel above zero.
	HasStarted bool
	HasCrashed bool
	OutOfFuel  bool

	// IsInOrbit and OrbitPeriod are re-derived every tick.
	IsInOrbit   bool
	OrbitPeriod float64

	// LastCollisionElapsed is the time since the previous surface
	// contact. It starts at +Inf (no contact yet) so the very first
	// impact is never swallowed by the cooldown.
	LastCollisionElapsed float64

	initialPosition        physics.Vector2D
	initialThrustDirection physics.Vector2D
}

// NewRocket creates a rocket at rest at the given position. A zero
// thrust direction defaults to straight up.
func NewRocket(id ID, stats RocketStats, position, thrustDirection physics.Vector2D) *Rocket {
	direction := thrustDirection.Normalize()
	if direction.LengthSquared() == 0 {
		direction = physics.Vector2D{X: 0, Y: 1}
	}

	return &Rocket{
		BaseEntity: BaseEntity{
			ID:       id,
			Position: position,
			Collider: physics.Circle{
				Center: position,
				Radius: rocketColliderRadius,
			},
			Active: true,
		},
		Stats:                  stats,
		ThrustDirection:        direction,
		Fuel:                   stats.MaxFuel,
		LastCollisionElapsed:   math.Inf(1),
		initialPosition:        position,
		initialThrustDirection: direction,
	}
}

// RotateThrustDirection rotates the thrust direction by the given angle
// in radians. Non-finite angles are dropped; the direction is
// re-normalized to stop floating-point drift from accumulating across
// many small rotations.
func (r *Rocket) RotateThrustDirection(angle float64) {
	if math.IsNaN(angle) || math.IsInf(angle, 0) {
		return
	}
	r.ThrustDirection = r.ThrustDirection.Rotate(angle).Normalize()
}

// SetThrustMagnitude commands thrust from a normalized [0,1] input,
// scaled by the rocket's thrust power. Out-of-range and non-finite
// inputs are clamped, never rejected.
func (r *Rocket) SetThrustMagnitude(normalized float64) {
	if math.IsNaN(normalized) || normalized < 0 {
		normalized = 0
	} else if normalized > 1 {
		normalized = 1
	}
	r.ThrustMagnitude = normalized * r.Stats.ThrustPower
}

// EffectiveThrust returns the thrust the engine actually produces this
// tick: zero while crashed or out of fuel, the commanded magnitude
// otherwise. The commanded value itself is kept, so thrust resumes
// after a refill without a fresh command.
func (r *Rocket) EffectiveThrust() float64 {
	if r.HasCrashed || r.OutOfFuel {
		return 0
	}
	return r.ThrustMagnitude
}

// FuelPercent returns remaining fuel as a percentage of capacity
func (r *Rocket) FuelPercent() float64 {
	if r.Stats.MaxFuel <= 0 {
		return 0
	}
	return r.Fuel / r.Stats.MaxFuel * 100
}

// Speed returns the magnitude of the current velocity
func (r *Rocket) Speed() float64 {
	return r.Velocity.Length()
}

// Reset restores the rocket to its freshly-constructed state
func (r *Rocket) Reset() {
	r.MoveTo(r.initialPosition)
	r.Velocity = physics.Vector2D{}
	r.ThrustDirection = r.initialThrustDirection
	r.ThrustMagnitude = 0
	r.Fuel = r.Stats.MaxFuel
	r.HasStarted = false
	r.HasCrashed = false
	r.OutOfFuel = false
	r.IsInOrbit = false
	r.OrbitPeriod = 0
	r.LastCollisionElapsed = math.Inf(1)
}
