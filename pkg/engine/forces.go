// pkg/engine/forces.go
package engine

import (
	"math"

	"github.com/opd-ai/go-orbiter/pkg/entity"
	"github.com/opd-ai/go-orbiter/pkg/physics"
)

const (
	// LiftoffImpulse is the velocity kick applied along the thrust
	// direction on the first powered tick so the rocket breaks static
	// surface contact instead of re-colliding on the same frame.
	LiftoffImpulse = 0.05

	// dragSpeedSquaredFloor is the squared speed below which drag is
	// skipped for the tick, keeping the velocity normalization away
	// from a zero-length vector.
	dragSpeedSquaredFloor = 1e-4
)

// ForceModel accumulates the net force acting on the rocket each tick:
// gravity from every body in range, then drag from the closest
// atmospheric body, then engine thrust.
type ForceModel struct {
	Gravity         float64
	DragCoefficient float64
}

// NewForceModel creates a force model with the given gravitational
// constant and drag coefficient.
func NewForceModel(gravity, dragCoefficient float64) *ForceModel {
	return &ForceModel{
		Gravity:         gravity,
		DragCoefficient: dragCoefficient,
	}
}

// ComputeNetForce returns the accumulated force on the rocket for one
// tick. The thrust magnitude is supplied by the caller, already gated
// by fuel and crash state. The caller divides by the rocket's mass for
// acceleration.
func (f *ForceModel) ComputeNetForce(rocket *entity.Rocket, bodies []*entity.CelestialBody, thrust float64) physics.Vector2D {
	force := f.gravityForce(rocket, bodies)
	force = force.Add(f.dragForce(rocket, bodies))
	force = force.Add(f.thrustForce(rocket, thrust))
	return force
}

// gravityForce sums the attraction from every body within gravity
// range. Out-of-range bodies contribute nothing.
func (f *ForceModel) gravityForce(rocket *entity.Rocket, bodies []*entity.CelestialBody) physics.Vector2D {
	var total physics.Vector2D
	for _, body := range bodies {
		if !body.InGravityRange(rocket.Position) {
			continue
		}
		total = total.Add(body.GravityForceOn(f.Gravity, rocket.Stats.Mass, rocket.Position))
	}
	return total
}

// dragForce computes atmospheric drag against the closest body that has
// an atmosphere. Only that one body contributes; drag is skipped
// entirely when the rocket is effectively at rest.
func (f *ForceModel) dragForce(rocket *entity.Rocket, bodies []*entity.CelestialBody) physics.Vector2D {
	body := ClosestAtmosphericBody(rocket.Position, bodies)
	if body == nil {
		return physics.Vector2D{}
	}

	speedSquared := rocket.Velocity.LengthSquared()
	if speedSquared < dragSpeedSquaredFloor {
		return physics.Vector2D{}
	}

	density := body.AtmosphereDensityAt(body.AltitudeOf(rocket.Position))
	if density == 0 {
		return physics.Vector2D{}
	}

	magnitude := f.DragCoefficient * density * speedSquared
	return rocket.Velocity.Normalize().Scale(-magnitude)
}

// thrustForce returns the engine force along the thrust direction.
func (f *ForceModel) thrustForce(rocket *entity.Rocket, thrust float64) physics.Vector2D {
	if thrust <= 0 {
		return physics.Vector2D{}
	}
	return rocket.ThrustDirection.Scale(thrust)
}

// ClosestAtmosphericBody returns the nearest body with an atmosphere,
// or nil when no body in the scene has one.
func ClosestAtmosphericBody(position physics.Vector2D, bodies []*entity.CelestialBody) *entity.CelestialBody {
	var closest *entity.CelestialBody
	best := math.MaxFloat64
	for _, body := range bodies {
		if !body.HasAtmosphere {
			continue
		}
		distance := position.DistanceSquared(body.Position)
		if distance < best {
			best = distance
			closest = body
		}
	}
	return closest
}
