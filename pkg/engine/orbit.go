// pkg/engine/orbit.go
package engine

import (
	"math"

	"github.com/opd-ai/go-orbiter/pkg/entity"
	"github.com/opd-ai/go-orbiter/pkg/physics"
)

// Orbit candidacy thresholds. These are tuned gameplay values, kept
// exactly as shipped rather than derived from orbital mechanics.
const (
	// orbitSpeedLowerFactor scales the circular-orbit velocity into the
	// slowest speed that still counts as orbiting.
	orbitSpeedLowerFactor = 0.8

	// orbitSpeedUpperFactor scales the escape velocity into the fastest
	// speed that still counts as orbiting.
	orbitSpeedUpperFactor = 0.9

	// orbitRadialDotLimit rejects trajectories more than ~60 degrees
	// off perpendicular: |dot(radial, heading)| must stay below it.
	orbitRadialDotLimit = 0.5
)

// OrbitClassifier decides each tick whether the rocket's trajectory
// around the closest body counts as a stable orbit, and arms the
// one-shot orbit-achieved notification.
type OrbitClassifier struct {
	Gravity   float64
	triggered bool
}

// NewOrbitClassifier creates a classifier using the given gravitational
// constant.
func NewOrbitClassifier(gravity float64) *OrbitClassifier {
	return &OrbitClassifier{Gravity: gravity}
}

// Classify updates the rocket's orbit flags against the closest body.
// The returned bool is true only on the tick the rocket first enters
// orbit; leaving and re-entering orbit triggers again.
func (o *OrbitClassifier) Classify(rocket *entity.Rocket, bodies []*entity.CelestialBody) (*entity.CelestialBody, bool) {
	body := ClosestBody(rocket.Position, bodies)
	if body == nil {
		o.exit(rocket)
		return nil, false
	}

	distance := rocket.Position.Distance(body.Position)
	if distance <= 0 {
		o.exit(rocket)
		return body, false
	}

	altitude := distance - body.Radius
	if altitude <= body.MinOrbitAltitude {
		o.exit(rocket)
		return body, false
	}

	speed := rocket.Velocity.Length()
	circular := body.CircularOrbitVelocity(o.Gravity, distance)
	escape := body.EscapeVelocity(o.Gravity, distance)
	if speed <= circular*orbitSpeedLowerFactor || speed >= escape*orbitSpeedUpperFactor {
		o.exit(rocket)
		return body, false
	}

	radial := rocket.Position.Sub(body.Position).Normalize()
	heading := rocket.Velocity.Normalize()
	if math.Abs(radial.Dot(heading)) >= orbitRadialDotLimit {
		o.exit(rocket)
		return body, false
	}

	rocket.IsInOrbit = true
	// Semi-major axis approximated by the current distance; good enough
	// for the near-circular orbits the candidacy band admits.
	rocket.OrbitPeriod = body.OrbitalPeriod(o.Gravity, distance)

	if o.triggered {
		return body, false
	}
	o.triggered = true
	return body, true
}

// Reset re-arms the one-shot notification for a fresh scene.
func (o *OrbitClassifier) Reset() {
	o.triggered = false
}

// exit clears the orbit flags and re-arms the entry notification.
func (o *OrbitClassifier) exit(rocket *entity.Rocket) {
	rocket.IsInOrbit = false
	rocket.OrbitPeriod = 0
	o.triggered = false
}

// ClosestBody returns the body nearest to the given position, or nil
// for an empty scene. Ties keep the earlier body in scene order.
func ClosestBody(position physics.Vector2D, bodies []*entity.CelestialBody) *entity.CelestialBody {
	var closest *entity.CelestialBody
	best := math.MaxFloat64
	for _, body := range bodies {
		distance := position.DistanceSquared(body.Position)
		if distance < best {
			best = distance
			closest = body
		}
	}
	return closest
}
