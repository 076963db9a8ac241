// pkg/entity/body.go
package entity

import (
	"math"

	"github.com/opd-ai/go-orbiter/pkg/physics"
)

// Gravity and atmosphere tuning shared by every body. These are
// game-scaled values, not physical ones.
const (
	// GravityRangeFactor bounds a body's gravitational reach to a
	// multiple of its radius; bodies farther away contribute nothing.
	GravityRangeFactor = 20.0

	// NearSurfaceAltitude is the altitude below which gravity is
	// artificially strengthened to make landings and launches sharper.
	NearSurfaceAltitude = 1.0

	// NearSurfaceBoost scales the strengthening: the multiplier grows
	// from 1 at NearSurfaceAltitude to 1+NearSurfaceBoost at the surface.
	NearSurfaceBoost = 0.5

	// AtmosphereHeight is how far an atmosphere extends above the
	// surface. Density decays exponentially across it.
	AtmosphereHeight = 3.0

	// DefaultMinOrbitAltitude is the altitude a rocket must clear before
	// it can be classified as orbiting a body.
	DefaultMinOrbitAltitude = 1.0
)

// CelestialBody represents a planet or moon: a massive circular object
// the rocket can orbit, brake against, and collide with. A body may
// itself orbit a parent body, in which case its position is derived
// from the orbit parameters every tick and never set directly.
type CelestialBody struct {
	BaseEntity
	Name             string
	Radius           float64
	Mass             float64 // game-scaled, not SI
	HasAtmosphere    bool
	MinOrbitAltitude float64

	// Orbital motion around a parent body. The target is a lookup,
	// never owned; a body with a non-nil target has a derived position.
	OrbitTarget       *CelestialBody
	OrbitRadius       float64
	OrbitAngularSpeed float64
	OrbitAngle        float64
	OrbitClockwise    bool

	initialOrbitAngle float64
}

// NewCelestialBody creates a static body at the given position
func NewCelestialBody(id ID, name string, position physics.Vector2D, radius, mass float64) *CelestialBody {
	return &CelestialBody{
		BaseEntity: BaseEntity{
			ID:       id,
			Position: position,
			Collider: physics.Circle{
				Center: position,
				Radius: radius,
			},
			Active: true,
		},
		Name:             name,
		Radius:           radius,
		Mass:             mass,
		MinOrbitAltitude: DefaultMinOrbitAltitude,
	}
}

// SetOrbit puts the body on a circular track around target. The body's
// position is derived immediately and re-derived on every AdvanceOrbit.
func (b *CelestialBody) SetOrbit(target *CelestialBody, radius, angularSpeed, initialAngle float64, clockwise bool) {
	b.OrbitTarget = target
	b.OrbitRadius = radius
	b.OrbitAngularSpeed = angularSpeed
	b.OrbitAngle = initialAngle
	b.OrbitClockwise = clockwise
	b.initialOrbitAngle = initialAngle
	b.deriveOrbitPosition()
}

// IsOrbiting reports whether the body's position is orbit-derived
func (b *CelestialBody) IsOrbiting() bool {
	return b.OrbitTarget != nil
}

// AdvanceOrbit moves the body along its orbital track. Static bodies
// are left untouched.
func (b *CelestialBody) AdvanceOrbit(deltaTime float64) {
	if b.OrbitTarget == nil {
		return
	}

	direction := 1.0
	if b.OrbitClockwise {
		direction = -1.0
	}
	b.OrbitAngle += direction * b.OrbitAngularSpeed * deltaTime
	b.deriveOrbitPosition()
}

// ResetOrbit restores the orbit angle to its configured starting value
func (b *CelestialBody) ResetOrbit() {
	if b.OrbitTarget == nil {
		return
	}
	b.OrbitAngle = b.initialOrbitAngle
	b.deriveOrbitPosition()
}

func (b *CelestialBody) deriveOrbitPosition() {
	offset := physics.Vector2D{
		X: math.Cos(b.OrbitAngle),
		Y: math.Sin(b.OrbitAngle),
	}.Scale(b.OrbitRadius)
	b.MoveTo(b.OrbitTarget.Position.Add(offset))
}

// GravityForceOn returns the Newtonian attraction this body exerts on a
// point mass at the given position, pointing from the position toward
// the body center. Below NearSurfaceAltitude the force is strengthened
// by the near-surface multiplier, which never drops below 1. Returns
// the zero vector for a degenerate zero distance; callers must guard
// before normalizing.
func (b *CelestialBody) GravityForceOn(g, pointMass float64, at physics.Vector2D) physics.Vector2D {
	toCenter := b.Position.Sub(at)
	distance := toCenter.Length()
	if distance == 0 {
		return physics.Vector2D{}
	}

	magnitude := g * b.Mass * pointMass / (distance * distance)

	altitude := distance - b.Radius
	if altitude < NearSurfaceAltitude {
		multiplier := 1 + (NearSurfaceAltitude-altitude)*NearSurfaceBoost
		if multiplier < 1 {
			multiplier = 1
		}
		magnitude *= multiplier
	}

	return toCenter.Scale(magnitude / distance)
}

// InGravityRange reports whether a point is close enough for this body
// to contribute gravity. Far bodies are cut off entirely to keep the
// multi-body force sum well-conditioned.
func (b *CelestialBody) InGravityRange(at physics.Vector2D) bool {
	return b.Position.Distance(at) < b.Radius*GravityRangeFactor
}

// CollidesWith reports whether a point with the given radius penetrates
// the body's surface
func (b *CelestialBody) CollidesWith(point physics.Vector2D, pointRadius float64) bool {
	return b.Position.Distance(point) < b.Radius+pointRadius
}

// AltitudeOf returns the height of a position above the body's surface.
// Negative values mean the position is below the surface.
func (b *CelestialBody) AltitudeOf(at physics.Vector2D) float64 {
	return b.Position.Distance(at) - b.Radius
}

// AtmosphereDensityAt returns the relative air density at an altitude
// above the surface: 1 at the surface decaying exponentially to roughly
// 5% at the top of the atmosphere, and 0 above it or when the body has
// no atmosphere.
func (b *CelestialBody) AtmosphereDensityAt(altitude float64) float64 {
	if !b.HasAtmosphere || altitude >= AtmosphereHeight {
		return 0
	}
	if altitude < 0 {
		altitude = 0
	}
	return math.Exp(-altitude / (AtmosphereHeight / 3))
}

// CircularOrbitVelocity returns the speed of a circular orbit at the
// given distance from the body center
func (b *CelestialBody) CircularOrbitVelocity(g, distance float64) float64 {
	if distance <= 0 {
		return 0
	}
	return math.Sqrt(g * b.Mass / distance)
}

// EscapeVelocity returns the speed needed to escape the body from the
// given distance
func (b *CelestialBody) EscapeVelocity(g, distance float64) float64 {
	if distance <= 0 {
		return 0
	}
	return math.Sqrt(2 * g * b.Mass / distance)
}

// OrbitalPeriod returns the period of an orbit around this body with
// the given semi-major axis, per Kepler's third law
func (b *CelestialBody) OrbitalPeriod(g, semiMajorAxis float64) float64 {
	if g <= 0 || b.Mass <= 0 || semiMajorAxis <= 0 {
		return 0
	}
	return math.Sqrt(4 * math.Pi * math.Pi / (g * b.Mass) * math.Pow(semiMajorAxis, 3))
}
