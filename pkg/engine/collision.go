// pkg/engine/collision.go
package engine

import (
	"github.com/opd-ai/go-orbiter/pkg/entity"
	"github.com/opd-ai/go-orbiter/pkg/physics"
)

// surfaceTangentialDamping is the friction factor applied to the
// velocity component along the surface on a gentle touchdown. It models
// resting on the surface without a full contact solver.
const surfaceTangentialDamping = 0.95

// ContactResult reports the single collision the resolver handled on a
// tick.
type ContactResult struct {
	Body        *entity.CelestialBody
	ImpactSpeed float64
	Crashed     bool
}

// CollisionResolver settles rocket-surface contact. Gentle contact
// parks the rocket just outside the surface; contact above the crash
// threshold after launch is terminal.
type CollisionResolver struct {
	CrashSpeedThreshold float64
	Cooldown            float64
}

// NewCollisionResolver creates a resolver with the given crash speed
// threshold and contact cooldown, both in simulation units.
func NewCollisionResolver(crashSpeedThreshold, cooldown float64) *CollisionResolver {
	return &CollisionResolver{
		CrashSpeedThreshold: crashSpeedThreshold,
		Cooldown:            cooldown,
	}
}

// Resolve advances the contact cooldown and settles at most one
// collision. Bodies are checked in scene order and the first
// penetration wins; overlapping bodies beyond the first are ignored for
// the tick. Returns nil when no collision was handled.
func (c *CollisionResolver) Resolve(rocket *entity.Rocket, bodies []*entity.CelestialBody, dt float64) *ContactResult {
	rocket.LastCollisionElapsed += dt
	if rocket.LastCollisionElapsed <= c.Cooldown {
		return nil
	}

	for _, body := range bodies {
		if !body.CollidesWith(rocket.Position, rocket.Collider.Radius) {
			continue
		}
		return c.settle(rocket, body)
	}
	return nil
}

// settle handles one confirmed penetration. Fast impacts after launch
// crash the rocket in place; anything else, including pre-launch
// contact, parks it on the surface.
func (c *CollisionResolver) settle(rocket *entity.Rocket, body *entity.CelestialBody) *ContactResult {
	rocket.LastCollisionElapsed = 0
	impactSpeed := rocket.Velocity.Length()

	if impactSpeed > c.CrashSpeedThreshold && rocket.HasStarted {
		rocket.HasCrashed = true
		return &ContactResult{
			Body:        body,
			ImpactSpeed: impactSpeed,
			Crashed:     true,
		}
	}

	normal := rocket.Position.Sub(body.Position).Normalize()
	if normal.LengthSquared() == 0 {
		// Rocket is exactly at the body center; pick a direction.
		normal = physics.Vector2D{X: 0, Y: 1}
	}

	rocket.MoveTo(body.Position.Add(normal.Scale(body.Radius + rocket.Collider.Radius)))

	normalSpeed := rocket.Velocity.Dot(normal)
	tangential := rocket.Velocity.Sub(normal.Scale(normalSpeed))
	rocket.Velocity = tangential.Scale(surfaceTangentialDamping)

	return &ContactResult{
		Body:        body,
		ImpactSpeed: impactSpeed,
		Crashed:     false,
	}
}
