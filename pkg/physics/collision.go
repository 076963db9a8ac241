// pkg/physics/collision.go
package physics

// Circle represents a circular collision shape
type Circle struct {
	Center Vector2D
	Radius float64
}

// Collides checks if two circles are colliding
func (c Circle) Collides(other Circle) bool {
	return c.Center.Distance(other.Center) < c.Radius+other.Radius
}

// CollisionResult contains information about a collision
type CollisionResult struct {
	Collided     bool
	Normal       Vector2D
	Penetration  float64
	ContactPoint Vector2D
}

// CheckCollision performs detailed collision detection between two circles.
// The normal points from a toward b, so with a as the surface and b as the
// falling object the normal is the outward surface direction.
func CheckCollision(a, b Circle) CollisionResult {
	// Vector from A to B
	normal := b.Center.Sub(a.Center)
	distance := normal.Length()

	// No collision
	if distance > a.Radius+b.Radius {
		return CollisionResult{Collided: false}
	}

	// Get penetration depth
	penetration := a.Radius + b.Radius - distance

	// Calculate collision normal and contact point
	normal = normal.Normalize()
	contactPoint := a.Center.Add(normal.Scale(a.Radius))

	return CollisionResult{
		Collided:     true,
		Normal:       normal,
		Penetration:  penetration,
		ContactPoint: contactPoint,
	}
}
