// pkg/physics/motion.go
package physics

// MotionState tracks a point mass under an accumulated force
type MotionState struct {
	Position Vector2D
	Velocity Vector2D
	Mass     float64
}

// IntegrateSemiImplicit advances the state by one timestep using
// semi-implicit Euler: velocity is updated from the force first, then
// position is updated from the new velocity. The velocity-first order
// keeps near-circular trajectories bounded where explicit Euler
// spirals outward.
func IntegrateSemiImplicit(state *MotionState, force Vector2D, deltaTime float64) {
	if state.Mass <= 0 {
		return
	}

	acceleration := force.Scale(1.0 / state.Mass)
	state.Velocity = state.Velocity.Add(acceleration.Scale(deltaTime))
	state.Position = state.Position.Add(state.Velocity.Scale(deltaTime))
}
