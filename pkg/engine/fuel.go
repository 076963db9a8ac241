// pkg/engine/fuel.go
package engine

import (
	"math"

	"github.com/opd-ai/go-orbiter/pkg/entity"
)

// FuelSystem meters the rocket's propellant. Consumption scales with
// commanded thrust; depletion is a one-way latch cleared only by an
// explicit refill.
type FuelSystem struct{}

// Consume burns fuel for one tick at the given thrust magnitude and
// returns true exactly on the tick the tank runs dry. Fuel never goes
// negative.
func (FuelSystem) Consume(rocket *entity.Rocket, thrust, dt float64) bool {
	if thrust <= 0 || rocket.OutOfFuel {
		return false
	}

	rocket.Fuel -= rocket.Stats.FuelConsumptionRate * thrust * dt
	if rocket.Fuel > 0 {
		return false
	}

	rocket.Fuel = 0
	rocket.OutOfFuel = true
	return true
}

// Refill adds the given amount of fuel, clamping the tank to
// [0, MaxFuel], and clears the out-of-fuel latch iff the resulting
// level is positive. Non-finite amounts are dropped.
func (FuelSystem) Refill(rocket *entity.Rocket, amount float64) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return
	}

	rocket.Fuel += amount
	if rocket.Fuel > rocket.Stats.MaxFuel {
		rocket.Fuel = rocket.Stats.MaxFuel
	}
	if rocket.Fuel < 0 {
		rocket.Fuel = 0
	}

	if rocket.Fuel > 0 {
		rocket.OutOfFuel = false
	}
}
