// pkg/config/config.go
package config

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"math"
	"os"
)

// SimConfig contains the full configuration for an orbiter simulation.
type SimConfig struct {
	Gravity             float64       `json:"gravity"`
	FixedTimestep       float64       `json:"fixedTimestep"`
	SpeedMultiplier     float64       `json:"speedMultiplier"`
	DragCoefficient     float64       `json:"dragCoefficient"`
	CrashSpeedThreshold float64       `json:"crashSpeedThreshold"`
	CollisionCooldown   float64       `json:"collisionCooldown"`
	Rocket              RocketConfig  `json:"rocket"`
	Bodies              []BodyConfig  `json:"bodies"`
	NetworkConfig       NetworkConfig `json:"network"`
}

// RocketConfig contains the rocket's physical parameters and spawn state.
type RocketConfig struct {
	Mass                float64 `json:"mass"`
	MaxFuel             float64 `json:"maxFuel"`
	FuelConsumptionRate float64 `json:"fuelConsumptionRate"`
	ThrustPower         float64 `json:"thrustPower"`
	X                   float64 `json:"x"`
	Y                   float64 `json:"y"`
	ThrustAngle         float64 `json:"thrustAngle"`
}

// BodyConfig contains configuration for a celestial body.
type BodyConfig struct {
	Name             string       `json:"name"`
	X                float64      `json:"x"`
	Y                float64      `json:"y"`
	Radius           float64      `json:"radius"`
	Mass             float64      `json:"mass"`
	HasAtmosphere    bool         `json:"hasAtmosphere"`
	MinOrbitAltitude float64      `json:"minOrbitAltitude"`
	Orbit            *OrbitConfig `json:"orbit,omitempty"`
}

// OrbitConfig describes a body's circular orbit around a parent body.
// Target names another body in the same scene; resolution happens at
// scene construction, not here.
type OrbitConfig struct {
	Target       string  `json:"target"`
	Radius       float64 `json:"radius"`
	AngularSpeed float64 `json:"angularSpeed"`
	InitialAngle float64 `json:"initialAngle"`
	Clockwise    bool    `json:"clockwise"`
}

// NetworkConfig contains network-related configuration
type NetworkConfig struct {
	UpdateRate    int    `json:"updateRate"`
	ServerPort    int    `json:"serverPort"`
	ServerAddress string `json:"serverAddress"`
	ControlPort   int    `json:"controlPort"`
}

// LoadConfig loads a configuration from a file
func LoadConfig(path string) (*SimConfig, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	data, err := ioutil.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config SimConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &config, nil
}

// SaveConfig saves a configuration to a file
func SaveConfig(config *SimConfig, path string) error {
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := ioutil.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// DefaultConfig returns a default simulation configuration: one home
// planet with an atmosphere, one airless moon, and a rocket parked on
// the planet's surface pointing straight up.
func DefaultConfig() *SimConfig {
	return &SimConfig{
		Gravity:             0.3,
		FixedTimestep:       1.0 / 60.0,
		SpeedMultiplier:     1.0,
		DragCoefficient:     0.05,
		CrashSpeedThreshold: 0.3,
		CollisionCooldown:   0.1,
		Rocket: RocketConfig{
			Mass:                1.0,
			MaxFuel:             100.0,
			FuelConsumptionRate: 7.0,
			ThrustPower:         1.0,
			X:                   0,
			Y:                   2.1,
			ThrustAngle:         math.Pi / 2,
		},
		Bodies: []BodyConfig{
			{
				Name:             "Gaia",
				X:                0,
				Y:                0,
				Radius:           2.0,
				Mass:             3.0,
				HasAtmosphere:    true,
				MinOrbitAltitude: 1.0,
			},
			{
				Name:             "Selene",
				Radius:           0.5,
				Mass:             0.3,
				HasAtmosphere:    false,
				MinOrbitAltitude: 0.5,
				Orbit: &OrbitConfig{
					Target:       "Gaia",
					Radius:       12.0,
					AngularSpeed: 0.05,
					InitialAngle: 0,
					Clockwise:    false,
				},
			},
		},
		NetworkConfig: NetworkConfig{
			UpdateRate:    20,
			ServerPort:    4566,
			ServerAddress: "localhost:4566",
			ControlPort:   8080,
		},
	}
}

// Validate checks a simulation configuration for values the engine
// cannot run with. It returns a *ValidationError naming the first bad
// field, or nil.
func (c *SimConfig) Validate() error {
	if c.Gravity <= 0 {
		return &ValidationError{Field: "Gravity", Value: c.Gravity, Message: "must be positive"}
	}
	if c.FixedTimestep <= 0 {
		return &ValidationError{Field: "FixedTimestep", Value: c.FixedTimestep, Message: "must be positive"}
	}
	if c.SpeedMultiplier <= 0 {
		return &ValidationError{Field: "SpeedMultiplier", Value: c.SpeedMultiplier, Message: "must be positive"}
	}
	if c.DragCoefficient < 0 {
		return &ValidationError{Field: "DragCoefficient", Value: c.DragCoefficient, Message: "must not be negative"}
	}
	if c.Rocket.Mass <= 0 {
		return &ValidationError{Field: "Rocket.Mass", Value: c.Rocket.Mass, Message: "must be positive"}
	}
	if c.Rocket.MaxFuel <= 0 {
		return &ValidationError{Field: "Rocket.MaxFuel", Value: c.Rocket.MaxFuel, Message: "must be positive"}
	}
	if c.Rocket.FuelConsumptionRate < 0 {
		return &ValidationError{Field: "Rocket.FuelConsumptionRate", Value: c.Rocket.FuelConsumptionRate, Message: "must not be negative"}
	}
	if c.Rocket.ThrustPower <= 0 {
		return &ValidationError{Field: "Rocket.ThrustPower", Value: c.Rocket.ThrustPower, Message: "must be positive"}
	}
	if len(c.Bodies) == 0 {
		return &ValidationError{Field: "Bodies", Value: len(c.Bodies), Message: "at least one body is required"}
	}

	names := make(map[string]bool, len(c.Bodies))
	for _, body := range c.Bodies {
		if body.Name == "" {
			return &ValidationError{Field: "Bodies.Name", Value: body.Name, Message: "must not be empty"}
		}
		if names[body.Name] {
			return &ValidationError{Field: "Bodies.Name", Value: body.Name, Message: "duplicate body name"}
		}
		names[body.Name] = true
		if body.Radius <= 0 {
			return &ValidationError{Field: "Bodies.Radius", Value: body.Radius, Message: "must be positive"}
		}
		if body.Mass <= 0 {
			return &ValidationError{Field: "Bodies.Mass", Value: body.Mass, Message: "must be positive"}
		}
	}

	for _, body := range c.Bodies {
		if body.Orbit == nil {
			continue
		}
		if body.Orbit.Target == body.Name {
			return &ValidationError{Field: "Bodies.Orbit.Target", Value: body.Orbit.Target, Message: "body cannot orbit itself"}
		}
		if !names[body.Orbit.Target] {
			return &ValidationError{Field: "Bodies.Orbit.Target", Value: body.Orbit.Target, Message: "orbit target does not name a configured body"}
		}
		if body.Orbit.Radius <= 0 {
			return &ValidationError{Field: "Bodies.Orbit.Radius", Value: body.Orbit.Radius, Message: "must be positive"}
		}
	}

	return nil
}
