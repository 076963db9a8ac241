// pkg/config/scenario_template.go
package config

import (
	"fmt"
	"math"
)

// ScenarioTemplate is a named, ready-made scene: a set of celestial
// bodies plus the rocket spawn and the physics tuning that suits them.
// Templates overlay a base configuration, leaving network and host
// settings untouched.
type ScenarioTemplate struct {
	Name            string
	Description     string
	Gravity         float64
	DragCoefficient float64
	Rocket          RocketConfig
	Bodies          []BodyConfig
}

// scenarioTemplates holds the built-in scenarios, keyed by the short
// names accepted on the command line.
var scenarioTemplates = map[string]*ScenarioTemplate{
	"solo_planet": {
		Name:            "Solo Planet",
		Description:     "A single home planet with an atmosphere. The simplest scene for learning launch, landing, and low orbit.",
		Gravity:         0.3,
		DragCoefficient: 0.05,
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
				Radius:           2.0,
				Mass:             3.0,
				HasAtmosphere:    true,
				MinOrbitAltitude: 1.0,
			},
		},
	},
	"planet_with_moon": {
		Name:            "Planet with Moon",
		Description:     "The home planet plus an airless moon on a slow circular track. Transfer trajectories and moon orbits.",
		Gravity:         0.3,
		DragCoefficient: 0.05,
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
				Radius:           2.0,
				Mass:             3.0,
				HasAtmosphere:    true,
				MinOrbitAltitude: 1.0,
			},
			{
				Name:             "Selene",
				Radius:           0.5,
				Mass:             0.3,
				MinOrbitAltitude: 0.5,
				Orbit: &OrbitConfig{
					Target:       "Gaia",
					Radius:       12.0,
					AngularSpeed: 0.05,
				},
			},
		},
	},
	"twin_planets": {
		Name:            "Twin Planets",
		Description:     "Two equal planets, one with an atmosphere and one without. Gravity from both shapes every trajectory between them.",
		Gravity:         0.3,
		DragCoefficient: 0.05,
		Rocket: RocketConfig{
			Mass:                1.0,
			MaxFuel:             100.0,
			FuelConsumptionRate: 7.0,
			ThrustPower:         1.0,
			X:                   -9,
			Y:                   1.6,
			ThrustAngle:         math.Pi / 2,
		},
		Bodies: []BodyConfig{
			{
				Name:             "Castor",
				X:                -9,
				Radius:           1.5,
				Mass:             2.0,
				HasAtmosphere:    true,
				MinOrbitAltitude: 1.0,
			},
			{
				Name:             "Pollux",
				X:                9,
				Radius:           1.5,
				Mass:             2.0,
				MinOrbitAltitude: 1.0,
			},
		},
	},
}

// GetScenarioTemplate returns the named template, or nil if it does not
// exist.
func GetScenarioTemplate(name string) *ScenarioTemplate {
	return scenarioTemplates[name]
}

// ListScenarioTemplates returns the available template names mapped to
// their descriptions.
func ListScenarioTemplates() map[string]string {
	templates := make(map[string]string, len(scenarioTemplates))
	for name, template := range scenarioTemplates {
		templates[name] = template.Description
	}
	return templates
}

// ApplyScenarioTemplate overlays the named template's scene onto the
// configuration. The template's bodies are deep-copied, so later edits
// to the configuration never reach the built-in templates.
func ApplyScenarioTemplate(config *SimConfig, name string) error {
	template := GetScenarioTemplate(name)
	if template == nil {
		return fmt.Errorf("unknown scenario template: %q", name)
	}

	config.Gravity = template.Gravity
	config.DragCoefficient = template.DragCoefficient
	config.Rocket = template.Rocket

	bodies := make([]BodyConfig, len(template.Bodies))
	copy(bodies, template.Bodies)
	for i := range bodies {
		if bodies[i].Orbit != nil {
			orbit := *bodies[i].Orbit
			bodies[i].Orbit = &orbit
		}
	}
	config.Bodies = bodies

	return nil
}

// LoadConfigWithTemplate loads a configuration file and applies a
// scenario template on top. A missing or unreadable file falls back to
// the default configuration; an empty template name skips the overlay.
func LoadConfigWithTemplate(path, templateName string) (*SimConfig, error) {
	config, err := LoadConfig(path)
	if err != nil {
		config = DefaultConfig()
	}

	if templateName != "" {
		if err := ApplyScenarioTemplate(config, templateName); err != nil {
			return nil, err
		}
	}

	return config, nil
}
