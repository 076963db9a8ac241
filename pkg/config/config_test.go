// pkg/config/config_test.go
package config

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config == nil {
		t.Fatal("DefaultConfig returned nil")
	}

	// Physics tuning
	if config.Gravity != 0.3 {
		t.Errorf("Expected Gravity 0.3, got %f", config.Gravity)
	}
	if config.FixedTimestep != 1.0/60.0 {
		t.Errorf("Expected FixedTimestep 1/60, got %f", config.FixedTimestep)
	}
	if config.SpeedMultiplier != 1.0 {
		t.Errorf("Expected SpeedMultiplier 1.0, got %f", config.SpeedMultiplier)
	}
	if config.DragCoefficient != 0.05 {
		t.Errorf("Expected DragCoefficient 0.05, got %f", config.DragCoefficient)
	}
	if config.CrashSpeedThreshold != 0.3 {
		t.Errorf("Expected CrashSpeedThreshold 0.3, got %f", config.CrashSpeedThreshold)
	}
	if config.CollisionCooldown != 0.1 {
		t.Errorf("Expected CollisionCooldown 0.1, got %f", config.CollisionCooldown)
	}

	// Rocket spawn
	if config.Rocket.Mass != 1.0 {
		t.Errorf("Expected rocket Mass 1.0, got %f", config.Rocket.Mass)
	}
	if config.Rocket.MaxFuel != 100.0 {
		t.Errorf("Expected rocket MaxFuel 100, got %f", config.Rocket.MaxFuel)
	}
	if config.Rocket.FuelConsumptionRate != 7.0 {
		t.Errorf("Expected rocket FuelConsumptionRate 7, got %f", config.Rocket.FuelConsumptionRate)
	}
	if config.Rocket.ThrustPower != 1.0 {
		t.Errorf("Expected rocket ThrustPower 1, got %f", config.Rocket.ThrustPower)
	}
	if config.Rocket.Y != 2.1 {
		t.Errorf("Expected rocket spawn Y 2.1, got %f", config.Rocket.Y)
	}
	if config.Rocket.ThrustAngle != math.Pi/2 {
		t.Errorf("Expected rocket ThrustAngle pi/2, got %f", config.Rocket.ThrustAngle)
	}

	// Bodies
	if len(config.Bodies) != 2 {
		t.Fatalf("Expected 2 bodies, got %d", len(config.Bodies))
	}
	gaia := config.Bodies[0]
	if gaia.Name != "Gaia" {
		t.Errorf("Expected first body name 'Gaia', got '%s'", gaia.Name)
	}
	if !gaia.HasAtmosphere {
		t.Error("Expected Gaia to have an atmosphere")
	}
	if gaia.Orbit != nil {
		t.Error("Expected Gaia to be stationary")
	}
	selene := config.Bodies[1]
	if selene.Name != "Selene" {
		t.Errorf("Expected second body name 'Selene', got '%s'", selene.Name)
	}
	if selene.HasAtmosphere {
		t.Error("Expected Selene to be airless")
	}
	if selene.Orbit == nil {
		t.Fatal("Expected Selene to orbit a parent body")
	}
	if selene.Orbit.Target != "Gaia" {
		t.Errorf("Expected Selene to orbit 'Gaia', got '%s'", selene.Orbit.Target)
	}
	if selene.Orbit.Radius != 12.0 {
		t.Errorf("Expected Selene orbit radius 12, got %f", selene.Orbit.Radius)
	}

	// Network config
	if config.NetworkConfig.UpdateRate != 20 {
		t.Errorf("Expected UpdateRate 20, got %d", config.NetworkConfig.UpdateRate)
	}
	if config.NetworkConfig.ServerPort != 4566 {
		t.Errorf("Expected ServerPort 4566, got %d", config.NetworkConfig.ServerPort)
	}
	if config.NetworkConfig.ControlPort != 8080 {
		t.Errorf("Expected ControlPort 8080, got %d", config.NetworkConfig.ControlPort)
	}

	// The default scene must pass its own validation.
	if err := config.Validate(); err != nil {
		t.Errorf("DefaultConfig failed validation: %v", err)
	}
}

func TestLoadConfig_Success(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "test_config.json")

	testConfig := &SimConfig{
		Gravity:             0.5,
		FixedTimestep:       0.02,
		SpeedMultiplier:     2.0,
		DragCoefficient:     0.1,
		CrashSpeedThreshold: 0.4,
		CollisionCooldown:   0.2,
		Rocket: RocketConfig{
			Mass:                2.0,
			MaxFuel:             50.0,
			FuelConsumptionRate: 5.0,
			ThrustPower:         1.5,
			X:                   1,
			Y:                   3,
			ThrustAngle:         0,
		},
		Bodies: []BodyConfig{
			{
				Name:          "TestPlanet",
				X:             100,
				Y:             200,
				Radius:        4,
				Mass:          10,
				HasAtmosphere: true,
			},
		},
		NetworkConfig: NetworkConfig{
			UpdateRate:    30,
			ServerPort:    8080,
			ServerAddress: "test.example.com:8080",
			ControlPort:   9090,
		},
	}

	data, err := json.MarshalIndent(testConfig, "", "  ")
	if err != nil {
		t.Fatalf("Failed to marshal test config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		t.Fatalf("Failed to write test config file: %v", err)
	}

	loadedConfig, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if loadedConfig.Gravity != testConfig.Gravity {
		t.Errorf("Expected Gravity %f, got %f", testConfig.Gravity, loadedConfig.Gravity)
	}
	if loadedConfig.Rocket.MaxFuel != testConfig.Rocket.MaxFuel {
		t.Errorf("Expected MaxFuel %f, got %f", testConfig.Rocket.MaxFuel, loadedConfig.Rocket.MaxFuel)
	}
	if len(loadedConfig.Bodies) != len(testConfig.Bodies) {
		t.Errorf("Expected %d bodies, got %d", len(testConfig.Bodies), len(loadedConfig.Bodies))
	}
	if loadedConfig.Bodies[0].Name != testConfig.Bodies[0].Name {
		t.Errorf("Expected body name '%s', got '%s'", testConfig.Bodies[0].Name, loadedConfig.Bodies[0].Name)
	}
	if loadedConfig.NetworkConfig.ServerAddress != testConfig.NetworkConfig.ServerAddress {
		t.Errorf("Expected ServerAddress '%s', got '%s'", testConfig.NetworkConfig.ServerAddress, loadedConfig.NetworkConfig.ServerAddress)
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	config, err := LoadConfig("/path/that/does/not/exist/config.json")

	if err == nil {
		t.Error("Expected error when loading non-existent file, got nil")
	}
	if config != nil {
		t.Error("Expected nil config when file not found, got non-nil")
	}
	if err != nil && !strings.Contains(err.Error(), "failed to open config file") {
		t.Errorf("Expected error to mention opening, got '%s'", err.Error())
	}
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "invalid_config.json")

	invalidJSON := `{"gravity": 0.3, "fixedTimestep": 0.016, invalid json}`
	if err := os.WriteFile(configPath, []byte(invalidJSON), 0644); err != nil {
		t.Fatalf("Failed to write invalid JSON file: %v", err)
	}

	config, err := LoadConfig(configPath)

	if err == nil {
		t.Error("Expected error when loading invalid JSON, got nil")
	}
	if config != nil {
		t.Error("Expected nil config when JSON is invalid, got non-nil")
	}
	if err != nil && !strings.Contains(err.Error(), "failed to parse config file") {
		t.Errorf("Expected error to mention parsing, got '%s'", err.Error())
	}
}

func TestSaveConfig_Success(t *testing.T) {
	testConfig := DefaultConfig()
	testConfig.Gravity = 0.7

	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "save_test_config.json")

	if err := SaveConfig(testConfig, configPath); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Error("Config file was not created")
	}

	loadedConfig, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to load saved config: %v", err)
	}
	if loadedConfig.Gravity != 0.7 {
		t.Errorf("Expected Gravity 0.7 after round trip, got %f", loadedConfig.Gravity)
	}
	if len(loadedConfig.Bodies) != len(testConfig.Bodies) {
		t.Errorf("Expected %d bodies, got %d", len(testConfig.Bodies), len(loadedConfig.Bodies))
	}
}

func TestSaveConfig_InvalidPath(t *testing.T) {
	err := SaveConfig(DefaultConfig(), "/nonexistent/directory/config.json")

	if err == nil {
		t.Error("Expected error when saving to invalid path, got nil")
	}
	if err != nil && !strings.Contains(err.Error(), "failed to write config file") {
		t.Errorf("Expected error to mention writing, got '%s'", err.Error())
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(c *SimConfig)
		errorField string
	}{
		{
			name:   "valid_default",
			mutate: func(c *SimConfig) {},
		},
		{
			name:       "zero_gravity",
			mutate:     func(c *SimConfig) { c.Gravity = 0 },
			errorField: "Gravity",
		},
		{
			name:       "negative_timestep",
			mutate:     func(c *SimConfig) { c.FixedTimestep = -0.01 },
			errorField: "FixedTimestep",
		},
		{
			name:       "zero_speed_multiplier",
			mutate:     func(c *SimConfig) { c.SpeedMultiplier = 0 },
			errorField: "SpeedMultiplier",
		},
		{
			name:       "negative_drag",
			mutate:     func(c *SimConfig) { c.DragCoefficient = -0.1 },
			errorField: "DragCoefficient",
		},
		{
			name:       "zero_rocket_mass",
			mutate:     func(c *SimConfig) { c.Rocket.Mass = 0 },
			errorField: "Rocket.Mass",
		},
		{
			name:       "zero_max_fuel",
			mutate:     func(c *SimConfig) { c.Rocket.MaxFuel = 0 },
			errorField: "Rocket.MaxFuel",
		},
		{
			name:       "negative_consumption_rate",
			mutate:     func(c *SimConfig) { c.Rocket.FuelConsumptionRate = -1 },
			errorField: "Rocket.FuelConsumptionRate",
		},
		{
			name:       "zero_thrust_power",
			mutate:     func(c *SimConfig) { c.Rocket.ThrustPower = 0 },
			errorField: "Rocket.ThrustPower",
		},
		{
			name:       "no_bodies",
			mutate:     func(c *SimConfig) { c.Bodies = nil },
			errorField: "Bodies",
		},
		{
			name:       "unnamed_body",
			mutate:     func(c *SimConfig) { c.Bodies[0].Name = "" },
			errorField: "Bodies.Name",
		},
		{
			name:       "duplicate_body_name",
			mutate:     func(c *SimConfig) { c.Bodies[1].Name = c.Bodies[0].Name },
			errorField: "Bodies.Name",
		},
		{
			name:       "zero_body_radius",
			mutate:     func(c *SimConfig) { c.Bodies[0].Radius = 0 },
			errorField: "Bodies.Radius",
		},
		{
			name:       "zero_body_mass",
			mutate:     func(c *SimConfig) { c.Bodies[0].Mass = 0 },
			errorField: "Bodies.Mass",
		},
		{
			name:       "self_orbit",
			mutate:     func(c *SimConfig) { c.Bodies[1].Orbit.Target = c.Bodies[1].Name },
			errorField: "Bodies.Orbit.Target",
		},
		{
			name:       "unknown_orbit_target",
			mutate:     func(c *SimConfig) { c.Bodies[1].Orbit.Target = "Phantom" },
			errorField: "Bodies.Orbit.Target",
		},
		{
			name:       "zero_orbit_radius",
			mutate:     func(c *SimConfig) { c.Bodies[1].Orbit.Radius = 0 },
			errorField: "Bodies.Orbit.Radius",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)

			err := config.Validate()

			if tt.errorField == "" {
				if err != nil {
					t.Errorf("Expected no validation error, got: %v", err)
				}
				return
			}

			if err == nil {
				t.Fatal("Expected validation error, got nil")
			}
			validationErr, ok := err.(*ValidationError)
			if !ok {
				t.Fatalf("Expected *ValidationError, got %T: %v", err, err)
			}
			if validationErr.Field != tt.errorField {
				t.Errorf("Expected error for field '%s', got '%s'", tt.errorField, validationErr.Field)
			}
		})
	}
}
