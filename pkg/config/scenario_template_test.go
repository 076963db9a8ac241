// pkg/config/scenario_template_test.go
package config

import (
	"testing"
)

func TestScenarioTemplateSystem(t *testing.T) {
	// Test 1: Verify we can get a scenario template
	template := GetScenarioTemplate("planet_with_moon")
	if template == nil {
		t.Fatal("Expected to get planet_with_moon template, got nil")
	}

	if template.Name != "Planet with Moon" {
		t.Errorf("Expected template name 'Planet with Moon', got '%s'", template.Name)
	}

	if len(template.Bodies) != 2 {
		t.Errorf("Expected planet_with_moon template to have 2 bodies, got %d", len(template.Bodies))
	}

	// Test 2: Verify we can list available templates
	templates := ListScenarioTemplates()
	if len(templates) == 0 {
		t.Error("Expected to get list of scenario templates")
	}

	expectedTemplates := []string{"solo_planet", "planet_with_moon", "twin_planets"}
	for _, expected := range expectedTemplates {
		if _, ok := templates[expected]; !ok {
			t.Errorf("Expected template '%s' to be available", expected)
		}
	}

	// Test 3: Verify we can apply a template to config
	cfg := DefaultConfig()
	err := ApplyScenarioTemplate(cfg, "twin_planets")
	if err != nil {
		t.Fatalf("Failed to apply scenario template: %v", err)
	}

	if len(cfg.Bodies) != 2 {
		t.Errorf("Expected 2 bodies from twin_planets template, got %d", len(cfg.Bodies))
	}
	if cfg.Bodies[0].Name != "Castor" || cfg.Bodies[1].Name != "Pollux" {
		t.Errorf("Expected Castor and Pollux, got '%s' and '%s'", cfg.Bodies[0].Name, cfg.Bodies[1].Name)
	}
	if cfg.Rocket.X != -9 {
		t.Errorf("Expected rocket spawned at Castor (x=-9), got x=%f", cfg.Rocket.X)
	}

	// Network settings must survive the overlay untouched.
	if cfg.NetworkConfig.ServerPort != 4566 {
		t.Errorf("Expected ServerPort 4566 preserved, got %d", cfg.NetworkConfig.ServerPort)
	}

	// Test 4: Verify unknown template returns error
	err = ApplyScenarioTemplate(cfg, "unknown_template")
	if err == nil {
		t.Error("Expected error for unknown template")
	}

	// Test 5: Test LoadConfigWithTemplate function
	cfg2, err := LoadConfigWithTemplate("nonexistent.json", "solo_planet")
	if err != nil {
		t.Fatalf("LoadConfigWithTemplate should fall back to default config, got error: %v", err)
	}

	if len(cfg2.Bodies) != 1 {
		t.Errorf("Expected 1 body after solo_planet application, got %d", len(cfg2.Bodies))
	}
	if cfg2.Bodies[0].Name != "Gaia" {
		t.Errorf("Expected Gaia from solo_planet template, got '%s'", cfg2.Bodies[0].Name)
	}
}

func TestScenarioTemplateValidation(t *testing.T) {
	// Test that all built-in templates are valid
	for name, template := range scenarioTemplates {
		t.Run(name, func(t *testing.T) {
			if template.Name == "" {
				t.Error("Template name should not be empty")
			}

			if template.Description == "" {
				t.Error("Template description should not be empty")
			}

			if template.Gravity <= 0 {
				t.Error("Template gravity should be positive")
			}

			if len(template.Bodies) == 0 {
				t.Error("Template should have at least one body")
			}

			// Every template must produce a scene the engine accepts.
			cfg := DefaultConfig()
			if err := ApplyScenarioTemplate(cfg, name); err != nil {
				t.Fatalf("Failed to apply template: %v", err)
			}
			if err := cfg.Validate(); err != nil {
				t.Errorf("Template produces invalid config: %v", err)
			}
		})
	}
}

func TestApplyScenarioTemplate_DeepCopiesBodies(t *testing.T) {
	cfg := DefaultConfig()
	if err := ApplyScenarioTemplate(cfg, "planet_with_moon"); err != nil {
		t.Fatalf("Failed to apply template: %v", err)
	}

	// Mutating the applied config must not reach the built-in template.
	cfg.Bodies[1].Orbit.Radius = 999

	template := GetScenarioTemplate("planet_with_moon")
	if template.Bodies[1].Orbit.Radius == 999 {
		t.Error("Template orbit was mutated through an applied config")
	}
}
