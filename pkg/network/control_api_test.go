package network

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/opd-ai/go-orbiter/pkg/engine"
	"github.com/opd-ai/go-orbiter/pkg/health"
)

func newTestAPI(t *testing.T) (*ControlAPI, *engine.Simulation) {
	t.Helper()
	sim := newTestSimulation(t)
	return NewControlAPI(sim, nil, nil), sim
}

func doRequest(t *testing.T, api *ControlAPI, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	api.Router().ServeHTTP(rec, req)
	return rec
}

func TestControlAPIState(t *testing.T) {
	api, _ := newTestAPI(t)

	rec := doRequest(t, api, http.MethodGet, "/api/v1/state", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /state status = %d, want %d", rec.Code, http.StatusOK)
	}

	var state engine.SimulationState
	if err := json.Unmarshal(rec.Body.Bytes(), &state); err != nil {
		t.Fatalf("parse state: %v", err)
	}
	if len(state.Bodies) == 0 {
		t.Error("state has no bodies")
	}
	if state.Rocket.HasStarted {
		t.Error("rocket started before any input")
	}
}

func TestControlAPIBodies(t *testing.T) {
	api, _ := newTestAPI(t)

	rec := doRequest(t, api, http.MethodGet, "/api/v1/bodies", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /bodies status = %d, want %d", rec.Code, http.StatusOK)
	}

	var bodies []engine.BodyState
	if err := json.Unmarshal(rec.Body.Bytes(), &bodies); err != nil {
		t.Fatalf("parse bodies: %v", err)
	}
	if len(bodies) != 2 {
		t.Errorf("len(bodies) = %d, want 2", len(bodies))
	}
}

func TestControlAPIInput(t *testing.T) {
	api, sim := newTestAPI(t)

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"valid_input", `{"rotate": 0.1, "thrust": 0.5}`, http.StatusOK},
		{"thrust_out_of_range", `{"rotate": 0, "thrust": 2}`, http.StatusBadRequest},
		{"rotation_too_large", `{"rotate": 100, "thrust": 0.5}`, http.StatusBadRequest},
		{"malformed_json", `{"rotate": `, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, api, http.MethodPost, "/api/v1/input", tt.body)
			if rec.Code != tt.wantStatus {
				t.Errorf("POST /input status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}

	sim.EntityLock.RLock()
	got := sim.Rocket.ThrustMagnitude
	sim.EntityLock.RUnlock()
	if got <= 0 {
		t.Errorf("ThrustMagnitude = %v after valid input, want positive", got)
	}
}

func TestControlAPIRefuel(t *testing.T) {
	api, sim := newTestAPI(t)

	// Drain some fuel first so the top-up is visible.
	sim.EntityLock.Lock()
	sim.Rocket.Fuel = 10
	sim.EntityLock.Unlock()

	rec := doRequest(t, api, http.MethodPost, "/api/v1/refuel", `{"amount": 50}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /refuel status = %d, want %d", rec.Code, http.StatusOK)
	}

	var rocket engine.RocketState
	if err := json.Unmarshal(rec.Body.Bytes(), &rocket); err != nil {
		t.Fatalf("parse rocket: %v", err)
	}
	if rocket.Fuel != 60 {
		t.Errorf("Fuel = %v after refuel, want 60", rocket.Fuel)
	}

	t.Run("negative_amount", func(t *testing.T) {
		rec := doRequest(t, api, http.MethodPost, "/api/v1/refuel", `{"amount": -5}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
		}
	})
}

func TestControlAPISpeed(t *testing.T) {
	api, sim := newTestAPI(t)

	rec := doRequest(t, api, http.MethodPost, "/api/v1/speed", `{"multiplier": 16}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /speed status = %d, want %d", rec.Code, http.StatusOK)
	}
	if got := sim.SpeedMultiplier(); got != 16 {
		t.Errorf("SpeedMultiplier() = %v, want 16", got)
	}

	t.Run("rejects_negative", func(t *testing.T) {
		rec := doRequest(t, api, http.MethodPost, "/api/v1/speed", `{"multiplier": -1}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
		}
	})
}

func TestControlAPIResetAndRecover(t *testing.T) {
	api, sim := newTestAPI(t)

	sim.SetSpeedMultiplier(8)

	rec := doRequest(t, api, http.MethodPost, "/api/v1/reset", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /reset status = %d, want %d", rec.Code, http.StatusOK)
	}
	if got := sim.SpeedMultiplier(); got != 1 {
		t.Errorf("SpeedMultiplier() after reset = %v, want 1", got)
	}

	rec = doRequest(t, api, http.MethodPost, "/api/v1/recover", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /recover status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestControlAPIMethodNotAllowed(t *testing.T) {
	api, _ := newTestAPI(t)

	rec := doRequest(t, api, http.MethodGet, "/api/v1/reset", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /reset status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
}

func TestControlAPIHealthMounts(t *testing.T) {
	sim := newTestSimulation(t)

	checker := health.NewHealthChecker()
	checker.AddCheck(health.NewSimulationHealthCheck(sim.LastUpdate, time.Minute))

	api := NewControlAPI(sim, nil, checker)

	sim.Step()

	rec := doRequest(t, api, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Errorf("GET /health status = %d, want %d", rec.Code, http.StatusOK)
	}

	rec = doRequest(t, api, http.MethodGet, "/ready", "")
	if rec.Code != http.StatusOK {
		t.Errorf("GET /ready status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestControlAPIWithoutOptionalMounts(t *testing.T) {
	api, _ := newTestAPI(t)

	rec := doRequest(t, api, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("GET /metrics status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	rec = doRequest(t, api, http.MethodGet, "/health", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("GET /health status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}
