// pkg/network/control_api.go
package network

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/opd-ai/go-orbiter/pkg/engine"
	"github.com/opd-ai/go-orbiter/pkg/health"
	"github.com/opd-ai/go-orbiter/pkg/logging"
	"github.com/opd-ai/go-orbiter/pkg/validation"
)

// ControlAPI is the REST surface for host integration and operations:
// state queries, flight input, the explicit recovery actions, and the
// metrics and health mounts. It speaks JSON and never rejects a
// syntactically valid command the simulation could clamp instead.
type ControlAPI struct {
	sim            *engine.Simulation
	router         *mux.Router
	metricsHandler http.Handler
	healthChecker  *health.HealthChecker
	logger         *logging.Logger
}

// NewControlAPI builds the API for one simulation. metricsHandler and
// healthChecker may be nil; their mounts are then omitted.
func NewControlAPI(sim *engine.Simulation, metricsHandler http.Handler, healthChecker *health.HealthChecker) *ControlAPI {
	api := &ControlAPI{
		sim:            sim,
		metricsHandler: metricsHandler,
		healthChecker:  healthChecker,
		logger:         logging.NewLogger(),
	}
	api.buildRouter()
	return api
}

// Router returns the configured HTTP handler.
func (api *ControlAPI) Router() http.Handler {
	return api.router
}

func (api *ControlAPI) buildRouter() {
	r := mux.NewRouter()

	v1 := r.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/state", api.handleState).Methods(http.MethodGet)
	v1.HandleFunc("/bodies", api.handleBodies).Methods(http.MethodGet)
	v1.HandleFunc("/input", api.handleInput).Methods(http.MethodPost)
	v1.HandleFunc("/refuel", api.handleRefuel).Methods(http.MethodPost)
	v1.HandleFunc("/recover", api.handleRecover).Methods(http.MethodPost)
	v1.HandleFunc("/reset", api.handleReset).Methods(http.MethodPost)
	v1.HandleFunc("/speed", api.handleSpeed).Methods(http.MethodPost)

	if api.metricsHandler != nil {
		r.Handle("/metrics", api.metricsHandler).Methods(http.MethodGet)
	}
	if api.healthChecker != nil {
		r.HandleFunc("/health", api.healthChecker.LivenessHandler).Methods(http.MethodGet)
		r.HandleFunc("/ready", api.healthChecker.ReadinessHandler).Methods(http.MethodGet)
	}

	api.router = r
}

// handleState returns the full simulation snapshot.
func (api *ControlAPI) handleState(w http.ResponseWriter, r *http.Request) {
	api.writeJSON(w, http.StatusOK, api.sim.GetState())
}

// handleBodies returns only the celestial bodies.
func (api *ControlAPI) handleBodies(w http.ResponseWriter, r *http.Request) {
	api.writeJSON(w, http.StatusOK, api.sim.GetState().Bodies)
}

// handleInput applies one flight input: rotate then thrust.
func (api *ControlAPI) handleInput(w http.ResponseWriter, r *http.Request) {
	var input InputMessage
	if !api.decodeBody(w, r, &input) {
		return
	}

	if err := validation.ValidateRotationInput(input.Rotate); err != nil {
		api.writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := validation.ValidateThrustInput(input.Thrust); err != nil {
		api.writeError(w, http.StatusBadRequest, err)
		return
	}

	if input.Rotate != 0 {
		api.sim.RotateThrustDirection(input.Rotate)
	}
	api.sim.SetThrustMagnitude(input.Thrust)

	api.writeJSON(w, http.StatusOK, api.sim.GetState().Rocket)
}

// handleRefuel tops up the tank.
func (api *ControlAPI) handleRefuel(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount float64 `json:"amount"`
	}
	if !api.decodeBody(w, r, &req) {
		return
	}

	if err := validation.ValidateRefuelAmount(req.Amount); err != nil {
		api.writeError(w, http.StatusBadRequest, err)
		return
	}

	api.sim.Refuel(req.Amount)
	api.writeJSON(w, http.StatusOK, api.sim.GetState().Rocket)
}

// handleRecover clears a crash.
func (api *ControlAPI) handleRecover(w http.ResponseWriter, r *http.Request) {
	api.sim.RecoverFromCrash()
	api.writeJSON(w, http.StatusOK, api.sim.GetState().Rocket)
}

// handleReset restores the scene to its starting state.
func (api *ControlAPI) handleReset(w http.ResponseWriter, r *http.Request) {
	api.sim.Reset()
	api.writeJSON(w, http.StatusOK, api.sim.GetState())
}

// handleSpeed adjusts the simulated time scale.
func (api *ControlAPI) handleSpeed(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Multiplier float64 `json:"multiplier"`
	}
	if !api.decodeBody(w, r, &req) {
		return
	}

	if err := validation.ValidateSpeedMultiplier(req.Multiplier); err != nil {
		api.writeError(w, http.StatusBadRequest, err)
		return
	}

	api.sim.SetSpeedMultiplier(req.Multiplier)
	api.writeJSON(w, http.StatusOK, map[string]float64{
		"speedMultiplier": api.sim.SpeedMultiplier(),
	})
}

// decodeBody parses a JSON request body, writing a 400 on failure.
func (api *ControlAPI) decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	body := http.MaxBytesReader(w, r.Body, validation.MaxMessageSize)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		api.writeError(w, http.StatusBadRequest, err)
		return false
	}
	return true
}

func (api *ControlAPI) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		api.logger.Warn(context.Background(), "error encoding response", "error", err)
	}
}

func (api *ControlAPI) writeError(w http.ResponseWriter, status int, err error) {
	api.writeJSON(w, status, map[string]string{"error": err.Error()})
}
