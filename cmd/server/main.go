// cmd/server/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/opd-ai/go-orbiter/pkg/config"
	"github.com/opd-ai/go-orbiter/pkg/engine"
	"github.com/opd-ai/go-orbiter/pkg/health"
	"github.com/opd-ai/go-orbiter/pkg/logging"
	"github.com/opd-ai/go-orbiter/pkg/network"
	"github.com/opd-ai/go-orbiter/pkg/resource"
	"github.com/opd-ai/go-orbiter/pkg/telemetry"
)

func main() {
	logger := logging.NewLogger()
	ctx := context.Background()

	configPath := flag.String("config", "config.json", "Path to configuration file")
	createDefault := flag.Bool("default", false, "Create default configuration file and exit")
	scenario := flag.String("scenario", "", "Scenario template to overlay on the configuration")
	listScenarios := flag.Bool("scenarios", false, "List available scenario templates and exit")
	flag.Parse()

	if *listScenarios {
		for name, description := range config.ListScenarioTemplates() {
			fmt.Printf("%-16s %s\n", name, description)
		}
		return
	}

	if *createDefault {
		if err := config.SaveConfig(config.DefaultConfig(), *configPath); err != nil {
			logger.Error(ctx, "failed to create default configuration", err,
				"config_path", *configPath,
			)
			os.Exit(1)
		}
		logger.Info(ctx, "created default configuration file",
			"config_path", *configPath,
		)
		return
	}

	simConfig := loadSimConfig(ctx, logger, *configPath, *scenario)

	envConfig, err := config.LoadConfigFromEnv()
	if err != nil {
		logger.Error(ctx, "invalid environment configuration", err)
		os.Exit(1)
	}

	sim, err := engine.NewSimulation(simConfig, logger)
	if err != nil {
		logger.Error(ctx, "failed to create simulation", err)
		os.Exit(1)
	}

	metrics := telemetry.NewSimulationMetrics()
	metrics.WireEventBus(sim.EventBus)

	resourceManager := resource.NewResourceManager(envConfig)
	if err := resourceManager.Start(); err != nil {
		logger.Error(ctx, "failed to start resource manager", err)
		os.Exit(1)
	}

	server := network.NewSimulationServer(sim, envConfig.MaxClients)
	server.SetGoroutineTracker(resourceManager)

	healthChecker := buildHealthChecker(sim, server, resourceManager, envConfig)
	controlServer := startControlServer(ctx, logger, sim, metrics, healthChecker, simConfig.NetworkConfig.ControlPort)

	serverAddr := simConfig.NetworkConfig.ServerAddress
	if serverAddr == "" {
		serverAddr = fmt.Sprintf(":%d", simConfig.NetworkConfig.ServerPort)
	}

	if err := server.Start(serverAddr); err != nil {
		logger.Error(ctx, "failed to start server", err, "address", serverAddr)
		os.Exit(1)
	}

	stopLoop := startSimulationLoop(sim, server, metrics)

	logger.Info(ctx, "orbiter server running",
		"address", server.ListenerAddr(),
		"control_port", simConfig.NetworkConfig.ControlPort,
		"max_clients", envConfig.MaxClients,
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info(ctx, "shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), envConfig.ShutdownTimeout)
	defer cancel()

	stopLoop()
	server.Stop()

	if err := controlServer.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "control server shutdown failed", err)
	}
	if err := resourceManager.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "resource manager shutdown failed", err)
	}
}

// loadSimConfig loads the simulation configuration, overlays the
// requested scenario, and applies environment overrides.
func loadSimConfig(ctx context.Context, logger *logging.Logger, path, scenario string) *config.SimConfig {
	var simConfig *config.SimConfig
	var err error

	if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
		logger.Info(ctx, "configuration file not found, using defaults",
			"config_path", path,
		)
		simConfig = config.DefaultConfig()
		if scenario != "" {
			if err := config.ApplyScenarioTemplate(simConfig, scenario); err != nil {
				logger.Error(ctx, "failed to apply scenario template", err, "scenario", scenario)
				os.Exit(1)
			}
		}
	} else {
		simConfig, err = config.LoadConfigWithTemplate(path, scenario)
		if err != nil {
			logger.Error(ctx, "failed to load configuration", err, "config_path", path)
			os.Exit(1)
		}
	}

	if err := config.ApplyEnvironmentOverrides(simConfig); err != nil {
		logger.Error(ctx, "failed to apply environment overrides", err)
		os.Exit(1)
	}
	if err := simConfig.Validate(); err != nil {
		logger.Error(ctx, "invalid configuration", err)
		os.Exit(1)
	}
	return simConfig
}

// buildHealthChecker wires the liveness and readiness checks.
func buildHealthChecker(sim *engine.Simulation, server *network.SimulationServer, rm *resource.ResourceManager, envConfig *config.EnvironmentConfig) *health.HealthChecker {
	checker := health.NewHealthChecker()

	// The simulation loop runs at 60 Hz; a heartbeat older than five
	// seconds means the loop has stalled.
	checker.AddCheck(health.NewSimulationHealthCheck(sim.LastUpdate, 5*time.Second))
	checker.AddCheck(health.NewNetworkHealthCheck(server.ListenerAddr))
	checker.AddCheck(health.NewMemoryHealthCheck(envConfig.MaxMemoryMB, func() int64 {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)
		return int64(m.Alloc / 1024 / 1024)
	}))
	checker.AddCheck(resource.NewResourceHealthCheck(rm))

	return checker
}

// startControlServer serves the REST control API with the metrics and
// health mounts.
func startControlServer(ctx context.Context, logger *logging.Logger, sim *engine.Simulation, metrics *telemetry.SimulationMetrics, checker *health.HealthChecker, port int) *http.Server {
	api := network.NewControlAPI(sim, metrics.Handler(), checker)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      api.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info(ctx, "starting control API", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error(ctx, "control API server failed", err)
		}
	}()

	return srv
}

// startSimulationLoop drives the fixed-timestep accumulator from wall
// time. It returns a function that stops the loop.
func startSimulationLoop(sim *engine.Simulation, server *network.SimulationServer, metrics *telemetry.SimulationMetrics) func() {
	done := make(chan struct{})

	go func() {
		ticker := time.NewTicker(time.Second / 60)
		defer ticker.Stop()

		last := time.Now()
		for {
			select {
			case <-done:
				return
			case now := <-ticker.C:
				elapsed := now.Sub(last).Seconds()
				last = now

				steps := sim.Advance(elapsed)
				metrics.AddSteps(steps)
				metrics.ObserveState(sim.GetState())
				metrics.SetConnectedClients(server.ClientCount())
			}
		}
	}()

	return func() { close(done) }
}
