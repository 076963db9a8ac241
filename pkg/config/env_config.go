// pkg/config/env_config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// EnvironmentConfig holds deployment settings that are controlled via
// environment variables rather than the scene configuration file:
// network endpoints, timeouts, circuit breaker tuning, and resource
// limits.
type EnvironmentConfig struct {
	ServerAddr  string
	ServerPort  int
	ControlPort int

	MaxClients   int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	UpdateRate   int

	FixedTimestep   float64
	SpeedMultiplier float64
	MetricsEnabled  bool

	// Circuit Breaker Configuration
	CircuitBreakerMaxRequests         int
	CircuitBreakerInterval            time.Duration
	CircuitBreakerTimeout             time.Duration
	CircuitBreakerMaxConsecutiveFails int

	// Resource Management Configuration
	MaxMemoryMB           int64
	MaxGoroutines         int
	ShutdownTimeout       time.Duration
	ResourceCheckInterval time.Duration
}

// ValidationError describes a configuration field that failed
// validation, including the offending value.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid configuration: field %s (value %v): %s", e.Field, e.Value, e.Message)
}

// LoadConfigFromEnv builds an EnvironmentConfig from ORBITER_* variables,
// falling back to safe defaults for anything unset. The result is
// validated before it is returned.
func LoadConfigFromEnv() (*EnvironmentConfig, error) {
	config := &EnvironmentConfig{
		ServerAddr:  getEnvOrDefault("ORBITER_SERVER_ADDR", "localhost"),
		ServerPort:  getEnvAsIntOrDefault("ORBITER_SERVER_PORT", 4566),
		ControlPort: getEnvAsIntOrDefault("ORBITER_CONTROL_PORT", 8080),

		MaxClients:   getEnvAsIntOrDefault("ORBITER_MAX_CLIENTS", 32),
		ReadTimeout:  getEnvAsDurationOrDefault("ORBITER_READ_TIMEOUT", 30*time.Second),
		WriteTimeout: getEnvAsDurationOrDefault("ORBITER_WRITE_TIMEOUT", 30*time.Second),
		UpdateRate:   getEnvAsIntOrDefault("ORBITER_UPDATE_RATE", 20),

		FixedTimestep:   getEnvAsFloatOrDefault("ORBITER_FIXED_TIMESTEP", 1.0/60.0),
		SpeedMultiplier: getEnvAsFloatOrDefault("ORBITER_SPEED_MULTIPLIER", 1.0),
		MetricsEnabled:  getEnvAsBoolOrDefault("ORBITER_METRICS_ENABLED", true),

		CircuitBreakerMaxRequests:         getEnvAsIntOrDefault("ORBITER_CIRCUIT_BREAKER_MAX_REQUESTS", 3),
		CircuitBreakerInterval:            getEnvAsDurationOrDefault("ORBITER_CIRCUIT_BREAKER_INTERVAL", 60*time.Second),
		CircuitBreakerTimeout:             getEnvAsDurationOrDefault("ORBITER_CIRCUIT_BREAKER_TIMEOUT", 30*time.Second),
		CircuitBreakerMaxConsecutiveFails: getEnvAsIntOrDefault("ORBITER_CIRCUIT_BREAKER_MAX_CONSECUTIVE_FAILS", 5),

		MaxMemoryMB:           getEnvAsInt64OrDefault("ORBITER_MAX_MEMORY_MB", 500),
		MaxGoroutines:         getEnvAsIntOrDefault("ORBITER_MAX_GOROUTINES", 1000),
		ShutdownTimeout:       getEnvAsDurationOrDefault("ORBITER_SHUTDOWN_TIMEOUT", 30*time.Second),
		ResourceCheckInterval: getEnvAsDurationOrDefault("ORBITER_RESOURCE_CHECK_INTERVAL", 10*time.Second),
	}

	if err := validateEnvironmentConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}

// validateEnvironmentConfig checks all fields against their allowed
// ranges and returns a *ValidationError naming the first bad field.
func validateEnvironmentConfig(config *EnvironmentConfig) error {
	if config.ServerAddr == "" {
		return &ValidationError{Field: "ServerAddr", Value: config.ServerAddr, Message: "must not be empty"}
	}
	if config.ServerPort < 1024 || config.ServerPort > 65535 {
		return &ValidationError{Field: "ServerPort", Value: config.ServerPort, Message: "must be between 1024 and 65535"}
	}
	if config.ControlPort < 1024 || config.ControlPort > 65535 {
		return &ValidationError{Field: "ControlPort", Value: config.ControlPort, Message: "must be between 1024 and 65535"}
	}
	if config.MaxClients < 1 || config.MaxClients > 1000 {
		return &ValidationError{Field: "MaxClients", Value: config.MaxClients, Message: "must be between 1 and 1000"}
	}
	if config.ReadTimeout < time.Second || config.ReadTimeout > time.Minute {
		return &ValidationError{Field: "ReadTimeout", Value: config.ReadTimeout, Message: "must be between 1s and 1m"}
	}
	if config.WriteTimeout < time.Second || config.WriteTimeout > time.Minute {
		return &ValidationError{Field: "WriteTimeout", Value: config.WriteTimeout, Message: "must be between 1s and 1m"}
	}
	if config.UpdateRate < 1 || config.UpdateRate > 100 {
		return &ValidationError{Field: "UpdateRate", Value: config.UpdateRate, Message: "must be between 1 and 100"}
	}
	if config.FixedTimestep <= 0 || config.FixedTimestep > 0.25 {
		return &ValidationError{Field: "FixedTimestep", Value: config.FixedTimestep, Message: "must be in (0, 0.25]"}
	}
	if config.SpeedMultiplier < 0.1 || config.SpeedMultiplier > 100 {
		return &ValidationError{Field: "SpeedMultiplier", Value: config.SpeedMultiplier, Message: "must be between 0.1 and 100"}
	}
	if config.CircuitBreakerMaxRequests < 1 {
		return &ValidationError{Field: "CircuitBreakerMaxRequests", Value: config.CircuitBreakerMaxRequests, Message: "must be at least 1"}
	}
	if config.CircuitBreakerInterval < time.Second {
		return &ValidationError{Field: "CircuitBreakerInterval", Value: config.CircuitBreakerInterval, Message: "must be at least 1s"}
	}
	if config.CircuitBreakerTimeout < time.Second {
		return &ValidationError{Field: "CircuitBreakerTimeout", Value: config.CircuitBreakerTimeout, Message: "must be at least 1s"}
	}
	if config.CircuitBreakerMaxConsecutiveFails < 1 {
		return &ValidationError{Field: "CircuitBreakerMaxConsecutiveFails", Value: config.CircuitBreakerMaxConsecutiveFails, Message: "must be at least 1"}
	}
	if config.MaxMemoryMB < 64 {
		return &ValidationError{Field: "MaxMemoryMB", Value: config.MaxMemoryMB, Message: "must be at least 64"}
	}
	if config.MaxGoroutines < 10 {
		return &ValidationError{Field: "MaxGoroutines", Value: config.MaxGoroutines, Message: "must be at least 10"}
	}
	if config.ShutdownTimeout < time.Second {
		return &ValidationError{Field: "ShutdownTimeout", Value: config.ShutdownTimeout, Message: "must be at least 1s"}
	}
	if config.ResourceCheckInterval < time.Second {
		return &ValidationError{Field: "ResourceCheckInterval", Value: config.ResourceCheckInterval, Message: "must be at least 1s"}
	}

	return nil
}

// ApplyEnvironmentOverrides overlays ORBITER_* environment settings onto
// a simulation configuration. File-based settings win only when the
// corresponding variable is unset.
func ApplyEnvironmentOverrides(simConfig *SimConfig) error {
	envConfig, err := LoadConfigFromEnv()
	if err != nil {
		return err
	}

	simConfig.NetworkConfig.ServerAddress = fmt.Sprintf("%s:%d", envConfig.ServerAddr, envConfig.ServerPort)
	simConfig.NetworkConfig.ServerPort = envConfig.ServerPort
	simConfig.NetworkConfig.ControlPort = envConfig.ControlPort
	simConfig.NetworkConfig.UpdateRate = envConfig.UpdateRate
	simConfig.FixedTimestep = envConfig.FixedTimestep
	simConfig.SpeedMultiplier = envConfig.SpeedMultiplier

	return nil
}

// getEnvOrDefault returns the environment variable value or a default.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsIntOrDefault returns the environment variable parsed as an
// int, or a default when unset or unparseable.
func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvAsInt64OrDefault returns the environment variable parsed as an
// int64, or a default when unset or unparseable.
func getEnvAsInt64OrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvAsBoolOrDefault returns the environment variable parsed as a
// bool, or a default when unset or unparseable.
func getEnvAsBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvAsFloatOrDefault returns the environment variable parsed as a
// float64, or a default when unset or unparseable.
func getEnvAsFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvAsDurationOrDefault returns the environment variable parsed as
// a duration, or a default when unset or unparseable.
func getEnvAsDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
