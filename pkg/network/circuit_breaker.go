// Package network carries simulation state between the engine host and
// remote viewers: a length-prefixed TCP protocol for live play and a
// REST control surface for host integration. Outbound operations run
// through a circuit breaker so a dead server fails fast instead of
// piling up blocked dials.
package network

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"github.com/opd-ai/go-orbiter/pkg/config"
	"github.com/opd-ai/go-orbiter/pkg/logging"
)

// NetworkService wraps network operations with a circuit breaker and
// retry logic, isolating failures so one unreachable peer cannot stall
// everything behind it.
type NetworkService struct {
	breaker *gobreaker.CircuitBreaker
	logger  *logging.Logger
	config  *config.EnvironmentConfig
}

// NetworkOperation is one attemptable unit of network work.
type NetworkOperation func() error

// NewNetworkService builds a NetworkService with breaker thresholds
// taken from the environment configuration.
func NewNetworkService(envConfig *config.EnvironmentConfig) *NetworkService {
	logger := logging.NewLogger()

	settings := gobreaker.Settings{
		Name:        "orbiter-network",
		MaxRequests: uint32(envConfig.CircuitBreakerMaxRequests),
		Interval:    envConfig.CircuitBreakerInterval,
		Timeout:     envConfig.CircuitBreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(envConfig.CircuitBreakerMaxConsecutiveFails)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info(context.Background(), "circuit breaker state changed",
				"name", name,
				"from", from,
				"to", to,
			)
		},
	}

	return &NetworkService{
		breaker: gobreaker.NewCircuitBreaker(settings),
		logger:  logger,
		config:  envConfig,
	}
}

// Execute runs one operation through the circuit breaker. With the
// circuit open it returns immediately without attempting the operation.
func (ns *NetworkService) Execute(ctx context.Context, operation NetworkOperation) error {
	_, err := ns.breaker.Execute(func() (interface{}, error) {
		return nil, operation()
	})
	if err != nil {
		ns.logger.LogWithContext(ctx, slog.LevelError, "circuit breaker execution failed",
			"error", err,
			"state", ns.breaker.State(),
		)
		return fmt.Errorf("circuit breaker: %w", err)
	}

	return nil
}

// ExecuteWithRetry runs an operation with linear backoff between
// attempts. Retrying stops early when the circuit opens, since further
// attempts would be rejected anyway.
func (ns *NetworkService) ExecuteWithRetry(ctx context.Context, operation NetworkOperation) error {
	maxRetries := 3
	baseDelay := 1 * time.Second

	for attempt := 0; attempt < maxRetries; attempt++ {
		err := ns.Execute(ctx, operation)
		if err == nil {
			return nil
		}

		if ns.breaker.State() == gobreaker.StateOpen {
			ns.logger.LogWithContext(ctx, slog.LevelWarn, "circuit breaker is open, skipping retries",
				"attempt", attempt+1,
				"max_retries", maxRetries,
			)
			return err
		}

		if attempt == maxRetries-1 {
			ns.logger.LogWithContext(ctx, slog.LevelError, "all retry attempts failed",
				"attempts", maxRetries,
				"final_error", err,
			)
			return fmt.Errorf("max retries (%d) exceeded: %w", maxRetries, err)
		}

		delay := time.Duration(attempt+1) * baseDelay
		ns.logger.LogWithContext(ctx, slog.LevelWarn, "operation failed, retrying",
			"attempt", attempt+1,
			"max_retries", maxRetries,
			"delay", delay,
			"error", err,
		)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("retry cancelled: %w", ctx.Err())
		}
	}

	return fmt.Errorf("unexpected exit from retry loop")
}

// GetState returns the breaker's current state, for monitoring.
func (ns *NetworkService) GetState() gobreaker.State {
	return ns.breaker.State()
}

// GetCounts returns the breaker's failure/success counts.
func (ns *NetworkService) GetCounts() gobreaker.Counts {
	return ns.breaker.Counts()
}
