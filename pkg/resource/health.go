// pkg/resource/health.go
package resource

import (
	"context"
	"fmt"
)

// ResourceHealthCheck reports the resource manager's budgets to the
// health checker. Goroutine usage fails early, at 80% of the limit,
// so readiness degrades before the hard ceiling is hit.
type ResourceHealthCheck struct {
	manager *ResourceManager
}

// NewResourceHealthCheck creates a health check backed by the manager.
func NewResourceHealthCheck(manager *ResourceManager) *ResourceHealthCheck {
	return &ResourceHealthCheck{
		manager: manager,
	}
}

func (r *ResourceHealthCheck) Name() string {
	return "resource"
}

// Check fails when memory is over budget or goroutines cross the
// early threshold.
func (r *ResourceHealthCheck) Check(ctx context.Context) error {
	stats := r.manager.GetResourceStats()

	if stats.MemoryUsageMB > stats.MaxMemoryMB {
		return fmt.Errorf("memory usage %dMB exceeds limit %dMB",
			stats.MemoryUsageMB, stats.MaxMemoryMB)
	}

	goroutineThreshold := int64(float64(stats.MaxGoroutines) * 0.8)
	if stats.GoroutineCount > goroutineThreshold {
		return fmt.Errorf("goroutine count %d exceeds 80%% threshold (%d/%d)",
			stats.GoroutineCount, goroutineThreshold, stats.MaxGoroutines)
	}

	return nil
}
