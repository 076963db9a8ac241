// pkg/resource/manager.go

// Package resource guards the orbiter server against resource
// exhaustion: it tracks goroutines against a ceiling, watches heap
// usage, and coordinates graceful shutdown of everything it tracks.
package resource

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/opd-ai/go-orbiter/pkg/config"
	"github.com/opd-ai/go-orbiter/pkg/logging"
)

// ResourceManager enforces memory and goroutine budgets for one
// process and owns the monitor loop that checks them periodically.
type ResourceManager struct {
	maxMemoryMB     int64
	maxGoroutines   int64
	shutdownTimeout time.Duration
	checkInterval   time.Duration

	goroutineCount int64
	memoryUsageMB  int64

	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	mu      sync.RWMutex
	running bool
	logger  *logging.Logger

	lastMemoryCheck    time.Time
	lastGoroutineCheck time.Time
}

// NewResourceManager creates a manager with budgets from the
// environment configuration.
func NewResourceManager(config *config.EnvironmentConfig) *ResourceManager {
	ctx, cancel := context.WithCancel(context.Background())

	return &ResourceManager{
		maxMemoryMB:        config.MaxMemoryMB,
		maxGoroutines:      int64(config.MaxGoroutines),
		shutdownTimeout:    config.ShutdownTimeout,
		checkInterval:      config.ResourceCheckInterval,
		ctx:                ctx,
		cancel:             cancel,
		done:               make(chan struct{}),
		logger:             logging.NewLogger(),
		lastMemoryCheck:    time.Now(),
		lastGoroutineCheck: time.Now(),
	}
}

// Start launches the monitor loop.
func (rm *ResourceManager) Start() error {
	rm.mu.Lock()
	if rm.running {
		rm.mu.Unlock()
		return fmt.Errorf("resource manager already running")
	}
	rm.running = true
	rm.mu.Unlock()

	go rm.monitorLoop()

	rm.logger.Info(rm.ctx, "resource manager started",
		"max_memory_mb", rm.maxMemoryMB,
		"max_goroutines", rm.maxGoroutines,
		"check_interval", rm.checkInterval,
	)

	return nil
}

// StartGoroutine runs fn on a tracked goroutine with panic recovery.
// It refuses to start when the goroutine budget is already spent.
func (rm *ResourceManager) StartGoroutine(ctx context.Context, name string, fn func(context.Context)) error {
	current := atomic.LoadInt64(&rm.goroutineCount)
	if current >= rm.maxGoroutines {
		rm.logger.Warn(ctx, "goroutine limit exceeded",
			"current", current,
			"limit", rm.maxGoroutines,
			"name", name,
		)
		return fmt.Errorf("goroutine limit exceeded: %d/%d", current, rm.maxGoroutines)
	}

	atomic.AddInt64(&rm.goroutineCount, 1)

	go func() {
		defer atomic.AddInt64(&rm.goroutineCount, -1)
		defer func() {
			if r := recover(); r != nil {
				rm.logger.Error(ctx, "goroutine panic",
					fmt.Errorf("panic: %v", r),
					"name", name,
				)
			}
		}()

		fn(ctx)
	}()

	return nil
}

// CheckMemoryUsage samples heap usage and compares it to the budget.
func (rm *ResourceManager) CheckMemoryUsage() error {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	currentMB := int64(m.Alloc / 1024 / 1024)
	atomic.StoreInt64(&rm.memoryUsageMB, currentMB)
	rm.lastMemoryCheck = time.Now()

	if currentMB > rm.maxMemoryMB {
		return fmt.Errorf("memory usage %dMB exceeds limit %dMB", currentMB, rm.maxMemoryMB)
	}

	return nil
}

// GetGoroutineCount returns the number of tracked goroutines.
func (rm *ResourceManager) GetGoroutineCount() int64 {
	return atomic.LoadInt64(&rm.goroutineCount)
}

// GetMemoryUsage returns the last sampled heap usage in MB.
func (rm *ResourceManager) GetMemoryUsage() int64 {
	return atomic.LoadInt64(&rm.memoryUsageMB)
}

// ResourceStats is a point-in-time usage report.
type ResourceStats struct {
	GoroutineCount     int64     `json:"goroutine_count"`
	MaxGoroutines      int64     `json:"max_goroutines"`
	MemoryUsageMB      int64     `json:"memory_usage_mb"`
	MaxMemoryMB        int64     `json:"max_memory_mb"`
	LastMemoryCheck    time.Time `json:"last_memory_check"`
	LastGoroutineCheck time.Time `json:"last_goroutine_check"`
}

// GetResourceStats returns current usage against the budgets.
func (rm *ResourceManager) GetResourceStats() ResourceStats {
	return ResourceStats{
		GoroutineCount:     rm.GetGoroutineCount(),
		MaxGoroutines:      rm.maxGoroutines,
		MemoryUsageMB:      rm.GetMemoryUsage(),
		MaxMemoryMB:        rm.maxMemoryMB,
		LastMemoryCheck:    rm.lastMemoryCheck,
		LastGoroutineCheck: rm.lastGoroutineCheck,
	}
}

// Shutdown stops the monitor loop and waits for tracked goroutines to
// drain, up to the configured shutdown timeout.
func (rm *ResourceManager) Shutdown(ctx context.Context) error {
	rm.mu.Lock()
	if !rm.running {
		rm.mu.Unlock()
		return nil
	}
	rm.running = false
	rm.mu.Unlock()

	rm.logger.Info(ctx, "shutting down resource manager")

	rm.cancel()

	shutdownCtx, cancel := context.WithTimeout(ctx, rm.shutdownTimeout)
	defer cancel()

	select {
	case <-rm.done:
	case <-shutdownCtx.Done():
		rm.logger.Warn(ctx, "resource monitor loop did not stop gracefully")
	}

	return rm.waitForGoroutines(shutdownCtx)
}

// waitForGoroutines blocks until the tracked count reaches zero or the
// context expires.
func (rm *ResourceManager) waitForGoroutines(ctx context.Context) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		count := rm.GetGoroutineCount()
		if count == 0 {
			rm.logger.Info(ctx, "all tracked goroutines finished")
			return nil
		}

		select {
		case <-ticker.C:
			rm.logger.Debug(ctx, "waiting for goroutines to finish",
				"remaining", count,
			)
		case <-ctx.Done():
			remaining := rm.GetGoroutineCount()
			rm.logger.Warn(ctx, "shutdown timeout exceeded with goroutines still running",
				"remaining", remaining,
			)
			return fmt.Errorf("shutdown timeout: %d goroutines still running", remaining)
		}
	}
}

// monitorLoop runs the periodic budget checks until Shutdown.
func (rm *ResourceManager) monitorLoop() {
	defer close(rm.done)

	ticker := time.NewTicker(rm.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rm.runChecks()
		case <-rm.ctx.Done():
			rm.logger.Info(rm.ctx, "resource monitor loop stopping")
			return
		}
	}
}

// runChecks performs one round of budget checks, logging violations.
func (rm *ResourceManager) runChecks() {
	if err := rm.CheckMemoryUsage(); err != nil {
		rm.logger.Error(rm.ctx, "memory limit exceeded", err,
			"current_mb", rm.GetMemoryUsage(),
			"limit_mb", rm.maxMemoryMB,
		)
	}

	rm.lastGoroutineCheck = time.Now()

	rm.logger.Debug(rm.ctx, "resource usage check",
		"goroutines", rm.GetGoroutineCount(),
		"max_goroutines", rm.maxGoroutines,
		"memory_mb", rm.GetMemoryUsage(),
		"max_memory_mb", rm.maxMemoryMB,
	)
}
