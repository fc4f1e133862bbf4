package health

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"gorm.io/gorm"
)

// Overall statuses
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

const (
	maxGoroutines = 10000
	maxMemoryMB   = 500
	maxDBLatency  = 100 * time.Millisecond
	dbPingTimeout = 2 * time.Second
)

// HealthStatus represents the overall health of the application
type HealthStatus struct {
	Status    string                     `json:"status"`
	Timestamp time.Time                  `json:"timestamp"`
	Version   string                     `json:"version"`
	Checks    map[string]ComponentHealth `json:"checks"`
	Duration  int64                      `json:"duration_ms"`
}

// ComponentHealth represents health of a single component
type ComponentHealth struct {
	Healthy bool                   `json:"healthy"`
	Details map[string]interface{} `json:"details,omitempty"`
	Error   string                 `json:"error,omitempty"`
}

// SystemMetrics captures current system metrics
type SystemMetrics struct {
	MemoryUsageMB  uint64 `json:"memory_usage_mb"`
	GoroutineCount int    `json:"goroutine_count"`
	CPUNumCores    int    `json:"cpu_num_cores"`
	Uptime         int64  `json:"uptime_seconds"`
}

// ComponentCheck reports the health of one extra component
type ComponentCheck func(ctx context.Context) ComponentHealth

// HealthChecker provides health check functionality
type HealthChecker struct {
	db        *gorm.DB
	version   string
	startTime time.Time

	mu              sync.RWMutex
	components      map[string]ComponentCheck
	lastCheckStatus string
}

// NewHealthChecker creates a new health checker
func NewHealthChecker(db *gorm.DB, version string) *HealthChecker {
	return &HealthChecker{
		db:         db,
		version:    version,
		startTime:  time.Now(),
		components: make(map[string]ComponentCheck),
	}
}

// AddComponent registers a named component check. An unhealthy component degrades
// the overall status.
func (hc *HealthChecker) AddComponent(name string, component ComponentCheck) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	hc.components[name] = component
}

// Check performs a complete health check. A failed database makes the
// service unhealthy; any other failed check only degrades it.
func (hc *HealthChecker) Check(ctx context.Context) HealthStatus {
	start := time.Now()
	status := HealthStatus{
		Timestamp: start,
		Version:   hc.version,
		Checks:    make(map[string]ComponentHealth),
	}

	status.Checks["database"] = hc.checkDatabase(ctx)
	status.Checks["memory"] = checkMemory()

	goroutines := runtime.NumGoroutine()
	status.Checks["goroutines"] = ComponentHealth{
		Healthy: goroutines < maxGoroutines,
		Details: map[string]interface{}{"count": goroutines},
	}

	hc.mu.RLock()
	for name, component := range hc.components {
		status.Checks[name] = component(ctx)
	}
	hc.mu.RUnlock()

	status.Status = StatusHealthy
	for name, check := range status.Checks {
		if check.Healthy {
			continue
		}
		if name == "database" {
			status.Status = StatusUnhealthy
			break
		}
		status.Status = StatusDegraded
	}

	status.Duration = time.Since(start).Milliseconds()

	hc.mu.Lock()
	hc.lastCheckStatus = status.Status
	hc.mu.Unlock()

	return status
}

// checkDatabase verifies database connectivity and latency
func (hc *HealthChecker) checkDatabase(ctx context.Context) ComponentHealth {
	if hc.db == nil {
		return ComponentHealth{Error: "database not initialized"}
	}

	start := time.Now()
	if err := hc.ping(ctx); err != nil {
		return ComponentHealth{Error: err.Error()}
	}
	latency := time.Since(start)

	return ComponentHealth{
		Healthy: true,
		Details: map[string]interface{}{
			"latency_ms": latency.Milliseconds(),
			"latency_ok": latency < maxDBLatency,
		},
	}
}

func (hc *HealthChecker) ping(ctx context.Context) error {
	sqlDB, err := hc.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database connection: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, dbPingTimeout)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

// checkMemory checks memory usage
func checkMemory() ComponentHealth {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	allocMB := m.Alloc / 1024 / 1024
	return ComponentHealth{
		Healthy: allocMB < maxMemoryMB,
		Details: map[string]interface{}{
			"allocated_mb":   allocMB,
			"total_alloc_mb": m.TotalAlloc / 1024 / 1024,
			"sys_mb":         m.Sys / 1024 / 1024,
			"num_gc":         m.NumGC,
		},
	}
}

// IsHealthy reports the outcome of the last Check
func (hc *HealthChecker) IsHealthy() bool {
	hc.mu.RLock()
	defer hc.mu.RUnlock()
	return hc.lastCheckStatus == StatusHealthy
}

// IsReady returns true if system is ready to serve traffic
func (hc *HealthChecker) IsReady(ctx context.Context) bool {
	if hc.db == nil {
		return false
	}
	return hc.ping(ctx) == nil
}

// IsAlive returns true if system is running
func (hc *HealthChecker) IsAlive() bool {
	return true
}

// GetMetrics returns current system metrics
func (hc *HealthChecker) GetMetrics() SystemMetrics {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return SystemMetrics{
		MemoryUsageMB:  m.Alloc / 1024 / 1024,
		GoroutineCount: runtime.NumGoroutine(),
		CPUNumCores:    runtime.NumCPU(),
		Uptime:         int64(time.Since(hc.startTime).Seconds()),
	}
}
