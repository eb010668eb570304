// internal/database/health.go
package database

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// HealthStatus represents the current health status of the database
type HealthStatus struct {
	Status       string                 `json:"status"`
	Timestamp    time.Time              `json:"timestamp"`
	ResponseTime time.Duration          `json:"response_time"`
	Errors       []string               `json:"errors,omitempty"`
	Warnings     []string               `json:"warnings,omitempty"`
	Details      map[string]interface{} `json:"details,omitempty"`
}

// HealthChecker probes the database and caches the last known status. A
// background loop keeps the status fresh once StartMonitoring is called.
type HealthChecker struct {
	manager *Manager
	logger  *zap.Logger

	mu     sync.RWMutex
	status *HealthStatus

	stopOnce sync.Once
	stop     chan struct{}
}

// coreTables are probed for basic access on every deep check.
var coreTables = []string{"users", "posts", "comments", "notifications"}

// NewHealthChecker creates a health checker bound to the manager's pool
func NewHealthChecker(manager *Manager, logger *zap.Logger) *HealthChecker {
	return &HealthChecker{
		manager: manager,
		logger:  logger,
		stop:    make(chan struct{}),
	}
}

// Check runs the full probe suite and returns the resulting status
func (hc *HealthChecker) Check(ctx context.Context) *HealthStatus {
	start := time.Now()
	status := &HealthStatus{
		Timestamp: start,
		Details:   make(map[string]interface{}),
	}

	hc.checkConnectivity(ctx, status)
	hc.checkConnectionPool(status)
	if len(status.Errors) == 0 {
		hc.checkTableAccess(ctx, status)
	}

	status.ResponseTime = time.Since(start)
	status.Status = overallStatus(status)

	hc.mu.Lock()
	previous := hc.status
	hc.status = status
	hc.mu.Unlock()

	if previous != nil && previous.Status != status.Status {
		hc.logger.Info("Database health changed",
			zap.String("from", previous.Status),
			zap.String("to", status.Status),
			zap.Strings("errors", status.Errors),
		)
	}
	return status
}

// Last returns the most recent status without probing, or nil before the
// first check.
func (hc *HealthChecker) Last() *HealthStatus {
	hc.mu.RLock()
	defer hc.mu.RUnlock()
	return hc.status
}

func (hc *HealthChecker) checkConnectivity(ctx context.Context, status *HealthStatus) {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	start := time.Now()
	if err := hc.manager.DB().PingContext(pingCtx); err != nil {
		status.Errors = append(status.Errors, fmt.Sprintf("ping failed: %v", err))
		return
	}
	status.Details["ping_duration"] = time.Since(start).String()
}

func (hc *HealthChecker) checkConnectionPool(status *HealthStatus) {
	stats := hc.manager.DB().Stats()
	status.Details["open_connections"] = stats.OpenConnections
	status.Details["idle_connections"] = stats.Idle
	status.Details["wait_count"] = stats.WaitCount

	if stats.MaxOpenConnections > 0 {
		usage := float64(stats.OpenConnections) / float64(stats.MaxOpenConnections)
		status.Details["pool_usage"] = fmt.Sprintf("%.0f%%", usage*100)
		if usage > 0.9 {
			status.Warnings = append(status.Warnings,
				fmt.Sprintf("connection pool near capacity: %d/%d", stats.OpenConnections, stats.MaxOpenConnections))
		}
	}
}

func (hc *HealthChecker) checkTableAccess(ctx context.Context, status *HealthStatus) {
	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	for _, table := range coreTables {
		var one int
		query := fmt.Sprintf("SELECT 1 FROM %s LIMIT 1", table)
		if err := hc.manager.DB().QueryRowContext(queryCtx, query).Scan(&one); err != nil && err.Error() != "sql: no rows in result set" {
			status.Errors = append(status.Errors, fmt.Sprintf("table %s not accessible: %v", table, err))
		}
	}
	status.Details["tables_checked"] = len(coreTables)
}

func overallStatus(status *HealthStatus) string {
	if len(status.Errors) > 0 {
		return StatusUnhealthy
	}
	if len(status.Warnings) > 0 {
		return StatusDegraded
	}
	return StatusHealthy
}

// StartMonitoring launches the background probe loop
func (hc *HealthChecker) StartMonitoring() {
	interval := hc.manager.config.HealthCheckInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-hc.stop:
				return
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
				status := hc.Check(ctx)
				cancel()

				if status.Status != StatusHealthy {
					hc.logger.Warn("Database health check failed",
						zap.String("status", status.Status),
						zap.Strings("errors", status.Errors),
						zap.Strings("warnings", status.Warnings),
					)
				}
			}
		}
	}()
}

// Stop halts the monitoring loop
func (hc *HealthChecker) Stop() {
	hc.stopOnce.Do(func() { close(hc.stop) })
}
