// ===============================
// FILE: internal/database/database.go
// ===============================

package database

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"maumlog/internal/config"

	"github.com/cenkalti/backoff/v4"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// DB is the process-wide database manager
var DB *Manager

var initMutex sync.Mutex

// InitDB opens the pool, runs migrations, and blocks until the database
// reports healthy. Safe to call more than once; later calls are no-ops.
func InitDB(cfg *config.Config, logger *zap.Logger) error {
	initMutex.Lock()
	defer initMutex.Unlock()

	if DB != nil {
		logger.Info("Database manager already initialized")
		return nil
	}
	if logger == nil {
		logger, _ = zap.NewProduction()
	}

	if err := applyEnvironmentDefaults(&cfg.Database, cfg.Server.Environment); err != nil {
		return fmt.Errorf("invalid database configuration: %w", err)
	}

	manager, err := NewManager(&cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	DB = manager

	migrationsPath := determineMigrationsPath(cfg.Database.MigrationsPath)
	logger.Info("Using migrations path", zap.String("path", migrationsPath))

	if err := runMigrationsWithRetry(manager, migrationsPath, logger, 3); err != nil {
		DB = nil
		manager.Close()
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), healthTimeoutFor(cfg.Server.Environment))
	defer cancel()

	if err := waitForHealthWithBackoff(ctx, manager, logger); err != nil {
		DB = nil
		manager.Close()
		return fmt.Errorf("database failed to become healthy: %w", err)
	}

	// Monitoring starts only once the database has answered a full probe.
	manager.health.StartMonitoring()

	stats := manager.Stats()
	logger.Info("Database initialized",
		zap.String("migrations_path", migrationsPath),
		zap.Int("max_open_connections", stats.MaxOpenConnections),
		zap.Int("open_connections", stats.OpenConnections),
	)

	if cfg.Server.Environment == "production" {
		startPoolMonitoring(manager, logger)
	}
	return nil
}

// applyEnvironmentDefaults fills unset pool settings with values tuned per
// environment and forces SSL outside development.
func applyEnvironmentDefaults(cfg *config.DatabaseConfig, environment string) error {
	if cfg.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	switch environment {
	case "production":
		if cfg.MaxOpenConns == 0 {
			cfg.MaxOpenConns = 50
		}
		if cfg.MaxIdleConns == 0 {
			cfg.MaxIdleConns = 20
		}
		if cfg.ConnMaxLifetime == 0 {
			cfg.ConnMaxLifetime = 15 * time.Minute
		}
		if !strings.Contains(cfg.URL, "sslmode=") {
			cfg.URL += " sslmode=require"
		}
	case "staging":
		if cfg.MaxOpenConns == 0 {
			cfg.MaxOpenConns = 25
		}
		if cfg.MaxIdleConns == 0 {
			cfg.MaxIdleConns = 10
		}
		if cfg.ConnMaxLifetime == 0 {
			cfg.ConnMaxLifetime = 10 * time.Minute
		}
	default:
		if cfg.MaxOpenConns == 0 {
			cfg.MaxOpenConns = 10
		}
		if cfg.MaxIdleConns == 0 {
			cfg.MaxIdleConns = 5
		}
		if cfg.ConnMaxLifetime == 0 {
			cfg.ConnMaxLifetime = 5 * time.Minute
		}
	}

	if cfg.HealthCheckInterval == 0 {
		cfg.HealthCheckInterval = 30 * time.Second
	}
	if cfg.MaxIdleConns > cfg.MaxOpenConns {
		cfg.MaxIdleConns = cfg.MaxOpenConns
	}
	return nil
}

func runMigrationsWithRetry(manager *Manager, migrationsPath string, logger *zap.Logger, maxRetries int) error {
	var lastErr error

	for attempt := 1; attempt <= maxRetries; attempt++ {
		if err := manager.Migrate(migrationsPath); err != nil {
			lastErr = err
			if attempt < maxRetries {
				waitTime := time.Duration(attempt) * time.Second
				logger.Warn("Migration attempt failed, retrying",
					zap.Error(err),
					zap.Int("attempt", attempt),
					zap.Duration("retry_in", waitTime))
				time.Sleep(waitTime)
				continue
			}
		} else {
			return nil
		}
	}
	return fmt.Errorf("migrations failed after %d attempts: %w", maxRetries, lastErr)
}

// waitForHealthWithBackoff polls the health probes with exponential backoff
// until the database reports healthy or the context expires.
func waitForHealthWithBackoff(ctx context.Context, manager *Manager, logger *zap.Logger) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = time.Second
	bo.MaxInterval = 10 * time.Second
	bo.MaxElapsedTime = 0 // the surrounding context bounds the wait

	operation := func() error {
		status := manager.Health(ctx)
		if status.Status == StatusHealthy {
			logger.Info("Database is healthy",
				zap.Duration("response_time", status.ResponseTime))
			return nil
		}

		logger.Debug("Database not healthy yet, retrying",
			zap.String("status", status.Status),
			zap.Strings("errors", status.Errors))
		return fmt.Errorf("database status %s", status.Status)
	}

	if err := backoff.Retry(operation, backoff.WithContext(bo, ctx)); err != nil {
		return fmt.Errorf("timeout waiting for database health: %w", err)
	}
	return nil
}

// determineMigrationsPath prefers the configured path and falls back to the
// usual layout locations.
func determineMigrationsPath(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
	}

	for _, path := range []string{
		"./migrations",
		"./internal/database/migrations",
		"../migrations",
	} {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return "./migrations"
}

func healthTimeoutFor(environment string) time.Duration {
	switch environment {
	case "production":
		return 60 * time.Second
	case "staging":
		return 45 * time.Second
	default:
		return 30 * time.Second
	}
}

// startPoolMonitoring periodically logs query and pool metrics and warns
// when the pool runs hot.
func startPoolMonitoring(manager *Manager, logger *zap.Logger) {
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()

		for range ticker.C {
			snapshot := manager.Metrics()
			stats := manager.Stats()

			logger.Info("Database metrics",
				zap.Int64("total_queries", snapshot.QueryCount),
				zap.Int64("error_count", snapshot.ErrorCount),
				zap.Int64("slow_queries", snapshot.SlowQueryCount),
				zap.Duration("avg_duration", snapshot.AvgQueryDuration),
				zap.Int("open_connections", stats.OpenConnections),
				zap.Int("idle_connections", stats.Idle),
			)

			if stats.MaxOpenConnections > 0 && stats.OpenConnections > int(float64(stats.MaxOpenConnections)*0.8) {
				logger.Warn("High database connection usage",
					zap.Int("current", stats.OpenConnections),
					zap.Int("max", stats.MaxOpenConnections))
			}
		}
	}()
}

// GetDB returns the global manager
func GetDB() *Manager {
	return DB
}

// Health runs the probe suite against the global manager
func Health(ctx context.Context) *HealthStatus {
	if DB == nil {
		return &HealthStatus{
			Status:    StatusUnhealthy,
			Timestamp: time.Now(),
			Errors:    []string{"database not initialized"},
			Details:   make(map[string]interface{}),
		}
	}
	return DB.Health(ctx)
}
