// file: internal/services/service_collection.go
package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"maumlog/internal/cache"
	"maumlog/internal/config"
	"maumlog/internal/database"
	"maumlog/internal/events"
	"maumlog/internal/repositories"

	"go.uber.org/zap"
)

// ServiceCollection holds all services with dependency injection
type ServiceCollection struct {
	// Core Services
	UserService         UserService         `json:"-"`
	PostService         PostService         `json:"-"`
	CommentService      CommentService      `json:"-"`
	NotificationService NotificationService `json:"-"`
	ReconcilerService   ReconcilerService   `json:"-"`

	// Infrastructure Services
	CacheService CacheService `json:"-"`

	// Repository Collection
	Repositories *repositories.Collection `json:"-"`

	// Infrastructure Components
	Cache     cache.Cache       `json:"-"`
	EventBus  events.EventBus   `json:"-"`
	Logger    *zap.Logger       `json:"-"`
	Config    *config.Config    `json:"-"`
	DBManager *database.Manager `json:"-"`

	// Service Management
	healthCheckers map[string]HealthChecker `json:"-"`
	metrics        *ServiceMetrics          `json:"-"`
	shutdown       chan struct{}            `json:"-"`
	wg             sync.WaitGroup           `json:"-"`
	mu             sync.RWMutex             `json:"-"`
	initialized    bool                     `json:"-"`
}

// ServiceMetrics tracks overall service collection performance
type ServiceMetrics struct {
	StartTime           time.Time              `json:"start_time"`
	TotalRequests       int64                  `json:"total_requests"`
	SuccessfulRequests  int64                  `json:"successful_requests"`
	FailedRequests      int64                  `json:"failed_requests"`
	AverageResponseTime time.Duration          `json:"average_response_time"`
	ServiceMetrics      map[string]interface{} `json:"service_metrics"`
	LastHealthCheck     time.Time              `json:"last_health_check"`
	mu                  sync.RWMutex           `json:"-"`
}

// ServiceHealth represents the health status of the service collection
type ServiceHealth struct {
	Status          string                   `json:"status"`
	Timestamp       time.Time                `json:"timestamp"`
	Services        map[string]ServiceStatus `json:"services"`
	Dependencies    map[string]ServiceStatus `json:"dependencies"`
	Uptime          time.Duration            `json:"uptime"`
	TotalServices   int                      `json:"total_services"`
	HealthyServices int                      `json:"healthy_services"`
	Issues          []string                 `json:"issues,omitempty"`
}

// ServiceStatus represents the status of an individual service
type ServiceStatus struct {
	Name         string                 `json:"name"`
	Status       string                 `json:"status"` // healthy, degraded, unhealthy
	LastCheck    time.Time              `json:"last_check"`
	ResponseTime time.Duration          `json:"response_time"`
	Error        string                 `json:"error,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
}

// HealthChecker interface for service health checks
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
	ServiceName() string
}

// NewServiceCollection creates a new service collection
func NewServiceCollection(
	dbManager *database.Manager,
	cfg *config.Config,
	logger *zap.Logger,
) (*ServiceCollection, error) {
	if dbManager == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	collection := &ServiceCollection{
		DBManager:      dbManager,
		Config:         cfg,
		Logger:         logger,
		healthCheckers: make(map[string]HealthChecker),
		metrics: &ServiceMetrics{
			StartTime:      time.Now(),
			ServiceMetrics: make(map[string]interface{}),
		},
		shutdown: make(chan struct{}),
	}

	// Initialize in dependency order
	if err := collection.initializeInfrastructure(); err != nil {
		return nil, fmt.Errorf("failed to initialize infrastructure: %w", err)
	}

	if err := collection.initializeRepositories(); err != nil {
		return nil, fmt.Errorf("failed to initialize repositories: %w", err)
	}

	if err := collection.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	if err := collection.initializeMonitoring(); err != nil {
		return nil, fmt.Errorf("failed to initialize monitoring: %w", err)
	}

	collection.initialized = true
	logger.Info("Service collection initialized successfully",
		zap.Int("total_services", collection.getServiceCount()),
	)

	return collection, nil
}

// ===============================
// INITIALIZATION METHODS
// ===============================

// initializeInfrastructure sets up infrastructure components
func (sc *ServiceCollection) initializeInfrastructure() error {
	sc.Logger.Info("Initializing infrastructure components")

	cacheCfg := cache.DefaultConfig()
	cacheCfg.Provider = sc.Config.Cache.Provider
	cacheCfg.RedisURL = sc.Config.Cache.RedisURL
	cacheCfg.RedisDB = sc.Config.Cache.RedisDB
	cacheCfg.RedisPassword = sc.Config.Cache.RedisPassword
	cacheCfg.PoolSize = sc.Config.Cache.PoolSize
	cacheCfg.TTL = sc.Config.Cache.TTL
	cacheCfg.MaxKeys = sc.Config.Cache.MaxKeys

	backend, err := cache.NewCache(cacheCfg, sc.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}
	sc.Cache = backend

	sc.EventBus = events.NewInMemoryEventBus(events.DefaultEventBusConfig(), sc.Logger)

	sc.Logger.Info("Infrastructure components initialized",
		zap.String("cache_provider", cacheCfg.Provider),
	)
	return nil
}

// initializeRepositories sets up repository layer
func (sc *ServiceCollection) initializeRepositories() error {
	sc.Logger.Info("Initializing repositories")

	if sc.DBManager.DB() == nil {
		return fmt.Errorf("failed to get database connection from manager")
	}

	repoConfig := &repositories.RepositoryConfig{
		EnableQueryLogging: sc.Config.Database.EnableQueryLogging,
		SlowQueryThreshold: sc.Config.Database.SlowQueryThreshold,
	}

	var err error
	sc.Repositories, err = repositories.NewCollection(sc.DBManager, sc.Logger, repoConfig)
	if err != nil {
		return fmt.Errorf("failed to create repository collection: %w", err)
	}

	sc.Logger.Info("Repositories initialized")
	return nil
}

// initializeServices sets up service layer with dependency injection
func (sc *ServiceCollection) initializeServices() error {
	sc.Logger.Info("Initializing services")

	// Cache Service (foundational, everything caches through it)
	sc.CacheService = NewCacheService(
		sc.Cache,
		sc.Logger,
		sc.Config.Notifications.UnreadCacheTTL,
	)

	// Notification Service (fan-out target for posts and comments)
	sc.NotificationService = NewNotificationService(
		sc.Repositories.Notification,
		sc.Repositories.Post,
		sc.Repositories.Comment,
		sc.Repositories.User,
		sc.CacheService,
		sc.EventBus,
		sc.Logger,
	)

	// Post Service
	sc.PostService = NewPostService(
		sc.Repositories.Post,
		sc.NotificationService,
		sc.EventBus,
		sc.Logger,
		DefaultPostConfig(),
	)

	// Comment Service
	sc.CommentService = NewCommentService(
		sc.Repositories.Comment,
		sc.Repositories.Post,
		sc.NotificationService,
		sc.EventBus,
		sc.Logger,
		DefaultCommentConfig(),
	)

	// User Service
	sc.UserService = NewUserService(
		sc.Repositories.User,
		sc.Logger,
	)

	// Reconciler Service
	sc.ReconcilerService = NewReconcilerService(
		sc.Repositories.Post,
		sc.Repositories.Comment,
		sc.EventBus,
		sc.Logger,
	)

	sc.Logger.Info("All services initialized")
	return nil
}

// initializeMonitoring sets up monitoring and health checks
func (sc *ServiceCollection) initializeMonitoring() error {
	sc.Logger.Info("Initializing monitoring")

	if hc, ok := sc.CacheService.(HealthChecker); ok {
		sc.registerHealthChecker(hc)
	}

	if sc.Config.IsProduction() {
		go sc.startHealthCheckMonitoring()
		go sc.startMetricsCollection()
	}

	sc.Logger.Info("Monitoring initialized")
	return nil
}

// ===============================
// SERVICE ACCESS METHODS
// ===============================

// GetUserService returns the user service
func (sc *ServiceCollection) GetUserService() UserService {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.UserService
}

// GetPostService returns the post service
func (sc *ServiceCollection) GetPostService() PostService {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.PostService
}

// GetCommentService returns the comment service
func (sc *ServiceCollection) GetCommentService() CommentService {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.CommentService
}

// GetNotificationService returns the notification service
func (sc *ServiceCollection) GetNotificationService() NotificationService {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.NotificationService
}

// GetReconcilerService returns the counter reconciler
func (sc *ServiceCollection) GetReconcilerService() ReconcilerService {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.ReconcilerService
}

// GetCacheService returns the cache service
func (sc *ServiceCollection) GetCacheService() CacheService {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.CacheService
}

// ===============================
// HEALTH AND MONITORING
// ===============================

// HealthCheck performs comprehensive health check of all services
func (sc *ServiceCollection) HealthCheck(ctx context.Context) (*ServiceHealth, error) {
	sc.Logger.Debug("Performing service collection health check")

	health := &ServiceHealth{
		Status:       "healthy",
		Timestamp:    time.Now(),
		Services:     make(map[string]ServiceStatus),
		Dependencies: make(map[string]ServiceStatus),
		Uptime:       time.Since(sc.metrics.StartTime),
		Issues:       []string{},
	}

	// Check database connectivity
	dbStatus := sc.checkDatabaseHealth(ctx)
	health.Dependencies["database"] = dbStatus
	if dbStatus.Status != "healthy" {
		health.Status = "degraded"
		health.Issues = append(health.Issues, fmt.Sprintf("Database: %s", dbStatus.Error))
	}

	// Check cache connectivity
	cacheStatus := sc.checkCacheHealth(ctx)
	health.Dependencies["cache"] = cacheStatus
	if cacheStatus.Status != "healthy" {
		health.Status = "degraded"
		health.Issues = append(health.Issues, fmt.Sprintf("Cache: %s", cacheStatus.Error))
	}

	// Check individual services
	healthyCount := 0
	totalCount := 0

	for name, checker := range sc.healthCheckers {
		totalCount++
		status := sc.checkServiceHealth(ctx, checker)
		health.Services[name] = status

		if status.Status == "healthy" {
			healthyCount++
		} else {
			if health.Status == "healthy" {
				health.Status = "degraded"
			}
			health.Issues = append(health.Issues, fmt.Sprintf("%s: %s", name, status.Error))
		}
	}

	health.TotalServices = totalCount
	health.HealthyServices = healthyCount

	if len(health.Issues) == 0 {
		health.Status = "healthy"
	} else if healthyCount > totalCount/2 {
		health.Status = "degraded"
	} else {
		health.Status = "unhealthy"
	}

	sc.metrics.mu.Lock()
	sc.metrics.LastHealthCheck = time.Now()
	sc.metrics.mu.Unlock()

	sc.Logger.Debug("Health check completed",
		zap.String("status", health.Status),
		zap.Int("healthy_services", healthyCount),
		zap.Int("total_services", totalCount),
		zap.Int("issues", len(health.Issues)),
	)

	return health, nil
}

// GetMetrics returns service collection metrics
func (sc *ServiceCollection) GetMetrics(ctx context.Context) (*ServiceMetrics, error) {
	sc.metrics.mu.RLock()
	defer sc.metrics.mu.RUnlock()

	// Copy to avoid racing with RecordRequest
	metrics := &ServiceMetrics{
		StartTime:           sc.metrics.StartTime,
		TotalRequests:       sc.metrics.TotalRequests,
		SuccessfulRequests:  sc.metrics.SuccessfulRequests,
		FailedRequests:      sc.metrics.FailedRequests,
		AverageResponseTime: sc.metrics.AverageResponseTime,
		ServiceMetrics:      make(map[string]interface{}),
		LastHealthCheck:     sc.metrics.LastHealthCheck,
	}

	for k, v := range sc.metrics.ServiceMetrics {
		metrics.ServiceMetrics[k] = v
	}

	if sc.Cache != nil {
		if stats, err := sc.Cache.Stats(ctx); err == nil {
			metrics.ServiceMetrics["cache"] = stats
		}
	}

	if sc.DBManager != nil {
		metrics.ServiceMetrics["database"] = sc.DBManager.Metrics()
	}

	if sc.EventBus != nil {
		metrics.ServiceMetrics["events"] = sc.EventBus.Stats()
	}

	return metrics, nil
}

// subscribeActivityLog attaches the audit listener that writes one log
// line per domain event. Runs off the request path via the bus workers.
func (sc *ServiceCollection) subscribeActivityLog() {
	handler := events.NewHandlerFunc("activity-log", func(ctx context.Context, event events.Event) error {
		fields := []zap.Field{
			zap.String("event_id", event.EventID()),
			zap.String("event_type", event.EventType()),
			zap.Time("occurred_at", event.OccurredAt()),
		}
		if actor := event.Actor(); actor != nil {
			fields = append(fields, zap.Int64("user_id", *actor))
		}
		sc.Logger.Info("Activity", fields...)
		return nil
	})

	if err := sc.EventBus.Subscribe(events.WildcardType, handler); err != nil {
		sc.Logger.Warn("Failed to subscribe activity log", zap.Error(err))
	}
}

// ===============================
// SERVICE LIFECYCLE MANAGEMENT
// ===============================

// Start starts background services and monitoring
func (sc *ServiceCollection) Start(ctx context.Context) error {
	if !sc.initialized {
		return fmt.Errorf("service collection not initialized")
	}

	sc.Logger.Info("Starting service collection")

	if err := sc.EventBus.Start(ctx); err != nil {
		return fmt.Errorf("failed to start event bus: %w", err)
	}
	sc.subscribeActivityLog()

	go sc.startHealthCheckMonitoring()
	go sc.startMetricsCollection()

	if sc.Config.Features.EnableNotifications {
		go sc.startNotificationCleanup()
	}

	sc.Logger.Info("Service collection started successfully")
	return nil
}

// Shutdown gracefully shuts down all services
func (sc *ServiceCollection) Shutdown(ctx context.Context) error {
	sc.Logger.Info("Shutting down service collection")

	close(sc.shutdown)

	var shutdownErrors []error

	if sc.EventBus != nil {
		if err := sc.EventBus.Stop(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("event bus shutdown: %w", err))
		}
	}

	// Wait for background processes to finish
	done := make(chan struct{})
	go func() {
		sc.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		sc.Logger.Info("All background processes stopped")
	case <-ctx.Done():
		sc.Logger.Warn("Shutdown timeout exceeded")
		shutdownErrors = append(shutdownErrors, fmt.Errorf("shutdown timeout exceeded"))
	}

	if sc.Cache != nil {
		if err := sc.Cache.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("cache close: %w", err))
		}
	}

	if sc.DBManager != nil {
		if err := sc.DBManager.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("database close: %w", err))
		}
	}

	if len(shutdownErrors) > 0 {
		sc.Logger.Error("Errors occurred during shutdown",
			zap.Int("error_count", len(shutdownErrors)),
		)
		return fmt.Errorf("shutdown completed with %d errors", len(shutdownErrors))
	}

	sc.Logger.Info("Service collection shutdown completed successfully")
	return nil
}

// ===============================
// PRIVATE HELPER METHODS
// ===============================

// registerHealthChecker registers a health checker
func (sc *ServiceCollection) registerHealthChecker(hc HealthChecker) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.healthCheckers[hc.ServiceName()] = hc
}

// checkServiceHealth checks the health of an individual service
func (sc *ServiceCollection) checkServiceHealth(ctx context.Context, checker HealthChecker) ServiceStatus {
	start := time.Now()

	status := ServiceStatus{
		Name:      checker.ServiceName(),
		Status:    "healthy",
		LastCheck: start,
		Metadata:  make(map[string]interface{}),
	}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := checker.HealthCheck(checkCtx); err != nil {
		status.Status = "unhealthy"
		status.Error = err.Error()
	}

	status.ResponseTime = time.Since(start)

	return status
}

// checkDatabaseHealth checks database connectivity
func (sc *ServiceCollection) checkDatabaseHealth(ctx context.Context) ServiceStatus {
	start := time.Now()
	status := ServiceStatus{
		Name:      "database",
		Status:    "healthy",
		LastCheck: start,
	}

	if err := sc.DBManager.DB().PingContext(ctx); err != nil {
		status.Status = "unhealthy"
		status.Error = err.Error()
	}

	status.ResponseTime = time.Since(start)
	return status
}

// checkCacheHealth checks cache connectivity
func (sc *ServiceCollection) checkCacheHealth(ctx context.Context) ServiceStatus {
	start := time.Now()
	status := ServiceStatus{
		Name:      "cache",
		Status:    "healthy",
		LastCheck: start,
	}

	testKey := "health_check_test"
	testValue := "ok"

	if err := sc.Cache.Set(ctx, testKey, testValue, 1*time.Minute); err != nil {
		status.Status = "unhealthy"
		status.Error = fmt.Sprintf("cache set failed: %v", err)
	} else {
		if _, found := sc.Cache.Get(ctx, testKey); !found {
			status.Status = "unhealthy"
			status.Error = "cache get failed"
		}
		sc.Cache.Delete(ctx, testKey)
	}

	status.ResponseTime = time.Since(start)
	return status
}

// startHealthCheckMonitoring starts background health check monitoring
func (sc *ServiceCollection) startHealthCheckMonitoring() {
	sc.wg.Add(1)
	defer sc.wg.Done()

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			health, err := sc.HealthCheck(ctx)
			cancel()

			if err != nil {
				sc.Logger.Error("Health check failed", zap.Error(err))
			} else if health.Status != "healthy" {
				sc.Logger.Warn("Service health degraded",
					zap.String("status", health.Status),
					zap.Strings("issues", health.Issues),
				)
			}

		case <-sc.shutdown:
			sc.Logger.Info("Health check monitoring stopped")
			return
		}
	}
}

// startMetricsCollection starts background metrics collection
func (sc *ServiceCollection) startMetricsCollection() {
	sc.wg.Add(1)
	defer sc.wg.Done()

	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			metrics, err := sc.GetMetrics(ctx)
			cancel()

			if err != nil {
				sc.Logger.Error("Metrics collection failed", zap.Error(err))
			} else {
				sc.Logger.Debug("Metrics collected",
					zap.Int64("total_requests", metrics.TotalRequests),
					zap.Int64("successful_requests", metrics.SuccessfulRequests),
					zap.Duration("avg_response_time", metrics.AverageResponseTime),
				)
			}

		case <-sc.shutdown:
			sc.Logger.Info("Metrics collection stopped")
			return
		}
	}
}

// startNotificationCleanup prunes read notifications past the retention window.
func (sc *ServiceCollection) startNotificationCleanup() {
	sc.wg.Add(1)
	defer sc.wg.Done()

	ticker := time.NewTicker(sc.Config.Notifications.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
			deleted, err := sc.Repositories.CleanupOldNotifications(ctx, sc.Config.Notifications.Retention)
			cancel()

			if err != nil {
				sc.Logger.Error("Notification cleanup failed", zap.Error(err))
			} else if deleted > 0 {
				sc.Logger.Info("Old notifications pruned",
					zap.Int64("deleted", deleted),
				)
			}

		case <-sc.shutdown:
			sc.Logger.Info("Notification cleanup stopped")
			return
		}
	}
}

// getServiceCount returns the total number of initialized services
func (sc *ServiceCollection) getServiceCount() int {
	count := 0

	if sc.UserService != nil {
		count++
	}
	if sc.PostService != nil {
		count++
	}
	if sc.CommentService != nil {
		count++
	}
	if sc.NotificationService != nil {
		count++
	}
	if sc.ReconcilerService != nil {
		count++
	}
	if sc.CacheService != nil {
		count++
	}

	return count
}

// ===============================
// METRICS TRACKING
// ===============================

// RecordRequest records a service request for metrics
func (sc *ServiceCollection) RecordRequest(successful bool, responseTime time.Duration) {
	sc.metrics.mu.Lock()
	defer sc.metrics.mu.Unlock()

	sc.metrics.TotalRequests++
	if successful {
		sc.metrics.SuccessfulRequests++
	} else {
		sc.metrics.FailedRequests++
	}

	// Simple moving average
	if sc.metrics.AverageResponseTime == 0 {
		sc.metrics.AverageResponseTime = responseTime
	} else {
		sc.metrics.AverageResponseTime = (sc.metrics.AverageResponseTime + responseTime) / 2
	}
}

// IsInitialized returns whether the service collection is fully initialized
func (sc *ServiceCollection) IsInitialized() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.initialized
}

// GetLogger returns the logger instance
func (sc *ServiceCollection) GetLogger() *zap.Logger {
	return sc.Logger
}

// GetConfig returns the configuration instance
func (sc *ServiceCollection) GetConfig() *config.Config {
	return sc.Config
}
