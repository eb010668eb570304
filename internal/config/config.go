package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Cache         CacheConfig
	Logging       LoggingConfig
	Notifications NotificationConfig
	Monitoring    MonitoringConfig
	Features      FeatureConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port         string
	Environment  string
	Host         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	TLSEnabled   bool

	GracefulTimeout time.Duration `json:"graceful_timeout"`
	MaxHeaderBytes  int           `json:"max_header_bytes"`
	ServerName      string        `json:"server_name"`
	TrustedProxies  []string      `json:"trusted_proxies"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL                 string
	MaxOpenConns        int
	MaxIdleConns        int
	ConnMaxLifetime     time.Duration
	ConnMaxIdleTime     time.Duration
	SlowQueryThreshold  time.Duration
	EnableQueryLogging  bool
	EnableMetrics       bool
	HealthCheckInterval time.Duration
	MigrationsPath      string

	ConnectTimeout   time.Duration `json:"connect_timeout"`
	StatementTimeout time.Duration `json:"statement_timeout"`
	SSLMode          string        `json:"ssl_mode"` // disable, require, verify-ca, verify-full
	EnableRetries    bool          `json:"enable_retries"`
	MaxRetryAttempts int           `json:"max_retry_attempts"`
	RetryBackoff     time.Duration `json:"retry_backoff"`
}

// CacheConfig holds cache configuration
type CacheConfig struct {
	Provider      string        `json:"provider"` // memory, redis
	RedisURL      string        `json:"redis_url"`
	RedisDB       int           `json:"redis_db"`
	RedisPassword string        `json:"redis_password"`
	PoolSize      int           `json:"pool_size"`
	TTL           time.Duration `json:"ttl"`
	MaxKeys       int           `json:"max_keys"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string
	Format     string
	Output     string
	EnableFile bool
	FilePath   string
	MaxSize    int
	MaxBackups int
	MaxAge     int
}

// NotificationConfig holds notification fan-out configuration
type NotificationConfig struct {
	Retention       time.Duration `json:"retention"`        // how long read notifications are kept
	UnreadCacheTTL  time.Duration `json:"unread_cache_ttl"` // unread-count cache lifetime
	CleanupInterval time.Duration `json:"cleanup_interval"` // background cleanup cadence
	DispatchTimeout time.Duration `json:"dispatch_timeout"` // upper bound per fan-out
}

// MonitoringConfig holds monitoring configuration
type MonitoringConfig struct {
	EnableMetrics      bool          `json:"enable_metrics"`
	HealthCheckPath    string        `json:"health_check_path"`
	ReadinessPath      string        `json:"readiness_path"`
	LivenessPath       string        `json:"liveness_path"`
	CollectionInterval time.Duration `json:"collection_interval"`
}

// FeatureConfig holds feature flags
type FeatureConfig struct {
	EnableNotifications bool `json:"enable_notifications"`
	EnableBestComments  bool `json:"enable_best_comments"`
	EnableReconciler    bool `json:"enable_reconciler"`
	MaintenanceMode     bool `json:"maintenance_mode"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	env := getEnv("GO_ENV", "development")
	if env != "production" {
		envFile := fmt.Sprintf(".env.%s", env)
		if _, err := os.Stat(envFile); err == nil {
			_ = godotenv.Load(envFile)
		} else {
			_ = godotenv.Load() // fallback to .env
		}
	}

	config := &Config{
		Server:        loadServerConfig(env),
		Database:      loadDatabaseConfig(env),
		Cache:         loadCacheConfig(),
		Logging:       loadLoggingConfig(env),
		Notifications: loadNotificationConfig(),
		Monitoring:    loadMonitoringConfig(env),
		Features:      loadFeatureConfig(env),
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

func loadServerConfig(env string) ServerConfig {
	config := ServerConfig{
		Port:         getEnv("PORT", "9000"),
		Environment:  env,
		Host:         getEnv("SERVER_HOST", "0.0.0.0"),
		ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
		WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:  getDurationEnv("SERVER_IDLE_TIMEOUT", 120*time.Second),
		TLSEnabled:   getBoolEnv("TLS_ENABLED", env == "production"),

		GracefulTimeout: getDurationEnv("GRACEFUL_TIMEOUT", 30*time.Second),
		MaxHeaderBytes:  getIntEnv("MAX_HEADER_BYTES", 1<<20), // 1MB
		ServerName:      getEnv("SERVER_NAME", "maumlog"),
	}

	switch env {
	case "production":
		config.TLSEnabled = true
		if trusted := getEnv("TRUSTED_PROXIES", ""); trusted != "" {
			config.TrustedProxies = strings.Split(trusted, ",")
		}
	case "staging":
		config.GracefulTimeout = 20 * time.Second
	default: // development
		config.TLSEnabled = false
		config.GracefulTimeout = 10 * time.Second
	}

	return config
}

func loadDatabaseConfig(env string) DatabaseConfig {
	var defaultMaxOpen, defaultMaxIdle int
	var defaultConnLifetime time.Duration

	switch env {
	case "production":
		defaultMaxOpen = 50
		defaultMaxIdle = 20
		defaultConnLifetime = 15 * time.Minute
	case "staging":
		defaultMaxOpen = 25
		defaultMaxIdle = 10
		defaultConnLifetime = 10 * time.Minute
	default: // development
		defaultMaxOpen = 10
		defaultMaxIdle = 5
		defaultConnLifetime = 5 * time.Minute
	}

	return DatabaseConfig{
		URL:                 os.Getenv("DATABASE_URL"),
		MaxOpenConns:        getIntEnv("DB_MAX_OPEN_CONNS", defaultMaxOpen),
		MaxIdleConns:        getIntEnv("DB_MAX_IDLE_CONNS", defaultMaxIdle),
		ConnMaxLifetime:     getDurationEnv("DB_CONN_MAX_LIFETIME", defaultConnLifetime),
		ConnMaxIdleTime:     getDurationEnv("DB_CONN_MAX_IDLE_TIME", 30*time.Minute),
		SlowQueryThreshold:  getDurationEnv("DB_SLOW_QUERY_THRESHOLD", 100*time.Millisecond),
		EnableQueryLogging:  getBoolEnv("DB_ENABLE_QUERY_LOGGING", env == "development"),
		EnableMetrics:       getBoolEnv("DB_ENABLE_METRICS", true),
		HealthCheckInterval: getDurationEnv("DB_HEALTH_CHECK_INTERVAL", 30*time.Second),
		MigrationsPath:      getEnv("DB_MIGRATIONS_PATH", "./migrations"),

		ConnectTimeout:   getDurationEnv("DB_CONNECT_TIMEOUT", 10*time.Second),
		StatementTimeout: getDurationEnv("DB_STATEMENT_TIMEOUT", 30*time.Second),
		SSLMode:          getEnv("DB_SSL_MODE", getDefaultSSLMode(env)),
		EnableRetries:    getBoolEnv("DB_ENABLE_RETRIES", env == "production"),
		MaxRetryAttempts: getIntEnv("DB_MAX_RETRY_ATTEMPTS", 3),
		RetryBackoff:     getDurationEnv("DB_RETRY_BACKOFF", 1*time.Second),
	}
}

func loadCacheConfig() CacheConfig {
	provider := getEnv("CACHE_PROVIDER", "memory")
	if getEnv("REDIS_URL", "") != "" {
		provider = "redis"
	}

	return CacheConfig{
		Provider:      provider,
		RedisURL:      getEnv("REDIS_URL", ""),
		RedisDB:       getIntEnv("REDIS_DB", 0),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		PoolSize:      getIntEnv("REDIS_POOL_SIZE", 10),
		TTL:           getDurationEnv("CACHE_TTL", 15*time.Minute),
		MaxKeys:       getIntEnv("CACHE_MAX_KEYS", 10000),
	}
}

func loadLoggingConfig(env string) LoggingConfig {
	return LoggingConfig{
		Level:      getEnv("LOG_LEVEL", getDefaultLogLevel(env)),
		Format:     getEnv("LOG_FORMAT", getDefaultLogFormat(env)),
		Output:     getEnv("LOG_OUTPUT", "stdout"),
		EnableFile: getBoolEnv("LOG_ENABLE_FILE", env == "production"),
		FilePath:   getEnv("LOG_FILE_PATH", "/var/log/maumlog/app.log"),
		MaxSize:    getIntEnv("LOG_MAX_SIZE", 100), // MB
		MaxBackups: getIntEnv("LOG_MAX_BACKUPS", 3),
		MaxAge:     getIntEnv("LOG_MAX_AGE", 28), // days
	}
}

func loadNotificationConfig() NotificationConfig {
	return NotificationConfig{
		Retention:       getDurationEnv("NOTIFICATION_RETENTION", 90*24*time.Hour),
		UnreadCacheTTL:  getDurationEnv("NOTIFICATION_UNREAD_CACHE_TTL", 5*time.Minute),
		CleanupInterval: getDurationEnv("NOTIFICATION_CLEANUP_INTERVAL", 24*time.Hour),
		DispatchTimeout: getDurationEnv("NOTIFICATION_DISPATCH_TIMEOUT", 5*time.Second),
	}
}

func loadMonitoringConfig(env string) MonitoringConfig {
	return MonitoringConfig{
		EnableMetrics:      getBoolEnv("ENABLE_METRICS", true),
		HealthCheckPath:    getEnv("HEALTH_CHECK_PATH", "/health"),
		ReadinessPath:      getEnv("READINESS_PATH", "/ready"),
		LivenessPath:       getEnv("LIVENESS_PATH", "/live"),
		CollectionInterval: getDurationEnv("COLLECTION_INTERVAL", 30*time.Second),
	}
}

func loadFeatureConfig(env string) FeatureConfig {
	return FeatureConfig{
		EnableNotifications: getBoolEnv("ENABLE_NOTIFICATIONS", true),
		EnableBestComments:  getBoolEnv("ENABLE_BEST_COMMENTS", true),
		EnableReconciler:    getBoolEnv("ENABLE_RECONCILER", env != "development"),
		MaintenanceMode:     getBoolEnv("MAINTENANCE_MODE", false),
	}
}

// ===============================
// VALIDATION
// ===============================

// Validate validates the entire configuration
func (c *Config) Validate() error {
	if err := c.Database.Validate(); err != nil {
		return fmt.Errorf("database config: %w", err)
	}

	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := c.Cache.Validate(); err != nil {
		return fmt.Errorf("cache config: %w", err)
	}

	if err := c.Notifications.Validate(); err != nil {
		return fmt.Errorf("notification config: %w", err)
	}

	if c.Server.Environment == "production" &&
		strings.Contains(c.Database.URL, "sslmode=disable") {
		return fmt.Errorf("SSL must be enabled for database in production")
	}

	return nil
}

// Validate validates database configuration
func (d *DatabaseConfig) Validate() error {
	if d.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if d.MaxOpenConns <= 0 {
		return fmt.Errorf("MaxOpenConns must be positive")
	}

	if d.MaxIdleConns < 0 {
		return fmt.Errorf("MaxIdleConns cannot be negative")
	}

	if d.MaxIdleConns > d.MaxOpenConns {
		return fmt.Errorf("MaxIdleConns cannot be greater than MaxOpenConns")
	}

	if d.ConnMaxLifetime <= 0 {
		return fmt.Errorf("ConnMaxLifetime must be positive")
	}

	if d.SlowQueryThreshold <= 0 {
		return fmt.Errorf("SlowQueryThreshold must be positive")
	}

	return nil
}

// Validate validates server configuration
func (s *ServerConfig) Validate() error {
	if s.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if s.ReadTimeout <= 0 {
		return fmt.Errorf("ReadTimeout must be positive")
	}

	if s.WriteTimeout <= 0 {
		return fmt.Errorf("WriteTimeout must be positive")
	}

	return nil
}

// Validate validates cache configuration
func (c *CacheConfig) Validate() error {
	if c.Provider != "memory" && c.Provider != "redis" {
		return fmt.Errorf("cache provider must be memory or redis")
	}

	if c.Provider == "redis" && c.RedisURL == "" {
		return fmt.Errorf("REDIS_URL is required when cache provider is redis")
	}

	return nil
}

// Validate validates notification configuration
func (n *NotificationConfig) Validate() error {
	if n.Retention < 24*time.Hour {
		return fmt.Errorf("notification retention must be at least 24 hours")
	}

	if n.UnreadCacheTTL <= 0 {
		return fmt.Errorf("unread cache TTL must be positive")
	}

	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "development"
}

// ParseDatabaseURL breaks DATABASE_URL into its connection parameters.
func (d *DatabaseConfig) ParseDatabaseURL() (map[string]string, error) {
	if d.URL == "" {
		return nil, fmt.Errorf("database URL is empty")
	}

	u, err := url.Parse(d.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid database URL: %w", err)
	}

	params := make(map[string]string)
	params["host"] = u.Hostname()
	params["port"] = u.Port()
	params["database"] = strings.TrimPrefix(u.Path, "/")

	if u.User != nil {
		params["user"] = u.User.Username()
		if password, ok := u.User.Password(); ok {
			params["password"] = password
		}
	}

	for key, values := range u.Query() {
		if len(values) > 0 {
			params[key] = values[0]
		}
	}

	return params, nil
}

// ===============================
// HELPERS
// ===============================

func getDefaultSSLMode(env string) string {
	switch env {
	case "production":
		return "require"
	case "staging":
		return "prefer"
	default:
		return "disable"
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getDefaultLogLevel(env string) string {
	switch env {
	case "production":
		return "info"
	case "staging":
		return "debug"
	default:
		return "debug"
	}
}

func getDefaultLogFormat(env string) string {
	switch env {
	case "production":
		return "json"
	default:
		return "console"
	}
}
