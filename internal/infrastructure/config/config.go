package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App          AppConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	Log          LogConfig
	HTTP         HTTPConfig
	Delist       DelistConfig
	Archive      ArchiveConfig
	Notification NotificationConfig
	Marketplaces map[string]MarketplaceConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int
	MaxBodySize    int64
	TrustedProxies []string
}

// DelistConfig holds auto-delisting behavior settings
type DelistConfig struct {
	// Delay is the grace period between a sale and sibling delisting
	Delay time.Duration
	// SweepInterval is how often the retirement sweep runs
	SweepInterval time.Duration
	// BatchSize caps rows picked up per sweep
	BatchSize int
	// Workers is the sweep concurrency
	Workers int
	// RetryCooldown is the minimum wait between attempts for one row
	RetryCooldown time.Duration
	// MaxAttempts parks a row as failed once exceeded
	MaxAttempts int
	// AdapterTimeout bounds each marketplace call
	AdapterTimeout time.Duration
}

// ArchiveConfig holds archival sweep settings
type ArchiveConfig struct {
	// Enabled toggles the archival sweep
	Enabled bool
	// Retention is how long sold listings stay before archival
	Retention time.Duration
	// SweepInterval is how often the archival sweep runs
	SweepInterval time.Duration
	// BatchSize caps rows archived per sweep
	BatchSize int
}

// NotificationConfig holds notification emission settings
type NotificationConfig struct {
	// RedisEnabled toggles publishing to the redis channel
	RedisEnabled bool
	// Channel is the redis pub/sub channel name
	Channel string
	// PublishTimeout bounds each publish call
	PublishTimeout time.Duration
}

// MarketplaceConfig holds per-marketplace adapter settings
type MarketplaceConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with CROSSLIST_ prefix (e.g., CROSSLIST_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("CROSSLIST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:    v.GetDuration("http.read_timeout"),
			WriteTimeout:   v.GetDuration("http.write_timeout"),
			IdleTimeout:    v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes: v.GetInt("http.max_header_bytes"),
			MaxBodySize:    v.GetInt64("http.max_body_size"),
			TrustedProxies: v.GetStringSlice("http.trusted_proxies"),
		},
		Delist: DelistConfig{
			Delay:          v.GetDuration("delist.delay"),
			SweepInterval:  v.GetDuration("delist.sweep_interval"),
			BatchSize:      v.GetInt("delist.batch_size"),
			Workers:        v.GetInt("delist.workers"),
			RetryCooldown:  v.GetDuration("delist.retry_cooldown"),
			MaxAttempts:    v.GetInt("delist.max_attempts"),
			AdapterTimeout: v.GetDuration("delist.adapter_timeout"),
		},
		Archive: ArchiveConfig{
			Enabled:       v.GetBool("archive.enabled"),
			Retention:     v.GetDuration("archive.retention"),
			SweepInterval: v.GetDuration("archive.sweep_interval"),
			BatchSize:     v.GetInt("archive.batch_size"),
		},
		Notification: NotificationConfig{
			RedisEnabled:   v.GetBool("notification.redis_enabled"),
			Channel:        v.GetString("notification.channel"),
			PublishTimeout: v.GetDuration("notification.publish_timeout"),
		},
		Marketplaces: loadMarketplaces(v),
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadMarketplaces reads the [marketplaces.<code>] tables.
func loadMarketplaces(v *viper.Viper) map[string]MarketplaceConfig {
	out := make(map[string]MarketplaceConfig)
	for code := range v.GetStringMap("marketplaces") {
		prefix := "marketplaces." + code
		out[strings.ToUpper(code)] = MarketplaceConfig{
			BaseURL: v.GetString(prefix + ".base_url"),
			APIKey:  v.GetString(prefix + ".api_key"),
			Timeout: v.GetDuration(prefix + ".timeout"),
		}
	}
	return out
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "crosslist-backend"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "crosslist"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 1 << 20 // 1MB
	}
	if cfg.Delist.Delay == 0 {
		cfg.Delist.Delay = 15 * time.Minute
	}
	if cfg.Delist.SweepInterval == 0 {
		cfg.Delist.SweepInterval = time.Minute
	}
	if cfg.Delist.BatchSize == 0 {
		cfg.Delist.BatchSize = 100
	}
	if cfg.Delist.Workers == 0 {
		cfg.Delist.Workers = 5
	}
	if cfg.Delist.RetryCooldown == 0 {
		cfg.Delist.RetryCooldown = 5 * time.Minute
	}
	if cfg.Delist.MaxAttempts == 0 {
		cfg.Delist.MaxAttempts = 10
	}
	if cfg.Delist.AdapterTimeout == 0 {
		cfg.Delist.AdapterTimeout = 10 * time.Second
	}
	if cfg.Archive.Retention == 0 {
		cfg.Archive.Retention = 30 * 24 * time.Hour
	}
	if cfg.Archive.SweepInterval == 0 {
		cfg.Archive.SweepInterval = time.Hour
	}
	if cfg.Archive.BatchSize == 0 {
		cfg.Archive.BatchSize = 200
	}
	if cfg.Notification.Channel == "" {
		cfg.Notification.Channel = "crosslist:notifications"
	}
	if cfg.Notification.PublishTimeout == 0 {
		cfg.Notification.PublishTimeout = 2 * time.Second
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	if c.Delist.Delay < 0 {
		return fmt.Errorf("delist.delay cannot be negative")
	}
	if c.Delist.MaxAttempts < 0 {
		return fmt.Errorf("delist.max_attempts cannot be negative")
	}
	if c.Archive.Retention <= 0 {
		return fmt.Errorf("archive.retention must be positive")
	}

	if c.App.Env == "production" {
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		for code, m := range c.Marketplaces {
			if m.APIKey == "" {
				return fmt.Errorf("marketplaces.%s.api_key is required in production", strings.ToLower(code))
			}
		}
	}

	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// Addr returns the redis host:port address
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}
