package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	GRPC      GRPCConfig      `yaml:"grpc"`
	HTTP      HTTPConfig      `yaml:"http"`
	Auth      AuthConfig      `yaml:"auth"`
	Redis     RedisConfig     `yaml:"redis"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Log       LogConfig       `yaml:"log"`
	Schedule  ScheduleConfig  `yaml:"schedule"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// DatabaseConfig contains database-related settings.
type DatabaseConfig struct {
	Path string `yaml:"path"` // SQLite database file path
}

// GRPCConfig contains gRPC server settings.
type GRPCConfig struct {
	Address string `yaml:"address"` // gRPC server listen address (e.g., ":50051")
}

// HTTPConfig contains the HTTP API settings. An empty address disables the listener.
type HTTPConfig struct {
	Address string `yaml:"address"`
}

// AuthConfig contains authentication settings.
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"` // JWT signing secret
}

// RedisConfig enables the distributed drone lock and event fan-out when Addr is set.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	LockTTL  time.Duration `yaml:"lock_ttl"`
	Channel  string        `yaml:"channel"`
}

type MetricsConfig struct {
	Address string `yaml:"address"`
}

type LogConfig struct {
	Env   string `yaml:"env"`
	Level string `yaml:"level"`
}

// ScheduleConfig describes the operating day and the maintenance policy.
type ScheduleConfig struct {
	OpeningHour     int    `yaml:"opening_hour"`
	ClosingHour     int    `yaml:"closing_hour"`
	SlotMinutes     int    `yaml:"slot_minutes"`
	ReviewThreshold int    `yaml:"review_threshold"`
	Timezone        string `yaml:"timezone"`
}

// RateLimitConfig bounds incoming RPCs server-wide. A zero RPS disables limiting.
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

func defaults() *Config {
	return &Config{
		Database: DatabaseConfig{Path: "schedule.db"},
		GRPC:     GRPCConfig{Address: ":50051"},
		HTTP:     HTTPConfig{Address: ":8080"},
		Redis:    RedisConfig{LockTTL: 5 * time.Second, Channel: "schedule"},
		Metrics:  MetricsConfig{Address: ":9090"},
		Log:      LogConfig{Env: "production", Level: "info"},
		Schedule: ScheduleConfig{
			OpeningHour:     8,
			ClosingHour:     18,
			SlotMinutes:     15,
			ReviewThreshold: 80,
			Timezone:        "UTC",
		},
		RateLimit: RateLimitConfig{RPS: 100, Burst: 200},
	}
}

// Load loads configuration from defaults, an optional CONFIG_FILE and environment variables.
func Load() (*Config, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}

	// Validate critical settings
	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is not set; required for production")
	}
	return cfg, nil
}

// LoadWithDefaults is like Load but uses a safe default for JWT_SECRET in development.
// WARNING: Only use in development! Use Load() in production.
func LoadWithDefaults() (*Config, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	if cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = "dev-secret-change-me"
	}
	return cfg, nil
}

func load() (*Config, error) {
	cfg := defaults()
	if path := getEnv("CONFIG_FILE", ""); path != "" {
		if err := cfg.overlayFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.overlayEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) overlayFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) overlayEnv() error {
	c.Database.Path = getEnv("DB_PATH", c.Database.Path)
	c.GRPC.Address = getEnv("GRPC_ADDRESS", c.GRPC.Address)
	c.HTTP.Address = getEnv("HTTP_ADDRESS", c.HTTP.Address)
	c.Auth.JWTSecret = getEnv("JWT_SECRET", c.Auth.JWTSecret)
	c.Redis.Addr = getEnv("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getEnv("REDIS_PASSWORD", c.Redis.Password)
	c.Metrics.Address = getEnv("METRICS_ADDRESS", c.Metrics.Address)
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Env = getEnv("APP_ENV", c.Log.Env)
	c.Schedule.Timezone = getEnv("SCHEDULE_TIMEZONE", c.Schedule.Timezone)

	ints := []struct {
		key string
		dst *int
	}{
		{"REDIS_DB", &c.Redis.DB},
		{"SCHEDULE_OPENING_HOUR", &c.Schedule.OpeningHour},
		{"SCHEDULE_CLOSING_HOUR", &c.Schedule.ClosingHour},
		{"SCHEDULE_SLOT_MINUTES", &c.Schedule.SlotMinutes},
		{"SCHEDULE_REVIEW_THRESHOLD", &c.Schedule.ReviewThreshold},
	}
	for _, it := range ints {
		v, err := getEnvInt(it.key, *it.dst)
		if err != nil {
			return err
		}
		*it.dst = v
	}
	return nil
}

// Validate checks the operating window and the slot width.
func (c *Config) Validate() error {
	s := c.Schedule
	if s.OpeningHour < 0 || s.ClosingHour > 24 || s.OpeningHour >= s.ClosingHour {
		return fmt.Errorf("invalid operating window %02d:00-%02d:00", s.OpeningHour, s.ClosingHour)
	}
	if s.SlotMinutes <= 0 || ((s.ClosingHour-s.OpeningHour)*60)%s.SlotMinutes != 0 {
		return fmt.Errorf("slot width of %d minutes does not divide the operating window", s.SlotMinutes)
	}
	if s.ReviewThreshold <= 0 {
		return errors.New("review threshold must be positive")
	}
	if _, err := time.LoadLocation(s.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", s.Timezone, err)
	}
	return nil
}

// getEnv retrieves an environment variable with a default fallback.
func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

// getEnvInt retrieves an environment variable as an integer with a default fallback.
func getEnvInt(key string, defaultVal int) (int, error) {
	if value, exists := os.LookupEnv(key); exists {
		intVal, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid integer for %s: %w", key, err)
		}
		return intVal, nil
	}
	return defaultVal, nil
}

// String returns a string representation of the config (sensitive values are masked).
func (c *Config) String() string {
	redis := "disabled"
	if c.Redis.Addr != "" {
		redis = c.Redis.Addr
	}
	return fmt.Sprintf("Config{DB: %s, gRPC: %s, HTTP: %s, Redis: %s, Day: %02d:00-%02d:00/%dm %s, Auth: *** (masked) ***}",
		c.Database.Path, c.GRPC.Address, c.HTTP.Address, redis,
		c.Schedule.OpeningHour, c.Schedule.ClosingHour, c.Schedule.SlotMinutes, c.Schedule.Timezone)
}
