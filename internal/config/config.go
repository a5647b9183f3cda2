// Package config loads runtime settings from environment variables,
// falling back to local-development defaults.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment variable names read by Load.
const (
	EnvPort            = "PORT"
	EnvDBHost          = "DB_HOST"
	EnvDBPort          = "DB_PORT"
	EnvDBUser          = "DB_USER"
	EnvDBPassword      = "DB_PASSWORD"
	EnvDBName          = "DB_NAME"
	EnvDBSSLMode       = "DB_SSLMODE"
	EnvDBMaxConns      = "DB_MAX_CONNS"
	EnvStudioTimezone  = "STUDIO_TIMEZONE"
	EnvLogLevel        = "LOG_LEVEL"
	EnvLogFormat       = "LOG_FORMAT"
	EnvKafkaBrokers    = "KAFKA_BROKERS"
	EnvKafkaTopic      = "KAFKA_TOPIC"
	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"
	EnvPublishTimeout  = "KAFKA_PUBLISH_TIMEOUT"
)

// Defaults applied when a variable is unset or empty.
const (
	DefaultPort            = "8080"
	DefaultStudioTimezone  = "Asia/Kolkata"
	DefaultKafkaTopic      = "studio.bookings"
	DefaultDBMaxConns      = 20
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
	DefaultPublishTimeout  = 2 * time.Second
)

// Database holds PostgreSQL connection settings.
type Database struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int32
}

// DSN builds a libpq-compatible connection string.
func (d Database) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

// Config is the fully resolved runtime configuration.
type Config struct {
	Port string
	DB   Database

	// StudioTimezone is the zone assumed for class times submitted
	// without an offset.
	StudioTimezone string
	StudioLocation *time.Location

	LogLevel  string
	LogFormat string

	KafkaBrokers []string
	KafkaTopic   string
	// PublishTimeout bounds each booking event write.
	PublishTimeout time.Duration

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// Load reads the environment and validates the result. Values that fail to
// parse are reported alongside validation problems rather than silently
// replaced by defaults.
func Load() (*Config, error) {
	env := &envReader{}
	cfg := &Config{
		Port: getEnv(EnvPort, DefaultPort),
		DB: Database{
			Host:     getEnv(EnvDBHost, "localhost"),
			Port:     getEnv(EnvDBPort, "5432"),
			User:     getEnv(EnvDBUser, "postgres"),
			Password: getEnv(EnvDBPassword, "postgres"),
			Name:     getEnv(EnvDBName, "studio"),
			SSLMode:  getEnv(EnvDBSSLMode, "disable"),
			MaxConns: env.int32(EnvDBMaxConns, DefaultDBMaxConns),
		},
		StudioTimezone:  getEnv(EnvStudioTimezone, DefaultStudioTimezone),
		LogLevel:        getEnv(EnvLogLevel, "info"),
		LogFormat:       getEnv(EnvLogFormat, "json"),
		KafkaBrokers:    getEnvList(EnvKafkaBrokers),
		KafkaTopic:      getEnv(EnvKafkaTopic, DefaultKafkaTopic),
		PublishTimeout:  env.duration(EnvPublishTimeout, DefaultPublishTimeout),
		ReadTimeout:     env.duration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    env.duration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     env.duration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: env.duration(EnvShutdownTimeout, DefaultShutdownTimeout),
	}

	problems := append(env.problems, cfg.problems()...)
	if len(problems) > 0 {
		return nil, invalid(problems)
	}
	return cfg, nil
}

// Validate checks every setting and reports all problems at once.
// It also resolves StudioLocation.
func (c *Config) Validate() error {
	if problems := c.problems(); len(problems) > 0 {
		return invalid(problems)
	}
	return nil
}

func (c *Config) problems() []string {
	var problems []string

	if port, err := strconv.Atoi(c.Port); err != nil || port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("PORT must be between 1 and 65535, got: %q", c.Port))
	}
	if c.DB.Host == "" {
		problems = append(problems, "DB_HOST cannot be empty")
	}
	if c.DB.Name == "" {
		problems = append(problems, "DB_NAME cannot be empty")
	}
	if c.DB.MaxConns <= 0 {
		problems = append(problems, fmt.Sprintf("DB_MAX_CONNS must be positive, got: %d", c.DB.MaxConns))
	}

	loc, err := loadStudioLocation(c.StudioTimezone)
	if err != nil {
		problems = append(problems, err.Error())
	} else {
		c.StudioLocation = loc
	}

	if len(c.KafkaBrokers) > 0 && c.KafkaTopic == "" {
		problems = append(problems, "KAFKA_TOPIC cannot be empty when KAFKA_BROKERS is set")
	}

	for _, d := range []struct {
		name  string
		value time.Duration
	}{
		{EnvPublishTimeout, c.PublishTimeout},
		{EnvReadTimeout, c.ReadTimeout},
		{EnvWriteTimeout, c.WriteTimeout},
		{EnvIdleTimeout, c.IdleTimeout},
		{EnvShutdownTimeout, c.ShutdownTimeout},
	} {
		if d.value <= 0 {
			problems = append(problems, fmt.Sprintf("%s must be positive, got: %s", d.name, d.value))
		}
	}

	return problems
}

func invalid(problems []string) error {
	return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
}

func loadStudioLocation(name string) (*time.Location, error) {
	if name == "" || name == "Local" {
		return nil, fmt.Errorf("STUDIO_TIMEZONE must be an IANA zone name, got: %q", name)
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("STUDIO_TIMEZONE %q is not a known zone: %v", name, err)
	}
	return loc, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envReader parses typed variables and records every value it could not
// parse, so Load can report them together.
type envReader struct {
	problems []string
}

func (r *envReader) int32(key string, fallback int32) int32 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 32)
	if err != nil {
		r.problems = append(r.problems, fmt.Sprintf("%s must be a 32-bit integer, got: %q", key, v))
		return fallback
	}
	return int32(n)
}

func (r *envReader) duration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		r.problems = append(r.problems, fmt.Sprintf("%s must be a duration such as 15s, got: %q", key, v))
		return fallback
	}
	return d
}

func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
