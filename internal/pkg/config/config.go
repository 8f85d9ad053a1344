package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/samirrijal/stepwise/internal/core/navigation"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	NATS       NATSConfig       `mapstructure:"nats"`
	Valkey     ValkeyConfig     `mapstructure:"valkey"`
	Temporal   TemporalConfig   `mapstructure:"temporal"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Navigation NavigationConfig `mapstructure:"navigation"`
	Storage    StorageConfig    `mapstructure:"storage"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
	// SubscribeSamples enables the JetStream sample consumer in the API.
	SubscribeSamples bool `mapstructure:"subscribe_samples"`
}

type ValkeyConfig struct {
	Addr string `mapstructure:"addr"`
}

type TemporalConfig struct {
	HostPort  string `mapstructure:"host_port"`
	Namespace string `mapstructure:"namespace"`
	TaskQueue string `mapstructure:"task_queue"`
	Enabled   bool   `mapstructure:"enabled"`
	// CaregiverWebhook receives safety alerts from the escalation worker.
	CaregiverWebhook string `mapstructure:"caregiver_webhook"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	// File, when set, receives a rotated copy of the log stream.
	File string `mapstructure:"file"`
}

// NavigationConfig calibrates every navigation session the service runs.
type NavigationConfig struct {
	AdvanceThreshold   float64       `mapstructure:"advance_threshold"`
	AlignmentThreshold float64       `mapstructure:"alignment_threshold"`
	StepLength         float64       `mapstructure:"step_length"`
	PaceScale          float64       `mapstructure:"pace_scale"`
	SmoothingWindow    int           `mapstructure:"smoothing_window"`
	GeofenceMode       string        `mapstructure:"geofence_mode"`
	SessionTTL         time.Duration `mapstructure:"session_ttl"`
	MaxSessions        int           `mapstructure:"max_sessions"`
}

// Tuning converts the section into session calibration.
func (n NavigationConfig) Tuning() (navigation.Tuning, error) {
	mode, err := navigation.ParseAlertMode(n.GeofenceMode)
	if err != nil {
		return navigation.Tuning{}, err
	}
	return navigation.Tuning{
		AdvanceThreshold:   n.AdvanceThreshold,
		AlignmentThreshold: n.AlignmentThreshold,
		StepLength:         n.StepLength,
		PaceScale:          n.PaceScale,
		SmoothingWindow:    n.SmoothingWindow,
		GeofenceMode:       mode,
	}, nil
}

type StorageConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Region    string `mapstructure:"region"`
}

// Load reads configuration from .env, file and environment variables.
func Load(service string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("could not read .env", "error", err)
	}

	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "stepwise")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "stepwise")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.subscribe_samples", true)
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "safety-alerts")
	v.SetDefault("temporal.enabled", false)
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", true)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("navigation.advance_threshold", 7.0)
	v.SetDefault("navigation.alignment_threshold", 15.0)
	v.SetDefault("navigation.step_length", 0.75)
	v.SetDefault("navigation.pace_scale", 1.5)
	v.SetDefault("navigation.smoothing_window", 1)
	v.SetDefault("navigation.geofence_mode", "edge")
	v.SetDefault("navigation.session_ttl", 30*time.Minute)
	v.SetDefault("navigation.max_sessions", 10000)
	v.SetDefault("storage.region", "us-east-1")

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: STEPWISE_DATABASE_HOST → database.host
	v.SetEnvPrefix("STEPWISE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Database.Host == "" {
		errs = append(errs, "database.host is required")
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", c.Database.Port))
	}
	if c.Database.User == "" {
		errs = append(errs, "database.user is required")
	}
	if c.Database.DBName == "" {
		errs = append(errs, "database.dbname is required")
	}
	if c.NATS.URL == "" {
		errs = append(errs, "nats.url is required")
	}
	if c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required")
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Temporal.Enabled && c.Temporal.TaskQueue == "" {
		errs = append(errs, "temporal.task_queue is required when temporal is enabled")
	}

	n := c.Navigation
	if n.AdvanceThreshold <= 0 {
		errs = append(errs, "navigation.advance_threshold must be positive")
	}
	if n.AlignmentThreshold <= 0 || n.AlignmentThreshold >= 180 {
		errs = append(errs, fmt.Sprintf("navigation.alignment_threshold must be in (0, 180), got %v", n.AlignmentThreshold))
	}
	if n.StepLength <= 0 {
		errs = append(errs, "navigation.step_length must be positive")
	}
	if n.PaceScale <= 0 {
		errs = append(errs, "navigation.pace_scale must be positive")
	}
	if n.SmoothingWindow < 1 {
		errs = append(errs, "navigation.smoothing_window must be at least 1")
	}
	switch strings.ToLower(n.GeofenceMode) {
	case "", "edge", "level":
	default:
		errs = append(errs, fmt.Sprintf("navigation.geofence_mode must be edge or level, got %q", n.GeofenceMode))
	}
	if n.SessionTTL <= 0 {
		errs = append(errs, "navigation.session_ttl must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
