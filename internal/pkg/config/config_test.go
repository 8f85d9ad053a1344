package config

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/samirrijal/stepwise/internal/core/navigation"
)

func TestLoad_DefaultsAndEnv(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("STEPWISE_NAVIGATION_ADVANCE_THRESHOLD", "10")
	t.Setenv("STEPWISE_NAVIGATION_SESSION_TTL", "5m")

	cfg, err := Load("stepwise-test")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Navigation.AdvanceThreshold != 10 {
		t.Errorf("advance_threshold = %v; want 10 from env", cfg.Navigation.AdvanceThreshold)
	}
	if cfg.Navigation.SessionTTL != 5*time.Minute {
		t.Errorf("session_ttl = %v; want 5m", cfg.Navigation.SessionTTL)
	}
	if cfg.Navigation.AlignmentThreshold != 15 || cfg.Navigation.StepLength != 0.75 || cfg.Navigation.PaceScale != 1.5 {
		t.Errorf("navigation defaults not applied: %+v", cfg.Navigation)
	}
	if cfg.Telemetry.ServiceName != "stepwise-test" {
		t.Errorf("service name = %q", cfg.Telemetry.ServiceName)
	}
}

func validConfig() Config {
	return Config{
		Server:   ServerConfig{Port: 8080, ReadTimeout: 10, WriteTimeout: 10},
		Database: DatabaseConfig{Host: "localhost", Port: 5432, User: "stepwise", DBName: "stepwise"},
		NATS:     NATSConfig{URL: "nats://localhost:4222"},
		Valkey:   ValkeyConfig{Addr: "localhost:6379"},
		Navigation: NavigationConfig{
			AdvanceThreshold:   7,
			AlignmentThreshold: 15,
			StepLength:         0.75,
			PaceScale:          1.5,
			SmoothingWindow:    1,
			GeofenceMode:       "edge",
			SessionTTL:         time.Minute,
		},
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		errSub string
	}{
		{"valid", func(*Config) {}, ""},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"no nats", func(c *Config) { c.NATS.URL = "" }, "nats.url"},
		{"zero threshold", func(c *Config) { c.Navigation.AdvanceThreshold = 0 }, "advance_threshold"},
		{"wide alignment", func(c *Config) { c.Navigation.AlignmentThreshold = 180 }, "alignment_threshold"},
		{"bad mode", func(c *Config) { c.Navigation.GeofenceMode = "sometimes" }, "geofence_mode"},
		{"temporal without queue", func(c *Config) { c.Temporal.Enabled = true }, "task_queue"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.errSub == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.errSub) {
				t.Fatalf("expected error mentioning %q, got %v", tc.errSub, err)
			}
		})
	}
}

func TestValidate_AggregatesErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Host = ""
	cfg.Navigation.StepLength = 0
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "database.host") || !strings.Contains(err.Error(), "step_length") {
		t.Fatalf("expected both problems reported, got %v", err)
	}
}

func TestNavigationTuning(t *testing.T) {
	n := NavigationConfig{
		AdvanceThreshold:   5,
		AlignmentThreshold: 20,
		StepLength:         0.7,
		PaceScale:          1.2,
		SmoothingWindow:    4,
		GeofenceMode:       "Level",
	}
	tuning, err := n.Tuning()
	if err != nil {
		t.Fatalf("Tuning: %v", err)
	}
	if tuning.AdvanceThreshold != 5 || tuning.SmoothingWindow != 4 || tuning.GeofenceMode != navigation.AlertLevel {
		t.Errorf("unexpected tuning %+v", tuning)
	}

	n.GeofenceMode = "sometimes"
	if _, err := n.Tuning(); err == nil {
		t.Error("expected error for unknown geofence mode")
	}
}
