package config

import (
	"strings"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("navboard-test")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 5000 {
		t.Errorf("expected port 5000, got %d", cfg.Server.Port)
	}
	if cfg.Storage.Driver != "memory" {
		t.Errorf("expected memory storage, got %q", cfg.Storage.Driver)
	}
	if cfg.Telemetry.ServiceName != "navboard-test" {
		t.Errorf("expected service name from argument, got %q", cfg.Telemetry.ServiceName)
	}
	start := cfg.Robot.Start()
	if start.Lat != 44.96945 || start.Lng != -93.5174 {
		t.Errorf("unexpected start pose %v", start)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("NAVBOARD_SERVER_PORT", "6001")
	t.Setenv("NAVBOARD_STORAGE_DRIVER", "postgres")
	t.Setenv("NAVBOARD_ROBOT_DELTA_LAT", "0.5")

	cfg, err := Load("navboard")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 6001 {
		t.Errorf("expected port 6001, got %d", cfg.Server.Port)
	}
	if cfg.Storage.Driver != "postgres" {
		t.Errorf("expected postgres, got %q", cfg.Storage.Driver)
	}
	if cfg.Robot.Delta().Lat != 0.5 {
		t.Errorf("expected delta lat 0.5, got %v", cfg.Robot.Delta().Lat)
	}
}

func validConfig() Config {
	return Config{
		Server:   ServerConfig{Port: 5000, ReadTimeout: 10, WriteTimeout: 10, RateLimit: 60},
		Storage:  StorageConfig{Driver: "memory"},
		Paths:    PathsConfig{ZonesFile: "z.json", MissionDir: "m", ExportDir: "e"},
		Board:    BoardConfig{RequestTimeout: 5},
		Robot:    RobotConfig{StartLat: 44.9, StartLng: -93.5, IntervalMS: 1000},
		Database: DatabaseConfig{Host: "db", Port: 5432, User: "u", DBName: "n"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"bad driver", func(c *Config) { c.Storage.Driver = "sqlite" }, "storage.driver"},
		{"postgres needs host", func(c *Config) {
			c.Storage.Driver = "postgres"
			c.Database.Host = ""
		}, "database.host"},
		{"nats url", func(c *Config) {
			c.NATS.Enabled = true
		}, "nats.url"},
		{"temporal", func(c *Config) {
			c.Temporal.Enabled = true
		}, "temporal.host_port"},
		{"robot range", func(c *Config) { c.Robot.StartLat = 120 }, "robot start"},
		{"exporter", func(c *Config) {
			c.Telemetry.Enabled = true
			c.Telemetry.Exporter = "zipkin"
		}, "telemetry.exporter"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}
