package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/navboard/navboard/internal/core/domain"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Database  DatabaseConfig  `mapstructure:"database"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Temporal  TemporalConfig  `mapstructure:"temporal"`
	Paths     PathsConfig     `mapstructure:"paths"`
	Board     BoardConfig     `mapstructure:"board"`
	Robot     RobotConfig     `mapstructure:"robot"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Port           int    `mapstructure:"port"`
	ReadTimeout    int    `mapstructure:"read_timeout"`
	WriteTimeout   int    `mapstructure:"write_timeout"`
	RateLimit      int    `mapstructure:"rate_limit"` // requests per minute per IP
	MaxPending     int    `mapstructure:"max_pending"`
	AllowedOrigins string `mapstructure:"allowed_origins"`
}

// StorageConfig selects where waypoints and missions live.
type StorageConfig struct {
	Driver string `mapstructure:"driver"` // memory | postgres
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
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
}

type ValkeyConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Exporter    string `mapstructure:"exporter"` // otlp | stdout
	Enabled     bool   `mapstructure:"enabled"`
}

type TemporalConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	HostPort  string `mapstructure:"host_port"`
	Namespace string `mapstructure:"namespace"`
	TaskQueue string `mapstructure:"task_queue"`
}

type PathsConfig struct {
	StaticDir  string `mapstructure:"static_dir"`
	ZonesFile  string `mapstructure:"zones_file"`
	MissionDir string `mapstructure:"mission_dir"`
	ExportDir  string `mapstructure:"export_dir"`
}

// BoardConfig configures the console control board client.
type BoardConfig struct {
	BackendURL     string `mapstructure:"backend_url"`
	RequestTimeout int    `mapstructure:"request_timeout"` // seconds
	ConsoleHistory int    `mapstructure:"console_history"`
	ConsoleHeight  int    `mapstructure:"console_height"`
}

func (b BoardConfig) Timeout() time.Duration {
	return time.Duration(b.RequestTimeout) * time.Second
}

// RobotConfig is the start pose and the simulator step.
type RobotConfig struct {
	StartLat   float64 `mapstructure:"start_lat"`
	StartLng   float64 `mapstructure:"start_lng"`
	Heading    float64 `mapstructure:"heading"`
	DeltaLat   float64 `mapstructure:"delta_lat"`
	DeltaLng   float64 `mapstructure:"delta_lng"`
	IntervalMS int     `mapstructure:"interval_ms"`
}

func (r RobotConfig) Start() domain.RobotPose {
	return domain.RobotPose{
		GeoPoint: domain.GeoPoint{Lat: r.StartLat, Lng: r.StartLng},
		Heading:  r.Heading,
	}
}

func (r RobotConfig) Delta() domain.GeoPoint {
	return domain.GeoPoint{Lat: r.DeltaLat, Lng: r.DeltaLng}
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("server.rate_limit", 600)
	v.SetDefault("server.max_pending", 64)
	v.SetDefault("server.allowed_origins", "*")
	v.SetDefault("storage.driver", "memory")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "navboard")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "navboard")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("nats.enabled", false)
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.enabled", false)
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.exporter", "otlp")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("temporal.enabled", false)
	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "navboard-missions")
	v.SetDefault("paths.static_dir", "./static")
	v.SetDefault("paths.zones_file", "./static/zones/default_keepout_zones.json")
	v.SetDefault("paths.mission_dir", "./data/missions")
	v.SetDefault("paths.export_dir", "./data/exports")
	v.SetDefault("board.backend_url", "http://localhost:5000")
	v.SetDefault("board.request_timeout", 10)
	v.SetDefault("board.console_history", 1000)
	v.SetDefault("board.console_height", 20)
	v.SetDefault("robot.start_lat", 44.96945)
	v.SetDefault("robot.start_lng", -93.5174)
	v.SetDefault("robot.heading", 0)
	v.SetDefault("robot.delta_lat", 0.0001)
	v.SetDefault("robot.delta_lng", 0.0001)
	v.SetDefault("robot.interval_ms", 1000)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: NAVBOARD_SERVER_PORT → server.port
	v.SetEnvPrefix("NAVBOARD")
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
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Server.RateLimit <= 0 {
		errs = append(errs, "server.rate_limit must be positive")
	}

	switch c.Storage.Driver {
	case "memory":
	case "postgres":
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
	default:
		errs = append(errs, fmt.Sprintf("storage.driver must be memory or postgres, got %q", c.Storage.Driver))
	}

	if c.NATS.Enabled && c.NATS.URL == "" {
		errs = append(errs, "nats.url is required")
	}
	if c.Valkey.Enabled && c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required")
	}
	if c.Temporal.Enabled && (c.Temporal.HostPort == "" || c.Temporal.TaskQueue == "") {
		errs = append(errs, "temporal.host_port and temporal.task_queue are required")
	}
	if c.Telemetry.Enabled && c.Telemetry.Exporter != "otlp" && c.Telemetry.Exporter != "stdout" {
		errs = append(errs, fmt.Sprintf("telemetry.exporter must be otlp or stdout, got %q", c.Telemetry.Exporter))
	}

	if c.Paths.ZonesFile == "" || c.Paths.ExportDir == "" || c.Paths.MissionDir == "" {
		errs = append(errs, "paths.zones_file, paths.mission_dir and paths.export_dir are required")
	}

	if c.Board.RequestTimeout <= 0 {
		errs = append(errs, "board.request_timeout must be positive")
	}
	if c.Robot.StartLat < -90 || c.Robot.StartLat > 90 || c.Robot.StartLng < -180 || c.Robot.StartLng > 180 {
		errs = append(errs, "robot start position is out of range")
	}
	if c.Robot.IntervalMS <= 0 {
		errs = append(errs, "robot.interval_ms must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
