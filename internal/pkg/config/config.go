package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Stream orders for simulation.stream_order.
const (
	StreamOrderNewestFirst = "newest_first"
	StreamOrderOldestFirst = "oldest_first"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	NATS       NATSConfig       `mapstructure:"nats"`
	Valkey     ValkeyConfig     `mapstructure:"valkey"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry"`
	Temporal   TemporalConfig   `mapstructure:"temporal"`
	Simulation SimulationConfig `mapstructure:"simulation"`
	Log        LogConfig        `mapstructure:"log"`
}

type ServerConfig struct {
	Port          int    `mapstructure:"port"`
	ReadTimeout   int    `mapstructure:"read_timeout"`
	WriteTimeout  int    `mapstructure:"write_timeout"`
	AllowShutdown bool   `mapstructure:"allow_shutdown"`
	DocsPath      string `mapstructure:"docs_path"`
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
}

type ValkeyConfig struct {
	Addr string `mapstructure:"addr"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

type TemporalConfig struct {
	HostPort  string `mapstructure:"host_port"`
	Namespace string `mapstructure:"namespace"`
	TaskQueue string `mapstructure:"task_queue"`
}

// SimulationConfig drives voyage generation and the AIS stream.
type SimulationConfig struct {
	PortsCSV        string  `mapstructure:"ports_csv"`
	NumVessels      int     `mapstructure:"num_vessels"`
	SpeedKnots      float64 `mapstructure:"speed_knots"`
	IntervalSeconds int     `mapstructure:"interval_seconds"`
	// SpeedFactor divides the sample interval between stream frames.
	// -1 streams without pausing.
	SpeedFactor  float64 `mapstructure:"speed_factor"`
	StreamPort   int     `mapstructure:"stream_port"`
	StreamURL    string  `mapstructure:"stream_url"`
	StreamOrder  string  `mapstructure:"stream_order"`
	MaxSegmentNM float64 `mapstructure:"max_segment_nm"`
	BatchSize    int     `mapstructure:"batch_size"`
}

// Interval returns the sample interval as a duration.
func (s SimulationConfig) Interval() time.Duration {
	return time.Duration(s.IntervalSeconds) * time.Second
}

// FrameDelay is the pause between stream frames, zero when unpaced.
func (s SimulationConfig) FrameDelay() time.Duration {
	if s.SpeedFactor <= 0 {
		return 0
	}
	return time.Duration(float64(s.Interval()) / s.SpeedFactor)
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("server.allow_shutdown", false)
	v.SetDefault("server.docs_path", "api/openapi.yaml")
	v.SetDefault("database.user", "aissim")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "aissim")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", true)
	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "aissim-voyages")
	v.SetDefault("simulation.ports_csv", "data/ports.csv")
	v.SetDefault("simulation.num_vessels", 1)
	v.SetDefault("simulation.speed_knots", 10.0)
	v.SetDefault("simulation.interval_seconds", 300)
	v.SetDefault("simulation.speed_factor", 1000.0)
	v.SetDefault("simulation.stream_port", 8765)
	v.SetDefault("simulation.stream_url", "ws://localhost:8765/ws/ais")
	v.SetDefault("simulation.stream_order", StreamOrderNewestFirst)
	v.SetDefault("simulation.max_segment_nm", 50.0)
	v.SetDefault("simulation.batch_size", 500)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: AISSIM_DATABASE_HOST → database.host
	v.SetEnvPrefix("AISSIM")
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

	sim := c.Simulation
	if sim.NumVessels < 0 {
		errs = append(errs, "simulation.num_vessels must not be negative")
	}
	if sim.SpeedKnots <= 0 {
		errs = append(errs, "simulation.speed_knots must be positive")
	}
	if sim.IntervalSeconds <= 0 {
		errs = append(errs, "simulation.interval_seconds must be positive")
	}
	if sim.SpeedFactor != -1 && sim.SpeedFactor <= 0 {
		errs = append(errs, fmt.Sprintf("simulation.speed_factor must be positive or -1, got %v", sim.SpeedFactor))
	}
	if sim.StreamPort <= 0 || sim.StreamPort > 65535 {
		errs = append(errs, fmt.Sprintf("simulation.stream_port must be 1-65535, got %d", sim.StreamPort))
	}
	if sim.StreamOrder != StreamOrderNewestFirst && sim.StreamOrder != StreamOrderOldestFirst {
		errs = append(errs, fmt.Sprintf("simulation.stream_order must be %q or %q, got %q", StreamOrderNewestFirst, StreamOrderOldestFirst, sim.StreamOrder))
	}
	if sim.BatchSize <= 0 {
		errs = append(errs, "simulation.batch_size must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
