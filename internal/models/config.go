// Package models - Service configuration and operational settings.
// This file defines the configuration structures for all gateway components.
//
// Configuration Philosophy:
// - Hierarchical configuration with logical grouping (server, sink, admission, etc.)
// - Environment-friendly defaults that work out of the box
// - Comprehensive validation to catch misconfigurations early
// - Support for multiple deployment scenarios (development, production, cloud)
package models

import (
	"errors"
	"fmt"
	"time"
)

// Sink type constants
const (
	SinkTypeMemory   = "memory"
	SinkTypeSQLite   = "sqlite"
	SinkTypePostgres = "postgres"
	SinkTypeMongo    = "mongo"
)

// Config is the root configuration structure containing all gateway settings.
//
// Configuration Structure:
// - Server: HTTP server and network settings
// - Sink: Metric persistence configuration
// - Security: HMAC signature verification
// - Admission: Per-client quota, scheduling, and penalty settings
// - Logging: Structured logging and output configuration
// - Metrics: Monitoring and observability endpoint
// - Observability: OpenTelemetry tracing and service identity
type Config struct {
	Server        ServerConfig        `yaml:"server" json:"server"`
	Sink          SinkConfig          `yaml:"sink" json:"sink"`
	Security      SecurityConfig      `yaml:"security" json:"security"`
	Admission     AdmissionConfig     `yaml:"admission" json:"admission"`
	Logging       LoggingConfig       `yaml:"logging" json:"logging"`
	Metrics       MetricsConfig       `yaml:"metrics" json:"metrics"`
	Observability ObservabilityConfig `yaml:"observability" json:"observability"`
}

type ServerConfig struct {
	Port         int           `yaml:"port" json:"port"`
	Host         string        `yaml:"host" json:"host"`
	ReadTimeout  time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" json:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" json:"idle_timeout"`
	TLSEnabled   bool          `yaml:"tls_enabled" json:"tls_enabled"`
	TLSCertFile  string        `yaml:"tls_cert_file" json:"tls_cert_file"`
	TLSKeyFile   string        `yaml:"tls_key_file" json:"tls_key_file"`
}

type SinkConfig struct {
	Type     string         `yaml:"type" json:"type"`
	Database DatabaseConfig `yaml:"database" json:"database"`
	Mongo    MongoConfig    `yaml:"mongo" json:"mongo"`
}

type DatabaseConfig struct {
	DSN             string        `yaml:"dsn" json:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns" json:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns" json:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" json:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time" json:"conn_max_idle_time"`
}

type MongoConfig struct {
	URI        string `yaml:"uri" json:"uri"`
	Database   string `yaml:"database" json:"database"`
	Collection string `yaml:"collection" json:"collection"`
}

type SecurityConfig struct {
	// HMACSecret is the shared secret used to verify batch signatures.
	HMACSecret string `yaml:"hmac_secret" json:"hmac_secret"`

	// SignatureHeader is the request header carrying the hex HMAC-SHA1 digest.
	SignatureHeader string `yaml:"signature_header" json:"signature_header"`
}

// AdmissionConfig holds the per-client quota and scheduling settings. The
// reservoir refills by RefillAmount every RefillInterval up to Capacity; each
// admitted batch consumes its record count from the reservoir.
type AdmissionConfig struct {
	Capacity        int64         `yaml:"capacity" json:"capacity"`
	RefillInterval  time.Duration `yaml:"refill_interval" json:"refill_interval"`
	RefillAmount    int64         `yaml:"refill_amount" json:"refill_amount"`
	MinSpacing      time.Duration `yaml:"min_spacing" json:"min_spacing"`
	PenaltyDuration time.Duration `yaml:"penalty_duration" json:"penalty_duration"`
	IdleThreshold   time.Duration `yaml:"idle_threshold" json:"idle_threshold"`
	SweepInterval   time.Duration `yaml:"sweep_interval" json:"sweep_interval"`
}

type LoggingConfig struct {
	Level      string `yaml:"level" json:"level"`
	Format     string `yaml:"format" json:"format"`
	Output     string `yaml:"output" json:"output"`
	FilePath   string `yaml:"file_path" json:"file_path"`
	MaxSize    int    `yaml:"max_size" json:"max_size"`
	MaxBackups int    `yaml:"max_backups" json:"max_backups"`
	MaxAge     int    `yaml:"max_age" json:"max_age"`
	Compress   bool   `yaml:"compress" json:"compress"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Path    string `yaml:"path" json:"path"`
	Port    int    `yaml:"port" json:"port"`
}

type ObservabilityConfig struct {
	ServiceName string        `yaml:"service_name" json:"service_name"`
	Tracing     TracingConfig `yaml:"tracing" json:"tracing"`
}

type TracingConfig struct {
	Enabled      bool    `yaml:"enabled" json:"enabled"`
	Exporter     string  `yaml:"exporter" json:"exporter"`
	OTLPEndpoint string  `yaml:"otlp_endpoint" json:"otlp_endpoint"`
	SampleRate   float64 `yaml:"sample_rate" json:"sample_rate"`
}

// NewDefaultConfig creates a configuration with production-ready defaults.
//
// Default Values Rationale:
// - Port 8080: Standard non-privileged HTTP port
// - 30-second timeouts: Balance between user experience and resource protection
// - Memory sink: Simple setup without external dependencies
// - Capacity 1000 per hour: conservative ingest budget per client
// - 60-second penalty: slows brute-force signature probing without locking
//   out a legitimate client that fixes its secret
// - 1-hour idle threshold: per-client state is cheap but unbounded growth is not
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         8080,
			Host:         "0.0.0.0",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
			TLSEnabled:   false,
		},
		Sink: SinkConfig{
			Type: SinkTypeMemory,
			Database: DatabaseConfig{
				MaxOpenConns:    25,
				MaxIdleConns:    5,
				ConnMaxLifetime: 5 * time.Minute,
				ConnMaxIdleTime: 5 * time.Minute,
			},
			Mongo: MongoConfig{
				Database:   "metrics",
				Collection: "metrics",
			},
		},
		Security: SecurityConfig{
			SignatureHeader: "X-Metrics-Signature",
		},
		Admission: AdmissionConfig{
			Capacity:        1000,
			RefillInterval:  time.Hour,
			RefillAmount:    1000,
			MinSpacing:      time.Second,
			PenaltyDuration: 60 * time.Second,
			IdleThreshold:   time.Hour,
			SweepInterval:   5 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			Output:     "stdout",
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     28,
			Compress:   true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
			Port:    9090,
		},
		Observability: ObservabilityConfig{
			ServiceName: "metricsgw",
			Tracing: TracingConfig{
				Enabled:    false,
				Exporter:   "stdout",
				SampleRate: 1.0,
			},
		},
	}
}

func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("invalid server config: %w", err)
	}

	if err := c.Sink.Validate(); err != nil {
		return fmt.Errorf("invalid sink config: %w", err)
	}

	if err := c.Security.Validate(); err != nil {
		return fmt.Errorf("invalid security config: %w", err)
	}

	if err := c.Admission.Validate(); err != nil {
		return fmt.Errorf("invalid admission config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("invalid logging config: %w", err)
	}

	if err := c.Metrics.Validate(); err != nil {
		return fmt.Errorf("invalid metrics config: %w", err)
	}

	return nil
}

func (sc *ServerConfig) Validate() error {
	if sc.Port <= 0 || sc.Port > 65535 {
		return errors.New("port must be between 1 and 65535")
	}

	if sc.Host == "" {
		return errors.New("host cannot be empty")
	}

	if sc.ReadTimeout < 0 {
		return errors.New("read timeout cannot be negative")
	}

	if sc.WriteTimeout < 0 {
		return errors.New("write timeout cannot be negative")
	}

	if sc.IdleTimeout < 0 {
		return errors.New("idle timeout cannot be negative")
	}

	if sc.TLSEnabled {
		if sc.TLSCertFile == "" {
			return errors.New("TLS cert file is required when TLS is enabled")
		}
		if sc.TLSKeyFile == "" {
			return errors.New("TLS key file is required when TLS is enabled")
		}
	}

	return nil
}

func (sc *SinkConfig) Validate() error {
	switch sc.Type {
	case SinkTypeMemory:
		// No additional configuration required.
	case SinkTypeSQLite, SinkTypePostgres:
		if sc.Database.DSN == "" {
			return fmt.Errorf("database DSN is required for %s sink", sc.Type)
		}
	case SinkTypeMongo:
		if sc.Mongo.URI == "" {
			return errors.New("mongo URI is required for mongo sink")
		}
		if sc.Mongo.Database == "" {
			return errors.New("mongo database name cannot be empty")
		}
		if sc.Mongo.Collection == "" {
			return errors.New("mongo collection name cannot be empty")
		}
	default:
		return fmt.Errorf("unsupported sink type: %s", sc.Type)
	}
	return nil
}

func (sec *SecurityConfig) Validate() error {
	if sec.HMACSecret == "" {
		return errors.New("hmac secret cannot be empty")
	}
	if sec.SignatureHeader == "" {
		return errors.New("signature header cannot be empty")
	}
	return nil
}

func (ac *AdmissionConfig) Validate() error {
	if ac.Capacity <= 0 {
		return errors.New("capacity must be positive")
	}
	if ac.RefillInterval <= 0 {
		return errors.New("refill interval must be positive")
	}
	if ac.RefillAmount < 0 {
		return errors.New("refill amount cannot be negative")
	}
	if ac.RefillAmount > ac.Capacity {
		return errors.New("refill amount cannot exceed capacity")
	}
	if ac.MinSpacing < 0 {
		return errors.New("min spacing cannot be negative")
	}
	if ac.PenaltyDuration <= 0 {
		return errors.New("penalty duration must be positive")
	}
	if ac.IdleThreshold <= 0 {
		return errors.New("idle threshold must be positive")
	}
	if ac.SweepInterval <= 0 {
		return errors.New("sweep interval must be positive")
	}
	return nil
}

// Normalize fills in derived admission defaults. A zero RefillAmount means
// "refill to capacity", matching the reservoir's original behavior.
func (ac *AdmissionConfig) Normalize() {
	if ac.RefillAmount == 0 {
		ac.RefillAmount = ac.Capacity
	}
}

func (lc *LoggingConfig) Validate() error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[lc.Level] {
		return fmt.Errorf("invalid log level: %s", lc.Level)
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[lc.Format] {
		return fmt.Errorf("invalid log format: %s", lc.Format)
	}

	validOutputs := map[string]bool{"stdout": true, "stderr": true, "file": true}
	if !validOutputs[lc.Output] {
		return fmt.Errorf("invalid log output: %s", lc.Output)
	}

	if lc.Output == "file" && lc.FilePath == "" {
		return errors.New("file path is required when output is file")
	}

	return nil
}

func (mc *MetricsConfig) Validate() error {
	if !mc.Enabled {
		return nil
	}
	if mc.Port <= 0 || mc.Port > 65535 {
		return errors.New("metrics port must be between 1 and 65535")
	}
	if mc.Path == "" {
		return errors.New("metrics path cannot be empty")
	}
	return nil
}
