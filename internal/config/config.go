package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"metricsgw/internal/models"

	"gopkg.in/yaml.v3"
)

// Load loads configuration from file and environment variables
func Load(configPath string) (*models.Config, error) {
	// Start with default configuration
	config := models.NewDefaultConfig()

	// Load from file if provided and exists
	if configPath != "" {
		if err := loadFromFile(config, configPath); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// Override with environment variables
	loadFromEnvironment(config)

	config.Admission.Normalize()

	// Validate the final configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// loadFromFile loads configuration from a YAML file
func loadFromFile(config *models.Config, filePath string) error {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return fmt.Errorf("config file not found: %s", filePath)
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse YAML config: %w", err)
	}
	return nil
}

// loadFromEnvironment loads configuration from environment variables
func loadFromEnvironment(config *models.Config) {
	// Server configuration
	if port := os.Getenv("METRICSGW_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if host := os.Getenv("METRICSGW_HOST"); host != "" {
		config.Server.Host = host
	}

	if timeout := os.Getenv("METRICSGW_READ_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.Server.ReadTimeout = d
		}
	}

	if timeout := os.Getenv("METRICSGW_WRITE_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.Server.WriteTimeout = d
		}
	}

	if timeout := os.Getenv("METRICSGW_IDLE_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.Server.IdleTimeout = d
		}
	}

	if tls := os.Getenv("METRICSGW_TLS_ENABLED"); tls != "" {
		config.Server.TLSEnabled = strings.ToLower(tls) == "true"
	}

	if certFile := os.Getenv("METRICSGW_TLS_CERT_FILE"); certFile != "" {
		config.Server.TLSCertFile = certFile
	}

	if keyFile := os.Getenv("METRICSGW_TLS_KEY_FILE"); keyFile != "" {
		config.Server.TLSKeyFile = keyFile
	}

	// Sink configuration
	if sinkType := os.Getenv("METRICSGW_SINK_TYPE"); sinkType != "" {
		config.Sink.Type = sinkType
	}

	if dsn := os.Getenv("METRICSGW_DATABASE_DSN"); dsn != "" {
		config.Sink.Database.DSN = dsn
	}

	if maxOpen := os.Getenv("METRICSGW_DATABASE_MAX_OPEN_CONNS"); maxOpen != "" {
		if conns, err := strconv.Atoi(maxOpen); err == nil {
			config.Sink.Database.MaxOpenConns = conns
		}
	}

	if maxIdle := os.Getenv("METRICSGW_DATABASE_MAX_IDLE_CONNS"); maxIdle != "" {
		if conns, err := strconv.Atoi(maxIdle); err == nil {
			config.Sink.Database.MaxIdleConns = conns
		}
	}

	if uri := os.Getenv("METRICSGW_MONGO_URI"); uri != "" {
		config.Sink.Mongo.URI = uri
	}

	if db := os.Getenv("METRICSGW_MONGO_DATABASE"); db != "" {
		config.Sink.Mongo.Database = db
	}

	if coll := os.Getenv("METRICSGW_MONGO_COLLECTION"); coll != "" {
		config.Sink.Mongo.Collection = coll
	}

	// Security configuration
	if secret := os.Getenv("METRICSGW_HMAC_SECRET"); secret != "" {
		config.Security.HMACSecret = secret
	}

	if header := os.Getenv("METRICSGW_SIGNATURE_HEADER"); header != "" {
		config.Security.SignatureHeader = header
	}

	// Admission configuration
	if capacity := os.Getenv("METRICSGW_RESERVOIR_CAPACITY"); capacity != "" {
		if c, err := strconv.ParseInt(capacity, 10, 64); err == nil {
			config.Admission.Capacity = c
		}
	}

	if interval := os.Getenv("METRICSGW_REFILL_INTERVAL"); interval != "" {
		if d, err := time.ParseDuration(interval); err == nil {
			config.Admission.RefillInterval = d
		}
	}

	if amount := os.Getenv("METRICSGW_REFILL_AMOUNT"); amount != "" {
		if a, err := strconv.ParseInt(amount, 10, 64); err == nil {
			config.Admission.RefillAmount = a
		}
	}

	if spacing := os.Getenv("METRICSGW_MIN_SPACING"); spacing != "" {
		if d, err := time.ParseDuration(spacing); err == nil {
			config.Admission.MinSpacing = d
		}
	}

	if penalty := os.Getenv("METRICSGW_PENALTY_DURATION"); penalty != "" {
		if d, err := time.ParseDuration(penalty); err == nil {
			config.Admission.PenaltyDuration = d
		}
	}

	if idle := os.Getenv("METRICSGW_IDLE_THRESHOLD"); idle != "" {
		if d, err := time.ParseDuration(idle); err == nil {
			config.Admission.IdleThreshold = d
		}
	}

	if sweep := os.Getenv("METRICSGW_SWEEP_INTERVAL"); sweep != "" {
		if d, err := time.ParseDuration(sweep); err == nil {
			config.Admission.SweepInterval = d
		}
	}

	// Logging configuration
	if level := os.Getenv("METRICSGW_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if format := os.Getenv("METRICSGW_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}

	if output := os.Getenv("METRICSGW_LOG_OUTPUT"); output != "" {
		config.Logging.Output = output
	}

	if filePath := os.Getenv("METRICSGW_LOG_FILE_PATH"); filePath != "" {
		config.Logging.FilePath = filePath
	}

	// Metrics configuration
	if metrics := os.Getenv("METRICSGW_METRICS_ENABLED"); metrics != "" {
		config.Metrics.Enabled = strings.ToLower(metrics) == "true"
	}

	if path := os.Getenv("METRICSGW_METRICS_PATH"); path != "" {
		config.Metrics.Path = path
	}

	if port := os.Getenv("METRICSGW_METRICS_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Metrics.Port = p
		}
	}

	// Observability configuration
	if name := os.Getenv("METRICSGW_SERVICE_NAME"); name != "" {
		config.Observability.ServiceName = name
	}

	if tracing := os.Getenv("METRICSGW_TRACING_ENABLED"); tracing != "" {
		config.Observability.Tracing.Enabled = strings.ToLower(tracing) == "true"
	}

	if exporter := os.Getenv("METRICSGW_TRACING_EXPORTER"); exporter != "" {
		config.Observability.Tracing.Exporter = exporter
	}

	if endpoint := os.Getenv("METRICSGW_OTLP_ENDPOINT"); endpoint != "" {
		config.Observability.Tracing.OTLPEndpoint = endpoint
	}
}

// SaveExample saves an example configuration file
func SaveExample(filePath string) error {
	// Create directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	// Get default config with some example values
	config := models.NewDefaultConfig()

	config.Security.HMACSecret = "your-shared-secret-here"
	config.Sink.Type = models.SinkTypeSQLite
	config.Sink.Database.DSN = "./data/metrics.db"

	// Example TLS configuration
	config.Server.TLSEnabled = false
	config.Server.TLSCertFile = "/path/to/cert.pem"
	config.Server.TLSKeyFile = "/path/to/key.pem"

	// Marshal to YAML
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	// Write to file
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
