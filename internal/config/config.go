// Package config defines the export job's settings, layered from defaults, an
// optional YAML file, and FIRE_ETL_-prefixed environment variables.
package config

import (
	"errors"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all job settings.
type Config struct {
	// PerimetersPath is the predicted-window NDJSON dataset.
	PerimetersPath string `koanf:"perimeters_path"`

	// ReferencePath is the CAL FIRE reference GeoJSON FeatureCollection.
	ReferencePath string `koanf:"reference_path"`

	// OutputDir receives perimeters/<fire_id>.json and fire_data.json.
	OutputDir string `koanf:"output_dir"`

	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects json or text output.
	LogFormat string `koanf:"log_format"`

	// PushgatewayURL, when set, receives the run's metrics after export.
	PushgatewayURL string `koanf:"pushgateway_url"`

	// Kafka publishing of assembled fire records (optional).
	KafkaEnabled bool   `koanf:"kafka_enabled"`
	KafkaBrokers string `koanf:"kafka_brokers"` // comma-separated
	KafkaTopic   string `koanf:"kafka_topic"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		PerimetersPath: "data/perimeters/window_perimeters.ndjson",
		ReferencePath:  "data/calfire_data/california_fire_perimeters.geojson",
		OutputDir:      "dashboard/dashboard_data",
		LogLevel:       "info",
		LogFormat:      "json",
		KafkaTopic:     "fire-records",
	}
}

// Load builds a Config by layering defaults, an optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if FIRE_ETL_CONFIG is set
//  3. env (prefix FIRE_ETL_)
func Load() (*Config, error) {
	k := koanf.New(".")

	if path := os.Getenv("FIRE_ETL_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	// Environment variables: FIRE_ETL_OUTPUT_DIR -> output_dir, etc.
	envProvider := env.Provider("FIRE_ETL_", ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, "fire_etl_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, err
	}

	cfg := *New()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, err
	}

	if cfg.PerimetersPath == "" {
		return nil, errors.New("perimeters_path must not be empty")
	}
	if cfg.ReferencePath == "" {
		return nil, errors.New("reference_path must not be empty")
	}
	if cfg.OutputDir == "" {
		return nil, errors.New("output_dir must not be empty")
	}
	if cfg.KafkaEnabled && len(cfg.Brokers()) == 0 {
		return nil, errors.New("kafka_enabled is true but kafka_brokers is not set")
	}
	if cfg.KafkaEnabled && cfg.KafkaTopic == "" {
		return nil, errors.New("kafka_enabled is true but kafka_topic is not set")
	}

	return &cfg, nil
}

// Brokers splits the comma-separated broker list, dropping empty entries.
func (c *Config) Brokers() []string {
	var brokers []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
