package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "data/perimeters/window_perimeters.ndjson", cfg.PerimetersPath)
	assert.Equal(t, "data/calfire_data/california_fire_perimeters.geojson", cfg.ReferencePath)
	assert.Equal(t, "dashboard/dashboard_data", cfg.OutputDir)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Empty(t, cfg.PushgatewayURL)
	assert.False(t, cfg.KafkaEnabled)
	assert.Equal(t, "fire-records", cfg.KafkaTopic)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("FIRE_ETL_OUTPUT_DIR", "/tmp/dashboard")
	t.Setenv("FIRE_ETL_LOG_LEVEL", "debug")
	t.Setenv("FIRE_ETL_KAFKA_ENABLED", "true")
	t.Setenv("FIRE_ETL_KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092")
	t.Setenv("FIRE_ETL_KAFKA_TOPIC", "fires")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/dashboard", cfg.OutputDir)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Brokers())
	assert.Equal(t, "fires", cfg.KafkaTopic)

	// Untouched keys keep their defaults.
	assert.Equal(t, "data/perimeters/window_perimeters.ndjson", cfg.PerimetersPath)
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "output_dir: /data/out\nlog_format: text\npushgateway_url: http://pushgw:9091\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("FIRE_ETL_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/data/out", cfg.OutputDir)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "http://pushgw:9091", cfg.PushgatewayURL)
}

func TestLoad_EnvBeatsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("output_dir: /from/file\n"), 0o644))
	t.Setenv("FIRE_ETL_CONFIG", path)
	t.Setenv("FIRE_ETL_OUTPUT_DIR", "/from/env")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/from/env", cfg.OutputDir)
}

func TestLoad_MissingConfigFile(t *testing.T) {
	t.Setenv("FIRE_ETL_CONFIG", filepath.Join(t.TempDir(), "absent.yaml"))

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_Validation(t *testing.T) {
	cases := []struct {
		name    string
		key     string
		value   string
		wantErr string
	}{
		{"empty perimeters path", "FIRE_ETL_PERIMETERS_PATH", "", "perimeters_path"},
		{"empty reference path", "FIRE_ETL_REFERENCE_PATH", "", "reference_path"},
		{"empty output dir", "FIRE_ETL_OUTPUT_DIR", "", "output_dir"},
		{"kafka without brokers", "FIRE_ETL_KAFKA_ENABLED", "true", "kafka_brokers"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestLoad_KafkaWithoutTopic(t *testing.T) {
	t.Setenv("FIRE_ETL_KAFKA_ENABLED", "true")
	t.Setenv("FIRE_ETL_KAFKA_BROKERS", "kafka-1:9092")
	t.Setenv("FIRE_ETL_KAFKA_TOPIC", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kafka_topic")
}

func TestBrokers(t *testing.T) {
	cases := []struct {
		name  string
		value string
		want  []string
	}{
		{"empty", "", nil},
		{"single", "kafka:9092", []string{"kafka:9092"}},
		{"multiple with spaces", "a:9092, b:9092 ,c:9092", []string{"a:9092", "b:9092", "c:9092"}},
		{"trailing comma", "a:9092,", []string{"a:9092"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Config{KafkaBrokers: tc.value}
			assert.Equal(t, tc.want, cfg.Brokers())
		})
	}
}
