package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/accident-risk-service/internal/domain"
)

const defaultBroker = "localhost:9092"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{defaultBroker}, cfg.KafkaBrokers)
	assert.Equal(t, "report-requests", cfg.KafkaSourceTopic)
	assert.Equal(t, "report-ready", cfg.KafkaSinkTopic)
	assert.Equal(t, "accident-risk-report", cfg.KafkaGroupID)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 50, cfg.BatchSize)
	assert.Equal(t, 500*time.Millisecond, cfg.BatchFlushInterval)
	assert.Equal(t, "http://localhost:8000/api", cfg.AccidentsAPIURL)
	assert.Equal(t, 10*time.Second, cfg.AccidentsAPITimeout)
	assert.Equal(t, 1000, cfg.PredictionCacheSize)
	assert.Equal(t, "reports", cfg.ReportOutputDir)
	assert.Equal(t, "en", cfg.ReportLocale.String())
	assert.Nil(t, cfg.ReportIncludeTiers)
	assert.Equal(t, "reports.db", cfg.ReportDBPath)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_SOURCE_TOPIC", "custom-source")
	t.Setenv("KAFKA_SINK_TOPIC", "custom-sink")
	t.Setenv("KAFKA_GROUP_ID", "custom-group")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("BATCH_SIZE", "100")
	t.Setenv("BATCH_FLUSH_INTERVAL", "1s")
	t.Setenv("ACCIDENTS_API_URL", "https://accidents.example.com/api")
	t.Setenv("ACCIDENTS_API_TIMEOUT", "3s")
	t.Setenv("PREDICTION_CACHE_SIZE", "500")
	t.Setenv("REPORT_OUTPUT_DIR", "/var/reports")
	t.Setenv("REPORT_LOCALE", "es-PE")
	t.Setenv("REPORT_INCLUDE_TIERS", "high,medium")
	t.Setenv("REPORT_DB_PATH", "/var/lib/reports.db")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-source", cfg.KafkaSourceTopic)
	assert.Equal(t, "custom-sink", cfg.KafkaSinkTopic)
	assert.Equal(t, "custom-group", cfg.KafkaGroupID)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 100, cfg.BatchSize)
	assert.Equal(t, 1*time.Second, cfg.BatchFlushInterval)
	assert.Equal(t, "https://accidents.example.com/api", cfg.AccidentsAPIURL)
	assert.Equal(t, 3*time.Second, cfg.AccidentsAPITimeout)
	assert.Equal(t, 500, cfg.PredictionCacheSize)
	assert.Equal(t, "/var/reports", cfg.ReportOutputDir)
	assert.Equal(t, "es-PE", cfg.ReportLocale.String())
	assert.Equal(t, domain.NewTierSet(domain.TierHigh, domain.TierMedium), cfg.ReportIncludeTiers)
	assert.Equal(t, "/var/lib/reports.db", cfg.ReportDBPath)
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_NegativeShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "-1s")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_InvalidBatchSize(t *testing.T) {
	t.Setenv("BATCH_SIZE", "0")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BATCH_SIZE")
}

func TestLoad_BatchSizeTooLarge(t *testing.T) {
	t.Setenv("BATCH_SIZE", "9999")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BATCH_SIZE")
}

func TestLoad_InvalidBatchFlushInterval(t *testing.T) {
	t.Setenv("BATCH_FLUSH_INTERVAL", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BATCH_FLUSH_INTERVAL")
}

func TestLoad_InvalidAPITimeout(t *testing.T) {
	t.Setenv("ACCIDENTS_API_TIMEOUT", "bad")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ACCIDENTS_API_TIMEOUT")
}

func TestLoad_InvalidLocale(t *testing.T) {
	t.Setenv("REPORT_LOCALE", "not a locale!")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REPORT_LOCALE")
}

func TestLoad_InvalidIncludeTiers(t *testing.T) {
	t.Setenv("REPORT_INCLUDE_TIERS", "high,extreme")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REPORT_INCLUDE_TIERS")
}

func TestLoad_InvalidLogFormat(t *testing.T) {
	t.Setenv("LOG_FORMAT", "xml")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LOG_FORMAT")
}

func TestLoad_InvalidPredictionCacheSize(t *testing.T) {
	for _, v := range []string{"abc", "0", "-5"} {
		t.Run(v, func(t *testing.T) {
			t.Setenv("PREDICTION_CACHE_SIZE", v)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "PREDICTION_CACHE_SIZE")
		})
	}
}

func TestConfig_ReportDefaults(t *testing.T) {
	t.Setenv("REPORT_INCLUDE_TIERS", "low")
	cfg, err := Load()
	require.NoError(t, err)

	opts := cfg.ReportDefaults()
	assert.Equal(t, domain.DefaultReportKind, opts.Kind)
	assert.True(t, opts.IncludeTiers.Includes(domain.TierLow))
	assert.False(t, opts.IncludeTiers.Includes(domain.TierHigh))
}
