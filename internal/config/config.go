package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"golang.org/x/text/language"

	"github.com/couchcryptid/accident-risk-service/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers     []string
	KafkaSourceTopic string
	KafkaSinkTopic   string
	KafkaGroupID     string
	HTTPAddr         string
	LogLevel         string
	LogFormat        string
	ShutdownTimeout  time.Duration

	BatchSize          int
	BatchFlushInterval time.Duration

	// Accidents API configuration.
	AccidentsAPIURL     string
	AccidentsAPITimeout time.Duration
	PredictionCacheSize int

	// Report output configuration.
	ReportOutputDir    string
	ReportLocale       language.Tag
	ReportIncludeTiers domain.TierSet
	ReportDBPath       string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	apiTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("ACCIDENTS_API_TIMEOUT", "10s"))
	if err != nil || apiTimeout <= 0 {
		return nil, errors.New("invalid ACCIDENTS_API_TIMEOUT")
	}

	cacheSize, err := parsePredictionCacheSize()
	if err != nil {
		return nil, err
	}

	locale, err := language.Parse(sharedcfg.EnvOrDefault("REPORT_LOCALE", "en"))
	if err != nil {
		return nil, fmt.Errorf("invalid REPORT_LOCALE: %w", err)
	}

	tiers, err := domain.ParseTierSet(os.Getenv("REPORT_INCLUDE_TIERS"))
	if err != nil {
		return nil, fmt.Errorf("invalid REPORT_INCLUDE_TIERS: %w", err)
	}

	cfg := &Config{
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   sharedcfg.EnvOrDefault("KAFKA_SOURCE_TOPIC", "report-requests"),
		KafkaSinkTopic:     sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "report-ready"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "accident-risk-report"),
		HTTPAddr:           sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,

		AccidentsAPIURL:     sharedcfg.EnvOrDefault("ACCIDENTS_API_URL", "http://localhost:8000/api"),
		AccidentsAPITimeout: apiTimeout,
		PredictionCacheSize: cacheSize,

		ReportOutputDir:    sharedcfg.EnvOrDefault("REPORT_OUTPUT_DIR", "reports"),
		ReportLocale:       locale,
		ReportIncludeTiers: tiers,
		ReportDBPath:       sharedcfg.EnvOrDefault("REPORT_DB_PATH", "reports.db"),
	}

	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if cfg.KafkaSourceTopic == "" {
		return nil, errors.New("KAFKA_SOURCE_TOPIC is required")
	}
	if cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required")
	}
	switch cfg.LogFormat {
	case "json", "text", "console", "auto":
	default:
		return nil, fmt.Errorf("invalid LOG_FORMAT %q", cfg.LogFormat)
	}

	return cfg, nil
}

// ReportDefaults returns the report options every request starts from.
func (c *Config) ReportDefaults() domain.ReportOptions {
	return domain.ReportOptions{
		Kind:         domain.DefaultReportKind,
		IncludeTiers: c.ReportIncludeTiers,
		Locale:       c.ReportLocale,
	}
}

func parsePredictionCacheSize() (int, error) {
	s := os.Getenv("PREDICTION_CACHE_SIZE")
	if s == "" {
		return 1000, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid PREDICTION_CACHE_SIZE %q: must be a positive integer", s)
	}
	return n, nil
}
