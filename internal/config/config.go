// Package config provides configuration for the ml-service.
// It reads a YAML file with environment variable overrides and .env support.
package config

import (
	"time"
)

// Default configuration values.
const (
	defaultServiceName        = "ml-service"
	defaultServiceVersion     = "1.0.0"
	defaultServicePort        = 8001
	defaultConcurrency        = 10
	defaultBatchLimit         = 100
	defaultBatchRPS           = 50
	defaultModelsDir          = "models"
	defaultLogLevel           = "info"
	defaultSecondaryThreshold = 0.35
	defaultTopK               = 3
	defaultTopKCap            = 5
	defaultPriorityFallback   = "low"
	defaultHistoryDriver      = "sqlite3"
	defaultHistoryDSN         = "predictions.db"
	defaultDBMaxConns         = 25
	defaultDBMaxIdleConns     = 5
)

// Config holds all configuration for the ml-service.
type Config struct {
	Service    ServiceConfig    `yaml:"service"`
	Models     ModelsConfig     `yaml:"models"`
	Prediction PredictionConfig `yaml:"prediction"`
	History    HistoryConfig    `yaml:"history"`
	Logging    LoggingConfig    `yaml:"logging"`
	Auth       AuthConfig       `yaml:"auth"`
}

// ServiceConfig holds service-level configuration.
type ServiceConfig struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Port        int    `env:"ML_SERVICE_PORT"        yaml:"port"`
	Debug       bool   `env:"APP_DEBUG"              yaml:"debug"`
	Concurrency int    `env:"ML_SERVICE_CONCURRENCY" yaml:"concurrency"`
	BatchLimit  int    `yaml:"batch_limit"`
	BatchRPS    int    `yaml:"batch_rps"`
}

// ModelsConfig holds model artifact configuration.
type ModelsConfig struct {
	Dir string `env:"ML_MODELS_DIR" yaml:"dir"`
}

// PredictionConfig holds the tunable classification constants.
// These live in config so they are testable rather than baked into the
// scoring logic as literals.
type PredictionConfig struct {
	SecondaryThreshold float64 `yaml:"secondary_threshold"`
	DefaultTopK        int     `yaml:"default_top_k"`
	TopKCap            int     `yaml:"top_k_cap"`
	PriorityFallback   string  `yaml:"priority_fallback"`
}

// HistoryConfig holds prediction history store configuration.
// History is advisory: the service runs fine with it disabled.
type HistoryConfig struct {
	Enabled         bool          `env:"ML_HISTORY_ENABLED" yaml:"enabled"`
	Driver          string        `env:"ML_HISTORY_DRIVER"  yaml:"driver"`
	DSN             string        `env:"ML_HISTORY_DSN"     yaml:"dsn"`
	MaxConnections  int           `yaml:"max_connections"`
	MaxIdleConns    int           `yaml:"max_idle_connections"`
	ConnMaxLifetime time.Duration `yaml:"connection_max_lifetime"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `env:"LOG_LEVEL" yaml:"level"`
}

// AuthConfig holds authentication configuration.
// An empty JWTSecret leaves the API unauthenticated.
type AuthConfig struct {
	JWTSecret string `env:"AUTH_JWT_SECRET" yaml:"jwt_secret"`
}

// Load loads configuration from the specified path, applying defaults and
// environment overrides. The path may be empty or point at a missing file,
// in which case defaults plus environment variables are used.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := load(path, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults applies default values to the config.
func setDefaults(cfg *Config) {
	setServiceDefaults(&cfg.Service)
	setModelsDefaults(&cfg.Models)
	setPredictionDefaults(&cfg.Prediction)
	setHistoryDefaults(&cfg.History)
	setLoggingDefaults(&cfg.Logging)
	// Auth defaults are handled by env tags - no explicit defaults needed
}

func setServiceDefaults(s *ServiceConfig) {
	if s.Name == "" {
		s.Name = defaultServiceName
	}
	if s.Version == "" {
		s.Version = defaultServiceVersion
	}
	if s.Port == 0 {
		s.Port = defaultServicePort
	}
	if s.Concurrency == 0 {
		s.Concurrency = defaultConcurrency
	}
	if s.BatchLimit == 0 {
		s.BatchLimit = defaultBatchLimit
	}
	if s.BatchRPS == 0 {
		s.BatchRPS = defaultBatchRPS
	}
}

func setModelsDefaults(m *ModelsConfig) {
	if m.Dir == "" {
		m.Dir = defaultModelsDir
	}
}

func setPredictionDefaults(p *PredictionConfig) {
	if p.SecondaryThreshold == 0 {
		p.SecondaryThreshold = defaultSecondaryThreshold
	}
	if p.DefaultTopK == 0 {
		p.DefaultTopK = defaultTopK
	}
	if p.TopKCap == 0 {
		p.TopKCap = defaultTopKCap
	}
	if p.PriorityFallback == "" {
		p.PriorityFallback = defaultPriorityFallback
	}
}

func setHistoryDefaults(h *HistoryConfig) {
	if h.Driver == "" {
		h.Driver = defaultHistoryDriver
	}
	if h.DSN == "" {
		h.DSN = defaultHistoryDSN
	}
	if h.MaxConnections == 0 {
		h.MaxConnections = defaultDBMaxConns
	}
	if h.MaxIdleConns == 0 {
		h.MaxIdleConns = defaultDBMaxIdleConns
	}
	if h.ConnMaxLifetime == 0 {
		h.ConnMaxLifetime = time.Hour
	}
}

func setLoggingDefaults(l *LoggingConfig) {
	if l.Level == "" {
		l.Level = defaultLogLevel
	}
}
