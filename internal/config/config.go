// Package config loads application configuration from file and environment
// and initializes the global logger.
package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/propdesk/import-cli/internal/importer"
	"github.com/propdesk/import-cli/internal/store"
)

// Config holds the full application configuration.
type Config struct {
	Store  store.Config `yaml:"store" mapstructure:"store"`
	Import ImportConfig `yaml:"import" mapstructure:"import"`
	Quota  QuotaConfig  `yaml:"quota" mapstructure:"quota"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// ImportConfig configures the batch import pipeline.
type ImportConfig struct {
	BatchSize         int     `yaml:"batch_size" mapstructure:"batch_size"`
	MaxConcurrentRows int     `yaml:"max_concurrent_rows" mapstructure:"max_concurrent_rows"`
	BatchTimeoutSecs  int     `yaml:"batch_timeout_secs" mapstructure:"batch_timeout_secs"`
	WriteRatePerSec   float64 `yaml:"write_rate_per_sec" mapstructure:"write_rate_per_sec"`
}

// SessionConfig converts the file-level knobs into importer settings.
func (c ImportConfig) SessionConfig() importer.Config {
	return importer.Config{
		BatchSize:         c.BatchSize,
		MaxConcurrentRows: c.MaxConcurrentRows,
		BatchTimeout:      time.Duration(c.BatchTimeoutSecs) * time.Second,
		WriteRatePerSec:   c.WriteRatePerSec,
	}
}

// QuotaConfig configures the monthly upload ledger.
type QuotaConfig struct {
	DefaultMonthlyLimit int `yaml:"default_monthly_limit" mapstructure:"default_monthly_limit"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("PROPDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("import.batch_size", 50)
	v.SetDefault("import.max_concurrent_rows", 4)
	v.SetDefault("import.batch_timeout_secs", 30)
	v.SetDefault("import.write_rate_per_sec", 0)
	v.SetDefault("quota.default_monthly_limit", 10000)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
