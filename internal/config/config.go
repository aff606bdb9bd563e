// Package config loads application configuration from file and environment
// and initializes the global logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Data      DataConfig      `yaml:"data" mapstructure:"data"`
	Clean     CleanConfig     `yaml:"clean" mapstructure:"clean"`
	Export    ExportConfig    `yaml:"export" mapstructure:"export"`
	Cache     CacheConfig     `yaml:"cache" mapstructure:"cache"`
	Registry  RegistryConfig  `yaml:"registry" mapstructure:"registry"`
	Sync      SyncConfig      `yaml:"sync" mapstructure:"sync"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// DataConfig locates the standing dataset files.
type DataConfig struct {
	Dir            string `yaml:"dir" mapstructure:"dir"`
	UpstreamFile   string `yaml:"upstream_file" mapstructure:"upstream_file"`
	DownstreamFile string `yaml:"downstream_file" mapstructure:"downstream_file"`
}

// CleanConfig configures numeric normalization.
type CleanConfig struct {
	ThousandsSeparator string   `yaml:"thousands_separator" mapstructure:"thousands_separator"`
	CurrencySymbols    []string `yaml:"currency_symbols" mapstructure:"currency_symbols"`
}

// ExportConfig configures CSV serialization defaults.
type ExportConfig struct {
	DateLayout     string `yaml:"date_layout" mapstructure:"date_layout"`
	Decimals       int    `yaml:"decimals" mapstructure:"decimals"`
	GroupThousands bool   `yaml:"group_thousands" mapstructure:"group_thousands"`
	Locale         string `yaml:"locale" mapstructure:"locale"`
}

// CacheConfig configures the result cache.
type CacheConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Path    string `yaml:"path" mapstructure:"path"`
}

// RegistryConfig points at an optional schema-registry override file.
type RegistryConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// SyncConfig configures remote data-file download.
type SyncConfig struct {
	Sources     []SyncSource `yaml:"sources" mapstructure:"sources"`
	TimeoutSecs int          `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries  int          `yaml:"max_retries" mapstructure:"max_retries"`
	RatePerSec  float64      `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
}

// SyncSource names one remote file (http, https, or ftp URL).
type SyncSource struct {
	Name string `yaml:"name" mapstructure:"name"`
	URL  string `yaml:"url" mapstructure:"url"`
}

// ServerConfig configures the dashboard-facing API server.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// AnthropicConfig holds Anthropic API settings for insight generation.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
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
	v.SetEnvPrefix("PLANTA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("data.dir", "data")
	v.SetDefault("data.upstream_file", "data/upstream.csv")
	v.SetDefault("data.downstream_file", "data/downstream.csv")
	v.SetDefault("clean.thousands_separator", ",")
	v.SetDefault("clean.currency_symbols", []string{"$"})
	v.SetDefault("export.date_layout", "2006-01-02")
	v.SetDefault("export.decimals", 2)
	v.SetDefault("export.locale", "es")
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.path", "planta-cache.db")
	v.SetDefault("sync.timeout_secs", 60)
	v.SetDefault("sync.max_retries", 3)
	v.SetDefault("sync.rate_per_sec", 2.0)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 1024)

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
