// Package config loads application configuration from file and environment
// and initializes the global logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/fieldops/internal/store"
)

// Config holds the full application configuration.
type Config struct {
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Match    MatchConfig    `yaml:"match" mapstructure:"match"`
	Sequence SequenceConfig `yaml:"sequence" mapstructure:"sequence"`
	Places   PlacesConfig   `yaml:"places" mapstructure:"places"`
	PDF      PDFConfig      `yaml:"pdf" mapstructure:"pdf"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string            `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string            `yaml:"database_url" mapstructure:"database_url"`
	Pool        *store.PoolConfig `yaml:"pool" mapstructure:"pool"`
}

// MatchConfig holds the duplicate-detection similarity thresholds.
type MatchConfig struct {
	NameThreshold    float64 `yaml:"name_threshold" mapstructure:"name_threshold"`
	AddressThreshold float64 `yaml:"address_threshold" mapstructure:"address_threshold"`
	// ProfilePath optionally points at a YAML threshold profile that
	// overrides the inline values.
	ProfilePath string `yaml:"profile_path" mapstructure:"profile_path"`
}

// SequenceConfig configures document number generation.
type SequenceConfig struct {
	// Window is how many recent documents the generator inspects.
	Window int `yaml:"window" mapstructure:"window"`
	// Allocator selects "window" (read-recent-then-compute) or "counter"
	// (transactional single-row counter, Postgres only).
	Allocator string `yaml:"allocator" mapstructure:"allocator"`
}

// PlacesConfig holds the maps provider autocomplete settings.
type PlacesConfig struct {
	Key     string  `yaml:"key" mapstructure:"key"`
	BaseURL string  `yaml:"base_url" mapstructure:"base_url"`
	RPS     float64 `yaml:"rps" mapstructure:"rps"`
}

// PDFConfig holds the PDF rendering service settings.
type PDFConfig struct {
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
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
	v.SetEnvPrefix("FIELDOPS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "fieldops.db")
	v.SetDefault("match.name_threshold", 0.8)
	v.SetDefault("match.address_threshold", 0.7)
	v.SetDefault("sequence.window", 10)
	v.SetDefault("sequence.allocator", "window")
	v.SetDefault("places.base_url", "https://maps.googleapis.com/maps/api/place")
	v.SetDefault("places.rps", 10)
	v.SetDefault("pdf.base_url", "http://localhost:9090")
	v.SetDefault("pdf.timeout_secs", 30)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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
