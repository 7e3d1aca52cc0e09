// Package config loads application configuration and installs the global
// logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/jobsift/enrich-cli/internal/store"
)

// Config holds the full application configuration.
type Config struct {
	Store  StoreConfig  `yaml:"store" mapstructure:"store"`
	LLM    LLMConfig    `yaml:"llm" mapstructure:"llm"`
	Enrich EnrichConfig `yaml:"enrich" mapstructure:"enrich"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string            `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string            `yaml:"database_url" mapstructure:"database_url"`
	SQLitePath  string            `yaml:"sqlite_path" mapstructure:"sqlite_path"`
	Pool        *store.PoolConfig `yaml:"pool,omitempty" mapstructure:"pool"`
}

// LLMConfig configures the provider transport.
type LLMConfig struct {
	Provider         string `yaml:"provider" mapstructure:"provider"`
	Key              string `yaml:"key" mapstructure:"key"`
	BaseURL          string `yaml:"base_url" mapstructure:"base_url"`
	Model            string `yaml:"model" mapstructure:"model"`
	RequestsPerMin   int    `yaml:"requests_per_min" mapstructure:"requests_per_min"`
	StructuredOutput bool   `yaml:"structured_output" mapstructure:"structured_output"`
	MaxRetries       int    `yaml:"max_retries" mapstructure:"max_retries"`
}

// EnrichConfig configures the batch pipeline.
type EnrichConfig struct {
	BatchSize          int `yaml:"batch_size" mapstructure:"batch_size"`
	MaxConcurrent      int `yaml:"max_concurrent" mapstructure:"max_concurrent"`
	DescriptionBudget  int `yaml:"description_budget" mapstructure:"description_budget"`
	ReportIntervalSecs int `yaml:"report_interval_secs" mapstructure:"report_interval_secs"`
	MaxFailedCycles    int `yaml:"max_failed_cycles" mapstructure:"max_failed_cycles"`
}

// ServerConfig configures the HTTP trigger server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
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
	v.SetEnvPrefix("JOBSIFT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

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

func setDefaults(v *viper.Viper) {
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.sqlite_path", "jobsift.db")
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.requests_per_min", 0)
	v.SetDefault("llm.structured_output", true)
	v.SetDefault("llm.max_retries", 4)
	v.SetDefault("enrich.batch_size", 10)
	v.SetDefault("enrich.max_concurrent", 4)
	v.SetDefault("enrich.description_budget", 1500)
	v.SetDefault("enrich.report_interval_secs", 15)
	v.SetDefault("enrich.max_failed_cycles", 3)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Default returns the configuration with every default applied, used by
// `config init` to write a starter file.
func Default() Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return cfg
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
