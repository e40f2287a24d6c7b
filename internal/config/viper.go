// Package config provides Viper-based hierarchical configuration management
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Capture backends understood by the raster package.
const (
	BackendCanvas = "canvas"
	BackendChrome = "chrome"
)

// Config represents the complete application configuration
type Config struct {
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
	CSV       CSVConfig       `mapstructure:"csv" yaml:"csv"`
	Templates TemplatesConfig `mapstructure:"templates" yaml:"templates"`
	Capture   CaptureConfig   `mapstructure:"capture" yaml:"capture"`
	Batch     BatchConfig     `mapstructure:"batch" yaml:"batch"`
	Output    OutputConfig    `mapstructure:"output" yaml:"output"`
}

// LogConfig selects the logrus level and formatter.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// CSVConfig controls how input files are decoded.
type CSVConfig struct {
	Delimiter string `mapstructure:"delimiter" yaml:"delimiter"`
}

// TemplatesConfig points at an optional YAML file of extra receipt templates.
type TemplatesConfig struct {
	File string `mapstructure:"file" yaml:"file"`
}

// CaptureConfig configures document rasterization.
type CaptureConfig struct {
	Backend         string  `mapstructure:"backend" yaml:"backend"`
	Scale           float64 `mapstructure:"scale" yaml:"scale"`
	SettleTimeoutMS int     `mapstructure:"settle_timeout_ms" yaml:"settle_timeout_ms"`
	ChromePath      string  `mapstructure:"chrome_path" yaml:"chrome_path"`
	LogoPath        string  `mapstructure:"logo_path" yaml:"logo_path"`
}

// SettleTimeout is the upper bound on waiting for a rendered layout.
func (c CaptureConfig) SettleTimeout() time.Duration {
	return time.Duration(c.SettleTimeoutMS) * time.Millisecond
}

// BatchConfig bounds batch parallelism.
type BatchConfig struct {
	Workers int `mapstructure:"workers" yaml:"workers"`
}

// OutputConfig controls where and how artifacts are written.
type OutputConfig struct {
	Directory   string `mapstructure:"directory" yaml:"directory"`
	ArchiveName string `mapstructure:"archive_name" yaml:"archive_name"`
	NameWithRRN bool   `mapstructure:"name_with_rrn" yaml:"name_with_rrn"`
}

// InitializeConfig initializes Viper configuration with hierarchical loading
func InitializeConfig() (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Config file locations
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("$HOME/.pos-receipts")
	v.AddConfigPath(".pos-receipts")
	v.AddConfigPath(".")

	// 3. Environment variables
	v.SetEnvPrefix("RECEIPTS")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 4. Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file %s: %w", v.ConfigFileUsed(), err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 5. Validate configuration
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Default returns the configuration used when no file or environment
// overrides are present.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var config Config
	// defaults are static and always decode
	_ = v.Unmarshal(&config)
	return &config
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	// CSV defaults
	v.SetDefault("csv.delimiter", ",")

	// Template defaults
	v.SetDefault("templates.file", "")

	// Capture defaults
	v.SetDefault("capture.backend", BackendCanvas)
	v.SetDefault("capture.scale", 2.0)
	v.SetDefault("capture.settle_timeout_ms", 5000)
	v.SetDefault("capture.chrome_path", "")
	v.SetDefault("capture.logo_path", "")

	// Batch defaults
	v.SetDefault("batch.workers", 4)

	// Output defaults
	v.SetDefault("output.directory", ".")
	v.SetDefault("output.archive_name", "hydrogen-pos-receipts.zip")
	v.SetDefault("output.name_with_rrn", false)
}

// validateConfig validates the configuration values
func validateConfig(config *Config) error {
	if _, err := logrus.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", config.Log.Level)
	}

	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", config.Log.Format)
	}

	if len([]rune(config.CSV.Delimiter)) != 1 {
		return fmt.Errorf("CSV delimiter must be a single character, got: %s", config.CSV.Delimiter)
	}

	switch config.Capture.Backend {
	case BackendCanvas, BackendChrome:
	default:
		return fmt.Errorf("invalid capture backend: %s (must be '%s' or '%s')", config.Capture.Backend, BackendCanvas, BackendChrome)
	}

	if config.Capture.Scale < 1 || config.Capture.Scale > 4 {
		return fmt.Errorf("capture.scale must be between 1 and 4, got: %g", config.Capture.Scale)
	}

	if config.Capture.SettleTimeoutMS < 1 {
		return fmt.Errorf("capture.settle_timeout_ms must be positive, got: %d", config.Capture.SettleTimeoutMS)
	}

	if config.Batch.Workers < 1 || config.Batch.Workers > 64 {
		return fmt.Errorf("batch.workers must be between 1 and 64, got: %d", config.Batch.Workers)
	}

	if !strings.HasSuffix(strings.ToLower(config.Output.ArchiveName), ".zip") {
		return fmt.Errorf("output.archive_name must end in .zip, got: %s", config.Output.ArchiveName)
	}

	return nil
}

// DelimiterRune returns the configured CSV delimiter as a rune.
func (c *Config) DelimiterRune() rune {
	r := []rune(c.CSV.Delimiter)
	if len(r) == 0 {
		return ','
	}
	return r[0]
}
