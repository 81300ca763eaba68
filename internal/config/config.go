// Package config loads runtime settings for the windmfa CLI and server.
// Project data lives in the project directory; this covers only how a run
// is executed and where its output goes.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/viper"

	"github.com/ChicagoDave/windmfa/pkg/flow"
)

// DefaultFile is the config file searched for in the working directory
// when no path is given.
const DefaultFile = "windmfa.yaml"

// EnvPrefix prefixes environment overrides, e.g. WINDMFA_LOGGING_LEVEL.
const EnvPrefix = "WINDMFA"

// Config is the complete runtime configuration.
type Config struct {
	OutputDir string        `mapstructure:"output_dir"`
	Logging   LoggingConfig `mapstructure:"logging"`
	Flow      FlowConfig    `mapstructure:"flow"`
	Store     StoreConfig   `mapstructure:"store"`
	Server    ServerConfig  `mapstructure:"server"`
	Export    ExportConfig  `mapstructure:"export"`
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// FlowConfig holds capacity solver settings.
type FlowConfig struct {
	NegativeInflow string `mapstructure:"negative_inflow"`
}

// StoreConfig locates the results archive. An empty path disables it.
type StoreConfig struct {
	Path string `mapstructure:"path"`
}

// ServerConfig holds HTTP settings.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// ExportConfig holds CSV settings.
type ExportConfig struct {
	Precision int `mapstructure:"precision"`
}

// Load reads configuration into v. path names an explicit config file; when
// empty, DefaultFile is used if it exists in the working directory. A nil v
// gets a fresh viper instance. Flags bound to v before Load take precedence
// over file and environment values.
func Load(v *viper.Viper, path string) (*Config, error) {
	if v == nil {
		v = viper.New()
	}
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(strings.TrimSuffix(DefaultFile, ".yaml"))
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("output_dir", "output")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	v.SetDefault("flow.negative_inflow", "propagate")

	v.SetDefault("store.path", "")

	v.SetDefault("server.port", 3000)

	v.SetDefault("export.precision", 6)
}

// Validate checks that all configuration values are usable.
func (c *Config) Validate() error {
	if c.OutputDir == "" {
		return fmt.Errorf("output_dir is required")
	}
	if _, err := c.Logging.level(); err != nil {
		return err
	}
	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be one of: text, json")
	}
	if _, err := c.Flow.Policy(); err != nil {
		return fmt.Errorf("flow.negative_inflow: %w", err)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if c.Export.Precision < 0 || c.Export.Precision > 15 {
		return fmt.Errorf("export.precision must be between 0 and 15")
	}
	return nil
}

// Policy parses the negative inflow setting.
func (f FlowConfig) Policy() (flow.NegativeInflowPolicy, error) {
	return flow.ParsePolicy(f.NegativeInflow)
}

func (l LoggingConfig) level() (slog.Level, error) {
	var lv slog.Level
	if err := lv.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	return lv, nil
}

// NewLogger builds a logger writing to w with the configured handler.
func (l LoggingConfig) NewLogger(w io.Writer) (*slog.Logger, error) {
	lv, err := l.level()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: lv}
	if l.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}
