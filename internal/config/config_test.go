package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChicagoDave/windmfa/pkg/flow"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "windmfa.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load(nil, "")
	require.NoError(t, err)

	assert.Equal(t, "output", cfg.OutputDir)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, 6, cfg.Export.Precision)
	assert.Empty(t, cfg.Store.Path)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
output_dir: results
logging:
  level: debug
  format: json
flow:
  negative_inflow: clamp
store:
  path: runs.db
export:
  precision: 3
`)
	cfg, err := Load(nil, path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "results", cfg.OutputDir)
	assert.Equal(t, "runs.db", cfg.Store.Path)
	assert.Equal(t, 3, cfg.Export.Precision)
	assert.Equal(t, 3000, cfg.Server.Port, "unset keys keep defaults")

	p, err := cfg.Flow.Policy()
	require.NoError(t, err)
	assert.Equal(t, flow.ClampToZero, p)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(nil, filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestEnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("WINDMFA_SERVER_PORT", "8080")
	t.Setenv("WINDMFA_LOGGING_LEVEL", "warn")

	cfg, err := Load(nil, "")
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestExplicitValueWins(t *testing.T) {
	path := writeConfig(t, "output_dir: from-file\n")
	v := viper.New()
	v.Set("output_dir", "from-flag")

	cfg, err := Load(v, path)
	require.NoError(t, err)
	assert.Equal(t, "from-flag", cfg.OutputDir)
}

func TestValidateErrors(t *testing.T) {
	valid := func() *Config {
		return &Config{
			OutputDir: "out",
			Logging:   LoggingConfig{Level: "info", Format: "text"},
			Flow:      FlowConfig{NegativeInflow: "propagate"},
			Server:    ServerConfig{Port: 3000},
			Export:    ExportConfig{Precision: 6},
		}
	}
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"empty output dir", func(c *Config) { c.OutputDir = "" }},
		{"bad level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }},
		{"bad policy", func(c *Config) { c.Flow.NegativeInflow = "ignore" }},
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
		{"bad precision", func(c *Config) { c.Export.Precision = 20 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.modify(c)
			assert.Error(t, c.Validate())
		})
	}
	assert.NoError(t, valid().Validate())
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log, err := LoggingConfig{Level: "warn", Format: "json"}.NewLogger(&buf)
	require.NoError(t, err)

	log.Info("hidden")
	log.Warn("shown", "year", 2021)
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"year":2021`)
}
