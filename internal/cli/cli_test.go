package cli

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/formulagrid/internal/app"
	"github.com/vk/formulagrid/internal/testutil"
)

func TestParse(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, exit, err := Parse([]string{"batch.hcl"}, &bytes.Buffer{})
		require.NoError(t, err)
		assert.False(t, exit)
		assert.Equal(t, &app.Config{
			BatchPath:     "batch.hcl",
			LogFormat:     "json",
			LogLevel:      "info",
			Workers:       4,
			HTTPPort:      8080,
			RemoteTimeout: 10 * time.Second,
		}, cfg)
	})

	t.Run("flags", func(t *testing.T) {
		cfg, _, err := Parse([]string{
			"-b", "batch.hcl",
			"--records", "sales.csv",
			"--workers", "8",
			"--plan",
			"--log-level", "DEBUG",
			"--log-format", "text",
			"--healthcheck-port", "8081",
		}, &bytes.Buffer{})
		require.NoError(t, err)
		assert.Equal(t, "batch.hcl", cfg.BatchPath)
		assert.Equal(t, "sales.csv", cfg.RecordsPath)
		assert.Equal(t, 8, cfg.Workers)
		assert.True(t, cfg.PlanOnly)
		assert.Equal(t, "debug", cfg.LogLevel)
		assert.Equal(t, "text", cfg.LogFormat)
		assert.Equal(t, 8081, cfg.HealthcheckPort)
	})

	t.Run("batch flag wins over positional", func(t *testing.T) {
		cfg, _, err := Parse([]string{"--batch", "a.hcl", "b.hcl"}, &bytes.Buffer{})
		require.NoError(t, err)
		assert.Equal(t, "a.hcl", cfg.BatchPath)
	})

	t.Run("serve without batch", func(t *testing.T) {
		cfg, exit, err := Parse([]string{"--serve", "--http-port", "9000"}, &bytes.Buffer{})
		require.NoError(t, err)
		assert.False(t, exit)
		assert.True(t, cfg.Serve)
		assert.Equal(t, 9000, cfg.HTTPPort)
	})

	t.Run("no batch prints usage", func(t *testing.T) {
		out := &bytes.Buffer{}
		cfg, exit, err := Parse(nil, out)
		require.NoError(t, err)
		assert.True(t, exit)
		assert.Nil(t, cfg)
		assert.Contains(t, out.String(), "Usage:")
	})

	t.Run("help", func(t *testing.T) {
		_, exit, err := Parse([]string{"-h"}, &bytes.Buffer{})
		require.NoError(t, err)
		assert.True(t, exit)
	})
}

func TestParse_Errors(t *testing.T) {
	testCases := []struct {
		name string
		args []string
		want string
	}{
		{name: "unknown flag", args: []string{"--nope"}, want: "flag provided but not defined: -nope"},
		{name: "log format", args: []string{"--log-format", "xml", "b.hcl"}, want: "invalid log-format"},
		{name: "log level", args: []string{"--log-level", "loud", "b.hcl"}, want: "invalid log-level"},
		{name: "workers", args: []string{"--workers", "0", "b.hcl"}, want: "workers must be at least 1"},
		{name: "remote timeout", args: []string{"--remote", "http://x", "--remote-timeout", "0s", "b.hcl"}, want: "invalid remote-timeout"},
		{name: "driver", args: []string{"--records-driver", "oracle", "--records-dsn", "x", "--records-query", "q", "b.hcl"}, want: "invalid records-driver"},
		{name: "missing config", args: []string{"--config", "missing.yaml", "b.hcl"}, want: "reading config file"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := Parse(tc.args, &bytes.Buffer{})
			require.Error(t, err)
			var exitErr *ExitError
			require.ErrorAs(t, err, &exitErr)
			assert.Equal(t, ExitUsage, exitErr.Code)
			assert.Contains(t, exitErr.Message, tc.want)
		})
	}
}

func TestParse_ConfigFile(t *testing.T) {
	dir := testutil.WriteFiles(t, map[string]string{
		"formulagrid.yaml": `
records: sales.csv
log_level: debug
workers: 6
database:
  driver: sqlite
  dsn: file:sales.db
  query: SELECT * FROM sales
remote:
  timeout: 30s
`,
		"bad_timeout.toml": "[remote]\ntimeout = \"soon\"\n",
	})
	configPath := filepath.Join(dir, "formulagrid.yaml")

	t.Run("file values apply", func(t *testing.T) {
		cfg, _, err := Parse([]string{"--config", configPath, "batch.hcl"}, &bytes.Buffer{})
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "sales.csv"), cfg.RecordsPath)
		assert.Equal(t, "debug", cfg.LogLevel)
		assert.Equal(t, 6, cfg.Workers)
		assert.Equal(t, "sqlite", cfg.RecordsDriver)
		assert.Equal(t, "file:sales.db", cfg.RecordsDSN)
		assert.Equal(t, 30*time.Second, cfg.RemoteTimeout)
	})

	t.Run("flags win", func(t *testing.T) {
		cfg, _, err := Parse([]string{"--config", configPath, "--workers", "2", "--log-level", "warn", "batch.hcl"}, &bytes.Buffer{})
		require.NoError(t, err)
		assert.Equal(t, 2, cfg.Workers)
		assert.Equal(t, "warn", cfg.LogLevel)
		assert.Equal(t, filepath.Join(dir, "sales.csv"), cfg.RecordsPath)
	})

	t.Run("bad duration", func(t *testing.T) {
		_, _, err := Parse([]string{"--config", filepath.Join(dir, "bad_timeout.toml"), "batch.hcl"}, &bytes.Buffer{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), `invalid remote timeout "soon"`)
	})
}
