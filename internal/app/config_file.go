package app

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// FileConfig is the optional configuration file. Every field is optional;
// command-line flags take precedence over anything set here.
type FileConfig struct {
	Records   string `yaml:"records" toml:"records"`
	LogLevel  string `yaml:"log_level" toml:"log_level"`
	LogFormat string `yaml:"log_format" toml:"log_format"`
	Workers   int    `yaml:"workers" toml:"workers"`

	Database DatabaseConfig `yaml:"database" toml:"database"`
	Server   ServerConfig   `yaml:"server" toml:"server"`
	Remote   RemoteConfig   `yaml:"remote" toml:"remote"`
}

// DatabaseConfig selects records from a SQL database.
type DatabaseConfig struct {
	Driver string `yaml:"driver" toml:"driver"`
	DSN    string `yaml:"dsn" toml:"dsn"`
	Query  string `yaml:"query" toml:"query"`
}

// ServerConfig holds listener ports.
type ServerConfig struct {
	HTTPPort        int `yaml:"http_port" toml:"http_port"`
	HealthcheckPort int `yaml:"healthcheck_port" toml:"healthcheck_port"`
}

// RemoteConfig points at a running server.
type RemoteConfig struct {
	URL     string `yaml:"url" toml:"url"`
	Timeout string `yaml:"timeout" toml:"timeout"`
}

// LoadConfigFile reads a YAML (.yaml, .yml) or TOML (.toml) config file.
// Relative records paths are resolved against the file's directory.
func LoadConfigFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var fc FileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	case ".toml":
		md, err := toml.Decode(string(data), &fc)
		if err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("parsing config file %s: unknown key %q", path, undecoded[0].String())
		}
	default:
		return nil, fmt.Errorf("unsupported config file %s: expected .yaml, .yml or .toml", path)
	}

	if fc.Records != "" && !filepath.IsAbs(fc.Records) {
		fc.Records = filepath.Join(filepath.Dir(path), fc.Records)
	}
	return &fc, nil
}
