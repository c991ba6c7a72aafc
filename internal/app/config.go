package app

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/vk/formulagrid/internal/ingest"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	BatchPath string // .hcl file, directory of .hcl files, or a JSON request

	RecordsPath   string // extra records, .json or .csv (optionally .gz)
	RecordsDriver string // database/sql driver for extra records
	RecordsDSN    string
	RecordsQuery  string

	LogFormat string
	LogLevel  string
	Workers   int

	PlanOnly bool
	Watch    bool

	Serve           bool
	HTTPPort        int
	HealthcheckPort int

	RemoteURL     string
	RemoteTimeout time.Duration
}

// NewConfig validates cfg and returns a copy.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.Serve {
		if cfg.RemoteURL != "" || cfg.PlanOnly || cfg.Watch {
			return nil, errors.New("serve cannot be combined with remote, plan or watch")
		}
		if cfg.HTTPPort <= 0 || cfg.HTTPPort > 65535 {
			return nil, fmt.Errorf("invalid http-port %d", cfg.HTTPPort)
		}
	} else if cfg.BatchPath == "" {
		return nil, errors.New("BatchPath is a required configuration field and cannot be empty")
	}

	if cfg.HealthcheckPort < 0 || cfg.HealthcheckPort > 65535 {
		return nil, fmt.Errorf("invalid healthcheck-port %d", cfg.HealthcheckPort)
	}
	if cfg.Workers < 1 {
		return nil, fmt.Errorf("workers must be at least 1, got %d", cfg.Workers)
	}
	if cfg.RemoteURL != "" && cfg.PlanOnly {
		return nil, errors.New("plan cannot be combined with remote")
	}

	if cfg.RecordsDSN != "" || cfg.RecordsDriver != "" {
		if !slices.Contains(ingest.Drivers, cfg.RecordsDriver) {
			return nil, fmt.Errorf("invalid records-driver %q: must be one of %v", cfg.RecordsDriver, ingest.Drivers)
		}
		if cfg.RecordsDSN == "" || cfg.RecordsQuery == "" {
			return nil, errors.New("records-driver requires records-dsn and records-query")
		}
	}
	return &cfg, nil
}
