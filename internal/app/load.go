package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vk/formulagrid/internal/api"
	"github.com/vk/formulagrid/internal/ctxlog"
	"github.com/vk/formulagrid/internal/formula"
	"github.com/vk/formulagrid/internal/hcl"
	"github.com/vk/formulagrid/internal/ingest"
)

// LoadBatch reads the configured batch and appends any extra records from a
// records file or a SQL query, in that order.
func (a *App) LoadBatch(ctx context.Context) (*formula.Batch, error) {
	logger := ctxlog.FromContext(ctx)
	cfg := a.config

	var batch *formula.Batch
	var err error
	if isJSONRequest(cfg.BatchPath) {
		batch, err = loadRequest(cfg.BatchPath)
	} else {
		batch, err = hcl.NewLoader().Load(ctx, cfg.BatchPath)
	}
	if err != nil {
		return nil, err
	}

	if cfg.RecordsPath != "" {
		records, err := ingest.LoadRecords(cfg.RecordsPath)
		if err != nil {
			return nil, err
		}
		logger.Debug("Loaded records file.", "path", cfg.RecordsPath, "records", len(records))
		batch.Records = append(batch.Records, records...)
	}

	if cfg.RecordsDriver != "" {
		records, err := ingest.LoadSQL(ctx, cfg.RecordsDriver, cfg.RecordsDSN, cfg.RecordsQuery)
		if err != nil {
			return nil, err
		}
		logger.Debug("Loaded records from database.", "driver", cfg.RecordsDriver, "records", len(records))
		batch.Records = append(batch.Records, records...)
	}

	logger.Info("Batch loaded.", "path", cfg.BatchPath, "formulas", len(batch.Formulas), "records", len(batch.Records))
	return batch, nil
}

func isJSONRequest(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

// loadRequest reads a batch written as an API request body.
func loadRequest(path string) (*formula.Batch, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening batch: %w", err)
	}
	defer f.Close()

	req, err := api.DecodeRequest(f)
	if err != nil {
		return nil, err
	}
	return req.ToBatch()
}
