package ingest

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/vk/formulagrid/internal/formula"
)

// LoadRecords reads a records file, choosing the decoder from the extension:
// .json or .csv, optionally followed by .gz.
func LoadRecords(path string) ([]formula.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening records file: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	name := strings.ToLower(path)
	if filepath.Ext(name) == ".gz" {
		zr, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("opening compressed records file %s: %w", path, err)
		}
		defer zr.Close()
		r = zr
		name = strings.TrimSuffix(name, ".gz")
	}

	var records []formula.Record
	switch filepath.Ext(name) {
	case ".json":
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("reading records file %s: %w", path, err)
		}
		records, err = RecordsFromJSON(bytes.TrimSpace(data))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	case ".csv":
		records, err = RecordsFromCSV(r)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported records file %s: expected .json or .csv (optionally .gz)", path)
	}
	return records, nil
}
