package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/vk/formulagrid/internal/formula"
)

// RecordsFromCSV reads a header row followed by data rows. Cells that parse
// as numbers become numbers, empty cells become null, anything else stays
// text so the normaliser can deal with "1000 USD" or "10%".
func RecordsFromCSV(r io.Reader) ([]formula.Record, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read CSV headers: %w", err)
	}
	for i, h := range headers {
		headers[i] = strings.TrimSpace(h)
		if headers[i] == "" {
			return nil, fmt.Errorf("CSV header %d is empty", i+1)
		}
	}

	var records []formula.Record
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row: %w", err)
		}

		rec := make(formula.Record, len(headers))
		for i, cell := range row {
			rec[headers[i]] = cellValue(cell)
		}
		records = append(records, rec)
	}
	return records, nil
}

func cellValue(cell string) formula.Value {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return formula.NullVal()
	}
	// ParseFloat also accepts hex floats, "Inf" and "NaN"; those stay text.
	if f, err := strconv.ParseFloat(cell, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) && !strings.ContainsAny(cell, "xX") {
		return formula.NumberVal(f)
	}
	return formula.TextVal(cell)
}
