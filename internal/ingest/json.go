package ingest

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"

	"github.com/vk/formulagrid/internal/formula"
)

// RecordsFromJSON decodes a JSON array of flat objects.
func RecordsFromJSON(data []byte) ([]formula.Record, error) {
	ty, err := ctyjson.ImpliedType(data)
	if err != nil {
		return nil, fmt.Errorf("invalid JSON records: %w", err)
	}
	if !ty.IsTupleType() && !ty.IsListType() {
		return nil, fmt.Errorf("invalid JSON records: expected an array of objects, got %s", ty.FriendlyName())
	}

	v, err := ctyjson.Unmarshal(data, ty)
	if err != nil {
		return nil, fmt.Errorf("invalid JSON records: %w", err)
	}
	return RecordsFromCty(v)
}

// RecordsFromCty converts a list or tuple of objects into records.
func RecordsFromCty(v cty.Value) ([]formula.Record, error) {
	if v.IsNull() {
		return nil, nil
	}
	records := make([]formula.Record, 0, v.LengthInt())
	for i, elem := range v.AsValueSlice() {
		r, err := RecordFromCty(elem)
		if err != nil {
			return nil, fmt.Errorf("data[%d]: %w", i, err)
		}
		records = append(records, r)
	}
	return records, nil
}
