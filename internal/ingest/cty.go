package ingest

import (
	"fmt"

	"github.com/vk/formulagrid/internal/formula"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// ValueFromCty converts a scalar cty value. Numbers and strings map to the
// matching formula values, booleans to the text "true" or "false", and null
// to null. Collections are rejected.
func ValueFromCty(v cty.Value) (formula.Value, error) {
	if v.IsNull() {
		return formula.NullVal(), nil
	}
	if !v.IsKnown() {
		return formula.Value{}, fmt.Errorf("value is not known")
	}
	switch v.Type() {
	case cty.Number:
		f, _ := v.AsBigFloat().Float64()
		return formula.NumberVal(f), nil
	case cty.String:
		return formula.TextVal(v.AsString()), nil
	case cty.Bool:
		s, err := convert.Convert(v, cty.String)
		if err != nil {
			return formula.Value{}, err
		}
		return formula.TextVal(s.AsString()), nil
	default:
		return formula.Value{}, fmt.Errorf("unsupported value of type %s: must be a number, string, bool, or null", v.Type().FriendlyName())
	}
}

// RecordFromCty converts an object or map value into a record.
func RecordFromCty(v cty.Value) (formula.Record, error) {
	ty := v.Type()
	if v.IsNull() || !(ty.IsObjectType() || ty.IsMapType()) {
		return nil, fmt.Errorf("record must be an object, got %s", ty.FriendlyName())
	}

	r := formula.Record{}
	for name, field := range v.AsValueMap() {
		fv, err := ValueFromCty(field)
		if err != nil {
			return nil, fmt.Errorf("field '%s': %w", name, err)
		}
		r[name] = fv
	}
	return r, nil
}
