// Package normalize converts raw record fields into the kinds declared by
// formula inputs before a batch reaches the engine.
//
// Numbers given as strings ("42"), money ("1000 USD", "$1,250.50") and
// percentages ("10%") become plain numbers. A percentage keeps its face value,
// so "10%" is 10, not 0.1. Text inputs are left alone.
package normalize

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode"

	"github.com/vk/formulagrid/internal/ctxlog"
	"github.com/vk/formulagrid/internal/formula"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"golang.org/x/text/currency"
)

var errNotNumeric = errors.New("unable to parse string as a number")

// currencyAmount matches an optional ISO 4217 code before or after the
// amount, e.g. "USD 10" or "10 usd".
var currencyAmount = regexp.MustCompile(`^(?:([A-Za-z]{3})\s*)?([^A-Za-z]+?)(?:\s*([A-Za-z]{3}))?$`)

// Value converts v to kind. Non-text kinds always yield a number value.
func Value(kind formula.Kind, v formula.Value) (formula.Value, error) {
	if kind == formula.KindText {
		return v, nil
	}
	if f, ok := v.Number(); ok {
		return formula.NumberVal(f), nil
	}
	s, ok := v.Text()
	if !ok {
		return v, fmt.Errorf("Input should be a valid %s", describe(kind))
	}

	var (
		f   float64
		err error
	)
	switch kind {
	case formula.KindCurrency:
		f, err = parseCurrency(s)
	case formula.KindPercentage:
		f, err = parsePercentage(s)
	default:
		f, err = parseNumber(s)
	}
	if err != nil {
		return v, fmt.Errorf("Input should be a valid %s, %w", describe(kind), err)
	}
	return formula.NumberVal(f), nil
}

// Kinds collects the declared kind of every input that is not produced by a
// formula of the batch. When a name is declared with different kinds, the
// first declaration wins and the conflict is returned for reporting.
func Kinds(formulas []*formula.Formula) (map[string]formula.Kind, []string) {
	outputs := make(map[string]struct{}, len(formulas))
	for _, f := range formulas {
		outputs[f.OutputVar] = struct{}{}
	}

	kinds := make(map[string]formula.Kind)
	var conflicts []string
	for _, f := range formulas {
		for _, in := range f.Inputs {
			if _, produced := outputs[in.Name]; produced {
				continue
			}
			kind := in.Kind
			if kind == "" {
				kind = formula.KindNumber
			}
			prev, seen := kinds[in.Name]
			if !seen {
				kinds[in.Name] = kind
				continue
			}
			if prev != kind {
				conflicts = append(conflicts, fmt.Sprintf("'%s' declared as %s and %s", in.Name, prev, kind))
			}
		}
	}
	return kinds, conflicts
}

// Batch returns a copy of b whose records have every declared input
// normalised. Fields missing from a record are left for the engine to
// report. The input batch is not modified.
func Batch(ctx context.Context, b *formula.Batch) (*formula.Batch, error) {
	logger := ctxlog.FromContext(ctx)

	kinds, conflicts := Kinds(b.Formulas)
	for _, c := range conflicts {
		logger.Warn("Conflicting input kinds, keeping the first.", "conflict", c)
	}

	out := &formula.Batch{Formulas: b.Formulas, Records: make([]formula.Record, len(b.Records))}
	for i, r := range b.Records {
		nr := r.Clone()
		for name, kind := range kinds {
			v, ok := nr[name]
			if !ok {
				continue
			}
			nv, err := Value(kind, v)
			if err != nil {
				return nil, &formula.Error{
					Kind:     formula.KindInvalidInput,
					Message:  fmt.Sprintf("data[%d].%s: %s", i, name, err),
					Variable: name,
					Record:   i + 1,
					Err:      err,
				}
			}
			nr[name] = nv
		}
		out.Records[i] = nr
	}
	return out, nil
}

func describe(kind formula.Kind) string {
	switch kind {
	case formula.KindCurrency:
		return "currency amount"
	case formula.KindPercentage:
		return "percentage"
	default:
		return "number"
	}
}

// parseNumber converts through cty so numeric strings follow the same rules
// as numbers written in batch files.
func parseNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errNotNumeric
	}
	v, err := convert.Convert(cty.StringVal(s), cty.Number)
	if err != nil {
		return 0, errNotNumeric
	}
	f, _ := v.AsBigFloat().Float64()
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, errNotNumeric
	}
	return f, nil
}

func parseCurrency(s string) (float64, error) {
	s = strings.Map(func(r rune) rune {
		if unicode.Is(unicode.Sc, r) || r == ',' {
			return -1
		}
		return r
	}, strings.TrimSpace(s))

	m := currencyAmount.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil || (m[1] != "" && m[3] != "") {
		return 0, errNotNumeric
	}
	for _, code := range []string{m[1], m[3]} {
		if code == "" {
			continue
		}
		if _, err := currency.ParseISO(strings.ToUpper(code)); err != nil {
			return 0, fmt.Errorf("unknown currency code %q", code)
		}
	}
	return parseNumber(m[2])
}

func parsePercentage(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	return parseNumber(s)
}
