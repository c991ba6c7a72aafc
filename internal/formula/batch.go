package formula

import "fmt"

// Batch is one unit of work: every formula applied to every record.
type Batch struct {
	Records  []Record
	Formulas []*Formula
}

// Validate checks the structural invariants a batch must hold before it is
// handed to the engine. Two formulas publishing the same output variable are
// rejected here rather than letting one silently overwrite the other. An
// empty expression is not a structural problem; it fails to compile and is
// reported as an invalid expression.
func (b *Batch) Validate() error {
	seen := make(map[string]int, len(b.Formulas))
	for i, f := range b.Formulas {
		if f == nil {
			return &Error{Kind: KindInvalidBatch, Message: fmt.Sprintf("formulas[%d]: formula is null", i)}
		}
		if f.OutputVar == "" {
			return &Error{
				Kind:       KindInvalidBatch,
				Message:    fmt.Sprintf("formulas[%d].outputVar: Field required", i),
				Expression: f.Expression,
			}
		}
		for j, in := range f.Inputs {
			if in.Name == "" {
				return &Error{
					Kind:    KindInvalidBatch,
					Message: fmt.Sprintf("formulas[%d].inputs[%d].varName: Field required", i, j),
					Output:  f.OutputVar,
				}
			}
		}
		if prev, ok := seen[f.OutputVar]; ok {
			return &Error{
				Kind:    KindInvalidBatch,
				Message: fmt.Sprintf("duplicate output variable '%s' declared by formulas[%d] and formulas[%d]", f.OutputVar, prev, i),
				Output:  f.OutputVar,
			}
		}
		seen[f.OutputVar] = i
	}
	return nil
}
