package engine

import (
	"fmt"

	"github.com/vk/formulagrid/internal/expr"
	"github.com/vk/formulagrid/internal/formula"
)

// Environment holds the values visible to formulas while one record is
// evaluated. It is owned by a single record and never shared.
type Environment struct {
	values map[string]formula.Value
}

// NewEnvironment seeds an environment from the record's fields. The record
// itself is not modified.
func NewEnvironment(r formula.Record) *Environment {
	env := &Environment{values: make(map[string]formula.Value, len(r))}
	for name, v := range r {
		env.values[name] = v
	}
	return env
}

// Get returns the current value of name.
func (e *Environment) Get(name string) (formula.Value, bool) {
	v, ok := e.values[name]
	return v, ok
}

// Set publishes a value, shadowing any record field of the same name.
func (e *Environment) Set(name string, v formula.Value) {
	e.values[name] = v
}

// Bind resolves the declared inputs of f. The returned bindings contain only
// those inputs, so an expression cannot read a field it did not declare.
func (e *Environment) Bind(f *formula.Formula) (expr.Bindings, error) {
	b := make(expr.Bindings, len(f.Inputs))
	for _, in := range f.Inputs {
		v, ok := e.values[in.Name]
		if !ok {
			return nil, &formula.Error{
				Kind:       formula.KindUndefinedVariable,
				Message:    fmt.Sprintf("Invalid input variable: '%s'", in.Name),
				Expression: f.Expression,
				Variable:   in.Name,
				Output:     f.OutputVar,
			}
		}
		b[in.Name] = v
	}
	return b, nil
}
