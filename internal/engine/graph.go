package engine

import (
	"fmt"

	"github.com/vk/formulagrid/internal/dag"
	"github.com/vk/formulagrid/internal/formula"
)

// BuildGraph creates one node per formula, keyed by output variable, and an
// edge G -> F whenever F declares an input produced by G. Inputs with no
// producer add no edge; they are expected to come from the record.
func BuildGraph(formulas []*formula.Formula) (*dag.Graph, error) {
	g := dag.New()
	producers := make(map[string]*formula.Formula, len(formulas))

	for i, f := range formulas {
		if f == nil {
			return nil, &formula.Error{Kind: formula.KindInvalidBatch, Message: fmt.Sprintf("formulas[%d]: formula is null", i)}
		}
		if _, dup := producers[f.OutputVar]; dup {
			return nil, &formula.Error{
				Kind:    formula.KindInvalidBatch,
				Message: fmt.Sprintf("duplicate output variable '%s'", f.OutputVar),
				Output:  f.OutputVar,
			}
		}
		producers[f.OutputVar] = f
		g.AddNode(f.OutputVar)
	}

	for _, f := range formulas {
		for _, name := range f.InputNames() {
			if _, ok := producers[name]; !ok {
				continue
			}
			if name == f.OutputVar {
				return nil, &formula.Error{
					Kind:       formula.KindCyclicDependency,
					Message:    fmt.Sprintf("The formula chain is broken: '%s' depends on itself", name),
					Expression: f.Expression,
					Output:     f.OutputVar,
					Variable:   name,
				}
			}
			if err := g.AddEdge(name, f.OutputVar); err != nil {
				return nil, fmt.Errorf("linking '%s' to '%s': %w", name, f.OutputVar, err)
			}
		}
	}
	return g, nil
}
