package engine

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/vk/formulagrid/internal/ctxlog"
	"github.com/vk/formulagrid/internal/dag"
	"github.com/vk/formulagrid/internal/expr"
	"github.com/vk/formulagrid/internal/formula"
)

// Step is one scheduled formula.
type Step struct {
	Formula *formula.Formula
	// Position is the formula's index in the batch.
	Position int
	// DependsOn lists the outputs this formula consumes, in batch order.
	DependsOn []string
	// Reads lists the names the expression references, sorted. Nil when the
	// expression does not compile.
	Reads []string

	program    *expr.Program
	compileErr error
}

// Program returns the compiled expression, or the compile error.
func (s *Step) Program() (*expr.Program, error) {
	return s.program, s.compileErr
}

// Plan is the read-only execution order shared by every record of a batch.
type Plan struct {
	Graph *dag.Graph
	Steps []*Step
}

// Order returns output variable names in execution order.
func (p *Plan) Order() []string {
	out := make([]string, len(p.Steps))
	for i, s := range p.Steps {
		out[i] = s.Formula.OutputVar
	}
	return out
}

// Schedule builds the dependency graph for formulas and orders it. A cycle
// is reported as a CyclicDependency error before any record is touched.
//
// Expressions are compiled here, once per batch. A compile failure is kept
// on the step and surfaces when the formula is first evaluated, so a batch
// without records still succeeds.
func Schedule(ctx context.Context, formulas []*formula.Formula) (*Plan, error) {
	logger := ctxlog.FromContext(ctx)

	g, err := BuildGraph(formulas)
	if err != nil {
		return nil, err
	}

	order, err := g.TopoSort()
	if err != nil {
		var cycleErr *dag.CycleError
		if errors.As(err, &cycleErr) {
			return nil, &formula.Error{
				Kind: formula.KindCyclicDependency,
				Message: fmt.Sprintf("The formula chain is broken: %s (unresolved: %s)",
					err, strings.Join(cycleErr.Unresolved, ", ")),
				Err: err,
			}
		}
		return nil, fmt.Errorf("ordering formulas: %w", err)
	}

	byOutput := make(map[string]int, len(formulas))
	for i, f := range formulas {
		byOutput[f.OutputVar] = i
	}

	plan := &Plan{Graph: g, Steps: make([]*Step, 0, len(order))}
	for _, name := range order {
		pos := byOutput[name]
		f := formulas[pos]
		deps, err := g.Dependencies(name)
		if err != nil {
			return nil, fmt.Errorf("reading dependencies of '%s': %w", name, err)
		}

		step := &Step{Formula: f, Position: pos, DependsOn: deps}
		step.program, step.compileErr = expr.Compile(f.Expression)
		if step.compileErr != nil {
			logger.Debug("Expression failed to compile.", "formula", name, "error", step.compileErr)
		} else {
			step.Reads = step.program.Variables()
			if undeclared := undeclaredNames(f, step.Reads); len(undeclared) > 0 {
				logger.Warn("Expression reads names not declared as inputs.", "formula", name, "names", undeclared)
			}
		}
		plan.Steps = append(plan.Steps, step)
	}

	logger.Debug("Formulas scheduled.", "formulas", g.Len(), "order", plan.Order())
	return plan, nil
}

// undeclaredNames returns the names in reads that f does not declare.
// Evaluating them fails, since only declared inputs are bound.
func undeclaredNames(f *formula.Formula, reads []string) []string {
	declared := f.InputNames()
	var out []string
	for _, name := range reads {
		if !slices.Contains(declared, name) {
			out = append(out, name)
		}
	}
	return out
}
