package app

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/vk/formulagrid/internal/engine"
)

// PlanStep is one entry of a printed execution plan.
type PlanStep struct {
	Output     string   `json:"output"`
	Expression string   `json:"expression"`
	Position   int      `json:"position"`
	DependsOn  []string `json:"dependsOn"`
	Dependents []string `json:"dependents"`
	Reads      []string `json:"reads"`
}

// PlanOutput is the printed form of a plan. Roots are the formulas that
// depend on no other output.
type PlanOutput struct {
	Order []string   `json:"order"`
	Roots []string   `json:"roots"`
	Steps []PlanStep `json:"steps"`
}

func newPlanOutput(plan *engine.Plan) (*PlanOutput, error) {
	out := &PlanOutput{
		Order: plan.Order(),
		Roots: []string{},
		Steps: make([]PlanStep, len(plan.Steps)),
	}
	for i, s := range plan.Steps {
		name := s.Formula.OutputVar
		in, err := plan.Graph.InDegree(name)
		if err != nil {
			return nil, err
		}
		if in == 0 {
			out.Roots = append(out.Roots, name)
		}
		dependents, err := plan.Graph.Dependents(name)
		if err != nil {
			return nil, err
		}
		out.Steps[i] = PlanStep{
			Output:     name,
			Expression: s.Formula.Expression,
			Position:   s.Position,
			DependsOn:  orEmpty(s.DependsOn),
			Dependents: orEmpty(dependents),
			Reads:      orEmpty(s.Reads),
		}
	}
	return out, nil
}

func orEmpty(names []string) []string {
	if names == nil {
		return []string{}
	}
	return names
}

// writeJSON prints v on one line, or indented when w is a terminal.
func writeJSON(w io.Writer, v any) error {
	var data []byte
	var err error
	if isTerminal(w) {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
