package expr

import (
	"fmt"
	"math"

	"github.com/vk/formulagrid/internal/formula"
)

// Bindings maps variable names to the values an expression may read.
type Bindings map[string]formula.Value

// Eval evaluates n against b.
func Eval(n Node, b Bindings) (float64, error) {
	switch n := n.(type) {
	case *NumberLiteral:
		return n.Value, nil

	case *Identifier:
		v, ok := b[n.Name]
		if !ok {
			return 0, &EvalError{Fault: FaultUnboundName, Name: n.Name, Msg: fmt.Sprintf("name '%s' is not defined", n.Name)}
		}
		f, ok := v.Number()
		if !ok {
			return 0, &EvalError{
				Fault: FaultTypeMismatch,
				Name:  n.Name,
				Msg:   fmt.Sprintf("unsupported operand: '%s' is %s, not a number", n.Name, v.Type()),
			}
		}
		return f, nil

	case *PrefixExpression:
		right, err := Eval(n.Right, b)
		if err != nil {
			return 0, err
		}
		return -right, nil

	case *InfixExpression:
		left, err := Eval(n.Left, b)
		if err != nil {
			return 0, err
		}
		right, err := Eval(n.Right, b)
		if err != nil {
			return 0, err
		}
		return evalInfix(n.Operator, left, right)

	default:
		return 0, fmt.Errorf("expr: unknown node type %T", n)
	}
}

func evalInfix(op string, left, right float64) (float64, error) {
	var out float64
	switch op {
	case "+":
		out = left + right
	case "-":
		out = left - right
	case "*":
		out = left * right
	case "/":
		if right == 0 {
			return 0, &EvalError{Fault: FaultDivisionByZero, Msg: "division by zero"}
		}
		out = left / right
	default:
		return 0, fmt.Errorf("expr: unknown operator %q", op)
	}
	if math.IsInf(out, 0) || math.IsNaN(out) {
		return 0, &EvalError{Fault: FaultNonFinite, Msg: fmt.Sprintf("result of %s %s %s is not a finite number", formula.FormatNumber(left), op, formula.FormatNumber(right))}
	}
	return out, nil
}
