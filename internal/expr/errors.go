package expr

import "fmt"

// SyntaxError reports a malformed expression. Column is 1-based.
type SyntaxError struct {
	Column int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at column %d: %s", e.Column, e.Msg)
}

// EvalFault classifies a runtime failure.
type EvalFault int

const (
	FaultUnboundName EvalFault = iota + 1
	FaultDivisionByZero
	FaultTypeMismatch
	FaultNonFinite
)

// EvalError reports a failure while evaluating a compiled expression.
// Name is the variable involved, if any.
type EvalError struct {
	Fault EvalFault
	Name  string
	Msg   string
}

func (e *EvalError) Error() string { return e.Msg }
