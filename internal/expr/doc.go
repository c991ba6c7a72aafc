// Package expr implements the restricted arithmetic language used by formula
// expressions.
//
// The grammar is deliberately tiny: numeric literals, variable names, the
// binary operators + - * /, unary minus and parentheses. There are no calls,
// no attribute or index access, no strings and no way to reach anything that
// is not in the Bindings handed to Eval. All arithmetic is float64.
//
// Minus is the only prefix operator. A leading plus is a syntax error, so
// doubled operators such as "a + + b" are reported as malformed rather than
// read as "a + (+b)".
//
//	prog, err := expr.Compile("(unitPrice * quantity) - discount")
//	if err != nil { ... }
//	v, err := prog.Eval(expr.Bindings{"unitPrice": formula.NumberVal(10), ...})
package expr
