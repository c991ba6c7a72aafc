package expr

import (
	"strings"

	"github.com/vk/formulagrid/internal/formula"
)

// Node is a node of a parsed expression.
type Node interface {
	// String renders the node fully parenthesised, which makes precedence
	// visible in tests and debug logs.
	String() string
	node()
}

// NumberLiteral is a numeric constant.
type NumberLiteral struct {
	Token Token
	Value float64
}

// Identifier is a reference to a bound variable.
type Identifier struct {
	Token Token
	Name  string
}

// PrefixExpression is a unary operation; only negation exists.
type PrefixExpression struct {
	Token    Token
	Operator string
	Right    Node
}

// InfixExpression is a binary arithmetic operation.
type InfixExpression struct {
	Token    Token
	Left     Node
	Operator string
	Right    Node
}

func (*NumberLiteral) node()    {}
func (*Identifier) node()       {}
func (*PrefixExpression) node() {}
func (*InfixExpression) node()  {}

func (n *NumberLiteral) String() string { return formula.FormatNumber(n.Value) }
func (n *Identifier) String() string    { return n.Name }

func (n *PrefixExpression) String() string {
	return "(" + n.Operator + n.Right.String() + ")"
}

func (n *InfixExpression) String() string {
	var sb strings.Builder
	sb.WriteString("(")
	sb.WriteString(n.Left.String())
	sb.WriteString(" ")
	sb.WriteString(n.Operator)
	sb.WriteString(" ")
	sb.WriteString(n.Right.String())
	sb.WriteString(")")
	return sb.String()
}
