package expr

import "sort"

// Program is a compiled expression. It is immutable and safe for concurrent
// use by any number of goroutines.
type Program struct {
	root      Node
	variables []string
}

// Compile parses source into a Program.
func Compile(source string) (*Program, error) {
	root, err := NewParser(NewLexer(source)).Parse()
	if err != nil {
		return nil, err
	}
	return &Program{root: root, variables: collectVariables(root)}, nil
}

// Variables returns the sorted, unique names the expression reads.
func (p *Program) Variables() []string {
	out := make([]string, len(p.variables))
	copy(out, p.variables)
	return out
}

// String returns the fully parenthesised form of the expression.
func (p *Program) String() string { return p.root.String() }

// Eval evaluates the program against b.
func (p *Program) Eval(b Bindings) (float64, error) {
	return Eval(p.root, b)
}

func collectVariables(root Node) []string {
	seen := make(map[string]struct{})
	var walk func(Node)
	walk = func(n Node) {
		switch n := n.(type) {
		case *Identifier:
			seen[n.Name] = struct{}{}
		case *PrefixExpression:
			walk(n.Right)
		case *InfixExpression:
			walk(n.Left)
			walk(n.Right)
		}
	}
	walk(root)

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names) // deterministic order
	return names
}
