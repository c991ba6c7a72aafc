package hcl

import "github.com/hashicorp/hcl/v2"

// fileRoot is a struct used to decode all possible top-level blocks from any file.
type fileRoot struct {
	Formulas []*formulaBlock `hcl:"formula,block"`
	Records  []*recordBlock  `hcl:"record,block"`
	Remain   hcl.Body        `hcl:",remain"`
}

type formulaBlock struct {
	Output     string        `hcl:"output,label"`
	Expression string        `hcl:"expression"`
	Inputs     []*inputBlock `hcl:"input,block"`
}

type inputBlock struct {
	Name string         `hcl:"name,label"`
	Type hcl.Expression `hcl:"type,optional"`
}

type recordBlock struct {
	Body hcl.Body `hcl:",remain"`
}
