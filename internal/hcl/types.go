package hcl

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/formulagrid/internal/formula"
)

// inputKind converts the `type` expression of an input block into a kind.
// The expression must be a bare keyword such as `number`. A missing type
// means number.
func inputKind(expr hcl.Expression) (formula.Kind, hcl.Diagnostics) {
	if expr == nil {
		return formula.KindNumber, nil
	}

	keyword := hcl.ExprAsKeyword(expr)
	if keyword == "" {
		// gohcl hands us a null expression when the attribute is absent.
		if v, diags := expr.Value(nil); !diags.HasErrors() && v.IsNull() {
			return formula.KindNumber, nil
		}
		return "", hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Invalid type specification",
			Detail:   "The 'type' attribute must be a simple type keyword like 'number', 'currency', 'percentage' or 'text', not a complex expression.",
			Subject:  expr.Range().Ptr(),
		}}
	}

	kind, err := formula.ParseKind(keyword)
	if err != nil {
		return "", hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Unsupported type",
			Detail:   fmt.Sprintf("The keyword '%s' is not a valid input type. Supported types are: number, currency, percentage, text.", keyword),
			Subject:  expr.Range().Ptr(),
		}}
	}
	return kind, nil
}
