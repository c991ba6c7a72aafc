package hcl

import (
	"context"
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/formulagrid/internal/ctxlog"
	"github.com/vk/formulagrid/internal/formula"
	"github.com/vk/formulagrid/internal/fsutil"
	"github.com/vk/formulagrid/internal/ingest"
)

// Loader reads batch files.
type Loader struct{}

// NewLoader creates a new HCL batch loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses every .hcl file found under paths (files or directories) and
// merges their formulas and records into one batch, in file order then
// block order.
func (l *Loader) Load(ctx context.Context, paths ...string) (*formula.Batch, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "pathCount", len(paths))

	files, err := fsutil.FindFilesByExtension(paths, ".hcl")
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .hcl files found in %v", paths)
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	batch := &formula.Batch{}
	parser := hclparse.NewParser()

	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}

		var root fileRoot
		diags = gohcl.DecodeBody(hclFile.Body, nil, &root)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}

		for _, fb := range root.Formulas {
			f, diags := translateFormula(fb)
			if diags.HasErrors() {
				return nil, fmt.Errorf("invalid formula in %s: %w", file, diags)
			}
			batch.Formulas = append(batch.Formulas, f)
		}
		for _, rb := range root.Records {
			r, err := translateRecord(rb)
			if err != nil {
				return nil, fmt.Errorf("invalid record in %s: %w", file, err)
			}
			batch.Records = append(batch.Records, r)
		}
	}

	logger.Debug("HCL loading complete.", "formulas", len(batch.Formulas), "records", len(batch.Records))
	return batch, nil
}

func translateFormula(fb *formulaBlock) (*formula.Formula, hcl.Diagnostics) {
	var diags hcl.Diagnostics
	f := &formula.Formula{OutputVar: fb.Output, Expression: fb.Expression}
	for _, ib := range fb.Inputs {
		kind, kindDiags := inputKind(ib.Type)
		diags = append(diags, kindDiags...)
		f.Inputs = append(f.Inputs, formula.Input{Name: ib.Name, Kind: kind})
	}
	return f, diags
}

func translateRecord(rb *recordBlock) (formula.Record, error) {
	attrs, diags := rb.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, diags
	}

	names := make([]string, 0, len(attrs))
	for name := range attrs {
		names = append(names, name)
	}
	sort.Strings(names)

	r := make(formula.Record, len(attrs))
	for _, name := range names {
		attr := attrs[name]
		v, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, diags
		}
		fv, err := ingest.ValueFromCty(v)
		if err != nil {
			return nil, fmt.Errorf("%s: field '%s': %w", attr.Range, name, err)
		}
		r[name] = fv
	}
	return r, nil
}
