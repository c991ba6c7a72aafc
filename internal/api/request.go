package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/vk/formulagrid/internal/formula"
	"github.com/vk/formulagrid/internal/ingest"
)

// InputField declares one formula input.
type InputField struct {
	VarName *string `json:"varName"`
	VarType *string `json:"varType"`
}

// FormulaSpec is a formula as sent over the wire. Pointer fields tell a
// missing field apart from an empty one.
type FormulaSpec struct {
	Expression *string       `json:"expression"`
	Inputs     *[]InputField `json:"inputs"`
	OutputVar  *string       `json:"outputVar"`
}

// ExecuteRequest is the body of POST /api/execute-formula.
type ExecuteRequest struct {
	Data     json.RawMessage `json:"data"`
	Formulas *[]FormulaSpec  `json:"formulas"`
}

// DecodeRequest reads one request body.
func DecodeRequest(r io.Reader) (*ExecuteRequest, error) {
	var req ExecuteRequest
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, invalid("body: Field required")
		}
		return nil, invalid(fmt.Sprintf("body: invalid JSON: %s", err))
	}
	return &req, nil
}

// ToBatch checks required fields and converts the request into a batch.
func (r *ExecuteRequest) ToBatch() (*formula.Batch, error) {
	data := bytes.TrimSpace(r.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, invalid("data: Field required")
	}
	if r.Formulas == nil {
		return nil, invalid("formulas: Field required")
	}

	records, err := ingest.RecordsFromJSON(data)
	if err != nil {
		return nil, invalid(err.Error())
	}

	batch := &formula.Batch{Records: records, Formulas: make([]*formula.Formula, 0, len(*r.Formulas))}
	for i, spec := range *r.Formulas {
		f, err := spec.toFormula(i)
		if err != nil {
			return nil, err
		}
		batch.Formulas = append(batch.Formulas, f)
	}
	if err := batch.Validate(); err != nil {
		return nil, err
	}
	return batch, nil
}

func (s FormulaSpec) toFormula(i int) (*formula.Formula, error) {
	switch {
	case s.Expression == nil:
		return nil, invalid(fmt.Sprintf("formulas[%d].expression: Field required", i))
	case s.Inputs == nil:
		return nil, invalid(fmt.Sprintf("formulas[%d].inputs: Field required", i))
	case s.OutputVar == nil:
		return nil, invalid(fmt.Sprintf("formulas[%d].outputVar: Field required", i))
	}

	f := &formula.Formula{Expression: *s.Expression, OutputVar: *s.OutputVar}
	for j, in := range *s.Inputs {
		if in.VarName == nil {
			return nil, invalid(fmt.Sprintf("formulas[%d].inputs[%d].varName: Field required", i, j))
		}
		if in.VarType == nil {
			return nil, invalid(fmt.Sprintf("formulas[%d].inputs[%d].varType: Field required", i, j))
		}
		kind, err := formula.ParseKind(*in.VarType)
		if err != nil {
			return nil, invalid(fmt.Sprintf("formulas[%d].inputs[%d].varType: %s", i, j, err))
		}
		f.Inputs = append(f.Inputs, formula.Input{Name: *in.VarName, Kind: kind})
	}
	return f, nil
}

// NewExecuteRequest encodes a batch for sending to a server.
func NewExecuteRequest(b *formula.Batch) (*ExecuteRequest, error) {
	records := b.Records
	if records == nil {
		records = []formula.Record{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("encoding records: %w", err)
	}

	specs := make([]FormulaSpec, len(b.Formulas))
	for i, f := range b.Formulas {
		inputs := make([]InputField, len(f.Inputs))
		for j, in := range f.Inputs {
			inputs[j] = InputField{VarName: ptr(in.Name), VarType: ptr(string(in.Kind))}
		}
		specs[i] = FormulaSpec{Expression: ptr(f.Expression), Inputs: &inputs, OutputVar: ptr(f.OutputVar)}
	}
	return &ExecuteRequest{Data: data, Formulas: &specs}, nil
}

func invalid(msg string) error {
	return &formula.Error{Kind: formula.KindInvalidBatch, Message: msg}
}

func ptr[T any](v T) *T { return &v }
