package engine

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/vk/formulagrid/internal/ctxlog"
	"github.com/vk/formulagrid/internal/expr"
	"github.com/vk/formulagrid/internal/formula"
	"golang.org/x/sync/errgroup"
)

// State is the lifecycle stage of a batch.
type State int

const (
	Scheduling State = iota
	Evaluating
	Completed
	Failed
)

func (s State) String() string {
	switch s {
	case Scheduling:
		return "scheduling"
	case Evaluating:
		return "evaluating"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Executor runs batches. The zero value evaluates records sequentially.
type Executor struct {
	// Workers is the number of records evaluated concurrently. Values below
	// two mean sequential evaluation.
	Workers int
}

// New creates an Executor with the given worker count.
func New(workers int) *Executor {
	return &Executor{Workers: workers}
}

// Execute validates, schedules and evaluates the batch. On success every
// output variable maps to one result per record, in record order. Any
// failure aborts the batch and no results are returned.
func (e *Executor) Execute(ctx context.Context, batch *formula.Batch) (*formula.ResultSet, error) {
	ctx, logger := ctxlog.With(ctx, "batchID", uuid.NewString())
	logger.Debug("Batch received.", "formulas", len(batch.Formulas), "records", len(batch.Records), "workers", e.Workers)

	if err := batch.Validate(); err != nil {
		logger.Debug("Batch rejected.", "state", Failed, "error", err)
		return nil, err
	}

	logger.Debug("Batch state changed.", "state", Scheduling)
	plan, err := Schedule(ctx, batch.Formulas)
	if err != nil {
		logger.Debug("Batch state changed.", "state", Failed, "error", err)
		return nil, err
	}

	logger.Debug("Batch state changed.", "state", Evaluating)
	values, err := e.evaluate(ctx, plan, batch.Records)
	if err != nil {
		logger.Debug("Batch state changed.", "state", Failed, "error", err)
		return nil, err
	}

	rs := formula.NewResultSet()
	if len(batch.Records) > 0 {
		for s, step := range plan.Steps {
			rs.Declare(step.Formula.OutputVar, len(batch.Records))
			for i, v := range values[s] {
				rs.Set(step.Formula.OutputVar, i, v)
			}
		}
	}

	logger.Debug("Batch state changed.", "state", Completed)
	return rs, nil
}

// evaluate returns one result column per plan step.
func (e *Executor) evaluate(ctx context.Context, plan *Plan, records []formula.Record) ([][]formula.Number, error) {
	values := make([][]formula.Number, len(plan.Steps))
	for s := range values {
		values[s] = make([]formula.Number, len(records))
	}

	if e.Workers < 2 || len(records) < 2 {
		for i, r := range records {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if err := evaluateRecord(ctx, plan, i, r, values); err != nil {
				return nil, err
			}
		}
		return values, nil
	}

	// Workers write disjoint indices of values; the plan is read-only.
	// lowest holds the smallest failing record index seen so far. Records
	// above it are skipped, records below it always run, so the reported
	// error is the one a sequential run would return.
	errs := make([]error, len(records))
	var lowest atomic.Int64
	lowest.Store(int64(len(records)))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.Workers)
	for i, r := range records {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if int64(i) > lowest.Load() {
				return nil
			}
			if err := evaluateRecord(gctx, plan, i, r, values); err != nil {
				errs[i] = err
				for {
					cur := lowest.Load()
					if int64(i) >= cur || lowest.CompareAndSwap(cur, int64(i)) {
						break
					}
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if i := lowest.Load(); i < int64(len(records)) {
		return nil, errs[i]
	}
	return values, nil
}

// evaluateRecord runs every step against one record and stores the results
// at index i.
func evaluateRecord(ctx context.Context, plan *Plan, i int, r formula.Record, values [][]formula.Number) error {
	logger := ctxlog.FromContext(ctx)
	env := NewEnvironment(r)

	for s, step := range plan.Steps {
		f := step.Formula
		bindings, err := env.Bind(f)
		if err != nil {
			return atRecord(err, i)
		}

		program, err := step.Program()
		if err != nil {
			return atRecord(invalidExpression(f, err), i)
		}

		result, err := program.Eval(bindings)
		if err != nil {
			return atRecord(invalidExpression(f, err), i)
		}

		logger.Debug("Formula evaluated.", "record", i+1, "formula", f.OutputVar, "result", result)
		env.Set(f.OutputVar, formula.NumberVal(result))
		values[s][i] = formula.Number(result)
	}
	return nil
}

func invalidExpression(f *formula.Formula, err error) error {
	fe := &formula.Error{
		Kind:       formula.KindInvalidExpression,
		Message:    fmt.Sprintf("Invalid expression: '%s'. Error: %s", f.Expression, err),
		Expression: f.Expression,
		Output:     f.OutputVar,
		Err:        err,
	}
	var evalErr *expr.EvalError
	if errors.As(err, &evalErr) {
		fe.Variable = evalErr.Name
	}
	return fe
}

func atRecord(err error, i int) error {
	var fe *formula.Error
	if errors.As(err, &fe) {
		fe.Record = i + 1
	}
	return err
}
