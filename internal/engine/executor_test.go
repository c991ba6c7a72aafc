package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/formulagrid/internal/formula"
	"github.com/vk/formulagrid/internal/testutil"
)

func rec(kv ...any) formula.Record {
	r := formula.Record{}
	for i := 0; i < len(kv); i += 2 {
		name := kv[i].(string)
		switch v := kv[i+1].(type) {
		case int:
			r[name] = formula.NumberVal(float64(v))
		case float64:
			r[name] = formula.NumberVal(v)
		case string:
			r[name] = formula.TextVal(v)
		case nil:
			r[name] = formula.NullVal()
		}
	}
	return r
}

func chainedBatch() *formula.Batch {
	return &formula.Batch{
		Records: []formula.Record{
			rec("id", 1, "fieldA", 10, "fieldB", 2),
			rec("id", 2, "fieldA", 20, "fieldB", 3),
		},
		Formulas: []*formula.Formula{
			{OutputVar: "sumResult", Expression: "fieldA + fieldB", Inputs: num("fieldA", "fieldB")},
			{OutputVar: "finalResult", Expression: "sumResult * 2 + fieldA", Inputs: num("sumResult", "fieldA")},
		},
	}
}

func TestExecutor_Scenarios(t *testing.T) {
	ctx := context.Background()

	t.Run("simple addition", func(t *testing.T) {
		batch := &formula.Batch{
			Records: []formula.Record{rec("id", 1, "fieldA", 10), rec("id", 2, "fieldA", 20)},
			Formulas: []*formula.Formula{
				{OutputVar: "result", Expression: "fieldA + 10", Inputs: num("fieldA")},
			},
		}
		rs, err := New(1).Execute(ctx, batch)
		require.NoError(t, err)
		assert.Equal(t, `{"result":[20,30]}`, testutil.JSON(t, rs))
	})

	t.Run("revenue with normalised inputs", func(t *testing.T) {
		batch := &formula.Batch{
			Records: []formula.Record{
				rec("id", 1, "product", "Laptop", "unitPrice", 1000, "quantity", 5, "discount", 10),
				rec("id", 2, "product", "Smartphone", "unitPrice", 500, "quantity", 10, "discount", 5),
				rec("id", 3, "product", "Tablet", "unitPrice", 300, "quantity", 15, "discount", 0),
			},
			Formulas: []*formula.Formula{{
				OutputVar:  "revenue",
				Expression: "((unitPrice * quantity) - (unitPrice * quantity * (discount / 100)))",
				Inputs: []formula.Input{
					{Name: "unitPrice", Kind: formula.KindCurrency},
					{Name: "quantity", Kind: formula.KindNumber},
					{Name: "discount", Kind: formula.KindPercentage},
				},
			}},
		}
		rs, err := New(1).Execute(ctx, batch)
		require.NoError(t, err)

		out, err := json.Marshal(rs)
		require.NoError(t, err)
		assert.JSONEq(t, `{"revenue":[4500,4750,4500]}`, string(out))
	})

	t.Run("chained formulas", func(t *testing.T) {
		rs, err := New(1).Execute(ctx, chainedBatch())
		require.NoError(t, err)
		assert.Equal(t, []string{"sumResult", "finalResult"}, rs.Keys())
		assert.Equal(t, `{"sumResult":[12,23],"finalResult":[34,66]}`, testutil.JSON(t, rs))
	})

	t.Run("chain declared out of order", func(t *testing.T) {
		batch := chainedBatch()
		batch.Formulas[0], batch.Formulas[1] = batch.Formulas[1], batch.Formulas[0]

		rs, err := New(1).Execute(ctx, batch)
		require.NoError(t, err)
		assert.Equal(t, []string{"sumResult", "finalResult"}, rs.Keys())
		assert.Equal(t, `{"sumResult":[12,23],"finalResult":[34,66]}`, testutil.JSON(t, rs))
	})

	t.Run("invalid expression", func(t *testing.T) {
		batch := &formula.Batch{
			Records: []formula.Record{rec("id", 1, "fieldA", 10, "fieldB", 20)},
			Formulas: []*formula.Formula{
				{OutputVar: "sumResult", Expression: "fieldA + + fieldB", Inputs: num("fieldA", "fieldB")},
			},
		}
		rs, err := New(1).Execute(ctx, batch)
		assert.Nil(t, rs)
		require.Error(t, err)
		assert.True(t, errors.Is(err, formula.ErrInvalidExpression))
		assert.Contains(t, err.Error(), "Invalid expression: 'fieldA + + fieldB'")

		var fe *formula.Error
		require.True(t, errors.As(err, &fe))
		assert.Equal(t, 1, fe.Record)
		assert.Equal(t, "sumResult", fe.Output)
	})

	t.Run("name not declared as input", func(t *testing.T) {
		batch := &formula.Batch{
			Records: []formula.Record{rec("id", 1, "fieldA", 10, "nonExistentField", 1)},
			Formulas: []*formula.Formula{
				{OutputVar: "sumResult", Expression: "fieldA + nonExistentField", Inputs: num("fieldA")},
			},
		}
		_, err := New(1).Execute(ctx, batch)
		require.Error(t, err)
		assert.True(t, errors.Is(err, formula.ErrInvalidExpression))
		assert.Contains(t, err.Error(), "name 'nonExistentField' is not defined")

		var fe *formula.Error
		require.True(t, errors.As(err, &fe))
		assert.Equal(t, "nonExistentField", fe.Variable)
	})

	t.Run("undefined variable", func(t *testing.T) {
		batch := &formula.Batch{
			Records: []formula.Record{rec("id", 1, "fieldA", 10), rec("id", 2)},
			Formulas: []*formula.Formula{
				{OutputVar: "r", Expression: "fieldA * 2", Inputs: num("fieldA")},
			},
		}
		_, err := New(1).Execute(ctx, batch)
		require.Error(t, err)
		assert.True(t, errors.Is(err, formula.ErrUndefinedVariable))
		assert.EqualError(t, err, "Invalid input variable: 'fieldA'")

		var fe *formula.Error
		require.True(t, errors.As(err, &fe))
		assert.Equal(t, 2, fe.Record)
	})

	t.Run("cycle", func(t *testing.T) {
		batch := &formula.Batch{
			Records: []formula.Record{rec("id", 1)},
			Formulas: []*formula.Formula{
				{OutputVar: "a", Expression: "b + 1", Inputs: num("b")},
				{OutputVar: "b", Expression: "a + 1", Inputs: num("a")},
			},
		}
		_, err := New(1).Execute(ctx, batch)
		require.Error(t, err)
		assert.True(t, errors.Is(err, formula.ErrCyclicDependency))
	})

	t.Run("division by zero aborts the batch", func(t *testing.T) {
		batch := &formula.Batch{
			Records: []formula.Record{rec("x", 1, "y", 1), rec("x", 1, "y", 0)},
			Formulas: []*formula.Formula{
				{OutputVar: "q", Expression: "x / y", Inputs: num("x", "y")},
			},
		}
		rs, err := New(1).Execute(ctx, batch)
		assert.Nil(t, rs)
		require.Error(t, err)
		assert.True(t, errors.Is(err, formula.ErrInvalidExpression))
		assert.Contains(t, err.Error(), "division by zero")
	})

	t.Run("text operand", func(t *testing.T) {
		batch := &formula.Batch{
			Records: []formula.Record{rec("x", "abc")},
			Formulas: []*formula.Formula{
				{OutputVar: "q", Expression: "x + 1", Inputs: num("x")},
			},
		}
		_, err := New(1).Execute(ctx, batch)
		require.Error(t, err)
		assert.True(t, errors.Is(err, formula.ErrInvalidExpression))
	})

	t.Run("duplicate output rejected", func(t *testing.T) {
		batch := &formula.Batch{
			Records: []formula.Record{rec("x", 1)},
			Formulas: []*formula.Formula{
				{OutputVar: "q", Expression: "x", Inputs: num("x")},
				{OutputVar: "q", Expression: "x * 2", Inputs: num("x")},
			},
		}
		_, err := New(1).Execute(ctx, batch)
		assert.True(t, errors.Is(err, formula.ErrInvalidBatch))
	})
}

func TestExecutor_EdgeCases(t *testing.T) {
	ctx := context.Background()

	t.Run("zero records", func(t *testing.T) {
		batch := chainedBatch()
		batch.Records = nil
		rs, err := New(1).Execute(ctx, batch)
		require.NoError(t, err)
		assert.Equal(t, `{}`, testutil.JSON(t, rs))

		out, err := json.Marshal(rs)
		require.NoError(t, err)
		assert.Equal(t, "{}", string(out))
	})

	t.Run("zero records hides compile errors", func(t *testing.T) {
		batch := &formula.Batch{Formulas: []*formula.Formula{{OutputVar: "r", Expression: "1 +"}}}
		rs, err := New(1).Execute(ctx, batch)
		require.NoError(t, err)
		assert.Equal(t, `{}`, testutil.JSON(t, rs))
	})

	t.Run("empty expression is invalid", func(t *testing.T) {
		for _, src := range []string{"", "   "} {
			batch := &formula.Batch{
				Records:  []formula.Record{rec("x", 1)},
				Formulas: []*formula.Formula{{OutputVar: "r", Expression: src, Inputs: num("x")}},
			}
			_, err := New(1).Execute(ctx, batch)
			var fe *formula.Error
			require.True(t, errors.As(err, &fe), "expression %q", src)
			assert.Equal(t, formula.KindInvalidExpression, fe.Kind)
			assert.Contains(t, fe.Message, "empty expression")
			assert.Equal(t, 1, fe.Record)
		}
	})

	t.Run("zero formulas", func(t *testing.T) {
		batch := &formula.Batch{Records: []formula.Record{rec("id", 1)}}
		rs, err := New(1).Execute(ctx, batch)
		require.NoError(t, err)
		assert.Equal(t, `{}`, testutil.JSON(t, rs))
	})

	t.Run("formula without inputs", func(t *testing.T) {
		batch := &formula.Batch{
			Records:  []formula.Record{rec("id", 1), rec("id", 2)},
			Formulas: []*formula.Formula{{OutputVar: "k", Expression: "2 * 21"}},
		}
		rs, err := New(1).Execute(ctx, batch)
		require.NoError(t, err)
		assert.Equal(t, `{"k":[42,42]}`, testutil.JSON(t, rs))
	})

	t.Run("output shadows record field", func(t *testing.T) {
		batch := &formula.Batch{
			Records: []formula.Record{rec("a", 1, "b", 100)},
			Formulas: []*formula.Formula{
				{OutputVar: "c", Expression: "b + 1", Inputs: num("b")},
				{OutputVar: "b", Expression: "a * 2", Inputs: num("a")},
			},
		}
		rs, err := New(1).Execute(ctx, batch)
		require.NoError(t, err)
		// b is produced first, so c sees the formula output, not the field.
		assert.Equal(t, `{"b":[2],"c":[3]}`, testutil.JSON(t, rs))
	})

	t.Run("records are not modified", func(t *testing.T) {
		batch := chainedBatch()
		before := batch.Records[0].Clone()
		_, err := New(1).Execute(ctx, batch)
		require.NoError(t, err)
		assert.Equal(t, before, batch.Records[0])
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := New(1).Execute(cctx, chainedBatch())
		assert.ErrorIs(t, err, context.Canceled)

		_, err = New(4).Execute(cctx, chainedBatch())
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestExecutor_Parallel(t *testing.T) {
	ctx := context.Background()

	batch := &formula.Batch{
		Formulas: []*formula.Formula{
			{OutputVar: "total", Expression: "sub * (1 + rate / 100)", Inputs: num("sub", "rate")},
			{OutputVar: "sub", Expression: "price * qty", Inputs: num("price", "qty")},
		},
	}
	for i := range 200 {
		batch.Records = append(batch.Records, rec("id", i, "price", float64(i)+0.5, "qty", i%7, "rate", i%20))
	}

	sequential, err := New(1).Execute(ctx, batch)
	require.NoError(t, err)

	for _, workers := range []int{2, 4, 16} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			parallel, err := New(workers).Execute(ctx, batch)
			require.NoError(t, err)
			assert.Equal(t, testutil.JSON(t, sequential), testutil.JSON(t, parallel))
		})
	}

	t.Run("failure aborts with lowest failing record", func(t *testing.T) {
		broken := &formula.Batch{Formulas: batch.Formulas}
		broken.Records = append([]formula.Record(nil), batch.Records...)
		broken.Records[150] = rec("id", 150, "price", 1, "qty", 1)

		rs, err := New(8).Execute(ctx, broken)
		assert.Nil(t, rs)
		require.Error(t, err)
		var fe *formula.Error
		require.True(t, errors.As(err, &fe))
		assert.Equal(t, formula.KindUndefinedVariable, fe.Kind)
		assert.Equal(t, 151, fe.Record)
		assert.Equal(t, "rate", fe.Variable)
	})

	t.Run("every record failing reports the first", func(t *testing.T) {
		failing := &formula.Batch{
			Formulas: []*formula.Formula{{OutputVar: "q", Expression: "x / 0", Inputs: num("x")}},
		}
		for i := range 64 {
			failing.Records = append(failing.Records, rec("x", i))
		}
		// The last record fails with a different kind, so a timing dependent
		// pick would show up as a kind change too.
		failing.Records[63] = rec("id", 63)

		for range 200 {
			_, err := New(8).Execute(ctx, failing)
			var fe *formula.Error
			require.True(t, errors.As(err, &fe))
			require.Equal(t, 1, fe.Record)
			require.Equal(t, formula.KindInvalidExpression, fe.Kind)
		}
	})
}

func TestExecutor_LogsStates(t *testing.T) {
	ctx, buf := testutil.LoggerContext(t)

	_, err := New(1).Execute(ctx, chainedBatch())
	require.NoError(t, err)

	logs := buf.String()
	assert.Contains(t, logs, "batchID=")
	assert.Contains(t, logs, "state=scheduling")
	assert.Contains(t, logs, "state=evaluating")
	assert.Contains(t, logs, "state=completed")
	assert.Contains(t, logs, "formula=finalResult")
}
