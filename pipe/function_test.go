package pipe

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartcontractkit/pipes-framework/content"
	"github.com/smartcontractkit/pipes-framework/memory"
	"github.com/smartcontractkit/pipes-framework/operations"
	"github.com/smartcontractkit/pipes-framework/operations/optest"
)

func firstWords(wm *memory.WorkingMemory) ([]content.Text, error) {
	text, err := wm.GetText("text")
	if err != nil {
		return nil, err
	}

	words := strings.Fields(text.Text)
	out := make([]content.Text, 0, 3)
	for _, w := range words[:min(3, len(words))] {
		out = append(out, content.NewText(w))
	}

	return out, nil
}

func newRegistry(t *testing.T) *operations.OperationRegistry {
	t.Helper()

	reg := operations.NewOperationRegistry()
	reg.MustRegister("first_words", firstWords)
	reg.MustRegister("shout", func(_ context.Context, wm *memory.WorkingMemory) (string, error) {
		s, err := wm.GetString("text")
		return strings.ToUpper(s), err
	})
	reg.MustRegister("nothing", func(*memory.WorkingMemory) (content.Value, error) {
		return nil, nil
	})
	reg.MustRegister("count", func(*memory.WorkingMemory) (content.Value, error) {
		return content.NewNumber(1), nil
	})

	return reg
}

func TestFunctionOperator_Run(t *testing.T) {
	t.Parallel()

	reg := newRegistry(t)
	b := optest.NewBundle(t, reg)

	wm := memory.New()
	wm.Set("text", content.NewText("the quick brown fox"))

	op := NewFunctionOperator("first_three", "first_words",
		WithInputs(map[string]content.Type{"text": content.TextType}),
		WithOutput(content.ListType(content.TextType)))
	require.NoError(t, op.Validate(reg))

	got, err := op.Run(t.Context(), b, wm)
	require.NoError(t, err)

	items, ok := content.AsList(got)
	require.True(t, ok)
	assert.Equal(t, []content.Value{content.NewText("the"), content.NewText("quick"), content.NewText("brown")}, items.Items)

	// the operator does not store its result
	assert.Equal(t, 1, wm.Len())
}

func TestFunctionOperator_Run_StringCoercedToText(t *testing.T) {
	t.Parallel()

	reg := newRegistry(t)
	b := optest.NewBundle(t, reg)

	op := NewFunctionOperator("shout", "shout")
	require.NoError(t, op.Validate(reg))
	assert.Equal(t, content.TextType, op.Output())

	got, err := op.Run(t.Context(), b, memory.NewFromValues(map[string]content.Value{"text": content.NewText("hi")}))
	require.NoError(t, err)
	assert.Equal(t, content.NewText("HI"), got)
}

func TestFunctionOperator_Run_Errors(t *testing.T) {
	t.Parallel()

	reg := newRegistry(t)
	b := optest.NewBundle(t, reg)

	t.Run("unregistered", func(t *testing.T) {
		t.Parallel()

		_, err := NewFunctionOperator("p", "missing").Run(t.Context(), b, memory.New())
		var unregistered *operations.UnregisteredOperationError
		require.ErrorAs(t, err, &unregistered)
	})

	t.Run("missing input surfaces as not found", func(t *testing.T) {
		t.Parallel()

		_, err := NewFunctionOperator("p", "first_words").Run(t.Context(), b, memory.New())
		assert.True(t, memory.IsNotFound(err))
	})

	t.Run("nil result cannot be normalized", func(t *testing.T) {
		t.Parallel()

		_, err := NewFunctionOperator("p", "nothing").Run(t.Context(), b, memory.New())
		var nerr *NormalizationError
		require.ErrorAs(t, err, &nerr)
		assert.Equal(t, "nothing", nerr.Operation)
		assert.Equal(t, "nil", nerr.Actual)
	})

	t.Run("result does not match declared output", func(t *testing.T) {
		t.Parallel()

		op := NewFunctionOperator("p", "count", WithOutput(content.TextType))
		_, err := op.Run(t.Context(), b, memory.New())
		var nerr *NormalizationError
		require.ErrorAs(t, err, &nerr)
		assert.Equal(t, content.TextType, nerr.Declared)
		assert.Equal(t, "Number", nerr.Actual)
	})

	t.Run("nil list item cannot be normalized", func(t *testing.T) {
		t.Parallel()

		nilItems := operations.NewOperationRegistry()
		nilItems.MustRegister("nil_items", func(*memory.WorkingMemory) ([]*content.Text, error) {
			return []*content.Text{nil}, nil
		})

		_, err := NewFunctionOperator("p", "nil_items").Run(t.Context(), optest.NewBundle(t, nilItems), memory.New())
		var nerr *NormalizationError
		require.ErrorAs(t, err, &nerr)
		assert.Equal(t, "[]*content.Text", nerr.Actual)
	})
}

func TestFunctionOperator_Run_Retry(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	reg := operations.NewOperationRegistry()
	reg.MustRegister("flaky", func(*memory.WorkingMemory) (content.Text, error) {
		if calls.Add(1) < 2 {
			return content.Text{}, errors.New("transient")
		}

		return content.NewText("ok"), nil
	})
	b := optest.NewBundle(t, reg)

	op := NewFunctionOperator("p", "flaky",
		WithRetry(operations.RetryPolicy{MaxAttempts: 3, Delay: time.Millisecond}))

	got, err := op.Run(t.Context(), b, memory.New())
	require.NoError(t, err)
	assert.Equal(t, content.NewText("ok"), got)
	assert.Equal(t, int32(2), calls.Load())
}

func TestFunctionOperator_DryRun(t *testing.T) {
	t.Parallel()

	var invoked atomic.Bool
	reg := operations.NewOperationRegistry()
	reg.MustRegister("spy", func(*memory.WorkingMemory) ([]content.Text, error) {
		invoked.Store(true)
		return nil, nil
	})
	b := optest.NewBundle(t, reg)

	op := NewFunctionOperator("p", "spy",
		WithInputs(map[string]content.Type{"text": content.TextType}),
		WithOutput(content.ListType(content.TextType)))

	_, err := op.DryRun(t.Context(), b, memory.New())
	var nf *memory.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "text", nf.Name)

	_, err = op.DryRun(t.Context(), b, memory.NewFromValues(map[string]content.Value{"text": content.NewNumber(1)}))
	assert.True(t, memory.IsTypeMismatch(err))

	got, err := op.DryRun(t.Context(), b, memory.NewFromValues(map[string]content.Value{"text": content.NewText("x")}))
	require.NoError(t, err)
	assert.True(t, content.ListType(content.TextType).Accepts(got))

	assert.False(t, invoked.Load())
}

func TestFunctionOperator_Validate(t *testing.T) {
	t.Parallel()

	reg := newRegistry(t)

	tests := []struct {
		name    string
		op      *FunctionOperator
		wantErr error
	}{
		{
			name: "compatible",
			op:   NewFunctionOperator("p", "first_words", WithOutput(content.ListType(content.TextType))),
		},
		{
			name: "declared narrows any",
			op:   NewFunctionOperator("p", "count", WithOutput(content.NumberType)),
		},
		{
			name:    "incompatible",
			op:      NewFunctionOperator("p", "first_words", WithOutput(content.NumberType)),
			wantErr: ErrIncompatibleOutput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.op.Validate(reg)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}

	err := NewFunctionOperator("p", "missing").Validate(reg)
	var unregistered *operations.UnregisteredOperationError
	require.ErrorAs(t, err, &unregistered)
}
