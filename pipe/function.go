package pipe

import (
	"context"
	"fmt"
	"maps"

	"github.com/smartcontractkit/pipes-framework/content"
	"github.com/smartcontractkit/pipes-framework/memory"
	"github.com/smartcontractkit/pipes-framework/operations"
)

// FunctionOperator runs a computation registered in the operations registry.
type FunctionOperator struct {
	code         string
	functionName string
	description  string
	inputs       map[string]content.Type
	output       content.Type
	retry        *operations.RetryPolicy
}

// FunctionOption configures a FunctionOperator.
type FunctionOption func(*FunctionOperator)

// WithInputs declares the inputs the computation reads, by name and type. Declared inputs are
// only checked by DryRun; the computation reads memory itself.
func WithInputs(inputs map[string]content.Type) FunctionOption {
	return func(op *FunctionOperator) {
		maps.Copy(op.inputs, inputs)
	}
}

// WithOutput declares the type of the value the operator produces.
func WithOutput(t content.Type) FunctionOption {
	return func(op *FunctionOperator) {
		op.output = t
	}
}

// WithRetry retries transient failures of the computation with the given policy.
func WithRetry(policy operations.RetryPolicy) FunctionOption {
	return func(op *FunctionOperator) {
		op.retry = &policy
	}
}

// WithFunctionDescription sets a human readable description.
func WithFunctionDescription(description string) FunctionOption {
	return func(op *FunctionOperator) {
		op.description = description
	}
}

// NewFunctionOperator returns an operator named code that calls the computation registered as
// functionName.
func NewFunctionOperator(code, functionName string, opts ...FunctionOption) *FunctionOperator {
	op := &FunctionOperator{
		code:         code,
		functionName: functionName,
		inputs:       make(map[string]content.Type),
	}
	for _, opt := range opts {
		opt(op)
	}

	return op
}

func (op *FunctionOperator) Name() string { return op.code }

// FunctionName returns the registry name of the computation.
func (op *FunctionOperator) FunctionName() string { return op.functionName }

func (op *FunctionOperator) Description() string { return op.description }

func (op *FunctionOperator) Inputs() map[string]content.Type { return maps.Clone(op.inputs) }

// Output returns the declared output type, or Any when none was declared or resolved by Validate.
func (op *FunctionOperator) Output() content.Type {
	if op.output.IsZero() {
		return content.AnyType
	}

	return op.output
}

// Validate checks that the computation is registered and that its result type is compatible with
// the declared output. When no output was declared, the computation's result type is adopted.
func (op *FunctionOperator) Validate(reg *operations.OperationRegistry) error {
	entry, err := reg.RequireLookup(op.functionName)
	if err != nil {
		return fmt.Errorf("pipe %s: %w", op.code, err)
	}

	result := entry.Signature.Result
	if op.output.IsZero() {
		op.output = result

		return nil
	}
	if !op.output.Covers(result) && !result.Covers(op.output) {
		return fmt.Errorf("pipe %s: %w: declared %s, %s returns %s",
			op.code, ErrIncompatibleOutput, op.output, op.functionName, result)
	}

	return nil
}

// Run invokes the computation with wm, normalizes the result and checks it against the declared
// output. The value is returned, not stored.
func (op *FunctionOperator) Run(ctx context.Context, b operations.Bundle, wm *memory.WorkingMemory) (content.Value, error) {
	entry, err := b.OperationRegistry.RequireLookup(op.functionName)
	if err != nil {
		return nil, err
	}

	var opts []operations.ExecuteOption
	if op.retry != nil {
		opts = append(opts, operations.WithRetryConfig(operations.RetryConfig{
			Enabled: true,
			Policy:  *op.retry,
		}))
	}

	raw, err := operations.Execute(ctx, b, entry, wm, opts...)
	if err != nil {
		return nil, fmt.Errorf("function %s: %w", op.functionName, err)
	}

	v, err := Normalize(op.functionName, op.Output(), raw)
	if err != nil {
		return nil, err
	}
	if err := checkOutput(op.functionName, op.Output(), v); err != nil {
		return nil, err
	}

	return v, nil
}

// DryRun checks the declared inputs and returns a placeholder of the declared output. The
// computation is never invoked.
func (op *FunctionOperator) DryRun(_ context.Context, b operations.Bundle, wm *memory.WorkingMemory) (content.Value, error) {
	if _, err := b.OperationRegistry.RequireLookup(op.functionName); err != nil {
		return nil, err
	}
	if err := CheckInputs(wm, op.inputs); err != nil {
		return nil, err
	}

	return content.Placeholder(op.Output()), nil
}
