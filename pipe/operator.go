package pipe

import (
	"context"
	"errors"
	"maps"
	"slices"

	"github.com/smartcontractkit/pipes-framework/content"
	"github.com/smartcontractkit/pipes-framework/memory"
	"github.com/smartcontractkit/pipes-framework/operations"
)

var ErrIncompatibleOutput = errors.New("declared output is incompatible with the operation result")

// Operator is a unit of work a pipeline step runs against working memory.
//
// Run reads the operator's inputs from wm and returns the produced value without storing it.
// DryRun checks the inputs are present with compatible types and returns a placeholder of the
// declared output without doing any work. Validate is called once at load time.
type Operator interface {
	Name() string
	Inputs() map[string]content.Type
	Output() content.Type
	Run(ctx context.Context, b operations.Bundle, wm *memory.WorkingMemory) (content.Value, error)
	DryRun(ctx context.Context, b operations.Bundle, wm *memory.WorkingMemory) (content.Value, error)
	Validate(reg *operations.OperationRegistry) error
}

// CheckInputs verifies that every declared input resolves in wm to a value of the declared type.
// Inputs are checked in name order so the first reported error is stable.
func CheckInputs(wm *memory.WorkingMemory, inputs map[string]content.Type) error {
	for _, name := range slices.Sorted(maps.Keys(inputs)) {
		if _, err := wm.GetAs(name, inputs[name]); err != nil {
			return err
		}
	}

	return nil
}

// checkOutput verifies v against the declared output of the operator named op.
func checkOutput(op string, declared content.Type, v content.Value) error {
	if declared.Accepts(v) {
		return nil
	}

	return &NormalizationError{
		Operation: op,
		Declared:  declared,
		Actual:    content.TypeOf(v).String(),
	}
}
