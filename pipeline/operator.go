package pipeline

import (
	"context"
	"maps"

	"github.com/smartcontractkit/pipes-framework/content"
	"github.com/smartcontractkit/pipes-framework/memory"
	"github.com/smartcontractkit/pipes-framework/operations"
	"github.com/smartcontractkit/pipes-framework/pipe"
)

// AsOperator returns the sequence as a pipe.Operator so it can be a step of another sequence.
// The nested steps run on the caller's working memory, so their results stay visible to the
// outer sequence.
func (s *Sequence) AsOperator() pipe.Operator {
	return &sequenceOperator{seq: s}
}

type sequenceOperator struct {
	seq *Sequence
}

var _ pipe.Operator = (*sequenceOperator)(nil)

func (o *sequenceOperator) Name() string { return o.seq.code }

func (o *sequenceOperator) Inputs() map[string]content.Type { return maps.Clone(o.seq.inputs) }

// Output returns the type of the value the sequence outputs: the declared output name's producer,
// or the last step. An output name nothing produces is typed Any.
func (o *sequenceOperator) Output() content.Type {
	if t, ok := o.seq.outputType(); ok {
		return t
	}

	return content.AnyType
}

func (o *sequenceOperator) Validate(reg *operations.OperationRegistry) error {
	return o.seq.Validate(reg)
}

func (o *sequenceOperator) Run(ctx context.Context, b operations.Bundle, wm *memory.WorkingMemory) (content.Value, error) {
	return o.seq.execute(ctx, b, wm, false)
}

func (o *sequenceOperator) DryRun(ctx context.Context, b operations.Bundle, wm *memory.WorkingMemory) (content.Value, error) {
	return o.seq.execute(ctx, b, wm, true)
}
