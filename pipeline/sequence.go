package pipeline

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/segmentio/ksuid"

	"github.com/smartcontractkit/pipes-framework/content"
	"github.com/smartcontractkit/pipes-framework/memory"
	"github.com/smartcontractkit/pipes-framework/operations"
	"github.com/smartcontractkit/pipes-framework/pipe"
)

// Step is one element of a Sequence: the operator to run, how its local input names map to names
// in working memory, and the name its result is stored under.
type Step struct {
	Operator pipe.Operator
	// Inputs maps the operator's local input names to source names. Unmapped names are read as is.
	Inputs map[string]string
	// Result is the name the step's value is stored under. Defaults to the operator name.
	Result string
}

// Sequence is an ordered list of steps run over one working memory.
type Sequence struct {
	code        string
	description string
	steps       []Step
	inputs      map[string]content.Type
	output      string
	observers   []Observer
}

// Option configures a Sequence.
type Option func(*Sequence)

// WithObserver registers an observer notified of every state transition.
func WithObserver(o Observer) Option {
	return func(s *Sequence) {
		s.observers = append(s.observers, o)
	}
}

// WithInputs declares the inputs the sequence expects to be seeded with.
func WithInputs(inputs map[string]content.Type) Option {
	return func(s *Sequence) {
		s.inputs = maps.Clone(inputs)
	}
}

// WithOutputName makes the run output the value stored under name instead of the last result.
func WithOutputName(name string) Option {
	return func(s *Sequence) {
		s.output = name
	}
}

// WithDescription sets a human readable description.
func WithDescription(description string) Option {
	return func(s *Sequence) {
		s.description = description
	}
}

// NewSequence returns a sequence named code running steps in order.
func NewSequence(code string, steps []Step, opts ...Option) (*Sequence, error) {
	if code == "" {
		return nil, ErrEmptyPipeName
	}
	if len(steps) == 0 {
		return nil, fmt.Errorf("%s: %w", code, ErrNoSteps)
	}

	s := &Sequence{
		code:  code,
		steps: make([]Step, 0, len(steps)),
	}
	for i, step := range steps {
		if step.Operator == nil {
			return nil, fmt.Errorf("%s: step %d: %w: nil operator", code, i, ErrInvalidStep)
		}
		if step.Result == "" {
			step.Result = step.Operator.Name()
		}
		if step.Result == memory.MainStuffName {
			return nil, fmt.Errorf("%s: step %d: %w: %s", code, i, ErrReservedName, step.Result)
		}
		step.Inputs = maps.Clone(step.Inputs)
		s.steps = append(s.steps, step)
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

func (s *Sequence) Name() string { return s.code }

func (s *Sequence) Description() string { return s.description }

// Steps returns a copy of the sequence's steps.
func (s *Sequence) Steps() []Step {
	out := make([]Step, len(s.steps))
	copy(out, s.steps)

	return out
}

// Validate validates every step's operator against reg. A declared output name must be a step
// result, including the results of nested sequences, or a declared input.
func (s *Sequence) Validate(reg *operations.OperationRegistry) error {
	for i, step := range s.steps {
		if err := step.Operator.Validate(reg); err != nil {
			return &StepError{Index: i, Result: step.Result, Operator: step.Operator.Name(), Err: err}
		}
	}

	if s.output != "" {
		if _, ok := s.outputType(); !ok {
			return fmt.Errorf("%s: %w: %s", s.code, ErrUnknownOutput, s.output)
		}
	}

	return nil
}

// outputType returns the type of the value the run outputs, and whether it is produced by the
// sequence or declared as an input.
func (s *Sequence) outputType() (content.Type, bool) {
	if s.output == "" {
		return s.steps[len(s.steps)-1].Operator.Output(), true
	}

	return s.producedType(s.output)
}

// producedType returns the type last stored under name by the steps, or the declared input type.
func (s *Sequence) producedType(name string) (content.Type, bool) {
	for i := len(s.steps) - 1; i >= 0; i-- {
		step := s.steps[i]
		if step.Result == name {
			return step.Operator.Output(), true
		}
		if nested, ok := step.Operator.(*sequenceOperator); ok {
			if t, found := nested.seq.producedType(name); found {
				return t, true
			}
		}
	}
	if t, ok := s.inputs[name]; ok {
		return t, true
	}

	return content.Type{}, false
}

// Run seeds a new working memory with inputs, runs every step and returns the output value.
func (s *Sequence) Run(ctx context.Context, b operations.Bundle, inputs map[string]content.Value) (content.Value, error) {
	out, _, err := s.RunWithMemory(ctx, b, inputs)

	return out, err
}

// RunWithMemory is like Run but also returns the working memory of the run.
func (s *Sequence) RunWithMemory(
	ctx context.Context, b operations.Bundle, inputs map[string]content.Value,
) (content.Value, *memory.WorkingMemory, error) {
	wm := memory.NewFromValues(inputs)
	out, err := s.execute(ctx, b, wm, false)

	return out, wm, err
}

// DryRun walks the steps without invoking any computation. Each operator checks its inputs and
// contributes a placeholder of its declared output, so later steps see values of the right shape.
func (s *Sequence) DryRun(ctx context.Context, b operations.Bundle, inputs map[string]content.Value) (content.Value, error) {
	return s.execute(ctx, b, memory.NewFromValues(inputs), true)
}

type run struct {
	id    string
	seq   *Sequence
	state State
}

func (r *run) move(to State) {
	if err := Transition(r.state, to); err != nil {
		// Only reachable through a bug in execute.
		panic(err)
	}
	from := r.state
	r.state = to
	for _, o := range r.seq.observers {
		o(r.id, from, to)
	}
}

func (s *Sequence) execute(ctx context.Context, b operations.Bundle, wm *memory.WorkingMemory, dry bool) (content.Value, error) {
	r := &run{id: ksuid.New().String(), seq: s, state: Pending(0)}
	lggr := b.Logger.Named("pipeline").With("pipeline", s.code, "run", r.id)

	parent := b.Reporter()
	if parent == nil {
		parent = operations.NewMemoryReporter()
	}
	// Step reports go to the underlying reporter so a nested run's steps are only children of
	// the nested run report.
	base := parent
	if rr, ok := parent.(*operations.RecentReporter); ok {
		base = rr.Reporter
	}
	recent := operations.NewRecentMemoryReporter(base)
	sb := b.WithReporter(recent)

	lggr.Infow("Executing pipeline", "steps", len(s.steps), "dryRun", dry)
	started := time.Now()

	var (
		last content.Value
		err  error
	)
	for i, step := range s.steps {
		last, err = s.runStep(ctx, sb, r, i, step, wm, dry)
		if err != nil {
			break
		}
	}

	if err == nil {
		last, err = s.finish(r, wm, last)
	}

	childIDs := make([]string, 0)
	for _, rep := range recent.GetRecentReports() {
		childIDs = append(childIDs, rep.ID)
	}
	report := operations.NewReport(operations.Definition{ID: s.code, Description: s.description}, started, err, childIDs...)
	report.RunID = r.id
	report.DryRun = dry
	if last != nil && err == nil {
		report.OutputType = content.TypeOf(last).String()
	}
	if addErr := parent.AddReport(report); addErr != nil {
		lggr.Warnw("Failed to record run report", "error", addErr)
	}

	if err != nil {
		lggr.Errorw("Pipeline failed", "state", r.state.String(), "error", err)
		return nil, err
	}
	lggr.Infow("Pipeline completed", "duration", time.Since(started))

	return last, nil
}

func (s *Sequence) runStep(
	ctx context.Context, b operations.Bundle, r *run, i int, step Step, wm *memory.WorkingMemory, dry bool,
) (content.Value, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		err := &CancelledError{Step: i, Err: ctxErr}
		r.move(Failed(i, err))

		return nil, err
	}
	r.move(Running(i))

	op := step.Operator
	started := time.Now()

	var (
		v   content.Value
		err error
	)
	view := wm.WithBindings(step.Inputs)
	if dry {
		if err = checkBindings(wm, step.Inputs); err == nil {
			v, err = op.DryRun(ctx, b, view)
		}
	} else {
		v, err = op.Run(ctx, b, view)
	}

	// A result produced after cancellation is discarded.
	if ctxErr := ctx.Err(); ctxErr != nil && (err == nil || operations.IsCancellation(err)) {
		err = &CancelledError{Step: i, Err: ctxErr}
	} else if err != nil {
		err = &StepError{Index: i, Result: step.Result, Operator: op.Name(), Err: err}
	}

	report := operations.NewReport(operations.Definition{ID: op.Name()}, started, err)
	report.RunID = r.id
	report.Inputs = maps.Clone(step.Inputs)
	report.Result = step.Result
	report.DryRun = dry
	if err == nil {
		report.OutputType = content.TypeOf(v).String()
	}
	if addErr := b.Reporter().AddReport(report); addErr != nil {
		b.Logger.Warnw("Failed to record step report", "step", i, "error", addErr)
	}

	if err != nil {
		r.move(Failed(i, err))
		return nil, err
	}

	wm.Set(step.Result, v)
	if aliasErr := wm.SetMain(step.Result); aliasErr != nil {
		err = &StepError{Index: i, Result: step.Result, Operator: op.Name(), Err: aliasErr}
		r.move(Failed(i, err))

		return nil, err
	}

	// The last step stays running until the output is resolved.
	if i < len(s.steps)-1 {
		r.move(Pending(i + 1))
	}

	b.Logger.Debugw("Step completed", "pipeline", s.code, "step", i, "pipe", op.Name(),
		"result", step.Result, "type", report.OutputType)

	return v, nil
}

// finish resolves the run output and moves the run to its terminal state.
func (s *Sequence) finish(r *run, wm *memory.WorkingMemory, last content.Value) (content.Value, error) {
	i := len(s.steps) - 1
	if s.output != "" {
		stuff, err := wm.Get(s.output)
		if err != nil {
			err = &StepError{Index: i, Result: s.output, Operator: s.steps[i].Operator.Name(), Err: err}
			r.move(Failed(i, err))

			return nil, err
		}
		last = stuff.Value
	}
	r.move(Completed(i))

	return last, nil
}

// checkBindings checks that every source name a step reads through its input mapping is set.
func checkBindings(wm *memory.WorkingMemory, bindings map[string]string) error {
	for _, local := range slices.Sorted(maps.Keys(bindings)) {
		if _, err := wm.Get(bindings[local]); err != nil {
			return err
		}
	}

	return nil
}
