package loader

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/smartcontractkit/pipes-framework/content"
	"github.com/smartcontractkit/pipes-framework/operations"
	"github.com/smartcontractkit/pipes-framework/pipe"
	"github.com/smartcontractkit/pipes-framework/pipeline"
	"github.com/smartcontractkit/pipes-framework/pkg/logger"
)

var (
	ErrPipeNotFound = errors.New("pipe not found")
	ErrPipeCycle    = errors.New("pipe cycle")
)

type compileConfig struct {
	lggr      logger.Logger
	generator pipe.Generator
	retry     *operations.RetryPolicy
	observers []pipeline.Observer
}

// CompileOption configures Compile.
type CompileOption func(*compileConfig)

// WithLogger sets the logger used to report definition warnings.
func WithLogger(lggr logger.Logger) CompileOption {
	return func(c *compileConfig) {
		c.lggr = lggr
	}
}

// WithGenerator sets the generator of every PipeLLM. Without one, definitions containing a
// PipeLLM fail to compile.
func WithGenerator(g pipe.Generator) CompileOption {
	return func(c *compileConfig) {
		c.generator = g
	}
}

// WithRetryPolicy retries transient failures of every PipeFunc with policy.
func WithRetryPolicy(policy *operations.RetryPolicy) CompileOption {
	return func(c *compileConfig) {
		c.retry = policy
	}
}

// WithObserver registers an observer on every compiled sequence.
func WithObserver(o pipeline.Observer) CompileOption {
	return func(c *compileConfig) {
		c.observers = append(c.observers, o)
	}
}

// Library holds the compiled pipes of a definition.
type Library struct {
	Domain    string
	operators map[string]pipe.Operator
	sequences map[string]*pipeline.Sequence
}

// Names returns the codes of all compiled pipes in sorted order.
func (l *Library) Names() []string {
	return slices.Sorted(maps.Keys(l.operators))
}

// Operator returns the compiled pipe named code.
func (l *Library) Operator(code string) (pipe.Operator, error) {
	op, ok := l.operators[code]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPipeNotFound, code)
	}

	return op, nil
}

// Runnable returns the pipe named code as a sequence. A pipe that is not a sequence is wrapped in
// a single step sequence whose result is stored under the pipe code.
func (l *Library) Runnable(code string) (*pipeline.Sequence, error) {
	if seq, ok := l.sequences[code]; ok {
		return seq, nil
	}
	op, err := l.Operator(code)
	if err != nil {
		return nil, err
	}

	return pipeline.NewSequence(code, []pipeline.Step{{Operator: op}})
}

type compiler struct {
	def      *Definition
	reg      *operations.OperationRegistry
	cfg      compileConfig
	lib      *Library
	visiting map[string]bool
}

// Compile builds every pipe of def and validates it against reg.
func Compile(def *Definition, reg *operations.OperationRegistry, opts ...CompileOption) (*Library, error) {
	cfg := compileConfig{lggr: logger.Nop()}
	for _, opt := range opts {
		opt(&cfg)
	}

	c := &compiler{
		def: def,
		reg: reg,
		cfg: cfg,
		lib: &Library{
			Domain:    def.Domain,
			operators: make(map[string]pipe.Operator),
			sequences: make(map[string]*pipeline.Sequence),
		},
		visiting: make(map[string]bool),
	}

	var errs []error
	for _, code := range def.Codes() {
		if _, err := c.compile(code); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	for _, code := range c.lib.Names() {
		if err := c.lib.operators[code].Validate(reg); err != nil {
			errs = append(errs, &PipeError{Pipe: code, Err: err})
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	cfg.lggr.Infow("Compiled pipeline definition", "domain", def.Domain, "pipes", len(c.lib.operators))

	return c.lib, nil
}

func (c *compiler) compile(code string) (pipe.Operator, error) {
	if op, ok := c.lib.operators[code]; ok {
		return op, nil
	}
	def, ok := c.def.Pipes[code]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPipeNotFound, code)
	}
	if c.visiting[code] {
		return nil, &PipeError{Pipe: code, Err: ErrPipeCycle}
	}
	c.visiting[code] = true
	defer delete(c.visiting, code)

	inputs, err := parseTypes(def.Inputs)
	if err != nil {
		return nil, &PipeError{Pipe: code, Err: err}
	}
	var output content.Type
	if def.Output != "" {
		if output, err = content.ParseType(def.Output); err != nil {
			return nil, &PipeError{Pipe: code, Err: fmt.Errorf("output: %w", err)}
		}
	}

	var op pipe.Operator
	switch def.Type {
	case PipeFunc:
		op = c.function(code, def, inputs, output)
	case PipeLLM:
		op, err = c.llm(code, def, inputs, output)
	case PipeSequence:
		op, err = c.sequence(code, def, inputs)
	default:
		err = fmt.Errorf("%w %q", ErrUnknownPipeType, def.Type)
	}
	if err != nil {
		var perr *PipeError
		if errors.As(err, &perr) {
			return nil, err
		}

		return nil, &PipeError{Pipe: code, Err: err}
	}

	c.lib.operators[code] = op

	return op, nil
}

func (c *compiler) function(code string, def PipeDef, inputs map[string]content.Type, output content.Type) pipe.Operator {
	name := def.FunctionName
	if name == "" {
		name = code
	}

	opts := []pipe.FunctionOption{
		pipe.WithInputs(inputs),
		pipe.WithFunctionDescription(def.Description),
	}
	if !output.IsZero() {
		opts = append(opts, pipe.WithOutput(output))
	}
	if c.cfg.retry != nil {
		opts = append(opts, pipe.WithRetry(*c.cfg.retry))
	}

	return pipe.NewFunctionOperator(code, name, opts...)
}

func (c *compiler) llm(code string, def PipeDef, inputs map[string]content.Type, output content.Type) (pipe.Operator, error) {
	if def.Prompt == "" {
		return nil, pipe.ErrNoPrompt
	}
	prompt, err := pipe.TemplatePrompt(def.Prompt, slices.Sorted(maps.Keys(inputs))...)
	if err != nil {
		return nil, err
	}

	return pipe.NewLLMOperator(code, inputs, output, prompt, c.cfg.generator), nil
}

func (c *compiler) sequence(code string, def PipeDef, inputs map[string]content.Type) (pipe.Operator, error) {
	steps := make([]pipeline.Step, 0, len(def.Steps))
	seen := make(map[string]int, len(def.Steps))
	for i, sd := range def.Steps {
		op, err := c.compile(sd.Pipe)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}

		result := sd.Result
		if result == "" {
			result = sd.Pipe
		}
		if prev, dup := seen[result]; dup {
			c.cfg.lggr.Warnw("Duplicate result name, later step overwrites the earlier value",
				"pipe", code, "result", result, "firstStep", prev, "step", i)
		}
		seen[result] = i

		steps = append(steps, pipeline.Step{Operator: op, Inputs: sd.Inputs, Result: result})
	}

	opts := []pipeline.Option{
		pipeline.WithInputs(inputs),
		pipeline.WithDescription(def.Description),
	}
	if def.OutputName != "" {
		opts = append(opts, pipeline.WithOutputName(def.OutputName))
	}
	for _, o := range c.cfg.observers {
		opts = append(opts, pipeline.WithObserver(o))
	}

	seq, err := pipeline.NewSequence(code, steps, opts...)
	if err != nil {
		return nil, err
	}
	c.lib.sequences[code] = seq

	return seq.AsOperator(), nil
}

func parseTypes(tags map[string]string) (map[string]content.Type, error) {
	types := make(map[string]content.Type, len(tags))
	for name, tag := range tags {
		t, err := content.ParseType(tag)
		if err != nil {
			return nil, fmt.Errorf("input %q: %w", name, err)
		}
		types[name] = t
	}

	return types, nil
}
