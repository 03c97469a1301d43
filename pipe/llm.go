package pipe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"maps"
	"text/template"

	"github.com/smartcontractkit/pipes-framework/content"
	"github.com/smartcontractkit/pipes-framework/memory"
	"github.com/smartcontractkit/pipes-framework/operations"
)

var (
	ErrNoGenerator = errors.New("no generator configured")
	ErrNoPrompt    = errors.New("no prompt configured")
)

// Generator produces a value of the requested type from a prompt, typically by calling a model.
type Generator interface {
	Generate(ctx context.Context, prompt string, output content.Type) (content.Value, error)
}

// PromptFunc renders the prompt of an LLMOperator from working memory.
type PromptFunc func(wm *memory.WorkingMemory) (string, error)

// TemplatePrompt returns a PromptFunc that executes tmpl with every named input rendered as text,
// e.g. "Summarize: {{ .text }}".
func TemplatePrompt(tmpl string, inputs ...string) (PromptFunc, error) {
	t, err := template.New("prompt").Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return nil, fmt.Errorf("parse prompt template: %w", err)
	}

	return func(wm *memory.WorkingMemory) (string, error) {
		data := make(map[string]string, len(inputs))
		for _, name := range inputs {
			s, err := wm.GetString(name)
			if err != nil {
				return "", err
			}
			data[name] = s
		}

		var buf bytes.Buffer
		if err := t.Execute(&buf, data); err != nil {
			return "", fmt.Errorf("render prompt: %w", err)
		}

		return buf.String(), nil
	}, nil
}

// LLMOperator renders a prompt from working memory and asks a Generator for the output value.
type LLMOperator struct {
	code      string
	inputs    map[string]content.Type
	output    content.Type
	prompt    PromptFunc
	generator Generator
}

// NewLLMOperator returns an operator named code. output defaults to Text when zero.
func NewLLMOperator(code string, inputs map[string]content.Type, output content.Type, prompt PromptFunc, generator Generator) *LLMOperator {
	if output.IsZero() {
		output = content.TextType
	}

	return &LLMOperator{
		code:      code,
		inputs:    maps.Clone(inputs),
		output:    output,
		prompt:    prompt,
		generator: generator,
	}
}

func (op *LLMOperator) Name() string { return op.code }

func (op *LLMOperator) Inputs() map[string]content.Type { return maps.Clone(op.inputs) }

func (op *LLMOperator) Output() content.Type { return op.output }

// Validate checks the operator has both a prompt and a generator. The registry is not consulted.
func (op *LLMOperator) Validate(*operations.OperationRegistry) error {
	if op.prompt == nil {
		return fmt.Errorf("pipe %s: %w", op.code, ErrNoPrompt)
	}
	if op.generator == nil {
		return fmt.Errorf("pipe %s: %w", op.code, ErrNoGenerator)
	}

	return nil
}

func (op *LLMOperator) Run(ctx context.Context, b operations.Bundle, wm *memory.WorkingMemory) (content.Value, error) {
	if err := op.Validate(nil); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prompt, err := op.prompt(wm)
	if err != nil {
		return nil, fmt.Errorf("pipe %s: %w", op.code, err)
	}

	b.Logger.Debugw("Generating", "pipe", op.code, "output", op.output.String(), "promptLength", len(prompt))

	v, err := op.generator.Generate(ctx, prompt, op.output)
	if err != nil {
		return nil, fmt.Errorf("pipe %s: generate: %w", op.code, err)
	}
	if v == nil {
		return nil, &NormalizationError{Operation: op.code, Declared: op.output, Actual: "nil"}
	}
	if err := checkOutput(op.code, op.output, v); err != nil {
		return nil, err
	}

	return v, nil
}

func (op *LLMOperator) DryRun(_ context.Context, _ operations.Bundle, wm *memory.WorkingMemory) (content.Value, error) {
	if err := CheckInputs(wm, op.inputs); err != nil {
		return nil, err
	}

	return content.Placeholder(op.output), nil
}
