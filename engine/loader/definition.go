// Package loader reads declarative pipeline definitions and run inputs from YAML, TOML or JSON
// files and compiles them into runnable pipes against an operations registry.
//
// A definition file looks like:
//
//	domain: text_analysis
//	pipes:
//	  first_words:
//	    type: PipeFunc
//	    function_name: first_words
//	    inputs: {text: Text}
//	    output: Text[]
//	  analyze:
//	    type: PipeSequence
//	    steps:
//	      - pipe: first_words
//	        result: keywords
//
// Keys are case-insensitive and are normalized to lower case, so pipe codes, input names and
// result names should be written in snake_case.
package loader

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/viper"
)

// Pipe types accepted in definitions.
const (
	PipeFunc     = "PipeFunc"
	PipeSequence = "PipeSequence"
	PipeLLM      = "PipeLLM"
)

var (
	ErrUnknownPipeType = errors.New("unknown pipe type")
	ErrDuplicatePipe   = errors.New("duplicate pipe")
	ErrNoDefinitions   = errors.New("no pipeline definitions found")
)

// extensions lists the file extensions LoadDir picks up.
var extensions = []string{".yaml", ".yml", ".toml"}

// StepDef is one step of a PipeSequence.
type StepDef struct {
	Pipe   string            `mapstructure:"pipe" yaml:"pipe"`
	Result string            `mapstructure:"result" yaml:"result,omitempty"`
	Inputs map[string]string `mapstructure:"inputs" yaml:"inputs,omitempty"`
}

// PipeDef declares one pipe.
type PipeDef struct {
	Type        string `mapstructure:"type" yaml:"type"`
	Description string `mapstructure:"description" yaml:"description,omitempty"`
	// Inputs maps input names to type tags, e.g. {text: Text, items: "List[Text]"}.
	Inputs map[string]string `mapstructure:"inputs" yaml:"inputs,omitempty"`
	// Output is the type tag of the produced value.
	Output string `mapstructure:"output" yaml:"output,omitempty"`

	// FunctionName is the registered computation of a PipeFunc. Defaults to the pipe code.
	FunctionName string `mapstructure:"function_name" yaml:"function_name,omitempty"`

	// Prompt is the text/template prompt of a PipeLLM.
	Prompt string `mapstructure:"prompt" yaml:"prompt,omitempty"`

	// Steps of a PipeSequence.
	Steps []StepDef `mapstructure:"steps" yaml:"steps,omitempty"`
	// OutputName of a PipeSequence selects the stored value returned by a run.
	OutputName string `mapstructure:"output_name" yaml:"output_name,omitempty"`
}

// Definition is the content of one or more pipeline definition files.
type Definition struct {
	Domain      string             `mapstructure:"domain" yaml:"domain"`
	Description string             `mapstructure:"description" yaml:"description,omitempty"`
	Pipes       map[string]PipeDef `mapstructure:"pipes" yaml:"pipes"`
}

// Codes returns the pipe codes in sorted order.
func (d *Definition) Codes() []string {
	return slices.Sorted(maps.Keys(d.Pipes))
}

// LoadFile reads a definition from a YAML or TOML file.
func LoadFile(path string) (*Definition, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read pipeline definition %s: %w", path, err)
	}

	return decode(v, path)
}

// Parse reads a definition from r. format is a viper config type such as "yaml" or "toml".
func Parse(r io.Reader, format string) (*Definition, error) {
	v := viper.New()
	v.SetConfigType(format)
	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("parse pipeline definition: %w", err)
	}

	return decode(v, "<"+format+">")
}

// LoadDir reads every definition file in dir and merges them. A pipe code defined in more than
// one file is an error. The domain is taken from the first file, in name order, that sets one.
func LoadDir(dir string) (*Definition, error) {
	var files []string
	for _, ext := range extensions {
		matches, err := filepath.Glob(filepath.Join(dir, "*"+ext))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoDefinitions, dir)
	}
	slices.Sort(files)

	merged := &Definition{Pipes: make(map[string]PipeDef)}
	origin := make(map[string]string)
	for _, f := range files {
		def, err := LoadFile(f)
		if err != nil {
			return nil, err
		}
		if merged.Domain == "" {
			merged.Domain = def.Domain
			merged.Description = def.Description
		}
		for code, p := range def.Pipes {
			if prev, ok := origin[code]; ok {
				return nil, fmt.Errorf("%w %q: defined in %s and %s", ErrDuplicatePipe, code, prev, f)
			}
			origin[code] = f
			merged.Pipes[code] = p
		}
	}

	return merged, nil
}

// Load reads a definition from path, which may be a file or a directory.
func Load(path string) (*Definition, error) {
	if slices.Contains(extensions, strings.ToLower(filepath.Ext(path))) {
		return LoadFile(path)
	}

	return LoadDir(path)
}

func decode(v *viper.Viper, source string) (*Definition, error) {
	def := &Definition{}
	if err := v.Unmarshal(def); err != nil {
		return nil, fmt.Errorf("decode pipeline definition %s: %w", source, err)
	}
	if def.Pipes == nil {
		def.Pipes = make(map[string]PipeDef)
	}
	if err := def.check(); err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}

	return def, nil
}

// check validates what can be checked without a registry.
func (d *Definition) check() error {
	var errs []error
	for _, code := range d.Codes() {
		p := d.Pipes[code]
		switch p.Type {
		case PipeFunc, PipeLLM:
		case PipeSequence:
			if len(p.Steps) == 0 {
				errs = append(errs, &PipeError{Pipe: code, Err: errors.New("sequence has no steps")})
			}
		default:
			errs = append(errs, &PipeError{Pipe: code, Err: fmt.Errorf("%w %q", ErrUnknownPipeType, p.Type)})
		}
	}

	return errors.Join(errs...)
}

// PipeError reports a problem with one pipe of a definition.
type PipeError struct {
	Pipe string
	Err  error
}

func (e *PipeError) Error() string {
	return fmt.Sprintf("pipe %q: %v", e.Pipe, e.Err)
}

func (e *PipeError) Unwrap() error { return e.Err }
