package scan

import (
	"bytes"
	"fmt"
	"go/format"
	"io"
	"os"
	"path/filepath"
	"text/template"
)

const (
	DefaultFuncName = "Candidates"
	DefaultFileName = "candidates_gen.go"
)

type config struct {
	funcName string
	fileName string
}

// Option configures Dir and Generate.
type Option func(*config)

// WithFuncName sets the name of the generated function. Dir ignores functions with that name.
func WithFuncName(name string) Option {
	return func(c *config) {
		c.funcName = name
	}
}

// WithFileName sets the name of the generated file. Dir ignores the file with that name.
func WithFileName(name string) Option {
	return func(c *config) {
		c.fileName = name
	}
}

func newConfig(opts []Option) config {
	c := config{funcName: DefaultFuncName, fileName: DefaultFileName}
	for _, opt := range opts {
		opt(&c)
	}

	return c
}

var candidatesTmpl = template.Must(template.New("candidates").Parse(`// Code generated by pipes funcs scan. DO NOT EDIT.

package {{ .Package }}

import "github.com/smartcontractkit/pipes-framework/operations"

// {{ .FuncName }} returns the computations of the package for operations.BulkDiscover.
func {{ .FuncName }}() operations.Library {
	return operations.Library{
{{- range .Functions }}
		{Name: {{ printf "%q" .Name }}, Fn: {{ .GoName }}},
{{- end }}
	}
}
`))

// Generate writes the source of a file declaring the candidates function for res.
func Generate(w io.Writer, res *Result, opts ...Option) error {
	cfg := newConfig(opts)

	var buf bytes.Buffer
	err := candidatesTmpl.Execute(&buf, struct {
		*Result
		FuncName string
	}{Result: res, FuncName: cfg.funcName})
	if err != nil {
		return fmt.Errorf("render candidates: %w", err)
	}

	src, err := format.Source(buf.Bytes())
	if err != nil {
		return fmt.Errorf("format candidates: %w", err)
	}
	_, err = w.Write(src)

	return err
}

// WriteFile generates the candidates file into the scanned directory and returns its path.
func WriteFile(res *Result, opts ...Option) (string, error) {
	cfg := newConfig(opts)

	var buf bytes.Buffer
	if err := Generate(&buf, res, opts...); err != nil {
		return "", err
	}

	path := filepath.Join(res.Dir, cfg.fileName)
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}

	return path, nil
}
