package loader

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/smartcontractkit/pipes-framework/content"
)

var ErrUnsupportedFormat = errors.New("unsupported input format")

// LoadInputs reads run inputs from a JSON, YAML or TOML file, choosing the format from the file
// extension.
func LoadInputs(path string) (map[string]content.Value, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read inputs: %w", err)
	}

	inputs, err := ParseInputs(data, strings.TrimPrefix(filepath.Ext(path), "."))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return inputs, nil
}

// ParseInputs decodes a top level object of run inputs. Each value may be a plain value or a
// {concept, content} envelope, see content.FromNative.
func ParseInputs(data []byte, format string) (map[string]content.Value, error) {
	raw := make(map[string]any)

	switch strings.ToLower(format) {
	case "json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("decode json inputs: %w", err)
		}
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("decode yaml inputs: %w", err)
		}
	case "toml":
		if err := toml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("decode toml inputs: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	inputs := make(map[string]content.Value, len(raw))
	for name, v := range raw {
		val, err := content.FromNative(v)
		if err != nil {
			return nil, fmt.Errorf("input %q: %w", name, err)
		}
		inputs[name] = val
	}

	return inputs, nil
}

// ParseAssignments parses name=value pairs given on the command line into Text inputs.
func ParseAssignments(pairs []string) (map[string]content.Value, error) {
	inputs := make(map[string]content.Value, len(pairs))
	for _, p := range pairs {
		name, value, ok := strings.Cut(p, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid input %q, expected name=value", p)
		}
		inputs[name] = content.NewText(value)
	}

	return inputs, nil
}
