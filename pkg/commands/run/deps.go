package run

import (
	"github.com/smartcontractkit/pipes-framework/content"
	"github.com/smartcontractkit/pipes-framework/engine/loader"
)

// DefinitionLoaderFunc loads a pipeline definition from a file or directory.
type DefinitionLoaderFunc func(path string) (*loader.Definition, error)

// InputLoaderFunc loads run inputs from a file.
type InputLoaderFunc func(path string) (map[string]content.Value, error)

// Deps holds the injectable dependencies for the run commands.
// All fields are optional; nil values will use production defaults.
type Deps struct {
	// DefinitionLoader loads pipeline definitions.
	// Default: loader.Load
	DefinitionLoader DefinitionLoaderFunc

	// InputLoader loads the inputs file.
	// Default: loader.LoadInputs
	InputLoader InputLoaderFunc
}

// applyDefaults fills in nil dependencies with production defaults.
func (d *Deps) applyDefaults() {
	if d.DefinitionLoader == nil {
		d.DefinitionLoader = loader.Load
	}
	if d.InputLoader == nil {
		d.InputLoader = loader.LoadInputs
	}
}
