package operations

import (
	"github.com/Masterminds/semver/v3"

	"github.com/smartcontractkit/pipes-framework/pkg/logger"
)

// DefaultVersion is assigned to operations registered without WithVersion.
var DefaultVersion = semver.MustParse("1.0.0")

// Bundle contains the dependencies shared by operators and sequences during a run.
// It carries the Logger, the Reporter, the OperationRegistry and the Invoker.
// Use NewBundle to create a new Bundle.
type Bundle struct {
	Logger            logger.Logger
	reporter          Reporter
	OperationRegistry *OperationRegistry
	Invoker           *Invoker
}

// BundleOption is a functional option for configuring a Bundle
type BundleOption func(*Bundle)

// WithOperationRegistry sets a custom OperationRegistry for the Bundle
func WithOperationRegistry(registry *OperationRegistry) BundleOption {
	return func(b *Bundle) {
		b.OperationRegistry = registry
	}
}

// WithInvoker sets the Invoker used to call registered computations.
func WithInvoker(invoker *Invoker) BundleOption {
	return func(b *Bundle) {
		b.Invoker = invoker
	}
}

// NewBundle creates and returns a new Bundle.
// Without options the bundle gets an empty registry and an Invoker with DefaultWorkers slots.
func NewBundle(lggr logger.Logger, reporter Reporter, opts ...BundleOption) Bundle {
	b := Bundle{
		Logger:   lggr,
		reporter: reporter,
	}

	for _, opt := range opts {
		opt(&b)
	}

	if b.OperationRegistry == nil {
		b.OperationRegistry = NewOperationRegistry(WithRegistryLogger(lggr))
	}
	if b.Invoker == nil {
		b.Invoker = NewInvoker(DefaultWorkers, lggr)
	}

	return b
}

// Reporter returns the reporter the bundle records execution reports to.
func (b Bundle) Reporter() Reporter {
	return b.reporter
}

// Definition is the metadata of a registered operation: its name, version and description.
type Definition struct {
	ID          string          `json:"id"`
	Version     *semver.Version `json:"version"`
	Description string          `json:"description"`
}

// String returns the definition as id@version.
func (d Definition) String() string {
	if d.Version == nil {
		return d.ID
	}

	return d.ID + "@" + d.Version.String()
}
