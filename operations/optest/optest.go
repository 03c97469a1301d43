// Package optest provides utilities for operations testing.
package optest

import (
	"testing"

	"github.com/smartcontractkit/pipes-framework/operations"
	"github.com/smartcontractkit/pipes-framework/pkg/logger"
)

// NewBundle creates a new operations bundle for testing with a test logger, a memory reporter
// and the given registry. A nil registry gets an empty one.
func NewBundle(t *testing.T, reg *operations.OperationRegistry, opts ...operations.BundleOption) operations.Bundle {
	t.Helper()

	lggr := logger.Test(t)
	if reg == nil {
		reg = operations.NewOperationRegistry(operations.WithRegistryLogger(lggr))
	}
	opts = append([]operations.BundleOption{operations.WithOperationRegistry(reg)}, opts...)

	return operations.NewBundle(lggr, operations.NewMemoryReporter(), opts...)
}
