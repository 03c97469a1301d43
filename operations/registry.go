package operations

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"sync"

	"github.com/Masterminds/semver/v3"

	"github.com/smartcontractkit/pipes-framework/content"
	"github.com/smartcontractkit/pipes-framework/memory"
	"github.com/smartcontractkit/pipes-framework/pkg/logger"
)

var (
	ErrDuplicateOperation = errors.New("operation already registered")
	ErrEmptyOperationName = errors.New("operation name must not be empty")
)

// IneligibleComputationError is returned when a computation does not have an eligible signature.
type IneligibleComputationError struct {
	Name string
	Err  error
}

func (e *IneligibleComputationError) Error() string {
	return fmt.Sprintf("operation %q is not eligible: %v", e.Name, e.Err)
}

func (e *IneligibleComputationError) Unwrap() error {
	return e.Err
}

// UnregisteredOperationError is returned when an operation is looked up by a name that was never
// registered.
type UnregisteredOperationError struct {
	Name string
}

func (e *UnregisteredOperationError) Error() string {
	return fmt.Sprintf("operation %q is not registered", e.Name)
}

// Entry is an admitted computation together with its definition and signature.
// Entries are immutable once registered.
type Entry struct {
	Def       Definition
	Signature Signature

	fn reflect.Value
}

// Name returns the name the entry was registered under.
func (e *Entry) Name() string {
	return e.Def.ID
}

// call invokes the computation. Panics inside the computation are returned as errors.
func (e *Entry) call(ctx context.Context, wm *memory.WorkingMemory) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("operation %s panicked: %v", e.Def.ID, r)
		}
	}()

	args := make([]reflect.Value, 0, 2)
	if e.Signature.ContextAware {
		if ctx == nil {
			ctx = context.Background()
		}
		args = append(args, reflect.ValueOf(ctx))
	}
	args = append(args, reflect.ValueOf(wm))

	out := e.fn.Call(args)
	if errVal := out[1]; !errVal.IsNil() {
		err, _ = errVal.Interface().(error)
	}

	return out[0].Interface(), err
}

// RegisterOption configures a registration.
type RegisterOption func(*registerConfig)

type registerConfig struct {
	description string
	version     *semver.Version
	declared    *content.Type
	blocking    bool
	replace     bool
}

// WithDescription sets the description of the operation.
func WithDescription(description string) RegisterOption {
	return func(c *registerConfig) {
		c.description = description
	}
}

// WithVersion sets the version of the operation. Defaults to DefaultVersion.
func WithVersion(version *semver.Version) RegisterOption {
	return func(c *registerConfig) {
		c.version = version
	}
}

// WithSignature declares the result type the operation is expected to produce. Registration fails
// when the computation's actual result type cannot produce values of that type.
func WithSignature(result content.Type) RegisterOption {
	return func(c *registerConfig) {
		c.declared = &result
	}
}

// Blocking marks a context-aware computation as blocking so it runs on the worker pool.
func Blocking() RegisterOption {
	return func(c *registerConfig) {
		c.blocking = true
	}
}

// Replace allows the registration to overwrite an existing operation of the same name.
func Replace() RegisterOption {
	return func(c *registerConfig) {
		c.replace = true
	}
}

// OperationRegistry is a store of eligible computations keyed by name.
// It is safe for concurrent use; registration normally happens at startup and lookups afterwards.
type OperationRegistry struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	lggr    logger.Logger
}

// RegistryOption configures an OperationRegistry.
type RegistryOption func(*OperationRegistry)

// WithRegistryLogger sets the logger used to report discovery results.
func WithRegistryLogger(lggr logger.Logger) RegistryOption {
	return func(r *OperationRegistry) {
		if lggr != nil {
			r.lggr = lggr
		}
	}
}

// NewOperationRegistry creates an empty OperationRegistry.
func NewOperationRegistry(opts ...RegistryOption) *OperationRegistry {
	r := &OperationRegistry{
		entries: make(map[string]*Entry),
		lggr:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Register admits fn under name if it is an eligible computation.
//
// Ineligible computations are rejected with an *IneligibleComputationError and nothing is
// registered. Registering a name twice fails with ErrDuplicateOperation unless Replace is given.
func (r *OperationRegistry) Register(name string, fn any, opts ...RegisterOption) (*Entry, error) {
	if name == "" {
		return nil, ErrEmptyOperationName
	}

	cfg := registerConfig{version: DefaultVersion}
	for _, opt := range opts {
		opt(&cfg)
	}

	sig, err := CheckEligibility(fn)
	if err != nil {
		return nil, &IneligibleComputationError{Name: name, Err: err}
	}
	if cfg.blocking {
		sig.Blocking = true
	}
	if cfg.declared != nil {
		if !compatible(*cfg.declared, sig.Result) {
			return nil, &IneligibleComputationError{
				Name: name,
				Err:  fmt.Errorf("%w: declared %s, returns %s", ErrSignatureMismatch, *cfg.declared, sig.Result),
			}
		}
		if sig.Result.Covers(*cfg.declared) {
			sig.Result = *cfg.declared
		}
	}

	entry := &Entry{
		Def: Definition{
			ID:          name,
			Version:     cfg.version,
			Description: cfg.description,
		},
		Signature: sig,
		fn:        reflect.ValueOf(fn),
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[name]; exists && !cfg.replace {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateOperation, name)
	}
	r.entries[name] = entry

	return entry, nil
}

// MustRegister is like Register but panics on error. Intended for package initialisation.
func (r *OperationRegistry) MustRegister(name string, fn any, opts ...RegisterOption) *Entry {
	entry, err := r.Register(name, fn, opts...)
	if err != nil {
		panic(err)
	}

	return entry
}

// Lookup returns the entry registered under name.
func (r *OperationRegistry) Lookup(name string) (*Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[name]

	return entry, ok
}

// RequireLookup returns the entry registered under name or an *UnregisteredOperationError.
func (r *OperationRegistry) RequireLookup(name string) (*Entry, error) {
	entry, ok := r.Lookup(name)
	if !ok {
		return nil, &UnregisteredOperationError{Name: name}
	}

	return entry, nil
}

// Names returns the registered operation names in sorted order.
func (r *OperationRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Sorted(maps.Keys(r.entries))
}

// Entries returns all registered entries sorted by name.
func (r *OperationRegistry) Entries() []*Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := slices.Collect(maps.Values(r.entries))
	slices.SortFunc(entries, func(a, b *Entry) int {
		return cmp.Compare(a.Def.ID, b.Def.ID)
	})

	return entries
}

// Definitions returns the definitions of all registered operations sorted by name.
func (r *OperationRegistry) Definitions() []Definition {
	entries := r.Entries()
	defs := make([]Definition, 0, len(entries))
	for _, e := range entries {
		defs = append(defs, e.Def)
	}

	return defs
}

// Len returns the number of registered operations.
func (r *OperationRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.entries)
}
