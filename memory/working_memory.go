package memory

import (
	"fmt"
	"maps"
	"reflect"
	"slices"

	"github.com/smartcontractkit/pipes-framework/content"
)

// MainStuffName is the alias that always points at the most recent pipeline result.
const MainStuffName = "main_stuff"

// Stuff is a named value stored in working memory.
type Stuff struct {
	Name  string        `json:"name"`
	Value content.Value `json:"value"`
}

// Type returns the content type of the stuff's value.
func (s Stuff) Type() content.Type {
	return content.TypeOf(s.Value)
}

// WorkingMemory is the named store shared by the steps of one pipeline run.
//
// A WorkingMemory is owned by exactly one run and is not safe for concurrent use.
type WorkingMemory struct {
	stuffs  map[string]Stuff
	aliases map[string]string

	// bindings maps a step's local input names to source names. Only set on views.
	bindings map[string]string
}

// New returns an empty WorkingMemory.
func New() *WorkingMemory {
	return &WorkingMemory{
		stuffs:  make(map[string]Stuff),
		aliases: make(map[string]string),
	}
}

// NewFromValues returns a WorkingMemory seeded with the given values.
func NewFromValues(values map[string]content.Value) *WorkingMemory {
	m := New()
	for name, v := range values {
		m.Set(name, v)
	}

	return m
}

// WithBindings returns a view of the memory that resolves the given local names to source names
// before any other lookup. The view shares storage with m, so writes through it are visible to m.
func (m *WorkingMemory) WithBindings(bindings map[string]string) *WorkingMemory {
	if len(bindings) == 0 {
		return m
	}

	merged := make(map[string]string, len(m.bindings)+len(bindings))
	maps.Copy(merged, m.bindings)
	maps.Copy(merged, bindings)

	return &WorkingMemory{
		stuffs:   m.stuffs,
		aliases:  m.aliases,
		bindings: merged,
	}
}

// Get returns the stuff stored under name, following bindings and aliases.
func (m *WorkingMemory) Get(name string) (Stuff, error) {
	canonical, ok := m.resolve(name)
	if !ok {
		return Stuff{}, &NotFoundError{Name: name}
	}

	return m.stuffs[canonical], nil
}

// GetOptional returns the stuff stored under name and whether it exists.
func (m *WorkingMemory) GetOptional(name string) (Stuff, bool) {
	s, err := m.Get(name)

	return s, err == nil
}

// Has reports whether name resolves to a stuff.
func (m *WorkingMemory) Has(name string) bool {
	_, ok := m.resolve(name)

	return ok
}

// GetAs returns the value stored under name if it satisfies expected.
func (m *WorkingMemory) GetAs(name string, expected content.Type) (content.Value, error) {
	s, err := m.Get(name)
	if err != nil {
		return nil, err
	}
	if !expected.Accepts(s.Value) {
		return nil, mismatch(name, expected, s.Value)
	}

	return s.Value, nil
}

// GetListAs returns the items of the list stored under name, checking every item against elem.
// The first offending item is reported with its index.
func (m *WorkingMemory) GetListAs(name string, elem content.Type) ([]content.Value, error) {
	s, err := m.Get(name)
	if err != nil {
		return nil, err
	}

	l, ok := content.AsList(s.Value)
	if !ok {
		return nil, &TypeMismatchError{
			Name:     name,
			Expected: content.ListType(elem),
			Actual:   content.TypeOf(s.Value),
			Index:    -1,
		}
	}

	for i, item := range l.Items {
		if !elem.Accepts(item) {
			return nil, &TypeMismatchError{
				Name:     name,
				Expected: elem,
				Actual:   content.TypeOf(item),
				Index:    i,
			}
		}
	}

	return slices.Clone(l.Items), nil
}

// FirstOf returns the first item of the list stored under name.
func (m *WorkingMemory) FirstOf(name string, elem content.Type) (content.Value, error) {
	items, err := m.GetListAs(name, elem)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, &EmptyListError{Name: name}
	}

	return items[0], nil
}

// GetText returns the Text stored under name.
func (m *WorkingMemory) GetText(name string) (content.Text, error) {
	return As[content.Text](m, name)
}

// GetString renders the value stored under name as a string, whatever its kind.
func (m *WorkingMemory) GetString(name string) (string, error) {
	s, err := m.Get(name)
	if err != nil {
		return "", err
	}

	return content.Render(s.Value), nil
}

// Set stores v under name, replacing any previous stuff or alias of that name.
func (m *WorkingMemory) Set(name string, v content.Value) {
	delete(m.aliases, name)
	m.stuffs[name] = Stuff{Name: name, Value: v}
}

// Delete removes the stuff or alias stored under name.
func (m *WorkingMemory) Delete(name string) {
	delete(m.stuffs, name)
	delete(m.aliases, name)
}

// AddAlias makes alias resolve to target. Aliases may point at other aliases; an alias that would
// close a loop is rejected with ErrAliasCycle. A stuff stored under the alias name takes
// precedence over the alias.
func (m *WorkingMemory) AddAlias(alias, target string) error {
	if alias == "" || target == "" {
		return ErrEmptyName
	}

	for cur := target; ; {
		if cur == alias {
			return fmt.Errorf("%w: %s -> %s", ErrAliasCycle, alias, target)
		}
		next, ok := m.aliases[cur]
		if !ok {
			break
		}
		cur = next
	}

	m.aliases[alias] = target

	return nil
}

// SetMain points the MainStuffName alias at name.
func (m *WorkingMemory) SetMain(name string) error {
	return m.AddAlias(MainStuffName, name)
}

// Main returns the stuff the MainStuffName alias points at.
func (m *WorkingMemory) Main() (Stuff, error) {
	return m.Get(MainStuffName)
}

// Names returns the names of all stored stuffs in sorted order. Aliases are not included.
func (m *WorkingMemory) Names() []string {
	return slices.Sorted(maps.Keys(m.stuffs))
}

// Aliases returns a copy of the alias table.
func (m *WorkingMemory) Aliases() map[string]string {
	return maps.Clone(m.aliases)
}

// Len returns the number of stored stuffs.
func (m *WorkingMemory) Len() int {
	return len(m.stuffs)
}

// Clone returns an independent copy of the memory. Values are shared, the tables are not.
func (m *WorkingMemory) Clone() *WorkingMemory {
	return &WorkingMemory{
		stuffs:   maps.Clone(m.stuffs),
		aliases:  maps.Clone(m.aliases),
		bindings: maps.Clone(m.bindings),
	}
}

// resolve returns the canonical stuff name for name. Bindings are applied once, then aliases
// are followed until a stuff is found or the chain ends.
func (m *WorkingMemory) resolve(name string) (string, bool) {
	if bound, ok := m.bindings[name]; ok {
		name = bound
	}

	seen := make(map[string]struct{})
	for {
		if _, ok := m.stuffs[name]; ok {
			return name, true
		}
		next, ok := m.aliases[name]
		if !ok {
			return "", false
		}
		if _, loop := seen[name]; loop {
			return "", false
		}
		seen[name] = struct{}{}
		name = next
	}
}

// As returns the value stored under name as the Go type T.
func As[T content.Value](m *WorkingMemory, name string) (T, error) {
	var zero T

	s, err := m.Get(name)
	if err != nil {
		return zero, err
	}

	v, ok := s.Value.(T)
	if !ok {
		expected, _ := content.TypeForGo(reflect.TypeFor[T]())
		return zero, &TypeMismatchError{Name: name, Expected: expected, Actual: s.Type(), Index: -1}
	}

	return v, nil
}

// ListAs returns the items of the list stored under name as the Go type T.
func ListAs[T content.Value](m *WorkingMemory, name string) ([]T, error) {
	expected, _ := content.TypeForGo(reflect.TypeFor[T]())

	items, err := m.GetListAs(name, content.AnyType)
	if err != nil {
		return nil, err
	}

	out := make([]T, 0, len(items))
	for i, item := range items {
		v, ok := item.(T)
		if !ok {
			return nil, &TypeMismatchError{Name: name, Expected: expected, Actual: content.TypeOf(item), Index: i}
		}
		out = append(out, v)
	}

	return out, nil
}

func mismatch(name string, expected content.Type, v content.Value) error {
	if l, ok := content.AsList(v); ok && expected.Kind == content.KindList && expected.Elem != nil {
		for i, item := range l.Items {
			if !expected.Elem.Accepts(item) {
				return &TypeMismatchError{Name: name, Expected: *expected.Elem, Actual: content.TypeOf(item), Index: i}
			}
		}
	}

	return &TypeMismatchError{Name: name, Expected: expected, Actual: content.TypeOf(v), Index: -1}
}
