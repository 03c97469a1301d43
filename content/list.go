package content

import "fmt"

// List is an ordered sequence of values constrained to the element type Elem.
type List struct {
	Elem  Type    `json:"elem"`
	Items []Value `json:"items"`
}

func (List) Kind() Kind { return KindList }

func (l List) TypeName() string {
	return TypeOf(l).String()
}

// Len returns the number of items.
func (l List) Len() int {
	return len(l.Items)
}

// ElementError is returned when a list item does not satisfy the list element type.
type ElementError struct {
	Index    int
	Expected Type
	Actual   Type
}

func (e *ElementError) Error() string {
	return fmt.Sprintf("list item %d: expected %s, got %s", e.Index, e.Expected, e.Actual)
}

// NewList returns a list of the given element type. Every item is validated against elem.
func NewList(elem Type, items ...Value) (List, error) {
	if elem.IsZero() {
		elem = AnyType
	}
	for i, item := range items {
		if !elem.Accepts(item) {
			return List{}, &ElementError{Index: i, Expected: elem, Actual: TypeOf(item)}
		}
	}
	if items == nil {
		items = []Value{}
	}

	return List{Elem: elem, Items: items}, nil
}

// ListOf returns a list whose element type is inferred from its items. Items sharing a single
// type produce a list of that type; empty or mixed lists are typed Any.
func ListOf(items ...Value) List {
	return List{Elem: commonType(items), Items: append([]Value{}, items...)}
}

func commonType(items []Value) Type {
	if len(items) == 0 {
		return AnyType
	}

	first := TypeOf(items[0])
	for _, item := range items[1:] {
		t := TypeOf(item)
		if !first.Covers(t) || !t.Covers(first) {
			return AnyType
		}
	}

	return first
}

func asList(v Value) (List, bool) {
	switch l := v.(type) {
	case List:
		return l, true
	case *List:
		if l == nil {
			return List{}, false
		}

		return *l, true
	default:
		return List{}, false
	}
}

// AsList returns v as a List if it is one.
func AsList(v Value) (List, bool) {
	return asList(v)
}
