package content

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// Type describes the shape a Value is validated against.
//
// Name is only meaningful for records, where it is compared with the record's TypeName. Elem is
// only meaningful for lists; a nil Elem accepts any element.
type Type struct {
	Kind Kind   `json:"kind"`
	Name string `json:"name,omitempty"`
	Elem *Type  `json:"elem,omitempty"`
}

var (
	AnyType    = Type{Kind: KindAny}
	TextType   = Type{Kind: KindText}
	NumberType = Type{Kind: KindNumber}
	JSONType   = Type{Kind: KindJSON}
	RecordType = Type{Kind: KindRecord}
)

// ListType returns the type of a list whose elements are of type elem.
func ListType(elem Type) Type {
	return Type{Kind: KindList, Elem: &elem}
}

// RecordOf returns the type of a record with the given schema name.
func RecordOf(schema string) Type {
	return Type{Kind: KindRecord, Name: schema}
}

// TypeOf returns the Type describing v.
func TypeOf(v Value) Type {
	if IsNil(v) {
		return AnyType
	}

	t := Type{Kind: v.Kind()}
	switch t.Kind {
	case KindRecord:
		switch r := v.(type) {
		case Record:
			t.Name = r.Schema
		case *Record:
			if r != nil {
				t.Name = r.Schema
			}
		default:
			t.Name = v.TypeName()
		}
	case KindList:
		if l, ok := asList(v); ok {
			elem := l.Elem
			if elem.Kind == "" {
				elem = AnyType
			}
			t.Elem = &elem
		}
	default:
	}

	return t
}

// IsNil reports whether v is nil or a nil pointer to a variant, such as a (*Text)(nil).
func IsNil(v Value) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)

	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

// IsZero reports whether the type is unset.
func (t Type) IsZero() bool {
	return t.Kind == ""
}

// String renders the type using the same notation ParseType accepts.
func (t Type) String() string {
	switch t.Kind {
	case "":
		return "<unset>"
	case KindAny:
		return "Any"
	case KindText:
		return "Text"
	case KindNumber:
		return "Number"
	case KindJSON:
		return "JSON"
	case KindRecord:
		if t.Name != "" {
			return t.Name
		}

		return "Record"
	case KindList:
		if t.Elem == nil {
			return "List[Any]"
		}

		return "List[" + t.Elem.String() + "]"
	default:
		return string(t.Kind)
	}
}

// Accepts reports whether v satisfies t.
//
// Lists are accepted when their declared element type is covered by t's element type. A list
// declared with an Any element type is accepted when every item satisfies t's element type.
func (t Type) Accepts(v Value) bool {
	if t.Kind == KindAny || t.IsZero() {
		return true
	}
	if IsNil(v) || v.Kind() != t.Kind {
		return false
	}
	if t.Name != "" && v.TypeName() != t.Name {
		return false
	}
	if t.Kind != KindList || t.Elem == nil || t.Elem.Kind == KindAny {
		return true
	}

	l, ok := asList(v)
	if !ok {
		return false
	}
	if t.Elem.Covers(l.Elem) {
		return true
	}
	if l.Elem.Kind != KindAny && !l.Elem.IsZero() {
		return false
	}
	for _, item := range l.Items {
		if !t.Elem.Accepts(item) {
			return false
		}
	}

	return true
}

// Covers reports whether every value of type other is also a value of type t.
func (t Type) Covers(other Type) bool {
	if t.Kind == KindAny || t.IsZero() {
		return true
	}
	if other.Kind != t.Kind {
		return false
	}
	if t.Name != "" && other.Name != t.Name {
		return false
	}
	if t.Kind != KindList || t.Elem == nil || t.Elem.Kind == KindAny {
		return true
	}
	if other.Elem == nil {
		return false
	}

	return t.Elem.Covers(*other.Elem)
}

var ErrInvalidTypeTag = errors.New("invalid type tag")

// ParseType parses a type tag as written in pipeline definitions.
//
// Recognised tags are Any, Text, Number, JSON, Record, List[<tag>] and <tag>[]. Any other
// identifier is treated as the schema name of a record, e.g. "openapi.FunctionDetails".
func ParseType(tag string) (Type, error) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return Type{}, fmt.Errorf("%w: empty", ErrInvalidTypeTag)
	}

	if strings.HasSuffix(tag, "[]") {
		elem, err := ParseType(strings.TrimSuffix(tag, "[]"))
		if err != nil {
			return Type{}, err
		}

		return ListType(elem), nil
	}

	lower := strings.ToLower(tag)
	if strings.HasPrefix(lower, "list[") {
		if !strings.HasSuffix(tag, "]") {
			return Type{}, fmt.Errorf("%w: %q", ErrInvalidTypeTag, tag)
		}
		elem, err := ParseType(tag[len("list[") : len(tag)-1])
		if err != nil {
			return Type{}, err
		}

		return ListType(elem), nil
	}

	switch lower {
	case "any":
		return AnyType, nil
	case "text", "string":
		return TextType, nil
	case "number":
		return NumberType, nil
	case "json":
		return JSONType, nil
	case "record":
		return RecordType, nil
	case "list":
		return ListType(AnyType), nil
	}

	if strings.ContainsAny(tag, "[] \t") {
		return Type{}, fmt.Errorf("%w: %q", ErrInvalidTypeTag, tag)
	}

	return RecordOf(tag), nil
}

// MustParseType is like ParseType but panics on error.
func MustParseType(tag string) Type {
	t, err := ParseType(tag)
	if err != nil {
		panic(err)
	}

	return t
}

// Placeholder returns a value of the given shape without any meaningful content. It is used by
// dry runs to stand in for results that were not computed.
func Placeholder(t Type) Value {
	switch t.Kind {
	case KindNumber:
		return Number{}
	case KindJSON:
		return JSON{}
	case KindRecord:
		return NewRecord(t.Name, nil)
	case KindList:
		elem := AnyType
		if t.Elem != nil {
			elem = *t.Elem
		}

		return List{Elem: elem, Items: []Value{}}
	default:
		return Text{}
	}
}
