package pipe

import (
	"fmt"
	"reflect"

	"github.com/smartcontractkit/pipes-framework/content"
)

// NormalizationError is returned when a computation's result cannot be turned into a content
// value, or the value does not have the operator's declared output type.
type NormalizationError struct {
	Operation string
	Declared  content.Type
	Actual    string
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("operation %q returned %s, expected %s", e.Operation, e.Actual, e.Declared)
}

// Normalize converts the raw result of a computation into a content value:
//
//   - a content.Value passes through unchanged
//   - a string becomes Text
//   - a slice of content values becomes a List, typed by the slice's element type
//
// Anything else, including nil results and nil list items, is a *NormalizationError.
func Normalize(op string, declared content.Type, raw any) (content.Value, error) {
	fail := func() error {
		actual := "nil"
		if raw != nil {
			actual = reflect.TypeOf(raw).String()
		}

		return &NormalizationError{Operation: op, Declared: declared, Actual: actual}
	}

	if raw == nil {
		return nil, fail()
	}

	rv := reflect.ValueOf(raw)
	if rv.Kind() == reflect.Pointer && rv.IsNil() {
		return nil, fail()
	}

	switch v := raw.(type) {
	case content.Value:
		return v, nil
	case string:
		return content.NewText(v), nil
	}

	if rv.Kind() != reflect.Slice {
		return nil, fail()
	}

	elem, ok := content.TypeForGo(rv.Type().Elem())
	if !ok {
		return nil, fail()
	}

	items := make([]content.Value, 0, rv.Len())
	for i := range rv.Len() {
		item, isValue := rv.Index(i).Interface().(content.Value)
		if !isValue || content.IsNil(item) {
			return nil, fail()
		}
		items = append(items, item)
	}

	if elem.Kind == content.KindAny {
		return content.ListOf(items...), nil
	}

	list, err := content.NewList(elem, items...)
	if err != nil {
		return nil, fail()
	}

	return list, nil
}
