package content

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"github.com/suzuki-shunsuke/go-convmap/convmap"
)

var ErrUnsupportedNative = errors.New("unsupported native value")

// FromNative converts decoded configuration or CLI data into a Value.
//
// Strings become Text and numbers become Number. Slices become lists and maps become records.
// A map holding exactly the keys "concept" and "content" is treated as an envelope: string
// content becomes Text and map content becomes a Record whose schema is the concept name. Other
// scalars such as booleans are kept as JSON.
func FromNative(x any) (Value, error) {
	switch v := x.(type) {
	case nil:
		return JSON{}, nil
	case Value:
		return v, nil
	case string:
		return Text{Text: v}, nil
	case bool:
		return JSON{Data: v}, nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUnsupportedNative, err)
		}

		return Number{Number: f}, nil
	case map[string]any:
		return fromMap(v)
	case map[any]any:
		converted, err := convmap.Convert(v, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUnsupportedNative, err)
		}

		return FromNative(converted)
	}

	rv := reflect.ValueOf(x)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Number{Number: float64(rv.Int())}, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return Number{Number: float64(rv.Uint())}, nil
	case reflect.Float32, reflect.Float64:
		return Number{Number: rv.Float()}, nil
	case reflect.Slice, reflect.Array:
		items := make([]Value, 0, rv.Len())
		for i := range rv.Len() {
			item, err := FromNative(rv.Index(i).Interface())
			if err != nil {
				return nil, fmt.Errorf("item %d: %w", i, err)
			}
			items = append(items, item)
		}

		return ListOf(items...), nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedNative, x)
	}
}

func fromMap(m map[string]any) (Value, error) {
	if concept, body, ok := envelope(m); ok {
		switch b := body.(type) {
		case string:
			return Text{Text: b}, nil
		case map[string]any:
			rec, err := fromMap(b)
			if err != nil {
				return nil, err
			}
			r, isRecord := rec.(Record)
			if !isRecord {
				return rec, nil
			}
			r.Schema = concept

			return r, nil
		default:
			return FromNative(b)
		}
	}

	fields := make(map[string]Value, len(m))
	for k, raw := range m {
		v, err := FromNative(raw)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		fields[k] = v
	}

	return NewRecord("", fields), nil
}

func envelope(m map[string]any) (string, any, bool) {
	if len(m) != 2 {
		return "", nil, false
	}
	concept, ok := m["concept"].(string)
	if !ok {
		return "", nil, false
	}
	body, ok := m["content"]

	return concept, body, ok
}
