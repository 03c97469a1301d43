package content

import "reflect"

var valueInterface = reflect.TypeOf((*Value)(nil)).Elem()

// ValueInterface returns the reflect.Type of the Value interface.
func ValueInterface() reflect.Type {
	return valueInterface
}

// TypeForGo returns the content Type described by a Go type, and whether the Go type describes
// a content value at all.
//
// Types implementing Value map to their own Type; interfaces embedding Value map to Any; slices
// of such types map to lists. The empty interface, and everything else, is not a content type.
// Only zero values of the type are inspected.
func TypeForGo(rt reflect.Type) (Type, bool) {
	if rt == nil {
		return Type{}, false
	}

	if rt.Kind() == reflect.Interface {
		if rt.Implements(valueInterface) {
			return AnyType, true
		}

		return Type{}, false
	}

	if rt.Implements(valueInterface) {
		return TypeOf(zeroValue(rt)), true
	}

	if rt.Kind() == reflect.Slice {
		elem, ok := TypeForGo(rt.Elem())
		if !ok {
			return Type{}, false
		}

		return ListType(elem), true
	}

	return Type{}, false
}

func zeroValue(rt reflect.Type) Value {
	if rt.Kind() == reflect.Pointer {
		v, _ := reflect.New(rt.Elem()).Interface().(Value)
		return v
	}
	v, _ := reflect.Zero(rt).Interface().(Value)

	return v
}
