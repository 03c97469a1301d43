package operations

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/smartcontractkit/pipes-framework/content"
	"github.com/smartcontractkit/pipes-framework/memory"
)

var (
	ErrNotAFunction      = errors.New("computation is not a function")
	ErrBadArity          = errors.New("computation must take exactly one working memory parameter")
	ErrBadInput          = errors.New("computation parameter must be *memory.WorkingMemory")
	ErrBadResult         = errors.New("computation must return a content value and an error")
	ErrSignatureMismatch = errors.New("declared result does not match the computation result")
)

var (
	contextType = reflect.TypeFor[context.Context]()
	memoryType  = reflect.TypeFor[*memory.WorkingMemory]()
	errorType   = reflect.TypeFor[error]()
	stringType  = reflect.TypeFor[string]()
)

// Signature describes the shape of an eligible computation as found by CheckEligibility.
type Signature struct {
	// Input is the type of the single formal input, always *memory.WorkingMemory.
	Input reflect.Type
	// Result is the content type of the values the computation produces.
	Result content.Type
	// ResultGo is the Go type of the first return value.
	ResultGo reflect.Type
	// ContextAware is set when the computation takes a leading context.Context.
	ContextAware bool
	// Blocking is set when the computation must run on the bounded worker pool.
	Blocking bool
}

// CheckEligibility inspects fn and returns its Signature if it can be registered.
//
// An eligible computation has one of the forms
//
//	func(*memory.WorkingMemory) (R, error)
//	func(context.Context, *memory.WorkingMemory) (R, error)
//
// where R is a content.Value implementation, the content.Value interface, a slice of those, or
// string. Computations without a context are blocking; computations with one are cooperative.
// The function is never called.
func CheckEligibility(fn any) (Signature, error) {
	if fn == nil {
		return Signature{}, ErrNotAFunction
	}

	rt := reflect.TypeOf(fn)
	if rt.Kind() != reflect.Func {
		return Signature{}, fmt.Errorf("%w: got %s", ErrNotAFunction, rt)
	}
	if reflect.ValueOf(fn).IsNil() {
		return Signature{}, fmt.Errorf("%w: nil %s", ErrNotAFunction, rt)
	}
	if rt.IsVariadic() {
		return Signature{}, fmt.Errorf("%w: variadic %s", ErrBadArity, rt)
	}

	var sig Signature

	params := make([]reflect.Type, 0, rt.NumIn())
	for i := range rt.NumIn() {
		params = append(params, rt.In(i))
	}
	if len(params) == 2 && params[0] == contextType {
		sig.ContextAware = true
		params = params[1:]
	}
	if len(params) != 1 {
		return Signature{}, fmt.Errorf("%w: %s", ErrBadArity, rt)
	}
	if params[0] != memoryType {
		return Signature{}, fmt.Errorf("%w: got %s", ErrBadInput, params[0])
	}
	sig.Input = params[0]
	sig.Blocking = !sig.ContextAware

	if rt.NumOut() != 2 || rt.Out(1) != errorType {
		return Signature{}, fmt.Errorf("%w: %s", ErrBadResult, rt)
	}

	result, err := resultType(rt.Out(0))
	if err != nil {
		return Signature{}, err
	}
	sig.Result = result
	sig.ResultGo = rt.Out(0)

	return sig, nil
}

func resultType(rt reflect.Type) (content.Type, error) {
	if rt == stringType {
		return content.TextType, nil
	}

	t, ok := content.TypeForGo(rt)
	if !ok {
		return content.Type{}, fmt.Errorf("%w: %s is not a content type", ErrBadResult, rt)
	}

	return t, nil
}

// compatible reports whether a declared result type can describe values of the actual type,
// either because it covers them or because it narrows a broader actual type.
func compatible(declared, actual content.Type) bool {
	return declared.Covers(actual) || actual.Covers(declared)
}
