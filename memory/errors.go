package memory

import (
	"errors"
	"fmt"

	"github.com/smartcontractkit/pipes-framework/content"
)

var (
	// ErrAliasCycle is returned when an alias would make name resolution loop.
	ErrAliasCycle = errors.New("alias cycle")
	// ErrEmptyName is returned when a stuff or alias name is empty.
	ErrEmptyName = errors.New("name must not be empty")
)

// NotFoundError is returned when no stuff exists under a name or its canonical form.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("stuff %q not found in working memory", e.Name)
}

// TypeMismatchError is returned when a stuff exists but its value does not have the expected
// shape. Index is the position of the offending list element, or -1 when the value itself does
// not match.
type TypeMismatchError struct {
	Name     string
	Expected content.Type
	Actual   content.Type
	Index    int
}

func (e *TypeMismatchError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("stuff %q item %d: expected %s, got %s", e.Name, e.Index, e.Expected, e.Actual)
	}

	return fmt.Sprintf("stuff %q: expected %s, got %s", e.Name, e.Expected, e.Actual)
}

// EmptyListError is returned by FirstOf when the list holds no elements.
type EmptyListError struct {
	Name string
}

func (e *EmptyListError) Error() string {
	return fmt.Sprintf("stuff %q is an empty list", e.Name)
}

// IsNotFound reports whether err is, or wraps, a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError

	return errors.As(err, &nf)
}

// IsTypeMismatch reports whether err is, or wraps, a TypeMismatchError.
func IsTypeMismatch(err error) bool {
	var tm *TypeMismatchError

	return errors.As(err, &tm)
}
