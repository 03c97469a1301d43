package sample

import (
	"context"
	"strings"

	"github.com/smartcontractkit/pipes-framework/content"
	mem "github.com/smartcontractkit/pipes-framework/memory"
)

// Score is a number declared by the package.
type Score struct {
	V float64
}

func (Score) Kind() content.Kind { return content.KindNumber }

func (Score) TypeName() string { return "Number" }

// NotAValue has TypeName but no Kind.
type NotAValue struct{}

func (NotAValue) TypeName() string { return "nope" }

func Greet(wm *mem.WorkingMemory) (string, error) {
	name, err := wm.GetString("name")
	return "hello " + name, err
}

func Shout(ctx context.Context, wm *mem.WorkingMemory) (content.Text, error) {
	text, err := wm.GetText("text")
	return content.NewText(strings.ToUpper(text.Text)), err
}

func SplitWords(wm *mem.WorkingMemory) ([]content.Text, error) {
	return nil, nil
}

func Rate(wm *mem.WorkingMemory) (*Score, error) {
	return &Score{}, nil
}

func Anything(wm *mem.WorkingMemory) (any, error) {
	return nil, nil
}

func Helper(s string) string {
	return s
}

func Pair(ctx context.Context, a, b *mem.WorkingMemory) (string, error) {
	return "", nil
}

func NoError(wm *mem.WorkingMemory) string {
	return ""
}

func Wrong(wm *mem.WorkingMemory) (NotAValue, error) {
	return NotAValue{}, nil
}

func (s Score) Method(wm *mem.WorkingMemory) (string, error) {
	return "", nil
}
