package operations

import (
	"context"
	"strings"

	"github.com/smartcontractkit/pipes-framework/content"
	"github.com/smartcontractkit/pipes-framework/memory"
)

// person is a structured value declared outside the content package.
type person struct {
	Name string
}

func (person) Kind() content.Kind { return content.KindRecord }
func (person) TypeName() string   { return "test.Person" }

func countWords(wm *memory.WorkingMemory) (content.Number, error) {
	text, err := wm.GetText("text")
	if err != nil {
		return content.Number{}, err
	}

	return content.NewNumber(float64(len(strings.Fields(text.Text)))), nil
}

func upperText(_ context.Context, wm *memory.WorkingMemory) (content.Text, error) {
	text, err := wm.GetText("text")
	if err != nil {
		return content.Text{}, err
	}

	return content.NewText(strings.ToUpper(text.Text)), nil
}

func splitWords(wm *memory.WorkingMemory) ([]content.Text, error) {
	text, err := wm.GetText("text")
	if err != nil {
		return nil, err
	}

	var out []content.Text
	for _, w := range strings.Fields(text.Text) {
		out = append(out, content.NewText(w))
	}

	return out, nil
}

func greeting(wm *memory.WorkingMemory) (string, error) {
	name, err := wm.GetString("name")
	if err != nil {
		return "", err
	}

	return "hello " + name, nil
}

func untypedResult(*memory.WorkingMemory) (any, error) {
	return "untyped", nil
}

func wrongInput(string) (content.Text, error) {
	return content.Text{}, nil
}

func newTextMemory(text string) *memory.WorkingMemory {
	m := memory.New()
	m.Set("text", content.NewText(text))

	return m
}
