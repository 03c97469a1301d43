package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromNative(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		give    any
		want    Value
		wantErr string
	}{
		{name: "string", give: "hello", want: NewText("hello")},
		{name: "int", give: 42, want: NewNumber(42)},
		{name: "float", give: 1.5, want: NewNumber(1.5)},
		{name: "bool", give: true, want: NewJSON(true)},
		{
			name: "string slice",
			give: []string{"a", "b"},
			want: List{Elem: TextType, Items: []Value{NewText("a"), NewText("b")}},
		},
		{
			name: "envelope with text content",
			give: map[string]any{"concept": "openapi_function_builder.OpenAPIURL", "content": "https://x"},
			want: NewText("https://x"),
		},
		{
			name: "envelope with structured content",
			give: map[string]any{
				"concept": "FunctionChoice",
				"content": map[string]any{"function_name": "listContacts"},
			},
			want: NewRecord("FunctionChoice", map[string]Value{"function_name": NewText("listContacts")}),
		},
		{
			name: "yaml style map",
			give: map[any]any{"name": "x"},
			want: NewRecord("", map[string]Value{"name": NewText("x")}),
		},
		{name: "unsupported", give: struct{}{}, wantErr: "unsupported native value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := FromNative(tt.give)
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRender(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "hello", Render(NewText("hello")))
	assert.Equal(t, "2.5", Render(NewNumber(2.5)))
	assert.Equal(t, "the\nquick", Render(ListOf(NewText("the"), NewText("quick"))))
	assert.JSONEq(t, `{"a": 1}`, Render(NewRecord("", map[string]Value{"a": NewNumber(1)})))
}
