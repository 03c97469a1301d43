package pipe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartcontractkit/pipes-framework/content"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	var nilRecord *content.Record

	tests := []struct {
		name       string
		raw        any
		want       content.Value
		wantActual string
	}{
		{
			name: "value passes through",
			raw:  content.NewNumber(4),
			want: content.NewNumber(4),
		},
		{
			name: "string becomes text",
			raw:  "hello",
			want: content.NewText("hello"),
		},
		{
			name: "typed slice becomes typed list",
			raw:  []content.Text{content.NewText("a"), content.NewText("b")},
			want: content.List{
				Elem:  content.TextType,
				Items: []content.Value{content.NewText("a"), content.NewText("b")},
			},
		},
		{
			name: "value slice infers element type",
			raw:  []content.Value{content.NewNumber(1), content.NewNumber(2)},
			want: content.ListOf(content.NewNumber(1), content.NewNumber(2)),
		},
		{
			name:       "nil",
			raw:        nil,
			wantActual: "nil",
		},
		{
			name:       "nil pointer value",
			raw:        nilRecord,
			wantActual: "*content.Record",
		},
		{
			name:       "plain int",
			raw:        42,
			wantActual: "int",
		},
		{
			name:       "slice of strings",
			raw:        []string{"a"},
			wantActual: "[]string",
		},
		{
			name:       "slice with nil item",
			raw:        []content.Value{content.NewText("a"), nil},
			wantActual: "[]content.Value",
		},
		{
			name:       "slice with nil pointer item",
			raw:        []*content.Text{nil},
			wantActual: "[]*content.Text",
		},
		{
			name:       "value slice with nil pointer item",
			raw:        []content.Value{(*content.Text)(nil)},
			wantActual: "[]content.Value",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Normalize("op", content.AnyType, tt.raw)
			if tt.wantActual != "" {
				var nerr *NormalizationError
				require.ErrorAs(t, err, &nerr)
				assert.Equal(t, "op", nerr.Operation)
				assert.Equal(t, tt.wantActual, nerr.Actual)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
