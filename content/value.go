package content

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Kind is the variant tag of a Value.
type Kind string

const (
	KindAny    Kind = "any"
	KindText   Kind = "text"
	KindNumber Kind = "number"
	KindRecord Kind = "record"
	KindList   Kind = "list"
	KindJSON   Kind = "json"
)

// Value is implemented by every piece of content that can be stored in working memory.
type Value interface {
	// Kind returns the variant tag.
	Kind() Kind
	// TypeName returns the name used for schema validation. For records this is the schema name.
	TypeName() string
}

// Text is a plain string value.
type Text struct {
	Text string `json:"text"`
}

// NewText returns a Text value.
func NewText(s string) Text {
	return Text{Text: s}
}

func (Text) Kind() Kind { return KindText }

func (Text) TypeName() string { return "Text" }

func (t Text) String() string { return t.Text }

// Number is a numeric value.
type Number struct {
	Number float64 `json:"number"`
}

// NewNumber returns a Number value.
func NewNumber(n float64) Number {
	return Number{Number: n}
}

func (Number) Kind() Kind { return KindNumber }

func (Number) TypeName() string { return "Number" }

func (n Number) String() string {
	return strconv.FormatFloat(n.Number, 'f', -1, 64)
}

// Record is a structured value made of named fields, validated against its Schema name.
type Record struct {
	Schema string           `json:"schema,omitempty"`
	Fields map[string]Value `json:"fields"`
}

// NewRecord returns a Record with the given schema and fields.
func NewRecord(schema string, fields map[string]Value) Record {
	if fields == nil {
		fields = map[string]Value{}
	}

	return Record{Schema: schema, Fields: fields}
}

func (Record) Kind() Kind { return KindRecord }

func (r Record) TypeName() string {
	if r.Schema == "" {
		return "Record"
	}

	return r.Schema
}

// Field returns the field with the given name.
func (r Record) Field(name string) (Value, bool) {
	v, ok := r.Fields[name]

	return v, ok
}

// JSON holds an arbitrary decoded JSON document.
type JSON struct {
	Data any `json:"data"`
}

// NewJSON returns a JSON value.
func NewJSON(data any) JSON {
	return JSON{Data: data}
}

func (JSON) Kind() Kind { return KindJSON }

func (JSON) TypeName() string { return "JSON" }

// ToNative converts a Value into plain Go data suitable for encoding/json.
// Externally declared variants are returned as-is and marshal through their own struct tags.
func ToNative(v Value) any {
	switch x := v.(type) {
	case nil:
		return nil
	case Text:
		return x.Text
	case *Text:
		return x.Text
	case Number:
		return x.Number
	case *Number:
		return x.Number
	case JSON:
		return x.Data
	case *JSON:
		return x.Data
	case Record:
		return recordNative(x)
	case *Record:
		return recordNative(*x)
	case List:
		return listNative(x)
	case *List:
		return listNative(*x)
	default:
		return v
	}
}

func recordNative(r Record) map[string]any {
	out := make(map[string]any, len(r.Fields))
	for k, f := range r.Fields {
		out[k] = ToNative(f)
	}

	return out
}

func listNative(l List) []any {
	out := make([]any, 0, len(l.Items))
	for _, item := range l.Items {
		out = append(out, ToNative(item))
	}

	return out
}

// Render renders a Value as human readable text. Text is returned verbatim, numbers are
// formatted without trailing zeros and everything else is rendered as indented JSON.
func Render(v Value) string {
	switch x := v.(type) {
	case nil:
		return ""
	case Text:
		return x.Text
	case *Text:
		return x.Text
	case Number:
		return x.String()
	case *Number:
		return x.String()
	case List:
		if x.Elem.Kind == KindText {
			parts := make([]string, 0, len(x.Items))
			for _, item := range x.Items {
				parts = append(parts, Render(item))
			}

			return strings.Join(parts, "\n")
		}
	}

	b, err := json.MarshalIndent(ToNative(v), "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}

	return string(b)
}
