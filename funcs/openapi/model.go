package openapi

import (
	"cmp"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"

	"sigs.k8s.io/yaml"

	"github.com/smartcontractkit/pipes-framework/content"
)

// Record schemas of the values produced by this package.
const (
	SpecSchema            = "openapi.Spec"
	FunctionInfoSchema    = "openapi.FunctionInfo"
	FunctionChoiceSchema  = "openapi.FunctionChoice"
	FunctionDetailsSchema = "openapi.FunctionDetails"
	ParameterSchema       = "openapi.FunctionParameter"
)

// HTTPMethods lists the path item keys that hold operations, in the order they are reported.
var HTTPMethods = []string{"get", "post", "put", "delete", "patch", "options", "head"}

type Info struct {
	Title       string `json:"title"`
	Version     string `json:"version"`
	Description string `json:"description,omitempty"`
}

type Server struct {
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
}

type Parameter struct {
	Name        string         `json:"name"`
	In          string         `json:"in"`
	Required    bool           `json:"required,omitempty"`
	Description string         `json:"description,omitempty"`
	Schema      map[string]any `json:"schema,omitempty"`
}

type RequestBody struct {
	Description string         `json:"description,omitempty"`
	Required    bool           `json:"required,omitempty"`
	Content     map[string]any `json:"content,omitempty"`
}

type Operation struct {
	OperationID string         `json:"operationId,omitempty"`
	Summary     string         `json:"summary,omitempty"`
	Description string         `json:"description,omitempty"`
	Parameters  []Parameter    `json:"parameters,omitempty"`
	RequestBody *RequestBody   `json:"requestBody,omitempty"`
	Responses   map[string]any `json:"responses,omitempty"`
	Tags        []string       `json:"tags,omitempty"`
}

// summary prefers the operation summary over its description.
func (o *Operation) summary() string {
	return cmp.Or(o.Summary, o.Description)
}

type PathItem struct {
	Get     *Operation `json:"get,omitempty"`
	Post    *Operation `json:"post,omitempty"`
	Put     *Operation `json:"put,omitempty"`
	Delete  *Operation `json:"delete,omitempty"`
	Patch   *Operation `json:"patch,omitempty"`
	Options *Operation `json:"options,omitempty"`
	Head    *Operation `json:"head,omitempty"`
}

// operation returns the operation for a lower case HTTP method.
func (p PathItem) operation(method string) *Operation {
	switch method {
	case "get":
		return p.Get
	case "post":
		return p.Post
	case "put":
		return p.Put
	case "delete":
		return p.Delete
	case "patch":
		return p.Patch
	case "options":
		return p.Options
	case "head":
		return p.Head
	default:
		return nil
	}
}

// Spec is an OpenAPI document reduced to what is needed to list and call its operations.
type Spec struct {
	OpenAPI    string              `json:"openapi"`
	Info       Info                `json:"info"`
	Servers    []Server            `json:"servers,omitempty"`
	Paths      map[string]PathItem `json:"paths"`
	Components map[string]any      `json:"components,omitempty"`
}

func (Spec) Kind() content.Kind { return content.KindRecord }

func (Spec) TypeName() string { return SpecSchema }

// Endpoint is an operation located in a Spec.
type Endpoint struct {
	Path      string
	Method    string
	Operation *Operation
}

// Endpoints returns every operation that has an operationId, ordered by path then by method.
func (s *Spec) Endpoints() []Endpoint {
	var out []Endpoint
	for _, path := range slices.Sorted(maps.Keys(s.Paths)) {
		item := s.Paths[path]
		for _, m := range HTTPMethods {
			op := item.operation(m)
			if op == nil || op.OperationID == "" {
				continue
			}
			out = append(out, Endpoint{Path: path, Method: strings.ToUpper(m), Operation: op})
		}
	}

	return out
}

// Find returns the endpoint whose operationId is functionName.
func (s *Spec) Find(functionName string) (Endpoint, error) {
	for _, e := range s.Endpoints() {
		if e.Operation.OperationID == functionName {
			return e, nil
		}
	}

	return Endpoint{}, &FunctionNotFoundError{FunctionName: functionName}
}

// ParseSpec decodes an OpenAPI document in JSON or YAML form.
func ParseSpec(data []byte) (*Spec, error) {
	spec := &Spec{}
	if err := yaml.Unmarshal(data, spec); err != nil {
		return nil, fmt.Errorf("decode openapi document: %w", err)
	}
	if spec.OpenAPI == "" && len(spec.Paths) == 0 {
		return nil, ErrNotOpenAPI
	}

	return spec, nil
}

// specFrom returns the Spec held by v. Specs given as inputs arrive as records or JSON and are
// re-decoded.
func specFrom(v content.Value) (*Spec, error) {
	switch s := v.(type) {
	case Spec:
		return &s, nil
	case *Spec:
		return s, nil
	}

	data, err := json.Marshal(content.ToNative(v))
	if err != nil {
		return nil, err
	}

	return ParseSpec(data)
}

// FunctionInfo names an operation that can be called.
type FunctionInfo struct {
	FunctionName string `json:"function_name"`
	Description  string `json:"description,omitempty"`
}

func (FunctionInfo) Kind() content.Kind { return content.KindRecord }

func (FunctionInfo) TypeName() string { return FunctionInfoSchema }

// FunctionChoice is the operation picked for a task, usually by a model.
type FunctionChoice struct {
	Explanation  string `json:"explanation"`
	FunctionName string `json:"function_name"`
}

func (FunctionChoice) Kind() content.Kind { return content.KindRecord }

func (FunctionChoice) TypeName() string { return FunctionChoiceSchema }

// ParameterDetail describes one parameter of an operation.
type ParameterDetail struct {
	Name        string `json:"name"`
	In          string `json:"param_in"`
	Required    bool   `json:"required"`
	Type        string `json:"param_type,omitempty"`
	Description string `json:"description,omitempty"`
	Default     any    `json:"default,omitempty"`
}

// FunctionDetails holds everything needed to build a request for an operation.
type FunctionDetails struct {
	FunctionName        string            `json:"function_name"`
	HTTPMethod          string            `json:"http_method"`
	Path                string            `json:"path"`
	Description         string            `json:"description,omitempty"`
	Parameters          []ParameterDetail `json:"parameters"`
	RequestBodyRequired bool              `json:"request_body_required"`
	RequestBodySchema   map[string]any    `json:"request_body_schema,omitempty"`
	Tags                []string          `json:"tags,omitempty"`
}

func (FunctionDetails) Kind() content.Kind { return content.KindRecord }

func (FunctionDetails) TypeName() string { return FunctionDetailsSchema }

// FunctionParameter is a named argument of invoke_function_api_backend.
type FunctionParameter struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Type  string `json:"type,omitempty"`
}

func (FunctionParameter) Kind() content.Kind { return content.KindRecord }

func (FunctionParameter) TypeName() string { return ParameterSchema }
