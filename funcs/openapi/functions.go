// Package openapi is a library of computations that read OpenAPI documents and call the
// operations they describe.
//
// Register it with
//
//	reg.BulkDiscover(openapi.New(client).Candidates())
package openapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/smartcontractkit/pipes-framework/content"
	"github.com/smartcontractkit/pipes-framework/memory"
	"github.com/smartcontractkit/pipes-framework/operations"
)

// Working memory names read by the computations.
const (
	URLInput            = "openapi_url"
	SchemaLinkInput     = "openapi_schema_def_link"
	SpecInput           = "openapi_spec"
	FunctionChoiceInput = "function_choice"
	FunctionNameInput   = "function_name"
	ParametersInput     = "function_parameters"
)

var ErrNotOpenAPI = errors.New("document is not an OpenAPI specification")

// FunctionNotFoundError is returned when no operation has the requested operationId.
type FunctionNotFoundError struct {
	FunctionName string
}

func (e *FunctionNotFoundError) Error() string {
	return fmt.Sprintf("function %q not found in OpenAPI specification", e.FunctionName)
}

// StatusError is returned for non 2xx responses.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}

// Functions holds the HTTP client shared by the computations.
type Functions struct {
	client *resty.Client
}

// New returns the function library. A nil client gets a default one.
func New(client *resty.Client) *Functions {
	if client == nil {
		client = resty.New()
	}

	return &Functions{client: client}
}

// Candidates returns the computations for BulkDiscover. ParseSpec and HTTPMethods are offered
// too and skipped by discovery since they do not read working memory.
func (f *Functions) Candidates() operations.Library {
	return operations.Library{
		{Name: "obtain_openapi_spec", Fn: f.ObtainSpecText, Options: []operations.RegisterOption{
			operations.WithDescription("List the operations of an OpenAPI document as function signatures"),
		}},
		{Name: "obtain_openapi_model", Fn: f.ObtainSpec, Options: []operations.RegisterOption{
			operations.WithDescription("Fetch and decode an OpenAPI document"),
		}},
		{Name: "extract_available_functions", Fn: f.ExtractAvailableFunctions, Options: []operations.RegisterOption{
			operations.WithDescription("List the callable operations of an OpenAPI document"),
		}},
		{Name: "get_function_details", Fn: GetFunctionDetails, Options: []operations.RegisterOption{
			operations.WithDescription("Describe how to call the chosen operation"),
		}},
		{Name: "get_api_backend_capabilities", Fn: f.BackendCapabilities, Options: []operations.RegisterOption{
			operations.WithDescription("Summarize what an OpenAPI backend can do"),
		}},
		{Name: "invoke_function_api_backend", Fn: f.Invoke, Options: []operations.RegisterOption{
			operations.WithDescription("Call an operation of an OpenAPI backend"),
		}},
		{Name: "parse_spec", Fn: ParseSpec},
		{Name: "http_methods", Fn: HTTPMethods},
	}
}

// fetch downloads and decodes the OpenAPI document at url.
func (f *Functions) fetch(ctx context.Context, url string) (*Spec, error) {
	resp, err := f.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetch openapi document: %w", err)
	}
	if resp.IsError() {
		return nil, statusError(resty.MethodGet, url, resp)
	}

	return ParseSpec(resp.Body())
}

// statusError marks 4xx responses unrecoverable.
func statusError(method, url string, resp *resty.Response) error {
	err := &StatusError{Method: method, URL: url, StatusCode: resp.StatusCode(), Body: strings.TrimSpace(resp.String())}
	if resp.StatusCode() < 500 {
		return operations.NewUnrecoverableError(err)
	}

	return err
}

func (f *Functions) fetchInput(ctx context.Context, wm *memory.WorkingMemory, name string) (*Spec, string, error) {
	url, err := wm.GetString(name)
	if err != nil {
		return nil, "", err
	}
	url = strings.TrimSpace(url)
	spec, err := f.fetch(ctx, url)

	return spec, url, err
}

// ObtainSpecText lists the operations of the document at openapi_url, one "operationId(params)"
// per line. Optional parameters are suffixed with '?' and a request body adds a trailing "body".
func (f *Functions) ObtainSpecText(ctx context.Context, wm *memory.WorkingMemory) (content.Text, error) {
	spec, _, err := f.fetchInput(ctx, wm, URLInput)
	if err != nil {
		return content.Text{}, err
	}

	var b strings.Builder
	b.WriteString("Available functions:\n")
	for _, e := range spec.Endpoints() {
		params := make([]string, 0, len(e.Operation.Parameters)+1)
		for _, p := range e.Operation.Parameters {
			if p.Required {
				params = append(params, p.Name)
			} else {
				params = append(params, p.Name+"?")
			}
		}
		if e.Operation.RequestBody != nil {
			params = append(params, "body")
		}
		fmt.Fprintf(&b, "%s(%s)\n", e.Operation.OperationID, strings.Join(params, ", "))
	}

	return content.NewText(b.String()), nil
}

// ObtainSpec fetches and decodes the document at openapi_url.
func (f *Functions) ObtainSpec(ctx context.Context, wm *memory.WorkingMemory) (Spec, error) {
	spec, _, err := f.fetchInput(ctx, wm, URLInput)
	if err != nil {
		return Spec{}, err
	}

	return *spec, nil
}

// ExtractAvailableFunctions lists the operations of the document at openapi_url.
func (f *Functions) ExtractAvailableFunctions(ctx context.Context, wm *memory.WorkingMemory) ([]FunctionInfo, error) {
	spec, _, err := f.fetchInput(ctx, wm, URLInput)
	if err != nil {
		return nil, err
	}

	endpoints := spec.Endpoints()
	out := make([]FunctionInfo, 0, len(endpoints))
	for _, e := range endpoints {
		out = append(out, FunctionInfo{FunctionName: e.Operation.OperationID, Description: e.Operation.summary()})
	}

	return out, nil
}

// BackendCapabilities describes the backend at openapi_schema_def_link: its title, servers and
// one "METHOD path operationId" line per operation.
func (f *Functions) BackendCapabilities(ctx context.Context, wm *memory.WorkingMemory) (content.Text, error) {
	spec, _, err := f.fetchInput(ctx, wm, SchemaLinkInput)
	if err != nil {
		return content.Text{}, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", spec.Info.Title, spec.Info.Version)
	for _, s := range spec.Servers {
		fmt.Fprintf(&b, "server: %s\n", s.URL)
	}
	for _, e := range spec.Endpoints() {
		fmt.Fprintf(&b, "%s %s %s", e.Method, e.Path, e.Operation.OperationID)
		if s := e.Operation.summary(); s != "" {
			fmt.Fprintf(&b, ": %s", s)
		}
		b.WriteString("\n")
	}

	return content.NewText(b.String()), nil
}

// GetFunctionDetails describes the operation named by function_choice in openapi_spec.
func GetFunctionDetails(wm *memory.WorkingMemory) (FunctionDetails, error) {
	specStuff, err := wm.Get(SpecInput)
	if err != nil {
		return FunctionDetails{}, err
	}
	spec, err := specFrom(specStuff.Value)
	if err != nil {
		return FunctionDetails{}, fmt.Errorf("%s: %w", SpecInput, err)
	}
	name, err := functionChoice(wm)
	if err != nil {
		return FunctionDetails{}, err
	}

	e, err := spec.Find(name)
	if err != nil {
		return FunctionDetails{}, operations.NewUnrecoverableError(err)
	}

	details := FunctionDetails{
		FunctionName: name,
		HTTPMethod:   e.Method,
		Path:         e.Path,
		Description:  e.Operation.summary(),
		Parameters:   make([]ParameterDetail, 0, len(e.Operation.Parameters)),
		Tags:         e.Operation.Tags,
	}
	for _, p := range e.Operation.Parameters {
		d := ParameterDetail{Name: p.Name, In: p.In, Required: p.Required, Description: p.Description}
		if p.Schema != nil {
			d.Type, _ = p.Schema["type"].(string)
			d.Default = p.Schema["default"]
		}
		details.Parameters = append(details.Parameters, d)
	}
	if rb := e.Operation.RequestBody; rb != nil {
		details.RequestBodyRequired = rb.Required
		details.RequestBodySchema = rb.Content
	}

	return details, nil
}

// functionChoice reads the chosen function name, given either as a FunctionChoice, a record with
// a function_name field or plain text.
func functionChoice(wm *memory.WorkingMemory) (string, error) {
	s, err := wm.Get(FunctionChoiceInput)
	if err != nil {
		return "", err
	}

	switch v := s.Value.(type) {
	case FunctionChoice:
		return v.FunctionName, nil
	case content.Record:
		if f, ok := v.Field("function_name"); ok {
			return strings.TrimSpace(content.Render(f)), nil
		}
	case content.Text:
		return cleanName(v.Text), nil
	}

	return "", &memory.TypeMismatchError{
		Name:     FunctionChoiceInput,
		Expected: content.RecordOf(FunctionChoiceSchema),
		Actual:   s.Type(),
		Index:    -1,
	}
}

// cleanName strips whitespace and the backquotes models like to wrap names in.
func cleanName(s string) string {
	return strings.Trim(strings.TrimSpace(s), "`")
}

func decodeJSON(data []byte) (any, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}

	return v, nil
}
