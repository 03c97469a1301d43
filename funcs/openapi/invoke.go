package openapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/smartcontractkit/pipes-framework/content"
	"github.com/smartcontractkit/pipes-framework/memory"
	"github.com/smartcontractkit/pipes-framework/operations"
)

// BodyParameter is the argument name holding the request body.
const BodyParameter = "body"

var ErrMissingParameter = errors.New("missing required parameter")

// Invoke calls the operation function_name of the backend described at openapi_url with the
// arguments in function_parameters and returns the decoded response.
//
// Arguments are matched to the operation's parameters by name and placed in the path, query,
// header or cookie as declared. An argument named "body" is sent as the request body. The
// request goes to the first server of the document, resolved against openapi_url, or to the
// host of openapi_url when the document declares no server.
func (f *Functions) Invoke(ctx context.Context, wm *memory.WorkingMemory) (content.JSON, error) {
	spec, specURL, err := f.fetchInput(ctx, wm, URLInput)
	if err != nil {
		return content.JSON{}, err
	}
	name, err := wm.GetString(FunctionNameInput)
	if err != nil {
		return content.JSON{}, err
	}
	name = cleanName(name)

	args, err := arguments(wm)
	if err != nil {
		return content.JSON{}, err
	}

	e, err := spec.Find(name)
	if err != nil {
		return content.JSON{}, operations.NewUnrecoverableError(err)
	}
	base, err := baseURL(specURL, spec)
	if err != nil {
		return content.JSON{}, operations.NewUnrecoverableError(err)
	}

	req := f.client.R().SetContext(ctx)
	for _, p := range e.Operation.Parameters {
		v, ok := args[p.Name]
		if !ok {
			if p.Required {
				return content.JSON{}, operations.NewUnrecoverableError(fmt.Errorf("%s: %w %q", name, ErrMissingParameter, p.Name))
			}

			continue
		}
		s := fmt.Sprint(v)
		switch p.In {
		case "path":
			req.SetPathParam(p.Name, s)
		case "query":
			req.SetQueryParam(p.Name, s)
		case "header":
			req.SetHeader(p.Name, s)
		case "cookie":
			req.SetCookie(&http.Cookie{Name: p.Name, Value: s})
		}
	}

	if body, ok := args[BodyParameter]; ok {
		if s, isString := body.(string); isString {
			if decoded, decodeErr := decodeJSON([]byte(s)); decodeErr == nil {
				body = decoded
			}
		}
		req.SetBody(body)
	} else if rb := e.Operation.RequestBody; rb != nil && rb.Required {
		return content.JSON{}, operations.NewUnrecoverableError(fmt.Errorf("%s: %w %q", name, ErrMissingParameter, BodyParameter))
	}

	target := base + e.Path
	resp, err := req.Execute(e.Method, target)
	if err != nil {
		return content.JSON{}, fmt.Errorf("%s %s: %w", e.Method, target, err)
	}
	if resp.IsError() {
		return content.JSON{}, statusError(e.Method, target, resp)
	}

	if len(resp.Body()) == 0 {
		return content.NewJSON(nil), nil
	}
	data, err := decodeJSON(resp.Body())
	if err != nil {
		return content.NewJSON(resp.String()), nil
	}

	return content.NewJSON(data), nil
}

// arguments reads function_parameters, given as a list of FunctionParameter records, a record or
// JSON object of name to value, or text holding a JSON object.
func arguments(wm *memory.WorkingMemory) (map[string]any, error) {
	s, ok := wm.GetOptional(ParametersInput)
	if !ok {
		return map[string]any{}, nil
	}

	mismatch := &memory.TypeMismatchError{
		Name:     ParametersInput,
		Expected: content.ListType(content.RecordOf(ParameterSchema)),
		Actual:   s.Type(),
		Index:    -1,
	}

	if l, isList := content.AsList(s.Value); isList {
		args := make(map[string]any, len(l.Items))
		for i, item := range l.Items {
			p, err := parameter(item)
			if err != nil {
				mismatch.Actual = content.TypeOf(item)
				mismatch.Index = i

				return nil, mismatch
			}
			args[p.Name] = p.Value
		}

		return args, nil
	}

	switch v := s.Value.(type) {
	case content.Record:
		args := make(map[string]any, len(v.Fields))
		for k, f := range v.Fields {
			args[k] = content.ToNative(f)
		}

		return args, nil
	case content.JSON:
		if m, isMap := v.Data.(map[string]any); isMap {
			return m, nil
		}
	case content.Text:
		if strings.TrimSpace(v.Text) == "" {
			return map[string]any{}, nil
		}
		data, err := decodeJSON([]byte(v.Text))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", ParametersInput, err)
		}
		if m, isMap := data.(map[string]any); isMap {
			return m, nil
		}
	}

	return nil, mismatch
}

func parameter(v content.Value) (FunctionParameter, error) {
	switch p := v.(type) {
	case FunctionParameter:
		return p, nil
	case content.Record:
		name, ok := p.Field("name")
		if !ok {
			return FunctionParameter{}, errors.New("parameter without name")
		}
		out := FunctionParameter{Name: content.Render(name)}
		if val, hasValue := p.Field("value"); hasValue {
			out.Value = content.Render(val)
		}
		if typ, hasType := p.Field("type"); hasType {
			out.Type = content.Render(typ)
		}

		return out, nil
	default:
		return FunctionParameter{}, fmt.Errorf("unexpected parameter %s", v.TypeName())
	}
}

func baseURL(specURL string, spec *Spec) (string, error) {
	u, err := url.Parse(specURL)
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", specURL, err)
	}

	if len(spec.Servers) == 0 || spec.Servers[0].URL == "" {
		return u.Scheme + "://" + u.Host, nil
	}
	ref, err := url.Parse(spec.Servers[0].URL)
	if err != nil {
		return "", fmt.Errorf("parse server %s: %w", spec.Servers[0].URL, err)
	}

	return strings.TrimSuffix(u.ResolveReference(ref).String(), "/"), nil
}
