package pipe

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"

	"github.com/smartcontractkit/pipes-framework/content"
)

type generateRequest struct {
	Prompt string `json:"prompt"`
	Output string `json:"output"`
}

type generateResponse struct {
	Content any    `json:"content"`
	Error   string `json:"error,omitempty"`
}

// HTTPGenerator is a Generator backed by a JSON completion endpoint. It POSTs
// {"prompt": ..., "output": <type tag>} and expects {"content": ...} back; the content is converted
// with content.FromNative.
type HTTPGenerator struct {
	client   *resty.Client
	endpoint string
}

// NewHTTPGenerator returns a generator posting to endpoint. A nil client gets a default one.
func NewHTTPGenerator(endpoint string, client *resty.Client) *HTTPGenerator {
	if client == nil {
		client = resty.New()
	}

	return &HTTPGenerator{client: client, endpoint: endpoint}
}

func (g *HTTPGenerator) Generate(ctx context.Context, prompt string, output content.Type) (content.Value, error) {
	var out generateResponse
	resp, err := g.client.R().
		SetContext(ctx).
		SetBody(generateRequest{Prompt: prompt, Output: output.String()}).
		SetResult(&out).
		SetError(&out).
		Post(g.endpoint)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", g.endpoint, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("call %s: status %d: %s", g.endpoint, resp.StatusCode(), out.Error)
	}

	return content.FromNative(out.Content)
}
