package nodes

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dshills/agentgraph-go/dag"
)

// HTTPFetchDescriptor describes the http_fetch node. Only net/http
// appears here: no third-party HTTP client in the reference corpus adds
// anything this single request/response round trip needs, and the
// stdlib client is what the original graph/tool/http.go tool reached for
// too.
var HTTPFetchDescriptor = dag.Descriptor{
	Type:        "http_fetch",
	Name:        "HTTP Fetch",
	Description: "Issues an HTTP request and returns status, headers, and body.",
	Params: map[string]dag.ParamSchema{
		"url":     {Type: "string", Required: true, Description: "target URL"},
		"method":  {Type: "string", Required: false, Default: "GET", Description: "HTTP method"},
		"body":    {Type: "string", Required: false, Description: "request body"},
		"headers": {Type: "object", Required: false, Description: "request headers"},
	},
	Outputs: map[string]string{
		"status_code": "HTTP response status code",
		"headers":     "response headers",
		"body":        "response body",
	},
}

type HTTPFetch struct {
	Client *http.Client
}

func NewHTTPFetch() *HTTPFetch {
	return &HTTPFetch{Client: &http.Client{}}
}

func (h *HTTPFetch) Execute(ctx context.Context, params map[string]interface{}) (map[string]interface{}, error) {
	url, ok := params["url"].(string)
	if !ok || url == "" {
		return nil, fmt.Errorf("url: missing required parameter")
	}

	method := "GET"
	if m, ok := params["method"].(string); ok && m != "" {
		method = strings.ToUpper(m)
	}

	var body io.Reader
	if b, ok := params["body"].(string); ok && b != "" {
		body = bytes.NewBufferString(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("http_fetch: %w", err)
	}
	if headers, ok := params["headers"].(map[string]interface{}); ok {
		for k, v := range headers {
			if s, ok := v.(string); ok {
				req.Header.Set(k, s)
			}
		}
	}

	resp, err := h.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http_fetch: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("http_fetch: reading body: %w", err)
	}

	respHeaders := make(map[string]interface{}, len(resp.Header))
	for k, v := range resp.Header {
		if len(v) == 1 {
			respHeaders[k] = v[0]
		} else {
			respHeaders[k] = v
		}
	}

	return map[string]interface{}{
		"status_code": resp.StatusCode,
		"headers":     respHeaders,
		"body":        string(respBody),
	}, nil
}
