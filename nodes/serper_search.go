package nodes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/dshills/agentgraph-go/dag"
)

// SerperSearchDescriptor describes the serper_search node: a web search
// via the Serper.dev Google-results API, falling back to the local
// document index when SERPER_API_KEY is unset.
var SerperSearchDescriptor = dag.Descriptor{
	Type:        "serper_search",
	Name:        "Web Search",
	Description: "Searches the web via Serper, or the local document index if no API key is configured.",
	Params: map[string]dag.ParamSchema{
		"query": {Type: "string", Required: true, Description: "search query"},
	},
	Outputs: map[string]string{"results": "list of search results"},
}

const serperEndpoint = "https://google.serper.dev/search"

type SerperSearch struct {
	APIKey     string
	Client     *http.Client
	LocalIndex *IndexBuild
}

func NewSerperSearch(apiKey string, localIndex *IndexBuild) *SerperSearch {
	return &SerperSearch{APIKey: apiKey, Client: &http.Client{}, LocalIndex: localIndex}
}

func (s *SerperSearch) Execute(ctx context.Context, params map[string]interface{}) (map[string]interface{}, error) {
	query, ok := params["query"].(string)
	if !ok || query == "" {
		return nil, fmt.Errorf("query: missing required parameter")
	}

	if s.APIKey == "" {
		if s.LocalIndex == nil {
			return nil, fmt.Errorf("serper_search: no SERPER_API_KEY and no local index configured")
		}
		paths, err := s.LocalIndex.Search(ctx, query)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"results": paths}, nil
	}

	payload, _ := json.Marshal(map[string]string{"q": query})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, serperEndpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("serper_search: %w", err)
	}
	req.Header.Set("X-API-KEY", s.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("serper_search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("serper_search: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("serper_search: %w", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("serper_search: %w", err)
	}
	return map[string]interface{}{"results": decoded["organic"]}, nil
}
