package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// EndpointSearchEngine talks to the search endpoint: POST {"query": ...}
// answered by an ordered list of single-key result objects.
type EndpointSearchEngine struct {
	client   *http.Client
	endpoint string
}

// NewEndpointSearchEngine creates a new EndpointSearchEngine posting to endpoint.
func NewEndpointSearchEngine(client *http.Client, endpoint string) *EndpointSearchEngine {
	if client == nil {
		client = &http.Client{}
	}
	return &EndpointSearchEngine{
		client:   client,
		endpoint: endpoint,
	}
}

// Search posts the query to the endpoint and decodes the result list.
func (s *EndpointSearchEngine) Search(ctx context.Context, req *SearchRequest) ([]RawResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(msg))}
	}

	var results []RawResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return results, nil
}
