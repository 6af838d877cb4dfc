package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

const serpAPIURL = "https://serpapi.com/search"

// SerpApiSearchEngine serves the first page of Google organic results
// through SerpAPI.
type SerpApiSearchEngine struct {
	client  *http.Client
	apiKey  string
	baseURL string
}

type serpApiResponse struct {
	OrganicResults []struct {
		Position int    `json:"position"`
		Title    string `json:"title"`
		Link     string `json:"link"`
	} `json:"organic_results"`
	SearchMetadata struct {
		Status string `json:"status"`
	} `json:"search_metadata"`
	Error string `json:"error"`
}

// NewSerpApiSearchEngine creates a new SerpApiSearchEngine.
func NewSerpApiSearchEngine(client *http.Client, apiKey string) *SerpApiSearchEngine {
	if client == nil {
		client = &http.Client{}
	}
	return &SerpApiSearchEngine{
		client:  client,
		apiKey:  apiKey,
		baseURL: serpAPIURL,
	}
}

// Search queries SerpAPI and returns its organic results.
func (s *SerpApiSearchEngine) Search(ctx context.Context, req *SearchRequest) ([]RawResult, error) {
	params := url.Values{}
	params.Set("engine", "google")
	params.Set("q", string(req.Query))
	params.Set("api_key", s.apiKey)
	params.Set("num", strconv.Itoa(MaxResults))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}

	var searchResp serpApiResponse
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	// SerpAPI reports "no results" through the error field with a 200.
	if searchResp.Error != "" && len(searchResp.OrganicResults) == 0 && searchResp.SearchMetadata.Status != "Success" {
		return nil, fmt.Errorf("serpapi: %s", searchResp.Error)
	}

	results := make([]RawResult, 0, len(searchResp.OrganicResults))
	for _, item := range searchResp.OrganicResults {
		results = append(results, RawResult{
			Title: item.Title,
			URL:   item.Link,
		})
	}

	return results, nil
}
