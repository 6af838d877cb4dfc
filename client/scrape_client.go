package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"
)

// maxContentBytes bounds how much of a content response is read.
const maxContentBytes = 1 << 20

// ScrapeClient fetches page snippets from the content endpoint.
type ScrapeClient struct {
	Endpoint   string
	HTTPClient *http.Client
}

type scrapeRequest struct {
	Query string `json:"query"`
}

func NewScrapeClient(endpoint string, httpClient *http.Client) *ScrapeClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &ScrapeClient{
		Endpoint:   endpoint,
		HTTPClient: httpClient,
	}
}

// FetchContent asks the content endpoint for the snippet of pageURL. An
// empty string with a nil error means the endpoint had nothing for it.
func (c *ScrapeClient) FetchContent(ctx context.Context, pageURL string) (string, error) {
	data, err := json.Marshal(scrapeRequest{Query: pageURL})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxContentBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	return decodeContent(resp.Header.Get("Content-Type"), body), nil
}

// decodeContent unwraps JSON string bodies and reduces bodies declared as
// HTML to their text. Anything else, including JSON that is not a string,
// is used as text.
func decodeContent(contentType string, body []byte) string {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return ""
	}

	mediaType, _, _ := mime.ParseMediaType(contentType)
	if isHTMLMediaType(mediaType) {
		return CleanSnippet(HTMLToText(string(body)))
	}
	if mediaType == "application/json" || body[0] == '"' {
		var s string
		// null decodes to "".
		if err := json.Unmarshal(body, &s); err == nil {
			return CleanSnippet(s)
		}
	}
	return CleanSnippet(string(body))
}
