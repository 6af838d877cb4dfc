package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// MaxResults is the number of ranked results kept from a search response.
const MaxResults = 10

// Query is the user's search text.
type Query string

// Blank reports whether the query has no searchable text.
func (q Query) Blank() bool {
	return strings.TrimSpace(string(q)) == ""
}

// RawResult is one ranked hit. Title doubles as the lookup key for the
// result's enriched record.
type RawResult struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

type resultData struct {
	URL string `json:"url"`
}

// UnmarshalJSON decodes the endpoint's single-key form {"<title>": {"url": ...}}.
// When an element carries more than one key the first one in document order
// is the title.
func (r *RawResult) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("result entry must be an object, got %v", tok)
	}
	if !dec.More() {
		return errors.New("result entry has no title")
	}

	tok, err = dec.Token()
	if err != nil {
		return err
	}
	title, _ := tok.(string)

	var data resultData
	if err := dec.Decode(&data); err != nil {
		return fmt.Errorf("result %q: %w", title, err)
	}

	r.Title = title
	r.URL = data.URL
	return nil
}

// ResultSet is an ordered, capped list of results in rank order.
type ResultSet []RawResult

// Titles returns the titles in rank order.
func (rs ResultSet) Titles() []string {
	titles := make([]string, len(rs))
	for i, r := range rs {
		titles[i] = r.Title
	}
	return titles
}

type SearchRequest struct {
	Query Query `json:"query"`
}

// Engine performs exactly one request against a search backend and returns
// every result it received, in rank order.
type Engine interface {
	Search(ctx context.Context, req *SearchRequest) ([]RawResult, error)
}
