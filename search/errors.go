package search

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyQuery is returned for blank input before any request is made.
	ErrEmptyQuery = errors.New("search: empty query")
	// ErrNoResults signals a successful search with an empty result list.
	ErrNoResults = errors.New("search: no results")
)

// RequestError reports a failed search request. No partial results
// accompany it.
type RequestError struct {
	Query Query
	Err   error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("search request for %q failed: %v", string(e.Query), e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// StatusError is a non-success HTTP status from a search backend.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("endpoint returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("endpoint returned status %d: %s", e.StatusCode, e.Body)
}
