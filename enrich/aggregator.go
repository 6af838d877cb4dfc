package enrich

import (
	"context"
	"fmt"
	"sync"
	"time"

	"websift/search"

	"go.uber.org/zap"
)

// Description sentinels used when no snippet text is available.
const (
	NoContent   = "No content found."
	FetchFailed = "Unable to fetch content."
)

// DefaultFetchTimeout bounds a single content fetch when none is configured.
const DefaultFetchTimeout = 5 * time.Second

// Record is a result with its snippet attached.
type Record struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

// Map holds the enriched records of one search, keyed by title.
type Map map[string]Record

// ContentFetcher returns the snippet text for a page URL.
type ContentFetcher interface {
	FetchContent(ctx context.Context, url string) (string, error)
}

// ItemError describes one failed content fetch. It is logged and replaced by
// the FetchFailed sentinel; it never reaches the caller of Enrich.
type ItemError struct {
	Title string
	URL   string
	Err   error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("content fetch for %q (%s) failed: %v", e.Title, e.URL, e.Err)
}

func (e *ItemError) Unwrap() error {
	return e.Err
}

// Aggregator fans out content fetches for a result set and folds them into
// a Map.
type Aggregator struct {
	fetcher ContentFetcher
	timeout time.Duration
	logger  *zap.Logger
}

// NewAggregator creates a new Aggregator. A non-positive timeout falls back
// to DefaultFetchTimeout.
func NewAggregator(fetcher ContentFetcher, timeout time.Duration, logger *zap.Logger) *Aggregator {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{
		fetcher: fetcher,
		timeout: timeout,
		logger:  logger,
	}
}

// Enrich fetches a snippet for every result concurrently and returns once
// all fetches have settled. Individual failures become FetchFailed
// descriptions. When titles repeat, the later result in rs wins.
func (a *Aggregator) Enrich(ctx context.Context, rs search.ResultSet) Map {
	records := make([]Record, len(rs))
	tracker := NewOutcomeTracker()

	var wg sync.WaitGroup
	for i, r := range rs {
		wg.Add(1)
		go func(i int, r search.RawResult) {
			defer wg.Done()
			records[i] = a.enrichOne(ctx, r, tracker)
		}(i, r)
	}
	wg.Wait()

	m := make(Map, len(records))
	for _, rec := range records {
		if _, dup := m[rec.Title]; dup {
			a.logger.Debug("Duplicate result title, keeping later entry",
				zap.String("title", rec.Title),
				zap.String("url", rec.URL))
		}
		m[rec.Title] = rec
	}

	a.logger.Info("Enrichment settled",
		zap.Int("results", len(rs)),
		zap.Int("records", len(m)),
		zap.Int("fetched", tracker.Count(OutcomeFetched)),
		zap.Int("empty", tracker.Count(OutcomeEmpty)),
		zap.Int("failed", tracker.Count(OutcomeFailed)))

	return m
}

func (a *Aggregator) enrichOne(ctx context.Context, r search.RawResult, tracker *OutcomeTracker) Record {
	rec := Record{Title: r.Title, URL: r.URL}

	fetchCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	content, err := a.fetcher.FetchContent(fetchCtx, r.URL)
	switch {
	case err != nil:
		itemErr := &ItemError{Title: r.Title, URL: r.URL, Err: err}
		a.logger.Warn("Content fetch failed",
			zap.String("url", r.URL),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(itemErr))
		tracker.Record(OutcomeFailed)
		rec.Description = FetchFailed
	case content == "":
		tracker.Record(OutcomeEmpty)
		rec.Description = NoContent
	default:
		tracker.Record(OutcomeFetched)
		rec.Description = content
	}
	return rec
}

// Ordered lays m out in the rank order of rs. Results without a record yet
// are returned with an empty description.
func Ordered(rs search.ResultSet, m Map) []Record {
	out := make([]Record, 0, len(rs))
	for _, r := range rs {
		rec, ok := m[r.Title]
		if !ok {
			rec = Record{Title: r.Title, URL: r.URL}
		}
		out = append(out, rec)
	}
	return out
}
