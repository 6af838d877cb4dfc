package enrich

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"websift/client"
	"websift/search"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fetchFunc func(ctx context.Context, url string) (string, error)

func (f fetchFunc) FetchContent(ctx context.Context, url string) (string, error) {
	return f(ctx, url)
}

func staticFetcher(contents map[string]string, failures map[string]error) ContentFetcher {
	return fetchFunc(func(ctx context.Context, url string) (string, error) {
		if err, ok := failures[url]; ok {
			return "", err
		}
		return contents[url], nil
	})
}

func resultSet(n int) search.ResultSet {
	rs := make(search.ResultSet, n)
	for i := range n {
		rs[i] = search.RawResult{Title: fmt.Sprintf("T%d", i), URL: fmt.Sprintf("u%d", i)}
	}
	return rs
}

func TestEnrich_RoundTrip(t *testing.T) {
	rs := search.ResultSet{
		{Title: "T1", URL: "u1"},
		{Title: "T2", URL: "u2"},
	}
	fetcher := staticFetcher(map[string]string{"u1": "snippet1", "u2": ""}, nil)

	m := NewAggregator(fetcher, time.Second, zaptest.NewLogger(t)).Enrich(context.Background(), rs)

	assert.Equal(t, Map{
		"T1": {Title: "T1", URL: "u1", Description: "snippet1"},
		"T2": {Title: "T2", URL: "u2", Description: "No content found."},
	}, m)
}

func TestEnrich_OneEntryPerResult(t *testing.T) {
	fetcher := fetchFunc(func(ctx context.Context, url string) (string, error) {
		return "content of " + url, nil
	})
	a := NewAggregator(fetcher, time.Second, nil)

	for k := 0; k <= search.MaxResults; k++ {
		t.Run(fmt.Sprintf("k=%d", k), func(t *testing.T) {
			rs := resultSet(k)
			m := a.Enrich(context.Background(), rs)
			require.Len(t, m, k)
			for _, r := range rs {
				assert.Equal(t, "content of "+r.URL, m[r.Title].Description)
			}
		})
	}
}

func TestEnrich_SingleFailureIsIsolated(t *testing.T) {
	rs := resultSet(5)
	contents := map[string]string{}
	for _, r := range rs {
		contents[r.URL] = "snippet for " + r.Title
	}
	fetcher := staticFetcher(contents, map[string]error{"u2": errors.New("connection reset")})

	m := NewAggregator(fetcher, time.Second, zaptest.NewLogger(t)).Enrich(context.Background(), rs)

	require.Len(t, m, 5)
	assert.Equal(t, FetchFailed, m["T2"].Description)
	for _, r := range rs {
		if r.Title == "T2" {
			continue
		}
		assert.Equal(t, "snippet for "+r.Title, m[r.Title].Description)
	}
}

func TestEnrich_AllFail(t *testing.T) {
	fetcher := fetchFunc(func(ctx context.Context, url string) (string, error) {
		return "", errors.New("down")
	})

	m := NewAggregator(fetcher, time.Second, nil).Enrich(context.Background(), resultSet(3))

	require.Len(t, m, 3)
	for _, rec := range m {
		assert.Equal(t, FetchFailed, rec.Description)
	}
}

func TestEnrich_DuplicateTitlesLastWins(t *testing.T) {
	rs := search.ResultSet{
		{Title: "Same", URL: "first"},
		{Title: "Other", URL: "other"},
		{Title: "Same", URL: "second"},
	}
	// The earlier duplicate settles last; rank order still decides.
	fetcher := fetchFunc(func(ctx context.Context, url string) (string, error) {
		if url == "first" {
			time.Sleep(30 * time.Millisecond)
		}
		return "body of " + url, nil
	})

	m := NewAggregator(fetcher, time.Second, nil).Enrich(context.Background(), rs)

	require.Len(t, m, 2)
	assert.Equal(t, Record{Title: "Same", URL: "second", Description: "body of second"}, m["Same"])
}

func TestEnrich_FetchesRunConcurrently(t *testing.T) {
	const n = search.MaxResults
	var started sync.WaitGroup
	started.Add(n)
	allStarted := make(chan struct{})
	go func() {
		started.Wait()
		close(allStarted)
	}()

	fetcher := fetchFunc(func(ctx context.Context, url string) (string, error) {
		started.Done()
		select {
		case <-allStarted:
			return "ok", nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	})

	m := NewAggregator(fetcher, 2*time.Second, nil).Enrich(context.Background(), resultSet(n))

	require.Len(t, m, n)
	for _, rec := range m {
		assert.Equal(t, "ok", rec.Description)
	}
}

func TestEnrich_WaitsForSlowFetches(t *testing.T) {
	var settled int32
	fetcher := fetchFunc(func(ctx context.Context, url string) (string, error) {
		defer atomic.AddInt32(&settled, 1)
		if url == "u0" {
			return "", errors.New("fast failure")
		}
		time.Sleep(40 * time.Millisecond)
		return "slow", nil
	})

	m := NewAggregator(fetcher, time.Second, nil).Enrich(context.Background(), resultSet(4))

	assert.Equal(t, int32(4), atomic.LoadInt32(&settled))
	assert.Equal(t, FetchFailed, m["T0"].Description)
	assert.Equal(t, "slow", m["T3"].Description)
}

func TestEnrich_TimeoutIsFailure(t *testing.T) {
	fetcher := fetchFunc(func(ctx context.Context, url string) (string, error) {
		if url == "u1" {
			<-ctx.Done()
			return "", ctx.Err()
		}
		return "quick", nil
	})

	start := time.Now()
	m := NewAggregator(fetcher, 50*time.Millisecond, nil).Enrich(context.Background(), resultSet(2))

	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, "quick", m["T0"].Description)
	assert.Equal(t, FetchFailed, m["T1"].Description)
}

func TestEnrich_WithScrapeClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		switch string(body) {
		case `{"query":"https://a.test"}`:
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `"snippet a"`)
		case `{"query":"https://b.test"}`:
			w.WriteHeader(http.StatusOK)
		default:
			http.Error(w, "scrape failed", http.StatusBadGateway)
		}
	}))
	defer srv.Close()

	rs := search.ResultSet{
		{Title: "A", URL: "https://a.test"},
		{Title: "B", URL: "https://b.test"},
		{Title: "C", URL: "https://c.test"},
	}
	a := NewAggregator(client.NewScrapeClient(srv.URL, srv.Client()), time.Second, zaptest.NewLogger(t))

	m := a.Enrich(context.Background(), rs)

	assert.Equal(t, []Record{
		{Title: "A", URL: "https://a.test", Description: "snippet a"},
		{Title: "B", URL: "https://b.test", Description: NoContent},
		{Title: "C", URL: "https://c.test", Description: FetchFailed},
	}, Ordered(rs, m))
}

func TestOrdered(t *testing.T) {
	rs := search.ResultSet{
		{Title: "B", URL: "ub"},
		{Title: "A", URL: "ua"},
	}

	assert.Equal(t, []Record{
		{Title: "B", URL: "ub", Description: "b"},
		{Title: "A", URL: "ua"},
	}, Ordered(rs, Map{"B": {Title: "B", URL: "ub", Description: "b"}}))

	assert.Empty(t, Ordered(nil, Map{}))
}

func TestItemError(t *testing.T) {
	cause := errors.New("timeout")
	err := &ItemError{Title: "T", URL: "u", Err: cause}

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), `"T"`)
}

func TestOutcomeTracker(t *testing.T) {
	tracker := NewOutcomeTracker()
	var wg sync.WaitGroup
	for i := range 30 {
		wg.Add(1)
		go func(o Outcome) {
			defer wg.Done()
			tracker.Record(o)
		}(Outcome(i % 3))
	}
	wg.Wait()

	assert.Equal(t, 10, tracker.Count(OutcomeFetched))
	assert.Equal(t, 10, tracker.Count(OutcomeEmpty))
	assert.Equal(t, 10, tracker.Count(OutcomeFailed))
	assert.Equal(t, 30, tracker.Total())
	assert.Equal(t, "failed", OutcomeFailed.String())
}
