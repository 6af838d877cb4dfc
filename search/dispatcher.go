package search

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Dispatcher sends a query to an Engine and trims the answer to a ResultSet.
type Dispatcher struct {
	engine  Engine
	timeout time.Duration
	logger  *zap.Logger
}

// NewDispatcher creates a dispatcher. A zero timeout leaves the request
// bounded only by ctx.
func NewDispatcher(engine Engine, timeout time.Duration, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		engine:  engine,
		timeout: timeout,
		logger:  logger,
	}
}

// Dispatch performs one search request for query.
//
// It returns ErrEmptyQuery for blank input without contacting the engine,
// ErrNoResults when the engine answers with an empty list, and a
// *RequestError for any transport or protocol failure. Otherwise the first
// MaxResults entries are returned in received order.
func (d *Dispatcher) Dispatch(ctx context.Context, query Query) (ResultSet, error) {
	if query.Blank() {
		return nil, ErrEmptyQuery
	}

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	start := time.Now()
	results, err := d.engine.Search(ctx, &SearchRequest{Query: query})
	if err != nil {
		d.logger.Error("Search request failed",
			zap.String("query", string(query)),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return nil, &RequestError{Query: query, Err: err}
	}

	if len(results) == 0 {
		d.logger.Info("Search returned no results", zap.String("query", string(query)))
		return nil, ErrNoResults
	}

	received := len(results)
	if received > MaxResults {
		results = results[:MaxResults]
	}

	d.logger.Info("Search completed",
		zap.String("query", string(query)),
		zap.Int("received", received),
		zap.Int("kept", len(results)),
		zap.Duration("elapsed", time.Since(start)))

	rs := make(ResultSet, len(results))
	copy(rs, results)
	return rs, nil
}
