package session

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"

	"websift/enrich"
	"websift/search"

	"go.uber.org/zap"
)

// Dispatcher turns a query into a ranked result set.
type Dispatcher interface {
	Dispatch(ctx context.Context, query search.Query) (search.ResultSet, error)
}

// Enricher fetches a description for every result in a set.
type Enricher interface {
	Enrich(ctx context.Context, rs search.ResultSet) enrich.Map
}

// Session drives one search at a time through the state machine. A new
// submission supersedes whatever is in flight; results belonging to an older
// generation are dropped when they arrive.
type Session struct {
	dispatcher Dispatcher
	enricher   Enricher
	logger     *zap.Logger
	observer   func(Snapshot)

	mu      sync.Mutex
	current Snapshot
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Option configures a Session.
type Option func(*Session)

// WithObserver registers fn to receive every committed snapshot, in commit
// order. fn runs with the session locked and must not call back into it.
func WithObserver(fn func(Snapshot)) Option {
	return func(s *Session) {
		s.observer = fn
	}
}

// New creates a new Session in the Idle state.
func New(dispatcher Dispatcher, enricher Enricher, logger *zap.Logger, opts ...Option) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Session{
		dispatcher: dispatcher,
		enricher:   enricher,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run is a handle on one submitted search.
type Run struct {
	Generation uint64
	done       chan struct{}
}

// Done is closed when the run has finished, whether or not its results were
// kept.
func (r *Run) Done() <-chan struct{} {
	return r.done
}

// Submit starts a search for query and returns immediately. Blank queries
// are ignored and return nil. Any previous run is cancelled, and the
// session enters Searching with its results cleared.
//
// The run keeps ctx's values but not its cancellation: it ends only when it
// completes, is superseded, or Cancel is called.
func (s *Session) Submit(ctx context.Context, query search.Query) *Run {
	if query.Blank() {
		return nil
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.cancel = cancel
	gen := s.current.Generation + 1
	s.current = Snapshot{
		Generation: gen,
		Query:      query,
		State:      Searching,
	}
	s.notifyLocked()
	s.mu.Unlock()

	run := &Run{Generation: gen, done: make(chan struct{})}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(run.done)
		defer cancel()
		s.run(runCtx, gen, query)
	}()
	return run
}

// Search submits query and waits for it to finish, then returns the current
// snapshot. If another search superseded it meanwhile, that search's state
// is returned. If ctx is done first, Search stops waiting and returns the
// snapshot as it stands; the run itself carries on.
func (s *Session) Search(ctx context.Context, query search.Query) Snapshot {
	run := s.Submit(ctx, query)
	if run == nil {
		return s.Snapshot()
	}

	select {
	case <-run.Done():
	case <-ctx.Done():
	}
	return s.Snapshot()
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyLocked()
}

// Cancel aborts the run in flight, if any. An aborted run settles to Idle
// with its results cleared.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
}

// Wait blocks until every submitted run has finished.
func (s *Session) Wait() {
	s.wg.Wait()
}

func (s *Session) run(ctx context.Context, gen uint64, query search.Query) {
	ctx = WithSearch(ctx, gen)
	logger := ContextLogger(ctx, s.logger)
	logger.Info("Search started", zap.String("query", string(query)))

	rs, err := s.dispatcher.Dispatch(ctx, query)
	switch {
	case ctx.Err() != nil:
		s.abort(gen, logger)
		return
	case errors.Is(err, search.ErrEmptyQuery):
		s.commit(gen, logger, func(snap *Snapshot) {
			snap.State = Idle
		})
		return
	case errors.Is(err, search.ErrNoResults):
		s.commit(gen, logger, func(snap *Snapshot) {
			snap.State = Empty
		})
		return
	case err != nil:
		s.commit(gen, logger, func(snap *Snapshot) {
			snap.State = Failed
			snap.Err = err
		})
		return
	}

	ok := s.commit(gen, logger, func(snap *Snapshot) {
		snap.State = Enriching
		snap.Results = rs
		snap.Records = enrich.Map{}
	})
	if !ok {
		return
	}

	records := s.enricher.Enrich(ctx, rs)
	if ctx.Err() != nil {
		s.abort(gen, logger)
		return
	}

	s.commit(gen, logger, func(snap *Snapshot) {
		snap.State = Ready
		snap.Records = records
	})
}

// abort resets the session to Idle after Cancel stopped run gen. A
// superseded run leaves the newer generation alone.
func (s *Session) abort(gen uint64, logger *zap.Logger) {
	logger.Info("Search cancelled")
	s.commit(gen, logger, func(snap *Snapshot) {
		snap.State = Idle
		snap.Results = nil
		snap.Records = nil
		snap.Err = nil
	})
}

// commit applies fn if gen is still the current generation.
func (s *Session) commit(gen uint64, logger *zap.Logger, fn func(*Snapshot)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current.Generation != gen {
		logger.Info("Discarding stale search result",
			zap.Uint64("current_generation", s.current.Generation))
		return false
	}

	fn(&s.current)
	logger.Debug("Session state changed", zap.Stringer("state", s.current.State))
	s.notifyLocked()
	return true
}

func (s *Session) notifyLocked() {
	if s.observer != nil {
		s.observer(s.copyLocked())
	}
}

func (s *Session) copyLocked() Snapshot {
	snap := s.current
	snap.Results = slices.Clone(s.current.Results)
	snap.Records = maps.Clone(s.current.Records)
	return snap
}
