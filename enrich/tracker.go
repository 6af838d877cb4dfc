package enrich

import "sync"

type Outcome int

const (
	OutcomeFetched Outcome = iota
	OutcomeEmpty
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeFetched:
		return "fetched"
	case OutcomeEmpty:
		return "empty"
	case OutcomeFailed:
		return "failed"
	}
	return "unknown"
}

// OutcomeTracker counts how the fetches of one enrichment settled.
type OutcomeTracker struct {
	counts map[Outcome]int
	mutex  sync.RWMutex
}

func NewOutcomeTracker() *OutcomeTracker {
	return &OutcomeTracker{
		counts: make(map[Outcome]int),
	}
}

// Record records one settled fetch.
func (t *OutcomeTracker) Record(o Outcome) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	t.counts[o]++
}

// Count returns the number of fetches that settled with o.
func (t *OutcomeTracker) Count(o Outcome) int {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	return t.counts[o]
}

// Total returns the number of settled fetches.
func (t *OutcomeTracker) Total() int {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	total := 0
	for _, n := range t.counts {
		total += n
	}
	return total
}
