package session

import (
	"encoding/json"
	"fmt"

	"websift/enrich"
	"websift/search"
)

// State is the phase of the current search.
type State int

const (
	Idle State = iota
	Searching
	Empty
	Enriching
	Ready
	Failed
)

var stateNames = map[State]string{
	Idle:      "idle",
	Searching: "searching",
	Empty:     "empty",
	Enriching: "enriching",
	Ready:     "ready",
	Failed:    "failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Terminal reports whether no further transition happens for the query.
func (s State) Terminal() bool {
	return s == Empty || s == Ready || s == Failed
}

// Loading reports whether a query is in flight.
func (s State) Loading() bool {
	return s == Searching || s == Enriching
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// User-facing messages per state.
const (
	MsgIdle      = "No results to display."
	MsgLoading   = "Loading..."
	MsgNoResults = "No results found."
	MsgFailed    = "Error fetching results."
)

// Snapshot is a read-only copy of the session for the rendering layer.
type Snapshot struct {
	Generation uint64
	Query      search.Query
	State      State
	Results    search.ResultSet
	Records    enrich.Map
	Err        error
}

// Message is the status line shown for the snapshot's state.
func (s Snapshot) Message() string {
	switch s.State {
	case Searching, Enriching:
		return MsgLoading
	case Empty:
		return MsgNoResults
	case Failed:
		return MsgFailed
	case Ready:
		return ""
	}
	return MsgIdle
}

// Ordered returns the records in rank order. While enriching, descriptions
// are empty.
func (s Snapshot) Ordered() []enrich.Record {
	return enrich.Ordered(s.Results, s.Records)
}

func (s Snapshot) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Generation uint64          `json:"generation"`
		Query      string          `json:"query"`
		State      State           `json:"state"`
		Message    string          `json:"message,omitempty"`
		Results    []enrich.Record `json:"results"`
	}{
		Generation: s.Generation,
		Query:      string(s.Query),
		State:      s.State,
		Message:    s.Message(),
		Results:    s.Ordered(),
	})
}
