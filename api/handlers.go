package api

import (
	"encoding/json"
	"net/http"

	"websift/search"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"go.uber.org/zap"
)

// maxQueryLength bounds accepted query text.
const maxQueryLength = 2048

type SubmitRequest struct {
	Query string `json:"query"`
}

func (r SubmitRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Query, validation.RuneLength(0, maxQueryLength)),
	)
}

type SubmitResponse struct {
	Generation uint64 `json:"generation"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// SubmitHandler starts a search and answers without waiting for it. A blank
// query is accepted and ignored.
func (s *Server) SubmitHandler(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON"})
		return
	}
	if err := req.Validate(); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	run := s.session.Submit(r.Context(), search.Query(req.Query))
	if run == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	s.writeJSON(w, http.StatusAccepted, SubmitResponse{Generation: run.Generation})
}

// SearchHandler runs a search for ?q= and returns the settled snapshot. A
// client that goes away stops the wait but not the search.
func (s *Server) SearchHandler(w http.ResponseWriter, r *http.Request) {
	req := SubmitRequest{Query: r.URL.Query().Get("q")}
	if err := req.Validate(); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	snap := s.session.Search(r.Context(), search.Query(req.Query))
	s.writeJSON(w, http.StatusOK, snap)
}

// ResultsHandler returns the current snapshot.
func (s *Server) ResultsHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.session.Snapshot())
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
	}
}
