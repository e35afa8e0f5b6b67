// Package transport serves the graph store contracts over HTTP: bundle
// writes, partial replaces, deletions, neighbor search, and record reads.
package transport

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"casegraph/internal/graph"
)

// Server wires HTTP handlers around a graph store.
type Server struct {
	store graph.Store
}

// NewServer creates an HTTP router with middleware.
func NewServer(store graph.Store, authMiddleware func(http.Handler) http.Handler) *chi.Mux {
	r := chi.NewRouter()

	srv := &Server{store: store}

	r.Get("/health", srv.handleHealth)

	r.Group(func(r chi.Router) {
		if authMiddleware != nil {
			r.Use(authMiddleware)
		}
		r.Post("/api/data/graph", srv.handleSubmitGraph)
		r.Patch("/api/data/partial", srv.handlePartialReplace)
		r.Post("/api/data/delete", srv.handleDelete)
		r.Post("/api/search/neighbors", srv.handleNeighborSearch)
		r.Get("/api/data/{collection}/{record}", srv.handleGetRecord)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

type graphWriteRequest struct {
	EntityData      graph.EntityBundle      `json:"entityData"`
	AssociationData graph.AssociationBundle `json:"associationData"`
}

func (s *Server) handleSubmitGraph(w http.ResponseWriter, r *http.Request) {
	var req graphWriteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	result, err := s.store.SubmitGraph(r.Context(), req.EntityData, req.AssociationData)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, result)
}

type partialReplaceRequest struct {
	EntityData graph.ReplaceBundle `json:"entityData"`
}

func (s *Server) handlePartialReplace(w http.ResponseWriter, r *http.Request) {
	var req partialReplaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := s.store.SubmitPartialReplace(r.Context(), req.EntityData); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	var specs []graph.DeletionSpec
	if err := json.NewDecoder(r.Body).Decode(&specs); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := s.store.DeleteRecords(r.Context(), specs); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

type neighborSearchRequest struct {
	EntitySetID graph.CollectionID   `json:"entitySetId"`
	Filter      graph.NeighborFilter `json:"filter"`
}

func (s *Server) handleNeighborSearch(w http.ResponseWriter, r *http.Request) {
	var req neighborSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	result, err := s.store.QueryNeighbors(r.Context(), req.EntitySetID, req.Filter)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, result)
}

func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	collection := graph.CollectionID(chi.URLParam(r, "collection"))
	recordID := graph.RecordID(chi.URLParam(r, "record"))

	record, err := s.store.GetRecord(r.Context(), collection, recordID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, record)
}

func writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, graph.ErrRecordNotFound) {
		http.Error(w, "record not found", http.StatusNotFound)
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(v)
}
