package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/andres/talent-tracker/internal/db"
)

func (s *Server) candidateID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid candidate ID")
		return uuid.Nil, false
	}
	return id, true
}

func (s *Server) handleGetCandidate(w http.ResponseWriter, r *http.Request) {
	id, ok := s.candidateID(w, r)
	if !ok {
		return
	}

	candidate, err := s.store.GetCandidate(r.Context(), id)
	if err != nil {
		s.serviceError(w, err)
		return
	}
	if candidate == nil {
		s.errorResponse(w, http.StatusNotFound, "Candidate not found")
		return
	}

	s.jsonResponse(w, http.StatusOK, candidate)
}

func (s *Server) handleSetCandidateStage(w http.ResponseWriter, r *http.Request) {
	id, ok := s.candidateID(w, r)
	if !ok {
		return
	}

	var req StageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.store.SetCandidateStage(r.Context(), id, req.VacancyID, req.Stage); err != nil {
		s.serviceError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{"success": true, "stage": req.Stage})
}

func (s *Server) handleStageHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := s.candidateID(w, r)
	if !ok {
		return
	}

	history, err := s.store.ListStageHistory(r.Context(), id)
	if err != nil {
		s.serviceError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{"history": history})
}

func (s *Server) handleLogActivity(w http.ResponseWriter, r *http.Request) {
	id, ok := s.candidateID(w, r)
	if !ok {
		return
	}

	var req ActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	entryID, err := s.activity.Log(r.Context(), &db.ActivityEntry{
		CandidateID: id,
		Type:        req.Type,
		Description: req.Description,
		RelatedID:   req.RelatedID,
		Metadata:    req.Metadata,
	})
	if err != nil {
		s.serviceError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusCreated, map[string]string{"id": entryID.String()})
}

func (s *Server) handleListActivity(w http.ResponseWriter, r *http.Request) {
	id, ok := s.candidateID(w, r)
	if !ok {
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, _ = strconv.Atoi(v)
	}

	entries, err := s.activity.Recent(r.Context(), id, limit)
	if err != nil {
		s.serviceError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{"activity": entries})
}
