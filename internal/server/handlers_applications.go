package server

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/andres/talent-tracker/internal/application"
)

func (s *Server) handleApply(w http.ResponseWriter, r *http.Request) {
	var req ApplyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.apps.Apply(r.Context(), req.VacancyID, application.ApplyInput{
		Name:           req.Name,
		Email:          req.Email,
		Phone:          req.Phone,
		Title:          req.Title,
		Years:          req.Years,
		Availability:   req.Availability,
		ExpectedSalary: req.ExpectedSalary,
	})
	if err != nil {
		s.serviceError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusCreated, map[string]any{
		"success":        true,
		"application_id": result.ApplicationID,
		"candidate_id":   result.CandidateID,
		"match_score":    result.MatchScore,
		"tracking_url":   result.TrackingURL,
		"message":        result.Message,
	})
}

func (s *Server) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid application ID")
		return
	}

	var req StatusUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.apps.UpdateStatus(r.Context(), id, req.Status, req.Note); err != nil {
		s.serviceError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{"success": true, "status": req.Status})
}
