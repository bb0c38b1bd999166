package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/andres/talent-tracker/internal/db"
)

func (s *Server) handleCreateVacancy(w http.ResponseWriter, r *http.Request) {
	var req VacancyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := s.store.CreateVacancy(r.Context(), &db.Vacancy{
		Title:         req.Title,
		RecruiterID:   req.RecruiterID,
		RequiredYears: req.RequiredYears,
		SalaryMin:     req.SalaryMin,
		SalaryMax:     req.SalaryMax,
		Status:        db.VacancyOpen,
	})
	if err != nil {
		s.serviceError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusCreated, map[string]string{"id": id.String()})
}

func (s *Server) handleListVacancies(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, _ = strconv.Atoi(v)
	}

	vacancies, err := s.store.ListVacancies(r.Context(), r.URL.Query().Get("status"), limit)
	if err != nil {
		s.serviceError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{"vacancies": vacancies})
}

// handlePortalVacancies is the public job-board listing: open vacancies
// only, regardless of query parameters.
func (s *Server) handlePortalVacancies(w http.ResponseWriter, r *http.Request) {
	vacancies, err := s.store.ListVacancies(r.Context(), db.VacancyOpen, 0)
	if err != nil {
		s.serviceError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{"vacancies": vacancies})
}

func (s *Server) handleGetVacancy(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid vacancy ID")
		return
	}

	vacancy, err := s.store.GetVacancy(r.Context(), id)
	if err != nil {
		s.serviceError(w, err)
		return
	}
	if vacancy == nil {
		s.errorResponse(w, http.StatusNotFound, "Vacancy not found")
		return
	}

	s.jsonResponse(w, http.StatusOK, vacancy)
}

func (s *Server) handleUpdateVacancy(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid vacancy ID")
		return
	}

	var req VacancyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	existing, err := s.store.GetVacancy(r.Context(), id)
	if err != nil {
		s.serviceError(w, err)
		return
	}
	if existing == nil {
		s.errorResponse(w, http.StatusNotFound, "Vacancy not found")
		return
	}

	existing.Title = req.Title
	existing.RecruiterID = req.RecruiterID
	existing.RequiredYears = req.RequiredYears
	existing.SalaryMin = req.SalaryMin
	existing.SalaryMax = req.SalaryMax

	if err := s.store.UpdateVacancy(r.Context(), existing); err != nil {
		s.serviceError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, existing)
}

func (s *Server) handleCloseVacancy(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid vacancy ID")
		return
	}

	if err := s.store.CloseVacancy(r.Context(), id); err != nil {
		s.serviceError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleVacancyApplications(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid vacancy ID")
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, _ = strconv.Atoi(v)
	}

	applications, err := s.store.ListApplicationsByVacancy(r.Context(), id, limit)
	if err != nil {
		s.serviceError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{"applications": applications})
}
