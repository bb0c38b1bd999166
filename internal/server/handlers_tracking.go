package server

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/andres/talent-tracker/internal/tracking"
)

func (s *Server) handleTrackingStatus(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")
	if token == "" {
		s.errorResponse(w, http.StatusBadRequest, "Missing tracking token")
		return
	}

	view, err := s.tracker.Status(r.Context(), token)
	if err != nil {
		s.serviceError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, view)
}

func (s *Server) handleTrackingFeedback(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")
	if token == "" {
		s.errorResponse(w, http.StatusBadRequest, "Missing tracking token")
		return
	}

	var req FeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	err := s.tracker.SubmitFeedback(r.Context(), token, tracking.Feedback{
		Notes:    req.Notes,
		Rating:   req.Rating,
		Feedback: req.Feedback,
	})
	if err != nil {
		s.serviceError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleMarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid notification ID")
		return
	}

	if err := s.tracker.MarkNotificationRead(r.Context(), id); err != nil {
		s.serviceError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	userType := r.URL.Query().Get("user_type")
	if userType == "" {
		s.errorResponse(w, http.StatusBadRequest, "user_type query parameter is required")
		return
	}
	unreadOnly := r.URL.Query().Get("unread") == "true"

	notifications, err := s.store.ListNotifications(r.Context(), userType, id, unreadOnly)
	if err != nil {
		s.serviceError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{"notifications": notifications})
}
