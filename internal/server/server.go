// Package server provides the HTTP REST API for the talent tracker.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/andres/talent-tracker/internal/application"
	"github.com/andres/talent-tracker/internal/db"
	"github.com/andres/talent-tracker/internal/server/ratelimit"
	"github.com/andres/talent-tracker/internal/sourcing"
	"github.com/andres/talent-tracker/internal/tracking"
)

// Applications is the application-pipeline surface the handlers call.
type Applications interface {
	Apply(ctx context.Context, vacancyID uuid.UUID, input application.ApplyInput) (*application.ApplyResult, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string, note *string) error
}

// Tracker is the public tracking-link surface.
type Tracker interface {
	Status(ctx context.Context, token string) (*tracking.StatusView, error)
	SubmitFeedback(ctx context.Context, token string, fb tracking.Feedback) error
	MarkNotificationRead(ctx context.Context, id uuid.UUID) error
}

// Campaigns is the sourcing-campaign surface.
type Campaigns interface {
	CreateCampaign(ctx context.Context, input sourcing.CreateInput) (*db.SourcingCampaign, error)
	Run(ctx context.Context, campaignID uuid.UUID) (*sourcing.RunStats, error)
	Pause(ctx context.Context, campaignID uuid.UUID) error
	Resume(ctx context.Context, campaignID uuid.UUID) error
	Candidates(ctx context.Context, campaignID uuid.UUID, limit int) ([]db.SourcedCandidate, error)
}

// Activity is the candidate activity-log surface.
type Activity interface {
	Log(ctx context.Context, e *db.ActivityEntry) (uuid.UUID, error)
	Recent(ctx context.Context, candidateID uuid.UUID, limit int) ([]db.ActivityEntry, error)
}

// Store covers the CRUD reads and writes the handlers issue directly.
type Store interface {
	CreateVacancy(ctx context.Context, v *db.Vacancy) (uuid.UUID, error)
	GetVacancy(ctx context.Context, id uuid.UUID) (*db.Vacancy, error)
	ListVacancies(ctx context.Context, status string, limit int) ([]db.Vacancy, error)
	UpdateVacancy(ctx context.Context, v *db.Vacancy) error
	CloseVacancy(ctx context.Context, id uuid.UUID) error
	ListApplicationsByVacancy(ctx context.Context, vacancyID uuid.UUID, limit int) ([]db.Application, error)
	GetCandidate(ctx context.Context, id uuid.UUID) (*db.Candidate, error)
	SetCandidateStage(ctx context.Context, candidateID, vacancyID uuid.UUID, stage string) error
	ListStageHistory(ctx context.Context, candidateID uuid.UUID) ([]db.StageInterval, error)
	ListNotifications(ctx context.Context, userType string, userID uuid.UUID, unreadOnly bool) ([]db.Notification, error)
}

// Deps bundles the collaborators a Server needs.
type Deps struct {
	Store        Store
	Applications Applications
	Tracker      Tracker
	Campaigns    Campaigns
	Activity     Activity
	Logger       *zap.Logger

	RatePerSecond float64
	RateBurst     int
}

// Server is the HTTP front end.
type Server struct {
	httpServer  *http.Server
	store       Store
	apps        Applications
	tracker     Tracker
	campaigns   Campaigns
	activity    Activity
	logger      *zap.Logger
	rateLimiter *ratelimit.Limiter
	handler     http.Handler
}

// New wires the routes. The caller owns the lifecycle of every
// dependency except the rate limiter.
func New(deps Deps) *Server {
	s := &Server{
		store:       deps.Store,
		apps:        deps.Applications,
		tracker:     deps.Tracker,
		campaigns:   deps.Campaigns,
		activity:    deps.Activity,
		logger:      deps.Logger,
		rateLimiter: ratelimit.New(deps.RatePerSecond, deps.RateBurst),
	}

	mux := http.NewServeMux()

	// Public application flow
	mux.HandleFunc("POST /applications/apply", s.handleApply)
	mux.HandleFunc("PUT /applications/{id}/status", s.handleUpdateStatus)

	// Public tracking page (bearer token in the path)
	mux.HandleFunc("GET /tracking/{token}", s.handleTrackingStatus)
	mux.HandleFunc("POST /tracking/{token}/feedback", s.handleTrackingFeedback)

	// Sourcing campaigns
	mux.HandleFunc("POST /sourcing/campaigns", s.handleCreateCampaign)
	mux.HandleFunc("POST /sourcing/campaigns/{id}/run", s.handleRunCampaign)
	mux.HandleFunc("POST /sourcing/campaigns/{id}/pause", s.handlePauseCampaign)
	mux.HandleFunc("POST /sourcing/campaigns/{id}/resume", s.handleResumeCampaign)
	mux.HandleFunc("GET /sourcing/campaigns/{id}/candidates", s.handleCampaignCandidates)

	// Vacancies
	mux.HandleFunc("POST /vacancies", s.handleCreateVacancy)
	mux.HandleFunc("GET /vacancies", s.handleListVacancies)
	mux.HandleFunc("GET /vacancies/{id}", s.handleGetVacancy)
	mux.HandleFunc("PUT /vacancies/{id}", s.handleUpdateVacancy)
	mux.HandleFunc("POST /vacancies/{id}/close", s.handleCloseVacancy)
	mux.HandleFunc("GET /vacancies/{id}/applications", s.handleVacancyApplications)
	mux.HandleFunc("GET /portal/vacancies", s.handlePortalVacancies)

	// Candidates
	mux.HandleFunc("GET /candidates/{id}", s.handleGetCandidate)
	mux.HandleFunc("PUT /candidates/{id}/stage", s.handleSetCandidateStage)
	mux.HandleFunc("GET /candidates/{id}/stage-history", s.handleStageHistory)
	mux.HandleFunc("GET /candidates/{id}/activity", s.handleListActivity)
	mux.HandleFunc("POST /candidates/{id}/activity", s.handleLogActivity)

	// Notifications
	mux.HandleFunc("POST /notifications/{id}/read", s.handleMarkNotificationRead)
	mux.HandleFunc("GET /users/{id}/notifications", s.handleListNotifications)

	mux.HandleFunc("GET /health", s.handleHealth)

	s.handler = s.withLogging(s.withCORS(s.withRateLimit(mux)))
	return s
}

// Handler exposes the middleware-wrapped mux, mainly for tests.
func (s *Server) Handler() http.Handler { return s.handler }

// Start serves on the given port until SIGINT/SIGTERM, then drains.
func (s *Server) Start(port int) error {
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-stop:
	}

	s.logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.rateLimiter.Stop()
	s.logger.Info("server stopped")
	return nil
}

// withCORS adds CORS headers.
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withRateLimit throttles the public tracking endpoints per client IP.
// The token is a bearer credential, so brute-force probing has to stay
// expensive.
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/tracking/") {
			next.ServeHTTP(w, r)
			return
		}

		info := s.rateLimiter.Allow(clientIP(r))
		if !info.Allowed {
			w.Header().Set("Retry-After", fmt.Sprintf("%d", int(info.RetryAfter.Seconds())+1))
			s.errorResponse(w, http.StatusTooManyRequests, "Too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withLogging adds request logging.
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("remote", r.RemoteAddr),
			zap.Duration("elapsed", time.Since(start)))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response.
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

// errorResponse writes an error JSON response.
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// serviceError maps service sentinels onto HTTP statuses. Anything
// unmapped is an unexpected failure and surfaces as a 500 with the raw
// message for operator visibility.
func (s *Server) serviceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, application.ErrVacancyNotFound),
		errors.Is(err, application.ErrApplicationNotFound),
		errors.Is(err, sourcing.ErrCampaignNotFound),
		errors.Is(err, sourcing.ErrVacancyNotFound):
		s.errorResponse(w, http.StatusNotFound, err.Error())
	case errors.Is(err, tracking.ErrLinkInvalid):
		s.errorResponse(w, http.StatusNotFound, err.Error())
	case errors.Is(err, tracking.ErrNoFeedbackFields),
		errors.Is(err, application.ErrInvalidTransition):
		s.errorResponse(w, http.StatusBadRequest, err.Error())
	default:
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
	}
}

func clientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
