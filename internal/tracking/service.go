// Package tracking issues token-gated public views into applications and
// delivers candidate notifications.
package tracking

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/andres/talent-tracker/internal/db"
)

// Sentinel errors surfaced to handlers.
var (
	ErrLinkInvalid      = errors.New("tracking link invalid or expired")
	ErrNoFeedbackFields = errors.New("at least one feedback field is required")
)

// DefaultTTL is the fixed lifetime of a tracking link.
const DefaultTTL = 90 * 24 * time.Hour

const tokenBytes = 16

// Store is the persistence surface the service needs.
type Store interface {
	GetTrackingLinkByApplication(ctx context.Context, applicationID uuid.UUID) (*db.TrackingLink, error)
	CreateTrackingLink(ctx context.Context, l *db.TrackingLink) (uuid.UUID, error)
	GetActiveTrackingLink(ctx context.Context, token string) (*db.TrackingLink, error)
	RecordLinkView(ctx context.Context, id uuid.UUID, when time.Time) (int, error)
	GetApplication(ctx context.Context, id uuid.UUID) (*db.Application, error)
	GetVacancy(ctx context.Context, id uuid.UUID) (*db.Vacancy, error)
	MarkApplicationLinkSent(ctx context.Context, id uuid.UUID) error
	MarkApplicationViewed(ctx context.Context, id uuid.UUID, when time.Time) error
	UpdateApplicationFeedback(ctx context.Context, id uuid.UUID, notes *string, rating *int, feedback *string) error
	CreateNotification(ctx context.Context, n *db.Notification) (uuid.UUID, error)
	MarkNotificationRead(ctx context.Context, id uuid.UUID) error
	ListNotifications(ctx context.Context, userType string, userID uuid.UUID, unreadOnly bool) ([]db.Notification, error)
}

// Service implements tracking-link and notification operations.
type Service struct {
	store   Store
	logger  *zap.Logger
	baseURL string
	ttl     time.Duration
	now     func() time.Time
}

// New creates a tracking service. baseURL is the public origin used to
// compose tracking URLs.
func New(store Store, logger *zap.Logger, baseURL string, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{
		store:   store,
		logger:  logger,
		baseURL: baseURL,
		ttl:     ttl,
		now:     time.Now,
	}
}

// CreatedLink is the result of CreateLink.
type CreatedLink struct {
	Token string `json:"token"`
	URL   string `json:"url"`
}

// TimelineEntry is one step of the public status timeline.
type TimelineEntry struct {
	Status  string    `json:"status"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// StatusView is the public tracking page payload.
type StatusView struct {
	Application   ApplicationSummary `json:"application"`
	Vacancy       VacancySummary     `json:"vacancy"`
	Timeline      []TimelineEntry    `json:"timeline"`
	Notifications []db.Notification  `json:"notifications"`
	Views         int                `json:"views_count"`
}

// ApplicationSummary is the candidate-safe projection of an application.
type ApplicationSummary struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Status      string    `json:"status"`
	MatchScore  int       `json:"match_score"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// VacancySummary is the candidate-safe projection of a vacancy.
type VacancySummary struct {
	ID     uuid.UUID `json:"id"`
	Title  string    `json:"title"`
	Status string    `json:"status"`
}

// CreateLink issues the tracking link for an application. Idempotent: an
// existing link is returned unchanged.
func (s *Service) CreateLink(ctx context.Context, applicationID uuid.UUID, email string) (*CreatedLink, error) {
	existing, err := s.store.GetTrackingLinkByApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &CreatedLink{Token: existing.Token, URL: s.linkURL(existing.Token)}, nil
	}

	token, err := newToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate tracking token: %w", err)
	}

	link := &db.TrackingLink{
		ApplicationID: applicationID,
		Token:         token,
		Email:         email,
		ExpiresAt:     s.now().Add(s.ttl),
	}
	if _, err := s.store.CreateTrackingLink(ctx, link); err != nil {
		return nil, err
	}

	if err := s.store.MarkApplicationLinkSent(ctx, applicationID); err != nil {
		s.logger.Warn("failed to flag application link_sent",
			zap.String("application_id", applicationID.String()),
			zap.Error(err))
	}

	return &CreatedLink{Token: token, URL: s.linkURL(token)}, nil
}

// Status resolves an unexpired token and returns the public view. Reading
// is deliberately a write too: the view counter and last-viewed timestamps
// track candidate engagement.
func (s *Service) Status(ctx context.Context, token string) (*StatusView, error) {
	link, err := s.store.GetActiveTrackingLink(ctx, token)
	if err != nil {
		return nil, err
	}
	if link == nil {
		return nil, ErrLinkInvalid
	}

	now := s.now()
	views, err := s.store.RecordLinkView(ctx, link.ID, now)
	if err != nil {
		s.logger.Warn("failed to record link view", zap.Error(err))
		views = link.Views + 1
	}
	if err := s.store.MarkApplicationViewed(ctx, link.ApplicationID, now); err != nil {
		s.logger.Warn("failed to stamp candidate view", zap.Error(err))
	}

	app, err := s.store.GetApplication(ctx, link.ApplicationID)
	if err != nil {
		return nil, err
	}
	if app == nil {
		return nil, ErrLinkInvalid
	}

	vacancy, err := s.store.GetVacancy(ctx, app.VacancyID)
	if err != nil {
		return nil, err
	}

	view := &StatusView{
		Application: ApplicationSummary{
			ID:          app.ID,
			Name:        app.Name,
			Status:      app.Status,
			MatchScore:  app.MatchScore,
			SubmittedAt: app.SubmittedAt,
		},
		Timeline: buildTimeline(app),
		Views:    views,
	}
	if vacancy != nil {
		view.Vacancy = VacancySummary{ID: vacancy.ID, Title: vacancy.Title, Status: vacancy.Status}
	}

	if app.CandidateID != nil {
		notifications, err := s.store.ListNotifications(ctx, db.UserTypeCandidate, *app.CandidateID, true)
		if err != nil {
			s.logger.Warn("failed to list candidate notifications", zap.Error(err))
		} else {
			view.Notifications = notifications
		}
	}

	return view, nil
}

// Feedback holds the optional candidate feedback fields.
type Feedback struct {
	Notes    *string
	Rating   *int
	Feedback *string
}

// SubmitFeedback applies whichever feedback fields are present to the
// application behind the token.
func (s *Service) SubmitFeedback(ctx context.Context, token string, fb Feedback) error {
	if fb.Notes == nil && fb.Rating == nil && fb.Feedback == nil {
		return ErrNoFeedbackFields
	}

	link, err := s.store.GetActiveTrackingLink(ctx, token)
	if err != nil {
		return err
	}
	if link == nil {
		return ErrLinkInvalid
	}

	return s.store.UpdateApplicationFeedback(ctx, link.ApplicationID, fb.Notes, fb.Rating, fb.Feedback)
}

// SendResult reports the outcome of a notification send. Delivery never
// blocks the workflow that triggered it, so failures come back as data.
type SendResult struct {
	Success bool      `json:"success"`
	ID      uuid.UUID `json:"id,omitempty"`
	Error   string    `json:"error,omitempty"`
}

// SendNotification inserts a notification. Never returns an error: the
// failure is logged and reported in the result instead.
func (s *Service) SendNotification(ctx context.Context, n *db.Notification) SendResult {
	id, err := s.store.CreateNotification(ctx, n)
	if err != nil {
		s.logger.Warn("notification send failed",
			zap.String("user_type", n.UserType),
			zap.String("user_id", n.UserID.String()),
			zap.Error(err))
		return SendResult{Success: false, Error: err.Error()}
	}
	return SendResult{Success: true, ID: id}
}

// MarkNotificationRead flips the read flag.
func (s *Service) MarkNotificationRead(ctx context.Context, id uuid.UUID) error {
	return s.store.MarkNotificationRead(ctx, id)
}

// buildTimeline always starts with a synthetic submission entry; when the
// current status differs from Nueva a second entry describes it. No full
// audit trail is kept.
func buildTimeline(app *db.Application) []TimelineEntry {
	timeline := []TimelineEntry{{
		Status:  db.StatusNueva,
		Message: db.StatusMessages[db.StatusNueva],
		At:      app.SubmittedAt,
	}}

	if app.Status != db.StatusNueva {
		msg, ok := db.StatusMessages[app.Status]
		if !ok {
			msg = "Tu postulación cambió de estado."
		}
		timeline = append(timeline, TimelineEntry{
			Status:  app.Status,
			Message: msg,
			At:      app.UpdatedAt,
		})
	}

	return timeline
}

func (s *Service) linkURL(token string) string {
	return fmt.Sprintf("%s/tracking/%s", s.baseURL, token)
}

func newToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
