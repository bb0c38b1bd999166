package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/andres/talent-tracker/internal/application"
	"github.com/andres/talent-tracker/internal/db"
	"github.com/andres/talent-tracker/internal/sourcing"
	"github.com/andres/talent-tracker/internal/tracking"
)

type stubApps struct {
	applyResult *application.ApplyResult
	applyErr    error
	statusErr   error
	lastStatus  string
}

func (s *stubApps) Apply(_ context.Context, _ uuid.UUID, _ application.ApplyInput) (*application.ApplyResult, error) {
	return s.applyResult, s.applyErr
}

func (s *stubApps) UpdateStatus(_ context.Context, _ uuid.UUID, status string, _ *string) error {
	s.lastStatus = status
	return s.statusErr
}

type stubTracker struct {
	view        *tracking.StatusView
	viewErr     error
	feedbackErr error
	readErr     error
}

func (s *stubTracker) Status(_ context.Context, _ string) (*tracking.StatusView, error) {
	return s.view, s.viewErr
}

func (s *stubTracker) SubmitFeedback(_ context.Context, _ string, _ tracking.Feedback) error {
	return s.feedbackErr
}

func (s *stubTracker) MarkNotificationRead(_ context.Context, _ uuid.UUID) error {
	return s.readErr
}

type stubCampaigns struct {
	campaign *db.SourcingCampaign
	stats    *sourcing.RunStats
	err      error
}

func (s *stubCampaigns) CreateCampaign(_ context.Context, _ sourcing.CreateInput) (*db.SourcingCampaign, error) {
	return s.campaign, s.err
}

func (s *stubCampaigns) Run(_ context.Context, _ uuid.UUID) (*sourcing.RunStats, error) {
	return s.stats, s.err
}

func (s *stubCampaigns) Pause(_ context.Context, _ uuid.UUID) error  { return s.err }
func (s *stubCampaigns) Resume(_ context.Context, _ uuid.UUID) error { return s.err }

func (s *stubCampaigns) Candidates(_ context.Context, _ uuid.UUID, _ int) ([]db.SourcedCandidate, error) {
	return nil, s.err
}

type stubActivity struct {
	entries []db.ActivityEntry
	err     error
}

func (s *stubActivity) Log(_ context.Context, e *db.ActivityEntry) (uuid.UUID, error) {
	if s.err != nil {
		return uuid.Nil, s.err
	}
	e.ID = uuid.New()
	s.entries = append(s.entries, *e)
	return e.ID, nil
}

func (s *stubActivity) Recent(_ context.Context, _ uuid.UUID, _ int) ([]db.ActivityEntry, error) {
	return s.entries, s.err
}

type stubStore struct {
	vacancies map[uuid.UUID]*db.Vacancy
}

func newStubStore() *stubStore {
	return &stubStore{vacancies: make(map[uuid.UUID]*db.Vacancy)}
}

func (s *stubStore) CreateVacancy(_ context.Context, v *db.Vacancy) (uuid.UUID, error) {
	v.ID = uuid.New()
	s.vacancies[v.ID] = v
	return v.ID, nil
}

func (s *stubStore) GetVacancy(_ context.Context, id uuid.UUID) (*db.Vacancy, error) {
	return s.vacancies[id], nil
}

func (s *stubStore) ListVacancies(_ context.Context, status string, _ int) ([]db.Vacancy, error) {
	var out []db.Vacancy
	for _, v := range s.vacancies {
		if status == "" || v.Status == status {
			out = append(out, *v)
		}
	}
	return out, nil
}

func (s *stubStore) UpdateVacancy(_ context.Context, v *db.Vacancy) error {
	s.vacancies[v.ID] = v
	return nil
}

func (s *stubStore) CloseVacancy(_ context.Context, id uuid.UUID) error {
	if v, ok := s.vacancies[id]; ok {
		v.Status = db.VacancyClosed
	}
	return nil
}

func (s *stubStore) ListApplicationsByVacancy(_ context.Context, _ uuid.UUID, _ int) ([]db.Application, error) {
	return nil, nil
}

func (s *stubStore) GetCandidate(_ context.Context, _ uuid.UUID) (*db.Candidate, error) {
	return nil, nil
}

func (s *stubStore) SetCandidateStage(_ context.Context, _, _ uuid.UUID, _ string) error {
	return nil
}

func (s *stubStore) ListStageHistory(_ context.Context, _ uuid.UUID) ([]db.StageInterval, error) {
	return nil, nil
}

func (s *stubStore) ListNotifications(_ context.Context, _ string, _ uuid.UUID, _ bool) ([]db.Notification, error) {
	return nil, nil
}

type testDeps struct {
	apps      *stubApps
	tracker   *stubTracker
	campaigns *stubCampaigns
	activity  *stubActivity
	store     *stubStore
}

func newTestServer() (*Server, *testDeps) {
	deps := &testDeps{
		apps:      &stubApps{},
		tracker:   &stubTracker{},
		campaigns: &stubCampaigns{},
		activity:  &stubActivity{},
		store:     newStubStore(),
	}
	srv := New(Deps{
		Store:         deps.store,
		Applications:  deps.apps,
		Tracker:       deps.tracker,
		Campaigns:     deps.campaigns,
		Activity:      deps.activity,
		Logger:        zap.NewNop(),
		RatePerSecond: 100,
		RateBurst:     100,
	})
	return srv, deps
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer()

	rec := doJSON(t, srv, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}

func TestApply_Created(t *testing.T) {
	srv, deps := newTestServer()
	deps.apps.applyResult = &application.ApplyResult{
		ApplicationID: uuid.New(),
		CandidateID:   uuid.New(),
		MatchScore:    87,
		TrackingURL:   "https://jobs.example.com/tracking/abc",
		Message:       "Postulación recibida",
	}

	rec := doJSON(t, srv, http.MethodPost, "/applications/apply", map[string]any{
		"vacancy_id": uuid.New().String(),
		"name":       "Laura Méndez",
		"email":      "laura@example.com",
		"years":      5,
	})

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, float64(87), resp["match_score"])
	assert.NotEmpty(t, resp["tracking_url"])
}

func TestApply_ValidationRejectsBadEmail(t *testing.T) {
	srv, _ := newTestServer()

	rec := doJSON(t, srv, http.MethodPost, "/applications/apply", map[string]any{
		"vacancy_id": uuid.New().String(),
		"name":       "Laura",
		"email":      "not-an-email",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestApply_UnknownVacancyIs404(t *testing.T) {
	srv, deps := newTestServer()
	deps.apps.applyErr = application.ErrVacancyNotFound

	rec := doJSON(t, srv, http.MethodPost, "/applications/apply", map[string]any{
		"vacancy_id": uuid.New().String(),
		"name":       "Laura Méndez",
		"email":      "laura@example.com",
	})

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateStatus_InvalidTransitionIs400(t *testing.T) {
	srv, deps := newTestServer()
	deps.apps.statusErr = application.ErrInvalidTransition

	rec := doJSON(t, srv, http.MethodPut, "/applications/"+uuid.NewString()+"/status",
		map[string]any{"status": db.StatusNueva})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTrackingStatus_OK(t *testing.T) {
	srv, deps := newTestServer()
	deps.tracker.view = &tracking.StatusView{
		Application: tracking.ApplicationSummary{
			ID:          uuid.New(),
			Name:        "Laura Méndez",
			Status:      db.StatusEntrevista,
			MatchScore:  90,
			SubmittedAt: time.Now(),
		},
		Views: 2,
	}

	rec := doJSON(t, srv, http.MethodGet, "/tracking/abcdef0123456789abcdef0123456789", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), db.StatusEntrevista)
}

func TestTrackingStatus_InvalidTokenIs404(t *testing.T) {
	srv, deps := newTestServer()
	deps.tracker.viewErr = tracking.ErrLinkInvalid

	rec := doJSON(t, srv, http.MethodGet, "/tracking/deadbeef", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTrackingFeedback_EmptyBodyIs400(t *testing.T) {
	srv, deps := newTestServer()
	deps.tracker.feedbackErr = tracking.ErrNoFeedbackFields

	rec := doJSON(t, srv, http.MethodPost, "/tracking/deadbeef/feedback", map[string]any{})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTrackingRateLimit(t *testing.T) {
	deps := &testDeps{
		apps:      &stubApps{},
		tracker:   &stubTracker{viewErr: tracking.ErrLinkInvalid},
		campaigns: &stubCampaigns{},
		activity:  &stubActivity{},
		store:     newStubStore(),
	}
	srv := New(Deps{
		Store:         deps.store,
		Applications:  deps.apps,
		Tracker:       deps.tracker,
		Campaigns:     deps.campaigns,
		Activity:      deps.activity,
		Logger:        zap.NewNop(),
		RatePerSecond: 0.001,
		RateBurst:     2,
	})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := doJSON(t, srv, http.MethodGet, "/tracking/deadbeef", nil)
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, http.StatusNotFound, codes[0])
	assert.Equal(t, http.StatusNotFound, codes[1])
	assert.Equal(t, http.StatusTooManyRequests, codes[2])

	// Non-tracking routes are not throttled.
	rec := doJSON(t, srv, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateAndGetVacancy(t *testing.T) {
	srv, _ := newTestServer()

	rec := doJSON(t, srv, http.MethodPost, "/vacancies", map[string]any{
		"title":          "Desarrollador Backend Senior",
		"required_years": 5,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = doJSON(t, srv, http.MethodGet, "/vacancies/"+created["id"], nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Desarrollador Backend Senior")
}

func TestGetVacancy_UnknownIs404(t *testing.T) {
	srv, _ := newTestServer()

	rec := doJSON(t, srv, http.MethodGet, "/vacancies/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateVacancy_MissingTitleIs400(t *testing.T) {
	srv, _ := newTestServer()

	rec := doJSON(t, srv, http.MethodPost, "/vacancies", map[string]any{"required_years": 3})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRunCampaign_OK(t *testing.T) {
	srv, deps := newTestServer()
	deps.campaigns.stats = &sourcing.RunStats{Found: 10, Qualified: 4, Stored: 3}

	rec := doJSON(t, srv, http.MethodPost, "/sourcing/campaigns/"+uuid.NewString()+"/run", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var stats sourcing.RunStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 3, stats.Stored)
}

func TestRunCampaign_UnknownIs404(t *testing.T) {
	srv, deps := newTestServer()
	deps.campaigns.err = sourcing.ErrCampaignNotFound

	rec := doJSON(t, srv, http.MethodPost, "/sourcing/campaigns/"+uuid.NewString()+"/run", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRunCampaign_BadIDIs400(t *testing.T) {
	srv, _ := newTestServer()

	rec := doJSON(t, srv, http.MethodPost, "/sourcing/campaigns/not-a-uuid/run", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogActivity_Created(t *testing.T) {
	srv, deps := newTestServer()

	rec := doJSON(t, srv, http.MethodPost, "/candidates/"+uuid.NewString()+"/activity",
		map[string]any{"type": db.ActivityViewJob, "description": "Vio la vacante"})

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Len(t, deps.activity.entries, 1)
}

func TestListNotifications_RequiresUserType(t *testing.T) {
	srv, _ := newTestServer()

	rec := doJSON(t, srv, http.MethodGet, "/users/"+uuid.NewString()+"/notifications", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, srv, http.MethodGet,
		"/users/"+uuid.NewString()+"/notifications?user_type=candidato", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
