package sourcing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/andres/talent-tracker/internal/db"
)

type fakeStore struct {
	campaigns map[uuid.UUID]*db.SourcingCampaign
	vacancies map[uuid.UUID]*db.Vacancy
	sourced   map[string]db.SourcedCandidate // key campaignID+email
	runs      []db.CampaignRun
	finished  []int // stored counts passed to FinishCampaignRun
	lastNext  *time.Time
}

func newStore() *fakeStore {
	return &fakeStore{
		campaigns: make(map[uuid.UUID]*db.SourcingCampaign),
		vacancies: make(map[uuid.UUID]*db.Vacancy),
		sourced:   make(map[string]db.SourcedCandidate),
	}
}

func (f *fakeStore) CreateCampaign(_ context.Context, c *db.SourcingCampaign) (uuid.UUID, error) {
	c.ID = uuid.New()
	if c.Status == "" {
		c.Status = db.CampaignActive
	}
	f.campaigns[c.ID] = c
	return c.ID, nil
}

func (f *fakeStore) GetCampaign(_ context.Context, id uuid.UUID) (*db.SourcingCampaign, error) {
	return f.campaigns[id], nil
}

func (f *fakeStore) SetCampaignStatus(_ context.Context, id uuid.UUID, status string, nextRun *time.Time) error {
	c, ok := f.campaigns[id]
	if !ok {
		return errors.New("no such campaign")
	}
	c.Status = status
	c.NextRunAt = nextRun
	return nil
}

func (f *fakeStore) InsertSourcedCandidate(_ context.Context, sc *db.SourcedCandidate) (bool, error) {
	key := sc.CampaignID.String() + "|" + sc.Email
	if _, exists := f.sourced[key]; exists {
		return false, nil
	}
	f.sourced[key] = *sc
	return true, nil
}

func (f *fakeStore) FinishCampaignRun(_ context.Context, id uuid.UUID, stored int, ranAt time.Time, nextRun *time.Time) error {
	f.finished = append(f.finished, stored)
	f.lastNext = nextRun
	if c, ok := f.campaigns[id]; ok {
		c.CandidatesFound += stored
		c.LastRunAt = &ranAt
		if nextRun != nil {
			c.NextRunAt = nextRun
		}
	}
	return nil
}

func (f *fakeStore) RecordCampaignRun(_ context.Context, r *db.CampaignRun) error {
	f.runs = append(f.runs, *r)
	return nil
}

func (f *fakeStore) ListSourcedCandidates(_ context.Context, campaignID uuid.UUID, _ int) ([]db.SourcedCandidate, error) {
	var out []db.SourcedCandidate
	for _, sc := range f.sourced {
		if sc.CampaignID == campaignID {
			out = append(out, sc)
		}
	}
	return out, nil
}

func (f *fakeStore) GetVacancy(_ context.Context, id uuid.UUID) (*db.Vacancy, error) {
	return f.vacancies[id], nil
}

type staticSource struct {
	name     string
	profiles []Profile
	err      error
}

func (s *staticSource) Name() string { return s.name }

func (s *staticSource) Search(_ context.Context, _ Query) ([]Profile, error) {
	return s.profiles, s.err
}

type staticClient struct {
	response string
	err      error
}

func (c *staticClient) GenerateJSON(_ context.Context, _ string) (string, error) {
	return c.response, c.err
}

func (c *staticClient) Close() error { return nil }

func seedCampaign(store *fakeStore, sources []string) *db.SourcingCampaign {
	min := int64(3000000)
	vacancy := &db.Vacancy{
		ID:            uuid.New(),
		Title:         "Desarrollador Backend Senior",
		RequiredYears: 5,
		SalaryMin:     &min,
		Status:        db.VacancyOpen,
	}
	store.vacancies[vacancy.ID] = vacancy

	campaign := &db.SourcingCampaign{
		ID:        uuid.New(),
		VacancyID: vacancy.ID,
		Name:      "Campaña backend",
		Sources:   sources,
		Status:    db.CampaignActive,
	}
	store.campaigns[campaign.ID] = campaign
	return campaign
}

func TestRun_StoresOnlyQualifyingCandidates(t *testing.T) {
	store := newStore()
	campaign := seedCampaign(store, nil)

	source := &staticSource{name: "board", profiles: []Profile{
		{Name: "Alta", Email: "alta@example.com", Title: "Backend", Source: "board"},
		{Name: "Baja", Email: "baja@example.com", Title: "Backend", Source: "board"},
	}}

	// Model qualifies the first call, rejects the second.
	responses := []string{
		`{"score": 85, "analysis": "buen encaje"}`,
		`{"score": 40, "analysis": "poca experiencia"}`,
	}
	call := 0
	scorer := NewScorer(&sequenceClient{responses: responses, call: &call}, zap.NewNop())
	mgr := NewManager(store, []Source{source}, scorer, zap.NewNop())

	stats, err := mgr.Run(context.Background(), campaign.ID)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Found)
	assert.Equal(t, 1, stats.Qualified)
	assert.Equal(t, 1, stats.Stored)
	assert.Len(t, store.sourced, 1)
	require.Len(t, store.runs, 1)
	assert.Equal(t, 2, store.runs[0].Found)
	assert.Equal(t, 1, store.runs[0].Stored)
}

type sequenceClient struct {
	responses []string
	call      *int
}

func (c *sequenceClient) GenerateJSON(_ context.Context, _ string) (string, error) {
	i := *c.call
	*c.call++
	if i >= len(c.responses) {
		return "", errors.New("no more responses")
	}
	return c.responses[i], nil
}

func (c *sequenceClient) Close() error { return nil }

func TestRun_ReRunSkipsAlreadyStoredEmails(t *testing.T) {
	store := newStore()
	campaign := seedCampaign(store, nil)

	source := &staticSource{name: "board", profiles: []Profile{
		{Name: "Laura", Email: "laura@example.com", Title: "Backend", Source: "board"},
	}}
	scorer := NewScorer(&staticClient{response: `{"score": 90, "analysis": "ok"}`}, zap.NewNop())
	mgr := NewManager(store, []Source{source}, scorer, zap.NewNop())

	first, err := mgr.Run(context.Background(), campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Stored)

	second, err := mgr.Run(context.Background(), campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, second.Qualified)
	assert.Equal(t, 0, second.Stored, "existing row must be skipped, not updated")
	assert.Len(t, store.sourced, 1)
}

func TestRun_AIFailureFallsBackToWeightedScore(t *testing.T) {
	store := newStore()
	campaign := seedCampaign(store, nil)

	// Strong profile: the deterministic scorer alone clears the cutoff.
	source := &staticSource{name: "board", profiles: []Profile{
		{Name: "Laura", Email: "laura@example.com", Title: "Desarrollador Backend Senior", Years: 5, Source: "board"},
	}}
	scorer := NewScorer(&staticClient{err: errors.New("quota exceeded")}, zap.NewNop())
	mgr := NewManager(store, []Source{source}, scorer, zap.NewNop())

	stats, err := mgr.Run(context.Background(), campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Stored)

	for _, sc := range store.sourced {
		assert.Equal(t, fallbackAnalysis, sc.Analysis)
	}
}

func TestRun_InvalidModelOutputFallsBack(t *testing.T) {
	store := newStore()
	campaign := seedCampaign(store, nil)

	source := &staticSource{name: "board", profiles: []Profile{
		{Name: "Laura", Email: "laura@example.com", Title: "Desarrollador Backend Senior", Years: 5, Source: "board"},
	}}
	// Well-formed JSON that violates the schema.
	scorer := NewScorer(&staticClient{response: `{"rating": "high"}`}, zap.NewNop())
	mgr := NewManager(store, []Source{source}, scorer, zap.NewNop())

	stats, err := mgr.Run(context.Background(), campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Stored)
}

func TestRun_UnknownCampaign(t *testing.T) {
	mgr := NewManager(newStore(), nil, NewScorer(nil, zap.NewNop()), zap.NewNop())

	_, err := mgr.Run(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrCampaignNotFound)
}

func TestRun_AutoRunSchedulesNextExecution(t *testing.T) {
	store := newStore()
	campaign := seedCampaign(store, nil)
	campaign.AutoRun = true
	campaign.Schedule = "0 */2 * * *"

	scorer := NewScorer(nil, zap.NewNop())
	mgr := NewManager(store, nil, scorer, zap.NewNop())

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	mgr.now = func() time.Time { return base }

	_, err := mgr.Run(context.Background(), campaign.ID)
	require.NoError(t, err)

	require.NotNil(t, store.lastNext)
	assert.Equal(t, base.Add(2*time.Hour), *store.lastNext)
}

func TestMultiSearch_DedupesByEmailAcrossSources(t *testing.T) {
	a := &staticSource{name: "a", profiles: []Profile{
		{Name: "Laura", Email: "Laura@Example.com", Source: "a"},
		{Name: "Pedro", Email: "pedro@example.com", Source: "a"},
	}}
	b := &staticSource{name: "b", profiles: []Profile{
		{Name: "Laura M", Email: "laura@example.com", Source: "b"},
		{Name: "SinCorreo", Email: "", Source: "b"},
	}}
	broken := &staticSource{name: "c", err: errors.New("timeout")}

	merged := MultiSearch(context.Background(), []Source{a, b, broken}, Query{Keywords: "backend"}, zap.NewNop())

	emails := make(map[string]int)
	for _, p := range merged {
		emails[p.Email]++
	}
	assert.Len(t, merged, 2)
	assert.Equal(t, 1, emails["Laura@Example.com"]+emails["laura@example.com"])
}

func TestPauseAndResume(t *testing.T) {
	store := newStore()
	campaign := seedCampaign(store, nil)
	campaign.AutoRun = true
	campaign.Schedule = "0 */6 * * *"
	next := time.Now().Add(time.Hour)
	campaign.NextRunAt = &next

	mgr := NewManager(store, nil, NewScorer(nil, zap.NewNop()), zap.NewNop())

	require.NoError(t, mgr.Pause(context.Background(), campaign.ID))
	assert.Equal(t, db.CampaignPaused, campaign.Status)
	assert.Nil(t, campaign.NextRunAt, "pause must clear the pending run")

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	mgr.now = func() time.Time { return base }

	require.NoError(t, mgr.Resume(context.Background(), campaign.ID))
	assert.Equal(t, db.CampaignActive, campaign.Status)
	require.NotNil(t, campaign.NextRunAt)
	assert.Equal(t, base.Add(6*time.Hour), *campaign.NextRunAt)
}

func TestCreateCampaign_AutoRunDueImmediately(t *testing.T) {
	store := newStore()
	seeded := seedCampaign(store, nil) // seeds the vacancy too

	mgr := NewManager(store, nil, NewScorer(nil, zap.NewNop()), zap.NewNop())
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	mgr.now = func() time.Time { return base }

	created, err := mgr.CreateCampaign(context.Background(), CreateInput{
		VacancyID: seeded.VacancyID,
		Sources:   []string{"board"},
		Schedule:  "0 */6 * * *",
		AutoRun:   true,
	})
	require.NoError(t, err)

	assert.Equal(t, db.CampaignActive, created.Status)
	require.NotNil(t, created.NextRunAt)
	assert.Equal(t, base, *created.NextRunAt)
	assert.NotEmpty(t, created.Name, "name defaults from the vacancy title")
}

func TestCreateCampaign_UnknownVacancy(t *testing.T) {
	mgr := NewManager(newStore(), nil, NewScorer(nil, zap.NewNop()), zap.NewNop())

	_, err := mgr.CreateCampaign(context.Background(), CreateInput{VacancyID: uuid.New()})
	assert.ErrorIs(t, err, ErrVacancyNotFound)
}
