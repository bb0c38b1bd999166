package sourcing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/andres/talent-tracker/internal/db"
)

// MinQualifyingScore is the cutoff below which a sourced profile is
// discarded instead of stored.
const MinQualifyingScore = 70

var (
	ErrCampaignNotFound = errors.New("campaign not found")
	ErrVacancyNotFound  = errors.New("vacancy not found")
)

// Store is the persistence surface the manager needs.
type Store interface {
	CreateCampaign(ctx context.Context, c *db.SourcingCampaign) (uuid.UUID, error)
	GetCampaign(ctx context.Context, id uuid.UUID) (*db.SourcingCampaign, error)
	SetCampaignStatus(ctx context.Context, id uuid.UUID, status string, nextRun *time.Time) error
	InsertSourcedCandidate(ctx context.Context, sc *db.SourcedCandidate) (bool, error)
	FinishCampaignRun(ctx context.Context, id uuid.UUID, stored int, ranAt time.Time, nextRun *time.Time) error
	RecordCampaignRun(ctx context.Context, r *db.CampaignRun) error
	ListSourcedCandidates(ctx context.Context, campaignID uuid.UUID, limit int) ([]db.SourcedCandidate, error)
	GetVacancy(ctx context.Context, id uuid.UUID) (*db.Vacancy, error)
}

// Manager creates and executes sourcing campaigns.
type Manager struct {
	store   Store
	sources []Source
	scorer  *Scorer
	logger  *zap.Logger
	now     func() time.Time
}

func NewManager(store Store, sources []Source, scorer *Scorer, logger *zap.Logger) *Manager {
	return &Manager{
		store:   store,
		sources: sources,
		scorer:  scorer,
		logger:  logger,
		now:     time.Now,
	}
}

// CreateInput is the campaign definition supplied by a recruiter.
type CreateInput struct {
	VacancyID uuid.UUID
	Name      string
	Sources   []string
	Filters   map[string]any
	Schedule  string
	AutoRun   bool
}

// CreateCampaign persists a new active campaign. With auto-run enabled
// the first execution is due immediately; the poller will pick it up.
func (m *Manager) CreateCampaign(ctx context.Context, input CreateInput) (*db.SourcingCampaign, error) {
	vacancy, err := m.store.GetVacancy(ctx, input.VacancyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load vacancy: %w", err)
	}
	if vacancy == nil {
		return nil, ErrVacancyNotFound
	}

	name := input.Name
	if name == "" {
		name = fmt.Sprintf("Campaña %s", vacancy.Title)
	}

	campaign := &db.SourcingCampaign{
		VacancyID: input.VacancyID,
		Name:      name,
		Sources:   input.Sources,
		Filters:   input.Filters,
		Schedule:  input.Schedule,
		AutoRun:   input.AutoRun,
		Status:    db.CampaignActive,
	}
	if input.AutoRun {
		due := m.now()
		campaign.NextRunAt = &due
	}

	id, err := m.store.CreateCampaign(ctx, campaign)
	if err != nil {
		return nil, err
	}
	campaign.ID = id

	m.logger.Info("campaign created",
		zap.String("campaign_id", id.String()),
		zap.String("vacancy_id", input.VacancyID.String()),
		zap.Bool("auto_run", input.AutoRun))
	return campaign, nil
}

// RunStats summarizes one campaign execution.
type RunStats struct {
	CampaignID uuid.UUID `json:"campaign_id"`
	Found      int       `json:"found"`
	Qualified  int       `json:"qualified"`
	Stored     int       `json:"stored"`
	Duration   string    `json:"duration"`
}

// Run executes one sourcing pass: search every configured channel, score
// the deduplicated profiles, store the ones at or above the cutoff, and
// write an execution-log row. Re-sourcing an email already stored for
// the campaign is a silent skip.
func (m *Manager) Run(ctx context.Context, campaignID uuid.UUID) (*RunStats, error) {
	campaign, err := m.store.GetCampaign(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to load campaign: %w", err)
	}
	if campaign == nil {
		return nil, ErrCampaignNotFound
	}

	vacancy, err := m.store.GetVacancy(ctx, campaign.VacancyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load campaign vacancy: %w", err)
	}
	if vacancy == nil {
		return nil, ErrVacancyNotFound
	}

	start := m.now()
	profiles := MultiSearch(ctx, m.enabledSources(campaign), m.buildQuery(campaign, vacancy), m.logger)

	stats := &RunStats{CampaignID: campaignID, Found: len(profiles)}
	for _, p := range profiles {
		score, analysis := m.scorer.Score(ctx, vacancy, p)
		if score < MinQualifyingScore {
			continue
		}
		stats.Qualified++

		sc := &db.SourcedCandidate{
			CampaignID: campaignID,
			Name:       p.Name,
			Email:      p.Email,
			Source:     p.Source,
			Score:      score,
			Analysis:   analysis,
			Profile:    p.Raw,
		}
		if p.Title != "" {
			sc.Title = &p.Title
		}
		inserted, err := m.store.InsertSourcedCandidate(ctx, sc)
		if err != nil {
			m.logger.Error("failed to store sourced candidate",
				zap.String("campaign_id", campaignID.String()),
				zap.String("email", p.Email),
				zap.Error(err))
			continue
		}
		if inserted {
			stats.Stored++
		}
	}

	elapsed := m.now().Sub(start)
	stats.Duration = elapsed.String()

	ranAt := m.now()
	var nextRun *time.Time
	if campaign.AutoRun && campaign.Status == db.CampaignActive {
		next := ranAt.Add(ParseEvery(campaign.Schedule))
		nextRun = &next
	}
	if err := m.store.FinishCampaignRun(ctx, campaignID, stats.Stored, ranAt, nextRun); err != nil {
		m.logger.Error("failed to finalize campaign run",
			zap.String("campaign_id", campaignID.String()),
			zap.Error(err))
	}
	if err := m.store.RecordCampaignRun(ctx, &db.CampaignRun{
		CampaignID: campaignID,
		Found:      stats.Found,
		Qualified:  stats.Qualified,
		Stored:     stats.Stored,
		DurationMS: elapsed.Milliseconds(),
		RanAt:      ranAt,
	}); err != nil {
		m.logger.Error("failed to record campaign run",
			zap.String("campaign_id", campaignID.String()),
			zap.Error(err))
	}

	m.logger.Info("campaign run finished",
		zap.String("campaign_id", campaignID.String()),
		zap.Int("found", stats.Found),
		zap.Int("qualified", stats.Qualified),
		zap.Int("stored", stats.Stored),
		zap.Duration("duration", elapsed))
	return stats, nil
}

// Pause stops future scheduled runs by clearing next_run_at.
func (m *Manager) Pause(ctx context.Context, campaignID uuid.UUID) error {
	return m.store.SetCampaignStatus(ctx, campaignID, db.CampaignPaused, nil)
}

// Resume reactivates the campaign; the next run is due one interval out.
func (m *Manager) Resume(ctx context.Context, campaignID uuid.UUID) error {
	campaign, err := m.store.GetCampaign(ctx, campaignID)
	if err != nil {
		return fmt.Errorf("failed to load campaign: %w", err)
	}
	if campaign == nil {
		return ErrCampaignNotFound
	}
	var nextRun *time.Time
	if campaign.AutoRun {
		next := m.now().Add(ParseEvery(campaign.Schedule))
		nextRun = &next
	}
	return m.store.SetCampaignStatus(ctx, campaignID, db.CampaignActive, nextRun)
}

// Candidates lists the stored profiles for a campaign, best first.
func (m *Manager) Candidates(ctx context.Context, campaignID uuid.UUID, limit int) ([]db.SourcedCandidate, error) {
	campaign, err := m.store.GetCampaign(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to load campaign: %w", err)
	}
	if campaign == nil {
		return nil, ErrCampaignNotFound
	}
	return m.store.ListSourcedCandidates(ctx, campaignID, limit)
}

// enabledSources filters the configured channels down to the ones the
// campaign asked for. An empty selection means all of them.
func (m *Manager) enabledSources(campaign *db.SourcingCampaign) []Source {
	if len(campaign.Sources) == 0 {
		return m.sources
	}
	wanted := make(map[string]bool, len(campaign.Sources))
	for _, name := range campaign.Sources {
		wanted[name] = true
	}
	var out []Source
	for _, src := range m.sources {
		if wanted[src.Name()] {
			out = append(out, src)
		}
	}
	return out
}

func (m *Manager) buildQuery(campaign *db.SourcingCampaign, vacancy *db.Vacancy) Query {
	q := Query{Keywords: vacancy.Title, Filters: campaign.Filters}
	if loc, ok := campaign.Filters["location"].(string); ok {
		q.Location = loc
	}
	if kw, ok := campaign.Filters["keywords"].(string); ok && kw != "" {
		q.Keywords = kw
	}
	return q
}
