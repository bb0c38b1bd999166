package sourcing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/andres/talent-tracker/internal/db"
)

// claimLease is how far a claimed campaign's next_run_at is pushed while
// its run executes. Long enough to cover a slow run, short enough that a
// crashed run is retried soon. The real next run is written when the run
// finishes.
const claimLease = 10 * time.Minute

// ClaimStore claims due campaigns atomically so two pollers (or a
// restarted process) never execute the same run twice.
type ClaimStore interface {
	ClaimDueCampaigns(ctx context.Context, now time.Time, advance time.Duration, limit int) ([]db.SourcingCampaign, error)
}

// Runner executes a single campaign pass.
type Runner interface {
	Run(ctx context.Context, campaignID uuid.UUID) (*RunStats, error)
}

// Scheduler polls the database for due campaigns. Schedules live in the
// campaign rows themselves, so restarts need no re-arming and campaigns
// created while the process was down are picked up on the next tick.
type Scheduler struct {
	store  ClaimStore
	runner Runner
	logger *zap.Logger
	poll   time.Duration
	batch  int
}

func NewScheduler(store ClaimStore, runner Runner, logger *zap.Logger, poll time.Duration) *Scheduler {
	if poll <= 0 {
		poll = time.Minute
	}
	return &Scheduler{
		store:  store,
		runner: runner,
		logger: logger,
		poll:   poll,
		batch:  10,
	}
}

// Start polls until the context is canceled. Sequential execution within
// a tick: campaigns run hours apart, there is no need for parallelism
// here.
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("campaign scheduler started", zap.Duration("poll", s.poll))
	ticker := time.NewTicker(s.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("campaign scheduler stopped")
			return
		case now := <-ticker.C:
			s.Tick(ctx, now)
		}
	}
}

// Tick claims and runs every campaign that is due at the given time.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) {
	campaigns, err := s.store.ClaimDueCampaigns(ctx, now, claimLease, s.batch)
	if err != nil {
		s.logger.Error("failed to claim due campaigns", zap.Error(err))
		return
	}
	for _, campaign := range campaigns {
		if _, err := s.runner.Run(ctx, campaign.ID); err != nil {
			s.logger.Error("scheduled campaign run failed",
				zap.String("campaign_id", campaign.ID.String()),
				zap.Error(err))
		}
	}
}
