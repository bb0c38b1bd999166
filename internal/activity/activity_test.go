package activity

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/andres/talent-tracker/internal/db"
)

type fakeStore struct {
	entries       []db.ActivityEntry
	advanced      map[uuid.UUID]*db.Application
	vacancies     map[uuid.UUID]*db.Vacancy
	candidates    map[uuid.UUID]*db.Candidate
	notifications []db.Notification
	insertErr     error
}

func newStore() *fakeStore {
	return &fakeStore{
		advanced:   make(map[uuid.UUID]*db.Application),
		vacancies:  make(map[uuid.UUID]*db.Vacancy),
		candidates: make(map[uuid.UUID]*db.Candidate),
	}
}

func (f *fakeStore) InsertActivity(_ context.Context, e *db.ActivityEntry) (uuid.UUID, error) {
	if f.insertErr != nil {
		return uuid.Nil, f.insertErr
	}
	e.ID = uuid.New()
	f.entries = append(f.entries, *e)
	return e.ID, nil
}

func (f *fakeStore) ListActivity(_ context.Context, candidateID uuid.UUID, _ int) ([]db.ActivityEntry, error) {
	var out []db.ActivityEntry
	for _, e := range f.entries {
		if e.CandidateID == candidateID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeStore) GetAdvancedApplication(_ context.Context, candidateID uuid.UUID) (*db.Application, error) {
	return f.advanced[candidateID], nil
}

func (f *fakeStore) GetVacancy(_ context.Context, id uuid.UUID) (*db.Vacancy, error) {
	return f.vacancies[id], nil
}

func (f *fakeStore) GetCandidate(_ context.Context, id uuid.UUID) (*db.Candidate, error) {
	return f.candidates[id], nil
}

func (f *fakeStore) CreateNotification(_ context.Context, n *db.Notification) (uuid.UUID, error) {
	n.ID = uuid.New()
	f.notifications = append(f.notifications, *n)
	return n.ID, nil
}

func seedAdvanced(store *fakeStore, withRecruiter bool) uuid.UUID {
	candidateID := uuid.New()
	vacancy := &db.Vacancy{ID: uuid.New(), Title: "Desarrollador Backend Senior"}
	if withRecruiter {
		recruiterID := uuid.New()
		vacancy.RecruiterID = &recruiterID
	}
	store.vacancies[vacancy.ID] = vacancy
	store.candidates[candidateID] = &db.Candidate{ID: candidateID, Name: "Laura Méndez"}
	store.advanced[candidateID] = &db.Application{
		ID:          uuid.New(),
		VacancyID:   vacancy.ID,
		CandidateID: &candidateID,
		Status:      db.StatusEntrevista,
	}
	return candidateID
}

func TestLog_AppendsEntry(t *testing.T) {
	store := newStore()
	logger := New(store, zap.NewNop())

	id, err := logger.Log(context.Background(), &db.ActivityEntry{
		CandidateID: uuid.New(),
		Type:        db.ActivitySaveJob,
		Description: "Guardó la vacante",
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)
	assert.Len(t, store.entries, 1)
}

func TestLog_InsertFailurePropagates(t *testing.T) {
	store := newStore()
	store.insertErr = errors.New("connection refused")
	logger := New(store, zap.NewNop())

	_, err := logger.Log(context.Background(), &db.ActivityEntry{
		CandidateID: uuid.New(),
		Type:        db.ActivityLogin,
	})
	assert.Error(t, err)
}

func TestHotLead_AdvancedCandidateNotifiesRecruiter(t *testing.T) {
	store := newStore()
	candidateID := seedAdvanced(store, true)
	logger := New(store, zap.NewNop())

	logger.evaluateHotLead(context.Background(), candidateID, db.ActivityLogin)

	require.Len(t, store.notifications, 1)
	n := store.notifications[0]
	assert.Equal(t, db.UserTypeRecruiter, n.UserType)
	assert.Contains(t, n.Message, "Laura Méndez")
	assert.Contains(t, n.Message, db.StatusEntrevista)
	assert.Equal(t, "hot_lead", n.Metadata["type"])
}

func TestHotLead_NoAdvancedApplicationIsSilent(t *testing.T) {
	store := newStore()
	logger := New(store, zap.NewNop())

	logger.evaluateHotLead(context.Background(), uuid.New(), db.ActivityLogin)

	assert.Empty(t, store.notifications)
}

func TestHotLead_VacancyWithoutRecruiterIsSilent(t *testing.T) {
	store := newStore()
	candidateID := seedAdvanced(store, false)
	logger := New(store, zap.NewNop())

	logger.evaluateHotLead(context.Background(), candidateID, db.ActivityApply)

	assert.Empty(t, store.notifications)
}

func TestHighIntentSet(t *testing.T) {
	for _, typ := range []string{
		db.ActivityLogin, db.ActivityViewJob, db.ActivityStartApplication, db.ActivityApply,
	} {
		assert.True(t, highIntent[typ], typ)
	}
	assert.False(t, highIntent[db.ActivitySaveJob])
	assert.False(t, highIntent[db.ActivityAbandon])
}
