package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusConstants(t *testing.T) {
	statuses := []string{
		StatusNueva,
		StatusEnRevision,
		StatusPreseleccionado,
		StatusEntrevista,
		StatusOferta,
		StatusContratado,
		StatusRechazado,
	}

	for _, status := range statuses {
		assert.NotEmpty(t, status, "status constant should not be empty")
		assert.NotEmpty(t, StatusMessages[status],
			"every status needs a candidate-facing message: %s", status)
	}
}

func TestVacancyConstants(t *testing.T) {
	for _, status := range []string{VacancyOpen, VacancyInProcess, VacancyFilled, VacancyClosed} {
		assert.NotEmpty(t, status)
	}
}

func TestActivityConstants(t *testing.T) {
	types := []string{
		ActivityLogin,
		ActivityViewJob,
		ActivityApply,
		ActivitySaveJob,
		ActivityStartApplication,
		ActivityAbandon,
	}
	for _, typ := range types {
		assert.NotEmpty(t, typ)
	}
}

func TestApplicationType(t *testing.T) {
	app := Application{
		Name:   "Laura Méndez",
		Email:  "laura@example.com",
		Status: StatusNueva,
	}

	assert.Equal(t, "Laura Méndez", app.Name)
	assert.Equal(t, StatusNueva, app.Status)
	assert.Nil(t, app.CandidateID)
	assert.False(t, app.LinkSent)
}

func TestCandidateDefaults(t *testing.T) {
	assert.Equal(t, "POSTULACIÓN", DefaultStage)
	assert.Equal(t, "Portal", DefaultSource)
}
