package application

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/andres/talent-tracker/internal/db"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to string
		allowed  bool
	}{
		// Forward moves, including skips over intermediate stages.
		{db.StatusNueva, db.StatusEnRevision, true},
		{db.StatusNueva, db.StatusEntrevista, true},
		{db.StatusNueva, db.StatusContratado, true},
		{db.StatusEnRevision, db.StatusPreseleccionado, true},
		{db.StatusPreseleccionado, db.StatusOferta, true},
		{db.StatusOferta, db.StatusContratado, true},

		// Backward moves are not allowed.
		{db.StatusEntrevista, db.StatusNueva, false},
		{db.StatusOferta, db.StatusEnRevision, false},
		{db.StatusPreseleccionado, db.StatusNueva, false},

		// Any active status can be rejected.
		{db.StatusNueva, db.StatusRechazado, true},
		{db.StatusEntrevista, db.StatusRechazado, true},
		{db.StatusOferta, db.StatusRechazado, true},

		// A rejection can only be reopened into review.
		{db.StatusRechazado, db.StatusEnRevision, true},
		{db.StatusRechazado, db.StatusEntrevista, false},
		{db.StatusRechazado, db.StatusContratado, false},
		{db.StatusRechazado, db.StatusNueva, false},

		// Hired is terminal.
		{db.StatusContratado, db.StatusRechazado, false},
		{db.StatusContratado, db.StatusOferta, false},

		// Same status is never a transition.
		{db.StatusNueva, db.StatusNueva, false},
		{db.StatusRechazado, db.StatusRechazado, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.allowed, CanTransition(tc.from, tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}

func TestValidStatus(t *testing.T) {
	for _, s := range []string{
		db.StatusNueva, db.StatusEnRevision, db.StatusPreseleccionado,
		db.StatusEntrevista, db.StatusOferta, db.StatusContratado, db.StatusRechazado,
	} {
		assert.True(t, ValidStatus(s), s)
	}

	assert.False(t, ValidStatus("Archivada"))
	assert.False(t, ValidStatus(""))
	assert.False(t, ValidStatus("nueva"))
}
