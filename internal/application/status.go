package application

import (
	"errors"
	"fmt"

	"github.com/andres/talent-tracker/internal/db"
)

// ErrInvalidTransition is returned when a recruiter requests a status jump
// the transition table does not allow.
var ErrInvalidTransition = errors.New("invalid status transition")

// statusRank orders the pipeline stages. Forward jumps are allowed (a
// recruiter may move Nueva straight to Entrevista); backward moves are not.
var statusRank = map[string]int{
	db.StatusNueva:           0,
	db.StatusEnRevision:      1,
	db.StatusPreseleccionado: 2,
	db.StatusEntrevista:      3,
	db.StatusOferta:          4,
	db.StatusContratado:      5,
}

// CanTransition reports whether an application may move from one status to
// another. Rechazado is reachable from any non-terminal state; a rejected
// candidate can only be reopened into En Revisión, not jumped straight back
// into the late pipeline. Contratado is terminal. Same-status "moves" are
// not transitions and are handled by the caller as no-ops.
func CanTransition(from, to string) bool {
	if from == to {
		return false
	}
	if from == db.StatusContratado {
		return false
	}
	if to == db.StatusRechazado {
		return true
	}
	if from == db.StatusRechazado {
		return to == db.StatusEnRevision
	}

	fromRank, ok := statusRank[from]
	if !ok {
		return false
	}
	toRank, ok := statusRank[to]
	if !ok {
		return false
	}
	return toRank > fromRank
}

// ValidStatus reports whether the value is a known application status.
func ValidStatus(status string) bool {
	if status == db.StatusRechazado {
		return true
	}
	_, ok := statusRank[status]
	return ok
}

func transitionError(from, to string) error {
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}
