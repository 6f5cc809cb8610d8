package visits

import (
	"fmt"

	"github.com/propscout/propscout-backend/pkg/enums"
	pkgerrors "github.com/propscout/propscout-backend/pkg/errors"
)

var allowedTransitions = map[enums.VisitStatus][]enums.VisitStatus{
	enums.VisitStatusPending:  {enums.VisitStatusAssigned},
	enums.VisitStatusAssigned: {enums.VisitStatusCompleted, enums.VisitStatusPending},
}

// CanTransition reports whether a visit may move from one status to another.
// ASSIGNED -> PENDING is only taken when an expired claim is released.
func CanTransition(from, to enums.VisitStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func transitionError(from, to enums.VisitStatus) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("visit cannot move from %s to %s", from, to)).
		WithDetails(map[string]any{"from": from, "to": to})
}
