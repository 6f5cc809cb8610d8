package disputes

import (
	"fmt"

	"github.com/propscout/propscout-backend/pkg/enums"
	pkgerrors "github.com/propscout/propscout-backend/pkg/errors"
)

var allowedTransitions = map[enums.DisputeStatus][]enums.DisputeStatus{
	enums.DisputeStatusOpen:     {enums.DisputeStatusInReview, enums.DisputeStatusResolved, enums.DisputeStatusClosed},
	enums.DisputeStatusInReview: {enums.DisputeStatusResolved, enums.DisputeStatusClosed},
}

// CanTransition reports whether a dispute may move from one status to another.
func CanTransition(from, to enums.DisputeStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func transitionError(from, to enums.DisputeStatus) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("dispute cannot move from %s to %s", from, to)).
		WithDetails(map[string]any{"from": from, "to": to})
}
