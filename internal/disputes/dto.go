package disputes

import (
	"github.com/google/uuid"

	"github.com/propscout/propscout-backend/pkg/enums"
)

// FileInput is a participant's complaint about a visit.
type FileInput struct {
	VisitRequestID uuid.UUID `json:"visit_request_id" validate:"required"`
	Reason         string    `json:"reason" validate:"required,max=200"`
	Description    *string   `json:"description,omitempty" validate:"omitempty,max=4000"`
}

// UpdateInput is an admin decision.
type UpdateInput struct {
	Status     string  `json:"status" validate:"required"`
	Resolution *string `json:"resolution,omitempty" validate:"omitempty,max=4000"`
}

type ListFilter struct {
	Status *enums.DisputeStatus
	// ParticipantID limits results to disputes the user reported or whose
	// visit they own or were assigned. Nil lists everything.
	ParticipantID *uuid.UUID
	Limit         int
	Offset        int
}
