package visits

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/propscout/propscout-backend/pkg/db/models"
	"github.com/propscout/propscout-backend/pkg/enums"
	pkgerrors "github.com/propscout/propscout-backend/pkg/errors"
)

// DateLayout is the wire format for scheduled dates.
const DateLayout = "2006-01-02"

// CreateVisitInput is the client request to schedule an ad-hoc visit.
type CreateVisitInput struct {
	PropertyID    uuid.UUID `json:"property_id" validate:"required"`
	ScheduledDate string    `json:"scheduled_date" validate:"required"`
	Instructions  *string   `json:"instructions,omitempty"`
}

// PaidVisitInput is built by the payment webhook from transaction metadata.
type PaidVisitInput struct {
	PropertyID       uuid.UUID
	RequestedBy      uuid.UUID
	ScheduledDate    string
	Instructions     *string
	PaymentReference string
}

// RateInput carries a client's 1-5 score for a completed visit.
type RateInput struct {
	Rating int `json:"rating" validate:"required,min=1,max=5"`
}

// ListFilter narrows the admin listing.
type ListFilter struct {
	Status *enums.VisitStatus
	Limit  int
	Offset int
}

// Job is a PENDING visit as shown on the scout job board.
type Job struct {
	ID            uuid.UUID `json:"id"`
	PropertyID    uuid.UUID `json:"property_id"`
	ScheduledDate time.Time `json:"scheduled_date"`
	Instructions  *string   `json:"instructions,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	PropertyName  string    `json:"property_name"`
	Address       string    `json:"address"`
	City          string    `json:"city"`
	State         *string   `json:"state,omitempty"`
	Latitude      *float64  `json:"lat,omitempty"`
	Longitude     *float64  `json:"lng,omitempty"`
}

// Detail is a visit with its proof media.
type Detail struct {
	models.VisitRequest
	Media []models.Media `json:"media"`
}

// CompletionResult summarizes what a completion wrote.
type CompletionResult struct {
	Visit        *models.VisitRequest `json:"visit"`
	Media        *models.Media        `json:"media"`
	EarningKobo  int64                `json:"earning_kobo"`
	Achievements []models.Achievement `json:"achievements_unlocked"`
}

func parseScheduledDate(value string) (time.Time, error) {
	clean := strings.TrimSpace(value)
	if clean == "" {
		return time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "scheduled_date is required")
	}
	date, err := time.ParseInLocation(DateLayout, clean, time.UTC)
	if err != nil {
		return time.Time{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "scheduled_date must be YYYY-MM-DD")
	}
	return date, nil
}

func cleanInstructions(value *string) *string {
	if value == nil {
		return nil
	}
	v := strings.TrimSpace(*value)
	if v == "" {
		return nil
	}
	return &v
}
