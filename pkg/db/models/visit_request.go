package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/propscout/propscout-backend/pkg/enums"
)

// VisitRequest is one scheduled inspection of a property.
type VisitRequest struct {
	ID               uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	PropertyID       uuid.UUID         `gorm:"column:property_id;type:uuid;not null" json:"property_id"`
	RequestedBy      uuid.UUID         `gorm:"column:requested_by;type:uuid;not null" json:"requested_by"`
	Status           enums.VisitStatus `gorm:"column:status;type:text;not null" json:"status"`
	Source           enums.VisitSource `gorm:"column:source;type:text;not null" json:"source"`
	ScheduledDate    time.Time         `gorm:"column:scheduled_date;type:date;not null" json:"scheduled_date"`
	Instructions     *string           `gorm:"column:instructions" json:"instructions,omitempty"`
	AssignedScoutID  *uuid.UUID        `gorm:"column:assigned_scout_id;type:uuid" json:"assigned_scout_id,omitempty"`
	ClaimedAt        *time.Time        `gorm:"column:claimed_at" json:"claimed_at,omitempty"`
	ClaimExpiresAt   *time.Time        `gorm:"column:claim_expires_at" json:"claim_expires_at,omitempty"`
	CompletedAt      *time.Time        `gorm:"column:completed_at" json:"completed_at,omitempty"`
	ClientRating     *int              `gorm:"column:client_rating" json:"client_rating,omitempty"`
	PaymentReference *string           `gorm:"column:payment_reference;uniqueIndex" json:"payment_reference,omitempty"`
	CreatedAt        time.Time         `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time         `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
