package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/propscout/propscout-backend/pkg/enums"
)

type Dispute struct {
	ID             uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	VisitRequestID uuid.UUID           `gorm:"column:visit_request_id;type:uuid;not null" json:"visit_request_id"`
	ReporterID     uuid.UUID           `gorm:"column:reporter_id;type:uuid;not null" json:"reporter_id"`
	Reason         string              `gorm:"column:reason;not null" json:"reason"`
	Description    *string             `gorm:"column:description" json:"description,omitempty"`
	Status         enums.DisputeStatus `gorm:"column:status;type:text;not null" json:"status"`
	Resolution     *string             `gorm:"column:resolution" json:"resolution,omitempty"`
	ResolvedBy     *uuid.UUID          `gorm:"column:resolved_by;type:uuid" json:"resolved_by,omitempty"`
	ResolvedAt     *time.Time          `gorm:"column:resolved_at" json:"resolved_at,omitempty"`
	CreatedAt      time.Time           `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time           `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
