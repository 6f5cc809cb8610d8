package models

import (
	"time"

	"github.com/google/uuid"
)

// ScoutEarning is an append-only payout entry, one per completed visit.
type ScoutEarning struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ScoutID        uuid.UUID `gorm:"column:scout_id;type:uuid;not null" json:"scout_id"`
	VisitRequestID uuid.UUID `gorm:"column:visit_request_id;type:uuid;not null;unique" json:"visit_request_id"`
	AmountKobo     int64     `gorm:"column:amount_kobo;not null" json:"amount_kobo"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}
