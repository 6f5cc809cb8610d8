package models

import (
	"time"

	"github.com/google/uuid"
)

// Media is the photo proof attached to a completed visit.
type Media struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	VisitRequestID uuid.UUID `gorm:"column:visit_request_id;type:uuid;not null" json:"visit_request_id"`
	UploadedBy     uuid.UUID `gorm:"column:uploaded_by;type:uuid;not null" json:"uploaded_by"`
	URL            string    `gorm:"column:url;not null" json:"url"`
	ObjectKey      string    `gorm:"column:object_key;not null;unique" json:"-"`
	MimeType       string    `gorm:"column:mime_type;not null" json:"mime_type"`
	SizeBytes      int64     `gorm:"column:size_bytes;not null" json:"size_bytes"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Media) TableName() string {
	return "media"
}
