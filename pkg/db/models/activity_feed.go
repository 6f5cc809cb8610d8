package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/propscout/propscout-backend/pkg/enums"
)

// ActivityFeedEntry is an append-only record shown in a user's feed.
type ActivityFeedEntry struct {
	ID             uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID         uuid.UUID          `gorm:"column:user_id;type:uuid;not null" json:"user_id"`
	Type           enums.ActivityType `gorm:"column:type;type:text;not null" json:"type"`
	Message        string             `gorm:"column:message;not null" json:"message"`
	PropertyID     *uuid.UUID         `gorm:"column:property_id;type:uuid" json:"property_id,omitempty"`
	VisitRequestID *uuid.UUID         `gorm:"column:visit_request_id;type:uuid" json:"visit_request_id,omitempty"`
	CreatedAt      time.Time          `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (ActivityFeedEntry) TableName() string {
	return "activity_feed"
}
