package models

import (
	"time"

	"github.com/google/uuid"
)

// PaymentWebhookEvent records each processed gateway event once.
type PaymentWebhookEvent struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Provider  string    `gorm:"column:provider;not null"`
	Event     string    `gorm:"column:event;not null"`
	Reference string    `gorm:"column:reference;not null"`
	Payload   string    `gorm:"column:payload;type:jsonb"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
