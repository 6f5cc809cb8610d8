package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/propscout/propscout-backend/pkg/enums"
)

// Subscription is one billing cycle of monitoring for a property.
// PaystackReference is the pre-rename column some rows were written with.
type Subscription struct {
	ID                 uuid.UUID                `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	PropertyID         uuid.UUID                `gorm:"column:property_id;type:uuid;not null" json:"property_id"`
	UserID             uuid.UUID                `gorm:"column:user_id;type:uuid;not null" json:"user_id"`
	Plan               enums.SubscriptionPlan   `gorm:"column:plan;type:text;not null" json:"plan"`
	Status             enums.SubscriptionStatus `gorm:"column:status;type:text;not null" json:"status"`
	AmountKobo         int64                    `gorm:"column:amount_kobo;not null" json:"amount_kobo"`
	PaymentReference   *string                  `gorm:"column:payment_reference;uniqueIndex" json:"payment_reference,omitempty"`
	PaystackReference  *string                  `gorm:"column:paystack_reference" json:"-"`
	CurrentPeriodStart time.Time                `gorm:"column:current_period_start;not null" json:"current_period_start"`
	CurrentPeriodEnd   time.Time                `gorm:"column:current_period_end;not null" json:"current_period_end"`
	ActivatedAt        *time.Time               `gorm:"column:activated_at" json:"activated_at,omitempty"`
	CreatedAt          time.Time                `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time                `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
