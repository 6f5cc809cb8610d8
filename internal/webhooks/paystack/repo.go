package paystackwebhook

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/propscout/propscout-backend/pkg/db/models"
)

// EventRepository stores one row per processed gateway event.
type EventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) WithTx(tx *gorm.DB) *EventRepository {
	if tx == nil {
		return r
	}
	return &EventRepository{db: tx}
}

func (r *EventRepository) Exists(ctx context.Context, provider, event, reference string) (bool, error) {
	var row models.PaymentWebhookEvent
	err := r.db.WithContext(ctx).
		Where("provider = ? AND event = ? AND reference = ?", provider, event, reference).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (r *EventRepository) Create(ctx context.Context, row *models.PaymentWebhookEvent) error {
	return r.db.WithContext(ctx).Create(row).Error
}
