package subscriptions

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/propscout/propscout-backend/pkg/db/models"
	"github.com/propscout/propscout-backend/pkg/enums"
)

// Repository persists monitoring subscriptions.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, sub *models.Subscription) error {
	return r.db.WithContext(ctx).Create(sub).Error
}

// FindByReference matches payment_reference first and falls back to the
// legacy paystack_reference column.
func (r *Repository) FindByReference(ctx context.Context, reference string) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.WithContext(ctx).First(&sub, "payment_reference = ?", reference).Error
	if err == nil {
		return &sub, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if err := r.db.WithContext(ctx).First(&sub, "paystack_reference = ?", reference).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

// Activate flips a PENDING subscription to ACTIVE. Zero rows means it was
// already activated or expired.
func (r *Repository) Activate(ctx context.Context, id uuid.UUID, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("id = ? AND status = ?", id, enums.SubscriptionStatusPending).
		Updates(map[string]any{
			"status":       enums.SubscriptionStatusActive,
			"activated_at": at,
			"updated_at":   at,
		})
	return res.RowsAffected, res.Error
}

func (r *Repository) ListByProperty(ctx context.Context, propertyID uuid.UUID) ([]models.Subscription, error) {
	var list []models.Subscription
	err := r.db.WithContext(ctx).
		Where("property_id = ?", propertyID).
		Order("created_at DESC, id DESC").
		Find(&list).Error
	return list, err
}

func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Subscription, error) {
	var list []models.Subscription
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&list).Error
	return list, err
}

// ExpireLapsed marks ACTIVE subscriptions past their period end as EXPIRED.
func (r *Repository) ExpireLapsed(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("status = ? AND current_period_end < ?", enums.SubscriptionStatusActive, now).
		Updates(map[string]any{
			"status":     enums.SubscriptionStatusExpired,
			"updated_at": now,
		})
	return res.RowsAffected, res.Error
}

func (r *Repository) CountActive(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("status = ?", enums.SubscriptionStatusActive).
		Count(&total).Error
	return total, err
}
