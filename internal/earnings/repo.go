package earnings

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/propscout/propscout-backend/pkg/db/models"
)

// Repository reads and appends scout payout rows.
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

func (r *Repository) Create(ctx context.Context, earning *models.ScoutEarning) error {
	return r.db.WithContext(ctx).Create(earning).Error
}

func (r *Repository) ListByScout(ctx context.Context, scoutID uuid.UUID) ([]models.ScoutEarning, error) {
	var list []models.ScoutEarning
	err := r.db.WithContext(ctx).
		Where("scout_id = ?", scoutID).
		Order("created_at DESC, id DESC").
		Find(&list).Error
	return list, err
}

func (r *Repository) TotalByScout(ctx context.Context, scoutID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.ScoutEarning{}).
		Where("scout_id = ?", scoutID).
		Select("COALESCE(SUM(amount_kobo), 0)").
		Scan(&total).Error
	return total, err
}
