package media

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/propscout/propscout-backend/pkg/db/models"
)

// Repository persists visit proof rows.
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

func (r *Repository) Create(ctx context.Context, media *models.Media) error {
	return r.db.WithContext(ctx).Create(media).Error
}

func (r *Repository) ListByVisit(ctx context.Context, visitID uuid.UUID) ([]models.Media, error) {
	var list []models.Media
	err := r.db.WithContext(ctx).
		Where("visit_request_id = ?", visitID).
		Order("created_at ASC").
		Find(&list).Error
	return list, err
}
