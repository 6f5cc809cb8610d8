package activity

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/propscout/propscout-backend/pkg/db/models"
	"github.com/propscout/propscout-backend/pkg/pagination"
)

// Repository exposes persistence helpers for the activity feed.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, entry *models.ActivityFeedEntry) error
	List(ctx context.Context, params listParams) ([]models.ActivityFeedEntry, *pagination.Cursor, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

type listParams struct {
	UserID uuid.UUID
	Limit  int
	Cursor *pagination.Cursor
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, entry *models.ActivityFeedEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) List(ctx context.Context, params listParams) ([]models.ActivityFeedEntry, *pagination.Cursor, error) {
	query := r.db.WithContext(ctx).Where("user_id = ?", params.UserID)
	if c := params.Cursor; c != nil {
		query = query.Where("(created_at, id) < (?, ?)", c.CreatedAt, c.ID)
	}

	var entries []models.ActivityFeedEntry
	err := query.Order("created_at DESC, id DESC").Limit(pagination.FetchSize(params.Limit)).Find(&entries).Error
	if err != nil {
		return nil, nil, err
	}
	page, next := pagination.Page(entries, params.Limit, func(e models.ActivityFeedEntry) pagination.Cursor {
		return pagination.Cursor{CreatedAt: e.CreatedAt, ID: e.ID}
	})
	return page, next, nil
}
