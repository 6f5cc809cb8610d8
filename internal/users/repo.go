package users

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/propscout/propscout-backend/pkg/db/models"
	"github.com/propscout/propscout-backend/pkg/enums"
)

const maxListLimit = 200

// Repository reads and writes the users table. Lookups that miss return
// gorm.ErrRecordNotFound unchanged so services can map it.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) table(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.User{})
}

func (r *Repository) first(ctx context.Context, column string, value any) (*models.User, error) {
	u := &models.User{}
	if err := r.db.WithContext(ctx).Where(column+" = ?", value).Take(u).Error; err != nil {
		return nil, err
	}
	return u, nil
}

func (r *Repository) Create(ctx context.Context, in CreateUserDTO) (*models.User, error) {
	u := in.ToModel()
	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		return nil, err
	}
	return u, nil
}

// FindByEmail expects an already normalised (lowercase) address.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.first(ctx, "email", email)
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.first(ctx, "id", id)
}

func (r *Repository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.table(ctx).Where("id = ?", id).UpdateColumn("last_login_at", at).Error
}

func (r *Repository) UpdateRole(ctx context.Context, id uuid.UUID, role enums.Role) error {
	res := r.table(ctx).Where("id = ?", id).Updates(map[string]any{
		"role":       role,
		"updated_at": time.Now().UTC(),
	})
	switch {
	case res.Error != nil:
		return res.Error
	case res.RowsAffected == 0:
		return gorm.ErrRecordNotFound
	}
	return nil
}

// List pages through accounts newest first, optionally restricted to a role.
func (r *Repository) List(ctx context.Context, f ListFilter) ([]models.User, error) {
	limit := f.Limit
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}
	q := r.table(ctx)
	if f.Role != nil {
		q = q.Where("role = ?", *f.Role)
	}
	var out []models.User
	err := q.Order("created_at DESC, id DESC").Limit(limit).Offset(f.Offset).Find(&out).Error
	return out, err
}

func (r *Repository) CountByRole(ctx context.Context) (map[enums.Role]int64, error) {
	var rows []struct {
		Role  enums.Role
		Total int64
	}
	err := r.table(ctx).Select("role, COUNT(*) AS total").Group("role").Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[enums.Role]int64, len(rows))
	for _, row := range rows {
		out[row.Role] = row.Total
	}
	return out, nil
}
