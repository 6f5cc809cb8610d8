package achievements

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/propscout/propscout-backend/pkg/db/models"
)

// Award is a scout achievement joined with its catalogue entry.
type Award struct {
	AchievementID uuid.UUID `json:"achievement_id"`
	Code          string    `json:"code"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Threshold     int       `json:"threshold"`
	AwardedAt     time.Time `json:"awarded_at"`
}

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

// ListUnearned returns catalogue entries with threshold <= completed that the
// scout does not hold yet.
func (r *Repository) ListUnearned(ctx context.Context, scoutID uuid.UUID, completed int64) ([]models.Achievement, error) {
	var list []models.Achievement
	err := r.db.WithContext(ctx).
		Where("threshold <= ?", completed).
		Where("id NOT IN (?)", r.db.Model(&models.ScoutAchievement{}).Select("achievement_id").Where("scout_id = ?", scoutID)).
		Order("threshold ASC").
		Find(&list).Error
	return list, err
}

func (r *Repository) Create(ctx context.Context, award *models.ScoutAchievement) error {
	return r.db.WithContext(ctx).Create(award).Error
}

func (r *Repository) ListAwards(ctx context.Context, scoutID uuid.UUID) ([]Award, error) {
	var list []Award
	err := r.db.WithContext(ctx).
		Table("scout_achievements AS sa").
		Select("a.id AS achievement_id, a.code, a.name, a.description, a.threshold, sa.awarded_at").
		Joins("JOIN achievements AS a ON a.id = sa.achievement_id").
		Where("sa.scout_id = ?", scoutID).
		Order("a.threshold ASC").
		Scan(&list).Error
	return list, err
}
