package achievements

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/propscout/propscout-backend/pkg/db/models"
	pkgerrors "github.com/propscout/propscout-backend/pkg/errors"
)

// Service awards milestone badges to scouts.
type Service interface {
	// Evaluate inserts every achievement whose threshold the completed count
	// has reached and returns the newly unlocked ones.
	Evaluate(ctx context.Context, tx *gorm.DB, scoutID uuid.UUID, completed int64) ([]models.Achievement, error)
	List(ctx context.Context, scoutID uuid.UUID) ([]Award, error)
}

type service struct {
	repo *Repository
	now  func() time.Time
}

func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "achievements repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

func (s *service) Evaluate(ctx context.Context, tx *gorm.DB, scoutID uuid.UUID, completed int64) ([]models.Achievement, error) {
	repo := s.repo.WithTx(tx)
	pending, err := repo.ListUnearned(ctx, scoutID, completed)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load achievements")
	}

	now := s.now().UTC()
	for _, a := range pending {
		award := &models.ScoutAchievement{
			ID:            uuid.New(),
			ScoutID:       scoutID,
			AchievementID: a.ID,
			AwardedAt:     now,
		}
		if err := repo.Create(ctx, award); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "award achievement")
		}
	}
	return pending, nil
}

func (s *service) List(ctx context.Context, scoutID uuid.UUID) ([]Award, error) {
	list, err := s.repo.ListAwards(ctx, scoutID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list achievements")
	}
	if list == nil {
		list = []Award{}
	}
	return list, nil
}
