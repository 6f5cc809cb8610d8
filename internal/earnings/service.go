package earnings

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/propscout/propscout-backend/pkg/config"
	"github.com/propscout/propscout-backend/pkg/db"
	"github.com/propscout/propscout-backend/pkg/db/models"
	pkgerrors "github.com/propscout/propscout-backend/pkg/errors"
)

// Summary is the scout earnings view.
type Summary struct {
	Items     []models.ScoutEarning `json:"items"`
	TotalKobo int64                 `json:"total_kobo"`
	Currency  string                `json:"currency"`
}

// Service credits scouts for completed visits.
type Service interface {
	Credit(ctx context.Context, tx *gorm.DB, scoutID, visitID uuid.UUID) (*models.ScoutEarning, error)
	Summary(ctx context.Context, scoutID uuid.UUID) (*Summary, error)
}

type service struct {
	repo       *Repository
	payoutKobo int64
	currency   string
	now        func() time.Time
}

// NewService converts the configured naira payout to kobo once at startup.
func NewService(repo *Repository, pricing config.PricingConfig) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "earnings repository required")
	}
	payout, err := config.Kobo(pricing.ScoutVisitPayout)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "scout payout")
	}
	return &service{repo: repo, payoutKobo: payout, currency: pricing.Currency, now: time.Now}, nil
}

func (s *service) Credit(ctx context.Context, tx *gorm.DB, scoutID, visitID uuid.UUID) (*models.ScoutEarning, error) {
	earning := &models.ScoutEarning{
		ID:             uuid.New(),
		ScoutID:        scoutID,
		VisitRequestID: visitID,
		AmountKobo:     s.payoutKobo,
		CreatedAt:      s.now().UTC(),
	}
	if err := s.repo.WithTx(tx).Create(ctx, earning); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "visit already credited")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "credit scout")
	}
	return earning, nil
}

func (s *service) Summary(ctx context.Context, scoutID uuid.UUID) (*Summary, error) {
	items, err := s.repo.ListByScout(ctx, scoutID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list earnings")
	}
	total, err := s.repo.TotalByScout(ctx, scoutID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "sum earnings")
	}
	if items == nil {
		items = []models.ScoutEarning{}
	}
	return &Summary{Items: items, TotalKobo: total, Currency: s.currency}, nil
}
