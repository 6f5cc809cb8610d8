package subscriptions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/propscout/propscout-backend/internal/activity"
	"github.com/propscout/propscout-backend/internal/properties"
	"github.com/propscout/propscout-backend/pkg/db/models"
	"github.com/propscout/propscout-backend/pkg/enums"
	pkgerrors "github.com/propscout/propscout-backend/pkg/errors"
)

// PendingInput describes a subscription created before checkout.
type PendingInput struct {
	PropertyID uuid.UUID
	UserID     uuid.UUID
	Plan       enums.SubscriptionPlan
	AmountKobo int64
	Reference  string
}

// PaidInput carries webhook metadata used when no PENDING row exists.
type PaidInput struct {
	Reference  string
	PropertyID uuid.UUID
	UserID     uuid.UUID
	Plan       enums.SubscriptionPlan
	AmountKobo int64
}

// Service manages the monitoring subscription lifecycle.
type Service interface {
	CreatePending(ctx context.Context, input PendingInput) (*models.Subscription, error)
	// Activate returns the subscription and whether this call changed it.
	Activate(ctx context.Context, tx *gorm.DB, input PaidInput) (*models.Subscription, bool, error)
	ListForUser(ctx context.Context, userID uuid.UUID, role enums.Role, propertyID *uuid.UUID) ([]models.Subscription, error)
	ExpireLapsed(ctx context.Context) (int64, error)
}

type propertyLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Property, error)
	WithTx(tx *gorm.DB) *properties.Repository
}

type service struct {
	repo       *Repository
	properties propertyLoader
	activity   activity.Recorder
	period     time.Duration
	now        func() time.Time
}

// NewService builds the subscription service. periodDays is the length of a
// billing cycle.
func NewService(repo *Repository, props propertyLoader, recorder activity.Recorder, periodDays int) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("subscriptions repository required")
	}
	if props == nil {
		return nil, fmt.Errorf("properties repository required")
	}
	if recorder == nil {
		return nil, fmt.Errorf("activity recorder required")
	}
	if periodDays <= 0 {
		return nil, fmt.Errorf("subscription period must be positive")
	}
	return &service{
		repo:       repo,
		properties: props,
		activity:   recorder,
		period:     time.Duration(periodDays) * 24 * time.Hour,
		now:        time.Now,
	}, nil
}

func (s *service) CreatePending(ctx context.Context, input PendingInput) (*models.Subscription, error) {
	if !input.Plan.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid subscription plan")
	}
	if input.Reference == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment reference required")
	}
	now := s.now().UTC()
	reference := input.Reference
	sub := &models.Subscription{
		ID:                 uuid.New(),
		PropertyID:         input.PropertyID,
		UserID:             input.UserID,
		Plan:               input.Plan,
		Status:             enums.SubscriptionStatusPending,
		AmountKobo:         input.AmountKobo,
		PaymentReference:   &reference,
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   now.Add(s.period),
	}
	if err := s.repo.Create(ctx, sub); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create pending subscription")
	}
	return sub, nil
}

func (s *service) Activate(ctx context.Context, tx *gorm.DB, input PaidInput) (*models.Subscription, bool, error) {
	if input.Reference == "" {
		return nil, false, pkgerrors.New(pkgerrors.CodeValidation, "payment reference required")
	}
	repo := s.repo.WithTx(tx)
	now := s.now().UTC()

	sub, err := repo.FindByReference(ctx, input.Reference)
	switch {
	case err == nil:
		rows, err := repo.Activate(ctx, sub.ID, now)
		if err != nil {
			return nil, false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "activate subscription")
		}
		if rows == 0 {
			return sub, false, nil
		}
		sub.Status = enums.SubscriptionStatusActive
		sub.ActivatedAt = &now
	case errors.Is(err, gorm.ErrRecordNotFound):
		sub, err = s.createActive(ctx, repo, input, now)
		if err != nil {
			return nil, false, err
		}
	default:
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup subscription")
	}

	property, err := s.properties.WithTx(tx).FindByID(ctx, sub.PropertyID)
	if err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load property")
	}
	if err := s.activity.Record(ctx, tx, activity.Entry{
		UserID:     sub.UserID,
		Type:       enums.ActivityTypeSubscriptionActivated,
		Message:    fmt.Sprintf("%s monitoring is active for %s until %s", sub.Plan, property.Name, sub.CurrentPeriodEnd.Format("2006-01-02")),
		PropertyID: &property.ID,
	}); err != nil {
		return nil, false, err
	}
	return sub, true, nil
}

// createActive covers payments initialized before the PENDING row existed.
func (s *service) createActive(ctx context.Context, repo *Repository, input PaidInput, now time.Time) (*models.Subscription, error) {
	if input.PropertyID == uuid.Nil || input.UserID == uuid.Nil || !input.Plan.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no subscription matches the payment reference")
	}
	reference := input.Reference
	sub := &models.Subscription{
		ID:                 uuid.New(),
		PropertyID:         input.PropertyID,
		UserID:             input.UserID,
		Plan:               input.Plan,
		Status:             enums.SubscriptionStatusActive,
		AmountKobo:         input.AmountKobo,
		PaymentReference:   &reference,
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   now.Add(s.period),
		ActivatedAt:        &now,
	}
	if err := repo.Create(ctx, sub); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create subscription from payment")
	}
	return sub, nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID, role enums.Role, propertyID *uuid.UUID) ([]models.Subscription, error) {
	var (
		list []models.Subscription
		err  error
	)
	if propertyID != nil {
		property, loadErr := s.properties.FindByID(ctx, *propertyID)
		if loadErr != nil {
			if errors.Is(loadErr, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "property not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, loadErr, "load property")
		}
		if err := properties.CheckAccess(property, userID, role); err != nil {
			return nil, err
		}
		list, err = s.repo.ListByProperty(ctx, *propertyID)
	} else {
		list, err = s.repo.ListByUser(ctx, userID)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list subscriptions")
	}
	if list == nil {
		list = []models.Subscription{}
	}
	return list, nil
}

func (s *service) ExpireLapsed(ctx context.Context) (int64, error) {
	n, err := s.repo.ExpireLapsed(ctx, s.now().UTC())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "expire subscriptions")
	}
	return n, nil
}
