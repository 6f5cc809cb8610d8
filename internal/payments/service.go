package payments

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/propscout/propscout-backend/internal/subscriptions"
	"github.com/propscout/propscout-backend/internal/visits"
	"github.com/propscout/propscout-backend/pkg/config"
	"github.com/propscout/propscout-backend/pkg/db/models"
	"github.com/propscout/propscout-backend/pkg/enums"
	pkgerrors "github.com/propscout/propscout-backend/pkg/errors"
	"github.com/propscout/propscout-backend/pkg/logger"
	"github.com/propscout/propscout-backend/pkg/paystack"
	"github.com/propscout/propscout-backend/pkg/security"
)

const (
	referencePrefix = "ps_"
	referenceBytes  = 12
)

// Gateway is the slice of the Paystack client checkout needs.
type Gateway interface {
	InitializeTransaction(ctx context.Context, req paystack.InitializeRequest) (*paystack.InitializeResult, error)
	VerifyTransaction(ctx context.Context, reference string) (*paystack.Transaction, error)
}

type propertyFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Property, error)
}

type userFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type pendingCreator interface {
	CreatePending(ctx context.Context, input subscriptions.PendingInput) (*models.Subscription, error)
}

// Service starts checkouts and resolves gateway redirects.
type Service interface {
	Initialize(ctx context.Context, userID uuid.UUID, input InitializeInput) (*InitializeResult, error)
	// Callback returns the frontend URL the browser is redirected to.
	Callback(ctx context.Context, reference string) (string, error)
}

type ServiceParams struct {
	Gateway       Gateway
	Properties    propertyFinder
	Users         userFinder
	Subscriptions pendingCreator
	Pricing       config.PricingConfig
	CallbackURL   string
	FrontendURL   string
	Logger        *logger.Logger
}

type prices struct {
	basic   int64
	premium int64
	visit   int64
}

type service struct {
	gateway       Gateway
	properties    propertyFinder
	users         userFinder
	subscriptions pendingCreator
	prices        prices
	currency      string
	callbackURL   string
	frontendURL   *url.URL
	logg          *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if params.Properties == nil {
		return nil, fmt.Errorf("properties repository required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if params.Subscriptions == nil {
		return nil, fmt.Errorf("subscriptions service required")
	}
	frontend, err := url.Parse(params.FrontendURL)
	if err != nil || frontend.Scheme == "" {
		return nil, fmt.Errorf("invalid frontend url %q", params.FrontendURL)
	}

	var p prices
	for _, item := range []struct {
		raw string
		dst *int64
	}{
		{params.Pricing.BasicMonthly, &p.basic},
		{params.Pricing.PremiumMonthly, &p.premium},
		{params.Pricing.OneOffVisit, &p.visit},
	} {
		kobo, err := config.Kobo(item.raw)
		if err != nil {
			return nil, err
		}
		*item.dst = kobo
	}

	return &service{
		gateway:       params.Gateway,
		properties:    params.Properties,
		users:         params.Users,
		subscriptions: params.Subscriptions,
		prices:        p,
		currency:      params.Pricing.Currency,
		callbackURL:   params.CallbackURL,
		frontendURL:   frontend,
		logg:          params.Logger,
	}, nil
}

func (s *service) Initialize(ctx context.Context, userID uuid.UUID, input InitializeInput) (*InitializeResult, error) {
	txType, err := enums.ParseTransactionType(strings.ToUpper(strings.TrimSpace(input.TransactionType)))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid transaction type")
	}

	property, err := s.properties.FindByID(ctx, input.PropertyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "property not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load property")
	}
	if property.OwnerID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "property belongs to another client")
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}

	reference, err := security.RandomReference(referencePrefix, referenceBytes)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate payment reference")
	}

	metadata := paystack.Metadata{
		TransactionType: txType.String(),
		PropertyID:      property.ID.String(),
		UserID:          userID.String(),
	}

	var amount int64
	switch txType {
	case enums.TransactionTypeSubscription:
		plan, err := enums.ParseSubscriptionPlan(strings.ToUpper(strings.TrimSpace(input.Plan)))
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid subscription plan")
		}
		amount = s.prices.basic
		if plan == enums.SubscriptionPlanPremium {
			amount = s.prices.premium
		}
		metadata.Plan = plan.String()
		if _, err := s.subscriptions.CreatePending(ctx, subscriptions.PendingInput{
			PropertyID: property.ID,
			UserID:     userID,
			Plan:       plan,
			AmountKobo: amount,
			Reference:  reference,
		}); err != nil {
			return nil, err
		}
	case enums.TransactionTypeVisit:
		scheduled := strings.TrimSpace(input.ScheduledDate)
		if _, err := time.Parse(visits.DateLayout, scheduled); err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "scheduled_date must be YYYY-MM-DD")
		}
		amount = s.prices.visit
		metadata.ScheduledDate = scheduled
		metadata.Instructions = strings.TrimSpace(input.Instructions)
	}

	result, err := s.gateway.InitializeTransaction(ctx, paystack.InitializeRequest{
		Email:       user.Email,
		AmountKobo:  amount,
		Currency:    s.currency,
		Reference:   reference,
		CallbackURL: s.callbackURL,
		Metadata:    metadata,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "initialize payment")
	}

	return &InitializeResult{
		AuthorizationURL: result.AuthorizationURL,
		Reference:        reference,
		AmountKobo:       amount,
		Currency:         s.currency,
	}, nil
}

func (s *service) Callback(ctx context.Context, reference string) (string, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "reference is required")
	}

	status := "unverified"
	tx, err := s.gateway.VerifyTransaction(ctx, reference)
	if err != nil {
		if s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "reference", reference), "payment callback verification failed")
		}
	} else if tx.Status != "" {
		status = tx.Status
	}

	target := *s.frontendURL
	q := target.Query()
	q.Set("reference", reference)
	q.Set("status", status)
	target.RawQuery = q.Encode()
	return target.String(), nil
}
