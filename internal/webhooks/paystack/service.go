package paystackwebhook

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/propscout/propscout-backend/internal/subscriptions"
	"github.com/propscout/propscout-backend/internal/visits"
	"github.com/propscout/propscout-backend/pkg/db"
	"github.com/propscout/propscout-backend/pkg/db/models"
	"github.com/propscout/propscout-backend/pkg/enums"
	pkgerrors "github.com/propscout/propscout-backend/pkg/errors"
	"github.com/propscout/propscout-backend/pkg/logger"
	"github.com/propscout/propscout-backend/pkg/metrics"
	"github.com/propscout/propscout-backend/pkg/paystack"
)

const provider = "paystack"

var (
	errDuplicateEvent = errors.New("webhook event already recorded")
	// errUnusablePayload marks a signed delivery that no retry can fix.
	errUnusablePayload = errors.New("webhook payload unusable")
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type signatureVerifier interface {
	VerifySignature(body []byte, signature string) bool
}

type subscriptionActivator interface {
	Activate(ctx context.Context, tx *gorm.DB, input subscriptions.PaidInput) (*models.Subscription, bool, error)
}

type paidVisitCreator interface {
	CreateFromPayment(ctx context.Context, tx *gorm.DB, input visits.PaidVisitInput) (*models.VisitRequest, error)
}

type ServiceParams struct {
	Verifier          signatureVerifier
	Events            *EventRepository
	Subscriptions     subscriptionActivator
	Visits            paidVisitCreator
	TransactionRunner txRunner
	Guard             *IdempotencyGuard
	Metrics           *metrics.WebhookMetrics
	Logger            *logger.Logger
}

// Service turns verified Paystack deliveries into subscription activations
// and paid visits.
type Service struct {
	verifier      signatureVerifier
	events        *EventRepository
	subscriptions subscriptionActivator
	visits        paidVisitCreator
	txRunner      txRunner
	guard         *IdempotencyGuard
	metrics       *metrics.WebhookMetrics
	logg          *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Verifier == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "signature verifier required")
	}
	if params.Events == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "webhook event repo required")
	}
	if params.Subscriptions == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "subscriptions service required")
	}
	if params.Visits == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "visits service required")
	}
	if params.TransactionRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	return &Service{
		verifier:      params.Verifier,
		events:        params.Events,
		subscriptions: params.Subscriptions,
		visits:        params.Visits,
		txRunner:      params.TransactionRunner,
		guard:         params.Guard,
		metrics:       params.Metrics,
		logg:          params.Logger,
	}, nil
}

// HandleDelivery verifies and applies one raw webhook body. It returns the
// outcome label recorded in metrics.
func (s *Service) HandleDelivery(ctx context.Context, body []byte, signature string) (string, error) {
	if !s.verifier.VerifySignature(body, signature) {
		s.metrics.Inc("unknown", metrics.OutcomeInvalidSignature)
		return metrics.OutcomeInvalidSignature, pkgerrors.New(pkgerrors.CodeValidation, "invalid webhook signature")
	}

	event, err := paystack.ParseEvent(body)
	if err != nil {
		s.metrics.Inc("unknown", metrics.OutcomeFailed)
		return metrics.OutcomeFailed, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode webhook payload")
	}

	outcome, err := s.handleEvent(ctx, event, body)
	s.metrics.Inc(event.Event, outcome)
	return outcome, err
}

func (s *Service) handleEvent(ctx context.Context, event *paystack.Event, body []byte) (string, error) {
	if event.Event != paystack.EventChargeSuccess {
		return metrics.OutcomeIgnored, nil
	}
	reference := strings.TrimSpace(event.Data.Reference)
	if reference == "" {
		s.fail(ctx, "paystack charge without reference acknowledged", errUnusablePayload)
		return metrics.OutcomeFailed, nil
	}
	if s.logg != nil {
		ctx = s.logg.WithFields(ctx, map[string]any{"event": event.Event, "reference": reference})
	}

	deliveryID := event.Event + ":" + reference
	if s.guard != nil {
		seen, err := s.guard.CheckAndMark(ctx, deliveryID)
		if err != nil {
			// Redis is an optimization; the events table still dedupes.
			s.warn(ctx, "webhook idempotency guard unavailable")
		} else if seen {
			return metrics.OutcomeDuplicate, nil
		}
	}

	outcome := metrics.OutcomeProcessed
	err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		events := s.events.WithTx(tx)
		exists, err := events.Exists(ctx, provider, event.Event, reference)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup webhook event")
		}
		if exists {
			return errDuplicateEvent
		}
		if err := events.Create(ctx, &models.PaymentWebhookEvent{
			ID:        uuid.New(),
			Provider:  provider,
			Event:     event.Event,
			Reference: reference,
			Payload:   string(body),
		}); err != nil {
			if db.IsUniqueViolation(err, "") {
				return errDuplicateEvent
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record webhook event")
		}

		switch transactionType(event.Data.Metadata) {
		case enums.TransactionTypeVisit:
			applied, err := s.scheduleVisit(ctx, tx, event.Data)
			if errors.Is(err, errUnusablePayload) {
				// The event row stays so redeliveries resolve as duplicates.
				s.fail(ctx, "paid visit could not be scheduled from metadata", err)
				outcome = metrics.OutcomeFailed
				return nil
			}
			if err != nil {
				return err
			}
			if !applied {
				outcome = metrics.OutcomeDuplicate
			}
		default:
			applied, err := s.activateSubscription(ctx, tx, event.Data)
			if err != nil {
				return err
			}
			if !applied {
				outcome = metrics.OutcomeIgnored
			}
		}
		return nil
	})

	switch {
	case errors.Is(err, errDuplicateEvent):
		return metrics.OutcomeDuplicate, nil
	case err != nil:
		if s.guard != nil {
			if delErr := s.guard.Delete(ctx, deliveryID); delErr != nil {
				s.warn(ctx, "failed to clear webhook idempotency key")
			}
		}
		s.fail(ctx, "paystack webhook processing failed", err)
		return metrics.OutcomeFailed, err
	}
	return outcome, nil
}

// transactionType reads the explicit discriminator. Payloads written before
// it existed are told apart by the presence of a scheduled date.
func transactionType(meta paystack.Metadata) enums.TransactionType {
	if parsed, err := enums.ParseTransactionType(strings.ToUpper(strings.TrimSpace(meta.TransactionType))); err == nil {
		return parsed
	}
	if strings.TrimSpace(meta.ScheduledDate) != "" {
		return enums.TransactionTypeVisit
	}
	return enums.TransactionTypeSubscription
}

func (s *Service) scheduleVisit(ctx context.Context, tx *gorm.DB, data paystack.Transaction) (bool, error) {
	propertyID, err := uuid.Parse(data.Metadata.PropertyID)
	if err != nil {
		return false, fmt.Errorf("%w: property_id %q", errUnusablePayload, data.Metadata.PropertyID)
	}
	userID, err := uuid.Parse(data.Metadata.UserID)
	if err != nil {
		return false, fmt.Errorf("%w: user_id %q", errUnusablePayload, data.Metadata.UserID)
	}
	var instructions *string
	if v := strings.TrimSpace(data.Metadata.Instructions); v != "" {
		instructions = &v
	}

	_, err = s.visits.CreateFromPayment(ctx, tx, visits.PaidVisitInput{
		PropertyID:       propertyID,
		RequestedBy:      userID,
		ScheduledDate:    data.Metadata.ScheduledDate,
		Instructions:     instructions,
		PaymentReference: data.Reference,
	})
	if errors.Is(err, visits.ErrAlreadyRecorded) {
		return false, nil
	}
	if err != nil {
		switch pkgerrors.CodeOf(err) {
		case pkgerrors.CodeValidation, pkgerrors.CodeNotFound:
			return false, fmt.Errorf("%w: %w", errUnusablePayload, err)
		}
		return false, err
	}
	return true, nil
}

func (s *Service) activateSubscription(ctx context.Context, tx *gorm.DB, data paystack.Transaction) (bool, error) {
	input := subscriptions.PaidInput{
		Reference:  data.Reference,
		AmountKobo: data.AmountKobo,
	}
	if id, err := uuid.Parse(data.Metadata.PropertyID); err == nil {
		input.PropertyID = id
	}
	if id, err := uuid.Parse(data.Metadata.UserID); err == nil {
		input.UserID = id
	}
	if plan, err := enums.ParseSubscriptionPlan(strings.ToUpper(data.Metadata.Plan)); err == nil {
		input.Plan = plan
	}

	_, changed, err := s.subscriptions.Activate(ctx, tx, input)
	if err != nil {
		if pkgerrors.As(err).Code() == pkgerrors.CodeNotFound {
			s.warn(ctx, "no subscription matches paid reference")
			return false, nil
		}
		return false, err
	}
	return changed, nil
}

func (s *Service) fail(ctx context.Context, msg string, err error) {
	if s.logg != nil {
		s.logg.Error(ctx, msg, err)
	}
}

func (s *Service) warn(ctx context.Context, msg string) {
	if s.logg != nil {
		s.logg.Warn(ctx, msg)
	}
}
