package visits

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/propscout/propscout-backend/internal/activity"
	"github.com/propscout/propscout-backend/internal/media"
	"github.com/propscout/propscout-backend/internal/properties"
	"github.com/propscout/propscout-backend/pkg/db"
	"github.com/propscout/propscout-backend/pkg/db/models"
	"github.com/propscout/propscout-backend/pkg/enums"
	pkgerrors "github.com/propscout/propscout-backend/pkg/errors"
	"github.com/propscout/propscout-backend/pkg/logger"
	"github.com/propscout/propscout-backend/pkg/metrics"
)

// ErrAlreadyRecorded is returned by CreateFromPayment when the payment
// reference already produced a visit.
var ErrAlreadyRecorded = errors.New("visit already recorded for payment reference")

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type propertyStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Property, error)
	WithTx(tx *gorm.DB) *properties.Repository
}

type mediaStore interface {
	Create(ctx context.Context, m *models.Media) error
	ListByVisit(ctx context.Context, visitID uuid.UUID) ([]models.Media, error)
	WithTx(tx *gorm.DB) *media.Repository
}

type proofUploader interface {
	UploadVisitProof(ctx context.Context, visitID uuid.UUID, input media.UploadInput) (*media.StoredObject, error)
}

type earningsCrediter interface {
	Credit(ctx context.Context, tx *gorm.DB, scoutID, visitID uuid.UUID) (*models.ScoutEarning, error)
}

type achievementEvaluator interface {
	Evaluate(ctx context.Context, tx *gorm.DB, scoutID uuid.UUID, completed int64) ([]models.Achievement, error)
}

// Service owns the visit lifecycle: scheduling, the claim race, completion
// with photo proof, rating and the read views.
type Service interface {
	Create(ctx context.Context, clientID uuid.UUID, input CreateVisitInput) (*models.VisitRequest, error)
	CreateFromPayment(ctx context.Context, tx *gorm.DB, input PaidVisitInput) (*models.VisitRequest, error)
	Claim(ctx context.Context, scoutID, visitID uuid.UUID) (*models.VisitRequest, error)
	Complete(ctx context.Context, scoutID, visitID uuid.UUID, image media.UploadInput) (*CompletionResult, error)
	Rate(ctx context.Context, clientID, visitID uuid.UUID, input RateInput) (*models.VisitRequest, error)
	Get(ctx context.Context, userID uuid.UUID, role enums.Role, visitID uuid.UUID) (*Detail, error)
	ListForProperty(ctx context.Context, userID uuid.UUID, role enums.Role, propertyID uuid.UUID) ([]models.VisitRequest, error)
	ListAssigned(ctx context.Context, scoutID uuid.UUID) ([]models.VisitRequest, error)
	ListJobs(ctx context.Context) ([]Job, error)
	ListAll(ctx context.Context, filter ListFilter) ([]models.VisitRequest, error)
	ReleaseExpiredClaims(ctx context.Context, limit int) (int, error)
}

// ServiceParams bundles the visit service dependencies.
type ServiceParams struct {
	Repo         Repository
	DB           txRunner
	Properties   propertyStore
	Media        mediaStore
	Uploader     proofUploader
	Earnings     earningsCrediter
	Achievements achievementEvaluator
	Activity     activity.Recorder
	ClaimMetrics *metrics.ClaimMetrics
	ClaimWindow  time.Duration
	Logger       *logger.Logger
}

type service struct {
	repo         Repository
	db           txRunner
	properties   propertyStore
	media        mediaStore
	uploader     proofUploader
	earnings     earningsCrediter
	achievements achievementEvaluator
	activity     activity.Recorder
	claims       *metrics.ClaimMetrics
	claimWindow  time.Duration
	logg         *logger.Logger
	now          func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Repo == nil:
		return nil, fmt.Errorf("visits repository required")
	case params.DB == nil:
		return nil, fmt.Errorf("transaction runner required")
	case params.Properties == nil:
		return nil, fmt.Errorf("properties repository required")
	case params.Media == nil:
		return nil, fmt.Errorf("media repository required")
	case params.Uploader == nil:
		return nil, fmt.Errorf("proof uploader required")
	case params.Earnings == nil:
		return nil, fmt.Errorf("earnings service required")
	case params.Achievements == nil:
		return nil, fmt.Errorf("achievements service required")
	case params.Activity == nil:
		return nil, fmt.Errorf("activity recorder required")
	case params.ClaimWindow <= 0:
		return nil, fmt.Errorf("claim window must be positive")
	}
	return &service{
		repo:         params.Repo,
		db:           params.DB,
		properties:   params.Properties,
		media:        params.Media,
		uploader:     params.Uploader,
		earnings:     params.Earnings,
		achievements: params.Achievements,
		activity:     params.Activity,
		claims:       params.ClaimMetrics,
		claimWindow:  params.ClaimWindow,
		logg:         params.Logger,
		now:          time.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, clientID uuid.UUID, input CreateVisitInput) (*models.VisitRequest, error) {
	if clientID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.PropertyID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "property_id is required")
	}
	scheduled, err := parseScheduledDate(input.ScheduledDate)
	if err != nil {
		return nil, err
	}

	property, err := s.loadProperty(ctx, input.PropertyID)
	if err != nil {
		return nil, err
	}
	if property.OwnerID != clientID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "property belongs to another client")
	}

	visit := &models.VisitRequest{
		ID:            uuid.New(),
		PropertyID:    property.ID,
		RequestedBy:   clientID,
		Status:        enums.VisitStatusPending,
		Source:        enums.VisitSourceClient,
		ScheduledDate: scheduled,
		Instructions:  cleanInstructions(input.Instructions),
	}

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, visit); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create visit")
		}
		return s.recordScheduled(ctx, tx, visit, property)
	})
	if err != nil {
		return nil, err
	}
	return visit, nil
}

func (s *service) CreateFromPayment(ctx context.Context, tx *gorm.DB, input PaidVisitInput) (*models.VisitRequest, error) {
	if input.PaymentReference == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment reference required")
	}
	if input.PropertyID == uuid.Nil || input.RequestedBy == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "property and requester required")
	}
	scheduled, err := parseScheduledDate(input.ScheduledDate)
	if err != nil {
		return nil, err
	}

	repo := s.repo.WithTx(tx)
	if existing, err := repo.FindByPaymentReference(ctx, input.PaymentReference); err == nil {
		return existing, ErrAlreadyRecorded
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup paid visit")
	}

	property, err := s.properties.WithTx(tx).FindByID(ctx, input.PropertyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "property not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load property")
	}

	reference := input.PaymentReference
	visit := &models.VisitRequest{
		ID:               uuid.New(),
		PropertyID:       property.ID,
		RequestedBy:      input.RequestedBy,
		Status:           enums.VisitStatusPending,
		Source:           enums.VisitSourcePayment,
		ScheduledDate:    scheduled,
		Instructions:     cleanInstructions(input.Instructions),
		PaymentReference: &reference,
	}
	if err := repo.Create(ctx, visit); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, ErrAlreadyRecorded
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create paid visit")
	}
	if err := s.recordScheduled(ctx, tx, visit, property); err != nil {
		return nil, err
	}
	return visit, nil
}

func (s *service) Claim(ctx context.Context, scoutID, visitID uuid.UUID) (*models.VisitRequest, error) {
	if scoutID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if visitID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "visit id required")
	}

	now := s.now().UTC()
	var claimed *models.VisitRequest
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		rows, err := repo.ClaimPending(ctx, visitID, scoutID, now, now.Add(s.claimWindow))
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "claim visit")
		}
		if rows == 0 {
			if _, err := repo.FindByID(ctx, visitID); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeNotFound, "visit not found")
				}
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load visit")
			}
			return pkgerrors.New(pkgerrors.CodeAlreadyTaken, "visit already taken")
		}

		visit, err := repo.FindByID(ctx, visitID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload visit")
		}
		property, err := s.properties.WithTx(tx).FindByID(ctx, visit.PropertyID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load property")
		}
		claimed = visit
		return s.activity.Record(ctx, tx, activity.Entry{
			UserID:         property.OwnerID,
			Type:           enums.ActivityTypeVisitClaimed,
			Message:        fmt.Sprintf("A scout accepted the visit to %s on %s", property.Name, visit.ScheduledDate.Format(DateLayout)),
			PropertyID:     &property.ID,
			VisitRequestID: &visit.ID,
		})
	})
	s.observeClaim(err)
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

func (s *service) Complete(ctx context.Context, scoutID, visitID uuid.UUID, image media.UploadInput) (*CompletionResult, error) {
	if scoutID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	visit, err := s.loadVisit(ctx, s.repo, visitID)
	if err != nil {
		return nil, err
	}
	if err := checkCompletable(visit, scoutID); err != nil {
		return nil, err
	}

	stored, err := s.uploader.UploadVisitProof(ctx, visitID, image)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	result := &CompletionResult{}
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		rows, err := repo.CompleteAssigned(ctx, visitID, scoutID, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "complete visit")
		}
		if rows == 0 {
			current, err := s.loadVisit(ctx, repo, visitID)
			if err != nil {
				return err
			}
			if err := checkCompletable(current, scoutID); err != nil {
				return err
			}
			return pkgerrors.New(pkgerrors.CodeStateConflict, "visit changed while completing")
		}

		completed, err := repo.FindByID(ctx, visitID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload visit")
		}
		result.Visit = completed

		row := &models.Media{
			ID:             uuid.New(),
			VisitRequestID: visitID,
			UploadedBy:     scoutID,
			URL:            stored.URL,
			ObjectKey:      stored.ObjectKey,
			MimeType:       stored.MimeType,
			SizeBytes:      stored.SizeBytes,
			CreatedAt:      now,
		}
		if err := s.media.WithTx(tx).Create(ctx, row); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist media")
		}
		result.Media = row

		propertyRepo := s.properties.WithTx(tx)
		if err := propertyRepo.RecordVisit(ctx, completed.PropertyID, now); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update property visit stats")
		}
		property, err := propertyRepo.FindByID(ctx, completed.PropertyID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load property")
		}

		earning, err := s.earnings.Credit(ctx, tx, scoutID, visitID)
		if err != nil {
			return err
		}
		result.EarningKobo = earning.AmountKobo

		count, err := repo.CountCompletedByScout(ctx, scoutID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count completed visits")
		}
		unlocked, err := s.achievements.Evaluate(ctx, tx, scoutID, count)
		if err != nil {
			return err
		}
		result.Achievements = unlocked

		if err := s.activity.Record(ctx, tx, activity.Entry{
			UserID:         property.OwnerID,
			Type:           enums.ActivityTypePhotoUploaded,
			Message:        fmt.Sprintf("New photo uploaded for %s", property.Name),
			PropertyID:     &property.ID,
			VisitRequestID: &visitID,
		}); err != nil {
			return err
		}
		for _, a := range unlocked {
			if err := s.activity.Record(ctx, tx, activity.Entry{
				UserID:         scoutID,
				Type:           enums.ActivityTypeAchievementUnlocked,
				Message:        fmt.Sprintf("Achievement unlocked: %s", a.Name),
				VisitRequestID: &visitID,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if s.logg != nil {
			logCtx := s.logg.WithVisitID(ctx, visitID.String())
			s.logg.Warn(s.logg.WithField(logCtx, "object_key", stored.ObjectKey), "uploaded proof left unreferenced")
		}
		return nil, err
	}
	if result.Achievements == nil {
		result.Achievements = []models.Achievement{}
	}
	return result, nil
}

func (s *service) Rate(ctx context.Context, clientID, visitID uuid.UUID, input RateInput) (*models.VisitRequest, error) {
	if input.Rating < 1 || input.Rating > 5 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}
	visit, err := s.loadVisit(ctx, s.repo, visitID)
	if err != nil {
		return nil, err
	}
	property, err := s.loadProperty(ctx, visit.PropertyID)
	if err != nil {
		return nil, err
	}
	if property.OwnerID != clientID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "visit belongs to another client")
	}
	if visit.Status != enums.VisitStatusCompleted {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only completed visits can be rated")
	}
	rows, err := s.repo.SetRating(ctx, visitID, input.Rating)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "rate visit")
	}
	if rows == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only completed visits can be rated")
	}
	rating := input.Rating
	visit.ClientRating = &rating
	return visit, nil
}

func (s *service) Get(ctx context.Context, userID uuid.UUID, role enums.Role, visitID uuid.UUID) (*Detail, error) {
	visit, err := s.loadVisit(ctx, s.repo, visitID)
	if err != nil {
		return nil, err
	}
	if err := s.checkParticipant(ctx, visit, userID, role); err != nil {
		return nil, err
	}
	proof, err := s.media.ListByVisit(ctx, visitID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list visit media")
	}
	if proof == nil {
		proof = []models.Media{}
	}
	return &Detail{VisitRequest: *visit, Media: proof}, nil
}

func (s *service) ListForProperty(ctx context.Context, userID uuid.UUID, role enums.Role, propertyID uuid.UUID) ([]models.VisitRequest, error) {
	property, err := s.loadProperty(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	if err := properties.CheckAccess(property, userID, role); err != nil {
		return nil, err
	}
	list, err := s.repo.ListByProperty(ctx, propertyID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list property visits")
	}
	return nonNil(list), nil
}

func (s *service) ListAssigned(ctx context.Context, scoutID uuid.UUID) ([]models.VisitRequest, error) {
	list, err := s.repo.ListAssigned(ctx, scoutID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list assigned visits")
	}
	return nonNil(list), nil
}

func (s *service) ListJobs(ctx context.Context) ([]Job, error) {
	jobs, err := s.repo.ListJobs(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list jobs")
	}
	if jobs == nil {
		jobs = []Job{}
	}
	return jobs, nil
}

func (s *service) ListAll(ctx context.Context, filter ListFilter) ([]models.VisitRequest, error) {
	if filter.Status != nil && !filter.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid visit status")
	}
	list, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list visits")
	}
	return nonNil(list), nil
}

// ReleaseExpiredClaims puts ASSIGNED visits whose claim window lapsed back on
// the job board. Each release is its own conditional update so a scout who
// completes at the last moment still wins.
func (s *service) ReleaseExpiredClaims(ctx context.Context, limit int) (int, error) {
	if !CanTransition(enums.VisitStatusAssigned, enums.VisitStatusPending) {
		return 0, transitionError(enums.VisitStatusAssigned, enums.VisitStatusPending)
	}
	now := s.now().UTC()
	expired, err := s.repo.ListExpiredClaims(ctx, now, limit)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list expired claims")
	}

	var (
		released int
		errs     error
	)
	for _, visit := range expired {
		visit := visit
		err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
			rows, err := s.repo.WithTx(tx).ReleaseAssigned(ctx, visit.ID, now)
			if err != nil {
				return err
			}
			if rows == 0 {
				return nil
			}
			released++
			if visit.AssignedScoutID == nil {
				return nil
			}
			return s.activity.Record(ctx, tx, activity.Entry{
				UserID:         *visit.AssignedScoutID,
				Type:           enums.ActivityTypeVisitReleased,
				Message:        "Your claim expired and the visit returned to the job board",
				PropertyID:     &visit.PropertyID,
				VisitRequestID: &visit.ID,
			})
		})
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("release visit %s: %w", visit.ID, err))
		}
	}
	if errs != nil {
		return released, pkgerrors.Wrap(pkgerrors.CodeInternal, errs, "release expired claims")
	}
	return released, nil
}

func (s *service) recordScheduled(ctx context.Context, tx *gorm.DB, visit *models.VisitRequest, property *models.Property) error {
	return s.activity.Record(ctx, tx, activity.Entry{
		UserID:         visit.RequestedBy,
		Type:           enums.ActivityTypeVisitScheduled,
		Message:        fmt.Sprintf("Visit to %s scheduled for %s", property.Name, visit.ScheduledDate.Format(DateLayout)),
		PropertyID:     &property.ID,
		VisitRequestID: &visit.ID,
	})
}

func (s *service) checkParticipant(ctx context.Context, visit *models.VisitRequest, userID uuid.UUID, role enums.Role) error {
	switch role {
	case enums.RoleAdmin:
		return nil
	case enums.RoleScout:
		if visit.AssignedScoutID != nil && *visit.AssignedScoutID == userID {
			return nil
		}
		return pkgerrors.New(pkgerrors.CodeForbidden, "visit is assigned to another scout")
	case enums.RoleClient:
		property, err := s.loadProperty(ctx, visit.PropertyID)
		if err != nil {
			return err
		}
		if property.OwnerID == userID {
			return nil
		}
		return pkgerrors.New(pkgerrors.CodeForbidden, "visit belongs to another client")
	default:
		return pkgerrors.New(pkgerrors.CodeForbidden, "unknown role")
	}
}

func (s *service) loadVisit(ctx context.Context, repo Repository, id uuid.UUID) (*models.VisitRequest, error) {
	visit, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "visit not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load visit")
	}
	return visit, nil
}

func (s *service) loadProperty(ctx context.Context, id uuid.UUID) (*models.Property, error) {
	property, err := s.properties.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "property not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load property")
	}
	return property, nil
}

func (s *service) observeClaim(err error) {
	outcome := metrics.OutcomeClaimed
	if err != nil {
		switch pkgerrors.As(err).Code() {
		case pkgerrors.CodeAlreadyTaken:
			outcome = metrics.OutcomeAlreadyTaken
		case pkgerrors.CodeNotFound:
			outcome = metrics.OutcomeNotFound
		default:
			outcome = metrics.OutcomeFailed
		}
	}
	s.claims.Inc(outcome)
}

// checkCompletable distinguishes a foreign scout (403) from a visit in the
// wrong state (422).
func checkCompletable(visit *models.VisitRequest, scoutID uuid.UUID) error {
	if visit.Status == enums.VisitStatusAssigned && (visit.AssignedScoutID == nil || *visit.AssignedScoutID != scoutID) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "visit is assigned to another scout")
	}
	if !CanTransition(visit.Status, enums.VisitStatusCompleted) {
		return transitionError(visit.Status, enums.VisitStatusCompleted)
	}
	return nil
}

func nonNil(list []models.VisitRequest) []models.VisitRequest {
	if list == nil {
		return []models.VisitRequest{}
	}
	return list
}
