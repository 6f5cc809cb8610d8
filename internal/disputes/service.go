package disputes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/propscout/propscout-backend/internal/activity"
	"github.com/propscout/propscout-backend/internal/properties"
	"github.com/propscout/propscout-backend/internal/visits"
	"github.com/propscout/propscout-backend/pkg/db"
	"github.com/propscout/propscout-backend/pkg/db/models"
	"github.com/propscout/propscout-backend/pkg/enums"
	pkgerrors "github.com/propscout/propscout-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type propertyStore interface {
	WithTx(tx *gorm.DB) *properties.Repository
}

// Service files and adjudicates disputes about visits.
type Service interface {
	File(ctx context.Context, reporterID uuid.UUID, input FileInput) (*models.Dispute, error)
	List(ctx context.Context, userID uuid.UUID, role enums.Role, status *enums.DisputeStatus) ([]models.Dispute, error)
	Get(ctx context.Context, userID uuid.UUID, role enums.Role, id uuid.UUID) (*models.Dispute, error)
	Update(ctx context.Context, adminID, id uuid.UUID, input UpdateInput) (*models.Dispute, error)
}

type ServiceParams struct {
	Repo       *Repository
	Visits     visits.Repository
	Properties propertyStore
	Activity   activity.Recorder
	DB         txRunner
}

type service struct {
	repo       *Repository
	visits     visits.Repository
	properties propertyStore
	activity   activity.Recorder
	db         txRunner
	now        func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Repo == nil:
		return nil, fmt.Errorf("disputes repository required")
	case params.Visits == nil:
		return nil, fmt.Errorf("visits repository required")
	case params.Properties == nil:
		return nil, fmt.Errorf("properties repository required")
	case params.Activity == nil:
		return nil, fmt.Errorf("activity recorder required")
	case params.DB == nil:
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		repo:       params.Repo,
		visits:     params.Visits,
		properties: params.Properties,
		activity:   params.Activity,
		db:         params.DB,
		now:        time.Now,
	}, nil
}

func alreadyFiled() error {
	return pkgerrors.New(pkgerrors.CodeAlreadyTaken, "you have already filed a dispute for this visit")
}

func (s *service) File(ctx context.Context, reporterID uuid.UUID, input FileInput) (*models.Dispute, error) {
	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reason is required")
	}
	if input.VisitRequestID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "visit_request_id is required")
	}

	var filed *models.Dispute
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		visit, property, err := s.loadVisit(ctx, tx, input.VisitRequestID)
		if err != nil {
			return err
		}
		if !isParticipant(visit, property, reporterID) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only the property owner or assigned scout can dispute this visit")
		}

		repo := s.repo.WithTx(tx)
		exists, err := repo.ExistsForReporter(ctx, visit.ID, reporterID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check existing dispute")
		}
		if exists {
			return alreadyFiled()
		}

		now := s.now().UTC()
		dispute := &models.Dispute{
			ID:             uuid.New(),
			VisitRequestID: visit.ID,
			ReporterID:     reporterID,
			Reason:         reason,
			Description:    trimmed(input.Description),
			Status:         enums.DisputeStatusOpen,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := repo.Create(ctx, dispute); err != nil {
			if db.IsUniqueViolation(err, "") {
				return alreadyFiled()
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create dispute")
		}

		if err := s.activity.Record(ctx, tx, activity.Entry{
			UserID:         property.OwnerID,
			Type:           enums.ActivityTypeDisputeFiled,
			Message:        fmt.Sprintf("A dispute was filed for the visit to %s: %s", property.Name, reason),
			PropertyID:     &property.ID,
			VisitRequestID: &visit.ID,
		}); err != nil {
			return err
		}
		filed = dispute
		return nil
	})
	if err != nil {
		return nil, err
	}
	return filed, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID, role enums.Role, status *enums.DisputeStatus) ([]models.Dispute, error) {
	filter := ListFilter{Status: status}
	if role != enums.RoleAdmin {
		filter.ParticipantID = &userID
	}
	list, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list disputes")
	}
	if list == nil {
		list = []models.Dispute{}
	}
	return list, nil
}

func (s *service) Get(ctx context.Context, userID uuid.UUID, role enums.Role, id uuid.UUID) (*models.Dispute, error) {
	dispute, err := s.find(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	if role == enums.RoleAdmin || dispute.ReporterID == userID {
		return dispute, nil
	}
	visit, property, err := s.loadVisit(ctx, nil, dispute.VisitRequestID)
	if err != nil {
		return nil, err
	}
	if !isParticipant(visit, property, userID) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not a participant in this dispute")
	}
	return dispute, nil
}

func (s *service) Update(ctx context.Context, adminID, id uuid.UUID, input UpdateInput) (*models.Dispute, error) {
	next, err := enums.ParseDisputeStatus(strings.ToUpper(strings.TrimSpace(input.Status)))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid dispute status")
	}

	var updated *models.Dispute
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		dispute, err := s.find(ctx, repo, id)
		if err != nil {
			return err
		}
		if !CanTransition(dispute.Status, next) {
			return transitionError(dispute.Status, next)
		}

		now := s.now().UTC()
		resolution := trimmed(input.Resolution)
		rows, err := repo.UpdateStatus(ctx, dispute.ID, dispute.Status, resolutionUpdates(next, resolution, adminID, now))
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update dispute")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "dispute changed concurrently")
		}

		if err := s.activity.Record(ctx, tx, activity.Entry{
			UserID:         dispute.ReporterID,
			Type:           enums.ActivityTypeDisputeUpdated,
			Message:        fmt.Sprintf("Your dispute is now %s", next),
			VisitRequestID: &dispute.VisitRequestID,
		}); err != nil {
			return err
		}

		updated, err = s.find(ctx, repo, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) find(ctx context.Context, repo *Repository, id uuid.UUID) (*models.Dispute, error) {
	dispute, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "dispute not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load dispute")
	}
	return dispute, nil
}

func (s *service) loadVisit(ctx context.Context, tx *gorm.DB, visitID uuid.UUID) (*models.VisitRequest, *models.Property, error) {
	visit, err := s.visits.WithTx(tx).FindByID(ctx, visitID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "visit not found")
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load visit")
	}
	property, err := s.properties.WithTx(tx).FindByID(ctx, visit.PropertyID)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load property")
	}
	return visit, property, nil
}

func isParticipant(visit *models.VisitRequest, property *models.Property, userID uuid.UUID) bool {
	if property.OwnerID == userID {
		return true
	}
	return visit.AssignedScoutID != nil && *visit.AssignedScoutID == userID
}

func trimmed(value *string) *string {
	if value == nil {
		return nil
	}
	v := strings.TrimSpace(*value)
	if v == "" {
		return nil
	}
	return &v
}
