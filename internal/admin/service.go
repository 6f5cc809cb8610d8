package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/propscout/propscout-backend/internal/users"
	"github.com/propscout/propscout-backend/internal/visits"
	"github.com/propscout/propscout-backend/pkg/db/models"
	"github.com/propscout/propscout-backend/pkg/enums"
	pkgerrors "github.com/propscout/propscout-backend/pkg/errors"
)

// Stats is the platform overview shown on the admin dashboard.
type Stats struct {
	UsersByRole         map[enums.Role]int64        `json:"users_by_role"`
	TotalUsers          int64                       `json:"total_users"`
	Properties          int64                       `json:"properties"`
	VisitsByStatus      map[enums.VisitStatus]int64 `json:"visits_by_status"`
	TotalVisits         int64                       `json:"total_visits"`
	OpenDisputes        int64                       `json:"open_disputes"`
	ActiveSubscriptions int64                       `json:"active_subscriptions"`
}

type RoleInput struct {
	Role string `json:"role" validate:"required"`
}

type userStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	List(ctx context.Context, filter users.ListFilter) ([]models.User, error)
	CountByRole(ctx context.Context) (map[enums.Role]int64, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role enums.Role) error
}

type propertyCounter interface {
	Count(ctx context.Context) (int64, error)
}

type visitStore interface {
	CountByStatus(ctx context.Context) (map[enums.VisitStatus]int64, error)
	List(ctx context.Context, filter visits.ListFilter) ([]models.VisitRequest, error)
}

type disputeCounter interface {
	CountUnresolved(ctx context.Context) (int64, error)
}

type subscriptionCounter interface {
	CountActive(ctx context.Context) (int64, error)
}

// Service backs the admin-only endpoints.
type Service interface {
	Stats(ctx context.Context) (*Stats, error)
	ListUsers(ctx context.Context, filter users.ListFilter) ([]users.UserDTO, error)
	ListVisits(ctx context.Context, filter visits.ListFilter) ([]models.VisitRequest, error)
	UpdateRole(ctx context.Context, adminID, userID uuid.UUID, input RoleInput) (*users.UserDTO, error)
}

type ServiceParams struct {
	Users         userStore
	Properties    propertyCounter
	Visits        visitStore
	Disputes      disputeCounter
	Subscriptions subscriptionCounter
}

type service struct {
	users         userStore
	properties    propertyCounter
	visits        visitStore
	disputes      disputeCounter
	subscriptions subscriptionCounter
}

func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Users == nil:
		return nil, fmt.Errorf("users repository required")
	case params.Properties == nil:
		return nil, fmt.Errorf("properties repository required")
	case params.Visits == nil:
		return nil, fmt.Errorf("visits repository required")
	case params.Disputes == nil:
		return nil, fmt.Errorf("disputes repository required")
	case params.Subscriptions == nil:
		return nil, fmt.Errorf("subscriptions repository required")
	}
	return &service{
		users:         params.Users,
		properties:    params.Properties,
		visits:        params.Visits,
		disputes:      params.Disputes,
		subscriptions: params.Subscriptions,
	}, nil
}

func (s *service) Stats(ctx context.Context) (*Stats, error) {
	byRole, err := s.users.CountByRole(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count users")
	}
	byStatus, err := s.visits.CountByStatus(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count visits")
	}
	props, err := s.properties.Count(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count properties")
	}
	open, err := s.disputes.CountUnresolved(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count disputes")
	}
	active, err := s.subscriptions.CountActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count subscriptions")
	}

	stats := &Stats{
		UsersByRole:         map[enums.Role]int64{enums.RoleClient: 0, enums.RoleScout: 0, enums.RoleAdmin: 0},
		VisitsByStatus:      map[enums.VisitStatus]int64{enums.VisitStatusPending: 0, enums.VisitStatusAssigned: 0, enums.VisitStatusCompleted: 0},
		Properties:          props,
		OpenDisputes:        open,
		ActiveSubscriptions: active,
	}
	for role, n := range byRole {
		stats.UsersByRole[role] = n
		stats.TotalUsers += n
	}
	for status, n := range byStatus {
		stats.VisitsByStatus[status] = n
		stats.TotalVisits += n
	}
	return stats, nil
}

func (s *service) ListUsers(ctx context.Context, filter users.ListFilter) ([]users.UserDTO, error) {
	list, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list users")
	}
	return users.FromModels(list), nil
}

func (s *service) ListVisits(ctx context.Context, filter visits.ListFilter) ([]models.VisitRequest, error) {
	list, err := s.visits.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list visits")
	}
	if list == nil {
		list = []models.VisitRequest{}
	}
	return list, nil
}

func (s *service) UpdateRole(ctx context.Context, adminID, userID uuid.UUID, input RoleInput) (*users.UserDTO, error) {
	role, err := enums.ParseRole(strings.ToUpper(strings.TrimSpace(input.Role)))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid role")
	}
	if adminID == userID && role != enums.RoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "admins cannot demote themselves")
	}
	if err := s.users.UpdateRole(ctx, userID, role); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update role")
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload user")
	}
	return users.FromModel(user), nil
}
