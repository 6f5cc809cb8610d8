package properties

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/propscout/propscout-backend/pkg/db/models"
	"github.com/propscout/propscout-backend/pkg/enums"
	pkgerrors "github.com/propscout/propscout-backend/pkg/errors"
)

// Service manages client properties.
type Service interface {
	Create(ctx context.Context, ownerID uuid.UUID, input CreatePropertyInput) (*models.Property, error)
	ListMine(ctx context.Context, ownerID uuid.UUID) ([]models.Property, error)
	Get(ctx context.Context, userID uuid.UUID, role enums.Role, propertyID uuid.UUID) (*models.Property, error)
}

type propertyRepository interface {
	Create(ctx context.Context, property *models.Property) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Property, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Property, error)
}

type service struct {
	repo propertyRepository
}

func NewService(repo propertyRepository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "property repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, ownerID uuid.UUID, input CreatePropertyInput) (*models.Property, error) {
	if ownerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "owner required")
	}
	property := input.toModel(ownerID)
	if property.Name == "" || property.Address == "" || property.City == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name, address and city are required")
	}
	if err := s.repo.Create(ctx, property); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create property")
	}
	return property, nil
}

func (s *service) ListMine(ctx context.Context, ownerID uuid.UUID) ([]models.Property, error) {
	list, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list properties")
	}
	if list == nil {
		list = []models.Property{}
	}
	return list, nil
}

func (s *service) Get(ctx context.Context, userID uuid.UUID, role enums.Role, propertyID uuid.UUID) (*models.Property, error) {
	property, err := s.repo.FindByID(ctx, propertyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "property not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load property")
	}
	if err := CheckAccess(property, userID, role); err != nil {
		return nil, err
	}
	return property, nil
}

// CheckAccess allows the owner and admins through.
func CheckAccess(property *models.Property, userID uuid.UUID, role enums.Role) error {
	switch role {
	case enums.RoleAdmin:
		return nil
	case enums.RoleClient:
		if property.OwnerID == userID {
			return nil
		}
		return pkgerrors.New(pkgerrors.CodeForbidden, "property belongs to another client")
	case enums.RoleScout:
		return pkgerrors.New(pkgerrors.CodeForbidden, "scouts cannot view properties directly")
	default:
		return pkgerrors.New(pkgerrors.CodeForbidden, "unknown role")
	}
}
