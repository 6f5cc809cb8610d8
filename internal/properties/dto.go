package properties

import (
	"strings"

	"github.com/google/uuid"

	"github.com/propscout/propscout-backend/pkg/db/models"
)

// CreatePropertyInput is the client payload for registering a property.
type CreatePropertyInput struct {
	Name         string   `json:"name" validate:"required"`
	Address      string   `json:"address" validate:"required"`
	City         string   `json:"city" validate:"required"`
	State        *string  `json:"state,omitempty"`
	Country      string   `json:"country,omitempty"`
	Latitude     *float64 `json:"lat,omitempty" validate:"omitempty,latitude"`
	Longitude    *float64 `json:"lng,omitempty" validate:"omitempty,longitude"`
	PropertyType *string  `json:"property_type,omitempty"`
	Notes        *string  `json:"notes,omitempty"`
}

const defaultCountry = "NG"

func (in CreatePropertyInput) toModel(ownerID uuid.UUID) *models.Property {
	country := strings.ToUpper(strings.TrimSpace(in.Country))
	if country == "" {
		country = defaultCountry
	}
	return &models.Property{
		ID:           uuid.New(),
		OwnerID:      ownerID,
		Name:         strings.TrimSpace(in.Name),
		Address:      strings.TrimSpace(in.Address),
		City:         strings.TrimSpace(in.City),
		State:        trimmed(in.State),
		Country:      country,
		Latitude:     in.Latitude,
		Longitude:    in.Longitude,
		PropertyType: trimmed(in.PropertyType),
		Notes:        trimmed(in.Notes),
	}
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
