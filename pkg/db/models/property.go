package models

import (
	"time"

	"github.com/google/uuid"
)

// Property is a client-owned location that scouts visit.
type Property struct {
	ID            uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OwnerID       uuid.UUID  `gorm:"column:owner_id;type:uuid;not null" json:"owner_id"`
	Name          string     `gorm:"column:name;not null" json:"name"`
	Address       string     `gorm:"column:address;not null" json:"address"`
	City          string     `gorm:"column:city;not null" json:"city"`
	State         *string    `gorm:"column:state" json:"state,omitempty"`
	Country       string     `gorm:"column:country;not null;default:'NG'" json:"country"`
	Latitude      *float64   `gorm:"column:lat" json:"lat,omitempty"`
	Longitude     *float64   `gorm:"column:lng" json:"lng,omitempty"`
	PropertyType  *string    `gorm:"column:property_type" json:"property_type,omitempty"`
	Notes         *string    `gorm:"column:notes" json:"notes,omitempty"`
	VisitCount    int        `gorm:"column:visit_count;not null;default:0" json:"visit_count"`
	LastVisitDate *time.Time `gorm:"column:last_visit_date" json:"last_visit_date,omitempty"`
	CreatedAt     time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
