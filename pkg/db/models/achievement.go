package models

import (
	"time"

	"github.com/google/uuid"
)

// Achievement is a catalogue entry unlocked after Threshold completed visits.
type Achievement struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Code        string    `gorm:"column:code;not null;unique" json:"code"`
	Name        string    `gorm:"column:name;not null" json:"name"`
	Description string    `gorm:"column:description;not null" json:"description"`
	Threshold   int       `gorm:"column:threshold;not null" json:"threshold"`
}

type ScoutAchievement struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ScoutID       uuid.UUID `gorm:"column:scout_id;type:uuid;not null" json:"scout_id"`
	AchievementID uuid.UUID `gorm:"column:achievement_id;type:uuid;not null" json:"achievement_id"`
	AwardedAt     time.Time `gorm:"column:awarded_at;not null" json:"awarded_at"`
}
