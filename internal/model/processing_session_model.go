package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ProcessingSession persists one planner run. ProcessedOutput is stored as an
// opaque JSON blob so the storage schema stays ignorant of pipeline semantics.
type ProcessingSession struct {
	Id              uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId          uuid.UUID      `gorm:"type:uuid;not null;index"` // User ownership for data isolation
	UserInput       string         `gorm:"type:text;not null"`
	CalendarContext string         `gorm:"type:text"`
	Status          string         `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	ProcessedOutput datatypes.JSON `gorm:"type:jsonb"`
	Model           string         `gorm:"type:varchar(100)"`
	Provider        string         `gorm:"type:varchar(50)"`

	ProcessingTimeMs *int64
	TokensUsed       *int
	Confidence       *float64
	ErrorMessage     *string `gorm:"type:text"`

	CreatedAt time.Time      `gorm:"autoCreateTime"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (ProcessingSession) TableName() string {
	return "processing_sessions"
}
