package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PlannedEvent struct {
	Id          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionId   uuid.UUID `gorm:"type:uuid;not null;index"`
	UserId      uuid.UUID `gorm:"type:uuid;not null;index"`
	Emoji       string    `gorm:"type:varchar(16)"`
	Title       string    `gorm:"type:text;not null"`
	Description string    `gorm:"type:text"`
	StartTime   time.Time `gorm:"not null;index"`
	EndTime     time.Time `gorm:"not null"`
	Timezone    string    `gorm:"type:varchar(64);not null"`
	IsAllDay    bool      `gorm:"default:false"`
	Location    *string   `gorm:"type:text"`
	Confidence  float64

	CreatedAt time.Time      `gorm:"autoCreateTime"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (PlannedEvent) TableName() string {
	return "planned_events"
}
