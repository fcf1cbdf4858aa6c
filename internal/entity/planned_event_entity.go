package entity

import (
	"time"

	"github.com/google/uuid"
)

type PlannedEvent struct {
	Id          uuid.UUID
	SessionId   uuid.UUID
	UserId      uuid.UUID
	Emoji       string
	Title       string
	Description string
	StartTime   time.Time
	EndTime     time.Time
	Timezone    string
	IsAllDay    bool
	Location    *string
	Confidence  float64
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}
