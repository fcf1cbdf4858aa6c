package entity

import (
	"time"

	"github.com/google/uuid"
)

// ProcessingSession is one request's worth of durable pipeline state. The
// orchestrator is its only writer; stream readers never mutate it.
type ProcessingSession struct {
	Id              uuid.UUID
	UserId          uuid.UUID
	UserInput       string
	CalendarContext string
	Status          string
	Output          *ProcessedOutput
	Model           string
	Provider        string

	// Set only on terminal success
	ProcessingTimeMs *int64
	TokensUsed       *int
	Confidence       *float64

	// Set iff Status == FAILED
	ErrorMessage *string

	CreatedAt time.Time
	UpdatedAt *time.Time
}

// ProcessedOutput is the single field overwritten on every progress tick.
// Writers always set the whole object; there is no partial-merge contract.
type ProcessedOutput struct {
	Progress  int          `json:"progress"`
	Stage     string       `json:"stage"`
	Timestamp time.Time    `json:"timestamp"`
	Results   []EventDraft `json:"results,omitempty"`
}

// EventDraft is one structured calendar event produced by a completed run.
type EventDraft struct {
	Emoji       string  `json:"emoji"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	StartTime   string  `json:"startTime"`
	EndTime     string  `json:"endTime"`
	Timezone    string  `json:"timezone"`
	IsAllDay    bool    `json:"isAllDay"`
	Location    string  `json:"location,omitempty"`
	Confidence  float64 `json:"confidence"`
}

// IsTerminal reports whether the session reached a final state.
func (s *ProcessingSession) IsTerminal() bool {
	return s.Status == "COMPLETED" || s.Status == "FAILED"
}
