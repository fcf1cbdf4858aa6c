package dto

import (
	"time"

	"github.com/google/uuid"
)

// Request / Response surface

type ProcessInputRequest struct {
	UserInput       string `json:"user_input" validate:"required,min=3,max=4000"`
	CalendarContext string `json:"calendar_context,omitempty" validate:"max=8000"`
}

type ProcessInputResponse struct {
	SessionId uuid.UUID `json:"session_id"`
	Status    string    `json:"status"`
}

// ProgressUpdate is one server-push frame. Timestamp is ISO-8601.
type ProgressUpdate struct {
	Progress  int    `json:"progress"`
	Stage     string `json:"stage"`
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

type GetSessionResponse struct {
	Id               uuid.UUID       `json:"id"`
	Status           string          `json:"status"`
	Progress         int             `json:"progress"`
	Stage            string          `json:"stage"`
	Model            string          `json:"model,omitempty"`
	Provider         string          `json:"provider,omitempty"`
	ProcessingTimeMs *int64          `json:"processing_time_ms,omitempty"`
	TokensUsed       *int            `json:"tokens_used,omitempty"`
	Confidence       *float64        `json:"confidence,omitempty"`
	ErrorMessage     *string         `json:"error_message,omitempty"`
	Results          []EventDraftDTO `json:"results,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        *time.Time      `json:"updated_at"`
}

type GetAllSessionsResponse struct {
	Id        uuid.UUID  `json:"id"`
	UserInput string     `json:"user_input"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

type EventDraftDTO struct {
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

type GetSessionEventsResponse struct {
	Id          uuid.UUID `json:"id"`
	Emoji       string    `json:"emoji"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Timezone    string    `json:"timezone"`
	IsAllDay    bool      `json:"is_all_day"`
	Location    *string   `json:"location,omitempty"`
	Confidence  float64   `json:"confidence"`
}

// PlanAlert is pushed over the websocket hub when a run reaches a terminal
// state, so the dashboard can react even without an open progress stream.
type PlanAlert struct {
	SessionId  uuid.UUID `json:"session_id"`
	Status     string    `json:"status"`
	EventCount int       `json:"event_count"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Structured tool outputs (strict JSON contracts with the LLM)

// AIIntent is the parsed output of the analyze_intent tool.
type AIIntent struct {
	Summary         string   `json:"summary"`
	EventHint       string   `json:"event_hint"`
	Participants    []string `json:"participants"`
	Locations       []string `json:"locations"`
	HasExplicitDate bool     `json:"has_explicit_date"`
	HasExplicitTime bool     `json:"has_explicit_time"`
	Language        string   `json:"language"`
}

type AIResolvedDate struct {
	Expression string `json:"expression"`
	Date       string `json:"date"`
}

type AIWorkingHours struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// AITimeContext is the parsed output of the get_time_context tool.
type AITimeContext struct {
	ReferenceTime string           `json:"reference_time"`
	Timezone      string           `json:"timezone"`
	ResolvedDates []AIResolvedDate `json:"resolved_dates"`
	WorkingHours  AIWorkingHours   `json:"working_hours"`
	Notes         string           `json:"notes"`
}

type AIPlannedEventStub struct {
	WorkingTitle string `json:"working_title"`
	Location     string `json:"location"`
}

// AIEventPlan is the parsed output of the plan_event_structure tool. Its
// DetailStrategy decides which single detail tool runs next.
type AIEventPlan struct {
	Count          int                  `json:"count"`
	Type           string               `json:"type"`
	DetailStrategy string               `json:"detail_strategy"`
	Events         []AIPlannedEventStub `json:"events"`
	Reasoning      string               `json:"reasoning"`
}

type AIEventDetail struct {
	WorkingTitle string `json:"working_title"`
	Emoji        string `json:"emoji"`
	StartHint    string `json:"start_hint"`
	EndHint      string `json:"end_hint"`
	TravelMode   string `json:"travel_mode"`
	Description  string `json:"description"`
}

// AIDetailResult is the parsed output of whichever detail tool ran.
type AIDetailResult struct {
	Details []AIEventDetail `json:"details"`
}

// AIFinalSchedule is the parsed output of the finalize_schedule tool. Its
// events array must survive schema validation before anything is persisted.
type AIFinalSchedule struct {
	Events            []EventDraftDTO `json:"events"`
	OverallConfidence float64         `json:"overall_confidence"`
}
