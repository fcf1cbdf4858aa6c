package pipeline

import (
	"testing"

	"ai-eventplanner-be/internal/constant"
	"ai-eventplanner-be/internal/dto"
	"ai-eventplanner-be/pkg/planner"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePlanCoercesVocabulary(t *testing.T) {
	tests := []struct {
		name         string
		plan         dto.AIEventPlan
		wantType     string
		wantStrategy string
		wantCount    int
	}{
		{
			name:         "valid plan untouched",
			plan:         dto.AIEventPlan{Count: 1, Type: "travel", DetailStrategy: "travel", Events: []dto.AIPlannedEventStub{{WorkingTitle: "Flight"}}},
			wantType:     constant.PlanTypeTravel,
			wantStrategy: constant.DetailStrategyTravel,
			wantCount:    1,
		},
		{
			name:         "invented type falls back to simple",
			plan:         dto.AIEventPlan{Count: 1, Type: "extravaganza", DetailStrategy: "emoji", Events: []dto.AIPlannedEventStub{{WorkingTitle: "Party"}}},
			wantType:     constant.PlanTypeSimple,
			wantStrategy: constant.DetailStrategyEmoji,
			wantCount:    1,
		},
		{
			name:         "missing strategy derived from type",
			plan:         dto.AIEventPlan{Count: 2, Type: "multi_leg", Events: []dto.AIPlannedEventStub{{WorkingTitle: "Leg 1"}, {WorkingTitle: "Leg 2"}}},
			wantType:     constant.PlanTypeMultiLeg,
			wantStrategy: constant.DetailStrategyDescription,
			wantCount:    2,
		},
		{
			name:         "count reconciled against stubs",
			plan:         dto.AIEventPlan{Count: 7, Type: "simple", DetailStrategy: "timing", Events: []dto.AIPlannedEventStub{{WorkingTitle: "One"}}},
			wantType:     constant.PlanTypeSimple,
			wantStrategy: constant.DetailStrategyTiming,
			wantCount:    1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			normalizePlan(&tt.plan)
			assert.Equal(t, tt.wantType, tt.plan.Type)
			assert.Equal(t, tt.wantStrategy, tt.plan.DetailStrategy)
			assert.Equal(t, tt.wantCount, tt.plan.Count)
		})
	}
}

func TestNormalizeScheduleFillsGapsAndSorts(t *testing.T) {
	schedule := dto.AIFinalSchedule{
		Events: []dto.EventDraftDTO{
			{Title: "Later", StartTime: "2026-09-04T18:00:00Z", EndTime: "2026-09-04T19:00:00Z", Emoji: "🎉", Timezone: "UTC", Confidence: 0.9},
			{Title: "Earlier", StartTime: "2026-09-04T09:00:00Z", EndTime: "2026-09-04T10:00:00Z", Confidence: 0.8},
		},
		OverallConfidence: 0.85,
	}

	normalizeSchedule(&schedule, "Europe/Berlin")

	assert.Equal(t, "Earlier", schedule.Events[0].Title)
	assert.Equal(t, "Europe/Berlin", schedule.Events[0].Timezone)
	assert.Equal(t, defaultEmoji, schedule.Events[0].Emoji)
	assert.Equal(t, "UTC", schedule.Events[1].Timezone)
	assert.Equal(t, "🎉", schedule.Events[1].Emoji)
}

func TestValidateSchedule(t *testing.T) {
	valid := func() dto.AIFinalSchedule {
		return dto.AIFinalSchedule{
			Events: []dto.EventDraftDTO{{
				Emoji: "📅", Title: "Standup",
				StartTime: "2026-09-04T09:00:00Z", EndTime: "2026-09-04T09:15:00Z",
				Timezone: "UTC", Confidence: 0.95,
			}},
			OverallConfidence: 0.95,
		}
	}

	tests := []struct {
		name   string
		mutate func(*dto.AIFinalSchedule)
		wantOK bool
	}{
		{"valid schedule", func(s *dto.AIFinalSchedule) {}, true},
		{"empty events array is valid", func(s *dto.AIFinalSchedule) { s.Events = []dto.EventDraftDTO{} }, true},
		{"missing events array", func(s *dto.AIFinalSchedule) { s.Events = nil }, false},
		{"empty title", func(s *dto.AIFinalSchedule) { s.Events[0].Title = "" }, false},
		{"non-RFC3339 start", func(s *dto.AIFinalSchedule) { s.Events[0].StartTime = "tomorrow 9am" }, false},
		{"end before start", func(s *dto.AIFinalSchedule) { s.Events[0].EndTime = "2026-09-04T08:00:00Z" }, false},
		{"unknown timezone", func(s *dto.AIFinalSchedule) { s.Events[0].Timezone = "Mars/Olympus" }, false},
		{"confidence out of range", func(s *dto.AIFinalSchedule) { s.Events[0].Confidence = 1.7 }, false},
		{"overall confidence out of range", func(s *dto.AIFinalSchedule) { s.OverallConfidence = -0.1 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid()
			tt.mutate(&s)
			err := validateSchedule(&s)
			if tt.wantOK {
				assert.NoError(t, err)
				return
			}
			assert.Error(t, err)
			var ve *planner.ValidationError
			assert.ErrorAs(t, err, &ve)
			assert.Equal(t, constant.FailureScheduleValidation, ve.Reason)
		})
	}
}
