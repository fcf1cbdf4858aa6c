package pipeline

import (
	"fmt"
	"sort"
	"time"

	"ai-eventplanner-be/internal/constant"
	"ai-eventplanner-be/internal/dto"
	"ai-eventplanner-be/pkg/planner"
)

const defaultEmoji = "📅"

// normalizePlan coerces a structurally-sound plan into the closed vocabulary
// later steps depend on. Counts are reconciled against the stub list.
func normalizePlan(plan *dto.AIEventPlan) {
	switch plan.Type {
	case constant.PlanTypeSimple, constant.PlanTypeTravel, constant.PlanTypeMultiLeg:
	default:
		plan.Type = constant.PlanTypeSimple
	}

	switch plan.DetailStrategy {
	case constant.DetailStrategyEmoji, constant.DetailStrategyTiming,
		constant.DetailStrategyTravel, constant.DetailStrategyDescription:
	default:
		// Derive a sensible strategy from the shape when the model left it
		// blank or invented a new one.
		switch plan.Type {
		case constant.PlanTypeTravel:
			plan.DetailStrategy = constant.DetailStrategyTravel
		case constant.PlanTypeMultiLeg:
			plan.DetailStrategy = constant.DetailStrategyDescription
		default:
			plan.DetailStrategy = constant.DetailStrategyEmoji
		}
	}

	if plan.Count < 0 {
		plan.Count = 0
	}
	if plan.Count != len(plan.Events) {
		plan.Count = len(plan.Events)
	}
}

// normalizeSchedule applies cultural/timezone normalization before strict
// validation: missing timezones inherit the resolved context, missing emoji
// fall back to the neutral calendar glyph, and events are put in start order.
func normalizeSchedule(schedule *dto.AIFinalSchedule, fallbackTimezone string) {
	for i := range schedule.Events {
		if schedule.Events[i].Timezone == "" {
			schedule.Events[i].Timezone = fallbackTimezone
		}
		if schedule.Events[i].Emoji == "" {
			schedule.Events[i].Emoji = defaultEmoji
		}
	}

	sort.SliceStable(schedule.Events, func(i, j int) bool {
		return schedule.Events[i].StartTime < schedule.Events[j].StartTime
	})
}

// validateSchedule is the terminal schema gate. Any violation is fatal for
// the whole run; there is no best-effort subset of events.
func validateSchedule(schedule *dto.AIFinalSchedule) error {
	if schedule.Events == nil {
		return planner.Invalid(constant.FailureScheduleValidation, fmt.Errorf("missing events array"))
	}

	for i, e := range schedule.Events {
		if e.Title == "" {
			return planner.Invalid(constant.FailureScheduleValidation, fmt.Errorf("event %d: empty title", i))
		}
		start, err := time.Parse(time.RFC3339, e.StartTime)
		if err != nil {
			return planner.Invalid(constant.FailureScheduleValidation, fmt.Errorf("event %d: bad startTime %q", i, e.StartTime))
		}
		end, err := time.Parse(time.RFC3339, e.EndTime)
		if err != nil {
			return planner.Invalid(constant.FailureScheduleValidation, fmt.Errorf("event %d: bad endTime %q", i, e.EndTime))
		}
		if end.Before(start) {
			return planner.Invalid(constant.FailureScheduleValidation, fmt.Errorf("event %d: endTime before startTime", i))
		}
		if e.Timezone == "" {
			return planner.Invalid(constant.FailureScheduleValidation, fmt.Errorf("event %d: empty timezone", i))
		}
		if _, err := time.LoadLocation(e.Timezone); err != nil {
			return planner.Invalid(constant.FailureScheduleValidation, fmt.Errorf("event %d: unknown timezone %q", i, e.Timezone))
		}
		if e.Confidence < 0 || e.Confidence > 1 {
			return planner.Invalid(constant.FailureScheduleValidation, fmt.Errorf("event %d: confidence %.2f out of range", i, e.Confidence))
		}
	}

	if schedule.OverallConfidence < 0 || schedule.OverallConfidence > 1 {
		return planner.Invalid(constant.FailureScheduleValidation, fmt.Errorf("overall_confidence out of range"))
	}

	return nil
}
