package constant

// Session lifecycle statuses. Transitions are monotonic except RETRY -> PROCESSING.
const (
	SessionStatusPending    = "PENDING"
	SessionStatusProcessing = "PROCESSING"
	SessionStatusCompleted  = "COMPLETED"
	SessionStatusFailed     = "FAILED"
	SessionStatusRetry      = "RETRY"
)

// Pipeline tool identifiers. Each tool is invoked at most once per session.
const (
	ToolAnalyzeIntent     = "analyze_intent"
	ToolGetTimeContext    = "get_time_context"
	ToolPlanStructure     = "plan_event_structure"
	ToolSelectEmoji       = "select_emoji"
	ToolCalculateTiming   = "calculate_timing"
	ToolPlanTravelLegs    = "plan_travel_legs"
	ToolWriteDescriptions = "generate_descriptions"
	ToolFinalizeSchedule  = "finalize_schedule"
)

// Event structure types produced by the planning step.
const (
	PlanTypeSimple   = "simple"
	PlanTypeTravel   = "travel"
	PlanTypeMultiLeg = "multi_leg"
)

// Detail strategies. The structure plan picks exactly one.
const (
	DetailStrategyEmoji       = "emoji"
	DetailStrategyTiming      = "timing"
	DetailStrategyTravel      = "travel"
	DetailStrategyDescription = "description"
)

// Progress targets per pipeline step (percent).
const (
	ProgressIntent      = 20
	ProgressTimeContext = 30
	ProgressStructure   = 40
	ProgressEmoji       = 50
	ProgressTiming      = 60
	ProgressTravel      = 65
	ProgressDescription = 70
	ProgressFinalizing  = 80
	ProgressDone        = 100
)

// Human-readable stage labels pushed to the client.
const (
	StageAnalyzingIntent   = "Analyzing your request..."
	StageTimeContext       = "Checking dates and times..."
	StagePlanningStructure = "Planning your events..."
	StageSelectingEmoji    = "Picking the perfect emoji..."
	StageCalculatingTiming = "Working out the timing..."
	StagePlanningTravel    = "Planning travel legs..."
	StageWritingDetails    = "Writing event descriptions..."
	StageFinalizing        = "Finalizing your schedule..."
	StageDone              = "All events ready"
	StageFailed            = "Processing failed"

	// Stream-side synthetic stages. These are emitted by the stream itself,
	// never written to the store.
	StageSessionNotFound = "Session not found"
	StageMonitorError    = "Error monitoring progress"
)

// Machine-checkable failure reasons written to ProcessingSession.ErrorMessage.
const (
	FailureIntentAnalysis     = "intent_analysis_failed"
	FailureTimeContext        = "time_context_failed"
	FailureStructurePlan      = "structure_plan_failed"
	FailureDetailGeneration   = "detail_generation_failed"
	FailureScheduleValidation = "schedule_validation_failed"
	FailureDeadlineExceeded   = "processing_timed_out"
)

// Messaging topics and subjects.
const (
	TopicPlannerProgress  = "planner.progress"
	TopicPlannerCompleted = "planner.completed"

	EventPlanCompleted = "PLAN_COMPLETED"
	EventPlanFailed    = "PLAN_FAILED"
)
