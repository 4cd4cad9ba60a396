package constants

import "time"

// Remote task store limits
const (
	MaxTaskPages       = 20
	TaskPageSize       = 1000
	TaskIDBatchSize    = 80
	FetchConcurrency   = 5
	DefaultCacheTTL    = 5 * time.Minute
	DefaultHTTPTimeout = 30 * time.Second
)

// Workload defaults
const (
	DefaultCapacityHours  = 7.0
	DefaultShiftDays      = 7
	BucketHorizonDays     = 7
	PlanningHorizonDays   = 14
	MaxPlanSuggestions    = 3
	WorkWeekDays          = 5
	DescriptionPreviewLen = 220
)

// Management overview defaults
const (
	DefaultOverviewLimit    = 30
	MaxRecommendations      = 25
	TopMustKeepToday        = 3
	TopReschedule           = 3
	TopCleanup              = 2
	CleanupMaxHours         = 1.0
	StaleCleanupMaxHours    = 2.0
	StaleAfterDays          = 14
	RescheduleCapacityRatio = 0.8
	RobotEmailSuffix        = "@wrike-robot.com"
)

// Action log limits
const (
	ActionLogCapacity = 300
	ActionLogPageSize = 120
)

// Context keys
const (
	ContextKeyRequestID = "request_id"
	HeaderRequestID     = "X-Request-ID"
)
