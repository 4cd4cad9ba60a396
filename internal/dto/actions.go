package dto

import (
	"github.com/yukikurage/workload-dashboard/internal/dateutil"
	"github.com/yukikurage/workload-dashboard/internal/models"
	"github.com/yukikurage/workload-dashboard/internal/services"
)

// TaskIDsRequest is the body of the delete endpoint
type TaskIDsRequest struct {
	TaskIDs []string `json:"taskIds"`
}

type PushWeekRequest struct {
	TaskIDs   []string `json:"taskIds"`
	ShiftDays int      `json:"shiftDays"`
}

type ScheduleRequest struct {
	TaskIDs    []string       `json:"taskIds"`
	TargetDate *dateutil.Date `json:"targetDate"`
}

type LabelRequest struct {
	TaskIDs  []string `json:"taskIds"`
	LabelKey string   `json:"labelKey"`
}

type CancelRequest struct {
	TaskIDs []string `json:"taskIds"`
	Reason  string   `json:"reason"`
}

// ItemResultDTO is one entry of a bulk action envelope
type ItemResultDTO struct {
	TaskID         string            `json:"taskId"`
	OK             bool              `json:"ok"`
	Title          string            `json:"title,omitempty"`
	Error          string            `json:"error,omitempty"`
	FromDue        *dateutil.Date    `json:"fromDue,omitempty"`
	ToDue          *dateutil.Date    `json:"toDue,omitempty"`
	FromImportance models.Importance `json:"fromImportance,omitempty"`
	ToImportance   models.Importance `json:"toImportance,omitempty"`
	Status         string            `json:"status,omitempty"`
}

// BatchResponse is the uniform envelope of every bulk action
type BatchResponse struct {
	OK           bool            `json:"ok"`
	LabelKey     string          `json:"labelKey,omitempty"`
	Total        int             `json:"total"`
	SuccessCount int             `json:"successCount"`
	FailedCount  int             `json:"failedCount"`
	Results      []ItemResultDTO `json:"results"`
}

func ToBatchResponse(r *services.BatchResult) BatchResponse {
	results := make([]ItemResultDTO, 0, len(r.Results))
	for _, item := range r.Results {
		results = append(results, ItemResultDTO{
			TaskID:         item.TaskID,
			OK:             item.OK,
			Title:          item.Title,
			Error:          item.Error,
			FromDue:        item.FromDue,
			ToDue:          item.ToDue,
			FromImportance: item.FromImportance,
			ToImportance:   item.ToImportance,
			Status:         item.Status,
		})
	}
	return BatchResponse{
		OK:           true,
		Total:        r.Total,
		SuccessCount: r.SuccessCount,
		FailedCount:  r.FailedCount,
		Results:      results,
	}
}

// DataResponse wraps list payloads
type DataResponse[T any] struct {
	Data []T `json:"data"`
}

// HealthResponse is the body of GET /api/health
type HealthResponse struct {
	OK              bool   `json:"ok"`
	WrikeHost       string `json:"wrikeHost"`
	SecretStore     string `json:"secretStore"`
	HasAccessToken  bool   `json:"hasAccessToken"`
	HasRefreshToken bool   `json:"hasRefreshToken"`
}
