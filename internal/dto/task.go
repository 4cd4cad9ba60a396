package dto

import (
	"github.com/yukikurage/workload-dashboard/internal/dateutil"
	"github.com/yukikurage/workload-dashboard/internal/models"
	"github.com/yukikurage/workload-dashboard/internal/workload"
)

// TaskDTO represents a task in API responses
type TaskDTO struct {
	ID                 string            `json:"id"`
	Title              string            `json:"title"`
	Status             string            `json:"status"`
	StatusLabel        string            `json:"statusLabel"`
	CustomStatusID     *string           `json:"customStatusId"`
	Importance         models.Importance `json:"importance"`
	Due                *dateutil.Date    `json:"due"`
	Start              *dateutil.Date    `json:"start,omitempty"`
	DueType            *string           `json:"dueType"`
	EffortMinutes      float64           `json:"effortMinutes"`
	EffortHours        float64           `json:"effortHours"`
	Description        string            `json:"description"`
	DescriptionPreview string            `json:"descriptionPreview"`
	Permalink          string            `json:"permalink"`
}

// DecidedTaskDTO is a due-today task with its overview decision
type DecidedTaskDTO struct {
	TaskDTO
	DecisionType workload.DecisionType `json:"decisionType"`
	Decision     string                `json:"decision"`
	Reason       string                `json:"reason"`
}

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	return TaskDTO{
		ID:                 task.ID,
		Title:              task.Title,
		Status:             task.Status,
		StatusLabel:        task.StatusLabel,
		CustomStatusID:     nullable(task.CustomStatusID),
		Importance:         task.Importance,
		Due:                task.Due,
		Start:              task.Start,
		DueType:            nullable(task.DueType),
		EffortMinutes:      task.EffortMinutes,
		EffortHours:        hours(task.EffortHours),
		Description:        task.Description,
		DescriptionPreview: task.DescriptionPreview,
		Permalink:          task.Permalink,
	}
}

// ToTaskDTOs converts a task list, never returning nil
func ToTaskDTOs(tasks []models.Task) []TaskDTO {
	out := make([]TaskDTO, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, ToTaskDTO(task))
	}
	return out
}

func toDecidedTaskDTOs(tasks []workload.DecidedTask) []DecidedTaskDTO {
	out := make([]DecidedTaskDTO, 0, len(tasks))
	for _, d := range tasks {
		out = append(out, DecidedTaskDTO{
			TaskDTO:      ToTaskDTO(d.Task),
			DecisionType: d.DecisionType,
			Decision:     d.Decision,
			Reason:       d.Reason,
		})
	}
	return out
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// hours rounds for display; computations keep full precision.
func hours(v float64) float64 {
	return workload.Round(v, 2)
}

func pct(v float64) float64 {
	return workload.Round(v, 1)
}
