package services

import (
	"context"
	"log/slog"

	"github.com/yukikurage/workload-dashboard/internal/models"
	"github.com/yukikurage/workload-dashboard/internal/normalizer"
	"github.com/yukikurage/workload-dashboard/internal/wrike"
)

// TaskStore is the remote task store used by the services
type TaskStore interface {
	ListTasksForResponsible(ctx context.Context, contactID string) ([]models.RawTask, error)
	GetTasksByIDs(ctx context.Context, ids []string) ([]models.RawTask, error)
	UpdateTask(ctx context.Context, taskID string, patch wrike.TaskPatch) error
	DeleteTask(ctx context.Context, taskID string) error
	AddComment(ctx context.Context, taskID, text string) error
	ListWorkflows(ctx context.Context) ([]models.RawWorkflow, error)
	ListContacts(ctx context.Context) ([]models.RawContact, error)
}

// normalizeAll maps raw tasks, skipping records that fail validation
func normalizeAll(raw []models.RawTask, labels normalizer.StatusLabeler, logger *slog.Logger) []models.Task {
	tasks := make([]models.Task, 0, len(raw))
	for _, r := range raw {
		task, err := normalizer.Normalize(r, labels)
		if err != nil {
			logger.Warn("skipping malformed task", "task_id", r.ID, "error", err)
			continue
		}
		tasks = append(tasks, task)
	}
	return tasks
}
