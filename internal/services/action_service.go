package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/yukikurage/workload-dashboard/internal/actionlog"
	"github.com/yukikurage/workload-dashboard/internal/constants"
	"github.com/yukikurage/workload-dashboard/internal/dateutil"
	apierrors "github.com/yukikurage/workload-dashboard/internal/errors"
	"github.com/yukikurage/workload-dashboard/internal/models"
	"github.com/yukikurage/workload-dashboard/internal/workload"
	"github.com/yukikurage/workload-dashboard/internal/wrike"
)

// DefaultCancelStatuses are tried in order when cancelling a task
var DefaultCancelStatuses = []string{"Cancelled", "Canceled"}

// ItemResult is the outcome of one task in a bulk action
type ItemResult struct {
	TaskID         string
	OK             bool
	Title          string
	Error          string
	FromDue        *dateutil.Date
	ToDue          *dateutil.Date
	FromImportance models.Importance
	ToImportance   models.Importance
	Status         string
}

// BatchResult summarizes a bulk action. Partial success is a normal outcome.
type BatchResult struct {
	Total        int
	SuccessCount int
	FailedCount  int
	Results      []ItemResult
}

func (b *BatchResult) add(r ItemResult) {
	b.Results = append(b.Results, r)
	b.Total++
	if r.OK {
		b.SuccessCount++
	} else {
		b.FailedCount++
	}
}

// ActionService applies remediation actions to batches of tasks. Items run
// sequentially; a failing item never aborts its siblings and successful
// items are not rolled back.
type ActionService struct {
	store          TaskStore
	log            *actionlog.Log
	mentions       *MentionResolver
	cancelStatuses []string
	logger         *slog.Logger
}

// NewActionService creates a new ActionService
func NewActionService(store TaskStore, log *actionlog.Log, mentions *MentionResolver, cancelStatuses []string, logger *slog.Logger) *ActionService {
	if len(cancelStatuses) == 0 {
		cancelStatuses = DefaultCancelStatuses
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ActionService{
		store:          store,
		log:            log,
		mentions:       mentions,
		cancelStatuses: cancelStatuses,
		logger:         logger,
	}
}

// PushByDays shifts each task's due date, and start date when set, by
// shiftDays (default 7)
func (s *ActionService) PushByDays(ctx context.Context, taskIDs []string, shiftDays int) (*BatchResult, error) {
	if shiftDays == 0 {
		shiftDays = constants.DefaultShiftDays
	}
	return s.move(ctx, taskIDs, models.ActionPushWeek, workload.MoveRequest{ShiftDays: shiftDays})
}

// Schedule moves each task's due date to target, keeping its duration
func (s *ActionService) Schedule(ctx context.Context, taskIDs []string, target dateutil.Date) (*BatchResult, error) {
	if target.IsZero() {
		return nil, requiredFieldError("targetDate")
	}
	return s.move(ctx, taskIDs, models.ActionSchedule, workload.MoveRequest{Target: &target})
}

func (s *ActionService) move(ctx context.Context, taskIDs []string, action models.ActionType, req workload.MoveRequest) (*BatchResult, error) {
	return s.run(ctx, taskIDs, func(ctx context.Context, task models.Task) (ItemResult, error) {
		plan, err := workload.PlanMove(task, req)
		if err != nil {
			return ItemResult{}, err
		}

		var start string
		if plan.Start != nil {
			start = plan.Start.String()
		}
		if err := s.store.UpdateTask(ctx, task.ID, wrike.TaskPatch{Dates: wrike.PlannedDates(plan.Due.String(), start)}); err != nil {
			return ItemResult{}, err
		}

		s.log.Append(ctx, models.ActionLogEntry{
			Action:  action,
			TaskID:  task.ID,
			Title:   task.Title,
			FromDue: dateString(plan.FromDue),
			ToDue:   plan.Due.String(),
		})
		return ItemResult{FromDue: plan.FromDue, ToDue: dateutil.Ptr(plan.Due)}, nil
	})
}

// SetLabel writes the importance that encodes label. Clearing resets
// importance to Normal whatever it was before.
func (s *ActionService) SetLabel(ctx context.Context, taskIDs []string, label models.Label) (*BatchResult, error) {
	if _, err := models.ParseLabel(string(label)); err != nil {
		return nil, fmt.Errorf("%w: %s", apierrors.ErrValidation, err.Error())
	}
	target := label.Importance()

	return s.run(ctx, taskIDs, func(ctx context.Context, task models.Task) (ItemResult, error) {
		if err := s.store.UpdateTask(ctx, task.ID, wrike.TaskPatch{Importance: target}); err != nil {
			return ItemResult{}, err
		}
		s.log.Append(ctx, models.ActionLogEntry{
			Action:         label.Action(),
			TaskID:         task.ID,
			Title:          task.Title,
			FromImportance: task.Importance,
			ToImportance:   target,
		})
		return ItemResult{FromImportance: task.Importance, ToImportance: target}, nil
	})
}

// Delete removes each task from the remote store
func (s *ActionService) Delete(ctx context.Context, taskIDs []string) (*BatchResult, error) {
	return s.run(ctx, taskIDs, func(ctx context.Context, task models.Task) (ItemResult, error) {
		if err := s.store.DeleteTask(ctx, task.ID); err != nil {
			return ItemResult{}, err
		}
		s.log.Append(ctx, models.ActionLogEntry{
			Action: models.ActionDelete,
			TaskID: task.ID,
			Title:  task.Title,
		})
		return ItemResult{}, nil
	})
}

// Cancel posts a comment mentioning the planning contact with reason, then
// sets the first accepted cancel status
func (s *ActionService) Cancel(ctx context.Context, taskIDs []string, reason string) (*BatchResult, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, requiredFieldError("reason")
	}

	return s.run(ctx, taskIDs, func(ctx context.Context, task models.Task) (ItemResult, error) {
		mention, err := s.mentions.Resolve(ctx)
		if err != nil {
			return ItemResult{}, err
		}
		if err := s.store.AddComment(ctx, task.ID, BuildMentionComment(reason, mention)); err != nil {
			return ItemResult{}, err
		}

		status, err := s.setCancelStatus(ctx, task.ID)
		if err != nil {
			return ItemResult{}, err
		}
		s.log.Append(ctx, models.ActionLogEntry{
			Action: models.ActionCancel,
			TaskID: task.ID,
			Title:  task.Title,
			Status: status,
		})
		return ItemResult{Status: status}, nil
	})
}

func (s *ActionService) setCancelStatus(ctx context.Context, taskID string) (string, error) {
	var firstErr error
	for _, status := range s.cancelStatuses {
		err := s.store.UpdateTask(ctx, taskID, wrike.TaskPatch{Status: status})
		if err == nil {
			return status, nil
		}
		if firstErr == nil {
			firstErr = err
		}
		s.logger.Debug("cancel status rejected", "task_id", taskID, "status", status, "error", err)
	}
	return "", fmt.Errorf("comment posted, but setting status to %s failed: %w", s.cancelStatuses[0], firstErr)
}

type itemFunc func(ctx context.Context, task models.Task) (ItemResult, error)

// run resolves all ids with one bulk fetch and applies fn to each task in
// input order. A failed bulk fetch fails the whole request.
func (s *ActionService) run(ctx context.Context, taskIDs []string, fn itemFunc) (*BatchResult, error) {
	taskIDs = uniqueIDs(taskIDs)
	if len(taskIDs) == 0 {
		return nil, requiredFieldError("taskIds")
	}

	raw, err := s.store.GetTasksByIDs(ctx, taskIDs)
	if err != nil {
		return nil, err
	}
	byID := models.IndexByID(normalizeAll(raw, nil, s.logger))

	result := &BatchResult{Results: make([]ItemResult, 0, len(taskIDs))}
	for _, id := range taskIDs {
		task, ok := byID[id]
		if !ok {
			result.add(ItemResult{TaskID: id, Error: apierrors.ErrTaskNotFound.Error()})
			continue
		}

		item, err := fn(ctx, task)
		item.TaskID = task.ID
		item.Title = task.Title
		if err != nil {
			s.logger.Warn("bulk action item failed", "task_id", task.ID, "error", err)
			item = ItemResult{TaskID: task.ID, Title: task.Title, Error: err.Error()}
		} else {
			item.OK = true
		}
		result.add(item)
	}
	return result, nil
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func requiredFieldError(field string) error {
	return apierrors.Validationf("%s is required", field)
}

func dateString(d *dateutil.Date) string {
	if d == nil {
		return ""
	}
	return d.String()
}
