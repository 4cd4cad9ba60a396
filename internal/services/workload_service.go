package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/yukikurage/workload-dashboard/internal/constants"
	"github.com/yukikurage/workload-dashboard/internal/dateutil"
	"github.com/yukikurage/workload-dashboard/internal/models"
	"github.com/yukikurage/workload-dashboard/internal/utils"
	"github.com/yukikurage/workload-dashboard/internal/workload"
)

// WorkloadConfig tunes the read-side services
type WorkloadConfig struct {
	FetchConcurrency int
	Thresholds       workload.Thresholds
}

// WorkloadService builds workload views from freshly fetched tasks
type WorkloadService struct {
	store    TaskStore
	statuses *StatusCatalog
	teams    workload.TeamResolver
	cfg      WorkloadConfig
	logger   *slog.Logger
}

// NewWorkloadService creates a new WorkloadService
func NewWorkloadService(store TaskStore, statuses *StatusCatalog, teams workload.TeamResolver, cfg WorkloadConfig, logger *slog.Logger) *WorkloadService {
	if cfg.FetchConcurrency <= 0 {
		cfg.FetchConcurrency = constants.FetchConcurrency
	}
	if cfg.Thresholds == (workload.Thresholds{}) {
		cfg.Thresholds = workload.DefaultThresholds()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkloadService{
		store:    store,
		statuses: statuses,
		teams:    teams,
		cfg:      cfg,
		logger:   logger,
	}
}

// WorkloadResult is one contact's workload for one day
type WorkloadResult struct {
	Summary     workload.Summary
	WeekPreview workload.WeekPreview
	Buckets     workload.Buckets
}

// GetWorkload buckets a contact's active tasks around date
func (s *WorkloadService) GetWorkload(ctx context.Context, contactID string, date dateutil.Date, capacityHours float64) (*WorkloadResult, error) {
	if strings.TrimSpace(contactID) == "" {
		return nil, requiredFieldError("contactId")
	}

	tasks, err := s.contactTasks(ctx, contactID)
	if err != nil {
		return nil, err
	}

	buckets := workload.Bucket(tasks, date)
	return &WorkloadResult{
		Summary:     workload.Summarize(buckets, date, capacityHours),
		WeekPreview: workload.BuildWeekPreview(tasks, date, capacityHours),
		Buckets:     buckets,
	}, nil
}

// GetOverview analyses up to limit active people, fetching their tasks with
// a bounded number of concurrent requests
func (s *WorkloadService) GetOverview(ctx context.Context, date dateutil.Date, capacityHours float64, limit int) (workload.Overview, error) {
	if limit <= 0 {
		limit = constants.DefaultOverviewLimit
	}

	raw, err := s.store.ListContacts(ctx)
	if err != nil {
		return workload.Overview{}, err
	}
	contacts := make([]models.Contact, 0, len(raw))
	for _, c := range models.ActivePeople(raw) {
		if strings.HasSuffix(strings.ToLower(c.Email), constants.RobotEmailSuffix) {
			continue
		}
		contacts = append(contacts, c)
	}
	if len(contacts) > limit {
		contacts = contacts[:limit]
	}

	labels := s.statuses.Labels(ctx)
	rows, err := utils.MapWithConcurrency(ctx, contacts, s.cfg.FetchConcurrency,
		func(ctx context.Context, _ int, c models.Contact) (workload.ContactTasks, error) {
			raw, err := s.store.ListTasksForResponsible(ctx, c.ID)
			if err != nil {
				return workload.ContactTasks{}, fmt.Errorf("tasks for %s: %w", c.FullName, err)
			}
			return workload.ContactTasks{Contact: c, Tasks: normalizeAll(raw, labels, s.logger)}, nil
		})
	if err != nil {
		return workload.Overview{}, err
	}

	return workload.BuildOverview(rows, date, capacityHours, s.cfg.Thresholds, s.teams), nil
}

// PlanningOptions scores the next days as targets for the selected tasks.
// Selected ids outside the contact's task list are fetched by id.
func (s *WorkloadService) PlanningOptions(ctx context.Context, contactID string, from dateutil.Date, taskIDs []string, capacityHours float64) (workload.PlanResult, error) {
	if strings.TrimSpace(contactID) == "" {
		return workload.PlanResult{}, requiredFieldError("contactId")
	}
	taskIDs = uniqueIDs(taskIDs)
	if len(taskIDs) == 0 {
		return workload.PlanResult{}, requiredFieldError("taskIds")
	}

	labels := s.statuses.Labels(ctx)
	raw, err := s.store.ListTasksForResponsible(ctx, contactID)
	if err != nil {
		return workload.PlanResult{}, err
	}
	tasks := normalizeAll(raw, labels, s.logger)
	byID := models.IndexByID(tasks)

	selected := make([]models.Task, 0, len(taskIDs))
	var missing []string
	for _, id := range taskIDs {
		if task, ok := byID[id]; ok {
			selected = append(selected, task)
		} else {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		fetched, err := s.store.GetTasksByIDs(ctx, missing)
		if err != nil {
			return workload.PlanResult{}, err
		}
		selected = append(selected, normalizeAll(fetched, labels, s.logger)...)
	}

	return workload.PlanOptions(tasks, selected, from, constants.PlanningHorizonDays, capacityHours), nil
}

// ListContacts returns active people sorted by name
func (s *WorkloadService) ListContacts(ctx context.Context) ([]models.Contact, error) {
	raw, err := s.store.ListContacts(ctx)
	if err != nil {
		return nil, err
	}
	return models.ActivePeople(raw), nil
}

func (s *WorkloadService) contactTasks(ctx context.Context, contactID string) ([]models.Task, error) {
	labels := s.statuses.Labels(ctx)
	raw, err := s.store.ListTasksForResponsible(ctx, contactID)
	if err != nil {
		return nil, err
	}
	return normalizeAll(raw, labels, s.logger), nil
}
