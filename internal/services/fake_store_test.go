package services

import (
	"context"
	"errors"
	"sync"

	apierrors "github.com/yukikurage/workload-dashboard/internal/errors"
	"github.com/yukikurage/workload-dashboard/internal/models"
	"github.com/yukikurage/workload-dashboard/internal/wrike"
)

type updateCall struct {
	TaskID string
	Patch  wrike.TaskPatch
}

// fakeStore is an in-memory TaskStore.
type fakeStore struct {
	mu sync.Mutex

	tasks       map[string]models.RawTask
	byContact   map[string][]string
	contacts    []models.RawContact
	workflows   []models.RawWorkflow
	rejectState map[string]bool

	listErr      error
	getErr       error
	workflowErr  error
	updateErr    map[string]error
	workflowHits int
	contactHits  int

	updates  []updateCall
	deleted  []string
	comments map[string][]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		tasks:       map[string]models.RawTask{},
		byContact:   map[string][]string{},
		rejectState: map[string]bool{},
		updateErr:   map[string]error{},
		comments:    map[string][]string{},
	}
}

func (f *fakeStore) addTask(contactID string, raw models.RawTask) {
	f.tasks[raw.ID] = raw
	if contactID != "" {
		f.byContact[contactID] = append(f.byContact[contactID], raw.ID)
	}
}

func (f *fakeStore) ListTasksForResponsible(_ context.Context, contactID string) ([]models.RawTask, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []models.RawTask
	for _, id := range f.byContact[contactID] {
		out = append(out, f.tasks[id])
	}
	return out, nil
}

func (f *fakeStore) GetTasksByIDs(_ context.Context, ids []string) ([]models.RawTask, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	var out []models.RawTask
	for _, id := range ids {
		if raw, ok := f.tasks[id]; ok {
			out = append(out, raw)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateTask(_ context.Context, taskID string, patch wrike.TaskPatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.updateErr[taskID]; err != nil {
		return err
	}
	if patch.Status != "" && f.rejectState[patch.Status] {
		return &apierrors.UpstreamError{Status: 400, Code: "invalid_parameter", Message: "Invalid status " + patch.Status}
	}
	f.updates = append(f.updates, updateCall{TaskID: taskID, Patch: patch})

	raw, ok := f.tasks[taskID]
	if !ok {
		return &apierrors.UpstreamError{Status: 404, Message: "Task not found"}
	}
	if patch.Importance != "" {
		raw.Importance = string(patch.Importance)
	}
	if patch.Dates != nil {
		raw.Dates = &models.RawTaskDates{Type: patch.Dates.Type, Due: patch.Dates.Due, Start: patch.Dates.Start}
	}
	if patch.Status != "" {
		raw.Status = patch.Status
	}
	f.tasks[taskID] = raw
	return nil
}

func (f *fakeStore) DeleteTask(_ context.Context, taskID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.updateErr[taskID]; err != nil {
		return err
	}
	delete(f.tasks, taskID)
	f.deleted = append(f.deleted, taskID)
	return nil
}

func (f *fakeStore) AddComment(_ context.Context, taskID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.comments[taskID] = append(f.comments[taskID], text)
	return nil
}

func (f *fakeStore) ListWorkflows(context.Context) ([]models.RawWorkflow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.workflowHits++
	if f.workflowErr != nil {
		return nil, f.workflowErr
	}
	return f.workflows, nil
}

func (f *fakeStore) ListContacts(context.Context) ([]models.RawContact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.contactHits++
	return f.contacts, nil
}

var errBoom = errors.New("boom")

func rawTask(id, due string, minutes float64) models.RawTask {
	raw := models.RawTask{
		ID:               id,
		Title:            "Task " + id,
		Status:           "Active",
		Importance:       "Normal",
		EffortAllocation: &models.RawEffortAllocation{TotalEffort: minutes},
	}
	if due != "" {
		raw.Dates = &models.RawTaskDates{Type: "Planned", Due: due + "T17:00:00"}
	}
	return raw
}

func person(id, first, last, email string) models.RawContact {
	return models.RawContact{ID: id, FirstName: first, LastName: last, Type: "Person", PrimaryEmail: email}
}
