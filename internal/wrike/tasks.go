package wrike

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/yukikurage/workload-dashboard/internal/constants"
	"github.com/yukikurage/workload-dashboard/internal/models"
)

const (
	fieldsWithDescription = "[effortAllocation,description]"
	fieldsBasic           = "[effortAllocation]"
	statusActive          = "Active"
	datesTypePlanned      = "Planned"
)

type envelope[T any] struct {
	Data          []T    `json:"data"`
	NextPageToken string `json:"nextPageToken"`
}

func (c *Client) taskFields(withDescription bool) string {
	if withDescription {
		return fieldsWithDescription
	}
	return fieldsBasic
}

// ListTasksForResponsible returns the active tasks assigned to contactID.
// Pagination stops when no continuation token is returned or after
// MaxTaskPages pages.
func (c *Client) ListTasksForResponsible(ctx context.Context, contactID string) ([]models.RawTask, error) {
	var (
		tasks     []models.RawTask
		pageToken string
	)

	for page := 0; page < constants.MaxTaskPages; page++ {
		payload, err := c.listPage(ctx, contactID, pageToken)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, payload.Data...)
		if payload.NextPageToken == "" {
			return tasks, nil
		}
		pageToken = payload.NextPageToken
	}

	c.logger.Warn("task pagination cap reached",
		"contact_id", contactID,
		"pages", constants.MaxTaskPages,
		"tasks", len(tasks),
	)
	return tasks, nil
}

// listPage fetches one page, retrying it once without the description
// field when the deployment rejects that field.
func (c *Client) listPage(ctx context.Context, contactID, pageToken string) (envelope[models.RawTask], error) {
	query := func(withDescription bool) url.Values {
		q := url.Values{}
		q.Set("responsibles", fmt.Sprintf("[%q]", contactID))
		q.Set("status", statusActive)
		q.Set("fields", c.taskFields(withDescription))
		q.Set("pageSize", strconv.Itoa(constants.TaskPageSize))
		if pageToken != "" {
			q.Set("nextPageToken", pageToken)
		}
		return q
	}

	var payload envelope[models.RawTask]
	withDescription := c.supportsDescription.Load()
	err := c.get(ctx, "/tasks", query(withDescription), &payload)
	if err != nil && withDescription && isUnsupportedDescriptionError(err) {
		c.disableDescription()
		payload = envelope[models.RawTask]{}
		err = c.get(ctx, "/tasks", query(false), &payload)
	}
	if err != nil {
		return envelope[models.RawTask]{}, fmt.Errorf("list tasks for %s: %w", contactID, err)
	}
	return payload, nil
}

// GetTasksByIDs fetches tasks by id. Ids are deduplicated and requested in
// batches of TaskIDBatchSize. Unknown ids are simply absent from the result.
func (c *Client) GetTasksByIDs(ctx context.Context, ids []string) ([]models.RawTask, error) {
	unique := dedupe(ids)
	out := make([]models.RawTask, 0, len(unique))

	for _, group := range chunk(unique, constants.TaskIDBatchSize) {
		escaped := make([]string, len(group))
		for i, id := range group {
			escaped[i] = url.PathEscape(id)
		}
		path := "/tasks/" + strings.Join(escaped, ",")

		var payload envelope[models.RawTask]
		withDescription := c.supportsDescription.Load()
		err := c.get(ctx, path, url.Values{"fields": {c.taskFields(withDescription)}}, &payload)
		if err != nil && withDescription && isUnsupportedDescriptionError(err) {
			c.disableDescription()
			payload = envelope[models.RawTask]{}
			err = c.get(ctx, path, url.Values{"fields": {fieldsBasic}}, &payload)
		}
		if err != nil {
			return nil, fmt.Errorf("get tasks by id: %w", err)
		}
		out = append(out, payload.Data...)
	}
	return out, nil
}

func (c *Client) disableDescription() {
	if c.supportsDescription.CompareAndSwap(true, false) {
		c.logger.Warn("wrike rejected the description field; task descriptions disabled")
	}
}

// DatesPatch is the planned-dates payload of a task update.
type DatesPatch struct {
	Type  string `json:"type"`
	Due   string `json:"due"`
	Start string `json:"start,omitempty"`
}

// PlannedDates builds a Planned DatesPatch; an empty start is omitted.
func PlannedDates(due, start string) *DatesPatch {
	return &DatesPatch{Type: datesTypePlanned, Due: due, Start: start}
}

// TaskPatch is a partial task update. Zero fields are not sent.
type TaskPatch struct {
	Dates      *DatesPatch
	Importance models.Importance
	Status     string
}

func (p TaskPatch) form() (url.Values, error) {
	form := url.Values{}
	if p.Dates != nil {
		encoded, err := json.Marshal(p.Dates)
		if err != nil {
			return nil, err
		}
		form.Set("dates", string(encoded))
	}
	if p.Importance != "" {
		form.Set("importance", string(p.Importance))
	}
	if p.Status != "" {
		form.Set("status", p.Status)
	}
	return form, nil
}

// UpdateTask applies patch to the task.
func (c *Client) UpdateTask(ctx context.Context, taskID string, patch TaskPatch) error {
	form, err := patch.form()
	if err != nil {
		return fmt.Errorf("encode task patch: %w", err)
	}
	if len(form) == 0 {
		return nil
	}
	if err := c.put(ctx, "/tasks/"+url.PathEscape(taskID), form); err != nil {
		return fmt.Errorf("update task %s: %w", taskID, err)
	}
	return nil
}

func (c *Client) DeleteTask(ctx context.Context, taskID string) error {
	if err := c.delete(ctx, "/tasks/"+url.PathEscape(taskID)); err != nil {
		return fmt.Errorf("delete task %s: %w", taskID, err)
	}
	return nil
}

// AddComment posts an HTML comment on the task.
func (c *Client) AddComment(ctx context.Context, taskID, text string) error {
	path := "/tasks/" + url.PathEscape(taskID) + "/comments"
	if err := c.post(ctx, path, url.Values{"text": {text}}); err != nil {
		return fmt.Errorf("comment on task %s: %w", taskID, err)
	}
	return nil
}

func (c *Client) ListWorkflows(ctx context.Context) ([]models.RawWorkflow, error) {
	var payload envelope[models.RawWorkflow]
	if err := c.get(ctx, "/workflows", nil, &payload); err != nil {
		return nil, fmt.Errorf("list workflows: %w", err)
	}
	return payload.Data, nil
}

func (c *Client) ListContacts(ctx context.Context) ([]models.RawContact, error) {
	var payload envelope[models.RawContact]
	if err := c.get(ctx, "/contacts", nil, &payload); err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	return payload.Data, nil
}

func dedupe(ids []string) []string {
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

func chunk(items []string, size int) [][]string {
	var out [][]string
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		out = append(out, items[start:end])
	}
	return out
}
