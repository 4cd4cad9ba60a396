package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yukikurage/workload-dashboard/internal/constants"
	"github.com/yukikurage/workload-dashboard/internal/dateutil"
	"github.com/yukikurage/workload-dashboard/internal/dto"
	apierrors "github.com/yukikurage/workload-dashboard/internal/errors"
	"github.com/yukikurage/workload-dashboard/internal/models"
	"github.com/yukikurage/workload-dashboard/internal/services"
)

// TaskActions is the write side used by ActionHandler
type TaskActions interface {
	PushByDays(ctx context.Context, taskIDs []string, shiftDays int) (*services.BatchResult, error)
	Schedule(ctx context.Context, taskIDs []string, target dateutil.Date) (*services.BatchResult, error)
	SetLabel(ctx context.Context, taskIDs []string, label models.Label) (*services.BatchResult, error)
	Delete(ctx context.Context, taskIDs []string) (*services.BatchResult, error)
	Cancel(ctx context.Context, taskIDs []string, reason string) (*services.BatchResult, error)
}

// ActionLogReader exposes the rolling action log
type ActionLogReader interface {
	Recent(n int) []models.ActionLogEntry
}

type ActionHandler struct {
	actions TaskActions
	log     ActionLogReader
}

func NewActionHandler(actions TaskActions, log ActionLogReader) *ActionHandler {
	return &ActionHandler{actions: actions, log: log}
}

// PushWeek shifts the selected tasks by shiftDays (default 7)
func (h *ActionHandler) PushWeek(c *gin.Context) {
	var req dto.PushWeekRequest
	if !bindBody(c, &req) || !requireTaskIDs(c, req.TaskIDs) {
		return
	}
	result, err := h.actions.PushByDays(c.Request.Context(), req.TaskIDs, req.ShiftDays)
	h.respond(c, result, err, "")
}

// Schedule moves the selected tasks to targetDate
func (h *ActionHandler) Schedule(c *gin.Context) {
	var req dto.ScheduleRequest
	if !bindBody(c, &req) {
		return
	}
	if len(req.TaskIDs) == 0 || req.TargetDate == nil || req.TargetDate.IsZero() {
		apierrors.MissingField(c, "taskIds and targetDate are required", "taskIds", "targetDate")
		return
	}
	result, err := h.actions.Schedule(c.Request.Context(), req.TaskIDs, *req.TargetDate)
	h.respond(c, result, err, "")
}

// SetLabel applies prio, remove or clear through the importance field
func (h *ActionHandler) SetLabel(c *gin.Context) {
	var req dto.LabelRequest
	if !bindBody(c, &req) {
		return
	}
	if len(req.TaskIDs) == 0 || strings.TrimSpace(req.LabelKey) == "" {
		apierrors.MissingField(c, "taskIds and labelKey are required", "taskIds", "labelKey")
		return
	}
	label, err := models.ParseLabel(strings.TrimSpace(req.LabelKey))
	if err != nil {
		apierrors.BadRequest(c, err.Error())
		return
	}
	result, err := h.actions.SetLabel(c.Request.Context(), req.TaskIDs, label)
	h.respond(c, result, err, string(label))
}

// Delete removes the selected tasks
func (h *ActionHandler) Delete(c *gin.Context) {
	var req dto.TaskIDsRequest
	if !bindBody(c, &req) || !requireTaskIDs(c, req.TaskIDs) {
		return
	}
	result, err := h.actions.Delete(c.Request.Context(), req.TaskIDs)
	h.respond(c, result, err, "")
}

// Cancel comments the reason and sets a cancelled status on each task
func (h *ActionHandler) Cancel(c *gin.Context) {
	var req dto.CancelRequest
	if !bindBody(c, &req) || !requireTaskIDs(c, req.TaskIDs) {
		return
	}
	if strings.TrimSpace(req.Reason) == "" {
		apierrors.MissingField(c, "reason is required", "reason")
		return
	}
	result, err := h.actions.Cancel(c.Request.Context(), req.TaskIDs, req.Reason)
	h.respond(c, result, err, "")
}

// ActionLog returns the most recent remediation actions, newest first
func (h *ActionHandler) ActionLog(c *gin.Context) {
	c.JSON(http.StatusOK, dto.DataResponse[models.ActionLogEntry]{Data: h.log.Recent(constants.ActionLogPageSize)})
}

func (h *ActionHandler) respond(c *gin.Context, result *services.BatchResult, err error, labelKey string) {
	if err != nil {
		apierrors.RespondError(c, err)
		return
	}
	resp := dto.ToBatchResponse(result)
	resp.LabelKey = labelKey
	c.JSON(http.StatusOK, resp)
}

// bindBody decodes the JSON body into req. An empty body decodes as {}.
func bindBody(c *gin.Context, req any) bool {
	err := c.ShouldBindJSON(req)
	switch {
	case err == nil, errors.Is(err, io.EOF):
		return true
	case errors.Is(err, apierrors.ErrInvalidDateFormat):
		apierrors.RespondError(c, err)
	default:
		apierrors.BadRequest(c, "Invalid request body: "+err.Error())
	}
	return false
}

func requireTaskIDs(c *gin.Context, ids []string) bool {
	if len(ids) == 0 {
		apierrors.MissingField(c, "taskIds is required", "taskIds")
		return false
	}
	return true
}
