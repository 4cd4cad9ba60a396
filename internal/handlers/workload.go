package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yukikurage/workload-dashboard/internal/constants"
	"github.com/yukikurage/workload-dashboard/internal/dateutil"
	"github.com/yukikurage/workload-dashboard/internal/dto"
	apierrors "github.com/yukikurage/workload-dashboard/internal/errors"
	"github.com/yukikurage/workload-dashboard/internal/models"
	"github.com/yukikurage/workload-dashboard/internal/services"
	"github.com/yukikurage/workload-dashboard/internal/utils"
	"github.com/yukikurage/workload-dashboard/internal/workload"
)

// WorkloadQueries is the read side used by WorkloadHandler
type WorkloadQueries interface {
	GetWorkload(ctx context.Context, contactID string, date dateutil.Date, capacityHours float64) (*services.WorkloadResult, error)
	GetOverview(ctx context.Context, date dateutil.Date, capacityHours float64, limit int) (workload.Overview, error)
	PlanningOptions(ctx context.Context, contactID string, from dateutil.Date, taskIDs []string, capacityHours float64) (workload.PlanResult, error)
	ListContacts(ctx context.Context) ([]models.Contact, error)
}

type WorkloadHandler struct {
	queries         WorkloadQueries
	defaultCapacity float64
	now             func() time.Time
}

func NewWorkloadHandler(queries WorkloadQueries, defaultCapacity float64, now func() time.Time) *WorkloadHandler {
	if defaultCapacity <= 0 {
		defaultCapacity = constants.DefaultCapacityHours
	}
	if now == nil {
		now = time.Now
	}
	return &WorkloadHandler{queries: queries, defaultCapacity: defaultCapacity, now: now}
}

// GetWorkload returns one contact's buckets, summary and next-week preview
func (h *WorkloadHandler) GetWorkload(c *gin.Context) {
	contactID := strings.TrimSpace(c.Query("contactId"))
	rawDate := strings.TrimSpace(c.Query("date"))
	if missing := missingFields(map[string]string{"contactId": contactID, "date": rawDate}, "contactId", "date"); len(missing) > 0 {
		apierrors.MissingField(c, "Missing required query params: "+strings.Join(missing, ", "), missing...)
		return
	}

	date, err := dateutil.Parse(rawDate)
	if err != nil {
		apierrors.RespondError(c, err)
		return
	}

	result, err := h.queries.GetWorkload(c.Request.Context(), contactID, date, h.capacity(c))
	if err != nil {
		apierrors.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToWorkloadResponse(result))
}

// GetOverview returns the management overview across active contacts
func (h *WorkloadHandler) GetOverview(c *gin.Context) {
	date, err := utils.GetDateParam(c, "date", dateutil.FromTime(h.now()))
	if err != nil {
		apierrors.RespondError(c, err)
		return
	}
	limit := utils.GetLimitParam(c, "limit", constants.DefaultOverviewLimit, 0)

	overview, err := h.queries.GetOverview(c.Request.Context(), date, h.capacity(c), limit)
	if err != nil {
		apierrors.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToOverviewResponse(overview))
}

// GetPlanningOptions scores the next 14 days as targets for the selected tasks
func (h *WorkloadHandler) GetPlanningOptions(c *gin.Context) {
	contactID := strings.TrimSpace(c.Query("contactId"))
	rawFrom := strings.TrimSpace(c.Query("fromDate"))
	taskIDs := utils.SplitIDs(c.Query("taskIds"))

	fields := map[string]string{"contactId": contactID, "fromDate": rawFrom, "taskIds": strings.Join(taskIDs, ",")}
	if missing := missingFields(fields, "contactId", "fromDate", "taskIds"); len(missing) > 0 {
		apierrors.MissingField(c, "Missing required params: "+strings.Join(missing, ", "), missing...)
		return
	}

	from, err := dateutil.Parse(rawFrom)
	if err != nil {
		apierrors.RespondError(c, err)
		return
	}

	result, err := h.queries.PlanningOptions(c.Request.Context(), contactID, from, taskIDs, h.capacity(c))
	if err != nil {
		apierrors.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToPlanningOptionsResponse(result))
}

// ListContacts returns active people sorted by name
func (h *WorkloadHandler) ListContacts(c *gin.Context) {
	contacts, err := h.queries.ListContacts(c.Request.Context())
	if err != nil {
		apierrors.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.DataResponse[models.Contact]{Data: contacts})
}

func (h *WorkloadHandler) capacity(c *gin.Context) float64 {
	return utils.GetCapacityParam(c, "capacity", h.defaultCapacity)
}

func missingFields(values map[string]string, order ...string) []string {
	var missing []string
	for _, key := range order {
		if values[key] == "" {
			missing = append(missing, key)
		}
	}
	return missing
}
