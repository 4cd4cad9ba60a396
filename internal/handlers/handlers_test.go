package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"

	"github.com/yukikurage/workload-dashboard/internal/credentials"
	"github.com/yukikurage/workload-dashboard/internal/dateutil"
	apierrors "github.com/yukikurage/workload-dashboard/internal/errors"
	"github.com/yukikurage/workload-dashboard/internal/models"
	"github.com/yukikurage/workload-dashboard/internal/services"
	"github.com/yukikurage/workload-dashboard/internal/workload"
)

type stubQueries struct {
	err error

	contactID string
	date      dateutil.Date
	capacity  float64
	limit     int
	taskIDs   []string
}

func (s *stubQueries) GetWorkload(_ context.Context, contactID string, date dateutil.Date, capacity float64) (*services.WorkloadResult, error) {
	s.contactID, s.date, s.capacity = contactID, date, capacity
	if s.err != nil {
		return nil, s.err
	}
	due := dateutil.Ptr(date)
	tasks := []models.Task{
		{ID: "T1", Title: "Five", Due: due, EffortHours: 5},
		{ID: "T2", Title: "Three", Due: due, EffortHours: 3},
	}
	buckets := workload.Bucket(tasks, date)
	return &services.WorkloadResult{
		Summary:     workload.Summarize(buckets, date, capacity),
		WeekPreview: workload.BuildWeekPreview(tasks, date, capacity),
		Buckets:     buckets,
	}, nil
}

func (s *stubQueries) GetOverview(_ context.Context, date dateutil.Date, capacity float64, limit int) (workload.Overview, error) {
	s.date, s.capacity, s.limit = date, capacity, limit
	return workload.Overview{Summary: workload.OverviewSummary{Date: date}}, s.err
}

func (s *stubQueries) PlanningOptions(_ context.Context, contactID string, from dateutil.Date, taskIDs []string, capacity float64) (workload.PlanResult, error) {
	s.contactID, s.date, s.taskIDs, s.capacity = contactID, from, taskIDs, capacity
	if s.err != nil {
		return workload.PlanResult{}, s.err
	}
	return workload.PlanOptions(nil, nil, from, 14, capacity), nil
}

func (s *stubQueries) ListContacts(context.Context) ([]models.Contact, error) {
	return []models.Contact{{ID: "C1", FullName: "Ada Lovelace", Active: true}}, s.err
}

type stubActions struct {
	err    error
	result *services.BatchResult

	ids       []string
	shiftDays int
	target    dateutil.Date
	label     models.Label
	reason    string
}

func (s *stubActions) batch(ids []string) (*services.BatchResult, error) {
	s.ids = ids
	if s.err != nil {
		return nil, s.err
	}
	if s.result != nil {
		return s.result, nil
	}
	r := &services.BatchResult{}
	for _, id := range ids {
		r.Results = append(r.Results, services.ItemResult{TaskID: id, OK: true})
		r.Total++
		r.SuccessCount++
	}
	return r, nil
}

func (s *stubActions) PushByDays(_ context.Context, ids []string, shiftDays int) (*services.BatchResult, error) {
	s.shiftDays = shiftDays
	return s.batch(ids)
}

func (s *stubActions) Schedule(_ context.Context, ids []string, target dateutil.Date) (*services.BatchResult, error) {
	s.target = target
	return s.batch(ids)
}

func (s *stubActions) SetLabel(_ context.Context, ids []string, label models.Label) (*services.BatchResult, error) {
	s.label = label
	return s.batch(ids)
}

func (s *stubActions) Delete(_ context.Context, ids []string) (*services.BatchResult, error) {
	return s.batch(ids)
}

func (s *stubActions) Cancel(_ context.Context, ids []string, reason string) (*services.BatchResult, error) {
	s.reason = reason
	return s.batch(ids)
}

type stubLog struct {
	n int
}

func (l *stubLog) Recent(n int) []models.ActionLogEntry {
	l.n = n
	return []models.ActionLogEntry{{Action: models.ActionDelete, TaskID: "T1"}}
}

type stubCreds struct{ creds credentials.Credentials }

func (s stubCreds) Current() credentials.Credentials { return s.creds }

// HandlersTestSuite drives the handlers through a gin router
type HandlersTestSuite struct {
	suite.Suite
	queries *stubQueries
	actions *stubActions
	log     *stubLog
	router  *gin.Engine
}

func (suite *HandlersTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	suite.queries = &stubQueries{}
	suite.actions = &stubActions{}
	suite.log = &stubLog{}

	now := func() time.Time { return time.Date(2024, 5, 8, 23, 30, 0, 0, time.UTC) }
	workloadHandler := NewWorkloadHandler(suite.queries, 7, now)
	actionHandler := NewActionHandler(suite.actions, suite.log)
	healthHandler := NewHealthHandler(stubCreds{creds: credentials.Credentials{Host: "www.wrike.com", RefreshToken: "r"}})

	suite.router = gin.New()
	api := suite.router.Group("/api")
	api.GET("/health", healthHandler.Health)
	api.GET("/contacts", workloadHandler.ListContacts)
	api.GET("/action-log", actionHandler.ActionLog)
	api.GET("/workload", workloadHandler.GetWorkload)
	api.GET("/management-overview", workloadHandler.GetOverview)
	api.GET("/planning-options", workloadHandler.GetPlanningOptions)
	api.POST("/tasks/push-week", actionHandler.PushWeek)
	api.POST("/tasks/labels", actionHandler.SetLabel)
	api.POST("/tasks/schedule", actionHandler.Schedule)
	api.POST("/tasks/delete", actionHandler.Delete)
	api.POST("/tasks/cancel", actionHandler.Cancel)
}

func (suite *HandlersTestSuite) do(method, url string, body any) (*httptest.ResponseRecorder, map[string]any) {
	var req *http.Request
	if body != nil {
		var raw []byte
		switch b := body.(type) {
		case string:
			raw = []byte(b)
		default:
			var err error
			raw, err = json.Marshal(b)
			suite.Require().NoError(err)
		}
		req = httptest.NewRequest(method, url, bytes.NewReader(raw))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, url, nil)
	}

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	var out map[string]any
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &out))
	return w, out
}

func (suite *HandlersTestSuite) TestHealth() {
	w, body := suite.do(http.MethodGet, "/api/health", nil)
	suite.Equal(http.StatusOK, w.Code)
	suite.Equal(true, body["ok"])
	suite.Equal("www.wrike.com", body["wrikeHost"])
	suite.Equal("env", body["secretStore"])
	suite.Equal(false, body["hasAccessToken"])
	suite.Equal(true, body["hasRefreshToken"])
}

func (suite *HandlersTestSuite) TestListContacts() {
	w, body := suite.do(http.MethodGet, "/api/contacts", nil)
	suite.Equal(http.StatusOK, w.Code)
	data := body["data"].([]any)
	suite.Require().Len(data, 1)
	suite.Equal("Ada Lovelace", data[0].(map[string]any)["fullName"])
}

func (suite *HandlersTestSuite) TestActionLog() {
	w, body := suite.do(http.MethodGet, "/api/action-log", nil)
	suite.Equal(http.StatusOK, w.Code)
	suite.Equal(120, suite.log.n)
	suite.Len(body["data"], 1)
}

func (suite *HandlersTestSuite) TestGetWorkload() {
	w, body := suite.do(http.MethodGet, "/api/workload?contactId=C1&date=2024-05-08&capacity=7", nil)
	suite.Equal(http.StatusOK, w.Code)
	suite.Equal("C1", suite.queries.contactID)

	summary := body["summary"].(map[string]any)
	suite.Equal(8.0, summary["dueTodayHours"])
	suite.Equal(114.3, summary["utilizationPct"])
	suite.Equal(0.0, summary["overdueCount"])
	suite.Equal("2024-05-08", summary["date"])

	preview := body["weekPreview"].(map[string]any)
	suite.Equal("2024-05-13", preview["startDate"])
	suite.Equal(20.0, preview["isoWeek"])

	buckets := body["buckets"].(map[string]any)
	suite.Len(buckets["dueToday"], 2)
	suite.Len(buckets["backlog"], 0)
}

func (suite *HandlersTestSuite) TestGetWorkload_MissingParams() {
	w, body := suite.do(http.MethodGet, "/api/workload?contactId=C1", nil)
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal(apierrors.ErrCodeMissingField, body["code"])
	suite.Contains(body["message"], "date")
}

func (suite *HandlersTestSuite) TestGetWorkload_InvalidDate() {
	w, body := suite.do(http.MethodGet, "/api/workload?contactId=C1&date=08-05-2024", nil)
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal(apierrors.ErrCodeInvalidFormat, body["code"])
}

func (suite *HandlersTestSuite) TestGetWorkload_DefaultCapacity() {
	w, _ := suite.do(http.MethodGet, "/api/workload?contactId=C1&date=2024-05-08&capacity=abc", nil)
	suite.Equal(http.StatusOK, w.Code)
	suite.Equal(7.0, suite.queries.capacity)
}

func (suite *HandlersTestSuite) TestGetWorkload_ErrorMapping() {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"auth", &apierrors.AuthError{Message: "token rejected"}, http.StatusUnauthorized},
		{"upstream", &apierrors.UpstreamError{Status: 500, Message: "boom"}, http.StatusBadGateway},
		{"validation", apierrors.Validationf("contactId is required"), http.StatusBadRequest},
		{"not found", apierrors.ErrTaskNotFound, http.StatusNotFound},
	}
	for _, tt := range tests {
		suite.Run(tt.name, func() {
			suite.queries.err = tt.err
			w, _ := suite.do(http.MethodGet, "/api/workload?contactId=C1&date=2024-05-08", nil)
			suite.Equal(tt.status, w.Code)
		})
	}
}

func (suite *HandlersTestSuite) TestGetOverview_Defaults() {
	w, body := suite.do(http.MethodGet, "/api/management-overview", nil)
	suite.Equal(http.StatusOK, w.Code)
	suite.Equal("2024-05-08", suite.queries.date.String())
	suite.Equal(30, suite.queries.limit)
	suite.Equal(7.0, suite.queries.capacity)
	suite.Equal("2024-05-08", body["summary"].(map[string]any)["date"])
}

func (suite *HandlersTestSuite) TestGetOverview_Params() {
	w, _ := suite.do(http.MethodGet, "/api/management-overview?date=2024-06-03&capacity=6&limit=5", nil)
	suite.Equal(http.StatusOK, w.Code)
	suite.Equal("2024-06-03", suite.queries.date.String())
	suite.Equal(5, suite.queries.limit)
	suite.Equal(6.0, suite.queries.capacity)
}

func (suite *HandlersTestSuite) TestGetPlanningOptions() {
	w, body := suite.do(http.MethodGet, "/api/planning-options?contactId=C1&fromDate=2024-05-08&taskIds=T1,%20T2,,", nil)
	suite.Equal(http.StatusOK, w.Code)
	suite.Equal([]string{"T1", "T2"}, suite.queries.taskIDs)
	suite.Len(body["days"], 14)
	suite.Len(body["suggestions"], 3)
}

func (suite *HandlersTestSuite) TestGetPlanningOptions_MissingTaskIDs() {
	w, body := suite.do(http.MethodGet, "/api/planning-options?contactId=C1&fromDate=2024-05-08", nil)
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal([]any{"taskIds"}, body["details"].(map[string]any)["fields"])
}

func (suite *HandlersTestSuite) TestPushWeek() {
	w, body := suite.do(http.MethodPost, "/api/tasks/push-week", map[string]any{"taskIds": []string{"T1", "T2"}, "shiftDays": 3})
	suite.Equal(http.StatusOK, w.Code)
	suite.Equal(3, suite.actions.shiftDays)
	suite.Equal(true, body["ok"])
	suite.Equal(2.0, body["total"])
	suite.Equal(2.0, body["successCount"])
	suite.NotContains(body, "labelKey")
}

func (suite *HandlersTestSuite) TestPushWeek_PartialFailure() {
	suite.actions.result = &services.BatchResult{
		Total: 3, SuccessCount: 2, FailedCount: 1,
		Results: []services.ItemResult{
			{TaskID: "T1", OK: true},
			{TaskID: "T2", Error: "task not found"},
			{TaskID: "T3", OK: true},
		},
	}
	w, body := suite.do(http.MethodPost, "/api/tasks/push-week", map[string]any{"taskIds": []string{"T1", "T2", "T3"}})
	suite.Equal(http.StatusOK, w.Code)
	suite.Equal(1.0, body["failedCount"])
	results := body["results"].([]any)
	suite.Equal("T2", results[1].(map[string]any)["taskId"])
	suite.Equal(false, results[1].(map[string]any)["ok"])
}

func (suite *HandlersTestSuite) TestPushWeek_EmptyIDs() {
	w, _ := suite.do(http.MethodPost, "/api/tasks/push-week", map[string]any{"taskIds": []string{}})
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Nil(suite.actions.ids)
}

func (suite *HandlersTestSuite) TestPushWeek_MalformedBody() {
	w, body := suite.do(http.MethodPost, "/api/tasks/push-week", "{not json")
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal(apierrors.ErrCodeInvalidInput, body["code"])
}

func (suite *HandlersTestSuite) TestPushWeek_AuthFailure() {
	suite.actions.err = &apierrors.AuthError{Message: "wrike rejected the access token"}
	w, body := suite.do(http.MethodPost, "/api/tasks/push-week", map[string]any{"taskIds": []string{"T1"}})
	suite.Equal(http.StatusUnauthorized, w.Code)
	suite.Contains(body["message"], apierrors.ReauthGuidance)
}

func (suite *HandlersTestSuite) TestSchedule() {
	w, _ := suite.do(http.MethodPost, "/api/tasks/schedule", map[string]any{"taskIds": []string{"T1"}, "targetDate": "2024-05-20"})
	suite.Equal(http.StatusOK, w.Code)
	suite.Equal("2024-05-20", suite.actions.target.String())
}

func (suite *HandlersTestSuite) TestSchedule_InvalidDate() {
	w, body := suite.do(http.MethodPost, "/api/tasks/schedule", map[string]any{"taskIds": []string{"T1"}, "targetDate": "20-05-2024"})
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal(apierrors.ErrCodeInvalidFormat, body["code"])
}

func (suite *HandlersTestSuite) TestSchedule_MissingTarget() {
	w, _ := suite.do(http.MethodPost, "/api/tasks/schedule", map[string]any{"taskIds": []string{"T1"}})
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlersTestSuite) TestSetLabel() {
	w, body := suite.do(http.MethodPost, "/api/tasks/labels", map[string]any{"taskIds": []string{"T1"}, "labelKey": "prio"})
	suite.Equal(http.StatusOK, w.Code)
	suite.Equal(models.LabelPrio, suite.actions.label)
	suite.Equal("prio", body["labelKey"])
}

func (suite *HandlersTestSuite) TestSetLabel_Unsupported() {
	w, body := suite.do(http.MethodPost, "/api/tasks/labels", map[string]any{"taskIds": []string{"T1"}, "labelKey": "urgent"})
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Contains(body["message"], "prio, remove or clear")
}

func (suite *HandlersTestSuite) TestDelete() {
	w, _ := suite.do(http.MethodPost, "/api/tasks/delete", map[string]any{"taskIds": []string{"T1", "T2"}})
	suite.Equal(http.StatusOK, w.Code)
	suite.Equal([]string{"T1", "T2"}, suite.actions.ids)
}

func (suite *HandlersTestSuite) TestCancel() {
	w, _ := suite.do(http.MethodPost, "/api/tasks/cancel", map[string]any{"taskIds": []string{"T1"}, "reason": "Client stopped"})
	suite.Equal(http.StatusOK, w.Code)
	suite.Equal("Client stopped", suite.actions.reason)
}

func (suite *HandlersTestSuite) TestCancel_RequiresReason() {
	w, body := suite.do(http.MethodPost, "/api/tasks/cancel", map[string]any{"taskIds": []string{"T1"}, "reason": "  "})
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal("reason is required", body["message"])
	suite.Nil(suite.actions.ids)
}

func TestHandlersTestSuite(t *testing.T) {
	suite.Run(t, new(HandlersTestSuite))
}
