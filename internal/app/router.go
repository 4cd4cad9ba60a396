package app

import (
	"github.com/gin-gonic/gin"

	"github.com/yukikurage/workload-dashboard/internal/handlers"
	"github.com/yukikurage/workload-dashboard/internal/middleware"
)

// Router builds the gin engine serving the dashboard API.
func (a *App) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.RequestLogger(a.Logger))

	workloadHandler := handlers.NewWorkloadHandler(a.Workload, a.Config.DefaultCapacityHours, a.now)
	actionHandler := handlers.NewActionHandler(a.Actions, a.ActionLog)
	healthHandler := handlers.NewHealthHandler(a.Tokens)

	api := r.Group("/api")
	{
		api.GET("/health", healthHandler.Health)
		api.GET("/action-log", actionHandler.ActionLog)

		// Routes below call Wrike
		wrikeAPI := api.Group("")
		wrikeAPI.Use(middleware.RequireCredentials(a.Tokens, a.Logger))
		{
			wrikeAPI.GET("/contacts", workloadHandler.ListContacts)
			wrikeAPI.GET("/workload", workloadHandler.GetWorkload)
			wrikeAPI.GET("/management-overview", workloadHandler.GetOverview)
			wrikeAPI.GET("/planning-options", workloadHandler.GetPlanningOptions)
		}

		tasks := api.Group("/tasks")
		tasks.Use(middleware.RequireCredentials(a.Tokens, a.Logger))
		{
			tasks.POST("/push-week", actionHandler.PushWeek)
			tasks.POST("/labels", actionHandler.SetLabel)
			tasks.POST("/schedule", actionHandler.Schedule)
			tasks.POST("/delete", actionHandler.Delete)
			tasks.POST("/cancel", actionHandler.Cancel)
		}
	}
	return r
}
