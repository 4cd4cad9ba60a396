package dto

import (
	"github.com/yukikurage/workload-dashboard/internal/dateutil"
	"github.com/yukikurage/workload-dashboard/internal/workload"
)

type PlanDayDTO struct {
	Date                dateutil.Date `json:"date"`
	ScheduledHours      float64       `json:"scheduledHours"`
	SelectedHours       float64       `json:"selectedHours"`
	AfterMoveHours      float64       `json:"afterMoveHours"`
	FreeHoursBefore     float64       `json:"freeHoursBefore"`
	FreeHoursAfter      float64       `json:"freeHoursAfter"`
	Fits                bool          `json:"fits"`
	UtilizationAfterPct float64       `json:"utilizationAfterPct"`
}

type PlanSummaryDTO struct {
	CapacityHours     float64 `json:"capacityHours"`
	SelectedTaskCount int     `json:"selectedTaskCount"`
	SelectedHours     float64 `json:"selectedHours"`
}

// PlanningOptionsResponse is the body of GET /api/planning-options
type PlanningOptionsResponse struct {
	Summary       PlanSummaryDTO `json:"summary"`
	Suggestions   []PlanDayDTO   `json:"suggestions"`
	Days          []PlanDayDTO   `json:"days"`
	SelectedTasks []TaskDTO      `json:"selectedTasks"`
}

func ToPlanningOptionsResponse(r workload.PlanResult) PlanningOptionsResponse {
	return PlanningOptionsResponse{
		Summary: PlanSummaryDTO{
			CapacityHours:     r.CapacityHours,
			SelectedTaskCount: len(r.SelectedTasks),
			SelectedHours:     hours(r.SelectedHours),
		},
		Suggestions:   toPlanDayDTOs(r.Suggestions),
		Days:          toPlanDayDTOs(r.Days),
		SelectedTasks: ToTaskDTOs(r.SelectedTasks),
	}
}

func toPlanDayDTOs(days []workload.PlanDay) []PlanDayDTO {
	out := make([]PlanDayDTO, 0, len(days))
	for _, d := range days {
		out = append(out, PlanDayDTO{
			Date:                d.Date,
			ScheduledHours:      hours(d.ScheduledHours),
			SelectedHours:       hours(d.SelectedHours),
			AfterMoveHours:      hours(d.AfterMoveHours),
			FreeHoursBefore:     hours(d.FreeHoursBefore),
			FreeHoursAfter:      hours(d.FreeHoursAfter),
			Fits:                d.Fits,
			UtilizationAfterPct: pct(d.UtilizationAfterPct),
		})
	}
	return out
}
