package workload

import (
	"slices"

	"github.com/yukikurage/workload-dashboard/internal/constants"
	"github.com/yukikurage/workload-dashboard/internal/dateutil"
	"github.com/yukikurage/workload-dashboard/internal/models"
)

// PlanDay scores one candidate day for moving the selected tasks.
type PlanDay struct {
	Date dateutil.Date
	// ScheduledHours excludes selected tasks already due that day.
	ScheduledHours      float64
	SelectedHours       float64
	AfterMoveHours      float64
	FreeHoursBefore     float64
	FreeHoursAfter      float64
	Fits                bool
	UtilizationAfterPct float64
}

type PlanResult struct {
	CapacityHours float64
	SelectedHours float64
	SelectedTasks []models.Task
	Days          []PlanDay
	Suggestions   []PlanDay
}

// PlanOptions simulates moving selected onto each of horizonDays days from
// from. contactTasks is the contact's full task list; selected tasks that
// are not part of it never reduce a day's scheduled hours.
func PlanOptions(contactTasks, selected []models.Task, from dateutil.Date, horizonDays int, capacityHours float64) PlanResult {
	if horizonDays <= 0 {
		horizonDays = constants.PlanningHorizonDays
	}

	dayHours := HoursByDay(contactTasks)
	owned := models.IndexByID(contactTasks)

	var alreadyScheduled []models.Task
	for _, task := range selected {
		if _, ok := owned[task.ID]; ok {
			alreadyScheduled = append(alreadyScheduled, task)
		}
	}
	selectedByDay := HoursByDay(alreadyScheduled)
	selectedHours := models.SumHours(selected)

	result := PlanResult{
		CapacityHours: capacityHours,
		SelectedHours: selectedHours,
		SelectedTasks: selected,
		Days:          make([]PlanDay, 0, horizonDays),
	}
	for _, day := range dateutil.Range(from, horizonDays) {
		scheduled := dayHours[day] - selectedByDay[day]
		after := scheduled + selectedHours
		result.Days = append(result.Days, PlanDay{
			Date:                day,
			ScheduledHours:      scheduled,
			SelectedHours:       selectedHours,
			AfterMoveHours:      after,
			FreeHoursBefore:     capacityHours - scheduled,
			FreeHoursAfter:      capacityHours - after,
			Fits:                after <= capacityHours,
			UtilizationAfterPct: Percent(after, capacityHours),
		})
	}
	result.Suggestions = Suggest(result.Days, constants.MaxPlanSuggestions)
	return result
}

// Suggest keeps the fitting days with the most free hours after the move,
// earliest date first on ties.
func Suggest(days []PlanDay, limit int) []PlanDay {
	fitting := make([]PlanDay, 0, len(days))
	for _, day := range days {
		if day.Fits {
			fitting = append(fitting, day)
		}
	}
	slices.SortStableFunc(fitting, func(a, b PlanDay) int {
		if a.FreeHoursAfter != b.FreeHoursAfter {
			if a.FreeHoursAfter > b.FreeHoursAfter {
				return -1
			}
			return 1
		}
		return a.Date.Compare(b.Date)
	})
	if len(fitting) > limit {
		fitting = fitting[:limit]
	}
	return fitting
}
