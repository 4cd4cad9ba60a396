package workload

import (
	"cmp"
	"math"
	"slices"

	"github.com/yukikurage/workload-dashboard/internal/constants"
	"github.com/yukikurage/workload-dashboard/internal/dateutil"
	"github.com/yukikurage/workload-dashboard/internal/models"
)

// Summary aggregates one contact's buckets for one anchor date and capacity.
// Hours keep full precision; rounding happens at the response boundary.
type Summary struct {
	Date              dateutil.Date
	CapacityHours     float64
	DueTodayCount     int
	DueTodayHours     float64
	OverdueCount      int
	OverdueHours      float64
	UpcomingWeekCount int
	UpcomingWeekHours float64
	BacklogCount      int
	BacklogHours      float64
	UtilizationPct    float64
	OverloadHours     float64
	// OverloadCandidates are the due-today tasks suggested for moving off
	// the anchor day, in selection order.
	OverloadCandidates []models.Task
}

func Summarize(b Buckets, anchor dateutil.Date, capacityHours float64) Summary {
	dueToday := models.SumHours(b.DueToday)
	overload := OverloadAmount(dueToday, capacityHours)

	return Summary{
		Date:               anchor,
		CapacityHours:      capacityHours,
		DueTodayCount:      len(b.DueToday),
		DueTodayHours:      dueToday,
		OverdueCount:       len(b.Overdue),
		OverdueHours:       models.SumHours(b.Overdue),
		UpcomingWeekCount:  len(b.UpcomingWeek),
		UpcomingWeekHours:  models.SumHours(b.UpcomingWeek),
		BacklogCount:       len(b.Backlog),
		BacklogHours:       models.SumHours(b.Backlog),
		UtilizationPct:     Percent(dueToday, capacityHours),
		OverloadHours:      overload,
		OverloadCandidates: OverloadCandidates(b.DueToday, overload),
	}
}

// OverloadAmount is how far hours exceed capacity, never negative.
func OverloadAmount(hours, capacityHours float64) float64 {
	return math.Max(0, hours-capacityHours)
}

// OverloadCandidates picks due-today tasks to move until their effort
// covers overload. Tasks are taken least important first and, within the
// same importance, biggest first. This is a greedy heuristic and does not
// search for the smallest covering set.
func OverloadCandidates(dueToday []models.Task, overload float64) []models.Task {
	if overload <= 0 || len(dueToday) == 0 {
		return nil
	}

	ordered := slices.Clone(dueToday)
	slices.SortStableFunc(ordered, func(a, b models.Task) int {
		if c := cmp.Compare(a.Importance.Rank(), b.Importance.Rank()); c != 0 {
			return c
		}
		return cmp.Compare(b.EffortHours, a.EffortHours)
	})

	var (
		picked      []models.Task
		accumulated float64
	)
	for _, task := range ordered {
		if accumulated >= overload {
			break
		}
		picked = append(picked, task)
		accumulated += task.EffortHours
	}
	return picked
}

// DayLoad is the planned load of one calendar day.
type DayLoad struct {
	Date          dateutil.Date
	Hours         float64
	TaskCount     int
	Overbooked    bool
	OverloadHours float64
}

// WeekPreview covers the five work days starting at the Monday after the
// anchor.
type WeekPreview struct {
	StartDate      dateutil.Date
	EndDate        dateutil.Date
	ISOWeek        int
	CapacityHours  float64
	TotalHours     float64
	OverbookedDays int
	PeakDayHours   float64
	Days           []DayLoad
}

// BuildWeekPreview sums the full task list per work day of next week.
func BuildWeekPreview(tasks []models.Task, anchor dateutil.Date, capacityHours float64) WeekPreview {
	start := anchor.NextMonday()
	hours := HoursByDay(tasks)
	counts := CountByDay(tasks)

	preview := WeekPreview{
		StartDate:     start,
		EndDate:       start.AddDays(6),
		ISOWeek:       start.ISOWeek(),
		CapacityHours: capacityHours,
		Days:          make([]DayLoad, 0, constants.WorkWeekDays),
	}
	for _, day := range dateutil.Range(start, constants.WorkWeekDays) {
		h := hours[day]
		load := DayLoad{
			Date:          day,
			Hours:         h,
			TaskCount:     counts[day],
			Overbooked:    h > capacityHours,
			OverloadHours: OverloadAmount(h, capacityHours),
		}
		preview.Days = append(preview.Days, load)
		preview.TotalHours += h
		preview.PeakDayHours = math.Max(preview.PeakDayHours, h)
		if load.Overbooked {
			preview.OverbookedDays++
		}
	}
	return preview
}

// Percent returns part/whole*100, or 0 when whole is not positive.
func Percent(part, whole float64) float64 {
	if whole <= 0 {
		return 0
	}
	return part / whole * 100
}

// Round rounds v half away from zero to the given decimal places.
func Round(v float64, places int) float64 {
	scale := math.Pow10(places)
	return math.Round(v*scale) / scale
}
