// Package workload holds the pure scheduling logic: date bucketing,
// capacity and overload analysis, planning search, move-date math and the
// management overview. Nothing here talks to the network.
package workload

import (
	"github.com/yukikurage/workload-dashboard/internal/constants"
	"github.com/yukikurage/workload-dashboard/internal/dateutil"
	"github.com/yukikurage/workload-dashboard/internal/models"
)

// Buckets partitions a contact's tasks relative to one anchor date. Tasks
// due after the upcoming-week horizon are in none of them.
type Buckets struct {
	DueToday     []models.Task
	Overdue      []models.Task
	UpcomingWeek []models.Task
	Backlog      []models.Task
}

// Bucket classifies tasks in this order: no due date is backlog, before the
// anchor is overdue, on the anchor is due today, up to anchor+6 is the
// upcoming week. Input order is kept inside each bucket.
func Bucket(tasks []models.Task, anchor dateutil.Date) Buckets {
	weekEnd := anchor.AddDays(constants.BucketHorizonDays - 1)

	var b Buckets
	for _, task := range tasks {
		switch {
		case task.Due == nil:
			b.Backlog = append(b.Backlog, task)
		case task.Due.Before(anchor):
			b.Overdue = append(b.Overdue, task)
		case task.Due.Equal(anchor):
			b.DueToday = append(b.DueToday, task)
		case !task.Due.After(weekEnd):
			b.UpcomingWeek = append(b.UpcomingWeek, task)
		}
	}
	return b
}

// HoursByDay sums effort per due date; tasks without a due date are skipped.
func HoursByDay(tasks []models.Task) map[dateutil.Date]float64 {
	hours := make(map[dateutil.Date]float64)
	for _, task := range tasks {
		if task.Due != nil {
			hours[*task.Due] += task.EffortHours
		}
	}
	return hours
}

// CountByDay counts tasks per due date.
func CountByDay(tasks []models.Task) map[dateutil.Date]int {
	counts := make(map[dateutil.Date]int)
	for _, task := range tasks {
		if task.Due != nil {
			counts[*task.Due]++
		}
	}
	return counts
}
