package dto

import (
	"github.com/yukikurage/workload-dashboard/internal/dateutil"
	"github.com/yukikurage/workload-dashboard/internal/services"
	"github.com/yukikurage/workload-dashboard/internal/workload"
)

type WorkloadSummaryDTO struct {
	Date                 dateutil.Date `json:"date"`
	CapacityHours        float64       `json:"capacityHours"`
	DueTodayCount        int           `json:"dueTodayCount"`
	DueTodayHours        float64       `json:"dueTodayHours"`
	OverdueCount         int           `json:"overdueCount"`
	OverdueHours         float64       `json:"overdueHours"`
	UpcomingWeekCount    int           `json:"upcomingWeekCount"`
	UpcomingWeekHours    float64       `json:"upcomingWeekHours"`
	BacklogCount         int           `json:"backlogCount"`
	BacklogHours         float64       `json:"backlogHours"`
	UtilizationPct       float64       `json:"utilizationPct"`
	OverloadHours        float64       `json:"overloadHours"`
	OverloadCandidateIDs []string      `json:"overloadCandidateIds"`
}

type DayLoadDTO struct {
	Date          dateutil.Date `json:"date"`
	Hours         float64       `json:"hours"`
	TaskCount     int           `json:"taskCount"`
	Overbooked    bool          `json:"overbooked"`
	OverloadHours float64       `json:"overloadHours"`
}

type WeekPreviewDTO struct {
	StartDate      dateutil.Date `json:"startDate"`
	EndDate        dateutil.Date `json:"endDate"`
	ISOWeek        int           `json:"isoWeek"`
	CapacityHours  float64       `json:"capacityHours"`
	TotalHours     float64       `json:"totalHours"`
	OverbookedDays int           `json:"overbookedDays"`
	PeakDayHours   float64       `json:"peakDayHours"`
	Days           []DayLoadDTO  `json:"days"`
}

type BucketsDTO struct {
	DueToday     []TaskDTO `json:"dueToday"`
	Overdue      []TaskDTO `json:"overdue"`
	UpcomingWeek []TaskDTO `json:"upcomingWeek"`
	Backlog      []TaskDTO `json:"backlog"`
}

// WorkloadResponse is the body of GET /api/workload
type WorkloadResponse struct {
	Summary     WorkloadSummaryDTO `json:"summary"`
	WeekPreview WeekPreviewDTO     `json:"weekPreview"`
	Buckets     BucketsDTO         `json:"buckets"`
}

func ToWorkloadResponse(r *services.WorkloadResult) WorkloadResponse {
	s := r.Summary
	ids := make([]string, 0, len(s.OverloadCandidates))
	for _, task := range s.OverloadCandidates {
		ids = append(ids, task.ID)
	}

	return WorkloadResponse{
		Summary: WorkloadSummaryDTO{
			Date:                 s.Date,
			CapacityHours:        s.CapacityHours,
			DueTodayCount:        s.DueTodayCount,
			DueTodayHours:        hours(s.DueTodayHours),
			OverdueCount:         s.OverdueCount,
			OverdueHours:         hours(s.OverdueHours),
			UpcomingWeekCount:    s.UpcomingWeekCount,
			UpcomingWeekHours:    hours(s.UpcomingWeekHours),
			BacklogCount:         s.BacklogCount,
			BacklogHours:         hours(s.BacklogHours),
			UtilizationPct:       pct(s.UtilizationPct),
			OverloadHours:        hours(s.OverloadHours),
			OverloadCandidateIDs: ids,
		},
		WeekPreview: toWeekPreviewDTO(r.WeekPreview),
		Buckets: BucketsDTO{
			DueToday:     ToTaskDTOs(r.Buckets.DueToday),
			Overdue:      ToTaskDTOs(r.Buckets.Overdue),
			UpcomingWeek: ToTaskDTOs(r.Buckets.UpcomingWeek),
			Backlog:      ToTaskDTOs(r.Buckets.Backlog),
		},
	}
}

func toWeekPreviewDTO(w workload.WeekPreview) WeekPreviewDTO {
	days := make([]DayLoadDTO, 0, len(w.Days))
	for _, d := range w.Days {
		days = append(days, DayLoadDTO{
			Date:          d.Date,
			Hours:         hours(d.Hours),
			TaskCount:     d.TaskCount,
			Overbooked:    d.Overbooked,
			OverloadHours: hours(d.OverloadHours),
		})
	}
	return WeekPreviewDTO{
		StartDate:      w.StartDate,
		EndDate:        w.EndDate,
		ISOWeek:        w.ISOWeek,
		CapacityHours:  w.CapacityHours,
		TotalHours:     hours(w.TotalHours),
		OverbookedDays: w.OverbookedDays,
		PeakDayHours:   hours(w.PeakDayHours),
		Days:           days,
	}
}
