package dto

import (
	"github.com/yukikurage/workload-dashboard/internal/dateutil"
	"github.com/yukikurage/workload-dashboard/internal/workload"
)

type OverviewSummaryDTO struct {
	Date                 dateutil.Date `json:"date"`
	ContactsAnalyzed     int           `json:"contactsAnalyzed"`
	OpenTasks            int           `json:"openTasks"`
	TodayTasks           int           `json:"todayTasks"`
	TodayHours           float64       `json:"todayHours"`
	OverbookedProfiles   int           `json:"overbookedProfiles"`
	RescheduleCandidates int           `json:"rescheduleCandidates"`
	MustKeepToday        int           `json:"mustKeepToday"`
	CleanupCandidates    int           `json:"cleanupCandidates"`
}

type TeamMemberDTO struct {
	ContactID         string           `json:"contactId"`
	Name              string           `json:"name"`
	TeamName          string           `json:"teamName"`
	DueTodayTaskCount int              `json:"dueTodayTaskCount"`
	DueTodayHours     float64          `json:"dueTodayHours"`
	DueTodayTasks     []DecidedTaskDTO `json:"dueTodayTasks"`
	UtilizationPct    float64          `json:"utilizationPct"`
	Overbooked        bool             `json:"overbooked"`
}

type TeamDTO struct {
	Name           string          `json:"name"`
	Members        []TeamMemberDTO `json:"members"`
	TodayTaskCount int             `json:"todayTaskCount"`
	TodayHours     float64         `json:"todayHours"`
}

type ProfileDTO struct {
	ContactID      string  `json:"contactId"`
	FirstName      string  `json:"firstName"`
	Name           string  `json:"name"`
	Email          string  `json:"email"`
	OpenTaskCount  int     `json:"openTaskCount"`
	WeekTaskCount  int     `json:"weekTaskCount"`
	WeekHours      float64 `json:"weekHours"`
	WeekCapacity   float64 `json:"weekCapacity"`
	UtilizationPct float64 `json:"utilizationPct"`
	Overbooked     bool    `json:"overbooked"`

	OverdueCount      int              `json:"overdueCount"`
	OverdueHours      float64          `json:"overdueHours"`
	BacklogCount      int              `json:"backlogCount"`
	BacklogHours      float64          `json:"backlogHours"`
	DueTodayTaskCount int              `json:"dueTodayTaskCount"`
	DueTodayHours     float64          `json:"dueTodayHours"`
	DueTodayTasks     []DecidedTaskDTO `json:"dueTodayTasks"`

	MustKeepTodayCount       int `json:"mustKeepTodayCount"`
	ReviewTodayCount         int `json:"reviewTodayCount"`
	RescheduleCandidateCount int `json:"rescheduleCandidateCount"`
	CleanupCandidateCount    int `json:"cleanupCandidateCount"`

	TopMustKeepToday []TaskDTO `json:"topMustKeepToday"`
	TopReschedule    []TaskDTO `json:"topReschedule"`
	TopCleanup       []TaskDTO `json:"topCleanup"`
}

// RecommendationDTO flattens the recommended task next to its decision
type RecommendationDTO struct {
	Type        workload.DecisionType `json:"type"`
	Decision    string                `json:"decision"`
	TaskID      string                `json:"taskId"`
	Title       string                `json:"title"`
	Description string                `json:"description"`
	ContactID   string                `json:"contactId"`
	ContactName string                `json:"contactName"`
	Due         *dateutil.Date        `json:"due"`
	EffortHours float64               `json:"effortHours"`
	Status      string                `json:"status"`
	StatusLabel string                `json:"statusLabel"`
	Importance  string                `json:"importance"`
	Permalink   string                `json:"permalink"`
	Reason      string                `json:"reason"`
}

// OverviewResponse is the body of GET /api/management-overview
type OverviewResponse struct {
	Summary         OverviewSummaryDTO  `json:"summary"`
	Teams           []TeamDTO           `json:"teams"`
	Profiles        []ProfileDTO        `json:"profiles"`
	Recommendations []RecommendationDTO `json:"recommendations"`
}

func ToOverviewResponse(o workload.Overview) OverviewResponse {
	s := o.Summary
	resp := OverviewResponse{
		Summary: OverviewSummaryDTO{
			Date:                 s.Date,
			ContactsAnalyzed:     s.ContactsAnalyzed,
			OpenTasks:            s.OpenTasks,
			TodayTasks:           s.TodayTasks,
			TodayHours:           hours(s.TodayHours),
			OverbookedProfiles:   s.OverbookedProfiles,
			RescheduleCandidates: s.RescheduleCandidates,
			MustKeepToday:        s.MustKeepToday,
			CleanupCandidates:    s.CleanupCandidates,
		},
		Teams:           make([]TeamDTO, 0, len(o.Teams)),
		Profiles:        make([]ProfileDTO, 0, len(o.Profiles)),
		Recommendations: make([]RecommendationDTO, 0, len(o.Recommendations)),
	}

	for _, team := range o.Teams {
		members := make([]TeamMemberDTO, 0, len(team.Members))
		for _, m := range team.Members {
			members = append(members, TeamMemberDTO{
				ContactID:         m.ContactID,
				Name:              m.Name,
				TeamName:          m.TeamName,
				DueTodayTaskCount: m.DueTodayTaskCount,
				DueTodayHours:     hours(m.DueTodayHours),
				DueTodayTasks:     toDecidedTaskDTOs(m.DueTodayTasks),
				UtilizationPct:    pct(m.UtilizationPct),
				Overbooked:        m.Overbooked,
			})
		}
		resp.Teams = append(resp.Teams, TeamDTO{
			Name:           team.Name,
			Members:        members,
			TodayTaskCount: team.TodayTaskCount,
			TodayHours:     hours(team.TodayHours),
		})
	}

	for _, p := range o.Profiles {
		resp.Profiles = append(resp.Profiles, toProfileDTO(p))
	}

	for _, r := range o.Recommendations {
		resp.Recommendations = append(resp.Recommendations, RecommendationDTO{
			Type:        r.Type,
			Decision:    r.Decision,
			TaskID:      r.Task.ID,
			Title:       r.Task.Title,
			Description: r.Task.DescriptionPreview,
			ContactID:   r.ContactID,
			ContactName: r.ContactName,
			Due:         r.Task.Due,
			EffortHours: hours(r.Task.EffortHours),
			Status:      r.Task.Status,
			StatusLabel: r.Task.StatusLabel,
			Importance:  string(r.Task.Importance),
			Permalink:   r.Task.Permalink,
			Reason:      r.Reason,
		})
	}
	return resp
}

func toProfileDTO(p workload.Profile) ProfileDTO {
	return ProfileDTO{
		ContactID:      p.ContactID,
		FirstName:      p.FirstName,
		Name:           p.Name,
		Email:          p.Email,
		OpenTaskCount:  p.OpenTaskCount,
		WeekTaskCount:  p.WeekTaskCount,
		WeekHours:      hours(p.WeekHours),
		WeekCapacity:   hours(p.WeekCapacity),
		UtilizationPct: pct(p.UtilizationPct),
		Overbooked:     p.Overbooked,

		OverdueCount:      p.OverdueCount,
		OverdueHours:      hours(p.OverdueHours),
		BacklogCount:      p.BacklogCount,
		BacklogHours:      hours(p.BacklogHours),
		DueTodayTaskCount: p.DueTodayTaskCount,
		DueTodayHours:     hours(p.DueTodayHours),
		DueTodayTasks:     toDecidedTaskDTOs(p.DueTodayTasks),

		MustKeepTodayCount:       p.MustKeepTodayCount,
		ReviewTodayCount:         p.ReviewTodayCount,
		RescheduleCandidateCount: p.RescheduleCandidateCount,
		CleanupCandidateCount:    p.CleanupCandidateCount,

		TopMustKeepToday: ToTaskDTOs(p.TopMustKeepToday),
		TopReschedule:    ToTaskDTOs(p.TopReschedule),
		TopCleanup:       ToTaskDTOs(p.TopCleanup),
	}
}
