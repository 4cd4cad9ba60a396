package workload

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/yukikurage/workload-dashboard/internal/constants"
	"github.com/yukikurage/workload-dashboard/internal/dateutil"
	"github.com/yukikurage/workload-dashboard/internal/models"
	"github.com/yukikurage/workload-dashboard/internal/utils"
)

// DecisionType classifies a task in the management overview.
type DecisionType string

const (
	DecisionKeepToday  DecisionType = "keep_today"
	DecisionReschedule DecisionType = "reschedule"
	DecisionCleanup    DecisionType = "cleanup"
)

func (d DecisionType) rank() int {
	switch d {
	case DecisionKeepToday:
		return 0
	case DecisionReschedule:
		return 1
	case DecisionCleanup:
		return 2
	default:
		return 9
	}
}

// Label is the human wording of the decision.
func (d DecisionType) Label() string {
	switch d {
	case DecisionKeepToday:
		return "Needed today"
	case DecisionReschedule:
		return "Can move"
	default:
		return "Possibly not needed"
	}
}

// Thresholds tunes the overview heuristics.
type Thresholds struct {
	// CleanupMaxHours bounds backlog and due-today cleanup candidates.
	CleanupMaxHours float64
	// StaleCleanupMaxHours bounds overdue tasks older than StaleAfterDays.
	StaleCleanupMaxHours float64
	StaleAfterDays       int
	// RescheduleCapacityRatio bounds reschedule candidates as a share of
	// the daily capacity.
	RescheduleCapacityRatio float64
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		CleanupMaxHours:         constants.CleanupMaxHours,
		StaleCleanupMaxHours:    constants.StaleCleanupMaxHours,
		StaleAfterDays:          constants.StaleAfterDays,
		RescheduleCapacityRatio: constants.RescheduleCapacityRatio,
	}
}

// IsPrio reports whether the task's status label marks it as priority work.
func IsPrio(task models.Task) bool {
	label := utils.NormalizePersonName(task.StatusLabel)
	return strings.Contains(label, "prio") ||
		strings.Contains(label, "priorit") ||
		strings.Contains(label, "urgent")
}

// DecidedTask is a due-today task with its overview decision.
type DecidedTask struct {
	models.Task
	DecisionType DecisionType
	Decision     string
	Reason       string
}

// Decide classifies a task due on the anchor day: prio status keeps it,
// a small task is a cleanup candidate, anything else can move.
func Decide(task models.Task, th Thresholds) DecidedTask {
	d := DecidedTask{Task: task}
	switch {
	case IsPrio(task):
		d.DecisionType = DecisionKeepToday
		d.Reason = fmt.Sprintf("Status in Wrike: %s.", task.StatusLabel)
	case task.EffortHours <= th.CleanupMaxHours:
		d.DecisionType = DecisionCleanup
		d.Reason = fmt.Sprintf("No prio status in Wrike (%s) and a small task.", task.StatusLabel)
	default:
		d.DecisionType = DecisionReschedule
		d.Reason = fmt.Sprintf("No prio status in Wrike (%s).", task.StatusLabel)
	}
	d.Decision = d.DecisionType.Label()
	return d
}

// ContactTasks is one contact and its open tasks.
type ContactTasks struct {
	Contact models.Contact
	Tasks   []models.Task
}

// Profile is one contact's load over the week starting at the anchor.
type Profile struct {
	ContactID      string
	FirstName      string
	Name           string
	Email          string
	OpenTaskCount  int
	WeekTaskCount  int
	WeekHours      float64
	WeekCapacity   float64
	UtilizationPct float64
	Overbooked     bool

	OverdueCount      int
	OverdueHours      float64
	BacklogCount      int
	BacklogHours      float64
	DueTodayTaskCount int
	DueTodayHours     float64
	DueTodayTasks     []DecidedTask

	MustKeepTodayCount       int
	ReviewTodayCount         int
	RescheduleCandidateCount int
	CleanupCandidateCount    int

	TopMustKeepToday []models.Task
	TopReschedule    []models.Task
	TopCleanup       []models.Task
}

// BuildProfile analyses one contact. The week window is anchor..anchor+6
// while the week capacity counts work days only.
func BuildProfile(ct ContactTasks, anchor dateutil.Date, capacityHours float64, th Thresholds) Profile {
	weekEnd := anchor.AddDays(constants.BucketHorizonDays - 1)
	staleDate := anchor.AddDays(-th.StaleAfterDays)

	var dueWeek, overdue, backlog, reschedule, cleanup, mustKeep []models.Task
	var dueToday []DecidedTask
	reviewToday := 0

	for _, task := range ct.Tasks {
		prio := IsPrio(task)

		if task.Due == nil {
			backlog = append(backlog, task)
			if !prio && task.EffortHours <= th.CleanupMaxHours {
				cleanup = append(cleanup, task)
			}
			continue
		}
		due := *task.Due

		if due.Before(anchor) {
			overdue = append(overdue, task)
			if !due.After(staleDate) && !prio && task.EffortHours <= th.StaleCleanupMaxHours {
				cleanup = append(cleanup, task)
			}
			continue
		}

		if due.Equal(anchor) {
			decided := Decide(task, th)
			switch decided.DecisionType {
			case DecisionKeepToday:
				mustKeep = append(mustKeep, task)
			case DecisionCleanup:
				cleanup = append(cleanup, task)
				reviewToday++
			default:
				reviewToday++
			}
			dueToday = append(dueToday, decided)
		}

		if !due.After(weekEnd) {
			dueWeek = append(dueWeek, task)
			if !prio && task.EffortHours <= capacityHours*th.RescheduleCapacityRatio {
				reschedule = append(reschedule, task)
			}
		}
	}

	weekHours := Round(models.SumHours(dueWeek), 2)
	weekCapacity := Round(capacityHours*constants.WorkWeekDays, 2)
	utilization := Round(Percent(weekHours, weekCapacity), 1)

	dueTodayHours := 0.0
	for _, d := range dueToday {
		dueTodayHours += d.EffortHours
	}
	slices.SortStableFunc(dueToday, func(a, b DecidedTask) int {
		if c := cmp.Compare(a.DecisionType.rank(), b.DecisionType.rank()); c != 0 {
			return c
		}
		return cmp.Compare(b.EffortHours, a.EffortHours)
	})

	return Profile{
		ContactID:      ct.Contact.ID,
		FirstName:      ct.Contact.FirstName,
		Name:           ct.Contact.FullName,
		Email:          ct.Contact.Email,
		OpenTaskCount:  len(ct.Tasks),
		WeekTaskCount:  len(dueWeek),
		WeekHours:      weekHours,
		WeekCapacity:   weekCapacity,
		UtilizationPct: utilization,
		Overbooked:     utilization > 100,

		OverdueCount:      len(overdue),
		OverdueHours:      models.SumHours(overdue),
		BacklogCount:      len(backlog),
		BacklogHours:      models.SumHours(backlog),
		DueTodayTaskCount: len(dueToday),
		DueTodayHours:     dueTodayHours,
		DueTodayTasks:     dueToday,

		MustKeepTodayCount:       len(mustKeep),
		ReviewTodayCount:         reviewToday,
		RescheduleCandidateCount: len(reschedule),
		CleanupCandidateCount:    len(cleanup),

		TopMustKeepToday: topN(sortByEffortDesc(mustKeep), constants.TopMustKeepToday),
		TopReschedule:    topN(sortRescheduleCandidates(reschedule), constants.TopReschedule),
		TopCleanup:       topN(sortByDueAsc(cleanup), constants.TopCleanup),
	}
}

func sortByEffortDesc(tasks []models.Task) []models.Task {
	slices.SortStableFunc(tasks, func(a, b models.Task) int {
		return cmp.Compare(b.EffortHours, a.EffortHours)
	})
	return tasks
}

// sortRescheduleCandidates puts the biggest tasks first and, for equal
// effort, the later due date first.
func sortRescheduleCandidates(tasks []models.Task) []models.Task {
	slices.SortStableFunc(tasks, func(a, b models.Task) int {
		if c := cmp.Compare(b.EffortHours, a.EffortHours); c != 0 {
			return c
		}
		return compareDue(b.Due, a.Due)
	})
	return tasks
}

func sortByDueAsc(tasks []models.Task) []models.Task {
	slices.SortStableFunc(tasks, func(a, b models.Task) int {
		return compareDue(a.Due, b.Due)
	})
	return tasks
}

// compareDue orders dates ascending with missing dates last.
func compareDue(a, b *dateutil.Date) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	default:
		return a.Compare(*b)
	}
}

func topN(tasks []models.Task, n int) []models.Task {
	if len(tasks) > n {
		return tasks[:n]
	}
	return tasks
}

// Recommendation is one cross-team action suggestion.
type Recommendation struct {
	Type        DecisionType
	Decision    string
	Reason      string
	ContactID   string
	ContactName string
	Task        models.Task
}

// Recommend lists keep-today tasks for every profile, reschedule tasks for
// overbooked profiles and cleanup tasks for every profile, ordered by type
// then due date (missing dates last) and capped at limit.
func Recommend(profiles []Profile, limit int) []Recommendation {
	var recs []Recommendation
	add := func(p Profile, kind DecisionType, reason string, task models.Task) {
		recs = append(recs, Recommendation{
			Type:        kind,
			Decision:    kind.Label(),
			Reason:      reason,
			ContactID:   p.ContactID,
			ContactName: p.Name,
			Task:        task,
		})
	}

	for _, p := range profiles {
		for _, task := range p.TopMustKeepToday {
			label := task.StatusLabel
			if label == "" {
				label = "Prio"
			}
			add(p, DecisionKeepToday, fmt.Sprintf("Status in Wrike: %s.", label), task)
		}
		// Only overbooked profiles get reschedule and cleanup suggestions.
		if !p.Overbooked {
			continue
		}
		for _, task := range p.TopReschedule {
			reason := fmt.Sprintf("Week load %s%% for %s", strconv.FormatFloat(p.UtilizationPct, 'f', -1, 64), p.Name)
			add(p, DecisionReschedule, reason, task)
		}
		for _, task := range p.TopCleanup {
			add(p, DecisionCleanup, "Low impact or stale task in backlog/overdue", task)
		}
	}

	slices.SortStableFunc(recs, func(a, b Recommendation) int {
		if c := cmp.Compare(a.Type.rank(), b.Type.rank()); c != 0 {
			return c
		}
		return compareDue(a.Task.Due, b.Task.Due)
	})
	if len(recs) > limit {
		recs = recs[:limit]
	}
	return recs
}

// TeamResolver assigns contacts to teams.
type TeamResolver interface {
	Names() []string
	Resolve(firstName, fullName string) string
}

type TeamMember struct {
	ContactID         string
	Name              string
	TeamName          string
	DueTodayTaskCount int
	DueTodayHours     float64
	DueTodayTasks     []DecidedTask
	UtilizationPct    float64
	Overbooked        bool
}

type Team struct {
	Name           string
	Members        []TeamMember
	TodayTaskCount int
	TodayHours     float64
}

// GroupTeams places every profile in its team. Members are ordered by
// due-today hours descending, then name.
func GroupTeams(profiles []Profile, resolver TeamResolver) []Team {
	names := resolver.Names()
	byName := make(map[string]*Team, len(names))
	teams := make([]Team, len(names))
	for i, name := range names {
		teams[i] = Team{Name: name, Members: []TeamMember{}}
		byName[name] = &teams[i]
	}

	for _, p := range profiles {
		name := resolver.Resolve(p.FirstName, p.Name)
		team, ok := byName[name]
		if !ok {
			continue
		}
		team.Members = append(team.Members, TeamMember{
			ContactID:         p.ContactID,
			Name:              p.Name,
			TeamName:          name,
			DueTodayTaskCount: p.DueTodayTaskCount,
			DueTodayHours:     p.DueTodayHours,
			DueTodayTasks:     p.DueTodayTasks,
			UtilizationPct:    p.UtilizationPct,
			Overbooked:        p.Overbooked,
		})
		team.TodayTaskCount += p.DueTodayTaskCount
		team.TodayHours += p.DueTodayHours
	}

	for i := range teams {
		slices.SortStableFunc(teams[i].Members, func(a, b TeamMember) int {
			if c := cmp.Compare(b.DueTodayHours, a.DueTodayHours); c != 0 {
				return c
			}
			return strings.Compare(a.Name, b.Name)
		})
	}
	return teams
}

type OverviewSummary struct {
	Date                 dateutil.Date
	ContactsAnalyzed     int
	OpenTasks            int
	TodayTasks           int
	TodayHours           float64
	OverbookedProfiles   int
	RescheduleCandidates int
	MustKeepToday        int
	CleanupCandidates    int
}

type Overview struct {
	Summary         OverviewSummary
	Teams           []Team
	Profiles        []Profile
	Recommendations []Recommendation
}

// BuildOverview analyses every contact. Profiles are ordered by week
// utilization, highest first.
func BuildOverview(contacts []ContactTasks, anchor dateutil.Date, capacityHours float64, th Thresholds, resolver TeamResolver) Overview {
	profiles := make([]Profile, 0, len(contacts))
	for _, ct := range contacts {
		profiles = append(profiles, BuildProfile(ct, anchor, capacityHours, th))
	}
	slices.SortStableFunc(profiles, func(a, b Profile) int {
		return cmp.Compare(b.UtilizationPct, a.UtilizationPct)
	})

	summary := OverviewSummary{
		Date:             anchor,
		ContactsAnalyzed: len(profiles),
	}
	for _, p := range profiles {
		summary.OpenTasks += p.OpenTaskCount
		summary.TodayTasks += p.DueTodayTaskCount
		summary.TodayHours += p.DueTodayHours
		summary.RescheduleCandidates += p.RescheduleCandidateCount
		summary.MustKeepToday += p.MustKeepTodayCount
		summary.CleanupCandidates += p.CleanupCandidateCount
		if p.Overbooked {
			summary.OverbookedProfiles++
		}
	}

	return Overview{
		Summary:         summary,
		Teams:           GroupTeams(profiles, resolver),
		Profiles:        profiles,
		Recommendations: Recommend(profiles, constants.MaxRecommendations),
	}
}
