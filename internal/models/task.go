package models

import (
	"strings"

	"github.com/yukikurage/workload-dashboard/internal/dateutil"
)

type Importance string

const (
	ImportanceHighest Importance = "Highest"
	ImportanceHigh    Importance = "High"
	ImportanceNormal  Importance = "Normal"
	ImportanceLow     Importance = "Low"
)

// ParseImportance is case-insensitive; unknown or empty values are Normal.
func ParseImportance(s string) Importance {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "highest":
		return ImportanceHighest
	case "high":
		return ImportanceHigh
	case "low":
		return ImportanceLow
	default:
		return ImportanceNormal
	}
}

// Rank orders importance from Low=1 to Highest=4.
func (i Importance) Rank() int {
	switch i {
	case ImportanceHighest:
		return 4
	case ImportanceHigh:
		return 3
	case ImportanceNormal, "":
		return 2
	default:
		return 1
	}
}

// Task is the validated, request-scoped copy of a remote task.
type Task struct {
	ID                 string
	Title              string
	Permalink          string
	Status             string
	StatusLabel        string
	CustomStatusID     string
	Importance         Importance
	Due                *dateutil.Date
	Start              *dateutil.Date
	DueType            string
	EffortMinutes      float64
	EffortHours        float64
	Description        string
	DescriptionPreview string
}

// HasDue reports whether the task is anchored to a calendar day.
func (t Task) HasDue() bool {
	return t.Due != nil
}

// DueOn reports whether the task is due exactly on d.
func (t Task) DueOn(d dateutil.Date) bool {
	return t.Due != nil && t.Due.Equal(d)
}

// SumHours adds the effort of all tasks at full precision.
func SumHours(tasks []Task) float64 {
	total := 0.0
	for _, t := range tasks {
		total += t.EffortHours
	}
	return total
}

// IndexByID maps task ids to tasks; later duplicates win.
func IndexByID(tasks []Task) map[string]Task {
	byID := make(map[string]Task, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}
	return byID
}
