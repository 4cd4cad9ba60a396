package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type ActionType string

const (
	ActionPushWeek   ActionType = "push_week"
	ActionSchedule   ActionType = "schedule"
	ActionMarkPrio   ActionType = "mark_prio"
	ActionMarkRemove ActionType = "mark_remove"
	ActionClearLabel ActionType = "clear_label"
	ActionDelete     ActionType = "delete"
	ActionCancel     ActionType = "cancel"
)

// Label is a UI tag carried by the importance field. Clearing always resets
// importance to Normal, whatever it was before the label was set.
type Label string

const (
	LabelPrio   Label = "prio"
	LabelRemove Label = "remove"
	LabelClear  Label = "clear"
)

// ParseLabel accepts prio, remove or clear.
func ParseLabel(s string) (Label, error) {
	switch l := Label(s); l {
	case LabelPrio, LabelRemove, LabelClear:
		return l, nil
	default:
		return "", fmt.Errorf("unsupported label %q, use prio, remove or clear", s)
	}
}

// Importance is the importance value that encodes the label.
func (l Label) Importance() Importance {
	switch l {
	case LabelPrio:
		return ImportanceHigh
	case LabelRemove:
		return ImportanceLow
	default:
		return ImportanceNormal
	}
}

// Action is the action-log name for applying the label.
func (l Label) Action() ActionType {
	switch l {
	case LabelPrio:
		return ActionMarkPrio
	case LabelRemove:
		return ActionMarkRemove
	default:
		return ActionClearLabel
	}
}

// ActionLogEntry records one successful remediation.
type ActionLogEntry struct {
	ID             uuid.UUID  `json:"id"`
	At             time.Time  `json:"at"`
	Action         ActionType `json:"action"`
	TaskID         string     `json:"taskId"`
	Title          string     `json:"title"`
	FromDue        string     `json:"fromDue,omitempty"`
	ToDue          string     `json:"toDue,omitempty"`
	FromImportance Importance `json:"fromImportance,omitempty"`
	ToImportance   Importance `json:"toImportance,omitempty"`
	Status         string     `json:"status,omitempty"`
}
