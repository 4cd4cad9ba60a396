package workload

import (
	"github.com/yukikurage/workload-dashboard/internal/dateutil"
	apierrors "github.com/yukikurage/workload-dashboard/internal/errors"
	"github.com/yukikurage/workload-dashboard/internal/models"
)

// MoveRequest asks for either an explicit target due date or a flat shift.
type MoveRequest struct {
	Target    *dateutil.Date
	ShiftDays int
}

// MovePlan is the new planned date range of a task.
type MovePlan struct {
	FromDue *dateutil.Date
	Due     dateutil.Date
	Start   *dateutil.Date
}

// PlanMove computes new dates for task. With a target, the start date moves
// by the same number of days as the due date, or onto the target when the
// task had a start but no due date. Without a target the due date and any
// start date shift by ShiftDays; a task without a due date cannot be
// shifted.
func PlanMove(task models.Task, req MoveRequest) (MovePlan, error) {
	plan := MovePlan{FromDue: task.Due}

	if req.Target != nil {
		plan.Due = *req.Target
		switch {
		case task.Start != nil && task.Due != nil:
			plan.Start = dateutil.Ptr(task.Start.AddDays(dateutil.DaysDiff(*task.Due, *req.Target)))
		case task.Start != nil:
			plan.Start = dateutil.Ptr(*req.Target)
		}
		return plan, nil
	}

	if task.Due == nil {
		return MovePlan{}, apierrors.ErrMissingDueDate
	}
	plan.Due = task.Due.AddDays(req.ShiftDays)
	if task.Start != nil {
		plan.Start = dateutil.Ptr(task.Start.AddDays(req.ShiftDays))
	}
	return plan, nil
}
