package task

import (
	"time"

	"github.com/mhutchins/coachwork/internal/apperror"
	"github.com/mhutchins/coachwork/internal/user"
)

// validStatuses is the set of recognized task status values.
var validStatuses = map[string]bool{
	StatusPending:    true,
	StatusInProgress: true,
	StatusSubmitted:  true,
	StatusCompleted:  true,
	StatusOverdue:    true,
	StatusCancelled:  true,
}

// ValidStatus reports whether s is a recognized task status.
func ValidStatus(s string) bool {
	return validStatuses[s]
}

// IsTerminal reports whether a task in this status accepts no further
// changes of any kind.
func IsTerminal(s string) bool {
	return s == StatusCompleted || s == StatusCancelled
}

// OverdueEligible reports whether a task must be relabeled overdue when
// observed at the given instant. Only pending and in_progress tasks decay;
// submitted work is with the professional and stops the clock.
func OverdueEligible(status string, dueDate *time.Time, now time.Time) bool {
	if dueDate == nil {
		return false
	}
	if status != StatusPending && status != StatusInProgress {
		return false
	}
	return dueDate.Before(now)
}

// CheckStatusChange validates a direct status write through UpdateTask.
// The submit/review pipeline owns the submitted and completed edges, and
// overdue is derived, so the only caller-settable transitions are the
// working-state toggle and professional cancellation:
//
//	pending      <-> in_progress  (either party)
//	overdue       -> in_progress  (either party, picking the work back up)
//	any non-terminal -> cancelled (assigning professional only)
//
// Returns nil when the change is allowed.
func CheckStatusChange(current, next, role string) error {
	if !ValidStatus(next) {
		return apperror.Validation("invalid task status %q", next)
	}
	if next == current {
		return apperror.Validation("task is already %s", current)
	}

	switch next {
	case StatusCancelled:
		if role != user.RoleProfessional {
			return apperror.Authorization("only the assigning professional may cancel a task")
		}
		return nil
	case StatusInProgress:
		if current == StatusPending || current == StatusOverdue {
			return nil
		}
		return apperror.Validation("cannot move a %s task to in_progress directly", current)
	case StatusPending:
		if current == StatusInProgress {
			return nil
		}
		return apperror.Validation("cannot move a %s task back to pending", current)
	case StatusSubmitted:
		return apperror.Validation("tasks are submitted through the submission pipeline")
	case StatusCompleted:
		return apperror.Validation("tasks are completed through submission review")
	case StatusOverdue:
		return apperror.Validation("overdue is derived from the due date and cannot be set")
	}
	return apperror.Validation("invalid task status %q", next)
}
