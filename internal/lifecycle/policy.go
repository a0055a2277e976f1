package lifecycle

import (
	"time"

	"github.com/aknarbekov/task-planner-api/internal/model"
)

type Decision int

const (
	DecisionNone Decision = iota
	DecisionHighPriority
	DecisionOverdue
	DecisionDueSoon
)

func (d Decision) String() string {
	switch d {
	case DecisionHighPriority:
		return "high_priority"
	case DecisionOverdue:
		return "overdue"
	case DecisionDueSoon:
		return "due_soon"
	default:
		return "none"
	}
}

// Classify определяет, какое напоминание положено задаче в момент now.
// Срабатывает первое подходящее правило:
//  1. high-priority — приоритет High и срок в пределах часа;
//  2. overdue — срок уже прошел;
//  3. due-soon — срок в пределах суток (информационное, notified не ставит).
//
// Задача, уже получившая напоминание для текущего срока (notified=true),
// не классифицируется повторно, пока срок не сдвинется.
func Classify(t model.Task, now time.Time) Decision {
	if t.Status != model.StatusPending || t.Notified {
		return DecisionNone
	}

	due := t.DueDate
	if t.Priority == model.PriorityHigh && !due.Before(now) && !due.After(now.Add(time.Hour)) {
		return DecisionHighPriority
	}
	if !due.After(now) {
		return DecisionOverdue
	}
	if !due.After(now.Add(24 * time.Hour)) {
		return DecisionDueSoon
	}
	return DecisionNone
}
