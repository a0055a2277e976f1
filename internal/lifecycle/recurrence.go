package lifecycle

import (
	"errors"

	"github.com/aknarbekov/task-planner-api/internal/model"
)

// ErrInvalidState — расчет рекуррентности вызван не для завершенной
// повторяющейся задачи. При корректном фильтре планировщика недостижимо.
var ErrInvalidState = errors.New("invalid state for recurrence reset")

// NextOccurrence сдвигает срок завершенной повторяющейся задачи ровно
// на один период от текущего DueDate (не от "сейчас") и возвращает её
// в Pending со сброшенным флагом notified.
//
// Месячный сдвиг идет через time.Time.AddDate с нормализацией Go:
// 31 января + 1 месяц = 3 марта (в високосный год — 2 марта).
func NextOccurrence(t model.Task) (model.Task, error) {
	if t.Recurrence == model.RecurrenceNone || t.Status != model.StatusCompleted {
		return t, ErrInvalidState
	}

	next := t
	switch t.Recurrence {
	case model.RecurrenceDaily:
		next.DueDate = t.DueDate.AddDate(0, 0, 1)
	case model.RecurrenceWeekly:
		next.DueDate = t.DueDate.AddDate(0, 0, 7)
	case model.RecurrenceMonthly:
		next.DueDate = t.DueDate.AddDate(0, 1, 0)
	}

	next.Status = model.StatusPending
	next.Notified = false
	return next, nil
}
