package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aknarbekov/task-planner-api/internal/model"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func TestNextOccurrence(t *testing.T) {
	tests := []struct {
		name       string
		recurrence model.Recurrence
		due        time.Time
		wantDue    time.Time
	}{
		{
			name:       "daily adds one day",
			recurrence: model.RecurrenceDaily,
			due:        date(2025, time.June, 10),
			wantDue:    date(2025, time.June, 11),
		},
		{
			name:       "weekly adds seven days",
			recurrence: model.RecurrenceWeekly,
			due:        date(2025, time.June, 10),
			wantDue:    date(2025, time.June, 17),
		},
		{
			name:       "monthly adds one calendar month",
			recurrence: model.RecurrenceMonthly,
			due:        date(2025, time.April, 15),
			wantDue:    date(2025, time.May, 15),
		},
		{
			// нормализация AddDate: 31 января + месяц = 3 марта
			name:       "monthly overflow january 31 non-leap",
			recurrence: model.RecurrenceMonthly,
			due:        date(2025, time.January, 31),
			wantDue:    date(2025, time.March, 3),
		},
		{
			name:       "monthly overflow january 31 leap year",
			recurrence: model.RecurrenceMonthly,
			due:        date(2024, time.January, 31),
			wantDue:    date(2024, time.March, 2),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := model.Task{
				Recurrence: tt.recurrence,
				Status:     model.StatusCompleted,
				DueDate:    tt.due,
				Notified:   true,
			}

			next, err := NextOccurrence(task)
			require.NoError(t, err)

			assert.True(t, next.DueDate.Equal(tt.wantDue), "got %v, want %v", next.DueDate, tt.wantDue)
			assert.Equal(t, model.StatusPending, next.Status)
			assert.False(t, next.Notified, "notified must reset with the due date")
		})
	}
}

func TestNextOccurrence_SingleIncrementOnly(t *testing.T) {
	// задача, завершенная неделю назад, двигается только на один день за вызов
	due := date(2025, time.June, 1)
	task := model.Task{
		Recurrence: model.RecurrenceDaily,
		Status:     model.StatusCompleted,
		DueDate:    due,
	}

	next, err := NextOccurrence(task)
	require.NoError(t, err)
	assert.True(t, next.DueDate.Equal(due.AddDate(0, 0, 1)))
}

func TestNextOccurrence_InvalidState(t *testing.T) {
	tests := []struct {
		name string
		task model.Task
	}{
		{
			name: "non-recurring task",
			task: model.Task{Recurrence: model.RecurrenceNone, Status: model.StatusCompleted},
		},
		{
			name: "still pending task",
			task: model.Task{Recurrence: model.RecurrenceDaily, Status: model.StatusPending},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NextOccurrence(tt.task)
			assert.ErrorIs(t, err, ErrInvalidState)
		})
	}
}
