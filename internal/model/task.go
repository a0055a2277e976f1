package model

import (
	"time"

	"github.com/google/uuid"
)

type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

type Status string

const (
	StatusPending   Status = "Pending"
	StatusCompleted Status = "Completed"
)

type Category string

const (
	CategoryWork     Category = "Work"
	CategoryPersonal Category = "Personal"
	CategoryUrgent   Category = "Urgent"
)

type Recurrence string

const (
	RecurrenceNone    Recurrence = "None"
	RecurrenceDaily   Recurrence = "Daily"
	RecurrenceWeekly  Recurrence = "Weekly"
	RecurrenceMonthly Recurrence = "Monthly"
)

// Task — задача пользователя. OwnerID после создания не меняется.
type Task struct {
	ID           uuid.UUID   `json:"id"`
	OwnerID      uuid.UUID   `json:"owner_id"`
	Title        string      `json:"title" validate:"required"`
	Description  string      `json:"description"`
	Priority     Priority    `json:"priority" validate:"oneof=Low Medium High"`
	DueDate      time.Time   `json:"due_date" validate:"required"`
	Status       Status      `json:"status" validate:"oneof=Pending Completed"`
	Category     Category    `json:"category" validate:"required,oneof=Work Personal Urgent"`
	Dependencies []uuid.UUID `json:"dependencies"`
	Recurrence   Recurrence  `json:"recurrence" validate:"oneof=None Daily Weekly Monthly"`
	Notified     bool        `json:"notified"`
	Progress     int         `json:"progress" validate:"gte=0,lte=100"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// ApplyDefaults заполняет перечисления значениями по умолчанию из схемы
func (t *Task) ApplyDefaults() {
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if t.Status == "" {
		t.Status = StatusPending
	}
	if t.Recurrence == "" {
		t.Recurrence = RecurrenceNone
	}
}

type TaskFilter struct {
	Priority  *Priority
	Category  *Category
	DueBefore *time.Time
}
