package repo

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/aknarbekov/task-planner-api/internal/model"
)

// TaskRepository определяет интерфейс для работы с задачами
type TaskRepository interface {
	Create(ctx context.Context, t model.Task) (model.Task, error)
	Get(ctx context.Context, id uuid.UUID) (model.Task, error)
	// GetMany возвращает найденные задачи; отсутствующие id просто опускаются
	GetMany(ctx context.Context, ids []uuid.UUID) ([]model.Task, error)
	List(ctx context.Context, ownerID uuid.UUID, filter model.TaskFilter, limit int) ([]model.Task, error)
	Update(ctx context.Context, t model.Task) (model.Task, error)
	Delete(ctx context.Context, id uuid.UUID) error

	DueSoon(ctx context.Context, ownerID uuid.UUID, from, to time.Time) ([]model.Task, error)

	// Выборки для проходов планировщика
	RecurringCompleted(ctx context.Context) ([]model.Task, error)
	HighPriorityDue(ctx context.Context, from, to time.Time) ([]model.Task, error)
	Overdue(ctx context.Context, asOf time.Time) ([]model.Task, error)

	SetNotified(ctx context.Context, id uuid.UUID, notified bool) error
	ApplyRecurrenceReset(ctx context.Context, id uuid.UUID, dueDate time.Time) error

	SaveIdempotencyKey(ctx context.Context, key string, resourceID uuid.UUID) error
	GetIdempotencyKey(ctx context.Context, key string) (uuid.UUID, error)

	Stats(ctx context.Context, ownerID uuid.UUID) (Stats, error)
}

// UserRepository определяет интерфейс для работы с пользователями
type UserRepository interface {
	Create(ctx context.Context, u model.User) (model.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (model.User, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	SetPushToken(ctx context.Context, id uuid.UUID, token string) error
}

type Stats struct {
	ByCategory     map[string]int `json:"by_category"`
	TotalTasks     int            `json:"total_tasks"`
	CompletedTasks int            `json:"completed_tasks"`
	CompletionRate float64        `json:"completion_rate"`
	Upcoming       int            `json:"upcoming"`
	Overdue        int            `json:"overdue"`
}
