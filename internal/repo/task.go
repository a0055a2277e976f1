package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aknarbekov/task-planner-api/internal/model"
)

var (
	ErrorNotFound = errors.New("not found")
	ErrorConflict = errors.New("conflict")
)

const taskColumns = `id, owner_id, title, description, priority, due_date, status,
	category, dependencies, recurrence, notified, progress, created_at, updated_at`

type TaskRepo struct { // Репозиторий для работы непосредственно с БД
	pool *pgxpool.Pool
}

func NewTaskRepo(pool *pgxpool.Pool) *TaskRepo { // Конструктор
	return &TaskRepo{
		pool: pool,
	}
}

func (r *TaskRepo) Create(ctx context.Context, t model.Task) (model.Task, error) {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.Dependencies == nil {
		t.Dependencies = []uuid.UUID{}
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO tasks (id, owner_id, title, description, priority, due_date, status,
			category, dependencies, recurrence, notified, progress)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, false, $11)
		RETURNING `+taskColumns+`
	`, t.ID, t.OwnerID, t.Title, t.Description, t.Priority, t.DueDate, t.Status,
		t.Category, t.Dependencies, t.Recurrence, t.Progress,
	).Scan(taskFields(&t)...)
	return t, r.mapError(err)
}

func (r *TaskRepo) Get(ctx context.Context, id uuid.UUID) (model.Task, error) {
	var t model.Task
	err := r.pool.QueryRow(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE id = $1
	`, id).Scan(taskFields(&t)...)

	if errors.Is(err, pgx.ErrNoRows) {
		return t, ErrorNotFound
	}
	return t, err
}

func (r *TaskRepo) GetMany(ctx context.Context, ids []uuid.UUID) ([]model.Task, error) {
	if len(ids) == 0 {
		return []model.Task{}, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE id = ANY($1)
	`, ids)
	if err != nil {
		return nil, err
	}
	return collectTasks(rows, len(ids))
}

func (r *TaskRepo) List(ctx context.Context, ownerID uuid.UUID, filter model.TaskFilter, limit int) ([]model.Task, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE owner_id = $1
		  AND ($2::text IS NULL OR priority = $2)
		  AND ($3::text IS NULL OR category = $3)
		  AND ($4::timestamptz IS NULL OR due_date <= $4)
		ORDER BY due_date, created_at, id
		LIMIT $5
	`, ownerID, filter.Priority, filter.Category, filter.DueBefore, limit)
	if err != nil {
		return nil, err
	}
	return collectTasks(rows, limit)
}

func (r *TaskRepo) Update(ctx context.Context, t model.Task) (model.Task, error) {
	// last-write-wins: ряд перезаписывается целиком, без CAS
	if t.Dependencies == nil {
		t.Dependencies = []uuid.UUID{}
	}
	err := r.pool.QueryRow(ctx, `
		UPDATE tasks
		SET title = $2, description = $3, priority = $4, due_date = $5, status = $6,
			category = $7, dependencies = $8, recurrence = $9, notified = $10,
			progress = $11, updated_at = now()
		WHERE id = $1
		RETURNING `+taskColumns+`
	`, t.ID, t.Title, t.Description, t.Priority, t.DueDate, t.Status,
		t.Category, t.Dependencies, t.Recurrence, t.Notified, t.Progress,
	).Scan(taskFields(&t)...)

	if errors.Is(err, pgx.ErrNoRows) {
		return t, ErrorNotFound
	}
	return t, r.mapError(err)
}

func (r *TaskRepo) Delete(ctx context.Context, id uuid.UUID) error {
	cmd, err := r.pool.Exec(ctx, "DELETE FROM tasks WHERE id = $1", id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrorNotFound
	}
	return nil
}

func (r *TaskRepo) DueSoon(ctx context.Context, ownerID uuid.UUID, from, to time.Time) ([]model.Task, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE owner_id = $1
		  AND status = 'Pending'
		  AND notified = false
		  AND due_date >= $2 AND due_date <= $3
		ORDER BY due_date
	`, ownerID, from, to)
	if err != nil {
		return nil, err
	}
	return collectTasks(rows, 0)
}

func (r *TaskRepo) RecurringCompleted(ctx context.Context) ([]model.Task, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE recurrence <> 'None' AND status = 'Completed'
		ORDER BY due_date
	`)
	if err != nil {
		return nil, err
	}
	return collectTasks(rows, 0)
}

func (r *TaskRepo) HighPriorityDue(ctx context.Context, from, to time.Time) ([]model.Task, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE status = 'Pending'
		  AND notified = false
		  AND priority = 'High'
		  AND due_date >= $1 AND due_date <= $2
		ORDER BY due_date
	`, from, to)
	if err != nil {
		return nil, err
	}
	return collectTasks(rows, 0)
}

func (r *TaskRepo) Overdue(ctx context.Context, asOf time.Time) ([]model.Task, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE status = 'Pending'
		  AND notified = false
		  AND due_date <= $1
		ORDER BY due_date
	`, asOf)
	if err != nil {
		return nil, err
	}
	return collectTasks(rows, 0)
}

func (r *TaskRepo) SetNotified(ctx context.Context, id uuid.UUID, notified bool) error {
	cmd, err := r.pool.Exec(ctx, `
		UPDATE tasks SET notified = $2, updated_at = now() WHERE id = $1
	`, id, notified)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrorNotFound
	}
	return nil
}

func (r *TaskRepo) ApplyRecurrenceReset(ctx context.Context, id uuid.UUID, dueDate time.Time) error {
	// сдвиг срока всегда сбрасывает notified, иначе задача перестанет напоминать
	cmd, err := r.pool.Exec(ctx, `
		UPDATE tasks
		SET status = 'Pending', due_date = $2, notified = false, updated_at = now()
		WHERE id = $1
	`, id, dueDate)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrorNotFound
	}
	return nil
}

func (r *TaskRepo) SaveIdempotencyKey(ctx context.Context, key string, resourceID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO idempotency_keys (key, resource_id) VALUES ($1, $2)
		ON CONFLICT (key) DO NOTHING
	`, key, resourceID)
	return err
}

func (r *TaskRepo) GetIdempotencyKey(ctx context.Context, key string) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.pool.QueryRow(ctx, `
		SELECT resource_id FROM idempotency_keys WHERE key = $1
	`, key).Scan(&id)

	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, ErrorNotFound
	}
	return id, err
}

func (r *TaskRepo) Stats(ctx context.Context, ownerID uuid.UUID) (Stats, error) {
	stats := Stats{ByCategory: make(map[string]int)}

	rows, err := r.pool.Query(ctx, `
		SELECT category, COUNT(*) FROM tasks WHERE owner_id = $1 GROUP BY category
	`, ownerID)
	if err != nil {
		return stats, err
	}
	defer rows.Close()
	for rows.Next() {
		var category string
		var count int
		if err := rows.Scan(&category, &count); err != nil {
			return stats, err
		}
		stats.ByCategory[category] = count
	}
	if err := rows.Err(); err != nil {
		return stats, err
	}

	err = r.pool.QueryRow(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE status = 'Completed'),
			COUNT(*) FILTER (WHERE status = 'Pending' AND due_date >= now()),
			COUNT(*) FILTER (WHERE status = 'Pending' AND due_date < now())
		FROM tasks
		WHERE owner_id = $1
	`, ownerID).Scan(&stats.TotalTasks, &stats.CompletedTasks, &stats.Upcoming, &stats.Overdue)
	if err != nil {
		return stats, err
	}

	if stats.TotalTasks > 0 {
		stats.CompletionRate = float64(stats.CompletedTasks) / float64(stats.TotalTasks) * 100
	}
	return stats, nil
}

func taskFields(t *model.Task) []any {
	return []any{
		&t.ID, &t.OwnerID, &t.Title, &t.Description, &t.Priority, &t.DueDate, &t.Status,
		&t.Category, &t.Dependencies, &t.Recurrence, &t.Notified, &t.Progress,
		&t.CreatedAt, &t.UpdatedAt,
	}
}

func collectTasks(rows pgx.Rows, sizeHint int) ([]model.Task, error) {
	defer rows.Close()

	tasks := make([]model.Task, 0, sizeHint)
	for rows.Next() {
		var t model.Task
		if err := rows.Scan(taskFields(&t)...); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (r *TaskRepo) mapError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return ErrorConflict
		case "23503":
			return fmt.Errorf("%w: referenced record is gone", ErrorNotFound)
		}
	}
	return err
}
