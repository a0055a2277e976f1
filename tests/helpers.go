package tests

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/aknarbekov/task-planner-api/internal/model"
	"github.com/aknarbekov/task-planner-api/migrations"
)

// SetupTestDB создает тестовую БД с помощью testcontainers и прогоняет миграции
func SetupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("Failed to start postgres container: %v", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("Failed to get connection string: %v", err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}

	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("Failed to ping database: %v", err)
	}

	// та же схема, что и в бою
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		t.Fatalf("Failed to set goose dialect: %v", err)
	}
	if err := goose.Up(stdlib.OpenDBFromPool(pool), "."); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	cleanup := func() {
		pool.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Errorf("Failed to terminate container: %v", err)
		}
	}

	return pool, cleanup
}

// TruncateTables очищает все таблицы
func TruncateTables(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	ctx := context.Background()

	_, err := pool.Exec(ctx, "TRUNCATE tasks, users, idempotency_keys CASCADE")
	if err != nil {
		t.Fatalf("Failed to truncate tables: %v", err)
	}
}

// SeedUser создает тестового пользователя
func SeedUser(t *testing.T, pool *pgxpool.Pool, email, pushToken string) model.User {
	t.Helper()
	ctx := context.Background()

	u := model.User{
		ID:        uuid.New(),
		Name:      "Test User",
		Email:     email,
		PushToken: pushToken,
	}
	_, err := pool.Exec(ctx, `
		INSERT INTO users (id, name, email, password_hash, push_token)
		VALUES ($1, $2, $3, 'x', $4)
	`, u.ID, u.Name, u.Email, u.PushToken)
	if err != nil {
		t.Fatalf("Failed to seed user: %v", err)
	}
	return u
}

// SeedTask создает задачу с переданными полями
func SeedTask(t *testing.T, pool *pgxpool.Pool, task model.Task) model.Task {
	t.Helper()
	ctx := context.Background()

	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}
	if task.Title == "" {
		task.Title = fmt.Sprintf("Task %s", task.ID)
	}
	task.ApplyDefaults()
	if task.Category == "" {
		task.Category = model.CategoryWork
	}
	if task.Dependencies == nil {
		task.Dependencies = []uuid.UUID{}
	}

	_, err := pool.Exec(ctx, `
		INSERT INTO tasks (id, owner_id, title, description, priority, due_date, status,
			category, dependencies, recurrence, notified, progress)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, task.ID, task.OwnerID, task.Title, task.Description, task.Priority, task.DueDate,
		task.Status, task.Category, task.Dependencies, task.Recurrence, task.Notified, task.Progress)
	if err != nil {
		t.Fatalf("Failed to seed task: %v", err)
	}
	return task
}

// WaitForCondition ждет выполнения условия с таймаутом
func WaitForCondition(t *testing.T, timeout time.Duration, condition func() bool) bool {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(100 * time.Millisecond)
	}
	return false
}
