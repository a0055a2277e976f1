package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aknarbekov/task-planner-api/internal/model"
	"github.com/aknarbekov/task-planner-api/internal/scheduler"
)

func TestConcurrent_ProgressUpdates(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping concurrency test in short mode")
	}

	env, cleanup := setupEnv(t)
	defer cleanup()

	auth := env.register(t, "progress@example.com")

	resp := env.do(t, http.MethodPost, "/api/tasks", auth.Token, model.Task{
		Title: "Refactor billing", Category: model.CategoryWork,
		DueDate: time.Now().Add(24 * time.Hour).UTC(),
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	task := decode[model.Task](t, resp)

	const workers = 10
	var wg sync.WaitGroup
	codes := make(chan int, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(progress int) {
			defer wg.Done()
			resp := env.do(t, http.MethodPut, "/api/tasks/"+task.ID.String()+"/progress",
				auth.Token, map[string]int{"progress": progress})
			codes <- resp.StatusCode
			resp.Body.Close()
		}(i * 10)
	}
	wg.Wait()
	close(codes)

	for code := range codes {
		assert.Equal(t, http.StatusOK, code)
	}

	// последняя запись побеждает, но значение всегда из отправленных
	resp = env.do(t, http.MethodGet, "/api/tasks/"+task.ID.String(), auth.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	final := decode[model.Task](t, resp)
	assert.Zero(t, final.Progress%10)
	assert.LessOrEqual(t, final.Progress, 90)
}

func TestConcurrent_SweepAndComplete(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping concurrency test in short mode")
	}

	env, cleanup := setupEnv(t)
	defer cleanup()
	ctx := context.Background()

	auth := env.register(t, "race@example.com")

	resp := env.do(t, http.MethodPost, "/api/tasks", auth.Token, model.Task{
		Title: "Pay invoice", Category: model.CategoryUrgent, Priority: model.PriorityHigh,
		DueDate: time.Now().Add(30 * time.Minute).UTC(),
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	task := decode[model.Task](t, resp)

	sweeper := scheduler.New(env.tasks, env.users, &captureNotifier{}, zap.NewNop(), scheduler.Config{})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		assert.NoError(t, sweeper.HighPriorityPass(ctx))
	}()
	go func() {
		defer wg.Done()
		resp := env.do(t, http.MethodPut, "/api/tasks/"+task.ID.String()+"/status",
			auth.Token, map[string]string{"status": "Completed"})
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()
	}()
	wg.Wait()

	after, err := env.tasks.Get(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, after.Status)
}

func TestIdempotentCreate(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping concurrency test in short mode")
	}

	env, cleanup := setupEnv(t)
	defer cleanup()
	ctx := context.Background()

	auth := env.register(t, "idem@example.com")

	body := model.Task{
		Title: "Order supplies", Category: model.CategoryWork,
		DueDate: time.Now().Add(24 * time.Hour).UTC(),
	}

	first := env.createWithKey(t, auth.Token, body, "retry-key-1")
	second := env.createWithKey(t, auth.Token, body, "retry-key-1")
	assert.Equal(t, first.ID, second.ID)

	var count int
	require.NoError(t, env.pool.QueryRow(ctx,
		"SELECT count(*) FROM tasks WHERE owner_id = $1", auth.User.ID).Scan(&count))
	assert.Equal(t, 1, count)

	third := env.createWithKey(t, auth.Token, body, "retry-key-2")
	assert.NotEqual(t, first.ID, third.ID)
}

func (e *testEnv) createWithKey(t *testing.T, token string, task model.Task, key string) model.Task {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(task))

	req, err := http.NewRequest(http.MethodPost, e.server.URL+"/api/tasks", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Idempotency-Key", key)

	resp, err := e.server.Client().Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode, fmt.Sprintf("create with key %s", key))
	return decode[model.Task](t, resp)
}
