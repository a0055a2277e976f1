package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aknarbekov/task-planner-api/internal/model"
	"github.com/aknarbekov/task-planner-api/internal/repo"
	"github.com/aknarbekov/task-planner-api/internal/repo/mocks"
	"github.com/aknarbekov/task-planner-api/internal/service"
)

var testDue = time.Date(2025, time.June, 20, 12, 0, 0, 0, time.UTC)

func newTaskRequest(t *testing.T, method, target string, callerID uuid.UUID, taskID uuid.UUID, body any) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")

	ctx := WithUserID(req.Context(), callerID)
	if taskID != uuid.Nil {
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("id", taskID.String())
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}
	return req.WithContext(ctx)
}

func ownedTask(owner uuid.UUID) model.Task {
	return model.Task{
		ID:       uuid.New(),
		OwnerID:  owner,
		Title:    "Handler test task",
		Priority: model.PriorityMedium,
		Status:   model.StatusPending,
		Category: model.CategoryWork,
		DueDate:  testDue,
	}
}

func TestTaskHandler_Create(t *testing.T) {
	ownerID := uuid.New()

	t.Run("successful creation", func(t *testing.T) {
		created := ownedTask(ownerID)

		mockRepo := new(mocks.TaskRepository)
		mockRepo.On("Create", mock.Anything, mock.Anything).Return(created, nil)

		h := NewTaskHandler(service.NewTaskService(mockRepo), zap.NewNop())

		req := newTaskRequest(t, http.MethodPost, "/api/tasks", ownerID, uuid.Nil, model.Task{
			Title:    "Handler test task",
			Category: model.CategoryWork,
			DueDate:  testDue,
		})
		w := httptest.NewRecorder()
		h.Create(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Header().Get("Location"), "/api/tasks/")

		var got model.Task
		require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
		assert.Equal(t, created.ID, got.ID)
	})

	t.Run("empty body", func(t *testing.T) {
		h := NewTaskHandler(service.NewTaskService(new(mocks.TaskRepository)), zap.NewNop())

		req := newTaskRequest(t, http.MethodPost, "/api/tasks", ownerID, uuid.Nil, nil)
		w := httptest.NewRecorder()
		h.Create(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("validation error", func(t *testing.T) {
		h := NewTaskHandler(service.NewTaskService(new(mocks.TaskRepository)), zap.NewNop())

		req := newTaskRequest(t, http.MethodPost, "/api/tasks", ownerID, uuid.Nil, model.Task{
			Title: "", Category: model.CategoryWork, DueDate: testDue,
		})
		w := httptest.NewRecorder()
		h.Create(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestTaskHandler_ChangeStatus(t *testing.T) {
	ownerID := uuid.New()

	t.Run("dependency gate failure is a client error", func(t *testing.T) {
		dep := ownedTask(ownerID) // Pending
		task := ownedTask(ownerID)
		task.Dependencies = []uuid.UUID{dep.ID}

		mockRepo := new(mocks.TaskRepository)
		mockRepo.On("Get", mock.Anything, task.ID).Return(task, nil)
		mockRepo.On("GetMany", mock.Anything, task.Dependencies).Return([]model.Task{dep}, nil)

		h := NewTaskHandler(service.NewTaskService(mockRepo), zap.NewNop())

		req := newTaskRequest(t, http.MethodPut, "/api/tasks/"+task.ID.String()+"/status",
			ownerID, task.ID, map[string]string{"status": "Completed"})
		w := httptest.NewRecorder()
		h.ChangeStatus(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)

		var resp map[string]string
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Contains(t, resp["error"], "dependent tasks")
	})

	t.Run("non-owner gets forbidden", func(t *testing.T) {
		task := ownedTask(ownerID)

		mockRepo := new(mocks.TaskRepository)
		mockRepo.On("Get", mock.Anything, task.ID).Return(task, nil)

		h := NewTaskHandler(service.NewTaskService(mockRepo), zap.NewNop())

		req := newTaskRequest(t, http.MethodPut, "/api/tasks/"+task.ID.String()+"/status",
			uuid.New(), task.ID, map[string]string{"status": "Completed"})
		w := httptest.NewRecorder()
		h.ChangeStatus(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("unknown task is not found", func(t *testing.T) {
		missing := uuid.New()

		mockRepo := new(mocks.TaskRepository)
		mockRepo.On("Get", mock.Anything, missing).Return(model.Task{}, repo.ErrorNotFound)

		h := NewTaskHandler(service.NewTaskService(mockRepo), zap.NewNop())

		req := newTaskRequest(t, http.MethodPut, "/api/tasks/"+missing.String()+"/status",
			ownerID, missing, map[string]string{"status": "Completed"})
		w := httptest.NewRecorder()
		h.ChangeStatus(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("gate passes and task completes", func(t *testing.T) {
		task := ownedTask(ownerID)
		completed := task
		completed.Status = model.StatusCompleted

		mockRepo := new(mocks.TaskRepository)
		mockRepo.On("Get", mock.Anything, task.ID).Return(task, nil)
		mockRepo.On("Update", mock.Anything, mock.Anything).Return(completed, nil)

		h := NewTaskHandler(service.NewTaskService(mockRepo), zap.NewNop())

		req := newTaskRequest(t, http.MethodPut, "/api/tasks/"+task.ID.String()+"/status",
			ownerID, task.ID, map[string]string{"status": "Completed"})
		w := httptest.NewRecorder()
		h.ChangeStatus(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var got model.Task
		require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
		assert.Equal(t, model.StatusCompleted, got.Status)
	})
}

func TestTaskHandler_DueSoon(t *testing.T) {
	ownerID := uuid.New()
	task := ownedTask(ownerID)

	mockRepo := new(mocks.TaskRepository)
	mockRepo.On("DueSoon", mock.Anything, ownerID, mock.Anything, mock.Anything).
		Return([]model.Task{task}, nil)

	h := NewTaskHandler(service.NewTaskService(mockRepo), zap.NewNop())

	req := newTaskRequest(t, http.MethodGet, "/api/tasks/due-soon", ownerID, uuid.Nil, nil)
	w := httptest.NewRecorder()
	h.DueSoon(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var got []model.Task
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	require.Len(t, got, 1)
	assert.Equal(t, task.ID, got[0].ID)
}

func TestTaskHandler_InvalidID(t *testing.T) {
	h := NewTaskHandler(service.NewTaskService(new(mocks.TaskRepository)), zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/tasks/abc", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", "abc")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	w := httptest.NewRecorder()
	h.Get(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
