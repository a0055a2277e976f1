// Package mocks содержит testify-моки репозиториев для юнит-тестов
package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/aknarbekov/task-planner-api/internal/model"
	"github.com/aknarbekov/task-planner-api/internal/repo"
)

type TaskRepository struct {
	mock.Mock
}

func (m *TaskRepository) Create(ctx context.Context, t model.Task) (model.Task, error) {
	args := m.Called(ctx, t)
	return args.Get(0).(model.Task), args.Error(1)
}

func (m *TaskRepository) Get(ctx context.Context, id uuid.UUID) (model.Task, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Task), args.Error(1)
}

func (m *TaskRepository) GetMany(ctx context.Context, ids []uuid.UUID) ([]model.Task, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]model.Task), args.Error(1)
}

func (m *TaskRepository) List(ctx context.Context, ownerID uuid.UUID, filter model.TaskFilter, limit int) ([]model.Task, error) {
	args := m.Called(ctx, ownerID, filter, limit)
	return args.Get(0).([]model.Task), args.Error(1)
}

func (m *TaskRepository) Update(ctx context.Context, t model.Task) (model.Task, error) {
	args := m.Called(ctx, t)
	return args.Get(0).(model.Task), args.Error(1)
}

func (m *TaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *TaskRepository) DueSoon(ctx context.Context, ownerID uuid.UUID, from, to time.Time) ([]model.Task, error) {
	args := m.Called(ctx, ownerID, from, to)
	return args.Get(0).([]model.Task), args.Error(1)
}

func (m *TaskRepository) RecurringCompleted(ctx context.Context) ([]model.Task, error) {
	args := m.Called(ctx)
	return args.Get(0).([]model.Task), args.Error(1)
}

func (m *TaskRepository) HighPriorityDue(ctx context.Context, from, to time.Time) ([]model.Task, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).([]model.Task), args.Error(1)
}

func (m *TaskRepository) Overdue(ctx context.Context, asOf time.Time) ([]model.Task, error) {
	args := m.Called(ctx, asOf)
	return args.Get(0).([]model.Task), args.Error(1)
}

func (m *TaskRepository) SetNotified(ctx context.Context, id uuid.UUID, notified bool) error {
	args := m.Called(ctx, id, notified)
	return args.Error(0)
}

func (m *TaskRepository) ApplyRecurrenceReset(ctx context.Context, id uuid.UUID, dueDate time.Time) error {
	args := m.Called(ctx, id, dueDate)
	return args.Error(0)
}

func (m *TaskRepository) SaveIdempotencyKey(ctx context.Context, key string, resourceID uuid.UUID) error {
	args := m.Called(ctx, key, resourceID)
	return args.Error(0)
}

func (m *TaskRepository) GetIdempotencyKey(ctx context.Context, key string) (uuid.UUID, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *TaskRepository) Stats(ctx context.Context, ownerID uuid.UUID) (repo.Stats, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).(repo.Stats), args.Error(1)
}

type UserRepository struct {
	mock.Mock
}

func (m *UserRepository) Create(ctx context.Context, u model.User) (model.User, error) {
	args := m.Called(ctx, u)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *UserRepository) GetByEmail(ctx context.Context, email string) (model.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *UserRepository) SetPushToken(ctx context.Context, id uuid.UUID, token string) error {
	args := m.Called(ctx, id, token)
	return args.Error(0)
}
