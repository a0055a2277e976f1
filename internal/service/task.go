package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/aknarbekov/task-planner-api/internal/lifecycle"
	"github.com/aknarbekov/task-planner-api/internal/model"
	"github.com/aknarbekov/task-planner-api/internal/repo"
)

var (
	ErrValidation     = errors.New("validation error")
	ErrForbidden      = errors.New("forbidden")
	ErrDependencyGate = errors.New("dependencies not completed")
)

type TaskService struct {
	repo     repo.TaskRepository
	validate *validator.Validate
	now      func() time.Time
}

func NewTaskService(repo repo.TaskRepository) *TaskService {
	return &TaskService{
		repo:     repo,
		validate: validator.New(),
		now:      time.Now,
	}
}

func (s *TaskService) Create(ctx context.Context, ownerID uuid.UUID, t model.Task, idempKey string) (model.Task, error) {
	t.OwnerID = ownerID
	t.ApplyDefaults()
	t.Status = model.StatusPending
	t.Notified = false

	if err := s.validateTask(t); err != nil {
		return t, err
	}

	if idempKey != "" { // Обеспечение идемпотентности - если ключ с ресурсом уже существует, мы не создаем его еще раз
		if existingID, err := s.repo.GetIdempotencyKey(ctx, idempKey); err == nil {
			return s.repo.Get(ctx, existingID)
		}
	}

	resource, err := s.repo.Create(ctx, t)
	if err != nil {
		return resource, err
	}

	if idempKey != "" {
		s.repo.SaveIdempotencyKey(ctx, idempKey, resource.ID)
	}

	return resource, nil
}

func (s *TaskService) Get(ctx context.Context, callerID, id uuid.UUID) (model.Task, error) {
	return s.loadOwned(ctx, callerID, id)
}

func (s *TaskService) List(ctx context.Context, ownerID uuid.UUID, filter model.TaskFilter, limit int) ([]model.Task, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.List(ctx, ownerID, filter, limit)
}

// Update меняет редактируемые поля задачи. Статус через Update не
// меняется — для этого есть ChangeStatus с проверкой зависимостей.
// Сдвиг срока сбрасывает notified, иначе новое напоминание не придет.
func (s *TaskService) Update(ctx context.Context, callerID uuid.UUID, t model.Task) (model.Task, error) {
	existing, err := s.loadOwned(ctx, callerID, t.ID)
	if err != nil {
		return t, err
	}

	existing.Title = t.Title
	existing.Description = t.Description
	existing.Priority = t.Priority
	existing.Category = t.Category
	existing.Recurrence = t.Recurrence
	existing.Dependencies = t.Dependencies
	if !t.DueDate.Equal(existing.DueDate) {
		existing.DueDate = t.DueDate
		existing.Notified = false
	}
	existing.ApplyDefaults()

	if err := s.validateTask(existing); err != nil {
		return existing, err
	}
	return s.repo.Update(ctx, existing)
}

func (s *TaskService) Delete(ctx context.Context, callerID, id uuid.UUID) error {
	if _, err := s.loadOwned(ctx, callerID, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// ChangeStatus переводит задачу между Pending и Completed.
// Pending -> Completed пропускается только если все прямые зависимости
// завершены; обратный переход свободный (им пользуется рекуррентность).
func (s *TaskService) ChangeStatus(ctx context.Context, callerID, id uuid.UUID, status model.Status) (model.Task, error) {
	if status != model.StatusPending && status != model.StatusCompleted {
		return model.Task{}, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}

	t, err := s.loadOwned(ctx, callerID, id)
	if err != nil {
		return t, err
	}

	if status == model.StatusCompleted && t.Status != model.StatusCompleted {
		deps, err := s.dependencySnapshots(ctx, t)
		if err != nil {
			return t, err
		}
		if !lifecycle.CanComplete(t, deps) {
			return t, ErrDependencyGate
		}
	}

	t.Status = status
	return s.repo.Update(ctx, t)
}

func (s *TaskService) UpdateProgress(ctx context.Context, callerID, id uuid.UUID, progress int) (model.Task, error) {
	if progress < 0 || progress > 100 {
		return model.Task{}, fmt.Errorf("%w: progress must be within 0..100", ErrValidation)
	}

	t, err := s.loadOwned(ctx, callerID, id)
	if err != nil {
		return t, err
	}

	t.Progress = progress
	return s.repo.Update(ctx, t)
}

// DueSoon — задачи владельца со сроком в ближайшие 24 часа,
// еще не получившие напоминания. Чисто информационная выборка.
func (s *TaskService) DueSoon(ctx context.Context, ownerID uuid.UUID) ([]model.Task, error) {
	now := s.now()
	return s.repo.DueSoon(ctx, ownerID, now, now.Add(24*time.Hour))
}

func (s *TaskService) Stats(ctx context.Context, ownerID uuid.UUID) (repo.Stats, error) {
	return s.repo.Stats(ctx, ownerID)
}

// dependencySnapshots загружает свежие статусы прямых зависимостей.
// Исчезнувшая запись не дополняется — гейт трактует недостачу как
// невыполненную зависимость (fail closed).
func (s *TaskService) dependencySnapshots(ctx context.Context, t model.Task) ([]model.Task, error) {
	if len(t.Dependencies) == 0 {
		return nil, nil
	}
	return s.repo.GetMany(ctx, t.Dependencies)
}

func (s *TaskService) loadOwned(ctx context.Context, callerID, id uuid.UUID) (model.Task, error) {
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return t, err
	}
	if t.OwnerID != callerID {
		return t, ErrForbidden
	}
	return t, nil
}

func (s *TaskService) validateTask(t model.Task) error {
	if strings.TrimSpace(t.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if err := s.validate.Struct(t); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}
