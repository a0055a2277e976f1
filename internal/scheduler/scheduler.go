package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/aknarbekov/task-planner-api/internal/lifecycle"
	"github.com/aknarbekov/task-planner-api/internal/model"
	"github.com/aknarbekov/task-planner-api/internal/notify"
	"github.com/aknarbekov/task-planner-api/internal/repo"
)

// Clock — источник текущего времени, подменяется в тестах
type Clock func() time.Time

type Config struct {
	SweepInterval time.Duration // рекуррентный и high-priority проходы
	OverdueHour   int           // час суток для ежедневного overdue-прохода
	NotifyTimeout time.Duration // лимит на доставку по одной задаче
	Now           Clock
}

// Scheduler гоняет три независимых прохода по задачам: сброс
// рекуррентных, напоминания о high-priority и ежедневные overdue-письма.
// Все зависимости внедряются явно, глобального состояния нет.
type Scheduler struct {
	tasks    repo.TaskRepository
	users    repo.UserRepository
	notifier notify.Notifier
	logger   *zap.Logger

	sweepInterval time.Duration
	overdueHour   int
	notifyTimeout time.Duration
	now           Clock

	wg   sync.WaitGroup
	stop chan struct{}
}

func New(tasks repo.TaskRepository, users repo.UserRepository, notifier notify.Notifier, logger *zap.Logger, cfg Config) *Scheduler {
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = 5 * time.Minute
	}
	if cfg.NotifyTimeout <= 0 {
		cfg.NotifyTimeout = 10 * time.Second
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Scheduler{
		tasks:         tasks,
		users:         users,
		notifier:      notifier,
		logger:        logger,
		sweepInterval: cfg.SweepInterval,
		overdueHour:   cfg.OverdueHour,
		notifyTimeout: cfg.NotifyTimeout,
		now:           cfg.Now,
		stop:          make(chan struct{}),
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting sweep scheduler",
		zap.Duration("sweep_interval", s.sweepInterval),
		zap.Int("overdue_hour", s.overdueHour),
	)

	s.wg.Add(3)
	go s.sweepLoop(ctx, "recurrence", s.RecurrencePass)
	go s.sweepLoop(ctx, "high_priority", s.HighPriorityPass)
	go s.overdueLoop(ctx)
}

func (s *Scheduler) Stop() {
	s.logger.Info("Stopping sweep scheduler...")
	close(s.stop)
	s.wg.Wait()
	s.logger.Info("Sweep scheduler stopped")
}

func (s *Scheduler) sweepLoop(ctx context.Context, name string, pass func(context.Context) error) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := pass(ctx); err != nil {
				// отказ хранилища роняет только этот тик, следующий повторит
				s.logger.Error("sweep pass failed", zap.String("pass", name), zap.Error(err))
			}
		}
	}
}

func (s *Scheduler) overdueLoop(ctx context.Context) {
	defer s.wg.Done()

	for {
		now := s.now()
		timer := time.NewTimer(nextDailyRun(now, s.overdueHour).Sub(now))

		select {
		case <-s.stop:
			timer.Stop()
			return
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			if err := s.OverduePass(ctx); err != nil {
				s.logger.Error("sweep pass failed", zap.String("pass", "overdue"), zap.Error(err))
			}
		}
	}
}

// nextDailyRun возвращает ближайший будущий момент с заданным часом
func nextDailyRun(now time.Time, hour int) time.Time {
	run := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !run.After(now) {
		run = run.AddDate(0, 0, 1)
	}
	return run
}

// RecurrencePass сбрасывает завершенные повторяющиеся задачи обратно в
// Pending. За тик срок двигается ровно на один период и фиксируется,
// только если новый срок уже наступил.
func (s *Scheduler) RecurrencePass(ctx context.Context) error {
	now := s.now()

	candidates, err := s.tasks.RecurringCompleted(ctx)
	if err != nil {
		return fmt.Errorf("query recurring tasks: %w", err)
	}

	for _, t := range candidates {
		next, err := lifecycle.NextOccurrence(t)
		if err != nil {
			s.logger.Error("recurrence skipped", zap.String("task_id", t.ID.String()), zap.Error(err))
			continue
		}
		if next.DueDate.After(now) {
			continue
		}
		if err := s.tasks.ApplyRecurrenceReset(ctx, t.ID, next.DueDate); err != nil {
			s.logger.Error("recurrence reset failed", zap.String("task_id", t.ID.String()), zap.Error(err))
			continue
		}
		s.logger.Info("recurring task reset to pending",
			zap.String("task_id", t.ID.String()),
			zap.String("title", t.Title),
			zap.Time("due_date", next.DueDate),
		)
	}
	return nil
}

// HighPriorityPass рассылает push+email по high-priority задачам со
// сроком в ближайший час. Сбой одной задачи не прерывает остальные.
func (s *Scheduler) HighPriorityPass(ctx context.Context) error {
	now := s.now()

	candidates, err := s.tasks.HighPriorityDue(ctx, now, now.Add(time.Hour))
	if err != nil {
		return fmt.Errorf("query high-priority tasks: %w", err)
	}

	for _, t := range candidates {
		// повторная классификация на момент действия: выборка могла устареть
		if lifecycle.Classify(t, now) != lifecycle.DecisionHighPriority {
			continue
		}
		if err := s.remind(ctx, t, reminderHighPriority); err != nil {
			// notified не трогаем — задача попадет в следующий тик
			s.logger.Error("high-priority reminder failed",
				zap.String("task_id", t.ID.String()), zap.Error(err))
			continue
		}
	}
	return nil
}

// OverduePass шлет ежедневные email по просроченным задачам
func (s *Scheduler) OverduePass(ctx context.Context) error {
	now := s.now()

	candidates, err := s.tasks.Overdue(ctx, now)
	if err != nil {
		return fmt.Errorf("query overdue tasks: %w", err)
	}

	for _, t := range candidates {
		if lifecycle.Classify(t, now) != lifecycle.DecisionOverdue {
			continue
		}
		if err := s.remind(ctx, t, reminderOverdue); err != nil {
			s.logger.Error("overdue reminder failed",
				zap.String("task_id", t.ID.String()), zap.Error(err))
			continue
		}
	}
	return nil
}

type reminderKind int

const (
	reminderHighPriority reminderKind = iota
	reminderOverdue
)

// remind доставляет напоминание владельцу задачи и помечает её notified.
// Любой сбой доставки по попытавшемуся каналу оставляет notified=false.
func (s *Scheduler) remind(ctx context.Context, t model.Task, kind reminderKind) error {
	owner, err := s.users.GetByID(ctx, t.OwnerID)
	if err != nil {
		return fmt.Errorf("resolve owner %s: %w", t.OwnerID, err)
	}

	nctx, cancel := context.WithTimeout(ctx, s.notifyTimeout)
	defer cancel()

	switch kind {
	case reminderHighPriority:
		if owner.PushToken != "" {
			if err := s.notifier.Push(nctx, owner.PushToken, "Task Reminder",
				fmt.Sprintf("Task %q is due soon.", t.Title)); err != nil {
				return fmt.Errorf("push: %w", err)
			}
		}
		if owner.Email != "" {
			if err := s.notifier.Email(nctx, owner.Email, "Task Reminder",
				fmt.Sprintf("Task %q is due in one hour. Make sure to complete it on time.", t.Title)); err != nil {
				return fmt.Errorf("email: %w", err)
			}
		}
	case reminderOverdue:
		if owner.Email != "" {
			if err := s.notifier.Email(nctx, owner.Email, "Overdue Task Reminder",
				fmt.Sprintf("Task %q is overdue. Please complete it as soon as possible.", t.Title)); err != nil {
				return fmt.Errorf("email: %w", err)
			}
		}
	}

	return s.tasks.SetNotified(ctx, t.ID, true)
}
