package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"

	"github.com/aknarbekov/task-planner-api/internal/config"
	"github.com/aknarbekov/task-planner-api/internal/handler"
	"github.com/aknarbekov/task-planner-api/internal/notify"
	"github.com/aknarbekov/task-planner-api/internal/repo"
	"github.com/aknarbekov/task-planner-api/internal/scheduler"
	"github.com/aknarbekov/task-planner-api/internal/service"
	"github.com/aknarbekov/task-planner-api/migrations"
)

func main() {
	// Подключаем логгер
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Загрузка конфигурации
	cfg := config.Load()

	// Подключаем БД
	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to Database.") // Fatal потому что дальнейшая работа теряет смысл
	}
	defer pool.Close()

	if err := pool.Ping(context.Background()); err != nil {
		log.Fatal("Failed to ping the Database.")
	}
	logger.Info("Successfully connected to the Database!")

	// Миграции через goose поверх того же пула
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		logger.Fatal("Failed to set migration dialect", zap.Error(err))
	}
	db := stdlib.OpenDBFromPool(pool)
	if err := goose.Up(db, "."); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	logger.Info("Migrations applied")

	taskRepo := repo.NewTaskRepo(pool)
	userRepo := repo.NewUserRepo(pool)

	taskService := service.NewTaskService(taskRepo)
	authService := service.NewAuthService(userRepo, cfg.JWTSecret)

	var notifier notify.Notifier
	if cfg.SMTPHost != "" || cfg.PushGatewayURL != "" {
		notifier = notify.NewSender(notify.SenderConfig{
			SMTPHost:       cfg.SMTPHost,
			SMTPPort:       cfg.SMTPPort,
			SMTPUsername:   cfg.SMTPUsername,
			SMTPPassword:   cfg.SMTPPassword,
			From:           cfg.EmailFrom,
			PushGatewayURL: cfg.PushGatewayURL,
			PushGatewayKey: cfg.PushGatewayKey,
		}, logger)
	} else {
		logger.Warn("SMTP and push gateway are not configured, reminders go to the log only")
		notifier = &notify.LogNotifier{Logger: logger}
	}

	taskHandler := handler.NewTaskHandler(taskService, logger)
	authHandler := handler.NewAuthHandler(authService, logger)
	r := handler.NewRouter(taskHandler, authHandler, authService)

	// Фоновые проходы: рекуррентность, high-priority, overdue
	sweeper := scheduler.New(taskRepo, userRepo, notifier, logger, scheduler.Config{
		SweepInterval: cfg.SweepInterval,
		OverdueHour:   cfg.OverdueHour,
		NotifyTimeout: cfg.NotifyTimeout,
	})
	sweeper.Start(context.Background())

	srv := http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() { // Запуск сервера и обработка ошибок
		logger.Info("Server started", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed: ", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	logger.Info("Shutting down server...")
	sweeper.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Shutdown error: ", zap.Error(err))
	}
	logger.Info("Server stopped successfully!")
}
