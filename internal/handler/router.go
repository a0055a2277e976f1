package handler

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/aknarbekov/task-planner-api/internal/service"
)

// NewRouter собирает весь HTTP-роутинг приложения
func NewRouter(tasks *TaskHandler, auth *AuthHandler, authService *service.AuthService) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"ok"}`)
	})

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", auth.Register)
		r.Post("/login", auth.Login)
		r.With(Authenticate(authService)).Post("/push-token", auth.SavePushToken)
	})

	r.Route("/api/tasks", func(r chi.Router) {
		r.Use(Authenticate(authService))
		r.Post("/", tasks.Create)
		r.Get("/", tasks.List)
		r.Get("/due-soon", tasks.DueSoon)
		r.Get("/{id}", tasks.Get)
		r.Put("/{id}", tasks.Update)
		r.Delete("/{id}", tasks.Delete)
		r.Put("/{id}/status", tasks.ChangeStatus)
		r.Put("/{id}/progress", tasks.UpdateProgress)
	})

	r.With(Authenticate(authService)).Get("/api/analytics/stats", tasks.Stats)

	return r
}
