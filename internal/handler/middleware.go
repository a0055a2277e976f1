package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/aknarbekov/task-planner-api/internal/service"
	"github.com/aknarbekov/task-planner-api/pkg/respond"
)

type ctxKey int

const userIDKey ctxKey = iota

// Authenticate проверяет Bearer-токен и кладет id пользователя в контекст
func Authenticate(auth *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				respond.Error(w, r, http.StatusUnauthorized, "missing bearer token")
				return
			}

			userID, err := auth.ParseToken(token)
			if err != nil {
				respond.Error(w, r, http.StatusUnauthorized, "invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserID достает id аутентифицированного пользователя из контекста
func UserID(ctx context.Context) uuid.UUID {
	id, _ := ctx.Value(userIDKey).(uuid.UUID)
	return id
}

// WithUserID используется в тестах вместо полного JWT-цикла
func WithUserID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}
