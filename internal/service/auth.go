package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/aknarbekov/task-planner-api/internal/model"
	"github.com/aknarbekov/task-planner-api/internal/repo"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid token")
)

type AuthService struct {
	users    repo.UserRepository
	secret   []byte
	tokenTTL time.Duration
	now      func() time.Time
}

func NewAuthService(users repo.UserRepository, secret string) *AuthService {
	return &AuthService{
		users:    users,
		secret:   []byte(secret),
		tokenTTL: time.Hour,
		now:      time.Now,
	}
}

// Register создает пользователя и сразу выдает токен.
// Пароль хранится только как bcrypt-хэш.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (model.User, string, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(strings.ToLower(email))

	if name == "" || email == "" || !strings.Contains(email, "@") {
		return model.User{}, "", fmt.Errorf("%w: name and valid email are required", ErrValidation)
	}
	if len(password) < 8 {
		return model.User{}, "", fmt.Errorf("%w: password must be at least 8 characters", ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return model.User{}, "", err
	}

	user, err := s.users.Create(ctx, model.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
	})
	if err != nil {
		return user, "", err // дубликат email приходит как ErrorConflict
	}

	token, err := s.issueToken(user.ID)
	return user, token, err
}

func (s *AuthService) Login(ctx context.Context, email, password string) (model.User, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrorNotFound) {
			return user, "", ErrInvalidCredentials
		}
		return user, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return user, "", ErrInvalidCredentials
	}

	token, err := s.issueToken(user.ID)
	return user, token, err
}

func (s *AuthService) SavePushToken(ctx context.Context, userID uuid.UUID, token string) error {
	if strings.TrimSpace(token) == "" {
		return fmt.Errorf("%w: push token is required", ErrValidation)
	}
	return s.users.SetPushToken(ctx, userID, token)
}

func (s *AuthService) issueToken(userID uuid.UUID) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// ParseToken проверяет подпись и срок токена и возвращает id пользователя
func (s *AuthService) ParseToken(tokenString string) (uuid.UUID, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return uuid.Nil, ErrInvalidToken
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}
	return id, nil
}
