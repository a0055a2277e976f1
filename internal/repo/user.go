package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aknarbekov/task-planner-api/internal/model"
)

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{
		pool: pool,
	}
}

func (r *UserRepo) Create(ctx context.Context, u model.User) (model.User, error) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO users (id, name, email, password_hash, push_token)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, name, email, password_hash, push_token, created_at, updated_at
	`, u.ID, u.Name, u.Email, u.PasswordHash, u.PushToken).Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.PushToken, &u.CreatedAt, &u.UpdatedAt,
	)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" { // email уникален
		return u, ErrorConflict
	}
	return u, err
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	var u model.User
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, email, password_hash, push_token, created_at, updated_at
		FROM users
		WHERE id = $1
	`, id).Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.PushToken, &u.CreatedAt, &u.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return u, ErrorNotFound
	}
	return u, err
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	var u model.User
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, email, password_hash, push_token, created_at, updated_at
		FROM users
		WHERE email = $1
	`, email).Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.PushToken, &u.CreatedAt, &u.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return u, ErrorNotFound
	}
	return u, err
}

func (r *UserRepo) SetPushToken(ctx context.Context, id uuid.UUID, token string) error {
	cmd, err := r.pool.Exec(ctx, `
		UPDATE users SET push_token = $2, updated_at = now() WHERE id = $1
	`, id, token)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrorNotFound
	}
	return nil
}
