package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"taskboard/internal/logger"
	"taskboard/internal/models/user"
	repo "taskboard/internal/repository"
)

const uniqueViolation = "23505"

type Storage struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Storage {
	return &Storage{pool: pool}
}

func (s *Storage) Create(ctx context.Context, userToCreate *user.User) error {
	start := time.Now()

	query := `INSERT INTO users
				(uuid, email, name, password_hash, roles, created_at)
				VALUES ($1, $2, $3, $4, $5, NOW())
				RETURNING created_at`

	err := s.pool.QueryRow(ctx, query,
		userToCreate.UUID,
		userToCreate.Email,
		userToCreate.Name,
		userToCreate.PasswordHash,
		rolesToStrings(userToCreate.Roles),
	).Scan(&userToCreate.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return repo.ErrEmailTaken
		}
		logger.Error("Repository: Не удалось добавить пользователя", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("добавление пользователя: %w", err)
	}

	if time.Since(start) > time.Millisecond*50 {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}
	return nil
}

func (s *Storage) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return s.getOne(ctx, `WHERE email = $1`, email)
}

func (s *Storage) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	return s.getOne(ctx, `WHERE uuid = $1`, id)
}

func (s *Storage) getOne(ctx context.Context, where string, arg any) (*user.User, error) {
	start := time.Now()

	query := `SELECT
				uuid,
				email,
				name,
				password_hash,
				roles,
				created_at
				FROM users ` + where

	u := &user.User{}
	var roles []string
	err := s.pool.QueryRow(ctx, query, arg).Scan(
		&u.UUID,
		&u.Email,
		&u.Name,
		&u.PasswordHash,
		&roles,
		&u.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить пользователя", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение пользователя: %w", err)
	}

	u.Roles = rolesFromStrings(roles)

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}
	return u, nil
}

func rolesToStrings(roles []user.Role) []string {
	result := make([]string, len(roles))
	for i, r := range roles {
		result[i] = string(r)
	}
	return result
}

func rolesFromStrings(roles []string) []user.Role {
	result := make([]user.Role, len(roles))
	for i, r := range roles {
		result[i] = user.Role(r)
	}
	return result
}
