package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"taskboard/internal/logger"
)

// NewPool создаёт общий пул соединений для всех postgres-репозиториев.
func NewPool(ctx context.Context, connString string, maxConns, minConns int, idleTimeout time.Duration) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		logger.Error("Repository: Ошибка загрузки конфига", err)
		return nil, fmt.Errorf("загрузка конфига: %w", err)
	}

	if maxConns > 0 {
		config.MaxConns = int32(maxConns)
	}
	if minConns > 0 {
		config.MinConns = int32(minConns)
	}
	if idleTimeout > 0 {
		config.MaxConnIdleTime = idleTimeout
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		logger.Error("Repository: Ошибка создания пула", err)
		return nil, fmt.Errorf("создание пула: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		return nil, fmt.Errorf("проверка соединения ping: %w", err)
	}

	logger.Info("Repository: Успешное создание подключения к PostgreSQL")
	return pool, nil
}
