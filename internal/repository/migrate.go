package repository

import (
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"taskboard/internal/logger"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate накатывает встроенные миграции на базу по её URL.
func Migrate(databaseURL string) error {
	logger.Info("Repository: Запуск миграций")

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("чтение встроенных миграций: %w", err)
	}

	// драйвер golang-migrate для pgx/v5 регистрируется под схемой pgx5
	url := strings.Replace(databaseURL, "postgres://", "pgx5://", 1)

	m, err := migrate.NewWithSourceInstance("iofs", source, url)
	if err != nil {
		return fmt.Errorf("инициализация мигратора: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("Repository: Миграции уже применены")
			return nil
		}
		return fmt.Errorf("применение миграций: %w", err)
	}

	logger.Info("Repository: Миграции применены")
	return nil
}
