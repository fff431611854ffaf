package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"taskboard/internal/logger"
	"taskboard/internal/models/task"
	repo "taskboard/internal/repository"
)

type Storage struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Storage {
	return &Storage{pool: pool}
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		return fmt.Errorf("проверка соединения ping: %w", err)
	}
	return nil
}

// Create сохраняет задачу вместе с метками одной транзакцией:
// метки не могут существовать без сохранённого родителя.
func (s *Storage) Create(ctx context.Context, taskToCreate *task.Task) error {
	start := time.Now()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		logger.Error("Repository: Не удалось открыть транзакцию", err)
		return fmt.Errorf("открытие транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `INSERT INTO tasks
				(uuid, user_id, title, description, status, created_at)
				VALUES ($1, $2, $3, $4, $5, NOW())
				RETURNING created_at`

	err = tx.QueryRow(ctx, query,
		taskToCreate.UUID,
		taskToCreate.UserID,
		taskToCreate.Title,
		taskToCreate.Description,
		taskToCreate.Status,
	).Scan(&taskToCreate.CreatedAt)

	if err != nil {
		logger.Error("Repository: Не удалось добавить задачу", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("добавление задачи: %w", err)
	}

	if err := insertLabels(ctx, tx, taskToCreate.UUID, taskToCreate.Labels); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		logger.Error("Repository: Не удалось зафиксировать транзакцию", err)
		return fmt.Errorf("фиксация транзакции: %w", err)
	}

	if time.Since(start) > time.Millisecond*50 {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}
	return nil
}

// Update перезаписывает поля задачи и полностью заменяет набор меток.
func (s *Storage) Update(ctx context.Context, taskToUpdate *task.Task) error {
	start := time.Now()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		logger.Error("Repository: Не удалось открыть транзакцию", err)
		return fmt.Errorf("открытие транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `UPDATE tasks
			SET title = $1,
				description = $2,
				status = $3,
				updated_at = NOW()
			WHERE uuid = $4
			RETURNING updated_at`

	err = tx.QueryRow(ctx, query,
		taskToUpdate.Title,
		taskToUpdate.Description,
		taskToUpdate.Status,
		taskToUpdate.UUID,
	).Scan(&taskToUpdate.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось обновить задачу", err)
		return fmt.Errorf("обновление задачи: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM task_labels WHERE task_uuid = $1`, taskToUpdate.UUID); err != nil {
		logger.Error("Repository: Не удалось очистить метки", err)
		return fmt.Errorf("очистка меток: %w", err)
	}

	if err := insertLabels(ctx, tx, taskToUpdate.UUID, taskToUpdate.Labels); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		logger.Error("Repository: Не удалось зафиксировать транзакцию", err)
		return fmt.Errorf("фиксация транзакции: %w", err)
	}

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: Медленная операция", zap.Duration("ms", time.Since(start)))
	}
	return nil
}

// Delete удаляет задачу, метки уходят каскадом по внешнему ключу.
func (s *Storage) Delete(ctx context.Context, id uuid.UUID) error {
	start := time.Now()

	tag, err := s.pool.Exec(ctx, `DELETE FROM tasks WHERE uuid = $1`, id)
	if err != nil {
		logger.Error("Repository: Не удалось удалить задачу", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("удаление задачи: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: Медленная операция", zap.Duration("ms", time.Since(start)))
	}
	return nil
}

func (s *Storage) GetByID(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	start := time.Now()

	query := `SELECT
				uuid,
				user_id,
				title,
				description,
				status,
				created_at,
				updated_at
				FROM tasks
				WHERE uuid = $1`

	t := &task.Task{}
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&t.UUID,
		&t.UserID,
		&t.Title,
		&t.Description,
		&t.Status,
		&t.CreatedAt,
		&t.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить задачу", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задачи: %w", err)
	}

	labels, err := s.loadLabels(ctx, []uuid.UUID{t.UUID})
	if err != nil {
		return nil, err
	}
	t.Labels = labels[t.UUID]
	if t.Labels == nil {
		t.Labels = []task.Label{}
	}

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}

	return t, nil
}

// List возвращает страницу задач владельца и общее число совпадений
// без учёта пагинации. Фильтры собираются динамически.
func (s *Storage) List(ctx context.Context, userID uuid.UUID, filter task.Filter) ([]*task.Task, int, error) {
	start := time.Now()

	where := []string{"user_id = $1"}
	args := []any{userID}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}

	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		where = append(where, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", n, n))
	}

	if len(filter.Labels) > 0 {
		// подзапрос вместо join, чтобы не плодить дубликаты строк;
		// совпадение хотя бы одной метки из списка
		args = append(args, filter.Labels)
		where = append(where, fmt.Sprintf(
			"uuid IN (SELECT task_uuid FROM task_labels WHERE name = ANY($%d))", len(args)))
	}

	whereClause := strings.Join(where, " AND ")

	var total int
	countQuery := "SELECT COUNT(*) FROM tasks WHERE " + whereClause
	if err := s.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		logger.Error("Repository: Не удалось посчитать задачи", err)
		return nil, 0, fmt.Errorf("подсчёт задач: %w", err)
	}

	sortBy := filter.SortBy
	if !task.SortColumns[sortBy] {
		sortBy = task.DefaultSortBy
	}
	sortOrder := "DESC"
	if filter.SortOrder == task.SortAsc {
		sortOrder = "ASC"
	}

	args = append(args, filter.Limit)
	limitIdx := len(args)
	args = append(args, filter.Offset)
	offsetIdx := len(args)

	query := fmt.Sprintf(`SELECT
				uuid,
				user_id,
				title,
				description,
				status,
				created_at,
				updated_at
				FROM tasks
				WHERE %s
				ORDER BY %s %s
				LIMIT $%d OFFSET $%d`, whereClause, sortBy, sortOrder, limitIdx, offsetIdx)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		logger.Error("Repository: Не удалось получить задачи", err, zap.Duration("ms", time.Since(start)))
		return nil, 0, fmt.Errorf("получение задач: %w", err)
	}
	defer rows.Close()

	tasks := []*task.Task{}
	ids := []uuid.UUID{}

	for rows.Next() {
		t := &task.Task{}
		err := rows.Scan(
			&t.UUID,
			&t.UserID,
			&t.Title,
			&t.Description,
			&t.Status,
			&t.CreatedAt,
			&t.UpdatedAt,
		)
		if err != nil {
			logger.Warn("Repository: Ошибка сканирования задачи", zap.Error(err))
			continue
		}
		tasks = append(tasks, t)
		ids = append(ids, t.UUID)
	}

	if err := rows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, 0, fmt.Errorf("итерация по строкам: %w", err)
	}

	labels, err := s.loadLabels(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for _, t := range tasks {
		t.Labels = labels[t.UUID]
		if t.Labels == nil {
			t.Labels = []task.Label{}
		}
	}

	if time.Since(start) > time.Millisecond*50+time.Millisecond*10*time.Duration(filter.Limit) {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}

	return tasks, total, nil
}

func (s *Storage) loadLabels(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]task.Label, error) {
	result := make(map[uuid.UUID][]task.Label, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	query := `SELECT task_uuid, name, created_at
				FROM task_labels
				WHERE task_uuid = ANY($1)
				ORDER BY position`

	rows, err := s.pool.Query(ctx, query, ids)
	if err != nil {
		logger.Error("Repository: Не удалось получить метки", err)
		return nil, fmt.Errorf("получение меток: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var taskID uuid.UUID
		var label task.Label
		if err := rows.Scan(&taskID, &label.Name, &label.CreatedAt); err != nil {
			logger.Warn("Repository: Ошибка сканирования метки", zap.Error(err))
			continue
		}
		result[taskID] = append(result[taskID], label)
	}

	if err := rows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}

	return result, nil
}

func insertLabels(ctx context.Context, tx pgx.Tx, taskID uuid.UUID, labels []task.Label) error {
	query := `INSERT INTO task_labels (task_uuid, name, position, created_at)
				VALUES ($1, $2, $3, NOW())
				ON CONFLICT (task_uuid, name) DO NOTHING`

	for i, label := range labels {
		if _, err := tx.Exec(ctx, query, taskID, label.Name, i); err != nil {
			logger.Error("Repository: Не удалось добавить метку", err)
			return fmt.Errorf("добавление метки: %w", err)
		}
	}
	return nil
}
