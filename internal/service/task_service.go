package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"taskboard/internal/logger"
	"taskboard/internal/models/task"
	rep "taskboard/internal/repository"
)

// здесь происходит проверка ошибок бизнес-логики

type TaskService struct {
	repo TaskRepository
}

func NewTaskService(repo TaskRepository) TaskService {
	return TaskService{
		repo: repo,
	}
}

type CreateTaskParams struct {
	UserID      uuid.UUID
	Title       string
	Description string
	Status      task.Status
	Labels      []string
}

// TaskPatch - частичное обновление: применяются только заданные поля.
type TaskPatch struct {
	Title       *string
	Description *string
	Status      *task.Status
	Labels      *[]string
}

func (s *TaskService) HealthCheck(ctx context.Context) error {
	if err := s.repo.HealthCheck(ctx); err != nil {
		return fmt.Errorf("проверка здоровья сервиса: %w", err)
	}
	return nil
}

// FindAll всегда замыкает выборку на владельца: id пользователя
// берётся из токена, а не из запроса клиента.
func (s *TaskService) FindAll(ctx context.Context, filter task.Filter, userID uuid.UUID) ([]*task.Task, int, error) {
	if filter.SortBy != "" && !task.SortColumns[filter.SortBy] {
		return nil, 0, NewValidationError("sortBy", fmt.Sprintf("недопустимая колонка %q", filter.SortBy))
	}
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, 0, NewValidationError("status", fmt.Sprintf("неизвестный статус %q", *filter.Status))
	}
	filter.Normalize()

	tasks, total, err := s.repo.List(ctx, userID, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("получение задач: %w", err)
	}
	return tasks, total, nil
}

func (s *TaskService) FindOne(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			logger.Info("Service: Задача не найдена", zap.String("target_id", id.String()))
			return nil, NewNotFound("задача", id.String())
		}
		return nil, fmt.Errorf("получение задачи: %w", err)
	}
	return t, nil
}

func (s *TaskService) Create(ctx context.Context, params CreateTaskParams) (*task.Task, error) {
	if params.Title == "" {
		return nil, NewValidationError("title", "не может быть пустым")
	}

	status := params.Status
	if status == "" {
		status = task.StatusOpen
	}
	if !status.Valid() {
		return nil, NewValidationError("status", fmt.Sprintf("неизвестный статус %q", status))
	}

	t := &task.Task{
		UUID:        uuid.New(),
		UserID:      params.UserID,
		Title:       params.Title,
		Description: params.Description,
		Status:      status,
		Labels:      dedupLabels(params.Labels),
		CreatedAt:   time.Now(),
	}

	if err := s.repo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("создание задачи: %w", err)
	}
	return t, nil
}

// Update применяет патч к уже загруженной задаче. Статус может
// двигаться только вперёд по порядку OPEN -> IN_PROGRESS -> DONE.
func (s *TaskService) Update(ctx context.Context, t *task.Task, patch TaskPatch) (*task.Task, error) {
	if patch.Status != nil {
		if !patch.Status.Valid() {
			return nil, NewValidationError("status", fmt.Sprintf("неизвестный статус %q", *patch.Status))
		}
		if !t.Status.CanTransitionTo(*patch.Status) {
			logger.Warn("Service: Недопустимый переход статуса",
				zap.String("task_id", t.UUID.String()),
				zap.String("current", string(t.Status)),
				zap.String("new", string(*patch.Status)))
			return nil, NewWrongStatus(string(t.Status), string(*patch.Status))
		}
		t.Status = *patch.Status
	}

	if patch.Title != nil {
		if *patch.Title == "" {
			return nil, NewValidationError("title", "не может быть пустым")
		}
		t.Title = *patch.Title
	}

	if patch.Description != nil {
		t.Description = *patch.Description
	}

	if patch.Labels != nil {
		t.Labels = dedupLabels(*patch.Labels)
	}

	if err := s.repo.Update(ctx, t); err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			return nil, NewNotFound("задача", t.UUID.String())
		}
		return nil, fmt.Errorf("обновление задачи: %w", err)
	}
	return t, nil
}

func (s *TaskService) Delete(ctx context.Context, t *task.Task) error {
	if err := s.repo.Delete(ctx, t.UUID); err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			return NewNotFound("задача", t.UUID.String())
		}
		return fmt.Errorf("удаление задачи: %w", err)
	}
	return nil
}

// AddLabels добавляет новые метки; совпадение с уже существующим
// именем - no-op, а не ошибка.
func (s *TaskService) AddLabels(ctx context.Context, t *task.Task, names []string) (*task.Task, error) {
	added := false
	for _, label := range dedupLabels(names) {
		if t.HasLabel(label.Name) {
			continue
		}
		t.Labels = append(t.Labels, label)
		added = true
	}

	if !added {
		return t, nil
	}

	if err := s.repo.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("добавление меток: %w", err)
	}
	return t, nil
}

// DeleteLabels снимает метки по именам, отсутствующие имена игнорируются.
func (s *TaskService) DeleteLabels(ctx context.Context, t *task.Task, names []string) (*task.Task, error) {
	toRemove := make(map[string]bool, len(names))
	for _, name := range names {
		toRemove[name] = true
	}

	kept := t.Labels[:0]
	for _, label := range t.Labels {
		if !toRemove[label.Name] {
			kept = append(kept, label)
		}
	}

	if len(kept) == len(t.Labels) {
		return t, nil
	}
	t.Labels = kept

	if err := s.repo.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("удаление меток: %w", err)
	}
	return t, nil
}

// dedupLabels схлопывает дубликаты имён, сохраняя порядок первого
// вхождения. Имена чувствительны к регистру.
func dedupLabels(names []string) []task.Label {
	seen := make(map[string]bool, len(names))
	labels := []task.Label{}
	for _, name := range names {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		labels = append(labels, task.Label{Name: name, CreatedAt: time.Now()})
	}
	return labels
}
