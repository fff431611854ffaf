package inmemory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"taskboard/internal/models/task"
	repo "taskboard/internal/repository"
)

// TaskStorage - map-реализация репозитория задач с той же
// семантикой фильтров, что и у postgres-версии.
type TaskStorage struct {
	storage map[uuid.UUID]*task.Task
	mtx     *sync.RWMutex
}

func NewTaskStorage() *TaskStorage {
	return &TaskStorage{
		storage: make(map[uuid.UUID]*task.Task),
		mtx:     &sync.RWMutex{},
	}
}

func (s *TaskStorage) HealthCheck(ctx context.Context) error {
	return nil
}

func (s *TaskStorage) Create(ctx context.Context, taskToCreate *task.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	taskToCreate.CreatedAt = time.Now()
	if taskToCreate.Labels == nil {
		taskToCreate.Labels = []task.Label{}
	}

	s.storage[taskToCreate.UUID] = cloneTask(taskToCreate)
	return nil
}

func (s *TaskStorage) Update(ctx context.Context, taskToUpdate *task.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.storage[taskToUpdate.UUID]; !ok {
		return repo.ErrNotFound
	}

	now := time.Now()
	taskToUpdate.UpdatedAt = &now
	s.storage[taskToUpdate.UUID] = cloneTask(taskToUpdate)
	return nil
}

func (s *TaskStorage) GetByID(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	taskToGet, ok := s.storage[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return cloneTask(taskToGet), nil
}

func (s *TaskStorage) Delete(ctx context.Context, id uuid.UUID) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.storage[id]; !ok {
		return repo.ErrNotFound
	}
	delete(s.storage, id)
	return nil
}

func (s *TaskStorage) List(ctx context.Context, userID uuid.UUID, filter task.Filter) ([]*task.Task, int, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	matched := []*task.Task{}
	for _, t := range s.storage {
		if t.UserID != userID {
			continue
		}
		if !matches(t, filter) {
			continue
		}
		matched = append(matched, cloneTask(t))
	}

	sortTasks(matched, filter)
	total := len(matched)

	// пагинация после подсчёта общего количества
	if filter.Offset >= len(matched) {
		return []*task.Task{}, total, nil
	}
	matched = matched[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}

	return matched, total, nil
}

func matches(t *task.Task, filter task.Filter) bool {
	if filter.Status != nil && t.Status != *filter.Status {
		return false
	}

	if filter.Search != "" {
		search := strings.ToLower(filter.Search)
		if !strings.Contains(strings.ToLower(t.Title), search) &&
			!strings.Contains(strings.ToLower(t.Description), search) {
			return false
		}
	}

	if len(filter.Labels) > 0 {
		// достаточно совпадения хотя бы одной метки
		found := false
		for _, name := range filter.Labels {
			if t.HasLabel(name) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	return true
}

func sortTasks(tasks []*task.Task, filter task.Filter) {
	sortBy := filter.SortBy
	if !task.SortColumns[sortBy] {
		sortBy = task.DefaultSortBy
	}
	asc := filter.SortOrder == task.SortAsc

	sort.SliceStable(tasks, func(i, j int) bool {
		var less bool
		switch sortBy {
		case "title":
			less = tasks[i].Title < tasks[j].Title
		case "status":
			less = tasks[i].Status < tasks[j].Status
		case "updated_at":
			less = timeOrZero(tasks[i].UpdatedAt).Before(timeOrZero(tasks[j].UpdatedAt))
		default:
			less = tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
		}
		if asc {
			return less
		}
		return !less
	})
}

func timeOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

func cloneTask(t *task.Task) *task.Task {
	clone := *t
	clone.Labels = make([]task.Label, len(t.Labels))
	copy(clone.Labels, t.Labels)
	if t.UpdatedAt != nil {
		updated := *t.UpdatedAt
		clone.UpdatedAt = &updated
	}
	return &clone
}
