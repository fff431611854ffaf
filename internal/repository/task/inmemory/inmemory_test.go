package inmemory_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskboard/internal/models/task"
	repo "taskboard/internal/repository"
	"taskboard/internal/repository/task/inmemory"
)

func newTask(userID uuid.UUID, title, description string, status task.Status, labels ...string) *task.Task {
	t := &task.Task{
		UUID:        uuid.New(),
		UserID:      userID,
		Title:       title,
		Description: description,
		Status:      status,
	}
	for _, name := range labels {
		t.Labels = append(t.Labels, task.Label{Name: name})
	}
	return t
}

func defaultFilter() task.Filter {
	f := task.Filter{}
	f.Normalize()
	return f
}

func TestTaskStorage_CRUD(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()
	userID := uuid.New()

	created := newTask(userID, "Test task", "", task.StatusOpen, "urgent")
	require.NoError(t, storage.Create(ctx, created))

	got, err := storage.GetByID(ctx, created.UUID)
	require.NoError(t, err)
	assert.Equal(t, "Test task", got.Title)
	require.Len(t, got.Labels, 1)

	got.Title = "Updated title"
	require.NoError(t, storage.Update(ctx, got))

	got, err = storage.GetByID(ctx, created.UUID)
	require.NoError(t, err)
	assert.Equal(t, "Updated title", got.Title)
	assert.NotNil(t, got.UpdatedAt)

	require.NoError(t, storage.Delete(ctx, created.UUID))

	_, err = storage.GetByID(ctx, created.UUID)
	assert.ErrorIs(t, err, repo.ErrNotFound)
	assert.ErrorIs(t, storage.Delete(ctx, created.UUID), repo.ErrNotFound)
}

func TestTaskStorage_GetByID_ReturnsCopy(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()

	created := newTask(uuid.New(), "Test task", "", task.StatusOpen)
	require.NoError(t, storage.Create(ctx, created))

	got, err := storage.GetByID(ctx, created.UUID)
	require.NoError(t, err)
	got.Title = "mutated"

	again, err := storage.GetByID(ctx, created.UUID)
	require.NoError(t, err)
	assert.Equal(t, "Test task", again.Title)
}

// TestTaskStorage_List_OwnerIsolation: выборка пользователя A никогда
// не возвращает задачи пользователя B, даже когда они подходят под фильтры.
func TestTaskStorage_List_OwnerIsolation(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()
	userA := uuid.New()
	userB := uuid.New()

	require.NoError(t, storage.Create(ctx, newTask(userA, "Task A", "", task.StatusOpen)))
	require.NoError(t, storage.Create(ctx, newTask(userB, "Task B", "", task.StatusOpen)))

	tasks, total, err := storage.List(ctx, userA, defaultFilter())
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, tasks, 1)
	assert.Equal(t, userA, tasks[0].UserID)
}

func TestTaskStorage_List_Filters(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()
	userID := uuid.New()

	require.NoError(t, storage.Create(ctx, newTask(userID, "Buy milk", "from the store", task.StatusOpen, "errand")))
	require.NoError(t, storage.Create(ctx, newTask(userID, "Write report", "quarterly numbers", task.StatusInProgress, "work", "urgent")))
	require.NoError(t, storage.Create(ctx, newTask(userID, "Ship release", "", task.StatusDone, "work")))

	t.Run("by status", func(t *testing.T) {
		f := defaultFilter()
		status := task.StatusDone
		f.Status = &status

		tasks, total, err := storage.List(ctx, userID, f)
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		require.Len(t, tasks, 1)
		assert.Equal(t, "Ship release", tasks[0].Title)
	})

	t.Run("search is case-insensitive over title and description", func(t *testing.T) {
		f := defaultFilter()
		f.Search = "REPORT"

		_, total, err := storage.List(ctx, userID, f)
		require.NoError(t, err)
		assert.Equal(t, 1, total)

		f.Search = "store"
		_, total, err = storage.List(ctx, userID, f)
		require.NoError(t, err)
		assert.Equal(t, 1, total)
	})

	t.Run("labels match any of the requested names", func(t *testing.T) {
		f := defaultFilter()
		f.Labels = []string{"urgent", "errand"}

		_, total, err := storage.List(ctx, userID, f)
		require.NoError(t, err)
		assert.Equal(t, 2, total)
	})

	t.Run("label names are case-sensitive", func(t *testing.T) {
		f := defaultFilter()
		f.Labels = []string{"URGENT"}

		_, total, err := storage.List(ctx, userID, f)
		require.NoError(t, err)
		assert.Equal(t, 0, total)
	})

	t.Run("combined filters", func(t *testing.T) {
		f := defaultFilter()
		status := task.StatusInProgress
		f.Status = &status
		f.Labels = []string{"work"}

		tasks, total, err := storage.List(ctx, userID, f)
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		require.Len(t, tasks, 1)
		assert.Equal(t, "Write report", tasks[0].Title)
	})
}

func TestTaskStorage_List_Pagination(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()
	userID := uuid.New()

	for _, title := range []string{"first", "second", "third"} {
		require.NoError(t, storage.Create(ctx, newTask(userID, title, "", task.StatusOpen)))
		time.Sleep(time.Millisecond) // стабильный порядок по created_at
	}

	f := defaultFilter()
	f.Limit = 2
	f.Offset = 0

	tasks, total, err := storage.List(ctx, userID, f)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, tasks, 2)

	f.Offset = 2
	tasks, total, err = storage.List(ctx, userID, f)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, tasks, 1)

	f.Offset = 10
	tasks, total, err = storage.List(ctx, userID, f)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Empty(t, tasks)
}

func TestTaskStorage_List_Sorting(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()
	userID := uuid.New()

	for _, title := range []string{"banana", "apple", "cherry"} {
		require.NoError(t, storage.Create(ctx, newTask(userID, title, "", task.StatusOpen)))
	}

	f := defaultFilter()
	f.SortBy = "title"
	f.SortOrder = task.SortAsc

	tasks, _, err := storage.List(ctx, userID, f)
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	assert.Equal(t, "apple", tasks[0].Title)
	assert.Equal(t, "banana", tasks[1].Title)
	assert.Equal(t, "cherry", tasks[2].Title)

	f.SortOrder = task.SortDesc
	tasks, _, err = storage.List(ctx, userID, f)
	require.NoError(t, err)
	assert.Equal(t, "cherry", tasks[0].Title)
}
