package postgres_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"taskboard/internal/logger"
	"taskboard/internal/models/task"
	"taskboard/internal/repository"
	repopostgres "taskboard/internal/repository/postgres"
	taskpostgres "taskboard/internal/repository/task/postgres"
)

func TestMain(m *testing.M) {
	if err := logger.Init(true); err != nil {
		panic(err)
	}
	code := m.Run()
	logger.Sync()
	os.Exit(code)
}

// PostgresTestSuite для интеграционных тестов с PostgreSQL
type PostgresTestSuite struct {
	suite.Suite
	container testcontainers.Container
	pool      *pgxpool.Pool
	storage   *taskpostgres.Storage
	ctx       context.Context
	ownerID   uuid.UUID
	otherID   uuid.UUID
}

// SetupSuite запускается один раз перед всеми тестами
func (s *PostgresTestSuite) SetupSuite() {
	s.ctx = context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(30 * time.Second),
	}

	container, err := testcontainers.GenericContainer(s.ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(s.T(), err)
	s.container = container

	host, err := container.Host(s.ctx)
	require.NoError(s.T(), err)

	port, err := container.MappedPort(s.ctx, "5432")
	require.NoError(s.T(), err)

	connString := fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port())

	s.pool, err = repopostgres.NewPool(s.ctx, connString, 0, 0, 0)
	require.NoError(s.T(), err)

	require.NoError(s.T(), repository.Migrate(connString))

	s.storage = taskpostgres.New(s.pool)

	// задачи требуют владельца, сеем двух пользователей
	s.ownerID = s.seedUser("owner@example.com")
	s.otherID = s.seedUser("other@example.com")
}

// TearDownSuite очищает после всех тестов
func (s *PostgresTestSuite) TearDownSuite() {
	if s.pool != nil {
		s.pool.Close()
	}
	if s.container != nil {
		s.container.Terminate(s.ctx)
	}
}

// SetupTest очищает задачи перед каждым тестом, метки уходят каскадом
func (s *PostgresTestSuite) SetupTest() {
	_, err := s.pool.Exec(s.ctx, "DELETE FROM tasks")
	require.NoError(s.T(), err)
}

func (s *PostgresTestSuite) seedUser(email string) uuid.UUID {
	id := uuid.New()
	_, err := s.pool.Exec(s.ctx,
		`INSERT INTO users (uuid, email, name, password_hash) VALUES ($1, $2, 'Test User', 'hash')`,
		id, email)
	require.NoError(s.T(), err)
	return id
}

func (s *PostgresTestSuite) newTask(userID uuid.UUID, title string, status task.Status, labels ...string) *task.Task {
	t := &task.Task{
		UUID:   uuid.New(),
		UserID: userID,
		Title:  title,
		Status: status,
	}
	for _, name := range labels {
		t.Labels = append(t.Labels, task.Label{Name: name})
	}
	require.NoError(s.T(), s.storage.Create(s.ctx, t))
	return t
}

// TestPostgresTestSuite запускает suite
func TestPostgresTestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Пропускаем интеграционные тесты в коротком режиме")
	}
	suite.Run(t, new(PostgresTestSuite))
}

func (s *PostgresTestSuite) TestStorage_Create() {
	taskToCreate := s.newTask(s.ownerID, "Test Task", task.StatusOpen, "urgent", "home")
	assert.False(s.T(), taskToCreate.CreatedAt.IsZero())

	retrieved, err := s.storage.GetByID(s.ctx, taskToCreate.UUID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "Test Task", retrieved.Title)
	assert.Equal(s.T(), s.ownerID, retrieved.UserID)
	assert.Equal(s.T(), task.StatusOpen, retrieved.Status)
	assert.Nil(s.T(), retrieved.UpdatedAt)

	// метки возвращаются в порядке добавления
	require.Len(s.T(), retrieved.Labels, 2)
	assert.Equal(s.T(), "urgent", retrieved.Labels[0].Name)
	assert.Equal(s.T(), "home", retrieved.Labels[1].Name)
	assert.False(s.T(), retrieved.Labels[0].CreatedAt.IsZero())
}

func (s *PostgresTestSuite) TestStorage_GetByID_NotFound() {
	_, err := s.storage.GetByID(s.ctx, uuid.New())
	require.Error(s.T(), err)
	assert.ErrorIs(s.T(), err, repository.ErrNotFound)
}

func (s *PostgresTestSuite) TestStorage_Update() {
	created := s.newTask(s.ownerID, "Original Title", task.StatusOpen, "old")

	created.Title = "Updated Title"
	created.Description = "Updated Description"
	created.Status = task.StatusInProgress
	created.Labels = []task.Label{{Name: "new"}}

	require.NoError(s.T(), s.storage.Update(s.ctx, created))

	retrieved, err := s.storage.GetByID(s.ctx, created.UUID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "Updated Title", retrieved.Title)
	assert.Equal(s.T(), "Updated Description", retrieved.Description)
	assert.Equal(s.T(), task.StatusInProgress, retrieved.Status)
	assert.NotNil(s.T(), retrieved.UpdatedAt)

	// старый набор меток полностью заменён
	require.Len(s.T(), retrieved.Labels, 1)
	assert.Equal(s.T(), "new", retrieved.Labels[0].Name)
}

func (s *PostgresTestSuite) TestStorage_Update_NotFound() {
	missing := &task.Task{UUID: uuid.New(), UserID: s.ownerID, Title: "ghost", Status: task.StatusOpen}
	err := s.storage.Update(s.ctx, missing)
	assert.ErrorIs(s.T(), err, repository.ErrNotFound)
}

func (s *PostgresTestSuite) TestStorage_Delete() {
	created := s.newTask(s.ownerID, "Task to delete", task.StatusOpen, "doomed")

	require.NoError(s.T(), s.storage.Delete(s.ctx, created.UUID))

	_, err := s.storage.GetByID(s.ctx, created.UUID)
	assert.ErrorIs(s.T(), err, repository.ErrNotFound)

	// метки удалены каскадом
	var count int
	err = s.pool.QueryRow(s.ctx,
		`SELECT COUNT(*) FROM task_labels WHERE task_uuid = $1`, created.UUID).Scan(&count)
	require.NoError(s.T(), err)
	assert.Zero(s.T(), count)

	assert.ErrorIs(s.T(), s.storage.Delete(s.ctx, created.UUID), repository.ErrNotFound)
}

func (s *PostgresTestSuite) TestStorage_List_OwnerScoping() {
	s.newTask(s.ownerID, "Mine", task.StatusOpen)
	s.newTask(s.otherID, "Not mine", task.StatusOpen)

	filter := task.Filter{}
	filter.Normalize()

	tasks, total, err := s.storage.List(s.ctx, s.ownerID, filter)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 1, total)
	require.Len(s.T(), tasks, 1)
	assert.Equal(s.T(), "Mine", tasks[0].Title)
}

func (s *PostgresTestSuite) TestStorage_List_Filters() {
	s.newTask(s.ownerID, "Buy milk", task.StatusOpen, "errand")
	s.newTask(s.ownerID, "Write report", task.StatusInProgress, "work")
	s.newTask(s.ownerID, "Call mom", task.StatusDone)

	s.T().Run("by status", func(t *testing.T) {
		status := task.StatusInProgress
		filter := task.Filter{Status: &status}
		filter.Normalize()

		tasks, total, err := s.storage.List(s.ctx, s.ownerID, filter)
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		require.Len(t, tasks, 1)
		assert.Equal(t, "Write report", tasks[0].Title)
	})

	s.T().Run("search is case-insensitive", func(t *testing.T) {
		filter := task.Filter{Search: "MILK"}
		filter.Normalize()

		_, total, err := s.storage.List(s.ctx, s.ownerID, filter)
		require.NoError(t, err)
		assert.Equal(t, 1, total)
	})

	s.T().Run("any label matches", func(t *testing.T) {
		filter := task.Filter{Labels: []string{"errand", "work"}}
		filter.Normalize()

		_, total, err := s.storage.List(s.ctx, s.ownerID, filter)
		require.NoError(t, err)
		assert.Equal(t, 2, total)
	})

	s.T().Run("unknown label matches nothing", func(t *testing.T) {
		filter := task.Filter{Labels: []string{"nope"}}
		filter.Normalize()

		tasks, total, err := s.storage.List(s.ctx, s.ownerID, filter)
		require.NoError(t, err)
		assert.Zero(t, total)
		assert.Empty(t, tasks)
	})
}

func (s *PostgresTestSuite) TestStorage_List_Pagination() {
	for i := 1; i <= 5; i++ {
		s.newTask(s.ownerID, fmt.Sprintf("Task %d", i), task.StatusOpen)
	}

	filter := task.Filter{Limit: 2}
	filter.Normalize()

	tasks, total, err := s.storage.List(s.ctx, s.ownerID, filter)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 5, total)
	assert.Len(s.T(), tasks, 2)

	filter.Offset = 4
	tasks, total, err = s.storage.List(s.ctx, s.ownerID, filter)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 5, total)
	assert.Len(s.T(), tasks, 1)

	filter.Offset = 100
	tasks, _, err = s.storage.List(s.ctx, s.ownerID, filter)
	require.NoError(s.T(), err)
	assert.Empty(s.T(), tasks)
}

func (s *PostgresTestSuite) TestStorage_List_Sorting() {
	s.newTask(s.ownerID, "banana", task.StatusOpen)
	s.newTask(s.ownerID, "apple", task.StatusOpen)
	s.newTask(s.ownerID, "cherry", task.StatusOpen)

	filter := task.Filter{SortBy: "title", SortOrder: task.SortAsc}
	filter.Normalize()

	tasks, _, err := s.storage.List(s.ctx, s.ownerID, filter)
	require.NoError(s.T(), err)
	require.Len(s.T(), tasks, 3)
	assert.Equal(s.T(), "apple", tasks[0].Title)
	assert.Equal(s.T(), "cherry", tasks[2].Title)

	filter.SortOrder = task.SortDesc
	tasks, _, err = s.storage.List(s.ctx, s.ownerID, filter)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "cherry", tasks[0].Title)
}

func (s *PostgresTestSuite) TestStorage_HealthCheck() {
	require.NoError(s.T(), s.storage.HealthCheck(s.ctx))
}
