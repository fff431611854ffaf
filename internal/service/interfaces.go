package service

import (
	"context"

	"github.com/google/uuid"

	"taskboard/internal/models/task"
	"taskboard/internal/models/user"
)

type TaskRepository interface {
	Create(context.Context, *task.Task) error
	Update(context.Context, *task.Task) error
	GetByID(context.Context, uuid.UUID) (*task.Task, error)
	Delete(context.Context, uuid.UUID) error
	List(context.Context, uuid.UUID, task.Filter) ([]*task.Task, int, error)
	HealthCheck(context.Context) error
}

type UserRepository interface {
	Create(context.Context, *user.User) error
	GetByEmail(context.Context, string) (*user.User, error)
	GetByID(context.Context, uuid.UUID) (*user.User, error)
}
