package handlers

import (
	"context"

	"github.com/google/uuid"

	"taskboard/internal/models/task"
	"taskboard/internal/models/user"
	"taskboard/internal/service"
)

type TaskService interface {
	FindAll(context.Context, task.Filter, uuid.UUID) ([]*task.Task, int, error)
	FindOne(context.Context, uuid.UUID) (*task.Task, error)
	Create(context.Context, service.CreateTaskParams) (*task.Task, error)
	Update(context.Context, *task.Task, service.TaskPatch) (*task.Task, error)
	Delete(context.Context, *task.Task) error
	AddLabels(context.Context, *task.Task, []string) (*task.Task, error)
	DeleteLabels(context.Context, *task.Task, []string) (*task.Task, error)
	HealthCheck(context.Context) error
}

type AuthService interface {
	Register(ctx context.Context, email, name, password string) (*user.User, error)
	Login(ctx context.Context, email, password string) (string, error)
	Profile(context.Context, uuid.UUID) (*user.User, error)
}
